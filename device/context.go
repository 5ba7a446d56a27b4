// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"fmt"

	"github.com/devblok/phalanx/core"
	"github.com/devblok/phalanx/gfx/vkr"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// SurfaceFunc creates the window surface for an instance.
type SurfaceFunc func(instance vk.Instance) (vk.Surface, error)

// Configuration is used to create a Context
type Configuration struct {
	Instance         InstanceConfiguration
	DeviceExtensions []string
}

// NewContext creates the instance and the surface, picks the first
// suitable physical device and creates a logical device on it.
func NewContext(appInfo *vk.ApplicationInfo, cfg Configuration, surfaceFn SurfaceFunc, logger logrus.FieldLogger) (*Context, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	instance, err := NewInstance(appInfo, cfg.Instance, logger)
	if err != nil {
		return nil, err
	}
	c := &Context{
		Instance:   instance,
		log:        logger,
		extensions: cfg.DeviceExtensions,
	}

	surface, err := surfaceFn(instance.Handle())
	if err != nil {
		c.Destroy()
		return nil, errors.Wrap(err, "create surface")
	}
	c.surface = surface

	if err := c.pickPhysicalDevice(); err != nil {
		c.Destroy()
		return nil, err
	}

	if err := c.createLogicalDevice(); err != nil {
		c.Destroy()
		return nil, err
	}
	return c, nil
}

// Context owns the instance, the surface and the logical device.
type Context struct {
	*Instance
	log logrus.FieldLogger

	extensions []string

	surface        vk.Surface
	physicalDevice vk.PhysicalDevice
	device         vk.Device
	families       QueueFamilyIndices
	graphicsQueue  vk.Queue
	presentQueue   vk.Queue

	allocator *vkr.MemoryAllocator
}

func (c *Context) pickPhysicalDevice() error {
	if len(c.AvailableDevices()) == 0 {
		return errors.New("failed to find GPUs with Vulkan support")
	}

	for _, dev := range c.AvailableDevices() {
		props := deviceProperties(dev)
		name := vk.ToString(props.DeviceName[:])
		s := c.inspect(dev)
		if reason := s.check(); reason != "" {
			c.log.WithFields(logrus.Fields{"device": name, "reason": reason}).Info("skipping unsuitable device")
			continue
		}
		c.physicalDevice = dev
		c.families = s.families
		c.log.WithFields(logrus.Fields{
			"device":   name,
			"graphics": s.families.Graphics,
			"present":  s.families.Present,
		}).Info("using device")
		return nil
	}
	return ErrNoSuitableDevice
}

func (c *Context) inspect(dev vk.PhysicalDevice) suitability {
	var s suitability

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(dev, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(dev, &queueFamilyCount, queueFamilies)
	flags := make([]vk.QueueFlags, len(queueFamilies))
	for i := range queueFamilies {
		queueFamilies[i].Deref()
		flags[i] = queueFamilies[i].QueueFlags
	}
	s.families = findQueueFamilies(flags, func(family uint32) bool {
		var supported vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(dev, family, c.surface, &supported)
		return supported.B()
	})

	available, err := deviceExtensions(dev)
	if err != nil {
		s.missing = c.extensions
	} else {
		s.missing = missingExtensions(c.extensions, available)
	}

	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(dev, c.surface, &formatCount, nil)
	s.formats = int(formatCount)

	var presentModeCount uint32
	vk.GetPhysicalDeviceSurfacePresentModes(dev, c.surface, &presentModeCount, nil)
	s.presentModes = int(presentModeCount)

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(dev, &features)
	features.Deref()
	s.anisotropy = features.SamplerAnisotropy.B()
	return s
}

func (c *Context) createLogicalDevice() error {
	var queueInfos []vk.DeviceQueueCreateInfo
	for _, family := range c.families.Unique() {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	extensions := core.SafeStrings(c.extensions)
	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(c.layers)),
		PpEnabledLayerNames:     c.layers,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{SamplerAnisotropy: vk.True}},
	}

	var device vk.Device
	if err := vk.Error(vk.CreateDevice(c.physicalDevice, &dci, nil, &device)); err != nil {
		return errors.New("vk.CreateDevice(): " + err.Error())
	}
	c.device = device

	vk.GetDeviceQueue(device, c.families.Graphics, 0, &c.graphicsQueue)
	vk.GetDeviceQueue(device, c.families.Present, 0, &c.presentQueue)

	c.allocator = vkr.NewMemoryAllocator(device, c.physicalDevice)
	return nil
}

// Surface returns the window surface
func (c *Context) Surface() vk.Surface {
	return c.surface
}

// PhysicalDevice returns the chosen GPU
func (c *Context) PhysicalDevice() vk.PhysicalDevice {
	return c.physicalDevice
}

// Device returns the logical device
func (c *Context) Device() vk.Device {
	return c.device
}

// Families returns the queue families the queues come from
func (c *Context) Families() QueueFamilyIndices {
	return c.families
}

// GraphicsQueue returns the queue commands are submitted to
func (c *Context) GraphicsQueue() vk.Queue {
	return c.graphicsQueue
}

// PresentQueue returns the queue images are presented with,
// may be the same queue as GraphicsQueue.
func (c *Context) PresentQueue() vk.Queue {
	return c.presentQueue
}

// Allocator returns the memory allocator of the logical device
func (c *Context) Allocator() *vkr.MemoryAllocator {
	return c.allocator
}

// MaxSamplerAnisotropy returns the device limit for the texture sampler
func (c *Context) MaxSamplerAnisotropy() float32 {
	props := deviceProperties(c.physicalDevice)
	props.Limits.Deref()
	return props.Limits.MaxSamplerAnisotropy
}

// WaitIdle waits until the device has finished all submitted work
func (c *Context) WaitIdle() error {
	if err := vk.Error(vk.DeviceWaitIdle(c.device)); err != nil {
		return fmt.Errorf("vk.DeviceWaitIdle(): %s", err.Error())
	}
	return nil
}

// Destroy destroys the device, the surface and the instance in that order
func (c *Context) Destroy() {
	if c == nil {
		return
	}
	if c.device != nil {
		vk.DestroyDevice(c.device, nil)
		c.device = nil
	}
	if c.surface != vk.NullSurface {
		vk.DestroySurface(c.Handle(), c.surface, nil)
		c.surface = vk.NullSurface
	}
	c.Instance.Destroy()
}
