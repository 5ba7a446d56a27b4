// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"fmt"
	"unsafe"

	"github.com/devblok/phalanx/core"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// DefaultVulkanApplicationInfo application info describes a Vulkan application
var DefaultVulkanApplicationInfo = &vk.ApplicationInfo{
	SType:              vk.StructureTypeApplicationInfo,
	ApiVersion:         vk.MakeVersion(1, 0, 0),
	ApplicationVersion: vk.MakeVersion(1, 0, 0),
	PApplicationName:   "Phalanx\x00",
	PEngineName:        "Phalanx\x00",
}

// InstanceConfiguration describes what to enable on the instance
type InstanceConfiguration struct {
	// Validation loads ValidationLayer and logs its reports.
	Validation bool

	// Extensions are the instance extensions the window needs.
	Extensions []string

	Layers []string

	// ProcAddr is vkGetInstanceProcAddr from the window library,
	// when nil the loader is looked up in the default locations.
	ProcAddr unsafe.Pointer
}

// NewInstance creates a Vulkan instance
func NewInstance(appInfo *vk.ApplicationInfo, cfg InstanceConfiguration, logger logrus.FieldLogger) (*Instance, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	extensions := core.SafeStrings(cfg.Extensions)
	layers := core.SafeStrings(cfg.Layers)
	if cfg.Validation {
		layers = append(layers, core.SafeString(ValidationLayer))
		extensions = append(extensions, core.SafeString("VK_EXT_debug_report"))
	}

	if cfg.ProcAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.New("vk.InstanceProcAddr(): " + err.Error())
		}
	} else {
		vk.SetGetInstanceProcAddr(cfg.ProcAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.New("vk.Init(): " + err.Error())
	}

	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, errors.New("vk.CreateInstance(): " + err.Error())
	}
	vk.InitInstance(instance)

	v := &Instance{
		log:    logger,
		handle: instance,
		layers: layers,
	}

	if cfg.Validation {
		if err := v.setupDebugReport(); err != nil {
			v.Destroy()
			return nil, err
		}
	}

	devices, err := enumerateDevices(instance)
	if err != nil {
		v.Destroy()
		return nil, errors.Wrap(err, "device.enumerateDevices()")
	}
	v.availableDevices = devices
	return v, nil
}

// Instance describes a Vulkan API Instance
type Instance struct {
	log logrus.FieldLogger

	handle           vk.Instance
	debug            vk.DebugReportCallback
	layers           []string
	availableDevices []vk.PhysicalDevice
}

func (v *Instance) setupDebugReport() error {
	dci := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit | vk.DebugReportWarningBit | vk.DebugReportErrorBit),
		PfnCallback: func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint,
			messageCode int32, layerPrefix string, message string, userData unsafe.Pointer) vk.Bool32 {
			entry := v.log.WithField("layer", layerPrefix)
			if flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0 {
				entry.Error(message)
			} else {
				entry.Warn(message)
			}
			return vk.False
		},
	}
	var dbg vk.DebugReportCallback
	if err := vk.Error(vk.CreateDebugReportCallback(v.handle, &dci, nil, &dbg)); err != nil {
		return errors.New("vk.CreateDebugReportCallback(): " + err.Error())
	}
	v.debug = dbg
	return nil
}

func enumerateDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)); err != nil {
		return nil, fmt.Errorf("vulkan physical device enumeration failed: %s", err)
	}
	availableDevices := make([]vk.PhysicalDevice, deviceCount)
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, availableDevices)); err != nil {
		return nil, fmt.Errorf("vulkan physical device enumeration failed: %s", err)
	}
	return availableDevices, nil
}

// Handle returns the inner vk.Instance
func (v *Instance) Handle() vk.Instance {
	return v.handle
}

// AvailableDevices returns handles of Physical Devices
func (v *Instance) AvailableDevices() []vk.PhysicalDevice {
	return v.availableDevices
}

// PhysicalDevicesInfo returns a struct for each Physical Device
// along with info about those devices
func (v *Instance) PhysicalDevicesInfo() []PhysicalDeviceInfo {
	pdi := make([]PhysicalDeviceInfo, len(v.availableDevices))
	for i, dev := range v.availableDevices {
		extensions, err := deviceExtensions(dev)
		if err != nil {
			pdi[i].Invalid = true
		}
		pdi[i].Extensions = extensions

		// Get layers info
		var numDeviceLayers uint32
		if err := vk.Error(vk.EnumerateDeviceLayerProperties(dev, &numDeviceLayers, nil)); err != nil {
			pdi[i].Invalid = true
		}
		deviceLayers := make([]vk.LayerProperties, numDeviceLayers)
		if err := vk.Error(vk.EnumerateDeviceLayerProperties(dev, &numDeviceLayers, deviceLayers)); err != nil {
			pdi[i].Invalid = true
		}
		for _, layer := range deviceLayers {
			layer.Deref()
			pdi[i].Layers = append(pdi[i].Layers, vk.ToString(layer.LayerName[:]))
		}

		// Get memory info
		var memoryProperties vk.PhysicalDeviceMemoryProperties
		vk.GetPhysicalDeviceMemoryProperties(dev, &memoryProperties)
		memoryProperties.Deref()
		for iMem := uint32(0); iMem < memoryProperties.MemoryHeapCount; iMem++ {
			memoryProperties.MemoryHeaps[iMem].Deref()
			pdi[i].Memory += uint64(memoryProperties.MemoryHeaps[iMem].Size)
		}

		// Get general device info
		props := deviceProperties(dev)
		pdi[i].ID = int(props.DeviceID)
		pdi[i].VendorID = int(props.VendorID)
		pdi[i].Name = vk.ToString(props.DeviceName[:])
		pdi[i].DriverVersion = int(props.DriverVersion)
	}
	return pdi
}

func deviceProperties(dev vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(dev, &props)
	props.Deref()
	return props
}

func deviceExtensions(dev vk.PhysicalDevice) ([]string, error) {
	var numDeviceExtensions uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(dev, "", &numDeviceExtensions, nil)); err != nil {
		return nil, err
	}
	deviceExt := make([]vk.ExtensionProperties, numDeviceExtensions)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(dev, "", &numDeviceExtensions, deviceExt)); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(deviceExt))
	for _, ext := range deviceExt {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// Destroy destroys the debug callback and the instance
func (v *Instance) Destroy() {
	if v == nil {
		return
	}
	v.availableDevices = nil
	if v.debug != nil {
		vk.DestroyDebugReportCallback(v.handle, v.debug, nil)
		v.debug = nil
	}
	vk.DestroyInstance(v.handle, nil)
}
