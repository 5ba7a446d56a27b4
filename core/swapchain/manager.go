// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package swapchain owns the presentable images of a surface and everything
// that has to be rebuilt with them when the surface changes.
package swapchain

import (
	"github.com/devblok/phalanx/gfx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// QueueFamilies holds the indices of the queue families used for rendering.
type QueueFamilies struct {
	Graphics uint32
	Present  uint32
}

// Sharing returns how swapchain images are shared between the families.
func (q QueueFamilies) Sharing() Sharing {
	if q.Graphics == q.Present {
		return Sharing{}
	}
	return Sharing{
		Concurrent: true,
		Families:   []uint32{q.Graphics, q.Present},
	}
}

// Sharing describes image ownership between queue families.
type Sharing struct {
	Concurrent bool
	Families   []uint32
}

// Mode returns the Vulkan sharing mode.
func (s Sharing) Mode() vk.SharingMode {
	if s.Concurrent {
		return vk.SharingModeConcurrent
	}
	return vk.SharingModeExclusive
}

// Spec is the resolved description of a swapchain generation.
type Spec struct {
	Format      SurfaceFormat
	PresentMode vk.PresentMode
	Extent      Extent
	MinImages   uint32
	Sharing     Sharing
}

// Generation is one swapchain and everything built on top of it.
// Release destroys the members in the reverse order of creation.
type Generation interface {
	gfx.Releasable

	// Len returns the number of swapchain images.
	Len() int

	// Extent returns the size of the images.
	Extent() Extent
}

// Backend builds generations on a device.
type Backend interface {

	// WaitIdle blocks until the device has no work left.
	WaitIdle() error

	// Capabilities queries the surface.
	Capabilities() (Capabilities, error)

	// Build creates a complete generation for the spec.
	Build(spec Spec) (Generation, error)
}

// Surface is the window side of the swapchain.
type Surface interface {

	// FramebufferSize returns the drawable size in pixels.
	FramebufferSize() (int, int)

	// WaitEvents blocks until the window receives an event.
	WaitEvents()
}

// closer is implemented by surfaces that can be closed while minimized.
type closer interface {
	Closed() bool
}

// NewManager creates a Manager, no generation is built until Build is called.
func NewManager(backend Backend, surface Surface, families QueueFamilies, logger logrus.FieldLogger) *Manager {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Manager{
		log:      logger,
		backend:  backend,
		surface:  surface,
		families: families,
	}
}

// Manager creates and rebuilds swapchain generations.
type Manager struct {
	log logrus.FieldLogger

	backend  Backend
	surface  Surface
	families QueueFamilies

	current Generation
	spec    Spec
	builds  int
}

// Build creates the first generation.
func (m *Manager) Build() (Generation, error) {
	if m.current != nil {
		return nil, errors.New("swapchain.Build(): already built")
	}
	if err := m.build(); err != nil {
		return nil, err
	}
	return m.current, nil
}

// Rebuild waits until the surface has a drawable area, waits for the device
// to go idle, destroys the current generation and builds a new one.
// It returns the number of images in the new generation. If the surface is
// closed while minimized the current generation is kept.
func (m *Manager) Rebuild(reason string) (int, error) {
	closed, err := m.waitDrawable()
	if err != nil {
		return 0, errors.Wrapf(err, "rebuild (%s)", reason)
	}
	if closed {
		m.log.Info("window closed while minimized")
		return m.images(), nil
	}

	if err := m.backend.WaitIdle(); err != nil {
		return 0, errors.Wrap(err, "vk.DeviceWaitIdle()")
	}

	if m.current != nil {
		m.current.Release()
		m.current = nil
	}

	if err := m.build(); err != nil {
		return 0, errors.Wrapf(err, "rebuild (%s)", reason)
	}
	return m.current.Len(), nil
}

// waitDrawable blocks on window events until both the framebuffer and the
// extent the surface reports are non-zero, or the surface is closed.
func (m *Manager) waitDrawable() (bool, error) {
	waited := false
	for {
		width, height := m.surface.FramebufferSize()
		if width > 0 && height > 0 {
			caps, err := m.backend.Capabilities()
			if err != nil {
				return false, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceCapabilities()")
			}
			if !ChooseExtent(caps, width, height).Empty() {
				if waited {
					m.log.WithFields(logrus.Fields{"width": width, "height": height}).Info("window restored")
				}
				return false, nil
			}
		}

		if !waited {
			m.log.Info("window minimized, waiting")
			waited = true
		}
		m.surface.WaitEvents()
		if c, ok := m.surface.(closer); ok && c.Closed() {
			return true, nil
		}
	}
}

func (m *Manager) build() error {
	caps, err := m.backend.Capabilities()
	if err != nil {
		return errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceCapabilities()")
	}

	format, preferred, err := ChooseFormat(caps.Formats)
	if err != nil {
		return err
	}
	if !preferred {
		m.log.WithField("format", format.Format).Warn("couldn't get the desired swap surface format, using the first one")
	}

	if len(caps.PresentModes) == 0 {
		return ErrNoPresentModes
	}
	mode, preferred := ChoosePresentMode(caps.PresentModes)
	if !preferred {
		m.log.Debug("mailbox present mode not available, falling back to FIFO")
	}

	width, height := m.surface.FramebufferSize()
	extent := ChooseExtent(caps, width, height)
	if extent.Empty() {
		return ErrEmptyExtent
	}
	spec := Spec{
		Format:      format,
		PresentMode: mode,
		Extent:      extent,
		MinImages:   ChooseImageCount(caps),
		Sharing:     m.families.Sharing(),
	}

	gen, err := m.backend.Build(spec)
	if err != nil {
		return err
	}
	m.current = gen
	m.spec = spec
	m.builds++

	m.log.WithFields(logrus.Fields{
		"generation":  m.builds,
		"images":      gen.Len(),
		"width":       gen.Extent().Width,
		"height":      gen.Extent().Height,
		"presentMode": spec.PresentMode,
		"concurrent":  spec.Sharing.Concurrent,
	}).Debug("swap chain built")
	return nil
}

func (m *Manager) images() int {
	if m.current == nil {
		return 0
	}
	return m.current.Len()
}

// Current returns the live generation, nil before Build.
func (m *Manager) Current() Generation {
	return m.current
}

// Spec returns the spec the live generation was built with.
func (m *Manager) Spec() Spec {
	return m.spec
}

// Builds returns how many generations were built in total.
func (m *Manager) Builds() int {
	return m.builds
}

// Release destroys the live generation. The device must be idle.
func (m *Manager) Release() {
	if m.current != nil {
		m.current.Release()
		m.current = nil
	}
}
