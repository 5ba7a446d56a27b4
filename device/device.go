// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package device creates the Vulkan instance, picks a physical device
// able to present to the window and creates the logical device with
// its graphics and present queues.
package device

import (
	"errors"
	"strings"

	vk "github.com/vulkan-go/vulkan"
)

// ErrNoSuitableDevice is returned when no GPU can render to the surface.
var ErrNoSuitableDevice = errors.New("failed to find a suitable GPU")

// ValidationLayer is enabled when validation is requested.
const ValidationLayer = "VK_LAYER_KHRONOS_validation"

// PhysicalDeviceInfo describes available physical properties of a rendering device
type PhysicalDeviceInfo struct {
	ID            int
	VendorID      int
	DriverVersion int
	Name          string
	Invalid       bool
	Extensions    []string
	Layers        []string
	Memory        uint64
}

// QueueFamilyIndices locates the graphics and present queue families.
type QueueFamilyIndices struct {
	Graphics uint32
	Present  uint32

	hasGraphics bool
	hasPresent  bool
}

// Complete reports whether both families were found.
func (q QueueFamilyIndices) Complete() bool {
	return q.hasGraphics && q.hasPresent
}

// Unique returns the distinct family indices, graphics first.
func (q QueueFamilyIndices) Unique() []uint32 {
	if q.Graphics == q.Present {
		return []uint32{q.Graphics}
	}
	return []uint32{q.Graphics, q.Present}
}

// findQueueFamilies prefers a single family doing both graphics and present.
func findQueueFamilies(flags []vk.QueueFlags, presentSupport func(family uint32) bool) QueueFamilyIndices {
	var indices QueueFamilyIndices
	for i, f := range flags {
		family := uint32(i)
		graphics := f&vk.QueueFlags(vk.QueueGraphicsBit) != 0
		present := presentSupport(family)

		if graphics && present {
			return QueueFamilyIndices{
				Graphics:    family,
				Present:     family,
				hasGraphics: true,
				hasPresent:  true,
			}
		}
		if graphics && !indices.hasGraphics {
			indices.Graphics, indices.hasGraphics = family, true
		}
		if present && !indices.hasPresent {
			indices.Present, indices.hasPresent = family, true
		}
	}
	return indices
}

// missingExtensions returns the required names that are not available.
func missingExtensions(required, available []string) []string {
	have := make(map[string]bool, len(available))
	for _, name := range available {
		have[strings.TrimRight(name, "\x00")] = true
	}
	var missing []string
	for _, name := range required {
		name = strings.TrimRight(name, "\x00")
		if !have[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

// suitability gathers what decides whether a device can be used.
type suitability struct {
	families     QueueFamilyIndices
	missing      []string
	formats      int
	presentModes int
	anisotropy   bool
}

// check returns an empty reason when the device is suitable.
func (s suitability) check() string {
	switch {
	case !s.families.hasGraphics:
		return "no graphics queue family"
	case !s.families.hasPresent:
		return "no queue family can present to the surface"
	case len(s.missing) > 0:
		return "missing extensions: " + strings.Join(s.missing, ", ")
	case s.formats == 0:
		return "no surface formats"
	case s.presentModes == 0:
		return "no present modes"
	case !s.anisotropy:
		return "sampler anisotropy not supported"
	}
	return ""
}
