// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package swapchain

import (
	"math"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// package errors
var (
	ErrNoFormats      = errors.New("surface reports no formats")
	ErrNoPresentModes = errors.New("surface reports no present modes")
	ErrEmptyExtent    = errors.New("surface has no drawable area")
)

// undefinedExtent marks a surface whose size is decided by the swapchain.
const undefinedExtent = math.MaxUint32

// Extent is a two dimensional size in pixels.
type Extent struct {
	Width, Height uint32
}

// Empty reports whether either dimension is zero.
func (e Extent) Empty() bool {
	return e.Width == 0 || e.Height == 0
}

// Aspect returns width over height.
func (e Extent) Aspect() float32 {
	if e.Height == 0 {
		return 1
	}
	return float32(e.Width) / float32(e.Height)
}

// SurfaceFormat pairs a pixel format with a color space.
type SurfaceFormat struct {
	Format     vk.Format
	ColorSpace vk.ColorSpace
}

// Capabilities is what the surface supports right now.
type Capabilities struct {
	MinImageCount uint32

	// MaxImageCount of 0 means there is no upper limit.
	MaxImageCount uint32

	CurrentExtent Extent
	MinExtent     Extent
	MaxExtent     Extent

	Formats      []SurfaceFormat
	PresentModes []vk.PresentMode
}

// ChooseFormat picks 8-bit BGRA sRGB when offered, the first format otherwise.
func ChooseFormat(formats []SurfaceFormat) (SurfaceFormat, bool, error) {
	if len(formats) == 0 {
		return SurfaceFormat{}, false, ErrNoFormats
	}
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f, true, nil
		}
	}
	return formats[0], false, nil
}

// ChoosePresentMode picks mailbox when offered, FIFO otherwise.
// FIFO is always supported by a conforming implementation.
func ChoosePresentMode(modes []vk.PresentMode) (vk.PresentMode, bool) {
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			return m, true
		}
	}
	return vk.PresentModeFifo, false
}

// ChooseExtent uses the current extent of the surface, unless the surface
// leaves it to the swapchain, then the framebuffer size clamped to the limits is used.
func ChooseExtent(caps Capabilities, width, height int) Extent {
	if caps.CurrentExtent.Width != undefinedExtent {
		return caps.CurrentExtent
	}
	return Extent{
		Width:  clamp(toUint32(width), caps.MinExtent.Width, caps.MaxExtent.Width),
		Height: clamp(toUint32(height), caps.MinExtent.Height, caps.MaxExtent.Height),
	}
}

// ChooseImageCount asks for one image above the minimum, within the maximum.
func ChooseImageCount(caps Capabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func clamp(v, min, max uint32) uint32 {
	if v > max {
		v = max
	}
	if v < min {
		v = min
	}
	return v
}

func toUint32(v int) uint32 {
	if v < 0 {
		return 0
	}
	return uint32(v)
}
