// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package swapchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestChooseFormat(t *testing.T) {
	srgb := SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	unorm := SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	f, preferred, err := ChooseFormat([]SurfaceFormat{unorm, srgb})
	require.NoError(t, err)
	assert.True(t, preferred)
	assert.Equal(t, srgb, f)

	f, preferred, err = ChooseFormat([]SurfaceFormat{unorm})
	require.NoError(t, err)
	assert.False(t, preferred)
	assert.Equal(t, unorm, f)

	_, _, err = ChooseFormat(nil)
	assert.Equal(t, ErrNoFormats, err)
}

func TestChoosePresentMode(t *testing.T) {
	mode, preferred := ChoosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox})
	assert.True(t, preferred)
	assert.Equal(t, vk.PresentModeMailbox, mode)

	mode, preferred = ChoosePresentMode([]vk.PresentMode{vk.PresentModeImmediate})
	assert.False(t, preferred)
	assert.Equal(t, vk.PresentModeFifo, mode)
}

func TestChooseExtent(t *testing.T) {
	caps := Capabilities{
		CurrentExtent: Extent{Width: 640, Height: 480},
		MinExtent:     Extent{Width: 1, Height: 1},
		MaxExtent:     Extent{Width: 4096, Height: 4096},
	}
	assert.Equal(t, Extent{640, 480}, ChooseExtent(caps, 1920, 1080))

	caps.CurrentExtent = Extent{Width: undefinedExtent, Height: undefinedExtent}
	assert.Equal(t, Extent{1920, 1080}, ChooseExtent(caps, 1920, 1080))
	assert.Equal(t, Extent{4096, 1}, ChooseExtent(caps, 8000, 0))
	assert.Equal(t, Extent{1, 1}, ChooseExtent(caps, -5, -5))
}

func TestChooseImageCount(t *testing.T) {
	assert.Equal(t, uint32(3), ChooseImageCount(Capabilities{MinImageCount: 2}))
	assert.Equal(t, uint32(3), ChooseImageCount(Capabilities{MinImageCount: 2, MaxImageCount: 8}))
	assert.Equal(t, uint32(2), ChooseImageCount(Capabilities{MinImageCount: 2, MaxImageCount: 2}))
}

func TestSharing(t *testing.T) {
	s := QueueFamilies{Graphics: 0, Present: 0}.Sharing()
	assert.False(t, s.Concurrent)
	assert.Empty(t, s.Families)
	assert.Equal(t, vk.SharingModeExclusive, s.Mode())

	s = QueueFamilies{Graphics: 0, Present: 2}.Sharing()
	assert.True(t, s.Concurrent)
	assert.Equal(t, []uint32{0, 2}, s.Families)
	assert.Equal(t, vk.SharingModeConcurrent, s.Mode())
}
