// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/devblok/phalanx/core/swapchain"
	"github.com/devblok/phalanx/device"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// backend builds swapchain generations on the device context.
type backend struct {
	ctx *device.Context
	res *resources

	// from the last Capabilities call
	transform      vk.SurfaceTransformFlagBits
	compositeAlpha vk.CompositeAlphaFlagBits
}

func (b *backend) WaitIdle() error {
	return b.ctx.WaitIdle()
}

func (b *backend) Capabilities() (swapchain.Capabilities, error) {
	phy, surface := b.ctx.PhysicalDevice(), b.ctx.Surface()

	var sc vk.SurfaceCapabilities
	if err := vkError(vk.GetPhysicalDeviceSurfaceCapabilities(phy, surface, &sc)); err != nil {
		return swapchain.Capabilities{}, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceCapabilities()")
	}
	sc.Deref()
	sc.CurrentExtent.Deref()
	sc.MinImageExtent.Deref()
	sc.MaxImageExtent.Deref()
	b.transform = sc.CurrentTransform
	b.compositeAlpha = chooseCompositeAlpha(sc.SupportedCompositeAlpha)

	caps := swapchain.Capabilities{
		MinImageCount: sc.MinImageCount,
		MaxImageCount: sc.MaxImageCount,
		CurrentExtent: extentOf(sc.CurrentExtent),
		MinExtent:     extentOf(sc.MinImageExtent),
		MaxExtent:     extentOf(sc.MaxImageExtent),
	}

	var formatCount uint32
	if err := vkError(vk.GetPhysicalDeviceSurfaceFormats(phy, surface, &formatCount, nil)); err != nil {
		return caps, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceFormats()")
	}
	formats := make([]vk.SurfaceFormat, formatCount)
	if err := vkError(vk.GetPhysicalDeviceSurfaceFormats(phy, surface, &formatCount, formats)); err != nil {
		return caps, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceFormats()")
	}
	for _, f := range formats {
		f.Deref()
		caps.Formats = append(caps.Formats, swapchain.SurfaceFormat{Format: f.Format, ColorSpace: f.ColorSpace})
	}

	var modeCount uint32
	if err := vkError(vk.GetPhysicalDeviceSurfacePresentModes(phy, surface, &modeCount, nil)); err != nil {
		return caps, errors.Wrap(err, "vk.GetPhysicalDeviceSurfacePresentModes()")
	}
	caps.PresentModes = make([]vk.PresentMode, modeCount)
	if err := vkError(vk.GetPhysicalDeviceSurfacePresentModes(phy, surface, &modeCount, caps.PresentModes)); err != nil {
		return caps, errors.Wrap(err, "vk.GetPhysicalDeviceSurfacePresentModes()")
	}
	return caps, nil
}

func (b *backend) Build(spec swapchain.Spec) (swapchain.Generation, error) {
	gen, err := newGeneration(b, spec)
	if err != nil {
		return nil, err
	}
	return gen, nil
}

func extentOf(e vk.Extent2D) swapchain.Extent {
	return swapchain.Extent{Width: e.Width, Height: e.Height}
}

var compositeAlphaFlags = []vk.CompositeAlphaFlagBits{
	vk.CompositeAlphaOpaqueBit,
	vk.CompositeAlphaPreMultipliedBit,
	vk.CompositeAlphaPostMultipliedBit,
	vk.CompositeAlphaInheritBit,
}

// chooseCompositeAlpha picks the first supported mode, preferring opaque.
func chooseCompositeAlpha(supported vk.CompositeAlphaFlags) vk.CompositeAlphaFlagBits {
	for _, flag := range compositeAlphaFlags {
		if supported&vk.CompositeAlphaFlags(flag) != 0 {
			return flag
		}
	}
	return vk.CompositeAlphaOpaqueBit
}
