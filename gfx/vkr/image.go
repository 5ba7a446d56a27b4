// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// TextureFormat is the format textures are uploaded in.
const TextureFormat = vk.FormatR8g8b8a8Srgb

// NewTexture creates a sampled, device local RGBA image from tightly packed
// pixels and transitions it for shader reads.
func NewTexture(ma *MemoryAllocator, tr *Transfer, pixels []byte, width, height uint32) (Image, error) {
	dev := ma.Device()

	staging, err := NewBuffer(ma, uint(len(pixels)), vk.BufferUsageTransferSrcBit, HostVisible)
	if err != nil {
		return Image{}, err
	}
	defer staging.Release()

	if err := staging.Mem().Write(pixels); err != nil {
		return Image{}, err
	}

	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        TextureFormat,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
		SharingMode:   vk.SharingModeExclusive,
		Samples:       vk.SampleCount1Bit,
	}

	var image vk.Image
	if err := vk.Error(vk.CreateImage(dev, &createInfo, nil, &image)); err != nil {
		return Image{}, fmt.Errorf("vk.CreateImage(): %s", err.Error())
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(dev, image, &req)
	req.Deref()

	memory, err := ma.Malloc(req, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		vk.DestroyImage(dev, image, nil)
		return Image{}, err
	}
	img := Image{
		device: dev,
		image:  image,
		memory: memory,
	}

	if err := vk.Error(vk.BindImageMemory(dev, image, memory.Get(), 0)); err != nil {
		img.Release()
		return Image{}, fmt.Errorf("vk.BindImageMemory(): %s", err.Error())
	}

	if err := tr.TransitionLayout(image, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
		img.Release()
		return Image{}, err
	}
	if err := tr.CopyBufferToImage(staging.Get(), image, width, height); err != nil {
		img.Release()
		return Image{}, err
	}
	if err := tr.TransitionLayout(image, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal); err != nil {
		img.Release()
		return Image{}, err
	}

	view, err := NewImageView(dev, image, TextureFormat)
	if err != nil {
		img.Release()
		return Image{}, err
	}
	img.view = view

	return img, nil
}

// NewImageView creates a 2D color view of the whole image.
func NewImageView(dev vk.Device, image vk.Image, format vk.Format) (vk.ImageView, error) {
	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(dev, &ivci, nil, &view)); err != nil {
		return nil, fmt.Errorf("vk.CreateImageView(): %s", err.Error())
	}
	return view, nil
}

// Image implements and abstracts vulkan image primitive.
type Image struct {
	device vk.Device
	image  vk.Image
	view   vk.ImageView
	memory Memory
}

// Get returns the vulkan Image handle.
func (i *Image) Get() vk.Image {
	return i.image
}

// View returns the image view.
func (i *Image) View() vk.ImageView {
	return i.view
}

// Mem returns the underlying memory of the Image.
func (i *Image) Mem() *Memory {
	return &i.memory
}

// Release destroys the view, the image and its memory.
func (i *Image) Release() {
	if i.view != nil {
		vk.DestroyImageView(i.device, i.view, nil)
	}
	vk.DestroyImage(i.device, i.image, nil)
	i.memory.Release()
}
