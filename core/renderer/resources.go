// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/devblok/phalanx/assets"
	"github.com/devblok/phalanx/core"
	"github.com/devblok/phalanx/device"
	"github.com/devblok/phalanx/gfx"
	"github.com/devblok/phalanx/gfx/vkr"
	"github.com/devblok/phalanx/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// resources live as long as the renderer and survive swapchain rebuilds.
type resources struct {
	device vk.Device

	stages []vk.PipelineShaderStageCreateInfo

	commandPool         vk.CommandPool
	descriptorSetLayout vk.DescriptorSetLayout

	vertices   vkr.Buffer
	indices    vkr.Buffer
	indexCount uint32

	texture vkr.Image
	sampler vk.Sampler

	stack gfx.Stack
}

func newResources(ctx *device.Context, src assets.Source, cfg core.AssetsConfiguration, log logrus.FieldLogger) (*resources, error) {
	r := &resources{device: ctx.Device()}
	steps := []func() error{
		func() error { return r.loadShaders(src) },
		func() error { return r.createCommandPool(ctx.Families().Graphics) },
		r.createDescriptorSetLayout,
		func() error {
			tr := vkr.NewTransfer(r.device, r.commandPool, ctx.GraphicsQueue())
			if err := r.loadMesh(ctx.Allocator(), tr, src, cfg.Mesh); err != nil {
				return err
			}
			return r.loadTexture(ctx.Allocator(), tr, src, cfg.Texture)
		},
		func() error { return r.createSampler(ctx.MaxSamplerAnisotropy()) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			r.Release()
			return nil, err
		}
	}

	log.WithFields(logrus.Fields{
		"mesh":    cfg.Mesh,
		"indices": r.indexCount,
		"texture": cfg.Texture,
	}).Info("resources loaded")
	return r, nil
}

func (r *resources) loadShaders(src assets.Source) error {
	vert, frag, err := assets.Shaders(src)
	if err != nil {
		return err
	}
	for _, shader := range []assets.Shader{vert, frag} {
		stage, err := shaderStage(shader.Type)
		if err != nil {
			return err
		}
		module, err := newShaderModule(r.device, shader)
		if err != nil {
			return err
		}
		r.stack.PushFunc(func() { vk.DestroyShaderModule(r.device, module, nil) })
		r.stages = append(r.stages, vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  stage,
			Module: module,
			PName:  "main\x00",
		})
	}
	return nil
}

func (r *resources) createCommandPool(family uint32) error {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: family,
	}
	var pool vk.CommandPool
	if err := vkError(vk.CreateCommandPool(r.device, &cpci, nil, &pool)); err != nil {
		return errors.Wrap(err, "vk.CreateCommandPool()")
	}
	r.commandPool = pool
	r.stack.PushFunc(func() { vk.DestroyCommandPool(r.device, pool, nil) })
	return nil
}

func (r *resources) createDescriptorSetLayout() error {
	dslci := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 2,
		PBindings: []vk.DescriptorSetLayoutBinding{
			{
				Binding:         0,
				DescriptorCount: 1,
				DescriptorType:  vk.DescriptorTypeUniformBuffer,
				StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
			},
			{
				Binding:         1,
				DescriptorCount: 1,
				DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
				StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
			},
		},
	}

	var layout vk.DescriptorSetLayout
	if err := vkError(vk.CreateDescriptorSetLayout(r.device, &dslci, nil, &layout)); err != nil {
		return errors.Wrap(err, "vk.CreateDescriptorSetLayout()")
	}
	r.descriptorSetLayout = layout
	r.stack.PushFunc(func() { vk.DestroyDescriptorSetLayout(r.device, layout, nil) })
	return nil
}

func (r *resources) loadMesh(ma *vkr.MemoryAllocator, tr *vkr.Transfer, src assets.Source, name string) error {
	data, err := src.Open(name)
	if err != nil {
		return err
	}
	mesh, err := model.Import(name, data)
	if err != nil {
		return err
	}
	if len(mesh.Indices) == 0 {
		return errors.Errorf("mesh %s has no triangles", name)
	}

	r.vertices, err = vkr.NewDeviceLocalBuffer(ma, tr, mesh.VertexBytes(), vk.BufferUsageVertexBufferBit)
	if err != nil {
		return errors.Wrap(err, "vertex buffer")
	}
	r.stack.Push(&r.vertices)

	r.indices, err = vkr.NewDeviceLocalBuffer(ma, tr, mesh.IndexBytes(), vk.BufferUsageIndexBufferBit)
	if err != nil {
		return errors.Wrap(err, "index buffer")
	}
	r.stack.Push(&r.indices)
	r.indexCount = uint32(len(mesh.Indices))
	return nil
}

func (r *resources) loadTexture(ma *vkr.MemoryAllocator, tr *vkr.Transfer, src assets.Source, name string) error {
	data, err := src.Open(name)
	if err != nil {
		return err
	}
	img, _, err := assets.DecodeTexture(data)
	if err != nil {
		return errors.Wrapf(err, "texture %s", name)
	}

	bounds := img.Bounds()
	r.texture, err = vkr.NewTexture(ma, tr, core.GetPixels(img, 0), uint32(bounds.Dx()), uint32(bounds.Dy()))
	if err != nil {
		return errors.Wrapf(err, "texture %s", name)
	}
	r.stack.Push(&r.texture)
	return nil
}

func (r *resources) createSampler(maxAnisotropy float32) error {
	sci := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.True,
		MaxAnisotropy:           maxAnisotropy,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
	}
	var sampler vk.Sampler
	if err := vkError(vk.CreateSampler(r.device, &sci, nil, &sampler)); err != nil {
		return errors.Wrap(err, "vk.CreateSampler()")
	}
	r.sampler = sampler
	r.stack.PushFunc(func() { vk.DestroySampler(r.device, sampler, nil) })
	return nil
}

// Release destroys everything in reverse order of creation.
func (r *resources) Release() {
	r.stack.Release()
}
