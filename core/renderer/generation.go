// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/devblok/phalanx/core/swapchain"
	"github.com/devblok/phalanx/gfx"
	"github.com/devblok/phalanx/gfx/vkr"
	"github.com/devblok/phalanx/model"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// generation is a swapchain and everything sized or counted by it.
type generation struct {
	device vk.Device
	res    *resources
	extent swapchain.Extent
	format vk.Format

	swapchain      vk.Swapchain
	images         []vk.Image
	views          []vk.ImageView
	renderPass     vk.RenderPass
	pipelineLayout vk.PipelineLayout
	pipeline       vk.Pipeline
	framebuffers   []vk.Framebuffer
	uniforms       []vkr.Buffer
	descriptorPool vk.DescriptorPool
	descriptorSets []vk.DescriptorSet
	commandBuffers []vk.CommandBuffer

	stack gfx.Stack
}

func newGeneration(b *backend, spec swapchain.Spec) (*generation, error) {
	g := &generation{
		device: b.ctx.Device(),
		res:    b.res,
		extent: spec.Extent,
		format: spec.Format.Format,
	}
	steps := []func() error{
		func() error { return g.createSwapchain(b, spec) },
		g.createImageViews,
		g.createRenderPass,
		g.createPipelineLayout,
		g.createPipeline,
		g.createFramebuffers,
		func() error { return g.createUniformBuffers(b.ctx.Allocator()) },
		g.createDescriptorPool,
		g.createDescriptorSets,
		g.createCommandBuffers,
		g.recordCommandBuffers,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			g.Release()
			return nil, err
		}
	}
	return g, nil
}

// Len implements swapchain.Generation
func (g *generation) Len() int {
	return len(g.images)
}

// Extent implements swapchain.Generation
func (g *generation) Extent() swapchain.Extent {
	return g.extent
}

// Release implements gfx.Releasable
func (g *generation) Release() {
	g.stack.Release()
}

func (g *generation) createSwapchain(b *backend, spec swapchain.Spec) error {
	scci := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         b.ctx.Surface(),
		MinImageCount:   spec.MinImages,
		ImageFormat:     spec.Format.Format,
		ImageColorSpace: spec.Format.ColorSpace,
		ImageExtent: vk.Extent2D{
			Width:  spec.Extent.Width,
			Height: spec.Extent.Height,
		},
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      spec.Sharing.Mode(),
		QueueFamilyIndexCount: uint32(len(spec.Sharing.Families)),
		PQueueFamilyIndices:   spec.Sharing.Families,
		PreTransform:          b.transform,
		CompositeAlpha:        b.compositeAlpha,
		PresentMode:           spec.PresentMode,
		Clipped:               vk.True,
		OldSwapchain:          vk.NullSwapchain,
	}

	var sc vk.Swapchain
	if err := vkError(vk.CreateSwapchain(g.device, &scci, nil, &sc)); err != nil {
		return errors.Wrap(err, "vk.CreateSwapchain()")
	}
	g.swapchain = sc
	g.stack.PushFunc(func() { vk.DestroySwapchain(g.device, sc, nil) })

	var numImages uint32
	if err := vkError(vk.GetSwapchainImages(g.device, sc, &numImages, nil)); err != nil {
		return errors.Wrap(err, "vk.GetSwapchainImages(num)")
	}
	g.images = make([]vk.Image, numImages)
	if err := vkError(vk.GetSwapchainImages(g.device, sc, &numImages, g.images)); err != nil {
		return errors.Wrap(err, "vk.GetSwapchainImages(images)")
	}
	return nil
}

func (g *generation) createImageViews() error {
	for idx, image := range g.images {
		view, err := vkr.NewImageView(g.device, image, g.format)
		if err != nil {
			return errors.Wrapf(err, "swap chain image %d", idx)
		}
		g.views = append(g.views, view)
		g.stack.PushFunc(func() { vk.DestroyImageView(g.device, view, nil) })
	}
	return nil
}

func (g *generation) createRenderPass() error {
	attachments := []vk.AttachmentDescription{{
		Format:         g.format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpassDependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses: []vk.SubpassDescription{{
			PipelineBindPoint:    vk.PipelineBindPointGraphics,
			ColorAttachmentCount: uint32(len(colorAttachmentRef)),
			PColorAttachments:    colorAttachmentRef,
		}},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{subpassDependency},
	}

	var renderPass vk.RenderPass
	if err := vkError(vk.CreateRenderPass(g.device, &rpci, nil, &renderPass)); err != nil {
		return errors.Wrap(err, "vk.CreateRenderPass()")
	}
	g.renderPass = renderPass
	g.stack.PushFunc(func() { vk.DestroyRenderPass(g.device, renderPass, nil) })
	return nil
}

func (g *generation) createPipelineLayout() error {
	plci := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{g.res.descriptorSetLayout},
	}

	var layout vk.PipelineLayout
	if err := vkError(vk.CreatePipelineLayout(g.device, &plci, nil, &layout)); err != nil {
		return errors.Wrap(err, "vk.CreatePipelineLayout()")
	}
	g.pipelineLayout = layout
	g.stack.PushFunc(func() { vk.DestroyPipelineLayout(g.device, layout, nil) })
	return nil
}

func (g *generation) createPipeline() error {
	bindings := model.VertexBindingDescriptions()
	attributes := model.VertexAttributeDescriptions()

	gpci := []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(g.res.stages)),
		PStages:    g.res.stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   uint32(len(bindings)),
			PVertexBindingDescriptions:      bindings,
			VertexAttributeDescriptionCount: uint32(len(attributes)),
			PVertexAttributeDescriptions:    attributes,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopologyTriangleList,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			CullMode:    vk.CullModeFlags(vk.CullModeBackBit),
			FrontFace:   vk.FrontFaceCounterClockwise,
			LineWidth:   1.0,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				ColorWriteMask: 0xF,
				BlendEnable:    vk.False,
			}},
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: 2,
			PDynamicStates: []vk.DynamicState{
				vk.DynamicStateViewport,
				vk.DynamicStateScissor,
			},
		},
		Layout:     g.pipelineLayout,
		RenderPass: g.renderPass,
	}}

	pipelines := make([]vk.Pipeline, len(gpci))
	if err := vkError(vk.CreateGraphicsPipelines(g.device, vk.PipelineCache(vk.NullHandle), uint32(len(gpci)), gpci, nil, pipelines)); err != nil {
		return errors.Wrap(err, "vk.CreateGraphicsPipelines()")
	}
	g.pipeline = pipelines[0]
	g.stack.PushFunc(func() { vk.DestroyPipeline(g.device, pipelines[0], nil) })
	return nil
}

func (g *generation) createFramebuffers() error {
	for idx, view := range g.views {
		fci := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      g.renderPass,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{view},
			Width:           g.extent.Width,
			Height:          g.extent.Height,
			Layers:          1,
		}
		var framebuffer vk.Framebuffer
		if err := vkError(vk.CreateFramebuffer(g.device, &fci, nil, &framebuffer)); err != nil {
			return errors.Wrapf(err, "vk.CreateFramebuffer()[%d]", idx)
		}
		g.framebuffers = append(g.framebuffers, framebuffer)
		g.stack.PushFunc(func() { vk.DestroyFramebuffer(g.device, framebuffer, nil) })
	}
	return nil
}

func (g *generation) createUniformBuffers(ma *vkr.MemoryAllocator) error {
	g.uniforms = make([]vkr.Buffer, 0, len(g.images))
	for range g.images {
		buffer, err := vkr.NewBuffer(ma, uint(model.UniformSize), vk.BufferUsageUniformBufferBit, vkr.HostVisible)
		if err != nil {
			return errors.Wrap(err, "uniform buffer")
		}
		g.uniforms = append(g.uniforms, buffer)
		g.stack.Push(&g.uniforms[len(g.uniforms)-1])
	}
	return nil
}

func (g *generation) createDescriptorPool() error {
	count := uint32(len(g.images))
	dpci := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       count,
		PoolSizeCount: 2,
		PPoolSizes: []vk.DescriptorPoolSize{
			{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: count},
			{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: count},
		},
	}
	var pool vk.DescriptorPool
	if err := vkError(vk.CreateDescriptorPool(g.device, &dpci, nil, &pool)); err != nil {
		return errors.Wrap(err, "vk.CreateDescriptorPool()")
	}
	g.descriptorPool = pool
	g.stack.PushFunc(func() { vk.DestroyDescriptorPool(g.device, pool, nil) })
	return nil
}

// createDescriptorSets allocates one set per image, the sets are freed with the pool.
func (g *generation) createDescriptorSets() error {
	for idx := range g.images {
		dsai := vk.DescriptorSetAllocateInfo{
			SType:              vk.StructureTypeDescriptorSetAllocateInfo,
			DescriptorPool:     g.descriptorPool,
			DescriptorSetCount: 1,
			PSetLayouts:        []vk.DescriptorSetLayout{g.res.descriptorSetLayout},
		}
		var set vk.DescriptorSet
		if err := vkError(vk.AllocateDescriptorSets(g.device, &dsai, &set)); err != nil {
			return errors.Wrapf(err, "vk.AllocateDescriptorSets()[%d]", idx)
		}
		g.descriptorSets = append(g.descriptorSets, set)

		writes := []vk.WriteDescriptorSet{
			{
				SType:           vk.StructureTypeWriteDescriptorSet,
				DstSet:          set,
				DstBinding:      0,
				DescriptorType:  vk.DescriptorTypeUniformBuffer,
				DescriptorCount: 1,
				PBufferInfo: []vk.DescriptorBufferInfo{{
					Buffer: g.uniforms[idx].Get(),
					Range:  vk.DeviceSize(model.UniformSize),
				}},
			},
			{
				SType:           vk.StructureTypeWriteDescriptorSet,
				DstSet:          set,
				DstBinding:      1,
				DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
				DescriptorCount: 1,
				PImageInfo: []vk.DescriptorImageInfo{{
					ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
					ImageView:   g.res.texture.View(),
					Sampler:     g.res.sampler,
				}},
			},
		}
		vk.UpdateDescriptorSets(g.device, uint32(len(writes)), writes, 0, nil)
	}
	return nil
}

// createCommandBuffers allocates from the pool owned by the resources,
// the buffers go back to the pool on release.
func (g *generation) createCommandBuffers() error {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        g.res.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(len(g.images)),
	}
	buffers := make([]vk.CommandBuffer, len(g.images))
	if err := vkError(vk.AllocateCommandBuffers(g.device, &cbai, buffers)); err != nil {
		return errors.Wrap(err, "vk.AllocateCommandBuffers()")
	}
	g.commandBuffers = buffers
	g.stack.PushFunc(func() {
		vk.FreeCommandBuffers(g.device, g.res.commandPool, uint32(len(buffers)), buffers)
	})
	return nil
}

func (g *generation) recordCommandBuffers() error {
	extent := vk.Extent2D{Width: g.extent.Width, Height: g.extent.Height}
	viewport := vk.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{Extent: extent}

	for idx, commandBuffer := range g.commandBuffers {
		cbbi := vk.CommandBufferBeginInfo{
			SType: vk.StructureTypeCommandBufferBeginInfo,
		}
		if err := vkError(vk.BeginCommandBuffer(commandBuffer, &cbbi)); err != nil {
			return errors.Wrapf(err, "vk.BeginCommandBuffer()[%d]", idx)
		}

		clearValues := make([]vk.ClearValue, 1)
		clearValues[0].SetColor([]float32{0, 0, 0, 1})

		rpbi := vk.RenderPassBeginInfo{
			SType:           vk.StructureTypeRenderPassBeginInfo,
			RenderPass:      g.renderPass,
			Framebuffer:     g.framebuffers[idx],
			RenderArea:      vk.Rect2D{Extent: extent},
			ClearValueCount: uint32(len(clearValues)),
			PClearValues:    clearValues,
		}
		vk.CmdBeginRenderPass(commandBuffer, &rpbi, vk.SubpassContentsInline)
		vk.CmdBindPipeline(commandBuffer, vk.PipelineBindPointGraphics, g.pipeline)
		vk.CmdSetViewport(commandBuffer, 0, 1, []vk.Viewport{viewport})
		vk.CmdSetScissor(commandBuffer, 0, 1, []vk.Rect2D{scissor})
		vk.CmdBindVertexBuffers(commandBuffer, 0, 1, []vk.Buffer{g.res.vertices.Get()}, []vk.DeviceSize{0})
		vk.CmdBindIndexBuffer(commandBuffer, g.res.indices.Get(), 0, vk.IndexTypeUint32)
		vk.CmdBindDescriptorSets(commandBuffer, vk.PipelineBindPointGraphics, g.pipelineLayout,
			0, 1, []vk.DescriptorSet{g.descriptorSets[idx]}, 0, nil)
		vk.CmdDrawIndexed(commandBuffer, g.res.indexCount, 1, 0, 0, 0)
		vk.CmdEndRenderPass(commandBuffer)

		if err := vkError(vk.EndCommandBuffer(commandBuffer)); err != nil {
			return errors.Wrapf(err, "vk.EndCommandBuffer()[%d]", idx)
		}
	}
	return nil
}
