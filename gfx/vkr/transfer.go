// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// NewTransfer creates a Transfer that records one-off commands from pool
// and submits them to queue.
func NewTransfer(dev vk.Device, pool vk.CommandPool, queue vk.Queue) *Transfer {
	return &Transfer{
		device: dev,
		pool:   pool,
		queue:  queue,
	}
}

// Transfer runs short blocking command buffers, used for uploads.
type Transfer struct {
	device vk.Device
	pool   vk.CommandPool
	queue  vk.Queue
}

func (t *Transfer) begin() (vk.CommandBuffer, error) {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		Level:              vk.CommandBufferLevelPrimary,
		CommandPool:        t.pool,
		CommandBufferCount: 1,
	}

	commandBuffers := make([]vk.CommandBuffer, 1)
	if err := vk.Error(vk.AllocateCommandBuffers(t.device, &cbai, commandBuffers)); err != nil {
		return nil, fmt.Errorf("vk.AllocateCommandBuffers(): %s", err.Error())
	}
	commandBuffer := commandBuffers[0]

	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := vk.Error(vk.BeginCommandBuffer(commandBuffer, &cbbi)); err != nil {
		vk.FreeCommandBuffers(t.device, t.pool, 1, commandBuffers)
		return nil, fmt.Errorf("vk.BeginCommandBuffer(): %s", err.Error())
	}
	return commandBuffer, nil
}

func (t *Transfer) end(commandBuffer vk.CommandBuffer) error {
	defer vk.FreeCommandBuffers(t.device, t.pool, 1, []vk.CommandBuffer{commandBuffer})

	if err := vk.Error(vk.EndCommandBuffer(commandBuffer)); err != nil {
		return fmt.Errorf("vk.EndCommandBuffer(): %s", err.Error())
	}

	si := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{commandBuffer},
	}
	if err := vk.Error(vk.QueueSubmit(t.queue, 1, []vk.SubmitInfo{si}, vk.NullFence)); err != nil {
		return fmt.Errorf("vk.QueueSubmit(): %s", err.Error())
	}
	if err := vk.Error(vk.QueueWaitIdle(t.queue)); err != nil {
		return fmt.Errorf("vk.QueueWaitIdle(): %s", err.Error())
	}
	return nil
}

// CopyBuffer copies size bytes from src to dst and waits for completion.
func (t *Transfer) CopyBuffer(src, dst vk.Buffer, size vk.DeviceSize) error {
	cmd, err := t.begin()
	if err != nil {
		return err
	}
	vk.CmdCopyBuffer(cmd, src, dst, 1, []vk.BufferCopy{{Size: size}})
	return t.end(cmd)
}

// CopyBufferToImage copies tightly packed pixels into a color image
// that is in the transfer destination layout.
func (t *Transfer) CopyBufferToImage(buf vk.Buffer, img vk.Image, width, height uint32) error {
	cmd, err := t.begin()
	if err != nil {
		return err
	}

	bic := vk.BufferImageCopy{
		ImageOffset: vk.Offset3D{},
		ImageExtent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	vk.CmdCopyBufferToImage(cmd, buf, img, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{bic})
	return t.end(cmd)
}

// TransitionLayout moves a color image between the upload layouts.
func (t *Transfer) TransitionLayout(img vk.Image, old, new vk.ImageLayout) error {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           old,
		NewLayout:           new,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var srcStage, dstStage vk.PipelineStageFlags
	switch {
	case old == vk.ImageLayoutUndefined && new == vk.ImageLayoutTransferDstOptimal:
		barrier.SrcAccessMask = 0
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case old == vk.ImageLayoutTransferDstOptimal && new == vk.ImageLayoutShaderReadOnlyOptimal:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	default:
		return fmt.Errorf("unsupported layout transition %d -> %d", old, new)
	}

	cmd, err := t.begin()
	if err != nil {
		return err
	}
	vk.CmdPipelineBarrier(cmd, srcStage, dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	return t.end(cmd)
}
