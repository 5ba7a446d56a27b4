// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/devblok/phalanx/core/frame"
	"github.com/devblok/phalanx/core/swapchain"
	"github.com/devblok/phalanx/device"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// presenter submits and presents on the live generation of the manager.
type presenter struct {
	ctx     *device.Context
	manager *swapchain.Manager
}

func (p *presenter) current() (*generation, error) {
	gen, ok := p.manager.Current().(*generation)
	if !ok || gen == nil {
		return nil, errors.New("no swap chain")
	}
	return gen, nil
}

func (p *presenter) Acquire(signal frame.Semaphore) (uint32, frame.Status, error) {
	gen, err := p.current()
	if err != nil {
		return 0, frame.StatusOK, err
	}
	var image uint32
	res := vk.AcquireNextImage(p.ctx.Device(), gen.swapchain, vk.MaxUint64, semaphoreHandle(signal), vk.NullFence, &image)
	status, err := statusOf(res)
	if err != nil {
		return 0, status, errors.Wrap(err, "vk.AcquireNextImage()")
	}
	return image, status, nil
}

func (p *presenter) Submit(image uint32, wait, signal frame.Semaphore, done frame.Fence) error {
	gen, err := p.current()
	if err != nil {
		return err
	}
	if int(image) >= len(gen.commandBuffers) {
		return errors.Errorf("image %d out of range of %d command buffers", image, len(gen.commandBuffers))
	}

	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{semaphoreHandle(wait)},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{gen.commandBuffers[image]},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{semaphoreHandle(signal)},
	}}
	return errors.Wrap(vkError(vk.QueueSubmit(p.ctx.GraphicsQueue(), 1, submit, fenceHandle(done))), "vk.QueueSubmit()")
}

func (p *presenter) Present(image uint32, wait frame.Semaphore) (frame.Status, error) {
	gen, err := p.current()
	if err != nil {
		return frame.StatusOK, err
	}
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{semaphoreHandle(wait)},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{gen.swapchain},
		PImageIndices:      []uint32{image},
	}
	status, err := statusOf(vk.QueuePresent(p.ctx.PresentQueue(), &presentInfo))
	return status, errors.Wrap(err, "vk.QueuePresent()")
}
