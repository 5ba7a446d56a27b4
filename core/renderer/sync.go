// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/devblok/phalanx/core/frame"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// syncFactory creates fences and semaphores on a device.
type syncFactory struct {
	device vk.Device
}

func (f syncFactory) NewFence(signaled bool) (frame.Fence, error) {
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fci.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var handle vk.Fence
	if err := vkError(vk.CreateFence(f.device, &fci, nil, &handle)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateFence()")
	}
	return &fence{device: f.device, handle: handle}, nil
}

func (f syncFactory) NewSemaphore() (frame.Semaphore, error) {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var handle vk.Semaphore
	if err := vkError(vk.CreateSemaphore(f.device, &sci, nil, &handle)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateSemaphore()")
	}
	return &semaphore{device: f.device, handle: handle}, nil
}

type fence struct {
	device vk.Device
	handle vk.Fence
}

func (f *fence) Wait() error {
	return errors.Wrap(vkError(vk.WaitForFences(f.device, 1, []vk.Fence{f.handle}, vk.True, vk.MaxUint64)), "vk.WaitForFences()")
}

func (f *fence) Reset() error {
	return errors.Wrap(vkError(vk.ResetFences(f.device, 1, []vk.Fence{f.handle})), "vk.ResetFences()")
}

func (f *fence) Release() {
	vk.DestroyFence(f.device, f.handle, nil)
}

type semaphore struct {
	device vk.Device
	handle vk.Semaphore
}

func (s *semaphore) Release() {
	vk.DestroySemaphore(s.device, s.handle, nil)
}

func fenceHandle(f frame.Fence) vk.Fence {
	if vf, ok := f.(*fence); ok {
		return vf.handle
	}
	return vk.NullFence
}

func semaphoreHandle(s frame.Semaphore) vk.Semaphore {
	if vs, ok := s.(*semaphore); ok {
		return vs.handle
	}
	return vk.Semaphore(vk.NullHandle)
}
