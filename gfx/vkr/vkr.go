// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkr wraps the Vulkan resources the renderer allocates:
// buffers, images and the memory backing them.
package vkr

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// HostVisible is the memory property set for CPU writable memory.
const HostVisible = vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit

// NewBuffer creates, configures, allocates and binds a new buffer.
func NewBuffer(ma *MemoryAllocator, size uint, usage vk.BufferUsageFlagBits, prop vk.MemoryPropertyFlagBits) (Buffer, error) {
	dev := ma.Device()
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var buffer vk.Buffer
	if err := vk.Error(vk.CreateBuffer(dev, &createInfo, nil, &buffer)); err != nil {
		return Buffer{}, fmt.Errorf("vk.CreateBuffer(): %s", err.Error())
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(dev, buffer, &req)
	req.Deref()

	memory, err := ma.Malloc(req, prop)
	if err != nil {
		vk.DestroyBuffer(dev, buffer, nil)
		return Buffer{}, err
	}

	if err := vk.Error(vk.BindBufferMemory(dev, buffer, memory.Get(), vk.DeviceSize(memory.Offset()))); err != nil {
		vk.DestroyBuffer(dev, buffer, nil)
		memory.Release()
		return Buffer{}, fmt.Errorf("vk.BindBufferMemory(): %s", err.Error())
	}

	return Buffer{
		device: dev,
		buffer: buffer,
		size:   size,
		memory: memory,
	}, nil
}

// NewDeviceLocalBuffer uploads data into a device local buffer
// through a temporary staging buffer.
func NewDeviceLocalBuffer(ma *MemoryAllocator, tr *Transfer, data []byte, usage vk.BufferUsageFlagBits) (Buffer, error) {
	staging, err := NewBuffer(ma, uint(len(data)), vk.BufferUsageTransferSrcBit, HostVisible)
	if err != nil {
		return Buffer{}, err
	}
	defer staging.Release()

	if err := staging.Mem().Write(data); err != nil {
		return Buffer{}, err
	}

	buffer, err := NewBuffer(ma, uint(len(data)), usage|vk.BufferUsageTransferDstBit, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		return Buffer{}, err
	}

	if err := tr.CopyBuffer(staging.Get(), buffer.Get(), vk.DeviceSize(len(data))); err != nil {
		buffer.Release()
		return Buffer{}, err
	}
	return buffer, nil
}

// Buffer implements a generic vulkan buffer.
type Buffer struct {
	device vk.Device
	buffer vk.Buffer
	size   uint

	memory Memory
}

// Mem returns the Memory that the buffer is based on.
func (b *Buffer) Mem() *Memory {
	return &b.memory
}

// Get returns the vulkan Buffer handle.
func (b *Buffer) Get() vk.Buffer {
	return b.buffer
}

// Size returns the requested size of the buffer.
func (b *Buffer) Size() uint {
	return b.size
}

// Release destroys the buffer and memory asociated with it.
func (b *Buffer) Release() {
	vk.DestroyBuffer(b.device, b.buffer, nil)
	b.memory.Release()
}
