// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ErrNoMemoryType is returned when no memory type satisfies a request.
var ErrNoMemoryType = errors.New("suitable memory type not found")

// Memory defines a usable memory region.
type Memory struct {
	mapped      bool
	len, offset uint
	device      vk.Device
	memory      vk.DeviceMemory
}

// Len returns the length of assigned memory.
func (m *Memory) Len() uint {
	return m.len
}

// Offset returns the start location of assigned memory.
func (m *Memory) Offset() uint {
	return m.offset
}

// Get returns the vulkan memory handle.
func (m *Memory) Get() vk.DeviceMemory {
	return m.memory
}

// Map maps the entire memory region and returns a pointer to it.
func (m *Memory) Map() (unsafe.Pointer, error) {
	var memMapped unsafe.Pointer
	if err := vk.Error(vk.MapMemory(m.device, m.memory, vk.DeviceSize(m.offset), vk.DeviceSize(m.len), 0, &memMapped)); err != nil {
		return nil, fmt.Errorf("vk.MapMemory(): %s", err.Error())
	}
	m.mapped = true
	return memMapped, nil
}

// Unmap removes the memory mapping if it was mapped.
func (m *Memory) Unmap() {
	if m.mapped {
		vk.UnmapMemory(m.device, m.memory)
		m.mapped = false
	}
}

// Write copies data to the start of the region. Memory must be host visible.
func (m *Memory) Write(data []byte) error {
	if uint(len(data)) > m.len {
		return fmt.Errorf("write of %d bytes into %d bytes of memory", len(data), m.len)
	}
	ptr, err := m.Map()
	if err != nil {
		return err
	}
	vk.Memcopy(ptr, data)
	m.Unmap()
	return nil
}

// Release frees memory after unmapping it if previously mapped.
func (m *Memory) Release() {
	m.Unmap()
	vk.FreeMemory(m.device, m.memory, nil)
}

// NewMemoryAllocator creates a new memory allocator. Allocates for the logical device,
// reads memory properties of the physical device to influence allocation.
func NewMemoryAllocator(device vk.Device, phyDevice vk.PhysicalDevice) *MemoryAllocator {
	var memProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(phyDevice, &memProperties)
	memProperties.Deref()

	return &MemoryAllocator{
		device:        device,
		memProperties: memProperties,
	}
}

// MemoryAllocator is responsible returning usable
// memory for any resources that may need it.
type MemoryAllocator struct {
	device        vk.Device
	memProperties vk.PhysicalDeviceMemoryProperties
}

// Device returns the logical device allocations are made on.
func (ma *MemoryAllocator) Device() vk.Device {
	return ma.device
}

// Malloc returns a usable memory chunk ready for use.
func (ma *MemoryAllocator) Malloc(req vk.MemoryRequirements, prop vk.MemoryPropertyFlagBits) (Memory, error) {
	memTypeIdx, err := ma.FindMemoryType(req.MemoryTypeBits, vk.MemoryPropertyFlags(prop))
	if err != nil {
		return Memory{}, err
	}

	mai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: memTypeIdx,
	}

	var memory vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(ma.device, &mai, nil, &memory)); err != nil {
		return Memory{}, fmt.Errorf("vk.AllocateMemory(): %s", err.Error())
	}

	return Memory{
		offset: 0,
		len:    uint(req.Size),
		device: ma.device,
		memory: memory,
	}, nil
}

// FindMemoryType returns the index of the first memory type allowed by
// filter that has all of the requested properties.
func (ma *MemoryAllocator) FindMemoryType(filter uint32, prop vk.MemoryPropertyFlags) (uint32, error) {
	return findMemoryType(memoryTypeFlags(ma.memProperties), filter, prop)
}

func memoryTypeFlags(props vk.PhysicalDeviceMemoryProperties) []vk.MemoryPropertyFlags {
	flags := make([]vk.MemoryPropertyFlags, props.MemoryTypeCount)
	for idx := range flags {
		props.MemoryTypes[idx].Deref()
		flags[idx] = props.MemoryTypes[idx].PropertyFlags
	}
	return flags
}

func findMemoryType(types []vk.MemoryPropertyFlags, filter uint32, prop vk.MemoryPropertyFlags) (uint32, error) {
	for idx := uint32(0); idx < uint32(len(types)); idx++ {
		if filter&(1<<idx) != 0 && (types[idx]&prop) == prop {
			return idx, nil
		}
	}
	return 0, ErrNoMemoryType
}

// Bytes views size bytes starting at ptr as a byte slice.
func Bytes(ptr unsafe.Pointer, size int) []byte {
	return unsafe.Slice((*byte)(ptr), size)
}
