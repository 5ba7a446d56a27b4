// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package model holds the mesh and uniform layouts shared between
// the importers and the renderer.
package model

import (
	"fmt"
	"path/filepath"
	"strings"
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// Vertex is a model vertex
type Vertex struct {
	Pos      glm.Vec3
	Color    glm.Vec3
	TexCoord glm.Vec2
}

// Mesh is an indexed triangle list.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// VertexBytes returns the vertex data as laid out in memory.
func (m *Mesh) VertexBytes() []byte {
	if len(m.Vertices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&m.Vertices[0])), len(m.Vertices)*int(unsafe.Sizeof(Vertex{})))
}

// IndexBytes returns the index data as laid out in memory.
func (m *Mesh) IndexBytes() []byte {
	if len(m.Indices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&m.Indices[0])), len(m.Indices)*4)
}

// Import decodes a mesh, the format is picked by the file extension.
func Import(name string, data []byte) (Mesh, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".obj":
		return ImportOBJ(data, nil)
	case ".dae":
		return ImportCollada(data)
	default:
		return Mesh{}, fmt.Errorf("model.Import(): unsupported mesh format %q", name)
	}
}

// VertexBindingDescriptions return Vulkan Vertex descriptors
func VertexBindingDescriptions() []vk.VertexInputBindingDescription {
	return []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    uint32(unsafe.Sizeof(Vertex{})),
		InputRate: vk.VertexInputRateVertex,
	}}
}

// VertexAttributeDescriptions return Vulkan attribute descriptors
func VertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
		{
			Binding:  0,
			Location: 2,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.TexCoord)),
		},
	}
}
