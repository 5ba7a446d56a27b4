// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
)

// Uniform defines a model-view-projection object
type Uniform struct {
	Model      glm.Mat4
	View       glm.Mat4
	Projection glm.Mat4
}

// UniformSize is the size of Uniform in bytes.
const UniformSize = unsafe.Sizeof(Uniform{})

// Spin returns the transforms of a model spinning about the Z axis
// at 90 degrees per second, seen from (2, 2, 2).
func Spin(seconds float64, aspect float32) Uniform {
	ubo := Uniform{
		Model:      glm.HomogRotate3D(float32(seconds)*glm.DegToRad(90), glm.Vec3{0, 0, 1}),
		View:       glm.LookAt(2, 2, 2, 0, 0, 0, 0, 0, 1),
		Projection: glm.Perspective(glm.DegToRad(45), aspect, 0.1, 10),
	}
	ubo.Projection[5] *= -1 // Flip from OpenGl to Vulkan projection
	return ubo
}

// Bytes returns the uniform as laid out in memory.
func (u *Uniform) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(u)), UniformSize)
}
