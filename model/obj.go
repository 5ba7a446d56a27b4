// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"bytes"

	"github.com/g3n/engine/loader/obj"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

type cornerKey struct {
	vertex, uv int
}

// ImportOBJ decodes a Wavefront object. Faces are triangulated as fans,
// corners sharing position and texture coordinate are merged and
// V is flipped since OBJ puts 0 at the bottom of the image.
func ImportOBJ(data, material []byte) (Mesh, error) {
	decoder, err := obj.DecodeReader(bytes.NewReader(data), bytes.NewReader(material))
	if err != nil {
		return Mesh{}, errors.Wrap(err, "obj.DecodeReader()")
	}

	var mesh Mesh
	unique := make(map[cornerKey]uint32)
	addCorner := func(face obj.Face, idx int) {
		key := cornerKey{vertex: face.Vertices[idx], uv: -1}
		if idx < len(face.Uvs) {
			key.uv = face.Uvs[idx]
		}
		if index, ok := unique[key]; ok {
			mesh.Indices = append(mesh.Indices, index)
			return
		}

		vert := Vertex{
			Pos: glm.Vec3{
				decoder.Vertices[key.vertex*3],
				decoder.Vertices[key.vertex*3+1],
				decoder.Vertices[key.vertex*3+2],
			},
			Color: glm.Vec3{1, 1, 1},
		}
		if key.uv >= 0 && key.uv*2+1 < len(decoder.Uvs) {
			vert.TexCoord = glm.Vec2{
				decoder.Uvs[key.uv*2],
				1 - decoder.Uvs[key.uv*2+1],
			}
		}

		index := uint32(len(mesh.Vertices))
		mesh.Vertices = append(mesh.Vertices, vert)
		mesh.Indices = append(mesh.Indices, index)
		unique[key] = index
	}

	for _, object := range decoder.Objects {
		for _, face := range object.Faces {
			for idx := 2; idx < len(face.Vertices); idx++ {
				addCorner(face, 0)
				addCorner(face, idx-1)
				addCorner(face, idx)
			}
		}
	}

	if len(mesh.Indices) == 0 {
		return Mesh{}, errors.New("obj: no faces")
	}
	return mesh, nil
}
