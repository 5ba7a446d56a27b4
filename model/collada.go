// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"fmt"

	"github.com/devblok/phalanx/util/collada"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ImportCollada converts the first geometry of a Collada document into a Mesh.
// Every triangle corner becomes its own vertex.
func ImportCollada(data []byte) (Mesh, error) {
	doc, err := collada.Decode(data)
	if err != nil {
		return Mesh{}, errors.Wrap(err, "collada.Decode()")
	}

	mesh := doc.Geometries[0].Mesh
	tris := mesh.Triangles
	stride := tris.Stride()
	if stride == 0 || len(tris.Index)%stride != 0 {
		return Mesh{}, fmt.Errorf("collada: malformed index list of %d entries", len(tris.Index))
	}

	vertexInput, ok := tris.Input("VERTEX")
	if !ok {
		return Mesh{}, errors.New("collada: triangles have no VERTEX input")
	}
	positions, err := mesh.Resolve(vertexInput.Source)
	if err != nil {
		return Mesh{}, errors.Wrapf(err, "collada: %s", vertexInput.Source)
	}

	var uvs *collada.Source
	uvInput, hasUV := tris.Input("TEXCOORD")
	if hasUV {
		if uvs, err = mesh.Resolve(uvInput.Source); err != nil {
			return Mesh{}, errors.Wrapf(err, "collada: %s", uvInput.Source)
		}
	}

	var out Mesh
	for corner := 0; corner < len(tris.Index)/stride; corner++ {
		indices := tris.Index[stride*corner : stride*corner+stride]

		p := indices[vertexInput.Offset] * 3
		if p+2 >= len(positions.Floats.Data) {
			return Mesh{}, fmt.Errorf("collada: position index %d out of range", indices[vertexInput.Offset])
		}
		vert := Vertex{
			Pos: glm.Vec3{
				positions.Floats.Data[p],
				positions.Floats.Data[p+1],
				positions.Floats.Data[p+2],
			},
			Color: glm.Vec3{1, 1, 1},
		}
		if hasUV {
			t := indices[uvInput.Offset] * 2
			if t+1 < len(uvs.Floats.Data) {
				vert.TexCoord = glm.Vec2{uvs.Floats.Data[t], 1 - uvs.Floats.Data[t+1]}
			}
		}

		out.Indices = append(out.Indices, uint32(len(out.Vertices)))
		out.Vertices = append(out.Vertices, vert)
	}
	return out, nil
}
