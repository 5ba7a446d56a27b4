// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package assets

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const shaderSuffix = ".spv"

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)

func (t ShaderType) String() string {
	switch t {
	case VertexShaderType:
		return "vertex"
	case FragmentShaderType:
		return "fragment"
	}
	return "unknown"
}

// ShaderTypeOf gets the type of a compiled shader from its name.
// The file name must have exactly two dots: the first one follows
// the name of the shader, the second the type, and the .spv extension
// ensures the shader is compiled.
func ShaderTypeOf(name string) ShaderType {
	base := filepath.Base(filepath.ToSlash(name))
	if !strings.HasSuffix(base, shaderSuffix) {
		return UnknownShaderType
	}
	nodes := strings.Split(strings.TrimSuffix(base, shaderSuffix), ".")
	if len(nodes) != 2 {
		return UnknownShaderType
	}
	switch nodes[1] {
	case "vert":
		return VertexShaderType
	case "frag":
		return FragmentShaderType
	}
	return UnknownShaderType
}

// Shader is a compiled SPIR-V shader.
type Shader struct {
	Name string
	Type ShaderType
	Code []byte
}

// Shaders loads the first vertex and fragment shader found in src.
func Shaders(src Source) (vertex, fragment Shader, err error) {
	names := src.List()
	sort.Strings(names)

	var found [2]bool
	for _, name := range names {
		t := ShaderTypeOf(name)
		if t == UnknownShaderType || found[t] {
			continue
		}
		code, err := src.Open(name)
		if err != nil {
			return Shader{}, Shader{}, err
		}
		if len(code) == 0 || len(code)%4 != 0 {
			return Shader{}, Shader{}, errors.Errorf("shader %s: spir-v length %d is not a multiple of 4", name, len(code))
		}
		shader := Shader{Name: name, Type: t, Code: code}
		if t == VertexShaderType {
			vertex = shader
		} else {
			fragment = shader
		}
		found[t] = true
	}

	if !found[VertexShaderType] {
		return Shader{}, Shader{}, errors.New("no vertex shader (*.vert.spv) in assets")
	}
	if !found[FragmentShaderType] {
		return Shader{}, Shader{}, errors.New("no fragment shader (*.frag.spv) in assets")
	}
	return vertex, fragment, nil
}
