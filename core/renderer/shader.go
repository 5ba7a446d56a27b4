// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/devblok/phalanx/assets"
	"github.com/devblok/phalanx/core"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// newShaderModule creates a shader module from compiled SPIR-V.
func newShaderModule(dev vk.Device, shader assets.Shader) (vk.ShaderModule, error) {
	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(shader.Code)),
		PCode:    core.SliceUint32(shader.Code),
	}

	var module vk.ShaderModule
	if err := vkError(vk.CreateShaderModule(dev, &smci, nil, &module)); err != nil {
		return nil, errors.Wrapf(err, "vk.CreateShaderModule(%s %s)", shader.Type, shader.Name)
	}
	return module, nil
}

// shaderStage maps a shader type to its pipeline stage.
func shaderStage(t assets.ShaderType) (vk.ShaderStageFlagBits, error) {
	switch t {
	case assets.VertexShaderType:
		return vk.ShaderStageVertexBit, nil
	case assets.FragmentShaderType:
		return vk.ShaderStageFragmentBit, nil
	}
	return 0, errors.Errorf("unsupported shader type %s", t)
}
