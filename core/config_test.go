// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/devblok/phalanx/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[time]
fps = 144

[renderer]
frames_in_flight = 3
validation = true

[window]
title = "test"
width = 1024
height = 768

[assets]
source = "assets.kar"
mesh = "cube.dae"
texture = "cube.png"
`

func TestDefaultConfiguration(t *testing.T) {
	cfg := core.DefaultConfiguration()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2, cfg.Renderer.FramesInFlight)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, []string{"VK_KHR_swapchain"}, cfg.Renderer.DeviceExtensions)
}

func TestLoadConfigurationFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phalanx.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0644))

	cfg, err := core.LoadConfiguration(path, "")
	require.NoError(t, err)
	assert.Equal(t, 144, cfg.Time.FramesPerSecond)
	assert.Equal(t, 3, cfg.Renderer.FramesInFlight)
	assert.True(t, cfg.Renderer.Validation)
	assert.Equal(t, "test", cfg.Window.Title)
	assert.Equal(t, 1024, cfg.Window.Width)
	assert.Equal(t, "assets.kar", cfg.Assets.Source)
	assert.Equal(t, "cube.dae", cfg.Assets.Mesh)
	assert.Equal(t, []string{"VK_KHR_swapchain"}, cfg.Renderer.DeviceExtensions)
}

func TestLoadConfigurationEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phalanx.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0644))

	t.Setenv(core.EnvWidth, "640")
	t.Setenv(core.EnvValidation, "false")
	t.Setenv(core.EnvMesh, "room.obj")

	cfg, err := core.LoadConfiguration(path, "")
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Window.Width)
	assert.Equal(t, 768, cfg.Window.Height)
	assert.False(t, cfg.Renderer.Validation)
	assert.Equal(t, "room.obj", cfg.Assets.Mesh)
}

func TestLoadConfigurationEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("PHALANX_FRAMES_IN_FLIGHT=4\n"), 0644))
	t.Cleanup(func() { os.Unsetenv(core.EnvFramesInFlight) })

	cfg, err := core.LoadConfiguration("", envFile)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Renderer.FramesInFlight)
}

func TestLoadConfigurationErrors(t *testing.T) {
	_, err := core.LoadConfiguration(filepath.Join(t.TempDir(), "missing.toml"), "")
	assert.Error(t, err)

	t.Run("bad number", func(t *testing.T) {
		t.Setenv(core.EnvHeight, "tall")
		_, err := core.LoadConfiguration("", "")
		assert.Error(t, err)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Setenv(core.EnvFramesInFlight, "0")
		_, err := core.LoadConfiguration("", "")
		assert.Error(t, err)
	})
}
