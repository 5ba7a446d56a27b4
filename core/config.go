// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"os"
	"strconv"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Environment variables overriding the configuration file
const (
	EnvWidth          = "PHALANX_WIDTH"
	EnvHeight         = "PHALANX_HEIGHT"
	EnvFPS            = "PHALANX_FPS"
	EnvValidation     = "PHALANX_VALIDATION"
	EnvAssets         = "PHALANX_ASSETS"
	EnvMesh           = "PHALANX_MESH"
	EnvTexture        = "PHALANX_TEXTURE"
	EnvFramesInFlight = "PHALANX_FRAMES_IN_FLIGHT"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration     `toml:"time"`
	Renderer RendererConfiguration `toml:"renderer"`
	Window   WindowConfiguration   `toml:"window"`
	Assets   AssetsConfiguration   `toml:"assets"`
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int `toml:"fps"`
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	// FramesInFlight is the number of frames the CPU may record
	// ahead of the GPU.
	FramesInFlight int `toml:"frames_in_flight"`

	// Validation loads the Khronos validation layer.
	Validation bool `toml:"validation"`

	DeviceExtensions []string `toml:"device_extensions"`
}

// WindowConfiguration describes the window that is rendered to
type WindowConfiguration struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// AssetsConfiguration tells where the mesh, texture and shaders come from
type AssetsConfiguration struct {
	// Source is a directory or a .kar archive.
	Source  string `toml:"source"`
	Mesh    string `toml:"mesh"`
	Texture string `toml:"texture"`
}

// DefaultConfiguration returns the compiled in defaults.
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 0,
		},
		Renderer: RendererConfiguration{
			FramesInFlight: 2,
			DeviceExtensions: []string{
				"VK_KHR_swapchain",
			},
		},
		Window: WindowConfiguration{
			Title:  "Phalanx",
			Width:  800,
			Height: 600,
		},
		Assets: AssetsConfiguration{
			Source:  "./data",
			Mesh:    "viking_room.obj",
			Texture: "viking_room.png",
		},
	}
}

// LoadConfiguration layers the configuration file at path (may be empty),
// the dotenv file at envFile (may be empty) and the environment over the defaults.
func LoadConfiguration(path, envFile string) (Configuration, error) {
	cfg := DefaultConfiguration()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "read configuration")
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse configuration %s", path)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return cfg, errors.Wrapf(err, "load env file %s", envFile)
		}
	}
	envy.Reload()

	if err := applyEnvironment(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnvironment(cfg *Configuration) error {
	ints := map[string]*int{
		EnvWidth:          &cfg.Window.Width,
		EnvHeight:         &cfg.Window.Height,
		EnvFPS:            &cfg.Time.FramesPerSecond,
		EnvFramesInFlight: &cfg.Renderer.FramesInFlight,
	}
	for key, dst := range ints {
		v := envy.Get(key, "")
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "environment %s", key)
		}
		*dst = n
	}

	if v := envy.Get(EnvValidation, ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "environment %s", EnvValidation)
		}
		cfg.Renderer.Validation = b
	}

	strs := map[string]*string{
		EnvAssets:  &cfg.Assets.Source,
		EnvMesh:    &cfg.Assets.Mesh,
		EnvTexture: &cfg.Assets.Texture,
	}
	for key, dst := range strs {
		if v := envy.Get(key, ""); v != "" {
			*dst = v
		}
	}
	return nil
}

// Validate checks that the configuration can be used.
func (c Configuration) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Renderer.FramesInFlight < 1 {
		return errors.Errorf("frames in flight %d must be at least 1", c.Renderer.FramesInFlight)
	}
	if c.Time.FramesPerSecond < 0 {
		return errors.Errorf("frames per second %d must not be negative", c.Time.FramesPerSecond)
	}
	if c.Assets.Mesh == "" || c.Assets.Texture == "" {
		return errors.New("mesh and texture assets must be set")
	}
	return nil
}
