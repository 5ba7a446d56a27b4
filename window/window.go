// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package window provides the SDL window the renderer presents to.
package window

import (
	"unsafe"

	"github.com/devblok/phalanx/core"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	vk "github.com/vulkan-go/vulkan"
)

// Init initialises SDL and loads the Vulkan library. The returned
// function undoes both.
func Init() (func(), error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, errors.Wrap(err, "sdl.Init()")
	}
	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.VulkanLoadLibrary()")
	}
	return func() {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
	}, nil
}

// New creates a resizable Vulkan capable window.
func New(cfg core.WindowConfiguration, logger logrus.FieldLogger) (*Window, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	win, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Width),
		int32(cfg.Height),
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, errors.Wrap(err, "sdl.CreateWindow()")
	}
	return &Window{
		log:    logger,
		window: win,
		state:  &State{},
	}, nil
}

// Window is an SDL window with the state gathered from its events.
type Window struct {
	log    logrus.FieldLogger
	window *sdl.Window
	state  *State
}

// InstanceExtensions returns the instance extensions needed for presenting.
func (w *Window) InstanceExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

// ProcAddr returns vkGetInstanceProcAddr of the library SDL loaded.
func (w *Window) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// CreateSurface creates the Vulkan surface of the window.
func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := w.window.VulkanCreateSurface(instance)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "sdl.VulkanCreateSurface()")
	}
	return vk.SurfaceFromPointer(uintptr(ptr)), nil
}

// FramebufferSize returns the drawable size in pixels, 0x0 while minimized.
func (w *Window) FramebufferSize() (int, int) {
	if w.window.GetFlags()&sdl.WINDOW_MINIMIZED != 0 {
		return 0, 0
	}
	width, height := w.window.VulkanGetDrawableSize()
	return int(width), int(height)
}

// PollEvents handles all pending events without blocking.
func (w *Window) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.handle(event)
	}
}

// WaitEvents blocks until an event arrives and handles it
// along with anything else pending.
func (w *Window) WaitEvents() {
	if event := sdl.WaitEvent(); event != nil {
		w.handle(event)
	}
	w.PollEvents()
}

func (w *Window) handle(event sdl.Event) {
	switch ev := event.(type) {
	case *sdl.QuitEvent:
		w.state.Close()
	case *sdl.WindowEvent:
		switch ev.Event {
		case sdl.WINDOWEVENT_CLOSE:
			w.state.Close()
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			w.log.WithFields(logrus.Fields{"width": ev.Data1, "height": ev.Data2}).Debug("window resized")
			w.state.Resize()
		}
	case *sdl.KeyboardEvent:
		if ev.Type != sdl.KEYDOWN || ev.Repeat != 0 {
			return
		}
		w.state.Key(ev.Keysym.Sym)
	}
}

// ResizeRequested reports a resize since the last call.
func (w *Window) ResizeRequested() bool {
	return w.state.ResizeRequested()
}

// RebuildRequested reports a rebuild request since the last call.
func (w *Window) RebuildRequested() bool {
	return w.state.RebuildRequested()
}

// Closed reports whether the window was asked to close.
func (w *Window) Closed() bool {
	return w.state.Closed()
}

// Destroy destroys the window.
func (w *Window) Destroy() {
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
}
