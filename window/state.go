// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package window

import "github.com/veandco/go-sdl2/sdl"

// State holds the flags raised by window events. Resize and
// rebuild requests are consumed when read.
type State struct {
	closed  bool
	resized bool
	rebuild bool
}

// Close marks the window closed.
func (s *State) Close() {
	s.closed = true
}

// Resize records a framebuffer size change.
func (s *State) Resize() {
	s.resized = true
}

// Key handles a key press: escape closes, R requests a rebuild.
func (s *State) Key(key sdl.Keycode) {
	switch key {
	case sdl.K_ESCAPE:
		s.closed = true
	case sdl.K_r:
		s.rebuild = true
	}
}

// ResizeRequested returns and clears the resize flag.
func (s *State) ResizeRequested() bool {
	r := s.resized
	s.resized = false
	return r
}

// RebuildRequested returns and clears the rebuild flag.
func (s *State) RebuildRequested() bool {
	r := s.rebuild
	s.rebuild = false
	return r
}

// Closed reports whether a close was requested.
func (s *State) Closed() bool {
	return s.closed
}
