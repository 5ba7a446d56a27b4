// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines rendering related features that renderers must implement.
package gfx

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// ReleaseFunc adapts a function to Releasable.
type ReleaseFunc func()

// Release implements interface
func (f ReleaseFunc) Release() {
	f()
}

// Stack collects releasables in creation order and releases
// them in reverse order.
type Stack struct {
	items []Releasable
}

// Push adds r on top of the stack.
func (s *Stack) Push(r Releasable) {
	s.items = append(s.items, r)
}

// PushFunc adds f on top of the stack.
func (s *Stack) PushFunc(f func()) {
	s.Push(ReleaseFunc(f))
}

// Len returns the number of items not yet released.
func (s *Stack) Len() int {
	return len(s.items)
}

// Release releases everything, last pushed first.
func (s *Stack) Release() {
	for idx := len(s.items) - 1; idx >= 0; idx-- {
		s.items[idx].Release()
	}
	s.items = nil
}
