// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx_test

import (
	"testing"

	"github.com/devblok/phalanx/gfx"
	"github.com/stretchr/testify/assert"
)

func TestStackReleasesInReverse(t *testing.T) {
	var order []int
	var s gfx.Stack
	for idx := 0; idx < 3; idx++ {
		idx := idx
		s.PushFunc(func() { order = append(order, idx) })
	}
	assert.Equal(t, 3, s.Len())

	s.Release()
	assert.Equal(t, []int{2, 1, 0}, order)
	assert.Equal(t, 0, s.Len())

	s.Release()
	assert.Equal(t, []int{2, 1, 0}, order, "released items are forgotten")
}
