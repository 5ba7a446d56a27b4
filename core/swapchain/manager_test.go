// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package swapchain

import (
	"errors"
	"fmt"
	"io/ioutil"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

type fakeGeneration struct {
	id       int
	images   int
	extent   Extent
	released bool
	events   *[]string
}

func (g *fakeGeneration) Len() int       { return g.images }
func (g *fakeGeneration) Extent() Extent { return g.extent }

func (g *fakeGeneration) Release() {
	g.released = true
	*g.events = append(*g.events, fmt.Sprintf("release %d", g.id))
}

type fakeBackend struct {
	caps   Capabilities
	events []string
	built  []*fakeGeneration
	specs  []Spec

	buildErr error

	// zeroExtent is the number of Capabilities calls that report a 0x0 surface
	zeroExtent int
}

func (b *fakeBackend) WaitIdle() error {
	b.events = append(b.events, "idle")
	return nil
}

func (b *fakeBackend) Capabilities() (Capabilities, error) {
	if b.zeroExtent > 0 {
		b.zeroExtent--
		caps := b.caps
		caps.CurrentExtent = Extent{}
		return caps, nil
	}
	return b.caps, nil
}

func (b *fakeBackend) Build(spec Spec) (Generation, error) {
	if b.buildErr != nil {
		return nil, b.buildErr
	}
	gen := &fakeGeneration{
		id:     len(b.built),
		images: int(spec.MinImages),
		extent: spec.Extent,
		events: &b.events,
	}
	b.built = append(b.built, gen)
	b.specs = append(b.specs, spec)
	b.events = append(b.events, fmt.Sprintf("build %d", gen.id))
	return gen, nil
}

// fakeWindow reports a zero size until it has been waited on zeroFor times.
type fakeWindow struct {
	width, height int
	zeroFor       int
	waits         int
}

func (w *fakeWindow) FramebufferSize() (int, int) {
	if w.waits < w.zeroFor {
		return 0, 0
	}
	return w.width, w.height
}

func (w *fakeWindow) WaitEvents() {
	w.waits++
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(ioutil.Discard)
	return l
}

func sizedCaps() Capabilities {
	return Capabilities{
		MinImageCount: 2,
		CurrentExtent: Extent{Width: undefinedExtent, Height: undefinedExtent},
		MinExtent:     Extent{Width: 1, Height: 1},
		MaxExtent:     Extent{Width: 4096, Height: 4096},
		Formats: []SurfaceFormat{
			{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		},
		PresentModes: []vk.PresentMode{vk.PresentModeFifo},
	}
}

func TestBuild(t *testing.T) {
	backend := &fakeBackend{caps: sizedCaps()}
	m := NewManager(backend, &fakeWindow{width: 800, height: 600}, QueueFamilies{Graphics: 0, Present: 1}, quietLogger())

	gen, err := m.Build()
	require.NoError(t, err)
	assert.Equal(t, 3, gen.Len())
	assert.Equal(t, Extent{800, 600}, gen.Extent())
	assert.Equal(t, vk.PresentModeFifo, m.Spec().PresentMode)
	assert.True(t, m.Spec().Sharing.Concurrent)

	_, err = m.Build()
	assert.Error(t, err, "second Build must go through Rebuild")
}

func TestBuildRequiresPresentModes(t *testing.T) {
	caps := sizedCaps()
	caps.PresentModes = nil
	m := NewManager(&fakeBackend{caps: caps}, &fakeWindow{width: 1, height: 1}, QueueFamilies{}, quietLogger())

	_, err := m.Build()
	assert.Equal(t, ErrNoPresentModes, err)
}

func TestRebuildOrder(t *testing.T) {
	backend := &fakeBackend{caps: sizedCaps()}
	m := NewManager(backend, &fakeWindow{width: 800, height: 600}, QueueFamilies{}, quietLogger())
	_, err := m.Build()
	require.NoError(t, err)

	n, err := m.Rebuild("test")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Equal(t, []string{"build 0", "idle", "release 0", "build 1"}, backend.events)
	assert.True(t, backend.built[0].released)
	assert.False(t, backend.built[1].released)
	assert.Same(t, backend.built[1], m.Current())
}

func TestRebuildIsIdempotent(t *testing.T) {
	backend := &fakeBackend{caps: sizedCaps()}
	m := NewManager(backend, &fakeWindow{width: 800, height: 600}, QueueFamilies{}, quietLogger())
	_, err := m.Build()
	require.NoError(t, err)

	_, err = m.Rebuild("first")
	require.NoError(t, err)
	_, err = m.Rebuild("second")
	require.NoError(t, err)

	require.Len(t, backend.specs, 3)
	assert.Equal(t, backend.specs[1], backend.specs[2])
	assert.Equal(t, 3, m.Builds())
	for _, gen := range backend.built[:2] {
		assert.True(t, gen.released)
	}
}

func TestRebuildWaitsWhileMinimized(t *testing.T) {
	backend := &fakeBackend{caps: sizedCaps()}
	win := &fakeWindow{width: 1024, height: 768}
	m := NewManager(backend, win, QueueFamilies{}, quietLogger())
	_, err := m.Build()
	require.NoError(t, err)

	win.zeroFor = 5
	_, err = m.Rebuild("minimized")
	require.NoError(t, err)

	assert.Equal(t, 5, win.waits)
	assert.Equal(t, Extent{1024, 768}, m.Current().Extent())
}

type closingWindow struct {
	fakeWindow
	closeAfter int
}

func (w *closingWindow) Closed() bool {
	return w.waits >= w.closeAfter
}

func TestRebuildStopsWhenClosedWhileMinimized(t *testing.T) {
	backend := &fakeBackend{caps: sizedCaps()}
	win := &closingWindow{fakeWindow: fakeWindow{width: 800, height: 600}, closeAfter: 2}
	m := NewManager(backend, win, QueueFamilies{}, quietLogger())
	_, err := m.Build()
	require.NoError(t, err)

	win.zeroFor = 100
	n, err := m.Rebuild("minimized")
	require.NoError(t, err)

	assert.Equal(t, 3, n)
	assert.Equal(t, 2, win.waits)
	assert.Equal(t, []string{"build 0"}, backend.events, "nothing is released or built")
	assert.Same(t, backend.built[0], m.Current())
}

func TestRebuildWaitsForSurfaceExtent(t *testing.T) {
	backend := &fakeBackend{caps: sizedCaps()}
	win := &fakeWindow{width: 800, height: 600}
	m := NewManager(backend, win, QueueFamilies{}, quietLogger())
	_, err := m.Build()
	require.NoError(t, err)

	// minimized surfaces may report a zero extent with a non-zero framebuffer
	backend.zeroExtent = 3
	_, err = m.Rebuild("minimized")
	require.NoError(t, err)

	assert.Equal(t, 3, win.waits)
	for _, spec := range backend.specs {
		assert.False(t, spec.Extent.Empty())
	}
	assert.Equal(t, Extent{800, 600}, m.Current().Extent())
}

func TestBuildRejectsEmptyExtent(t *testing.T) {
	backend := &fakeBackend{caps: sizedCaps(), zeroExtent: 1}
	m := NewManager(backend, &fakeWindow{width: 800, height: 600}, QueueFamilies{}, quietLogger())

	_, err := m.Build()
	assert.Equal(t, ErrEmptyExtent, err)
	assert.Empty(t, backend.built)
}

func TestRebuildUsesCurrentExtent(t *testing.T) {
	caps := sizedCaps()
	caps.CurrentExtent = Extent{Width: 300, Height: 200}
	backend := &fakeBackend{caps: caps}
	m := NewManager(backend, &fakeWindow{width: 800, height: 600}, QueueFamilies{}, quietLogger())

	gen, err := m.Build()
	require.NoError(t, err)
	assert.Equal(t, Extent{300, 200}, gen.Extent())
}

func TestRebuildFailure(t *testing.T) {
	backend := &fakeBackend{caps: sizedCaps()}
	m := NewManager(backend, &fakeWindow{width: 800, height: 600}, QueueFamilies{}, quietLogger())
	_, err := m.Build()
	require.NoError(t, err)

	backend.buildErr = errors.New("out of memory")
	_, err = m.Rebuild("test")
	assert.Error(t, err)
	assert.Nil(t, m.Current())
	assert.True(t, backend.built[0].released)

	m.Release()
}
