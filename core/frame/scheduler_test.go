// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package frame

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToMaxFramesInFlight(t *testing.T) {
	h, err := newHarness(0, 3)
	require.NoError(t, err)

	assert.Equal(t, MaxFramesInFlight, h.scheduler.Frames())
	assert.Equal(t, 3, h.scheduler.InFlight().Len())
	for idx := 0; idx < MaxFramesInFlight; idx++ {
		assert.True(t, h.slotFence(idx).signaled, "slot fences start signaled")
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{Images: 3})
	assert.Error(t, err)
}

func TestNewSlotsReleasesOnFailure(t *testing.T) {
	sync := &fakeSync{failAfter: 4}
	_, err := NewSlots(sync, 2)
	require.Error(t, err)

	require.Len(t, sync.fences, 1)
	assert.True(t, sync.fences[0].released)
	for _, sem := range sync.semaphores {
		assert.True(t, sem.released)
	}
}

func TestDrawFrameSequence(t *testing.T) {
	h, err := newHarness(2, 3)
	require.NoError(t, err)

	var currents []int
	for idx := 0; idx < 10; idx++ {
		require.NoError(t, h.scheduler.DrawFrame())
		currents = append(currents, h.scheduler.Current())
		assert.LessOrEqual(t, h.unsignaledOwners(), 2)
	}

	assert.Equal(t, []int{1, 0, 1, 0, 1, 0, 1, 0, 1, 0}, currents)
	assert.Len(t, h.presenter.submits, 10)
	assert.Len(t, h.presenter.presents, 10)
	assert.Empty(t, h.rebuilder.reasons)

	for idx, sub := range h.presenter.submits {
		assert.Equal(t, uint32(idx%3), sub.image)
		assert.Same(t, h.slotFence(idx%2), sub.fence)
	}

	// image 0 was last drawn by frame 9, image 1 by frame 7, image 2 by frame 8
	m := h.scheduler.InFlight()
	assert.Same(t, h.slotFence(1), m.Owner(0))
	assert.Same(t, h.slotFence(1), m.Owner(1))
	assert.Same(t, h.slotFence(0), m.Owner(2))

	stats := h.scheduler.Stats()
	assert.Equal(t, uint64(10), stats.Frames)
	assert.Equal(t, uint64(10), stats.Submits)
	assert.Equal(t, uint64(10), stats.Presents)
	assert.Equal(t, uint64(0), stats.Rebuilds)
}

func TestAcquireOutOfDateSkipsFrame(t *testing.T) {
	h, err := newHarness(2, 3)
	require.NoError(t, err)
	h.presenter.acquireScript = []Status{StatusOutOfDate}
	h.rebuilder.images = 4

	fence := h.slotFence(0)
	require.NoError(t, h.scheduler.DrawFrame())

	assert.Empty(t, h.presenter.submits)
	assert.Empty(t, h.presenter.presents)
	assert.Equal(t, 0, fence.resets, "fence must not be reset without a submit")
	assert.True(t, fence.signaled)
	assert.Equal(t, 0, h.scheduler.Current())
	assert.Equal(t, []string{ReasonAcquireOutOfDate}, h.rebuilder.reasons)
	assert.Equal(t, 4, h.scheduler.InFlight().Len())

	// the next frame goes through on the same slot
	require.NoError(t, h.scheduler.DrawFrame())
	require.Len(t, h.presenter.submits, 1)
	assert.Same(t, fence, h.presenter.submits[0].fence)
	assert.Equal(t, 1, h.scheduler.Current())
}

func TestAcquireSuboptimalDrawsThenRebuilds(t *testing.T) {
	h, err := newHarness(2, 3)
	require.NoError(t, err)
	h.presenter.acquireScript = []Status{StatusSuboptimal}
	h.presenter.presentScript = []Status{StatusOK}

	require.NoError(t, h.scheduler.DrawFrame())

	assert.Len(t, h.presenter.submits, 1)
	assert.Len(t, h.presenter.presents, 1)
	assert.Equal(t, []string{ReasonPresentStale}, h.rebuilder.reasons)
	assert.Equal(t, 1, h.scheduler.Current())

	// the rebuilt swapchain acquires cleanly, no further rebuild
	require.NoError(t, h.scheduler.DrawFrame())
	assert.Len(t, h.rebuilder.reasons, 1)
}

func TestPresentStaleRebuilds(t *testing.T) {
	for _, status := range []Status{StatusSuboptimal, StatusOutOfDate} {
		t.Run(status.String(), func(t *testing.T) {
			h, err := newHarness(2, 3)
			require.NoError(t, err)
			h.presenter.presentScript = []Status{status}

			require.NoError(t, h.scheduler.DrawFrame())

			assert.Equal(t, []string{ReasonPresentStale}, h.rebuilder.reasons)
			assert.Equal(t, 1, h.scheduler.Current(), "a presented frame always advances")
			for idx := 0; idx < h.scheduler.InFlight().Len(); idx++ {
				assert.Nil(t, h.scheduler.InFlight().Owner(uint32(idx)))
			}
		})
	}
}

func TestResizeRebuildsOnce(t *testing.T) {
	h, err := newHarness(2, 3)
	require.NoError(t, err)

	for call := 1; call <= 6; call++ {
		if call == 5 {
			h.surface.resized = true
		}
		require.NoError(t, h.scheduler.DrawFrame())
		switch {
		case call < 5:
			assert.Empty(t, h.rebuilder.reasons)
		default:
			assert.Equal(t, []string{ReasonResized}, h.rebuilder.reasons)
		}
	}
	assert.Len(t, h.presenter.presents, 6)
}

func TestResizeAndSuboptimalRebuildOnce(t *testing.T) {
	h, err := newHarness(2, 3)
	require.NoError(t, err)
	h.surface.resized = true
	h.presenter.presentScript = []Status{StatusSuboptimal}

	require.NoError(t, h.scheduler.DrawFrame())

	assert.Equal(t, []string{ReasonResized}, h.rebuilder.reasons)
	assert.False(t, h.surface.resized, "resize flag is consumed")
}

func TestUpdateHappensBeforeSubmit(t *testing.T) {
	var events []string
	sync := &fakeSync{}
	presenter := &fakePresenter{images: 3, events: &events}
	updater := &fakeUpdater{events: &events}
	s, err := New(Config{
		Images:    3,
		Sync:      sync,
		Presenter: presenter,
		Rebuilder: &fakeRebuilder{images: 3},
		Updater:   updater,
		Logger:    quietLogger(),
	})
	require.NoError(t, err)

	require.NoError(t, s.DrawFrame())
	require.NoError(t, s.DrawFrame())

	assert.Equal(t, []string{"update", "submit", "update", "submit"}, events)
	assert.Equal(t, []uint32{0, 1}, updater.images)
}

func TestCrossFrameGuardWaitsForOwner(t *testing.T) {
	h, err := newHarness(2, 1)
	require.NoError(t, err)

	require.NoError(t, h.scheduler.DrawFrame())
	first := h.slotFence(0)
	assert.True(t, first.pending)

	// slot 1 gets the same image and has to wait for slot 0's work
	require.NoError(t, h.scheduler.DrawFrame())
	assert.False(t, first.pending)
	assert.True(t, first.signaled)
	assert.Equal(t, 2, first.waits)
	assert.Same(t, h.slotFence(1), h.scheduler.InFlight().Owner(0))
}

func TestMoreFramesThanImages(t *testing.T) {
	h, err := newHarness(3, 2)
	require.NoError(t, err)

	for idx := 0; idx < 12; idx++ {
		require.NoError(t, h.scheduler.DrawFrame())
		assert.LessOrEqual(t, h.unsignaledOwners(), 3)
	}
	assert.Len(t, h.presenter.submits, 12)
	assert.Equal(t, 0, h.scheduler.Current())
}

func TestRandomAcquireOrderKeepsBound(t *testing.T) {
	const frames, images = 2, 4
	h, err := newHarness(frames, images)
	require.NoError(t, err)

	rnd := rand.New(rand.NewSource(7))
	for idx := 0; idx < 200; idx++ {
		h.presenter.order = []uint32{uint32(rnd.Intn(images))}
		require.NoError(t, h.scheduler.DrawFrame())
		assert.LessOrEqual(t, h.unsignaledOwners(), frames)
	}
}

func TestFatalErrors(t *testing.T) {
	t.Run("acquire", func(t *testing.T) {
		h, err := newHarness(2, 3)
		require.NoError(t, err)
		h.presenter.acquireErr = errors.New("device lost")

		assert.Error(t, h.scheduler.DrawFrame())
		assert.Empty(t, h.rebuilder.reasons)
		assert.Empty(t, h.presenter.submits)
	})
	t.Run("present", func(t *testing.T) {
		h, err := newHarness(2, 3)
		require.NoError(t, err)
		h.presenter.presentErr = errors.New("surface lost")

		assert.Error(t, h.scheduler.DrawFrame())
		assert.Empty(t, h.rebuilder.reasons)
		assert.Equal(t, 0, h.scheduler.Current())
	})
	t.Run("rebuild", func(t *testing.T) {
		h, err := newHarness(2, 3)
		require.NoError(t, err)
		h.presenter.acquireScript = []Status{StatusOutOfDate}
		h.rebuilder.err = errors.New("no memory")

		assert.Error(t, h.scheduler.DrawFrame())
	})
}

func TestReleaseReleasesSlots(t *testing.T) {
	h, err := newHarness(2, 3)
	require.NoError(t, err)
	h.scheduler.Release()

	for _, f := range h.sync.fences {
		assert.True(t, f.released)
	}
	for _, s := range h.sync.semaphores {
		assert.True(t, s.released)
	}
}
