// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package frame

import (
	"github.com/pkg/errors"
)

// Fence is a GPU to CPU completion signal.
type Fence interface {

	// Wait blocks until the fence is signaled.
	Wait() error

	// Reset returns the fence to the unsignaled state.
	Reset() error

	// Release destroys the fence.
	Release()
}

// Semaphore is a GPU to GPU ordering signal.
type Semaphore interface {
	Release()
}

// SyncFactory creates synchronization primitives on a device.
type SyncFactory interface {
	NewFence(signaled bool) (Fence, error)
	NewSemaphore() (Semaphore, error)
}

// Slot is the per frame-in-flight set of synchronization primitives.
// InFlight is created signaled so the first wait on it returns immediately.
type Slot struct {
	ImageAvailable Semaphore
	RenderFinished Semaphore
	InFlight       Fence
}

// Release destroys all the primitives of the slot.
func (s *Slot) Release() {
	if s.InFlight != nil {
		s.InFlight.Release()
	}
	if s.RenderFinished != nil {
		s.RenderFinished.Release()
	}
	if s.ImageAvailable != nil {
		s.ImageAvailable.Release()
	}
}

// NewSlots creates n slots. On failure everything created so far is released.
func NewSlots(f SyncFactory, n int) ([]Slot, error) {
	slots := make([]Slot, 0, n)
	for idx := 0; idx < n; idx++ {
		var (
			slot Slot
			err  error
		)
		if slot.ImageAvailable, err = f.NewSemaphore(); err != nil {
			ReleaseSlots(slots)
			return nil, errors.Wrapf(err, "slot %d: image available semaphore", idx)
		}
		if slot.RenderFinished, err = f.NewSemaphore(); err != nil {
			slot.Release()
			ReleaseSlots(slots)
			return nil, errors.Wrapf(err, "slot %d: render finished semaphore", idx)
		}
		if slot.InFlight, err = f.NewFence(true); err != nil {
			slot.Release()
			ReleaseSlots(slots)
			return nil, errors.Wrapf(err, "slot %d: in flight fence", idx)
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// ReleaseSlots releases the slots in reverse order.
func ReleaseSlots(slots []Slot) {
	for idx := len(slots) - 1; idx >= 0; idx-- {
		slots[idx].Release()
	}
}
