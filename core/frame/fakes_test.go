// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package frame

import (
	"errors"
	"io/ioutil"

	"github.com/sirupsen/logrus"
)

// fakeFence models a GPU fence: submitted work completes when waited on.
type fakeFence struct {
	id       int
	signaled bool
	pending  bool
	released bool

	waits, resets int
}

func (f *fakeFence) Wait() error {
	f.waits++
	if f.signaled {
		return nil
	}
	if !f.pending {
		return errors.New("wait on a fence that will never signal")
	}
	f.pending = false
	f.signaled = true
	return nil
}

func (f *fakeFence) Reset() error {
	f.resets++
	f.signaled = false
	return nil
}

func (f *fakeFence) Release() {
	f.released = true
}

type fakeSemaphore struct {
	id       int
	released bool
}

func (s *fakeSemaphore) Release() {
	s.released = true
}

type fakeSync struct {
	fences     []*fakeFence
	semaphores []*fakeSemaphore

	failAfter int
	created   int
}

func (f *fakeSync) count() error {
	f.created++
	if f.failAfter > 0 && f.created > f.failAfter {
		return errors.New("out of device memory")
	}
	return nil
}

func (f *fakeSync) NewFence(signaled bool) (Fence, error) {
	if err := f.count(); err != nil {
		return nil, err
	}
	fence := &fakeFence{id: len(f.fences), signaled: signaled}
	f.fences = append(f.fences, fence)
	return fence, nil
}

func (f *fakeSync) NewSemaphore() (Semaphore, error) {
	if err := f.count(); err != nil {
		return nil, err
	}
	sem := &fakeSemaphore{id: len(f.semaphores)}
	f.semaphores = append(f.semaphores, sem)
	return sem, nil
}

type submission struct {
	image uint32
	fence *fakeFence
}

// fakePresenter hands out images round robin unless a script is given.
type fakePresenter struct {
	images int
	next   uint32

	order          []uint32
	acquireScript  []Status
	presentScript  []Status
	acquireErr     error
	presentErr     error
	events         *[]string
	submits        []submission
	presents       []uint32
	acquireCounter int
}

func (p *fakePresenter) Acquire(signal Semaphore) (uint32, Status, error) {
	if p.acquireErr != nil {
		return 0, StatusOK, p.acquireErr
	}
	p.acquireCounter++
	status := StatusOK
	if len(p.acquireScript) > 0 {
		status, p.acquireScript = p.acquireScript[0], p.acquireScript[1:]
	}
	if status == StatusOutOfDate {
		return 0, status, nil
	}

	var image uint32
	if len(p.order) > 0 {
		image, p.order = p.order[0], p.order[1:]
	} else {
		image = p.next
		p.next = (p.next + 1) % uint32(p.images)
	}
	return image, status, nil
}

func (p *fakePresenter) Submit(image uint32, wait, signal Semaphore, done Fence) error {
	fence := done.(*fakeFence)
	if fence.signaled {
		return errors.New("submitted with a signaled fence")
	}
	fence.pending = true
	p.submits = append(p.submits, submission{image: image, fence: fence})
	if p.events != nil {
		*p.events = append(*p.events, "submit")
	}
	return nil
}

func (p *fakePresenter) Present(image uint32, wait Semaphore) (Status, error) {
	if p.presentErr != nil {
		return StatusOK, p.presentErr
	}
	p.presents = append(p.presents, image)
	status := StatusOK
	if len(p.presentScript) > 0 {
		status, p.presentScript = p.presentScript[0], p.presentScript[1:]
	}
	return status, nil
}

type fakeRebuilder struct {
	images  int
	reasons []string
	err     error
	onBuild func()
}

func (r *fakeRebuilder) Rebuild(reason string) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.reasons = append(r.reasons, reason)
	if r.onBuild != nil {
		r.onBuild()
	}
	return r.images, nil
}

type fakeSurface struct {
	resized bool
}

func (s *fakeSurface) ResizeRequested() bool {
	r := s.resized
	s.resized = false
	return r
}

type fakeUpdater struct {
	events *[]string
	images []uint32
}

func (u *fakeUpdater) Update(image uint32) error {
	u.images = append(u.images, image)
	*u.events = append(*u.events, "update")
	return nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(ioutil.Discard)
	return l
}

type harness struct {
	sync      *fakeSync
	presenter *fakePresenter
	rebuilder *fakeRebuilder
	surface   *fakeSurface
	scheduler *Scheduler
}

func newHarness(frames, images int) (*harness, error) {
	h := &harness{
		sync:      &fakeSync{},
		presenter: &fakePresenter{images: images},
		rebuilder: &fakeRebuilder{images: images},
		surface:   &fakeSurface{},
	}
	s, err := New(Config{
		Frames:    frames,
		Images:    images,
		Sync:      h.sync,
		Presenter: h.presenter,
		Rebuilder: h.rebuilder,
		Surface:   h.surface,
		Logger:    quietLogger(),
	})
	h.scheduler = s
	return h, err
}

func (h *harness) slotFence(idx int) *fakeFence {
	return h.scheduler.Slot(idx).InFlight.(*fakeFence)
}

// unsignaledOwners counts distinct fences in the map that are not yet signaled.
func (h *harness) unsignaledOwners() int {
	seen := map[*fakeFence]bool{}
	m := h.scheduler.InFlight()
	for idx := 0; idx < m.Len(); idx++ {
		if owner := m.Owner(uint32(idx)); owner != nil {
			f := owner.(*fakeFence)
			if !f.signaled {
				seen[f] = true
			}
		}
	}
	return len(seen)
}
