// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package frame drives the per-frame acquire, submit and present cycle
// and the fence and semaphore bookkeeping that keeps at most a fixed
// number of frames in flight on the GPU.
package frame

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// MaxFramesInFlight is the default number of frame slots.
const MaxFramesInFlight = 2

// Rebuild reasons
const (
	ReasonAcquireOutOfDate = "swap chain out of date when acquiring image"
	ReasonResized          = "frame buffer was resized"
	ReasonPresentStale     = "presenting image: swap chain out of date or suboptimal"
	ReasonUserRequest      = "user requested swapchain reset"
)

// Presenter talks to the swapchain and the queues.
type Presenter interface {

	// Acquire gets the next presentable image, signal is signaled
	// once the image can be rendered to.
	Acquire(signal Semaphore) (uint32, Status, error)

	// Submit submits the prerecorded commands for the image. The work
	// waits on wait, signals signal when done and signals done on completion.
	Submit(image uint32, wait, signal Semaphore, done Fence) error

	// Present queues the image for presentation after wait is signaled.
	Present(image uint32, wait Semaphore) (Status, error)
}

// Rebuilder recreates the swapchain and everything depending on it.
// It returns the number of images in the new swapchain.
type Rebuilder interface {
	Rebuild(reason string) (int, error)
}

// Surface reports resizes of the window. The flag is consumed on read.
type Surface interface {
	ResizeRequested() bool
}

// Updater writes per-frame data for the image before it is submitted.
type Updater interface {
	Update(image uint32) error
}

// Config is used to create a Scheduler.
type Config struct {
	// Frames is the number of frame slots, defaults to MaxFramesInFlight.
	Frames int

	// Images is the number of images in the current swapchain.
	Images int

	Sync      SyncFactory
	Presenter Presenter
	Rebuilder Rebuilder
	Surface   Surface

	// Updater is optional.
	Updater Updater

	Logger logrus.FieldLogger
}

// Stats counts what the scheduler has done so far.
type Stats struct {
	Frames   uint64
	Submits  uint64
	Presents uint64
	Rebuilds uint64
}

// New creates the frame slots and a Scheduler over them.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Sync == nil || cfg.Presenter == nil || cfg.Rebuilder == nil {
		return nil, errors.New("frame.New(): sync factory, presenter and rebuilder are required")
	}
	if cfg.Frames <= 0 {
		cfg.Frames = MaxFramesInFlight
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	slots, err := NewSlots(cfg.Sync, cfg.Frames)
	if err != nil {
		return nil, errors.Wrap(err, "frame.NewSlots()")
	}

	s := &Scheduler{
		log:       cfg.Logger,
		slots:     slots,
		inFlight:  NewInFlight(cfg.Images),
		presenter: cfg.Presenter,
		rebuilder: cfg.Rebuilder,
		surface:   cfg.Surface,
		updater:   cfg.Updater,
	}
	s.checkImageCount(cfg.Images)
	return s, nil
}

// Scheduler runs one frame per DrawFrame call, rotating through its slots.
// It is not safe for concurrent use.
type Scheduler struct {
	log logrus.FieldLogger

	slots    []Slot
	current  int
	inFlight *InFlight

	presenter Presenter
	rebuilder Rebuilder
	surface   Surface
	updater   Updater

	stats Stats
}

// DrawFrame renders and presents one frame. Stale swapchains are rebuilt
// transparently, any returned error is fatal.
func (s *Scheduler) DrawFrame() error {
	slot := &s.slots[s.current]

	if err := slot.InFlight.Wait(); err != nil {
		return errors.Wrapf(err, "wait for frame slot %d", s.current)
	}

	image, status, err := s.presenter.Acquire(slot.ImageAvailable)
	if err != nil {
		return errors.Wrap(err, "failed to acquire swap chain image")
	}
	if status == StatusOutOfDate {
		// nothing was submitted, the slot fence stays signaled
		return s.Rebuild(ReasonAcquireOutOfDate)
	}
	// a suboptimal image is still drawn, the swapchain is rebuilt after presenting
	degraded := status == StatusSuboptimal

	if owner := s.inFlight.Owner(image); owner != nil && owner != slot.InFlight {
		if err := owner.Wait(); err != nil {
			return errors.Wrapf(err, "wait for image %d", image)
		}
	}
	s.inFlight.Claim(image, slot.InFlight)

	if s.updater != nil {
		if err := s.updater.Update(image); err != nil {
			return errors.Wrapf(err, "update image %d", image)
		}
	}

	if err := slot.InFlight.Reset(); err != nil {
		return errors.Wrapf(err, "reset fence of slot %d", s.current)
	}
	if err := s.presenter.Submit(image, slot.ImageAvailable, slot.RenderFinished, slot.InFlight); err != nil {
		return errors.Wrap(err, "failed to submit draw command buffer")
	}
	s.stats.Submits++

	status, err = s.presenter.Present(image, slot.RenderFinished)
	if err != nil {
		return errors.Wrap(err, "failed to present swap chain image")
	}
	s.stats.Presents++

	resized := s.surface != nil && s.surface.ResizeRequested()
	if resized || degraded || status != StatusOK {
		reason := ReasonPresentStale
		if resized {
			reason = ReasonResized
		}
		if err := s.Rebuild(reason); err != nil {
			return err
		}
	}

	s.stats.Frames++
	s.current = (s.current + 1) % len(s.slots)
	return nil
}

// Rebuild rebuilds the swapchain and forgets all image owners.
func (s *Scheduler) Rebuild(reason string) error {
	s.log.WithField("reason", reason).Info("recreating swap chain")

	images, err := s.rebuilder.Rebuild(reason)
	if err != nil {
		return errors.Wrap(err, "recreate swap chain")
	}
	s.stats.Rebuilds++
	s.inFlight.Reset(images)
	s.checkImageCount(images)
	return nil
}

func (s *Scheduler) checkImageCount(images int) {
	if images < len(s.slots) {
		s.log.WithFields(logrus.Fields{
			"images": images,
			"frames": len(s.slots),
		}).Warn("fewer swapchain images than frames in flight")
	}
}

// Current returns the index of the slot the next frame uses.
func (s *Scheduler) Current() int {
	return s.current
}

// Frames returns the number of frame slots.
func (s *Scheduler) Frames() int {
	return len(s.slots)
}

// Slot returns the frame slot at idx.
func (s *Scheduler) Slot(idx int) *Slot {
	return &s.slots[idx]
}

// InFlight returns the image ownership map.
func (s *Scheduler) InFlight() *InFlight {
	return s.inFlight
}

// Stats returns the counters.
func (s *Scheduler) Stats() Stats {
	return s.stats
}

// Release destroys all the frame slots. The caller must make sure
// the device is idle.
func (s *Scheduler) Release() {
	ReleaseSlots(s.slots)
	s.slots = nil
	s.inFlight.Reset(0)
}
