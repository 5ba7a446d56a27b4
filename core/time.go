// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"

	"github.com/loov/hrtime"
	"github.com/sirupsen/logrus"
)

// NewTime creates a new time service
func NewTime(cfg TimeConfiguration) *Time {
	t := &Time{fps: cfg.FramesPerSecond}
	if cfg.FramesPerSecond > 0 {
		t.fpsTicker = time.NewTicker(time.Second / time.Duration(cfg.FramesPerSecond))
	}
	return t
}

// Time contains all the time services and tickers
type Time struct {
	fps       int
	fpsTicker *time.Ticker
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// Wait blocks until the next frame may start. Returns
// immediately when frames are not capped.
func (t *Time) Wait() {
	if t.fpsTicker != nil {
		<-t.fpsTicker.C
	}
}

// Stop releases the ticker.
func (t *Time) Stop() {
	if t.fpsTicker != nil {
		t.fpsTicker.Stop()
	}
}

// NewFrameCounter creates a counter that logs the frame rate every interval.
func NewFrameCounter(logger logrus.FieldLogger, interval time.Duration) *FrameCounter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &FrameCounter{
		log:      logger,
		interval: interval,
		now:      hrtime.Now,
		start:    hrtime.Now(),
	}
}

// FrameCounter counts frames and reports them per second.
type FrameCounter struct {
	log      logrus.FieldLogger
	interval time.Duration
	now      func() time.Duration

	start  time.Duration
	frames int
	last   float64
}

// Tick counts one frame. Once per interval the rate is
// logged and true is returned.
func (c *FrameCounter) Tick() bool {
	c.frames++
	elapsed := c.now() - c.start
	if elapsed < c.interval {
		return false
	}

	c.last = float64(c.frames) / elapsed.Seconds()
	c.log.WithFields(logrus.Fields{
		"fps":    int(c.last + 0.5),
		"frames": c.frames,
	}).Info("frame rate")

	c.start += elapsed
	c.frames = 0
	return true
}

// Rate returns the last reported frames per second.
func (c *FrameCounter) Rate() float64 {
	return c.last
}
