// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"io/ioutil"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestFrameCounter(t *testing.T) {
	logger := logrus.New()
	logger.Out = ioutil.Discard

	var now time.Duration
	c := NewFrameCounter(logger, time.Second)
	c.now = func() time.Duration { return now }
	c.start = 0

	for i := 0; i < 59; i++ {
		now += time.Second / 60
		assert.False(t, c.Tick())
	}
	now = time.Second
	assert.True(t, c.Tick())
	assert.InDelta(t, 60, c.Rate(), 0.001)

	now += time.Second / 2
	assert.False(t, c.Tick())
}

func TestTimeUncapped(t *testing.T) {
	tm := NewTime(TimeConfiguration{})
	defer tm.Stop()

	done := make(chan struct{})
	go func() {
		tm.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("uncapped Wait blocked")
	}
}

func TestTimeCapped(t *testing.T) {
	tm := NewTime(TimeConfiguration{FramesPerSecond: 100})
	defer tm.Stop()
	assert.Equal(t, 100, tm.Fps())

	start := time.Now()
	tm.Wait()
	tm.Wait()
	assert.True(t, time.Since(start) >= 15*time.Millisecond)
}
