// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"time"

	"github.com/devblok/phalanx/core/swapchain"
	"github.com/devblok/phalanx/model"
	"github.com/loov/hrtime"
	"github.com/pkg/errors"
)

// spinner writes the rotating model transform into the uniform buffer
// of the image about to be submitted.
type spinner struct {
	manager *swapchain.Manager
	start   time.Duration
	now     func() time.Duration
}

func newSpinner(manager *swapchain.Manager) *spinner {
	return &spinner{
		manager: manager,
		start:   hrtime.Now(),
		now:     hrtime.Now,
	}
}

// Update implements frame.Updater
func (s *spinner) Update(image uint32) error {
	gen, ok := s.manager.Current().(*generation)
	if !ok || gen == nil {
		return errors.New("no swap chain")
	}
	if int(image) >= len(gen.uniforms) {
		return errors.Errorf("image %d out of range (%d uniform buffers)", image, len(gen.uniforms))
	}

	ubo := model.Spin(s.elapsed(), gen.extent.Aspect())
	return gen.uniforms[image].Mem().Write(ubo.Bytes())
}

func (s *spinner) elapsed() float64 {
	return (s.now() - s.start).Seconds()
}
