// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package renderer draws a textured mesh with Vulkan on top of the
// frame scheduler and the swapchain manager.
package renderer

import (
	"github.com/devblok/phalanx/assets"
	"github.com/devblok/phalanx/core"
	"github.com/devblok/phalanx/core/frame"
	"github.com/devblok/phalanx/core/swapchain"
	"github.com/devblok/phalanx/device"
	"github.com/devblok/phalanx/window"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// NewVulkanRenderer loads the assets, builds the first swapchain generation
// and the frame slots. The renderer takes ownership of ctx.
func NewVulkanRenderer(ctx *device.Context, win *window.Window, src assets.Source, cfg core.Configuration, logger logrus.FieldLogger) (*VulkanRenderer, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	res, err := newResources(ctx, src, cfg.Assets, logger)
	if err != nil {
		return nil, errors.Wrap(err, "load resources")
	}

	families := ctx.Families()
	manager := swapchain.NewManager(
		&backend{ctx: ctx, res: res},
		win,
		swapchain.QueueFamilies{Graphics: families.Graphics, Present: families.Present},
		logger,
	)
	gen, err := manager.Build()
	if err != nil {
		res.Release()
		return nil, errors.Wrap(err, "create swap chain")
	}

	scheduler, err := frame.New(frame.Config{
		Frames:    cfg.Renderer.FramesInFlight,
		Images:    gen.Len(),
		Sync:      syncFactory{device: ctx.Device()},
		Presenter: &presenter{ctx: ctx, manager: manager},
		Rebuilder: manager,
		Surface:   win,
		Updater:   newSpinner(manager),
		Logger:    logger,
	})
	if err != nil {
		manager.Release()
		res.Release()
		return nil, err
	}

	return &VulkanRenderer{
		log:       logger,
		ctx:       ctx,
		window:    win,
		resources: res,
		manager:   manager,
		scheduler: scheduler,
	}, nil
}

// VulkanRenderer owns every Vulkan object from the device down.
type VulkanRenderer struct {
	log logrus.FieldLogger

	ctx    *device.Context
	window *window.Window

	resources *resources
	manager   *swapchain.Manager
	scheduler *frame.Scheduler
}

// IsRunning reports whether the window is still open.
func (v *VulkanRenderer) IsRunning() bool {
	return !v.window.Closed()
}

// Draw renders one frame. Errors are fatal.
func (v *VulkanRenderer) Draw() error {
	if v.window.RebuildRequested() {
		if err := v.scheduler.Rebuild(frame.ReasonUserRequest); err != nil {
			return err
		}
		if !v.IsRunning() {
			return nil
		}
	}
	return v.scheduler.DrawFrame()
}

// Stats returns the scheduler counters.
func (v *VulkanRenderer) Stats() frame.Stats {
	return v.scheduler.Stats()
}

// Cleanup waits for the device and destroys everything, the device
// context included.
func (v *VulkanRenderer) Cleanup() {
	if err := v.ctx.WaitIdle(); err != nil {
		v.log.WithError(err).Error("wait for device before cleanup")
	}
	v.scheduler.Release()
	v.manager.Release()
	v.resources.Release()
	v.ctx.Destroy()
	v.log.WithField("generations", v.manager.Builds()).Debug("renderer released")
}
