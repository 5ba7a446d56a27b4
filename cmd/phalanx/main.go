// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:generate glslc ../../shaders/shader.vert -o ../../data/shader.vert.spv
//go:generate glslc ../../shaders/shader.frag -o ../../data/shader.frag.spv

package main

import (
	"flag"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"time"

	"github.com/devblok/phalanx/assets"
	"github.com/devblok/phalanx/core"
	"github.com/devblok/phalanx/core/renderer"
	"github.com/devblok/phalanx/device"
	"github.com/devblok/phalanx/window"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func init() {
	runtime.LockOSThread()
}

var (
	configFile = flag.String("config", "", "Configuration file (toml)")
	envFile    = flag.String("env", "", "Environment file to load before reading PHALANX_* variables")
	verbose    = flag.Bool("v", false, "Debug logging")
	debug      = flag.Bool("vkdbg", false, "Load Vulkan validation layers")

	// Profiling
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
)

func main() {
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := run(log); err != nil {
		log.Errorf("fatal: %v", err)
		os.Exit(1)
	}
}

func run(log *logrus.Logger) error {
	cfg, err := core.LoadConfiguration(*configFile, *envFile)
	if err != nil {
		return err
	}
	if *debug {
		cfg.Renderer.Validation = true
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return errors.Wrap(err, "start cpu profile")
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := trace.Start(f); err != nil {
			return errors.Wrap(err, "start trace")
		}
		defer trace.Stop()
	}

	src, err := assets.Open(cfg.Assets.Source)
	if err != nil {
		return errors.Wrap(err, "open assets")
	}
	if c, ok := src.(interface{ Close() error }); ok {
		defer c.Close()
	}

	quit, err := window.Init()
	if err != nil {
		return err
	}
	defer quit()

	win, err := window.New(cfg.Window, log)
	if err != nil {
		return err
	}
	defer win.Destroy()

	ctx, err := device.NewContext(device.DefaultVulkanApplicationInfo, device.Configuration{
		Instance: device.InstanceConfiguration{
			Validation: cfg.Renderer.Validation,
			Extensions: win.InstanceExtensions(),
			ProcAddr:   win.ProcAddr(),
		},
		DeviceExtensions: cfg.Renderer.DeviceExtensions,
	}, win.CreateSurface, log)
	if err != nil {
		return err
	}

	vkRenderer, err := renderer.NewVulkanRenderer(ctx, win, src, cfg, log)
	if err != nil {
		ctx.Destroy()
		return err
	}
	defer vkRenderer.Cleanup()

	ticker := core.NewTime(cfg.Time)
	defer ticker.Stop()
	fps := core.NewFrameCounter(log, time.Second)

	for vkRenderer.IsRunning() {
		win.PollEvents()
		if !vkRenderer.IsRunning() {
			break
		}
		if err := vkRenderer.Draw(); err != nil {
			return err
		}
		fps.Tick()
		ticker.Wait()
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			return err
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return errors.Wrap(err, "write heap profile")
		}
	}

	log.WithField("frames", vkRenderer.Stats().Frames).Info("exiting")
	return nil
}
