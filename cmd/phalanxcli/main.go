// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/devblok/phalanx/device"
	"github.com/sirupsen/logrus"
)

var (
	debug  = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	indent = flag.Bool("i", false, "Indent the output")
)

func main() {
	flag.Parse()

	log := logrus.New()
	log.Out = os.Stderr

	instance, err := device.NewInstance(device.DefaultVulkanApplicationInfo, device.InstanceConfiguration{
		Validation: *debug,
	}, log)
	if err != nil {
		log.Errorf("fatal: %v", err)
		os.Exit(1)
	}
	defer instance.Destroy()

	var bytes []byte
	if *indent {
		bytes, err = json.MarshalIndent(instance.PhysicalDevicesInfo(), "", "  ")
	} else {
		bytes, err = json.Marshal(instance.PhysicalDevicesInfo())
	}
	if err != nil {
		log.Errorf("fatal: %v", err)
		instance.Destroy()
		os.Exit(1)
	}
	fmt.Printf("%s\n", bytes)
}
