// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/devblok/phalanx/core/frame"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// vkError turns a failed result into an error carrying its code.
func vkError(res vk.Result) error {
	if res == vk.Success {
		return nil
	}
	return errors.Wrapf(vk.Error(res), "vulkan error (%d)", res)
}

// statusOf maps the results of acquire and present. Out of date and
// suboptimal swapchains are not errors.
func statusOf(res vk.Result) (frame.Status, error) {
	switch res {
	case vk.Success:
		return frame.StatusOK, nil
	case vk.Suboptimal:
		return frame.StatusSuboptimal, nil
	case vk.ErrorOutOfDate:
		return frame.StatusOutOfDate, nil
	}
	return frame.StatusOK, vkError(res)
}
