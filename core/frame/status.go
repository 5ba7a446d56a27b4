// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package frame

// Status is the outcome of an acquire or present that is not an error.
type Status int

// Presentation outcomes
const (
	// StatusOK means the swapchain matches the surface.
	StatusOK Status = iota

	// StatusSuboptimal means the image is usable but the swapchain no
	// longer matches the surface exactly.
	StatusSuboptimal

	// StatusOutOfDate means the swapchain can no longer be used.
	StatusOutOfDate
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusOutOfDate:
		return "out of date"
	default:
		return "unknown"
	}
}
