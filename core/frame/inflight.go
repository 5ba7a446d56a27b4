// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package frame

// InFlight maps every swapchain image to the fence of the frame slot
// that last submitted work rendering into it. A nil entry means the
// image has no outstanding work. Entries are borrowed, the slots own the fences.
type InFlight struct {
	owners []Fence
}

// NewInFlight creates a map for n images with no owners.
func NewInFlight(n int) *InFlight {
	return &InFlight{
		owners: make([]Fence, n),
	}
}

// Len returns the number of images tracked.
func (m *InFlight) Len() int {
	return len(m.owners)
}

// Owner returns the fence guarding the image, or nil.
func (m *InFlight) Owner(image uint32) Fence {
	if int(image) >= len(m.owners) {
		return nil
	}
	return m.owners[image]
}

// Claim records f as the new owner of the image.
func (m *InFlight) Claim(image uint32, f Fence) {
	if int(image) >= len(m.owners) {
		grown := make([]Fence, image+1)
		copy(grown, m.owners)
		m.owners = grown
	}
	m.owners[image] = f
}

// Reset drops all owners and resizes the map to n images.
func (m *InFlight) Reset(n int) {
	m.owners = make([]Fence, n)
}
