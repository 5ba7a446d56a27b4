// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"image"
	"unsafe"

	"golang.org/x/image/draw"
)

// SliceUint32 reslices bytes into a uint32, that is used
// to sumbit vulkan shaders for processing
func SliceUint32(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}

// SafeString null terminates s for the C side.
func SafeString(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\x00' {
		return s
	}
	return s + "\x00"
}

// SafeStrings null terminates every string in sgs.
func SafeStrings(sgs []string) []string {
	safe := make([]string, 0, len(sgs))
	for _, s := range sgs {
		safe = append(safe, SafeString(s))
	}
	return safe
}

// GetPixels transforms a given image into right arrangement of pixels
// by drawing the decoded image onto a controlled RGBA canvas.
// The row pitch is applied only when it fits a whole row.
func GetPixels(img image.Image, rowPitch int) []uint8 {
	bounds := img.Bounds()
	newImg := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if rowPitch > newImg.Stride {
		newImg.Stride = rowPitch
		newImg.Pix = make([]uint8, rowPitch*bounds.Dy())
	}
	draw.Draw(newImg, newImg.Bounds(), img, bounds.Min, draw.Src)
	return newImg.Pix
}
