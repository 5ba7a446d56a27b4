// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package assets

import (
	"bytes"
	"image"

	// texture formats
	_ "image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeTexture decodes a png, jpeg, bmp, tiff or webp image.
func DecodeTexture(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Wrap(err, "image.Decode()")
	}
	if img.Bounds().Empty() {
		return nil, "", errors.New("texture has no pixels")
	}
	return img, format, nil
}
