// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package assets_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devblok/phalanx/assets"
	"github.com/devblok/phalanx/utility/kar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

var files = map[string]string{
	"shader.vert.spv": "vert",
	"shader.frag.spv": "frag",
	"cube.obj":        "v 0 0 0\n",
}

func writeDir(t *testing.T) string {
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func writeArchive(t *testing.T) string {
	builder, err := kar.NewBuilder(kar.Header{Author: "devblok", Version: 1})
	require.NoError(t, err)
	defer builder.Close()
	for _, name := range []string{"shader.vert.spv", "shader.frag.spv", "cube.obj"} {
		require.NoError(t, builder.Add(name, strings.NewReader(files[name])))
	}

	path := filepath.Join(t.TempDir(), "assets.kar")
	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = builder.WriteTo(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return path
}

func TestDirSource(t *testing.T) {
	src, err := assets.Open(writeDir(t))
	require.NoError(t, err)

	data, err := src.Open("cube.obj")
	require.NoError(t, err)
	assert.Equal(t, files["cube.obj"], string(data))

	_, err = src.Open("missing.obj")
	assert.Error(t, err)
}

func TestArchiveSource(t *testing.T) {
	src, err := assets.OpenArchive(writeArchive(t))
	require.NoError(t, err)
	defer src.Close()

	assert.ElementsMatch(t, []string{"shader.vert.spv", "shader.frag.spv", "cube.obj"}, src.List())

	data, err := src.Open("shader.frag.spv")
	require.NoError(t, err)
	assert.Equal(t, "frag", string(data))

	name, ok := assets.Find(src, ".obj")
	assert.True(t, ok)
	assert.Equal(t, "cube.obj", name)

	_, ok = assets.Find(src, ".dae")
	assert.False(t, ok)
}

func TestOpenPicksArchive(t *testing.T) {
	src, err := assets.Open(writeArchive(t))
	require.NoError(t, err)
	_, ok := src.(*assets.ArchiveSource)
	assert.True(t, ok)
}

func TestShaders(t *testing.T) {
	src, err := assets.OpenArchive(writeArchive(t))
	require.NoError(t, err)
	defer src.Close()

	vert, frag, err := assets.Shaders(src)
	require.NoError(t, err)
	assert.Equal(t, "shader.vert.spv", vert.Name)
	assert.Equal(t, assets.VertexShaderType, vert.Type)
	assert.Equal(t, []byte("vert"), vert.Code)
	assert.Equal(t, "shader.frag.spv", frag.Name)
	assert.Equal(t, assets.FragmentShaderType, frag.Type)
}

type mapSource map[string][]byte

func (m mapSource) Open(name string) ([]byte, error) { return m[name], nil }

func (m mapSource) List() []string {
	var names []string
	for name := range m {
		names = append(names, name)
	}
	return names
}

func TestShadersMissing(t *testing.T) {
	_, _, err := assets.Shaders(mapSource{"a.vert.spv": []byte("abcd")})
	assert.Error(t, err)

	_, _, err = assets.Shaders(mapSource{"a.vert.spv": []byte("abc"), "a.frag.spv": []byte("abcd")})
	assert.Error(t, err)
}

func TestShaderTypeOf(t *testing.T) {
	assert.Equal(t, assets.VertexShaderType, assets.ShaderTypeOf("shaders/triangle.vert.spv"))
	assert.Equal(t, assets.FragmentShaderType, assets.ShaderTypeOf("triangle.frag.spv"))
	assert.Equal(t, assets.UnknownShaderType, assets.ShaderTypeOf("triangle.frag"))
	assert.Equal(t, assets.UnknownShaderType, assets.ShaderTypeOf("tri.angle.frag.spv"))
	assert.Equal(t, assets.UnknownShaderType, assets.ShaderTypeOf("triangle.geom.spv"))
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
		img.Set(x, 1, color.RGBA{B: 255, A: 255})
	}
	return img
}

func TestDecodeTexture(t *testing.T) {
	var pngData, bmpData bytes.Buffer
	require.NoError(t, png.Encode(&pngData, testImage()))
	require.NoError(t, bmp.Encode(&bmpData, testImage()))

	for format, data := range map[string][]byte{"png": pngData.Bytes(), "bmp": bmpData.Bytes()} {
		t.Run(format, func(t *testing.T) {
			img, decoded, err := assets.DecodeTexture(data)
			require.NoError(t, err)
			assert.Equal(t, format, decoded)
			assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())
			r, _, b, _ := img.At(0, 1).RGBA()
			assert.Equal(t, uint32(0), r)
			assert.Equal(t, uint32(0xffff), b)
		})
	}

	_, _, err := assets.DecodeTexture([]byte("not an image"))
	assert.Error(t, err)
}
