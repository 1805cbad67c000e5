package packer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altair-render/altair/scene"
)

func solidRgba8(size uint32, r, g, b, a byte) *scene.Image {
	data := make([]byte, size*size*4)
	for i := uint32(0); i < size*size; i++ {
		data[i*4], data[i*4+1], data[i*4+2], data[i*4+3] = r, g, b, a
	}
	img, err := scene.NewImage(size, size, scene.Rgba8, data)
	if err != nil {
		panic(err)
	}
	return img
}

func solidRgba32F(size uint32, r, g, b, a float32) *scene.Image {
	data := make([]byte, size*size*16)
	for i := uint32(0); i < size*size; i++ {
		for c, v := range [4]float32{r, g, b, a} {
			offset := int(i)*16 + c*4
			binary.LittleEndian.PutUint32(data[offset:], math.Float32bits(v))
		}
	}
	img, err := scene.NewImage(size, size, scene.Rgba32F, data)
	if err != nil {
		panic(err)
	}
	return img
}

func TestPackImagesEmpty(t *testing.T) {
	assert.Nil(t, PackImages(nil, NewPool(0), DefaultImageOptions()))
}

func TestPackImagesSharedLayerSize(t *testing.T) {
	pool := NewPool(0)
	images := []*scene.Image{
		solidRgba8(4, 255, 0, 0, 255),
		solidRgba8(16, 0, 255, 0, 255),
		solidRgba8(7, 0, 0, 255, 255),
	}

	buf := PackImages(images, pool, DefaultImageOptions())
	require.NotNil(t, buf)
	assert.Equal(t, ImageArray, buf.Kind)
	assert.Equal(t, Unorm8, buf.Format)

	// One pow2 layer per image, sized for the largest input.
	assert.EqualValues(t, 16, buf.Width)
	assert.EqualValues(t, 16, buf.Height)
	assert.EqualValues(t, 3, buf.Layers)
	assert.EqualValues(t, 3, buf.Records)

	// A solid image stays solid through resampling. Layer 0 was upscaled
	// from 4x4, layer 1 copied verbatim.
	layerBytes := 16 * 16 * 4
	assert.Equal(t, byte(255), buf.Byte[0], "layer 0 red")
	assert.Equal(t, byte(0), buf.Byte[1], "layer 0 green")
	assert.Equal(t, byte(255), buf.Byte[layerBytes+1], "layer 1 green")
}

func TestPackImagesLayerDimCap(t *testing.T) {
	pool := NewPool(0)
	images := []*scene.Image{solidRgba8(64, 128, 128, 128, 255)}

	buf := PackImages(images, pool, ImageOptions{MaxLayerDim: 32})
	require.NotNil(t, buf)
	assert.EqualValues(t, 32, buf.Width)
	assert.EqualValues(t, 32, buf.Height)
}

func TestPackImagesInvalidEntryTransparent(t *testing.T) {
	pool := NewPool(0)
	images := []*scene.Image{
		solidRgba8(8, 200, 200, 200, 255),
		nil,
	}

	buf := PackImages(images, pool, DefaultImageOptions())
	require.NotNil(t, buf)
	require.EqualValues(t, 2, buf.Layers)

	layerBytes := int(buf.Width) * int(buf.Height) * 4
	for i := layerBytes; i < 2*layerBytes; i++ {
		if buf.Byte[i] != 0 {
			t.Fatalf("expected transparent fallback layer, found byte %d at %d", buf.Byte[i], i)
		}
	}
}

func TestPackImagesFloatConversion(t *testing.T) {
	pool := NewPool(0)
	images := []*scene.Image{
		solidRgba32F(8, 0.5, 2.0, -1.0, 1.0),
	}

	buf := PackImages(images, pool, DefaultImageOptions())
	require.NotNil(t, buf)

	// 0.5 -> 128 (round half up), out-of-range values clamp.
	assert.Equal(t, byte(128), buf.Byte[0])
	assert.Equal(t, byte(255), buf.Byte[1])
	assert.Equal(t, byte(0), buf.Byte[2])
	assert.Equal(t, byte(255), buf.Byte[3])
}
