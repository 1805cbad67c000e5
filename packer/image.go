package packer

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/altair-render/altair/scene"
)

// Image packing parameters.
type ImageOptions struct {
	// Hardware cap on the shared layer dimension.
	MaxLayerDim uint32
}

func DefaultImageOptions() ImageOptions {
	return ImageOptions{MaxLayerDim: 2048}
}

// PackImages resamples a heterogeneously sized image set onto one shared
// power-of-two layer size and stacks the results into a multi-layer Unorm8
// buffer, one layer per input slot. A nil or invalid entry produces a fully
// transparent layer rather than failing the batch. An empty slot list
// yields a nil buffer.
func PackImages(images []*scene.Image, pool *Pool, opts ImageOptions) *Buffer {
	if len(images) == 0 {
		return nil
	}
	if opts.MaxLayerDim == 0 {
		opts.MaxLayerDim = DefaultImageOptions().MaxLayerDim
	}

	size := sharedLayerSize(images, opts.MaxLayerDim)

	buf := pool.Get(ImageArray, Unorm8, size, size, uint32(len(images)))
	buf.Records = uint32(len(images))

	layerBytes := int(size) * int(size) * 4
	for layer, img := range images {
		dst := buf.Byte[layer*layerBytes : (layer+1)*layerBytes]
		if !img.Valid() {
			// Pool buffers arrive zeroed; a zero layer is fully transparent.
			continue
		}
		switch img.Format {
		case scene.Rgba8:
			resampleRgba8(img, dst, int(size))
		case scene.Rgba32F:
			resampleRgba32F(img, dst, int(size))
		}
	}

	return buf
}

// The smallest power of two covering the largest image dimension in the
// set, capped by the hardware maximum.
func sharedLayerSize(images []*scene.Image, maxDim uint32) uint32 {
	largest := 1
	for _, img := range images {
		if !img.Valid() {
			continue
		}
		if int(img.Width) > largest {
			largest = int(img.Width)
		}
		if int(img.Height) > largest {
			largest = int(img.Height)
		}
	}
	size := ceilPow2(largest)
	if uint32(size) > maxDim {
		size = int(maxDim)
	}
	return uint32(size)
}

// Resample an 8-bit image onto the layer using x/image bilinear scaling.
// Same-size images are copied verbatim.
func resampleRgba8(img *scene.Image, dst []byte, size int) {
	if int(img.Width) == size && int(img.Height) == size {
		copy(dst, img.Data)
		return
	}

	src := &image.RGBA{
		Pix:    img.Data,
		Stride: int(img.Width) * 4,
		Rect:   image.Rect(0, 0, int(img.Width), int(img.Height)),
	}
	out := &image.RGBA{
		Pix:    dst,
		Stride: size * 4,
		Rect:   image.Rect(0, 0, size, size),
	}
	draw.BiLinear.Scale(out, out.Rect, src, src.Rect, draw.Src, nil)
}

// Resample a float image onto the layer with bilinear filtering, converting
// to normalized 8-bit. x/image/draw only understands 8-bit image.Image
// sources, so the float path samples directly.
func resampleRgba32F(img *scene.Image, dst []byte, size int) {
	scaleX := float32(img.Width) / float32(size)
	scaleY := float32(img.Height) / float32(size)

	for y := 0; y < size; y++ {
		srcY := (float32(y)+0.5)*scaleY - 0.5
		y0 := int(math.Floor(float64(srcY)))
		fy := srcY - float32(y0)

		for x := 0; x < size; x++ {
			srcX := (float32(x)+0.5)*scaleX - 0.5
			x0 := int(math.Floor(float64(srcX)))
			fx := srcX - float32(x0)

			r00, g00, b00, a00 := img.FloatAt(x0, y0)
			r10, g10, b10, a10 := img.FloatAt(x0+1, y0)
			r01, g01, b01, a01 := img.FloatAt(x0, y0+1)
			r11, g11, b11, a11 := img.FloatAt(x0+1, y0+1)

			r := lerp(lerp(r00, r10, fx), lerp(r01, r11, fx), fy)
			g := lerp(lerp(g00, g10, fx), lerp(g01, g11, fx), fy)
			b := lerp(lerp(b00, b10, fx), lerp(b01, b11, fx), fy)
			a := lerp(lerp(a00, a10, fx), lerp(a01, a11, fx), fy)

			offset := (y*size + x) * 4
			dst[offset] = toUnorm8(r)
			dst[offset+1] = toUnorm8(g)
			dst[offset+2] = toUnorm8(b)
			dst[offset+3] = toUnorm8(a)
		}
	}
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

func toUnorm8(v float32) byte {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(v*255 + 0.5)
}
