package scene

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Pixel storage format for decoded images. All images carry 4 channels;
// loaders expand RGB sources during decode.
type ImageFormat uint8

const (
	Rgba8 ImageFormat = iota
	Rgba32F
)

// Bytes per pixel for a format.
func (f ImageFormat) PixelSize() int {
	switch f {
	case Rgba32F:
		return 16
	default:
		return 4
	}
}

// A decoded image. Data is tightly packed scanlines, top row first.
type Image struct {
	Width  uint32
	Height uint32
	Format ImageFormat
	Data   []byte
}

// Create an image, validating that the data length matches the dimensions.
func NewImage(width, height uint32, format ImageFormat, data []byte) (*Image, error) {
	expLen := int(width) * int(height) * format.PixelSize()
	if len(data) != expLen {
		return nil, fmt.Errorf("scene: image data length %d does not match %dx%d %s (want %d)",
			len(data), width, height, formatName(format), expLen)
	}
	return &Image{Width: width, Height: height, Format: format, Data: data}, nil
}

func formatName(f ImageFormat) string {
	if f == Rgba32F {
		return "rgba32f"
	}
	return "rgba8"
}

// True if the image has usable dimensions and data.
func (img *Image) Valid() bool {
	return img != nil && img.Width > 0 && img.Height > 0 &&
		len(img.Data) == int(img.Width)*int(img.Height)*img.Format.PixelSize()
}

// Read a pixel as float values. Rgba8 channels are normalized to [0,1].
// Coordinates outside the image are clamped.
func (img *Image) FloatAt(x, y int) (r, g, b, a float32) {
	if x < 0 {
		x = 0
	} else if x >= int(img.Width) {
		x = int(img.Width) - 1
	}
	if y < 0 {
		y = 0
	} else if y >= int(img.Height) {
		y = int(img.Height) - 1
	}

	offset := (y*int(img.Width) + x) * img.Format.PixelSize()
	switch img.Format {
	case Rgba32F:
		r = math.Float32frombits(binary.LittleEndian.Uint32(img.Data[offset:]))
		g = math.Float32frombits(binary.LittleEndian.Uint32(img.Data[offset+4:]))
		b = math.Float32frombits(binary.LittleEndian.Uint32(img.Data[offset+8:]))
		a = math.Float32frombits(binary.LittleEndian.Uint32(img.Data[offset+12:]))
	default:
		r = float32(img.Data[offset]) / 255.0
		g = float32(img.Data[offset+1]) / 255.0
		b = float32(img.Data[offset+2]) / 255.0
		a = float32(img.Data[offset+3]) / 255.0
	}
	return r, g, b, a
}

// Build an Rgba32F image from float pixel data; helper for tests and
// procedurally generated panoramas.
func NewFloatImage(width, height uint32, pixels []float32) (*Image, error) {
	if len(pixels) != int(width)*int(height)*4 {
		return nil, fmt.Errorf("scene: float image needs %d values, got %d", width*height*4, len(pixels))
	}
	data := make([]byte, len(pixels)*4)
	for i, v := range pixels {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return &Image{Width: width, Height: height, Format: Rgba32F, Data: data}, nil
}
