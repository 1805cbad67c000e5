// Package packer serializes compiled scene data (materials, triangles, BVH
// nodes, images, CDF tables) into fixed-stride rectangular buffers shaped
// for upload to a GPU shading stage. Buffers always carry 4 numeric channels
// per pixel and are drawn from a bounded, size-keyed pool.
package packer

import "fmt"

// Numeric storage type of a buffer's channels.
type Format uint8

const (
	Float32 Format = iota
	Unorm8
)

func (f Format) String() string {
	if f == Unorm8 {
		return "unorm8"
	}
	return "float32"
}

// Bytes per pixel (4 channels).
func (f Format) PixelSize() int {
	if f == Unorm8 {
		return 4
	}
	return 16
}

// The data category a buffer holds. Part of the pool key: buffers are only
// reused within their own category.
type Kind uint8

const (
	MaterialData Kind = iota
	TriangleData
	NodeData
	ImageArray
	CDFData
)

func (k Kind) String() string {
	switch k {
	case MaterialData:
		return "materials"
	case TriangleData:
		return "triangles"
	case NodeData:
		return "bvh-nodes"
	case ImageArray:
		return "image-array"
	case CDFData:
		return "env-cdf"
	}
	return "unknown"
}

// Largest dimension a packed buffer may have along either axis; imposed by
// the GPU backend's texture limits.
const MaxBufferDim = 4096

// A packed, GPU-ready buffer. Exactly one of Float/Byte is populated,
// matching Format. Records counts the valid records so the consumer can
// bound iteration without reading padding.
type Buffer struct {
	Kind    Kind
	Format  Format
	Width   uint32
	Height  uint32
	Layers  uint32
	Records uint32

	Float []float32
	Byte  []byte

	pool *Pool
	key  poolKey
}

// Total pixel count across all layers.
func (b *Buffer) Pixels() int {
	return int(b.Width) * int(b.Height) * int(b.Layers)
}

// Size of the buffer's backing storage in bytes.
func (b *Buffer) SizeBytes() int {
	return len(b.Float)*4 + len(b.Byte)
}

// Release returns the buffer to its pool. The buffer must not be used after
// release. Pool-less buffers are simply dropped.
func (b *Buffer) Release() {
	if b.pool != nil {
		b.pool.put(b)
	}
}

func (b *Buffer) String() string {
	return fmt.Sprintf("%s %dx%dx%d %s (%d records)", b.Kind, b.Width, b.Height, b.Layers, b.Format, b.Records)
}

// Largest power of two less than or equal to v; 1 for v < 1.
func floorPow2(v int) int {
	out := 1
	for out*2 <= v {
		out *= 2
	}
	return out
}

// Smallest power of two greater than or equal to v.
func ceilPow2(v int) int {
	out := 1
	for out < v {
		out *= 2
	}
	return out
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Choose buffer dimensions for totalPixels with the height constrained to a
// power of two; minimizes slack by starting from the power of two nearest
// the square root.
func dimsPow2Height(totalPixels int) (width, height uint32) {
	if totalPixels <= 0 {
		return 0, 0
	}
	h := floorPow2(intSqrt(totalPixels))
	w := ceilDiv(totalPixels, h)
	for w > MaxBufferDim && h < MaxBufferDim {
		h *= 2
		w = ceilDiv(totalPixels, h)
	}
	return uint32(w), uint32(h)
}

// Choose the smallest near-square dimensions holding totalPixels.
func dimsNearSquare(totalPixels int) (width, height uint32) {
	if totalPixels <= 0 {
		return 0, 0
	}
	w := intSqrt(totalPixels)
	if w*w < totalPixels {
		w++
	}
	if w > MaxBufferDim {
		w = MaxBufferDim
	}
	h := ceilDiv(totalPixels, w)
	return uint32(w), uint32(h)
}

// Integer square root (floor).
func intSqrt(v int) int {
	if v <= 0 {
		return 0
	}
	x := v
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + v/x) / 2
	}
	return x
}
