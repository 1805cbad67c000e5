package envmap

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altair-render/altair/scene"
)

// A panorama with uniform gray pixels at the given value.
func flatPanorama(t *testing.T, w, h uint32, value float32) *scene.Image {
	pixels := make([]float32, w*h*4)
	for i := uint32(0); i < w*h; i++ {
		pixels[i*4] = value
		pixels[i*4+1] = value
		pixels[i*4+2] = value
		pixels[i*4+3] = 1
	}
	img, err := scene.NewFloatImage(w, h, pixels)
	require.NoError(t, err)
	return img
}

func setPixel(img *scene.Image, x, y uint32, value float32) {
	base := int(y*img.Width+x) * 16
	for c := 0; c < 3; c++ {
		binary.LittleEndian.PutUint32(img.Data[base+c*4:], math.Float32bits(value))
	}
}

func TestBuildNilImage(t *testing.T) {
	_, err := Build(nil, DefaultOptions())
	assert.Equal(t, ErrNoImage, err)
}

func TestBuildValidDistribution(t *testing.T) {
	img := flatPanorama(t, 64, 32, 0.5)
	setPixel(img, 10, 16, 50)

	d, err := Build(img, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 64, d.Width)
	assert.Equal(t, 32, d.Height)
	assert.NoError(t, d.Validate())

	// Every conditional row ends exactly at 1.0.
	for y := 0; y < d.Height; y++ {
		last := d.Conditional[(y+1)*d.Width-1]
		assert.Equal(t, float32(1), last.CDF, "row %d", y)
	}
	assert.Equal(t, float32(1), d.Marginal[d.Height-1].CDF)
}

func TestBuildTinyPanoramaBrightPixel(t *testing.T) {
	// A 2x2 panorama with one pixel at luminance 100 and the rest at 0.01.
	// The distribution keeps the 2x2 resolution, and nearly all probability
	// mass lands on the bright cell.
	img := flatPanorama(t, 2, 2, 0.01)
	setPixel(img, 0, 0, 100)

	d, err := Build(img, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 2, d.Width)
	require.Equal(t, 2, d.Height)
	require.NoError(t, d.Validate())

	joint := d.Conditional[0].PDF * d.Marginal[0].PDF
	assert.Greater(t, joint, float32(0.9), "bright cell joint probability")

	// Inverse lookups resolve to the bright cell for both buckets of row 0.
	assert.EqualValues(t, 0, d.CondInverse[0])
	assert.EqualValues(t, 0, d.CondInverse[1])
	assert.EqualValues(t, 0, d.MarginalInverse[0])
}

func TestBuildBlackPanorama(t *testing.T) {
	img := flatPanorama(t, 8, 4, 0)

	d, err := Build(img, DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, d.Validate())

	// With no luminance anywhere, rows and marginal fall back to uniform.
	for i := 0; i < d.Width; i++ {
		assert.InDelta(t, 1.0/float64(d.Width), float64(d.Conditional[i].PDF), 1e-6)
	}
	for y := 0; y < d.Height; y++ {
		assert.InDelta(t, 1.0/float64(d.Height), float64(d.Marginal[y].PDF), 1e-6)
	}
}

func TestBuildDownsamplePreservesHotspot(t *testing.T) {
	// A 128x64 panorama with a small sun; the CDF is built at a coarser
	// resolution and must still concentrate probability on the sun cells.
	img := flatPanorama(t, 128, 64, 0.01)
	for y := uint32(30); y < 34; y++ {
		for x := uint32(60); x < 64; x++ {
			setPixel(img, x, y, 200)
		}
	}

	opts := DefaultOptions()
	opts.MaxSize = 32
	d, err := Build(img, opts)
	require.NoError(t, err)
	require.Equal(t, 32, d.Width)
	require.Equal(t, 32, d.Height)
	require.NoError(t, d.Validate())

	coverage := d.HotspotCoverage(img, 0.001)
	assert.Greater(t, coverage, float32(0.95))
}

func TestInverseLookupConsistency(t *testing.T) {
	img := flatPanorama(t, 32, 16, 0.1)
	setPixel(img, 5, 8, 30)
	setPixel(img, 20, 3, 15)

	d, err := Build(img, DefaultOptions())
	require.NoError(t, err)

	// Each inverse entry must be the first cell whose CDF reaches the
	// bucket's quantile.
	for y := 0; y < d.Height; y++ {
		row := d.Conditional[y*d.Width : (y+1)*d.Width]
		inv := d.CondInverse[y*d.Width : (y+1)*d.Width]
		for bucket, idx := range inv {
			target := (float32(bucket) + 0.5) / float32(d.Width)
			require.GreaterOrEqual(t, row[idx].CDF, target, "row %d bucket %d", y, bucket)
			if idx > 0 {
				require.Less(t, row[idx-1].CDF, target, "row %d bucket %d", y, bucket)
			}
		}
	}
}

func TestCDFSizeClamping(t *testing.T) {
	opts := normalizeOptions(Options{})

	assert.Equal(t, 1024, cdfSize(2048, opts))
	assert.Equal(t, 1024, cdfSize(4096, opts))
	assert.Equal(t, 64, cdfSize(64, opts))
	assert.Equal(t, 4, cdfSize(7, opts))
	assert.Equal(t, 2, cdfSize(2, opts))
	assert.Equal(t, 1, cdfSize(1, opts))
}
