// Package envmap converts an HDR panorama into a luminance-weighted 2D
// probability table for importance-sampling environment light. The table is
// bias-free: every texel retains non-zero probability, and hotspots survive
// downsampling to the CDF resolution.
package envmap

import (
	"errors"
	"sort"
	"time"

	"github.com/chewxy/math32"

	"github.com/altair-render/altair/log"
	"github.com/altair-render/altair/scene"
)

var ErrNoImage = errors.New("envmap: nil or empty panorama")

// Build parameters. The blend knobs trade sampling bias between small
// bright sources and large dim regions; they are tunables, not contract.
type Options struct {
	// Bounds on the CDF resolution (powers of two).
	MinSize int
	MaxSize int

	// Fraction of rows at each pole whose weight is damped, and the damp
	// factor applied to them. Equirectangular mapping makes pole texels
	// cover nearly zero solid angle; without damping a single bright pole
	// pixel degenerates the distribution.
	PoleFraction float32
	PoleDamp     float32

	// A downsampled cell counts a source pixel as "hot" when its luminance
	// exceeds HotLuminanceFactor times the image mean. The cell value blends
	// from the average toward the maximum by HotBlend times the hot
	// fraction, preserving small bright sources that pure averaging erases.
	HotLuminanceFactor float32
	HotBlend           float32

	// Minimum cell value enforced per row so no row's probability mass is
	// zero.
	RowFloor float32
}

func DefaultOptions() Options {
	return Options{
		MinSize:            64,
		MaxSize:            1024,
		PoleFraction:       0.02,
		PoleDamp:           0.25,
		HotLuminanceFactor: 5.0,
		HotBlend:           1.0,
		RowFloor:           1e-6,
	}
}

// One CDF cell: the cumulative value at this cell and the cell's normalized
// probability.
type Cell struct {
	CDF float32
	PDF float32
}

// A piecewise-constant 2D distribution: one conditional CDF row per image
// row plus one marginal CDF over row sums, with inverted lookup tables so a
// GPU sample is a single fetch.
type Distribution struct {
	Width  int
	Height int

	// Conditional CDFs, Height rows of Width cells.
	Conditional []Cell

	// Marginal CDF over row sums, Height cells.
	Marginal []Cell

	// For each (row, bucket), the source column whose conditional CDF first
	// reaches the bucket's quantile. Height*Width entries.
	CondInverse []int32

	// For each bucket, the source row whose marginal CDF first reaches the
	// bucket's quantile. Height entries.
	MarginalInverse []int32
}

// Build computes the importance-sampling table for a decoded panorama.
func Build(img *scene.Image, opts Options) (*Distribution, error) {
	if !img.Valid() {
		return nil, ErrNoImage
	}
	opts = normalizeOptions(opts)

	logger := log.New("envmap")
	start := time.Now()

	srcW := int(img.Width)
	srcH := int(img.Height)
	grid := luminanceGrid(img, opts)

	cdfW := cdfSize(srcW, opts)
	cdfH := cdfSize(srcH, opts)
	cells := downsample(grid, srcW, srcH, cdfW, cdfH, opts)

	d := &Distribution{
		Width:           cdfW,
		Height:          cdfH,
		Conditional:     make([]Cell, cdfW*cdfH),
		Marginal:        make([]Cell, cdfH),
		CondInverse:     make([]int32, cdfW*cdfH),
		MarginalInverse: make([]int32, cdfH),
	}

	rowSums := make([]float32, cdfH)
	for y := 0; y < cdfH; y++ {
		rowSums[y] = buildCDFRow(cells[y*cdfW:(y+1)*cdfW], d.Conditional[y*cdfW:(y+1)*cdfW], opts.RowFloor)
	}
	buildMarginal(rowSums, d.Marginal, opts.RowFloor)

	for y := 0; y < cdfH; y++ {
		invertRow(d.Conditional[y*cdfW:(y+1)*cdfW], d.CondInverse[y*cdfW:(y+1)*cdfW])
	}
	invertMarginal(d.Marginal, d.MarginalInverse)

	logger.Noticef("built %dx%d distribution from %dx%d panorama in %d ms",
		cdfW, cdfH, srcW, srcH, time.Since(start).Nanoseconds()/1e6)
	return d, nil
}

func normalizeOptions(opts Options) Options {
	def := DefaultOptions()
	if opts.MinSize <= 0 {
		opts.MinSize = def.MinSize
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = def.MaxSize
	}
	if opts.HotLuminanceFactor <= 0 {
		opts.HotLuminanceFactor = def.HotLuminanceFactor
	}
	if opts.RowFloor <= 0 {
		opts.RowFloor = def.RowFloor
	}
	if opts.PoleDamp <= 0 {
		opts.PoleDamp = def.PoleDamp
	}
	return opts
}

// The CDF resolution for one source dimension: the largest power of two not
// exceeding the source, clamped to [1, MaxSize]. MinSize never upsamples a
// small input; it only documents the practical lower bound for real
// panoramas.
func cdfSize(srcDim int, opts Options) int {
	size := 1
	for size*2 <= srcDim {
		size *= 2
	}
	if size > opts.MaxSize {
		size = opts.MaxSize
	}
	return size
}

// Per-pixel luminance weighted by sin(theta) with pole dampening.
func luminanceGrid(img *scene.Image, opts Options) []float32 {
	w := int(img.Width)
	h := int(img.Height)
	grid := make([]float32, w*h)

	for y := 0; y < h; y++ {
		v := (float32(y) + 0.5) / float32(h)
		weight := math32.Sin(v * math32.Pi)
		if v < opts.PoleFraction || v > 1-opts.PoleFraction {
			weight *= opts.PoleDamp
		}
		for x := 0; x < w; x++ {
			r, g, b, _ := img.FloatAt(x, y)
			lum := 0.2126*r + 0.7152*g + 0.0722*b
			if lum < 0 {
				lum = 0
			}
			grid[y*w+x] = lum * weight
		}
	}
	return grid
}

// Downsample the luminance grid to the CDF resolution. Each cell blends its
// sub-pixel average toward the sub-pixel maximum in proportion to how many
// sub-pixels are hot: pure averaging erases small light sources, pure max
// over-biases flat regions.
func downsample(grid []float32, srcW, srcH, cdfW, cdfH int, opts Options) []float32 {
	var mean float32
	for _, v := range grid {
		mean += v
	}
	mean /= float32(len(grid))
	hotThreshold := mean * opts.HotLuminanceFactor

	cells := make([]float32, cdfW*cdfH)
	for cy := 0; cy < cdfH; cy++ {
		y0 := cy * srcH / cdfH
		y1 := (cy + 1) * srcH / cdfH
		if y1 <= y0 {
			y1 = y0 + 1
		}
		for cx := 0; cx < cdfW; cx++ {
			x0 := cx * srcW / cdfW
			x1 := (cx + 1) * srcW / cdfW
			if x1 <= x0 {
				x1 = x0 + 1
			}

			var sum, maxVal float32
			hot := 0
			n := 0
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					v := grid[y*srcW+x]
					sum += v
					if v > maxVal {
						maxVal = v
					}
					if v > hotThreshold {
						hot++
					}
					n++
				}
			}

			avg := sum / float32(n)
			hotFrac := float32(hot) / float32(n)
			cells[cy*cdfW+cx] = avg + (maxVal-avg)*opts.HotBlend*hotFrac
		}
	}
	return cells
}

// Build one normalized CDF row from cell values; returns the row's
// pre-normalization sum (for the marginal). Rows with no mass are floored
// to a uniform minimum so inversion never divides by zero.
func buildCDFRow(values []float32, out []Cell, floor float32) float32 {
	var sum float32
	for _, v := range values {
		sum += v
	}
	if sum <= 0 {
		for i := range out {
			out[i].PDF = 1.0 / float32(len(out))
			out[i].CDF = float32(i+1) / float32(len(out))
		}
		return floor * float32(len(values))
	}

	inv := 1.0 / sum
	var acc float32
	for i, v := range values {
		pdf := v * inv
		acc += pdf
		out[i] = Cell{CDF: acc, PDF: pdf}
	}
	out[len(out)-1].CDF = 1.0
	return sum
}

func buildMarginal(rowSums []float32, out []Cell, floor float32) {
	var total float32
	for i, v := range rowSums {
		if v < floor {
			rowSums[i] = floor
			v = floor
		}
		total += v
	}

	inv := 1.0 / total
	var acc float32
	for i, v := range rowSums {
		pdf := v * inv
		acc += pdf
		out[i] = Cell{CDF: acc, PDF: pdf}
	}
	out[len(out)-1].CDF = 1.0
}

// For each output bucket, binary-search the first cell whose CDF reaches
// the bucket's target quantile. The GPU then samples with one fetch instead
// of a log(n) search.
func invertRow(row []Cell, out []int32) {
	n := len(row)
	for bucket := 0; bucket < n; bucket++ {
		target := (float32(bucket) + 0.5) / float32(n)
		idx := sort.Search(n, func(i int) bool { return row[i].CDF >= target })
		if idx >= n {
			idx = n - 1
		}
		out[bucket] = int32(idx)
	}
}

func invertMarginal(marginal []Cell, out []int32) {
	invertRow(marginal, out)
}
