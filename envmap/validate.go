package envmap

import (
	"fmt"
	"sort"

	"github.com/altair-render/altair/scene"
)

const cdfTolerance float32 = 1e-3

// Validate re-checks the distribution invariants: monotonic CDFs ending at
// 1.0, non-negative densities in range, and unit probability mass. Intended
// for tests; Build always produces a passing table.
func (d *Distribution) Validate() error {
	for y := 0; y < d.Height; y++ {
		if err := validateCDF(d.Conditional[y*d.Width : (y+1)*d.Width]); err != nil {
			return fmt.Errorf("envmap: conditional row %d: %v", y, err)
		}
	}
	if err := validateCDF(d.Marginal); err != nil {
		return fmt.Errorf("envmap: marginal: %v", err)
	}
	return nil
}

func validateCDF(cells []Cell) error {
	var prev float32
	var mass float32
	for i, cell := range cells {
		if cell.PDF < 0 {
			return fmt.Errorf("negative density %g at cell %d", cell.PDF, i)
		}
		if cell.CDF < prev {
			return fmt.Errorf("cdf decreases at cell %d (%g -> %g)", i, prev, cell.CDF)
		}
		if cell.CDF < 0 || cell.CDF > 1+cdfTolerance {
			return fmt.Errorf("cdf value %g out of range at cell %d", cell.CDF, i)
		}
		prev = cell.CDF
		mass += cell.PDF
	}
	last := cells[len(cells)-1].CDF
	if last < 1-cdfTolerance || last > 1+cdfTolerance {
		return fmt.Errorf("cdf ends at %g, want 1.0", last)
	}
	if mass < 1-cdfTolerance || mass > 1+cdfTolerance {
		return fmt.Errorf("probability mass %g, want 1.0", mass)
	}
	return nil
}

// HotspotCoverage measures how well the distribution preserves the source
// panorama's brightest pixels: the fraction of top-percentile-luminance
// source pixels whose CDF cell has above-average sampling density.
func (d *Distribution) HotspotCoverage(img *scene.Image, percentile float32) float32 {
	srcW := int(img.Width)
	srcH := int(img.Height)

	lums := make([]float32, 0, srcW*srcH)
	for y := 0; y < srcH; y++ {
		for x := 0; x < srcW; x++ {
			r, g, b, _ := img.FloatAt(x, y)
			lums = append(lums, 0.2126*r+0.7152*g+0.0722*b)
		}
	}

	sorted := make([]float32, len(lums))
	copy(sorted, lums)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	cut := int(float32(len(sorted)) * (1 - percentile))
	if cut >= len(sorted) {
		cut = len(sorted) - 1
	}
	threshold := sorted[cut]

	total := 0
	covered := 0
	for y := 0; y < srcH; y++ {
		for x := 0; x < srcW; x++ {
			if lums[y*srcW+x] < threshold {
				continue
			}
			total++

			cx := x * d.Width / srcW
			cy := y * d.Height / srcH
			cond := d.Conditional[cy*d.Width+cx].PDF * float32(d.Width)
			marg := d.Marginal[cy].PDF * float32(d.Height)
			// Relative density; 1.0 is a uniform distribution.
			if cond*marg > 1.0 {
				covered++
			}
		}
	}
	if total == 0 {
		return 1.0
	}
	return float32(covered) / float32(total)
}
