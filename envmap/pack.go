package envmap

import "github.com/altair-render/altair/packer"

// PackDistribution serializes the table into a pooled float buffer for the
// GPU sampling stage. Rows 0..Height-1 hold the conditional CDFs, the final
// row holds the marginal; channels are (cdf, pdf, inverse coordinate, 0).
// The marginal occupies the first Height cells of its row (Height never
// exceeds Width for equirectangular input).
func PackDistribution(d *Distribution, pool *packer.Pool) *packer.Buffer {
	if d == nil || d.Width == 0 || d.Height == 0 {
		return nil
	}

	width := d.Width
	if d.Height > width {
		width = d.Height
	}

	buf := pool.Get(packer.CDFData, packer.Float32, uint32(width), uint32(d.Height+1), 1)
	buf.Records = uint32(d.Width * d.Height)

	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			cell := d.Conditional[y*d.Width+x]
			dst := buf.Float[(y*width+x)*4:]
			dst[0] = cell.CDF
			dst[1] = cell.PDF
			dst[2] = float32(d.CondInverse[y*d.Width+x])
			dst[3] = 0
		}
	}

	marginalRow := d.Height * width
	for y := 0; y < d.Height; y++ {
		cell := d.Marginal[y]
		dst := buf.Float[(marginalRow+y)*4:]
		dst[0] = cell.CDF
		dst[1] = cell.PDF
		dst[2] = float32(d.MarginalInverse[y])
		dst[3] = 0
	}

	return buf
}
