package packer

import "github.com/altair-render/altair/compiler"

// Each triangle occupies 8 pixels:
//
//	0..2: vertex positions (w = 0)
//	3..5: vertex normals (w = 0)
//	   6: uv0.xy, uv1.xy
//	   7: uv2.xy, material index, padding
const TrianglePixels = 8

// PackTriangles serializes the reordered triangle array into a pooled
// buffer with near-square dimensions. Cells past the last record stay
// zeroed. Zero triangles yields a nil buffer.
func PackTriangles(tris []compiler.Triangle, pool *Pool) *Buffer {
	if len(tris) == 0 {
		return nil
	}

	totalPixels := len(tris) * TrianglePixels
	width, height := dimsNearSquare(totalPixels)

	buf := pool.Get(TriangleData, Float32, width, height, 1)
	buf.Records = uint32(len(tris))

	for i := range tris {
		tri := &tris[i]
		dst := buf.Float[i*TrianglePixels*4:]

		for v := 0; v < 3; v++ {
			copy3(dst[v*4:], tri.V[v])
			copy3(dst[(3+v)*4:], tri.N[v])
		}

		dst[24] = tri.UV[0][0]
		dst[25] = tri.UV[0][1]
		dst[26] = tri.UV[1][0]
		dst[27] = tri.UV[1][1]
		dst[28] = tri.UV[2][0]
		dst[29] = tri.UV[2][1]
		dst[30] = float32(tri.MaterialIndex)
		dst[31] = 0
	}

	assertRecordsFit(buf, len(tris), TrianglePixels)
	return buf
}
