package types

import "github.com/chewxy/math32"

// A 4x4 matrix stored in row-major order.
type Mat4 [16]float32

// A 3x3 matrix stored in row-major order.
type Mat3 [9]float32

// Create an identity matrix.
func Ident4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Create an identity matrix.
func Ident3() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Create a translation matrix.
func Translation(v Vec3) Mat4 {
	m := Ident4()
	m[3] = v[0]
	m[7] = v[1]
	m[11] = v[2]
	return m
}

// Create a non-uniform scale matrix.
func Scale(v Vec3) Mat4 {
	m := Ident4()
	m[0] = v[0]
	m[5] = v[1]
	m[10] = v[2]
	return m
}

// Create a rotation matrix around the Y axis; angle in radians.
func RotationY(angle float32) Mat4 {
	s, c := math32.Sincos(angle)
	m := Ident4()
	m[0] = c
	m[2] = s
	m[8] = -s
	m[10] = c
	return m
}

// Multiply two matrices (this * other).
func (m Mat4) Mul4(o Mat4) Mat4 {
	var out Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[row*4+k] * o[k*4+col]
			}
			out[row*4+col] = sum
		}
	}
	return out
}

// Transform a point; applies the translation column.
func (m Mat4) MulPoint(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11],
	}
}

// Transform a direction; ignores translation.
func (m Mat4) MulDir(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2],
	}
}

// Extract the top-left 3x3 matrix from a 4x4 matrix.
func (m Mat4) Mat3() Mat3 {
	return Mat3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

// Transform a vector.
func (m Mat3) MulVec3(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// Transpose the matrix.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Invert the matrix. Returns the identity matrix if the matrix is singular.
func (m Mat3) Inverse() Mat3 {
	c0 := m[4]*m[8] - m[5]*m[7]
	c1 := m[5]*m[6] - m[3]*m[8]
	c2 := m[3]*m[7] - m[4]*m[6]

	det := m[0]*c0 + m[1]*c1 + m[2]*c2
	if math32.Abs(det) < floatCmpEpsilon {
		return Ident3()
	}
	inv := 1.0 / det

	return Mat3{
		c0 * inv, (m[2]*m[7] - m[1]*m[8]) * inv, (m[1]*m[5] - m[2]*m[4]) * inv,
		c1 * inv, (m[0]*m[8] - m[2]*m[6]) * inv, (m[2]*m[3] - m[0]*m[5]) * inv,
		c2 * inv, (m[1]*m[6] - m[0]*m[7]) * inv, (m[0]*m[4] - m[1]*m[3]) * inv,
	}
}

// The inverse-transpose of the upper 3x3 block; used for transforming
// normals under non-uniform scaling.
func (m Mat4) NormalMat3() Mat3 {
	return m.Mat3().Inverse().Transpose()
}
