package types

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestMat4MulPoint(t *testing.T) {
	m := Translation(XYZ(1, 2, 3)).Mul4(Scale(XYZ(2, 2, 2)))
	out := m.MulPoint(XYZ(1, 1, 1))
	if out != XYZ(3, 4, 5) {
		t.Fatalf("expected (3 4 5); got %v", out)
	}

	// Directions ignore translation.
	dir := m.MulDir(XYZ(1, 0, 0))
	if dir != XYZ(2, 0, 0) {
		t.Fatalf("expected (2 0 0); got %v", dir)
	}
}

func TestRotationY(t *testing.T) {
	m := RotationY(math32.Pi / 2)
	out := m.MulDir(XYZ(1, 0, 0))
	if math32.Abs(out[0]) > floatCmpEpsilon || math32.Abs(out[2]+1) > floatCmpEpsilon {
		t.Fatalf("expected rotation of +X onto -Z; got %v", out)
	}
}

func TestMat3Inverse(t *testing.T) {
	m := Mat3{
		2, 0, 0,
		0, 4, 0,
		1, 0, 1,
	}
	got := m.Inverse().MulVec3(m.MulVec3(XYZ(1, 2, 3)))
	want := XYZ(1, 2, 3)
	for i := range got {
		if math32.Abs(got[i]-want[i]) > floatCmpEpsilon {
			t.Fatalf("inverse round trip failed: %v", got)
		}
	}

	var singular Mat3
	if singular.Inverse() != Ident3() {
		t.Fatal("expected identity fallback for a singular matrix")
	}
}

func TestNormalMat3UniformScale(t *testing.T) {
	// Under uniform scale the normal matrix preserves direction.
	m := Scale(XYZ(3, 3, 3))
	n := m.NormalMat3().MulVec3(XYZ(0, 1, 0)).Normalize()
	if math32.Abs(n[1]-1) > floatCmpEpsilon {
		t.Fatalf("expected unit +Y normal; got %v", n)
	}
}
