package engine

import (
	"math"
	"testing"
)

func mat3Near(a, b Mat3, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestMat3Identity(t *testing.T) {
	m := Mat3{2, 0, 1, 1, 3, 2, 4, 2, 3}

	if x := Multiply3(Identity3(), m); x != m {
		t.Fatalf("Multiply3(I, m)\nhave %v\nwant %v", x, m)
	}
	if x := Multiply3(m, Identity3()); x != m {
		t.Fatalf("Multiply3(m, I)\nhave %v\nwant %v", x, m)
	}
	if id := (Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}); Identity3() != id {
		t.Fatalf("Identity3\nhave %v\nwant %v", Identity3(), id)
	}
}

func TestProjection3(t *testing.T) {
	want := Mat3{2.0 / 800, 0, 0, 0, -2.0 / 600, 0, -1, 1, 1}
	if p := Projection3(800, 600); p != want {
		t.Fatalf("Projection3(800, 600)\nhave %v\nwant %v", p, want)
	}

	p := Projection3(800, 600)
	if x, y := p.Apply(0, 0); x != -1 || y != 1 {
		t.Fatalf("Projection3.Apply(0, 0)\nhave (%v, %v)\nwant (-1, 1)", x, y)
	}
	if x, y := p.Apply(800, 600); x != 1 || y != -1 {
		t.Fatalf("Projection3.Apply(800, 600)\nhave (%v, %v)\nwant (1, -1)", x, y)
	}
}

func TestMat3Translate(t *testing.T) {
	want := Translation3(10, 20)
	if m := Identity3().Translate(10, 20); m != want {
		t.Fatalf("Identity3().Translate\nhave %v\nwant %v", m, want)
	}
	if m := Multiply3(Identity3(), Translation3(10, 20)); m != want {
		t.Fatalf("Multiply3(I, Translation3)\nhave %v\nwant %v", m, want)
	}
	if x, y := want.Apply(1, 2); x != 11 || y != 22 {
		t.Fatalf("Translation3.Apply\nhave (%v, %v)\nwant (11, 22)", x, y)
	}
}

func TestMat3Compose(t *testing.T) {
	// Scale is applied first, then rotation, then translation.
	m := Identity3().Translate(100, 50).Rotate(math.Pi/2).Scale(2, 3)
	x, y := m.Apply(1, 0)
	if math.Abs(x-100) > 1e-9 || math.Abs(y-48) > 1e-9 {
		t.Fatalf("T·R·S applied to (1, 0)\nhave (%v, %v)\nwant (100, 48)", x, y)
	}
	x, y = m.Apply(0, 1)
	if math.Abs(x-103) > 1e-9 || math.Abs(y-50) > 1e-9 {
		t.Fatalf("T·R·S applied to (0, 1)\nhave (%v, %v)\nwant (103, 50)", x, y)
	}

	a := Rotation3(0.3)
	b := Scaling3(2, 5)
	ab := Multiply3(a, b)
	px, py := b.Apply(1, 1)
	px, py = a.Apply(px, py)
	qx, qy := ab.Apply(1, 1)
	if math.Abs(px-qx) > 1e-12 || math.Abs(py-qy) > 1e-12 {
		t.Fatalf("Multiply3(a, b) applies b first\nhave (%v, %v)\nwant (%v, %v)", qx, qy, px, py)
	}
}

func TestMat3Rotation(t *testing.T) {
	full := Identity3()
	for i := 0; i < 4; i++ {
		full = full.Rotate(math.Pi / 2)
	}
	if !mat3Near(full, Identity3(), 1e-12) {
		t.Fatalf("four quarter turns\nhave %v\nwant identity", full)
	}
}
