package engine

import "math"

// Mat3 is a homogeneous 2D transform stored column-major, the layout WebGL
// uniforms expect:
//
//	| m0 m3 m6 |
//	| m1 m4 m7 |
//	| m2 m5 m8 |
//
// Translation lives in m6, m7.
type Mat3 [9]float64

// Identity3 returns the identity matrix.
func Identity3() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Translation3 returns a translation matrix.
func Translation3(tx, ty float64) Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		tx, ty, 1,
	}
}

// Rotation3 returns a rotation matrix (angle in radians).
func Rotation3(radians float64) Mat3 {
	c := math.Cos(radians)
	s := math.Sin(radians)
	return Mat3{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}
}

// Scaling3 returns a scale matrix.
func Scaling3(sx, sy float64) Mat3 {
	return Mat3{
		sx, 0, 0,
		0, sy, 0,
		0, 0, 1,
	}
}

// Projection3 maps pixel coordinates of a width x height canvas to clip
// space. Y is flipped so that canvas row 0 lands on clip-space +1.
func Projection3(width, height float64) Mat3 {
	return Mat3{
		2 / width, 0, 0,
		0, -2 / height, 0,
		-1, 1, 1,
	}
}

// Multiply3 returns a·b: b's transform is applied first, then a's.
func Multiply3(a, b Mat3) Mat3 {
	var dst Mat3
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += b[col*3+k] * a[k*3+row]
			}
			dst[col*3+row] = sum
		}
	}
	return dst
}

// Translate post-multiplies a translation onto m.
func (m Mat3) Translate(tx, ty float64) Mat3 {
	return Multiply3(m, Translation3(tx, ty))
}

// Rotate post-multiplies a rotation (radians) onto m.
func (m Mat3) Rotate(radians float64) Mat3 {
	return Multiply3(m, Rotation3(radians))
}

// Scale post-multiplies a scale onto m.
func (m Mat3) Scale(sx, sy float64) Mat3 {
	return Multiply3(m, Scaling3(sx, sy))
}

// Apply transforms the point (x, y, 1) and returns the x, y of the result.
func (m Mat3) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[3]*y + m[6], m[1]*x + m[4]*y + m[7]
}

// Slice returns the matrix as a float64 slice for JSON serialization.
func (m Mat3) Slice() []float64 {
	out := make([]float64, len(m))
	copy(out, m[:])
	return out
}
