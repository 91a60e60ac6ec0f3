package engine

import "math"

// Mat4 is a homogeneous 3D transform stored column-major. Translation lives
// in m12, m13, m14.
type Mat4 [16]float64

// Vec3 is a plain xyz tuple used by the 3D helpers.
type Vec3 [3]float64

// Identity4 returns the identity matrix.
func Identity4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation4 returns a translation matrix.
func Translation4(tx, ty, tz float64) Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		tx, ty, tz, 1,
	}
}

// XRotation returns a rotation about the x axis (radians).
func XRotation(radians float64) Mat4 {
	c := math.Cos(radians)
	s := math.Sin(radians)
	return Mat4{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	}
}

// YRotation returns a rotation about the y axis (radians).
func YRotation(radians float64) Mat4 {
	c := math.Cos(radians)
	s := math.Sin(radians)
	return Mat4{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// ZRotation returns a rotation about the z axis (radians).
func ZRotation(radians float64) Mat4 {
	c := math.Cos(radians)
	s := math.Sin(radians)
	return Mat4{
		c, s, 0, 0,
		-s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Scaling4 returns a scale matrix.
func Scaling4(sx, sy, sz float64) Mat4 {
	return Mat4{
		sx, 0, 0, 0,
		0, sy, 0, 0,
		0, 0, sz, 0,
		0, 0, 0, 1,
	}
}

// Multiply4 returns a·b: b's transform is applied first, then a's.
func Multiply4(a, b Mat4) Mat4 {
	var dst Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += b[col*4+k] * a[k*4+row]
			}
			dst[col*4+row] = sum
		}
	}
	return dst
}

func (m Mat4) Translate(tx, ty, tz float64) Mat4 {
	return Multiply4(m, Translation4(tx, ty, tz))
}

func (m Mat4) XRotate(radians float64) Mat4 {
	return Multiply4(m, XRotation(radians))
}

func (m Mat4) YRotate(radians float64) Mat4 {
	return Multiply4(m, YRotation(radians))
}

func (m Mat4) ZRotate(radians float64) Mat4 {
	return Multiply4(m, ZRotation(radians))
}

func (m Mat4) Scale(sx, sy, sz float64) Mat4 {
	return Multiply4(m, Scaling4(sx, sy, sz))
}

// Perspective returns a right-handed perspective projection into GL clip
// space. fovY is in radians.
func Perspective(fovY, aspect, near, far float64) Mat4 {
	f := math.Tan(math.Pi*0.5 - 0.5*fovY)
	rangeInv := 1 / (near - far)
	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (near + far) * rangeInv, -1,
		0, 0, near * far * rangeInv * 2, 0,
	}
}

// Orthographic returns a parallel projection of the given box into clip
// space.
func Orthographic(left, right, bottom, top, near, far float64) Mat4 {
	return Mat4{
		2 / (right - left), 0, 0, 0,
		0, 2 / (top - bottom), 0, 0,
		0, 0, 2 / (near - far), 0,
		(left + right) / (left - right),
		(bottom + top) / (bottom - top),
		(near + far) / (near - far),
		1,
	}
}

// LookAt returns the camera-to-world matrix of a camera at eye facing
// target. Its inverse is the view matrix.
func LookAt(eye, target, up Vec3) Mat4 {
	z := Normalize(Subtract(eye, target))
	x := Normalize(Cross(up, z))
	y := Normalize(Cross(z, x))
	return Mat4{
		x[0], x[1], x[2], 0,
		y[0], y[1], y[2], 0,
		z[0], z[1], z[2], 0,
		eye[0], eye[1], eye[2], 1,
	}
}

// Inverse returns the inverse of m by cofactor expansion. A singular matrix
// yields non-finite entries.
func Inverse(m Mat4) Mat4 {
	n := func(col, row int) float64 { return m[col*4+row] }

	s0 := n(0, 0)*n(1, 1) - n(0, 1)*n(1, 0)
	s1 := n(0, 0)*n(1, 2) - n(0, 2)*n(1, 0)
	s2 := n(0, 0)*n(1, 3) - n(0, 3)*n(1, 0)
	s3 := n(0, 1)*n(1, 2) - n(0, 2)*n(1, 1)
	s4 := n(0, 1)*n(1, 3) - n(0, 3)*n(1, 1)
	s5 := n(0, 2)*n(1, 3) - n(0, 3)*n(1, 2)
	c0 := n(2, 0)*n(3, 1) - n(2, 1)*n(3, 0)
	c1 := n(2, 0)*n(3, 2) - n(2, 2)*n(3, 0)
	c2 := n(2, 0)*n(3, 3) - n(2, 3)*n(3, 0)
	c3 := n(2, 1)*n(3, 2) - n(2, 2)*n(3, 1)
	c4 := n(2, 1)*n(3, 3) - n(2, 3)*n(3, 1)
	c5 := n(2, 2)*n(3, 3) - n(2, 3)*n(3, 2)
	idet := 1 / (s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0)

	return Mat4{
		(c5*n(1, 1) - c4*n(1, 2) + c3*n(1, 3)) * idet,
		(-c5*n(0, 1) + c4*n(0, 2) - c3*n(0, 3)) * idet,
		(s5*n(3, 1) - s4*n(3, 2) + s3*n(3, 3)) * idet,
		(-s5*n(2, 1) + s4*n(2, 2) - s3*n(2, 3)) * idet,

		(-c5*n(1, 0) + c2*n(1, 2) - c1*n(1, 3)) * idet,
		(c5*n(0, 0) - c2*n(0, 2) + c1*n(0, 3)) * idet,
		(-s5*n(3, 0) + s2*n(3, 2) - s1*n(3, 3)) * idet,
		(s5*n(2, 0) - s2*n(2, 2) + s1*n(2, 3)) * idet,

		(c4*n(1, 0) - c2*n(1, 1) + c0*n(1, 3)) * idet,
		(-c4*n(0, 0) + c2*n(0, 1) - c0*n(0, 3)) * idet,
		(s4*n(3, 0) - s2*n(3, 1) + s0*n(3, 3)) * idet,
		(-s4*n(2, 0) + s2*n(2, 1) - s0*n(2, 3)) * idet,

		(-c3*n(1, 0) + c1*n(1, 1) - c0*n(1, 2)) * idet,
		(c3*n(0, 0) - c1*n(0, 1) + c0*n(0, 2)) * idet,
		(-s3*n(3, 0) + s1*n(3, 1) - s0*n(3, 2)) * idet,
		(s3*n(2, 0) - s1*n(2, 1) + s0*n(2, 2)) * idet,
	}
}

// Transpose swaps rows and columns.
func Transpose(m Mat4) Mat4 {
	var dst Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			dst[row*4+col] = m[col*4+row]
		}
	}
	return dst
}

// Apply transforms the point (x, y, z, 1) and returns the homogeneous result.
func (m Mat4) Apply(v Vec3) [4]float64 {
	var out [4]float64
	for row := 0; row < 4; row++ {
		out[row] = m[row]*v[0] + m[4+row]*v[1] + m[8+row]*v[2] + m[12+row]
	}
	return out
}

// Slice returns the matrix as a float64 slice for JSON serialization.
func (m Mat4) Slice() []float64 {
	out := make([]float64, len(m))
	copy(out, m[:])
	return out
}

// Normalize returns v scaled to unit length, or the zero vector when v is
// shorter than 1e-5.
func Normalize(v Vec3) Vec3 {
	length := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if length > 0.00001 {
		return Vec3{v[0] / length, v[1] / length, v[2] / length}
	}
	return Vec3{}
}

func Cross(a, b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func Subtract(a, b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func Dot(a, b Vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}
