package engine

import (
	"fmt"
	"math"

	"github.com/inamate/shapelab/internal/document"
)

// DefaultCirclePrecision is the number of fan triangles in a circle.
const DefaultCirclePrecision = 30

const (
	starPoints    = 5
	starIncrement = 72 * math.Pi / 180
)

// Geometry is a triangle list in object space. Positions and Normals hold
// xyz triples, one per vertex.
type Geometry struct {
	Positions []float64
	Normals   []float64
}

func (g Geometry) VertexCount() int {
	return len(g.Positions) / 3
}

func (g Geometry) TriangleCount() int {
	return g.VertexCount() / 3
}

type GeometryOptions struct {
	CirclePrecision int
}

// GenerateGeometry returns the local-space triangles for a shape. Flat kinds
// lie in z=0 and face +z.
func GenerateGeometry(shape document.Shape, opts GeometryOptions) (Geometry, error) {
	c := shape.Center
	d := shape.Dimensions

	var positions []float64
	switch shape.Kind {
	case document.KindRectangle:
		positions = rectangle(c, d)
	case document.KindTriangle:
		positions = triangle(c, d)
	case document.KindCircle:
		precision := opts.CirclePrecision
		if precision <= 0 {
			precision = DefaultCirclePrecision
		}
		positions = circle(c, d, precision)
	case document.KindStar:
		positions = star(c, d)
	case document.KindCube:
		return Geometry{
			Positions: append([]float64(nil), cubePositions[:]...),
			Normals:   append([]float64(nil), cubeNormals[:]...),
		}, nil
	case document.KindLetterF:
		positions = append([]float64(nil), letterFPositions[:]...)
		return Geometry{Positions: positions, Normals: faceNormals(positions)}, nil
	default:
		return Geometry{}, fmt.Errorf("%w: %v", document.ErrUnrecognizedShapeKind, shape.Kind)
	}

	return Geometry{Positions: positions, Normals: flatNormals(len(positions) / 3)}, nil
}

func rectangle(c document.Vec3, d document.Dimensions) []float64 {
	x1 := c.X - d.Width/2
	y1 := c.Y - d.Height/2
	x2 := c.X + d.Width/2
	y2 := c.Y + d.Height/2
	return []float64{
		x1, y1, 0,
		x2, y1, 0,
		x1, y2, 0,
		x1, y2, 0,
		x2, y1, 0,
		x2, y2, 0,
	}
}

// triangle is isosceles with the apex up in screen space (smaller y).
func triangle(c document.Vec3, d document.Dimensions) []float64 {
	return []float64{
		c.X - d.Width/2, c.Y + d.Height/2, 0,
		c.X, c.Y - d.Height/2, 0,
		c.X + d.Width/2, c.Y + d.Height/2, 0,
	}
}

func circle(c document.Vec3, d document.Dimensions, precision int) []float64 {
	points := make([]float64, 0, precision*9)
	for i := 0; i < precision; i++ {
		a1 := float64(i) / float64(precision) * 2 * math.Pi
		a2 := float64(i+1) / float64(precision) * 2 * math.Pi
		points = append(points,
			c.X, c.Y, 0,
			c.X+math.Cos(a1)*d.Width/2, c.Y+math.Sin(a1)*d.Height/2, 0,
			c.X+math.Cos(a2)*d.Width/2, c.Y+math.Sin(a2)*d.Height/2, 0,
		)
	}
	return points
}

// star emits, per spike, the inner wedge from the center and the outer
// spike triangle. Spikes start pointing at -90 degrees.
func star(c document.Vec3, d document.Dimensions) []float64 {
	points := make([]float64, 0, starPoints*18)
	for i := 0; i < starPoints; i++ {
		angle := -math.Pi/2 + float64(i)*starIncrement
		a1 := angle - starIncrement/2
		a2 := angle + starIncrement/2

		x2 := c.X + math.Cos(a1)*d.Width/3
		y2 := c.Y + math.Sin(a1)*d.Height/3
		x3 := c.X + math.Cos(a2)*d.Width/3
		y3 := c.Y + math.Sin(a2)*d.Height/3
		x4 := c.X + math.Cos(angle)*d.Width*2/3
		y4 := c.Y + math.Sin(angle)*d.Height*2/3

		points = append(points,
			c.X, c.Y, 0,
			x2, y2, 0,
			x3, y3, 0,
			x2, y2, 0,
			x4, y4, 0,
			x3, y3, 0,
		)
	}
	return points
}

func flatNormals(vertices int) []float64 {
	normals := make([]float64, 0, vertices*3)
	for i := 0; i < vertices; i++ {
		normals = append(normals, 0, 0, 1)
	}
	return normals
}

// faceNormals gives every vertex of a triangle the normal implied by its
// winding.
func faceNormals(positions []float64) []float64 {
	normals := make([]float64, 0, len(positions))
	for i := 0; i+9 <= len(positions); i += 9 {
		v0 := Vec3{positions[i], positions[i+1], positions[i+2]}
		v1 := Vec3{positions[i+3], positions[i+4], positions[i+5]}
		v2 := Vec3{positions[i+6], positions[i+7], positions[i+8]}
		n := Normalize(Cross(Subtract(v1, v0), Subtract(v2, v0)))
		for k := 0; k < 3; k++ {
			normals = append(normals, n[0], n[1], n[2])
		}
	}
	return normals
}

// cubePositions is a 30-unit cube with its corner at the origin, six faces
// of two triangles each.
var cubePositions = [108]float64{
	0, 0, 0, 0, 30, 0, 30, 0, 0,
	0, 30, 0, 30, 30, 0, 30, 0, 0,
	0, 0, 30, 30, 0, 30, 0, 30, 30,
	0, 30, 30, 30, 0, 30, 30, 30, 30,
	0, 30, 0, 0, 30, 30, 30, 30, 30,
	0, 30, 0, 30, 30, 30, 30, 30, 0,
	0, 0, 0, 30, 0, 0, 30, 0, 30,
	0, 0, 0, 30, 0, 30, 0, 0, 30,
	0, 0, 0, 0, 0, 30, 0, 30, 30,
	0, 0, 0, 0, 30, 30, 0, 30, 0,
	30, 0, 30, 30, 0, 0, 30, 30, 30,
	30, 30, 30, 30, 0, 0, 30, 30, 0,
}

var cubeNormals = [108]float64{
	0, 0, 1, 0, 0, 1, 0, 0, 1,
	0, 0, 1, 0, 0, 1, 0, 0, 1,
	0, 0, -1, 0, 0, -1, 0, 0, -1,
	0, 0, -1, 0, 0, -1, 0, 0, -1,
	0, -1, 0, 0, -1, 0, 0, -1, 0,
	0, -1, 0, 0, -1, 0, 0, -1, 0,
	0, 1, 0, 0, 1, 0, 0, 1, 0,
	0, 1, 0, 0, 1, 0, 0, 1, 0,
	-1, 0, 0, -1, 0, 0, -1, 0, 0,
	-1, 0, 0, -1, 0, 0, -1, 0, 0,
	1, 0, 0, 1, 0, 0, 1, 0, 0,
	1, 0, 0, 1, 0, 0, 1, 0, 0,
}

// letterFPositions is the extruded "F": 150 units tall, 100 wide, 30 deep.
var letterFPositions = [288]float64{
	// left column front
	0, 0, 0, 0, 150, 0, 30, 0, 0,
	0, 150, 0, 30, 150, 0, 30, 0, 0,
	// top rung front
	30, 0, 0, 30, 30, 0, 100, 0, 0,
	30, 30, 0, 100, 30, 0, 100, 0, 0,
	// middle rung front
	30, 60, 0, 30, 90, 0, 67, 60, 0,
	30, 90, 0, 67, 90, 0, 67, 60, 0,
	// left column back
	0, 0, 30, 30, 0, 30, 0, 150, 30,
	0, 150, 30, 30, 0, 30, 30, 150, 30,
	// top rung back
	30, 0, 30, 100, 0, 30, 30, 30, 30,
	30, 30, 30, 100, 0, 30, 100, 30, 30,
	// middle rung back
	30, 60, 30, 67, 60, 30, 30, 90, 30,
	30, 90, 30, 67, 60, 30, 67, 90, 30,
	// top
	0, 0, 0, 100, 0, 0, 100, 0, 30,
	0, 0, 0, 100, 0, 30, 0, 0, 30,
	// top rung right
	100, 0, 0, 100, 30, 0, 100, 30, 30,
	100, 0, 0, 100, 30, 30, 100, 0, 30,
	// under top rung
	30, 30, 0, 30, 30, 30, 100, 30, 30,
	30, 30, 0, 100, 30, 30, 100, 30, 0,
	// between top rung and middle
	30, 30, 0, 30, 60, 30, 30, 30, 30,
	30, 30, 0, 30, 60, 0, 30, 60, 30,
	// top of middle rung
	30, 60, 0, 67, 60, 30, 30, 60, 30,
	30, 60, 0, 67, 60, 0, 67, 60, 30,
	// right of middle rung
	67, 60, 0, 67, 90, 30, 67, 60, 30,
	67, 60, 0, 67, 90, 0, 67, 90, 30,
	// bottom of middle rung
	30, 90, 0, 30, 90, 30, 67, 90, 30,
	30, 90, 0, 67, 90, 30, 67, 90, 0,
	// right of bottom
	30, 90, 0, 30, 150, 30, 30, 90, 30,
	30, 90, 0, 30, 150, 0, 30, 150, 30,
	// bottom
	0, 150, 0, 0, 150, 30, 30, 150, 30,
	0, 150, 0, 30, 150, 30, 30, 150, 0,
	// left side
	0, 0, 0, 0, 0, 30, 0, 150, 30,
	0, 0, 0, 0, 150, 30, 0, 150, 0,
}
