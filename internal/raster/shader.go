package raster

import (
	"math"

	"github.com/fogleman/fauxgl"
)

// flatShader paints every fragment with one color.
type flatShader struct {
	matrix fauxgl.Matrix
	color  fauxgl.Color
}

func (s *flatShader) Vertex(v fauxgl.Vertex) fauxgl.Vertex {
	v.Output = s.matrix.MulPositionW(v.Position)
	return v
}

func (s *flatShader) Fragment(fauxgl.Vertex) fauxgl.Color {
	return s.color
}

// litShader scales the color by the cosine between the transformed normal
// and the light direction. Alpha is left alone.
type litShader struct {
	matrix fauxgl.Matrix
	normal fauxgl.Matrix
	light  fauxgl.Vector
	color  fauxgl.Color
}

func (s *litShader) Vertex(v fauxgl.Vertex) fauxgl.Vertex {
	v.Output = s.matrix.MulPositionW(v.Position)
	v.Normal = s.normal.MulDirection(v.Normal)
	return v
}

func (s *litShader) Fragment(v fauxgl.Vertex) fauxgl.Color {
	light := v.Normal.Normalize().Dot(s.light)
	return fauxgl.Color{
		R: clamp01(s.color.R * light),
		G: clamp01(s.color.G * light),
		B: clamp01(s.color.B * light),
		A: s.color.A,
	}
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
