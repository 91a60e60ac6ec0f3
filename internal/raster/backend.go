// Package raster is a software implementation of the engine backend. It
// rasterizes draw commands into an image so frames can be exported or shown
// without a GPU.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/fogleman/fauxgl"
	"golang.org/x/image/draw"

	"github.com/inamate/shapelab/internal/document"
	"github.com/inamate/shapelab/internal/engine"
)

var (
	ErrUnknownProgram    = errors.New("unknown shader program")
	ErrNoViewport        = errors.New("viewport not set")
	ErrShortVertexBuffer = errors.New("vertex buffer shorter than triangle count")
	ErrBadMatrix         = errors.New("transform matrix has wrong size")
)

type Options struct {
	// Supersample renders at this multiple of the viewport and filters down.
	Supersample int
	Background  color.Color
}

func DefaultOptions() Options {
	return Options{Supersample: 1, Background: color.Transparent}
}

// Backend draws with fauxgl. It keeps GL-like state between calls: the last
// submitted vertices and uniforms are used by the next Draw.
type Backend struct {
	mu   sync.Mutex
	opts Options
	ctx  *fauxgl.Context

	width, height int
	is3D          bool
	compiled      bool

	positions    []float64
	normals      []float64
	transform    []float64
	normalMatrix []float64
	light        fauxgl.Vector
	color        fauxgl.Color
}

var _ engine.Backend = (*Backend)(nil)

func NewBackend(opts Options) *Backend {
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}
	if opts.Background == nil {
		opts.Background = color.Transparent
	}
	return &Backend{opts: opts}
}

func (b *Backend) CompileProgram(vertexShader, fragmentShader string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case vertexShader == engine.VertexShader2D && fragmentShader == engine.FragmentShader2D:
		b.is3D = false
	case vertexShader == engine.VertexShader3D && fragmentShader == engine.FragmentShader3D:
		b.is3D = true
	default:
		return fmt.Errorf("%w: %s/%s", ErrUnknownProgram, vertexShader, fragmentShader)
	}
	b.compiled = true
	return nil
}

func (b *Backend) SetViewport(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if width < 1 || height < 1 {
		return
	}
	b.width, b.height = width, height
	ss := b.opts.Supersample
	if b.ctx == nil || b.ctx.Width != width*ss || b.ctx.Height != height*ss {
		b.ctx = fauxgl.NewContext(width*ss, height*ss)
	}
	b.ctx.Cull = fauxgl.CullNone
}

func (b *Backend) Clear(depth bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		return
	}
	b.ctx.ClearColorBufferWith(fauxgl.MakeColor(b.opts.Background))
	if depth {
		b.ctx.ClearDepthBuffer()
	}
}

func (b *Backend) SubmitVertices(positions []float64) {
	b.mu.Lock()
	b.positions = positions
	b.mu.Unlock()
}

func (b *Backend) SubmitNormals(normals []float64) {
	b.mu.Lock()
	b.normals = normals
	b.mu.Unlock()
}

func (b *Backend) SetTransformUniform(matrix []float64) {
	b.mu.Lock()
	b.transform = matrix
	b.mu.Unlock()
}

func (b *Backend) SetNormalMatrixUniform(matrix []float64) {
	b.mu.Lock()
	b.normalMatrix = matrix
	b.mu.Unlock()
}

func (b *Backend) SetLightDirectionUniform(direction [3]float64) {
	b.mu.Lock()
	b.light = fauxgl.Vector{X: direction[0], Y: direction[1], Z: direction[2]}
	b.mu.Unlock()
}

func (b *Backend) SetColorUniform(red, green, blue, alpha float64) {
	b.mu.Lock()
	b.color = fauxgl.Color{R: red, G: green, B: blue, A: alpha}
	b.mu.Unlock()
}

// Draw rasterizes triangleCount triangles from the submitted vertices.
func (b *Backend) Draw(triangleCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.compiled {
		return ErrUnknownProgram
	}
	if b.ctx == nil {
		return ErrNoViewport
	}
	if len(b.positions) < triangleCount*9 {
		return fmt.Errorf("%w: %d values for %d triangles", ErrShortVertexBuffer, len(b.positions), triangleCount)
	}

	var shader fauxgl.Shader
	if b.is3D {
		if len(b.transform) != 16 {
			return fmt.Errorf("%w: %d entries, want 16", ErrBadMatrix, len(b.transform))
		}
		m := mat4(b.transform)
		if len(b.normalMatrix) == 16 && len(b.normals) >= triangleCount*9 {
			shader = &litShader{matrix: m, normal: mat4(b.normalMatrix), light: b.light, color: b.color}
		} else {
			shader = &flatShader{matrix: m, color: b.color}
		}
	} else {
		if len(b.transform) != 9 {
			return fmt.Errorf("%w: %d entries, want 9", ErrBadMatrix, len(b.transform))
		}
		shader = &flatShader{matrix: mat3(b.transform), color: b.color}
	}

	b.ctx.Shader = shader
	b.ctx.ReadDepth = b.is3D
	b.ctx.WriteDepth = b.is3D
	b.ctx.DrawTriangles(b.triangles(triangleCount))
	return nil
}

func (b *Backend) triangles(count int) []*fauxgl.Triangle {
	lit := len(b.normals) >= count*9
	vertex := func(i int) fauxgl.Vertex {
		v := fauxgl.Vertex{Position: vec(b.positions, i)}
		if lit {
			v.Normal = vec(b.normals, i)
		}
		return v
	}
	out := make([]*fauxgl.Triangle, count)
	for t := range out {
		out[t] = &fauxgl.Triangle{V1: vertex(t * 3), V2: vertex(t*3 + 1), V3: vertex(t*3 + 2)}
	}
	return out
}

// Size is the viewport size in output pixels.
func (b *Backend) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

// Image returns a copy of the color buffer at viewport resolution.
func (b *Backend) Image() *image.NRGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}

	src := b.ctx.Image()
	dst := image.NewNRGBA(image.Rect(0, 0, b.width, b.height))
	if b.opts.Supersample == 1 {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// RenderFrame replays a rendered frame onto a fresh backend and returns the
// image.
func RenderFrame(frame engine.Frame, opts Options) (*image.NRGBA, error) {
	b := NewBackend(opts)
	vs, fs := engine.VertexShader2D, engine.FragmentShader2D
	if frame.Is3D {
		vs, fs = engine.VertexShader3D, engine.FragmentShader3D
	}
	if err := b.CompileProgram(vs, fs); err != nil {
		return nil, err
	}
	b.SetViewport(frame.Width, frame.Height)
	if b.ctx == nil {
		return nil, fmt.Errorf("%w: %dx%d", ErrNoViewport, frame.Width, frame.Height)
	}
	b.Clear(frame.Is3D)
	for _, cmd := range frame.Commands {
		// Commands from a 2D frame never carry normals, so an earlier lit
		// command's buffer must not leak into them.
		b.normals, b.normalMatrix = nil, nil
		if err := cmd.Submit(b); err != nil {
			return nil, fmt.Errorf("draw %s: %w", cmd.ShapeID, err)
		}
	}
	return b.Image(), nil
}

// ParseBackground parses a "#rrggbb" clear color. An empty string is
// transparent.
func ParseBackground(hex string) (color.Color, error) {
	if hex == "" {
		return color.Transparent, nil
	}
	c, err := document.HexToRGB(hex)
	if err != nil {
		return nil, err
	}
	return color.NRGBA{R: channel(c.Red), G: channel(c.Green), B: channel(c.Blue), A: 255}, nil
}

func channel(v float64) uint8 {
	return uint8(math.Min(math.Max(v*256, 0), 255))
}

func vec(buf []float64, i int) fauxgl.Vector {
	return fauxgl.Vector{X: buf[i*3], Y: buf[i*3+1], Z: buf[i*3+2]}
}

// mat4 converts a column-major 4x4 matrix.
func mat4(m []float64) fauxgl.Matrix {
	return fauxgl.Matrix{
		X00: m[0], X01: m[4], X02: m[8], X03: m[12],
		X10: m[1], X11: m[5], X12: m[9], X13: m[13],
		X20: m[2], X21: m[6], X22: m[10], X23: m[14],
		X30: m[3], X31: m[7], X32: m[11], X33: m[15],
	}
}

// mat3 lifts a column-major 2D homogeneous matrix into 4x4, leaving z at 0.
func mat3(m []float64) fauxgl.Matrix {
	return fauxgl.Matrix{
		X00: m[0], X01: m[3], X03: m[6],
		X10: m[1], X11: m[4], X13: m[7],
		X30: m[2], X31: m[5], X33: m[8],
	}
}
