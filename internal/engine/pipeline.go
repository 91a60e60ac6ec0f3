package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/inamate/shapelab/internal/document"
)

var ErrPipelineNotReady = errors.New("render pipeline not initialized")

// PipelineState tracks the render pipeline lifecycle.
type PipelineState int

const (
	StateIdle PipelineState = iota
	StateReady
	StateRendering
)

func (s PipelineState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateRendering:
		return "rendering"
	}
	return fmt.Sprintf("PipelineState(%d)", int(s))
}

type PipelineConfig struct {
	Is3D            bool
	Lit             bool
	ZNear           float64
	ZFar            float64
	CirclePrecision int
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Is3D:            true,
		Lit:             true,
		ZNear:           1,
		ZFar:            2000,
		CirclePrecision: DefaultCirclePrecision,
	}
}

// Pipeline turns a scene into draw commands and feeds them to a backend.
// It is not safe for concurrent use; the Engine serializes access.
type Pipeline struct {
	backend Backend
	cfg     PipelineConfig
	state   PipelineState
	width   int
	height  int
	seq     int64
}

func NewPipeline(backend Backend, cfg PipelineConfig) *Pipeline {
	if backend == nil {
		backend = NopBackend{}
	}
	if cfg.ZNear == 0 && cfg.ZFar == 0 {
		cfg.ZNear, cfg.ZFar = 1, 2000
	}
	return &Pipeline{backend: backend, cfg: cfg}
}

// Init compiles the shader program for the configured mode, sets the
// viewport and moves the pipeline to Ready.
func (p *Pipeline) Init(width, height int) error {
	vs, fs := VertexShader2D, FragmentShader2D
	if p.cfg.Is3D {
		vs, fs = VertexShader3D, FragmentShader3D
	}
	if err := p.backend.CompileProgram(vs, fs); err != nil {
		return fmt.Errorf("compile program: %w", err)
	}
	p.width, p.height = width, height
	p.backend.SetViewport(width, height)
	p.state = StateReady
	return nil
}

// Resize changes the canvas size used for the viewport and aspect ratio.
func (p *Pipeline) Resize(width, height int) {
	p.width, p.height = width, height
	if p.state != StateIdle {
		p.backend.SetViewport(width, height)
	}
}

func (p *Pipeline) State() PipelineState   { return p.state }
func (p *Pipeline) Config() PipelineConfig { return p.cfg }
func (p *Pipeline) Size() (int, int)       { return p.width, p.height }

// Render runs one complete pass over the scene.
func (p *Pipeline) Render(scene *Scene) (Frame, error) {
	if p.state == StateIdle {
		return Frame{}, ErrPipelineNotReady
	}
	p.state = StateRendering
	defer func() { p.state = StateReady }()

	p.seq++
	frame := Frame{Seq: p.seq, Width: p.width, Height: p.height, Is3D: p.cfg.Is3D}

	p.backend.Clear(p.cfg.Is3D)

	var build func(document.Shape) DrawCommand
	if p.cfg.Is3D {
		vp := Multiply4(p.ProjectionMatrix(scene.Camera()), p.ViewMatrix(scene.Camera()))
		light := Normalize(Vec3(scene.Camera().LightDirection.Array()))
		build = func(s document.Shape) DrawCommand { return p.command3D(s, vp, light) }
	} else {
		proj := Projection3(float64(p.width), float64(p.height))
		build = func(s document.Shape) DrawCommand { return command2D(s, proj) }
	}

	for _, shape := range scene.Shapes() {
		geom, err := GenerateGeometry(shape, GeometryOptions{CirclePrecision: p.cfg.CirclePrecision})
		if err != nil {
			slog.Debug("skipping shape", "id", shape.ID, "kind", int(shape.Kind), "error", err)
			continue
		}

		cmd := build(shape)
		cmd.Positions = geom.Positions
		if cmd.NormalMatrix != nil {
			cmd.Normals = geom.Normals
		}
		cmd.TriangleCount = geom.TriangleCount()

		if err := cmd.Submit(p.backend); err != nil {
			return frame, fmt.Errorf("draw shape %s: %w", shape.ID, err)
		}
		frame.Commands = append(frame.Commands, cmd)
	}

	return frame, nil
}

// ViewMatrix is the world-to-view transform. In look-at mode the camera sits
// at its translation and faces the target; otherwise the camera rotation is
// applied before its translation.
func (p *Pipeline) ViewMatrix(cam document.Camera) Mat4 {
	t := cam.Translation
	if cam.LookAtEnabled {
		camera := Identity4().Translate(t.X, t.Y, t.Z)
		position := Vec3{camera[12], camera[13], camera[14]}
		camera = LookAt(position, Vec3(cam.LookAtTarget.Array()), Vec3(cam.Up.Array()))
		return Inverse(camera)
	}

	r := cam.Rotation
	return Identity4().
		ZRotate(DegToRad(r.Z)).
		XRotate(DegToRad(r.X)).
		YRotate(DegToRad(r.Y)).
		Translate(t.X, t.Y, t.Z)
}

// ProjectionMatrix is the perspective projection for the current canvas.
func (p *Pipeline) ProjectionMatrix(cam document.Camera) Mat4 {
	aspect := 1.0
	if p.height > 0 {
		aspect = float64(p.width) / float64(p.height)
	}
	return Perspective(DegToRad(cam.FieldOfView), aspect, p.cfg.ZNear, p.cfg.ZFar)
}

// WorldMatrix is a shape's un-projected model transform.
func WorldMatrix(s document.Shape) Mat4 {
	return placeShape(Identity4(), s)
}

func placeShape(m Mat4, s document.Shape) Mat4 {
	t, r, sc := s.Translation, s.Rotation, s.Scale
	return m.Translate(t.X, t.Y, t.Z).
		XRotate(DegToRad(r.X)).
		YRotate(DegToRad(r.Y)).
		ZRotate(DegToRad(r.Z)).
		Scale(sc.X, sc.Y, sc.Z)
}

func (p *Pipeline) command3D(s document.Shape, vp Mat4, light Vec3) DrawCommand {
	cmd := DrawCommand{
		ShapeID: s.ID,
		Kind:    s.Kind,
		Matrix:  placeShape(vp, s).Slice(),
		Color:   [4]float64{s.Color.Red, s.Color.Green, s.Color.Blue, 1},
	}
	if p.cfg.Lit {
		cmd.NormalMatrix = Transpose(Inverse(WorldMatrix(s))).Slice()
		cmd.LightDirection = light[:]
	}
	return cmd
}

func command2D(s document.Shape, proj Mat3) DrawCommand {
	m := proj.
		Translate(s.Translation.X, s.Translation.Y).
		Rotate(DegToRad(s.Rotation.Z)).
		Scale(s.Scale.X, s.Scale.Y)
	return DrawCommand{
		ShapeID: s.ID,
		Kind:    s.Kind,
		Matrix:  m.Slice(),
		Color:   [4]float64{s.Color.Red, s.Color.Green, s.Color.Blue, 1},
	}
}
