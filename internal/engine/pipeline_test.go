package engine

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/inamate/shapelab/internal/document"
)

func TestPipelineNotReady(t *testing.T) {
	p := NewPipeline(&RecordingBackend{}, DefaultPipelineConfig())
	if p.State() != StateIdle {
		t.Fatalf("initial state\nhave %v\nwant %v", p.State(), StateIdle)
	}
	if _, err := p.Render(NewScene()); !errors.Is(err, ErrPipelineNotReady) {
		t.Fatalf("Render before Init\nhave %v\nwant %v", err, ErrPipelineNotReady)
	}
}

func TestPipelineInit(t *testing.T) {
	for _, tc := range []struct {
		is3D   bool
		vs, fs string
	}{
		{false, VertexShader2D, FragmentShader2D},
		{true, VertexShader3D, FragmentShader3D},
	} {
		rec := &RecordingBackend{}
		p := NewPipeline(rec, PipelineConfig{Is3D: tc.is3D})
		if err := p.Init(640, 480); err != nil {
			t.Fatal(err)
		}
		if p.State() != StateReady {
			t.Fatalf("state after Init\nhave %v\nwant %v", p.State(), StateReady)
		}
		calls := rec.Calls()
		want := []BackendCall{
			{Method: "CompileProgram", Args: []any{tc.vs, tc.fs}},
			{Method: "SetViewport", Args: []any{640, 480}},
		}
		if !reflect.DeepEqual(calls, want) {
			t.Fatalf("Init calls (3d=%v)\nhave %v\nwant %v", tc.is3D, calls, want)
		}
	}
}

func TestPipelineRender2D(t *testing.T) {
	rec := &RecordingBackend{}
	p := NewPipeline(rec, PipelineConfig{})
	if err := p.Init(800, 600); err != nil {
		t.Fatal(err)
	}
	rec.Reset()

	s := NewScene()
	for _, shape := range document.SampleShapes2D() {
		s.AddShape(shape)
	}
	frame, err := p.Render(s)
	if err != nil {
		t.Fatal(err)
	}
	if p.State() != StateReady {
		t.Fatalf("state after Render\nhave %v\nwant %v", p.State(), StateReady)
	}

	wantMethods := []string{
		"Clear",
		"SubmitVertices", "SetTransformUniform", "SetColorUniform", "Draw",
		"SubmitVertices", "SetTransformUniform", "SetColorUniform", "Draw",
	}
	if m := rec.Methods(); !reflect.DeepEqual(m, wantMethods) {
		t.Fatalf("backend calls\nhave %v\nwant %v", m, wantMethods)
	}
	if c := rec.Calls()[0]; c.Args[0] != false {
		t.Fatalf("2D clear depth\nhave %v\nwant false", c.Args[0])
	}

	if len(frame.Commands) != 2 {
		t.Fatalf("commands\nhave %d\nwant 2", len(frame.Commands))
	}
	rect := frame.Commands[0]
	if rect.TriangleCount != 2 || len(rect.Matrix) != 9 || rect.NormalMatrix != nil {
		t.Fatalf("rectangle command\nhave %+v", rect)
	}
	want := Projection3(800, 600).Translate(200, 100).Rotate(0).Scale(50, 50)
	if !reflect.DeepEqual(rect.Matrix, want.Slice()) {
		t.Fatalf("rectangle matrix\nhave %v\nwant %v", rect.Matrix, want.Slice())
	}
	// The rectangle's center lands at pixel (200, 100).
	m := Mat3(rect.Matrix)
	x, y := m.Apply(0, 0)
	if math.Abs(x-(-0.5)) > 1e-12 || math.Abs(y-(1-200.0/600)) > 1e-12 {
		t.Fatalf("rectangle center in clip space\nhave (%v, %v)\nwant (-0.5, %v)", x, y, 1-200.0/600)
	}
	if rect.Color[3] != 1 {
		t.Fatalf("alpha\nhave %v\nwant 1", rect.Color[3])
	}
}

func TestPipelineRender3DLit(t *testing.T) {
	rec := &RecordingBackend{}
	p := NewPipeline(rec, DefaultPipelineConfig())
	if err := p.Init(800, 600); err != nil {
		t.Fatal(err)
	}
	rec.Reset()

	s := NewScene()
	cube := document.NewShape(document.KindCube,
		document.WithTranslation(document.Vec3{X: 20}),
		document.WithScale(document.Vec3{X: 2, Y: 0.5, Z: 1}),
	)
	s.AddShape(cube)

	frame, err := p.Render(s)
	if err != nil {
		t.Fatal(err)
	}
	wantMethods := []string{
		"Clear",
		"SubmitVertices", "SubmitNormals", "SetNormalMatrixUniform", "SetLightDirectionUniform",
		"SetTransformUniform", "SetColorUniform", "Draw",
	}
	if m := rec.Methods(); !reflect.DeepEqual(m, wantMethods) {
		t.Fatalf("backend calls\nhave %v\nwant %v", m, wantMethods)
	}
	if rec.Calls()[0].Args[0] != true {
		t.Fatal("3D clear must include depth")
	}

	cmd := frame.Commands[0]
	if cmd.TriangleCount != 12 || len(cmd.Normals) != 108 {
		t.Fatalf("cube command\nhave %d triangles, %d normals", cmd.TriangleCount, len(cmd.Normals))
	}

	cam := s.Camera()
	vp := Multiply4(p.ProjectionMatrix(cam), p.ViewMatrix(cam))
	want := vp.Translate(20, 0, 0).XRotate(0).YRotate(0).ZRotate(0).Scale(2, 0.5, 1)
	if !mat4Near(Mat4(cmd.Matrix), want, 1e-9) {
		t.Fatalf("model matrix\nhave %v\nwant %v", cmd.Matrix, want)
	}

	normal := Transpose(Inverse(Identity4().Translate(20, 0, 0).Scale(2, 0.5, 1)))
	if !mat4Near(Mat4(cmd.NormalMatrix), normal, 1e-12) {
		t.Fatalf("normal matrix\nhave %v\nwant %v", cmd.NormalMatrix, normal)
	}

	light := Normalize(Vec3{0.4, 0.3, 0.5})
	if !reflect.DeepEqual(cmd.LightDirection, light[:]) {
		t.Fatalf("light direction\nhave %v\nwant %v", cmd.LightDirection, light)
	}
}

func TestPipelineSkipsUnknownKind(t *testing.T) {
	rec := &RecordingBackend{}
	p := NewPipeline(rec, DefaultPipelineConfig())
	if err := p.Init(100, 100); err != nil {
		t.Fatal(err)
	}

	s := NewScene()
	s.AddShape(document.NewShape(document.KindCube))
	s.AddShape(document.NewShape(document.ShapeKind(99)))
	s.AddShape(document.NewShape(document.KindLetterF))

	frame, err := p.Render(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(frame.Commands) != 2 {
		t.Fatalf("commands\nhave %d\nwant 2", len(frame.Commands))
	}
	if frame.Commands[0].Kind != document.KindCube || frame.Commands[1].Kind != document.KindLetterF {
		t.Fatalf("command kinds\nhave %v, %v\nwant CUBE, LETTER_F", frame.Commands[0].Kind, frame.Commands[1].Kind)
	}
}

func TestViewMatrixModes(t *testing.T) {
	p := NewPipeline(nil, DefaultPipelineConfig())
	cam := document.DefaultCamera()

	lookAt := p.ViewMatrix(cam)
	want := Inverse(LookAt(Vec3{-45, -10, -35}, Vec3{5, 5, 5}, Vec3{0, 1, 0}))
	if lookAt != want {
		t.Fatalf("look-at view\nhave %v\nwant %v", lookAt, want)
	}

	cam.LookAtEnabled = false
	free := p.ViewMatrix(cam)
	want = Multiply4(Multiply4(Multiply4(ZRotation(0), XRotation(DegToRad(40))), YRotation(DegToRad(235))), Translation4(-45, -10, -35))
	if !mat4Near(free, want, 1e-12) {
		t.Fatalf("free view\nhave %v\nwant %v", free, want)
	}
}

func TestDrawCommandsToJSON(t *testing.T) {
	out, err := DrawCommandsToJSON(nil)
	if err != nil || out != "[]" {
		t.Fatalf("DrawCommandsToJSON(nil)\nhave %q, %v\nwant \"[]\", nil", out, err)
	}
	out, err = DrawCommandsToJSON([]DrawCommand{{ShapeID: "shape_1", Kind: document.KindStar, TriangleCount: 10}})
	if err != nil {
		t.Fatal(err)
	}
	if want := `"kind":"STAR"`; !strings.Contains(out, want) {
		t.Fatalf("DrawCommandsToJSON\nhave %s\nwant it to contain %s", out, want)
	}
}
