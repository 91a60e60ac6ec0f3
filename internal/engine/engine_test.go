package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/inamate/shapelab/internal/document"
)

func newTestEngine(t *testing.T, is3D bool) (*Engine, *RecordingBackend) {
	t.Helper()
	rec := &RecordingBackend{}
	opts := DefaultOptions()
	opts.Backend = rec
	opts.Pipeline.Is3D = is3D
	opts.AnimationInterval = time.Millisecond
	e, err := NewEngine(opts)
	if err != nil {
		t.Fatalf("NewEngine\nhave %v\nwant nil", err)
	}
	return e, rec
}

func TestEngineAddDelete2D(t *testing.T) {
	e, _ := newTestEngine(t, false)
	if err := e.LoadSample(); err != nil {
		t.Fatal(err)
	}
	snap := e.Snapshot()
	if len(snap.Shapes) != 2 || snap.SelectedIndex != 0 || snap.Is3D {
		t.Fatalf("sample scene\nhave %d shapes, selected %d, 3d %v\nwant 2, 0, false", len(snap.Shapes), snap.SelectedIndex, snap.Is3D)
	}

	if err := e.DeleteShape(0); err != nil {
		t.Fatal(err)
	}
	frame := e.LastFrame()
	if len(frame.Commands) != 1 || frame.Commands[0].Kind != document.KindTriangle {
		t.Fatalf("frame after delete\nhave %+v\nwant one TRIANGLE command", frame.Commands)
	}
	if err := e.DeleteShape(3); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("DeleteShape(3)\nhave %v\nwant %v", err, ErrIndexOutOfRange)
	}
}

func TestEngineAddShapeAt(t *testing.T) {
	e, _ := newTestEngine(t, true)
	i, err := e.AddShapeAt(document.KindCube, 500, 200)
	if err != nil {
		t.Fatal(err)
	}
	if i != 0 {
		t.Fatalf("AddShapeAt index\nhave %d\nwant 0", i)
	}
	got := e.Snapshot().Shapes[0]
	want := document.Vec3{X: 100, Y: 100, Z: -150}
	if got.Translation != want || got.Rotation.Z != 180 {
		t.Fatalf("clicked cube\nhave translation %v rotation %v\nwant %v, z=180", got.Translation, got.Rotation, want)
	}

	e2, _ := newTestEngine(t, false)
	if _, err := e2.AddShapeAt(document.KindStar, 12, 34); err != nil {
		t.Fatal(err)
	}
	if tr := e2.Snapshot().Shapes[0].Translation; tr != (document.Vec3{X: 12, Y: 34}) {
		t.Fatalf("2D click translation\nhave %v\nwant {12 34 0}", tr)
	}

	if _, err := e.AddShape(document.ShapeKind(77), document.Vec3{}); !errors.Is(err, document.ErrUnrecognizedShapeKind) {
		t.Fatalf("AddShape(unknown)\nhave %v\nwant %v", err, document.ErrUnrecognizedShapeKind)
	}
}

func TestEngineBrushColor(t *testing.T) {
	e, _ := newTestEngine(t, true)
	if _, err := e.AddShape(document.KindCube, document.Vec3{}); err != nil {
		t.Fatal(err)
	}
	if err := e.SetColor("#00ff00"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddShape(document.KindLetterF, document.Vec3{}); err != nil {
		t.Fatal(err)
	}
	snap := e.Snapshot()
	for i, s := range snap.Shapes {
		if hex := document.RGBToHex(s.Color); hex != "#00ff00" {
			t.Fatalf("shape %d color\nhave %s\nwant #00ff00", i, hex)
		}
	}
	if snap.SelectedIndex != 0 {
		t.Fatalf("selection after second add\nhave %d\nwant 0", snap.SelectedIndex)
	}

	if err := e.SetColor("green"); !errors.Is(err, document.ErrInvalidColorFormat) {
		t.Fatalf("SetColor(green)\nhave %v\nwant %v", err, document.ErrInvalidColorFormat)
	}
	if err := e.SetBrushColor("#0000ff"); err != nil {
		t.Fatal(err)
	}
	if b := e.Snapshot().BrushColor; b != "#0000ff" {
		t.Fatalf("brush color\nhave %s\nwant #0000ff", b)
	}
}

func TestEngineSetColorNoSelection(t *testing.T) {
	e, _ := newTestEngine(t, false)
	if err := e.SetColor("#123456"); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("SetColor on empty scene\nhave %v\nwant %v", err, ErrNoSelection)
	}
	if b := e.Snapshot().BrushColor; b != document.DefaultShapeColor {
		t.Fatalf("brush color after failed SetColor\nhave %s\nwant %s", b, document.DefaultShapeColor)
	}
	if _, err := e.SelectionState(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("SelectionState on empty scene\nhave %v\nwant %v", err, ErrNoSelection)
	}
}

func TestEngineSelectionState(t *testing.T) {
	e, _ := newTestEngine(t, true)
	if err := e.LoadSample(); err != nil {
		t.Fatal(err)
	}
	if err := e.SelectShape(2); err != nil {
		t.Fatal(err)
	}
	if err := e.SetFieldOfView(75); err != nil {
		t.Fatal(err)
	}
	st, err := e.SelectionState()
	if err != nil {
		t.Fatal(err)
	}
	if st.Index != 2 || st.FieldOfView != 75 || st.Shape.Translation.X != -20 {
		t.Fatalf("selection state\nhave %+v", st)
	}
}

func TestEngineListener(t *testing.T) {
	e, _ := newTestEngine(t, false)

	var mu sync.Mutex
	var seqs []int64
	var lens []int
	e.OnRender(func(f Frame, s *Snapshot) {
		mu.Lock()
		seqs = append(seqs, f.Seq)
		lens = append(lens, len(s.Shapes))
		mu.Unlock()
	})

	_, _ = e.AddShape(document.KindRectangle, document.Vec3{})
	_, _ = e.AddShape(document.KindCircle, document.Vec3{})
	_ = e.SelectShape(9) // fails, no render

	mu.Lock()
	defer mu.Unlock()
	if len(seqs) != 2 || seqs[1] <= seqs[0] {
		t.Fatalf("listener frame seqs\nhave %v\nwant two increasing", seqs)
	}
	if lens[0] != 1 || lens[1] != 2 {
		t.Fatalf("listener snapshot sizes\nhave %v\nwant [1 2]", lens)
	}
}

func TestEngineSnapshotIsDetached(t *testing.T) {
	e, _ := newTestEngine(t, true)
	if err := e.LoadSample(); err != nil {
		t.Fatal(err)
	}
	snap := e.Snapshot()
	snap.Shapes[0].Translation.X = 999
	snap.Shapes = snap.Shapes[:1]

	again := e.Snapshot()
	if len(again.Shapes) != 3 || again.Shapes[0].Translation.X != 20 {
		t.Fatalf("engine state after mutating a snapshot\nhave %d shapes, x=%v\nwant 3, 20", len(again.Shapes), again.Shapes[0].Translation.X)
	}
}

func TestEngineStepAnimationWraps(t *testing.T) {
	e, _ := newTestEngine(t, true)
	if err := e.SetCameraTranslation(document.AxisX, 159.5); err != nil {
		t.Fatal(err)
	}
	if err := e.StepAnimation(); err != nil {
		t.Fatal(err)
	}
	if x := e.Snapshot().Camera.Translation.X; x != -160 {
		t.Fatalf("camera x after wrap\nhave %v\nwant -160", x)
	}
	if err := e.StepAnimation(); err != nil {
		t.Fatal(err)
	}
	if x := e.Snapshot().Camera.Translation.X; x != -159 {
		t.Fatalf("camera x after step\nhave %v\nwant -159", x)
	}
}

func TestEngineAnimation(t *testing.T) {
	e, _ := newTestEngine(t, true)
	start := e.Snapshot().Camera.Translation.X

	a := e.StartAnimation()
	if b := e.StartAnimation(); b != a {
		t.Fatal("StartAnimation while running returned a new loop")
	}
	if !e.Animating() {
		t.Fatal("Animating after start\nhave false\nwant true")
	}

	deadline := time.After(2 * time.Second)
	for e.Snapshot().Camera.Translation.X == start {
		select {
		case <-deadline:
			t.Fatal("camera did not move while animating")
		case <-time.After(2 * time.Millisecond):
		}
	}

	e.StopAnimation()
	e.StopAnimation()
	a.Stop()
	select {
	case <-a.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("animation loop did not exit")
	}
	if e.Animating() {
		t.Fatal("Animating after stop\nhave true\nwant false")
	}

	// Stopping leaves the scene where the last step put it.
	x := e.Snapshot().Camera.Translation.X
	time.Sleep(10 * time.Millisecond)
	if y := e.Snapshot().Camera.Translation.X; y != x {
		t.Fatalf("camera moved after stop\nhave %v\nwant %v", y, x)
	}

	if b := e.StartAnimation(); b == a {
		t.Fatal("StartAnimation after stop reused the finished loop")
	}
	e.StopAnimation()
}

func TestEngineBusy(t *testing.T) {
	e, _ := newTestEngine(t, false)
	if e.Busy(context.Background()) {
		t.Fatal("Busy on idle engine\nhave true\nwant false")
	}

	e.lock.Lock()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	busy := e.Busy(ctx)
	e.lock.Unlock()
	if !busy {
		t.Fatal("Busy while locked\nhave false\nwant true")
	}
}

func TestEngineRenderJSON(t *testing.T) {
	e, rec := newTestEngine(t, false)
	_ = e.LoadSample()
	rec.Reset()

	out := e.RenderJSON()
	if out == "[]" || len(rec.Methods()) != 9 {
		t.Fatalf("RenderJSON\nhave %s with %d backend calls\nwant two commands, 9 calls", out, len(rec.Methods()))
	}
}

func TestEngineRestore(t *testing.T) {
	src, _ := newTestEngine(t, true)
	_ = src.LoadSample()
	_ = src.SelectShape(1)
	_ = src.SetCameraRotation(document.AxisY, 12)
	_ = src.SetBrushColor("#abcdef")
	snap := src.Snapshot()

	dst, rec := newTestEngine(t, true)
	rec.Reset()
	if err := dst.Restore(snap); err != nil {
		t.Fatal(err)
	}
	got := dst.Snapshot()
	if len(got.Shapes) != 3 || got.SelectedIndex != 1 || got.Camera != snap.Camera || got.BrushColor != "#abcdef" {
		t.Fatalf("restored engine\nhave %+v\nwant %+v", got, snap)
	}
	if len(rec.Methods()) == 0 {
		t.Fatal("Restore did not render")
	}

	snap.SelectedIndex = 7
	_ = dst.Restore(snap)
	if i := dst.Snapshot().SelectedIndex; i != 0 {
		t.Fatalf("restored out-of-range selection\nhave %d\nwant 0", i)
	}
	snap.BrushColor = "nope"
	if err := dst.Restore(snap); !errors.Is(err, document.ErrInvalidColorFormat) {
		t.Fatalf("Restore with bad brush\nhave %v\nwant %v", err, document.ErrInvalidColorFormat)
	}
}

func TestEngineUpdateShapeAt(t *testing.T) {
	e, _ := newTestEngine(t, false)
	if err := e.LoadSample(); err != nil {
		t.Fatal(err)
	}
	target := e.Snapshot().Shapes[1].ID

	if err := e.UpdateShapeAt(1, func(s *Scene) error { return s.SetScale(document.AxisX, 4) }); err != nil {
		t.Fatal(err)
	}
	snap := e.Snapshot()
	if snap.SelectedIndex != 1 || snap.Shapes[1].ID != target || snap.Shapes[1].Scale.X != 4 {
		t.Fatalf("UpdateShapeAt(1)\nhave selected %d, %+v", snap.SelectedIndex, snap.Shapes[1])
	}

	if err := e.SelectShape(0); err != nil {
		t.Fatal(err)
	}
	seq := e.LastFrame().Seq
	failed := errors.New("failed")
	if err := e.UpdateShapeAt(1, func(*Scene) error { return failed }); !errors.Is(err, failed) {
		t.Fatalf("UpdateShapeAt with failing fn\nhave %v\nwant %v", err, failed)
	}
	if have := e.Snapshot().SelectedIndex; have != 0 {
		t.Fatalf("selection after failed update\nhave %d\nwant 0", have)
	}
	if have := e.LastFrame().Seq; have != seq {
		t.Fatalf("frame seq after failed update\nhave %d\nwant %d", have, seq)
	}
	if err := e.UpdateShapeAt(5, func(*Scene) error { return nil }); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("UpdateShapeAt(5)\nhave %v\nwant %v", err, ErrIndexOutOfRange)
	}
	if err := e.SetColorAt(1, "#123456"); err != nil {
		t.Fatal(err)
	}
	if have := document.RGBToHex(e.Snapshot().Shapes[1].Color); have != "#123456" {
		t.Fatalf("SetColorAt(1)\nhave %s\nwant #123456", have)
	}
}

func TestEngineRenderReturnsOwnFrame(t *testing.T) {
	e, _ := newTestEngine(t, false)
	_ = e.LoadSample()

	// The first listener call renders again, so LastFrame moves past the
	// frame the outer Render produced.
	nested := false
	e.OnRender(func(Frame, *Snapshot) {
		if nested {
			return
		}
		nested = true
		if _, err := e.Render(); err != nil {
			t.Error(err)
		}
	})
	before := e.LastFrame().Seq
	frame, err := e.Render()
	if err != nil {
		t.Fatal(err)
	}
	if frame.Seq != before+1 {
		t.Fatalf("Render seq\nhave %d\nwant %d", frame.Seq, before+1)
	}
	if last := e.LastFrame().Seq; last != before+2 {
		t.Fatalf("LastFrame seq\nhave %d\nwant %d", last, before+2)
	}
}

func TestEngineUpdatePanicReleasesLock(t *testing.T) {
	e, _ := newTestEngine(t, false)
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("update with panicking fn\nhave no panic")
			}
		}()
		_ = e.update(func(*Scene) error { panic("boom") })
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if e.Busy(ctx) {
		t.Fatal("Busy after panic in update\nhave true\nwant false")
	}
}
