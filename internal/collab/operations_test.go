package collab

import (
	"errors"
	"testing"

	"github.com/inamate/shapelab/internal/document"
	"github.com/inamate/shapelab/internal/engine"
)

func newState(t *testing.T, is3D bool) *SceneState {
	t.Helper()
	opts := engine.DefaultOptions()
	opts.Pipeline.Is3D = is3D
	e, err := engine.NewEngine(opts)
	if err != nil {
		t.Fatal(err)
	}
	return NewSceneState(e)
}

func ptr[T any](v T) *T { return &v }

func TestApplyOperations(t *testing.T) {
	ss := newState(t, true)

	ops := []Operation{
		{ID: "1", Type: OpShapeAdd, Kind: "cube", Translation: &document.Vec3{X: 5}},
		{ID: "2", Type: OpShapeAdd, Kind: "LETTER_F", Click: &CursorPos{X: 400, Y: 300}},
		{ID: "3", Type: OpShapeTransform, Index: ptr(1), Field: "scale", Axis: "y", Value: ptr(3.0)},
		{ID: "4", Type: OpShapeColor, Color: "#00ff00"},
		{ID: "5", Type: OpCameraTransform, Field: "rotation", Axis: "x", Value: ptr(10.0)},
		{ID: "6", Type: OpCameraTarget, Index: ptr(2), Value: ptr(-4.0)},
		{ID: "7", Type: OpCameraLight, Index: ptr(0), Value: ptr(1.0)},
		{ID: "8", Type: OpCameraLookAt, Enabled: ptr(false)},
		{ID: "9", Type: OpCameraFOV, Value: ptr(90.0)},
	}
	for i, op := range ops {
		seq, index, err := ss.ApplyOperation(op)
		if err != nil {
			t.Fatalf("ApplyOperation(%s)\nhave %v\nwant nil", op.Type, err)
		}
		if seq != int64(i+1) {
			t.Fatalf("ApplyOperation(%s) seq\nhave %d\nwant %d", op.Type, seq, i+1)
		}
		if op.Type == OpShapeAdd && index != i {
			t.Fatalf("shape.add index\nhave %d\nwant %d", index, i)
		}
	}

	snap := ss.Engine().Snapshot()
	if len(snap.Shapes) != 2 || snap.SelectedIndex != 1 {
		t.Fatalf("scene\nhave %d shapes, selected %d\nwant 2, 1", len(snap.Shapes), snap.SelectedIndex)
	}
	f := snap.Shapes[1]
	if f.Kind != document.KindLetterF || f.Translation != (document.Vec3{Z: -150}) || f.Scale.Y != 3 {
		t.Fatalf("letter F\nhave %+v", f)
	}
	if document.RGBToHex(f.Color) != "#00ff00" || document.RGBToHex(snap.Shapes[0].Color) == "#00ff00" {
		t.Fatal("shape.color painted the wrong shape")
	}
	cam := snap.Camera
	if cam.Rotation.X != 10 || cam.LookAtTarget.Z != -4 || cam.LightDirection.X != 1 || cam.LookAtEnabled || cam.FieldOfView != 90 {
		t.Fatalf("camera\nhave %+v", cam)
	}

	if _, _, err := ss.ApplyOperation(Operation{Type: OpShapeDelete, Index: ptr(0)}); err != nil {
		t.Fatal(err)
	}
	if n := len(ss.Engine().Snapshot().Shapes); n != 1 {
		t.Fatalf("shapes after delete\nhave %d\nwant 1", n)
	}
	if n := len(ss.History()); n != 10 {
		t.Fatalf("history\nhave %d\nwant 10", n)
	}
}

func TestApplyOperationRejects(t *testing.T) {
	ss := newState(t, false)
	for _, tc := range []struct {
		op   Operation
		want error
	}{
		{Operation{Type: "shape.explode"}, ErrUnknownOperation},
		{Operation{Type: OpShapeAdd, Kind: "HEXAGON"}, document.ErrUnrecognizedShapeKind},
		{Operation{Type: OpShapeDelete}, ErrInvalidOperation},
		{Operation{Type: OpShapeDelete, Index: ptr(0)}, engine.ErrIndexOutOfRange},
		{Operation{Type: OpShapeTransform, Field: "translation", Axis: "w", Value: ptr(1.0)}, document.ErrInvalidAxis},
		{Operation{Type: OpShapeTransform, Field: "translation", Axis: "x"}, ErrInvalidOperation},
		{Operation{Type: OpShapeTransform, Field: "translation", Axis: "x", Value: ptr(1.0)}, engine.ErrNoSelection},
		{Operation{Type: OpShapeColor, Color: "blue"}, document.ErrInvalidColorFormat},
		{Operation{Type: OpCameraTransform, Field: "scale", Axis: "x", Value: ptr(1.0)}, ErrInvalidOperation},
		{Operation{Type: OpCameraTarget, Index: ptr(5), Value: ptr(1.0)}, engine.ErrIndexOutOfRange},
		{Operation{Type: OpCameraLookAt}, ErrInvalidOperation},
		{Operation{Type: OpCameraFOV}, ErrInvalidOperation},
	} {
		if _, _, err := ss.ApplyOperation(tc.op); !errors.Is(err, tc.want) {
			t.Fatalf("ApplyOperation(%+v)\nhave %v\nwant %v", tc.op, err, tc.want)
		}
	}
	if ss.ServerSeq() != 0 || len(ss.History()) != 0 {
		t.Fatalf("rejected operations were counted: seq %d, history %d", ss.ServerSeq(), len(ss.History()))
	}
}

func TestApplyOperationRejectKeepsSelection(t *testing.T) {
	ss := newState(t, false)
	for _, kind := range []string{"RECTANGLE", "TRIANGLE"} {
		if _, _, err := ss.ApplyOperation(Operation{Type: OpShapeAdd, Kind: kind}); err != nil {
			t.Fatal(err)
		}
	}
	if have := ss.Engine().Snapshot().SelectedIndex; have != 1 {
		t.Fatalf("selected after adds\nhave %d\nwant 1", have)
	}
	for _, tc := range []struct {
		op   Operation
		want error
	}{
		{Operation{Type: OpShapeColor, Index: ptr(0), Color: "blue"}, document.ErrInvalidColorFormat},
		{Operation{Type: OpShapeTransform, Index: ptr(0), Field: "skew", Axis: "x", Value: ptr(1.0)}, ErrInvalidOperation},
		{Operation{Type: OpShapeTransform, Index: ptr(0), Field: "translation", Axis: "x"}, ErrInvalidOperation},
		{Operation{Type: OpShapeTransform, Index: ptr(0), Field: "translation", Axis: "w", Value: ptr(1.0)}, document.ErrInvalidAxis},
		{Operation{Type: OpShapeTransform, Index: ptr(7), Field: "translation", Axis: "x", Value: ptr(1.0)}, engine.ErrIndexOutOfRange},
	} {
		if _, _, err := ss.ApplyOperation(tc.op); !errors.Is(err, tc.want) {
			t.Fatalf("ApplyOperation(%+v)\nhave %v\nwant %v", tc.op, err, tc.want)
		}
		if have := ss.Engine().Snapshot().SelectedIndex; have != 1 {
			t.Fatalf("selected after rejected %s\nhave %d\nwant 1", tc.op.Type, have)
		}
	}
}

func TestApplyOperationIndexAfterDelete(t *testing.T) {
	ss := newState(t, false)
	for _, kind := range []string{"RECTANGLE", "TRIANGLE", "CIRCLE"} {
		if _, _, err := ss.ApplyOperation(Operation{Type: OpShapeAdd, Kind: kind}); err != nil {
			t.Fatal(err)
		}
	}
	target := ss.Engine().Snapshot().Shapes[1].ID

	// A listener that deletes a shape on the next render runs after the
	// engine lock is released, so it cannot split the select from the set.
	deleted := false
	ss.Engine().OnRender(func(engine.Frame, *engine.Snapshot) {
		if deleted {
			return
		}
		deleted = true
		if err := ss.Engine().DeleteShape(0); err != nil {
			t.Error(err)
		}
	})
	op := Operation{Type: OpShapeTransform, Index: ptr(1), Field: "translation", Axis: "x", Value: ptr(42.0)}
	if _, _, err := ss.ApplyOperation(op); err != nil {
		t.Fatal(err)
	}

	snap := ss.Engine().Snapshot()
	if len(snap.Shapes) != 2 {
		t.Fatalf("shapes\nhave %d\nwant 2", len(snap.Shapes))
	}
	for _, sh := range snap.Shapes {
		if (sh.ID == target) != (sh.Translation.X == 42) {
			t.Fatalf("translation landed on the wrong shape\nhave %+v", snap.Shapes)
		}
	}
}

func TestPresenceShapeDeleted(t *testing.T) {
	pm := NewPresenceManager()
	pm.Update("a", &PresencePayload{Selection: ptr(0)})
	pm.Update("b", &PresencePayload{Selection: ptr(2)})
	pm.Update("c", &PresencePayload{Selection: ptr(3)})
	pm.Update("d", &PresencePayload{Cursor: &CursorPos{X: 1}})

	pm.ShapeDeleted(2)
	all := pm.GetAll()
	if *all["a"].Selection != 0 || all["b"].Selection != nil || *all["c"].Selection != 2 || all["d"].Selection != nil {
		t.Fatalf("selections after deleting shape 2\nhave a=%v b=%v c=%v d=%v", all["a"].Selection, all["b"].Selection, all["c"].Selection, all["d"].Selection)
	}
	if pm.StateMessage() == nil {
		t.Fatal("StateMessage with presences\nhave nil")
	}
	if NewPresenceManager().StateMessage() != nil {
		t.Fatal("StateMessage without presences\nwant nil")
	}
}
