package engine

import (
	"errors"
	"testing"

	"github.com/inamate/shapelab/internal/document"
)

func sceneWith(kinds ...document.ShapeKind) *Scene {
	s := NewScene()
	for _, k := range kinds {
		s.AddShape(document.NewShape(k))
	}
	return s
}

func TestSceneAddKeepsOrder(t *testing.T) {
	s := NewScene()
	if s.SelectedIndex() != document.NoSelection {
		t.Fatalf("empty scene selection\nhave %d\nwant %d", s.SelectedIndex(), document.NoSelection)
	}

	rect := document.NewShape(document.KindRectangle, document.WithTranslation(document.Vec3{X: 200, Y: 100}))
	tri := document.NewShape(document.KindTriangle, document.WithTranslation(document.Vec3{X: 300, Y: 100}))
	if i := s.AddShape(rect); i != 0 {
		t.Fatalf("AddShape index\nhave %d\nwant 0", i)
	}
	if i := s.AddShape(tri); i != 1 {
		t.Fatalf("AddShape index\nhave %d\nwant 1", i)
	}
	if s.Len() != 2 || s.Shapes()[0].Kind != document.KindRectangle || s.Shapes()[1].Kind != document.KindTriangle {
		t.Fatalf("shapes\nhave %v\nwant [RECTANGLE TRIANGLE]", s.Shapes())
	}
	// The first add makes the selection valid; later adds leave it alone.
	if s.SelectedIndex() != 0 {
		t.Fatalf("selection after adds\nhave %d\nwant 0", s.SelectedIndex())
	}

	if err := s.DeleteShape(0); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 || s.Shapes()[0].Kind != document.KindTriangle {
		t.Fatalf("after DeleteShape(0)\nhave %v\nwant [TRIANGLE]", s.Shapes())
	}
	if s.Shapes()[0].Translation.X != 300 {
		t.Fatalf("remaining shape translation\nhave %v\nwant 300", s.Shapes()[0].Translation.X)
	}
}

func TestSceneDeleteLast(t *testing.T) {
	s := sceneWith(document.KindStar)
	if err := s.DeleteShape(0); err != nil {
		t.Fatal(err)
	}
	if s.SelectedIndex() != document.NoSelection {
		t.Fatalf("selection after deleting last shape\nhave %d\nwant %d", s.SelectedIndex(), document.NoSelection)
	}
	if _, _, err := s.Selected(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("Selected on empty scene\nhave %v\nwant %v", err, ErrNoSelection)
	}
}

func TestSceneDeleteShiftsAndReselects(t *testing.T) {
	s := sceneWith(document.KindRectangle, document.KindCircle, document.KindStar)
	if err := s.SelectShape(2); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteShape(1); err != nil {
		t.Fatal(err)
	}
	if s.SelectedIndex() != 0 {
		t.Fatalf("selection after delete\nhave %d\nwant 0", s.SelectedIndex())
	}
	if s.Len() != 2 || s.Shapes()[1].Kind != document.KindStar {
		t.Fatalf("shapes after delete\nhave %v\nwant [RECTANGLE STAR]", s.Shapes())
	}
}

func TestSceneIndexErrors(t *testing.T) {
	s := sceneWith(document.KindRectangle)
	for _, i := range []int{-1, 1, 5} {
		if err := s.DeleteShape(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("DeleteShape(%d)\nhave %v\nwant %v", i, err, ErrIndexOutOfRange)
		}
		if err := s.SelectShape(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("SelectShape(%d)\nhave %v\nwant %v", i, err, ErrIndexOutOfRange)
		}
	}
	if s.Len() != 1 || s.SelectedIndex() != 0 {
		t.Fatalf("failed calls changed the scene: len %d selected %d", s.Len(), s.SelectedIndex())
	}
	if err := s.SetLookAtTarget(3, 1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("SetLookAtTarget(3)\nhave %v\nwant %v", err, ErrIndexOutOfRange)
	}
	if err := s.SetLightDirection(-1, 1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("SetLightDirection(-1)\nhave %v\nwant %v", err, ErrIndexOutOfRange)
	}
}

func TestSceneSettersNeedSelection(t *testing.T) {
	s := NewScene()
	checks := map[string]error{
		"SetTranslation": s.SetTranslation(document.AxisX, 1),
		"SetRotation":    s.SetRotation(document.AxisY, 1),
		"SetScale":       s.SetScale(document.AxisZ, 1),
		"SetColor":       s.SetColor(document.Color{}),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrNoSelection) {
			t.Fatalf("%s on empty scene\nhave %v\nwant %v", name, err, ErrNoSelection)
		}
	}
}

func TestSceneSettersTouchSelectedOnly(t *testing.T) {
	s := sceneWith(document.KindRectangle, document.KindTriangle)
	if err := s.SelectShape(1); err != nil {
		t.Fatal(err)
	}
	_ = s.SetTranslation(document.AxisY, 42)
	_ = s.SetRotation(document.AxisZ, 90)
	_ = s.SetScale(document.AxisX, 3)
	_ = s.SetColor(document.Color{Green: 0.5})

	got := s.Shapes()[1]
	if got.Translation.Y != 42 || got.Rotation.Z != 90 || got.Scale.X != 3 || got.Color.Green != 0.5 {
		t.Fatalf("selected shape\nhave %+v\nwant translation.y=42 rotation.z=90 scale.x=3 green=0.5", got)
	}
	other := s.Shapes()[0]
	if other.Translation.Y != 0 || other.Scale.X != 20 {
		t.Fatalf("unselected shape changed\nhave %+v", other)
	}
}

func TestSceneCamera(t *testing.T) {
	s := NewScene()
	s.SetCameraTranslation(document.AxisX, 12)
	s.SetCameraRotation(document.AxisY, 90)
	if err := s.SetLookAtTarget(2, -7); err != nil {
		t.Fatal(err)
	}
	if err := s.SetLightDirection(0, 1); err != nil {
		t.Fatal(err)
	}
	s.ToggleLookAt(false)
	s.SetFieldOfView(45)

	c := s.Camera()
	if c.Translation.X != 12 || c.Rotation.Y != 90 || c.LookAtTarget.Z != -7 || c.LightDirection.X != 1 || c.LookAtEnabled || c.FieldOfView != 45 {
		t.Fatalf("camera\nhave %+v", c)
	}

	s.ResetCamera()
	want := document.DefaultCamera()
	want.FieldOfView = 45
	if s.Camera() != want {
		t.Fatalf("camera after reset\nhave %+v\nwant %+v", s.Camera(), want)
	}
}
