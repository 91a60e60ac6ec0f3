package engine

import (
	"errors"
	"fmt"

	"github.com/inamate/shapelab/internal/document"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrNoSelection     = errors.New("no shape selected")
)

// Scene is the ordered shape list plus selection and camera. Insertion order
// is render order. The selected index is always valid, or NoSelection when
// the scene is empty.
type Scene struct {
	shapes   []document.Shape
	selected int
	camera   document.Camera
}

// NewScene creates an empty scene with the default camera.
func NewScene() *Scene {
	return &Scene{
		selected: document.NoSelection,
		camera:   document.DefaultCamera(),
	}
}

// AddShape appends a shape and returns its index. The selection only moves
// when the scene was empty, so that it stays valid.
func (s *Scene) AddShape(shape document.Shape) int {
	s.shapes = append(s.shapes, shape)
	if s.selected == document.NoSelection {
		s.selected = 0
	}
	return len(s.shapes) - 1
}

// DeleteShape removes the shape at index, shifting later shapes down, and
// re-selects index 0 (or NoSelection when nothing is left).
func (s *Scene) DeleteShape(index int) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	s.shapes = append(s.shapes[:index], s.shapes[index+1:]...)
	if len(s.shapes) > 0 {
		s.selected = 0
	} else {
		s.selected = document.NoSelection
	}
	return nil
}

func (s *Scene) SelectShape(index int) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	s.selected = index
	return nil
}

// Selected returns the selected shape and its index.
func (s *Scene) Selected() (document.Shape, int, error) {
	if s.selected == document.NoSelection {
		return document.Shape{}, document.NoSelection, ErrNoSelection
	}
	return s.shapes[s.selected], s.selected, nil
}

func (s *Scene) SetTranslation(axis document.Axis, value float64) error {
	return s.mutateSelected(func(shape *document.Shape) { shape.Translation.SetAxis(axis, value) })
}

func (s *Scene) SetRotation(axis document.Axis, degrees float64) error {
	return s.mutateSelected(func(shape *document.Shape) { shape.Rotation.SetAxis(axis, degrees) })
}

func (s *Scene) SetScale(axis document.Axis, value float64) error {
	return s.mutateSelected(func(shape *document.Shape) { shape.Scale.SetAxis(axis, value) })
}

func (s *Scene) SetColor(c document.Color) error {
	return s.mutateSelected(func(shape *document.Shape) { shape.Color = c })
}

func (s *Scene) mutateSelected(fn func(*document.Shape)) error {
	if s.selected == document.NoSelection {
		return ErrNoSelection
	}
	fn(&s.shapes[s.selected])
	return nil
}

func (s *Scene) SetCameraTranslation(axis document.Axis, value float64) {
	s.camera.Translation.SetAxis(axis, value)
}

func (s *Scene) SetCameraRotation(axis document.Axis, degrees float64) {
	s.camera.Rotation.SetAxis(axis, degrees)
}

// SetLookAtTarget sets component index (0..2) of the look-at target.
func (s *Scene) SetLookAtTarget(index int, value float64) error {
	if index < 0 || index > 2 {
		return fmt.Errorf("%w: target component %d", ErrIndexOutOfRange, index)
	}
	s.camera.LookAtTarget.SetAxis(document.Axis(index), value)
	return nil
}

// SetLightDirection sets component index (0..2) of the light direction.
func (s *Scene) SetLightDirection(index int, value float64) error {
	if index < 0 || index > 2 {
		return fmt.Errorf("%w: light component %d", ErrIndexOutOfRange, index)
	}
	s.camera.LightDirection.SetAxis(document.Axis(index), value)
	return nil
}

func (s *Scene) ToggleLookAt(enabled bool) {
	s.camera.LookAtEnabled = enabled
}

func (s *Scene) SetFieldOfView(degrees float64) {
	s.camera.FieldOfView = degrees
}

func (s *Scene) ResetCamera() {
	s.camera.Reset()
}

// Replace swaps in a whole scene. An out-of-range selection falls back to
// index 0.
func (s *Scene) Replace(shapes []document.Shape, selected int, camera document.Camera) {
	s.shapes = append([]document.Shape(nil), shapes...)
	s.camera = camera
	switch {
	case len(s.shapes) == 0:
		s.selected = document.NoSelection
	case selected < 0 || selected >= len(s.shapes):
		s.selected = 0
	default:
		s.selected = selected
	}
}

// Shapes returns the shapes in render order. The slice must not be modified.
func (s *Scene) Shapes() []document.Shape {
	return s.shapes
}

func (s *Scene) Len() int {
	return len(s.shapes)
}

func (s *Scene) SelectedIndex() int {
	return s.selected
}

func (s *Scene) Camera() document.Camera {
	return s.camera
}

func (s *Scene) checkIndex(index int) error {
	if index < 0 || index >= len(s.shapes) {
		return fmt.Errorf("%w: %d (scene has %d shapes)", ErrIndexOutOfRange, index, len(s.shapes))
	}
	return nil
}
