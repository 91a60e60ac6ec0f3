package main

import (
	"context"
	"errors"
	"time"

	"github.com/inamate/shapelab/internal/collab"
	"github.com/inamate/shapelab/internal/document"
	"github.com/inamate/shapelab/internal/engine"
)

var errNotShared = errors.New("not available on a shared scene")

// editor applies viewer input either to a local engine or, when following a
// server, as operations on the shared scene.
type editor interface {
	addAt(kind document.ShapeKind, x, y float64) error
	delete(index int) error
	selectShape(index int) error
	setShape(index int, field string, axis document.Axis, value float64) error
	setLookAt(enabled bool) error
	resetCamera() error
	toggleAnimation() error
}

type localEditor struct {
	eng *engine.Engine
}

func (l localEditor) addAt(kind document.ShapeKind, x, y float64) error {
	_, err := l.eng.AddShapeAt(kind, x, y)
	return err
}

func (l localEditor) delete(index int) error      { return l.eng.DeleteShape(index) }
func (l localEditor) selectShape(index int) error { return l.eng.SelectShape(index) }
func (l localEditor) setLookAt(enabled bool) error {
	return l.eng.ToggleLookAt(enabled)
}
func (l localEditor) resetCamera() error { return l.eng.ResetCamera() }

func (l localEditor) setShape(index int, field string, axis document.Axis, value float64) error {
	if err := l.eng.SelectShape(index); err != nil {
		return err
	}
	switch field {
	case "translation":
		return l.eng.SetTranslation(axis, value)
	case "rotation":
		return l.eng.SetRotation(axis, value)
	default:
		return l.eng.SetScale(axis, value)
	}
}

func (l localEditor) toggleAnimation() error {
	if l.eng.Animating() {
		l.eng.StopAnimation()
	} else {
		l.eng.StartAnimation()
	}
	return nil
}

type remoteEditor struct {
	ctx      context.Context
	follower *collab.Follower
}

func (r remoteEditor) submit(op collab.Operation) error {
	ctx, cancel := context.WithTimeout(r.ctx, 5*time.Second)
	defer cancel()
	return r.follower.Submit(ctx, op)
}

func (r remoteEditor) addAt(kind document.ShapeKind, x, y float64) error {
	return r.submit(collab.Operation{
		Type:  collab.OpShapeAdd,
		Kind:  kind.String(),
		Click: &collab.CursorPos{X: x, Y: y},
	})
}

func (r remoteEditor) delete(index int) error {
	return r.submit(collab.Operation{Type: collab.OpShapeDelete, Index: &index})
}

func (r remoteEditor) selectShape(index int) error {
	return r.submit(collab.Operation{Type: collab.OpShapeSelect, Index: &index})
}

func (r remoteEditor) setShape(index int, field string, axis document.Axis, value float64) error {
	return r.submit(collab.Operation{
		Type:  collab.OpShapeTransform,
		Index: &index,
		Field: field,
		Axis:  axis.String(),
		Value: &value,
	})
}

func (r remoteEditor) setLookAt(enabled bool) error {
	return r.submit(collab.Operation{Type: collab.OpCameraLookAt, Enabled: &enabled})
}

func (r remoteEditor) resetCamera() error     { return errNotShared }
func (r remoteEditor) toggleAnimation() error { return errNotShared }
