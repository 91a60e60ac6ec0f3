package collab

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/inamate/shapelab/internal/document"
	"github.com/inamate/shapelab/internal/engine"
)

var (
	ErrUnknownOperation = errors.New("unknown operation type")
	ErrInvalidOperation = errors.New("invalid operation")
)

// maxOpLog bounds the operation history kept for late joiners and debugging.
const maxOpLog = 1024

// SceneState applies client operations to the shared engine in submission
// order and numbers them.
type SceneState struct {
	mu        sync.Mutex
	engine    *engine.Engine
	serverSeq atomic.Int64
	opLog     []Operation
}

func NewSceneState(e *engine.Engine) *SceneState {
	return &SceneState{engine: e}
}

func (ss *SceneState) Engine() *engine.Engine {
	return ss.engine
}

// ServerSeq is the sequence number of the last applied operation.
// It does not wait for an operation in progress.
func (ss *SceneState) ServerSeq() int64 {
	return ss.serverSeq.Load()
}

// History returns the most recent operations, oldest first.
func (ss *SceneState) History() []Operation {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return append([]Operation(nil), ss.opLog...)
}

// ApplyOperation applies op and returns its server sequence. For shape.add
// the index of the new shape is returned too, otherwise -1.
func (ss *SceneState) ApplyOperation(op Operation) (seq int64, index int, err error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	index, err = ss.applyOperationLocked(op)
	if err != nil {
		return 0, -1, err
	}

	seq = ss.serverSeq.Add(1)
	ss.opLog = append(ss.opLog, op)
	if len(ss.opLog) > maxOpLog {
		ss.opLog = append([]Operation(nil), ss.opLog[len(ss.opLog)-maxOpLog:]...)
	}
	return seq, index, nil
}

func (ss *SceneState) applyOperationLocked(op Operation) (int, error) {
	switch op.Type {
	case OpShapeAdd:
		return ss.applyAdd(op)
	case OpShapeDelete:
		i, err := requireIndex(op)
		if err != nil {
			return -1, err
		}
		return -1, ss.engine.DeleteShape(i)
	case OpShapeSelect:
		i, err := requireIndex(op)
		if err != nil {
			return -1, err
		}
		return -1, ss.engine.SelectShape(i)
	case OpShapeTransform:
		return -1, ss.applyShapeTransform(op)
	case OpShapeColor:
		return -1, ss.applyShapeColor(op)
	case OpCameraTransform:
		return -1, ss.applyCameraTransform(op)
	case OpCameraTarget, OpCameraLight:
		i, err := requireIndex(op)
		if err != nil {
			return -1, err
		}
		v, err := requireValue(op)
		if err != nil {
			return -1, err
		}
		if op.Type == OpCameraTarget {
			return -1, ss.engine.SetLookAtTarget(i, v)
		}
		return -1, ss.engine.SetLightDirection(i, v)
	case OpCameraLookAt:
		if op.Enabled == nil {
			return -1, fmt.Errorf("%w: %s needs enabled", ErrInvalidOperation, op.Type)
		}
		return -1, ss.engine.ToggleLookAt(*op.Enabled)
	case OpCameraFOV:
		v, err := requireValue(op)
		if err != nil {
			return -1, err
		}
		return -1, ss.engine.SetFieldOfView(v)
	default:
		return -1, fmt.Errorf("%w: %s", ErrUnknownOperation, op.Type)
	}
}

func (ss *SceneState) applyAdd(op Operation) (int, error) {
	kind, err := document.ParseShapeKind(op.Kind)
	if err != nil {
		return -1, err
	}
	if op.Click != nil {
		return ss.engine.AddShapeAt(kind, op.Click.X, op.Click.Y)
	}
	var t document.Vec3
	if op.Translation != nil {
		t = *op.Translation
	}
	return ss.engine.AddShape(kind, t)
}

// applyShapeTransform checks the whole operation before the scene is
// touched, so a rejected operation never moves the selection.
func (ss *SceneState) applyShapeTransform(op Operation) error {
	axis, err := document.ParseAxis(op.Axis)
	if err != nil {
		return err
	}
	v, err := requireValue(op)
	if err != nil {
		return err
	}
	var set func(*engine.Scene) error
	switch op.Field {
	case "translation":
		set = func(s *engine.Scene) error { return s.SetTranslation(axis, v) }
	case "rotation":
		set = func(s *engine.Scene) error { return s.SetRotation(axis, v) }
	case "scale":
		set = func(s *engine.Scene) error { return s.SetScale(axis, v) }
	default:
		return fmt.Errorf("%w: unknown shape field %q", ErrInvalidOperation, op.Field)
	}
	if op.Index != nil {
		return ss.engine.UpdateShapeAt(*op.Index, set)
	}
	return ss.engine.Update(set)
}

func (ss *SceneState) applyShapeColor(op Operation) error {
	if _, err := document.HexToRGB(op.Color); err != nil {
		return err
	}
	if op.Index != nil {
		return ss.engine.SetColorAt(*op.Index, op.Color)
	}
	return ss.engine.SetColor(op.Color)
}

func (ss *SceneState) applyCameraTransform(op Operation) error {
	axis, err := document.ParseAxis(op.Axis)
	if err != nil {
		return err
	}
	v, err := requireValue(op)
	if err != nil {
		return err
	}
	switch op.Field {
	case "translation":
		return ss.engine.SetCameraTranslation(axis, v)
	case "rotation":
		return ss.engine.SetCameraRotation(axis, v)
	}
	return fmt.Errorf("%w: unknown camera field %q", ErrInvalidOperation, op.Field)
}

func requireIndex(op Operation) (int, error) {
	if op.Index == nil {
		return 0, fmt.Errorf("%w: %s needs index", ErrInvalidOperation, op.Type)
	}
	return *op.Index, nil
}

func requireValue(op Operation) (float64, error) {
	if op.Value == nil {
		return 0, fmt.Errorf("%w: %s needs value", ErrInvalidOperation, op.Type)
	}
	return *op.Value, nil
}
