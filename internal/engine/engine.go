package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/barkimedes/go-deepcopy"
	"github.com/subchen/go-trylock/v2"

	"github.com/inamate/shapelab/internal/document"
)

// Depth at which shapes clicked into the 3D scene are placed.
const clickDepth = -150

type tryLocker interface {
	Lock()
	Unlock()
	TryLock(ctx context.Context) bool
}

// RenderListener is called after every completed render pass, outside the
// engine lock.
type RenderListener func(Frame, *Snapshot)

type Options struct {
	Width             int
	Height            int
	Pipeline          PipelineConfig
	AnimationInterval time.Duration
	Backend           Backend
}

func DefaultOptions() Options {
	return Options{
		Width:             800,
		Height:            600,
		Pipeline:          DefaultPipelineConfig(),
		AnimationInterval: DefaultAnimationInterval,
	}
}

// Snapshot is a detached copy of the engine state for read accessors.
type Snapshot struct {
	Shapes        []document.Shape `json:"shapes"`
	SelectedIndex int              `json:"selectedIndex"`
	Camera        document.Camera  `json:"camera"`
	BrushColor    string           `json:"brushColor"`
	Width         int              `json:"width"`
	Height        int              `json:"height"`
	Is3D          bool             `json:"is3d"`
	Animating     bool             `json:"animating"`
}

// SelectionState holds the values a UI shows for the selected shape.
type SelectionState struct {
	Index       int            `json:"index"`
	Shape       document.Shape `json:"shape"`
	ColorHex    string         `json:"color"`
	FieldOfView float64        `json:"fieldOfView"`
}

// Engine owns the scene and the render pipeline. Every mutation and the
// render that follows it run under one lock, so no two passes interleave.
type Engine struct {
	lock       tryLocker
	scene      *Scene
	pipeline   *Pipeline
	brushColor document.Color
	last       Frame

	listenersMu sync.RWMutex
	listeners   []RenderListener

	animMu    sync.Mutex
	animation *Animation
	interval  time.Duration
}

// NewEngine creates an engine with an empty scene and an initialized
// pipeline.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 800, 600
	}
	if opts.AnimationInterval <= 0 {
		opts.AnimationInterval = DefaultAnimationInterval
	}

	e := &Engine{
		lock:       trylock.New(),
		scene:      NewScene(),
		pipeline:   NewPipeline(opts.Backend, opts.Pipeline),
		brushColor: document.MustHexToRGB(document.DefaultShapeColor),
		interval:   opts.AnimationInterval,
	}
	if err := e.pipeline.Init(opts.Width, opts.Height); err != nil {
		return nil, fmt.Errorf("init pipeline: %w", err)
	}
	return e, nil
}

// OnRender registers a listener for completed frames.
func (e *Engine) OnRender(fn RenderListener) {
	e.listenersMu.Lock()
	e.listeners = append(e.listeners, fn)
	e.listenersMu.Unlock()
}

// Busy reports whether a mutation or render is in flight. It waits at most
// until ctx is done.
func (e *Engine) Busy(ctx context.Context) bool {
	if !e.lock.TryLock(ctx) {
		return true
	}
	e.lock.Unlock()
	return false
}

// update applies fn to the scene and re-renders, as one unit. A failing fn
// leaves the scene as fn left it and skips the render.
func (e *Engine) update(fn func(*Scene) error) error {
	_, err := e.updateFrame(fn)
	return err
}

// Update applies fn to the scene and renders, as one unit. It is the
// building block for callers that compose several scene changes.
func (e *Engine) Update(fn func(*Scene) error) error {
	return e.update(fn)
}

// updateFrame is update returning the frame rendered for fn. Listeners run
// after the lock is released.
func (e *Engine) updateFrame(fn func(*Scene) error) (Frame, error) {
	frame, snap, err := e.apply(fn)
	if err != nil {
		return Frame{}, err
	}
	e.notify(frame, snap)
	return frame, nil
}

func (e *Engine) apply(fn func(*Scene) error) (Frame, *Snapshot, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if err := fn(e.scene); err != nil {
		return Frame{}, nil, err
	}
	frame, err := e.pipeline.Render(e.scene)
	if err != nil {
		return Frame{}, nil, fmt.Errorf("render: %w", err)
	}
	e.last = frame
	return frame, e.snapshotLocked(), nil
}

func (e *Engine) notify(frame Frame, snap *Snapshot) {
	e.listenersMu.RLock()
	listeners := append([]RenderListener(nil), e.listeners...)
	e.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(frame, snap)
	}
}

// --- Commands ---

// Render runs a pass without changing the scene.
func (e *Engine) Render() (Frame, error) {
	return e.updateFrame(func(*Scene) error { return nil })
}

// LoadShapes appends shapes in order.
func (e *Engine) LoadShapes(shapes []document.Shape) error {
	return e.update(func(s *Scene) error {
		for _, shape := range shapes {
			s.AddShape(shape)
		}
		return nil
	})
}

// LoadSample appends the starter scene for the configured mode.
func (e *Engine) LoadSample() error {
	return e.LoadShapes(document.SampleShapes(e.pipeline.Config().Is3D))
}

// AddShape appends a shape of kind at translation, painted with the current
// brush color. The selection does not move to the new shape.
func (e *Engine) AddShape(kind document.ShapeKind, translation document.Vec3, opts ...document.ShapeOption) (int, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: %v", document.ErrUnrecognizedShapeKind, kind)
	}
	index := -1
	err := e.update(func(s *Scene) error {
		all := append([]document.ShapeOption{
			document.WithColor(e.brushColor),
			document.WithTranslation(translation),
		}, opts...)
		index = s.AddShape(document.NewShape(kind, all...))
		return nil
	})
	return index, err
}

// AddShapeAt places a shape where the canvas was clicked. In 2D the click
// position is the translation; in 3D it is measured from the canvas center,
// y up, pushed back to a fixed depth and turned upright.
func (e *Engine) AddShapeAt(kind document.ShapeKind, x, y float64) (int, error) {
	if !e.pipeline.Config().Is3D {
		return e.AddShape(kind, document.Vec3{X: x, Y: y})
	}
	w, h := e.pipeline.Size()
	translation := document.Vec3{
		X: math.Round(x - float64(w)/2),
		Y: -math.Round(y - float64(h)/2),
		Z: clickDepth,
	}
	return e.AddShape(kind, translation, document.WithRotation(document.Vec3{Z: 180}))
}

func (e *Engine) DeleteShape(index int) error {
	return e.update(func(s *Scene) error { return s.DeleteShape(index) })
}

func (e *Engine) SelectShape(index int) error {
	return e.update(func(s *Scene) error { return s.SelectShape(index) })
}

func (e *Engine) SetTranslation(axis document.Axis, value float64) error {
	return e.update(func(s *Scene) error { return s.SetTranslation(axis, value) })
}

func (e *Engine) SetRotation(axis document.Axis, degrees float64) error {
	return e.update(func(s *Scene) error { return s.SetRotation(axis, degrees) })
}

func (e *Engine) SetScale(axis document.Axis, value float64) error {
	return e.update(func(s *Scene) error { return s.SetScale(axis, value) })
}

// SetColor parses hex, paints the selected shape and makes it the brush color
// for shapes added later.
func (e *Engine) SetColor(hex string) error {
	c, err := document.HexToRGB(hex)
	if err != nil {
		return err
	}
	return e.update(func(s *Scene) error {
		if err := s.SetColor(c); err != nil {
			return err
		}
		e.brushColor = c
		return nil
	})
}

// UpdateShapeAt selects the shape at index and applies fn to the scene in the
// same pass, so no other mutation can shift indices in between. When fn
// fails the previous selection is put back and nothing is rendered.
func (e *Engine) UpdateShapeAt(index int, fn func(*Scene) error) error {
	return e.update(func(s *Scene) error {
		prev := s.SelectedIndex()
		if err := s.SelectShape(index); err != nil {
			return err
		}
		if err := fn(s); err != nil {
			s.selected = prev
			return err
		}
		return nil
	})
}

// SetColorAt paints the shape at index and selects it, like SelectShape
// followed by SetColor in one pass.
func (e *Engine) SetColorAt(index int, hex string) error {
	c, err := document.HexToRGB(hex)
	if err != nil {
		return err
	}
	return e.UpdateShapeAt(index, func(s *Scene) error {
		if err := s.SetColor(c); err != nil {
			return err
		}
		e.brushColor = c
		return nil
	})
}

// SetBrushColor changes the color of shapes added later without touching
// the scene.
func (e *Engine) SetBrushColor(hex string) error {
	c, err := document.HexToRGB(hex)
	if err != nil {
		return err
	}
	e.lock.Lock()
	e.brushColor = c
	e.lock.Unlock()
	return nil
}

func (e *Engine) SetCameraTranslation(axis document.Axis, value float64) error {
	return e.update(func(s *Scene) error {
		s.SetCameraTranslation(axis, value)
		return nil
	})
}

func (e *Engine) SetCameraRotation(axis document.Axis, degrees float64) error {
	return e.update(func(s *Scene) error {
		s.SetCameraRotation(axis, degrees)
		return nil
	})
}

func (e *Engine) SetLookAtTarget(index int, value float64) error {
	return e.update(func(s *Scene) error { return s.SetLookAtTarget(index, value) })
}

func (e *Engine) SetLightDirection(index int, value float64) error {
	return e.update(func(s *Scene) error { return s.SetLightDirection(index, value) })
}

func (e *Engine) ToggleLookAt(enabled bool) error {
	return e.update(func(s *Scene) error {
		s.ToggleLookAt(enabled)
		return nil
	})
}

func (e *Engine) SetFieldOfView(degrees float64) error {
	return e.update(func(s *Scene) error {
		s.SetFieldOfView(degrees)
		return nil
	})
}

func (e *Engine) ResetCamera() error {
	return e.update(func(s *Scene) error {
		s.ResetCamera()
		return nil
	})
}

// Resize changes the canvas size and re-renders.
func (e *Engine) Resize(width, height int) error {
	return e.update(func(*Scene) error {
		e.pipeline.Resize(width, height)
		return nil
	})
}

// Restore replaces the scene, selection, camera and brush with a snapshot's.
// The canvas size and mode are kept.
func (e *Engine) Restore(snap *Snapshot) error {
	brush, err := document.HexToRGB(snap.BrushColor)
	if err != nil {
		return err
	}
	return e.update(func(s *Scene) error {
		s.Replace(snap.Shapes, snap.SelectedIndex, snap.Camera)
		e.brushColor = brush
		return nil
	})
}

// StepAnimation is one demo animation step: the camera slides along x and
// wraps from 160 back to -160.
func (e *Engine) StepAnimation() error {
	return e.update(func(s *Scene) error {
		x := s.Camera().Translation.X + 1
		if x > 160 {
			x = -160
		}
		s.SetCameraTranslation(document.AxisX, x)
		return nil
	})
}

// --- Queries ---

// LastFrame returns the most recently rendered frame.
func (e *Engine) LastFrame() Frame {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.last
}

// Snapshot returns a deep copy of the scene state.
func (e *Engine) Snapshot() *Snapshot {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() *Snapshot {
	w, h := e.pipeline.Size()
	snap := &Snapshot{
		Shapes:        e.scene.Shapes(),
		SelectedIndex: e.scene.SelectedIndex(),
		Camera:        e.scene.Camera(),
		BrushColor:    document.RGBToHex(e.brushColor),
		Width:         w,
		Height:        h,
		Is3D:          e.pipeline.Config().Is3D,
		Animating:     e.Animating(),
	}
	if snap.Shapes == nil {
		snap.Shapes = []document.Shape{}
	}
	return deepcopy.MustAnything(snap).(*Snapshot)
}

// SelectionState returns the form values for the selected shape.
func (e *Engine) SelectionState() (SelectionState, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	shape, index, err := e.scene.Selected()
	if err != nil {
		return SelectionState{}, err
	}
	return SelectionState{
		Index:       index,
		Shape:       shape,
		ColorHex:    document.RGBToHex(shape.Color),
		FieldOfView: e.scene.Camera().FieldOfView,
	}, nil
}

// RenderJSON renders and returns the draw commands as JSON.
func (e *Engine) RenderJSON() string {
	frame, err := e.Render()
	if err != nil {
		slog.Error("render", "error", err)
		return "[]"
	}
	out, _ := DrawCommandsToJSON(frame.Commands)
	return out
}

func (e *Engine) Is3D() bool {
	return e.pipeline.Config().Is3D
}

// PipelineConfig is the render configuration the engine was built with.
func (e *Engine) PipelineConfig() PipelineConfig {
	return e.pipeline.Config()
}

func (e *Engine) AnimationInterval() time.Duration {
	return e.interval
}
