package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/inamate/shapelab/internal/document"
	"github.com/inamate/shapelab/internal/engine"
	"github.com/inamate/shapelab/internal/raster"
)

const (
	moveStep   = 5
	rotateStep = 5
	scaleStep  = 1.1
)

var kindKeys = []struct {
	key  ebiten.Key
	kind document.ShapeKind
}{
	{ebiten.Key1, document.KindRectangle},
	{ebiten.Key2, document.KindTriangle},
	{ebiten.Key3, document.KindCircle},
	{ebiten.Key4, document.KindStar},
	{ebiten.Key5, document.KindCube},
	{ebiten.Key6, document.KindLetterF},
}

// game shows the frames of eng, rasterized by backend, and turns input into
// editor calls.
type game struct {
	mu      sync.Mutex
	eng     *engine.Engine
	backend *raster.Backend
	editor  editor
	status  string

	kind  document.ShapeKind
	dirty atomic.Bool
	frame *ebiten.Image
}

func newGame(kind document.ShapeKind) *game {
	return &game{kind: kind, status: "local"}
}

// attach swaps in the engine whose frames are shown.
func (g *game) attach(eng *engine.Engine, backend *raster.Backend, ed editor) {
	eng.OnRender(func(engine.Frame, *engine.Snapshot) {
		g.dirty.Store(true)
	})
	g.mu.Lock()
	g.eng, g.backend, g.editor = eng, backend, ed
	g.mu.Unlock()
	g.dirty.Store(true)
}

func (g *game) setStatus(s string) {
	g.mu.Lock()
	g.status = s
	g.mu.Unlock()
}

func (g *game) current() (*engine.Engine, *raster.Backend, editor, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.eng, g.backend, g.editor, g.status
}

func repeating(key ebiten.Key) bool {
	d := inpututil.KeyPressDuration(key)
	return d == 1 || (d >= 15 && d%4 == 0)
}

func (g *game) Update() error {
	for _, k := range kindKeys {
		if inpututil.IsKeyJustPressed(k.key) {
			g.kind = k.kind
		}
	}

	eng, _, ed, _ := g.current()
	if eng == nil {
		return nil
	}
	snap := eng.Snapshot()
	sel := snap.SelectedIndex

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		report(ed.addAt(g.kind, float64(x), float64(y)))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		report(ed.setLookAt(!snap.Camera.LookAtEnabled))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		report(ed.resetCamera())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		report(ed.toggleAnimation())
	}

	if sel < 0 || sel >= len(snap.Shapes) {
		return nil
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		report(ed.selectShape((sel + 1) % len(snap.Shapes)))
		return nil
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDelete) || inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		report(ed.delete(sel))
		return nil
	}

	shape := snap.Shapes[sel]
	// Screen y grows downward in 2D and upward in 3D.
	up := -moveStep
	if snap.Is3D {
		up = moveStep
	}
	nudges := []struct {
		key   ebiten.Key
		field string
		axis  document.Axis
		delta float64
	}{
		{ebiten.KeyArrowLeft, "translation", document.AxisX, -moveStep},
		{ebiten.KeyArrowRight, "translation", document.AxisX, moveStep},
		{ebiten.KeyArrowUp, "translation", document.AxisY, float64(up)},
		{ebiten.KeyArrowDown, "translation", document.AxisY, float64(-up)},
		{ebiten.KeyPageUp, "translation", document.AxisZ, moveStep},
		{ebiten.KeyPageDown, "translation", document.AxisZ, -moveStep},
		{ebiten.KeyQ, "rotation", document.AxisZ, -rotateStep},
		{ebiten.KeyE, "rotation", document.AxisZ, rotateStep},
	}
	for _, n := range nudges {
		if !repeating(n.key) {
			continue
		}
		v := shape.Translation
		if n.field == "rotation" {
			v = shape.Rotation
		}
		report(ed.setShape(sel, n.field, n.axis, v.Axis(n.axis)+n.delta))
	}

	factor := 0.0
	if repeating(ebiten.KeyEqual) || repeating(ebiten.KeyKPAdd) {
		factor = scaleStep
	}
	if repeating(ebiten.KeyMinus) || repeating(ebiten.KeyKPSubtract) {
		factor = 1 / scaleStep
	}
	if factor != 0 {
		for _, axis := range []document.Axis{document.AxisX, document.AxisY, document.AxisZ} {
			report(ed.setShape(sel, "scale", axis, shape.Scale.Axis(axis)*factor))
		}
	}
	return nil
}

func report(err error) {
	if err != nil {
		slog.Warn("viewer action failed", "error", err)
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	eng, backend, _, status := g.current()
	if backend != nil && g.dirty.Swap(false) {
		if g.frame != nil {
			g.frame.Deallocate()
		}
		g.frame = ebiten.NewImageFromImage(backend.Image())
	}
	if g.frame != nil {
		screen.DrawImage(g.frame, nil)
	}

	var hud strings.Builder
	fmt.Fprintf(&hud, "[%s] kind %s (1-6)\n", status, g.kind)
	if eng != nil {
		snap := eng.Snapshot()
		fmt.Fprintf(&hud, "shapes %d  selected %d  look-at %v  animating %v\n",
			len(snap.Shapes), snap.SelectedIndex, snap.Camera.LookAtEnabled, snap.Animating)
	}
	ebitenutil.DebugPrint(screen, hud.String())
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	_, backend, _, _ := g.current()
	if backend == nil {
		return outsideWidth, outsideHeight
	}
	if w, h := backend.Size(); w > 0 && h > 0 {
		return w, h
	}
	return outsideWidth, outsideHeight
}
