// Package export renders the live scene to image files: a PNG of the current
// frame and an animated GIF of the camera demo loop.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/gif"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/image/draw"

	"github.com/inamate/shapelab/internal/engine"
	"github.com/inamate/shapelab/internal/raster"
)

const (
	defaultLoopFrames = 60
	maxLoopFrames     = 320
)

var ErrFrameCount = errors.New("frame count out of range")

type Handler struct {
	engine *engine.Engine
	raster raster.Options
}

func NewHandler(e *engine.Engine, opts raster.Options) *Handler {
	return &Handler{engine: e, raster: opts}
}

// FramePNG handles GET /export/frame.png.
func (h *Handler) FramePNG(w http.ResponseWriter, r *http.Request) {
	frame := h.engine.LastFrame()
	if frame.Width == 0 {
		var err error
		if frame, err = h.engine.Render(); err != nil {
			slog.Error("render for export", "error", err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
	}

	img, err := raster.RenderFrame(frame, h.raster)
	if err != nil {
		slog.Error("rasterize frame", "error", err, "seq", frame.Seq)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		slog.Error("encode png", "error", err)
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `inline; filename="frame.png"`)
	w.Write(buf.Bytes())
}

// LoopGIF handles GET /export/loop.gif?frames=N. It plays the demo animation
// on a copy of the scene; the live scene is not touched.
func (h *Handler) LoopGIF(w http.ResponseWriter, r *http.Request) {
	frames, err := parseFrames(r.URL.Query().Get("frames"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	anim, err := h.renderLoop(frames)
	if err != nil {
		slog.Error("render loop", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		slog.Error("encode gif", "error", err)
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}

	slog.Info("loop exported", "frames", frames, "bytes", buf.Len(), "duration", time.Since(start))
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Content-Disposition", `attachment; filename="loop.gif"`)
	w.Write(buf.Bytes())
}

func (h *Handler) renderLoop(frames int) (*gif.GIF, error) {
	snap := h.engine.Snapshot()

	backend := raster.NewBackend(h.raster)
	e, err := engine.NewEngine(engine.Options{
		Width:             snap.Width,
		Height:            snap.Height,
		Pipeline:          h.engine.PipelineConfig(),
		AnimationInterval: h.engine.AnimationInterval(),
		Backend:           backend,
	})
	if err != nil {
		return nil, err
	}
	if err := e.Restore(snap); err != nil {
		return nil, err
	}

	// GIF delays are in hundredths of a second.
	delay := int(h.engine.AnimationInterval() / (10 * time.Millisecond))
	if delay < 2 {
		delay = 2
	}

	anim := &gif.GIF{LoopCount: 0}
	for i := 0; i < frames; i++ {
		if i > 0 {
			if err := e.StepAnimation(); err != nil {
				return nil, fmt.Errorf("frame %d: %w", i, err)
			}
		}
		anim.Image = append(anim.Image, toPaletted(backend.Image()))
		anim.Delay = append(anim.Delay, delay)
	}
	return anim, nil
}

func toPaletted(img image.Image) *image.Paletted {
	out := image.NewPaletted(img.Bounds(), palette.Plan9)
	draw.FloydSteinberg.Draw(out, img.Bounds(), img, img.Bounds().Min)
	return out
}

func parseFrames(s string) (int, error) {
	if s == "" {
		return defaultLoopFrames, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxLoopFrames {
		return 0, fmt.Errorf("%w: want 1..%d, got %q", ErrFrameCount, maxLoopFrames, s)
	}
	return n, nil
}
