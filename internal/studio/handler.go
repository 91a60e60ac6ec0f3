// Package studio is the REST adapter over the engine: the form fields, kind
// picker and canvas clicks of an editor UI, one route each.
package studio

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/inamate/shapelab/internal/auth"
	"github.com/inamate/shapelab/internal/document"
	"github.com/inamate/shapelab/internal/engine"
)

type Handler struct {
	engine *engine.Engine
}

func NewHandler(e *engine.Engine) *Handler {
	return &Handler{engine: e}
}

// RegisterReads adds the read-only routes.
func (h *Handler) RegisterReads(r *mux.Router) {
	r.HandleFunc("/api/scene", h.Scene).Methods("GET")
	r.HandleFunc("/api/selection", h.Selection).Methods("GET")
	r.HandleFunc("/api/frame", h.Frame).Methods("GET")
}

// RegisterMutations adds the routes that change the scene. r is expected to
// be rooted at /api.
func (h *Handler) RegisterMutations(r *mux.Router) {
	r.HandleFunc("/shapes", h.AddShape).Methods("POST")
	r.HandleFunc("/shapes/{index}", h.DeleteShape).Methods("DELETE")
	r.HandleFunc("/shapes/{index}/select", h.SelectShape).Methods("POST")

	r.HandleFunc("/selection/color", h.SetColor).Methods("PUT")
	r.HandleFunc("/brush/color", h.SetBrushColor).Methods("PUT")
	r.HandleFunc("/selection/{field}/{axis}", h.SetSelectionField).Methods("PUT")

	// Registered before the generic camera route, which would shadow them.
	r.HandleFunc("/camera/target/{index}", h.SetLookAtTarget).Methods("PUT")
	r.HandleFunc("/camera/light/{index}", h.SetLightDirection).Methods("PUT")
	r.HandleFunc("/camera/lookat", h.SetLookAt).Methods("PUT")
	r.HandleFunc("/camera/fov", h.SetFieldOfView).Methods("PUT")
	r.HandleFunc("/camera/reset", h.ResetCamera).Methods("POST")
	r.HandleFunc("/camera/{field}/{axis}", h.SetCameraField).Methods("PUT")

	r.HandleFunc("/animation/start", h.StartAnimation).Methods("POST")
	r.HandleFunc("/animation/stop", h.StopAnimation).Methods("POST")
}

// --- Reads ---

func (h *Handler) Scene(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *Handler) Selection(w http.ResponseWriter, r *http.Request) {
	state, err := h.engine.SelectionState()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) Frame(w http.ResponseWriter, r *http.Request) {
	frame := h.engine.LastFrame()
	if frame.Commands == nil {
		frame.Commands = []engine.DrawCommand{}
	}
	writeJSON(w, http.StatusOK, frame)
}

// --- Shapes ---

type addShapeRequest struct {
	Kind string `json:"kind"`
	// A canvas click. Ignored when Translation is set.
	X           *float64       `json:"x,omitempty"`
	Y           *float64       `json:"y,omitempty"`
	Translation *document.Vec3 `json:"translation,omitempty"`
}

func (h *Handler) AddShape(w http.ResponseWriter, r *http.Request) {
	var req addShapeRequest
	if !decode(w, r, &req) {
		return
	}
	kind, err := document.ParseShapeKind(req.Kind)
	if err != nil {
		writeError(w, err)
		return
	}

	var index int
	switch {
	case req.Translation != nil:
		index, err = h.engine.AddShape(kind, *req.Translation)
	case req.X != nil && req.Y != nil:
		index, err = h.engine.AddShapeAt(kind, *req.X, *req.Y)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "x and y, or translation, are required"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("shape added", "kind", kind, "index", index, "session", auth.SessionIDFromContext(r.Context()))
	writeJSON(w, http.StatusCreated, map[string]int{"index": index})
}

func (h *Handler) DeleteShape(w http.ResponseWriter, r *http.Request) {
	index, ok := pathInt(w, r, "index")
	if !ok {
		return
	}
	h.respond(w, h.engine.DeleteShape(index))
}

func (h *Handler) SelectShape(w http.ResponseWriter, r *http.Request) {
	index, ok := pathInt(w, r, "index")
	if !ok {
		return
	}
	h.respond(w, h.engine.SelectShape(index))
}

// --- Selected shape ---

type valueRequest struct {
	Value *float64 `json:"value"`
}

func (h *Handler) SetSelectionField(w http.ResponseWriter, r *http.Request) {
	axis, value, ok := axisValue(w, r)
	if !ok {
		return
	}
	var err error
	switch mux.Vars(r)["field"] {
	case "translation":
		err = h.engine.SetTranslation(axis, value)
	case "rotation":
		err = h.engine.SetRotation(axis, value)
	case "scale":
		err = h.engine.SetScale(axis, value)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown field"})
		return
	}
	h.respond(w, err)
}

func (h *Handler) SetColor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Color string `json:"color"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.engine.SetColor(req.Color))
}

// SetBrushColor picks the color for shapes added later. It works on an
// empty scene, where PUT /selection/color has nothing to paint.
func (h *Handler) SetBrushColor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Color string `json:"color"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.respond(w, h.engine.SetBrushColor(req.Color))
}

// --- Camera ---

func (h *Handler) SetCameraField(w http.ResponseWriter, r *http.Request) {
	axis, value, ok := axisValue(w, r)
	if !ok {
		return
	}
	var err error
	switch mux.Vars(r)["field"] {
	case "translation":
		err = h.engine.SetCameraTranslation(axis, value)
	case "rotation":
		err = h.engine.SetCameraRotation(axis, value)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown field"})
		return
	}
	h.respond(w, err)
}

func (h *Handler) SetLookAtTarget(w http.ResponseWriter, r *http.Request) {
	index, value, ok := indexValue(w, r)
	if !ok {
		return
	}
	h.respond(w, h.engine.SetLookAtTarget(index, value))
}

func (h *Handler) SetLightDirection(w http.ResponseWriter, r *http.Request) {
	index, value, ok := indexValue(w, r)
	if !ok {
		return
	}
	h.respond(w, h.engine.SetLightDirection(index, value))
}

func (h *Handler) SetLookAt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "enabled is required"})
		return
	}
	h.respond(w, h.engine.ToggleLookAt(*req.Enabled))
}

func (h *Handler) SetFieldOfView(w http.ResponseWriter, r *http.Request) {
	value, ok := bodyValue(w, r)
	if !ok {
		return
	}
	h.respond(w, h.engine.SetFieldOfView(value))
}

func (h *Handler) ResetCamera(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.engine.ResetCamera())
}

// --- Animation ---

func (h *Handler) StartAnimation(w http.ResponseWriter, r *http.Request) {
	h.engine.StartAnimation()
	writeJSON(w, http.StatusOK, map[string]bool{"animating": true})
}

func (h *Handler) StopAnimation(w http.ResponseWriter, r *http.Request) {
	h.engine.StopAnimation()
	writeJSON(w, http.StatusOK, map[string]bool{"animating": false})
}

// respond writes the scene after a successful mutation, or the error.
func (h *Handler) respond(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func axisValue(w http.ResponseWriter, r *http.Request) (document.Axis, float64, bool) {
	axis, err := document.ParseAxis(mux.Vars(r)["axis"])
	if err != nil {
		writeError(w, err)
		return 0, 0, false
	}
	value, ok := bodyValue(w, r)
	return axis, value, ok
}

func indexValue(w http.ResponseWriter, r *http.Request) (int, float64, bool) {
	index, ok := pathInt(w, r, "index")
	if !ok {
		return 0, 0, false
	}
	value, ok := bodyValue(w, r)
	return index, value, ok
}

func bodyValue(w http.ResponseWriter, r *http.Request) (float64, bool) {
	var req valueRequest
	if !decode(w, r, &req) {
		return 0, false
	}
	if req.Value == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "value is required"})
		return 0, false
	}
	return *req.Value, true
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name})
		return 0, false
	}
	return n, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrIndexOutOfRange):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrNoSelection):
		status = http.StatusConflict
	case errors.Is(err, document.ErrInvalidAxis),
		errors.Is(err, document.ErrInvalidColorFormat),
		errors.Is(err, document.ErrUnrecognizedShapeKind):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		slog.Error("studio request failed", "error", err)
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
