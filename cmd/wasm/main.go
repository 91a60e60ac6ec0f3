//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inamate/shapelab/internal/document"
	"github.com/inamate/shapelab/internal/engine"
)

var (
	eng     *engine.Engine
	onFrame js.Value
)

func main() {
	if err := newEngine(true, 800, 600); err != nil {
		js.Global().Get("console").Call("error", err.Error())
		return
	}

	// Create the engine API object
	shapelabEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	shapelabEngine.Set("init", js.FuncOf(initEngine))
	shapelabEngine.Set("loadSample", js.FuncOf(loadSample))
	shapelabEngine.Set("resize", js.FuncOf(resize))
	shapelabEngine.Set("addShape", js.FuncOf(addShape))
	shapelabEngine.Set("addShapeAt", js.FuncOf(addShapeAt))
	shapelabEngine.Set("deleteShape", js.FuncOf(deleteShape))
	shapelabEngine.Set("selectShape", js.FuncOf(selectShape))
	shapelabEngine.Set("setTranslation", js.FuncOf(axisSetter((*engine.Engine).SetTranslation)))
	shapelabEngine.Set("setRotation", js.FuncOf(axisSetter((*engine.Engine).SetRotation)))
	shapelabEngine.Set("setScale", js.FuncOf(axisSetter((*engine.Engine).SetScale)))
	shapelabEngine.Set("setColor", js.FuncOf(setColor))
	shapelabEngine.Set("setBrushColor", js.FuncOf(setBrushColor))
	shapelabEngine.Set("setCameraTranslation", js.FuncOf(axisSetter((*engine.Engine).SetCameraTranslation)))
	shapelabEngine.Set("setCameraRotation", js.FuncOf(axisSetter((*engine.Engine).SetCameraRotation)))
	shapelabEngine.Set("setLookAtTarget", js.FuncOf(indexSetter((*engine.Engine).SetLookAtTarget)))
	shapelabEngine.Set("setLightDirection", js.FuncOf(indexSetter((*engine.Engine).SetLightDirection)))
	shapelabEngine.Set("toggleLookAt", js.FuncOf(toggleLookAt))
	shapelabEngine.Set("setFieldOfView", js.FuncOf(setFieldOfView))
	shapelabEngine.Set("resetCamera", js.FuncOf(resetCamera))
	shapelabEngine.Set("startAnimation", js.FuncOf(startAnimation))
	shapelabEngine.Set("stopAnimation", js.FuncOf(stopAnimation))
	shapelabEngine.Set("onFrame", js.FuncOf(setOnFrame))

	// --- Queries (frontend ← engine) ---
	shapelabEngine.Set("render", js.FuncOf(render))
	shapelabEngine.Set("getScene", js.FuncOf(getScene))
	shapelabEngine.Set("getSelection", js.FuncOf(getSelection))
	shapelabEngine.Set("isAnimating", js.FuncOf(isAnimating))

	// Register on global scope
	js.Global().Set("shapelabEngine", shapelabEngine)

	// Signal that WASM is ready
	js.Global().Set("shapelabWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// newEngine replaces the package engine, stopping the old one's animation.
func newEngine(is3D bool, width, height int) error {
	opts := engine.DefaultOptions()
	opts.Pipeline.Is3D = is3D
	opts.Width, opts.Height = width, height
	e, err := engine.NewEngine(opts)
	if err != nil {
		return err
	}
	e.OnRender(func(f engine.Frame, _ *engine.Snapshot) {
		if onFrame.Type() != js.TypeFunction {
			return
		}
		out, err := engine.FrameToJSON(f)
		if err != nil {
			return
		}
		onFrame.Invoke(out)
	})
	if eng != nil {
		eng.StopAnimation()
	}
	eng = e
	return nil
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func missing(what string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": "missing " + what})
}

// --- Command Handlers ---

// initEngine handles init(mode, width, height), mode being "2d" or "3d".
func initEngine(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return missing("mode, width and height")
	}
	return result(newEngine(args[0].String() != "2d", args[1].Int(), args[2].Int()))
}

func loadSample(this js.Value, args []js.Value) interface{} {
	return result(eng.LoadSample())
}

func resize(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("width and height")
	}
	return result(eng.Resize(args[0].Int(), args[1].Int()))
}

// addShape handles addShape(kind, translationJSON).
func addShape(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("kind and translation")
	}
	kind, err := document.ParseShapeKind(args[0].String())
	if err != nil {
		return result(err)
	}
	var translation document.Vec3
	if err := json.Unmarshal([]byte(args[1].String()), &translation); err != nil {
		return result(err)
	}
	index, err := eng.AddShape(kind, translation)
	if err != nil {
		return result(err)
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "index": index})
}

func addShapeAt(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return missing("kind and click position")
	}
	kind, err := document.ParseShapeKind(args[0].String())
	if err != nil {
		return result(err)
	}
	index, err := eng.AddShapeAt(kind, args[1].Float(), args[2].Float())
	if err != nil {
		return result(err)
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "index": index})
}

func deleteShape(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("index")
	}
	return result(eng.DeleteShape(args[0].Int()))
}

func selectShape(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("index")
	}
	return result(eng.SelectShape(args[0].Int()))
}

// axisSetter binds a method expression so it follows engine replacement by
// init.
func axisSetter(set func(*engine.Engine, document.Axis, float64) error) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 2 {
			return missing("axis and value")
		}
		axis, err := document.ParseAxis(args[0].String())
		if err != nil {
			return result(err)
		}
		return result(set(eng, axis, args[1].Float()))
	}
}

func indexSetter(set func(*engine.Engine, int, float64) error) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 2 {
			return missing("index and value")
		}
		return result(set(eng, args[0].Int(), args[1].Float()))
	}
}

func setColor(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("color")
	}
	return result(eng.SetColor(args[0].String()))
}

func setBrushColor(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("color")
	}
	return result(eng.SetBrushColor(args[0].String()))
}

func toggleLookAt(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("enabled")
	}
	return result(eng.ToggleLookAt(args[0].Bool()))
}

func setFieldOfView(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("degrees")
	}
	return result(eng.SetFieldOfView(args[0].Float()))
}

func resetCamera(this js.Value, args []js.Value) interface{} {
	return result(eng.ResetCamera())
}

func startAnimation(this js.Value, args []js.Value) interface{} {
	eng.StartAnimation()
	return nil
}

func stopAnimation(this js.Value, args []js.Value) interface{} {
	eng.StopAnimation()
	return nil
}

// setOnFrame registers the callback that receives every rendered frame as
// JSON, including animation ticks.
func setOnFrame(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		onFrame = js.Undefined()
		return nil
	}
	onFrame = args[0]
	return nil
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.RenderJSON())
}

func getScene(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(eng.Snapshot())
	if err != nil {
		return js.ValueOf("{}")
	}
	return js.ValueOf(string(data))
}

func getSelection(this js.Value, args []js.Value) interface{} {
	state, err := eng.SelectionState()
	if err != nil {
		return js.ValueOf("null")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return js.ValueOf("null")
	}
	return js.ValueOf(string(data))
}

func isAnimating(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Animating())
}
