package engine

import "sync"

// Shader program names. A backend maps them to its own programs.
const (
	VertexShader2D   = "vertex-shader-2d"
	FragmentShader2D = "fragment-shader-2d"
	VertexShader3D   = "vertex-shader-3d"
	FragmentShader3D = "fragment-shader-3d"
)

// Backend is the rasterizer the pipeline drives. Matrices are column-major
// with 9 (2D) or 16 (3D) entries. Draw consumes the vertices and uniforms set
// since the previous Draw.
type Backend interface {
	CompileProgram(vertexShader, fragmentShader string) error
	SetViewport(width, height int)
	Clear(depth bool)
	SubmitVertices(positions []float64)
	SubmitNormals(normals []float64)
	SetTransformUniform(matrix []float64)
	SetNormalMatrixUniform(matrix []float64)
	SetLightDirectionUniform(direction [3]float64)
	SetColorUniform(r, g, b, a float64)
	Draw(triangleCount int) error
}

// NopBackend discards everything. It lets the engine run headless, e.g. when
// draw commands are shipped to a browser.
type NopBackend struct{}

func (NopBackend) CompileProgram(string, string) error { return nil }
func (NopBackend) SetViewport(int, int)                {}
func (NopBackend) Clear(bool)                          {}
func (NopBackend) SubmitVertices([]float64)            {}
func (NopBackend) SubmitNormals([]float64)             {}
func (NopBackend) SetTransformUniform([]float64)       {}
func (NopBackend) SetNormalMatrixUniform([]float64)    {}
func (NopBackend) SetLightDirectionUniform([3]float64) {}
func (NopBackend) SetColorUniform(_, _, _, _ float64)  {}
func (NopBackend) Draw(int) error                      { return nil }

// BackendCall is one recorded Backend invocation.
type BackendCall struct {
	Method string
	Args   []any
}

// RecordingBackend keeps every call it receives, in order.
type RecordingBackend struct {
	mu    sync.Mutex
	calls []BackendCall
}

func (r *RecordingBackend) record(method string, args ...any) {
	r.mu.Lock()
	r.calls = append(r.calls, BackendCall{Method: method, Args: args})
	r.mu.Unlock()
}

// Calls returns a copy of the recorded calls.
func (r *RecordingBackend) Calls() []BackendCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]BackendCall(nil), r.calls...)
}

// Methods returns the recorded method names in order.
func (r *RecordingBackend) Methods() []string {
	calls := r.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Method
	}
	return out
}

func (r *RecordingBackend) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

func (r *RecordingBackend) CompileProgram(vs, fs string) error {
	r.record("CompileProgram", vs, fs)
	return nil
}
func (r *RecordingBackend) SetViewport(w, h int) { r.record("SetViewport", w, h) }
func (r *RecordingBackend) Clear(depth bool)     { r.record("Clear", depth) }
func (r *RecordingBackend) SubmitVertices(p []float64) {
	r.record("SubmitVertices", append([]float64(nil), p...))
}
func (r *RecordingBackend) SubmitNormals(n []float64) {
	r.record("SubmitNormals", append([]float64(nil), n...))
}
func (r *RecordingBackend) SetTransformUniform(m []float64) {
	r.record("SetTransformUniform", append([]float64(nil), m...))
}
func (r *RecordingBackend) SetNormalMatrixUniform(m []float64) {
	r.record("SetNormalMatrixUniform", append([]float64(nil), m...))
}
func (r *RecordingBackend) SetLightDirectionUniform(d [3]float64) {
	r.record("SetLightDirectionUniform", d)
}
func (r *RecordingBackend) SetColorUniform(red, green, blue, alpha float64) {
	r.record("SetColorUniform", red, green, blue, alpha)
}
func (r *RecordingBackend) Draw(triangles int) error {
	r.record("Draw", triangles)
	return nil
}
