package engine

import (
	"encoding/json"

	"github.com/inamate/shapelab/internal/document"
)

// DrawCommand is one shape's draw call: object-space triangles, the composed
// transform and the uniforms the backend needs to rasterize them.
type DrawCommand struct {
	ShapeID        string             `json:"shapeId"`
	Kind           document.ShapeKind `json:"kind"`
	Positions      []float64          `json:"positions"`
	Normals        []float64          `json:"normals,omitempty"`
	Matrix         []float64          `json:"matrix"`                   // 9 entries in 2D, 16 in 3D
	NormalMatrix   []float64          `json:"normalMatrix,omitempty"`   // lit 3D only
	LightDirection []float64          `json:"lightDirection,omitempty"` // lit 3D only, unit length
	Color          [4]float64         `json:"color"`
	TriangleCount  int                `json:"triangleCount"`
}

// Frame is the output of one render pass. Commands are in scene order.
type Frame struct {
	Seq      int64         `json:"seq"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Is3D     bool          `json:"is3d"`
	Commands []DrawCommand `json:"commands"`
}

// Submit replays the command against a backend.
func (c DrawCommand) Submit(b Backend) error {
	b.SubmitVertices(c.Positions)
	if c.NormalMatrix != nil {
		b.SubmitNormals(c.Normals)
		b.SetNormalMatrixUniform(c.NormalMatrix)
		var dir [3]float64
		copy(dir[:], c.LightDirection)
		b.SetLightDirectionUniform(dir)
	}
	b.SetTransformUniform(c.Matrix)
	b.SetColorUniform(c.Color[0], c.Color[1], c.Color[2], c.Color[3])
	return b.Draw(c.TriangleCount)
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		commands = []DrawCommand{}
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// FrameToJSON serializes a frame to JSON.
func FrameToJSON(f Frame) (string, error) {
	if f.Commands == nil {
		f.Commands = []DrawCommand{}
	}
	data, err := json.Marshal(f)
	if err != nil {
		return "{}", err
	}
	return string(data), nil
}
