package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/inamate/shapelab/internal/typeid"
)

var (
	ErrUnrecognizedShapeKind = errors.New("unrecognized shape kind")
	ErrInvalidAxis           = errors.New("invalid axis")
)

// NoSelection is the selected index of an empty scene.
const NoSelection = -1

type Color struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
}

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Axis selects one component of a Vec3.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

func (a Axis) Valid() bool {
	return a >= AxisX && a <= AxisZ
}

func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(s) {
	case "x", "0":
		return AxisX, nil
	case "y", "1":
		return AxisY, nil
	case "z", "2":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAxis, s)
}

func (v Vec3) Axis(a Axis) float64 {
	switch a {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}

func (v *Vec3) SetAxis(a Axis, value float64) {
	switch a {
	case AxisX:
		v.X = value
	case AxisY:
		v.Y = value
	default:
		v.Z = value
	}
}

func (v Vec3) Array() [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

// ShapeKind is the closed set of primitives the engine can generate.
type ShapeKind int

const (
	KindRectangle ShapeKind = iota
	KindTriangle
	KindCircle
	KindStar
	KindCube
	KindLetterF
)

var shapeKindNames = [...]string{
	KindRectangle: "RECTANGLE",
	KindTriangle:  "TRIANGLE",
	KindCircle:    "CIRCLE",
	KindStar:      "STAR",
	KindCube:      "CUBE",
	KindLetterF:   "LETTER_F",
}

// ShapeKinds lists every kind in declaration order.
func ShapeKinds() []ShapeKind {
	return []ShapeKind{KindRectangle, KindTriangle, KindCircle, KindStar, KindCube, KindLetterF}
}

func (k ShapeKind) String() string {
	if k.Valid() {
		return shapeKindNames[k]
	}
	return fmt.Sprintf("ShapeKind(%d)", int(k))
}

func (k ShapeKind) Valid() bool {
	return k >= KindRectangle && int(k) < len(shapeKindNames)
}

// Is3D reports whether the kind carries depth and normals.
func (k ShapeKind) Is3D() bool {
	return k == KindCube || k == KindLetterF
}

func ParseShapeKind(s string) (ShapeKind, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for k, n := range shapeKindNames {
		if n == name {
			return ShapeKind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnrecognizedShapeKind, s)
}

func (k ShapeKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *ShapeKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseShapeKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Shape is one primitive in the scene. Rotation angles are in degrees.
type Shape struct {
	ID          string     `json:"id"`
	Kind        ShapeKind  `json:"kind"`
	Center      Vec3       `json:"center"`
	Dimensions  Dimensions `json:"dimensions"`
	Color       Color      `json:"color"`
	Translation Vec3       `json:"translation"`
	Rotation    Vec3       `json:"rotation"`
	Scale       Vec3       `json:"scale"`
}

type ShapeOption func(*Shape)

func WithTranslation(v Vec3) ShapeOption { return func(s *Shape) { s.Translation = v } }
func WithRotation(v Vec3) ShapeOption    { return func(s *Shape) { s.Rotation = v } }
func WithScale(v Vec3) ShapeOption       { return func(s *Shape) { s.Scale = v } }
func WithColor(c Color) ShapeOption      { return func(s *Shape) { s.Color = c } }
func WithCenter(v Vec3) ShapeOption      { return func(s *Shape) { s.Center = v } }
func WithDimensions(d Dimensions) ShapeOption {
	return func(s *Shape) { s.Dimensions = d }
}

// DefaultShapeColor is the color of a shape added without one.
const DefaultShapeColor = "#ff0000"

// NewShape returns a fully initialized shape of the given kind: centered at
// the origin, unit dimensions, red, untranslated, unrotated and scaled by 20
// on every axis. Options override the defaults in order.
func NewShape(kind ShapeKind, opts ...ShapeOption) Shape {
	s := Shape{
		ID:         typeid.NewShapeID(),
		Kind:       kind,
		Dimensions: Dimensions{Width: 1, Height: 1, Depth: 1},
		Color:      MustHexToRGB(DefaultShapeColor),
		Scale:      Vec3{X: 20, Y: 20, Z: 20},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Camera holds the view parameters. Rotation is only used when look-at mode
// is disabled. Angles are in degrees.
type Camera struct {
	Translation    Vec3    `json:"translation"`
	Rotation       Vec3    `json:"rotation"`
	LookAtEnabled  bool    `json:"lookAtEnabled"`
	LookAtTarget   Vec3    `json:"lookAtTarget"`
	Up             Vec3    `json:"up"`
	LightDirection Vec3    `json:"lightDirection"`
	FieldOfView    float64 `json:"fieldOfView"`
}

func DefaultCamera() Camera {
	return Camera{
		Translation:    Vec3{X: -45, Y: -10, Z: -35},
		Rotation:       Vec3{X: 40, Y: 235, Z: 0},
		LookAtEnabled:  true,
		LookAtTarget:   Vec3{X: 5, Y: 5, Z: 5},
		Up:             Vec3{X: 0, Y: 1, Z: 0},
		LightDirection: Vec3{X: 0.4, Y: 0.3, Z: 0.5},
		FieldOfView:    60,
	}
}

// Reset restores the defaults while keeping the configured field of view.
func (c *Camera) Reset() {
	fov := c.FieldOfView
	*c = DefaultCamera()
	if fov > 0 {
		c.FieldOfView = fov
	}
}
