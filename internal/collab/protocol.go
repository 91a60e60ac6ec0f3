package collab

import (
	"encoding/json"

	"github.com/inamate/shapelab/internal/document"
	"github.com/inamate/shapelab/internal/engine"
)

type Message struct {
	Type     string          `json:"type"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   *int       `json:"selection,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

type WelcomePayload struct {
	ClientID    string           `json:"clientId"`
	UserID      string           `json:"userId"`
	DisplayName string           `json:"displayName"`
	ServerSeq   int64            `json:"serverSeq"`
	Scene       *engine.Snapshot `json:"scene"`
}

// SceneStatePayload is sent after every render so followers stay in sync.
type SceneStatePayload struct {
	FrameSeq  int64            `json:"frameSeq"`
	ServerSeq int64            `json:"serverSeq"`
	Scene     *engine.Snapshot `json:"scene"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Scene sync
	TypeSceneState = "scene.state"

	// Operation message types
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

// Operation types
const (
	OpShapeAdd        = "shape.add"
	OpShapeDelete     = "shape.delete"
	OpShapeSelect     = "shape.select"
	OpShapeTransform  = "shape.transform"
	OpShapeColor      = "shape.color"
	OpCameraTransform = "camera.transform"
	OpCameraTarget    = "camera.target"
	OpCameraLight     = "camera.light"
	OpCameraLookAt    = "camera.lookat"
	OpCameraFOV       = "camera.fov"
)

// Operation is one scene mutation submitted by a client. Only the fields its
// type needs are set.
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	ClientSeq int64  `json:"clientSeq"`

	// Target shape for shape.delete, shape.select and, when set, the shape
	// selected before shape.transform / shape.color. Vector component for
	// camera.target and camera.light.
	Index *int `json:"index,omitempty"`

	// For shape.add: either a canvas click or an explicit translation.
	Kind        string         `json:"kind,omitempty"`
	Click       *CursorPos     `json:"click,omitempty"`
	Translation *document.Vec3 `json:"translation,omitempty"`

	// For shape.transform / camera.transform: "translation", "rotation" or
	// "scale", and "x", "y" or "z".
	Field string   `json:"field,omitempty"`
	Axis  string   `json:"axis,omitempty"`
	Value *float64 `json:"value,omitempty"`

	// For shape.color
	Color string `json:"color,omitempty"`

	// For camera.lookat
	Enabled *bool `json:"enabled,omitempty"`
}

// OperationSubmitPayload is the payload for op.submit messages
type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages
type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
	// Index of the added shape for shape.add.
	Index *int `json:"index,omitempty"`
}

// OperationNackPayload is the payload for op.nack messages
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload is the payload for op.broadcast messages
type OperationBroadcastPayload struct {
	Operation Operation `json:"operation"`
	UserID    string    `json:"userId"`
	ServerSeq int64     `json:"serverSeq"`
}

func newMessage(msgType string, payload any) *Message {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("null")
	}
	return &Message{Type: msgType, Payload: data}
}
