package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/shapelab/internal/engine"
)

// Hub fans scene changes out to every connected client. All clients share
// one scene.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	state    *SceneState

	register   chan *Client
	unregister chan *Client
}

func NewHub(state *SceneState) *Hub {
	h := &Hub{
		clients:    make(map[string]*Client),
		presence:   NewPresenceManager(),
		state:      state,
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
	state.Engine().OnRender(h.broadcastSceneState)
	return h
}

// Run processes joins and leaves until ctx is done, then disconnects every
// client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

// ClientCount is the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ClientID] = client
	h.mu.Unlock()

	client.Send(newMessage(TypeWelcome, WelcomePayload{
		ClientID:    client.ClientID,
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
		ServerSeq:   h.state.ServerSeq(),
		Scene:       h.state.Engine().Snapshot(),
	}))

	// Send current presence state to new client
	if stateMsg := h.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	// Broadcast join to other clients
	joinMsg := newMessage(TypePresenceJoin, PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg.UserID = client.UserID
	h.broadcast(joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "client", client.ClientID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ClientID)
	client.close()
	h.presence.Remove(client.UserID)
	h.mu.Unlock()

	// Broadcast leave to remaining clients
	leaveMsg := newMessage(TypePresenceLeave, PresenceLeavePayload{UserID: client.UserID})
	leaveMsg.UserID = client.UserID
	h.broadcast(leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "client", client.ClientID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
		sender.Send(newMessage(TypeError, ErrorPayload{Message: "unknown message type " + msg.Type}))
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName
	h.presence.Update(sender.UserID, &presence)

	// Broadcast to other clients
	outMsg := newMessage(TypePresenceUpdate, presence)
	outMsg.UserID = sender.UserID
	h.broadcast(outMsg, sender.ClientID)
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		slog.Warn("invalid op payload", "error", err, "user", sender.UserID)
		sender.Send(newMessage(TypeOpNack, OperationNackPayload{Reason: "invalid payload"}))
		return
	}
	op := submit.Operation

	seq, index, err := h.state.ApplyOperation(op)
	if err != nil {
		slog.Debug("operation rejected", "op", op.ID, "type", op.Type, "error", err)
		sender.Send(newMessage(TypeOpNack, OperationNackPayload{
			OperationID: op.ID,
			Reason:      err.Error(),
		}))
		return
	}

	ack := OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       seq,
		ServerTimestamp: time.Now().UnixMilli(),
	}
	if index >= 0 {
		ack.Index = &index
	}
	if op.Type == OpShapeDelete {
		h.presence.ShapeDeleted(*op.Index)
	}

	ackMsg := newMessage(TypeOpAck, ack)
	ackMsg.Seq = seq
	sender.Send(ackMsg)

	out := newMessage(TypeOpBroadcast, OperationBroadcastPayload{
		Operation: op,
		UserID:    sender.UserID,
		ServerSeq: seq,
	})
	out.UserID = sender.UserID
	out.Seq = seq
	h.broadcast(out, sender.ClientID)
}

// broadcastSceneState runs after every engine render, including animation
// steps.
func (h *Hub) broadcastSceneState(frame engine.Frame, snap *engine.Snapshot) {
	msg := newMessage(TypeSceneState, SceneStatePayload{
		FrameSeq:  frame.Seq,
		ServerSeq: h.state.ServerSeq(),
		Scene:     snap,
	})
	msg.Seq = frame.Seq

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.SendScene(msg)
	}
}

func (h *Hub) broadcast(msg *Message, excludeClientID string) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
