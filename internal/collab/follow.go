package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/coder/websocket"

	"github.com/inamate/shapelab/internal/typeid"
)

var ErrNotConnected = errors.New("not connected")

// Follower mirrors a remote hub's scene. It reconnects with exponential
// backoff until its context is done, and can submit operations on the live
// connection.
type Follower struct {
	url     string
	onScene func(SceneStatePayload)

	// NewBackOff builds the retry policy for each Run.
	NewBackOff func() backoff.BackOff

	mu        sync.Mutex
	conn      *websocket.Conn
	clientSeq int64
}

// NewFollower dials wsURL (e.g. ws://host:8080/ws) with the session token.
func NewFollower(wsURL, token string, onScene func(SceneStatePayload)) (*Follower, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return &Follower{
		url:     u.String(),
		onScene: onScene,
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
	}, nil
}

// Run follows the hub until ctx is done.
func (f *Follower) Run(ctx context.Context) error {
	b := backoff.WithContext(f.NewBackOff(), ctx)
	err := backoff.RetryNotify(func() error {
		return f.session(ctx, b)
	}, b, func(err error, wait time.Duration) {
		slog.Warn("follower disconnected, retrying", "error", err, "wait", wait)
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (f *Follower) session(ctx context.Context, b backoff.BackOff) error {
	conn, _, err := websocket.Dial(ctx, f.url, nil)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return fmt.Errorf("dial: %w", err)
	}
	conn.SetReadLimit(4 * maxMsgSize)
	b.Reset()

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.conn = nil
		f.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	slog.Info("follower connected", "url", f.url)
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("read: %w", err)
		}
		f.handle(data)
	}
}

func (f *Follower) handle(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Warn("follower: invalid message", "error", err)
		return
	}

	switch msg.Type {
	case TypeWelcome:
		var w WelcomePayload
		if err := json.Unmarshal(msg.Payload, &w); err != nil {
			slog.Warn("follower: invalid welcome", "error", err)
			return
		}
		f.onScene(SceneStatePayload{ServerSeq: w.ServerSeq, Scene: w.Scene})
	case TypeSceneState:
		var s SceneStatePayload
		if err := json.Unmarshal(msg.Payload, &s); err != nil {
			slog.Warn("follower: invalid scene state", "error", err)
			return
		}
		f.onScene(s)
	case TypeOpNack:
		var n OperationNackPayload
		_ = json.Unmarshal(msg.Payload, &n)
		slog.Warn("operation rejected", "op", n.OperationID, "reason", n.Reason)
	}
}

// Submit sends op to the hub. ID, timestamp and client sequence are filled
// in when empty.
func (f *Follower) Submit(ctx context.Context, op Operation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		return ErrNotConnected
	}

	f.clientSeq++
	if op.ID == "" {
		op.ID = typeid.NewOpID()
	}
	if op.Timestamp == 0 {
		op.Timestamp = time.Now().UnixMilli()
	}
	op.ClientSeq = f.clientSeq

	data, err := json.Marshal(newMessage(TypeOpSubmit, OperationSubmitPayload{Operation: op}))
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return f.conn.Write(writeCtx, websocket.MessageText, data)
}
