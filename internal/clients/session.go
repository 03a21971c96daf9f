package clients

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// clientEvent is what a window reports upward: navigations and focus changes.
type clientEvent struct {
	Type    string `json:"type"`
	URL     string `json:"url,omitempty"`
	Focused bool   `json:"focused,omitempty"`
}

// Session pumps messages between one websocket connection and its registry
// entry.
type Session struct {
	registry *Registry
	client   *Client
	conn     *websocket.Conn
	logg     *logger.Logger
}

// NewSession attaches a connection to a registered client.
func NewSession(registry *Registry, client *Client, conn *websocket.Conn, logg *logger.Logger) *Session {
	return &Session{registry: registry, client: client, conn: conn, logg: logg}
}

// Run drives both pumps until the connection drops or the context ends. The
// client is deregistered on the way out.
func (s *Session) Run(ctx context.Context) {
	defer func() {
		s.registry.Deregister(s.client.ID)
		_ = s.conn.Close()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.readPump(ctx)
	}()
	s.writePump(ctx, done)
}

func (s *Session) readPump(ctx context.Context) {
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var event clientEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			s.logg.Warn(s.logg.WithClientID(ctx, s.client.ID), "dropping malformed client event")
			continue
		}
		switch event.Type {
		case "NAVIGATE":
			s.registry.UpdateLocation(s.client.ID, event.URL)
		case "FOCUS_STATE":
			s.registry.SetFocus(s.client.ID, event.Focused)
		}
	}
}

func (s *Session) writePump(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case msg, ok := <-s.client.Messages():
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
