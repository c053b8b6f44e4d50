// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

// Package server is the network front of burrow: the websocket gateway,
// per-connection sessions, the room broadcaster and the packet handler
// that maps inbound packets onto world operations.
package server

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"golang.org/x/time/rate"

	"github.com/burrowspace/burrow/internal/wire"
	"github.com/burrowspace/burrow/internal/world"
)

const (
	// timeout for writing one frame to the websocket.
	writeWait = 10 * time.Second

	// maximum time to wait for a pong before the connection is dead.
	pongWait = 60 * time.Second

	// ping frequency; must be below pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maximum inbound frame size. Voice chunks dominate.
	maxFrameSize = 64 * 1024

	// outbound queue depth per session.
	sendQueueSize = 256

	// inbound packet rate limit per session.
	packetRate  = 50 // packets per second
	packetBurst = 100
)

// Session is one websocket connection. It becomes a world.Sender once
// the user authenticates.
type Session struct {
	ID ulid.ULID

	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	limiter *rate.Limiter

	mu   sync.RWMutex
	user *world.User

	closeOnce sync.Once
}

// NewSession wraps an upgraded websocket connection.
func NewSession(conn *websocket.Conn) *Session {
	return &Session{
		ID:      ulid.Make(),
		conn:    conn,
		send:    make(chan []byte, sendQueueSize),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(packetRate), packetBurst),
	}
}

// User returns the authenticated user, or nil before login.
func (s *Session) User() *world.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// SetUser binds the authenticated user to the session.
func (s *Session) SetUser(u *world.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

// Send implements world.Sender: it encodes the packet and queues it on
// the outbound channel. A full queue drops the packet; a session that
// cannot keep up loses world updates rather than stalling the world.
func (s *Session) Send(p wire.Packet) error {
	frame, err := wire.Encode(p)
	if err != nil {
		slog.Warn("dropping unencodable packet",
			"session_id", s.ID.String(),
			"kind", uint8(p.Kind()),
			"error", err,
		)
		return err
	}
	select {
	case <-s.done:
		return oops.Code("SESSION_CLOSED").
			With("session_id", s.ID.String()).
			Errorf("session closed")
	case s.send <- frame:
		return nil
	default:
		slog.Warn("session send queue full, dropping packet",
			"session_id", s.ID.String(),
			"kind", uint8(p.Kind()),
		)
		return oops.Code("SEND_QUEUE_FULL").
			With("session_id", s.ID.String()).
			Errorf("send queue full")
	}
}

// Allow reports whether the session is within its inbound rate limit.
func (s *Session) Allow() bool {
	return s.limiter.Allow()
}

// readPump reads binary frames until the connection dies and hands each
// one to handle. It owns connection cleanup.
func (s *Session) readPump(handle func(frame []byte)) {
	defer s.closeConn()

	s.conn.SetReadLimit(maxFrameSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Error("failed to set read deadline", "session_id", s.ID.String(), "error", err)
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, frame, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Info("session closed unexpectedly", "session_id", s.ID.String(), "error", err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			slog.Warn("session sent non-binary frame", "session_id", s.ID.String())
			continue
		}
		handle(frame)
	}
}

// writePump drains the send queue to the websocket and keeps the
// heartbeat alive.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.closeConn()
	}()

	for {
		select {
		case <-s.done:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			//nolint:errcheck // connection is going away either way
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case frame := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// closeConn signals shutdown and closes the underlying connection once.
func (s *Session) closeConn() {
	s.closeOnce.Do(func() {
		close(s.done)
		if err := s.conn.Close(); err != nil {
			slog.Debug("session close error", "session_id", s.ID.String(), "error", err)
		}
	})
}
