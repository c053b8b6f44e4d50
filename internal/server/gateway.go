// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/oops"
)

// Gateway accepts websocket connections and runs a session per
// connection until the process shuts down.
type Gateway struct {
	addr     string
	handler  *Handler
	sessions *SessionManager
	upgrader websocket.Upgrader

	mu         sync.Mutex
	listener   net.Listener
	httpServer *http.Server
	wg         sync.WaitGroup
}

// NewGateway creates a gateway listening on addr.
func NewGateway(addr string, handler *Handler, sessions *SessionManager) *Gateway {
	return &Gateway{
		addr:     addr,
		handler:  handler,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// Start begins accepting connections. It returns an error channel that
// receives any serve failure; the channel closes on graceful stop.
func (g *Gateway) Start() (<-chan error, error) {
	listener, err := net.Listen("tcp", g.addr)
	if err != nil {
		return nil, oops.Code("GATEWAY_LISTEN_FAILED").
			With("addr", g.addr).
			Wrap(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.handleWS)

	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.mu.Lock()
	g.listener = listener
	g.httpServer = httpSrv
	g.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("gateway serve error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	slog.Info("gateway started", "addr", listener.Addr().String())
	return errCh, nil
}

// Addr returns the listening address, or empty before Start.
func (g *Gateway) Addr() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listener != nil {
		return g.listener.Addr().String()
	}
	return ""
}

// Stop shuts the gateway down and waits for session goroutines to
// drain.
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	httpSrv := g.httpServer
	g.mu.Unlock()

	if httpSrv != nil {
		if err := httpSrv.Shutdown(ctx); err != nil {
			return oops.With("operation", "shutdown_gateway").Wrap(err)
		}
	}
	// Shutdown does not touch hijacked websocket connections.
	for _, s := range g.sessions.All() {
		s.closeConn()
	}
	g.wg.Wait()
	slog.Info("gateway stopped")
	return nil
}

// handleWS upgrades one HTTP request into a session and runs its pumps.
func (g *Gateway) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sess := NewSession(conn)
	g.sessions.Add(sess)
	if m := g.handler.metrics; m != nil {
		m.SessionsActive.Inc()
	}
	slog.Info("session opened",
		"session_id", sess.ID.String(),
		"remote", r.RemoteAddr,
	)

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		sess.writePump()
	}()

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		sess.readPump(func(frame []byte) {
			g.handler.HandleFrame(sess, frame)
		})
		g.handler.Disconnected(sess)
		if m := g.handler.metrics; m != nil {
			m.SessionsActive.Dec()
		}
		slog.Info("session closed", "session_id", sess.ID.String())
	}()
}
