// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/burrowspace/burrow/internal/access"
	"github.com/burrowspace/burrow/internal/account"
	"github.com/burrowspace/burrow/internal/bot"
	"github.com/burrowspace/burrow/internal/interact"
	"github.com/burrowspace/burrow/internal/logging"
	"github.com/burrowspace/burrow/internal/notify"
	"github.com/burrowspace/burrow/internal/observability"
	"github.com/burrowspace/burrow/internal/store"
	"github.com/burrowspace/burrow/internal/wire"
	"github.com/burrowspace/burrow/internal/world"
)

// ReportSink persists moderation reports. Satisfied by
// store.ReportRepository; nil disables persistence.
type ReportSink interface {
	Create(ctx context.Context, rep *store.Report) error
}

// Handler maps inbound packets onto world operations. All dispatch
// happens in a single type switch; response and broadcast packets flow
// back through the session and the broadcaster.
type Handler struct {
	tree          *world.Tree
	roles         *access.Resolver
	notifications *notify.Service
	accounts      *account.Service
	bots          *bot.Manager
	sessions      *SessionManager
	broadcast     *Broadcaster
	metrics       *observability.Metrics
	reports       ReportSink
	ownerName     string
	tracer        trace.Tracer

	mu     sync.Mutex
	muted  map[ulid.ULID]map[ulid.ULID]struct{} // roomID → muted user ids
	banned map[ulid.ULID]map[ulid.ULID]struct{} // contextID → banned user ids
}

// HandlerConfig bundles the handler's dependencies.
type HandlerConfig struct {
	Tree          *world.Tree
	Roles         *access.Resolver
	Notifications *notify.Service
	Accounts      *account.Service
	Bots          *bot.Manager
	Sessions      *SessionManager
	Broadcast     *Broadcaster
	Metrics       *observability.Metrics
	Reports       ReportSink

	// OwnerName, when set, grants the Owner role at the root to the
	// matching account on login.
	OwnerName string
}

// NewHandler creates a packet handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		tree:          cfg.Tree,
		roles:         cfg.Roles,
		notifications: cfg.Notifications,
		accounts:      cfg.Accounts,
		bots:          cfg.Bots,
		sessions:      cfg.Sessions,
		broadcast:     cfg.Broadcast,
		metrics:       cfg.Metrics,
		reports:       cfg.Reports,
		ownerName:     cfg.OwnerName,
		tracer:        otel.Tracer("burrow/server"),
		muted:         make(map[ulid.ULID]map[ulid.ULID]struct{}),
		banned:        make(map[ulid.ULID]map[ulid.ULID]struct{}),
	}
}

// HandleFrame decodes and dispatches one inbound frame.
func (h *Handler) HandleFrame(sess *Session, frame []byte) {
	if !sess.Allow() {
		h.countPacket("unknown", observability.StatusDenied)
		return
	}

	p, err := wire.Decode(frame)
	if err != nil {
		if h.metrics != nil {
			h.metrics.PacketFailures.WithLabelValues(errCode(err)).Inc()
		}
		slog.Warn("dropping undecodable frame",
			"session_id", sess.ID.String(),
			"error", err,
		)
		return
	}

	kind := packetName(p)
	ctx, span := h.tracer.Start(context.Background(), "packet."+kind,
		trace.WithAttributes(attribute.String("packet.kind", kind)),
	)
	defer span.End()
	ctx = logging.ContextWith(ctx,
		slog.String("session_id", sess.ID.String()),
		slog.String("packet", kind),
	)

	start := time.Now()
	h.dispatch(ctx, sess, p)
	if h.metrics != nil {
		h.metrics.PacketDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}
}

// dispatch is the single tagged dispatch point for all packet kinds.
func (h *Handler) dispatch(ctx context.Context, sess *Session, p wire.Packet) {
	// Before authentication only the handshake and profile actions are
	// legal; everything else is dropped.
	u := sess.User()
	if u == nil {
		switch pk := p.(type) {
		case *wire.Hello:
			h.handleHello(sess, pk)
		case *wire.ProfileAction:
			h.handleProfileAction(ctx, sess, pk)
		default:
			h.countPacket(packetName(p), observability.StatusDenied)
		}
		return
	}

	switch pk := p.(type) {
	case *wire.Hello:
		h.handleHello(sess, pk)
	case *wire.ProfileAction:
		h.handleProfileAction(ctx, sess, pk)
	case *wire.WorldAction:
		h.handleWorldAction(sess, u, pk)
	case *wire.ContextInteract:
		h.handleContextInteract(sess, u, pk)
	case *wire.MenuOption:
		h.handleMenuOption(sess, u, pk)
	case *wire.UserMove:
		h.handleUserMove(u, pk)
	case *wire.UserManage:
		h.handleUserManage(ctx, sess, u, pk)
	case *wire.NotificationReply:
		h.handleNotificationReply(sess, u, pk)
	case *wire.ChatUser:
		h.handleChatUser(u, pk)
	case *wire.AudioMessage:
		h.handleAudioMessage(u, pk)
	case *wire.UserTyping:
		h.handleUserTyping(u)
	default:
		// Server-to-client kinds arriving inbound are protocol misuse.
		h.countPacket(packetName(p), observability.StatusDenied)
		slog.WarnContext(ctx, "client sent server-only packet")
	}
}

// handleHello answers the protocol handshake.
func (h *Handler) handleHello(sess *Session, p *wire.Hello) {
	resp := &wire.HelloResponse{ServerVersion: wire.ProtocolVersion, Success: true}
	if err := wire.CheckVersion(p.Version); err != nil {
		resp.Success = false
		resp.Message = failureMessage(err)
		h.countPacket("hello", observability.StatusError)
	} else {
		h.countPacket("hello", observability.StatusSuccess)
	}
	//nolint:errcheck // handshake failure surfaces as connection teardown
	sess.Send(resp)
}

// Disconnected cleans up after a session's read pump exits: the user is
// logged out, removed from the world and their departure broadcast.
func (h *Handler) Disconnected(sess *Session) {
	h.sessions.Remove(sess)
	u := sess.User()
	if u == nil {
		return
	}
	h.detachUser(u)
}

// detachUser removes the user from the world, abandoning any open
// interaction and announcing the departure to their room.
func (h *Handler) detachUser(u *world.User) {
	if cur := u.CurrentInteractable(); cur != nil {
		u.EndInteraction(cur)
	}
	loc := u.Location()
	u.Logout()
	h.tree.RemoveUser(u.ID)
	if loc != nil {
		h.broadcast.ToRoomExcept(loc.RoomID, u.ID, &wire.UserInfo{
			UserID: u.ID,
			Action: wire.UserInfoRemove,
		})
	}
}

// countPacket records a packet handling outcome.
func (h *Handler) countPacket(kind, status string) {
	if h.metrics != nil {
		h.metrics.PacketsTotal.WithLabelValues(kind, status).Inc()
	}
}

// packetName returns a short label for metrics and spans.
func packetName(p wire.Packet) string {
	switch p.(type) {
	case *wire.Hello:
		return "hello"
	case *wire.ProfileAction:
		return "profile_action"
	case *wire.WorldAction:
		return "world_action"
	case *wire.ContextInteract:
		return "context_interact"
	case *wire.MenuOption:
		return "menu_option"
	case *wire.UserMove:
		return "user_move"
	case *wire.UserManage:
		return "user_manage"
	case *wire.NotificationReply:
		return "notification_reply"
	case *wire.ChatUser:
		return "chat_user"
	case *wire.AudioMessage:
		return "audio_message"
	case *wire.UserTyping:
		return "user_typing"
	default:
		return "other"
	}
}

// failureMessage converts an error into a client-facing message token:
// the localizable message key when one is attached, the error code
// otherwise.
func failureMessage(err error) *string {
	if err == nil {
		return nil
	}
	if key, _, ok := interact.MessageKey(err); ok {
		return &key
	}
	if code := errCode(err); code != "" {
		return &code
	}
	msg := "internal_error"
	return &msg
}

// errCode extracts the oops error code, or "internal_error".
func errCode(err error) string {
	var oopsErr oops.OopsError
	if errors.As(err, &oopsErr) {
		if code, ok := oopsErr.Code().(string); ok && code != "" {
			return code
		}
	}
	return "internal_error"
}
