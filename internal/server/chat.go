// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package server

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/burrowspace/burrow/internal/access"
	"github.com/burrowspace/burrow/internal/geometry"
	"github.com/burrowspace/burrow/internal/observability"
	"github.com/burrowspace/burrow/internal/wire"
	"github.com/burrowspace/burrow/internal/world"
)

// Spatial chat reach.
const (
	// whisperRadius bounds who hears a whisper, regardless of the
	// area's region policy.
	whisperRadius = 2.0

	// voiceDistance is the spatial attenuation radius clients apply to
	// user-originated voice chunks.
	voiceDistance = 16.0
)

// handleChatUser fans a chat message out to everyone the sender can
// reach. Say obeys the area's region policy, whisper reaches only
// adjacent users and shout carries through the whole room.
func (h *Handler) handleChatUser(u *world.User, p *wire.ChatUser) {
	loc := u.Location()
	if loc == nil {
		h.countPacket("chat_user", observability.StatusDenied)
		return
	}
	if h.isMuted(loc.RoomID, u.ID) {
		h.countPacket("chat_user", observability.StatusDenied)
		u.Send(&wire.ChatInfo{MessageKey: "chat.muted", Timestamp: time.Now()})
		return
	}
	if !h.roles.HasPermission(u.ID, loc.RoomID, access.PermChatText) {
		h.countPacket("chat_user", observability.StatusDenied)
		return
	}

	id := u.ID
	out := &wire.ChatUser{
		Type:      p.Type,
		SenderID:  &id,
		Text:      p.Text,
		Timestamp: time.Now(),
	}

	for _, other := range h.tree.UsersIn(loc.RoomID) {
		if other.ID == u.ID || other.HasIgnored(u.ID) {
			continue
		}
		if !h.chatReaches(u, other, p.Type) {
			continue
		}
		other.Send(out)
	}
	u.Send(out)

	if h.bots != nil {
		h.deliverChatToBots(u, loc, p)
	}
	h.countPacket("chat_user", observability.StatusSuccess)
}

// chatReaches applies the reach rules of one chat type between two
// users in the same room.
func (h *Handler) chatReaches(from, to *world.User, t wire.ChatType) bool {
	fromLoc := from.Location()
	toLoc := to.Location()
	if fromLoc == nil || toLoc == nil {
		return false
	}
	switch t {
	case wire.ChatWhisper:
		return fromLoc.DistanceTo(*toLoc) <= whisperRadius
	case wire.ChatShout:
		return fromLoc.RoomID == toLoc.RoomID
	default:
		return h.tree.CanCommunicate(from, to, world.MediumText)
	}
}

// deliverChatToBots hands the message to the bots that can hear it.
// Whispers are the bot command channel.
func (h *Handler) deliverChatToBots(u *world.User, loc *geometry.Location, p *wire.ChatUser) {
	isWhisper := p.Type == wire.ChatWhisper
	for _, other := range h.tree.UsersIn(loc.RoomID) {
		if other.ID == u.ID {
			continue
		}
		b, ok := h.bots.Get(other.ID)
		if !ok {
			continue
		}
		if !h.chatReaches(u, other, p.Type) {
			continue
		}
		b.HandleChat(u, p.Text, isWhisper)
	}
}

// handleAudioMessage rebroadcasts a voice chunk to everyone in voice
// range, stamped with the sender's position for spatial playback.
func (h *Handler) handleAudioMessage(u *world.User, p *wire.AudioMessage) {
	loc := u.Location()
	if loc == nil {
		h.countPacket("audio_message", observability.StatusDenied)
		return
	}
	if h.isMuted(loc.RoomID, u.ID) {
		h.countPacket("audio_message", observability.StatusDenied)
		return
	}

	id := u.ID
	now := time.Now()
	x, y := loc.Position.X, loc.Position.Y
	dist := voiceDistance
	out := &wire.AudioMessage{
		SenderID:  &id,
		Timestamp: &now,
		Payload:   p.Payload,
		PosX:      &x,
		PosY:      &y,
		Distance:  &dist,
	}

	for _, other := range h.tree.UsersIn(loc.RoomID) {
		if other.ID == u.ID || other.HasIgnored(u.ID) {
			continue
		}
		if !h.tree.CanCommunicate(u, other, world.MediumVoice) {
			continue
		}
		other.Send(out)
	}

	if h.metrics != nil {
		h.metrics.AudioBytesTotal.Add(float64(len(p.Payload)))
	}
	h.countPacket("audio_message", observability.StatusSuccess)
}

// handleUserTyping rebroadcasts the typing signal to the sender's room.
func (h *Handler) handleUserTyping(u *world.User) {
	loc := u.Location()
	if loc == nil {
		return
	}
	id := u.ID
	h.broadcast.ToRoomExcept(loc.RoomID, u.ID, &wire.UserTyping{SenderID: &id})
	h.countPacket("user_typing", observability.StatusSuccess)
}

// handleNotificationReply resolves a pending notification on behalf of
// its receiver.
func (h *Handler) handleNotificationReply(sess *Session, u *world.User, p *wire.NotificationReply) {
	var err error
	if p.Accept {
		err = h.notifications.Accept(p.NotificationID, u.ID)
	} else {
		err = h.notifications.Decline(p.NotificationID, u.ID)
	}
	if err != nil {
		h.countPacket("notification_reply", observability.StatusError)
		if msg := failureMessage(err); msg != nil {
			sess.Send(&wire.ChatInfo{MessageKey: *msg, Timestamp: time.Now()}) //nolint:errcheck
		}
		return
	}
	h.countPacket("notification_reply", observability.StatusSuccess)
}

// handleContextInteract begins an interaction with an object context.
func (h *Handler) handleContextInteract(sess *Session, u *world.User, p *wire.ContextInteract) {
	c, err := h.tree.Get(p.ContextID)
	if err == nil && c.Object == nil {
		err = errNotInteractable(p.ContextID)
	}
	if err == nil {
		err = c.Object.Interact(u)
	}
	if err != nil {
		h.countPacket("context_interact", observability.StatusError)
		if msg := failureMessage(err); msg != nil {
			sess.Send(&wire.ChatInfo{MessageKey: *msg, Timestamp: time.Now()}) //nolint:errcheck
		}
		return
	}
	h.countPacket("context_interact", observability.StatusSuccess)
}

// handleMenuOption executes one menu action and echoes the outcome.
func (h *Handler) handleMenuOption(sess *Session, u *world.User, p *wire.MenuOption) {
	c, err := h.tree.Get(p.ContextID)
	if err == nil && c.Object == nil {
		err = errNotInteractable(p.ContextID)
	}
	if err == nil {
		err = c.Object.ExecuteMenuOption(u, p.Option, p.Arguments)
	}

	status := observability.StatusSuccess
	if err != nil {
		status = observability.StatusError
	}
	h.countPacket("menu_option", status)

	//nolint:errcheck // response loss surfaces as connection teardown
	sess.Send(&wire.MenuOptionResponse{
		ContextID: p.ContextID,
		Arguments: p.Arguments,
		Option:    p.Option,
		Message:   failureMessage(err),
		Success:   err == nil,
	})
}

func errNotInteractable(id ulid.ULID) error {
	return oops.Code("NOT_INTERACTABLE").
		With("context_id", id.String()).
		Errorf("context %s is not interactable", id)
}
