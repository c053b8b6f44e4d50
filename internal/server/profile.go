// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package server

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/oops"

	"github.com/burrowspace/burrow/internal/access"
	"github.com/burrowspace/burrow/internal/observability"
	"github.com/burrowspace/burrow/internal/wire"
	"github.com/burrowspace/burrow/internal/world"
)

// handleProfileAction runs one account operation and answers with a
// ProfileActionResponse.
func (h *Handler) handleProfileAction(ctx context.Context, sess *Session, p *wire.ProfileAction) {
	var err error
	switch p.Action {
	case wire.ProfileRegister:
		err = h.profileRegister(ctx, p)
	case wire.ProfileLogin:
		err = h.profileLogin(ctx, sess, p)
	case wire.ProfileLogout:
		err = h.profileLogout(sess)
	case wire.ProfileChangePassword:
		err = h.profileChangePassword(ctx, sess, p)
	case wire.ProfileChangeAvatar:
		err = h.profileChangeAvatar(ctx, sess, p)
	case wire.ProfileDelete:
		err = h.profileDelete(ctx, sess, p)
	default:
		err = oops.Code("UNKNOWN_PROFILE_ACTION").
			With("action", uint8(p.Action)).
			Errorf("unknown profile action %d", p.Action)
	}

	status := observability.StatusSuccess
	if err != nil {
		status = observability.StatusError
		slog.DebugContext(ctx, "profile action failed",
			"action", uint8(p.Action),
			"error", err,
		)
	}
	h.countPacket("profile_action", status)

	//nolint:errcheck // response loss surfaces as connection teardown
	sess.Send(&wire.ProfileActionResponse{
		Action:  p.Action,
		Message: failureMessage(err),
		Success: err == nil,
	})
}

func (h *Handler) profileRegister(ctx context.Context, p *wire.ProfileAction) error {
	if p.Name == nil || p.Password == nil {
		return errMissingField("name or password")
	}
	_, err := h.accounts.Register(ctx, *p.Name, *p.Password)
	return err
}

// profileLogin authenticates the account and binds a world user to the
// session. A concurrent session for the same account is displaced.
func (h *Handler) profileLogin(ctx context.Context, sess *Session, p *wire.ProfileAction) error {
	if p.Name == nil || p.Password == nil {
		return errMissingField("name or password")
	}
	if sess.User() != nil {
		return oops.Code("ALREADY_LOGGED_IN").Errorf("session already logged in")
	}

	acc, err := h.accounts.Login(ctx, *p.Name, *p.Password)
	if err != nil {
		return err
	}

	if displaced := h.sessions.Bind(acc.ID, sess); displaced != nil {
		slog.Info("displacing concurrent session",
			"account_id", acc.ID.String(),
			"old_session_id", displaced.ID.String(),
		)
		if old := displaced.User(); old != nil {
			h.detachUser(old)
		}
		displaced.SetUser(nil)
		displaced.closeConn()
	}

	u := world.NewUserWithID(acc.ID, acc.Name)
	u.SetAvatar(acc.Avatar)
	u.Login(sess)
	h.tree.AddUser(u)
	h.roles.Assign(u.ID, h.tree.Root().ID, access.RoleMember)
	if h.ownerName != "" && strings.EqualFold(acc.Name, h.ownerName) {
		h.roles.Assign(u.ID, h.tree.Root().ID, access.RoleOwner)
	}
	sess.SetUser(u)

	// Push pending notifications missed while offline.
	for _, n := range h.notifications.PendingFor(u.ID) {
		h.broadcast.Deliver(u.ID, n)
	}
	return nil
}

func (h *Handler) profileLogout(sess *Session) error {
	u := sess.User()
	if u == nil {
		return errNotLoggedIn()
	}
	h.detachUser(u)
	sess.SetUser(nil)
	h.sessions.Remove(sess)
	h.sessions.Add(sess)
	return nil
}

func (h *Handler) profileChangePassword(ctx context.Context, sess *Session, p *wire.ProfileAction) error {
	u := sess.User()
	if u == nil {
		return errNotLoggedIn()
	}
	if p.Password == nil || p.NewPassword == nil {
		return errMissingField("password or new password")
	}
	return h.accounts.ChangePassword(ctx, u.ID, *p.Password, *p.NewPassword)
}

// profileChangeAvatar updates the stored avatar and announces the new
// look to the user's room.
func (h *Handler) profileChangeAvatar(ctx context.Context, sess *Session, p *wire.ProfileAction) error {
	u := sess.User()
	if u == nil {
		return errNotLoggedIn()
	}
	if p.Avatar == nil {
		return errMissingField("avatar")
	}
	if err := h.accounts.ChangeAvatar(ctx, u.ID, *p.Avatar); err != nil {
		return err
	}
	u.SetAvatar(*p.Avatar)
	if loc := u.Location(); loc != nil {
		avatar := *p.Avatar
		h.broadcast.ToRoom(loc.RoomID, &wire.UserInfo{
			UserID: u.ID,
			Action: wire.UserInfoUpdate,
			Avatar: &avatar,
		})
	}
	return nil
}

func (h *Handler) profileDelete(ctx context.Context, sess *Session, p *wire.ProfileAction) error {
	u := sess.User()
	if u == nil {
		return errNotLoggedIn()
	}
	if p.Password == nil {
		return errMissingField("password")
	}
	if err := h.accounts.Delete(ctx, u.ID, *p.Password); err != nil {
		return err
	}
	h.detachUser(u)
	sess.SetUser(nil)
	return nil
}

func errMissingField(what string) error {
	return oops.Code("MISSING_PACKET_FIELD").
		With("field", what).
		Errorf("missing required field: %s", what)
}

func errNotLoggedIn() error {
	return oops.Code("NOT_LOGGED_IN").Errorf("session is not logged in")
}
