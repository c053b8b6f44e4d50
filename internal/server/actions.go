// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/burrowspace/burrow/internal/access"
	"github.com/burrowspace/burrow/internal/geometry"
	"github.com/burrowspace/burrow/internal/observability"
	"github.com/burrowspace/burrow/internal/store"
	"github.com/burrowspace/burrow/internal/wire"
	"github.com/burrowspace/burrow/internal/world"
)

// handleWorldAction runs one world or room operation and answers with a
// WorldActionResponse.
func (h *Handler) handleWorldAction(sess *Session, u *world.User, p *wire.WorldAction) {
	var err error
	switch p.Action {
	case wire.WorldJoin:
		err = h.worldJoin(u, p)
	case wire.WorldLeave:
		err = h.worldLeave(sess, u)
	case wire.WorldCreateRoom:
		err = h.roomCreate(u, p)
	case wire.WorldRemoveRoom:
		err = h.roomRemove(u, p)
	case wire.WorldRenameRoom:
		err = h.roomRename(u, p)
	default:
		err = oops.Code("UNKNOWN_WORLD_ACTION").
			With("action", uint8(p.Action)).
			Errorf("unknown world action %d", p.Action)
	}

	status := observability.StatusSuccess
	if err != nil {
		status = observability.StatusError
	}
	h.countPacket("world_action", status)

	//nolint:errcheck // response loss surfaces as connection teardown
	sess.Send(&wire.WorldActionResponse{
		Action:    p.Action,
		ContextID: p.ContextID,
		Message:   failureMessage(err),
		Success:   err == nil,
	})
}

// worldJoin places the user in the world's entry room and exchanges
// presence with everyone already there.
func (h *Handler) worldJoin(u *world.User, p *wire.WorldAction) error {
	if p.ContextID == nil {
		return errMissingField("context id")
	}
	w, err := h.tree.Get(*p.ContextID)
	if err != nil {
		return err
	}
	if w.Kind != world.KindWorld {
		return oops.Code("NOT_A_WORLD").
			With("context_id", w.ID.String()).
			Errorf("context %s is not a world", w.ID)
	}
	if h.isBanned(w.ID, u.ID) {
		return oops.Code("USER_BANNED").
			With("context_id", w.ID.String()).
			Errorf("user is banned from this world")
	}

	room, err := h.entryRoom(w)
	if err != nil {
		return err
	}
	dest := geometry.Location{
		RoomID:    room.ID,
		Direction: geometry.DirectionDown,
		Position:  spawnPoint(room),
	}
	if err := h.tree.Teleport(u, dest); err != nil {
		return err
	}

	mapName := room.MapName
	u.Send(&wire.ContextJoin{ContextID: room.ID, Map: &mapName})
	h.exchangePresence(u, room.ID)
	return nil
}

// worldLeave removes the user from their current room.
func (h *Handler) worldLeave(_ *Session, u *world.User) error {
	loc := u.Location()
	if loc == nil {
		return oops.Code("NOT_IN_WORLD").Errorf("user is not in a world")
	}
	if cur := u.CurrentInteractable(); cur != nil {
		u.EndInteraction(cur)
	}
	u.SetLocation(nil)
	h.broadcast.ToRoomExcept(loc.RoomID, u.ID, &wire.UserInfo{
		UserID: u.ID,
		Action: wire.UserInfoRemove,
	})
	u.Send(&wire.ContextJoin{ContextID: loc.RoomID})
	return nil
}

// roomCreate adds a public room beneath the world, granting the creator
// Room-Owner there.
func (h *Handler) roomCreate(u *world.User, p *wire.WorldAction) error {
	if p.ContextID == nil || p.Name == nil || p.Map == nil {
		return errMissingField("context id, name or map")
	}
	if !h.roles.HasPermission(u.ID, *p.ContextID, access.PermRoomCreate) {
		return errPermissionDenied(access.PermRoomCreate)
	}
	if _, err := h.tree.FindChildByName(*p.ContextID, *p.Name); err == nil {
		return oops.Code("ROOM_NAME_TAKEN").
			With("name", *p.Name).
			Errorf("room name %q is taken", *p.Name)
	}

	room := world.NewContext(world.KindRoom, *p.Name)
	room.MapName = *p.Map
	room.Area = &world.AreaBlock{
		Region: world.RegionAll,
		Media:  map[world.Medium]bool{world.MediumText: true, world.MediumVoice: true},
	}
	if err := h.tree.AddChild(*p.ContextID, room); err != nil {
		return err
	}
	h.roles.Assign(u.ID, room.ID, access.RoleRoomOwner)
	return nil
}

// roomRemove detaches a room after evacuating everyone inside.
func (h *Handler) roomRemove(u *world.User, p *wire.WorldAction) error {
	if p.ContextID == nil {
		return errMissingField("context id")
	}
	if !h.roles.HasPermission(u.ID, *p.ContextID, access.PermRoomManage) {
		return errPermissionDenied(access.PermRoomManage)
	}
	room, err := h.tree.Get(*p.ContextID)
	if err != nil {
		return err
	}
	if room.Kind != world.KindRoom {
		return oops.Code("NOT_A_ROOM").
			With("context_id", room.ID.String()).
			Errorf("context %s is not a room", room.ID)
	}

	for _, present := range h.tree.UsersIn(room.ID) {
		if cur := present.CurrentInteractable(); cur != nil {
			present.EndInteraction(cur)
		}
		present.SetLocation(nil)
		present.Send(&wire.ContextJoin{ContextID: room.ID})
	}
	return h.tree.Remove(room.ID)
}

// roomRename renames a room and tells everyone inside.
func (h *Handler) roomRename(u *world.User, p *wire.WorldAction) error {
	if p.ContextID == nil || p.Name == nil {
		return errMissingField("context id or name")
	}
	if !h.roles.HasPermission(u.ID, *p.ContextID, access.PermRoomManage) {
		return errPermissionDenied(access.PermRoomManage)
	}
	room, err := h.tree.Get(*p.ContextID)
	if err != nil {
		return err
	}
	room.Name = *p.Name
	h.broadcast.ToRoom(room.ID, &wire.ChatInfo{
		MessageKey:  "room.renamed",
		MessageArgs: []string{*p.Name},
		Timestamp:   time.Now(),
	})
	return nil
}

// handleUserMove moves the sender within their room and broadcasts the
// authoritative position.
func (h *Handler) handleUserMove(u *world.User, p *wire.UserMove) {
	// Clients move only themselves; the user id field is server-side.
	if p.UserID != nil && *p.UserID != u.ID {
		h.countPacket("user_move", observability.StatusDenied)
		return
	}
	if err := h.tree.MoveUser(u, geometry.Position{X: p.X, Y: p.Y}); err != nil {
		h.countPacket("user_move", observability.StatusError)
		u.Send(&wire.ChatInfo{
			MessageKey: "move.rejected",
			Timestamp:  time.Now(),
		})
		return
	}
	h.countPacket("user_move", observability.StatusSuccess)

	loc := u.Location()
	id := u.ID
	dir := uint8(loc.Direction)
	h.broadcast.ToRoomExcept(loc.RoomID, u.ID, &wire.UserMove{
		UserID:    &id,
		X:         loc.Position.X,
		Y:         loc.Position.Y,
		Direction: &dir,
	})
}

// handleUserManage runs one administrative action against another user.
func (h *Handler) handleUserManage(ctx context.Context, sess *Session, u *world.User, p *wire.UserManage) {
	target, err := h.tree.User(p.UserID)
	if err == nil {
		switch p.Action {
		case wire.ManageKick:
			err = h.manageKick(u, target)
		case wire.ManageBan:
			err = h.manageBan(u, target)
		case wire.ManageMute:
			err = h.manageMute(u, target, true)
		case wire.ManageUnmute:
			err = h.manageMute(u, target, false)
		case wire.ManageReport:
			err = h.manageReport(ctx, u, target, p.Message)
		case wire.ManageAssignModerator:
			err = h.manageModerator(u, target, true)
		case wire.ManageWithdrawModerator:
			err = h.manageModerator(u, target, false)
		default:
			err = oops.Code("UNKNOWN_MANAGE_ACTION").
				With("action", uint8(p.Action)).
				Errorf("unknown manage action %d", p.Action)
		}
	}

	status := observability.StatusSuccess
	if err != nil {
		status = observability.StatusError
		slog.DebugContext(ctx, "user manage failed",
			"actor_id", u.ID.String(),
			"target_id", p.UserID.String(),
			"action", uint8(p.Action),
			"error", err,
		)
		if msg := failureMessage(err); msg != nil {
			sess.Send(&wire.ChatInfo{ //nolint:errcheck
				MessageKey: *msg,
				Timestamp:  time.Now(),
			})
		}
	}
	h.countPacket("user_manage", status)
}

// manageKick ejects the target from their current room.
func (h *Handler) manageKick(actor, target *world.User) error {
	loc := target.Location()
	if loc == nil {
		return oops.Code("NOT_IN_WORLD").Errorf("target is not in a world")
	}
	if !h.roles.HasPermission(actor.ID, loc.RoomID, access.PermUserKick) {
		return errPermissionDenied(access.PermUserKick)
	}
	if h.outranked(actor, target, loc.RoomID) {
		return errPermissionDenied(access.PermUserKick)
	}
	if cur := target.CurrentInteractable(); cur != nil {
		target.EndInteraction(cur)
	}
	target.SetLocation(nil)
	h.broadcast.ToRoomExcept(loc.RoomID, target.ID, &wire.UserInfo{
		UserID: target.ID,
		Action: wire.UserInfoRemove,
	})
	target.Send(&wire.ContextJoin{ContextID: loc.RoomID})
	return nil
}

// manageBan bans the target from the enclosing world and kicks them.
func (h *Handler) manageBan(actor, target *world.User) error {
	loc := target.Location()
	if loc == nil {
		return oops.Code("NOT_IN_WORLD").Errorf("target is not in a world")
	}
	if !h.roles.HasPermission(actor.ID, loc.RoomID, access.PermUserBan) {
		return errPermissionDenied(access.PermUserBan)
	}
	if h.outranked(actor, target, loc.RoomID) {
		return errPermissionDenied(access.PermUserBan)
	}

	worldID, err := h.worldOf(loc.RoomID)
	if err != nil {
		return err
	}
	h.mu.Lock()
	if h.banned[worldID] == nil {
		h.banned[worldID] = make(map[ulid.ULID]struct{})
	}
	h.banned[worldID][target.ID] = struct{}{}
	h.mu.Unlock()

	return h.manageKick(actor, target)
}

// manageMute toggles the target's mute in the actor's room and
// broadcasts the updated mute list.
func (h *Handler) manageMute(actor, target *world.User, mute bool) error {
	loc := target.Location()
	if loc == nil {
		return oops.Code("NOT_IN_WORLD").Errorf("target is not in a world")
	}
	if !h.roles.HasPermission(actor.ID, loc.RoomID, access.PermUserMute) {
		return errPermissionDenied(access.PermUserMute)
	}
	if mute && h.outranked(actor, target, loc.RoomID) {
		return errPermissionDenied(access.PermUserMute)
	}

	h.mu.Lock()
	if mute {
		if h.muted[loc.RoomID] == nil {
			h.muted[loc.RoomID] = make(map[ulid.ULID]struct{})
		}
		h.muted[loc.RoomID][target.ID] = struct{}{}
	} else {
		delete(h.muted[loc.RoomID], target.ID)
	}
	mutedIDs := make([]ulid.ULID, 0, len(h.muted[loc.RoomID]))
	for id := range h.muted[loc.RoomID] {
		mutedIDs = append(mutedIDs, id)
	}
	h.mu.Unlock()

	h.broadcast.ToRoom(loc.RoomID, &wire.ContextInfo{
		ContextID:    loc.RoomID,
		MutedUserIDs: mutedIDs,
	})
	return nil
}

// manageReport files a report against the target and notifies the
// moderators of the room.
func (h *Handler) manageReport(ctx context.Context, actor, target *world.User, message *string) error {
	loc := actor.Location()
	if loc == nil {
		return oops.Code("NOT_IN_WORLD").Errorf("reporter is not in a world")
	}
	reason := ""
	if message != nil {
		reason = *message
	}
	if h.reports != nil {
		rep := &store.Report{
			ID:         ulid.Make(),
			ReporterID: actor.ID,
			ReportedID: target.ID,
			ContextID:  loc.RoomID,
			Reason:     reason,
			CreatedAt:  time.Now(),
		}
		if err := h.reports.Create(ctx, rep); err != nil {
			return err
		}
	}
	for _, modID := range h.roles.UsersWithPermission(loc.RoomID, access.PermUserKick) {
		h.notifications.Notify(
			actor.ID, modID, loc.RoomID,
			"manage.user_reported",
			actor.Name, target.Name, reason,
		)
	}
	return nil
}

// manageModerator grants or revokes the moderator role at the target's
// enclosing world.
func (h *Handler) manageModerator(actor, target *world.User, assign bool) error {
	loc := target.Location()
	if loc == nil {
		return oops.Code("NOT_IN_WORLD").Errorf("target is not in a world")
	}
	worldID, err := h.worldOf(loc.RoomID)
	if err != nil {
		return err
	}
	if !h.roles.HasPermission(actor.ID, worldID, access.PermRoleAssign) {
		return errPermissionDenied(access.PermRoleAssign)
	}
	if assign {
		h.roles.Assign(target.ID, worldID, access.RoleModerator)
	} else {
		h.roles.Revoke(target.ID, worldID, access.RoleModerator)
	}
	return nil
}

// outranked reports whether the target holds a role at the context that
// outranks the actor's. Administrative actions never flow upward.
func (h *Handler) outranked(actor, target *world.User, contextID ulid.ULID) bool {
	actorRole, ok := h.roles.HighestRole(actor.ID, contextID)
	if !ok {
		return true
	}
	targetRole, ok := h.roles.HighestRole(target.ID, contextID)
	if !ok {
		return false
	}
	return targetRole.Outranks(actorRole)
}

// worldOf walks up from a room to its world context.
func (h *Handler) worldOf(roomID ulid.ULID) (ulid.ULID, error) {
	for _, id := range h.tree.Lineage(roomID) {
		c, err := h.tree.Get(id)
		if err != nil {
			continue
		}
		if c.Kind == world.KindWorld {
			return c.ID, nil
		}
	}
	return ulid.ULID{}, oops.Code("WORLD_NOT_FOUND").
		With("room_id", roomID.String()).
		Errorf("no world above room %s", roomID)
}

// entryRoom returns the world's entry room: the child room named
// "lobby" when present, the first child room otherwise.
func (h *Handler) entryRoom(w *world.Context) (*world.Context, error) {
	if lobby, err := h.tree.FindChildByName(w.ID, "lobby"); err == nil && lobby.Kind == world.KindRoom {
		return lobby, nil
	}
	for _, childID := range w.ChildIDs() {
		c, err := h.tree.Get(childID)
		if err == nil && c.Kind == world.KindRoom {
			return c, nil
		}
	}
	return nil, oops.Code("NO_ENTRY_ROOM").
		With("world_id", w.ID.String()).
		Errorf("world %s has no rooms", w.ID)
}

// spawnPoint returns the center of the room's expanse, or the origin
// when the room has no geometry.
func spawnPoint(room *world.Context) geometry.Position {
	if room.Area == nil || room.Area.Expanse == nil {
		return geometry.Position{}
	}
	min, max := room.Area.Expanse.Bounds()
	return geometry.Position{X: (min.X + max.X) / 2, Y: (min.Y + max.Y) / 2}
}

// exchangePresence introduces the arriving user and the room's current
// population to each other.
func (h *Handler) exchangePresence(u *world.User, roomID ulid.ULID) {
	avatar := u.Avatar()
	status := uint8(u.Status())
	id := u.ID
	name := u.Name
	loc := u.Location()

	arrival := &wire.UserInfo{
		ContextID:    &roomID,
		UserID:       id,
		Action:       wire.UserInfoAdd,
		Name:         &name,
		Avatar:       &avatar,
		Status:       &status,
		Teleportable: true,
		Flags:        h.userFlags(u),
	}
	h.broadcast.ToRoomExcept(roomID, u.ID, arrival)

	dir := uint8(loc.Direction)
	h.broadcast.ToRoomExcept(roomID, u.ID, &wire.UserMove{
		UserID:    &id,
		X:         loc.Position.X,
		Y:         loc.Position.Y,
		Direction: &dir,
	})

	for _, other := range h.tree.UsersIn(roomID) {
		if other.ID == u.ID {
			continue
		}
		otherName := other.Name
		otherAvatar := other.Avatar()
		otherStatus := uint8(other.Status())
		flags := uint32(0)
		if u.IsFriend(other.ID) {
			flags |= wire.UserFlagFriend
		}
		if u.HasIgnored(other.ID) {
			flags |= wire.UserFlagIgnored
		}
		if h.bots != nil && h.bots.IsBot(other.ID) {
			flags |= wire.UserFlagBot
		}
		u.Send(&wire.UserInfo{
			ContextID:    &roomID,
			UserID:       other.ID,
			Action:       wire.UserInfoAdd,
			Name:         &otherName,
			Avatar:       &otherAvatar,
			Status:       &otherStatus,
			Teleportable: true,
			Flags:        flags,
		})
		if otherLoc := other.Location(); otherLoc != nil {
			otherID := other.ID
			otherDir := uint8(otherLoc.Direction)
			u.Send(&wire.UserMove{
				UserID:    &otherID,
				X:         otherLoc.Position.X,
				Y:         otherLoc.Position.Y,
				Direction: &otherDir,
			})
		}
	}
}

// userFlags computes the flag bits others see on this user.
func (h *Handler) userFlags(u *world.User) uint32 {
	var flags uint32
	if h.bots != nil && h.bots.IsBot(u.ID) {
		flags |= wire.UserFlagBot
	}
	return flags
}

// isBanned reports whether the user is banned from the context.
func (h *Handler) isBanned(contextID, userID ulid.ULID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.banned[contextID][userID]
	return ok
}

// isMuted reports whether the user is muted in the room.
func (h *Handler) isMuted(roomID, userID ulid.ULID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.muted[roomID][userID]
	return ok
}

func errPermissionDenied(perm string) error {
	return oops.Code("PERMISSION_DENIED").
		With("permission", perm).
		Errorf("permission denied: %s", perm)
}
