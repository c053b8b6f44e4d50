// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package interact

import (
	"regexp"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/burrowspace/burrow/internal/access"
	"github.com/burrowspace/burrow/internal/geometry"
	"github.com/burrowspace/burrow/internal/wire"
	"github.com/burrowspace/burrow/internal/world"
)

// RoomReception menu options.
const (
	receptionOptionCreate        int32 = 1
	receptionOptionJoin          int32 = 2
	receptionOptionRequestToJoin int32 = 3
)

// Private room format rules.
var (
	roomNamePattern     = regexp.MustCompile(`^\w{2,16}$`)
	roomPasswordPattern = regexp.MustCompile(`^.{4,32}$`)
)

// Default geometry of a freshly created private room.
var (
	privateRoomExpanse = geometry.NewRect(geometry.Position{}, geometry.Position{X: 20, Y: 20})
	privateRoomSpawn   = geometry.Position{X: 10, Y: 10}
)

// privateRoom tracks the password and ownership of a room created at
// the reception.
type privateRoom struct {
	ownerID      ulid.ULID
	passwordHash string
}

// RoomReception creates and admits users into private rooms. Unlike a
// seat, it allows concurrent use: every user gets their own session.
type RoomReception struct {
	*base

	mu    sync.Mutex
	rooms map[ulid.ULID]*privateRoom
}

// NewRoomReception creates a reception desk beneath the parent area.
func NewRoomReception(deps Deps, parentID ulid.ULID, name string, pos geometry.Position) (*RoomReception, error) {
	r := &RoomReception{rooms: make(map[ulid.ULID]*privateRoom)}
	_, b, err := attach(deps, parentID, name, pos, r)
	if err != nil {
		return nil, err
	}
	b.menuID = MenuRoomReception
	r.base = b
	return r, nil
}

// ContextID returns the reception's context id.
func (r *RoomReception) ContextID() ulid.ULID { return r.id }

// ExecuteMenuOption implements world.Interactable.
func (r *RoomReception) ExecuteMenuOption(u *world.User, code int32, args []string) error {
	if !u.InteractingWith(r) {
		return ErrIllegalInteraction(r.id, "no open session")
	}
	switch code {
	case OptionClose:
		r.endSession(u)
		return nil
	case receptionOptionCreate:
		return r.createRoom(u, args)
	case receptionOptionJoin:
		return r.joinRoom(u, args)
	case receptionOptionRequestToJoin:
		return r.requestToJoin(u, args)
	default:
		return ErrIllegalInteraction(r.id, "unknown menu option")
	}
}

// worldID returns the world context the reception's room belongs to;
// private rooms are created as its children.
func (r *RoomReception) worldID() (ulid.ULID, error) {
	roomID, ok := r.deps.Tree.RoomOf(r.id)
	if !ok {
		return ulid.ULID{}, ErrIllegalInteraction(r.id, "reception outside any room")
	}
	room, err := r.deps.Tree.Get(roomID)
	if err != nil {
		return ulid.ULID{}, err
	}
	return room.ParentID, nil
}

// createRoom validates name and password, creates the room with the
// chosen map, grants the creator Room-Owner there and teleports them
// in. Args: name, password, map.
func (r *RoomReception) createRoom(u *world.User, args []string) error {
	if len(args) < 3 {
		return ErrIllegalMenuAction("reception.missing_arguments")
	}
	name, password, mapName := args[0], args[1], args[2]
	if !roomNamePattern.MatchString(name) {
		return ErrIllegalMenuAction("reception.invalid_room_name", name)
	}
	if !roomPasswordPattern.MatchString(password) {
		return ErrIllegalMenuAction("reception.invalid_password")
	}
	worldID, err := r.worldID()
	if err != nil {
		return err
	}
	if _, err := r.deps.Tree.FindChildByName(worldID, name); err == nil {
		return ErrIllegalMenuAction("reception.room_name_taken", name)
	}

	hash, err := r.deps.Hasher.Hash(password)
	if err != nil {
		return err
	}

	room := world.NewContext(world.KindRoom, name)
	room.MapName = mapName
	room.Area = &world.AreaBlock{
		Expanse: privateRoomExpanse,
		Region:  world.RegionAll,
		Media:   map[world.Medium]bool{world.MediumText: true, world.MediumVoice: true},
	}
	if err := r.deps.Tree.AddChild(worldID, room); err != nil {
		return err
	}

	r.mu.Lock()
	r.rooms[room.ID] = &privateRoom{ownerID: u.ID, passwordHash: hash}
	r.mu.Unlock()

	r.deps.Roles.Assign(u.ID, room.ID, access.RoleRoomOwner)

	// End the session before travel so the creator arrives movable.
	r.endSession(u)
	return r.admit(u, room)
}

// joinRoom admits the user when the password matches. Args: room id,
// password.
func (r *RoomReception) joinRoom(u *world.User, args []string) error {
	if len(args) < 2 {
		return ErrIllegalMenuAction("reception.missing_arguments")
	}
	room, rec, err := r.lookupRoom(args[0])
	if err != nil {
		return err
	}
	match, err := r.deps.Hasher.Verify(args[1], rec.passwordHash)
	if err != nil {
		return err
	}
	if !match {
		return ErrIllegalMenuAction("reception.wrong_password")
	}
	r.endSession(u)
	return r.admit(u, room)
}

// requestToJoin creates a join request addressed to one user holding
// the admit permission for the room, preferring the room owner.
// Args: room id.
func (r *RoomReception) requestToJoin(u *world.User, args []string) error {
	if len(args) < 1 {
		return ErrIllegalMenuAction("reception.missing_arguments")
	}
	room, rec, err := r.lookupRoom(args[0])
	if err != nil {
		return err
	}

	receiverID := rec.ownerID
	if eligible := r.deps.Roles.UsersWithPermission(room.ID, access.PermRoomAdmit); len(eligible) > 0 {
		receiverID = eligible[0]
	}

	requester := u
	r.deps.Notifications.Request(
		u.ID, receiverID, room.ID,
		"reception.join_request", []string{u.Name, room.Name},
		func() error { return r.admit(requester, room) },
		nil,
	)
	r.endSession(u)
	return nil
}

// lookupRoom parses a room id argument and resolves it to a private
// room created at this reception.
func (r *RoomReception) lookupRoom(arg string) (*world.Context, *privateRoom, error) {
	roomID, err := ulid.Parse(arg)
	if err != nil {
		return nil, nil, ErrIllegalMenuAction("reception.no_such_room", arg)
	}
	r.mu.Lock()
	rec, ok := r.rooms[roomID]
	r.mu.Unlock()
	if !ok {
		return nil, nil, ErrIllegalMenuAction("reception.no_such_room", arg)
	}
	room, err := r.deps.Tree.Get(roomID)
	if err != nil {
		return nil, nil, ErrIllegalMenuAction("reception.no_such_room", arg)
	}
	return room, rec, nil
}

// admit teleports the user to the room's spawn point and tells the
// client which map to load.
func (r *RoomReception) admit(u *world.User, room *world.Context) error {
	from := u.Location()
	dest := geometry.Location{
		RoomID:    room.ID,
		Direction: geometry.DirectionDown,
		Position:  privateRoomSpawn,
	}
	if err := r.deps.Tree.Teleport(u, dest); err != nil {
		return err
	}
	id := u.ID
	if from != nil && from.RoomID != room.ID {
		r.deps.announce(from.RoomID, &wire.UserInfo{
			UserID: id,
			Action: wire.UserInfoRemove,
		})
	}
	mapName := room.MapName
	u.Send(&wire.ContextJoin{ContextID: room.ID, Map: &mapName})
	dir := uint8(dest.Direction)
	r.deps.announce(room.ID, &wire.UserMove{
		UserID:    &id,
		X:         dest.Position.X,
		Y:         dest.Position.Y,
		Direction: &dir,
	})
	return nil
}
