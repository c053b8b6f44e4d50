// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

// Package interact implements the per-object interaction state
// machines: the generic interact / menu-option contract and the
// concrete variants (Seat, Portal, RoomReception, AreaPlanner,
// MusicPlayer, GameBoard).
//
// Menu option 0 is reserved, universally, for "close": it clears the
// user's current interactable, restores movability and signals
// menu-close to the client. All other option codes are object-specific
// and numbered from 1.
package interact

import (
	"github.com/oklog/ulid/v2"

	"github.com/burrowspace/burrow/internal/access"
	"github.com/burrowspace/burrow/internal/geometry"
	"github.com/burrowspace/burrow/internal/notify"
	"github.com/burrowspace/burrow/internal/wire"
	"github.com/burrowspace/burrow/internal/world"
)

// InteractionDistance is how close a user must stand to an object to
// begin an interaction with it.
const InteractionDistance = 2.5

// OptionClose is the universally reserved menu option code for closing
// an open menu.
const OptionClose int32 = 0

// Menu identifiers, one per object variant. The client maps these to
// its menu widgets.
const (
	MenuSeat int32 = iota + 1
	MenuPortal
	MenuRoomReception
	MenuAreaPlanner
	MenuMusicPlayer
	MenuGameBoard
)

// PasswordHasher hashes and verifies private room passwords. Mirrors
// the account hasher to avoid coupling interact to the account package.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// Deps bundles the services interactable objects act against.
type Deps struct {
	Tree          *world.Tree
	Roles         *access.Resolver
	Notifications *notify.Service
	Hasher        PasswordHasher

	// Announce broadcasts a packet to every user present in a room.
	// May be nil in tests; announcements are then dropped.
	Announce func(roomID ulid.ULID, p wire.Packet)
}

func (d Deps) announce(roomID ulid.ULID, p wire.Packet) {
	if d.Announce != nil {
		d.Announce(roomID, p)
	}
}

// base carries the shared half of the interaction contract: identity,
// menu id, placement and the begin/close session bookkeeping.
type base struct {
	id     ulid.ULID
	menuID int32
	pos    geometry.Position
	deps   Deps

	// self is the concrete interactable embedding this base; the
	// user's current-interactable reference must point at it, not at
	// the base.
	self world.Interactable
}

// MenuID implements world.Interactable.
func (b *base) MenuID() int32 { return b.menuID }

// Close implements world.Interactable. Variants with workers override.
func (b *base) Close() {}

// Position returns the object's fixed point in its room.
func (b *base) Position() geometry.Position { return b.pos }

// CanInteract reports whether the user stands within interaction
// distance and is either free or already interacting with this object.
func (b *base) CanInteract(u *world.User) bool {
	loc := u.Location()
	if loc == nil {
		return false
	}
	roomID, ok := b.deps.Tree.RoomOf(b.id)
	if !ok || roomID != loc.RoomID {
		return false
	}
	if loc.Position.DistanceTo(b.pos) > InteractionDistance {
		return false
	}
	cur := u.CurrentInteractable()
	return cur == nil || cur == b.self
}

// Interact begins an interaction session: claims the user, pins them in
// place and instructs the client to open the object's menu.
func (b *base) Interact(u *world.User) error {
	if !b.CanInteract(u) {
		return ErrIllegalInteraction(b.id, "out of range or busy")
	}
	if !u.TryBeginInteraction(b.self) {
		return ErrIllegalInteraction(b.id, "already interacting elsewhere")
	}
	u.Send(&wire.MenuOpen{ContextID: b.id, MenuID: b.menuID})
	return nil
}

// endSession releases the user and signals menu-close.
func (b *base) endSession(u *world.User) {
	u.EndInteraction(b.self)
	u.Send(&wire.MenuClose{ContextID: b.id})
}

// attach creates the object context node and hangs it beneath the
// parent. The base id is the context id.
func attach(deps Deps, parentID ulid.ULID, name string, pos geometry.Position, obj world.Interactable) (*world.Context, *base, error) {
	c := world.NewContext(world.KindObject, name)
	c.Area = &world.AreaBlock{
		Expanse: geometry.Circle{Center: pos, Radius: InteractionDistance},
		Region:  world.RegionNone,
	}
	c.Object = obj
	if err := deps.Tree.AddChild(parentID, c); err != nil {
		return nil, nil, err
	}
	return c, &base{id: c.ID, pos: pos, deps: deps, self: obj}, nil
}
