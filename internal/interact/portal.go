// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package interact

import (
	"github.com/oklog/ulid/v2"

	"github.com/burrowspace/burrow/internal/geometry"
	"github.com/burrowspace/burrow/internal/wire"
	"github.com/burrowspace/burrow/internal/world"
)

// Portal menu options.
const portalOptionConfirm int32 = 1

// Portal teleports a user to a fixed destination after confirmation.
// Declining (option 0) just closes the menu.
type Portal struct {
	*base
	dest geometry.Location
}

// NewPortal creates a portal object beneath the parent area.
func NewPortal(deps Deps, parentID ulid.ULID, name string, pos geometry.Position, dest geometry.Location) (*Portal, error) {
	p := &Portal{dest: dest}
	_, b, err := attach(deps, parentID, name, pos, p)
	if err != nil {
		return nil, err
	}
	b.menuID = MenuPortal
	p.base = b
	return p, nil
}

// ContextID returns the portal's context id.
func (p *Portal) ContextID() ulid.ULID { return p.id }

// Destination returns where the portal leads.
func (p *Portal) Destination() geometry.Location { return p.dest }

// ExecuteMenuOption implements world.Interactable.
func (p *Portal) ExecuteMenuOption(u *world.User, code int32, _ []string) error {
	if !u.InteractingWith(p) {
		return ErrIllegalInteraction(p.id, "no open session")
	}
	switch code {
	case OptionClose:
		p.endSession(u)
		return nil
	case portalOptionConfirm:
		return p.travel(u)
	default:
		return ErrIllegalInteraction(p.id, "unknown menu option")
	}
}

// travel releases the session and teleports the user through.
func (p *Portal) travel(u *world.User) error {
	from := u.Location()
	if from == nil {
		return ErrIllegalInteraction(p.id, "user not in world")
	}
	if err := p.deps.Tree.Teleport(u, p.dest); err != nil {
		return err
	}
	p.endSession(u)

	id := u.ID
	if from.RoomID != p.dest.RoomID {
		// Tell the old room the user left and the client which room
		// to load.
		p.deps.announce(from.RoomID, &wire.UserInfo{
			UserID: id,
			Action: wire.UserInfoRemove,
		})
		mapName := ""
		if room, err := p.deps.Tree.Get(p.dest.RoomID); err == nil {
			mapName = room.MapName
		}
		u.Send(&wire.ContextJoin{ContextID: p.dest.RoomID, Map: &mapName})
	}
	dir := uint8(p.dest.Direction)
	p.deps.announce(p.dest.RoomID, &wire.UserMove{
		UserID:    &id,
		X:         p.dest.Position.X,
		Y:         p.dest.Position.Y,
		Direction: &dir,
	})
	return nil
}
