// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package interact

import (
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/burrowspace/burrow/internal/geometry"
	"github.com/burrowspace/burrow/internal/wire"
	"github.com/burrowspace/burrow/internal/world"
)

// Seat menu options.
const seatOptionOccupy int32 = 1

// Seat is an interactable with a fixed sitting point and at most one
// occupant. The occupant interacting again stands up and returns to
// their pre-sit location.
type Seat struct {
	*base

	mu        sync.Mutex
	occupant  *ulid.ULID
	returnLoc geometry.Location
}

// NewSeat creates a seat object beneath the parent area.
func NewSeat(deps Deps, parentID ulid.ULID, name string, pos geometry.Position) (*Seat, error) {
	s := &Seat{}
	_, b, err := attach(deps, parentID, name, pos, s)
	if err != nil {
		return nil, err
	}
	b.menuID = MenuSeat
	s.base = b
	return s, nil
}

// ContextID returns the seat's context id.
func (s *Seat) ContextID() ulid.ULID { return s.id }

// Occupant returns the id of the sitting user, or nil.
func (s *Seat) Occupant() *ulid.ULID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.occupant == nil {
		return nil
	}
	id := *s.occupant
	return &id
}

// Interact begins a session. The occupant interacting again stands up
// instead of opening a menu; anyone else is told the seat is taken.
func (s *Seat) Interact(u *world.User) error {
	s.mu.Lock()
	occupant := s.occupant
	s.mu.Unlock()

	if occupant != nil {
		if *occupant == u.ID {
			s.stand(u)
			return nil
		}
		return ErrIllegalMenuAction("seat.occupied", u.Name)
	}
	return s.base.Interact(u)
}

// ExecuteMenuOption implements world.Interactable.
func (s *Seat) ExecuteMenuOption(u *world.User, code int32, _ []string) error {
	if !u.InteractingWith(s) {
		return ErrIllegalInteraction(s.id, "no open session")
	}
	switch code {
	case OptionClose:
		s.mu.Lock()
		seated := s.occupant != nil && *s.occupant == u.ID
		s.mu.Unlock()
		if seated {
			s.stand(u)
			return nil
		}
		s.endSession(u)
		return nil
	case seatOptionOccupy:
		return s.occupy(u)
	default:
		return ErrIllegalInteraction(s.id, "unknown menu option")
	}
}

// occupy moves the user onto the seat's fixed point and records them as
// the sole occupant. The interaction session stays open so the user
// remains pinned until they stand.
func (s *Seat) occupy(u *world.User) error {
	loc := u.Location()
	if loc == nil {
		return ErrIllegalInteraction(s.id, "user not in world")
	}

	s.mu.Lock()
	if s.occupant != nil {
		s.mu.Unlock()
		return ErrIllegalMenuAction("seat.occupied", u.Name)
	}
	id := u.ID
	s.occupant = &id
	s.returnLoc = *loc
	s.mu.Unlock()

	seated := *loc
	seated.Position = s.pos
	if err := s.deps.Tree.Teleport(u, seated); err != nil {
		s.mu.Lock()
		s.occupant = nil
		s.mu.Unlock()
		return err
	}
	u.Send(&wire.MenuClose{ContextID: s.id})
	s.announceMove(u, seated)
	return nil
}

// stand vacates the seat, returns the user to their pre-sit location
// and restores movability.
func (s *Seat) stand(u *world.User) {
	s.mu.Lock()
	returnLoc := s.returnLoc
	s.occupant = nil
	s.mu.Unlock()

	// The pre-sit spot was legal when the user stood there.
	_ = s.deps.Tree.Teleport(u, returnLoc)
	s.endSession(u)
	s.announceMove(u, returnLoc)
}

func (s *Seat) announceMove(u *world.User, loc geometry.Location) {
	dir := uint8(loc.Direction)
	id := u.ID
	s.deps.announce(loc.RoomID, &wire.UserMove{
		UserID:    &id,
		X:         loc.Position.X,
		Y:         loc.Position.Y,
		Direction: &dir,
	})
}
