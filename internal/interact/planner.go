// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package interact

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/burrowspace/burrow/internal/access"
	"github.com/burrowspace/burrow/internal/geometry"
	"github.com/burrowspace/burrow/internal/world"
)

// AreaPlanner menu options.
const plannerOptionReserve int32 = 1

// slotLayout is the wire format of reservation times.
const slotLayout = "2006-01-02 15:04"

// Reservation is one approved one-hour slot for the planner's area.
type Reservation struct {
	UserID ulid.ULID
	Start  time.Time
	End    time.Time
}

// Overlaps reports whether the two slots share any time.
func (r Reservation) Overlaps(start, end time.Time) bool {
	return start.Before(r.End) && r.Start.Before(end)
}

// AreaPlanner takes reservation requests for future one-hour slots of
// its parent area and notifies every user who can manage the area.
type AreaPlanner struct {
	*base
	areaID ulid.ULID

	mu           sync.Mutex
	reservations []Reservation

	now func() time.Time
}

// NewAreaPlanner creates a planning board beneath the area it plans.
func NewAreaPlanner(deps Deps, areaID ulid.ULID, name string, pos geometry.Position) (*AreaPlanner, error) {
	p := &AreaPlanner{areaID: areaID, now: time.Now}
	_, b, err := attach(deps, areaID, name, pos, p)
	if err != nil {
		return nil, err
	}
	b.menuID = MenuAreaPlanner
	p.base = b
	return p, nil
}

// ContextID returns the planner's context id.
func (p *AreaPlanner) ContextID() ulid.ULID { return p.id }

// Reservations returns a copy of the approved slots.
func (p *AreaPlanner) Reservations() []Reservation {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Reservation, len(p.reservations))
	copy(out, p.reservations)
	return out
}

// ExecuteMenuOption implements world.Interactable.
func (p *AreaPlanner) ExecuteMenuOption(u *world.User, code int32, args []string) error {
	if !u.InteractingWith(p) {
		return ErrIllegalInteraction(p.id, "no open session")
	}
	switch code {
	case OptionClose:
		p.endSession(u)
		return nil
	case plannerOptionReserve:
		return p.reserve(u, args)
	default:
		return ErrIllegalInteraction(p.id, "unknown menu option")
	}
}

// reserve validates and books a slot. Args: start, end in slotLayout.
func (p *AreaPlanner) reserve(u *world.User, args []string) error {
	if len(args) < 2 {
		return ErrIllegalMenuAction("planner.missing_arguments")
	}
	start, err := time.Parse(slotLayout, args[0])
	if err != nil {
		return ErrIllegalMenuAction("planner.malformed_time", args[0])
	}
	end, err := time.Parse(slotLayout, args[1])
	if err != nil {
		return ErrIllegalMenuAction("planner.malformed_time", args[1])
	}
	if start.Minute() != 0 || start.Second() != 0 || end.Minute() != 0 || end.Second() != 0 {
		return ErrIllegalMenuAction("planner.not_on_the_hour")
	}
	if !end.Equal(start.Add(time.Hour)) {
		return ErrIllegalMenuAction("planner.not_one_hour")
	}
	if !start.After(p.now()) {
		return ErrIllegalMenuAction("planner.slot_in_past")
	}

	p.mu.Lock()
	for _, r := range p.reservations {
		if r.UserID == u.ID {
			p.mu.Unlock()
			return ErrIllegalMenuAction("planner.already_reserved")
		}
		if r.Overlaps(start, end) {
			p.mu.Unlock()
			return ErrIllegalMenuAction("planner.slot_taken")
		}
	}
	p.reservations = append(p.reservations, Reservation{UserID: u.ID, Start: start, End: end})
	p.mu.Unlock()

	for _, managerID := range p.deps.Roles.UsersWithPermission(p.areaID, access.PermAreaManage) {
		p.deps.Notifications.Notify(
			u.ID, managerID, p.areaID,
			"planner.reservation_made",
			u.Name, args[0], args[1],
		)
	}
	return nil
}
