// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package world

import (
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/burrowspace/burrow/internal/geometry"
	"github.com/burrowspace/burrow/internal/wire"
)

// Status is a user's online status.
type Status uint8

// User statuses.
const (
	StatusOffline Status = iota
	StatusOnline
	StatusAway
	StatusBusy
	StatusInvisible
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusOnline:
		return "online"
	case StatusAway:
		return "away"
	case StatusBusy:
		return "busy"
	case StatusInvisible:
		return "invisible"
	default:
		return "offline"
	}
}

// Sender delivers packets to one connected user. Delivery failure
// surfaces as connection loss, never as a packet-level error.
type Sender interface {
	Send(p wire.Packet) error
}

// User is an inhabitant of the world: identity, presence, social lists
// and the interaction session state mutated by interactable objects.
//
// Spatial and interaction state is guarded by the user's own mutex;
// structural tree mutations additionally take the tree lock.
type User struct {
	ID   ulid.ULID
	Name string

	mu      sync.RWMutex
	avatar  string
	status  Status
	sender  Sender
	loc     *geometry.Location
	current Interactable
	movable bool
	friends map[ulid.ULID]struct{}
	ignored map[ulid.ULID]struct{}
}

// NewUser creates an offline user with a generated id.
func NewUser(name string) *User {
	return NewUserWithID(ulid.Make(), name)
}

// NewUserWithID creates an offline user with the provided id.
func NewUserWithID(id ulid.ULID, name string) *User {
	return &User{
		ID:      id,
		Name:    name,
		movable: true,
		friends: make(map[ulid.ULID]struct{}),
		ignored: make(map[ulid.ULID]struct{}),
	}
}

// Login attaches a transport sender and flips the user online.
func (u *User) Login(s Sender) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.sender = s
	u.status = StatusOnline
}

// Logout detaches the transport and flips the user offline. The
// location is cleared; an interrupted interaction is abandoned.
func (u *User) Logout() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.sender = nil
	u.status = StatusOffline
	u.loc = nil
	u.current = nil
	u.movable = true
}

// Online reports whether the user has a transport attached.
func (u *User) Online() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.sender != nil
}

// Status returns the user's current status.
func (u *User) Status() Status {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.status
}

// SetStatus updates the user's status. Offline is reserved for Logout.
func (u *User) SetStatus(s Status) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status = s
}

// Avatar returns the user's avatar token.
func (u *User) Avatar() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.avatar
}

// SetAvatar updates the user's avatar token.
func (u *User) SetAvatar(a string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.avatar = a
}

// Location returns a copy of the user's location, or nil when the user
// is not in a world.
func (u *User) Location() *geometry.Location {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.loc == nil {
		return nil
	}
	loc := *u.loc
	return &loc
}

// SetLocation places the user. A nil location removes the user from
// the world.
func (u *User) SetLocation(loc *geometry.Location) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if loc == nil {
		u.loc = nil
		return
	}
	cp := *loc
	u.loc = &cp
}

// Movable reports whether movement operations are currently allowed.
func (u *User) Movable() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.movable
}

// SetMovable toggles the movable flag. Mutated only through the
// interactable state machine.
func (u *User) SetMovable(m bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.movable = m
}

// CurrentInteractable returns the object the user is interacting with,
// or nil.
func (u *User) CurrentInteractable() Interactable {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.current
}

// TryBeginInteraction atomically claims the user for an interaction
// with i. Returns false if the user is already interacting with a
// different object. Claiming pins the user in place.
func (u *User) TryBeginInteraction(i Interactable) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.current != nil && u.current != i {
		return false
	}
	u.current = i
	u.movable = false
	return true
}

// EndInteraction releases the user from an interaction with i. It is a
// no-op if the user is interacting with something else.
func (u *User) EndInteraction(i Interactable) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.current != i {
		return
	}
	u.current = nil
	u.movable = true
}

// InteractingWith reports whether the user's current interactable is i.
func (u *User) InteractingWith(i Interactable) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.current == i
}

// AddFriend records a friendship edge.
func (u *User) AddFriend(id ulid.ULID) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.friends[id] = struct{}{}
}

// RemoveFriend removes a friendship edge.
func (u *User) RemoveFriend(id ulid.ULID) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.friends, id)
}

// IsFriend reports whether id is on the friends list.
func (u *User) IsFriend(id ulid.ULID) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	_, ok := u.friends[id]
	return ok
}

// Ignore adds id to the ignore list.
func (u *User) Ignore(id ulid.ULID) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ignored[id] = struct{}{}
}

// Unignore removes id from the ignore list.
func (u *User) Unignore(id ulid.ULID) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.ignored, id)
}

// HasIgnored reports whether id is on the ignore list.
func (u *User) HasIgnored(id ulid.ULID) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	_, ok := u.ignored[id]
	return ok
}

// Send delivers a packet to the user's transport. Packets to users
// without an attached transport are dropped silently; an offline user
// simply does not hear the world.
func (u *User) Send(p wire.Packet) {
	u.mu.RLock()
	s := u.sender
	u.mu.RUnlock()
	if s == nil {
		return
	}
	// Send errors mean the connection is going away; the gateway
	// handles teardown.
	_ = s.Send(p)
}
