// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

// Package world contains the spatial context tree and the users that
// inhabit it. Contexts form an ownership hierarchy global → world →
// room → area → object; the tree is stored as a flat arena keyed by
// ULID with parent/child id references instead of live pointers.
package world

import (
	"github.com/oklog/ulid/v2"

	"github.com/burrowspace/burrow/internal/geometry"
)

// Kind identifies the level of a context in the hierarchy.
type Kind string

// Context kinds.
const (
	KindGlobal Kind = "global"
	KindWorld  Kind = "world"
	KindRoom   Kind = "room"
	KindArea   Kind = "area"
	KindObject Kind = "object"
)

// Region is the communication policy of an area: who can hear whom.
type Region uint8

// Communication regions.
const (
	RegionAll    Region = iota // everyone in the room
	RegionRadius               // everyone within RegionRadius
	RegionNone                 // nobody
)

// Medium is a kind of communication an area may permit.
type Medium uint8

// Communication media.
const (
	MediumText Medium = iota
	MediumVoice
)

// AreaBlock is the spatial capability of a context: extent,
// communication policy and the media permitted inside it.
// Present on rooms, areas and objects; absent on global/world nodes.
type AreaBlock struct {
	Expanse      geometry.Expanse
	Region       Region
	RegionRadius float64
	Media        map[Medium]bool
	Music        string // currently playing track token, empty when silent
}

// PermitsMedium reports whether the medium may be used in the area.
func (a *AreaBlock) PermitsMedium(m Medium) bool {
	if a == nil || a.Media == nil {
		return false
	}
	return a.Media[m]
}

// Interactable is the interaction contract of an object context.
// Implementations live in internal/interact; the tree only needs to
// know how to route interaction attempts and shut objects down.
type Interactable interface {
	// MenuID identifies the client-side menu opened on interaction.
	MenuID() int32

	// CanInteract reports whether the user may begin an interaction.
	CanInteract(u *User) bool

	// Interact begins an interaction session for the user.
	Interact(u *User) error

	// ExecuteMenuOption runs one labeled menu action. Option 0 is
	// universally "close".
	ExecuteMenuOption(u *User, code int32, args []string) error

	// Close releases resources held by the object (worker loops etc.).
	Close()
}

// Context is a node in the spatial tree. Parent is set at creation and
// never reassigned; children ids are unique within a parent.
type Context struct {
	ID       ulid.ULID
	Name     string
	Kind     Kind
	MapName  string // tile map token, rooms only
	ParentID ulid.ULID
	children map[ulid.ULID]struct{}

	// Area is nil for global/world nodes.
	Area *AreaBlock

	// Object is non-nil only for interactable object nodes.
	Object Interactable
}

// NewContext creates an unattached context node.
func NewContext(kind Kind, name string) *Context {
	return &Context{
		ID:       ulid.Make(),
		Name:     name,
		Kind:     kind,
		children: make(map[ulid.ULID]struct{}),
	}
}

// IsInteractable reports whether the node carries interaction behavior.
func (c *Context) IsInteractable() bool {
	return c.Object != nil
}

// ChildIDs returns the ids of the direct children, in no particular order.
func (c *Context) ChildIDs() []ulid.ULID {
	ids := make([]ulid.ULID, 0, len(c.children))
	for id := range c.children {
		ids = append(ids, id)
	}
	return ids
}
