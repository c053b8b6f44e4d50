// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package world

import (
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/burrowspace/burrow/internal/geometry"
)

// Tree is the flat arena of contexts plus the registry of users.
//
// A single RWMutex serializes structural mutation (adding and removing
// contexts, moving users) between packet handlers, bot ticks and
// streaming ticks. Read-only queries take the read lock.
type Tree struct {
	mu     sync.RWMutex
	rootID ulid.ULID
	nodes  map[ulid.ULID]*Context
	users  map[ulid.ULID]*User

	removeHooks []func(ctxID ulid.ULID)
}

// NewTree creates a tree with a global root context.
func NewTree(rootName string) *Tree {
	root := NewContext(KindGlobal, rootName)
	return &Tree{
		rootID: root.ID,
		nodes:  map[ulid.ULID]*Context{root.ID: root},
		users:  make(map[ulid.ULID]*User),
	}
}

// Root returns the global root context.
func (t *Tree) Root() *Context {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nodes[t.rootID]
}

// Get returns the context with the given id.
func (t *Tree) Get(id ulid.ULID) (*Context, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.nodes[id]
	if !ok {
		return nil, ErrContextNotFound(id)
	}
	return c, nil
}

// OnRemove registers a hook invoked (outside the tree lock) with the id
// of every context removed from the tree. Used to expire notifications
// whose originating context no longer exists.
func (t *Tree) OnRemove(hook func(ctxID ulid.ULID)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeHooks = append(t.removeHooks, hook)
}

// AddChild attaches c beneath the parent. The parent reference is set
// here, once, and never reassigned.
func (t *Tree) AddChild(parentID ulid.ULID, c *Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	parent, ok := t.nodes[parentID]
	if !ok {
		return ErrContextNotFound(parentID)
	}
	if _, exists := t.nodes[c.ID]; exists {
		return ErrDuplicateChild(parentID, c.ID)
	}
	c.ParentID = parentID
	if c.children == nil {
		c.children = make(map[ulid.ULID]struct{})
	}
	parent.children[c.ID] = struct{}{}
	t.nodes[c.ID] = c
	return nil
}

// Remove detaches the context and its whole subtree. Interactable
// objects in the subtree are closed so their workers stop. Removal
// hooks fire for every removed context after the lock is released.
func (t *Tree) Remove(id ulid.ULID) error {
	t.mu.Lock()
	if id == t.rootID {
		t.mu.Unlock()
		return ErrContextNotFound(id)
	}
	c, ok := t.nodes[id]
	if !ok {
		t.mu.Unlock()
		return ErrContextNotFound(id)
	}
	if parent, ok := t.nodes[c.ParentID]; ok {
		delete(parent.children, id)
	}

	var removed []*Context
	var collect func(*Context)
	collect = func(n *Context) {
		removed = append(removed, n)
		for childID := range n.children {
			if child, ok := t.nodes[childID]; ok {
				collect(child)
			}
		}
	}
	collect(c)
	for _, n := range removed {
		delete(t.nodes, n.ID)
	}
	hooks := t.removeHooks
	t.mu.Unlock()

	for _, n := range removed {
		if n.Object != nil {
			n.Object.Close()
		}
		for _, hook := range hooks {
			hook(n.ID)
		}
	}
	return nil
}

// FindChild returns the direct child of parentID with the given id.
func (t *Tree) FindChild(parentID, id ulid.ULID) (*Context, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	parent, ok := t.nodes[parentID]
	if !ok {
		return nil, ErrContextNotFound(parentID)
	}
	if _, ok := parent.children[id]; !ok {
		return nil, ErrContextNotFound(id)
	}
	return t.nodes[id], nil
}

// FindChildByName returns the first direct child whose name matches,
// case-insensitively.
func (t *Tree) FindChildByName(parentID ulid.ULID, name string) (*Context, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	parent, ok := t.nodes[parentID]
	if !ok {
		return nil, ErrContextNotFound(parentID)
	}
	for childID := range parent.children {
		child := t.nodes[childID]
		if child != nil && strings.EqualFold(child.Name, name) {
			return child, nil
		}
	}
	return nil, oopsNameNotFound(parentID, name)
}

// Lineage returns the chain of context ids from id up to the root,
// inclusive at both ends. An unknown id yields an empty chain.
func (t *Tree) Lineage(id ulid.ULID) []ulid.ULID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var chain []ulid.ULID
	for {
		c, ok := t.nodes[id]
		if !ok {
			return chain
		}
		chain = append(chain, c.ID)
		if c.ID == t.rootID {
			return chain
		}
		id = c.ParentID
	}
}

// RoomOf returns the id of the room enclosing the context (the context
// itself if it is a room). Returns false for nodes above room level.
func (t *Tree) RoomOf(id ulid.ULID) (ulid.ULID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for {
		c, ok := t.nodes[id]
		if !ok {
			return ulid.ULID{}, false
		}
		if c.Kind == KindRoom {
			return c.ID, true
		}
		if c.ID == t.rootID {
			return ulid.ULID{}, false
		}
		id = c.ParentID
	}
}

// roomsUnderLocked collects the ids of all rooms at or beneath id.
// Caller holds at least the read lock.
func (t *Tree) roomsUnderLocked(id ulid.ULID) map[ulid.ULID]struct{} {
	rooms := make(map[ulid.ULID]struct{})
	var walk func(ulid.ULID)
	walk = func(nodeID ulid.ULID) {
		c, ok := t.nodes[nodeID]
		if !ok {
			return
		}
		if c.Kind == KindRoom {
			rooms[c.ID] = struct{}{}
		}
		for childID := range c.children {
			walk(childID)
		}
	}
	walk(id)
	return rooms
}

// UsersIn returns the users physically present under the subtree rooted
// at id. For areas and objects, presence additionally requires the
// user's position to lie within the expanse.
func (t *Tree) UsersIn(id ulid.ULID) []*User {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.nodes[id]
	if !ok {
		return nil
	}

	var present []*User
	switch c.Kind {
	case KindArea, KindObject:
		roomID, ok := t.roomOfLocked(id)
		if !ok {
			return nil
		}
		for _, u := range t.users {
			loc := u.Location()
			if loc == nil || loc.RoomID != roomID {
				continue
			}
			if c.Area != nil && c.Area.Expanse != nil && !c.Area.Expanse.Contains(loc.Position) {
				continue
			}
			present = append(present, u)
		}
	default:
		rooms := t.roomsUnderLocked(id)
		for _, u := range t.users {
			loc := u.Location()
			if loc == nil {
				continue
			}
			if _, ok := rooms[loc.RoomID]; ok {
				present = append(present, u)
			}
		}
	}
	return present
}

// roomOfLocked is RoomOf without taking the lock.
func (t *Tree) roomOfLocked(id ulid.ULID) (ulid.ULID, bool) {
	for {
		c, ok := t.nodes[id]
		if !ok {
			return ulid.ULID{}, false
		}
		if c.Kind == KindRoom {
			return c.ID, true
		}
		if c.ID == t.rootID {
			return ulid.ULID{}, false
		}
		id = c.ParentID
	}
}

// IsLegal reports whether the point lies within the navigable geometry
// of the context. Contexts without an expanse accept every point.
func (t *Tree) IsLegal(id ulid.ULID, pos geometry.Position) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.nodes[id]
	if !ok {
		return false
	}
	if c.Area == nil || c.Area.Expanse == nil {
		return true
	}
	return c.Area.Expanse.Contains(pos)
}

// AreaAt returns the deepest area-bearing context under roomID whose
// expanse contains pos, falling back to the room itself.
func (t *Tree) AreaAt(roomID ulid.ULID, pos geometry.Position) *Context {
	t.mu.RLock()
	defer t.mu.RUnlock()
	room, ok := t.nodes[roomID]
	if !ok {
		return nil
	}

	best := room
	depth := 0
	var walk func(*Context, int)
	walk = func(c *Context, d int) {
		for childID := range c.children {
			child := t.nodes[childID]
			if child == nil || child.Area == nil || child.Area.Expanse == nil {
				continue
			}
			if !child.Area.Expanse.Contains(pos) {
				continue
			}
			if d+1 > depth {
				best, depth = child, d+1
			}
			walk(child, d+1)
		}
	}
	walk(room, 0)
	return best
}

// CanCommunicate reports whether from can reach to with the given
// medium, per the communication policy of the area from stands in.
func (t *Tree) CanCommunicate(from, to *User, m Medium) bool {
	fromLoc := from.Location()
	toLoc := to.Location()
	if fromLoc == nil || toLoc == nil || fromLoc.RoomID != toLoc.RoomID {
		return false
	}
	area := t.AreaAt(fromLoc.RoomID, fromLoc.Position)
	if area == nil || area.Area == nil {
		return false
	}
	if !area.Area.PermitsMedium(m) {
		return false
	}
	switch area.Area.Region {
	case RegionAll:
		return true
	case RegionRadius:
		return fromLoc.DistanceTo(*toLoc) <= area.Area.RegionRadius
	default:
		return false
	}
}

// AddUser registers a user with the world.
func (t *Tree) AddUser(u *User) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.users[u.ID] = u
}

// RemoveUser unregisters a user.
func (t *Tree) RemoveUser(id ulid.ULID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.users, id)
}

// User returns the registered user with the given id.
func (t *Tree) User(id ulid.ULID) (*User, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	u, ok := t.users[id]
	if !ok {
		return nil, ErrUserNotFound(id)
	}
	return u, nil
}

// UserByName returns the registered user with the given name,
// case-insensitively.
func (t *Tree) UserByName(name string) (*User, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, u := range t.users {
		if strings.EqualFold(u.Name, name) {
			return u, true
		}
	}
	return nil, false
}

// Users returns all registered users.
func (t *Tree) Users() []*User {
	t.mu.RLock()
	defer t.mu.RUnlock()
	all := make([]*User, 0, len(t.users))
	for _, u := range t.users {
		all = append(all, u)
	}
	return all
}

// MoveUser moves the user to pos within their current room after
// checking movability and navigable geometry. The caller broadcasts the
// movement and re-evaluates proximity-triggered eligibility.
func (t *Tree) MoveUser(u *User, pos geometry.Position) error {
	loc := u.Location()
	if loc == nil {
		return ErrUserNotFound(u.ID)
	}
	if !u.Movable() {
		return ErrUserNotMovable(u.ID)
	}
	if !t.IsLegal(loc.RoomID, pos) {
		return ErrIllegalPosition(loc.RoomID, pos.X, pos.Y)
	}
	loc.Direction = geometry.Facing(loc.Position, pos)
	loc.Position = pos
	u.SetLocation(loc)
	return nil
}

// Teleport places the user at a new location, ignoring the movable
// flag. Used by portals, seats and room admission.
func (t *Tree) Teleport(u *User, loc geometry.Location) error {
	if !t.IsLegal(loc.RoomID, loc.Position) {
		return ErrIllegalPosition(loc.RoomID, loc.Position.X, loc.Position.Y)
	}
	u.SetLocation(&loc)
	return nil
}
