// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package access

import (
	"sync"

	"github.com/gobwas/glob"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Lineage provides the ancestor chain of a context, self first, root
// last. Mirrors world.Tree to avoid coupling access to the world
// package.
type Lineage interface {
	Lineage(id ulid.ULID) []ulid.ULID
}

// compiledPermission holds a permission pattern and its compiled glob.
type compiledPermission struct {
	pattern string
	glob    glob.Glob
}

// Resolver assigns roles to users per context and answers permission
// checks by walking the context lineage upward.
//
// Role bundles are immutable after construction; grants are protected
// by mu.
type Resolver struct {
	roles   map[Role][]compiledPermission
	lineage Lineage

	mu     sync.RWMutex
	grants map[ulid.ULID]map[ulid.ULID]map[Role]struct{} // userID → contextID → roles
}

// NewResolver creates a resolver with the default role bundles.
//
// Panics if the default bundles contain an invalid pattern, which is a
// configuration bug that should fail fast.
func NewResolver(lineage Lineage) *Resolver {
	r, err := NewResolverWithRoles(DefaultRoles(), lineage)
	if err != nil {
		panic("invalid permission pattern in DefaultRoles: " + err.Error())
	}
	return r
}

// NewResolverWithRoles creates a resolver with custom role bundles.
// Returns an error if any permission pattern fails to compile.
func NewResolverWithRoles(roles map[Role][]string, lineage Lineage) (*Resolver, error) {
	compiled := make(map[Role][]compiledPermission, len(roles))
	for role, perms := range roles {
		ps := make([]compiledPermission, 0, len(perms))
		for _, p := range perms {
			g, err := glob.Compile(p, ':')
			if err != nil {
				return nil, oops.In("access").
					Code("INVALID_PERMISSION_PATTERN").
					With("role", role.String()).
					With("pattern", p).
					Wrap(err)
			}
			ps = append(ps, compiledPermission{pattern: p, glob: g})
		}
		compiled[role] = ps
	}
	return &Resolver{
		roles:   compiled,
		lineage: lineage,
		grants:  make(map[ulid.ULID]map[ulid.ULID]map[Role]struct{}),
	}, nil
}

// Assign grants the user a role at the given context.
func (r *Resolver) Assign(userID, contextID ulid.ULID, role Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byContext, ok := r.grants[userID]
	if !ok {
		byContext = make(map[ulid.ULID]map[Role]struct{})
		r.grants[userID] = byContext
	}
	roles, ok := byContext[contextID]
	if !ok {
		roles = make(map[Role]struct{})
		byContext[contextID] = roles
	}
	roles[role] = struct{}{}
}

// Revoke removes the user's role at the given context. Roles held at
// other contexts are unaffected.
func (r *Resolver) Revoke(userID, contextID ulid.ULID, role Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byContext, ok := r.grants[userID]
	if !ok {
		return
	}
	roles, ok := byContext[contextID]
	if !ok {
		return
	}
	delete(roles, role)
	if len(roles) == 0 {
		delete(byContext, contextID)
	}
	if len(byContext) == 0 {
		delete(r.grants, userID)
	}
}

// RevokeAll removes every grant the user holds at the given context.
func (r *Resolver) RevokeAll(userID, contextID ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byContext, ok := r.grants[userID]
	if !ok {
		return
	}
	delete(byContext, contextID)
	if len(byContext) == 0 {
		delete(r.grants, userID)
	}
}

// DropContext removes all grants anchored at the context, for every
// user. Called when a context is removed from the tree.
func (r *Resolver) DropContext(contextID ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, byContext := range r.grants {
		delete(byContext, contextID)
		if len(byContext) == 0 {
			delete(r.grants, userID)
		}
	}
}

// RolesAt returns the roles the user holds directly at the context.
func (r *Resolver) RolesAt(userID, contextID ulid.ULID) []Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Role
	for role := range r.grants[userID][contextID] {
		out = append(out, role)
	}
	return out
}

// HighestRole returns the highest-ranked role the user holds at the
// context or any ancestor, and false if none is held.
func (r *Resolver) HighestRole(userID, contextID ulid.ULID) (Role, bool) {
	chain := r.lineage.Lineage(contextID)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best Role
	found := false
	for _, ancestor := range chain {
		for role := range r.grants[userID][ancestor] {
			if !found || role.Outranks(best) {
				best, found = role, true
			}
		}
	}
	return best, found
}

// HasPermission reports whether any role the user holds at the context
// or any ancestor grants the permission.
func (r *Resolver) HasPermission(userID, contextID ulid.ULID, perm string) bool {
	chain := r.lineage.Lineage(contextID)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ancestor := range chain {
		for role := range r.grants[userID][ancestor] {
			if r.roleGrants(role, perm) {
				return true
			}
		}
	}
	return false
}

// UsersWithPermission returns the ids of all users whose grants satisfy
// the permission at the context. Used to fan out administrative
// notifications.
func (r *Resolver) UsersWithPermission(contextID ulid.ULID, perm string) []ulid.ULID {
	chain := r.lineage.Lineage(contextID)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ulid.ULID
	for userID, byContext := range r.grants {
		for _, ancestor := range chain {
			matched := false
			for role := range byContext[ancestor] {
				if r.roleGrants(role, perm) {
					out = append(out, userID)
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
	}
	return out
}

// roleGrants reports whether the role's bundle matches the permission.
// Caller holds at least the read lock.
func (r *Resolver) roleGrants(role Role, perm string) bool {
	for _, p := range r.roles[role] {
		if p.glob.Match(perm) {
			return true
		}
	}
	return false
}
