// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package world

import (
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Error codes for world operations.
const (
	CodeContextNotFound = "CONTEXT_NOT_FOUND"
	CodeUserNotFound    = "USER_NOT_FOUND"
	CodeIllegalPosition = "ILLEGAL_POSITION"
	CodeDuplicateChild  = "DUPLICATE_CHILD"
	CodeUserNotMovable  = "USER_NOT_MOVABLE"
)

// ErrContextNotFound creates an error for a missing context.
func ErrContextNotFound(id ulid.ULID) error {
	return oops.Code(CodeContextNotFound).
		With("context_id", id.String()).
		Errorf("context not found: %s", id)
}

// ErrUserNotFound creates an error for a missing user.
func ErrUserNotFound(id ulid.ULID) error {
	return oops.Code(CodeUserNotFound).
		With("user_id", id.String()).
		Errorf("user not found: %s", id)
}

// ErrIllegalPosition creates an error for a movement target outside
// the navigable geometry.
func ErrIllegalPosition(roomID ulid.ULID, x, y float64) error {
	return oops.Code(CodeIllegalPosition).
		With("room_id", roomID.String()).
		With("x", x).
		With("y", y).
		Errorf("position (%.1f, %.1f) is not legal in room %s", x, y, roomID)
}

// ErrDuplicateChild creates an error for adding a child id twice.
func ErrDuplicateChild(parentID, childID ulid.ULID) error {
	return oops.Code(CodeDuplicateChild).
		With("parent_id", parentID.String()).
		With("child_id", childID.String()).
		Errorf("context %s already has child %s", parentID, childID)
}

// ErrUserNotMovable creates an error for moving a user pinned by an
// interaction.
func ErrUserNotMovable(id ulid.ULID) error {
	return oops.Code(CodeUserNotMovable).
		With("user_id", id.String()).
		Errorf("user %s cannot move right now", id)
}

// oopsNameNotFound creates an error for a child name lookup miss.
func oopsNameNotFound(parentID ulid.ULID, name string) error {
	return oops.Code(CodeContextNotFound).
		With("parent_id", parentID.String()).
		With("name", name).
		Errorf("no child named %q under context %s", name, parentID)
}
