// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

// Package geometry contains spatial primitives: positions, directions,
// locations and the expanse shapes used for navigability checks.
package geometry

import (
	"fmt"
	"math"

	"github.com/oklog/ulid/v2"
)

// Direction is one of the four cardinal facings of an entity.
type Direction uint8

// Cardinal directions.
const (
	DirectionUp Direction = iota
	DirectionRight
	DirectionDown
	DirectionLeft
)

// String returns the lowercase name of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionRight:
		return "right"
	case DirectionDown:
		return "down"
	case DirectionLeft:
		return "left"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// Valid reports whether d is one of the four cardinal values.
func (d Direction) Valid() bool {
	return d <= DirectionLeft
}

// Vector returns the unit vector the direction points along.
// Y grows downward, matching client tile coordinates.
func (d Direction) Vector() (dx, dy float64) {
	switch d {
	case DirectionUp:
		return 0, -1
	case DirectionRight:
		return 1, 0
	case DirectionDown:
		return 0, 1
	default:
		return -1, 0
	}
}

// Position is a floating point within a room.
type Position struct {
	X float64
	Y float64
}

// DistanceTo returns the Euclidean distance to other.
func (p Position) DistanceTo(other Position) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Location places an entity in a room with a facing and a position.
// The zero RoomID means "not in any room".
type Location struct {
	RoomID    ulid.ULID
	Direction Direction
	Position  Position
}

// DistanceTo returns the Euclidean distance to other, or +Inf when the
// two locations are in different rooms (cross-room distance is undefined).
func (l Location) DistanceTo(other Location) float64 {
	if l.RoomID != other.RoomID {
		return math.Inf(1)
	}
	return l.Position.DistanceTo(other.Position)
}

// InFrontOf reports whether target lies in the half-plane the location
// faces. Used by follow-target selection.
func (l Location) InFrontOf(target Position) bool {
	dx, dy := l.Direction.Vector()
	return dx*(target.X-l.Position.X)+dy*(target.Y-l.Position.Y) > 0
}

// Facing returns the direction from to toward. Ties prefer the
// horizontal axis.
func Facing(from, to Position) Direction {
	dx := to.X - from.X
	dy := to.Y - from.Y
	if math.Abs(dx) >= math.Abs(dy) {
		if dx >= 0 {
			return DirectionRight
		}
		return DirectionLeft
	}
	if dy >= 0 {
		return DirectionDown
	}
	return DirectionUp
}

// StepToward returns the position reached by moving from from toward to
// by at most maxStep. Arrives exactly when the remaining distance is
// smaller than the step.
func StepToward(from, to Position, maxStep float64) Position {
	dist := from.DistanceTo(to)
	if dist <= maxStep || dist == 0 {
		return to
	}
	scale := maxStep / dist
	return Position{
		X: from.X + (to.X-from.X)*scale,
		Y: from.Y + (to.Y-from.Y)*scale,
	}
}
