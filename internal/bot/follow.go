// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package bot

import (
	"github.com/oklog/ulid/v2"

	"github.com/burrowspace/burrow/internal/geometry"
	"github.com/burrowspace/burrow/internal/wire"
	"github.com/burrowspace/burrow/internal/world"
)

// followStep runs the per-tick follow logic: pick or keep a target,
// abandon it when it leaves range, and take one movement step toward
// it while keeping a small standoff distance.
func (b *Bot) followStep() {
	b.mu.Lock()
	following := b.following
	sprint := b.sprint
	targetID := b.targetID
	b.mu.Unlock()
	if !following {
		return
	}

	loc := b.User.Location()
	if loc == nil {
		return
	}

	target := b.resolveTarget(targetID, *loc)
	b.mu.Lock()
	if target == nil {
		b.targetID = nil
		b.mu.Unlock()
		return
	}
	id := target.ID
	b.targetID = &id
	b.mu.Unlock()

	targetLoc := target.Location()
	if targetLoc == nil {
		return
	}

	// Keep a standoff so the bot does not stand inside the target.
	dist := loc.DistanceTo(*targetLoc)
	if dist <= b.cfg.BufferDistance {
		return
	}

	step := b.cfg.Speed * b.cfg.TickRate.Seconds()
	if sprint {
		step *= b.cfg.SprintFactor
	}
	next := geometry.StepToward(loc.Position, targetLoc.Position, step)
	if !b.tree.IsLegal(loc.RoomID, next) {
		return
	}
	if err := b.tree.MoveUser(b.User, next); err != nil {
		return
	}

	moved := b.User.Location()
	botID := b.User.ID
	dir := uint8(moved.Direction)
	b.announce(loc.RoomID, &wire.UserMove{
		UserID:    &botID,
		X:         moved.Position.X,
		Y:         moved.Position.Y,
		Direction: &dir,
	})
}

// resolveTarget picks who to follow this tick. A held target within the
// follow radius plus buffer stays held unless a strictly closer
// candidate stands in front of the bot; a target out of range is
// dropped in favor of the nearest frontal user within the radius.
func (b *Bot) resolveTarget(currentID *ulid.ULID, loc geometry.Location) *world.User {
	var current *world.User
	currentDist := b.cfg.FollowRadius + b.cfg.BufferDistance
	if currentID != nil {
		if u, err := b.tree.User(*currentID); err == nil {
			if tl := u.Location(); tl != nil && loc.DistanceTo(*tl) <= currentDist {
				current = u
				currentDist = loc.DistanceTo(*tl)
			}
		}
	}

	best := current
	bestDist := currentDist
	for _, u := range b.tree.UsersIn(loc.RoomID) {
		if u.ID == b.User.ID || (current != nil && u.ID == current.ID) {
			continue
		}
		tl := u.Location()
		if tl == nil || !loc.InFrontOf(tl.Position) {
			continue
		}
		d := loc.DistanceTo(*tl)
		if d > b.cfg.FollowRadius {
			continue
		}
		// A held target is only displaced by someone strictly closer.
		if best == nil || d < bestDist {
			best, bestDist = u, d
		}
	}
	return best
}
