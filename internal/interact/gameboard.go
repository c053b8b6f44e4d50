// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package interact

import (
	"github.com/oklog/ulid/v2"

	"github.com/burrowspace/burrow/internal/geometry"
	"github.com/burrowspace/burrow/internal/world"
)

// GameBoard is menu plumbing only: interacting opens the board's menu
// and option 0 closes it. The game rules themselves run client-side.
type GameBoard struct {
	*base
}

// NewGameBoard creates a game board beneath the parent area.
func NewGameBoard(deps Deps, parentID ulid.ULID, name string, pos geometry.Position) (*GameBoard, error) {
	g := &GameBoard{}
	_, b, err := attach(deps, parentID, name, pos, g)
	if err != nil {
		return nil, err
	}
	b.menuID = MenuGameBoard
	g.base = b
	return g, nil
}

// ContextID returns the board's context id.
func (g *GameBoard) ContextID() ulid.ULID { return g.id }

// ExecuteMenuOption implements world.Interactable.
func (g *GameBoard) ExecuteMenuOption(u *world.User, code int32, _ []string) error {
	if !u.InteractingWith(g) {
		return ErrIllegalInteraction(g.id, "no open session")
	}
	if code == OptionClose {
		g.endSession(u)
		return nil
	}
	return ErrIllegalInteraction(g.id, "unknown menu option")
}
