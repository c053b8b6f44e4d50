// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/burrowspace/burrow/internal/access"
	"github.com/burrowspace/burrow/internal/account"
	"github.com/burrowspace/burrow/internal/bot"
	"github.com/burrowspace/burrow/internal/config"
	"github.com/burrowspace/burrow/internal/geometry"
	"github.com/burrowspace/burrow/internal/interact"
	"github.com/burrowspace/burrow/internal/media"
	"github.com/burrowspace/burrow/internal/notify"
	"github.com/burrowspace/burrow/internal/server"
	"github.com/burrowspace/burrow/internal/world"
)

// Default world geometry.
var (
	lobbyExpanse = geometry.NewRect(geometry.Position{}, geometry.Position{X: 40, Y: 30})
	plazaExpanse = geometry.NewRect(geometry.Position{}, geometry.Position{X: 60, Y: 60})
	stageExpanse = geometry.Circle{Center: geometry.Position{X: 30, Y: 15}, Radius: 10}
)

// buildWorld seeds the default world: a lobby with a reception and
// seats, a plaza with a music player and a game board, a stage area
// with its planner, and a greeter bot. The returned cleanup removes
// the world subtree, which closes every object worker.
func buildWorld(
	tree *world.Tree,
	roles *access.Resolver,
	notifications *notify.Service,
	hasher *account.Argon2idHasher,
	broadcast *server.Broadcaster,
	bots *bot.Manager,
	cfg config.Config,
) (func(), error) {
	deps := interact.Deps{
		Tree:          tree,
		Roles:         roles,
		Notifications: notifications,
		Hasher:        hasher,
		Announce:      broadcast.ToRoom,
	}

	w := world.NewContext(world.KindWorld, cfg.WorldName)
	if err := tree.AddChild(tree.Root().ID, w); err != nil {
		return nil, err
	}

	lobby := newRoom("lobby", "lobby", lobbyExpanse)
	if err := tree.AddChild(w.ID, lobby); err != nil {
		return nil, err
	}
	plaza := newRoom("plaza", "plaza", plazaExpanse)
	if err := tree.AddChild(w.ID, plaza); err != nil {
		return nil, err
	}

	// The stage hears only within its radius so performances don't
	// drown out the rest of the plaza.
	stage := world.NewContext(world.KindArea, "stage")
	stage.Area = &world.AreaBlock{
		Expanse:      stageExpanse,
		Region:       world.RegionRadius,
		RegionRadius: 10,
		Media:        map[world.Medium]bool{world.MediumText: true, world.MediumVoice: true},
	}
	if err := tree.AddChild(plaza.ID, stage); err != nil {
		return nil, err
	}

	if _, err := interact.NewRoomReception(deps, lobby.ID, "reception", geometry.Position{X: 20, Y: 5}); err != nil {
		return nil, err
	}
	for i, pos := range []geometry.Position{{X: 10, Y: 20}, {X: 12, Y: 20}, {X: 14, Y: 20}} {
		name := "bench-" + string(rune('a'+i))
		if _, err := interact.NewSeat(deps, lobby.ID, name, pos); err != nil {
			return nil, err
		}
	}

	plazaEntry := geometry.Location{
		RoomID:    plaza.ID,
		Direction: geometry.DirectionDown,
		Position:  geometry.Position{X: 30, Y: 55},
	}
	if _, err := interact.NewPortal(deps, lobby.ID, "plaza gate", geometry.Position{X: 38, Y: 15}, plazaEntry); err != nil {
		return nil, err
	}

	tracks, err := loadTracks(cfg.MusicDir)
	if err != nil {
		return nil, err
	}
	if _, err := interact.NewMusicPlayer(deps, plaza.ID, "jukebox", geometry.Position{X: 45, Y: 45}, tracks); err != nil {
		return nil, err
	}
	if _, err := interact.NewGameBoard(deps, plaza.ID, "game table", geometry.Position{X: 15, Y: 45}); err != nil {
		return nil, err
	}
	if _, err := interact.NewAreaPlanner(deps, stage.ID, "stage planner", geometry.Position{X: 30, Y: 10}); err != nil {
		return nil, err
	}

	bots.Spawn(bot.Config{
		Name: "warren",
		Script: []string{
			"Welcome to the burrow!",
			"The plaza is through the gate to the east.",
			"Whisper !follow to me and I'll tag along.",
		},
	}, geometry.Location{
		RoomID:    lobby.ID,
		Direction: geometry.DirectionDown,
		Position:  geometry.Position{X: 20, Y: 10},
	})

	slog.Info("world seeded",
		"world_id", w.ID.String(),
		"rooms", 2,
		"tracks", len(tracks),
	)
	return func() { _ = tree.Remove(w.ID) }, nil
}

// newRoom creates a room context spanning the given expanse with all
// media permitted and room-wide communication.
func newRoom(name, mapName string, e geometry.Expanse) *world.Context {
	room := world.NewContext(world.KindRoom, name)
	room.MapName = mapName
	room.Area = &world.AreaBlock{
		Expanse: e,
		Region:  world.RegionAll,
		Media:   map[world.Medium]bool{world.MediumText: true, world.MediumVoice: true},
	}
	return room
}

// loadTracks reads every file in dir as one raw audio track, in name
// order. An empty dir name yields an empty playlist.
func loadTracks(dir string) ([]media.Track, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var tracks []media.Track
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, media.Track{Title: e.Name(), Data: data})
	}
	return tracks, nil
}
