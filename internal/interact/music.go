// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package interact

import (
	"strconv"

	"github.com/oklog/ulid/v2"

	"github.com/burrowspace/burrow/internal/geometry"
	"github.com/burrowspace/burrow/internal/media"
	"github.com/burrowspace/burrow/internal/wire"
	"github.com/burrowspace/burrow/internal/world"
)

// MusicPlayer menu options.
const (
	musicOptionPlay          int32 = 1
	musicOptionPauseResume   int32 = 2
	musicOptionStop          int32 = 3
	musicOptionPrevious      int32 = 4
	musicOptionNext          int32 = 5
	musicOptionToggleLoop    int32 = 6
	musicOptionToggleShuffle int32 = 7
)

// MusicPlayer is the menu front of a streaming object. The paced
// worker lives in internal/media; this variant translates menu options
// into streamer control and keeps the area's music token current.
type MusicPlayer struct {
	*base
	ctx      *world.Context
	streamer *media.Streamer
}

// NewMusicPlayer creates a music player beneath the parent area and
// starts its streaming worker. The worker broadcasts audio chunks to
// every user present in the player's room.
func NewMusicPlayer(deps Deps, parentID ulid.ULID, name string, pos geometry.Position, tracks []media.Track) (*MusicPlayer, error) {
	m := &MusicPlayer{}
	ctx, b, err := attach(deps, parentID, name, pos, m)
	if err != nil {
		return nil, err
	}
	b.menuID = MenuMusicPlayer
	m.base = b
	m.ctx = ctx
	m.streamer = media.NewStreamer(tracks, m.broadcastBlock)
	m.streamer.Start()
	return m, nil
}

// ContextID returns the player's context id.
func (m *MusicPlayer) ContextID() ulid.ULID { return m.id }

// Streamer exposes the underlying streaming state machine.
func (m *MusicPlayer) Streamer() *media.Streamer { return m.streamer }

// Close implements world.Interactable: it stops the streaming worker.
func (m *MusicPlayer) Close() {
	m.streamer.Close()
}

// broadcastBlock delivers one audio chunk to everyone in the room,
// positioned at the player for spatial playback.
func (m *MusicPlayer) broadcastBlock(block []byte) error {
	roomID, ok := m.deps.Tree.RoomOf(m.id)
	if !ok {
		return ErrIllegalInteraction(m.id, "player outside any room")
	}
	x, y := m.pos.X, m.pos.Y
	dist := InteractionDistance * 8
	m.deps.announce(roomID, &wire.AudioMessage{
		Payload:  block,
		PosX:     &x,
		PosY:     &y,
		Distance: &dist,
	})
	return nil
}

// ExecuteMenuOption implements world.Interactable.
func (m *MusicPlayer) ExecuteMenuOption(u *world.User, code int32, args []string) error {
	if !u.InteractingWith(m) {
		return ErrIllegalInteraction(m.id, "no open session")
	}
	switch code {
	case OptionClose:
		m.endSession(u)
		return nil
	case musicOptionPlay:
		return m.play(args)
	case musicOptionPauseResume:
		if m.streamer.TogglePause() {
			m.updateMusicToken()
		} else {
			m.clearMusicToken()
		}
		return nil
	case musicOptionStop:
		m.streamer.Stop()
		m.clearMusicToken()
		return nil
	case musicOptionPrevious:
		m.streamer.Previous()
		m.updateMusicToken()
		return nil
	case musicOptionNext:
		m.streamer.Next()
		m.updateMusicToken()
		return nil
	case musicOptionToggleLoop:
		m.streamer.ToggleLoop()
		return nil
	case musicOptionToggleShuffle:
		m.streamer.ToggleShuffle()
		return nil
	default:
		return ErrIllegalInteraction(m.id, "unknown menu option")
	}
}

// play selects a track by playlist index and starts it. Args: index.
func (m *MusicPlayer) play(args []string) error {
	if len(args) < 1 {
		return ErrIllegalMenuAction("music.missing_arguments")
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return ErrIllegalMenuAction("music.bad_track", args[0])
	}
	if !m.streamer.Play(index) {
		return ErrIllegalMenuAction("music.bad_track", args[0])
	}
	m.updateMusicToken()
	return nil
}

// updateMusicToken publishes the currently playing title on the
// player's area block and tells the room.
func (m *MusicPlayer) updateMusicToken() {
	track, ok := m.streamer.Current()
	if !ok || !m.streamer.Playing() {
		m.clearMusicToken()
		return
	}
	m.ctx.Area.Music = track.Title
	m.announceMusic(&track.Title)
}

func (m *MusicPlayer) clearMusicToken() {
	m.ctx.Area.Music = ""
	m.announceMusic(nil)
}

func (m *MusicPlayer) announceMusic(title *string) {
	roomID, ok := m.deps.Tree.RoomOf(m.id)
	if !ok {
		return
	}
	m.deps.announce(roomID, &wire.ContextInfo{ContextID: m.id, Music: title})
}
