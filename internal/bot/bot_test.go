// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package bot_test

import (
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/burrowspace/burrow/internal/bot"
	"github.com/burrowspace/burrow/internal/geometry"
	"github.com/burrowspace/burrow/internal/wire"
	"github.com/burrowspace/burrow/internal/world"
)

// sendRecorder captures packets sent to one user's transport.
type sendRecorder struct {
	mu      sync.Mutex
	packets []wire.Packet
}

func (r *sendRecorder) Send(p wire.Packet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packets = append(r.packets, p)
	return nil
}

// whispers returns the text of every whisper the recorder received.
func (r *sendRecorder) whispers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, p := range r.packets {
		if c, ok := p.(*wire.ChatUser); ok && c.Type == wire.ChatWhisper {
			out = append(out, c.Text)
		}
	}
	return out
}

// announceLog captures room broadcasts from bots.
type announceLog struct {
	mu      sync.Mutex
	packets []roomPacket
}

type roomPacket struct {
	roomID ulid.ULID
	packet wire.Packet
}

func (l *announceLog) record(roomID ulid.ULID, p wire.Packet) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.packets = append(l.packets, roomPacket{roomID: roomID, packet: p})
}

func (l *announceLog) snapshot() []roomPacket {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]roomPacket(nil), l.packets...)
}

func (l *announceLog) says() []string {
	var out []string
	for _, rp := range l.snapshot() {
		if c, ok := rp.packet.(*wire.ChatUser); ok && c.Type == wire.ChatSay {
			out = append(out, c.Text)
		}
	}
	return out
}

// newRoomTree builds root → world → room(40×40).
func newRoomTree(t *testing.T) (*world.Tree, ulid.ULID) {
	t.Helper()
	tree := world.NewTree("global")
	w := world.NewContext(world.KindWorld, "testworld")
	require.NoError(t, tree.AddChild(tree.Root().ID, w))
	room := world.NewContext(world.KindRoom, "lobby")
	room.Area = &world.AreaBlock{
		Expanse: geometry.NewRect(geometry.Position{}, geometry.Position{X: 40, Y: 40}),
		Region:  world.RegionAll,
		Media:   map[world.Medium]bool{world.MediumText: true, world.MediumVoice: true},
	}
	require.NoError(t, tree.AddChild(w.ID, room))
	return tree, room.ID
}

func placeUser(t *testing.T, tree *world.Tree, name string, roomID ulid.ULID, pos geometry.Position) (*world.User, *sendRecorder) {
	t.Helper()
	u := world.NewUser(name)
	u.SetLocation(&geometry.Location{RoomID: roomID, Position: pos})
	tree.AddUser(u)
	rec := &sendRecorder{}
	u.Login(rec)
	return u, rec
}

func TestHandleChatCommands(t *testing.T) {
	tree, roomID := newRoomTree(t)
	log := &announceLog{}
	b := bot.New(bot.Config{Name: "warren"}, tree, log.record, geometry.Location{RoomID: roomID, Position: geometry.Position{X: 10, Y: 10}}, nil)
	sender, rec := placeUser(t, tree, "alice", roomID, geometry.Position{X: 12, Y: 10})

	t.Run("non-whispers are ignored", func(t *testing.T) {
		b.HandleChat(sender, "!follow", false)
		assert.Empty(t, rec.whispers())
	})

	t.Run("the bot ignores itself", func(t *testing.T) {
		b.HandleChat(b.User, "!say echo", true)
		assert.Empty(t, log.says())
	})

	t.Run("follow acknowledges the sender", func(t *testing.T) {
		b.HandleChat(sender, "!follow", true)
		assert.Contains(t, rec.whispers(), "following you")
	})

	t.Run("unfollow acknowledges the sender", func(t *testing.T) {
		b.HandleChat(sender, "!unfollow", true)
		assert.Contains(t, rec.whispers(), "staying put")
	})

	t.Run("bad toggle argument is whispered back", func(t *testing.T) {
		b.HandleChat(sender, "!sprint maybe", true)
		last := rec.whispers()[len(rec.whispers())-1]
		assert.Contains(t, last, "error: ")
		assert.Contains(t, last, "maybe")
	})

	t.Run("say needs an argument", func(t *testing.T) {
		b.HandleChat(sender, "!say", true)
		last := rec.whispers()[len(rec.whispers())-1]
		assert.Contains(t, last, "error: ")
	})

	t.Run("say broadcasts to the room", func(t *testing.T) {
		b.HandleChat(sender, "!say hello there", true)
		require.Contains(t, log.says(), "hello there")
		rp := log.snapshot()[len(log.snapshot())-1]
		assert.Equal(t, roomID, rp.roomID)
	})

	t.Run("unknown commands are whispered back", func(t *testing.T) {
		b.HandleChat(sender, "!dance", true)
		last := rec.whispers()[len(rec.whispers())-1]
		assert.Contains(t, last, "error: ")
		assert.Contains(t, last, "dance")
	})
}

func TestWhisperForwarding(t *testing.T) {
	tree, roomID := newRoomTree(t)
	log := &announceLog{}
	b := bot.New(bot.Config{Name: "warren"}, tree, log.record, geometry.Location{RoomID: roomID, Position: geometry.Position{X: 10, Y: 10}}, nil)
	owner, ownerRec := placeUser(t, tree, "alice", roomID, geometry.Position{X: 12, Y: 10})
	stranger, strangerRec := placeUser(t, tree, "mallory", roomID, geometry.Position{X: 14, Y: 10})

	t.Run("without forwarding whispers vanish", func(t *testing.T) {
		b.HandleChat(stranger, "psst", true)
		assert.Empty(t, ownerRec.whispers())
	})

	t.Run("forward relays with the sender name", func(t *testing.T) {
		b.HandleChat(owner, "!forward on", true)
		b.HandleChat(stranger, "psst", true)
		require.Len(t, ownerRec.whispers(), 1)
		assert.Equal(t, "mallory whispered: psst", ownerRec.whispers()[0])
	})

	t.Run("the recipient's own whispers are not echoed back", func(t *testing.T) {
		b.HandleChat(owner, "hello bot", true)
		assert.Len(t, ownerRec.whispers(), 1)
	})

	t.Run("forward off stops the relay", func(t *testing.T) {
		b.HandleChat(owner, "!forward off", true)
		b.HandleChat(stranger, "again", true)
		assert.Len(t, ownerRec.whispers(), 1)
		assert.Empty(t, strangerRec.whispers())
	})
}

func TestSpeakEmitsAudioChunks(t *testing.T) {
	defer goleak.VerifyNone(t)

	tree, roomID := newRoomTree(t)
	log := &announceLog{}
	m := bot.NewManager(tree, log.record)
	defer m.CloseAll()

	b := m.Spawn(bot.Config{Name: "warren", TickRate: 5 * time.Millisecond},
		geometry.Location{RoomID: roomID, Position: geometry.Position{X: 10, Y: 10}})
	sender, _ := placeUser(t, tree, "alice", roomID, geometry.Position{X: 12, Y: 10})

	b.HandleChat(sender, "!speak hi", true)

	require.Eventually(t, func() bool {
		for _, rp := range log.snapshot() {
			if a, ok := rp.packet.(*wire.AudioMessage); ok {
				return len(a.Payload) == 2*64 && rp.roomID == roomID
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond, "synthesized chunk never broadcast")
}

func TestFollowKeepsStandoffDistance(t *testing.T) {
	defer goleak.VerifyNone(t)

	tree, roomID := newRoomTree(t)
	log := &announceLog{}
	m := bot.NewManager(tree, log.record)
	defer m.CloseAll()

	cfg := bot.Config{Name: "warren", TickRate: 5 * time.Millisecond, Speed: 40}
	b := m.Spawn(cfg, geometry.Location{RoomID: roomID, Position: geometry.Position{X: 5, Y: 5}})
	target, _ := placeUser(t, tree, "alice", roomID, geometry.Position{X: 5, Y: 9})

	b.HandleChat(target, "!follow", true)

	dist := func() float64 {
		return b.User.Location().DistanceTo(*target.Location())
	}

	require.Eventually(t, func() bool {
		return dist() <= bot.DefaultBufferDistance
	}, 2*time.Second, 5*time.Millisecond, "bot never closed the distance")

	// The standoff keeps the bot from walking into the target.
	time.Sleep(50 * time.Millisecond)
	assert.Greater(t, dist(), 1.0, "bot should stop short of the target")

	var moves int
	for _, rp := range log.snapshot() {
		if _, ok := rp.packet.(*wire.UserMove); ok {
			moves++
		}
	}
	assert.Positive(t, moves, "movement steps are broadcast")
}

func TestFollowSwitchesToCloserCandidate(t *testing.T) {
	defer goleak.VerifyNone(t)

	tree, roomID := newRoomTree(t)
	log := &announceLog{}
	m := bot.NewManager(tree, log.record)
	defer m.CloseAll()

	cfg := bot.Config{Name: "warren", TickRate: 5 * time.Millisecond, Speed: 40}
	b := m.Spawn(cfg, geometry.Location{RoomID: roomID, Position: geometry.Position{X: 20, Y: 5}})
	alice, _ := placeUser(t, tree, "alice", roomID, geometry.Position{X: 20, Y: 10})
	bob, _ := placeUser(t, tree, "bob", roomID, geometry.Position{X: 20, Y: 6})

	b.HandleChat(alice, "!follow", true)

	distTo := func(u *world.User) float64 {
		return b.User.Location().DistanceTo(*u.Location())
	}

	// Bob stands directly between the bot and alice. The first step
	// toward alice faces the bot at bob, who is strictly closer; the
	// bot must settle at bob's standoff instead of walking past him.
	require.Eventually(t, func() bool {
		for _, rp := range log.snapshot() {
			if _, ok := rp.packet.(*wire.UserMove); ok {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond, "bot never moved")

	time.Sleep(300 * time.Millisecond)
	assert.LessOrEqual(t, distTo(bob), bot.DefaultBufferDistance)
	assert.Greater(t, distTo(alice), 2.0, "bot should not walk past the closer candidate")
}

func TestSelfDestruct(t *testing.T) {
	defer goleak.VerifyNone(t)

	tree, roomID := newRoomTree(t)
	log := &announceLog{}
	m := bot.NewManager(tree, log.record)
	defer m.CloseAll()

	b := m.Spawn(bot.Config{Name: "warren", TickRate: 5 * time.Millisecond},
		geometry.Location{RoomID: roomID, Position: geometry.Position{X: 10, Y: 10}})
	sender, rec := placeUser(t, tree, "alice", roomID, geometry.Position{X: 12, Y: 10})
	botID := b.User.ID

	require.True(t, m.IsBot(botID))
	b.HandleChat(sender, "!selfdestruct", true)
	assert.Contains(t, rec.whispers(), "goodbye")

	require.Eventually(t, func() bool {
		if m.IsBot(botID) {
			return false
		}
		_, err := tree.User(botID)
		return err != nil
	}, 2*time.Second, 5*time.Millisecond, "bot never left the world")
}

func TestDeliverChatRouting(t *testing.T) {
	defer goleak.VerifyNone(t)

	tree, roomID := newRoomTree(t)

	w, err := tree.Get(tree.Root().ChildIDs()[0])
	require.NoError(t, err)
	other := world.NewContext(world.KindRoom, "plaza")
	other.Area = &world.AreaBlock{
		Expanse: geometry.NewRect(geometry.Position{}, geometry.Position{X: 40, Y: 40}),
		Region:  world.RegionAll,
		Media:   map[world.Medium]bool{world.MediumText: true},
	}
	require.NoError(t, tree.AddChild(w.ID, other))

	log := &announceLog{}
	m := bot.NewManager(tree, log.record)
	defer m.CloseAll()

	near := m.Spawn(bot.Config{Name: "near", TickRate: time.Hour},
		geometry.Location{RoomID: roomID, Position: geometry.Position{X: 10, Y: 10}})
	far := m.Spawn(bot.Config{Name: "far", TickRate: time.Hour},
		geometry.Location{RoomID: other.ID, Position: geometry.Position{X: 10, Y: 10}})
	sender, _ := placeUser(t, tree, "alice", roomID, geometry.Position{X: 12, Y: 10})

	t.Run("chat reaches only bots in the sender's room", func(t *testing.T) {
		m.DeliverChat(sender, nil, "!say ping", true)
		require.Equal(t, []string{"ping"}, log.says())
		rp := log.snapshot()[len(log.snapshot())-1]
		assert.Equal(t, roomID, rp.roomID)
	})

	t.Run("an addressed whisper reaches only that bot", func(t *testing.T) {
		m.DeliverChat(sender, &far.User.ID, "!say pong", true)
		assert.Equal(t, []string{"ping"}, log.says(), "bot in another room stays silent")

		m.DeliverChat(sender, &near.User.ID, "!say pong", true)
		assert.Equal(t, []string{"ping", "pong"}, log.says())
	})

	t.Run("a sender outside the world is dropped", func(t *testing.T) {
		ghost := world.NewUser("ghost")
		tree.AddUser(ghost)
		m.DeliverChat(ghost, nil, "!say boo", true)
		assert.Equal(t, []string{"ping", "pong"}, log.says())
	})
}
