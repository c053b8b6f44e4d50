// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package server

import (
	"errors"
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowspace/burrow/internal/geometry"
	"github.com/burrowspace/burrow/internal/interact"
	"github.com/burrowspace/burrow/internal/notify"
	"github.com/burrowspace/burrow/internal/wire"
	"github.com/burrowspace/burrow/internal/world"
)

// packetRecorder implements world.Sender for broadcast assertions.
type packetRecorder struct {
	mu      sync.Mutex
	packets []wire.Packet
}

func (r *packetRecorder) Send(p wire.Packet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packets = append(r.packets, p)
	return nil
}

func (r *packetRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.packets)
}

func (r *packetRecorder) last() wire.Packet {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.packets) == 0 {
		return nil
	}
	return r.packets[len(r.packets)-1]
}

func TestSessionManager(t *testing.T) {
	sm := NewSessionManager()
	user := world.NewUser("alice")

	first := NewSession(nil)
	first.SetUser(user)
	sm.Add(first)

	t.Run("add and count", func(t *testing.T) {
		assert.Equal(t, 1, sm.Count())
	})

	t.Run("first bind displaces nothing", func(t *testing.T) {
		assert.Nil(t, sm.Bind(user.ID, first))
		got, ok := sm.ByUser(user.ID)
		require.True(t, ok)
		assert.Same(t, first, got)
	})

	t.Run("rebinding the same session displaces nothing", func(t *testing.T) {
		assert.Nil(t, sm.Bind(user.ID, first))
	})

	t.Run("a second login displaces the first session", func(t *testing.T) {
		second := NewSession(nil)
		second.SetUser(user)
		sm.Add(second)

		displaced := sm.Bind(user.ID, second)
		require.NotNil(t, displaced)
		assert.Same(t, first, displaced)

		got, ok := sm.ByUser(user.ID)
		require.True(t, ok)
		assert.Same(t, second, got)

		// Removing the displaced session must not clear the new binding.
		sm.Remove(first)
		got, ok = sm.ByUser(user.ID)
		require.True(t, ok)
		assert.Same(t, second, got)

		sm.Remove(second)
		_, ok = sm.ByUser(user.ID)
		assert.False(t, ok)
		assert.Zero(t, sm.Count())
	})
}

// typing builds a minimal broadcastable packet.
func typing(id ulid.ULID) *wire.UserTyping {
	return &wire.UserTyping{SenderID: &id}
}

func TestSessionSendQueue(t *testing.T) {
	s := NewSession(nil)

	t.Run("queues packets", func(t *testing.T) {
		assert.NoError(t, s.Send(typing(ulid.Make())))
	})

	t.Run("a full queue drops instead of blocking", func(t *testing.T) {
		for range sendQueueSize {
			_ = s.Send(typing(ulid.Make()))
		}
		err := s.Send(typing(ulid.Make()))
		require.Error(t, err)
		var oopsErr oops.OopsError
		require.ErrorAs(t, err, &oopsErr)
		assert.Equal(t, "SEND_QUEUE_FULL", oopsErr.Code())
	})
}

func broadcastFixture(t *testing.T) (*world.Tree, *Broadcaster, ulid.ULID) {
	t.Helper()
	tree := world.NewTree("global")
	w := world.NewContext(world.KindWorld, "testworld")
	require.NoError(t, tree.AddChild(tree.Root().ID, w))
	room := world.NewContext(world.KindRoom, "lobby")
	room.Area = &world.AreaBlock{
		Expanse: geometry.NewRect(geometry.Position{}, geometry.Position{X: 20, Y: 20}),
		Region:  world.RegionAll,
		Media:   map[world.Medium]bool{world.MediumText: true},
	}
	require.NoError(t, tree.AddChild(w.ID, room))
	return tree, NewBroadcaster(tree), room.ID
}

func connectUser(t *testing.T, tree *world.Tree, name string, roomID ulid.ULID) (*world.User, *packetRecorder) {
	t.Helper()
	u := world.NewUser(name)
	u.SetLocation(&geometry.Location{RoomID: roomID, Position: geometry.Position{X: 5, Y: 5}})
	tree.AddUser(u)
	rec := &packetRecorder{}
	u.Login(rec)
	return u, rec
}

func TestBroadcaster(t *testing.T) {
	tree, b, roomID := broadcastFixture(t)
	alice, aliceRec := connectUser(t, tree, "alice", roomID)
	_, bobRec := connectUser(t, tree, "bob", roomID)

	t.Run("to room reaches everyone present", func(t *testing.T) {
		b.ToRoom(roomID, typing(alice.ID))
		assert.Equal(t, 1, aliceRec.count())
		assert.Equal(t, 1, bobRec.count())
	})

	t.Run("to room except skips the excluded user", func(t *testing.T) {
		b.ToRoomExcept(roomID, alice.ID, typing(alice.ID))
		assert.Equal(t, 1, aliceRec.count())
		assert.Equal(t, 2, bobRec.count())
	})

	t.Run("to unknown user is a no-op", func(t *testing.T) {
		b.ToUser(ulid.Make(), typing(alice.ID))
	})

	t.Run("deliver wraps notifications for the wire", func(t *testing.T) {
		svc := notify.NewService(b)
		n := svc.Notify(ulid.Make(), alice.ID, roomID, "manage.user_reported", "mallory")

		out, ok := aliceRec.last().(*wire.NotificationOut)
		require.True(t, ok, "expected a notification packet")
		assert.Equal(t, n.ID, out.ID)
		assert.Equal(t, roomID, out.ContextID)
		assert.Equal(t, "manage.user_reported", out.MessageKey)
		assert.Equal(t, []string{"mallory"}, out.MessageArgs)
		assert.False(t, out.IsRequest)
	})
}

func TestFailureMessage(t *testing.T) {
	t.Run("nil error has no message", func(t *testing.T) {
		assert.Nil(t, failureMessage(nil))
	})

	t.Run("menu action errors surface their message key", func(t *testing.T) {
		err := interact.ErrIllegalMenuAction("seat.occupied")
		msg := failureMessage(err)
		require.NotNil(t, msg)
		assert.Equal(t, "seat.occupied", *msg)
	})

	t.Run("coded errors surface the code", func(t *testing.T) {
		err := oops.Code("ACCOUNT_NAME_TAKEN").Errorf("taken")
		msg := failureMessage(err)
		require.NotNil(t, msg)
		assert.Equal(t, "ACCOUNT_NAME_TAKEN", *msg)
	})

	t.Run("plain errors collapse to internal_error", func(t *testing.T) {
		err := errors.New("something broke")
		msg := failureMessage(err)
		require.NotNil(t, msg)
		assert.Equal(t, "internal_error", *msg)
		assert.Equal(t, "internal_error", errCode(err))
	})
}
