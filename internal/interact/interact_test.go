// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package interact_test

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowspace/burrow/internal/access"
	"github.com/burrowspace/burrow/internal/geometry"
	"github.com/burrowspace/burrow/internal/interact"
	"github.com/burrowspace/burrow/internal/notify"
	"github.com/burrowspace/burrow/internal/world"
)

// plainHasher avoids argon2 cost in tests.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }
func (plainHasher) Verify(password, hash string) (bool, error) {
	return hash == "plain:"+password, nil
}

type fixture struct {
	tree  *world.Tree
	roles *access.Resolver
	deps  interact.Deps
	world *world.Context
	room  *world.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tree := world.NewTree("global")
	roles := access.NewResolver(tree)

	w := world.NewContext(world.KindWorld, "testworld")
	require.NoError(t, tree.AddChild(tree.Root().ID, w))

	room := world.NewContext(world.KindRoom, "lobby")
	room.MapName = "lobby"
	room.Area = &world.AreaBlock{
		Expanse: geometry.NewRect(geometry.Position{}, geometry.Position{X: 30, Y: 30}),
		Region:  world.RegionAll,
		Media:   map[world.Medium]bool{world.MediumText: true, world.MediumVoice: true},
	}
	require.NoError(t, tree.AddChild(w.ID, room))

	return &fixture{
		tree:  tree,
		roles: roles,
		deps: interact.Deps{
			Tree:          tree,
			Roles:         roles,
			Notifications: notify.NewService(nil),
			Hasher:        plainHasher{},
		},
		world: w,
		room:  room,
	}
}

func (f *fixture) user(t *testing.T, name string, pos geometry.Position) *world.User {
	t.Helper()
	u := world.NewUser(name)
	u.SetLocation(&geometry.Location{RoomID: f.room.ID, Position: pos})
	f.tree.AddUser(u)
	return u
}

func TestInteractionGate(t *testing.T) {
	f := newFixture(t)
	seat, err := interact.NewSeat(f.deps, f.room.ID, "chair", geometry.Position{X: 5, Y: 5})
	require.NoError(t, err)

	t.Run("out of range is rejected", func(t *testing.T) {
		far := f.user(t, "far", geometry.Position{X: 20, Y: 20})
		assert.False(t, seat.CanInteract(far))
		assert.Error(t, seat.Interact(far))
	})

	t.Run("in range opens a session and pins the user", func(t *testing.T) {
		near := f.user(t, "near", geometry.Position{X: 6, Y: 5})
		require.NoError(t, seat.Interact(near))
		assert.True(t, near.InteractingWith(seat))
		assert.False(t, near.Movable())
	})

	t.Run("a busy user cannot open a second session", func(t *testing.T) {
		board, err := interact.NewGameBoard(f.deps, f.room.ID, "board", geometry.Position{X: 7, Y: 5})
		require.NoError(t, err)

		busy := f.user(t, "busy", geometry.Position{X: 6, Y: 5})
		require.NoError(t, seat.Interact(busy))
		assert.Error(t, board.Interact(busy))
	})

	t.Run("option zero closes any session", func(t *testing.T) {
		u := f.user(t, "closer", geometry.Position{X: 6, Y: 5})
		board, err := interact.NewGameBoard(f.deps, f.room.ID, "board2", geometry.Position{X: 6, Y: 6})
		require.NoError(t, err)
		require.NoError(t, board.Interact(u))
		require.NoError(t, board.ExecuteMenuOption(u, interact.OptionClose, nil))
		assert.Nil(t, u.CurrentInteractable())
		assert.True(t, u.Movable())
	})

	t.Run("menu options need an open session", func(t *testing.T) {
		stranger := f.user(t, "stranger", geometry.Position{X: 6, Y: 5})
		assert.Error(t, seat.ExecuteMenuOption(stranger, interact.OptionClose, nil))
	})
}

func TestSeat(t *testing.T) {
	f := newFixture(t)
	seatPos := geometry.Position{X: 5, Y: 5}
	seat, err := interact.NewSeat(f.deps, f.room.ID, "chair", seatPos)
	require.NoError(t, err)

	sitter := f.user(t, "sitter", geometry.Position{X: 6, Y: 5})
	preSit := sitter.Location().Position

	t.Run("occupy moves the user onto the seat", func(t *testing.T) {
		require.NoError(t, seat.Interact(sitter))
		require.NoError(t, seat.ExecuteMenuOption(sitter, 1, nil))
		assert.Equal(t, seatPos, sitter.Location().Position)
		require.NotNil(t, seat.Occupant())
		assert.Equal(t, sitter.ID, *seat.Occupant())
		assert.False(t, sitter.Movable(), "sitting keeps the session open")
	})

	t.Run("a second user is turned away", func(t *testing.T) {
		other := f.user(t, "other", geometry.Position{X: 6, Y: 5})
		err := seat.Interact(other)
		require.Error(t, err)
		key, _, ok := interact.MessageKey(err)
		require.True(t, ok)
		assert.Equal(t, "seat.occupied", key)
	})

	t.Run("interacting again stands up and restores the pre-sit spot", func(t *testing.T) {
		require.NoError(t, seat.Interact(sitter))
		assert.Nil(t, seat.Occupant())
		assert.Equal(t, preSit, sitter.Location().Position)
		assert.True(t, sitter.Movable())
		assert.Nil(t, sitter.CurrentInteractable())
	})
}

func TestPortal(t *testing.T) {
	f := newFixture(t)

	other := world.NewContext(world.KindRoom, "plaza")
	other.MapName = "plaza"
	other.Area = &world.AreaBlock{
		Expanse: geometry.NewRect(geometry.Position{}, geometry.Position{X: 30, Y: 30}),
		Region:  world.RegionAll,
		Media:   map[world.Medium]bool{world.MediumText: true},
	}
	require.NoError(t, f.tree.AddChild(f.world.ID, other))

	dest := geometry.Location{RoomID: other.ID, Direction: geometry.DirectionDown, Position: geometry.Position{X: 15, Y: 15}}
	portal, err := interact.NewPortal(f.deps, f.room.ID, "gate", geometry.Position{X: 5, Y: 5}, dest)
	require.NoError(t, err)

	traveler := f.user(t, "traveler", geometry.Position{X: 6, Y: 5})

	t.Run("confirm teleports and releases the session", func(t *testing.T) {
		require.NoError(t, portal.Interact(traveler))
		require.NoError(t, portal.ExecuteMenuOption(traveler, 1, nil))
		loc := traveler.Location()
		assert.Equal(t, other.ID, loc.RoomID)
		assert.Equal(t, dest.Position, loc.Position)
		assert.Nil(t, traveler.CurrentInteractable())
		assert.True(t, traveler.Movable())
	})

	t.Run("decline stays put", func(t *testing.T) {
		stay := f.user(t, "stay", geometry.Position{X: 6, Y: 5})
		require.NoError(t, portal.Interact(stay))
		require.NoError(t, portal.ExecuteMenuOption(stay, interact.OptionClose, nil))
		assert.Equal(t, f.room.ID, stay.Location().RoomID)
	})
}

func TestRoomReception(t *testing.T) {
	f := newFixture(t)
	reception, err := interact.NewRoomReception(f.deps, f.room.ID, "desk", geometry.Position{X: 5, Y: 5})
	require.NoError(t, err)

	open := func(t *testing.T, u *world.User) {
		t.Helper()
		require.NoError(t, f.tree.Teleport(u, geometry.Location{RoomID: f.room.ID, Position: geometry.Position{X: 6, Y: 5}}))
		require.NoError(t, reception.Interact(u))
	}

	creator := f.user(t, "creator", geometry.Position{X: 6, Y: 5})

	t.Run("rejects malformed names and passwords", func(t *testing.T) {
		open(t, creator)
		err := reception.ExecuteMenuOption(creator, 1, []string{"x", "secret99", "den"})
		key, _, ok := interact.MessageKey(err)
		require.True(t, ok)
		assert.Equal(t, "reception.invalid_room_name", key)

		err = reception.ExecuteMenuOption(creator, 1, []string{"hideout", "abc", "den"})
		key, _, ok = interact.MessageKey(err)
		require.True(t, ok)
		assert.Equal(t, "reception.invalid_password", key)
		reception.ExecuteMenuOption(creator, interact.OptionClose, nil)
	})

	var roomID ulid.ULID

	t.Run("create makes the room and admits the creator movable", func(t *testing.T) {
		open(t, creator)
		require.NoError(t, reception.ExecuteMenuOption(creator, 1, []string{"hideout", "secret99", "den"}))

		created, err := f.tree.FindChildByName(f.world.ID, "hideout")
		require.NoError(t, err)
		roomID = created.ID

		assert.Equal(t, created.ID, creator.Location().RoomID)
		assert.True(t, creator.Movable())
		assert.True(t, f.roles.HasPermission(creator.ID, created.ID, access.PermRoomManage))
	})

	t.Run("duplicate names are rejected", func(t *testing.T) {
		dup := f.user(t, "dup", geometry.Position{X: 6, Y: 5})
		open(t, dup)
		err := reception.ExecuteMenuOption(dup, 1, []string{"hideout", "secret99", "den"})
		key, _, ok := interact.MessageKey(err)
		require.True(t, ok)
		assert.Equal(t, "reception.room_name_taken", key)
		reception.ExecuteMenuOption(dup, interact.OptionClose, nil)
	})

	t.Run("join requires the right password", func(t *testing.T) {
		joiner := f.user(t, "joiner", geometry.Position{X: 6, Y: 5})
		open(t, joiner)
		err := reception.ExecuteMenuOption(joiner, 2, []string{roomID.String(), "wrong"})
		key, _, ok := interact.MessageKey(err)
		require.True(t, ok)
		assert.Equal(t, "reception.wrong_password", key)

		require.NoError(t, reception.ExecuteMenuOption(joiner, 2, []string{roomID.String(), "secret99"}))
		assert.Equal(t, roomID, joiner.Location().RoomID)
	})

	t.Run("join requests route to an admitter and admit on accept", func(t *testing.T) {
		requester := f.user(t, "requester", geometry.Position{X: 6, Y: 5})
		open(t, requester)
		require.NoError(t, reception.ExecuteMenuOption(requester, 3, []string{roomID.String()}))

		pending := f.deps.Notifications.PendingFor(creator.ID)
		require.Len(t, pending, 1)
		assert.True(t, pending[0].IsRequest)

		require.NoError(t, f.deps.Notifications.Accept(pending[0].ID, creator.ID))
		assert.Equal(t, roomID, requester.Location().RoomID)
	})

	t.Run("unknown rooms are rejected", func(t *testing.T) {
		lost := f.user(t, "lost", geometry.Position{X: 6, Y: 5})
		open(t, lost)
		err := reception.ExecuteMenuOption(lost, 2, []string{ulid.Make().String(), "secret99"})
		key, _, ok := interact.MessageKey(err)
		require.True(t, ok)
		assert.Equal(t, "reception.no_such_room", key)
	})
}

func TestAreaPlanner(t *testing.T) {
	f := newFixture(t)

	area := world.NewContext(world.KindArea, "stage")
	area.Area = &world.AreaBlock{
		Expanse: geometry.NewRect(geometry.Position{}, geometry.Position{X: 10, Y: 10}),
	}
	require.NoError(t, f.tree.AddChild(f.room.ID, area))

	planner, err := interact.NewAreaPlanner(f.deps, area.ID, "board", geometry.Position{X: 5, Y: 5})
	require.NoError(t, err)

	slotStart := time.Now().UTC().Truncate(time.Hour).Add(24 * time.Hour)
	slot := func(offset time.Duration, length time.Duration) []string {
		start := slotStart.Add(offset)
		return []string{
			start.Format("2006-01-02 15:04"),
			start.Add(length).Format("2006-01-02 15:04"),
		}
	}

	open := func(t *testing.T, u *world.User) {
		t.Helper()
		require.NoError(t, f.tree.Teleport(u, geometry.Location{RoomID: f.room.ID, Position: geometry.Position{X: 6, Y: 5}}))
		require.NoError(t, planner.Interact(u))
	}

	reserve := func(u *world.User, args []string) (string, error) {
		err := planner.ExecuteMenuOption(u, 1, args)
		if err == nil {
			return "", nil
		}
		key, _, _ := interact.MessageKey(err)
		return key, err
	}

	t.Run("validates the slot shape", func(t *testing.T) {
		u := f.user(t, "picky", geometry.Position{X: 6, Y: 5})
		open(t, u)

		key, _ := reserve(u, []string{"yesterday", "today"})
		assert.Equal(t, "planner.malformed_time", key)

		key, _ = reserve(u, []string{slotStart.Add(30 * time.Minute).Format("2006-01-02 15:04"), slotStart.Add(90 * time.Minute).Format("2006-01-02 15:04")})
		assert.Equal(t, "planner.not_on_the_hour", key)

		key, _ = reserve(u, slot(0, 2*time.Hour))
		assert.Equal(t, "planner.not_one_hour", key)

		key, _ = reserve(u, []string{
			slotStart.Add(-48 * time.Hour).Format("2006-01-02 15:04"),
			slotStart.Add(-47 * time.Hour).Format("2006-01-02 15:04"),
		})
		assert.Equal(t, "planner.slot_in_past", key)
	})

	t.Run("books a valid slot and notifies area managers", func(t *testing.T) {
		manager := ulid.Make()
		f.roles.Assign(manager, area.ID, access.RoleModerator)

		u := f.user(t, "booker", geometry.Position{X: 6, Y: 5})
		open(t, u)
		key, err := reserve(u, slot(0, time.Hour))
		require.NoError(t, err, key)

		require.Len(t, planner.Reservations(), 1)
		assert.Equal(t, u.ID, planner.Reservations()[0].UserID)

		pending := f.deps.Notifications.PendingFor(manager)
		require.Len(t, pending, 1)
		assert.Equal(t, "planner.reservation_made", pending[0].MessageKey)
	})

	t.Run("one reservation per user", func(t *testing.T) {
		u := f.user(t, "greedy", geometry.Position{X: 6, Y: 5})
		open(t, u)
		_, err := reserve(u, slot(2*time.Hour, time.Hour))
		require.NoError(t, err)
		key, _ := reserve(u, slot(4*time.Hour, time.Hour))
		assert.Equal(t, "planner.already_reserved", key)
	})

	t.Run("overlapping slots are rejected", func(t *testing.T) {
		u := f.user(t, "late", geometry.Position{X: 6, Y: 5})
		open(t, u)
		key, _ := reserve(u, slot(2*time.Hour, time.Hour))
		assert.Equal(t, "planner.slot_taken", key)
	})
}
