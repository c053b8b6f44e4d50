// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package server

import (
	"github.com/oklog/ulid/v2"

	"github.com/burrowspace/burrow/internal/notify"
	"github.com/burrowspace/burrow/internal/wire"
	"github.com/burrowspace/burrow/internal/world"
)

// Broadcaster fans packets out to the users present in a room. It also
// implements notify.Deliverer by pushing notifications to their
// receiver's transport.
type Broadcaster struct {
	tree *world.Tree
}

// NewBroadcaster creates a broadcaster over the given tree.
func NewBroadcaster(tree *world.Tree) *Broadcaster {
	return &Broadcaster{tree: tree}
}

// ToRoom sends the packet to every user in the room.
func (b *Broadcaster) ToRoom(roomID ulid.ULID, p wire.Packet) {
	for _, u := range b.tree.UsersIn(roomID) {
		u.Send(p)
	}
}

// ToRoomExcept sends the packet to every user in the room but one.
func (b *Broadcaster) ToRoomExcept(roomID, exceptID ulid.ULID, p wire.Packet) {
	for _, u := range b.tree.UsersIn(roomID) {
		if u.ID == exceptID {
			continue
		}
		u.Send(p)
	}
}

// ToUser sends the packet to a single user, if registered.
func (b *Broadcaster) ToUser(userID ulid.ULID, p wire.Packet) {
	u, err := b.tree.User(userID)
	if err != nil {
		return
	}
	u.Send(p)
}

// Deliver implements notify.Deliverer.
func (b *Broadcaster) Deliver(receiverID ulid.ULID, n *notify.Notification) {
	b.ToUser(receiverID, &wire.NotificationOut{
		ID:          n.ID,
		ContextID:   n.ContextID,
		MessageKey:  n.MessageKey,
		MessageArgs: n.MessageArgs,
		Timestamp:   n.CreatedAt,
		IsRequest:   n.IsRequest,
	})
}

// Compile-time interface check.
var _ notify.Deliverer = (*Broadcaster)(nil)
