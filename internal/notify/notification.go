// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

// Package notify implements the asynchronous notification and request
// workflow: addressed records that a receiver resolves exactly once via
// accept or decline, or that expire without user action.
package notify

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// State is the lifecycle state of a notification. Every state except
// pending and resolving is terminal.
type State uint8

// Notification states.
const (
	StatePending State = iota
	stateResolving
	StateAccepted
	StateDeclined
	StateExpired
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case stateResolving:
		return "resolving"
	case StateAccepted:
		return "accepted"
	case StateDeclined:
		return "declined"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state excludes further transitions.
func (s State) Terminal() bool {
	return s == StateAccepted || s == StateDeclined || s == StateExpired
}

// Effect is a side effect executed atomically with a resolution (grant
// a role, admit into a room). A failing effect leaves the notification
// pending.
type Effect func() error

// Notification is an addressed, resolvable record. Immutable once
// terminal; all mutation goes through the Service.
type Notification struct {
	ID          ulid.ULID
	SenderID    ulid.ULID
	ReceiverID  ulid.ULID
	ContextID   ulid.ULID
	MessageKey  string
	MessageArgs []string
	CreatedAt   time.Time
	IsRequest   bool

	state     State
	onAccept  Effect
	onDecline Effect
}

// State returns the current lifecycle state.
func (n *Notification) State() State {
	return n.state
}
