// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Error codes for notification resolution.
const (
	CodeNotificationNotFound = "NOTIFICATION_NOT_FOUND"
	CodeAlreadyResolved      = "NOTIFICATION_ALREADY_RESOLVED"
	CodeWrongReceiver        = "NOTIFICATION_WRONG_RECEIVER"
)

// Deliverer pushes a freshly created notification to its receiver's
// transport. Delivery is fire-and-forget from the sender's thread; the
// sender never blocks on the receiver's accept/decline.
type Deliverer interface {
	Deliver(receiverID ulid.ULID, n *Notification)
}

// Service owns all notification collections and enforces the
// at-most-once terminal transition.
type Service struct {
	mu        sync.Mutex
	byID      map[ulid.ULID]*Notification
	deliverer Deliverer
}

// NewService creates a notification service. A nil deliverer disables
// transport pushes (used by bots and tests).
func NewService(d Deliverer) *Service {
	return &Service{
		byID:      make(map[ulid.ULID]*Notification),
		deliverer: d,
	}
}

// Notify creates and delivers an informational notification.
func (s *Service) Notify(senderID, receiverID, contextID ulid.ULID, key string, args ...string) *Notification {
	return s.create(senderID, receiverID, contextID, key, args, false, nil, nil)
}

// Request creates and delivers a request carrying resolution side
// effects. Either effect may be nil.
func (s *Service) Request(senderID, receiverID, contextID ulid.ULID, key string, args []string, onAccept, onDecline Effect) *Notification {
	return s.create(senderID, receiverID, contextID, key, args, true, onAccept, onDecline)
}

func (s *Service) create(senderID, receiverID, contextID ulid.ULID, key string, args []string, isRequest bool, onAccept, onDecline Effect) *Notification {
	n := &Notification{
		ID:          ulid.Make(),
		SenderID:    senderID,
		ReceiverID:  receiverID,
		ContextID:   contextID,
		MessageKey:  key,
		MessageArgs: args,
		CreatedAt:   time.Now(),
		IsRequest:   isRequest,
		state:       StatePending,
		onAccept:    onAccept,
		onDecline:   onDecline,
	}
	s.mu.Lock()
	s.byID[n.ID] = n
	s.mu.Unlock()

	if s.deliverer != nil {
		s.deliverer.Deliver(receiverID, n)
	}
	return n
}

// Get returns the notification with the given id.
func (s *Service) Get(id ulid.ULID) (*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[id]
	if !ok {
		return nil, errNotFound(id)
	}
	return n, nil
}

// PendingFor returns the receiver's pending notifications.
func (s *Service) PendingFor(receiverID ulid.ULID) []*Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Notification
	for _, n := range s.byID {
		if n.ReceiverID == receiverID && n.state == StatePending {
			out = append(out, n)
		}
	}
	return out
}

// Accept resolves the notification as accepted on behalf of the
// receiver. The accept side effect runs atomically with the state
// transition: if it fails, the notification stays pending and the error
// is returned. A second resolution attempt fails with
// CodeAlreadyResolved and re-applies no side effects.
func (s *Service) Accept(id, receiverID ulid.ULID) error {
	return s.resolve(id, receiverID, StateAccepted)
}

// Decline resolves the notification as declined on behalf of the
// receiver, with the same exactly-once discipline as Accept.
func (s *Service) Decline(id, receiverID ulid.ULID) error {
	return s.resolve(id, receiverID, StateDeclined)
}

func (s *Service) resolve(id, receiverID ulid.ULID, target State) error {
	s.mu.Lock()
	n, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return errNotFound(id)
	}
	if n.ReceiverID != receiverID {
		s.mu.Unlock()
		return oops.Code(CodeWrongReceiver).
			With("notification_id", id.String()).
			With("receiver_id", receiverID.String()).
			Errorf("notification %s is not addressed to %s", id, receiverID)
	}
	if n.state != StatePending {
		s.mu.Unlock()
		return errAlreadyResolved(n)
	}
	// Claim the notification before running the effect so a concurrent
	// resolution attempt fails instead of double-applying. Effects may
	// take the world lock, so they must run outside ours.
	n.state = stateResolving
	effect := n.onAccept
	if target == StateDeclined {
		effect = n.onDecline
	}
	s.mu.Unlock()

	if effect != nil {
		if err := effect(); err != nil {
			s.mu.Lock()
			n.state = StatePending
			s.mu.Unlock()
			return err
		}
	}

	s.mu.Lock()
	n.state = target
	s.mu.Unlock()
	return nil
}

// Expire terminally expires a single pending notification. Expiry
// excludes later accept or decline.
func (s *Service) Expire(id ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[id]
	if !ok {
		return errNotFound(id)
	}
	if n.state != StatePending {
		return errAlreadyResolved(n)
	}
	n.state = StateExpired
	return nil
}

// ExpireContext expires every pending notification that originated in
// the given context. Wired to the tree's removal hook so requests do
// not outlive the world or room they refer to.
func (s *Service) ExpireContext(contextID ulid.ULID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.byID {
		if n.ContextID == contextID && n.state == StatePending {
			n.state = StateExpired
			slog.Debug("notification expired with context",
				"notification_id", n.ID.String(),
				"context_id", contextID.String(),
			)
		}
	}
}

func errNotFound(id ulid.ULID) error {
	return oops.Code(CodeNotificationNotFound).
		With("notification_id", id.String()).
		Errorf("notification not found: %s", id)
}

func errAlreadyResolved(n *Notification) error {
	return oops.Code(CodeAlreadyResolved).
		With("notification_id", n.ID.String()).
		With("state", n.state.String()).
		Errorf("notification %s already %s", n.ID, n.state)
}
