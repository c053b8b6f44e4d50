// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package bot

import (
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/burrowspace/burrow/internal/geometry"
	"github.com/burrowspace/burrow/internal/world"
)

// Manager owns the running bots and fans chat events out to them.
type Manager struct {
	tree     *world.Tree
	announce Announce

	mu   sync.Mutex
	bots map[ulid.ULID]*Bot
}

// NewManager creates an empty bot manager.
func NewManager(tree *world.Tree, announce Announce) *Manager {
	return &Manager{
		tree:     tree,
		announce: announce,
		bots:     make(map[ulid.ULID]*Bot),
	}
}

// Spawn creates a bot at loc and starts its decision loop.
func (m *Manager) Spawn(cfg Config, loc geometry.Location) *Bot {
	b := New(cfg, m.tree, m.announce, loc, m.remove)
	m.mu.Lock()
	m.bots[b.User.ID] = b
	m.mu.Unlock()
	go b.Run()
	slog.Info("bot spawned", "bot", b.User.Name, "id", b.User.ID)
	return b
}

// remove drops a self-destructed bot from the registry.
func (m *Manager) remove(b *Bot) {
	m.mu.Lock()
	delete(m.bots, b.User.ID)
	m.mu.Unlock()
	slog.Info("bot removed", "bot", b.User.Name, "id", b.User.ID)
}

// Get returns the bot owning the given user id.
func (m *Manager) Get(id ulid.ULID) (*Bot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bots[id]
	return b, ok
}

// IsBot reports whether the user id belongs to a managed bot.
func (m *Manager) IsBot(id ulid.ULID) bool {
	_, ok := m.Get(id)
	return ok
}

// DeliverChat hands a chat line to every bot in the sender's room. A
// whisper addressed to one user reaches only that bot.
func (m *Manager) DeliverChat(sender *world.User, recipientID *ulid.ULID, text string, isWhisper bool) {
	loc := sender.Location()
	if loc == nil {
		return
	}
	m.mu.Lock()
	targets := make([]*Bot, 0, len(m.bots))
	for _, b := range m.bots {
		if recipientID != nil && b.User.ID != *recipientID {
			continue
		}
		bl := b.User.Location()
		if bl == nil || bl.RoomID != loc.RoomID {
			continue
		}
		targets = append(targets, b)
	}
	m.mu.Unlock()

	for _, b := range targets {
		b.HandleChat(sender, text, isWhisper)
	}
}

// CloseAll stops every bot and empties the registry.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	bots := make([]*Bot, 0, len(m.bots))
	for _, b := range m.bots {
		bots = append(bots, b)
	}
	m.bots = make(map[ulid.ULID]*Bot)
	m.mu.Unlock()

	for _, b := range bots {
		b.Stop()
		m.tree.RemoveUser(b.User.ID)
	}
}
