// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

// Package bot implements the autonomous scheduled actor: a synthetic
// user driven by a fixed-rate decision loop, independent of any client
// connection. Each tick the bot drains queued synthesized speech,
// probabilistically emits scripted chat, and closes distance to its
// follow target. Delivered events (arrivals, movement, whispered
// commands) are handled synchronously between ticks.
package bot

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/burrowspace/burrow/internal/geometry"
	"github.com/burrowspace/burrow/internal/wire"
	"github.com/burrowspace/burrow/internal/world"
)

// Defaults for the decision loop.
const (
	DefaultTickRate     = 100 * time.Millisecond
	DefaultFollowRadius = 6.0
	// DefaultBufferDistance is the slack beyond the follow radius
	// before an out-of-range target is abandoned.
	DefaultBufferDistance = 1.5
	DefaultSpeed          = 2.0 // units per second
	DefaultSprintFactor   = 2.0
	DefaultChatChance     = 0.05 // per second
	DefaultChatCooldown   = 15 * time.Second
	DefaultCommandPrefix  = "!"

	// SpeechChunkSize is the fixed size of synthesized audio chunks
	// emitted one per tick.
	SpeechChunkSize = 1024
)

// Config tunes one bot. Zero fields fall back to the defaults above.
type Config struct {
	Name           string
	CommandPrefix  string
	TickRate       time.Duration
	FollowRadius   float64
	BufferDistance float64
	Speed          float64
	SprintFactor   float64
	ChatChance     float64
	ChatCooldown   time.Duration
	Voice          string
	Script         []string
}

func (c *Config) fillDefaults() {
	if c.CommandPrefix == "" {
		c.CommandPrefix = DefaultCommandPrefix
	}
	if c.TickRate <= 0 {
		c.TickRate = DefaultTickRate
	}
	if c.FollowRadius <= 0 {
		c.FollowRadius = DefaultFollowRadius
	}
	if c.BufferDistance <= 0 {
		c.BufferDistance = DefaultBufferDistance
	}
	if c.Speed <= 0 {
		c.Speed = DefaultSpeed
	}
	if c.SprintFactor <= 0 {
		c.SprintFactor = DefaultSprintFactor
	}
	if c.ChatChance <= 0 {
		c.ChatChance = DefaultChatChance
	}
	if c.ChatCooldown <= 0 {
		c.ChatCooldown = DefaultChatCooldown
	}
}

// Announce broadcasts a packet to every user present in a room.
type Announce func(roomID ulid.ULID, p wire.Packet)

// Bot is one autonomous user plus its decision loop state.
type Bot struct {
	User *world.User

	cfg      Config
	tree     *world.Tree
	announce Announce
	onRemove func(*Bot) // invoked on self-destruct

	mu          sync.Mutex
	targetID    *ulid.ULID
	following   bool
	sprint      bool
	autoChat    bool
	autoTalk    bool
	forwardTo   *ulid.ULID // whisper forwarding recipient
	voice       string
	speech      [][]byte
	lastChat    time.Time
	scriptIndex int

	stop chan struct{}
	done chan struct{}
}

// New creates a bot user, registers it with the tree and places it at
// loc. The decision loop is not started until Run.
func New(cfg Config, tree *world.Tree, announce Announce, loc geometry.Location, onRemove func(*Bot)) *Bot {
	cfg.fillDefaults()
	u := world.NewUser(cfg.Name)
	u.SetLocation(&loc)
	u.SetStatus(world.StatusOnline)
	tree.AddUser(u)

	return &Bot{
		User:     u,
		cfg:      cfg,
		tree:     tree,
		announce: announce,
		onRemove: onRemove,
		voice:    cfg.Voice,
		autoChat: true,
		autoTalk: true,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run drives the decision loop until Stop. Per-tick failures are
// logged and the loop continues.
func (b *Bot) Run() {
	defer close(b.done)
	ticker := time.NewTicker(b.cfg.TickRate)
	defer ticker.Stop()
	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.tick()
		}
	}
}

// Stop cancels the decision loop and waits for it to exit. Safe to
// call more than once.
func (b *Bot) Stop() {
	select {
	case <-b.stop:
	default:
		close(b.stop)
	}
	<-b.done
}

// tick runs one decision step: speech first, then chat chance, then
// follow movement.
func (b *Bot) tick() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("bot tick panicked", "bot", b.User.Name, "panic", r)
		}
	}()

	if b.emitSpeechChunk() {
		return
	}
	b.maybeChat()
	b.followStep()
}

// emitSpeechChunk sends the next queued synthesized audio chunk.
// Returns false when the buffer is empty. The queue drain never
// blocks.
func (b *Bot) emitSpeechChunk() bool {
	b.mu.Lock()
	if len(b.speech) == 0 {
		b.mu.Unlock()
		return false
	}
	chunk := b.speech[0]
	b.speech = b.speech[1:]
	b.mu.Unlock()

	loc := b.User.Location()
	if loc == nil {
		return true
	}
	id := b.User.ID
	now := time.Now()
	b.announce(loc.RoomID, &wire.AudioMessage{
		SenderID:  &id,
		Timestamp: &now,
		Payload:   chunk,
	})
	return true
}

// maybeChat emits a scripted line with a flat per-second probability,
// subject to the minimum cooldown since the last utterance.
func (b *Bot) maybeChat() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.autoChat || len(b.cfg.Script) == 0 {
		return
	}
	if time.Since(b.lastChat) < b.cfg.ChatCooldown {
		return
	}
	chancePerTick := b.cfg.ChatChance * b.cfg.TickRate.Seconds()
	if rand.Float64() >= chancePerTick {
		return
	}
	line := b.cfg.Script[b.scriptIndex%len(b.cfg.Script)]
	b.scriptIndex++
	b.lastChat = time.Now()
	b.sayLocked(line)

	if b.autoTalk {
		b.speech = append(b.speech, synthesize(line, b.voice)...)
	}
}

// sayLocked broadcasts a chat line to the bot's room. Caller holds mu.
func (b *Bot) sayLocked(text string) {
	loc := b.User.Location()
	if loc == nil {
		return
	}
	id := b.User.ID
	b.announce(loc.RoomID, &wire.ChatUser{
		Type:      wire.ChatSay,
		SenderID:  &id,
		Text:      text,
		Timestamp: time.Now(),
	})
}

// Say broadcasts a chat line to the bot's room.
func (b *Bot) Say(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sayLocked(text)
}

// whisper sends a chat line only to the given user.
func (b *Bot) whisper(to *world.User, text string) {
	id := b.User.ID
	to.Send(&wire.ChatUser{
		Type:      wire.ChatWhisper,
		SenderID:  &id,
		Text:      text,
		Timestamp: time.Now(),
	})
}

// synthesize converts text to fixed-size audio chunks. The synthesis
// itself is a placeholder waveform derived from the text and voice;
// codec details are outside the engine.
func synthesize(text, voice string) [][]byte {
	if text == "" {
		return nil
	}
	seed := byte(len(voice))
	raw := make([]byte, len(text)*64)
	for i := range raw {
		raw[i] = byte(text[i%len(text)]) ^ seed
	}
	var chunks [][]byte
	for off := 0; off < len(raw); off += SpeechChunkSize {
		end := off + SpeechChunkSize
		if end > len(raw) {
			end = len(raw)
		}
		chunks = append(chunks, raw[off:end])
	}
	return chunks
}
