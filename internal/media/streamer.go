// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

// Package media implements the paced audio streaming worker behind
// music-playing objects. One worker runs per active streaming object;
// it suspends while paused or empty and broadcasts fixed-size blocks at
// a fixed send rate while playing, independent of any one receiver's
// consumption speed.
package media

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// Streaming parameters. One block at BytesPerSecond gives the pacing
// interval between sends.
const (
	BlockSize      = 4096
	BytesPerSecond = 16000

	// PreviousRestartWindow is how far into a track "previous" still
	// moves to the prior track instead of restarting the current one.
	PreviousRestartWindow = 5 * time.Second
)

// blockInterval is the pacing delay between block broadcasts.
const blockInterval = time.Second * BlockSize / BytesPerSecond

// Track is one decoded audio track.
type Track struct {
	Title string
	Data  []byte
}

// Duration returns the play length of the track at the stream rate.
func (t Track) Duration() time.Duration {
	return time.Duration(len(t.Data)) * time.Second / BytesPerSecond
}

// Broadcast delivers one audio block to every listener in the owning
// area. Failures are logged by the worker and do not stop the stream.
type Broadcast func(block []byte) error

// Streamer is the streaming state machine plus its worker loop.
//
// All state is guarded by mu; the worker waits on cond while paused or
// empty and is woken by play/resume and by Close. Close sets the run
// flag and wakes the worker, which observes the flag around the wait
// and exits without processing further blocks.
type Streamer struct {
	broadcast Broadcast

	mu      sync.Mutex
	cond    *sync.Cond
	tracks  []Track
	index   int
	offset  int // bytes of the current track already sent
	playing bool
	running bool
	loop    bool
	shuffle bool
	done    chan struct{}
}

// NewStreamer creates a streamer over a playlist. The worker is not
// started until Start.
func NewStreamer(tracks []Track, broadcast Broadcast) *Streamer {
	s := &Streamer{
		broadcast: broadcast,
		tracks:    tracks,
		done:      make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Start launches the worker loop.
func (s *Streamer) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()
	go s.run()
}

// Close stops the worker and waits for it to exit. Safe to call more
// than once.
func (s *Streamer) Close() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cond.Broadcast()
	s.mu.Unlock()
	<-s.done
}

func (s *Streamer) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for s.running && (!s.playing || len(s.tracks) == 0) {
			s.cond.Wait()
		}
		if !s.running {
			s.mu.Unlock()
			return
		}

		track := s.tracks[s.index]
		if s.offset >= len(track.Data) {
			s.advanceLocked()
			s.mu.Unlock()
			continue
		}
		end := s.offset + BlockSize
		if end > len(track.Data) {
			end = len(track.Data)
		}
		block := track.Data[s.offset:end]
		s.offset = end
		s.mu.Unlock()

		if err := s.broadcast(block); err != nil {
			slog.Warn("audio block broadcast failed", "track", track.Title, "error", err)
		}
		time.Sleep(blockInterval)
	}
}

// advanceLocked picks the next playback state after the current track's
// buffer is exhausted: loop the same track, move on, or pause.
// Caller holds mu.
func (s *Streamer) advanceLocked() {
	s.offset = 0
	switch {
	case s.loop:
		// replay the same track
	case s.shuffle && len(s.tracks) > 1:
		next := rand.IntN(len(s.tracks) - 1)
		if next >= s.index {
			next++
		}
		s.index = next
	case s.index+1 < len(s.tracks):
		s.index++
	default:
		s.playing = false
	}
}

// Tracks returns the playlist titles in order.
func (s *Streamer) Tracks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	titles := make([]string, len(s.tracks))
	for i, t := range s.tracks {
		titles[i] = t.Title
	}
	return titles
}

// Play selects a track by playlist index and starts streaming it from
// the beginning. Returns false for an out-of-range index.
func (s *Streamer) Play(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.tracks) {
		return false
	}
	s.index = index
	s.offset = 0
	s.playing = true
	s.cond.Broadcast()
	return true
}

// TogglePause pauses a playing stream or resumes a paused one. Returns
// the new playing state.
func (s *Streamer) TogglePause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tracks) == 0 {
		return false
	}
	s.playing = !s.playing
	if s.playing {
		s.cond.Broadcast()
	}
	return s.playing
}

// Stop halts playback and resets the playtime to zero.
func (s *Streamer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	s.offset = 0
}

// Previous restarts the current track when it has played for less than
// PreviousRestartWindow, and moves to the prior track otherwise.
func (s *Streamer) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playtimeLocked() >= PreviousRestartWindow && s.index > 0 {
		s.index--
	}
	s.offset = 0
	if s.playing {
		s.cond.Broadcast()
	}
}

// Next skips to the following track, wrapping to the first.
func (s *Streamer) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tracks) == 0 {
		return
	}
	s.index = (s.index + 1) % len(s.tracks)
	s.offset = 0
	if s.playing {
		s.cond.Broadcast()
	}
}

// ToggleLoop flips the loop flag and returns the new value.
func (s *Streamer) ToggleLoop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loop = !s.loop
	return s.loop
}

// ToggleShuffle flips the shuffle flag and returns the new value.
func (s *Streamer) ToggleShuffle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shuffle = !s.shuffle
	return s.shuffle
}

// Playing reports whether the stream is currently sending.
func (s *Streamer) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Current returns the selected track, and false for an empty playlist.
func (s *Streamer) Current() (Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tracks) == 0 {
		return Track{}, false
	}
	return s.tracks[s.index], true
}

// CurrentPlaytime returns how far into the current track the stream
// is. Monotonically increasing while playing; zero after Stop.
func (s *Streamer) CurrentPlaytime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playtimeLocked()
}

func (s *Streamer) playtimeLocked() time.Duration {
	return time.Duration(s.offset) * time.Second / BytesPerSecond
}
