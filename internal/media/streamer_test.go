// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package media_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/burrowspace/burrow/internal/media"
)

func playlist() []media.Track {
	return []media.Track{
		{Title: "first", Data: make([]byte, 64)},
		{Title: "second", Data: make([]byte, 64)},
		{Title: "third", Data: make([]byte, 64)},
	}
}

func TestPlaylistControls(t *testing.T) {
	s := media.NewStreamer(playlist(), func([]byte) error { return nil })

	t.Run("tracks keep playlist order", func(t *testing.T) {
		assert.Equal(t, []string{"first", "second", "third"}, s.Tracks())
	})

	t.Run("play selects by index", func(t *testing.T) {
		require.True(t, s.Play(1))
		cur, ok := s.Current()
		require.True(t, ok)
		assert.Equal(t, "second", cur.Title)
		assert.True(t, s.Playing())
	})

	t.Run("play rejects out-of-range indexes", func(t *testing.T) {
		assert.False(t, s.Play(-1))
		assert.False(t, s.Play(3))
	})

	t.Run("next wraps around", func(t *testing.T) {
		require.True(t, s.Play(2))
		s.Next()
		cur, ok := s.Current()
		require.True(t, ok)
		assert.Equal(t, "first", cur.Title)
	})

	t.Run("previous within the window restarts the current track", func(t *testing.T) {
		require.True(t, s.Play(2))
		s.Previous()
		cur, ok := s.Current()
		require.True(t, ok)
		assert.Equal(t, "third", cur.Title)
		assert.Zero(t, s.CurrentPlaytime())
	})

	t.Run("stop resets playtime and halts", func(t *testing.T) {
		require.True(t, s.Play(0))
		s.Stop()
		assert.False(t, s.Playing())
		assert.Zero(t, s.CurrentPlaytime())
	})

	t.Run("toggles flip and report state", func(t *testing.T) {
		assert.True(t, s.ToggleLoop())
		assert.False(t, s.ToggleLoop())
		assert.True(t, s.ToggleShuffle())
		assert.False(t, s.ToggleShuffle())
	})

	t.Run("pause toggle needs a playlist", func(t *testing.T) {
		empty := media.NewStreamer(nil, func([]byte) error { return nil })
		assert.False(t, empty.TogglePause())
	})
}

func TestTrackDuration(t *testing.T) {
	tr := media.Track{Data: make([]byte, media.BytesPerSecond*2)}
	assert.Equal(t, 2*time.Second, tr.Duration())
}

func TestWorkerStreamsBlocks(t *testing.T) {
	defer goleak.VerifyNone(t)

	blocks := make(chan []byte, 8)
	s := media.NewStreamer(
		[]media.Track{{Title: "only", Data: []byte{1, 2, 3, 4}}},
		func(b []byte) error {
			blocks <- b
			return nil
		},
	)
	s.Start()
	defer s.Close()

	require.True(t, s.Play(0))

	select {
	case b := <-blocks:
		assert.Equal(t, []byte{1, 2, 3, 4}, b)
	case <-time.After(2 * time.Second):
		t.Fatal("no audio block broadcast")
	}
}

func TestCloseStopsWorker(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := media.NewStreamer(playlist(), func([]byte) error { return nil })
	s.Start()
	s.Close()
	// Close is idempotent.
	s.Close()
}
