// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowspace/burrow/internal/config"
)

// serveFlags mirrors the flag set the serve command registers.
func serveFlags() *pflag.FlagSet {
	defaults := config.Defaults()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("listen", defaults.Listen, "")
	flags.String("metrics-listen", defaults.MetricsListen, "")
	flags.String("database-url", defaults.DatabaseURL, "")
	flags.String("log-format", defaults.LogFormat, "")
	flags.String("world-name", defaults.WorldName, "")
	flags.String("owner-name", defaults.OwnerName, "")
	flags.String("music-dir", defaults.MusicDir, "")
	return flags
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "burrow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), cfg)
}

func TestLoadFile(t *testing.T) {
	t.Run("file values override defaults", func(t *testing.T) {
		path := writeConfig(t, "listen: \":9000\"\nmusic_dir: /srv/music\n")
		cfg, err := config.Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.Listen)
		assert.Equal(t, "/srv/music", cfg.MusicDir)
		assert.Equal(t, "burrow", cfg.WorldName, "untouched keys keep defaults")
	})

	t.Run("a missing file is skipped", func(t *testing.T) {
		cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
		require.NoError(t, err)
		assert.Equal(t, config.Defaults(), cfg)
	})

	t.Run("malformed yaml fails", func(t *testing.T) {
		path := writeConfig(t, "listen: [unclosed\n")
		_, err := config.Load(path, nil)
		assert.Error(t, err)
	})
}

func TestLoadFlags(t *testing.T) {
	t.Run("changed flags override the file", func(t *testing.T) {
		path := writeConfig(t, "listen: \":9000\"\n")
		flags := serveFlags()
		require.NoError(t, flags.Set("listen", ":7000"))

		cfg, err := config.Load(path, flags)
		require.NoError(t, err)
		assert.Equal(t, ":7000", cfg.Listen)
	})

	t.Run("unchanged flags do not clobber file values", func(t *testing.T) {
		path := writeConfig(t, "metrics_listen: \"0.0.0.0:9999\"\n")
		cfg, err := config.Load(path, serveFlags())
		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0:9999", cfg.MetricsListen)
	})

	t.Run("dashed flag names map to underscore keys", func(t *testing.T) {
		flags := serveFlags()
		require.NoError(t, flags.Set("world-name", "terrace"))
		require.NoError(t, flags.Set("owner-name", "alice"))

		cfg, err := config.Load("", flags)
		require.NoError(t, err)
		assert.Equal(t, "terrace", cfg.WorldName)
		assert.Equal(t, "alice", cfg.OwnerName)
	})
}
