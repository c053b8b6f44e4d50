// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

// Package config loads server configuration from an optional YAML file
// overlaid with command line flags.
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the full server configuration.
type Config struct {
	Listen        string `koanf:"listen"`
	MetricsListen string `koanf:"metrics_listen"`
	DatabaseURL   string `koanf:"database_url"`
	LogFormat     string `koanf:"log_format"`
	WorldName     string `koanf:"world_name"`
	OwnerName     string `koanf:"owner_name"`
	MusicDir      string `koanf:"music_dir"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Listen:        ":8420",
		MetricsListen: "127.0.0.1:9100",
		LogFormat:     "json",
		WorldName:     "burrow",
	}
}

// Load builds the configuration from defaults, then the YAML file at
// path (skipped when empty or missing), then the given flag set.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Defaults()
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return cfg, oops.Code("CONFIG_LOAD_FAILED").
					With("path", path).
					Wrap(err)
			}
		}
	}

	if flags != nil {
		// Flag names are dashed; config keys use underscores.
		provider := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, any) {
			return strings.ReplaceAll(key, "-", "_"), value
		})
		if err := k.Load(provider, nil); err != nil {
			return cfg, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "load flags").
				Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, oops.Code("CONFIG_LOAD_FAILED").
			With("operation", "unmarshal").
			Wrap(err)
	}
	return cfg, nil
}
