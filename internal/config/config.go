// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LedgerNotes Contributors

// Package config loads server configuration from defaults, an optional YAML
// file, environment overrides, and command-line flags, in that precedence
// order (later wins).
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/ledgernotes/ledgernotes/internal/xdg"
)

// Config is the full server configuration.
type Config struct {
	Server struct {
		// Addr is the public HTTP listen address.
		Addr string `koanf:"addr"`

		// MetricsAddr is the observability listen address.
		MetricsAddr string `koanf:"metrics_addr"`
	} `koanf:"server"`

	Store struct {
		// Path is the JSON store document location.
		Path string `koanf:"path"`
	} `koanf:"store"`

	Catalog struct {
		// Path points at a catalog YAML file; empty uses the embedded
		// default.
		Path string `koanf:"path"`
	} `koanf:"catalog"`

	Notes struct {
		// Dir, when set, is served under /notes/.
		Dir string `koanf:"dir"`
	} `koanf:"notes"`

	Session struct {
		// TTL is the session lifetime as a Go duration string.
		TTL string `koanf:"ttl"`
	} `koanf:"session"`

	Log struct {
		// Format is "json" or "text".
		Format string `koanf:"format"`
	} `koanf:"log"`
}

// flagKeys maps flag names to dotted config keys.
var flagKeys = map[string]string{
	"addr":         "server.addr",
	"metrics-addr": "server.metrics_addr",
	"db-path":      "store.path",
	"catalog-path": "catalog.path",
	"notes-dir":    "notes.dir",
	"session-ttl":  "session.ttl",
	"log-format":   "log.format",
}

// RegisterFlags adds the config-backed flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("addr", "", "HTTP listen address (host:port)")
	fs.String("metrics-addr", "", "observability listen address (host:port)")
	fs.String("db-path", "", "path to the JSON store document")
	fs.String("catalog-path", "", "path to a catalog YAML file")
	fs.String("notes-dir", "", "directory of note pages served under /notes/")
	fs.String("session-ttl", "", "session lifetime (e.g. 24h)")
	fs.String("log-format", "", "log format: json or text")
}

func defaults() map[string]any {
	return map[string]any{
		"server.addr":         ":3000",
		"server.metrics_addr": "127.0.0.1:9100",
		"store.path":          filepath.Join(xdg.DataDir(), "db.json"),
		"catalog.path":        "",
		"notes.dir":           "",
		"session.ttl":         "24h",
		"log.format":          "json",
	}
}

// DefaultFile returns the conventional config file location under the XDG
// config directory, or "" when no file exists there.
func DefaultFile() string {
	path := filepath.Join(xdg.ConfigDir(), "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Load builds a Config. path is an optional YAML file; "" falls back to
// DefaultFile, skipping the file layer when neither exists. fs is an
// optional flag set whose changed flags override everything else.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	if path == "" {
		path = DefaultFile()
	}

	k := koanf.New(".")

	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, oops.With("key", key).Wrap(err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if dbPath := os.Getenv("LEDGERNOTES_DB_PATH"); dbPath != "" {
		if err := k.Set("store.path", dbPath); err != nil {
			return nil, oops.Wrap(err)
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field shapes without touching the filesystem.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("server.addr cannot be empty")
	}
	if c.Store.Path == "" {
		return oops.Code("CONFIG_INVALID").Errorf("store.path cannot be empty")
	}
	if _, err := time.ParseDuration(c.Session.TTL); err != nil {
		return oops.Code("CONFIG_INVALID").
			With("ttl", c.Session.TTL).
			Wrapf(err, "session.ttl is not a valid duration")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			With("format", c.Log.Format).
			Errorf("log.format must be json or text")
	}
	return nil
}

// SessionTTL returns the parsed session lifetime. Validate must have
// accepted the config first.
func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Session.TTL)
	if err != nil {
		return 0
	}
	return d
}
