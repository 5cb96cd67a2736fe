// Package config loads uniast settings from a TOML file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server Server `toml:"server"`
	Parse  Parse  `toml:"parse"`
	Log    Log    `toml:"log"`
}

type Server struct {
	Addr string `toml:"addr"`
	// MaxSourceBytes limits request bodies; larger requests get 413.
	MaxSourceBytes int64 `toml:"max_source_bytes"`
	// CacheEntries is the size of the response cache; 0 disables it.
	CacheEntries int `toml:"cache_entries"`
	// CacheMaxEntryBytes keeps larger encoded responses out of the cache.
	CacheMaxEntryBytes int           `toml:"cache_max_entry_bytes"`
	ReadTimeout        time.Duration `toml:"read_timeout"`
	WriteTimeout       time.Duration `toml:"write_timeout"`
}

type Parse struct {
	// Jobs bounds the files parsed at once by scan; 0 means GOMAXPROCS.
	Jobs int `toml:"jobs"`
	// Timeout bounds each parse, per file or per request; 0 means no limit.
	Timeout time.Duration `toml:"timeout"`
}

type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

func Default() Config {
	return Config{
		Server: Server{
			Addr:               ":8080",
			MaxSourceBytes:     1 << 20,
			CacheEntries:       256,
			CacheMaxEntryBytes: 256 << 10,
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       30 * time.Second,
		},
		Parse: Parse{
			Timeout: 10 * time.Second,
		},
	}
}

// Load reads path on top of Default. Keys that do not belong to Config are
// rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Server.MaxSourceBytes <= 0:
		return fmt.Errorf("server.max_source_bytes must be positive")
	case c.Server.CacheEntries < 0:
		return fmt.Errorf("server.cache_entries must not be negative")
	case c.Server.CacheMaxEntryBytes < 0:
		return fmt.Errorf("server.cache_max_entry_bytes must not be negative")
	case c.Parse.Jobs < 0:
		return fmt.Errorf("parse.jobs must not be negative")
	case c.Parse.Timeout < 0:
		return fmt.Errorf("parse.timeout must not be negative")
	}
	return nil
}
