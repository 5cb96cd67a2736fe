package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "uniast.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
addr = "127.0.0.1:9000"
cache_entries = 0
cache_max_entry_bytes = 4096
write_timeout = "1m"

[parse]
jobs = 4

[log]
verbosity = 2
`)

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Default()
	want.Server.Addr = "127.0.0.1:9000"
	want.Server.CacheEntries = 0
	want.Server.CacheMaxEntryBytes = 4096
	want.Server.WriteTimeout = time.Minute
	want.Parse.Jobs = 4
	want.Log.Verbosity = 2
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"syntax", "[server\naddr = 1", "failed to parse TOML"},
		{"unknown key", "[server]\nport = 80\n", "unknown keys: server.port"},
		{"type mismatch", "[parse]\njobs = \"many\"\n", "failed to parse TOML"},
		{"invalid value", "[server]\nmax_source_bytes = 0\n", "max_source_bytes must be positive"},
		{"negative entry bytes", "[server]\ncache_max_entry_bytes = -1\n", "cache_max_entry_bytes must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load succeeded")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("Load of missing file succeeded")
	}
}
