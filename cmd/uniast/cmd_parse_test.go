package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dhamidi/uniast/parser"
)

func TestCheckProgram(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		lang    string
		wantErr string
	}{
		{"valid", "x = 1\n", "python", ""},
		{"syntax error", "def f(:\n", "python", "syntax errors"},
		{"missing token", "f(1;", "javascript", "syntax errors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := parser.Parse(tt.code, tt.lang)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			err = checkProgram("input", tt.code, prog)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("checkProgram = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("checkProgram = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestScanConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uniast.toml")
	if err := os.WriteFile(path, []byte("[parse]\njobs = 8\ntimeout = \"2s\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		args        []string
		config      string
		wantJobs    int
		wantTimeout time.Duration
	}{
		{"flags only", []string{"--jobs", "3"}, "", 3, 10 * time.Second},
		{"config only", nil, path, 8, 2 * time.Second},
		{"flag overrides config", []string{"--jobs", "3"}, path, 3, 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newScanCmd()
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags: %v", err)
			}
			jobs, _ := cmd.Flags().GetInt("jobs")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			got, err := scanConfig(cmd, tt.config, jobs, timeout)
			if err != nil {
				t.Fatalf("scanConfig: %v", err)
			}
			if got.Jobs != tt.wantJobs || got.Timeout != tt.wantTimeout {
				t.Errorf("scanConfig = %+v, want jobs %d timeout %s", got, tt.wantJobs, tt.wantTimeout)
			}
		})
	}
}
