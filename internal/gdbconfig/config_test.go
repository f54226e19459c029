package gdbconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.GDBPath != "gdb" {
		t.Fatalf("expected default gdb path, got %q", cfg.GDBPath)
	}
	if cfg.TokenStart != 87362 {
		t.Fatalf("expected default token_start 87362, got %d", cfg.TokenStart)
	}
	if cfg.WakeDelay != 500*time.Millisecond {
		t.Fatalf("unexpected wake delay: %v", cfg.WakeDelay)
	}
	if cfg.DrainTimeout != 5*time.Second {
		t.Fatalf("unexpected drain timeout: %v", cfg.DrainTimeout)
	}
}

func TestNewAppliesOptions(t *testing.T) {
	cfg := New(WithGDBPath("/usr/bin/gdb"), WithGeometry(40, 120), WithNoInit())
	if cfg.GDBPath != "/usr/bin/gdb" {
		t.Fatalf("unexpected gdb path: %q", cfg.GDBPath)
	}
	if cfg.Rows != 40 || cfg.Cols != 120 {
		t.Fatalf("unexpected geometry: %d x %d", cfg.Rows, cfg.Cols)
	}
	if !cfg.NoInit {
		t.Fatalf("expected NoInit true")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gdbmictl.yaml")
	content := "gdb_path: /opt/gdb/bin/gdb\nrows: 50\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GDBPath != "/opt/gdb/bin/gdb" {
		t.Fatalf("unexpected gdb path: %q", cfg.GDBPath)
	}
	if cfg.Rows != 50 {
		t.Fatalf("unexpected rows: %d", cfg.Rows)
	}
	// Fields absent from the file should keep their defaults.
	if cfg.Cols != 80 {
		t.Fatalf("expected default cols, got %d", cfg.Cols)
	}
}

func TestLoadMissingDefaultPathReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	defer os.Chdir(cwd)
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GDBPath != "gdb" {
		t.Fatalf("expected defaults when no config file present, got %+v", cfg)
	}
}
