package config

import (
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTOENUM_DATA", "")
	t.Setenv("AUTOENUM_HOTKEY", "")
	t.Setenv("AUTOENUM_TYPELIB", "")

	cfg := Load()
	if cfg.DataDir != DefaultDataDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, DefaultDataDir)
	}
	if cfg.Hotkey != DefaultHotkey {
		t.Errorf("Hotkey = %q, want %q", cfg.Hotkey, DefaultHotkey)
	}
	if cfg.TypeLib != "" {
		t.Errorf("TypeLib = %q, want empty", cfg.TypeLib)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTOENUM_DATA", "/kb")
	t.Setenv("AUTOENUM_HOTKEY", "Ctrl+Alt+E")
	t.Setenv("AUTOENUM_TYPELIB", "/kb/custom.json")

	cfg := Load()
	if cfg.DataDir != "/kb" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Hotkey != "Ctrl+Alt+E" {
		t.Errorf("Hotkey = %q", cfg.Hotkey)
	}
	if cfg.TypeLib != "/kb/custom.json" {
		t.Errorf("TypeLib = %q", cfg.TypeLib)
	}
}

func TestLoadTrimsWhitespace(t *testing.T) {
	t.Setenv("AUTOENUM_DATA", "  /kb  ")
	cfg := Load()
	if cfg.DataDir != "/kb" {
		t.Errorf("DataDir = %q, want trimmed", cfg.DataDir)
	}
}

func TestDirAndTypeLibPath(t *testing.T) {
	cfg := &Config{DataDir: "data"}

	if got := cfg.Dir("linux"); got != filepath.Join("data", "linux") {
		t.Errorf("Dir = %q", got)
	}
	if got := cfg.TypeLibPath("linux"); got != filepath.Join("data", "linux", "typelib.json") {
		t.Errorf("TypeLibPath = %q", got)
	}

	cfg.TypeLib = "/override.json"
	if got := cfg.TypeLibPath("linux"); got != "/override.json" {
		t.Errorf("TypeLibPath with override = %q", got)
	}
}
