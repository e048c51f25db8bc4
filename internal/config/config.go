// Package config resolves tool settings from the environment. A .env
// file next to the working directory is honored so per-project
// knowledge base locations do not leak into the shell profile.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// DefaultDataDir is the knowledge base root relative to the
	// working directory.
	DefaultDataDir = "data"

	// DefaultHotkey triggers the retype action in a host binding.
	DefaultHotkey = "Ctrl+Shift+M"

	typeLibFile = "typelib.json"
)

type Config struct {
	DataDir string // AUTOENUM_DATA: knowledge base root
	Hotkey  string // AUTOENUM_HOTKEY: host action hotkey
	TypeLib string // AUTOENUM_TYPELIB: explicit typelib path, overrides the per-family default
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DataDir: firstNonEmpty(strings.TrimSpace(os.Getenv("AUTOENUM_DATA")), DefaultDataDir),
		Hotkey:  firstNonEmpty(strings.TrimSpace(os.Getenv("AUTOENUM_HOTKEY")), DefaultHotkey),
		TypeLib: strings.TrimSpace(os.Getenv("AUTOENUM_TYPELIB")),
	}
}

// Dir returns the knowledge base directory for a platform family,
// e.g. data/linux.
func (c *Config) Dir(family string) string {
	return filepath.Join(c.DataDir, family)
}

// TypeLibPath returns the typelib location for a platform family. An
// explicit AUTOENUM_TYPELIB wins over the per-family default.
func (c *Config) TypeLibPath(family string) string {
	if c.TypeLib != "" {
		return c.TypeLib
	}
	return filepath.Join(c.Dir(family), typeLibFile)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
