package binfmt

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name   string
		prefix []byte
		want   Format
	}{
		{"elf", []byte{0x7F, 'E', 'L', 'F', 2, 1, 1}, FormatELF},
		{"pe", []byte{'M', 'Z', 0x90, 0x00}, FormatPE},
		{"macho_64_le", []byte{0xCF, 0xFA, 0xED, 0xFE}, FormatMachO},
		{"macho_64_be", []byte{0xFE, 0xED, 0xFA, 0xCF}, FormatMachO},
		{"macho_fat", []byte{0xCA, 0xFE, 0xBA, 0xBE}, FormatMachO},
		{"empty", nil, FormatUnknown},
		{"short", []byte{0x7F, 'E'}, FormatUnknown},
		{"garbage", []byte{0xDE, 0xAD, 0xBE, 0xEF}, FormatUnknown},
		{"text", []byte("#!/bin/sh"), FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sniff(tt.prefix); got != tt.want {
				t.Errorf("Sniff = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGate(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("elf_accepted", func(t *testing.T) {
		path := write("a.so", []byte{0x7F, 'E', 'L', 'F', 2, 1, 1, 0})
		family, err := Gate(path)
		if err != nil {
			t.Fatalf("Gate: %v", err)
		}
		if family != "linux" {
			t.Errorf("family = %q, want %q", family, "linux")
		}
	})

	t.Run("pe_rejected", func(t *testing.T) {
		path := write("a.exe", []byte{'M', 'Z', 0x90, 0x00, 0x03})
		_, err := Gate(path)
		if !errors.Is(err, ErrUnsupportedPlatform) {
			t.Fatalf("Gate = %v, want ErrUnsupportedPlatform", err)
		}
	})

	t.Run("macho_rejected", func(t *testing.T) {
		path := write("a.dylib", []byte{0xCF, 0xFA, 0xED, 0xFE, 0x0C})
		_, err := Gate(path)
		if !errors.Is(err, ErrUnsupportedPlatform) {
			t.Fatalf("Gate = %v, want ErrUnsupportedPlatform", err)
		}
	})

	t.Run("unknown_rejected", func(t *testing.T) {
		path := write("a.bin", []byte{0x00, 0x01, 0x02, 0x03})
		_, err := Gate(path)
		if !errors.Is(err, ErrUnsupportedPlatform) {
			t.Fatalf("Gate = %v, want ErrUnsupportedPlatform", err)
		}
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := Gate(filepath.Join(dir, "nope"))
		if err == nil {
			t.Fatal("Gate on missing file should fail")
		}
		if errors.Is(err, ErrUnsupportedPlatform) {
			t.Fatal("missing file is an I/O error, not a platform rejection")
		}
	})
}

func FuzzSniff(f *testing.F) {
	f.Add([]byte{0x7F, 'E', 'L', 'F'})
	f.Add([]byte{'M', 'Z'})
	f.Add([]byte{0xCA, 0xFE, 0xBA, 0xBE})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		got := Sniff(data)
		if got < FormatUnknown || got > FormatMachO {
			t.Fatalf("Sniff returned out-of-range format %d", got)
		}
	})
}
