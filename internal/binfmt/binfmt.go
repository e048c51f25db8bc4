// Package binfmt sniffs executable container formats for the platform gate.
package binfmt

import (
	"errors"
	"fmt"
	"os"
)

// Format identifies an executable container format.
type Format int

const (
	FormatUnknown Format = iota
	FormatELF
	FormatPE
	FormatMachO
)

func (f Format) String() string {
	switch f {
	case FormatELF:
		return "ELF"
	case FormatPE:
		return "PE"
	case FormatMachO:
		return "Mach-O"
	default:
		return "unknown"
	}
}

// Family returns the platform family a container format implies. The family
// selects the data directory holding that platform's knowledge base
// (data/linux, data/windows, ...).
func (f Format) Family() string {
	switch f {
	case FormatELF:
		return "linux"
	case FormatPE:
		return "windows"
	case FormatMachO:
		return "darwin"
	default:
		return "unknown"
	}
}

// ErrUnsupportedPlatform aborts a run before any import is processed.
var ErrUnsupportedPlatform = errors.New("binfmt: platform not supported")

// Sniff classifies a file by its leading magic bytes.
func Sniff(prefix []byte) Format {
	if len(prefix) >= 4 && prefix[0] == 0x7F && prefix[1] == 'E' && prefix[2] == 'L' && prefix[3] == 'F' {
		return FormatELF
	}
	if len(prefix) >= 2 && prefix[0] == 'M' && prefix[1] == 'Z' {
		return FormatPE
	}
	if len(prefix) >= 4 {
		switch [4]byte{prefix[0], prefix[1], prefix[2], prefix[3]} {
		case [4]byte{0xFE, 0xED, 0xFA, 0xCE}, // 32-bit BE
			[4]byte{0xFE, 0xED, 0xFA, 0xCF}, // 64-bit BE
			[4]byte{0xCE, 0xFA, 0xED, 0xFE}, // 32-bit LE
			[4]byte{0xCF, 0xFA, 0xED, 0xFE}, // 64-bit LE
			[4]byte{0xCA, 0xFE, 0xBA, 0xBE}, // fat
			[4]byte{0xBE, 0xBA, 0xFE, 0xCA}: // fat, swapped
			return FormatMachO
		}
	}
	return FormatUnknown
}

// Detect sniffs the format of the file at path.
func Detect(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("binfmt: open: %w", err)
	}
	defer f.Close()

	var magic [4]byte
	n, err := f.Read(magic[:])
	if err != nil && n == 0 {
		return FormatUnknown, fmt.Errorf("binfmt: read magic: %w", err)
	}
	return Sniff(magic[:n]), nil
}

// Gate detects the container format of the file at path and returns its
// platform family if the family is supported. Every non-ELF container is
// rejected with ErrUnsupportedPlatform: the gate runs before the import
// table is read, so a rejected binary has no function touched.
func Gate(path string) (string, error) {
	format, err := Detect(path)
	if err != nil {
		return "", err
	}
	if format != FormatELF {
		return "", fmt.Errorf("%w: %s binaries (%s) are not supported at the moment", ErrUnsupportedPlatform, format.Family(), format)
	}
	return format.Family(), nil
}
