// Package elfx provides ELF loading helpers for import-table annotation.
package elfx

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

var (
	ErrNotELF     = errors.New("elfx: not an ELF file")
	ErrBadMachine = errors.New("elfx: not an x86-64 or ARM64 ELF")
	ErrBadType    = errors.New("elfx: not an executable or shared object")
	ErrNot64Bit   = errors.New("elfx: not 64-bit ELF")
	ErrNoSegment  = errors.New("elfx: no PT_LOAD segment covers address")
)

// File wraps a debug/elf.File with convenience methods for import analysis.
type File struct {
	ELF  *elf.File
	raw  io.ReaderAt
	size int64
}

// Open opens an ELF file and validates it is a 64-bit x86-64 or ARM64
// executable or shared object.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("elfx: open: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("elfx: stat: %w", err)
	}

	ef, err := elf.NewFile(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrNotELF, err)
	}

	if ef.Class != elf.ELFCLASS64 {
		ef.Close()
		return nil, ErrNot64Bit
	}
	if ef.Machine != elf.EM_X86_64 && ef.Machine != elf.EM_AARCH64 {
		ef.Close()
		return nil, fmt.Errorf("%w: %v", ErrBadMachine, ef.Machine)
	}
	if ef.Type != elf.ET_DYN && ef.Type != elf.ET_EXEC {
		ef.Close()
		return nil, fmt.Errorf("%w: %v", ErrBadType, ef.Type)
	}

	return &File{ELF: ef, raw: f, size: info.Size()}, nil
}

// Close releases resources.
func (f *File) Close() error {
	return f.ELF.Close()
}

// FileSize returns the size of the underlying file.
func (f *File) FileSize() int64 { return f.size }

// Machine returns the ELF machine architecture.
func (f *File) Machine() elf.Machine { return f.ELF.Machine }

// ByteOrder returns the ELF byte order.
func (f *File) ByteOrder() binary.ByteOrder {
	return f.ELF.ByteOrder
}

// VAToFileOffset converts a virtual address to a file offset using PT_LOAD segments.
func (f *File) VAToFileOffset(va uint64) (uint64, error) {
	for _, p := range f.ELF.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		if va >= p.Vaddr && va < p.Vaddr+p.Memsz {
			offset := va - p.Vaddr + p.Off
			if offset >= uint64(f.size) {
				return 0, fmt.Errorf("elfx: VA 0x%x maps to offset 0x%x beyond file size 0x%x", va, offset, f.size)
			}
			return offset, nil
		}
	}
	return 0, fmt.Errorf("%w: VA 0x%x", ErrNoSegment, va)
}

// ReadBytesAtVA reads n bytes starting at the given virtual address.
func (f *File) ReadBytesAtVA(va uint64, n int) ([]byte, error) {
	off, err := f.VAToFileOffset(va)
	if err != nil {
		return nil, err
	}
	// Clamp to file size.
	avail := f.size - int64(off)
	if avail <= 0 {
		return nil, fmt.Errorf("elfx: offset 0x%x at or past end of file", off)
	}
	if int64(n) > avail {
		n = int(avail)
	}
	buf := make([]byte, n)
	_, err = f.raw.ReadAt(buf, int64(off))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("elfx: read at 0x%x: %w", off, err)
	}
	return buf, nil
}

// FuncSym is a defined function symbol.
type FuncSym struct {
	Name string
	Addr uint64
	Size uint64
}

// FuncSyms returns the defined STT_FUNC symbols from the static and
// dynamic symbol tables, sorted by address. Stripped binaries may
// return an empty slice.
func (f *File) FuncSyms() []FuncSym {
	var out []FuncSym
	seen := make(map[uint64]bool)
	collect := func(syms []elf.Symbol) {
		for _, s := range syms {
			if elf.ST_TYPE(s.Info) != elf.STT_FUNC || s.Section == elf.SHN_UNDEF || s.Value == 0 {
				continue
			}
			if s.Name == "" || seen[s.Value] {
				continue
			}
			seen[s.Value] = true
			out = append(out, FuncSym{Name: s.Name, Addr: s.Value, Size: s.Size})
		}
	}
	if syms, err := f.ELF.Symbols(); err == nil {
		collect(syms)
	}
	if syms, err := f.ELF.DynamicSymbols(); err == nil {
		collect(syms)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// Segment is one loaded range with its file-backed bytes.
type Segment struct {
	Vaddr uint64
	Data  []byte
}

// ExecSegments returns the executable PT_LOAD ranges with their bytes, for
// call-site scanning.
func (f *File) ExecSegments() ([]Segment, error) {
	var segs []Segment
	for _, p := range f.ELF.Progs {
		if p.Type != elf.PT_LOAD || p.Flags&elf.PF_X == 0 {
			continue
		}
		data := make([]byte, p.Filesz)
		if _, err := io.ReadFull(io.NewSectionReader(p, 0, int64(p.Filesz)), data); err != nil {
			return nil, fmt.Errorf("elfx: read segment at 0x%x: %w", p.Vaddr, err)
		}
		segs = append(segs, Segment{Vaddr: p.Vaddr, Data: data})
	}
	return segs, nil
}
