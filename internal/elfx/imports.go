package elfx

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Import is one resolved entry of the import table.
type Import struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"` // symbol version (GLIBC_2.17) when declared
	Library string `json:"library,omitempty"` // providing library from version info, when known
	Addr    uint64 `json:"addr"`              // PLT stub (call binding) or GOT slot (pointer binding)
	Ptr     bool   `json:"ptr,omitempty"`     // Addr is a data slot holding a function pointer
}

// ImportedFunctions walks the dynamic relocations and resolves every
// imported function to the address its declared type lives at: the PLT stub
// for call-bound imports, the GOT slot for imports whose address is only
// ever taken. When a symbol has both bindings the call binding wins. An "@"
// version decoration on a symbol name is stripped; the version survives in
// Version.
func (f *File) ImportedFunctions() ([]Import, error) {
	syms, err := f.ELF.DynamicSymbols()
	if err != nil {
		if errors.Is(err, elf.ErrNoSymbols) {
			return nil, nil
		}
		return nil, fmt.Errorf("elfx: dynsym: %w", err)
	}

	// Version and providing library per imported name.
	meta := make(map[string]elf.ImportedSymbol)
	if imps, err := f.ELF.ImportedSymbols(); err == nil {
		for _, im := range imps {
			meta[im.Name] = im
		}
	}

	jumpSlot, globDat := relocTypes(f.ELF.Machine)
	byName := make(map[string]*Import)

	add := func(rawName string, addr uint64, ptr bool) {
		name, version := splitVersion(rawName)
		if name == "" || addr == 0 {
			return
		}
		imp, ok := byName[name]
		if !ok {
			imp = &Import{Name: name, Version: version, Addr: addr, Ptr: ptr}
			if m, ok := meta[name]; ok {
				if imp.Version == "" {
					imp.Version = m.Version
				}
				imp.Library = m.Library
			}
			byName[name] = imp
			return
		}
		if imp.Ptr && !ptr {
			imp.Addr, imp.Ptr = addr, false
		}
	}

	// Call-bound imports: one PLT stub per .rela.plt entry, in relocation
	// order. IRELATIVE entries still occupy a stub slot, so the index
	// advances for every record.
	plt := f.ELF.Section(".plt")
	pltSec := f.ELF.Section(".plt.sec")
	pltRelas, err := f.sectionRelas(".rela.plt")
	if err != nil {
		return nil, err
	}
	for i, r := range pltRelas {
		if elf.R_TYPE64(r.Info) != jumpSlot {
			continue
		}
		sym := symAt(syms, elf.R_SYM64(r.Info))
		if sym == nil || sym.Section != elf.SHN_UNDEF {
			continue
		}
		if addr := f.pltStub(plt, pltSec, i); addr != 0 {
			add(sym.Name, addr, false)
		} else {
			// No recognizable PLT: the GOT slot is the only address the
			// import has.
			add(sym.Name, r.Off, true)
		}
	}

	// Pointer-bound imports: GLOB_DAT against an undefined function symbol.
	dynRelas, err := f.sectionRelas(".rela.dyn")
	if err != nil {
		return nil, err
	}
	for _, r := range dynRelas {
		if elf.R_TYPE64(r.Info) != globDat {
			continue
		}
		sym := symAt(syms, elf.R_SYM64(r.Info))
		if sym == nil || sym.Section != elf.SHN_UNDEF || elf.ST_TYPE(sym.Info) != elf.STT_FUNC {
			continue
		}
		add(sym.Name, r.Off, true)
	}

	out := make([]Import, 0, len(byName))
	for _, imp := range byName {
		out = append(out, *imp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Addr != out[j].Addr {
			return out[i].Addr < out[j].Addr
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// pltStub returns the VA of PLT entry i, or 0 when the binary has no PLT.
// x86-64 stubs are 16 bytes each behind one header entry; with .plt.sec
// (CET) the real stubs live there, indexed directly. ARM64 reserves a
// 32-byte header before its 16-byte stubs.
func (f *File) pltStub(plt, pltSec *elf.Section, i int) uint64 {
	if pltSec != nil && pltSec.Addr != 0 {
		return pltSec.Addr + uint64(i)*16
	}
	if plt == nil || plt.Addr == 0 {
		return 0
	}
	if f.ELF.Machine == elf.EM_AARCH64 {
		return plt.Addr + 32 + uint64(i)*16
	}
	return plt.Addr + uint64(i+1)*16
}

func relocTypes(m elf.Machine) (jumpSlot, globDat uint32) {
	switch m {
	case elf.EM_AARCH64:
		return uint32(elf.R_AARCH64_JUMP_SLOT), uint32(elf.R_AARCH64_GLOB_DAT)
	default:
		return uint32(elf.R_X86_64_JMP_SLOT), uint32(elf.R_X86_64_GLOB_DAT)
	}
}

// sectionRelas decodes the Rela64 records of a section, nil when the
// section is absent.
func (f *File) sectionRelas(name string) ([]elf.Rela64, error) {
	s := f.ELF.Section(name)
	if s == nil {
		return nil, nil
	}
	data, err := s.Data()
	if err != nil {
		return nil, fmt.Errorf("elfx: read %s: %w", name, err)
	}
	return parseRelas(data, f.ELF.ByteOrder), nil
}

// parseRelas decodes consecutive ELF64 RELA records.
func parseRelas(data []byte, bo binary.ByteOrder) []elf.Rela64 {
	const sz = 24
	out := make([]elf.Rela64, 0, len(data)/sz)
	for off := 0; off+sz <= len(data); off += sz {
		out = append(out, elf.Rela64{
			Off:    bo.Uint64(data[off:]),
			Info:   bo.Uint64(data[off+8:]),
			Addend: int64(bo.Uint64(data[off+16:])),
		})
	}
	return out
}

func symAt(syms []elf.Symbol, idx uint32) *elf.Symbol {
	// DynamicSymbols omits the null symbol, so table index k is syms[k-1].
	if idx == 0 || int(idx) > len(syms) {
		return nil
	}
	return &syms[idx-1]
}

// splitVersion strips an "@" or "@@" version decoration from a symbol name.
func splitVersion(name string) (base, version string) {
	i := strings.Index(name, "@")
	if i < 0 {
		return name, ""
	}
	return name[:i], strings.TrimPrefix(name[i+1:], "@")
}
