// Package xref locates call sites that reference imported function stubs.
package xref

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"sort"

	"golang.org/x/arch/x86/x86asm"

	"github.com/rand-tech/auto-enum/internal/elfx"
)

// Site is a single call instruction that reaches an import.
type Site struct {
	Addr   uint64 `json:"addr"`   // VA of the call instruction
	Target uint64 `json:"target"` // VA of the stub or GOT slot it reaches
	Name   string `json:"name"`   // import name
	Kind   string `json:"kind"`   // "bl", "call" or "call*"
}

// Index maps import addresses to the call sites that reach them.
type Index struct {
	byTarget map[uint64][]Site
	total    int
}

// Sites returns the call sites reaching the import at target, in
// address order.
func (ix *Index) Sites(target uint64) []Site {
	return ix.byTarget[target]
}

// Total returns the number of call sites across all imports.
func (ix *Index) Total() int { return ix.total }

// Scan decodes the executable segments of f and records every direct
// call whose target is one of the given imports. Calls that go through
// a register are not resolved.
func Scan(f *elfx.File, imports []elfx.Import) (*Index, error) {
	targets := make(map[uint64]string, len(imports))
	for _, imp := range imports {
		if imp.Addr != 0 {
			targets[imp.Addr] = imp.Name
		}
	}

	segs, err := f.ExecSegments()
	if err != nil {
		return nil, err
	}

	var sites []Site
	for _, seg := range segs {
		switch f.Machine() {
		case elf.EM_AARCH64:
			sites = append(sites, scanARM64(seg.Data, seg.Vaddr, targets)...)
		default:
			sites = append(sites, scanX86(seg.Data, seg.Vaddr, targets)...)
		}
	}

	return NewIndex(sites), nil
}

// NewIndex builds an index from pre-resolved call sites.
func NewIndex(sites []Site) *Index {
	sort.Slice(sites, func(i, j int) bool { return sites[i].Addr < sites[j].Addr })
	ix := &Index{byTarget: make(map[uint64][]Site), total: len(sites)}
	for _, s := range sites {
		ix.byTarget[s.Target] = append(ix.byTarget[s.Target], s)
	}
	return ix
}

// isBL detects ARM64 BL (branch with link) instructions.
// Encoding: 1 | 00101 | imm26
// Mask: 0xFC000000, Value: 0x94000000
// Returns the target address (sign-extended imm26 * 4 + PC).
func isBL(raw uint32, pc uint64) (target uint64, ok bool) {
	if raw&0xFC000000 != 0x94000000 {
		return 0, false
	}
	imm26 := int32(raw & 0x03FFFFFF)
	// Sign extend from 26 bits.
	if imm26&(1<<25) != 0 {
		imm26 |= ^int32(0x03FFFFFF)
	}
	target = uint64(int64(pc) + int64(imm26)*4)
	return target, true
}

// scanARM64 walks 4-byte instruction slots looking for BL instructions
// whose target is an import stub.
func scanARM64(data []byte, base uint64, targets map[uint64]string) []Site {
	var sites []Site
	for off := 0; off+4 <= len(data); off += 4 {
		raw := binary.LittleEndian.Uint32(data[off : off+4])
		pc := base + uint64(off)
		target, ok := isBL(raw, pc)
		if !ok {
			continue
		}
		name, hit := targets[target]
		if !hit {
			continue
		}
		sites = append(sites, Site{Addr: pc, Target: target, Name: name, Kind: "bl"})
	}
	return sites
}

// scanX86 decodes 64-bit x86 and records CALL rel32 to a PLT stub and
// CALL [rip+disp] through a GOT slot. Undecodable bytes advance one
// byte, so data mixed into the text segment does not derail the scan.
func scanX86(data []byte, base uint64, targets map[uint64]string) []Site {
	var sites []Site
	for off := 0; off < len(data); {
		pc := base + uint64(off)
		inst, err := x86asm.Decode(data[off:], 64)
		if err != nil || inst.Len == 0 {
			off++
			continue
		}
		if inst.Op == x86asm.CALL && inst.Args[0] != nil {
			next := pc + uint64(inst.Len)
			switch arg := inst.Args[0].(type) {
			case x86asm.Rel:
				target := uint64(int64(next) + int64(arg))
				if name, hit := targets[target]; hit {
					sites = append(sites, Site{Addr: pc, Target: target, Name: name, Kind: "call"})
				}
			case x86asm.Mem:
				if arg.Base == x86asm.RIP && arg.Index == 0 {
					slot := uint64(int64(next) + arg.Disp)
					if name, hit := targets[slot]; hit {
						sites = append(sites, Site{Addr: pc, Target: slot, Name: name, Kind: "call*"})
					}
				}
			}
		}
		off += inst.Len
	}
	return sites
}

// Summary renders a one-line count per import, most-called first.
func (ix *Index) Summary() []string {
	type entry struct {
		name  string
		count int
	}
	var entries []entry
	for _, ss := range ix.byTarget {
		if len(ss) == 0 {
			continue
		}
		entries = append(entries, entry{ss[0].Name, len(ss)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = fmt.Sprintf("%-30s %d", e.name, e.count)
	}
	return out
}
