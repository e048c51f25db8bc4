package xref

import (
	"encoding/binary"
	"strings"
	"testing"
)

func TestIsBL(t *testing.T) {
	tests := []struct {
		name       string
		raw        uint32
		pc         uint64
		wantTarget uint64
		wantOK     bool
	}{
		// BL forward: imm26 = (0x2000-0x1000)/4 = 0x400
		// Encoding: 0x94000000 | imm26
		{"forward", 0x94000000 | 0x400, 0x1000, 0x2000, true},

		// BL backward: imm26 = -0x400, sign-extended
		// -0x400 & 0x03FFFFFF = 0x03FFFC00
		{"backward", 0x94000000 | 0x03FFFC00, 0x2000, 0x1000, true},

		// BL to self: imm26 = 0
		{"self", 0x94000000, 0x1000, 0x1000, true},

		// B (no link): top bits 000101, not 100101
		{"plain_B", 0x14000400, 0x1000, 0, false},

		// BLR X16: register branch, different encoding entirely
		{"BLR", 0xD63F0200, 0x1000, 0, false},

		// NOP
		{"NOP", 0xD503201F, 0x1000, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, ok := isBL(tt.raw, tt.pc)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && target != tt.wantTarget {
				t.Errorf("target = 0x%x, want 0x%x", target, tt.wantTarget)
			}
		})
	}
}

func TestScanARM64(t *testing.T) {
	const (
		base = 0x1000
		nop  = 0xD503201F
	)
	targets := map[uint64]string{0x2000: "open"}

	// pc 0x1004: BL 0x2000 → imm26 = (0x2000-0x1004)/4 = 0x3FF
	// pc 0x1008: BL 0x3000 → not an import
	// pc 0x100C: B 0x2000 → no link, must be ignored
	words := []uint32{
		nop,
		0x94000000 | 0x3FF,
		0x94000000 | ((0x3000 - 0x1008) / 4),
		0x14000000 | ((0x2000 - 0x100C) / 4),
	}
	data := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(data[4*i:], w)
	}

	sites := scanARM64(data, base, targets)
	if len(sites) != 1 {
		t.Fatalf("got %d sites, want 1: %+v", len(sites), sites)
	}
	s := sites[0]
	if s.Addr != 0x1004 || s.Target != 0x2000 || s.Name != "open" || s.Kind != "bl" {
		t.Errorf("site = %+v", s)
	}
}

func TestScanX86(t *testing.T) {
	const base = 0x1000
	targets := map[uint64]string{
		0x2000: "open",  // PLT stub
		0x4000: "qsort", // GOT slot
	}

	var data []byte
	put32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		data = append(data, b[:]...)
	}

	// 0x1000: nop
	data = append(data, 0x90)
	// 0x1001: call 0x2000 → rel32 = 0x2000 - 0x1006
	data = append(data, 0xE8)
	put32(0x2000 - 0x1006)
	// 0x1006: call qword ptr [rip+0x2FF4] → slot 0x100C + 0x2FF4 = 0x4000
	data = append(data, 0xFF, 0x15)
	put32(0x2FF4)
	// 0x100C: call 0x9000 → not an import
	data = append(data, 0xE8)
	put32(0x9000 - 0x1011)
	// 0x1011: call rax → register call, unresolvable
	data = append(data, 0xFF, 0xD0)

	sites := scanX86(data, base, targets)
	if len(sites) != 2 {
		t.Fatalf("got %d sites, want 2: %+v", len(sites), sites)
	}
	if s := sites[0]; s.Addr != 0x1001 || s.Target != 0x2000 || s.Name != "open" || s.Kind != "call" {
		t.Errorf("sites[0] = %+v", s)
	}
	if s := sites[1]; s.Addr != 0x1006 || s.Target != 0x4000 || s.Name != "qsort" || s.Kind != "call*" {
		t.Errorf("sites[1] = %+v", s)
	}
}

func TestScanX86SkipsUndecodable(t *testing.T) {
	const base = 0x1000
	targets := map[uint64]string{0x2000: "open"}

	// 0x06 is invalid in 64-bit mode; the scanner must advance one byte
	// and still find the call behind it.
	data := []byte{0x06, 0x90}
	data = append(data, 0xE8)
	var rel [4]byte
	binary.LittleEndian.PutUint32(rel[:], 0x2000-0x1007) // next = 0x1002+5
	data = append(data, rel[:]...)

	sites := scanX86(data, base, targets)
	if len(sites) != 1 {
		t.Fatalf("got %d sites, want 1: %+v", len(sites), sites)
	}
	if sites[0].Addr != 0x1002 {
		t.Errorf("site addr = 0x%x, want 0x1002", sites[0].Addr)
	}
}

func TestIndexSummary(t *testing.T) {
	ix := &Index{
		byTarget: map[uint64][]Site{
			0x2000: {
				{Addr: 0x10, Target: 0x2000, Name: "open", Kind: "call"},
				{Addr: 0x20, Target: 0x2000, Name: "open", Kind: "call"},
				{Addr: 0x30, Target: 0x2000, Name: "open", Kind: "call"},
			},
			0x3000: {
				{Addr: 0x40, Target: 0x3000, Name: "mmap", Kind: "call"},
			},
		},
		total: 4,
	}

	if ix.Total() != 4 {
		t.Errorf("Total = %d, want 4", ix.Total())
	}
	if got := len(ix.Sites(0x2000)); got != 3 {
		t.Errorf("Sites(0x2000) = %d entries, want 3", got)
	}
	if ix.Sites(0x9999) != nil {
		t.Error("unknown target should have no sites")
	}

	lines := ix.Summary()
	if len(lines) != 2 {
		t.Fatalf("Summary = %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "open") || !strings.HasSuffix(lines[0], "3") {
		t.Errorf("lines[0] = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "mmap") {
		t.Errorf("lines[1] = %q", lines[1])
	}
}
