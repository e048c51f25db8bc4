package typedb

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rand-tech/auto-enum/internal/typeinfo"
)

// Prototype is one typelib entry: a C declaration split into return type,
// calling convention, and named parameters.
type Prototype struct {
	Ret      string       `json:"ret"`
	CallConv string       `json:"callconv,omitempty"`
	Params   []ProtoParam `json:"params"`
}

// ProtoParam is one declared parameter of a Prototype.
type ProtoParam struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// LoadTypeLib reads a prototype typelib (JSON object, function name →
// Prototype) and registers every entry for Bind. Returns the number of
// prototypes loaded.
func (db *DB) LoadTypeLib(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("typedb: %w", err)
	}
	var lib map[string]Prototype
	if err := json.Unmarshal(raw, &lib); err != nil {
		return 0, fmt.Errorf("typedb: parse %s: %w", path, err)
	}

	for name, proto := range lib {
		fd := typeinfo.FuncData{
			CallConv: proto.CallConv,
			Ret:      db.ParseCType(proto.Ret),
		}
		for _, p := range proto.Params {
			fd.Params = append(fd.Params, typeinfo.Param{
				Name: p.Name,
				Type: db.ParseCType(p.Type),
			})
		}
		db.protos[name] = fd
	}
	return len(lib), nil
}

// HasPrototype reports whether the typelib declared name.
func (db *DB) HasPrototype(name string) bool {
	_, ok := db.protos[name]
	return ok
}

// Bind commits the typelib prototype for name at addr: the direct function
// type for a call-resolved import, or a pointer to it for a data-relocated
// slot. Reports false when the typelib has no entry for name; such an
// address simply has no type information.
func (db *DB) Bind(addr uint64, name string, ptr bool) bool {
	fd, ok := db.protos[name]
	if !ok {
		return false
	}
	t := typeinfo.FuncOf(fd.Clone())
	if ptr {
		t = typeinfo.PtrTo(t)
	}
	db.addrs[addr] = t
	return true
}

// ParseCType converts a C type spelling from a typelib into a type
// descriptor. Pointer stars and the usual qualifier keywords are handled;
// an unknown bare identifier becomes a named integral typedef, which is the
// honest default for the flag and handle typedefs that dominate prototype
// databases.
func (db *DB) ParseCType(spelling string) typeinfo.Type {
	s := strings.TrimSpace(spelling)
	if s == "" {
		return typeinfo.Type{Kind: typeinfo.KindInt, Name: "int", Bits: 32, Signed: true}
	}
	if s == "..." {
		return typeinfo.Type{Kind: typeinfo.KindVoid, Name: "..."}
	}

	// Peel pointer levels off the right.
	ptrs := 0
	for {
		s = strings.TrimSpace(s)
		if strings.HasSuffix(s, "*") {
			s = s[:len(s)-1]
			ptrs++
			continue
		}
		break
	}

	// Drop qualifiers and aggregate keywords; they don't affect matching.
	var kept []string
	for _, tok := range strings.Fields(s) {
		switch tok {
		case "const", "volatile", "restrict", "struct", "union", "enum":
			continue
		}
		kept = append(kept, tok)
	}
	base := strings.Join(kept, " ")

	var t typeinfo.Type
	if bt, ok := builtins[base]; ok {
		t = bt
	} else if nt, ok := db.named[base]; ok {
		t = nt
	} else if base == "" {
		t = typeinfo.Type{Kind: typeinfo.KindVoid, Name: "void"}
	} else {
		t = typeinfo.Type{Kind: typeinfo.KindInt, Name: base, Signed: true}
	}

	for i := 0; i < ptrs; i++ {
		t = typeinfo.PtrTo(t)
	}
	return t
}
