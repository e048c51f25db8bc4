// Package enumdb loads the enum and per-function argument knowledge bases
// that drive prototype annotation.
//
// A platform data directory holds one enums.json document (enum identifier →
// label → value) and one functions/<name>.json document per known library
// function. enums.json is loaded once per session; function documents are
// loaded lazily and memoized.
package enumdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrUnknownEnum     = errors.New("enumdb: unknown enum")
	ErrUnknownFunction = errors.New("enumdb: unknown function")
)

// EnumDef maps symbolic labels to integer values.
type EnumDef map[string]int64

var trailingIndex = regexp.MustCompile(`_[0-9]+$`)

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Canonicalize rewrites the labels of enum in place so every member name is
// self-contained, and returns the same map.
//
// A numeric identifier denotes an anonymous enum: only a literal "0" label
// is renamed, to NULL. A non-numeric identifier denotes a family
// disambiguated by a trailing _<digits> suffix (PROT_4, MAP_11): the suffix
// is stripped to obtain the family prefix, "0" becomes NULL, and every other
// label L becomes <prefix>_<L>. Values are preserved throughout. An
// identifier with no trailing _<digits> suffix is its own prefix.
//
// Labels rewrite in sorted order, so a new name landing on a label that has
// not been processed yet resolves the same way on every run.
func Canonicalize(enum EnumDef, id string) EnumDef {
	if allDigits(id) {
		if v, ok := enum["0"]; ok {
			delete(enum, "0")
			enum["NULL"] = v
		}
		return enum
	}

	prefix := trailingIndex.ReplaceAllString(id, "")
	type kv struct {
		k string
		v int64
	}
	items := make([]kv, 0, len(enum))
	for k, v := range enum {
		items = append(items, kv{k, v})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].k < items[j].k })
	for _, it := range items {
		delete(enum, it.k)
		if it.k == "0" {
			enum["NULL"] = it.v
		} else {
			enum[prefix+"_"+it.k] = it.v
		}
	}
	return enum
}

// DB serves the knowledge bases for one platform family. All lookups are
// memoized for the life of the session; the files are treated as immutable
// once opened.
type DB struct {
	dir   string
	enums map[string]EnumDef
	// expanded never evicts: Canonicalize rewrites the stored map in place
	// and must run exactly once per identifier.
	expanded map[string]EnumDef
	known    *lru.Cache[string, bool]
	funcs    *lru.Cache[string, *FuncSpec]
}

// Open loads enums.json from the platform data directory dir (for example
// data/linux). Per-function documents are not touched until first use.
func Open(dir string) (*DB, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "enums.json"))
	if err != nil {
		return nil, fmt.Errorf("enumdb: %w", err)
	}
	var enums map[string]EnumDef
	if err := json.Unmarshal(raw, &enums); err != nil {
		return nil, fmt.Errorf("enumdb: parse enums.json: %w", err)
	}

	known, err := lru.New[string, bool](4096)
	if err != nil {
		return nil, fmt.Errorf("enumdb: %w", err)
	}
	funcs, err := lru.New[string, *FuncSpec](1024)
	if err != nil {
		return nil, fmt.Errorf("enumdb: %w", err)
	}

	return &DB{
		dir:      dir,
		enums:    enums,
		expanded: make(map[string]EnumDef),
		known:    known,
		funcs:    funcs,
	}, nil
}

// Dir returns the platform data directory backing the database.
func (db *DB) Dir() string { return db.dir }

// Enums returns the raw enum identifiers present in enums.json, sorted.
func (db *DB) Enums() []string {
	ids := make([]string, 0, len(db.enums))
	for id := range db.enums {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasEnum reports whether id exists in enums.json.
func (db *DB) HasEnum(id string) bool {
	_, ok := db.enums[id]
	return ok
}

// Enum returns the canonicalized definition for id. The in-place label
// rewrite runs at most once per identifier; repeated calls return the
// memoized result.
func (db *DB) Enum(id string) (EnumDef, error) {
	if def, ok := db.expanded[id]; ok {
		return def, nil
	}
	raw, ok := db.enums[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEnum, id)
	}
	def := Canonicalize(raw, id)
	db.expanded[id] = def
	return def, nil
}

// Contains reports whether funcname has a per-function document. The
// existence check hits the filesystem at most once per name.
func (db *DB) Contains(funcname string) bool {
	if exists, ok := db.known.Get(funcname); ok {
		return exists
	}
	_, err := os.Stat(db.funcPath(funcname))
	exists := err == nil
	db.known.Add(funcname, exists)
	return exists
}

// Function loads the per-function document for funcname. The parsed document
// is memoized; a name without a document returns ErrUnknownFunction.
func (db *DB) Function(funcname string) (*FuncSpec, error) {
	if spec, ok := db.funcs.Get(funcname); ok {
		return spec, nil
	}
	if !db.Contains(funcname) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, funcname)
	}
	raw, err := os.ReadFile(db.funcPath(funcname))
	if err != nil {
		return nil, fmt.Errorf("enumdb: %s: %w", funcname, err)
	}
	spec, err := ParseFuncSpec(raw)
	if err != nil {
		return nil, fmt.Errorf("enumdb: %s: %w", funcname, err)
	}
	db.funcs.Add(funcname, spec)
	return spec, nil
}

func (db *DB) funcPath(funcname string) string {
	return filepath.Join(db.dir, "functions", funcname+".json")
}
