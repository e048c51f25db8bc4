package retype

import (
	"fmt"
	"sort"

	"github.com/rand-tech/auto-enum/internal/enumdb"
	"github.com/rand-tech/auto-enum/internal/typeinfo"
)

// Registry memoizes enum registration in a host type database. It is
// explicit session state: inject a fresh Registry per run (or per test)
// rather than sharing a global.
type Registry struct {
	db    typeinfo.Database
	enums *enumdb.DB
	memo  map[string]typeinfo.Type
}

// NewRegistry returns an empty registry backed by the host database and the
// enum knowledge base.
func NewRegistry(db typeinfo.Database, enums *enumdb.DB) *Registry {
	return &Registry{
		db:    db,
		enums: enums,
		memo:  make(map[string]typeinfo.Type),
	}
}

// DisplayName is the host type name an enum identifier registers under.
func DisplayName(id string) string {
	return "ENUM_" + id
}

// GetOrAdd resolves the host type for the enum identifier id. A display name
// already present in the host database is returned as-is; otherwise the raw
// definition is fetched, canonicalized, and registered with one member per
// (label, value) pair. Repeated calls with the same identifier are satisfied
// from the session memo without re-scanning the host database.
//
// An identifier missing from the enum database propagates
// enumdb.ErrUnknownEnum: the per-function database referenced an enum the
// global database does not define.
func (r *Registry) GetOrAdd(id string) (typeinfo.Type, error) {
	if t, ok := r.memo[id]; ok {
		return t, nil
	}

	display := DisplayName(id)
	if t, ok := r.db.Named(display); ok {
		r.memo[id] = t
		return t, nil
	}

	def, err := r.enums.Enum(id)
	if err != nil {
		return typeinfo.Type{}, err
	}
	members := make([]typeinfo.EnumMember, 0, len(def))
	for label, value := range def {
		members = append(members, typeinfo.EnumMember{Name: label, Value: value})
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Value != members[j].Value {
			return members[i].Value < members[j].Value
		}
		return members[i].Name < members[j].Name
	})

	t, err := r.db.AddEnum(display, members)
	if err != nil {
		return typeinfo.Type{}, fmt.Errorf("retype: register %s: %w", display, err)
	}
	r.memo[id] = t
	return t, nil
}
