// Package typedb is the reference implementation of the typeinfo.Database
// surface: an in-memory type table seeded with the C primitives and a
// prototype typelib, standing in for a host disassembler's type database.
package typedb

import (
	"errors"
	"fmt"

	"github.com/rand-tech/auto-enum/internal/typeinfo"
)

var ErrBadEnum = errors.New("typedb: bad enum")

// DB is an in-memory type database.
type DB struct {
	named  map[string]typeinfo.Type
	addrs  map[uint64]typeinfo.Type
	protos map[string]typeinfo.FuncData
}

// New returns a database seeded with the builtin primitives and the
// MACRO_BOOL macro.
func New() *DB {
	db := &DB{
		named:  make(map[string]typeinfo.Type, len(builtins)+8),
		addrs:  make(map[uint64]typeinfo.Type),
		protos: make(map[string]typeinfo.FuncData),
	}
	for name, t := range builtins {
		db.named[name] = t
	}
	db.named[typeinfo.BoolMacroName] = typeinfo.Type{
		Kind: typeinfo.KindEnum,
		Name: typeinfo.BoolMacroName,
		Members: []typeinfo.EnumMember{
			{Name: "FALSE", Value: 0},
			{Name: "TRUE", Value: 1},
		},
	}
	return db
}

// builtins covers the C primitives a typelib spells out, LP64 widths.
var builtins = map[string]typeinfo.Type{
	"void":               {Kind: typeinfo.KindVoid, Name: "void"},
	"bool":               {Kind: typeinfo.KindBool, Name: "bool", Bits: 8},
	"_Bool":              {Kind: typeinfo.KindBool, Name: "bool", Bits: 8},
	"char":               {Kind: typeinfo.KindInt, Name: "char", Bits: 8, Signed: true},
	"signed char":        {Kind: typeinfo.KindInt, Name: "signed char", Bits: 8, Signed: true},
	"unsigned char":      {Kind: typeinfo.KindInt, Name: "unsigned char", Bits: 8},
	"short":              {Kind: typeinfo.KindInt, Name: "short", Bits: 16, Signed: true},
	"unsigned short":     {Kind: typeinfo.KindInt, Name: "unsigned short", Bits: 16},
	"int":                {Kind: typeinfo.KindInt, Name: "int", Bits: 32, Signed: true},
	"unsigned":           {Kind: typeinfo.KindInt, Name: "unsigned int", Bits: 32},
	"unsigned int":       {Kind: typeinfo.KindInt, Name: "unsigned int", Bits: 32},
	"long":               {Kind: typeinfo.KindInt, Name: "long", Bits: 64, Signed: true},
	"unsigned long":      {Kind: typeinfo.KindInt, Name: "unsigned long", Bits: 64},
	"long long":          {Kind: typeinfo.KindInt, Name: "long long", Bits: 64, Signed: true},
	"unsigned long long": {Kind: typeinfo.KindInt, Name: "unsigned long long", Bits: 64},
	"float":              {Kind: typeinfo.KindFloat, Name: "float", Bits: 32},
	"double":             {Kind: typeinfo.KindFloat, Name: "double", Bits: 64},
	"int8_t":             {Kind: typeinfo.KindInt, Name: "int8_t", Bits: 8, Signed: true},
	"uint8_t":            {Kind: typeinfo.KindInt, Name: "uint8_t", Bits: 8},
	"int16_t":            {Kind: typeinfo.KindInt, Name: "int16_t", Bits: 16, Signed: true},
	"uint16_t":           {Kind: typeinfo.KindInt, Name: "uint16_t", Bits: 16},
	"int32_t":            {Kind: typeinfo.KindInt, Name: "int32_t", Bits: 32, Signed: true},
	"uint32_t":           {Kind: typeinfo.KindInt, Name: "uint32_t", Bits: 32},
	"int64_t":            {Kind: typeinfo.KindInt, Name: "int64_t", Bits: 64, Signed: true},
	"uint64_t":           {Kind: typeinfo.KindInt, Name: "uint64_t", Bits: 64},
	"size_t":             {Kind: typeinfo.KindInt, Name: "size_t", Bits: 64},
	"ssize_t":            {Kind: typeinfo.KindInt, Name: "ssize_t", Bits: 64, Signed: true},
	"intptr_t":           {Kind: typeinfo.KindInt, Name: "intptr_t", Bits: 64, Signed: true},
	"uintptr_t":          {Kind: typeinfo.KindInt, Name: "uintptr_t", Bits: 64},
}

// Named resolves a type by its declared name.
func (db *DB) Named(name string) (typeinfo.Type, bool) {
	t, ok := db.named[name]
	return t, ok
}

// AddEnum registers an enumerated type under name. Registering a name that
// already exists returns the existing type unchanged, whatever its members:
// the first registration wins for the session.
func (db *DB) AddEnum(name string, members []typeinfo.EnumMember) (typeinfo.Type, error) {
	if name == "" {
		return typeinfo.Type{}, fmt.Errorf("%w: empty name", ErrBadEnum)
	}
	if t, ok := db.named[name]; ok {
		return t, nil
	}
	t := typeinfo.Type{
		Kind:    typeinfo.KindEnum,
		Name:    name,
		Members: append([]typeinfo.EnumMember(nil), members...),
	}
	db.named[name] = t
	return t, nil
}

// TypeAt returns the type declared at addr, if any.
func (db *DB) TypeAt(addr uint64) (typeinfo.Type, bool) {
	t, ok := db.addrs[addr]
	return t, ok
}

// Apply commits t at addr as a definitive override.
func (db *DB) Apply(addr uint64, t typeinfo.Type) error {
	db.addrs[addr] = t
	return nil
}

// EnumNames returns the declared names of every registered enum, excluding
// builtins, in no particular order.
func (db *DB) EnumNames() []string {
	var names []string
	for name, t := range db.named {
		if t.Kind == typeinfo.KindEnum && name != typeinfo.BoolMacroName {
			names = append(names, name)
		}
	}
	return names
}
