// Package typeinfo models the slice of a host type database that prototype
// annotation needs: named types, enumerations, and function signatures
// committed at addresses.
package typeinfo

import (
	"fmt"
	"strings"
)

// BoolMacroName is the declared name of the boolean macro type a host
// database is expected to carry. Parameters whose primitive type name is
// "bool" (case-insensitively) are retyped to it.
const BoolMacroName = "MACRO_BOOL"

// Kind classifies a type descriptor.
type Kind int

const (
	KindVoid Kind = iota
	KindInt
	KindBool
	KindFloat
	KindPtr
	KindEnum
	KindFunc
)

// EnumMember is one (label, value) pair of an enumerated type.
type EnumMember struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// Type is a value-semantics type descriptor. Name carries the declared name
// when the type came from a database ("DWORD", "MACRO_BOOL", "ENUM_PROT");
// anonymous types leave it empty.
type Type struct {
	Kind    Kind
	Name    string
	Bits    int // integral width, 0 when unknown
	Signed  bool
	Elem    *Type        // pointee, KindPtr only
	Sig     *FuncData    // signature, KindFunc only
	Members []EnumMember // KindEnum only
}

// IsPtr reports whether t is a pointer type.
func (t Type) IsPtr() bool { return t.Kind == KindPtr }

// IsIntegral reports whether t is an integer-like scalar. Booleans and
// enumerations count as integral; the separate enum check in the retyping
// rules is what keeps already-enumerated parameters untouched.
func (t Type) IsIntegral() bool {
	return t.Kind == KindInt || t.Kind == KindBool || t.Kind == KindEnum
}

// IsEnum reports whether t is an enumerated type.
func (t Type) IsEnum() bool { return t.Kind == KindEnum }

// IsFunc reports whether t is a direct function type.
func (t Type) IsFunc() bool { return t.Kind == KindFunc }

// IsFuncPtr reports whether t is a pointer to a function type.
func (t Type) IsFuncPtr() bool {
	return t.Kind == KindPtr && t.Elem != nil && t.Elem.Kind == KindFunc
}

// Clone returns a deep copy of t.
func (t Type) Clone() Type {
	c := t
	if t.Elem != nil {
		e := t.Elem.Clone()
		c.Elem = &e
	}
	if t.Sig != nil {
		s := t.Sig.Clone()
		c.Sig = &s
	}
	if t.Members != nil {
		c.Members = append([]EnumMember(nil), t.Members...)
	}
	return c
}

func (t Type) String() string {
	if t.Name != "" {
		return t.Name
	}
	switch t.Kind {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt:
		return intName(t.Bits, t.Signed)
	case KindFloat:
		if t.Bits == 32 {
			return "float"
		}
		return "double"
	case KindPtr:
		if t.Elem == nil {
			return "void *"
		}
		s := t.Elem.String()
		if strings.HasSuffix(s, "*") {
			return s + "*"
		}
		return s + " *"
	case KindEnum:
		return "enum"
	case KindFunc:
		if t.Sig != nil {
			return t.Sig.Prototype("")
		}
		return "func"
	default:
		return fmt.Sprintf("type_kind_%d", int(t.Kind))
	}
}

func intName(bits int, signed bool) string {
	var base string
	switch bits {
	case 8:
		base = "char"
	case 16:
		base = "short"
	case 64:
		base = "long"
	default:
		base = "int"
	}
	if !signed {
		return "unsigned " + base
	}
	return base
}

// Param is one named parameter of a function signature.
type Param struct {
	Name string
	Type Type
}

// FuncData is an ordered function signature: what the host's type-inference
// subsystem reconstructs for an import and what the retyping rules walk.
type FuncData struct {
	CallConv string
	Ret      Type
	Params   []Param
}

// Clone returns a deep copy of fd.
func (fd FuncData) Clone() FuncData {
	c := fd
	c.Ret = fd.Ret.Clone()
	if fd.Params != nil {
		c.Params = make([]Param, len(fd.Params))
		for i, p := range fd.Params {
			c.Params[i] = Param{Name: p.Name, Type: p.Type.Clone()}
		}
	}
	return c
}

// Prototype renders the signature as a C-style declaration for name.
func (fd *FuncData) Prototype(name string) string {
	var b strings.Builder
	b.WriteString(fd.Ret.String())
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteByte('(')
	if len(fd.Params) == 0 {
		b.WriteString("void")
	}
	for i, p := range fd.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		ts := p.Type.String()
		b.WriteString(ts)
		if p.Name != "" {
			if !strings.HasSuffix(ts, "*") {
				b.WriteByte(' ')
			}
			b.WriteString(p.Name)
		}
	}
	b.WriteByte(')')
	return b.String()
}

// FuncOf wraps a signature as a direct function type.
func FuncOf(fd FuncData) Type {
	return Type{Kind: KindFunc, Sig: &fd}
}

// PtrTo wraps elem in one level of pointer indirection.
func PtrTo(elem Type) Type {
	return Type{Kind: KindPtr, Elem: &elem}
}

// FuncDetails resolves t to a function signature, looking through one level
// of pointer indirection. ptr reports whether t was a pointer to a function
// rather than a function itself; ok is false when t is neither. The returned
// signature is a deep copy: callers mutate parameter types freely and commit
// the rebuilt type, the input stays untouched.
func FuncDetails(t Type) (fd *FuncData, ptr, ok bool) {
	switch {
	case t.IsFunc() && t.Sig != nil:
		c := t.Sig.Clone()
		return &c, false, true
	case t.IsFuncPtr() && t.Elem.Sig != nil:
		c := t.Elem.Sig.Clone()
		return &c, true, true
	default:
		return nil, false, false
	}
}

// Database is the host type-database surface the annotation pipeline works
// against. The reference implementation is typedb.DB; a host embedding the
// pipeline supplies its own.
type Database interface {
	// Named resolves a type by its declared name.
	Named(name string) (Type, bool)
	// AddEnum registers an enumerated type under name. Registering a name
	// that already exists returns the existing type unchanged.
	AddEnum(name string, members []EnumMember) (Type, error)
	// TypeAt returns the type declared at addr, if any.
	TypeAt(addr uint64) (Type, bool)
	// Apply commits t at addr as a definitive override.
	Apply(addr uint64, t Type) error
}
