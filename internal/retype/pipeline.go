// Package retype applies enum and boolean types to the integer parameters
// of imported library functions.
//
// The pass walks an import table once. For every import whose address
// resolves to a function (or function pointer) type, each scalar parameter
// is checked against two rules: a parameter whose primitive type name is
// "bool" becomes the boolean macro type, and an integral, not yet
// enumerated parameter whose name matches an argument spec in the
// per-function knowledge base becomes the registered enum for that spec.
// Signatures with at least one change are rebuilt, shape preserved, and
// committed back as a definitive override; everything else is left alone.
package retype

import (
	"strings"

	"github.com/rand-tech/auto-enum/internal/enumdb"
	"github.com/rand-tech/auto-enum/internal/typeinfo"
)

// Import is one resolved entry of a binary's import table.
type Import struct {
	Name      string   // decoration-stripped symbol name
	Addr      uint64   // address the host declared the import's type at
	CallSites []uint64 // code references to the import
}

// Outcome classifies what the pass did with one import.
type Outcome string

const (
	// OutcomeRetyped: at least one parameter changed, prototype committed.
	OutcomeRetyped Outcome = "retyped"
	// OutcomeUnchanged: signature resolved, no parameter matched, nothing
	// written.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeNoType: the host has no function type at the address. Routine
	// for unresolved externs; skipped silently.
	OutcomeNoType Outcome = "no_type"
	// OutcomeError: the knowledge base failed for this function (missing
	// enum, unreadable document). The function is skipped with nothing
	// committed and the pass continues.
	OutcomeError Outcome = "error"
)

// ParamChange records one parameter retype.
type ParamChange struct {
	Param string `json:"param"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Result records the pass outcome for one import.
type Result struct {
	Name      string        `json:"name"`
	Alias     string        `json:"alias,omitempty"` // decorated form the name was stripped from
	Addr      uint64        `json:"addr"`
	Outcome   Outcome       `json:"outcome"`
	FuncPtr   bool          `json:"funcptr,omitempty"`
	Changed   []ParamChange `json:"changed,omitempty"`
	Prototype string        `json:"prototype,omitempty"`
	CallSites int           `json:"call_sites"`
	Err       string        `json:"error,omitempty"`
}

// Totals aggregates a report.
type Totals struct {
	Imports   int `json:"imports"`
	Retyped   int `json:"retyped"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// Report is the output of one annotation pass.
type Report struct {
	Results []Result `json:"results"`
}

func (r *Report) Totals() Totals {
	t := Totals{Imports: len(r.Results)}
	for _, res := range r.Results {
		switch res.Outcome {
		case OutcomeRetyped:
			t.Retyped++
		case OutcomeUnchanged:
			t.Unchanged++
		case OutcomeNoType:
			t.Skipped++
		case OutcomeError:
			t.Errors++
		}
	}
	return t
}

// Pass is one annotation run over an import table.
type Pass struct {
	DB       typeinfo.Database
	FuncMap  *enumdb.DB
	Registry *Registry
}

// Run walks the import table once and commits a rebuilt prototype for every
// function with at least one retyped parameter. Functions the host has no
// type information for are skipped silently; a knowledge-base failure skips
// only the function it hit. Nothing is ever rolled back: a committed
// prototype stays committed even if a later function fails.
func (p *Pass) Run(imports []Import) *Report {
	report := &Report{Results: make([]Result, 0, len(imports))}
	boolType, haveBool := p.DB.Named(typeinfo.BoolMacroName)

	for _, imp := range imports {
		res := Result{Name: imp.Name, Addr: imp.Addr, CallSites: len(imp.CallSites)}

		var fd *typeinfo.FuncData
		var isPtr, resolved bool
		if t, ok := p.DB.TypeAt(imp.Addr); ok {
			fd, isPtr, resolved = typeinfo.FuncDetails(t)
		}

		// Decorated-name tolerance: an import whose one-character-stripped
		// form is in the knowledge base is an alias of the stripped name.
		name := imp.Name
		if len(name) > 1 {
			if short := name[:len(name)-1]; p.FuncMap.Contains(short) {
				res.Alias = name
				res.Name = short
				name = short
			}
		}
		inMap := p.FuncMap.Contains(name)

		if !resolved {
			res.Outcome = OutcomeNoType
			report.Results = append(report.Results, res)
			continue
		}

		var spec *enumdb.FuncSpec
		for i := range fd.Params {
			param := &fd.Params[i]
			if param.Type.IsPtr() {
				continue
			}
			if tn := param.Type.Name; tn != "" && strings.ToLower(tn) == "bool" {
				if haveBool {
					res.Changed = append(res.Changed, ParamChange{
						Param: param.Name,
						From:  param.Type.String(),
						To:    boolType.String(),
					})
					param.Type = boolType
				}
				continue
			}
			if !inMap || !param.Type.IsIntegral() || param.Type.IsEnum() {
				continue
			}
			if spec == nil {
				var err error
				spec, err = p.FuncMap.Function(name)
				if err != nil {
					res.Outcome = OutcomeError
					res.Err = err.Error()
					break
				}
			}
			arg, ok := spec.Arg(param.Name)
			if !ok || arg.Enum == "" {
				continue
			}
			enumType, err := p.Registry.GetOrAdd(arg.Enum)
			if err != nil {
				res.Outcome = OutcomeError
				res.Err = err.Error()
				break
			}
			res.Changed = append(res.Changed, ParamChange{
				Param: param.Name,
				From:  param.Type.String(),
				To:    enumType.String(),
			})
			param.Type = enumType
		}

		// A failed function commits nothing, even if earlier parameters
		// matched.
		if res.Outcome == OutcomeError {
			res.Changed = nil
			report.Results = append(report.Results, res)
			continue
		}

		if len(res.Changed) == 0 {
			res.Outcome = OutcomeUnchanged
			report.Results = append(report.Results, res)
			continue
		}

		rebuilt := typeinfo.FuncOf(*fd)
		if isPtr {
			rebuilt = typeinfo.PtrTo(rebuilt)
		}
		if err := p.DB.Apply(imp.Addr, rebuilt); err != nil {
			res.Outcome = OutcomeError
			res.Err = err.Error()
			res.Changed = nil
			report.Results = append(report.Results, res)
			continue
		}
		res.Outcome = OutcomeRetyped
		res.FuncPtr = isPtr
		res.Prototype = fd.Prototype(name)
		report.Results = append(report.Results, res)
	}

	return report
}
