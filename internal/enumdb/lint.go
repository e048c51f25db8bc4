package enumdb

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Problem is one data-quality finding from Lint.
type Problem struct {
	Func   string `json:"func,omitempty"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

func (p Problem) String() string {
	if p.Func == "" {
		return fmt.Sprintf("[%s] %s", p.Kind, p.Detail)
	}
	return fmt.Sprintf("[%s] %s: %s", p.Kind, p.Func, p.Detail)
}

const (
	ProblemUnparseable   = "unparseable"
	ProblemNameMismatch  = "name_mismatch"
	ProblemDuplicateArg  = "duplicate_arg"
	ProblemDanglingEnum  = "dangling_enum"
	ProblemEmptyFunction = "empty_function"
)

// Lint cross-checks every per-function document against enums.json.
// Dangling enum references and duplicate argument names are reported, never
// fixed: the matching rules take the first occurrence of a duplicated name,
// so a duplicate is a knowledge-base authoring error, not something to
// resolve silently.
func (db *DB) Lint() ([]Problem, error) {
	dir := filepath.Join(db.dir, "functions")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("enumdb: lint: %w", err)
	}

	var problems []Problem
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		funcname := strings.TrimSuffix(e.Name(), ".json")

		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			problems = append(problems, Problem{Func: funcname, Kind: ProblemUnparseable, Detail: err.Error()})
			continue
		}
		spec, err := ParseFuncSpec(raw)
		if err != nil {
			problems = append(problems, Problem{Func: funcname, Kind: ProblemUnparseable, Detail: err.Error()})
			continue
		}

		if spec.Name != funcname {
			problems = append(problems, Problem{
				Func: funcname, Kind: ProblemNameMismatch,
				Detail: fmt.Sprintf("name field %q does not match file name", spec.Name),
			})
		}
		if len(spec.Args) == 0 {
			problems = append(problems, Problem{
				Func: funcname, Kind: ProblemEmptyFunction,
				Detail: "document declares no arguments",
			})
		}

		seen := make(map[string]bool, len(spec.Args))
		for _, a := range spec.Args {
			if seen[a.Name] {
				problems = append(problems, Problem{
					Func: funcname, Kind: ProblemDuplicateArg,
					Detail: fmt.Sprintf("argument %q declared more than once; first occurrence wins", a.Name),
				})
			}
			seen[a.Name] = true

			if a.Enum != "" && !db.HasEnum(a.Enum) {
				problems = append(problems, Problem{
					Func: funcname, Kind: ProblemDanglingEnum,
					Detail: fmt.Sprintf("argument %q references enum %q, absent from enums.json", a.Name, a.Enum),
				})
			}
		}
	}

	sort.Slice(problems, func(i, j int) bool {
		if problems[i].Func != problems[j].Func {
			return problems[i].Func < problems[j].Func
		}
		return problems[i].Detail < problems[j].Detail
	})
	return problems, nil
}
