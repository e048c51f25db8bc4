// Package callgraph builds a caller graph over imported functions.
package callgraph

import (
	"fmt"
	"sort"

	"github.com/zboralski/lattice"

	"github.com/rand-tech/auto-enum/internal/elfx"
	"github.com/rand-tech/auto-enum/internal/xref"
)

// Resolver attributes a code address to its containing function.
type Resolver struct {
	funcs []elfx.FuncSym // sorted by address
}

func NewResolver(f *elfx.File) *Resolver {
	return &Resolver{funcs: f.FuncSyms()}
}

// Name returns the function symbol containing addr. Symbols with size 0
// claim everything up to the next symbol. Stripped binaries fall back
// to a loc_<hex> label.
func (r *Resolver) Name(addr uint64) string {
	i := sort.Search(len(r.funcs), func(i int) bool { return r.funcs[i].Addr > addr }) - 1
	if i >= 0 {
		fs := r.funcs[i]
		if fs.Size == 0 || addr < fs.Addr+fs.Size {
			return fs.Name
		}
	}
	return fmt.Sprintf("loc_%x", addr)
}

// Build constructs a lattice.Graph over the import table. Each import
// becomes a node; each resolved call site becomes an edge from its
// containing function. Repeated calls from one caller collapse into a
// single edge.
func Build(imports []elfx.Import, ix *xref.Index, res *Resolver) *lattice.Graph {
	g := &lattice.Graph{}
	for _, imp := range imports {
		g.Nodes = append(g.Nodes, imp.Name)
		for _, site := range ix.Sites(imp.Addr) {
			g.Edges = append(g.Edges, lattice.Edge{
				Caller: res.Name(site.Addr),
				Callee: imp.Name,
			})
		}
	}
	g.Dedup()
	return g
}
