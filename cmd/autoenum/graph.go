package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zboralski/lattice/render"

	"github.com/rand-tech/auto-enum/internal/callgraph"
	"github.com/rand-tech/auto-enum/internal/elfx"
	"github.com/rand-tech/auto-enum/internal/xref"
)

func cmdGraph(args []string) error {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	bin := fs.String("bin", "", "path to ELF executable or shared object")
	outDir := fs.String("out", "", "output directory for callers.dot")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *bin == "" {
		return fmt.Errorf("--bin is required")
	}
	if *outDir == "" {
		return fmt.Errorf("--out is required")
	}

	ef, err := elfx.Open(*bin)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer ef.Close()

	imports, err := ef.ImportedFunctions()
	if err != nil {
		return fmt.Errorf("imports: %w", err)
	}
	if len(imports) == 0 {
		return fmt.Errorf("no imported functions")
	}

	ix, err := xref.Scan(ef, imports)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	g := callgraph.Build(imports, ix, callgraph.NewResolver(ef))
	dot := render.DOT(g, "import callers")

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", *outDir, err)
	}
	dotPath := filepath.Join(*outDir, "callers.dot")
	if err := os.WriteFile(dotPath, []byte(dot), 0644); err != nil {
		return fmt.Errorf("write %s: %w", dotPath, err)
	}

	fmt.Fprintf(os.Stderr, "Wrote %d nodes, %d edges to %s\n", len(g.Nodes), len(g.Edges), dotPath)
	for _, line := range ix.Summary() {
		fmt.Fprintf(os.Stderr, "%s\n", line)
	}
	return nil
}
