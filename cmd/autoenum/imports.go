package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rand-tech/auto-enum/internal/elfx"
	"github.com/rand-tech/auto-enum/internal/xref"
)

type importRow struct {
	Name      string `json:"name"`
	Version   string `json:"version,omitempty"`
	Library   string `json:"library,omitempty"`
	Addr      string `json:"addr"`
	Binding   string `json:"binding"` // "call" for a PLT stub, "data" for a GOT slot
	CallSites int    `json:"call_sites"`
}

func cmdImports(args []string) error {
	fs := flag.NewFlagSet("imports", flag.ExitOnError)
	bin := fs.String("bin", "", "path to ELF executable or shared object")
	jsonOut := fs.Bool("json", false, "JSONL output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *bin == "" {
		return fmt.Errorf("--bin is required")
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

	ix, err := xref.Scan(ef, imports)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	rows := make([]importRow, 0, len(imports))
	for _, imp := range imports {
		binding := "call"
		if imp.Ptr {
			binding = "data"
		}
		rows = append(rows, importRow{
			Name:      imp.Name,
			Version:   imp.Version,
			Library:   imp.Library,
			Addr:      fmt.Sprintf("0x%x", imp.Addr),
			Binding:   binding,
			CallSites: len(ix.Sites(imp.Addr)),
		})
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		for _, row := range rows {
			if err := enc.Encode(row); err != nil {
				return err
			}
		}
		return nil
	}

	for _, row := range rows {
		name := row.Name
		if row.Version != "" {
			name += "@" + row.Version
		}
		fmt.Printf("%-12s %-4s %4d  %-35s %s\n", row.Addr, row.Binding, row.CallSites, name, row.Library)
	}
	fmt.Fprintf(os.Stderr, "%d imports, %d call sites\n", len(rows), ix.Total())
	return nil
}
