package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/rand-tech/auto-enum/internal/action"
	"github.com/rand-tech/auto-enum/internal/binfmt"
	"github.com/rand-tech/auto-enum/internal/config"
	"github.com/rand-tech/auto-enum/internal/elfx"
	"github.com/rand-tech/auto-enum/internal/enumdb"
	"github.com/rand-tech/auto-enum/internal/output"
	"github.com/rand-tech/auto-enum/internal/retype"
	"github.com/rand-tech/auto-enum/internal/typedb"
	"github.com/rand-tech/auto-enum/internal/xref"
)

const (
	actionName    = "auto_enum:set_enums"
	actionLabel   = "Auto Enum"
	actionTooltip = "Automatically detect standard enums"
)

func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	bin := fs.String("bin", "", "path to ELF executable or shared object")
	dataDir := fs.String("data", "", "knowledge base root (default $AUTOENUM_DATA or ./data)")
	typeLib := fs.String("typelib", "", "prototype typelib path (default <data>/<family>/typelib.json)")
	outDir := fs.String("out", "", "output directory for report files")
	jsonOut := fs.Bool("json", false, "print the report as JSON to stdout")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *bin == "" {
		return fmt.Errorf("--bin is required")
	}

	cfg := config.Load()
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *typeLib != "" {
		cfg.TypeLib = *typeLib
	}

	// Platform gate: the knowledge base layout is keyed by family and
	// only ELF is wired up.
	family, err := binfmt.Gate(*bin)
	if err != nil {
		return err
	}

	kb, err := enumdb.Open(cfg.Dir(family))
	if err != nil {
		return fmt.Errorf("knowledge base: %w", err)
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
		fmt.Fprintf(os.Stderr, "no imported functions\n")
		return nil
	}

	ix, err := xref.Scan(ef, imports)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	fmt.Fprintf(os.Stderr, "%d imports, %d call sites\n", len(imports), ix.Total())

	// Declare prototypes the way a host would: bind the typelib entry at
	// each import, falling back to the decoration-stripped name.
	host := typedb.New()
	if n, err := host.LoadTypeLib(cfg.TypeLibPath(family)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: typelib: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "%d prototypes loaded\n", n)
	}

	rimports := make([]retype.Import, 0, len(imports))
	for _, imp := range imports {
		if !host.Bind(imp.Addr, imp.Name, imp.Ptr) && len(imp.Name) > 1 {
			host.Bind(imp.Addr, imp.Name[:len(imp.Name)-1], imp.Ptr)
		}
		var sites []uint64
		for _, s := range ix.Sites(imp.Addr) {
			sites = append(sites, s.Addr)
		}
		rimports = append(rimports, retype.Import{
			Name:      imp.Name,
			Addr:      imp.Addr,
			CallSites: sites,
		})
	}

	// The pass runs behind the action registry so a panic anywhere in the
	// annotation path surfaces as an error with a stack trace instead of
	// taking out the process.
	var report *retype.Report
	reg := action.NewRegistry()
	reg.Register(action.Desc{
		Name:    actionName,
		Label:   actionLabel,
		Hotkey:  cfg.Hotkey,
		Tooltip: actionTooltip,
		Run: func() error {
			pass := &retype.Pass{
				DB:       host,
				FuncMap:  kb,
				Registry: retype.NewRegistry(host, kb),
			}
			report = pass.Run(rimports)
			return nil
		},
	})
	if err := reg.Activate(actionName); err != nil {
		var pe *action.PanicError
		if errors.As(err, &pe) {
			os.Stderr.Write(pe.Stack)
		}
		return err
	}

	for _, res := range report.Results {
		switch res.Outcome {
		case retype.OutcomeRetyped:
			fmt.Fprintf(os.Stderr, "Setting enums for %s\n", res.Name)
			for _, ch := range res.Changed {
				fmt.Fprintf(os.Stderr, "  %s: %s -> %s\n", ch.Param, ch.From, ch.To)
			}
		case retype.OutcomeError:
			fmt.Fprintf(os.Stderr, "error: %s: %s\n", res.Name, res.Err)
		}
	}
	t := report.Totals()
	fmt.Fprintf(os.Stderr, "retyped %d of %d imports (%d unchanged, %d without type info, %d errors)\n",
		t.Retyped, t.Imports, t.Unchanged, t.Skipped, t.Errors)

	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0755); err != nil {
			return fmt.Errorf("mkdir %s: %w", *outDir, err)
		}
		if err := output.WriteReportJSON(*outDir, report); err != nil {
			return err
		}
		if err := output.WriteResultsJSONL(*outDir, report.Results); err != nil {
			return err
		}
		if err := output.WritePrototypes(*outDir, report.Results); err != nil {
			return err
		}
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return nil
}
