package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rand-tech/auto-enum/internal/config"
	"github.com/rand-tech/auto-enum/internal/enumdb"
)

func cmdLint(args []string) error {
	fs := flag.NewFlagSet("lint", flag.ExitOnError)
	dataDir := fs.String("data", "", "knowledge base directory (e.g. data/linux)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dataDir == "" {
		*dataDir = config.Load().Dir("linux")
	}

	kb, err := enumdb.Open(*dataDir)
	if err != nil {
		return err
	}

	problems, err := kb.Lint()
	if err != nil {
		return err
	}
	for _, p := range problems {
		fmt.Fprintf(os.Stderr, "%s\n", p)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s) in %s", len(problems), kb.Dir())
	}
	fmt.Fprintf(os.Stderr, "%s: %d enums, no problems\n", kb.Dir(), len(kb.Enums()))
	return nil
}
