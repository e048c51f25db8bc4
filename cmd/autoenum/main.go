package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = cmdRun(os.Args[2:])
	case "imports":
		err = cmdImports(os.Args[2:])
	case "enums":
		err = cmdEnums(os.Args[2:])
	case "lint":
		err = cmdLint(os.Args[2:])
	case "graph":
		err = cmdGraph(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `autoenum — retype integer arguments of imported functions as named enums

Usage:
  autoenum run     --bin <path> [--out <dir>]     Annotate the import table and report
  autoenum imports --bin <path> [--json]          List imported functions and call sites
  autoenum enums   --data <dir> [--id <enum>]     Dump canonicalized enums from a knowledge base
  autoenum lint    --data <dir>                   Check a knowledge base for problems
  autoenum graph   --bin <path> --out <dir>       Write an import caller graph (DOT)

Flags:
  --bin <path>       Path to an ELF executable or shared object
  --out <dir>        Output directory
  --json             JSON output instead of text

run resolves its knowledge base under --data (default $AUTOENUM_DATA or
./data) by the binary's platform family; enums and lint take the platform
directory itself, e.g. data/linux.
`)
}
