package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/rand-tech/auto-enum/internal/config"
	"github.com/rand-tech/auto-enum/internal/enumdb"
)

func cmdEnums(args []string) error {
	fs := flag.NewFlagSet("enums", flag.ExitOnError)
	dataDir := fs.String("data", "", "knowledge base directory (e.g. data/linux)")
	id := fs.String("id", "", "dump a single enum identifier")
	jsonOut := fs.Bool("json", false, "JSON output")

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

	ids := kb.Enums()
	if *id != "" {
		if !kb.HasEnum(*id) {
			return fmt.Errorf("unknown enum: %s", *id)
		}
		ids = []string{*id}
	}

	if *jsonOut {
		out := make(map[string]enumdb.EnumDef, len(ids))
		for _, eid := range ids {
			def, err := kb.Enum(eid)
			if err != nil {
				return err
			}
			out[eid] = def
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for _, eid := range ids {
		def, err := kb.Enum(eid)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%d members)\n", eid, len(def))
		type member struct {
			name  string
			value int64
		}
		members := make([]member, 0, len(def))
		for name, v := range def {
			members = append(members, member{name, v})
		}
		sort.Slice(members, func(i, j int) bool {
			if members[i].value != members[j].value {
				return members[i].value < members[j].value
			}
			return members[i].name < members[j].name
		})
		for _, m := range members {
			fmt.Printf("  %-30s %#x\n", m.name, m.value)
		}
	}
	return nil
}
