// Package output writes annotation results to files.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rand-tech/auto-enum/internal/retype"
)

// WriteReportJSON writes the full pass report with totals to report.json.
func WriteReportJSON(dir string, rep *retype.Report) error {
	payload := struct {
		Totals  retype.Totals   `json:"totals"`
		Results []retype.Result `json:"results"`
	}{rep.Totals(), rep.Results}
	return writeJSON(filepath.Join(dir, "report.json"), payload)
}

// WriteResultsJSONL writes one JSON object per import to results.jsonl,
// suitable for line-oriented tooling.
func WriteResultsJSONL(dir string, results []retype.Result) error {
	path := filepath.Join(dir, "results.jsonl")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("output: encode %s: %w", path, err)
		}
	}
	return nil
}

// WritePrototypes writes the committed prototypes to prototypes.txt,
// one "address  prototype" line per retyped function.
func WritePrototypes(dir string, results []retype.Result) error {
	var b strings.Builder
	for _, r := range results {
		if r.Prototype == "" {
			continue
		}
		fmt.Fprintf(&b, "%#010x  %s\n", r.Addr, r.Prototype)
	}
	return os.WriteFile(filepath.Join(dir, "prototypes.txt"), []byte(b.String()), 0644)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("output: encode %s: %w", path, err)
	}
	return nil
}
