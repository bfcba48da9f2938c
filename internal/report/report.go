// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders ranked targets for humans and machines.
// Implements: prd012-ranking (R5); docs/ARCHITECTURE § Presentation.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/target-engine/pkg/types"
)

// Output bundles a run's presentation-facing results.
type Output struct {
	Disease   string         `json:"disease" yaml:"disease"`
	Narrative string         `json:"narrative,omitempty" yaml:"narrative,omitempty"`
	Targets   []types.Target `json:"targets" yaml:"targets"`
}

// FormatTable writes the ranking as a human-readable table to w.
func FormatTable(out Output, w io.Writer) {
	if len(out.Targets) == 0 {
		fmt.Fprintln(w, "No targets found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-12s  %-40s  %-6s  %-9s  %s\n",
		"Rank", "Target", "Name", "Score", "Evidence", "Sources")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, t := range out.Targets {
		name := t.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		fmt.Fprintf(w, "%-4d  %-12s  %-40s  %-6.3f  %-9d  %s\n",
			i+1, t.ID, name, t.Overall, len(t.Scores), strings.Join(t.Sources, ","))
	}

	fmt.Fprintf(w, "\n%d targets\n", len(out.Targets))

	if out.Narrative != "" {
		fmt.Fprintf(w, "\n%s\n", out.Narrative)
	}
}

// FormatJSON writes the full output as indented JSON to w.
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// FormatYAML writes the full output as YAML to w.
func FormatYAML(out Output, w io.Writer) error {
	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// WriteCSV writes one row per target with per-category scores as columns,
// for spreadsheet handoff.
func WriteCSV(out Output, w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"rank", "target", "name", "overall"}
	for _, cat := range types.Categories {
		header = append(header, string(cat))
	}
	header = append(header, "sources", "top_finding")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for i, t := range out.Targets {
		row := []string{
			strconv.Itoa(i + 1),
			t.ID,
			t.Name,
			formatScore(t.Overall),
		}
		for _, cat := range types.Categories {
			row = append(row, formatScore(t.Score(cat)))
		}
		finding := ""
		if len(t.Findings) > 0 {
			finding = t.Findings[0]
		}
		row = append(row, strings.Join(t.Sources, ";"), finding)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
