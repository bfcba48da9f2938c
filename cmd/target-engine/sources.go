// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/target-engine/internal/source"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the biomedical databases the engine can query",
	Long: `Sources lists the database catalog the oracle plans over: each entry's
tag, tier, purpose, and whether it accepts candidate entity parameters.
Tier 1 sources are core, tier 2 recommended, tier 3 supplementary.`,
	RunE: runSources,
}

func runSources(cmd *cobra.Command, args []string) error {
	infos := source.Catalog()

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	fmt.Fprintf(os.Stdout, "%-12s  %-4s  %-28s  %-8s  %s\n",
		"Tag", "Tier", "Name", "Entities", "Purpose")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for _, info := range infos {
		purpose := info.Purpose
		if len(purpose) > 50 {
			purpose = purpose[:47] + "..."
		}
		entities := "no"
		if info.AcceptsEntities {
			entities = "yes"
		}
		fmt.Fprintf(os.Stdout, "%-12s  %-4d  %-28s  %-8s  %s\n",
			info.Tag, info.Tier, info.Name, entities, purpose)
	}

	fmt.Fprintf(os.Stdout, "\n%d sources\n", len(infos))
	return nil
}

func init() {
	sourcesCmd.Flags().Bool("json", false, "output the catalog as JSON")

	rootCmd.AddCommand(sourcesCmd)
}
