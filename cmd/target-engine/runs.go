// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/target-engine/internal/report"
	"github.com/pdiddy/target-engine/internal/runstore"
	"github.com/pdiddy/target-engine/pkg/types"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List and inspect archived discovery runs",
	Long: `Runs manages the local run archive. Use list to see past discovery
runs and show to reload one run's full target ranking.`,
}

// --- list subcommand ---

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, most recent first",
	RunE:  runRunsList,
}

func runRunsList(cmd *cobra.Command, args []string) error {
	store, err := openRunStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	summaries, err := store.List(context.Background())
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	if len(summaries) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-10s  %-30s  %-20s  %-10s  %s\n",
		"ID", "Disease", "Date", "Iterations", "Targets")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))

	for _, s := range summaries {
		disease := s.Disease
		if len(disease) > 30 {
			disease = disease[:27] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-10s  %-30s  %-20s  %-10d  %d\n",
			shortID(s.ID), disease, s.CreatedAt.Format(time.DateTime),
			s.Iterations, s.TargetCount)
	}

	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(summaries))
	return nil
}

// --- show subcommand ---

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one archived run's full target ranking",
	Long: `Show reloads an archived run and prints its ranking. The run ID may
be abbreviated to any unique prefix from runs list.`,
	Args: cobra.ExactArgs(1),
	RunE: runRunsShow,
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	store, err := openRunStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	out := report.Output{
		Disease:   run.Disease,
		Narrative: run.Narrative,
		Targets:   run.Targets,
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		return report.FormatJSON(out, os.Stdout)
	}

	fmt.Fprintf(os.Stdout, "Run %s: %s (%d iterations, %d records, sources: %s)\n\n",
		shortID(run.ID), run.Disease, run.Iterations, run.RecordCount,
		strings.Join(run.Sources, ","))
	report.FormatTable(out, os.Stdout)
	return nil
}

// --- shared helpers ---

func openRunStore(cmd *cobra.Command) (*runstore.Store, error) {
	dir, _ := cmd.Flags().GetString("store-dir")
	if dir == "" {
		dir = "runs"
	}
	return runstore.NewStore(types.StoreConfig{Dir: dir})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	runsCmd.PersistentFlags().String("store-dir", "runs", "run archive directory")

	runsListCmd.Flags().Bool("json", false, "output runs as JSON")
	runsShowCmd.Flags().Bool("json", false, "output the run as JSON")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)

	rootCmd.AddCommand(runsCmd)
}
