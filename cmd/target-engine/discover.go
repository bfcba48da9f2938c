// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/target-engine/internal/httputil"
	"github.com/pdiddy/target-engine/internal/oracle"
	"github.com/pdiddy/target-engine/internal/orchestrate"
	"github.com/pdiddy/target-engine/internal/report"
	"github.com/pdiddy/target-engine/internal/runstore"
	"github.com/pdiddy/target-engine/internal/source"
	"github.com/pdiddy/target-engine/pkg/types"
)

var discoverCmd = &cobra.Command{
	Use:   "discover [disease]",
	Short: "Run an AI-guided target discovery for a disease",
	Long: `Discover runs one end-to-end discovery: the oracle plans a search
strategy, the orchestrator executes it across biomedical databases, and
the fusion engine ranks the candidate protein targets it finds.

Requires an Anthropic API key in .secrets/anthropic-api-key or the
TARGET_ENGINE_ANTHROPIC_API_KEY environment variable.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	disease := args[0]
	cfg := discoveryConfig(cmd)

	apiKey := secretDefault("anthropic-api-key", viper.GetString("anthropic_api_key"))
	if apiKey == "" {
		return fmt.Errorf("no Anthropic API key: add .secrets/anthropic-api-key or set TARGET_ENGINE_ANTHROPIC_API_KEY")
	}

	client := &http.Client{Timeout: cfg.Sources.Timeout}
	orc := &oracle.ClaudeOracle{
		APIKey:     apiKey,
		Model:      cfg.Oracle.Model,
		MaxRetries: cfg.Oracle.MaxRetries,
		Client:     client,
	}

	limiter := httputil.NewLimiter(cfg.Sources.RequestsPerSecond)
	adapters := []source.Adapter{
		&source.GWASAdapter{Client: client, Limiter: limiter},
		&source.PubMedAdapter{
			Client:  client,
			Limiter: limiter,
			APIKey:  secretDefault("ncbi-api-key", ""),
			Email:   secretDefault("ncbi-email", ""),
		},
		&source.UniProtAdapter{Client: client, Limiter: limiter},
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	progress := cmd.ErrOrStderr()
	if quiet {
		progress = nil
	}

	engine, err := orchestrate.New(orc, adapters, cfg, progress)
	if err != nil {
		return err
	}

	run, err := engine.Discover(context.Background(), disease)
	if err != nil {
		return err
	}

	out := report.Output{
		Disease:   run.DiseaseName(),
		Narrative: run.Narrative,
		Targets:   run.Targets,
	}
	if err := writeOutput(cmd, out); err != nil {
		return err
	}

	save, _ := cmd.Flags().GetBool("save")
	if save {
		return saveRun(cmd, cfg, run)
	}
	return nil
}

func writeOutput(cmd *cobra.Command, out report.Output) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "table", "":
		report.FormatTable(out, os.Stdout)
		return nil
	case "json":
		return report.FormatJSON(out, os.Stdout)
	case "yaml":
		return report.FormatYAML(out, os.Stdout)
	case "csv":
		return report.WriteCSV(out, os.Stdout)
	default:
		return fmt.Errorf("unsupported format %q: use table, json, yaml, or csv", format)
	}
}

func saveRun(cmd *cobra.Command, cfg types.Config, run *orchestrate.RunState) error {
	store, err := runstore.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Save(context.Background(), runstore.Run{
		Query:       run.Query,
		Disease:     run.DiseaseName(),
		Narrative:   run.Narrative,
		Iterations:  run.Iterations,
		Sources:     run.Used,
		RecordCount: run.RecordCount(),
		Targets:     run.Targets,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Saved run %s\n", id)
	return nil
}

// discoveryConfig builds the engine configuration from defaults and flags.
func discoveryConfig(cmd *cobra.Command) types.Config {
	cfg := types.DefaultConfig()

	if v, _ := cmd.Flags().GetInt("max-iterations"); v > 0 {
		cfg.Discovery.MaxIterations = v
	}
	if v, _ := cmd.Flags().GetInt("max-results"); v > 0 {
		cfg.Sources.MaxResults = v
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.Oracle.Model = v
	}
	if v, _ := cmd.Flags().GetFloat64("min-score"); v > 0 {
		cfg.Fusion.MinOverallScore = v
	}
	if v, _ := cmd.Flags().GetString("store-dir"); v != "" {
		cfg.Store.Dir = v
	}
	return cfg
}

func init() {
	discoverCmd.Flags().Int("max-iterations", 5, "maximum number of source invocations")
	discoverCmd.Flags().Int("max-results", 50, "maximum records per source invocation")
	discoverCmd.Flags().String("model", "", "oracle model identifier (default from config)")
	discoverCmd.Flags().Float64("min-score", 0, "minimum overall score to include a target (default 0.1)")
	discoverCmd.Flags().String("format", "table", "output format: table, json, yaml, or csv")
	discoverCmd.Flags().Bool("save", false, "archive the run in the local run store")
	discoverCmd.Flags().String("store-dir", "", "run archive directory (default: runs)")
	discoverCmd.Flags().Bool("quiet", false, "suppress progress output")

	rootCmd.AddCommand(discoverCmd)
}
