// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FarbodDadkhah/investment-analyst-tool/internal/httputil"
	"github.com/FarbodDadkhah/investment-analyst-tool/internal/research"
	"github.com/FarbodDadkhah/investment-analyst-tool/internal/secrets"
	"github.com/FarbodDadkhah/investment-analyst-tool/internal/store"
	"github.com/FarbodDadkhah/investment-analyst-tool/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Generate research links for a company and objective",
	Long: `Research issues one schema-constrained completion request per
sub-objective (exactly four are required), validates each response, and
aggregates the outcomes into a batch. A sub-objective that fails after
the retry policy is exhausted is recorded in the batch's failure
manifest; it never aborts the others.

The batch is written to a timestamped file under --output-dir and
archived in the local SQLite database unless --no-archive is set.`,
	Example: `  investment-analyst research \
      --company "Harvey AI" \
      --objective "Market & Competition" \
      --sub-objective "TAM sizing" \
      --sub-objective "Growth drivers" \
      --sub-objective "Market maturity" \
      --sub-objective "Competitor mapping"`,
	RunE: runResearch,
}

func runResearch(cmd *cobra.Command, args []string) error {
	company, _ := cmd.Flags().GetString("company")
	objective, _ := cmd.Flags().GetString("objective")
	subObjectives, _ := cmd.Flags().GetStringArray("sub-objective")

	cfg := researchConfigFromFlags(cmd)

	apiKey := secrets.APIKey(loadedSecrets, cfg.Backend, cfg.APIKey)
	if apiKey == "" {
		return fmt.Errorf("no API key for backend %q: create .secrets/%s-api-key or set the environment variable", cfg.Backend, cfg.Backend)
	}
	cfg.APIKey = apiKey

	ctx := context.Background()
	backend, err := buildBackend(ctx, cfg)
	if err != nil {
		return err
	}

	batch, summary, err := research.Run(ctx, company, types.GeneralObjective(objective),
		subObjectives, backend, cfg, os.Stdout)
	if err != nil {
		return err
	}

	outputDir, _ := cmd.Flags().GetString("output-dir")
	format, _ := cmd.Flags().GetString("format")
	now := time.Now()

	path, err := store.WriteBatchFile(outputDir, batch, now, store.Format(format))
	if err != nil {
		return err
	}
	fmt.Printf("Batch written to %s\n", path)

	if archive, _ := cmd.Flags().GetBool("archive"); archive {
		s, err := store.NewStore(storeConfigFromFlags(cmd))
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := s.Save(ctx, batch, now)
		if err != nil {
			return err
		}
		fmt.Printf("Archived as batch %d\n", id)
	}

	if summary.Failed > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d of %d sub-objectives failed\n", summary.Failed, summary.Total())
	}
	return nil
}

// researchConfigFromFlags builds the pipeline configuration from flags,
// falling back to viper-bound config file values.
func researchConfigFromFlags(cmd *cobra.Command) types.ResearchConfig {
	backend, _ := cmd.Flags().GetString("backend")
	if backend == "" {
		backend = viper.GetString("backend")
	}
	if backend == "" {
		backend = string(types.BackendOpenAI)
	}

	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = viper.GetString("model")
	}

	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	baseDelay, _ := cmd.Flags().GetDuration("base-delay")
	multiplier, _ := cmd.Flags().GetFloat64("backoff-multiplier")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	links, _ := cmd.Flags().GetInt("links")
	workers, _ := cmd.Flags().GetInt("workers")
	rateLimit, _ := cmd.Flags().GetFloat64("rate-limit")

	return types.ResearchConfig{
		GenerationConfig: types.GenerationConfig{
			Backend:           types.Backend(backend),
			Model:             model,
			APIKey:            viper.GetString("api_key"),
			MaxRetries:        maxRetries,
			BaseDelay:         baseDelay,
			BackoffMultiplier: multiplier,
			Timeout:           timeout,
		},
		LinksPerObjective: links,
		Workers:           workers,
		RateLimitRPS:      rateLimit,
	}
}

func storeConfigFromFlags(cmd *cobra.Command) types.StoreConfig {
	outputDir, _ := cmd.Flags().GetString("output-dir")
	archiveDir, _ := cmd.Flags().GetString("archive-dir")
	return types.StoreConfig{OutputDir: outputDir, ArchiveDir: archiveDir}
}

// buildBackend constructs the configured completion backend.
func buildBackend(ctx context.Context, cfg types.ResearchConfig) (research.CompletionBackend, error) {
	switch cfg.Backend {
	case types.BackendOpenAI, "":
		return &research.OpenAIBackend{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
			Links:  cfg.LinksPerObjective,
			Client: httputil.NewClient(cfg.Timeout),
		}, nil
	case types.BackendGemini:
		return research.NewGeminiBackend(ctx, cfg.APIKey, cfg.Model, cfg.LinksPerObjective)
	default:
		return nil, fmt.Errorf("unknown backend %q: use openai or gemini", cfg.Backend)
	}
}

func init() {
	researchCmd.Flags().String("company", "", "company to research (required)")
	researchCmd.Flags().String("objective", "", `general objective, e.g. "Market & Competition" (required)`)
	researchCmd.Flags().StringArray("sub-objective", nil, "sub-objective to research (repeat exactly 4 times)")
	researchCmd.Flags().String("backend", "", "completion backend: openai or gemini (default openai)")
	researchCmd.Flags().String("model", "", "completion model identifier")
	researchCmd.Flags().Int("max-retries", 3, "retry attempts after the first failed call")
	researchCmd.Flags().Duration("base-delay", time.Second, "wait before the first retry")
	researchCmd.Flags().Float64("backoff-multiplier", 2.0, "scale factor between consecutive retry waits")
	researchCmd.Flags().Duration("timeout", 60*time.Second, "per-attempt timeout")
	researchCmd.Flags().Int("links", 20, "links to request per sub-objective")
	researchCmd.Flags().Int("workers", 1, "sub-objectives processed concurrently")
	researchCmd.Flags().Float64("rate-limit", 0, "request rate limit in requests/second (0 = off)")
	researchCmd.Flags().String("output-dir", "outputs", "directory for timestamped batch files")
	researchCmd.Flags().String("archive-dir", "outputs/archive", "directory for the SQLite batch archive")
	researchCmd.Flags().String("format", "json", "batch file format: json or yaml")
	researchCmd.Flags().Bool("archive", true, "archive the batch in the SQLite database")

	researchCmd.MarkFlagRequired("company")
	researchCmd.MarkFlagRequired("objective")

	rootCmd.AddCommand(researchCmd)
}
