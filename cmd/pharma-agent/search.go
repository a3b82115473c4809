// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pharma-agent/internal/agent"
	"github.com/pdiddy/pharma-agent/internal/enrich"
	"github.com/pdiddy/pharma-agent/internal/format"
	"github.com/pdiddy/pharma-agent/internal/httputil"
	"github.com/pdiddy/pharma-agent/internal/sources"
	"github.com/pdiddy/pharma-agent/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search clinical-research sources and rank the evidence",
	Long: `Search queries ClinicalTrials.gov, PubMed, and NEJM in parallel for the
given research question, enriches each record through the extraction
service, and prints the results ranked by relevance score.

Use --ask to pose a follow-up question answered from the ranked studies.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("output", "markdown", "output format: markdown, json, or yaml")
	searchCmd.Flags().String("ask", "", "follow-up question answered from the ranked studies")
	searchCmd.Flags().Bool("no-cache", false, "bypass the extraction response cache")
	searchCmd.Flags().Bool("no-refine", false, "skip LLM keyword refinement of the query")
	searchCmd.Flags().Int("registry-limit", 0, "max records from ClinicalTrials.gov (default 5)")
	searchCmd.Flags().Int("pubmed-limit", 0, "max records from PubMed (default 3)")
	searchCmd.Flags().Int("nejm-limit", 0, "max records from NEJM (default 2)")
	searchCmd.Flags().String("model", "", "extraction model (default gpt-4o-mini)")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx := cmd.Context()

	cfg, err := pipelineConfig(cmd)
	if err != nil {
		return err
	}

	backend, err := enrich.NewOpenAIBackend(cfg.Extraction.AIConfig)
	if err != nil {
		return err
	}

	var cache *enrich.Cache
	noCache, _ := cmd.Flags().GetBool("no-cache")
	if cfg.Extraction.CachePath != "" && !noCache {
		cache, err = enrich.OpenCache(cfg.Extraction.CachePath)
		if err != nil {
			// The cache is an optimization; run without it.
			fmt.Fprintf(os.Stderr, "warning: extraction cache unavailable: %v\n", err)
		} else {
			defer cache.Close()
		}
	}

	client := httputil.NewClient(cfg.Sources.Timeout)
	srcs := []sources.Source{
		&sources.ClinicalTrialsSource{Client: client, UserAgent: cfg.Sources.UserAgent},
		&sources.PubMedSource{Client: client, UserAgent: cfg.Sources.UserAgent, APIKey: cfg.Sources.NCBIAPIKey},
		sources.NewNEJMSource(client, cfg.Sources.UserAgent, cfg.Sources.NCBIAPIKey),
	}

	var refiner enrich.Refiner = backend
	if noRefine, _ := cmd.Flags().GetBool("no-refine"); noRefine {
		refiner = nil
	}

	a := agent.New(srcs, enrich.NewEnricher(backend, cache), refiner, cfg)

	fmt.Fprintf(os.Stderr, "Searching for: %q...\n\n", query)
	studies, err := a.Run(ctx, query, os.Stderr)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	switch output {
	case "markdown":
		format.Markdown(studies, os.Stdout)
	case "json":
		if err := format.JSON(studies, os.Stdout); err != nil {
			return err
		}
	case "yaml":
		if err := format.YAML(studies, os.Stdout); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output format %q (want markdown, json, or yaml)", output)
	}

	question, _ := cmd.Flags().GetString("ask")
	if question != "" && len(studies) > 0 {
		answer, err := agent.Answer(ctx, backend, studies, question)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not answer follow-up question: %v\n", err)
			return nil
		}
		fmt.Printf("\n## Answer\n\n%s\n", answer)
	}

	return nil
}

// pipelineConfig assembles the stage configuration from flags, the config
// file, environment, and secrets.
func pipelineConfig(cmd *cobra.Command) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig

	cfg.Sources.Timeout = viper.GetDuration("sources.timeout")
	if cfg.Sources.Timeout <= 0 {
		cfg.Sources.Timeout = 15 * time.Second
	}
	cfg.Sources.UserAgent = viper.GetString("sources.user_agent")
	if cfg.Sources.UserAgent == "" {
		cfg.Sources.UserAgent = "pharma-agent/" + version
	}

	cfg.Sources.RegistryLimit = flagOrConfigInt(cmd, "registry-limit", "sources.registry_limit")
	cfg.Sources.PubMedLimit = flagOrConfigInt(cmd, "pubmed-limit", "sources.pubmed_limit")
	cfg.Sources.NEJMLimit = flagOrConfigInt(cmd, "nejm-limit", "sources.nejm_limit")
	cfg.Sources.NCBIAPIKey = secretDefault("ncbi-api-key", viper.GetString("sources.ncbi_api_key"))

	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = viper.GetString("extraction.model")
	}
	cfg.Extraction.Model = model
	cfg.Extraction.BaseURL = viper.GetString("extraction.base_url")
	cfg.Extraction.Workers = viper.GetInt("extraction.workers")

	cfg.Extraction.CachePath = viper.GetString("extraction.cache_path")
	if cfg.Extraction.CachePath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Extraction.CachePath = home + "/.cache/pharma-agent/extractions.db"
		}
	}

	// The extraction credential is the one fatal setup requirement.
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = secretDefault("openai-api-key", viper.GetString("extraction.api_key"))
	}
	if apiKey == "" {
		return cfg, fmt.Errorf("OPENAI_API_KEY not found: set the environment variable, a .env entry, or .secrets/openai-api-key")
	}
	cfg.Extraction.APIKey = apiKey

	return cfg, nil
}

func flagOrConfigInt(cmd *cobra.Command, flag, key string) int {
	if v, _ := cmd.Flags().GetInt(flag); v > 0 {
		return v
	}
	return viper.GetInt(key)
}
