// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the timeout applied to each outbound call (default 15s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pharma-agent/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourceConfig holds settings for the retrieval stage.
type SourceConfig struct {
	HTTPConfig `yaml:",inline"`

	// RegistryLimit bounds the number of records requested from
	// ClinicalTrials.gov per query (default 5).
	RegistryLimit int `json:"registry_limit" yaml:"registry_limit"`

	// PubMedLimit bounds the number of records requested from PubMed (default 3).
	PubMedLimit int `json:"pubmed_limit" yaml:"pubmed_limit"`

	// NEJMLimit bounds the number of records requested from the NEJM-scoped
	// PubMed search (default 2).
	NEJMLimit int `json:"nejm_limit" yaml:"nejm_limit"`

	// NCBIAPIKey is an optional E-utilities key for higher rate limits.
	NCBIAPIKey string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty"`
}

// Limit returns the per-source record limit for the given tag.
func (c SourceConfig) Limit(tag SourceTag) int {
	switch tag {
	case SourcePubMed:
		return defaultInt(c.PubMedLimit, 3)
	case SourceNEJM:
		return defaultInt(c.NEJMLimit, 2)
	default:
		return defaultInt(c.RegistryLimit, 5)
	}
}

// AIConfig holds shared settings for stages that call the OpenAI-compatible API.
type AIConfig struct {
	// Model is the model identifier (default "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint, e.g. for a local OpenAI-compatible
	// service or a test server. Empty uses the default endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// ExtractionConfig holds settings for the enrichment stage.
type ExtractionConfig struct {
	AIConfig `yaml:",inline"`

	// Workers caps the number of concurrently in-flight extraction calls
	// (default 5). The cap protects the extraction service from overload;
	// source retrieval is not bounded by it.
	Workers int `json:"workers" yaml:"workers"`

	// CachePath locates the SQLite file memoizing extraction responses.
	// Empty disables the cache.
	CachePath string `json:"cache_path,omitempty" yaml:"cache_path,omitempty"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Sources    SourceConfig     `json:"sources" yaml:"sources"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
