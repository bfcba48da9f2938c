// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "target-engine/0.1"). Per prd010-sources R5.2.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourceConfig holds settings shared by all source adapters.
// Per prd010-sources R5.1-R5.4.
type SourceConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults caps the number of records one adapter invocation may
	// return (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// RequestsPerSecond throttles outbound requests per adapter
	// (default 3). Zero disables throttling.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// OracleConfig holds settings for the advisory oracle backend.
// Per prd013-oracle R5.1-R5.3.
type OracleConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// DiscoveryConfig holds settings for the research orchestrator.
// Per prd011-discovery R1.4, R3.1-R3.4.
type DiscoveryConfig struct {
	// MaxIterations is the hard ceiling on source invocations (default 5).
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// TopCandidates caps the candidate entities passed to adapters that
	// accept entity parameters (default 20).
	TopCandidates int `json:"top_candidates" yaml:"top_candidates"`

	// SynthesisTopN is the number of top-ranked targets that receive an
	// oracle narrative synthesis (default 10). Zero disables synthesis.
	SynthesisTopN int `json:"synthesis_top_n" yaml:"synthesis_top_n"`
}

// FusionConfig holds the scoring constants for the evidence fusion engine.
// Per prd012-ranking R3.1-R3.4. Callers inject overrides through this
// struct; the engine embeds no scoring literals of its own.
type FusionConfig struct {
	// Weights maps each evidence category to its share of the overall
	// score. The default table sums to 1.0.
	Weights map[Category]float64 `json:"weights" yaml:"weights"`

	// EvidenceBonus is added to a category average for every observation
	// beyond the first (default 0.03). Single observations understate
	// confidence relative to corroborated evidence.
	EvidenceBonus float64 `json:"evidence_bonus" yaml:"evidence_bonus"`

	// EvidenceBonusCap bounds the total bonus (default 0.15) so a flood
	// of low-quality records cannot dominate one well-supported record.
	EvidenceBonusCap float64 `json:"evidence_bonus_cap" yaml:"evidence_bonus_cap"`

	// MinOverallScore is the low-evidence threshold (default 0.1).
	// Entities scoring at or below it are dropped to suppress noise from
	// incidental name collisions.
	MinOverallScore float64 `json:"min_overall_score" yaml:"min_overall_score"`

	// MaxFindings bounds the findings kept per target (default 8).
	MaxFindings int `json:"max_findings" yaml:"max_findings"`

	// MaxPathways bounds the pathway names kept per target (default 5).
	MaxPathways int `json:"max_pathways" yaml:"max_pathways"`

	// MaxTerms bounds the ontology terms kept per target (default 10).
	MaxTerms int `json:"max_terms" yaml:"max_terms"`
}

// DefaultWeights returns the authoritative category weight table. Earlier
// revisions of the system carried several divergent weight sets; this table
// supersedes them all. Curated-association and genetic evidence carry the
// highest weight, supplementary structural and druggability evidence the
// lowest. The entries sum to 1.0.
func DefaultWeights() map[Category]float64 {
	return map[Category]float64{
		CategoryCurated:      0.20,
		CategoryGenetic:      0.20,
		CategoryLiterature:   0.18,
		CategoryAnnotation:   0.12,
		CategoryFunctional:   0.10,
		CategoryPathway:      0.08,
		CategoryStructural:   0.07,
		CategoryDruggability: 0.05,
	}
}

// DefaultFusionConfig returns the documented fusion constants.
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		Weights:          DefaultWeights(),
		EvidenceBonus:    0.03,
		EvidenceBonusCap: 0.15,
		MinOverallScore:  0.1,
		MaxFindings:      8,
		MaxPathways:      5,
		MaxTerms:         10,
	}
}

// StoreConfig holds settings for the run archive.
// Per prd014-run-archive R1.2.
type StoreConfig struct {
	// Dir is the directory holding the archive database (default "runs").
	Dir string `json:"dir" yaml:"dir"`
}

// Config groups all component configurations for the engine.
type Config struct {
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery"`
	Fusion    FusionConfig    `json:"fusion" yaml:"fusion"`
	Oracle    OracleConfig    `json:"oracle" yaml:"oracle"`
	Sources   SourceConfig    `json:"sources" yaml:"sources"`
	Store     StoreConfig     `json:"store" yaml:"store"`
}

// DefaultConfig returns a Config populated with documented defaults.
func DefaultConfig() Config {
	return Config{
		Discovery: DiscoveryConfig{
			MaxIterations: 5,
			TopCandidates: 20,
			SynthesisTopN: 10,
		},
		Fusion: DefaultFusionConfig(),
		Oracle: OracleConfig{
			Model:      "claude-sonnet-4-5-20250929",
			MaxRetries: 3,
		},
		Sources: SourceConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "target-engine/0.1",
			},
			MaxResults:        50,
			RequestsPerSecond: 3,
		},
		Store: StoreConfig{Dir: "runs"},
	}
}
