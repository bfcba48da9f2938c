// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package oracle asks a generative AI model to plan, steer, and narrate a
// discovery run. Implements: prd013-oracle (R1-R5);
//
//	docs/ARCHITECTURE § Oracle.
//
// The oracle is advisory: every answer is treated as non-deterministic
// and possibly malformed, and each call site in the orchestrator carries
// a conservative fallback. The interface exists so tests can swap in a
// deterministic policy.
package oracle

import "context"

// Done is the source tag an oracle answers when no further searches are
// warranted (R3.4).
const Done = "DONE"

// PlannedSource is one step of a research plan: a source to invoke, why,
// and optional parameters.
type PlannedSource struct {
	Source    string            `json:"source"`
	Rationale string            `json:"rationale"`
	Params    map[string]string `json:"params,omitempty"`
	Expected  string            `json:"expected_outcome,omitempty"`
}

// Plan is the oracle's research strategy for a disease (R2.1).
type Plan struct {
	Disease     string          `json:"disease_name"`
	DiseaseType string          `json:"disease_type"`
	Hypotheses  []string        `json:"key_hypotheses"`
	Pathways    []string        `json:"priority_pathways"`
	Strategy    string          `json:"search_strategy"`
	Sequence    []PlannedSource `json:"source_sequence"`
	Rationale   string          `json:"rationale"`
}

// Selection is the oracle's choice of the next source to query (R3.1).
// A Done source, or an empty one, stops the adaptive loop.
type Selection struct {
	Source    string            `json:"source"`
	Rationale string            `json:"rationale"`
	Params    map[string]string `json:"params,omitempty"`
	Expected  string            `json:"expected_outcome,omitempty"`
}

// IsDone reports whether the selection ends the search loop.
func (s Selection) IsDone() bool {
	return s.Source == "" || s.Source == Done
}

// Analysis is the oracle's assessment of one source's result batch (R4.1).
type Analysis struct {
	Summary        string   `json:"results_summary"`
	Proteins       []string `json:"key_proteins_found"`
	Confidence     string   `json:"confidence_level"`
	Gaps           []string `json:"gaps_identified"`
	NextSteps      []string `json:"next_steps"`
	ShouldContinue bool     `json:"should_continue"`
	Reasoning      string   `json:"reasoning"`
}

// FallbackAnalysis returns the conservative default used when the oracle
// is unreachable or unparsable: keep searching, credit only the proteins
// the adapter itself reported (R4.4).
func FallbackAnalysis(summary string, proteins []string) Analysis {
	return Analysis{
		Summary:        summary,
		Proteins:       proteins,
		Confidence:     "low",
		ShouldContinue: true,
		Reasoning:      "analysis unavailable, continuing with remaining sources",
	}
}

// PlanInput carries the planning prompt context.
type PlanInput struct {
	Disease string
	Catalog string
}

// SelectInput carries the adaptive selection prompt context.
type SelectInput struct {
	StateSummary string
	Used         string
	Available    string
}

// AnalyzeInput carries the batch analysis prompt context.
type AnalyzeInput struct {
	Source         string
	Disease        string
	Hypotheses     string
	ResultsSummary string
	TopResults     string
}

// SynthesizeInput carries the per-target narrative prompt context.
type SynthesizeInput struct {
	Gene     string
	Disease  string
	Evidence string
}

// ConcludeInput carries the final run narrative prompt context.
type ConcludeInput struct {
	Disease    string
	Trace      string
	TopTargets string
}

// Oracle proposes plans, source choices, and analyses for the
// orchestrator. Implementations must treat every answer as best-effort:
// a returned error means the caller should fall back, never abort.
type Oracle interface {
	// Plan produces a research strategy for the disease.
	Plan(ctx context.Context, in PlanInput) (Plan, error)

	// SelectSource picks the next source given a state summary.
	SelectSource(ctx context.Context, in SelectInput) (Selection, error)

	// Analyze assesses the records one source invocation returned.
	Analyze(ctx context.Context, in AnalyzeInput) (Analysis, error)

	// SynthesizeTarget writes a narrative assessment for one target.
	// Descriptive only; never affects ranking.
	SynthesizeTarget(ctx context.Context, in SynthesizeInput) (string, error)

	// ConcludeRun writes the final run narrative.
	ConcludeRun(ctx context.Context, in ConcludeInput) (string, error)
}
