// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrate

import (
	"fmt"
	"strings"

	"github.com/pdiddy/target-engine/internal/oracle"
	"github.com/pdiddy/target-engine/pkg/types"
)

// Phase is the orchestrator's position in the discovery state machine.
type Phase string

const (
	PhasePlanning     Phase = "planning"
	PhaseSelecting    Phase = "selecting"
	PhaseExecuting    Phase = "executing"
	PhaseSynthesizing Phase = "synthesizing"
	PhaseDone         Phase = "done"
)

// StepKind categorizes a reasoning step.
type StepKind string

const (
	StepPlan       StepKind = "plan"
	StepDecide     StepKind = "decide"
	StepSearch     StepKind = "search"
	StepAnalyze    StepKind = "analyze"
	StepSynthesize StepKind = "synthesize"
)

// traceTextLimit bounds the input/output captures on a reasoning step.
const traceTextLimit = 500

// ReasoningStep is one entry in the run's append-only reasoning trace.
// The trace exists for observability; nothing reads it for control flow.
type ReasoningStep struct {
	Number      int      `json:"number" yaml:"number"`
	Kind        StepKind `json:"kind" yaml:"kind"`
	Description string   `json:"description" yaml:"description"`
	Input       string   `json:"input,omitempty" yaml:"input,omitempty"`
	Output      string   `json:"output,omitempty" yaml:"output,omitempty"`
}

// RunState is the orchestrator's working memory for one discovery
// request. The orchestrator is its only writer; the fusion engine and
// presentation read it. It is never shared across concurrent requests.
type RunState struct {
	// Query is the disease string as the caller provided it.
	Query string `json:"query" yaml:"query"`

	// Disease is the oracle-normalized disease name; empty until the
	// planning phase sets it.
	Disease string `json:"disease" yaml:"disease"`

	// Phase is the current state machine position.
	Phase Phase `json:"phase" yaml:"phase"`

	// Plan is the oracle's research plan; zero-valued when planning
	// failed and the run degraded to pure adaptive selection.
	Plan oracle.Plan `json:"plan" yaml:"plan"`

	// Queue holds planned sources not yet invoked, in plan order.
	Queue []oracle.PlannedSource `json:"queue,omitempty" yaml:"queue,omitempty"`

	// Used lists invoked source tags in invocation order.
	Used []string `json:"used" yaml:"used"`

	// Records accumulates adapter output per source tag, in invocation
	// order within each list.
	Records map[string][]types.Record `json:"records" yaml:"records"`

	// Candidates is the growing entity set: uppercased, deduplicated,
	// insertion-ordered. It only ever grows during a run.
	Candidates []string `json:"candidates" yaml:"candidates"`

	// Analyses collects the oracle's per-batch assessments.
	Analyses []oracle.Analysis `json:"analyses,omitempty" yaml:"analyses,omitempty"`

	// Iterations counts EXECUTING transitions; bounded by MaxIterations.
	Iterations    int `json:"iterations" yaml:"iterations"`
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// ContinueSearch is the continue/stop flag the stickiness rule guards.
	ContinueSearch bool `json:"continue_search" yaml:"continue_search"`

	// Trace is the append-only, monotonically numbered reasoning log.
	Trace []ReasoningStep `json:"trace" yaml:"trace"`

	// Targets is the final ranking, populated during synthesis.
	Targets []types.Target `json:"targets,omitempty" yaml:"targets,omitempty"`

	// Narrative is the optional oracle-written run summary.
	Narrative string `json:"narrative,omitempty" yaml:"narrative,omitempty"`

	// pending is the source decision selected for the next execution.
	pending oracle.PlannedSource

	// candidateSet indexes Candidates for idempotent insertion.
	candidateSet map[string]struct{}
}

// newRunState validates the query and returns the initial state. A blank
// query is the one fatal configuration error (R1.1).
func newRunState(query string, cfg types.DiscoveryConfig) (*RunState, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("disease query is empty")
	}
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = 5
	}
	return &RunState{
		Query:          strings.TrimSpace(query),
		Phase:          PhasePlanning,
		Records:        make(map[string][]types.Record),
		MaxIterations:  maxIter,
		ContinueSearch: true,
		candidateSet:   make(map[string]struct{}),
	}, nil
}

// DiseaseName returns the normalized disease name, falling back to the
// original query before planning has run.
func (s *RunState) DiseaseName() string {
	if s.Disease != "" {
		return s.Disease
	}
	return s.Query
}

// AddCandidate inserts an entity identifier into the candidate set.
// Identity is case-insensitive; re-adding an existing entity is a no-op
// and the set never shrinks (R1.3).
func (s *RunState) AddCandidate(entity string) bool {
	entity = strings.ToUpper(strings.TrimSpace(entity))
	if entity == "" {
		return false
	}
	if _, ok := s.candidateSet[entity]; ok {
		return false
	}
	s.candidateSet[entity] = struct{}{}
	s.Candidates = append(s.Candidates, entity)
	return true
}

// TopCandidates returns up to n candidates in accumulation order. No
// score exists before fusion, so accumulation order is the only order.
func (s *RunState) TopCandidates(n int) []string {
	if n <= 0 || len(s.Candidates) <= n {
		return s.Candidates
	}
	return s.Candidates[:n]
}

// HasUsed reports whether the source tag was already invoked.
func (s *RunState) HasUsed(tag string) bool {
	for _, t := range s.Used {
		if t == tag {
			return true
		}
	}
	return false
}

// AddStep appends a numbered reasoning step, truncating the captured
// input/output text.
func (s *RunState) AddStep(kind StepKind, description, input, output string) {
	s.Trace = append(s.Trace, ReasoningStep{
		Number:      len(s.Trace) + 1,
		Kind:        kind,
		Description: description,
		Input:       truncate(input, traceTextLimit),
		Output:      truncate(output, traceTextLimit),
	})
}

// AllRecords flattens the per-source accumulation lists in invocation
// order, for handoff to the fusion engine.
func (s *RunState) AllRecords() []types.Record {
	var all []types.Record
	for _, tag := range s.Used {
		all = append(all, s.Records[tag]...)
	}
	return all
}

// RecordCount returns the total number of accumulated records.
func (s *RunState) RecordCount() int {
	n := 0
	for _, recs := range s.Records {
		n += len(recs)
	}
	return n
}

// Summary renders the state for the oracle's selection prompt: sources
// used, candidate count, leading candidates, and active hypotheses.
func (s *RunState) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Disease: %s\n", s.DiseaseName())
	fmt.Fprintf(&b, "Iteration: %d of %d\n", s.Iterations, s.MaxIterations)
	fmt.Fprintf(&b, "Sources used: %s\n", joinOrNone(s.Used))
	fmt.Fprintf(&b, "Candidate entities: %d\n", len(s.Candidates))
	fmt.Fprintf(&b, "Leading candidates: %s\n", joinOrNone(s.TopCandidates(10)))
	fmt.Fprintf(&b, "Hypotheses: %s\n", joinOrNone(s.Plan.Hypotheses))
	return b.String()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
