// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrate drives a bounded, adaptive sequence of source
// invocations and hands the accumulated evidence to the fusion engine.
// Implements: prd011-discovery (R1-R5);
//
//	docs/ARCHITECTURE § Orchestrator.
//
// The state machine is PLANNING → SELECTING → EXECUTING (looping back to
// SELECTING) → SYNTHESIZING → DONE. One logical thread drives it: source
// selection depends on the previous call's outcome, so invocations are
// strictly sequential.
package orchestrate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/target-engine/internal/fuse"
	"github.com/pdiddy/target-engine/internal/oracle"
	"github.com/pdiddy/target-engine/internal/source"
	"github.com/pdiddy/target-engine/pkg/types"
)

// minIterationsBeforeStop is the stickiness floor: an analysis
// recommending stop is honored only after this many iterations, so one
// noisy source cannot end a run prematurely (R3.3).
const minIterationsBeforeStop = 3

// analyzedResultLimit caps the results included in an analysis prompt.
const analyzedResultLimit = 10

// Engine runs discovery requests. Construct with New; the zero value is
// not usable.
type Engine struct {
	oracle   oracle.Oracle
	adapters map[string]source.Adapter
	catalog  map[string]source.Info
	cfg      types.Config
	w        io.Writer
}

// New returns an Engine over the given oracle and adapters. Progress is
// written to w (R5.1). An oracle must be configured; adapters may be any
// subset of the catalog.
func New(o oracle.Oracle, adapters []source.Adapter, cfg types.Config, w io.Writer) (*Engine, error) {
	if o == nil {
		return nil, fmt.Errorf("no oracle configured")
	}
	if w == nil {
		w = io.Discard
	}

	byTag := make(map[string]source.Adapter, len(adapters))
	catalog := make(map[string]source.Info, len(adapters))
	for _, a := range adapters {
		byTag[a.Tag()] = a
		if info, ok := source.Lookup(a.Tag()); ok {
			catalog[a.Tag()] = info
		}
	}
	return &Engine{
		oracle:   o,
		adapters: byTag,
		catalog:  catalog,
		cfg:      cfg,
		w:        w,
	}, nil
}

// Discover runs one end-to-end discovery request and returns the final
// run state with the ranked targets, reasoning trace, sources used, and
// iteration count. The only error is an invalid query; every downstream
// failure degrades instead of aborting (R1.1, R5.2).
func (e *Engine) Discover(ctx context.Context, disease string) (*RunState, error) {
	st, err := newRunState(disease, e.cfg.Discovery)
	if err != nil {
		return nil, err
	}

	for st.Phase != PhaseDone {
		switch st.Phase {
		case PhasePlanning:
			e.plan(ctx, st)
		case PhaseSelecting:
			e.selectNext(ctx, st)
		case PhaseExecuting:
			e.execute(ctx, st)
		case PhaseSynthesizing:
			e.synthesize(ctx, st)
		}
	}
	return st, nil
}

// availableInfos returns catalog entries for the registered adapters.
func (e *Engine) availableInfos() []source.Info {
	var infos []source.Info
	for _, info := range source.Catalog() {
		if _, ok := e.adapters[info.Tag]; ok {
			infos = append(infos, info)
		}
	}
	return infos
}

// unusedTags returns registered source tags not yet invoked.
func (e *Engine) unusedTags(st *RunState) []string {
	var tags []string
	for _, info := range e.availableInfos() {
		if !st.HasUsed(info.Tag) {
			tags = append(tags, info.Tag)
		}
	}
	return tags
}

// plan asks the oracle for a research strategy. A parse failure degrades
// to an empty plan and pure adaptive selection (R2.2).
func (e *Engine) plan(ctx context.Context, st *RunState) {
	fmt.Fprintf(e.w, "planning research for %q\n", st.Query)

	p, err := e.oracle.Plan(ctx, oracle.PlanInput{
		Disease: st.Query,
		Catalog: source.Describe(e.availableInfos()),
	})
	if err != nil {
		fmt.Fprintf(e.w, "warning: planning failed, continuing adaptively: %v\n", err)
		st.AddStep(StepPlan, "Planning failed; falling back to adaptive selection", st.Query, err.Error())
		st.Phase = PhaseSelecting
		return
	}

	st.Plan = p
	if p.Disease != "" {
		st.Disease = p.Disease
	}
	st.Queue = append(st.Queue, p.Sequence...)

	st.AddStep(StepPlan,
		fmt.Sprintf("Created research plan for %s", st.DiseaseName()),
		st.Query, p.Rationale)
	fmt.Fprintf(e.w, "plan: %d sources queued for %s\n", len(st.Queue), st.DiseaseName())
	st.Phase = PhaseSelecting
}

// selectNext picks the next source: the planned queue first, then the
// oracle adaptively. A DONE answer, a selection failure, a repeated
// source, or source exhaustion all end the loop (R3.1, R3.2, R3.4).
func (e *Engine) selectNext(ctx context.Context, st *RunState) {
	// Drain the planned queue, skipping unknown and already-used tags.
	for len(st.Queue) > 0 {
		next := st.Queue[0]
		st.Queue = st.Queue[1:]
		if _, ok := e.adapters[next.Source]; !ok || st.HasUsed(next.Source) {
			continue
		}
		st.pending = next
		st.Phase = PhaseExecuting
		return
	}

	if st.Iterations >= st.MaxIterations || len(e.unusedTags(st)) == 0 {
		st.Phase = PhaseSynthesizing
		return
	}

	sel, err := e.oracle.SelectSource(ctx, oracle.SelectInput{
		StateSummary: st.Summary(),
		Used:         joinOrNone(st.Used),
		Available:    joinOrNone(e.unusedTags(st)),
	})
	if err != nil {
		fmt.Fprintf(e.w, "warning: source selection failed, synthesizing: %v\n", err)
		st.AddStep(StepDecide, "Selection failed; moving to synthesis", "", err.Error())
		st.Phase = PhaseSynthesizing
		return
	}
	if sel.IsDone() {
		st.AddStep(StepDecide, "Oracle declared evidence sufficient", "", sel.Rationale)
		st.Phase = PhaseSynthesizing
		return
	}

	// An unknown or repeated source is equivalent to "no more sources";
	// this guarantees the loop terminates (R3.2).
	if _, ok := e.adapters[sel.Source]; !ok || st.HasUsed(sel.Source) {
		st.AddStep(StepDecide,
			fmt.Sprintf("Oracle selected unavailable source %q; moving to synthesis", sel.Source),
			"", sel.Rationale)
		st.Phase = PhaseSynthesizing
		return
	}

	st.pending = oracle.PlannedSource{
		Source:    sel.Source,
		Rationale: sel.Rationale,
		Params:    sel.Params,
		Expected:  sel.Expected,
	}
	st.AddStep(StepDecide, fmt.Sprintf("Selected source %s", sel.Source), st.Summary(), sel.Rationale)
	st.Phase = PhaseExecuting
}

// execute invokes the pending adapter, merges its records, extracts
// mentioned entities, and has the oracle analyze the batch. Adapter
// failures count as zero-result invocations (R4.2, R5.2).
func (e *Engine) execute(ctx context.Context, st *RunState) {
	dec := st.pending
	st.Iterations++

	fmt.Fprintf(e.w, "searching %s (iteration %d/%d)\n", dec.Source, st.Iterations, st.MaxIterations)

	q := source.Query{Disease: st.DiseaseName()}
	if info, ok := e.catalog[dec.Source]; ok && info.AcceptsEntities {
		q.Entities = st.TopCandidates(e.topCandidateLimit())
	}

	records, err := e.adapters[dec.Source].Search(ctx, q, e.cfg.Sources)
	if err != nil {
		fmt.Fprintf(e.w, "warning: %s search failed: %v\n", dec.Source, err)
		records = nil
	}

	st.Records[dec.Source] = append(st.Records[dec.Source], records...)
	st.Used = append(st.Used, dec.Source)

	// Entities the adapter itself flagged join the candidate set before
	// the oracle sees the batch.
	mentioned := mentionedEntities(records)
	for _, entity := range mentioned {
		st.AddCandidate(entity)
	}

	st.AddStep(StepSearch,
		fmt.Sprintf("Searched %s: %d records", dec.Source, len(records)),
		dec.Rationale, "")

	analysis := e.analyze(ctx, st, dec.Source, records, mentioned)
	st.Analyses = append(st.Analyses, analysis)
	for _, entity := range analysis.Proteins {
		st.AddCandidate(entity)
	}

	// Stop recommendations are sticky-floored: honored only once enough
	// sources have weighed in (R3.3).
	if !analysis.ShouldContinue && st.Iterations >= minIterationsBeforeStop {
		st.ContinueSearch = false
	}

	fmt.Fprintf(e.w, "found %d records, %d total candidates\n", len(records), len(st.Candidates))

	if st.ContinueSearch && st.Iterations < st.MaxIterations {
		st.Phase = PhaseSelecting
	} else {
		st.Phase = PhaseSynthesizing
	}
}

// analyze asks the oracle to assess one batch. An empty batch or an
// oracle failure produces the conservative fallback analysis (R4.4).
func (e *Engine) analyze(ctx context.Context, st *RunState, tag string, records []types.Record, mentioned []string) oracle.Analysis {
	if len(records) == 0 {
		return oracle.FallbackAnalysis(fmt.Sprintf("No results found from %s", tag), nil)
	}

	an, err := e.oracle.Analyze(ctx, oracle.AnalyzeInput{
		Source:         tag,
		Disease:        st.DiseaseName(),
		Hypotheses:     joinOrNone(head(st.Plan.Hypotheses, 3)),
		ResultsSummary: batchSummary(records),
		TopResults:     topResultsJSON(records),
	})
	if err != nil {
		fmt.Fprintf(e.w, "warning: %s analysis failed: %v\n", tag, err)
		return oracle.FallbackAnalysis(fmt.Sprintf("Found %d results from %s", len(records), tag), mentioned)
	}

	st.AddStep(StepAnalyze,
		fmt.Sprintf("Analyzed %d records from %s", len(records), tag),
		"", an.Summary)
	return an
}

// synthesize runs the fusion engine and, when configured, decorates the
// top targets with oracle narratives (R4.5, R4.6). Narration failures
// are ignored: the ranking stands on its own.
func (e *Engine) synthesize(ctx context.Context, st *RunState) {
	fmt.Fprintf(e.w, "fusing evidence from %d sources\n", len(st.Used))

	engine := fuse.New(e.cfg.Fusion)
	st.Targets = engine.Rank(st.AllRecords(), st.Candidates)

	topN := e.cfg.Discovery.SynthesisTopN
	for i := range st.Targets {
		if i >= topN {
			break
		}
		t := &st.Targets[i]
		if len(t.Findings) == 0 {
			continue
		}
		narrative, err := e.oracle.SynthesizeTarget(ctx, oracle.SynthesizeInput{
			Gene:     t.ID,
			Disease:  st.DiseaseName(),
			Evidence: "- " + strings.Join(t.Findings, "\n- "),
		})
		if err == nil {
			t.Synthesis = narrative
		}
	}

	if topN > 0 && len(st.Targets) > 0 {
		narrative, err := e.oracle.ConcludeRun(ctx, oracle.ConcludeInput{
			Disease:    st.DiseaseName(),
			Trace:      traceSummary(st.Trace),
			TopTargets: targetsJSON(st.Targets, 5),
		})
		if err == nil {
			st.Narrative = narrative
		}
	}

	st.AddStep(StepSynthesize,
		fmt.Sprintf("Ranked %d targets from %d candidates", len(st.Targets), len(st.Candidates)),
		fmt.Sprintf("%d records", st.RecordCount()), "")
	fmt.Fprintf(e.w, "ranked %d targets\n", len(st.Targets))
	st.Phase = PhaseDone
}

func (e *Engine) topCandidateLimit() int {
	if n := e.cfg.Discovery.TopCandidates; n > 0 {
		return n
	}
	return 20
}

// mentionedEntities collects the entity identifiers a batch's metadata
// flags: gene symbols on structured records and explicit mention lists
// on literature records.
func mentionedEntities(records []types.Record) []string {
	var entities []string
	for _, rec := range records {
		if g := rec.AttrString(types.AttrGene); g != "" && g != "Unknown" {
			entities = append(entities, g)
		}
		if g := rec.AttrString(types.AttrGeneSymbol); g != "" {
			entities = append(entities, g)
		}
		entities = append(entities, rec.AttrStrings(types.AttrProteinsMentioned)...)
	}
	return entities
}

// batchSummary describes a batch's size and relevance range.
func batchSummary(records []types.Record) string {
	lo, hi := records[0].Relevance, records[0].Relevance
	for _, r := range records[1:] {
		if r.Relevance < lo {
			lo = r.Relevance
		}
		if r.Relevance > hi {
			hi = r.Relevance
		}
	}
	return fmt.Sprintf("Found %d results with relevance scores ranging from %.2f to %.2f",
		len(records), lo, hi)
}

// topResultsJSON renders the leading results for the analysis prompt.
func topResultsJSON(records []types.Record) string {
	type item struct {
		Title string  `json:"title"`
		Score float64 `json:"score"`
		Info  any     `json:"key_info,omitempty"`
	}

	n := len(records)
	if n > analyzedResultLimit {
		n = analyzedResultLimit
	}
	items := make([]item, 0, n)
	for _, r := range records[:n] {
		items = append(items, item{Title: r.Title, Score: r.Relevance, Info: keyInfo(r)})
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

// keyInfo selects the attributes worth showing the oracle.
func keyInfo(r types.Record) map[string]any {
	info := make(map[string]any)
	for _, key := range []string{
		types.AttrGene, types.AttrGeneSymbol, types.AttrPValue,
		types.AttrCuratedScore, types.AttrPathwayName, types.AttrBiologicalProcesses,
	} {
		if v, ok := r.Attributes[key]; ok {
			info[key] = v
		}
	}
	if len(info) == 0 {
		return nil
	}
	return info
}

// traceSummary renders the last reasoning steps for the final narrative.
func traceSummary(trace []ReasoningStep) string {
	start := 0
	if len(trace) > 5 {
		start = len(trace) - 5
	}
	var lines []string
	for _, step := range trace[start:] {
		lines = append(lines, fmt.Sprintf("Step %d (%s): %s", step.Number, step.Kind, step.Description))
	}
	return strings.Join(lines, "\n")
}

// targetsJSON renders the top targets for the final narrative prompt.
func targetsJSON(targets []types.Target, n int) string {
	if len(targets) > n {
		targets = targets[:n]
	}
	type item struct {
		Gene    string   `json:"gene"`
		Score   float64  `json:"score"`
		Sources []string `json:"sources"`
	}
	items := make([]item, len(targets))
	for i, t := range targets {
		items[i] = item{Gene: t.ID, Score: t.Overall, Sources: t.Sources}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
