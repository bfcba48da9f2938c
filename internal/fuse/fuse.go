// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fuse aggregates heterogeneous evidence records into a ranked
// target list. Implements: prd012-ranking (R1-R4);
//
//	docs/ARCHITECTURE § Fusion.
//
// Fusion is a pure function of its inputs: the same records and
// candidates always produce the same ranking, and the engine never
// mutates what it is given.
package fuse

import (
	"sort"

	"github.com/pdiddy/target-engine/pkg/types"
)

// Engine converts accumulated Records into ranked Targets using the
// injected scoring constants.
type Engine struct {
	cfg types.FusionConfig
}

// New returns an Engine. Zero-valued config fields fall back to the
// documented defaults so partially-populated test configs stay usable.
func New(cfg types.FusionConfig) *Engine {
	def := types.DefaultFusionConfig()
	if cfg.Weights == nil {
		cfg.Weights = def.Weights
	}
	if cfg.EvidenceBonus == 0 {
		cfg.EvidenceBonus = def.EvidenceBonus
	}
	if cfg.EvidenceBonusCap == 0 {
		cfg.EvidenceBonusCap = def.EvidenceBonusCap
	}
	if cfg.MaxFindings == 0 {
		cfg.MaxFindings = def.MaxFindings
	}
	if cfg.MaxPathways == 0 {
		cfg.MaxPathways = def.MaxPathways
	}
	if cfg.MaxTerms == 0 {
		cfg.MaxTerms = def.MaxTerms
	}
	return &Engine{cfg: cfg}
}

// Rank aggregates all records into per-entity evidence, scores each
// entity, filters low-evidence entities, and returns a deterministic
// descending ranking (R1.1-R4.5). candidates are the entity identifiers
// accumulated during the run; literature records are matched against
// them by substring.
func (e *Engine) Rank(records []types.Record, candidates []string) []types.Target {
	acc := newAccumulator()
	for _, rec := range records {
		route(acc, rec, candidates)
	}

	var targets []types.Target
	for _, id := range acc.entities() {
		t := e.score(id, acc.at(id))
		if t.Overall > e.cfg.MinOverallScore {
			targets = append(targets, t)
		}
	}

	// Descending by overall score; entity ID breaks ties so the output
	// is reproducible (R4.4).
	sort.Slice(targets, func(i, j int) bool {
		if targets[i].Overall != targets[j].Overall {
			return targets[i].Overall > targets[j].Overall
		}
		return targets[i].ID < targets[j].ID
	})

	return targets
}

// score builds a Target from one entity's accumulated evidence.
func (e *Engine) score(id string, ev *evidence) types.Target {
	scores := make(map[types.Category]float64)
	overall := 0.0
	for _, cat := range types.Categories {
		obs := ev.scores[cat]
		if len(obs) == 0 {
			continue
		}
		s := e.boostedAverage(obs)
		scores[cat] = s
		overall += e.cfg.Weights[cat] * s
	}
	overall = clamp01(overall)

	name := ev.name
	if name == "" {
		name = id
	}

	return types.Target{
		ID:       id,
		Name:     name,
		Scores:   scores,
		Overall:  overall,
		Sources:  ev.sources.list(0),
		Findings: ev.findings.list(e.cfg.MaxFindings),
		Pathways: ev.pathways.list(e.cfg.MaxPathways),
		Terms:    ev.terms.list(e.cfg.MaxTerms),
	}
}

// boostedAverage is the confidence-boosted mean of one category's
// observations: the arithmetic mean plus EvidenceBonus per observation
// beyond the first, capped at EvidenceBonusCap, clamped to [0,1] (R3.1).
// Corroborated evidence outranks a lone observation of equal strength,
// while the cap keeps a flood of weak records from dominating.
func (e *Engine) boostedAverage(obs []float64) float64 {
	sum := 0.0
	for _, v := range obs {
		sum += clamp01(v)
	}
	avg := sum / float64(len(obs))

	bonus := float64(len(obs)-1) * e.cfg.EvidenceBonus
	if bonus > e.cfg.EvidenceBonusCap {
		bonus = e.cfg.EvidenceBonusCap
	}
	return clamp01(avg + bonus)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
