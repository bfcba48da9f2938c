// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fuse

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/target-engine/internal/source"
	"github.com/pdiddy/target-engine/pkg/types"
)

// evidence is one entity's accumulated raw evidence before scoring.
type evidence struct {
	scores   map[types.Category][]float64
	name     string
	sources  *orderedSet
	findings *orderedSet
	pathways *orderedSet
	terms    *orderedSet
}

// accumulator maps uppercased entity identifiers to their evidence.
// Built fresh per Rank call; never persisted.
type accumulator struct {
	byEntity map[string]*evidence
}

func newAccumulator() *accumulator {
	return &accumulator{byEntity: make(map[string]*evidence)}
}

// at returns the entity's evidence, creating it on first reference.
func (a *accumulator) at(entity string) *evidence {
	ev, ok := a.byEntity[entity]
	if !ok {
		ev = &evidence{
			scores:   make(map[types.Category][]float64),
			sources:  newOrderedSet(),
			findings: newOrderedSet(),
			pathways: newOrderedSet(),
			terms:    newOrderedSet(),
		}
		a.byEntity[entity] = ev
	}
	return ev
}

// credit appends one observation for (entity, category) and records the
// contributing source tag.
func (a *accumulator) credit(entity string, cat types.Category, score float64, tag string) *evidence {
	ev := a.at(entity)
	ev.scores[cat] = append(ev.scores[cat], score)
	ev.sources.add(tag)
	return ev
}

// entities returns all entity identifiers in sorted order so iteration
// is deterministic.
func (a *accumulator) entities() []string {
	ids := make([]string, 0, len(a.byEntity))
	for id := range a.byEntity {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// route credits one record to zero or more entities according to the
// source-specific extraction rules (R2.1-R2.4). Entity identity is the
// uppercased gene/protein symbol throughout.
func route(acc *accumulator, rec types.Record, candidates []string) {
	switch rec.Source {
	case source.TagDisGeNET:
		gene := upper(rec.AttrString(types.AttrGeneSymbol))
		if gene == "" {
			return
		}
		ev := acc.credit(gene, types.CategoryCurated, rec.Relevance, rec.Source)
		score := rec.AttrString(types.AttrCuratedScore)
		if score == "" {
			if f, ok := rec.AttrFloat(types.AttrCuratedScore); ok {
				score = fmt.Sprintf("%.2f", f)
			} else {
				score = "N/A"
			}
		}
		pubs, _ := rec.AttrFloat(types.AttrPublicationCount)
		ev.findings.add(fmt.Sprintf("DisGeNET: disease association score=%s, %d publications", score, int(pubs)))

	case source.TagGWAS:
		gene := upper(rec.AttrString(types.AttrGene))
		if gene == "" || gene == "UNKNOWN" {
			return
		}
		ev := acc.credit(gene, types.CategoryGenetic, rec.Relevance, rec.Source)
		if p, ok := rec.AttrFloat(types.AttrPValue); ok {
			ev.findings.add(fmt.Sprintf("GWAS: genetic association (p=%.2g)", p))
		} else {
			ev.findings.add("GWAS: genetic association")
		}

	case source.TagPubMed:
		routeLiterature(acc, rec, candidates)

	case source.TagUniProt:
		gene := upper(rec.AttrString(types.AttrGene))
		if gene == "" {
			return
		}
		ev := acc.credit(gene, types.CategoryAnnotation, rec.Relevance, rec.Source)
		if ev.name == "" && rec.Title != "" {
			ev.name = rec.Title
		}
		if fn := rec.AttrString(types.AttrFunction); fn != "" {
			ev.findings.add("UniProt function: " + truncate(fn, 150))
		}

	case source.TagGO:
		gene := upper(rec.AttrString(types.AttrGeneSymbol))
		if gene == "" {
			return
		}
		ev := acc.credit(gene, types.CategoryFunctional, rec.Relevance, rec.Source)
		for _, term := range head(rec.AttrStrings(types.AttrBiologicalProcesses), 5) {
			ev.terms.add(term)
		}
		for _, term := range head(rec.AttrStrings(types.AttrMolecularFunctions), 5) {
			ev.terms.add(term)
		}

	case source.TagReactome:
		// One pathway record credits every member gene (R2.3).
		pathway := rec.AttrString(types.AttrPathwayName)
		for _, gene := range rec.AttrStrings(types.AttrGenesInPathway) {
			ev := acc.credit(upper(gene), types.CategoryPathway, rec.Relevance, rec.Source)
			if pathway != "" {
				ev.pathways.add(pathway)
			}
		}

	case source.TagPDB:
		protein := upper(rec.AttrString(types.AttrProtein))
		if protein == "" {
			return
		}
		ev := acc.credit(protein, types.CategoryStructural, rec.Relevance, rec.Source)
		if id := rec.AttrString(types.AttrPDBID); id != "" {
			ev.findings.add(fmt.Sprintf("3D structure available (PDB: %s)", id))
		}

	case source.TagPubChem:
		protein := upper(rec.AttrString(types.AttrProteinTarget))
		if protein == "" {
			return
		}
		acc.credit(protein, types.CategoryDruggability, rec.Relevance, rec.Source)

	case source.TagOpenTargets:
		routeAggregator(acc, rec)
	}
}

// routeLiterature credits a literature record to every candidate or
// mentioned protein appearing in its title or abstract (R2.2). One
// record may contribute to several entities.
func routeLiterature(acc *accumulator, rec types.Record, candidates []string) {
	haystack := strings.ToUpper(rec.Title + " " + rec.AttrString(types.AttrAbstract))
	if haystack == "" {
		return
	}

	seen := make(map[string]struct{})
	consider := func(entity string) {
		entity = upper(entity)
		if entity == "" {
			return
		}
		if _, dup := seen[entity]; dup {
			return
		}
		seen[entity] = struct{}{}

		if !strings.Contains(haystack, entity) {
			return
		}
		ev := acc.credit(entity, types.CategoryLiterature, rec.Relevance, rec.Source)

		finding := "PubMed: " + truncate(rec.Title, 80)
		if year, ok := rec.AttrFloat(types.AttrYear); ok {
			finding += fmt.Sprintf(" (%d)", int(year))
		}
		ev.findings.add(finding)
	}

	for _, p := range rec.AttrStrings(types.AttrProteinsMentioned) {
		consider(p)
	}
	for _, c := range candidates {
		consider(c)
	}
}

// routeAggregator fans an OpenTargets record out across categories
// (R2.4): the overall association score lands in curated, and each
// datatype sub-score boosts its matching category.
func routeAggregator(acc *accumulator, rec types.Record) {
	gene := upper(rec.AttrString(types.AttrGeneSymbol))
	if gene == "" {
		return
	}

	overall := rec.Relevance
	if v, ok := rec.AttrFloat(types.AttrOverallScore); ok {
		overall = v
	}
	ev := acc.credit(gene, types.CategoryCurated, overall, rec.Source)

	fanout := []struct {
		key string
		cat types.Category
	}{
		{types.AttrGeneticScore, types.CategoryGenetic},
		{types.AttrLiteratureScore, types.CategoryLiterature},
		{types.AttrPathwaysScore, types.CategoryPathway},
	}
	for _, f := range fanout {
		if v, ok := rec.AttrFloat(f.key); ok && v > 0 {
			acc.credit(gene, f.cat, v, rec.Source)
		}
	}

	ev.findings.add(fmt.Sprintf("OpenTargets: overall association=%.2f", overall))
	if drugs, ok := rec.AttrFloat(types.AttrKnownDrugsScore); ok && drugs > 0.5 {
		ev.findings.add(fmt.Sprintf("Known drug target (OpenTargets known_drug score=%.2f)", drugs))
	}
}

// orderedSet is a deduplicating set that preserves insertion order so
// target metadata stays deterministic across runs.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

// list returns up to max items in insertion order; max <= 0 means all.
func (s *orderedSet) list(max int) []string {
	items := s.items
	if max > 0 && len(items) > max {
		items = items[:max]
	}
	out := make([]string, len(items))
	copy(out, items)
	return out
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
