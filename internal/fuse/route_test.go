// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fuse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/target-engine/internal/source"
	"github.com/pdiddy/target-engine/pkg/types"
)

func TestRouteGWASSkipsUnknownGene(t *testing.T) {
	records := []types.Record{
		{
			Source:    source.TagGWAS,
			ID:        "g1",
			Relevance: 0.9,
			Attributes: map[string]any{
				types.AttrGene: "Unknown",
			},
		},
		{
			Source:     source.TagGWAS,
			ID:         "g2",
			Relevance:  0.9,
			Attributes: map[string]any{},
		},
	}
	assert.Empty(t, defaultEngine().Rank(records, nil))
}

func TestRouteLiteratureMatchesCandidates(t *testing.T) {
	records := []types.Record{
		{
			Source:    source.TagPubMed,
			ID:        "12345",
			Title:     "TNF inhibition in rheumatoid arthritis",
			Relevance: 0.8,
			Attributes: map[string]any{
				types.AttrAbstract: "We review IL6 signaling alongside TNF blockade.",
				types.AttrYear:     2021,
			},
		},
	}
	candidates := []string{"TNF", "IL6", "ABSENT1"}

	targets := defaultEngine().Rank(records, candidates)
	require.Len(t, targets, 2)

	ids := []string{targets[0].ID, targets[1].ID}
	assert.ElementsMatch(t, []string{"TNF", "IL6"}, ids)
	for _, tgt := range targets {
		assert.InDelta(t, 0.8, tgt.Score(types.CategoryLiterature), 1e-9)
		require.NotEmpty(t, tgt.Findings)
		assert.Contains(t, tgt.Findings[0], "PubMed:")
		assert.Contains(t, tgt.Findings[0], "(2021)")
	}
}

func TestRouteLiteratureMentionedProteins(t *testing.T) {
	// Explicitly flagged proteins count even without candidate overlap,
	// as long as they appear in the text.
	records := []types.Record{
		{
			Source:    source.TagPubMed,
			ID:        "999",
			Title:     "BACE1 as a therapeutic target",
			Relevance: 0.7,
			Attributes: map[string]any{
				types.AttrProteinsMentioned: []string{"BACE1"},
			},
		},
	}

	targets := defaultEngine().Rank(records, nil)
	require.Len(t, targets, 1)
	assert.Equal(t, "BACE1", targets[0].ID)
}

func TestRouteLiteratureCreditsEachEntityOnce(t *testing.T) {
	// A candidate that is also flagged as mentioned must not be counted twice.
	records := []types.Record{
		{
			Source:    source.TagPubMed,
			ID:        "7",
			Title:     "EGFR mutations in lung cancer",
			Relevance: 0.6,
			Attributes: map[string]any{
				types.AttrProteinsMentioned: []string{"EGFR"},
			},
		},
	}

	targets := defaultEngine().Rank(records, []string{"EGFR"})
	require.Len(t, targets, 1)
	// A double credit would have added the multi-observation bonus.
	assert.InDelta(t, 0.6, targets[0].Score(types.CategoryLiterature), 1e-9)
}

func TestRouteReactomeFansOutToMembers(t *testing.T) {
	records := []types.Record{
		{
			Source:    source.TagReactome,
			ID:        "R-HSA-1",
			Title:     "Signaling by Interleukins",
			Relevance: 0.75,
			Attributes: map[string]any{
				types.AttrPathwayName:    "Signaling by Interleukins",
				types.AttrGenesInPathway: []string{"IL6", "IL10", "JAK1"},
			},
		},
		disgenetRecord("IL6", 0.9),
	}

	targets := defaultEngine().Rank(records, nil)

	byID := make(map[string]types.Target)
	for _, tgt := range targets {
		byID[tgt.ID] = tgt
	}

	il6, ok := byID["IL6"]
	require.True(t, ok)
	assert.InDelta(t, 0.75, il6.Score(types.CategoryPathway), 1e-9)
	assert.Contains(t, il6.Pathways, "Signaling by Interleukins")

	// Pathway-only members score 0.08 * 0.75 = 0.06, under the threshold.
	_, hasJAK1 := byID["JAK1"]
	assert.False(t, hasJAK1)
}

func TestRouteGOTermsCapped(t *testing.T) {
	records := []types.Record{
		{
			Source:    source.TagGO,
			ID:        "go1",
			Relevance: 0.9,
			Attributes: map[string]any{
				types.AttrGeneSymbol: "TP53",
				types.AttrBiologicalProcesses: []string{
					"bp1", "bp2", "bp3", "bp4", "bp5", "bp6", "bp7",
				},
				types.AttrMolecularFunctions: []string{"mf1", "mf2"},
			},
		},
		disgenetRecord("TP53", 0.8),
	}

	targets := defaultEngine().Rank(records, nil)
	require.Len(t, targets, 1)
	// Five biological processes plus two molecular functions.
	assert.Len(t, targets[0].Terms, 7)
	assert.NotContains(t, targets[0].Terms, "bp6")
}

func TestRouteOpenTargetsFanOut(t *testing.T) {
	records := []types.Record{
		{
			Source:    source.TagOpenTargets,
			ID:        "ENSG1",
			Relevance: 0.8,
			Attributes: map[string]any{
				types.AttrGeneSymbol:      "PCSK9",
				types.AttrOverallScore:    0.8,
				types.AttrGeneticScore:    0.7,
				types.AttrLiteratureScore: 0.4,
				types.AttrPathwaysScore:   0.0,
				types.AttrKnownDrugsScore: 0.9,
			},
		},
	}

	targets := defaultEngine().Rank(records, nil)
	require.Len(t, targets, 1)

	got := targets[0]
	assert.InDelta(t, 0.8, got.Score(types.CategoryCurated), 1e-9)
	assert.InDelta(t, 0.7, got.Score(types.CategoryGenetic), 1e-9)
	assert.InDelta(t, 0.4, got.Score(types.CategoryLiterature), 1e-9)
	// A zero sub-score contributes nothing.
	assert.Zero(t, got.Score(types.CategoryPathway))

	var hasDrugFinding bool
	for _, f := range got.Findings {
		if f == "Known drug target (OpenTargets known_drug score=0.90)" {
			hasDrugFinding = true
		}
	}
	assert.True(t, hasDrugFinding, "findings: %v", got.Findings)
}

func TestRoutePDBStructuralFinding(t *testing.T) {
	records := []types.Record{
		{
			Source:    source.TagPDB,
			ID:        "6LU7",
			Relevance: 0.85,
			Attributes: map[string]any{
				types.AttrProtein: "Mpro",
				types.AttrPDBID:   "6LU7",
			},
		},
		disgenetRecord("MPRO", 0.7),
	}

	targets := defaultEngine().Rank(records, nil)
	require.Len(t, targets, 1)
	assert.Equal(t, "MPRO", targets[0].ID)
	assert.InDelta(t, 0.85, targets[0].Score(types.CategoryStructural), 1e-9)
	assert.Contains(t, targets[0].Findings, "3D structure available (PDB: 6LU7)")
}

func TestRouteFindingsBounded(t *testing.T) {
	var records []types.Record
	for i := 0; i < 20; i++ {
		records = append(records, types.Record{
			Source:    source.TagGWAS,
			ID:        "g",
			Relevance: 0.9,
			Attributes: map[string]any{
				types.AttrGene:   "APOE",
				types.AttrPValue: 1e-8 / float64(i+1),
			},
		})
	}

	cfg := types.DefaultFusionConfig()
	targets := New(cfg).Rank(records, nil)
	require.Len(t, targets, 1)
	assert.LessOrEqual(t, len(targets[0].Findings), cfg.MaxFindings)
}

func TestOrderedSetDeduplicates(t *testing.T) {
	s := newOrderedSet()
	s.add("a")
	s.add("b")
	s.add("a")
	s.add("")
	assert.Equal(t, []string{"a", "b"}, s.list(0))
	assert.Equal(t, []string{"a"}, s.list(1))
}
