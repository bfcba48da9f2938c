// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Category identifies one evidence dimension a record can contribute to.
// Per prd012-ranking R2.1, every source tag owns exactly one category;
// the OpenTargets aggregator additionally fans its sub-scores out across
// genetic, literature, and pathway.
type Category string

const (
	CategoryCurated      Category = "curated"
	CategoryGenetic      Category = "genetic"
	CategoryLiterature   Category = "literature"
	CategoryAnnotation   Category = "annotation"
	CategoryFunctional   Category = "functional"
	CategoryPathway      Category = "pathway"
	CategoryStructural   Category = "structural"
	CategoryDruggability Category = "druggability"
)

// Categories lists all evidence categories in weight order. The slice is
// shared; callers must not mutate it.
var Categories = []Category{
	CategoryCurated,
	CategoryGenetic,
	CategoryLiterature,
	CategoryAnnotation,
	CategoryFunctional,
	CategoryPathway,
	CategoryStructural,
	CategoryDruggability,
}

// Target is one ranked candidate entity produced by the fusion engine.
// Immutable after construction; the ranking key is Overall, descending,
// with ID as the deterministic tie-break (prd012-ranking R4.4).
type Target struct {
	// ID is the uppercased gene/protein symbol identifying the entity.
	ID string `json:"id" yaml:"id"`

	// Name is a human-readable display name when a source provided one;
	// otherwise it equals ID.
	Name string `json:"name" yaml:"name"`

	// Scores holds the per-category evidence scores, each in [0,1].
	// Categories with no evidence are absent.
	Scores map[Category]float64 `json:"scores" yaml:"scores"`

	// Overall is the fixed weighted sum of the category scores, in [0,1].
	Overall float64 `json:"overall" yaml:"overall"`

	// Sources lists the tags of the adapters that contributed evidence.
	Sources []string `json:"sources" yaml:"sources"`

	// Findings is a bounded list of human-readable evidence summaries.
	Findings []string `json:"findings,omitempty" yaml:"findings,omitempty"`

	// Pathways lists related pathway names (Reactome).
	Pathways []string `json:"pathways,omitempty" yaml:"pathways,omitempty"`

	// Terms lists related functional ontology terms (Gene Ontology).
	Terms []string `json:"terms,omitempty" yaml:"terms,omitempty"`

	// Synthesis is the optional oracle narrative for this target. It is
	// descriptive only and never affects the ranking.
	Synthesis string `json:"synthesis,omitempty" yaml:"synthesis,omitempty"`
}

// Score returns the category score, or 0 when the category has no evidence.
func (t Target) Score(c Category) float64 {
	return t.Scores[c]
}
