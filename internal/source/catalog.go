// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"fmt"
	"strings"
)

// Tier ranks a source's importance for planning (R4.2).
type Tier int

const (
	// TierCore sources should appear in nearly every plan.
	TierCore Tier = 1
	// TierRecommended sources add strong corroborating evidence.
	TierRecommended Tier = 2
	// TierSupplementary sources refine already-identified candidates.
	TierSupplementary Tier = 3
)

// Info describes one source for planning prompts and presentation (R4.1).
type Info struct {
	Tag         string   `json:"tag" yaml:"tag"`
	Name        string   `json:"name" yaml:"name"`
	Tier        Tier     `json:"tier" yaml:"tier"`
	Purpose     string   `json:"purpose" yaml:"purpose"`
	Provides    []string `json:"provides" yaml:"provides"`
	Limitations []string `json:"limitations" yaml:"limitations"`

	// AcceptsEntities marks adapters that take candidate entity lists in
	// addition to the disease name.
	AcceptsEntities bool `json:"accepts_entities" yaml:"accepts_entities"`
}

// Catalog returns the static source registry (R4.1). The orchestrator
// consults it for planning; only sources with a registered adapter are
// actually invoked.
func Catalog() []Info {
	return []Info{
		{
			Tag:         TagDisGeNET,
			Name:        "DisGeNET",
			Tier:        TierCore,
			Purpose:     "Curated gene-disease associations with confidence scores",
			Provides:    []string{"gene symbols", "association scores", "publication counts"},
			Limitations: []string{"free tier rate limits", "coverage skewed toward well-studied diseases"},
		},
		{
			Tag:         TagPubMed,
			Name:        "PubMed",
			Tier:        TierCore,
			Purpose:     "Biomedical literature mentioning disease-target relationships",
			Provides:    []string{"publication titles", "abstracts", "publication years"},
			Limitations: []string{"entity mentions require text matching", "no structured scores"},
			AcceptsEntities: true,
		},
		{
			Tag:         TagUniProt,
			Name:        "UniProt",
			Tier:        TierCore,
			Purpose:     "Reviewed protein annotations including disease involvement",
			Provides:    []string{"protein names", "function annotations", "disease comments"},
			Limitations: []string{"disease text search is approximate"},
			AcceptsEntities: true,
		},
		{
			Tag:         TagGO,
			Name:        "Gene Ontology",
			Tier:        TierCore,
			Purpose:     "Functional annotation of candidate genes",
			Provides:    []string{"biological processes", "molecular functions"},
			Limitations: []string{"needs candidate entities first"},
			AcceptsEntities: true,
		},
		{
			Tag:         TagGWAS,
			Name:        "GWAS Catalog",
			Tier:        TierRecommended,
			Purpose:     "Genome-wide association studies linking variants to traits",
			Provides:    []string{"gene symbols", "p-values", "risk alleles"},
			Limitations: []string{"trait names must match EFO terms", "reported genes may be intergenic"},
		},
		{
			Tag:         TagReactome,
			Name:        "Reactome",
			Tier:        TierRecommended,
			Purpose:     "Pathway context for candidate genes",
			Provides:    []string{"pathway names", "pathway membership"},
			Limitations: []string{"needs candidate entities first"},
			AcceptsEntities: true,
		},
		{
			Tag:         TagOpenTargets,
			Name:        "OpenTargets",
			Tier:        TierRecommended,
			Purpose:     "Aggregated target-disease association scores across data types",
			Provides:    []string{"overall scores", "genetic/literature/pathway sub-scores", "known drug flags"},
			Limitations: []string{"aggregate scores overlap other sources"},
			AcceptsEntities: true,
		},
		{
			Tag:         TagPDB,
			Name:        "PDB",
			Tier:        TierSupplementary,
			Purpose:     "3D structure availability for candidate proteins",
			Provides:    []string{"structure identifiers"},
			Limitations: []string{"needs candidate entities first"},
			AcceptsEntities: true,
		},
		{
			Tag:         TagPubChem,
			Name:        "PubChem",
			Tier:        TierSupplementary,
			Purpose:     "Known bioactive compounds indicating druggability",
			Provides:    []string{"compound counts", "bioassay activity"},
			Limitations: []string{"needs candidate entities first"},
			AcceptsEntities: true,
		},
	}
}

// Lookup returns the catalog entry for tag, or ok=false for an unknown tag.
func Lookup(tag string) (Info, bool) {
	for _, info := range Catalog() {
		if info.Tag == tag {
			return info, true
		}
	}
	return Info{}, false
}

// Describe formats catalog entries for a planning prompt (R4.3).
func Describe(infos []Info) string {
	var b strings.Builder
	for _, info := range infos {
		fmt.Fprintf(&b, "- %s (tag: %s, tier: %d)\n", info.Name, info.Tag, info.Tier)
		fmt.Fprintf(&b, "  Purpose: %s\n", info.Purpose)
		fmt.Fprintf(&b, "  Provides: %s\n", strings.Join(info.Provides, ", "))
		fmt.Fprintf(&b, "  Limitations: %s\n", strings.Join(info.Limitations, ", "))
	}
	return b.String()
}
