// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the target-engine pipeline.
// Implements: prd010-sources (Record, R2.1-R2.4);
//
//	prd011-discovery (RunState surface, R1.1-R1.3);
//	prd012-ranking (Target, R4.1-R4.5).
//
// See docs/ARCHITECTURE.md § Data Structures.
package types

// Well-known Record attribute keys. Adapters populate these; the fusion
// engine reads them. No key is guaranteed to be present, and readers must
// tolerate absence (AttrString and friends return zero values).
const (
	// AttrGene is the gene symbol reported by structured sources
	// (GWAS Catalog, UniProt).
	AttrGene = "gene"

	// AttrGeneSymbol is the gene symbol reported by association sources
	// (DisGeNET, Gene Ontology, OpenTargets).
	AttrGeneSymbol = "gene_symbol"

	// AttrProtein is the protein symbol on structural records (PDB).
	AttrProtein = "protein"

	// AttrProteinTarget is the protein symbol on compound records (PubChem).
	AttrProteinTarget = "protein_target"

	// AttrProteinsMentioned lists gene symbols a literature record mentions.
	AttrProteinsMentioned = "proteins_mentioned"

	// AttrAbstract is the abstract text of a literature record.
	AttrAbstract = "abstract"

	// AttrPValue is the association p-value on genetic records.
	AttrPValue = "pvalue"

	// AttrYear is the publication year of a literature record.
	AttrYear = "year"

	// AttrFunction is the UniProt function annotation text.
	AttrFunction = "function"

	// AttrAccession is the UniProt accession.
	AttrAccession = "accession"

	// AttrPDBID is the PDB structure identifier.
	AttrPDBID = "pdb_id"

	// AttrPathwayName is the pathway name on Reactome records.
	AttrPathwayName = "pathway_name"

	// AttrGenesInPathway lists gene symbols participating in a pathway.
	AttrGenesInPathway = "genes_in_pathway"

	// AttrBiologicalProcesses lists GO biological process terms.
	AttrBiologicalProcesses = "biological_processes"

	// AttrMolecularFunctions lists GO molecular function terms.
	AttrMolecularFunctions = "molecular_functions"

	// AttrCuratedScore is the source-native association score on
	// curated-association records (DisGeNET gene-disease score).
	AttrCuratedScore = "curated_score"

	// AttrPublicationCount is the supporting publication count on
	// curated-association records.
	AttrPublicationCount = "n_publications"

	// OpenTargets aggregator sub-scores. Fan out into the matching
	// evidence categories during fusion.
	AttrOverallScore    = "overall_score"
	AttrGeneticScore    = "genetic_score"
	AttrLiteratureScore = "literature_score"
	AttrPathwaysScore   = "pathways_score"
	AttrKnownDrugsScore = "known_drugs_score"
)

// Record is one normalized result returned by a source adapter. Per
// prd010-sources R2.1, each record carries the tag of the adapter that
// produced it, an adapter-local identifier, a relevance score in [0,1],
// and an open attribute map keyed by the Attr* constants above.
// Records are immutable once created.
type Record struct {
	// Source is the tag of the adapter that produced this record
	// (e.g. "gwas", "pubmed").
	Source string `json:"source" yaml:"source"`

	// ID is the adapter-local identifier (PMID, accession, PDB ID).
	ID string `json:"id" yaml:"id"`

	// Title is a human-readable one-line description of the record.
	Title string `json:"title" yaml:"title"`

	// Relevance is a value between 0.0 and 1.0 with adapter-local meaning.
	Relevance float64 `json:"relevance" yaml:"relevance"`

	// Attributes holds source-specific key/value metadata. Keys follow the
	// Attr* constants; values are strings, numbers, or string slices.
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// AttrString returns the named attribute as a string, or "" when the
// attribute is absent or not a string.
func (r Record) AttrString(key string) string {
	if v, ok := r.Attributes[key].(string); ok {
		return v
	}
	return ""
}

// AttrFloat returns the named attribute as a float64. Integer values are
// widened; anything else reports ok=false.
func (r Record) AttrFloat(key string) (float64, bool) {
	switch v := r.Attributes[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// AttrStrings returns the named attribute as a string slice. Both []string
// and []any-of-string values are accepted; absence yields nil.
func (r Record) AttrStrings(key string) []string {
	switch v := r.Attributes[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
