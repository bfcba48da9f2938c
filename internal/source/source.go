// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source queries biomedical databases and returns normalized
// evidence records. Implements: prd010-sources (R1-R5);
//
//	docs/ARCHITECTURE § Sources.
package source

import (
	"context"

	"github.com/pdiddy/target-engine/pkg/types"
)

// Source tags. Every adapter reports exactly one of these, and the fusion
// engine's category routing is keyed on them.
const (
	TagDisGeNET    = "disgenet"
	TagGWAS        = "gwas"
	TagPubMed      = "pubmed"
	TagUniProt     = "uniprot"
	TagGO          = "go"
	TagReactome    = "reactome"
	TagPDB         = "pdb"
	TagPubChem     = "pubchem"
	TagOpenTargets = "opentargets"
)

// Query holds the parameters for one adapter invocation (R1.1, R1.2).
// Disease is always set; Entities is populated only for adapters whose
// catalog entry declares AcceptsEntities.
type Query struct {
	Disease  string
	Entities []string
}

// Adapter searches a single biomedical database. Each adapter (GWAS
// Catalog, PubMed, UniProt, ...) implements this interface per the
// Strategy pattern (R1.4). Implementations normalize their native
// response into Records with a relevance score in [0,1] and attribute
// keys from pkg/types.
type Adapter interface {
	Tag() string
	Search(ctx context.Context, q Query, cfg types.SourceConfig) ([]types.Record, error)
}
