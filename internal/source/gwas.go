// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/target-engine/internal/httputil"
	"github.com/pdiddy/target-engine/pkg/types"
)

// gwasAPIBase is the GWAS Catalog REST endpoint. Declared as a var so
// tests can substitute an httptest server.
var gwasAPIBase = "https://www.ebi.ac.uk/gwas/rest/api"

// GWASAdapter queries the GWAS Catalog for genetic associations (R2.2).
// It resolves the disease to an EFO trait, then fetches the trait's
// associations and converts each p-value to a relevance score.
type GWASAdapter struct {
	Client  *http.Client
	Limiter *httputil.Limiter
}

// Tag returns the adapter identifier.
func (a *GWASAdapter) Tag() string { return TagGWAS }

// Search resolves the disease to a trait and returns its associations.
func (a *GWASAdapter) Search(ctx context.Context, q Query, cfg types.SourceConfig) ([]types.Record, error) {
	traitURI, err := a.findTrait(ctx, q.Disease, cfg)
	if err != nil {
		return nil, err
	}
	if traitURI == "" {
		return nil, nil
	}

	assocs, err := a.fetchAssociations(ctx, traitURI, cfg)
	if err != nil {
		return nil, err
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}
	if len(assocs) > maxResults {
		assocs = assocs[:maxResults]
	}

	var records []types.Record
	for _, assoc := range assocs {
		gene := assoc.geneName()
		if gene == "" {
			gene = "Unknown"
		}
		records = append(records, types.Record{
			Source:    TagGWAS,
			ID:        assoc.ID,
			Title:     fmt.Sprintf("Association: %s - %s", gene, q.Disease),
			Relevance: pvalueToScore(assoc.PValue),
			Attributes: map[string]any{
				types.AttrGene:   gene,
				types.AttrPValue: assoc.PValue,
				"risk_allele":    assoc.StrongestAllele,
			},
		})
	}
	return records, nil
}

// pvalueToScore converts an association p-value to a relevance score.
// 5e-8 is the genome-wide significance threshold.
func pvalueToScore(p float64) float64 {
	switch {
	case p <= 5e-8:
		return 1.0
	case p <= 1e-5:
		return 0.8
	case p <= 1e-3:
		return 0.6
	default:
		return 0.3
	}
}

// findTrait searches EFO traits by name and returns the first match's
// association link, or "" when the trait is unknown.
func (a *GWASAdapter) findTrait(ctx context.Context, disease string, cfg types.SourceConfig) (string, error) {
	reqURL := gwasAPIBase + "/efoTraits/search/findByEfoTrait?trait=" + url.QueryEscape(disease)

	var tr gwasTraitResponse
	if err := a.getJSON(ctx, reqURL, cfg, &tr); err != nil {
		return "", err
	}
	if len(tr.Embedded.EfoTraits) == 0 {
		return "", nil
	}
	return tr.Embedded.EfoTraits[0].Links.Associations.Href, nil
}

// fetchAssociations retrieves the associations linked from a trait.
func (a *GWASAdapter) fetchAssociations(ctx context.Context, assocURL string, cfg types.SourceConfig) ([]gwasAssociation, error) {
	// Trait links point at the live API host; rewrite onto the configured
	// base so tests exercise the full two-request flow.
	if i := strings.Index(assocURL, "/efoTraits/"); i >= 0 {
		assocURL = gwasAPIBase + assocURL[i:]
	}

	var ar gwasAssociationResponse
	if err := a.getJSON(ctx, assocURL, cfg, &ar); err != nil {
		return nil, err
	}
	return ar.Embedded.Associations, nil
}

func (a *GWASAdapter) getJSON(ctx context.Context, reqURL string, cfg types.SourceConfig, out any) error {
	if err := a.Limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 0)
	if err != nil {
		return fmt.Errorf("GWAS Catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GWAS Catalog returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing GWAS Catalog response: %w", err)
	}
	return nil
}

// GWAS Catalog API JSON structures.
type gwasTraitResponse struct {
	Embedded struct {
		EfoTraits []struct {
			Trait string `json:"trait"`
			Links struct {
				Associations struct {
					Href string `json:"href"`
				} `json:"associations"`
			} `json:"_links"`
		} `json:"efoTraits"`
	} `json:"_embedded"`
}

type gwasAssociationResponse struct {
	Embedded struct {
		Associations []gwasAssociation `json:"associations"`
	} `json:"_embedded"`
}

type gwasAssociation struct {
	ID              string     `json:"id"`
	PValue          float64    `json:"pvalue"`
	StrongestAllele string     `json:"strongestAllele"`
	Loci            []gwasLocus `json:"loci"`
}

type gwasLocus struct {
	AuthorReportedGenes []struct {
		GeneName string `json:"geneName"`
	} `json:"authorReportedGenes"`
}

func (a gwasAssociation) geneName() string {
	if len(a.Loci) == 0 || len(a.Loci[0].AuthorReportedGenes) == 0 {
		return ""
	}
	return a.Loci[0].AuthorReportedGenes[0].GeneName
}
