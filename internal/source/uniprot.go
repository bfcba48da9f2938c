// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/target-engine/internal/httputil"
	"github.com/pdiddy/target-engine/pkg/types"
)

// uniprotAPIBase is the UniProtKB search endpoint. Declared as a var so
// tests can substitute an httptest server.
var uniprotAPIBase = "https://rest.uniprot.org/uniprotkb"

// UniProtAdapter queries UniProtKB for reviewed protein entries (R2.3).
// Relevance is a heuristic over entry quality: disease annotations that
// mention the query disease score highest, with smaller contributions
// from binding sites and available PDB structures.
type UniProtAdapter struct {
	Client  *http.Client
	Limiter *httputil.Limiter
}

// Tag returns the adapter identifier.
func (a *UniProtAdapter) Tag() string { return TagUniProt }

// Search queries UniProtKB for reviewed entries tied to the disease,
// optionally restricted to the candidate genes.
func (a *UniProtAdapter) Search(ctx context.Context, q Query, cfg types.SourceConfig) ([]types.Record, error) {
	query := buildUniProtQuery(q)

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	params := url.Values{
		"query":  {query},
		"format": {"json"},
		"size":   {strconv.Itoa(maxResults)},
	}

	if err := a.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uniprotAPIBase+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("UniProt request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("UniProt returned HTTP %d", resp.StatusCode)
	}

	var ur uniprotResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return nil, fmt.Errorf("parsing UniProt response: %w", err)
	}

	var records []types.Record
	for _, entry := range ur.Results {
		gene := entry.geneName()
		name := entry.proteinName()

		attrs := map[string]any{
			types.AttrAccession: entry.PrimaryAccession,
			types.AttrGene:      gene,
		}
		if fn := entry.functionText(); fn != "" {
			attrs[types.AttrFunction] = fn
		}

		records = append(records, types.Record{
			Source:     TagUniProt,
			ID:         entry.PrimaryAccession,
			Title:      fmt.Sprintf("%s (%s)", name, gene),
			Relevance:  entry.relevance(q.Disease),
			Attributes: attrs,
		})
	}
	return records, nil
}

// buildUniProtQuery restricts to reviewed entries and, when candidates are
// known, to their gene symbols.
func buildUniProtQuery(q Query) string {
	disease := fmt.Sprintf("(disease:%s) AND (reviewed:true)", q.Disease)
	if len(q.Entities) == 0 {
		return disease
	}

	entities := q.Entities
	if len(entities) > 10 {
		entities = entities[:10]
	}
	genes := make([]string, len(entities))
	for i, e := range entities {
		genes[i] = "gene:" + e
	}
	return fmt.Sprintf("(%s) AND %s", strings.Join(genes, " OR "), disease)
}

// UniProtKB API JSON structures.
type uniprotResponse struct {
	Results []uniprotEntry `json:"results"`
}

type uniprotEntry struct {
	PrimaryAccession   string `json:"primaryAccession"`
	ProteinDescription struct {
		RecommendedName struct {
			FullName struct {
				Value string `json:"value"`
			} `json:"fullName"`
		} `json:"recommendedName"`
	} `json:"proteinDescription"`
	Genes []struct {
		GeneName struct {
			Value string `json:"value"`
		} `json:"geneName"`
	} `json:"genes"`
	Comments []uniprotComment `json:"comments"`
	Features []struct {
		Type string `json:"type"`
	} `json:"features"`
	CrossReferences []struct {
		Database string `json:"database"`
	} `json:"uniProtKBCrossReferences"`
}

type uniprotComment struct {
	CommentType string `json:"commentType"`
	Texts       []struct {
		Value string `json:"value"`
	} `json:"texts"`
	Disease struct {
		Description string `json:"description"`
	} `json:"disease"`
}

func (e uniprotEntry) geneName() string {
	if len(e.Genes) == 0 {
		return ""
	}
	return e.Genes[0].GeneName.Value
}

func (e uniprotEntry) proteinName() string {
	if v := e.ProteinDescription.RecommendedName.FullName.Value; v != "" {
		return v
	}
	return "Unknown"
}

func (e uniprotEntry) functionText() string {
	for _, c := range e.Comments {
		if c.CommentType == "FUNCTION" && len(c.Texts) > 0 {
			text := c.Texts[0].Value
			if len(text) > 200 {
				text = text[:200]
			}
			return text
		}
	}
	return ""
}

// relevance scores an entry: 0.5 base for a reviewed entry, up to +0.3
// for disease annotations matching the query, +0.1 for binding sites,
// +0.1 for a PDB structure, capped at 1.0.
func (e uniprotEntry) relevance(disease string) float64 {
	score := 0.5
	lower := strings.ToLower(disease)

	for _, c := range e.Comments {
		if c.CommentType != "DISEASE" {
			continue
		}
		if strings.Contains(strings.ToLower(c.Disease.Description), lower) {
			score += 0.3
		} else {
			score += 0.1
		}
	}

	for _, f := range e.Features {
		if f.Type == "BINDING" {
			score += 0.1
			break
		}
	}

	for _, x := range e.CrossReferences {
		if x.Database == "PDB" {
			score += 0.1
			break
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
