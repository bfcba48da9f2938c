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

// pubmedAPIBase is the NCBI E-utilities endpoint. Declared as a var so
// tests can substitute an httptest server.
var pubmedAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// PubMedAdapter queries PubMed through the NCBI E-utilities (R2.1).
// A search runs esearch for PMIDs, then esummary for article metadata.
// When candidate entities are supplied the query is narrowed per entity
// to find targeted disease-gene literature.
type PubMedAdapter struct {
	Client  *http.Client
	Limiter *httputil.Limiter

	// APIKey raises the NCBI request budget; optional.
	APIKey string
	// Email identifies the client to NCBI per their usage policy.
	Email string
}

// Tag returns the adapter identifier.
func (a *PubMedAdapter) Tag() string { return TagPubMed }

// Search queries PubMed for disease-target literature. With entities
// present, each of the first five gets its own narrowed query; the
// combined results are returned in query order.
func (a *PubMedAdapter) Search(ctx context.Context, q Query, cfg types.SourceConfig) ([]types.Record, error) {
	if len(q.Entities) == 0 {
		return a.searchOne(ctx, buildPubMedTerm(q.Disease, ""), cfg)
	}

	entities := q.Entities
	if len(entities) > 5 {
		entities = entities[:5]
	}

	var all []types.Record
	for _, entity := range entities {
		records, err := a.searchOne(ctx, buildPubMedTerm(q.Disease, entity), cfg)
		if err != nil {
			return all, err
		}
		all = append(all, records...)
	}
	return all, nil
}

// buildPubMedTerm assembles an E-utilities query restricted to human
// studies mentioning therapeutic targets.
func buildPubMedTerm(disease, entity string) string {
	parts := []string{fmt.Sprintf("%q[Title/Abstract]", disease)}
	if entity != "" {
		parts = append(parts, fmt.Sprintf("%q[Title/Abstract]", entity))
	}
	parts = append(parts,
		`"humans"[MeSH Terms]`,
		`"therapeutic target"[Text Word] OR "drug target"[Text Word] OR "protein target"[Text Word]`,
	)
	return strings.Join(parts, " AND ")
}

func (a *PubMedAdapter) searchOne(ctx context.Context, term string, cfg types.SourceConfig) ([]types.Record, error) {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	ids, err := a.esearch(ctx, term, maxResults, cfg)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return a.esummary(ctx, ids, cfg)
}

// esearch returns PMIDs for the term, relevance-sorted.
func (a *PubMedAdapter) esearch(ctx context.Context, term string, maxResults int, cfg types.SourceConfig) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {term},
		"retmax":  {strconv.Itoa(maxResults)},
		"retmode": {"json"},
		"sort":    {"relevance"},
	}
	a.identify(params)

	var sr pubmedSearchResponse
	if err := a.getJSON(ctx, pubmedAPIBase+"/esearch.fcgi?"+params.Encode(), cfg, &sr); err != nil {
		return nil, err
	}
	return sr.ESearchResult.IDList, nil
}

// esummary fetches article metadata for the PMIDs and converts each to a
// Record. Relevance is position-based: esearch already sorted by
// relevance, so earlier PMIDs score higher.
func (a *PubMedAdapter) esummary(ctx context.Context, ids []string, cfg types.SourceConfig) ([]types.Record, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"json"},
	}
	a.identify(params)

	var sr pubmedSummaryResponse
	if err := a.getJSON(ctx, pubmedAPIBase+"/esummary.fcgi?"+params.Encode(), cfg, &sr); err != nil {
		return nil, err
	}

	total := len(ids)
	var records []types.Record
	for i, pmid := range ids {
		raw, ok := sr.Result[pmid]
		if !ok {
			continue
		}
		// The result object also carries a "uids" array; per-PMID keys
		// hold the documents.
		var doc pubmedDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}

		relevance := 1.0
		if total > 1 {
			relevance = 1.0 - float64(i)/float64(total-1)*0.7
		}

		attrs := map[string]any{"pmid": pmid}
		if year := parsePubYear(doc.PubDate); year > 0 {
			attrs[types.AttrYear] = year
		}

		records = append(records, types.Record{
			Source:     TagPubMed,
			ID:         pmid,
			Title:      doc.Title,
			Relevance:  relevance,
			Attributes: attrs,
		})
	}
	return records, nil
}

// identify attaches the NCBI identification parameters when configured.
func (a *PubMedAdapter) identify(params url.Values) {
	if a.APIKey != "" {
		params.Set("api_key", a.APIKey)
	}
	if a.Email != "" {
		params.Set("email", a.Email)
	}
}

// parsePubYear extracts the leading year from a pubdate like "2023 Mar 14".
func parsePubYear(pubdate string) int {
	fields := strings.Fields(pubdate)
	if len(fields) == 0 {
		return 0
	}
	year, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return year
}

func (a *PubMedAdapter) getJSON(ctx context.Context, reqURL string, cfg types.SourceConfig, out any) error {
	if err := a.Limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 0)
	if err != nil {
		return fmt.Errorf("E-utilities request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("E-utilities returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing E-utilities response: %w", err)
	}
	return nil
}

// NCBI E-utilities JSON structures.
type pubmedSearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedSummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type pubmedDoc struct {
	Title   string `json:"title"`
	PubDate string `json:"pubdate"`
}
