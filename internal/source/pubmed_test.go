// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/target-engine/pkg/types"
)

// withPubMedStub points the adapter at a test server for one test.
func withPubMedStub(t *testing.T, handler http.Handler) *PubMedAdapter {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := pubmedAPIBase
	pubmedAPIBase = ts.URL
	t.Cleanup(func() { pubmedAPIBase = old })

	return &PubMedAdapter{Client: ts.Client()}
}

func pubmedStubMux(t *testing.T, idsByTerm func(term string) []string) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/esearch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pubmed", r.URL.Query().Get("db"))
		assert.Equal(t, "relevance", r.URL.Query().Get("sort"))
		ids := idsByTerm(r.URL.Query().Get("term"))
		fmt.Fprintf(w, `{"esearchresult": {"idlist": [%s]}}`, quoteJoin(ids))
	})
	mux.HandleFunc("/esummary.fcgi", func(w http.ResponseWriter, r *http.Request) {
		ids := strings.Split(r.URL.Query().Get("id"), ",")
		docs := []string{fmt.Sprintf(`"uids": [%s]`, quoteJoin(ids))}
		for _, id := range ids {
			docs = append(docs, fmt.Sprintf(
				`%q: {"title": "Article %s", "pubdate": "2022 Mar 14"}`, id, id))
		}
		fmt.Fprintf(w, `{"result": {%s}}`, strings.Join(docs, ", "))
	})
	return mux
}

func quoteJoin(ids []string) string {
	quoted := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		quoted = append(quoted, fmt.Sprintf("%q", id))
	}
	return strings.Join(quoted, ", ")
}

func TestPubMedSearchWithoutEntities(t *testing.T) {
	var terms []string
	a := withPubMedStub(t, pubmedStubMux(t, func(term string) []string {
		terms = append(terms, term)
		return []string{"111", "222", "333"}
	}))

	records, err := a.Search(context.Background(), Query{Disease: "lupus"}, testSourceConfig())
	require.NoError(t, err)
	require.Len(t, records, 3)

	// One broad query with the MeSH and text-word restrictions.
	require.Len(t, terms, 1)
	assert.Contains(t, terms[0], `"lupus"[Title/Abstract]`)
	assert.Contains(t, terms[0], `"humans"[MeSH Terms]`)
	assert.Contains(t, terms[0], `"therapeutic target"[Text Word]`)

	// Position-based relevance: 1.0 down to 0.3 across the batch.
	assert.InDelta(t, 1.0, records[0].Relevance, 1e-9)
	assert.InDelta(t, 0.65, records[1].Relevance, 1e-9)
	assert.InDelta(t, 0.3, records[2].Relevance, 1e-9)

	assert.Equal(t, "Article 111", records[0].Title)
	year, ok := records[0].AttrFloat(types.AttrYear)
	require.True(t, ok)
	assert.Equal(t, 2022, int(year))
}

func TestPubMedSearchPerEntityQueries(t *testing.T) {
	var terms []string
	a := withPubMedStub(t, pubmedStubMux(t, func(term string) []string {
		terms = append(terms, term)
		return []string{fmt.Sprintf("%d", 100+len(terms))}
	}))

	q := Query{
		Disease:  "lupus",
		Entities: []string{"STAT4", "IRF5", "TNF", "IL6", "BLK", "EXTRA7"},
	}
	records, err := a.Search(context.Background(), q, testSourceConfig())
	require.NoError(t, err)

	// Only the first five entities get a targeted query.
	require.Len(t, terms, 5)
	assert.Contains(t, terms[0], `"STAT4"[Title/Abstract]`)
	assert.Contains(t, terms[4], `"BLK"[Title/Abstract]`)
	for _, term := range terms {
		assert.NotContains(t, term, "EXTRA7")
	}
	assert.Len(t, records, 5)
}

func TestPubMedEmptyResultIsNotAnError(t *testing.T) {
	a := withPubMedStub(t, pubmedStubMux(t, func(string) []string { return nil }))

	records, err := a.Search(context.Background(), Query{Disease: "x"}, testSourceConfig())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPubMedIdentificationParams(t *testing.T) {
	mux := pubmedStubMux(t, func(string) []string { return []string{"1"} })
	var gotAPIKey, gotEmail string
	wrapped := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.URL.Query().Get("api_key")
		gotEmail = r.URL.Query().Get("email")
		mux.ServeHTTP(w, r)
	})

	a := withPubMedStub(t, wrapped)
	a.APIKey = "ncbi-key"
	a.Email = "dev@example.com"

	_, err := a.Search(context.Background(), Query{Disease: "x"}, testSourceConfig())
	require.NoError(t, err)
	assert.Equal(t, "ncbi-key", gotAPIKey)
	assert.Equal(t, "dev@example.com", gotEmail)
}

func TestParsePubYear(t *testing.T) {
	assert.Equal(t, 2023, parsePubYear("2023 Mar 14"))
	assert.Equal(t, 1998, parsePubYear("1998"))
	assert.Equal(t, 0, parsePubYear(""))
	assert.Equal(t, 0, parsePubYear("Spring 2020"))
}

func TestBuildPubMedTerm(t *testing.T) {
	broad := buildPubMedTerm("lupus", "")
	assert.NotContains(t, broad, "STAT4")

	targeted := buildPubMedTerm("lupus", "STAT4")
	assert.Contains(t, targeted, `"lupus"[Title/Abstract]`)
	assert.Contains(t, targeted, `"STAT4"[Title/Abstract]`)
}
