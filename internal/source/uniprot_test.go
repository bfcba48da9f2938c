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

// withUniProtStub points the adapter at a test server for one test.
func withUniProtStub(t *testing.T, handler http.Handler) *UniProtAdapter {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := uniprotAPIBase
	uniprotAPIBase = ts.URL
	t.Cleanup(func() { uniprotAPIBase = old })

	return &UniProtAdapter{Client: ts.Client()}
}

const uniprotEntryJSON = `{
	"results": [
		{
			"primaryAccession": "P01375",
			"proteinDescription": {"recommendedName": {"fullName": {"value": "Tumor necrosis factor"}}},
			"genes": [{"geneName": {"value": "TNF"}}],
			"comments": [
				{"commentType": "FUNCTION", "texts": [{"value": "Cytokine that binds to TNFRSF1A"}]},
				{"commentType": "DISEASE", "disease": {"description": "Involved in rheumatoid arthritis pathology"}}
			],
			"features": [{"type": "BINDING"}],
			"uniProtKBCrossReferences": [{"database": "PDB"}]
		},
		{
			"primaryAccession": "P99999",
			"proteinDescription": {},
			"genes": [{"geneName": {"value": "MYSTERY1"}}],
			"comments": [],
			"features": [],
			"uniProtKBCrossReferences": []
		}
	]
}`

func TestUniProtSearch(t *testing.T) {
	var gotQuery string
	a := withUniProtStub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		gotQuery = r.URL.Query().Get("query")
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		fmt.Fprint(w, uniprotEntryJSON)
	}))

	records, err := a.Search(context.Background(),
		Query{Disease: "rheumatoid arthritis"}, testSourceConfig())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Contains(t, gotQuery, "disease:rheumatoid arthritis")
	assert.Contains(t, gotQuery, "reviewed:true")

	tnf := records[0]
	assert.Equal(t, "P01375", tnf.ID)
	assert.Equal(t, "Tumor necrosis factor (TNF)", tnf.Title)
	assert.Equal(t, "TNF", tnf.AttrString(types.AttrGene))
	assert.Equal(t, "Cytokine that binds to TNFRSF1A", tnf.AttrString(types.AttrFunction))
	// 0.5 base + 0.3 matching disease comment + 0.1 binding + 0.1 PDB.
	assert.InDelta(t, 1.0, tnf.Relevance, 1e-9)

	bare := records[1]
	assert.Equal(t, "Unknown (MYSTERY1)", bare.Title)
	assert.InDelta(t, 0.5, bare.Relevance, 1e-9, "bare reviewed entry gets the base score")
	assert.Empty(t, bare.AttrString(types.AttrFunction))
}

func TestUniProtNonMatchingDiseaseComment(t *testing.T) {
	a := withUniProtStub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"results": [
				{
					"primaryAccession": "P1",
					"genes": [{"geneName": {"value": "G1"}}],
					"comments": [
						{"commentType": "DISEASE", "disease": {"description": "Some other syndrome"}}
					]
				}
			]
		}`)
	}))

	records, err := a.Search(context.Background(), Query{Disease: "lupus"}, testSourceConfig())
	require.NoError(t, err)
	require.Len(t, records, 1)
	// 0.5 base + 0.1 non-matching disease comment.
	assert.InDelta(t, 0.6, records[0].Relevance, 1e-9)
}

func TestUniProtQueryRestrictsToEntities(t *testing.T) {
	var gotQuery string
	a := withUniProtStub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		fmt.Fprint(w, `{"results": []}`)
	}))

	q := Query{Disease: "lupus", Entities: []string{"STAT4", "IRF5"}}
	_, err := a.Search(context.Background(), q, testSourceConfig())
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "gene:STAT4 OR gene:IRF5")
	assert.Contains(t, gotQuery, "disease:lupus")
}

func TestBuildUniProtQueryCapsEntities(t *testing.T) {
	var entities []string
	for i := 0; i < 15; i++ {
		entities = append(entities, fmt.Sprintf("G%d", i))
	}
	q := buildUniProtQuery(Query{Disease: "lupus", Entities: entities})
	assert.Equal(t, 10, strings.Count(q, "gene:"))
	assert.NotContains(t, q, "G10")
}

func TestUniProtServerErrorSurfaces(t *testing.T) {
	a := withUniProtStub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	_, err := a.Search(context.Background(), Query{Disease: "lupus"}, testSourceConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestUniProtFunctionTextTruncated(t *testing.T) {
	long := strings.Repeat("x", 300)
	a := withUniProtStub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"results": [
				{
					"primaryAccession": "P1",
					"genes": [{"geneName": {"value": "G1"}}],
					"comments": [
						{"commentType": "FUNCTION", "texts": [{"value": %q}]}
					]
				}
			]
		}`, long)
	}))

	records, err := a.Search(context.Background(), Query{Disease: "lupus"}, testSourceConfig())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Len(t, records[0].AttrString(types.AttrFunction), 200)
}
