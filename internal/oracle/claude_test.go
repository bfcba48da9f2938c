// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Use a tiny backoff so retry tests finish quickly.
	backoffBase = time.Millisecond
}

// claudeAnswer builds a Messages API response body with one text block.
func claudeAnswer(text string) string {
	resp := claudeResponse{
		Content: []claudeContent{{Type: "text", Text: text}},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

// withClaudeStub points the package at a test server for one test.
func withClaudeStub(t *testing.T, handler http.HandlerFunc) *ClaudeOracle {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	t.Cleanup(func() { claudeAPIURL = old })

	return &ClaudeOracle{
		APIKey: "test-key",
		Model:  "test-model",
		Client: ts.Client(),
	}
}

func TestClaudePlanRoundTrip(t *testing.T) {
	var gotReq claudeRequest
	var gotHeaders http.Header

	o := withClaudeStub(t, func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, claudeAnswer(`{
			"disease_name": "Alzheimer's disease",
			"disease_type": "neurodegenerative",
			"key_hypotheses": ["amyloid cascade"],
			"source_sequence": [
				{"source": "gwas", "rationale": "genetic evidence"}
			],
			"rationale": "start with genetics"
		}`))
	})

	plan, err := o.Plan(context.Background(), PlanInput{
		Disease: "alzheimers",
		Catalog: "gwas: GWAS Catalog",
	})
	require.NoError(t, err)

	assert.Equal(t, "Alzheimer's disease", plan.Disease)
	assert.Equal(t, []string{"amyloid cascade"}, plan.Hypotheses)
	require.Len(t, plan.Sequence, 1)
	assert.Equal(t, "gwas", plan.Sequence[0].Source)

	assert.Equal(t, "test-key", gotHeaders.Get("x-api-key"))
	assert.Equal(t, "2023-06-01", gotHeaders.Get("anthropic-version"))
	assert.Equal(t, "test-model", gotReq.Model)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[0].Content, "alzheimers")
	assert.Contains(t, gotReq.Messages[0].Content, "GWAS Catalog")
}

func TestClaudeSelectSourceParsesFencedAnswer(t *testing.T) {
	o := withClaudeStub(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, claudeAnswer("```json\n{\"source\": \"pubmed\", \"rationale\": \"literature next\"}\n```"))
	})

	sel, err := o.SelectSource(context.Background(), SelectInput{
		StateSummary: "Disease: lupus",
		Used:         "gwas",
		Available:    "pubmed, uniprot",
	})
	require.NoError(t, err)
	assert.Equal(t, "pubmed", sel.Source)
	assert.False(t, sel.IsDone())
}

func TestClaudeRetriesOnServerError(t *testing.T) {
	var calls int32
	o := withClaudeStub(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, claudeAnswer("a fine narrative"))
	})

	text, err := o.SynthesizeTarget(context.Background(), SynthesizeInput{
		Gene: "APOE", Disease: "alzheimers", Evidence: "- GWAS hit",
	})
	require.NoError(t, err)
	assert.Equal(t, "a fine narrative", text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClaudeExhaustsRetries(t *testing.T) {
	var calls int32
	o := withClaudeStub(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	o.MaxRetries = 2

	_, err := o.ConcludeRun(context.Background(), ConcludeInput{Disease: "lupus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	// 1 initial + 2 retries.
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClaudeNoTextContent(t *testing.T) {
	o := withClaudeStub(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"content": []}`)
	})
	o.MaxRetries = 1

	_, err := o.SynthesizeTarget(context.Background(), SynthesizeInput{Gene: "TNF"})
	assert.Error(t, err)
}

func TestClaudeContextCancelledDuringBackoff(t *testing.T) {
	old := backoffBase
	backoffBase = 500 * time.Millisecond
	defer func() { backoffBase = old }()

	o := withClaudeStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := o.SynthesizeTarget(ctx, SynthesizeInput{Gene: "TNF"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClaudeAnalyzeMalformedJSONIsError(t *testing.T) {
	o := withClaudeStub(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, claudeAnswer("I would rather describe this in prose."))
	})
	o.MaxRetries = 1

	_, err := o.Analyze(context.Background(), AnalyzeInput{Source: "gwas"})
	assert.Error(t, err)
}
