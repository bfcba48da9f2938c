// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/target-engine/pkg/types"
)

func TestNewRunState(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{name: "valid query", query: "type 2 diabetes"},
		{name: "query is trimmed", query: "  lupus  "},
		{name: "empty query", query: "", wantErr: true},
		{name: "whitespace query", query: "   \t", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := newRunState(tt.query, types.DiscoveryConfig{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSpace(tt.query), st.Query)
			assert.Equal(t, PhasePlanning, st.Phase)
			assert.True(t, st.ContinueSearch)
			assert.Equal(t, 5, st.MaxIterations, "zero config falls back to default")
		})
	}
}

func TestAddCandidate(t *testing.T) {
	st, err := newRunState("q", types.DiscoveryConfig{})
	require.NoError(t, err)

	assert.True(t, st.AddCandidate("apoe"))
	assert.False(t, st.AddCandidate("APOE"), "identity is case-insensitive")
	assert.False(t, st.AddCandidate("  apoe  "))
	assert.False(t, st.AddCandidate(""))
	assert.True(t, st.AddCandidate("TREM2"))

	assert.Equal(t, []string{"APOE", "TREM2"}, st.Candidates)
}

func TestTopCandidates(t *testing.T) {
	st, err := newRunState("q", types.DiscoveryConfig{})
	require.NoError(t, err)
	for _, g := range []string{"A", "B", "C"} {
		st.AddCandidate(g)
	}

	assert.Equal(t, []string{"A", "B"}, st.TopCandidates(2))
	assert.Equal(t, []string{"A", "B", "C"}, st.TopCandidates(10))
	assert.Equal(t, []string{"A", "B", "C"}, st.TopCandidates(0))
}

func TestDiseaseNameFallsBackToQuery(t *testing.T) {
	st, err := newRunState("alzheimers", types.DiscoveryConfig{})
	require.NoError(t, err)
	assert.Equal(t, "alzheimers", st.DiseaseName())

	st.Disease = "Alzheimer's disease"
	assert.Equal(t, "Alzheimer's disease", st.DiseaseName())
}

func TestAddStepTruncatesAndNumbers(t *testing.T) {
	st, err := newRunState("q", types.DiscoveryConfig{})
	require.NoError(t, err)

	long := strings.Repeat("x", 2*traceTextLimit)
	st.AddStep(StepPlan, "first", long, long)
	st.AddStep(StepSearch, "second", "short", "")

	require.Len(t, st.Trace, 2)
	assert.Equal(t, 1, st.Trace[0].Number)
	assert.Equal(t, 2, st.Trace[1].Number)
	assert.Len(t, st.Trace[0].Input, traceTextLimit+len("..."))
	assert.Equal(t, "short", st.Trace[1].Input)
}

func TestAllRecordsPreservesInvocationOrder(t *testing.T) {
	st, err := newRunState("q", types.DiscoveryConfig{})
	require.NoError(t, err)

	st.Records["b"] = []types.Record{{ID: "b1"}, {ID: "b2"}}
	st.Records["a"] = []types.Record{{ID: "a1"}}
	st.Used = []string{"b", "a"}

	all := st.AllRecords()
	require.Len(t, all, 3)
	assert.Equal(t, "b1", all[0].ID)
	assert.Equal(t, "b2", all[1].ID)
	assert.Equal(t, "a1", all[2].ID)
	assert.Equal(t, 3, st.RecordCount())
}

func TestSummaryIncludesStateFacts(t *testing.T) {
	st, err := newRunState("lupus", types.DiscoveryConfig{MaxIterations: 4})
	require.NoError(t, err)
	st.Used = []string{"gwas"}
	st.Iterations = 1
	st.AddCandidate("STAT4")
	st.Plan.Hypotheses = []string{"interferon signaling"}

	s := st.Summary()
	assert.Contains(t, s, "lupus")
	assert.Contains(t, s, "1 of 4")
	assert.Contains(t, s, "gwas")
	assert.Contains(t, s, "STAT4")
	assert.Contains(t, s, "interferon signaling")
}
