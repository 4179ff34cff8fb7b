package analysis

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelateUnmatchedRiskGetsNoRemedy(t *testing.T) {
	risks := []Risk{
		{Type: CategoryFunctional, Cause: "A", Severity: SeverityHigh},
		{Type: CategoryUsability, Cause: "B", Severity: SeverityLow},
	}
	suggestions := []Suggestion{{Type: CategoryFunctional, Cause: "A", Remedy: "fix A"}}

	pairs := Correlate(risks, suggestions)
	require.Len(t, pairs, 2)
	assert.Equal(t, "A", pairs[0].Risk.Cause)
	assert.Equal(t, "fix A", pairs[0].Remedy())
	assert.Equal(t, "B", pairs[1].Risk.Cause)
	assert.Nil(t, pairs[1].Suggestion)
	assert.Equal(t, NoRemedyProvided, pairs[1].Remedy())
}

func TestCorrelatePrefersRiskID(t *testing.T) {
	risks := []Risk{
		{ID: "R1", Cause: "Slow network", Severity: SeverityMedium},
		{ID: "R2", Cause: "Slow network", Severity: SeverityLow},
	}
	suggestions := []Suggestion{
		{RiskID: "R2", Cause: "Slow network", Remedy: "second"},
		{RiskID: "R1", Cause: "slow network, reworded", Remedy: "first"},
	}
	pairs := Correlate(risks, suggestions)
	assert.Equal(t, "first", pairs[0].Remedy())
	assert.Equal(t, "second", pairs[1].Remedy())
}

func TestCorrelateFirstMatchWinsAndOrderKept(t *testing.T) {
	risks := []Risk{{Cause: "X"}, {Cause: "Y"}, {Cause: "X"}}
	suggestions := []Suggestion{
		{Cause: "X", Remedy: "x1"},
		{Cause: "X", Remedy: "x2"},
		{Cause: "Z", Remedy: "orphan"},
	}
	pairs := Correlate(risks, suggestions)
	require.Len(t, pairs, 3)
	assert.Equal(t, []string{"x1", NoRemedyProvided, "x1"}, []string{pairs[0].Remedy(), pairs[1].Remedy(), pairs[2].Remedy()})
}

func TestCorrelateCauseIsExact(t *testing.T) {
	pairs := Correlate([]Risk{{Cause: "Empty input"}}, []Suggestion{{Cause: "empty input", Remedy: "r"}})
	assert.Equal(t, NoRemedyProvided, pairs[0].Remedy())
}

func TestCorrelateEmpty(t *testing.T) {
	assert.Empty(t, Correlate(nil, []Suggestion{{Cause: "a", Remedy: "b"}}))
}

func TestRenderText(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	r := &AnalysisResult{
		ID:            "abc",
		ComponentName: "LoginForm",
		Analysis:      validAnalysis(),
		Risks: []Risk{
			{ID: "R1", Type: CategoryFunctional, Cause: "A", Severity: SeverityHigh},
			{ID: "R2", Type: CategoryUsability, Cause: "B", Severity: SeverityLow},
		},
		Suggestions: []Suggestion{{RiskID: "R1", Cause: "A", Remedy: "fix A"}},
		Checklist:   []string{"Validate inputs", "Show errors"},
		CreatedAt:   &created,
	}
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "Analysis: LoginForm")
	assert.Contains(t, out, "Created:  2025-03-01 10:00:00 UTC")
	assert.Contains(t, out, "What-If Scenarios")
	assert.Contains(t, out, "1. [High] Functional: A\n   Remedy: fix A")
	assert.Contains(t, out, "2. [Low] Usability: B\n   Remedy: "+NoRemedyProvided)
	assert.Contains(t, out, "Developer Checklist\n-------------------\n1. Validate inputs\n2. Show errors\n")
}
