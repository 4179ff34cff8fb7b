package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/whatif/internal/domain/analysis"
)

func openTestDB(t *testing.T) *HistoryRepository {
	t.Helper()
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(ctx, db))
	// idempotent
	require.NoError(t, Migrate(ctx, db))
	return NewHistoryRepository(db)
}

func sample(name string) *analysis.AnalysisResult {
	return &analysis.AnalysisResult{
		ComponentName: name,
		Analysis: analysis.ComponentAnalysis{
			Purpose:          "Authenticate users",
			UserFlows:        "Enter credentials then submit",
			CoreUIUXElements: "Inputs and a button",
			UserFlowsChart:   "graph TD\nA[Open] --> B[Submit]",
		},
		Risks:       []analysis.Risk{{ID: "R1", Type: "Functional", Cause: "Empty password", Severity: analysis.SeverityHigh}},
		Suggestions: []analysis.Suggestion{{RiskID: "R1", Type: "Functional", Cause: "Empty password", Remedy: "Require it"}},
		Checklist:   []string{"Validate inputs"},
	}
}

func TestHistoryRepositorySaveAndFetch(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	id1, at1, err := repo.Save(ctx, "u1", sample("LoginForm"))
	require.NoError(t, err)
	id2, at2, err := repo.Save(ctx, "u1", sample("SearchBar"))
	require.NoError(t, err)
	_, _, err = repo.Save(ctx, "u2", sample("Other"))
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	assert.True(t, at2.After(at1))

	list, err := repo.Fetch(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, id2, list[0].ID)
	assert.Equal(t, "SearchBar", list[0].ComponentName)
	assert.Equal(t, id1, list[1].ID)
	require.NotNil(t, list[1].CreatedAt)
	assert.True(t, at1.Equal(*list[1].CreatedAt))

	got := list[1]
	assert.Equal(t, "Authenticate users", got.Analysis.Purpose)
	assert.Equal(t, "R1", got.Risks[0].ID)
	assert.Equal(t, "Require it", got.Suggestions[0].Remedy)
	assert.Equal(t, []string{"Validate inputs"}, got.Checklist)
	assert.True(t, got.Persisted())

	limited, err := repo.Fetch(ctx, "u1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, id2, limited[0].ID)

	none, err := repo.Fetch(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFailureRepositoryRecordAndList(t *testing.T) {
	hist := openTestDB(t)
	repo := NewFailureRepository(hist.db)
	ctx := context.Background()

	first := &analysis.Failure{UserID: "u1", ComponentName: "LoginForm", Stage: "identify_risks", Kind: "generation", Message: "bad json",
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	second := &analysis.Failure{UserID: "u1", ComponentName: "LoginForm", Stage: "analyze", Kind: "contract", Message: "empty name",
		CreatedAt: time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.Record(ctx, first))
	require.NoError(t, repo.Record(ctx, second))
	require.NoError(t, repo.Record(ctx, &analysis.Failure{UserID: "u1", ComponentName: "Other", Stage: "analyze", Kind: "generation", Message: "x"}))
	assert.NotZero(t, first.ID)

	list, err := repo.ListByComponent(ctx, "u1", "LoginForm", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "analyze", list[0].Stage)
	assert.Equal(t, "identify_risks", list[1].Stage)
}

func TestFailureRepositoryListIsScopedToUser(t *testing.T) {
	hist := openTestDB(t)
	repo := NewFailureRepository(hist.db)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, &analysis.Failure{UserID: "alice", ComponentName: "LoginForm", Stage: "identify_risks",
		Kind: "generation", Message: "generation failed in stage identify_risks: upstream detail"}))
	require.NoError(t, repo.Record(ctx, &analysis.Failure{ComponentName: "LoginForm", Stage: "analyze", Kind: "generation", Message: "x"}))

	list, err := repo.ListByComponent(ctx, "mallory", "LoginForm", 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	// unauthenticated runs are journaled as "-" and never listed for a user
	list, err = repo.ListByComponent(ctx, "alice", "LoginForm", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].UserID)
}
