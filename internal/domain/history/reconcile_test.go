package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/whatif/internal/domain/analysis"
)

type seqIDs struct {
	n    int
	seed []string
}

func (s *seqIDs) NextID() string {
	if s.n < len(s.seed) {
		id := s.seed[s.n]
		s.n++
		return id
	}
	s.n++
	return fmt.Sprintf("gen%d", s.n)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func newReconciler(ids ...string) *Reconciler {
	return &Reconciler{IDs: &seqIDs{seed: ids}, Clock: fixedClock{now}}
}

func TestReconcileFillsProvisionalFields(t *testing.T) {
	rc := newReconciler("a1")
	view := rc.Reconcile(nil, analysis.AnalysisResult{ComponentName: "LoginForm"})

	require.Len(t, view, 1)
	assert.Equal(t, "temp-a1", view[0].ID)
	assert.True(t, IsProvisional(view[0].ID))
	require.NotNil(t, view[0].CreatedAt)
	assert.Equal(t, now, *view[0].CreatedAt)
}

func TestReconcileProvisionalIDIsUnique(t *testing.T) {
	rc := newReconciler("dup", "dup", "fresh")
	existing := View{{ID: "temp-dup", ComponentName: "Other", CreatedAt: at(-time.Hour)}}

	view := rc.Reconcile(existing, analysis.AnalysisResult{ComponentName: "LoginForm"})
	require.Len(t, view, 2)
	assert.Equal(t, "temp-fresh", view[0].ID)
	assert.Equal(t, "temp-dup", view[1].ID)
}

func TestReconcileReplacesSameIDAndKeepsTailOrder(t *testing.T) {
	rc := newReconciler()
	existing := View{
		{ID: "b", ComponentName: "B", CreatedAt: at(-time.Minute)},
		{ID: "a", ComponentName: "A", CreatedAt: at(-2 * time.Minute)},
		{ID: "c", ComponentName: "C", CreatedAt: at(-3 * time.Minute)},
	}
	updated := analysis.AnalysisResult{ID: "a", ComponentName: "A2", CreatedAt: at(0)}

	view := rc.Reconcile(existing, updated)
	require.Len(t, view, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{view[0].ID, view[1].ID, view[2].ID})
	assert.Equal(t, "A2", view[0].ComponentName)

	// input untouched
	assert.Equal(t, "b", existing[0].ID)
	assert.Len(t, existing, 3)
}

func TestReconcileKeepsUnsavedRunsOfSameComponent(t *testing.T) {
	rc := newReconciler()
	existing := View{
		{ID: "temp-x", ComponentName: "LoginForm", CreatedAt: at(-30 * time.Second)},
		{ID: "temp-y", ComponentName: "SearchBar", CreatedAt: at(-30 * time.Second)},
	}
	saved := analysis.AnalysisResult{ID: "uuid-1", ComponentName: "LoginForm", CreatedAt: at(0)}

	view := rc.Reconcile(existing, saved)
	ids := make([]string, len(view))
	for i, v := range view {
		ids[i] = v.ID
	}
	assert.Equal(t, []string{"uuid-1", "temp-x", "temp-y"}, ids)
}

func TestReconcileProvisionalKeepsEarlierProvisional(t *testing.T) {
	rc := newReconciler("n")
	existing := View{{ID: "temp-x", ComponentName: "LoginForm", CreatedAt: at(-time.Second)}}

	view := rc.Reconcile(existing, analysis.AnalysisResult{ComponentName: "LoginForm"})
	require.Len(t, view, 2)
	assert.Equal(t, "temp-n", view[0].ID)
}

func TestReconcileIsIdempotentOnID(t *testing.T) {
	rc := newReconciler()
	r := analysis.AnalysisResult{ID: "id-1", ComponentName: "LoginForm", CreatedAt: at(0)}
	once := rc.Reconcile(nil, r)
	twice := rc.Reconcile(once, r)
	assert.Equal(t, once, twice)
}
