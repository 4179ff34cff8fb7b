package history

import (
	"strings"
	"time"

	"github.com/bryanwahyu/whatif/internal/domain/analysis"
)

// ProvisionalPrefix marks ids assigned before persistence.
const ProvisionalPrefix = "temp-"

// View is a user's history, most recent first, unique by id.
type View []analysis.AnalysisResult

// IDSource yields monotonically increasing ids.
type IDSource interface {
	NextID() string
}

// Clock interface supaya gampang ditest
type Clock interface {
	Now() time.Time
}

// Reconciler merges freshly produced results into a history view.
type Reconciler struct {
	IDs   IDSource
	Clock Clock
}

// IsProvisional reports whether id was assigned by a Reconciler.
func IsProvisional(id string) bool {
	return strings.HasPrefix(id, ProvisionalPrefix)
}

// Reconcile returns a new view with result at index 0. A missing id or
// timestamp is filled with provisional values and any entry sharing the id is
// dropped. Entries are matched by id only; two runs of the same component are
// distinct entries. existing is not modified and the tail keeps its order.
func (rc *Reconciler) Reconcile(existing View, result analysis.AnalysisResult) View {
	if result.ID == "" {
		result.ID = rc.provisionalID(existing)
	}
	if result.CreatedAt == nil {
		now := rc.Clock.Now()
		result.CreatedAt = &now
	}

	out := make(View, 0, len(existing)+1)
	out = append(out, result)
	for _, item := range existing {
		if item.ID == result.ID {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (rc *Reconciler) provisionalID(existing View) string {
	taken := make(map[string]struct{}, len(existing))
	for _, item := range existing {
		taken[item.ID] = struct{}{}
	}
	for {
		id := ProvisionalPrefix + rc.IDs.NextID()
		if _, ok := taken[id]; !ok {
			return id
		}
	}
}
