package history

import (
	"context"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/bryanwahyu/whatif/internal/domain/analysis"
	"github.com/bryanwahyu/whatif/internal/domain/history"
)

// DefaultLimit is how many persisted analyses seed a session view.
const DefaultLimit = 50

// DefaultIdleTTL is how long an unused session view is kept in memory.
const DefaultIdleTTL = 30 * time.Minute

// Sessions keeps one history view per user. A view is seeded from Repo on
// first use and then kept current with the Reconciler. Views idle for longer
// than IdleTTL are dropped by Prune. Safe for concurrent use.
type Sessions struct {
	Repo       analysis.Repository
	Reconciler *history.Reconciler
	Limit      int
	IdleTTL    time.Duration

	mu    sync.Mutex
	views map[string]*session
	now   func() time.Time
}

type session struct {
	mu       sync.Mutex
	seeded   bool
	view     history.View
	lastUsed time.Time
}

func NewSessions(repo analysis.Repository, rc *history.Reconciler, limit int) *Sessions {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Sessions{
		Repo:       repo,
		Reconciler: rc,
		Limit:      limit,
		IdleTTL:    DefaultIdleTTL,
		views:      map[string]*session{},
		now:        time.Now,
	}
}

func (s *Sessions) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *Sessions) get(userID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.views == nil {
		s.views = map[string]*session{}
	}
	ss, ok := s.views[userID]
	if !ok {
		ss = &session{}
		s.views[userID] = ss
	}
	ss.lastUsed = s.clock()
	return ss
}

func (s *Sessions) limit() int {
	if s.Limit <= 0 {
		return DefaultLimit
	}
	return s.Limit
}

// seed loads the persisted history once. Entries added while earlier seeds
// failed are reconciled back on top of the fetched rows. Caller holds ss.mu.
func (s *Sessions) seed(ctx context.Context, userID string, ss *session) error {
	if ss.seeded {
		return nil
	}
	if s.Repo == nil {
		ss.seeded = true
		return nil
	}
	items, err := s.Repo.Fetch(ctx, userID, s.limit())
	if err != nil {
		return &analysis.PersistenceFailure{Op: "fetch", Err: err}
	}
	view := history.View(items)
	for i := len(ss.view) - 1; i >= 0; i-- {
		view = s.Reconciler.Reconcile(view, ss.view[i])
	}
	ss.view = s.trim(view)
	ss.seeded = true
	return nil
}

func (s *Sessions) trim(view history.View) history.View {
	if len(view) > s.limit() {
		return view[:s.limit()]
	}
	return view
}

// View returns a copy of the user's current view.
func (s *Sessions) View(ctx context.Context, userID string) (history.View, error) {
	ss := s.get(userID)
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if err := s.seed(ctx, userID, ss); err != nil {
		return nil, err
	}
	return append(history.View(nil), ss.view...), nil
}

// Add reconciles result into the user's view and returns the new view. A
// failed seed is logged; the result is still added and seeding is retried on
// the next call.
func (s *Sessions) Add(ctx context.Context, userID string, result analysis.AnalysisResult) history.View {
	ss := s.get(userID)
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if err := s.seed(ctx, userID, ss); err != nil {
		klog.Warningf("user=%s history seed: %v", userID, err)
	}
	ss.view = s.trim(s.Reconciler.Reconcile(ss.view, result))
	return append(history.View(nil), ss.view...)
}

// Prune drops views unused for longer than idle and returns how many.
func (s *Sessions) Prune(idle time.Duration) int {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for userID, ss := range s.views {
		if now.Sub(ss.lastUsed) > idle {
			delete(s.views, userID)
			n++
		}
	}
	if n > 0 {
		klog.V(4).Infof("pruned %d idle history sessions", n)
	}
	return n
}

// Len returns how many views are held.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

// Run prunes idle views every IdleTTL/2 until stop is closed.
func (s *Sessions) Run(stop <-chan struct{}) {
	ttl := s.IdleTTL
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Prune(ttl)
		}
	}
}
