package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalysis "github.com/bryanwahyu/whatif/internal/application/analysis"
	apphistory "github.com/bryanwahyu/whatif/internal/application/history"
	"github.com/bryanwahyu/whatif/internal/application/pipeline"
	domai "github.com/bryanwahyu/whatif/internal/domain/ai"
	domain "github.com/bryanwahyu/whatif/internal/domain/analysis"
	"github.com/bryanwahyu/whatif/internal/domain/history"
	"github.com/bryanwahyu/whatif/internal/middleware"
)

type stubRunner struct{ err error }

func (s stubRunner) Run(_ context.Context, req pipeline.Request) (*domain.AnalysisResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.AnalysisResult{
		ComponentName: req.ComponentName,
		Analysis:      domain.ComponentAnalysis{Purpose: "p", UserFlows: "f", CoreUIUXElements: "e", UserFlowsChart: "graph TD\nA --> B"},
		Risks: []domain.Risk{
			{ID: "R1", Type: "Functional", Cause: "A", Severity: domain.SeverityHigh},
			{ID: "R2", Type: "Usability", Cause: "B", Severity: domain.SeverityLow},
		},
		Suggestions: []domain.Suggestion{{RiskID: "R1", Cause: "A", Remedy: "fix A"}},
		Checklist:   []string{"one"},
	}, nil
}

type stubRepo struct{ saveErr error }

func (s stubRepo) Save(context.Context, string, *domain.AnalysisResult) (string, time.Time, error) {
	if s.saveErr != nil {
		return "", time.Time{}, s.saveErr
	}
	return "uuid-1", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), nil
}

func (stubRepo) Fetch(context.Context, string, int) ([]domain.AnalysisResult, error) { return nil, nil }

type stubJournal struct{ recorded []*domain.Failure }

func (s *stubJournal) Record(_ context.Context, f *domain.Failure) error {
	s.recorded = append(s.recorded, f)
	return nil
}

func (s *stubJournal) ListByComponent(_ context.Context, userID, name string, _ int) ([]*domain.Failure, error) {
	var out []*domain.Failure
	for _, f := range s.recorded {
		if f.UserID == userID && f.ComponentName == name {
			out = append(out, f)
		}
	}
	return out, nil
}

type tokenVerifier struct{}

func (tokenVerifier) Verify(_ context.Context, token string) (string, error) {
	if token == "good" {
		return "user-1", nil
	}
	return "", errors.New("invalid")
}

type seq struct{ n int }

func (s *seq) NextID() string { s.n++; return fmt.Sprint(s.n) }

type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now() }

func newTestRouter(runner appanalysis.Runner, repo domain.Repository, opts Options) http.Handler {
	rc := &history.Reconciler{IDs: &seq{}, Clock: sysClock{}}
	svc := &appanalysis.Service{
		Pipeline: runner,
		Repo:     repo,
		Identity: tokenVerifier{},
		Sessions: apphistory.NewSessions(repo, rc, 10),
	}
	return NewRouter(svc, opts)
}

type response struct {
	Status   string              `json:"status"`
	Message  string              `json:"message"`
	Errors   map[string][]string `json:"errors"`
	Data     json.RawMessage     `json:"data"`
	Pairs    []domain.Pair       `json:"pairs"`
	Warnings []string            `json:"warnings"`
}

func do(t *testing.T, h http.Handler, method, path, body, token string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var resp response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec, resp
}

func TestAnalyzeSuccess(t *testing.T) {
	h := newTestRouter(stubRunner{}, stubRepo{}, Options{})
	rec, resp := do(t, h, http.MethodPost, "/v1/analyses", `{"componentName":"LoginForm"}`, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", resp.Status)
	require.Len(t, resp.Pairs, 2)
	assert.Nil(t, resp.Pairs[1].Suggestion)

	var data domain.AnalysisResult
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "LoginForm", data.ComponentName)
	assert.Empty(t, data.ID)
}

func TestAnalyzeAuthenticatedIsSaved(t *testing.T) {
	h := newTestRouter(stubRunner{}, stubRepo{}, Options{})
	rec, resp := do(t, h, http.MethodPost, "/v1/analyses", `{"componentName":"LoginForm"}`, "good")
	require.Equal(t, http.StatusOK, rec.Code)

	var data domain.AnalysisResult
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "uuid-1", data.ID)
	assert.NotNil(t, data.CreatedAt)

	rec, resp = do(t, h, http.MethodGet, "/v1/history", "", "good")
	require.Equal(t, http.StatusOK, rec.Code)
	var view []domain.AnalysisResult
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	require.Len(t, view, 1)
	assert.Equal(t, "uuid-1", view[0].ID)
}

func TestAnalyzeSaveFailureReturnsWarning(t *testing.T) {
	h := newTestRouter(stubRunner{}, stubRepo{saveErr: errors.New("db down")}, Options{})
	rec, resp := do(t, h, http.MethodPost, "/v1/analyses", `{"componentName":"LoginForm"}`, "good")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{appanalysis.WarnNotSaved}, resp.Warnings)
}

func TestAnalyzeInvalidInput(t *testing.T) {
	h := newTestRouter(stubRunner{}, stubRepo{}, Options{})

	rec, resp := do(t, h, http.MethodPost, "/v1/analyses", `{"componentName":"ab"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, MsgInvalidInput, resp.Message)
	assert.NotEmpty(t, resp.Errors["componentName"])

	rec, resp = do(t, h, http.MethodPost, "/v1/analyses", `not json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, resp.Errors["body"])
}

func TestAnalyzePipelineFailureHidesDetails(t *testing.T) {
	cause := &domain.GenerationFailure{Stage: pipeline.StageRisks, Cause: errors.New("secret upstream detail")}
	h := newTestRouter(stubRunner{err: cause}, stubRepo{}, Options{})

	rec, resp := do(t, h, http.MethodPost, "/v1/analyses", `{"componentName":"LoginForm"}`, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, MsgAnalysisFailed, resp.Message)
	assert.NotContains(t, rec.Body.String(), "secret upstream detail")
	assert.NotContains(t, rec.Body.String(), pipeline.StageRisks)
}

func TestAnalyzeQuotaExceededUsesGenericFailure(t *testing.T) {
	cause := &domain.GenerationFailure{Stage: pipeline.StageAnalyze, Cause: fmt.Errorf("%w: 429 rate limit reached", domai.ErrQuotaExceeded)}
	h := newTestRouter(stubRunner{err: cause}, stubRepo{}, Options{})
	before := middleware.GetMetrics()["quota_exceeded"].(uint64)

	rec, resp := do(t, h, http.MethodPost, "/v1/analyses", `{"componentName":"LoginForm"}`, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, MsgAnalysisFailed, resp.Message)
	assert.NotContains(t, rec.Body.String(), "rate limit")
	assert.Equal(t, before+1, middleware.GetMetrics()["quota_exceeded"])
}

func TestFailuresAreScopedAndRedacted(t *testing.T) {
	journal := &stubJournal{recorded: []*domain.Failure{
		{UserID: "user-1", ComponentName: "LoginForm", Stage: pipeline.StageRisks, Message: "generation failed in stage identify_risks: upstream detail"},
		{UserID: "user-2", ComponentName: "LoginForm", Stage: pipeline.StageAnalyze, Message: "other user"},
	}}
	rc := &history.Reconciler{IDs: &seq{}, Clock: sysClock{}}
	svc := &appanalysis.Service{
		Pipeline: stubRunner{},
		Identity: tokenVerifier{},
		Failures: journal,
		Sessions: apphistory.NewSessions(nil, rc, 10),
	}
	h := NewRouter(svc, Options{})

	rec, resp := do(t, h, http.MethodGet, "/v1/failures?component=LoginForm", "", "good")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "upstream detail")
	assert.NotContains(t, body, pipeline.StageRisks)
	assert.NotContains(t, body, "user-2")

	var list []map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, MsgAnalysisFailed, list[0]["message"])
}

func TestHistoryRequiresToken(t *testing.T) {
	h := newTestRouter(stubRunner{}, stubRepo{}, Options{})

	rec, _ := do(t, h, http.MethodGet, "/v1/history", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, resp := do(t, h, http.MethodGet, "/v1/history", "", "forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MsgUnauthorized, resp.Message)
}

func TestRateLimitedAnalyze(t *testing.T) {
	h := newTestRouter(stubRunner{}, stubRepo{}, Options{Limiter: middleware.NewRateLimiter(1, 1)})

	rec, _ := do(t, h, http.MethodPost, "/v1/analyses", `{"componentName":"LoginForm"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, h, http.MethodPost, "/v1/analyses", `{"componentName":"LoginForm"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestOperationalEndpoints(t *testing.T) {
	h := newTestRouter(stubRunner{}, stubRepo{}, Options{
		Ready: true,
		Checkers: map[string]middleware.HealthChecker{
			"ok": middleware.CheckFunc(func(context.Context) error { return nil }),
		},
	})
	for _, path := range []string{"/health", "/ready", "/live", "/metrics"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
