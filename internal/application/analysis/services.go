package analysis

import (
	"context"
	"errors"
	"strings"

	"k8s.io/klog/v2"

	"github.com/bryanwahyu/whatif/internal/application"
	apphistory "github.com/bryanwahyu/whatif/internal/application/history"
	"github.com/bryanwahyu/whatif/internal/application/pipeline"
	domain "github.com/bryanwahyu/whatif/internal/domain/analysis"
	"github.com/bryanwahyu/whatif/internal/domain/history"
)

// Runner runs the generation pipeline.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*domain.AnalysisResult, error)
}

// Warnings surfaced next to a successful result.
const (
	WarnNotSaved    = "Analysis completed but could not be saved to your history."
	WarnNotArchived = "Analysis saved but the report archive is unavailable."
)

// Service implements the analysis use cases. Repo, Identity, Archive,
// Failures and Sessions are optional; a nil collaborator disables its step.
// Service is safe for concurrent use.
type Service struct {
	Pipeline Runner
	Repo     domain.Repository
	Identity domain.Verifier
	Archive  domain.Archive
	Failures domain.FailureJournal
	Sessions *apphistory.Sessions
	Clock    application.Clock
}

//
// ==== USE CASES ====
//

// AnalyzeCommand is the caller input for one run.
type AnalyzeCommand struct {
	ComponentName string
	ComponentCode string
	IDToken       string
}

// AnalyzeResult is a finished run.
type AnalyzeResult struct {
	Result   *domain.AnalysisResult `json:"data"`
	Pairs    []domain.Pair          `json:"pairs"`
	History  history.View           `json:"history,omitempty"`
	Warnings []string               `json:"warnings,omitempty"`
	UserID   string                 `json:"-"`
}

// Analyze validates the command, runs the pipeline, then persists and
// archives the result when the caller is authenticated. Only validation and
// pipeline failures are returned as errors.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (AnalyzeResult, error) {
	name := strings.TrimSpace(cmd.ComponentName)
	if err := domain.ValidateRequest(name, cmd.ComponentCode); err != nil {
		return AnalyzeResult{}, err
	}

	userID := s.authenticate(ctx, cmd.IDToken)

	result, err := s.Pipeline.Run(ctx, pipeline.Request{ComponentName: name, ComponentCode: cmd.ComponentCode})
	if err != nil {
		s.recordFailure(ctx, userID, name, err)
		if !errors.Is(err, domain.ErrAnalysisFailed) {
			err = errors.Join(domain.ErrAnalysisFailed, err)
		}
		return AnalyzeResult{}, err
	}

	out := AnalyzeResult{Result: result, UserID: userID}
	if userID != "" {
		out.Warnings = s.persist(ctx, userID, result)
		if s.Sessions != nil {
			out.History = s.Sessions.Add(ctx, userID, *result)
		}
	}
	out.Pairs = domain.Correlate(result.Risks, result.Suggestions)
	return out, nil
}

// History returns the caller's session history view.
func (s *Service) History(ctx context.Context, idToken string) (history.View, error) {
	userID := s.authenticate(ctx, idToken)
	if userID == "" || s.Sessions == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.Sessions.View(ctx, userID)
}

// FailuresFor lists the caller's own recorded failures for a component,
// newest first. The caller must be authenticated.
func (s *Service) FailuresFor(ctx context.Context, idToken, componentName string, limit int) ([]*domain.Failure, error) {
	userID := s.authenticate(ctx, idToken)
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if s.Failures == nil {
		return nil, nil
	}
	return s.Failures.ListByComponent(ctx, userID, componentName, limit)
}

// authenticate returns the verified user id, or "" when the token is absent
// or invalid. A bad token never fails the run.
func (s *Service) authenticate(ctx context.Context, token string) string {
	token = strings.TrimSpace(token)
	if token == "" || s.Identity == nil {
		return ""
	}
	uid, err := s.Identity.Verify(ctx, token)
	if err != nil {
		klog.Warningf("%v; continuing unauthenticated", &domain.IdentityFailure{Err: err})
		return ""
	}
	return uid
}

// persist saves then archives result. Failures become warnings.
func (s *Service) persist(ctx context.Context, userID string, result *domain.AnalysisResult) []string {
	if s.Repo == nil {
		return nil
	}
	id, createdAt, err := s.Repo.Save(ctx, userID, result)
	if err != nil {
		klog.Warningf("user=%s component=%q: %v", userID, result.ComponentName, &domain.PersistenceFailure{Op: "save", Err: err})
		return []string{WarnNotSaved}
	}
	result.ID = id
	result.CreatedAt = &createdAt

	if s.Archive == nil {
		return nil
	}
	url, err := s.Archive.Put(ctx, userID, result)
	if err != nil {
		klog.Warningf("user=%s id=%s: %v", userID, id, &domain.PersistenceFailure{Op: "archive", Err: err})
		return []string{WarnNotArchived}
	}
	klog.V(4).Infof("archived analysis id=%s url=%s", id, url)
	return nil
}

func (s *Service) recordFailure(ctx context.Context, userID, name string, err error) {
	if s.Failures == nil {
		return
	}
	stage, _ := domain.StageOf(err)
	kind := "generation"
	var cv *domain.ContractViolation
	if errors.As(err, &cv) {
		kind = "contract"
	}
	f := &domain.Failure{
		UserID:        userID,
		ComponentName: name,
		Stage:         stage,
		Kind:          kind,
		Message:       err.Error(),
	}
	if s.Clock != nil {
		f.CreatedAt = s.Clock.Now()
	}
	if rerr := s.Failures.Record(ctx, f); rerr != nil {
		klog.Warningf("record stage failure: %v", rerr)
	}
}
