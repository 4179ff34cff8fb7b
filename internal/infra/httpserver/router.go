package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"k8s.io/klog/v2"

	appanalysis "github.com/bryanwahyu/whatif/internal/application/analysis"
	domai "github.com/bryanwahyu/whatif/internal/domain/ai"
	domain "github.com/bryanwahyu/whatif/internal/domain/analysis"
	"github.com/bryanwahyu/whatif/internal/middleware"
)

// Messages shown to callers.
const (
	MsgInvalidInput   = "Invalid input."
	MsgAnalysisFailed = "An AI-powered analysis step failed. Please try again."
	MsgUnauthorized   = "Sign in to view your analysis history."
	MsgInternal       = "Something went wrong. Please try again."
)

// Options configures the router surroundings.
type Options struct {
	CORSOrigins []string
	Limiter     *middleware.RateLimiter
	Checkers    map[string]middleware.HealthChecker
	Ready       bool
}

type Router struct {
	svc *appanalysis.Service
}

func NewRouter(svc *appanalysis.Service, opts Options) http.Handler {
	r := &Router{svc: svc}
	mux := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/ready", middleware.ReadinessHandler(opts.Ready))
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Use(middleware.BearerToken)
		rt.Group(func(g chi.Router) {
			if opts.Limiter != nil {
				g.Use(middleware.RateLimitMiddleware(opts.Limiter))
			}
			g.Post("/analyses", r.wrap(r.handleAnalyze))
		})
		rt.Group(func(g chi.Router) {
			g.Use(middleware.RequireBearer)
			g.Get("/history", r.wrap(r.handleHistory))
			g.Get("/failures", r.wrap(r.handleFailures))
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

type envelope struct {
	Status   string              `json:"status"`
	Message  string              `json:"message,omitempty"`
	Errors   map[string][]string `json:"errors,omitempty"`
	Data     any                 `json:"data,omitempty"`
	Pairs    []domain.Pair       `json:"pairs,omitempty"`
	Warnings []string            `json:"warnings,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, envelope{Status: "error", Message: MsgInvalidInput, Errors: verr.Fields})
		case errors.Is(err, domain.ErrAnalysisFailed):
			writeJSON(w, http.StatusBadGateway, envelope{Status: "error", Message: MsgAnalysisFailed})
		case errors.Is(err, domain.ErrUnauthenticated):
			writeJSON(w, http.StatusUnauthorized, envelope{Status: "error", Message: MsgUnauthorized})
		default:
			klog.Errorf("%s %s: %v", req.Method, req.URL.Path, err)
			writeJSON(w, http.StatusInternalServerError, envelope{Status: "error", Message: MsgInternal})
		}
	}
}

// POST /v1/analyses
// Body: {"componentName": "...", "componentCode": "..."}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ComponentName string `json:"componentName"`
		ComponentCode string `json:"componentCode"`
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, domain.MaxCodeBytes+64<<10))
	if err := dec.Decode(&body); err != nil {
		verr := &domain.ValidationError{}
		verr.Add("body", "Request body must be a JSON object.")
		return verr
	}

	done := middleware.AnalysisStarted()
	out, err := r.svc.Analyze(req.Context(), appanalysis.AnalyzeCommand{
		ComponentName: middleware.SanitizeString(body.ComponentName),
		ComponentCode: middleware.SanitizeCode(body.ComponentCode),
		IDToken:       middleware.GetTokenFromContext(req.Context()),
	})
	var verr *domain.ValidationError
	done(err != nil && !errors.As(err, &verr))
	if errors.Is(err, domai.ErrQuotaExceeded) {
		klog.Warningf("analysis component=%q: provider quota exceeded", body.ComponentName)
		middleware.IncrementQuotaExceeded()
	}
	if err != nil {
		return err
	}
	if len(out.Warnings) > 0 {
		middleware.IncrementPersistFailures()
	}

	return writeJSON(w, http.StatusOK, envelope{
		Status:   "success",
		Data:     out.Result,
		Pairs:    out.Pairs,
		Warnings: out.Warnings,
	})
}

// GET /v1/history
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	view, err := r.svc.History(req.Context(), middleware.GetTokenFromContext(req.Context()))
	if err != nil {
		return err
	}
	if view == nil {
		view = []domain.AnalysisResult{}
	}
	return writeJSON(w, http.StatusOK, envelope{Status: "success", Data: view})
}

// failureView is what a caller sees of a recorded failure. Stage and cause
// stay in the logs and the journal.
type failureView struct {
	ComponentName string    `json:"componentName"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"createdAt"`
}

// GET /v1/failures?component=&limit=
func (r *Router) handleFailures(w http.ResponseWriter, req *http.Request) error {
	name := middleware.SanitizeString(req.URL.Query().Get("component"))
	if name == "" {
		verr := &domain.ValidationError{}
		verr.Add("component", "Component name is required.")
		return verr
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.svc.FailuresFor(req.Context(), middleware.GetTokenFromContext(req.Context()), name, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	views := make([]failureView, 0, len(list))
	for _, f := range list {
		views = append(views, failureView{ComponentName: f.ComponentName, Message: MsgAnalysisFailed, CreatedAt: f.CreatedAt})
	}
	return writeJSON(w, http.StatusOK, envelope{Status: "success", Data: views})
}
