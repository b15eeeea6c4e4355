// Package runapi exposes triage pass records and on-demand passes over HTTP.
package runapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/Popoo2020/Sentinel-AI-AutoTriage/internal/triage"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// TriageService defines the business operations runapi needs.
type TriageService interface {
	RunPass(ctx context.Context) (*triage.Run, error)
	GetRun(ctx context.Context, id string) (*triage.Run, bool, error)
	ListRuns(ctx context.Context, limit int) ([]*triage.Run, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	svc    TriageService
}

// New creates a new API handler.
func New(logger log.Logger, svc TriageService) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("triage service is required"))
	}
	return &API{
		logger: logger,
		svc:    svc,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/runs", a.handleListRuns)
		r.Post("/runs", a.handleTriggerPass)
		r.Get("/runs/{id}", a.handleGetRun)
	})
}

func (a *API) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("autotriage.run.id", id))

	run, ok, err := a.svc.GetRun(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get run", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	span.SetAttributes(attribute.String("autotriage.run.status", string(run.Status)))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(run)
}

func (a *API) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, `{"error":"invalid limit"}`, http.StatusBadRequest)
			return
		}
		limit = min(n, maxListLimit)
	}

	runs, err := a.svc.ListRuns(r.Context(), limit)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list runs")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []*triage.Run{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"runs": runs})
}

// handleTriggerPass runs a full triage pass synchronously and returns the
// finished run.
func (a *API) handleTriggerPass(w http.ResponseWriter, r *http.Request) {
	a.logger.Info(r.Context(), "pass triggered via api")

	run, err := a.svc.RunPass(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "triggered pass failed")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(run)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(run)
}
