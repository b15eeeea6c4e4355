package triage

import (
	"context"
	"fmt"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/Popoo2020/Sentinel-AI-AutoTriage/internal/incident"
)

// Service is the business boundary for triage passes. It owns pass
// lifecycle, per-incident failure isolation, audit records, and delivery of
// the pass summary to the notifier.
type Service struct {
	incidents IncidentStore
	runs      RunStore
	engine    *Engine
	logger    log.Logger
	metrics   *Metrics
	notifier  Notifier
}

// NewService creates a new triage service. metrics and notifier may be nil.
func NewService(incidents IncidentStore, runs RunStore, engine *Engine, logger log.Logger, metrics *Metrics, notifier Notifier) *Service {
	return &Service{
		incidents: incidents,
		runs:      runs,
		engine:    engine,
		logger:    logger,
		metrics:   metrics,
		notifier:  notifier,
	}
}

// RunPass performs one full pass over all currently open incidents. Every
// per-incident failure is contained; the returned error is non-nil only when
// the incident list itself could not be fetched.
func (s *Service) RunPass(ctx context.Context) (*Run, error) {
	start := time.Now()
	run := &Run{
		ID:        ulid.Make().String(),
		Status:    RunInProgress,
		Model:     s.engine.provider.Model(),
		StartedAt: start,
	}

	L := s.logger.With("run_id", run.ID)
	s.putRun(ctx, L, run)

	records, err := s.incidents.ListIncidents(ctx)
	if err != nil {
		L.Error(ctx, err, "failed to list incidents")
		run.Status = RunFailed
		run.Error = fmt.Sprintf("list incidents: %v", err)
		s.finish(ctx, L, run, start)
		return run, fmt.Errorf("list incidents: %w", err)
	}

	open := make([]*incident.Record, 0, len(records))
	for _, rec := range records {
		if rec.CurrentStatus().IsOpen() {
			open = append(open, rec)
		}
	}
	L.Info(ctx, "fetched incidents", "total", len(records), "open", len(open))

	for i, rec := range open {
		o := s.triageOne(ctx, rec)
		run.Seen++
		switch o.Action {
		case OutcomeUpdated:
			run.Updated++
		case OutcomeNoChange:
			run.NoChange++
		case OutcomeSkipped:
			run.Skipped++
		default:
			run.Failed++
		}
		run.Outcomes = append(run.Outcomes, *o)

		if err := s.runs.AppendOutcome(ctx, run.ID, i, o); err != nil {
			L.Error(ctx, err, "failed to record outcome", "incident_id", o.IncidentID)
		}
	}

	run.Status = RunComplete
	s.finish(ctx, L, run, start)

	if s.notifier != nil {
		if err := s.notifier.Send(ctx, run); err != nil {
			L.Error(ctx, err, "failed to send pass notification")
		}
	}

	L.Info(ctx, "pass complete",
		"seen", run.Seen,
		"updated", run.Updated,
		"no_change", run.NoChange,
		"skipped", run.Skipped,
		"failed", run.Failed,
		"duration", run.Duration,
	)
	return run, nil
}

// GetRun retrieves a pass audit record by ID.
func (s *Service) GetRun(ctx context.Context, id string) (*Run, bool, error) {
	return s.runs.GetRun(ctx, id)
}

// ListRuns retrieves the most recent pass audit records.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	return s.runs.ListRuns(ctx, limit)
}

// triageOne runs the engine for one incident, converting a panic anywhere in
// the per-incident body into a failed outcome so the pass keeps going.
func (s *Service) triageOne(ctx context.Context, rec *incident.Record) (o *Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, fmt.Errorf("panic: %v", r), "incident processing panicked", "incident_id", rec.ID)
			o = &Outcome{
				IncidentID:    rec.ID,
				Title:         incident.NewSummary(rec).Title,
				CurrentStatus: string(rec.CurrentStatus()),
				Action:        OutcomeFailed,
				Error:         fmt.Sprintf("panic: %v", r),
				CreatedAt:     time.Now(),
			}
		}
	}()
	return s.engine.Triage(ctx, rec)
}

func (s *Service) finish(ctx context.Context, L log.Logger, run *Run, start time.Time) {
	run.CompletedAt = time.Now()
	run.Duration = time.Since(start).Seconds()
	s.putRun(ctx, L, run)
	if s.metrics != nil {
		s.metrics.ObservePass(run)
	}
}

func (s *Service) putRun(ctx context.Context, L log.Logger, run *Run) {
	if err := s.runs.PutRun(ctx, run); err != nil {
		L.Error(ctx, err, "failed to persist run")
	}
}
