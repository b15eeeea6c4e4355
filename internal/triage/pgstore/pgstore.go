// Package pgstore provides a PostgreSQL implementation of triage.RunStore.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Popoo2020/Sentinel-AI-AutoTriage/internal/triage"
)

var tracer = otel.Tracer("github.com/Popoo2020/Sentinel-AI-AutoTriage/internal/triage/pgstore")

//go:embed schema.sql
var schema string

// Store persists triage pass records in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema on the given pool and returns a ready Store. The
// caller owns the pool's lifecycle.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const runColumns = `id, status, model, started_at, completed_at, duration_s,
	seen, updated, no_change, skipped, failed, error`

// PutRun inserts or updates a run record (upsert on runs only; outcomes are
// written through AppendOutcome).
func (s *Store) PutRun(ctx context.Context, run *triage.Run) error {
	ctx, span := tracer.Start(ctx, "pgstore.PutRun", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPSERT"),
	))
	defer span.End()

	var completedAt *time.Time
	if !run.CompletedAt.IsZero() {
		completedAt = &run.CompletedAt
	}

	query := `INSERT INTO runs (
		id, status, model, started_at, completed_at, duration_s,
		seen, updated, no_change, skipped, failed, error
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	ON CONFLICT (id) DO UPDATE SET
		status       = EXCLUDED.status,
		model        = EXCLUDED.model,
		completed_at = EXCLUDED.completed_at,
		duration_s   = EXCLUDED.duration_s,
		seen         = EXCLUDED.seen,
		updated      = EXCLUDED.updated,
		no_change    = EXCLUDED.no_change,
		skipped      = EXCLUDED.skipped,
		failed       = EXCLUDED.failed,
		error        = EXCLUDED.error`

	_, err := s.pool.Exec(ctx, query,
		run.ID, string(run.Status), run.Model, run.StartedAt, completedAt, run.Duration,
		run.Seen, run.Updated, run.NoChange, run.Skipped, run.Failed, run.Error,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upsert run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID, with its outcomes attached.
func (s *Store) GetRun(ctx context.Context, id string) (*triage.Run, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.GetRun", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + runColumns + ` FROM runs WHERE id = $1`
	r, err := s.scanRunRow(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if r == nil {
		return nil, false, nil
	}

	if err := s.loadOutcomes(ctx, r); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}

	return r, true, nil
}

// ListRuns returns up to limit runs, newest first, without outcomes.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*triage.Run, error) {
	ctx, span := tracer.Start(ctx, "pgstore.ListRuns", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC LIMIT $1`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*triage.Run
	for rows.Next() {
		r, err := s.scanRunRow(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// AppendOutcome inserts a single per-incident outcome row.
func (s *Store) AppendOutcome(ctx context.Context, runID string, seq int, o *triage.Outcome) error {
	ctx, span := tracer.Start(ctx, "pgstore.AppendOutcome", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO outcomes (
			run_id, seq, incident_id, title, severity, current_status,
			recommended_status, target_status, classification, comment,
			action, error, tokens_in, tokens_out, duration_s, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		runID, seq, o.IncidentID, o.Title, o.Severity, o.CurrentStatus,
		o.RecommendedStatus, o.TargetStatus, o.Classification, o.Comment,
		o.Action, o.Error, o.InputTokens, o.OutputTokens, o.Duration, o.CreatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("insert outcome seq %d: %w", seq, err)
	}
	return nil
}

// loadOutcomes reads outcome rows and attaches them to a Run.
func (s *Store) loadOutcomes(ctx context.Context, r *triage.Run) error {
	rows, err := s.pool.Query(ctx,
		`SELECT incident_id, title, severity, current_status, recommended_status,
			target_status, classification, comment, action, error,
			tokens_in, tokens_out, duration_s, created_at
		 FROM outcomes WHERE run_id = $1 ORDER BY seq`,
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []triage.Outcome
	for rows.Next() {
		var o triage.Outcome
		if err := rows.Scan(
			&o.IncidentID, &o.Title, &o.Severity, &o.CurrentStatus, &o.RecommendedStatus,
			&o.TargetStatus, &o.Classification, &o.Comment, &o.Action, &o.Error,
			&o.InputTokens, &o.OutputTokens, &o.Duration, &o.CreatedAt,
		); err != nil {
			return fmt.Errorf("scan outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate outcomes: %w", err)
	}

	r.Outcomes = outcomes
	return nil
}

// scanRunRow scans a single row into a triage.Run (without outcomes).
// Returns (nil, nil) when no row is found.
func (s *Store) scanRunRow(row pgx.Row) (*triage.Run, error) {
	var (
		r           triage.Run
		status      string
		completedAt *time.Time
	)

	err := row.Scan(
		&r.ID, &status, &r.Model, &r.StartedAt, &completedAt, &r.Duration,
		&r.Seen, &r.Updated, &r.NoChange, &r.Skipped, &r.Failed, &r.Error,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	r.Status = triage.RunStatus(status)

	if completedAt != nil {
		r.CompletedAt = *completedAt
	}

	return &r, nil
}
