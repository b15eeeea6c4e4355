package triage

import (
	"context"

	"github.com/Popoo2020/Sentinel-AI-AutoTriage/internal/incident"
)

// IncidentStore is the incident-store collaborator contract. The store owns
// the records; this workflow reads snapshots and submits conditional writes.
type IncidentStore interface {
	// ListIncidents returns the current incident records. Fields other
	// than the id may be absent.
	ListIncidents(ctx context.Context) ([]*incident.Record, error)

	// GetIncident fetches one record by id. ok=false means the incident
	// does not (or no longer does) exist; that is not an error.
	GetIncident(ctx context.Context, id string) (*incident.Record, bool, error)

	// UpdateIncident submits the full modified record back to the store.
	UpdateIncident(ctx context.Context, rec *incident.Record) error
}

// RunStore is the persistence interface for triage pass audit records.
// It is best-effort: callers log failures and keep processing.
type RunStore interface {
	PutRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, bool, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	AppendOutcome(ctx context.Context, runID string, seq int, o *Outcome) error
}

// Notifier delivers a pass summary to an external channel.
type Notifier interface {
	Send(ctx context.Context, run *Run) error
}
