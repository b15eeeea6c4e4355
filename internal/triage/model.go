package triage

import (
	"time"

	"github.com/Popoo2020/Sentinel-AI-AutoTriage/internal/incident"
)

// Recommendation is the structured decision extracted from a model reply.
// RecommendedStatus always carries a value; when the model cannot be
// consulted or its reply cannot be parsed, the safe default applies.
type Recommendation struct {
	RecommendedStatus string `json:"recommended_status"`
	Classification    string `json:"classification,omitempty"`
	Comment           string `json:"comment,omitempty"`
}

// SafeDefault is the recommendation used when the model cannot be consulted
// or its reply is unusable: leave the incident active so it stays visible to
// analysts, never silently close or reclassify.
func SafeDefault(reason string) Recommendation {
	return Recommendation{
		RecommendedStatus: string(incident.StatusActive),
		Classification:    string(incident.ClassUnspecified),
		Comment:           reason,
	}
}

// RunStatus tracks where a triage pass is in its lifecycle.
type RunStatus string

const (
	// RunInProgress means the pass is currently processing incidents.
	RunInProgress RunStatus = "in_progress"

	// RunComplete means the pass finished; individual incidents may still
	// have failed, see the outcome counts.
	RunComplete RunStatus = "complete"

	// RunFailed means the pass could not list incidents at all.
	RunFailed RunStatus = "failed"
)

// Run is the audit record of one full triage pass.
type Run struct {
	ID          string    `json:"id"`
	Status      RunStatus `json:"status"`
	Model       string    `json:"model"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	Duration    float64   `json:"duration_seconds,omitempty"`
	Seen        int       `json:"incidents_seen"`
	Updated     int       `json:"incidents_updated"`
	NoChange    int       `json:"incidents_no_change"`
	Skipped     int       `json:"incidents_skipped"`
	Failed      int       `json:"incidents_failed"`
	Error       string    `json:"error,omitempty"`

	// Outcomes is populated on reads that load the full run.
	Outcomes []Outcome `json:"outcomes,omitempty"`
}

// Outcome action values.
const (
	// OutcomeUpdated means a status update was submitted to the store.
	OutcomeUpdated = "updated"

	// OutcomeNoChange means the recommended status matched the current one.
	OutcomeNoChange = "no_change"

	// OutcomeSkipped means the update was aborted because the incident
	// vanished between listing and the pre-write re-fetch.
	OutcomeSkipped = "skipped"

	// OutcomeFailed means the incident's update errored or its processing
	// panicked; the pass continued with the next incident.
	OutcomeFailed = "failed"
)

// Outcome is the audit record of one incident within a pass.
type Outcome struct {
	IncidentID        string    `json:"incident_id"`
	Title             string    `json:"title"`
	Severity          string    `json:"severity"`
	CurrentStatus     string    `json:"current_status"`
	RecommendedStatus string    `json:"recommended_status"`
	TargetStatus      string    `json:"target_status"`
	Classification    string    `json:"classification,omitempty"`
	Comment           string    `json:"comment,omitempty"`
	Action            string    `json:"action"`
	Error             string    `json:"error,omitempty"`
	InputTokens       int       `json:"input_tokens,omitempty"`
	OutputTokens      int       `json:"output_tokens,omitempty"`
	Duration          float64   `json:"duration_seconds,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}
