package triage

import (
	"testing"

	"github.com/Popoo2020/Sentinel-AI-AutoTriage/internal/incident"
)

func TestMapRecommendedStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want incident.Status
	}{
		{"Closed", incident.StatusClosed},
		{"closed", incident.StatusClosed},
		{"CLOSE", incident.StatusClosed},
		{"Closed due to benign activity", incident.StatusClosed},
		{"New", incident.StatusNew},
		{"new incident", incident.StatusNew},
		{"Active", incident.StatusActive},
		{"active", incident.StatusActive},
		{"AcTiVe", incident.StatusActive},
		{"Unknown", incident.StatusActive},
		{"", incident.StatusActive},
		{"  Closed  ", incident.StatusClosed},
	}

	for _, tt := range tests {
		if got := MapRecommendedStatus(tt.text); got != tt.want {
			t.Errorf("MapRecommendedStatus(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestDecide_UpdateOnStatusChange(t *testing.T) {
	t.Parallel()

	d := Decide(incident.StatusActive, Recommendation{
		RecommendedStatus: "Closed due to benign activity",
		Classification:    "Benign",
		Comment:           "Known scanner.",
	})

	if d.Action != ActionUpdate {
		t.Fatalf("action = %q, want %q", d.Action, ActionUpdate)
	}
	if d.Target != incident.StatusClosed {
		t.Errorf("target = %q, want %q", d.Target, incident.StatusClosed)
	}
	if d.Classification != "Benign" {
		t.Errorf("classification = %q, want %q", d.Classification, "Benign")
	}
	if d.Comment != "Known scanner." {
		t.Errorf("comment = %q, want %q", d.Comment, "Known scanner.")
	}
}

func TestDecide_NoopOnMatch(t *testing.T) {
	t.Parallel()

	d := Decide(incident.StatusActive, Recommendation{RecommendedStatus: "active"})
	if d.Action != ActionNoop {
		t.Fatalf("action = %q, want %q", d.Action, ActionNoop)
	}
	if d.Target != incident.StatusActive {
		t.Errorf("target = %q, want %q", d.Target, incident.StatusActive)
	}
}

func TestDecide_FallbackUnrecognized(t *testing.T) {
	t.Parallel()

	// Unrecognized text maps to Active; current New differs, so update.
	d := Decide(incident.StatusNew, Recommendation{RecommendedStatus: "Unknown"})
	if d.Action != ActionUpdate {
		t.Fatalf("action = %q, want %q", d.Action, ActionUpdate)
	}
	if d.Target != incident.StatusActive {
		t.Errorf("target = %q, want %q", d.Target, incident.StatusActive)
	}

	// Same text against a current Active incident is a no-op.
	d = Decide(incident.StatusActive, Recommendation{RecommendedStatus: "Unknown"})
	if d.Action != ActionNoop {
		t.Fatalf("action = %q, want %q", d.Action, ActionNoop)
	}
}
