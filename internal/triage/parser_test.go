package triage

import (
	"errors"
	"testing"
)

func TestParseRecommendation_TaggedReply(t *testing.T) {
	t.Parallel()

	rec, err := ParseRecommendation("STATUS: Closed\nCLASSIFICATION: Benign\nCOMMENT: Routine maintenance window.")
	if err != nil {
		t.Fatalf("ParseRecommendation: %v", err)
	}
	if rec.RecommendedStatus != "Closed" {
		t.Errorf("status = %q, want %q", rec.RecommendedStatus, "Closed")
	}
	if rec.Classification != "Benign" {
		t.Errorf("classification = %q, want %q", rec.Classification, "Benign")
	}
	if rec.Comment != "Routine maintenance window." {
		t.Errorf("comment = %q, want %q", rec.Comment, "Routine maintenance window.")
	}
}

func TestParseRecommendation_CaseInsensitiveTags(t *testing.T) {
	t.Parallel()

	rec, err := ParseRecommendation("status: active\nClassification: True Positive\ncomment: Needs review.")
	if err != nil {
		t.Fatalf("ParseRecommendation: %v", err)
	}
	if rec.RecommendedStatus != "active" {
		t.Errorf("status = %q, want %q", rec.RecommendedStatus, "active")
	}
	if rec.Classification != "True Positive" {
		t.Errorf("classification = %q, want %q", rec.Classification, "True Positive")
	}
}

func TestParseRecommendation_AnyOrder(t *testing.T) {
	t.Parallel()

	rec, err := ParseRecommendation("COMMENT: first\nSTATUS: New\nCLASSIFICATION: False Positive")
	if err != nil {
		t.Fatalf("ParseRecommendation: %v", err)
	}
	if rec.RecommendedStatus != "New" {
		t.Errorf("status = %q, want %q", rec.RecommendedStatus, "New")
	}
	if rec.Comment != "first" {
		t.Errorf("comment = %q, want %q", rec.Comment, "first")
	}
}

func TestParseRecommendation_MarkdownNoise(t *testing.T) {
	t.Parallel()

	rec, err := ParseRecommendation("- **STATUS**: Closed\n- CLASSIFICATION: Benign\n- COMMENT: ok")
	if err != nil {
		t.Fatalf("ParseRecommendation: %v", err)
	}
	if rec.RecommendedStatus != "Closed" {
		t.Errorf("status = %q, want %q", rec.RecommendedStatus, "Closed")
	}
}

func TestParseRecommendation_MissingOptionalFields(t *testing.T) {
	t.Parallel()

	rec, err := ParseRecommendation("STATUS: Active")
	if err != nil {
		t.Fatalf("ParseRecommendation: %v", err)
	}
	if rec.Classification != "" {
		t.Errorf("classification = %q, want empty", rec.Classification)
	}
	if rec.Comment != "" {
		t.Errorf("comment = %q, want empty", rec.Comment)
	}
}

func TestParseRecommendation_NoStatusLine(t *testing.T) {
	t.Parallel()

	tests := []string{
		"",
		"This incident looks fine to me.",
		"CLASSIFICATION: Benign\nCOMMENT: no status given",
		"the status is probably closed",
	}
	for _, text := range tests {
		if _, err := ParseRecommendation(text); !errors.Is(err, ErrNoStatus) {
			t.Errorf("ParseRecommendation(%q) err = %v, want ErrNoStatus", text, err)
		}
	}
}

func TestSafeDefault(t *testing.T) {
	t.Parallel()

	rec := SafeDefault("LLM analysis failed; leaving incident open: boom")
	if rec.RecommendedStatus != "Active" {
		t.Errorf("status = %q, want Active", rec.RecommendedStatus)
	}
	if rec.Classification != "Unspecified" {
		t.Errorf("classification = %q, want Unspecified", rec.Classification)
	}
	if rec.Comment == "" {
		t.Error("expected non-empty comment")
	}
}
