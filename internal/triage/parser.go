package triage

import (
	"errors"
	"strings"
)

// The model is instructed to reply with exactly three tagged lines:
//
//	STATUS: New, Active or Closed
//	CLASSIFICATION: True Positive, False Positive or Benign
//	COMMENT: one sentence explaining the decision
//
// ParseRecommendation extracts that contract deterministically. Tags are
// case-insensitive and may appear in any order; surrounding markdown list
// markers are tolerated. A reply with no STATUS line does not satisfy the
// contract and is rejected; callers fall back to SafeDefault, never to an
// error that aborts the pass.

// ErrNoStatus is returned when the model reply carries no STATUS line.
var ErrNoStatus = errors.New("model reply has no STATUS line")

// ParseRecommendation turns a raw model reply into a Recommendation.
func ParseRecommendation(text string) (Recommendation, error) {
	var rec Recommendation
	var haveStatus bool

	for _, line := range strings.Split(text, "\n") {
		line = strings.Trim(line, " \t*-•`")
		if line == "" {
			continue
		}

		switch key, value := splitTagged(line); key {
		case "status":
			rec.RecommendedStatus = value
			haveStatus = true
		case "classification":
			rec.Classification = value
		case "comment":
			rec.Comment = value
		}
	}

	if !haveStatus {
		return Recommendation{}, ErrNoStatus
	}
	return rec, nil
}

// splitTagged splits "TAG: value" into a lowercased tag and trimmed value.
// Lines without a colon yield an empty tag.
func splitTagged(line string) (key, value string) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return "", ""
	}
	key = strings.ToLower(strings.TrimSpace(line[:i]))
	value = strings.Trim(strings.TrimSpace(line[i+1:]), "*`")
	return key, value
}
