package triage

import (
	"strings"

	"github.com/Popoo2020/Sentinel-AI-AutoTriage/internal/incident"
)

// Action is what the decision policy tells the loop to do with an incident.
type Action string

const (
	ActionUpdate Action = "update"
	ActionNoop   Action = "noop"
)

// Decision is the policy output for one incident.
type Decision struct {
	Action         Action
	Target         incident.Status
	Classification string
	Comment        string
}

// MapRecommendedStatus maps free-text recommended status to the store's
// enumeration by case-insensitive prefix. Anything unrecognized falls back
// to Active so an unexpected reply can never close an incident.
func MapRecommendedStatus(text string) incident.Status {
	t := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.HasPrefix(t, "clos"):
		return incident.StatusClosed
	case strings.HasPrefix(t, "new"):
		return incident.StatusNew
	default:
		return incident.StatusActive
	}
}

// Decide maps a recommendation plus the incident's current status to an
// action. This comparison is the sole gate against redundant writes; it is
// a pure function of its inputs.
func Decide(current incident.Status, rec Recommendation) Decision {
	target := MapRecommendedStatus(rec.RecommendedStatus)
	if target == current {
		return Decision{Action: ActionNoop, Target: target}
	}
	return Decision{
		Action:         ActionUpdate,
		Target:         target,
		Classification: rec.Classification,
		Comment:        rec.Comment,
	}
}
