// Package incident defines the domain model for Microsoft Sentinel incidents
// as seen by the triage workflow: the raw record with its optional fields,
// the status and classification enumerations, and the immutable summary that
// is fed to the LLM.
package incident

import "fmt"

// Status is an incident lifecycle status as Sentinel renders it.
type Status string

const (
	StatusNew    Status = "New"
	StatusActive Status = "Active"
	StatusClosed Status = "Closed"

	// StatusUnknown is the placeholder for records with no status.
	StatusUnknown Status = "Unknown"
)

// IsOpen reports whether the status counts as open for triage purposes.
// Only New and Active incidents are candidates; everything else is ignored.
func (s Status) IsOpen() bool {
	return s == StatusNew || s == StatusActive
}

// Classification labels an incident once an analyst (or the triage workflow)
// has judged it.
type Classification string

const (
	ClassTruePositive  Classification = "True Positive"
	ClassFalsePositive Classification = "False Positive"
	ClassBenign        Classification = "Benign"

	// ClassUnspecified marks incidents the workflow could not judge,
	// typically because the model could not be consulted.
	ClassUnspecified Classification = "Unspecified"
)

// Record is one incident as the store returns it. Every field except ID may
// be absent; absence is modelled explicitly so each defaulting rule is a
// testable branch rather than a truthiness check.
type Record struct {
	ID                    string
	Title                 *string
	Description           *string
	Severity              *string
	Status                *Status
	Classification        *Classification
	ClassificationComment *string
}

// CurrentStatus returns the record's status, or StatusUnknown when absent.
func (r *Record) CurrentStatus() Status {
	if r.Status == nil {
		return StatusUnknown
	}
	return *r.Status
}

// Summary distills one incident into the fields needed for model input.
// It is constructed once per fetched incident and never mutated.
type Summary struct {
	ID          string
	Title       string
	Description string
	Severity    string
	Status      string
}

// Placeholders applied by NewSummary when a field is absent.
const (
	NoTitle       = "(no title)"
	NoDescription = "(no description)"
	Unknown       = "Unknown"
)

// NewSummary builds a Summary from a raw record, applying the defaulting
// rules for absent fields.
func NewSummary(r *Record) Summary {
	s := Summary{
		ID:          r.ID,
		Title:       NoTitle,
		Description: NoDescription,
		Severity:    Unknown,
		Status:      Unknown,
	}
	if r.Title != nil {
		s.Title = *r.Title
	}
	if r.Description != nil {
		s.Description = *r.Description
	}
	if r.Severity != nil {
		s.Severity = *r.Severity
	}
	if r.Status != nil {
		s.Status = string(*r.Status)
	}
	return s
}

// AsPrompt renders the summary in the fixed shape the model prompt embeds.
func (s Summary) AsPrompt() string {
	return fmt.Sprintf("[%s] %s: %s", s.Severity, s.Title, s.Description)
}
