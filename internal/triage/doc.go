// Package triage provides the business boundary for the auto-triage
// workflow. It defines the Service (pass orchestration, audit, dispatch),
// Engine (per-incident LLM consultation and decision), the recommendation
// parser and decision policy, the collaborator interfaces (incident store,
// LLM provider, run store, notifier), and the domain models.
package triage
