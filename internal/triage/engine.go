package triage

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/linnemanlabs/go-core/log"

	"github.com/Popoo2020/Sentinel-AI-AutoTriage/internal/incident"
)

var tracer = otel.Tracer("github.com/Popoo2020/Sentinel-AI-AutoTriage/internal/triage")

const (
	// DefaultTemperature keeps model output variance low.
	DefaultTemperature = 0.2

	// ResponseTokens caps the model reply length.
	ResponseTokens = 200
)

// EngineHooks lets the caller observe engine activity (wired to Prometheus
// by main). Nil hooks are skipped.
type EngineHooks struct {
	OnLLMCall  func(inputTokens, outputTokens int, duration float64)
	OnIncident func(action string, duration float64)
}

// Engine holds the per-incident triage logic: summarize, consult the model,
// parse, decide, and conditionally apply an update.
type Engine struct {
	provider    Provider
	incidents   IncidentStore
	logger      log.Logger
	hooks       EngineHooks
	temperature float64
	maxTokens   int
}

// NewEngine creates a new triage engine with the given dependencies.
func NewEngine(provider Provider, incidents IncidentStore, logger log.Logger, hooks EngineHooks) *Engine {
	return &Engine{
		provider:    provider,
		incidents:   incidents,
		logger:      logger,
		hooks:       hooks,
		temperature: DefaultTemperature,
		maxTokens:   ResponseTokens,
	}
}

// Triage processes one incident end to end and returns its outcome. It never
// returns an error: model and store failures degrade to the safe default or
// a failed outcome so the pass can continue with the next incident.
func (e *Engine) Triage(ctx context.Context, rec *incident.Record) *Outcome {
	start := time.Now()
	summary := incident.NewSummary(rec)

	L := e.logger.With(
		"incident_id", summary.ID,
		"severity", summary.Severity,
		"incident_status", summary.Status,
	)
	L.Info(ctx, "processing incident", "title", summary.Title)

	rec2, usage := e.consult(ctx, L, summary)
	decision := Decide(rec.CurrentStatus(), rec2)

	o := &Outcome{
		IncidentID:        summary.ID,
		Title:             summary.Title,
		Severity:          summary.Severity,
		CurrentStatus:     summary.Status,
		RecommendedStatus: rec2.RecommendedStatus,
		TargetStatus:      string(decision.Target),
		Classification:    decision.Classification,
		Comment:           rec2.Comment,
		InputTokens:       usage.InputTokens,
		OutputTokens:      usage.OutputTokens,
		CreatedAt:         start,
	}

	if decision.Action == ActionNoop {
		L.Info(ctx, "no status change", "target", decision.Target)
		o.Action = OutcomeNoChange
	} else {
		e.applyUpdate(ctx, L, decision, o)
	}

	o.Duration = time.Since(start).Seconds()
	if e.hooks.OnIncident != nil {
		e.hooks.OnIncident(o.Action, o.Duration)
	}
	return o
}

// consult sends the incident to the model and parses the reply. Any provider
// or parse failure degrades to the safe default recommendation; the error
// never propagates.
func (e *Engine) consult(ctx context.Context, L log.Logger, s incident.Summary) (Recommendation, Usage) {
	ctx, span := tracer.Start(ctx, "llm.call")
	defer span.End()
	span.SetAttributes(
		attribute.String("gen_ai.operation.name", "llm.call"),
		attribute.String("gen_ai.request.model", e.provider.Model()),
		attribute.String("autotriage.incident.id", s.ID),
	)

	callStart := time.Now()
	resp, err := e.provider.Complete(ctx, &CompletionRequest{
		System:      buildSystemPrompt(),
		Prompt:      buildUserPrompt(s),
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		L.Error(ctx, err, "llm call failed")
		return SafeDefault(fmt.Sprintf("LLM analysis failed; leaving incident open: %v", err)), Usage{}
	}

	dur := time.Since(callStart).Seconds()
	span.SetAttributes(
		attribute.Int("gen_ai.usage.input_tokens", resp.Usage.InputTokens),
		attribute.Int("gen_ai.usage.output_tokens", resp.Usage.OutputTokens),
	)
	if e.hooks.OnLLMCall != nil {
		e.hooks.OnLLMCall(resp.Usage.InputTokens, resp.Usage.OutputTokens, dur)
	}

	L.Info(ctx, "llm response",
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"duration", dur,
	)

	rec, err := ParseRecommendation(resp.Text)
	if err != nil {
		L.Warn(ctx, "model reply did not match the expected format", "reply", resp.Text)
		return SafeDefault("model reply did not match the expected format; leaving incident open"), resp.Usage
	}
	return rec, resp.Usage
}

// applyUpdate performs the read-modify-write against the incident store:
// re-fetch by id immediately before writing, set the status (always) and the
// classification/comment (only when non-empty), then submit the full record.
func (e *Engine) applyUpdate(ctx context.Context, L log.Logger, d Decision, o *Outcome) {
	ctx, span := tracer.Start(ctx, "incident.update")
	defer span.End()
	span.SetAttributes(
		attribute.String("autotriage.incident.id", o.IncidentID),
		attribute.String("autotriage.incident.target_status", string(d.Target)),
	)

	cur, ok, err := e.incidents.GetIncident(ctx, o.IncidentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		L.Error(ctx, err, "re-fetch before update failed", "target_status", d.Target)
		o.Action = OutcomeFailed
		o.Error = fmt.Sprintf("re-fetch: %v", err)
		return
	}
	if !ok {
		L.Warn(ctx, "incident vanished before update", "target_status", d.Target)
		o.Action = OutcomeSkipped
		o.Error = "incident not found at re-fetch"
		return
	}

	target := d.Target
	cur.Status = &target
	if d.Classification != "" {
		c := incident.Classification(d.Classification)
		cur.Classification = &c
	}
	if d.Comment != "" {
		comment := d.Comment
		cur.ClassificationComment = &comment
	}

	if err := e.incidents.UpdateIncident(ctx, cur); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		L.Error(ctx, err, "incident update failed", "target_status", d.Target)
		o.Action = OutcomeFailed
		o.Error = fmt.Sprintf("update: %v", err)
		return
	}

	L.Info(ctx, "updated incident",
		"target_status", d.Target,
		"classification", d.Classification,
	)
	o.Action = OutcomeUpdated
}

// buildSystemPrompt instructs the model to answer in the fixed tagged shape
// the parser expects.
func buildSystemPrompt() string {
	return `You are a cybersecurity analyst. You review SIEM incidents and recommend how each should be dispositioned.

Reply with exactly three lines and nothing else:
STATUS: one of New, Active or Closed
CLASSIFICATION: one of True Positive, False Positive or Benign
COMMENT: a one-sentence rationale for your decision`
}

// buildUserPrompt renders one incident for the model.
func buildUserPrompt(s incident.Summary) string {
	return fmt.Sprintf(`A SIEM incident requires review: %s

Title: %s
Description: %s`,
		s.AsPrompt(),
		s.Title,
		s.Description,
	)
}
