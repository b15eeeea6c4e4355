// Package slack sends triage pass summaries to Slack via incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/Popoo2020/Sentinel-AI-AutoTriage/internal/triage"
)

const (
	maxChangesLen = 3000
	httpTimeout   = 10 * time.Second
)

// Notifier sends triage pass summaries to a Slack webhook.
type Notifier struct {
	webhookURL string
	logger     log.Logger
	client     *http.Client
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string, logger log.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		logger:     logger,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// Send posts a pass summary to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, run *triage.Run) error {
	if n.webhookURL == "" {
		return nil
	}

	msg := buildMessage(run)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}

	n.logger.Info(ctx, "sent pass summary to slack", "run_id", run.ID)
	return nil
}

func buildMessage(run *triage.Run) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(run),
			{"type": "divider"},
			fieldsBlock(run),
			{"type": "divider"},
			changesBlock(run),
			{"type": "divider"},
			contextBlock(run),
		},
	}
}

func headerBlock(run *triage.Run) map[string]any {
	emoji := passEmoji(run)
	title := "Triage Pass Complete"
	if run.Status == triage.RunFailed {
		title = "Triage Pass Failed"
	}
	text := fmt.Sprintf("%s %s", emoji, title)

	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func fieldsBlock(run *triage.Run) map[string]any {
	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Seen:* %d", run.Seen),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Updated:* %d", run.Updated),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*No change:* %d", run.NoChange),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Failed:* %d", run.Failed+run.Skipped),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Duration:* %.1fs", run.Duration),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Model:* %s", shortModel(run.Model)),
		},
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func changesBlock(run *triage.Run) map[string]any {
	text := truncate(formatChanges(run), maxChangesLen)
	if text == "" {
		text = "_No status changes._"
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Changes*\n\n%s", text),
		},
	}
}

func formatChanges(run *triage.Run) string {
	var b strings.Builder
	for _, o := range run.Outcomes {
		if o.Action != triage.OutcomeUpdated {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		line := fmt.Sprintf("• %s: %s → %s", o.IncidentID, o.CurrentStatus, o.TargetStatus)
		if o.Classification != "" {
			line += fmt.Sprintf(" (%s)", o.Classification)
		}
		b.WriteString(line)
	}
	if run.Error != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("• error: %s", run.Error))
	}
	return b.String()
}

func contextBlock(run *triage.Run) map[string]any {
	ts := run.CompletedAt
	if ts.IsZero() {
		ts = run.StartedAt
	}

	elements := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("autotriage • run %s • %s", run.ID, ts.UTC().Format("2006-01-02 15:04 UTC")),
		},
	}

	return map[string]any{
		"type":     "context",
		"elements": elements,
	}
}

func passEmoji(run *triage.Run) string {
	switch {
	case run.Status == triage.RunFailed:
		return "\U0001f534" // red circle
	case run.Failed > 0 || run.Skipped > 0:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

// dateModelRe matches model names ending with a YYYYMMDD date suffix.
var dateModelRe = regexp.MustCompile(`-\d{8}$`)

func shortModel(model string) string {
	return dateModelRe.ReplaceAllString(model, "")
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
