package claude

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/Popoo2020/Sentinel-AI-AutoTriage/internal/triage"
)

func TestToSDKParams(t *testing.T) {
	t.Parallel()

	params := toSDKParams("claude-sonnet-4-5", &triage.CompletionRequest{
		System:      "You are a cybersecurity analyst.",
		Prompt:      "[High] Suspicious login: Multiple failed attempts",
		Temperature: 0.2,
		MaxTokens:   200,
	})

	if params.Model != "claude-sonnet-4-5" {
		t.Errorf("model = %q", params.Model)
	}
	if params.MaxTokens != 200 {
		t.Errorf("max tokens = %d, want 200", params.MaxTokens)
	}
	if !params.Temperature.Valid() || params.Temperature.Value != 0.2 {
		t.Errorf("temperature = %v, want 0.2", params.Temperature)
	}
	if len(params.System) != 1 || params.System[0].Text != "You are a cybersecurity analyst." {
		t.Errorf("system = %+v", params.System)
	}
	if len(params.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(params.Messages))
	}
	if params.Messages[0].Role != "user" {
		t.Errorf("role = %q, want user", params.Messages[0].Role)
	}
	block := params.Messages[0].Content[0]
	if block.OfText == nil {
		t.Fatal("expected OfText to be set")
	}
	if block.OfText.Text != "[High] Suspicious login: Multiple failed attempts" {
		t.Errorf("text = %q", block.OfText.Text)
	}
}

func TestToSDKParams_NoSystem(t *testing.T) {
	t.Parallel()

	params := toSDKParams("claude-sonnet-4-5", &triage.CompletionRequest{Prompt: "hi", MaxTokens: 50})
	if len(params.System) != 0 {
		t.Errorf("system = %+v, want empty", params.System)
	}
	if params.Temperature.Valid() {
		t.Error("temperature must be unset when zero")
	}
}

func TestFromSDKResponse_TextContent(t *testing.T) {
	t.Parallel()

	msg := &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: "STATUS: Closed\n"},
			{Type: "text", Text: "CLASSIFICATION: Benign"},
		},
		StopReason: anthropic.StopReasonEndTurn,
		Usage:      anthropic.Usage{InputTokens: 100, OutputTokens: 50},
	}

	result := fromSDKResponse(msg)

	if result.Text != "STATUS: Closed\nCLASSIFICATION: Benign" {
		t.Errorf("text = %q", result.Text)
	}
	if result.Usage.InputTokens != 100 {
		t.Errorf("input tokens = %d, want 100", result.Usage.InputTokens)
	}
	if result.Usage.OutputTokens != 50 {
		t.Errorf("output tokens = %d, want 50", result.Usage.OutputTokens)
	}
}

func TestFromSDKResponse_IgnoresNonText(t *testing.T) {
	t.Parallel()

	msg := &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "thinking"},
			{Type: "text", Text: "STATUS: Active"},
		},
		Usage: anthropic.Usage{},
	}

	result := fromSDKResponse(msg)
	if result.Text != "STATUS: Active" {
		t.Errorf("text = %q, want only the text block", result.Text)
	}
}

func TestModel(t *testing.T) {
	t.Parallel()

	if got := New("k", "claude-sonnet-4-5").Model(); got != "claude-sonnet-4-5" {
		t.Errorf("Model() = %q", got)
	}
}
