// Package claude implements triage.Provider on the Anthropic messages API.
package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Popoo2020/Sentinel-AI-AutoTriage/internal/triage"
)

// Client calls the Anthropic messages endpoint through the official SDK.
type Client struct {
	client anthropic.Client
	model  string
}

// New creates a new Claude client with the given API key and model name.
// Extra request options (base URL, HTTP client) are passed through to the SDK.
func New(apiKey, model string, opts ...option.RequestOption) *Client {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Client{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Complete sends a single-turn message and returns the reply text.
func (c *Client) Complete(ctx context.Context, req *triage.CompletionRequest) (*triage.CompletionResponse, error) {
	msg, err := c.client.Messages.New(ctx, toSDKParams(c.model, req))
	if err != nil {
		return nil, fmt.Errorf("claude api: %w", err)
	}
	return fromSDKResponse(msg), nil
}

func toSDKParams(model string, req *triage.CompletionRequest) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	return params
}

// fromSDKResponse concatenates the text blocks of a reply and carries the
// token usage over.
func fromSDKResponse(msg *anthropic.Message) *triage.CompletionResponse {
	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return &triage.CompletionResponse{
		Text: text.String(),
		Usage: triage.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}
}
