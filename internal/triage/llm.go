package triage

import "context"

// Provider is the interface for any LLM backend. A provider is bound to a
// model name at construction; one call is one blocking round trip.
type Provider interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Model returns the model name the provider is bound to, for logging
	// and audit records.
	Model() string
}

// CompletionRequest represents the input to the LLM provider.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// CompletionResponse represents the output from the LLM provider.
type CompletionResponse struct {
	Text  string
	Usage Usage
}

// Usage represents the token usage reported by the LLM provider.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
