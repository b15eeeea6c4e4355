// Package cfg holds the application configuration, bound to flags and
// environment variables.
package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Providers selectable via -llm-provider.
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

// Config collects every runtime setting of the triage service.
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	APIToken              string

	SubscriptionID string
	ResourceGroup  string
	WorkspaceName  string

	LLMProvider  string
	OpenAIAPIKey string
	OpenAIModel  string
	ClaudeAPIKey string
	ClaudeModel  string

	PollIntervalSeconds int
	RunOnce             bool

	DatabaseURL     string
	SlackWebhookURL string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token required on API requests")
	fs.StringVar(&c.SubscriptionID, "subscription-id", "", "Azure subscription holding the Sentinel workspace")
	fs.StringVar(&c.ResourceGroup, "resource-group", "", "resource group of the Sentinel workspace")
	fs.StringVar(&c.WorkspaceName, "workspace-name", "", "Log Analytics workspace name")
	fs.StringVar(&c.LLMProvider, "llm-provider", ProviderOpenAI, "LLM provider to consult (openai or claude)")
	fs.StringVar(&c.OpenAIAPIKey, "openai-api-key", "", "API key for the OpenAI provider")
	fs.StringVar(&c.OpenAIModel, "openai-model", "gpt-4", "OpenAI model to use")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude provider")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model to use")
	fs.IntVar(&c.PollIntervalSeconds, "poll-interval-seconds", 300, "seconds between triage passes in daemon mode (10..86400)")
	fs.BoolVar(&c.RunOnce, "run-once", false, "run a single triage pass and exit")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory run store)")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for pass summaries")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	if c.APIToken == "" {
		errs = append(errs, errors.New("API_TOKEN is required"))
	}

	// Sentinel workspace coordinates
	if c.SubscriptionID == "" {
		errs = append(errs, errors.New("SUBSCRIPTION_ID is required"))
	}
	if c.ResourceGroup == "" {
		errs = append(errs, errors.New("RESOURCE_GROUP is required"))
	}
	if c.WorkspaceName == "" {
		errs = append(errs, errors.New("WORKSPACE_NAME is required"))
	}

	// Exactly one provider is consulted; its key and model must be set.
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required"))
		}
		if c.OpenAIModel == "" {
			errs = append(errs, errors.New("OPENAI_MODEL is required"))
		}
	case ProviderClaude:
		if c.ClaudeAPIKey == "" {
			errs = append(errs, errors.New("CLAUDE_API_KEY is required"))
		}
		if c.ClaudeModel == "" {
			errs = append(errs, errors.New("CLAUDE_MODEL is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid LLM_PROVIDER %q (must be openai or claude)", c.LLMProvider))
	}

	if c.PollIntervalSeconds < 10 || c.PollIntervalSeconds > 86400 {
		errs = append(errs, fmt.Errorf("invalid POLL_INTERVAL_SECONDS %d (must be 10..86400)", c.PollIntervalSeconds))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
