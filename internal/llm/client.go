package llm

import (
	"context"
	"time"
)

// Client defines the interface for text-generation providers.
type Client interface {
	// Complete sends prompt and returns the raw text of the first completion.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for the text-generation client.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string // Overrides the provider endpoint; used by tests and proxies
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	RateLimit   int // Requests per minute
	Temperature float64
	MaxTokens   int
}

const systemPrompt = "You extract billing facts from emails. You MUST respond with ONLY a valid JSON object. " +
	"Do not include any explanatory text, markdown formatting, or commentary before or after the JSON. " +
	"Start your response directly with { and end with }."
