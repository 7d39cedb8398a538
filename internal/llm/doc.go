// Package llm provides the text-generation client used for structured extraction.
// It supports OpenAI and Anthropic providers, with rate limiting, retry on
// provider throttling and a short-lived response cache.
package llm
