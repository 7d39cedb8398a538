// Package extraction turns fetched mailbox messages into subscription candidates.
// A cheap keyword gate filters messages before any model call; gated messages
// then run through a chain of stages, a model stage first and a regex
// heuristic as the fallback.
package extraction
