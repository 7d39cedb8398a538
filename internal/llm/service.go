package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/subscout/internal/common"
	"github.com/Veraticus/subscout/internal/service"
	"golang.org/x/time/rate"
)

// Service wraps a provider Client with rate limiting, retry and caching.
// It implements Client itself.
type Service struct {
	client    Client
	cache     *responseCache
	limiter   *rate.Limiter
	logger    *slog.Logger
	retryOpts service.RetryOptions
}

// NewService creates the provider client named by cfg and wraps it.
func NewService(cfg Config, logger *slog.Logger) (*Service, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return NewServiceWithClient(client, cfg, logger), nil
}

// NewServiceWithClient wraps an existing client.
func NewServiceWithClient(client Client, cfg Config, logger *slog.Logger) *Service {
	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		Multiplier:   2.0,
	}

	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}
	// Throttled calls back off to MaxDelay, which must stay well inside the
	// per-message model timeout.
	retryOpts.MaxDelay = 8 * retryOpts.InitialDelay

	return &Service{
		client:    client,
		cache:     newResponseCache(cfg.CacheTTL),
		limiter:   newRateLimiter(cfg.RateLimit),
		logger:    common.LoggerOrDefault(logger),
		retryOpts: retryOpts,
	}
}

// Complete returns a cached completion when one exists, otherwise waits for the
// rate limiter and calls the provider, retrying throttled and server errors.
func (s *Service) Complete(ctx context.Context, prompt string) (string, error) {
	key := promptKey(prompt)
	if text, ok := s.cache.get(key); ok {
		s.logger.Debug("completion cache hit")
		return text, nil
	}

	var text string
	err := common.WithRetry(ctx, func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
		var callErr error
		text, callErr = s.client.Complete(ctx, prompt)
		return callErr
	}, s.retryOpts)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrModelUnavailable, err)
	}

	if text != "" {
		s.cache.set(key, text)
	}
	return text, nil
}

// Close releases the cache's background goroutine.
func (s *Service) Close() {
	s.cache.Close()
}

var _ Client = (*Service)(nil)
