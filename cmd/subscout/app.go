package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/subscout/internal/commit"
	"github.com/Veraticus/subscout/internal/config"
	"github.com/Veraticus/subscout/internal/engine"
	"github.com/Veraticus/subscout/internal/extraction"
	"github.com/Veraticus/subscout/internal/llm"
	"github.com/Veraticus/subscout/internal/mailbox"
	"github.com/Veraticus/subscout/internal/storage"
	"github.com/spf13/viper"
)

// app holds everything a command needs, wired from configuration.
type app struct {
	cfg    *config.Config
	store  storage.Store
	llm    *llm.Service
	engine *engine.Engine
}

func newApp(ctx context.Context, v *viper.Viper) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	a := &app{cfg: cfg, store: store}

	var client llm.Client
	if cfg.LLM.Enabled() {
		svc, err := llm.NewService(llmConfig(cfg.LLM), slog.Default())
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to create model client: %w", err)
		}
		a.llm = svc
		client = svc
	} else {
		slog.Info("No model provider configured, using heuristic extraction only")
	}

	extractor := extraction.New(extraction.Config{
		GateKeywords:     cfg.Scan.GateKeywords,
		PromptBodyLength: cfg.Scan.PromptBodyLength,
		ModelTimeout:     cfg.Scan.ModelTimeout,
	}, client, slog.Default())

	a.engine = engine.New(engine.Dependencies{
		Store:        store,
		Entitlements: config.StaticEntitlements{ScanEnabled: cfg.Entitlement.ScanEnabled},
		Mailboxes:    gmailMailbox,
		Extractor:    extractor,
		Executor:     commit.NewExecutor(store, cfg.Commit.DefaultCategory, slog.Default()),
		Logger:       slog.Default(),
	}, engine.Config{
		Fetcher: mailbox.FetcherConfig{
			SearchKeywords:     cfg.Scan.SearchKeywords,
			MaxMessages:        cfg.Scan.MaxMessages,
			BodyTruncateLength: cfg.Scan.BodyTruncateLength,
		},
		DefaultDays:     cfg.Scan.LookbackDays,
		MaxLookbackDays: cfg.Scan.MaxLookbackDays,
	})
	return a, nil
}

func (a *app) Close() {
	if a.llm != nil {
		a.llm.Close()
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

func gmailMailbox(ctx context.Context, accessToken string) (mailbox.Mailbox, error) {
	mb, err := mailbox.NewGmailMailbox(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return mb, nil
}

func llmConfig(c config.LLMConfig) llm.Config {
	return llm.Config{
		Provider:    c.Provider,
		APIKey:      c.APIKey,
		Model:       c.Model,
		BaseURL:     c.BaseURL,
		MaxRetries:  c.MaxRetries,
		RetryDelay:  c.RetryDelay,
		CacheTTL:    c.CacheTTL,
		RateLimit:   c.RateLimit,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}
}

// scanRequest builds the request for the configured user, preferring an
// explicit token over the configured one.
func (a *app) scanRequest(token string, days int) engine.ScanRequest {
	if token == "" {
		token = a.cfg.Mailbox.AccessToken
	}
	return engine.ScanRequest{
		UserID:      a.cfg.UserID,
		AccessToken: token,
		Days:        days,
	}
}
