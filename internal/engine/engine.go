// Package engine runs the discovery pipeline: fetch, extract, classify, and commit.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/subscout/internal/commit"
	"github.com/Veraticus/subscout/internal/common"
	"github.com/Veraticus/subscout/internal/extraction"
	"github.com/Veraticus/subscout/internal/mailbox"
	"github.com/Veraticus/subscout/internal/metrics"
	"github.com/Veraticus/subscout/internal/model"
	"github.com/Veraticus/subscout/internal/reconcile"
	"github.com/Veraticus/subscout/internal/review"
	"github.com/Veraticus/subscout/internal/service"
)

// NoBillsMessage is the neutral outcome of a scan that found nothing to review.
const NoBillsMessage = "no bills found"

const (
	notEntitledMessage = "Mailbox scanning is not included in your plan."
	recordsMessage     = "Could not load your subscriptions. Try again later."
)

// Config holds the options for the pipeline.
type Config struct {
	Fetcher         mailbox.FetcherConfig
	DefaultDays     int
	MaxLookbackDays int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Fetcher: mailbox.FetcherConfig{
			MaxMessages:        50,
			BodyTruncateLength: 1500,
		},
		DefaultDays:     30,
		MaxLookbackDays: 365,
	}
}

// Dependencies are the collaborators the pipeline drives.
type Dependencies struct {
	Store        service.SubscriptionStore
	Entitlements service.Entitlements
	Mailboxes    MailboxFactory
	Extractor    *extraction.Extractor
	Matcher      reconcile.Matcher
	Executor     *commit.Executor
	Logger       *slog.Logger
}

// Engine orchestrates scans and commits for any number of users.
type Engine struct {
	store        service.SubscriptionStore
	entitlements service.Entitlements
	mailboxes    MailboxFactory
	extractor    *extraction.Extractor
	reconciler   *reconcile.Engine
	executor     *commit.Executor
	logger       *slog.Logger
	progress     ProgressFunc
	cfg          Config
}

// ScanRequest asks for one scan of a user's mailbox.
type ScanRequest struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
	Days        int    `json:"days"`
}

// ImportResult reports how many NEW candidates were inserted.
type ImportResult struct {
	Applied int `json:"applied"`
}

// CommitResult reports a commit's aggregate count and the failed items.
type CommitResult struct {
	Failures []model.CommitOutcome `json:"failures"`
	Applied  int                   `json:"applied"`
}

// New creates an engine. A nil matcher selects the substring matcher.
func New(deps Dependencies, cfg Config) *Engine {
	logger := common.LoggerOrDefault(deps.Logger)
	matcher := deps.Matcher
	if matcher == nil {
		matcher = reconcile.NewSubstringMatcher()
	}
	if cfg.MaxLookbackDays <= 0 {
		cfg.MaxLookbackDays = DefaultConfig().MaxLookbackDays
	}
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = DefaultConfig().DefaultDays
	}
	return &Engine{
		store:        deps.Store,
		entitlements: deps.Entitlements,
		mailboxes:    deps.Mailboxes,
		extractor:    deps.Extractor,
		reconciler:   reconcile.NewEngine(matcher, logger),
		executor:     deps.Executor,
		logger:       logger,
		cfg:          cfg,
	}
}

// OnProgress registers a hook called as pipeline stages advance.
func (e *Engine) OnProgress(fn ProgressFunc) {
	e.progress = fn
}

func (e *Engine) report(stage Stage, done, total int) {
	if e.progress != nil {
		e.progress(stage, done, total)
	}
}

// Scan fetches, extracts, and classifies candidates for req.UserID.
// Failures that should reach the user are *common.UserError values.
func (e *Engine) Scan(ctx context.Context, req ScanRequest) (*model.ScanResult, error) {
	start := time.Now()
	defer func() { metrics.ObserveScan(time.Since(start).Seconds()) }()

	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: missing user id", common.ErrInvalidRequest)
	}
	days := e.clampDays(req.Days)

	if err := e.checkEntitlement(ctx, req.UserID); err != nil {
		return nil, err
	}

	records, err := e.store.ListSubscriptions(ctx, req.UserID)
	if err != nil {
		return nil, common.NewUserError(recordsMessage, fmt.Errorf("list subscriptions: %w", err))
	}

	mb, err := e.mailboxes(ctx, req.AccessToken)
	if err != nil {
		return nil, common.NewUserError(mailbox.FetchFailedMessage,
			fmt.Errorf("%w: %w", common.ErrMailboxUnavailable, err))
	}

	e.report(StageFetch, 0, e.cfg.Fetcher.MaxMessages)
	messages, err := mailbox.NewFetcher(mb, e.cfg.Fetcher, e.logger).Fetch(ctx, days)
	if err != nil {
		return nil, err
	}
	e.report(StageFetch, len(messages), len(messages))
	metrics.MessagesScanned(len(messages))

	if len(messages) == 0 {
		e.logger.Info("scan found no messages", "user_id", req.UserID, "days", days)
		return &model.ScanResult{
			Success:    true,
			Message:    NoBillsMessage,
			Candidates: []model.ClassifiedCandidate{},
		}, nil
	}

	e.report(StageExtract, 0, len(messages))
	candidates, err := e.extractor.ExtractAll(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("extract candidates: %w", err)
	}
	e.report(StageExtract, len(messages), len(messages))

	e.report(StageClassify, 0, len(candidates))
	classified := e.reconciler.ClassifyAll(candidates, records)
	e.report(StageClassify, len(classified), len(classified))

	result := &model.ScanResult{
		Success:    true,
		Found:      len(classified),
		Scanned:    len(messages),
		Candidates: classified,
	}
	if len(classified) == 0 {
		result.Message = NoBillsMessage
	}

	e.logger.Info("scan complete",
		"user_id", req.UserID,
		"scanned", result.Scanned,
		"found", result.Found,
		"duration", time.Since(start))
	return result, nil
}

// ScanAndReview runs a scan, hands the session to reviewer, and commits what
// the reviewer kept. A nil CommitResult means nothing was committed.
func (e *Engine) ScanAndReview(ctx context.Context, req ScanRequest, reviewer Reviewer) (*model.ScanResult, *CommitResult, error) {
	result, err := e.Scan(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if len(result.Candidates) == 0 {
		return result, nil, nil
	}

	session := review.NewSession(result.Candidates)
	proceed, err := reviewer.Review(ctx, session)
	if err != nil {
		return result, nil, fmt.Errorf("review: %w", err)
	}
	if !proceed {
		return result, nil, nil
	}

	res := e.apply(ctx, req.UserID, session.CommitSet())
	return result, &res, nil
}

// ImportAllNew inserts every NEW candidate and ignores the rest.
func (e *Engine) ImportAllNew(ctx context.Context, userID string, candidates []model.ClassifiedCandidate) (*ImportResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: missing user id", common.ErrInvalidRequest)
	}
	sum := e.executor.Apply(ctx, userID, review.ImportAllNewSet(candidates))
	return &ImportResult{Applied: sum.Applied}, nil
}

// Commit applies decisions aligned by index with candidates.
func (e *Engine) Commit(ctx context.Context, userID string, candidates []model.ClassifiedCandidate, decisions []model.ResolutionDecision) (*CommitResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: missing user id", common.ErrInvalidRequest)
	}
	session, err := review.NewSessionWithDecisions(candidates, decisions)
	if err != nil {
		return nil, err
	}
	entries := session.CommitSet()
	if err := e.checkOwnership(ctx, userID, entries); err != nil {
		return nil, err
	}
	res := e.apply(ctx, userID, entries)
	return &res, nil
}

// checkOwnership rejects updates aimed at records the user does not own.
// Candidates may come back from a caller, so matched ids are not trusted.
func (e *Engine) checkOwnership(ctx context.Context, userID string, entries []review.Entry) error {
	var updates []string
	for _, entry := range entries {
		if entry.Candidate.Classification == model.ClassificationConflict &&
			entry.Decision.Action == model.ActionUpdateExisting {
			updates = append(updates, entry.Candidate.MatchedRecordID)
		}
	}
	if len(updates) == 0 {
		return nil
	}

	records, err := e.store.ListSubscriptions(ctx, userID)
	if err != nil {
		return common.NewUserError(recordsMessage, fmt.Errorf("list subscriptions: %w", err))
	}
	owned := make(map[string]bool, len(records))
	for _, r := range records {
		owned[r.ID] = true
	}
	for _, id := range updates {
		if !owned[id] {
			return fmt.Errorf("%w: record %q is not one of the user's subscriptions", common.ErrInvalidRequest, id)
		}
	}
	return nil
}

// ListSubscriptions returns the user's current records.
func (e *Engine) ListSubscriptions(ctx context.Context, userID string) ([]model.Subscription, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: missing user id", common.ErrInvalidRequest)
	}
	return e.store.ListSubscriptions(ctx, userID)
}

func (e *Engine) apply(ctx context.Context, userID string, entries []review.Entry) CommitResult {
	sum := e.executor.Apply(ctx, userID, entries)
	failures := sum.Failures()
	if failures == nil {
		failures = []model.CommitOutcome{}
	}
	return CommitResult{Applied: sum.Applied, Failures: failures}
}

func (e *Engine) checkEntitlement(ctx context.Context, userID string) error {
	if e.entitlements == nil {
		return nil
	}
	ok, err := e.entitlements.CanScan(ctx, userID)
	if err != nil {
		return fmt.Errorf("check entitlement: %w", err)
	}
	if !ok {
		return common.NewUserError(notEntitledMessage, common.ErrNotEntitled)
	}
	return nil
}

func (e *Engine) clampDays(days int) int {
	if days <= 0 {
		days = e.cfg.DefaultDays
	}
	return max(1, min(days, e.cfg.MaxLookbackDays))
}
