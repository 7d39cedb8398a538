package extraction

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/subscout/internal/common"
	"github.com/Veraticus/subscout/internal/llm"
	"github.com/Veraticus/subscout/internal/metrics"
	"github.com/Veraticus/subscout/internal/model"
	"golang.org/x/sync/errgroup"
)

// Confidence assigned per source. Candidates without an amount score lower.
const (
	ModelConfidence             = 0.9
	ModelNoAmountConfidence     = 0.7
	HeuristicConfidence         = 0.5
	HeuristicNoAmountConfidence = 0.3
)

// Config shapes the extractor built by New.
type Config struct {
	GateKeywords     []string
	PromptBodyLength int
	ModelTimeout     time.Duration
}

// Extractor runs the keyword gate and the stage chain over fetched messages.
type Extractor struct {
	gate   *KeywordGate
	chain  *Chain
	logger *slog.Logger
}

// New builds the standard extractor. With a nil client only the heuristic
// stage runs.
func New(cfg Config, client llm.Client, logger *slog.Logger) *Extractor {
	stages := make([]Stage, 0, 2)
	if client != nil {
		stages = append(stages, NewModelStage(client, cfg.PromptBodyLength, cfg.ModelTimeout, logger))
	}
	stages = append(stages, NewHeuristicStage())
	return NewExtractor(NewKeywordGate(cfg.GateKeywords), NewChain(stages...), logger)
}

// NewExtractor creates an extractor from explicit parts.
func NewExtractor(gate *KeywordGate, chain *Chain, logger *slog.Logger) *Extractor {
	return &Extractor{
		gate:   gate,
		chain:  chain,
		logger: common.LoggerOrDefault(logger),
	}
}

// Extract produces at most one candidate for msg.
func (e *Extractor) Extract(ctx context.Context, msg model.RawMessage) (model.SubscriptionCandidate, bool) {
	if !e.gate.Pass(msg) {
		metrics.ExtractionResult("gate", metrics.ResultGated)
		e.logger.Debug("message failed keyword gate", "message_id", msg.ID)
		return model.SubscriptionCandidate{}, false
	}

	res, source := e.chain.Run(ctx, msg)
	if res.Kind != Extracted {
		e.logger.Debug("no candidate extracted",
			"message_id", msg.ID,
			"result", res.Kind.String(),
			"reason", res.Reason)
		return model.SubscriptionCandidate{}, false
	}

	candidate := toCandidate(msg, res.Fields, source)
	if isNoise(candidate.MerchantName) {
		metrics.ExtractionResult(string(source), metrics.ResultDiscarded)
		e.logger.Debug("discarding candidate without merchant", "message_id", msg.ID)
		return model.SubscriptionCandidate{}, false
	}
	return candidate, true
}

// ExtractAll extracts every message concurrently. Candidates keep the order of
// msgs; messages without a candidate leave no gap.
func (e *Extractor) ExtractAll(ctx context.Context, msgs []model.RawMessage) ([]model.SubscriptionCandidate, error) {
	type slot struct {
		candidate model.SubscriptionCandidate
		ok        bool
	}
	slots := make([]slot, len(msgs))

	g, gctx := errgroup.WithContext(ctx)
	for i, msg := range msgs {
		g.Go(func() error {
			c, ok := e.Extract(gctx, msg)
			slots[i] = slot{candidate: c, ok: ok}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := make([]model.SubscriptionCandidate, 0, len(msgs))
	for _, s := range slots {
		if s.ok {
			candidates = append(candidates, s.candidate)
		}
	}

	e.logger.Info("extraction complete", "messages", len(msgs), "candidates", len(candidates))
	return candidates, nil
}

func toCandidate(msg model.RawMessage, f Fields, source model.ExtractionSource) model.SubscriptionCandidate {
	currency := f.Currency
	if currency == "" {
		currency = model.DefaultCurrency
	}
	frequency := f.Frequency
	if frequency == "" {
		frequency = model.FrequencyMonthly
	}
	billingDate := f.BillingDate
	if billingDate.IsZero() {
		billingDate = msg.ReceivedAt
	}

	return model.SubscriptionCandidate{
		SourceMessageID:      msg.ID,
		MerchantName:         strings.TrimSpace(f.MerchantName),
		Amount:               f.Amount,
		Currency:             currency,
		BillingFrequency:     frequency,
		BillingDate:          billingDate,
		ExtractionConfidence: confidence(source, f.HasAmount),
		Source:               source,
	}
}

func confidence(source model.ExtractionSource, hasAmount bool) float64 {
	switch {
	case source == model.SourceModel && hasAmount:
		return ModelConfidence
	case source == model.SourceModel:
		return ModelNoAmountConfidence
	case hasAmount:
		return HeuristicConfidence
	default:
		return HeuristicNoAmountConfidence
	}
}

func isNoise(merchant string) bool {
	merchant = strings.TrimSpace(merchant)
	return merchant == "" || merchant == model.NoSubject
}
