package reconcile

import (
	"log/slog"
	"math"

	"github.com/Veraticus/subscout/internal/common"
	"github.com/Veraticus/subscout/internal/metrics"
	"github.com/Veraticus/subscout/internal/model"
)

// AmountEpsilon is the largest cost difference still treated as the same price.
const AmountEpsilon = 0.01

// Classify compares one candidate to the records. It has no side effects.
func Classify(candidate model.SubscriptionCandidate, records []model.Subscription, matcher Matcher) model.ClassifiedCandidate {
	result := model.ClassifiedCandidate{
		Candidate:      candidate,
		Classification: model.ClassificationNew,
	}

	match := matcher.Match(candidate, records)
	if !match.Found || match.Record == nil {
		return result
	}

	result.MatchedRecordID = match.Record.ID
	result.MatchedRecord = match.Record.Snapshot()
	if SameAmount(candidate.Amount, match.Record.Cost) {
		result.Classification = model.ClassificationDuplicate
	} else {
		result.Classification = model.ClassificationConflict
	}
	return result
}

// SameAmount reports whether two costs differ by less than AmountEpsilon.
func SameAmount(a, b float64) bool {
	return math.Abs(a-b) < AmountEpsilon
}

// Engine classifies batches of candidates against one record snapshot.
type Engine struct {
	matcher Matcher
	logger  *slog.Logger
}

// NewEngine creates a reconciliation engine. A nil matcher uses SubstringMatcher.
func NewEngine(matcher Matcher, logger *slog.Logger) *Engine {
	if matcher == nil {
		matcher = NewSubstringMatcher()
	}
	return &Engine{
		matcher: matcher,
		logger:  common.LoggerOrDefault(logger),
	}
}

// ClassifyAll classifies candidates in order. records is read, never modified.
func (e *Engine) ClassifyAll(candidates []model.SubscriptionCandidate, records []model.Subscription) []model.ClassifiedCandidate {
	out := make([]model.ClassifiedCandidate, 0, len(candidates))
	for _, c := range candidates {
		classified := Classify(c, records, e.matcher)
		metrics.Classified(string(classified.Classification))
		e.logger.Debug("classified candidate",
			"merchant", c.MerchantName,
			"classification", classified.Classification,
			"matched_record_id", classified.MatchedRecordID)
		out = append(out, classified)
	}
	return out
}
