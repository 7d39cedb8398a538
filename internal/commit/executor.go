// Package commit applies reviewed decisions to the subscription record store.
package commit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/subscout/internal/common"
	"github.com/Veraticus/subscout/internal/metrics"
	"github.com/Veraticus/subscout/internal/model"
	"github.com/Veraticus/subscout/internal/review"
	"github.com/Veraticus/subscout/internal/service"
	"github.com/google/uuid"
)

// ErrNoMatchedRecord is recorded when an update has no record id to target.
var ErrNoMatchedRecord = errors.New("update has no matched record id")

// Summary aggregates the outcome of one Apply call.
type Summary struct {
	Outcomes []model.CommitOutcome `json:"outcomes"`
	Applied  int                   `json:"applied"`
	Failed   int                   `json:"failed"`
}

// Failures returns the outcomes that failed.
func (s Summary) Failures() []model.CommitOutcome {
	var out []model.CommitOutcome
	for _, o := range s.Outcomes {
		if o.Result == model.ResultFailed {
			out = append(out, o)
		}
	}
	return out
}

// Executor writes committed entries one at a time. A failing item never stops
// or rolls back the others.
type Executor struct {
	store           service.SubscriptionStore
	logger          *slog.Logger
	newID           func() string
	now             func() time.Time
	defaultCategory string
}

// NewExecutor creates an executor over store.
func NewExecutor(store service.SubscriptionStore, defaultCategory string, logger *slog.Logger) *Executor {
	return &Executor{
		store:           store,
		defaultCategory: defaultCategory,
		logger:          common.LoggerOrDefault(logger),
		newID:           uuid.NewString,
		now:             time.Now,
	}
}

// Apply commits every selected, non-skipped entry for userID.
func (e *Executor) Apply(ctx context.Context, userID string, entries []review.Entry) Summary {
	var sum Summary
	for _, entry := range entries {
		if !entry.Decision.Committable() {
			continue
		}

		outcome := e.apply(ctx, userID, entry)
		metrics.CommitResult(string(outcome.Operation), string(outcome.Result))
		if outcome.Result == model.ResultApplied {
			sum.Applied++
		} else {
			sum.Failed++
			e.logger.Warn("commit item failed",
				"candidate", outcome.CandidateRef,
				"merchant", outcome.MerchantName,
				"operation", outcome.Operation,
				"error", outcome.ErrorDetail)
		}
		sum.Outcomes = append(sum.Outcomes, outcome)
	}

	e.logger.Info("commit complete", "applied", sum.Applied, "failed", sum.Failed)
	return sum
}

func (e *Executor) apply(ctx context.Context, userID string, entry review.Entry) model.CommitOutcome {
	c := entry.Candidate
	outcome := model.CommitOutcome{
		CandidateRef: c.Candidate.SourceMessageID,
		MerchantName: c.Candidate.MerchantName,
		Operation:    model.OperationInsert,
		Result:       model.ResultApplied,
	}

	var err error
	if c.Classification == model.ClassificationConflict && entry.Decision.Action == model.ActionUpdateExisting {
		outcome.Operation = model.OperationUpdate
		err = e.update(ctx, userID, c)
	} else {
		err = e.insert(ctx, userID, c.Candidate)
	}

	if err != nil {
		outcome.Result = model.ResultFailed
		outcome.ErrorDetail = err.Error()
	}
	return outcome
}

func (e *Executor) update(ctx context.Context, userID string, c model.ClassifiedCandidate) error {
	if c.MatchedRecordID == "" {
		return ErrNoMatchedRecord
	}
	if err := e.store.UpdateSubscriptionCost(ctx, userID, c.MatchedRecordID, c.Candidate.Amount, c.Candidate.BillingDate); err != nil {
		return fmt.Errorf("update %s: %w", c.MatchedRecordID, err)
	}
	return nil
}

func (e *Executor) insert(ctx context.Context, userID string, c model.SubscriptionCandidate) error {
	now := e.now()
	sub := &model.Subscription{
		ID:              e.newID(),
		UserID:          userID,
		Name:            c.MerchantName,
		Cost:            c.Amount,
		Currency:        c.Currency,
		BillingCycle:    c.BillingFrequency,
		NextRenewalDate: c.BillingDate,
		Category:        e.defaultCategory,
		SourceMessageID: c.SourceMessageID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := e.store.CreateSubscription(ctx, sub); err != nil {
		return fmt.Errorf("insert %s: %w", c.MerchantName, err)
	}
	return nil
}
