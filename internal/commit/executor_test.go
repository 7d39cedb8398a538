package commit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Veraticus/subscout/internal/model"
	"github.com/Veraticus/subscout/internal/review"
	"github.com/Veraticus/subscout/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var billed = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func candidate(msgID, merchant string, amount float64) model.SubscriptionCandidate {
	return model.SubscriptionCandidate{
		SourceMessageID:  msgID,
		MerchantName:     merchant,
		Amount:           amount,
		Currency:         "USD",
		BillingFrequency: model.FrequencyMonthly,
		BillingDate:      billed,
		Source:           model.SourceModel,
	}
}

func newEntry(c model.SubscriptionCandidate) review.Entry {
	cc := model.ClassifiedCandidate{Candidate: c, Classification: model.ClassificationNew}
	return review.Entry{Candidate: cc, Decision: review.DefaultDecision(cc)}
}

func conflictEntry(c model.SubscriptionCandidate, rec model.Subscription, action model.ResolutionAction) review.Entry {
	return review.Entry{
		Candidate: model.ClassifiedCandidate{
			Candidate:       c,
			Classification:  model.ClassificationConflict,
			MatchedRecordID: rec.ID,
			MatchedRecord:   rec.Snapshot(),
		},
		Decision: model.ResolutionDecision{Selected: true, Action: action},
	}
}

func newTestExecutor(store *storage.MemoryStore) *Executor {
	e := NewExecutor(store, "Other", nil)
	n := 0
	e.newID = func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}
	e.now = func() time.Time { return billed }
	return e
}

func TestApplyInsertsNew(t *testing.T) {
	store := storage.NewMemoryStore()
	e := newTestExecutor(store)

	sum := e.Apply(context.Background(), "u1", []review.Entry{newEntry(candidate("m1", "Netflix", 15.49))})

	assert.Equal(t, 1, sum.Applied)
	assert.Equal(t, 0, sum.Failed)
	require.Len(t, sum.Outcomes, 1)
	assert.Equal(t, model.OperationInsert, sum.Outcomes[0].Operation)
	assert.Equal(t, "m1", sum.Outcomes[0].CandidateRef)

	rec, ok := store.Record("new-1")
	require.True(t, ok)
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, "Netflix", rec.Name)
	assert.InDelta(t, 15.49, rec.Cost, 1e-9)
	assert.Equal(t, "Other", rec.Category)
	assert.Equal(t, "m1", rec.SourceMessageID)
	assert.Equal(t, billed, rec.NextRenewalDate)
}

func TestApplyUpdateExisting(t *testing.T) {
	existing := model.Subscription{ID: "s1", UserID: "u1", Name: "Spotify", Cost: 9.99, Currency: "USD"}
	store := storage.NewMemoryStore(existing)
	e := newTestExecutor(store)

	entry := conflictEntry(candidate("m1", "Spotify", 11.99), existing, model.ActionUpdateExisting)
	sum := e.Apply(context.Background(), "u1", []review.Entry{entry})

	assert.Equal(t, 1, sum.Applied)
	assert.Equal(t, model.OperationUpdate, sum.Outcomes[0].Operation)
	rec, _ := store.Record("s1")
	assert.InDelta(t, 11.99, rec.Cost, 1e-9)
	assert.Equal(t, billed, rec.NextRenewalDate)
	assert.Equal(t, 1, store.Len())
}

func TestApplyUpdateOtherUsersRecordFails(t *testing.T) {
	victim := model.Subscription{ID: "victim", UserID: "u2", Name: "Spotify", Cost: 9.99, Currency: "USD"}
	store := storage.NewMemoryStore(victim)
	e := newTestExecutor(store)

	entry := conflictEntry(candidate("m1", "Spotify", 0.01), victim, model.ActionUpdateExisting)
	sum := e.Apply(context.Background(), "u1", []review.Entry{entry})

	assert.Equal(t, 0, sum.Applied)
	assert.Equal(t, 1, sum.Failed)
	rec, _ := store.Record("victim")
	assert.InDelta(t, 9.99, rec.Cost, 1e-9)
}

func TestApplyAddSeparateLeavesMatchedRecord(t *testing.T) {
	existing := model.Subscription{ID: "s1", UserID: "u1", Name: "Spotify", Cost: 9.99, Currency: "USD"}
	store := storage.NewMemoryStore(existing)
	e := newTestExecutor(store)

	entry := conflictEntry(candidate("m1", "Spotify Family", 16.99), existing, model.ActionAddSeparate)
	sum := e.Apply(context.Background(), "u1", []review.Entry{entry})

	assert.Equal(t, 1, sum.Applied)
	assert.Equal(t, model.OperationInsert, sum.Outcomes[0].Operation)
	assert.Equal(t, 2, store.Len())
	rec, _ := store.Record("s1")
	assert.InDelta(t, 9.99, rec.Cost, 1e-9)
}

func TestApplyUpdateWithoutMatchedID(t *testing.T) {
	store := storage.NewMemoryStore()
	e := newTestExecutor(store)

	entry := review.Entry{
		Candidate: model.ClassifiedCandidate{
			Candidate:      candidate("m1", "Spotify", 11.99),
			Classification: model.ClassificationConflict,
		},
		Decision: model.ResolutionDecision{Selected: true, Action: model.ActionUpdateExisting},
	}
	sum := e.Apply(context.Background(), "u1", []review.Entry{entry})

	assert.Equal(t, 0, sum.Applied)
	assert.Equal(t, 1, sum.Failed)
	assert.Contains(t, sum.Outcomes[0].ErrorDetail, ErrNoMatchedRecord.Error())
	_, _, updates := store.Calls()
	assert.Equal(t, 0, updates)
}

func TestApplySkipsUncommittable(t *testing.T) {
	store := storage.NewMemoryStore()
	e := newTestExecutor(store)

	unselected := newEntry(candidate("m1", "Netflix", 15.49))
	unselected.Decision.Selected = false
	skipped := newEntry(candidate("m2", "Hulu", 7.99))
	skipped.Decision.Action = model.ActionSkip

	sum := e.Apply(context.Background(), "u1", []review.Entry{unselected, skipped})

	assert.Empty(t, sum.Outcomes)
	assert.Equal(t, 0, store.Len())
	_, creates, _ := store.Calls()
	assert.Equal(t, 0, creates)
}

func TestApplyPartialFailure(t *testing.T) {
	names := []string{"Netflix", "Hulu", "Adobe", "Dropbox", "Figma"}
	for k := range names {
		t.Run(fmt.Sprintf("item %d fails", k), func(t *testing.T) {
			boom := errors.New("write rejected")
			store := storage.NewMemoryStore()
			store.FailCreate(names[k], boom)
			e := newTestExecutor(store)

			entries := make([]review.Entry, len(names))
			for i, n := range names {
				entries[i] = newEntry(candidate(fmt.Sprintf("m%d", i), n, float64(i+1)))
			}

			sum := e.Apply(context.Background(), "u1", entries)

			assert.Equal(t, len(names)-1, sum.Applied)
			assert.Equal(t, 1, sum.Failed)
			require.Len(t, sum.Outcomes, len(names))
			assert.Equal(t, len(names)-1, store.Len())

			failures := sum.Failures()
			require.Len(t, failures, 1)
			assert.Equal(t, names[k], failures[0].MerchantName)
			assert.Contains(t, failures[0].ErrorDetail, "write rejected")
		})
	}
}
