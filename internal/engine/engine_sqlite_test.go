package engine

import (
	"context"
	"testing"

	"github.com/Veraticus/subscout/internal/commit"
	"github.com/Veraticus/subscout/internal/config"
	"github.com/Veraticus/subscout/internal/extraction"
	"github.com/Veraticus/subscout/internal/mailbox"
	"github.com/Veraticus/subscout/internal/model"
	"github.com/Veraticus/subscout/internal/review"
	"github.com/Veraticus/subscout/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanCommitRescanSQLite(t *testing.T) {
	db := testutil.SetupTestDB(t,
		testutil.Record("s1", "u1", "Spotify", 9.99),
		testutil.Record("s2", "u1", "Adobe", 54.99),
		testutil.Record("other", "u2", "Netflix", 15.49),
	)
	mb := &stubMailbox{}
	mb.add("m1", "Your Spotify receipt", "You were charged $11.99 today.")
	mb.add("m2", "Netflix: your payment receipt", "Total $15.49")
	mb.add("m3", "Adobe - receipt", "Creative Cloud $54.99 charged")

	eng := New(Dependencies{
		Store:        db.Storage,
		Entitlements: allowAll{allowed: true},
		Mailboxes: func(_ context.Context, _ string) (mailbox.Mailbox, error) {
			return mb, nil
		},
		Extractor: extraction.New(extraction.Config{
			GateKeywords:     config.DefaultGateKeywords,
			PromptBodyLength: 800,
		}, nil, nil),
		Executor: commit.NewExecutor(db.Storage, "Other", nil),
	}, DefaultConfig())

	ctx := context.Background()
	req := ScanRequest{UserID: "u1", AccessToken: "tok", Days: 30}

	first, err := eng.Scan(ctx, req)
	require.NoError(t, err)
	require.Len(t, first.Candidates, 3)
	// Another user's Netflix record is invisible to u1.
	assert.Equal(t, model.ClassificationNew, first.Candidates[1].Classification)

	decisions := make([]model.ResolutionDecision, len(first.Candidates))
	for i, c := range first.Candidates {
		decisions[i] = review.DefaultDecision(c)
	}
	out, err := eng.Commit(ctx, "u1", first.Candidates, decisions)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Applied)
	assert.Empty(t, out.Failures)

	assert.InDelta(t, 11.99, db.MustGet("s1").Cost, 1e-9)
	records := db.MustList("u1")
	require.Len(t, records, 3)
	var netflix model.Subscription
	for _, r := range records {
		if r.Name == "Netflix" {
			netflix = r
		}
	}
	assert.Equal(t, "m2", netflix.SourceMessageID)
	assert.InDelta(t, 15.49, netflix.Cost, 1e-9)

	second, err := eng.Scan(ctx, req)
	require.NoError(t, err)
	require.Len(t, second.Candidates, 3)
	for _, c := range second.Candidates {
		assert.Equal(t, model.ClassificationDuplicate, c.Classification, c.Candidate.MerchantName)
	}
	assert.Equal(t, netflix.ID, second.Candidates[1].MatchedRecordID)
}
