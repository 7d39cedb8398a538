package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Veraticus/subscout/internal/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Set SUBSCOUT_TEST_POSTGRES_URL to run against a live database.
func newTestPostgres(t *testing.T) *PostgresStorage {
	t.Helper()
	url := os.Getenv("SUBSCOUT_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("SUBSCOUT_TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	db, err := NewPostgresStorage(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestPostgresRoundTrip(t *testing.T) {
	db := newTestPostgres(t)
	ctx := context.Background()
	user := "test-" + uuid.NewString()

	sub := testSubscription(uuid.NewString(), user, "Netflix", 15.49)
	sub.SourceMessageID = "m1"
	require.NoError(t, db.CreateSubscription(ctx, sub))
	assert.ErrorIs(t, db.CreateSubscription(ctx, sub), common.ErrDuplicateEntry)

	renewal := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.UpdateSubscriptionCost(ctx, sub.UserID, sub.ID, 17.99, renewal))
	assert.ErrorIs(t, db.UpdateSubscriptionCost(ctx, sub.UserID, uuid.NewString(), 1, renewal), common.ErrNotFound)
	assert.ErrorIs(t, db.UpdateSubscriptionCost(ctx, "someone-else", sub.ID, 0.01, renewal), common.ErrNotFound)

	subs, err := db.ListSubscriptions(ctx, user)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.InDelta(t, 17.99, subs[0].Cost, 1e-9)
	assert.Equal(t, "m1", subs[0].SourceMessageID)
	assert.True(t, subs[0].NextRenewalDate.Equal(renewal))
}

func TestNewPostgresStorageEmptyURL(t *testing.T) {
	_, err := NewPostgresStorage(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyString)
}
