// Package testutil provides test helpers shared across subscout packages.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/subscout/internal/model"
	"github.com/Veraticus/subscout/internal/storage"
)

// TestDB is a migrated in-memory SQLite store seeded with subscription records.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database holding records.
// It runs migrations and registers cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		testutil.Record("s1", "u1", "Spotify", 9.99),
//	)
func SetupTestDB(t *testing.T, records ...model.Subscription) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	for i := range records {
		if err := store.CreateSubscription(ctx, &records[i]); err != nil {
			t.Fatalf("failed to seed record %q: %v", records[i].Name, err)
		}
	}

	return &TestDB{Storage: store, t: t}
}

// Record builds a monthly USD subscription record.
func Record(id, userID, name string, cost float64) model.Subscription {
	return model.Subscription{
		ID:           id,
		UserID:       userID,
		Name:         name,
		Cost:         cost,
		Currency:     "USD",
		BillingCycle: model.FrequencyMonthly,
		Category:     "Other",
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// MustGet returns the stored record with id or fails the test.
func (db *TestDB) MustGet(id string) model.Subscription {
	db.t.Helper()
	sub, err := db.Storage.GetSubscription(context.Background(), id)
	if err != nil {
		db.t.Fatalf("failed to load record %q: %v", id, err)
	}
	return *sub
}

// MustList returns every stored record for userID or fails the test.
func (db *TestDB) MustList(userID string) []model.Subscription {
	db.t.Helper()
	subs, err := db.Storage.ListSubscriptions(context.Background(), userID)
	if err != nil {
		db.t.Fatalf("failed to list records: %v", err)
	}
	return subs
}
