package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Veraticus/subscout/internal/common"
	"github.com/Veraticus/subscout/internal/model"
)

// MemoryStore is an in-process Store used by tests and dry runs.
// Individual operations can be made to fail to exercise partial commits.
type MemoryStore struct {
	records     map[string]model.Subscription
	failCreate  map[string]error // keyed by subscription name
	failUpdate  map[string]error // keyed by record id
	listErr     error
	mu          sync.Mutex
	listCalls   int
	createCalls int
	updateCalls int
}

// NewMemoryStore creates a store seeded with records.
func NewMemoryStore(records ...model.Subscription) *MemoryStore {
	m := &MemoryStore{
		records:    make(map[string]model.Subscription, len(records)),
		failCreate: make(map[string]error),
		failUpdate: make(map[string]error),
	}
	for _, r := range records {
		m.records[r.ID] = r
	}
	return m
}

// FailCreate makes CreateSubscription return err for records named name.
func (m *MemoryStore) FailCreate(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCreate[name] = err
}

// FailUpdate makes UpdateSubscriptionCost return err for the record id.
func (m *MemoryStore) FailUpdate(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failUpdate[id] = err
}

// FailList makes ListSubscriptions return err.
func (m *MemoryStore) FailList(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

// Migrate is a no-op.
func (m *MemoryStore) Migrate(_ context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

// ListSubscriptions returns copies of userID's records ordered by name then id.
func (m *MemoryStore) ListSubscriptions(ctx context.Context, userID string) ([]model.Subscription, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}

	var subs []model.Subscription
	for _, r := range m.records {
		if r.UserID == userID {
			subs = append(subs, r)
		}
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].Name != subs[j].Name {
			return subs[i].Name < subs[j].Name
		}
		return subs[i].ID < subs[j].ID
	})
	return subs, nil
}

// CreateSubscription inserts a copy of sub.
func (m *MemoryStore) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSubscription(sub); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if err := m.failCreate[sub.Name]; err != nil {
		return err
	}
	if _, exists := m.records[sub.ID]; exists {
		return fmt.Errorf("subscription %s: %w", sub.ID, common.ErrDuplicateEntry)
	}
	m.records[sub.ID] = *sub
	return nil
}

// UpdateSubscriptionCost changes the cost and renewal date of a record owned by userID.
func (m *MemoryStore) UpdateSubscriptionCost(ctx context.Context, userID, id string, cost float64, renewal time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if err := m.failUpdate[id]; err != nil {
		return err
	}
	rec, ok := m.records[id]
	if !ok || rec.UserID != userID {
		return fmt.Errorf("subscription %s: %w", id, common.ErrNotFound)
	}
	rec.Cost = cost
	if !renewal.IsZero() {
		rec.NextRenewalDate = renewal
	}
	rec.UpdatedAt = time.Now()
	m.records[id] = rec
	return nil
}

// Record returns a copy of the record with id.
func (m *MemoryStore) Record(id string) (model.Subscription, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	return r, ok
}

// Len reports how many records the store holds.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Calls reports how many list, create, and update calls were made.
func (m *MemoryStore) Calls() (list, create, update int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls, m.createCalls, m.updateCalls
}
