// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/subscout/internal/model"
)

// SubscriptionStore is the contract for the subscription record store.
// Every method is an independent atomic operation; callers never wrap them in
// a shared transaction.
type SubscriptionStore interface {
	ListSubscriptions(ctx context.Context, userID string) ([]model.Subscription, error)
	CreateSubscription(ctx context.Context, sub *model.Subscription) error
	// UpdateSubscriptionCost only touches a record owned by userID.
	UpdateSubscriptionCost(ctx context.Context, userID, id string, cost float64, renewal time.Time) error
}

// Entitlements decides whether a user's tier allows mailbox scanning.
type Entitlements interface {
	CanScan(ctx context.Context, userID string) (bool, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
