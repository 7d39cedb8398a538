package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/subscout/internal/common"
	"github.com/Veraticus/subscout/internal/model"
	"github.com/mattn/go-sqlite3"
)

const subscriptionColumns = `id, user_id, name, cost, currency, billing_cycle,
	next_renewal_date, category, source_message_id, created_at, updated_at`

// ListSubscriptions returns every record owned by userID, ordered by name.
func (s *SQLiteStorage) ListSubscriptions(ctx context.Context, userID string) ([]model.Subscription, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE user_id = ?
		ORDER BY name, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []model.Subscription
	for rows.Next() {
		sub, scanErr := scanSubscription(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}
	return subs, nil
}

// GetSubscription returns one record by id.
func (s *SQLiteStorage) GetSubscription(ctx context.Context, id string) (*model.Subscription, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE id = ?
	`, id)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subscription %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscription inserts a new record.
func (s *SQLiteStorage) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSubscription(sub); err != nil {
		return err
	}

	now := time.Now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	if sub.UpdatedAt.IsZero() {
		sub.UpdatedAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sub.ID, sub.UserID, sub.Name, sub.Cost, sub.Currency, string(sub.BillingCycle),
		nullTime(sub.NextRenewalDate), sub.Category, sub.SourceMessageID,
		sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("subscription %s: %w", sub.ID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to insert subscription: %w", err)
	}
	return nil
}

// UpdateSubscriptionCost changes the cost and renewal date of a record owned by userID.
// A record owned by anyone else is reported as ErrNotFound.
func (s *SQLiteStorage) UpdateSubscriptionCost(ctx context.Context, userID, id string, cost float64, renewal time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET cost = ?, next_renewal_date = COALESCE(?, next_renewal_date), updated_at = ?
		WHERE id = ? AND user_id = ?
	`, cost, nullTime(renewal), time.Now(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("subscription %s: %w", id, common.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row scanner) (model.Subscription, error) {
	var (
		sub     model.Subscription
		cycle   string
		renewal sql.NullTime
	)
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.Name,
		&sub.Cost,
		&sub.Currency,
		&cycle,
		&renewal,
		&sub.Category,
		&sub.SourceMessageID,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return sub, err
	}
	if err != nil {
		return sub, fmt.Errorf("failed to scan subscription: %w", err)
	}

	sub.BillingCycle = model.BillingFrequency(cycle)
	if renewal.Valid {
		sub.NextRenewalDate = renewal.Time
	}
	return sub, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
