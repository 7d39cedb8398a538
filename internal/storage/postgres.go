package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/subscout/internal/common"
	"github.com/Veraticus/subscout/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// PostgresStorage implements Store over a pgx connection pool.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage connects to the database at connString and verifies the connection.
func NewPostgresStorage(ctx context.Context, connString string) (*PostgresStorage, error) {
	if err := validateString(connString, "database url"); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

// Close releases every pooled connection.
func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

var postgresMigrations = []struct {
	description string
	statements  []string
	version     int
}{
	{
		version:     1,
		description: "Initial schema",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS subscriptions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				name TEXT NOT NULL,
				cost DOUBLE PRECISION NOT NULL,
				currency TEXT NOT NULL DEFAULT 'USD',
				billing_cycle TEXT NOT NULL DEFAULT 'monthly',
				next_renewal_date TIMESTAMPTZ,
				category TEXT NOT NULL DEFAULT 'Other',
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_subscriptions_user ON subscriptions(user_id)`,
		},
	},
	{
		version:     2,
		description: "Record the source message of discovered subscriptions",
		statements: []string{
			`ALTER TABLE subscriptions ADD COLUMN IF NOT EXISTS source_message_id TEXT NOT NULL DEFAULT ''`,
			`CREATE INDEX IF NOT EXISTS idx_subscriptions_source_message ON subscriptions(user_id, source_message_id)`,
		},
	},
}

// Migrate applies pending migrations, tracking the version in schema_version.
func (s *PostgresStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	var current int
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, m := range postgresMigrations {
		if m.version <= current {
			continue
		}

		err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			for _, stmt := range m.statements {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, m.version)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}

		slog.Info("Applied migration", "version", m.version, "description", m.description)
	}
	return nil
}

// ListSubscriptions returns every record owned by userID, ordered by name.
func (s *PostgresStorage) ListSubscriptions(ctx context.Context, userID string) ([]model.Subscription, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY name, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		sub, scanErr := scanPostgresSubscription(rows)
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

// CreateSubscription inserts a new record.
func (s *PostgresStorage) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
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

	var renewal *time.Time
	if !sub.NextRenewalDate.IsZero() {
		renewal = &sub.NextRenewalDate
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		sub.ID, sub.UserID, sub.Name, sub.Cost, sub.Currency, string(sub.BillingCycle),
		renewal, sub.Category, sub.SourceMessageID, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("subscription %s: %w", sub.ID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to insert subscription: %w", err)
	}
	return nil
}

// UpdateSubscriptionCost changes the cost and renewal date of a record owned by userID.
func (s *PostgresStorage) UpdateSubscriptionCost(ctx context.Context, userID, id string, cost float64, renewal time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	var next *time.Time
	if !renewal.IsZero() {
		next = &renewal
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE subscriptions
		SET cost = $1, next_renewal_date = COALESCE($2, next_renewal_date), updated_at = now()
		WHERE id = $3 AND user_id = $4
	`, cost, next, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscription %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func scanPostgresSubscription(row pgx.Row) (model.Subscription, error) {
	var (
		sub     model.Subscription
		cycle   string
		renewal *time.Time
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
	if err != nil {
		return sub, fmt.Errorf("failed to scan subscription: %w", err)
	}

	sub.BillingCycle = model.BillingFrequency(cycle)
	if renewal != nil {
		sub.NextRenewalDate = *renewal
	}
	return sub, nil
}
