package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/subscout/internal/config"
	"github.com/Veraticus/subscout/internal/service"
)

// Store is a migratable subscription record store.
type Store interface {
	service.SubscriptionStore
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		db, err := NewSQLiteStorage(cfg.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres":
		db, err := NewPostgresStorage(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

var (
	_ Store = (*SQLiteStorage)(nil)
	_ Store = (*PostgresStorage)(nil)
	_ Store = (*MemoryStore)(nil)
)
