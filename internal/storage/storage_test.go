package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/subscout/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "a.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	assert.IsType(t, &SQLiteStorage{}, store)
	require.NoError(t, store.Migrate(ctx))

	_, err = Open(ctx, config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)

	_, err = Open(ctx, config.DatabaseConfig{Driver: "postgres"})
	assert.ErrorIs(t, err, ErrEmptyString)
}
