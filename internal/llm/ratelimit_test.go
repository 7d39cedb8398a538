package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	t.Run("burst up to the per-minute limit", func(t *testing.T) {
		rl := newRateLimiter(3)
		assert.True(t, rl.Allow())
		assert.True(t, rl.Allow())
		assert.True(t, rl.Allow())
		assert.False(t, rl.Allow())
	})

	t.Run("defaults when non-positive", func(t *testing.T) {
		rl := newRateLimiter(0)
		assert.Equal(t, 60, rl.Burst())
	})

	t.Run("wait respects context", func(t *testing.T) {
		rl := newRateLimiter(1)
		require.True(t, rl.Allow())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.Error(t, rl.Wait(ctx))
	})
}
