package llm

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResponseCache(t *testing.T) {
	t.Run("basic operations", func(t *testing.T) {
		cache := newResponseCache(5 * time.Minute)
		defer cache.Close()

		_, found := cache.get("non-existent")
		assert.False(t, found)

		cache.set("key1", `{"is_subscription":true}`)
		text, found := cache.get("key1")
		assert.True(t, found)
		assert.Equal(t, `{"is_subscription":true}`, text)
		assert.Equal(t, 1, cache.size())
	})

	t.Run("expiration", func(t *testing.T) {
		cache := newResponseCache(50 * time.Millisecond)
		defer cache.Close()

		cache.set("key2", "value")
		_, found := cache.get("key2")
		assert.True(t, found)

		time.Sleep(100 * time.Millisecond)

		_, found = cache.get("key2")
		assert.False(t, found)
	})

	t.Run("concurrent access", func(t *testing.T) {
		cache := newResponseCache(5 * time.Minute)
		defer cache.Close()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					cache.set("concurrent", "v")
					_, _ = cache.get("concurrent")
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, cache.size())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		cache := newResponseCache(0)
		cache.Close()
		cache.Close()
	})
}

func TestPromptKey(t *testing.T) {
	assert.Equal(t, promptKey("a"), promptKey("a"))
	assert.NotEqual(t, promptKey("a"), promptKey("b"))
	assert.Len(t, promptKey("anything"), 64)
}
