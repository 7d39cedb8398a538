package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/subscout/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		CacheTTL:   time.Minute,
		RateLimit:  600,
	}
}

func TestServiceCachesCompletions(t *testing.T) {
	mock := NewMockClient(`{"is_subscription":true}`)
	svc := NewServiceWithClient(mock, testConfig(), nil)
	defer svc.Close()

	for range 3 {
		text, err := svc.Complete(context.Background(), "same prompt")
		require.NoError(t, err)
		assert.Equal(t, `{"is_subscription":true}`, text)
	}
	assert.Equal(t, 1, mock.CallCount())

	_, err := svc.Complete(context.Background(), "other prompt")
	require.NoError(t, err)
	assert.Equal(t, 2, mock.CallCount())
}

func TestServiceDoesNotCacheEmptyText(t *testing.T) {
	mock := NewMockClient("")
	svc := NewServiceWithClient(mock, testConfig(), nil)
	defer svc.Close()

	_, _ = svc.Complete(context.Background(), "p")
	_, _ = svc.Complete(context.Background(), "p")
	assert.Equal(t, 2, mock.CallCount())
}

func TestServiceRetriesThrottledCalls(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Provider = "openai"
	cfg.APIKey = "test-key"
	cfg.BaseURL = server.URL

	svc, err := NewService(cfg, nil)
	require.NoError(t, err)
	defer svc.Close()

	text, err := svc.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestServiceErrors(t *testing.T) {
	t.Run("non retryable error returns immediately", func(t *testing.T) {
		mock := &MockClient{Err: errors.New("bad request")}
		svc := NewServiceWithClient(mock, testConfig(), nil)
		defer svc.Close()

		_, err := svc.Complete(context.Background(), "p")
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrModelUnavailable)
		assert.Equal(t, 1, mock.CallCount())
	})

	t.Run("retryable error exhausts attempts", func(t *testing.T) {
		mock := &MockClient{Err: &common.RetryableError{Err: errors.New("503"), Retryable: true}}
		svc := NewServiceWithClient(mock, testConfig(), nil)
		defer svc.Close()

		_, err := svc.Complete(context.Background(), "p")
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrMaxRetries)
		assert.Equal(t, 3, mock.CallCount())
	})

	t.Run("unsupported provider", func(t *testing.T) {
		_, err := NewService(Config{Provider: "none"}, nil)
		require.Error(t, err)
	})
}
