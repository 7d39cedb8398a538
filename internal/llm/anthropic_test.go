package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Veraticus/subscout/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnthropicClient(t *testing.T) {
	_, err := newAnthropicClient(Config{})
	require.Error(t, err)

	client, err := newAnthropicClient(Config{APIKey: "test-key"})
	require.NoError(t, err)
	assert.Equal(t, defaultAnthropicBaseURL, client.(*anthropicClient).baseURL)
}

func TestAnthropicClientComplete(t *testing.T) {
	tests := []struct {
		name         string
		responseBody string
		want         string
		statusCode   int
		wantErr      bool
		rateLimited  bool
	}{
		{
			name:         "joins text blocks",
			statusCode:   http.StatusOK,
			responseBody: `{"content":[{"type":"text","text":"{\"is_subscription\":"},{"type":"text","text":"false}"}]}`,
			want:         `{"is_subscription":false}`,
		},
		{
			name:         "empty content",
			statusCode:   http.StatusOK,
			responseBody: `{"content":[]}`,
			want:         "",
		},
		{
			name:         "rate limited",
			statusCode:   http.StatusTooManyRequests,
			responseBody: `{}`,
			wantErr:      true,
			rateLimited:  true,
		},
		{
			name:         "unauthorized",
			statusCode:   http.StatusUnauthorized,
			responseBody: `{"error":"invalid x-api-key"}`,
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/messages", r.URL.Path)
				assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
				assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			client, err := NewClient(Config{Provider: "anthropic", APIKey: "test-key", BaseURL: server.URL})
			require.NoError(t, err)

			got, err := client.Complete(context.Background(), "prompt")
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.rateLimited, errors.Is(err, common.ErrRateLimit))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewClientUnsupportedProvider(t *testing.T) {
	_, err := NewClient(Config{Provider: "mystery", APIKey: "k"})
	require.Error(t, err)
}
