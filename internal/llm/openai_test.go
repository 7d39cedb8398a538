package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Veraticus/subscout/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClient(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid config",
			config: Config{APIKey: "test-key"},
		},
		{
			name:    "missing API key",
			config:  Config{},
			wantErr: true,
		},
		{
			name: "custom model and settings",
			config: Config{
				APIKey:      "test-key",
				Model:       "gpt-4o",
				Temperature: 0.5,
				MaxTokens:   200,
				BaseURL:     "http://localhost:9999/",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := newOpenAIClient(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestOpenAIClientComplete(t *testing.T) {
	tests := []struct {
		name         string
		responseBody string
		want         string
		statusCode   int
		wantErr      bool
		retryable    bool
	}{
		{
			name:         "successful completion",
			statusCode:   http.StatusOK,
			responseBody: `{"choices":[{"message":{"role":"assistant","content":"{\"is_subscription\":true}"}}]}`,
			want:         `{"is_subscription":true}`,
		},
		{
			name:         "no choices",
			statusCode:   http.StatusOK,
			responseBody: `{"choices":[]}`,
			wantErr:      true,
		},
		{
			name:         "rate limited",
			statusCode:   http.StatusTooManyRequests,
			responseBody: `{"error":"slow down"}`,
			wantErr:      true,
			retryable:    true,
		},
		{
			name:         "server error",
			statusCode:   http.StatusBadGateway,
			responseBody: `upstream`,
			wantErr:      true,
			retryable:    true,
		},
		{
			name:         "bad request",
			statusCode:   http.StatusBadRequest,
			responseBody: `{"error":"bad"}`,
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/chat/completions", r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				var req map[string]any
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "gpt-4o-mini", req["model"])

				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			client, err := newOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL})
			require.NoError(t, err)

			got, err := client.Complete(context.Background(), "prompt")
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.retryable, common.IsRetryable(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
