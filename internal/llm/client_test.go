package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/course-creator/internal/domain"
	"github.com/spherical-ai/course-creator/internal/observability"
)

func newTestClient(t *testing.T, url string, stream bool, retries int) *Client {
	t.Helper()
	client, err := NewClient(Config{
		APIKey:  "sk-or-test-key",
		BaseURL: url,
		Timeout: 5 * time.Second,
		Stream:  stream,
		Retry: &RetryConfig{
			MaxRetries:     retries,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
		},
	}, observability.Nop())
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		apiKey    string
		model     string
		wantModel string
		wantError bool
	}{
		{"valid api key and default model", "sk-or-test-key", "", defaultModel, false},
		{"valid api key and custom model", "sk-or-test-key", "google/gemini-2.5-pro", "google/gemini-2.5-pro", false},
		{"empty api key", "", "", "", true},
		{"whitespace api key", "  ", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(Config{APIKey: tt.apiKey, Model: tt.model}, observability.Nop())
			if tt.wantError {
				require.Error(t, err)
				assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, client.Model())
			assert.Equal(t, defaultBaseURL, client.baseURL)
			assert.Zero(t, client.retry.MaxRetries)
		})
	}
}

func TestBuildRequest(t *testing.T) {
	client := newTestClient(t, "http://unused", false, 0)

	req := client.buildRequest("Explain goroutines")
	assert.Equal(t, defaultModel, req.Model)
	assert.False(t, req.Stream)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
	require.Len(t, req.Messages[0].Content, 1)
	assert.Equal(t, "text", req.Messages[0].Content[0].Type)
	assert.Equal(t, "Explain goroutines", req.Messages[0].Content[0].Text)
}

func TestGenerate(t *testing.T) {
	t.Run("returns first choice", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer sk-or-test-key", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req Request
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "hello", req.Messages[0].Content[0].Text)

			fmt.Fprint(w, `{"id":"gen-1","choices":[{"message":{"role":"assistant","content":"Module 1"}}]}`)
		}))
		defer srv.Close()

		text, err := newTestClient(t, srv.URL, false, 0).Generate(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, "Module 1", text)
	})

	t.Run("no choices yields empty text", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id":"gen-2","choices":[]}`)
		}))
		defer srv.Close()

		text, err := newTestClient(t, srv.URL, false, 0).Generate(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, "", text)
	})

	t.Run("error object in 200 body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"error":{"message":"model overloaded","code":502}}`)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL, false, 0).Generate(context.Background(), "hello")
		require.Error(t, err)
		assert.True(t, domain.IsType(err, domain.ErrorTypeGeneration))
		assert.Contains(t, err.Error(), "model overloaded")
	})

	t.Run("non-200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"message":"invalid key"}}`)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL, false, 0).Generate(context.Background(), "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API returned status 401")
		assert.Contains(t, err.Error(), "invalid key")
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"choices":[{"message":{"content":"late"}}]}`)
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestClient(t, srv.URL, false, 0).Generate(ctx, "hello")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestGenerate_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": OPENROUTER PROCESSING\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"# Module \"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"1\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"\\n- Intro\"},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	text, err := newTestClient(t, srv.URL, true, 0).Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "# Module 1\n- Intro", text)
}

func TestGenerate_Retry(t *testing.T) {
	t.Run("no retries by default", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL, false, 0).Generate(context.Background(), "hello")
		require.Error(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		assert.Contains(t, err.Error(), "API returned status 503")
	})

	t.Run("retryable status recovers", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
		}))
		defer srv.Close()

		text, err := newTestClient(t, srv.URL, false, 2).Generate(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, "ok", text)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("permanent status is not retried", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL, false, 3).Generate(context.Background(), "hello")
		require.Error(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})
}

func TestCalculateBackoff(t *testing.T) {
	cfg := &RetryConfig{InitialBackoff: time.Second, MaxBackoff: 5 * time.Second}

	assert.Equal(t, time.Second, calculateBackoff(0, cfg))
	assert.Equal(t, 2*time.Second, calculateBackoff(1, cfg))
	assert.Equal(t, 4*time.Second, calculateBackoff(2, cfg))
	assert.Equal(t, 5*time.Second, calculateBackoff(3, cfg))
}
