package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/c360studio/intake/llm"
	_ "github.com/c360studio/intake/llm/providers" // Register providers
	"github.com/c360studio/intake/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRegistry wires a single ollama-format endpoint at the given URL.
func newTestRegistry(url string) *model.Registry {
	return model.NewRegistry(
		map[model.Capability]*model.CapabilityConfig{
			model.CapabilityAssessment: {
				Description: "Test capability",
				Preferred:   []string{"test-model"},
			},
		},
		map[string]*model.EndpointConfig{
			"test-model": {
				Provider: "ollama",
				URL:      url,
				Model:    "test-model",
			},
		},
	)
}

func openAISuccess(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": 1677652288,
		"model":   "test-model",
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]string{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{
			"prompt_tokens":     10,
			"completion_tokens": 8,
			"total_tokens":      18,
		},
	}
}

func TestClient_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openAISuccess("Hello! How can I help you?"))
	}))
	defer server.Close()

	client := llm.NewClient(newTestRegistry(server.URL))

	resp, err := client.Complete(context.Background(), llm.Request{
		Capability: "assessment",
		Messages: []llm.Message{
			{Role: "user", Content: "Hello"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help you?", resp.Content)
	assert.Equal(t, 18, resp.Usage.TotalTokens)
	assert.NotEmpty(t, resp.RequestID)
}

func TestClient_Complete_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openAISuccess("recovered"))
	}))
	defer server.Close()

	client := llm.NewClient(newTestRegistry(server.URL),
		llm.WithRetryConfig(llm.RetryConfig{
			MaxAttempts:       3,
			BackoffBase:       time.Millisecond,
			BackoffMultiplier: 1.0,
			MaxBackoff:        5 * time.Millisecond,
			RateLimitDelay:    time.Millisecond,
		}))

	resp, err := client.Complete(context.Background(), llm.Request{
		Capability: "assessment",
		Messages:   []llm.Message{{Role: "user", Content: "hi"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Content)
	assert.Equal(t, int64(3), calls.Load())
}

func TestClient_Complete_RateLimitUsesFixedDelay(t *testing.T) {
	var calls atomic.Int64
	var gaps []time.Duration
	var last time.Time

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		if !last.IsZero() {
			gaps = append(gaps, now.Sub(last))
		}
		last = now

		if calls.Add(1) < 3 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openAISuccess("ok"))
	}))
	defer server.Close()

	const fixedDelay = 30 * time.Millisecond
	client := llm.NewClient(newTestRegistry(server.URL),
		llm.WithRetryConfig(llm.RetryConfig{
			MaxAttempts:       3,
			BackoffBase:       time.Second, // would dominate if the fixed delay were ignored
			BackoffMultiplier: 2.0,
			MaxBackoff:        time.Second,
			RateLimitDelay:    fixedDelay,
		}))

	start := time.Now()
	resp, err := client.Complete(context.Background(), llm.Request{
		Capability: "assessment",
		Messages:   []llm.Message{{Role: "user", Content: "hi"}},
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	require.Len(t, gaps, 2)
	// Two fixed delays, not exponential seconds-scale backoff
	assert.Less(t, elapsed, 500*time.Millisecond)
	for _, gap := range gaps {
		assert.GreaterOrEqual(t, gap, fixedDelay-5*time.Millisecond)
	}
}

func TestClient_Complete_FatalErrorNotRetried(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := llm.NewClient(newTestRegistry(server.URL))

	_, err := client.Complete(context.Background(), llm.Request{
		Capability: "assessment",
		Messages:   []llm.Message{{Role: "user", Content: "hi"}},
	})

	require.Error(t, err)
	assert.True(t, llm.IsFatal(err))
	assert.Equal(t, int64(1), calls.Load())
}

func TestClient_Complete_FallsBackToSecondEndpoint(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer broken.Close()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openAISuccess("from fallback"))
	}))
	defer healthy.Close()

	registry := model.NewRegistry(
		map[model.Capability]*model.CapabilityConfig{
			model.CapabilityAssessment: {
				Preferred: []string{"broken-model"},
				Fallback:  []string{"healthy-model"},
			},
		},
		map[string]*model.EndpointConfig{
			"broken-model":  {Provider: "ollama", URL: broken.URL, Model: "broken"},
			"healthy-model": {Provider: "ollama", URL: healthy.URL, Model: "healthy"},
		},
	)

	client := llm.NewClient(registry,
		llm.WithRetryConfig(llm.RetryConfig{
			MaxAttempts:       2,
			BackoffBase:       time.Millisecond,
			BackoffMultiplier: 1.0,
			MaxBackoff:        time.Millisecond,
			RateLimitDelay:    time.Millisecond,
		}))

	resp, err := client.Complete(context.Background(), llm.Request{
		Capability: "assessment",
		Messages:   []llm.Message{{Role: "user", Content: "hi"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "from fallback", resp.Content)

	// Exhausting retries marks the broken endpoint unhealthy
	h := registry.GetEndpointHealth("broken-model")
	require.NotNil(t, h)
	assert.Equal(t, 1, h.FailureCount)
}

func TestClient_Complete_ExhaustionReturnsAggregatedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := llm.NewClient(newTestRegistry(server.URL),
		llm.WithRetryConfig(llm.RetryConfig{
			MaxAttempts:       2,
			BackoffBase:       time.Millisecond,
			BackoffMultiplier: 1.0,
			MaxBackoff:        time.Millisecond,
			RateLimitDelay:    time.Millisecond,
		}))

	_, err := client.Complete(context.Background(), llm.Request{
		Capability: "assessment",
		Messages:   []llm.Message{{Role: "user", Content: "hi"}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all endpoints failed for capability assessment")
}

func TestClient_Complete_Validation(t *testing.T) {
	client := llm.NewClient(model.NewDefaultRegistry())

	_, err := client.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	assert.ErrorContains(t, err, "capability is required")

	_, err = client.Complete(context.Background(), llm.Request{
		Capability: "assessment",
	})
	assert.ErrorContains(t, err, "at least one message is required")
}
