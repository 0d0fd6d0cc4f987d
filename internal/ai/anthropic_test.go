package ai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autodevhub/internal/ai"
)

func TestAnthropicGenerateStory(t *testing.T) {
	input := ai.GenerateInput{
		Description: "search products by name",
		StoryType:   "user_story",
		Complexity:  "low",
	}

	t.Run("Successful completion", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/messages", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
			assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "claude-3-5-sonnet-20241022", body["model"])

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"content":[{"type":"text","text":"{\"title\":\"Product Search\",\"gherkin\":\"Feature: Product Search\",\"estimated_points\":3}"}]}`))
		}))
		defer server.Close()

		client := ai.NewAnthropicClient(ai.AnthropicConfig{
			BaseURL: server.URL,
			APIKey:  "test-key",
			Model:   "claude-3-5-sonnet-20241022",
		})

		draft, err := client.GenerateStory(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, "Product Search", draft.Title)
		assert.Equal(t, 3, draft.EstimatedPoints)
	})

	t.Run("API error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
		}))
		defer server.Close()

		client := ai.NewAnthropicClient(ai.AnthropicConfig{BaseURL: server.URL, APIKey: "test-key"})
		_, err := client.GenerateStory(context.Background(), input)
		assert.ErrorContains(t, err, "429")
	})

	t.Run("No text blocks", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"content":[]}`))
		}))
		defer server.Close()

		client := ai.NewAnthropicClient(ai.AnthropicConfig{BaseURL: server.URL, APIKey: "test-key"})
		_, err := client.GenerateStory(context.Background(), input)
		assert.ErrorIs(t, err, ai.ErrEmptyCompletion)
	})
}
