package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-goog-api-key"))

		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		cfg := req["generationConfig"].(map[string]any)
		assert.Equal(t, 0.3, cfg["temperature"])
		assert.Equal(t, 0.9, cfg["topP"])
		assert.Equal(t, float64(40), cfg["topK"])
		assert.Equal(t, float64(512), cfg["maxOutputTokens"])
		assert.Equal(t, "application/json", cfg["responseMimeType"])

		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"hello "},{"text":"world"}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	g := NewGeminiClient("key", srv.URL, "gemini-test", nil)
	out, err := g.Generate(context.Background(), "prompt", GenerationConfig{
		Temperature: 0.3, TopP: 0.9, TopK: 40, MaxOutputTokens: 512, JSON: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestGenerateErrors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"api error", http.StatusTooManyRequests, `{"error":"quota"}`, func(t *testing.T, err error) {
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
		}},
		{"blocked", http.StatusOK, `{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`, func(t *testing.T, err error) {
			assert.True(t, errors.Is(err, ErrBlocked))
		}},
		{"empty", http.StatusOK, `{"candidates":[]}`, func(t *testing.T, err error) {
			assert.True(t, errors.Is(err, ErrEmptyResponse))
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			_, err := NewGeminiClient("key", srv.URL, "m", nil).Generate(context.Background(), "p", GenerationConfig{})
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestNotConfigured(t *testing.T) {
	_, err := NewGeminiClient("", "", "", nil).Generate(context.Background(), "p", GenerationConfig{})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestModelResolver(t *testing.T) {
	g := NewGeminiClient("k", "", "", func() string { return "" })
	assert.Equal(t, DefaultModel, g.Model())

	g = NewGeminiClient("k", "", "", func() string { return "gemini-2.5-pro" })
	assert.Equal(t, "gemini-2.5-pro", g.Model())
}
