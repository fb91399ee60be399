package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptpilot/promptpilot/internal/config"
	"github.com/promptpilot/promptpilot/internal/errs"
	"github.com/promptpilot/promptpilot/pkg/models"
)

func newClient(baseURL string, timeout time.Duration) *Client {
	return NewClient(config.ProviderConfig{
		APIKey:    "sk-test",
		BaseURL:   baseURL,
		Model:     "gpt-4o",
		MaxTokens: 1024,
		Timeout:   timeout,
	})
}

func TestOptimize(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "optimized text"}}],
			"usage": {"total_tokens": 57}
		}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL, 5*time.Second)
	result, err := c.Optimize(context.Background(), "raw text", models.CategoryCoding)
	require.NoError(t, err)
	assert.Equal(t, "optimized text", result.OptimizedPrompt)
	assert.Equal(t, 57, result.TokensUsed)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, systemPrompts[models.CategoryCoding], captured.Messages[0].Content)
	assert.Equal(t, "raw text", captured.Messages[1].Content)
	assert.Equal(t, "gpt-4o", captured.Model)
	assert.Equal(t, 1024, captured.MaxTokens)
}

func TestOptimizeUnknownCategoryFallsBack(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "x"}}], "usage": {"total_tokens": 1}}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL, 5*time.Second)
	_, err := c.Optimize(context.Background(), "raw", "bogus")
	require.NoError(t, err)
	assert.Equal(t, systemPrompts[models.CategoryGeneral], captured.Messages[0].Content)
}

func TestOptimizeProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "overloaded"}}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL, 5*time.Second)
	_, err := c.Optimize(context.Background(), "raw", models.CategoryGeneral)
	assert.ErrorIs(t, err, errs.ErrProvider)
}

func TestOptimizeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := newClient(srv.URL, 20*time.Millisecond)
	_, err := c.Optimize(context.Background(), "raw", models.CategoryGeneral)
	assert.ErrorIs(t, err, errs.ErrProvider)
}

func TestOptimizeEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": [], "usage": {"total_tokens": 0}}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL, 5*time.Second)
	_, err := c.Optimize(context.Background(), "raw", models.CategoryGeneral)
	assert.ErrorIs(t, err, errs.ErrProvider)
}
