// Package provider implements the external generation provider client.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/promptpilot/promptpilot/internal/config"
	"github.com/promptpilot/promptpilot/internal/errs"
	"github.com/promptpilot/promptpilot/pkg/models"
)

// systemPrompts holds the fixed instruction template per category.
var systemPrompts = map[string]string{
	models.CategoryGeneral: "You are an expert prompt engineer. Your task is to improve and optimize the given prompt to make it clearer, more specific, and more effective for AI models. Maintain the original intent while enhancing clarity, specificity, and structure. Return only the optimized prompt without explanation.",

	models.CategoryCoding: "You are an expert prompt engineer specializing in coding and software development prompts. Optimize the given prompt to elicit better code solutions. Ensure it specifies language, context, constraints, and expected output format clearly. Return only the optimized prompt without explanation.",

	models.CategoryCreative: "You are an expert prompt engineer specializing in creative writing prompts. Optimize the given prompt to inspire richer, more vivid, and more engaging creative content. Add sensory details, tone guidance, and narrative direction where appropriate. Return only the optimized prompt without explanation.",

	models.CategoryAnalysis: "You are an expert prompt engineer specializing in analytical and research prompts. Optimize the given prompt to elicit thorough, structured, and insightful analysis. Clarify scope, depth, and desired output format. Return only the optimized prompt without explanation.",

	models.CategoryInstruction: "You are an expert prompt engineer specializing in instructional and task-based prompts. Optimize the given prompt to produce clear, step-by-step guidance. Ensure it specifies the audience, level of detail, and expected format. Return only the optimized prompt without explanation.",
}

// Result holds a provider response
type Result struct {
	OptimizedPrompt string
	TokensUsed      int
}

// Client calls the OpenAI chat completions API. The call is bounded by
// the configured timeout; on expiry the request fails, it is never
// retried here.
type Client struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
}

// NewClient creates a provider client from configuration
func NewClient(cfg config.ProviderConfig) *Client {
	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Optimize sends the prompt with the category's instruction template
// and returns the transformed text and the provider's token cost.
// Unknown categories fall back to the general template.
func (c *Client) Optimize(ctx context.Context, rawPrompt, category string) (*Result, error) {
	system, ok := systemPrompts[category]
	if !ok {
		system = systemPrompts[models.CategoryGeneral]
	}

	body, err := json.Marshal(chatRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: rawPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal provider request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create provider request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed after %v: %v", errs.ErrProvider, time.Since(start), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: provider returned status %d: %s", errs.ErrProvider, resp.StatusCode, detail)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed provider response: %v", errs.ErrProvider, err)
	}

	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: provider returned no choices", errs.ErrProvider)
	}

	return &Result{
		OptimizedPrompt: parsed.Choices[0].Message.Content,
		TokensUsed:      parsed.Usage.TotalTokens,
	}, nil
}
