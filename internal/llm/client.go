// Package llm wraps the model API behind the extraction contract: the
// model may only report what is present in the page text it was given,
// and every call is charged against a per-brand budget.
package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const (
	systemPrompt = "You are a hair product data extractor. Extract ONLY information present " +
		"in the provided page text. If a field is not found, return null. " +
		"Never hallucinate or infer data not explicitly present."

	// Pages longer than this are clipped before they reach the model.
	maxPageTextRunes = 15000
)

var (
	ErrBudgetExceeded = errors.New("LLM budget exceeded for this brand")
	ErrNoAPIKey       = errors.New("OPENAI_API_KEY not set")
)

type Client struct {
	api     *openai.Client
	model   string
	tracker *CostTracker
}

// NewClient builds a client. An empty API key yields a client that
// errors on first call rather than at startup, so pipelines that never
// hit the fallback can run without a key.
func NewClient(apiKey, model string, maxCallsPerBrand int) *Client {
	c := &Client{
		model:   model,
		tracker: NewCostTracker(maxCallsPerBrand),
	}
	if apiKey != "" {
		c.api = openai.NewClient(apiKey)
	}
	return c
}

func (c *Client) CanCall() bool {
	return c.tracker.CanCall()
}

func (c *Client) CostSummary() Summary {
	return c.tracker.Summary()
}

// ResetBrandBudget starts a fresh budget, keeping the same limit.
func (c *Client) ResetBrandBudget() {
	c.tracker = NewCostTracker(c.tracker.MaxCalls)
}

// ExtractStructured sends one page text plus a task prompt and decodes
// the JSON object the model replies with. A reply that is not JSON in
// any recognized form comes back as an empty map, not an error.
func (c *Client) ExtractStructured(ctx context.Context, pageText, prompt string, maxTokens int) (map[string]any, error) {
	if !c.tracker.CanCall() {
		return nil, ErrBudgetExceeded
	}
	if c.api == nil {
		return nil, ErrNoAPIKey
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt + "\n\n---PAGE TEXT---\n" + clipRunes(pageText, maxPageTextRunes)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai call: %w", err)
	}
	c.tracker.RecordCall(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return map[string]any{}, nil
	}
	return ParseJSONResponse(resp.Choices[0].Message.Content), nil
}

func clipRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
