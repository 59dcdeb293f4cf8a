// Package ai implements the resolution and generation glue over hosted LLM
// APIs: a search-augmented context provider, an outcome judge, and a market
// generator. All calls are single-attempt; upstream failures are wrapped with
// the response body attached and propagated, never retried or defaulted.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ContextProvider retrieves current factual context for a topic or market
// description.
type ContextProvider interface {
	RecentContext(ctx context.Context, query string) (string, error)
}

// chatMessage is one turn of an OpenAI-style chat completion request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the subset of the completion response both providers share.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chatClient posts chat-completion requests to an OpenAI-compatible endpoint.
type chatClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

func newChatClient(endpoint, apiKey string) *chatClient {
	return &chatClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// complete sends one request and returns the first choice's content. payload
// must already contain model and messages; extra provider parameters are the
// caller's responsibility.
func (c *chatClient) complete(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ai: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Keep the upstream body attached; callers surface it verbatim.
		return "", fmt.Errorf("ai: upstream status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("ai: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("ai: no completion choices returned")
	}

	return parsed.Choices[0].Message.Content, nil
}
