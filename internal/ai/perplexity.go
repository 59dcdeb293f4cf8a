package ai

import (
	"context"
	"fmt"
	"strings"
)

const (
	defaultPerplexityEndpoint = "https://api.perplexity.ai/chat/completions"
	defaultPerplexityModel    = "llama-3.1-sonar-small-128k-online"
)

const contextSystemPrompt = "You are a highly knowledgeable assistant tasked with providing the most recent and relevant information on a given topic. Focus on factual, verifiable data from reliable sources. Include specific numbers, dates, and key events where applicable."

// PerplexityConfig configures the search-augmented context provider.
type PerplexityConfig struct {
	Endpoint string
	APIKey   string
	Model    string
}

// PerplexityClient implements ContextProvider using the Perplexity online
// models. Requests use fixed parameters: bounded output, one-week recency
// filter, no images or related questions.
type PerplexityClient struct {
	chat  *chatClient
	model string
}

// NewPerplexityClient creates a PerplexityClient from config, applying
// endpoint and model defaults.
func NewPerplexityClient(cfg PerplexityConfig) (*PerplexityClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ai: perplexity API key is required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultPerplexityEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = defaultPerplexityModel
	}
	return &PerplexityClient{
		chat:  newChatClient(endpoint, cfg.APIKey),
		model: model,
	}, nil
}

// RecentContext fetches up-to-date factual context for the query. On failure
// the upstream error body is attached to the returned error; the caller must
// abort its flow rather than proceed without context.
func (p *PerplexityClient) RecentContext(ctx context.Context, query string) (string, error) {
	userPrompt := fmt.Sprintf(
		"Provide the most up-to-date and relevant information on the following topic: %s. Include recent developments, statistics, and expert opinions if available. Format the information in a clear, concise manner.",
		query,
	)

	payload := map[string]any{
		"model": p.model,
		"messages": []chatMessage{
			{Role: "system", Content: contextSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		"max_tokens":               300,
		"temperature":              0.5,
		"top_p":                    0.9,
		"return_citations":         true,
		"return_images":            false,
		"return_related_questions": false,
		"search_recency_filter":    "week",
	}

	content, err := p.chat.complete(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("ai: fetch context for %q: %w", truncate(query, 80), err)
	}
	return strings.TrimSpace(content), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
