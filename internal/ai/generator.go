package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

const generatorSystemPrompt = "You are an expert in creating engaging and relevant prediction market questions based on current events and data."

const generatorPromptTemplate = `
Based on the following current information about %s:

%s

Generate 3 prediction market questions. Each prediction should be:
1. Specific and unambiguous
2. Measurable with a clear outcome
3. Have a definite timeframe for resolution (within the next 6 months)
4. Relevant to the given topic and current events
5. Interesting and engaging for participants

Output should be a valid JSON array of prediction objects with the following fields:
- description: The prediction question
- duration: Time until the prediction resolves, in seconds (max 6 months)
- tags: An array of relevant tags (3-5 tags)

Ensure the predictions are diverse and cover different aspects of the topic.
`

// Generator asks a language model for new market proposals on a topic.
type Generator struct {
	chat  *chatClient
	model string
}

// NewGenerator creates a Generator from config, applying endpoint and model
// defaults.
func NewGenerator(cfg OpenAIConfig) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ai: openai API key is required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = defaultJudgeModel
	}
	return &Generator{chat: newChatClient(endpoint, cfg.APIKey), model: model}, nil
}

// GenerateProposals produces market proposals for the topic given retrieved
// context. The model output must be a well-formed JSON array; malformed JSON
// is a hard error surfaced to the caller with no repair attempted.
func (g *Generator) GenerateProposals(ctx context.Context, topic, currentData string) ([]domain.MarketProposal, error) {
	prompt := fmt.Sprintf(generatorPromptTemplate, topic, currentData)

	payload := map[string]any{
		"model": g.model,
		"messages": []chatMessage{
			{Role: "system", Content: generatorSystemPrompt},
			{Role: "user", Content: prompt},
		},
		"temperature": 0.7,
	}

	content, err := g.chat.complete(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("ai: generate proposals: %w", err)
	}

	proposals, err := ParseProposals([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("ai: generate proposals: %w", err)
	}
	return proposals, nil
}

// ParseProposals decodes a JSON array of {description, duration, tags}
// objects and augments each with the fixed proposal defaults. A body that is
// not a well-formed array fails outright rather than returning a partial
// list.
func ParseProposals(body []byte) ([]domain.MarketProposal, error) {
	var raw []struct {
		Description string   `json:"description"`
		Duration    int64    `json:"duration"`
		Tags        []string `json:"tags"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidAIResponse, err)
	}

	proposals := make([]domain.MarketProposal, 0, len(raw))
	for _, r := range raw {
		proposals = append(proposals, domain.MarketProposal{
			Description:    r.Description,
			Duration:       r.Duration,
			Tags:           r.Tags,
			MinVotes:       domain.ProposalMinVotes,
			MaxVotes:       domain.ProposalMaxVotes,
			PredictionType: domain.ProposalPredictionType,
			OptionsCount:   domain.ProposalOptionsCount,
		})
	}
	return proposals, nil
}
