package ai

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

const (
	defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultJudgeModel     = "gpt-4"
)

const judgeSystemPrompt = "You are an impartial judge tasked with determining the outcomes of prediction markets based on the most current and relevant information available. Provide concise and accurate assessments."

const judgePromptTemplate = `
Analyze the following prediction and the most recent related information to determine its outcome:

Prediction: "%s"

Current Information:
%s

Based on this data, has the prediction come true? Respond in the following format:
1. A single digit: 0 if the prediction is false or has not occurred, 1 if it is true or has occurred.
2. A confidence score between 0 and 1 (e.g., 0.8 for 80%% confidence).
3. A brief explanation (max 50 words) of your reasoning.

Example response:
1
0.9
Bitcoin has surpassed $50,000 on multiple major exchanges according to current market data, meeting the prediction criteria with high confidence.

Your response:
`

// OpenAIConfig configures the judge and generator clients.
type OpenAIConfig struct {
	Endpoint string
	APIKey   string
	Model    string
}

// Judge asks a language model for a binary verdict on a market description
// given retrieved context. The verdict is a recommendation only; it never
// moves chain state by itself.
type Judge struct {
	chat  *chatClient
	model string
}

// NewJudge creates a Judge from config, applying endpoint and model defaults.
func NewJudge(cfg OpenAIConfig) (*Judge, error) {
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
	return &Judge{chat: newChatClient(endpoint, cfg.APIKey), model: model}, nil
}

// DetermineOutcome judges the prediction against currentData and parses the
// strict 3-line response. A response missing either of the first two lines is
// a hard error; no outcome is ever guessed.
func (j *Judge) DetermineOutcome(ctx context.Context, description, currentData string) (domain.Verdict, error) {
	prompt := fmt.Sprintf(judgePromptTemplate, description, currentData)

	payload := map[string]any{
		"model": j.model,
		"messages": []chatMessage{
			{Role: "system", Content: judgeSystemPrompt},
			{Role: "user", Content: prompt},
		},
		"temperature": 0.1,
	}

	content, err := j.chat.complete(ctx, payload)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("ai: determine outcome: %w", err)
	}

	verdict, err := ParseVerdict(content)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("ai: determine outcome: %w", err)
	}
	return verdict, nil
}

// ParseVerdict parses the judge's 3-line format: first line a digit outcome,
// second a float confidence, remaining lines joined as the explanation.
func ParseVerdict(response string) (domain.Verdict, error) {
	lines := strings.Split(strings.TrimSpace(response), "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) == "" || strings.TrimSpace(lines[1]) == "" {
		return domain.Verdict{}, fmt.Errorf("%w: %q", domain.ErrInvalidAIResponse, truncate(response, 120))
	}

	outcome, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("%w: outcome line %q: %v", domain.ErrInvalidAIResponse, lines[0], err)
	}
	if outcome != 0 && outcome != 1 {
		return domain.Verdict{}, fmt.Errorf("%w: outcome %d is not binary", domain.ErrInvalidAIResponse, outcome)
	}

	confidence, err := strconv.ParseFloat(strings.TrimSpace(lines[1]), 64)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("%w: confidence line %q: %v", domain.ErrInvalidAIResponse, lines[1], err)
	}
	if confidence < 0 || confidence > 1 {
		return domain.Verdict{}, fmt.Errorf("%w: confidence %v out of range", domain.ErrInvalidAIResponse, confidence)
	}

	explanation := strings.TrimSpace(strings.Join(lines[2:], " "))
	if explanation == "" {
		explanation = "No explanation provided"
	}

	return domain.Verdict{
		Outcome:     outcome,
		Confidence:  confidence,
		Explanation: explanation,
	}, nil
}
