package ai

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

func TestParseProposals(t *testing.T) {
	t.Run("well-formed array round-trips with defaults", func(t *testing.T) {
		body := `[
			{"description": "Will BTC exceed $100k by June?", "duration": 7776000, "tags": ["crypto", "bitcoin", "price"]},
			{"description": "Will ETH flip BTC volume?", "duration": 5184000, "tags": ["crypto", "ethereum", "volume"]},
			{"description": "Will a spot ETF launch?", "duration": 2592000, "tags": ["crypto", "etf", "regulation"]}
		]`

		proposals, err := ParseProposals([]byte(body))
		require.NoError(t, err)
		require.Len(t, proposals, 3)

		for _, p := range proposals {
			assert.Equal(t, 1, p.MinVotes)
			assert.Equal(t, 1000, p.MaxVotes)
			assert.Equal(t, 0, p.PredictionType)
			assert.Equal(t, 2, p.OptionsCount)
		}
		assert.Equal(t, "Will BTC exceed $100k by June?", proposals[0].Description)
		assert.Equal(t, int64(7776000), proposals[0].Duration)
	})

	t.Run("malformed JSON throws, no partial list", func(t *testing.T) {
		_, err := ParseProposals([]byte(`[{"description": "truncated`))
		assert.ErrorIs(t, err, domain.ErrInvalidAIResponse)
	})

	t.Run("non-array body rejected", func(t *testing.T) {
		_, err := ParseProposals([]byte(`{"description": "not an array"}`))
		assert.ErrorIs(t, err, domain.ErrInvalidAIResponse)
	})

	t.Run("empty array is valid", func(t *testing.T) {
		proposals, err := ParseProposals([]byte(`[]`))
		require.NoError(t, err)
		assert.Empty(t, proposals)
	})
}

func TestGeneratorGenerateProposals(t *testing.T) {
	content := `[{"description": "Will it happen?", "duration": 3600, "tags": ["a", "b", "c"]}]`
	srv := chatStub(t, http.StatusOK, content, nil)
	defer srv.Close()

	g, err := NewGenerator(OpenAIConfig{Endpoint: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)

	proposals, err := g.GenerateProposals(context.Background(), "crypto", "context here")
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.Equal(t, 2, proposals[0].OptionsCount)
}

func TestGeneratorMalformedModelOutput(t *testing.T) {
	srv := chatStub(t, http.StatusOK, "here are your predictions: [...]", nil)
	defer srv.Close()

	g, err := NewGenerator(OpenAIConfig{Endpoint: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)

	_, err = g.GenerateProposals(context.Background(), "crypto", "context")
	assert.ErrorIs(t, err, domain.ErrInvalidAIResponse)
}
