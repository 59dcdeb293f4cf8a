package market

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

func tagged(id uint64, tags ...string) domain.Prediction {
	return domain.Prediction{ID: id, State: domain.StateActive, EndTime: 1 << 40, Tags: tags}
}

func TestTagUniverse(t *testing.T) {
	preds := []domain.Prediction{
		tagged(1, "crypto", "bitcoin"),
		tagged(2, "sports"),
		tagged(3, "crypto", "ethereum"),
	}

	assert.Equal(t, []string{"bitcoin", "crypto", "ethereum", "sports"}, TagUniverse(preds))
	assert.Empty(t, TagUniverse(nil))
}

func TestFilterByTags(t *testing.T) {
	preds := []domain.Prediction{
		tagged(1, "crypto", "bitcoin"),
		tagged(2, "sports"),
		tagged(3, "politics"),
	}

	t.Run("empty selection returns full list unchanged", func(t *testing.T) {
		got := FilterByTags(preds, nil)
		assert.Equal(t, preds, got)
	})

	t.Run("or semantics across selected tags", func(t *testing.T) {
		got := FilterByTags(preds, []string{"bitcoin", "politics"})
		assert.Len(t, got, 2)
		assert.Equal(t, uint64(1), got[0].ID)
		assert.Equal(t, uint64(3), got[1].ID)
	})

	t.Run("no intersection excludes", func(t *testing.T) {
		got := FilterByTags(preds, []string{"weather"})
		assert.Empty(t, got)
	})
}

func TestFilterByStatus(t *testing.T) {
	now := int64(1000)
	preds := []domain.Prediction{
		{ID: 1, State: domain.StateActive, EndTime: now + 1},
		{ID: 2, State: domain.StateActive, EndTime: now - 1},
		{ID: 3, State: domain.StateResolved, EndTime: now - 5, Result: domain.ResultTrue},
		{ID: 4, State: domain.StatePaused, EndTime: now + 5},
	}

	assert.Len(t, FilterByStatus(preds, StatusActive, now), 1)
	assert.Len(t, FilterByStatus(preds, StatusExpired, now), 1)
	assert.Len(t, FilterByStatus(preds, StatusResolved, now), 1)
	// Paused markets are hidden from all three tab filters.
	for _, s := range []Status{StatusActive, StatusExpired, StatusResolved} {
		for _, p := range FilterByStatus(preds, s, now) {
			assert.NotEqual(t, uint64(4), p.ID)
		}
	}
}
