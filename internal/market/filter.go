package market

import (
	"sort"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

// TagUniverse returns the sorted set union of all tags across the given
// predictions.
func TagUniverse(preds []domain.Prediction) []string {
	seen := make(map[string]bool)
	for _, p := range preds {
		for _, t := range p.Tags {
			seen[t] = true
		}
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// FilterByTags returns the predictions whose tag set intersects selected.
// An empty selection passes everything through unchanged (OR semantics, not
// AND).
func FilterByTags(preds []domain.Prediction, selected []string) []domain.Prediction {
	if len(selected) == 0 {
		return preds
	}
	want := make(map[string]bool, len(selected))
	for _, t := range selected {
		want[t] = true
	}

	out := make([]domain.Prediction, 0, len(preds))
	for _, p := range preds {
		for _, t := range p.Tags {
			if want[t] {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// FilterByStatus keeps predictions in the given bucket. Filtering by one of
// the three tab statuses hides paused markets by construction.
func FilterByStatus(preds []domain.Prediction, status Status, now int64) []domain.Prediction {
	out := make([]domain.Prediction, 0, len(preds))
	for _, p := range preds {
		if StatusOf(p, now) == status {
			out = append(out, p)
		}
	}
	return out
}
