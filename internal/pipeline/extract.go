package pipeline

import (
	"sort"

	"github.com/samadpls/archdata/internal/model"
)

// ExtractIntents groups corpus utterances by label. Labels are collected
// from the known partitions, the out-of-scope label is dropped, and the
// lexicographically first targetSize/2 labels are kept. Each intent gets up
// to maxSamples examples, scanning partitions in order; an intent may end up
// with none.
func ExtractIntents(c model.Corpus, targetSize, maxSamples int) []model.Intent {
	seen := make(map[string]struct{})
	for _, part := range model.Partitions {
		for _, u := range c[part] {
			if u.Label != model.OutOfScopeLabel {
				seen[u.Label] = struct{}{}
			}
		}
	}

	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	if limit := max(targetSize/2, 0); len(labels) > limit {
		labels = labels[:limit]
	}

	intents := make([]model.Intent, 0, len(labels))
	for _, label := range labels {
		examples := []string{}
	scan:
		for _, part := range model.Partitions {
			for _, u := range c[part] {
				if len(examples) >= maxSamples {
					break scan
				}
				if u.Label == label {
					examples = append(examples, u.Text)
				}
			}
		}
		intents = append(intents, model.Intent{Name: label, Examples: examples})
	}
	return intents
}
