package pipeline

import "github.com/samadpls/archdata/internal/model"

// Assemble flattens variants into dataset records, preserving order.
func Assemble(variants []model.AugmentedConversation) []model.Record {
	records := make([]model.Record, 0, len(variants))
	for _, v := range variants {
		records = append(records, model.Flatten(v))
	}
	return records
}

// Truncate returns the first n records. Records are never reordered or
// sampled.
func Truncate(records []model.Record, n int) []model.Record {
	if n < 0 {
		n = 0
	}
	if len(records) <= n {
		return records
	}
	return records[:n]
}

// VariantSummary reports the augmentation mix of a run.
type VariantSummary struct {
	Total          int
	ByType         map[model.AugmentationType]int
	MeanLabelScore float64
}

// Share returns the fraction of variants of typ, or 0 for an empty summary.
func (s VariantSummary) Share(typ model.AugmentationType) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.ByType[typ]) / float64(s.Total)
}

// SummarizeVariants counts variants per type and averages their label
// scores. It is informational only.
func SummarizeVariants(variants []model.AugmentedConversation) VariantSummary {
	s := VariantSummary{ByType: make(map[model.AugmentationType]int)}
	var sum float64
	for _, v := range variants {
		s.ByType[v.Type]++
		sum += v.LabelScore()
	}
	s.Total = len(variants)
	if s.Total > 0 {
		s.MeanLabelScore = sum / float64(s.Total)
	}
	return s
}

// SummarizeRecords is SummarizeVariants over flattened records.
func SummarizeRecords(records []model.Record) VariantSummary {
	s := VariantSummary{ByType: make(map[model.AugmentationType]int)}
	var sum float64
	for _, r := range records {
		s.ByType[r.AugmentationType]++
		sum += r.LabelScore
	}
	s.Total = len(records)
	if s.Total > 0 {
		s.MeanLabelScore = sum / float64(s.Total)
	}
	return s
}
