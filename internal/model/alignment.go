package model

// ScoreStatus tells callers whether an alignment score came from a complete
// evaluation or had fields filled with defaults.
type ScoreStatus string

const (
	ScoreStatusScored             ScoreStatus = "scored"
	ScoreStatusScoredWithDefaults ScoreStatus = "scored_with_defaults"
)

// AlignmentScore is the verdict for one conversation against its policy.
type AlignmentScore struct {
	Score     float64     `json:"score"`
	Reasoning string      `json:"reasoning"`
	IsAligned bool        `json:"is_aligned"`
	Status    ScoreStatus `json:"status"`
}

// NewAlignmentScore clamps score into [0,1] and derives IsAligned from the
// threshold comparison. It is the only place a pass/fail verdict is made.
func NewAlignmentScore(score float64, reasoning string, threshold float64, status ScoreStatus) AlignmentScore {
	switch {
	case score < 0:
		score = 0
	case score > 1:
		score = 1
	}
	return AlignmentScore{
		Score:     score,
		Reasoning: reasoning,
		IsAligned: score >= threshold,
		Status:    status,
	}
}

// Degraded reports whether defaults were substituted for missing fields.
func (a AlignmentScore) Degraded() bool {
	return a.Status == ScoreStatusScoredWithDefaults
}
