package model

import "time"

// RunStatus represents the current state of a generation run.
type RunStatus string

const (
	RunStatusQueued       RunStatus = "queued"
	RunStatusExtracting   RunStatus = "extracting"
	RunStatusInferring    RunStatus = "inferring"
	RunStatusSynthesizing RunStatus = "synthesizing"
	RunStatusScoring      RunStatus = "scoring"
	RunStatusAugmenting   RunStatus = "augmenting"
	RunStatusComplete     RunStatus = "complete"
	RunStatusFailed       RunStatus = "failed"
)

// RunConfig is the subset of configuration recorded with each run.
type RunConfig struct {
	Provider           string  `json:"provider"`
	Model              string  `json:"model"`
	CorpusPath         string  `json:"corpus_path"`
	TargetDatasetSize  int     `json:"target_dataset_size"`
	AlignmentThreshold float64 `json:"alignment_threshold"`
	UseDomainMixing    bool    `json:"use_domain_mixing"`
	Seed               uint64  `json:"seed"`
}

// Run represents a single dataset generation run.
type Run struct {
	ID        string    `json:"id"`
	Status    RunStatus `json:"status"`
	Config    RunConfig `json:"config"`
	Stats     *RunStats `json:"stats,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunStats aggregates counters collected while a run progresses. They are
// informational only and never steer the pipeline.
type RunStats struct {
	Intents        int                      `json:"intents"`
	Policies       int                      `json:"policies"`
	Conversations  int                      `json:"conversations"`
	Aligned        int                      `json:"aligned"`
	Rejected       int                      `json:"rejected"`
	ScoredDefaults int                      `json:"scored_with_defaults"`
	Variants       int                      `json:"variants"`
	VariantsByType map[AugmentationType]int `json:"variants_by_type"`
	BranchFailures map[AugmentationType]int `json:"branch_failures,omitempty"`
	MeanLabelScore float64                  `json:"mean_label_score"`
	Records        int                      `json:"records"`
	Truncated      bool                     `json:"truncated"`
	DurationMillis int64                    `json:"duration_ms"`
}
