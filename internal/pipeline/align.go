package pipeline

import (
	"context"
	"encoding/json"
	"math"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/samadpls/archdata/internal/config"
	"github.com/samadpls/archdata/internal/llm"
	"github.com/samadpls/archdata/internal/model"
)

const (
	stageAlign = "align"

	defaultAlignmentScore     = 0.5
	defaultAlignmentReasoning = "No reasoning provided"
)

// AlignmentScorer asks the model how closely a conversation follows its
// policy and applies the threshold locally.
type AlignmentScorer struct {
	llm       llm.Completer
	stage     config.StageConfig
	threshold float64
}

// NewAlignmentScorer creates an AlignmentScorer.
func NewAlignmentScorer(c llm.Completer, stage config.StageConfig, threshold float64) *AlignmentScorer {
	return &AlignmentScorer{llm: c, stage: stage, threshold: threshold}
}

// Score issues one completion for conv. Any is_aligned value reported by
// the model is ignored.
func (s *AlignmentScorer) Score(ctx context.Context, conv model.Conversation) (model.AlignmentScore, error) {
	text, err := s.llm.Complete(ctx, alignmentPrompt(conv), s.stage.Temperature, s.stage.MaxTokens)
	if err != nil {
		return model.AlignmentScore{}, eris.Wrapf(err, "align: complete %s/%s", conv.Domain, conv.Action)
	}
	return parseAlignment(text, s.threshold)
}

type rawAlignment struct {
	Score     json.RawMessage `json:"score"`
	Reasoning *string         `json:"reasoning"`
}

func parseAlignment(text string, threshold float64) (model.AlignmentScore, error) {
	raw, err := extractObject(stageAlign, text)
	if err != nil {
		return model.AlignmentScore{}, err
	}

	var ra rawAlignment
	if err := json.Unmarshal([]byte(raw), &ra); err != nil {
		return model.AlignmentScore{}, &ParseError{Stage: stageAlign, Err: err}
	}

	status := model.ScoreStatusScored
	score := defaultAlignmentScore
	if len(ra.Score) == 0 || string(ra.Score) == "null" {
		status = model.ScoreStatusScoredWithDefaults
	} else {
		score, err = decodeScore(ra.Score)
		if err != nil {
			return model.AlignmentScore{}, &ValidationError{Stage: stageAlign, Field: "score", Err: err}
		}
	}

	reasoning := defaultAlignmentReasoning
	if ra.Reasoning == nil {
		status = model.ScoreStatusScoredWithDefaults
	} else {
		reasoning = *ra.Reasoning
	}

	return model.NewAlignmentScore(score, reasoning, threshold, status), nil
}

// decodeScore accepts a JSON number or a numeric string.
func decodeScore(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, eris.Errorf("score %s is not a number", string(raw))
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "score %q is not a number", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, eris.Errorf("score %q is not finite", s)
	}
	return f, nil
}
