package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/rotisserie/eris"

	"github.com/samadpls/archdata/internal/config"
	"github.com/samadpls/archdata/internal/llm"
	"github.com/samadpls/archdata/internal/model"
)

const stageSynthesize = "synthesize"

// Synthesizer generates a multi-turn conversation that enacts a policy.
type Synthesizer struct {
	llm      llm.Completer
	stage    config.StageConfig
	minTurns int
	maxTurns int
	rng      *rand.Rand
}

// NewSynthesizer creates a Synthesizer that draws turn counts uniformly from
// [minTurns, maxTurns] using rng.
func NewSynthesizer(c llm.Completer, stage config.StageConfig, minTurns, maxTurns int, rng *rand.Rand) *Synthesizer {
	return &Synthesizer{llm: c, stage: stage, minTurns: minTurns, maxTurns: maxTurns, rng: rng}
}

// Synthesize issues one completion and wraps the decoded turns with the
// policy's provenance.
func (s *Synthesizer) Synthesize(ctx context.Context, p model.Policy) (model.Conversation, error) {
	turns := s.turnCount()
	text, err := s.llm.Complete(ctx, conversationPrompt(p, turns), s.stage.Temperature, s.stage.MaxTokens)
	if err != nil {
		return model.Conversation{}, eris.Wrapf(err, "synthesize: complete %s/%s", p.Domain, p.Action)
	}

	parsed, err := parseConversation(text)
	if err != nil {
		return model.Conversation{}, err
	}
	return model.NewConversation(p, parsed), nil
}

func (s *Synthesizer) turnCount() int {
	if s.maxTurns <= s.minTurns {
		return s.minTurns
	}
	return s.minTurns + s.rng.IntN(s.maxTurns-s.minTurns+1)
}

func parseConversation(text string) ([]model.Turn, error) {
	raw, err := extractArray(stageSynthesize, text)
	if err != nil {
		return nil, err
	}

	turns, err := decodeTurns(stageSynthesize, raw)
	var parseErr *ParseError
	if err == nil || !errors.As(err, &parseErr) {
		return turns, err
	}

	return decodeTurns(stageSynthesize, arrayLineBlock(text))
}
