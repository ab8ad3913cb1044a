package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/samadpls/archdata/internal/config"
	"github.com/samadpls/archdata/internal/llm"
	"github.com/samadpls/archdata/internal/model"
)

const stagePolicy = "policy"

// PolicyInferencer turns an intent and its examples into a Policy.
type PolicyInferencer struct {
	llm   llm.Completer
	stage config.StageConfig
}

// NewPolicyInferencer creates a PolicyInferencer.
func NewPolicyInferencer(c llm.Completer, stage config.StageConfig) *PolicyInferencer {
	return &PolicyInferencer{llm: c, stage: stage}
}

// Infer issues one completion for intent and decodes the policy object.
func (p *PolicyInferencer) Infer(ctx context.Context, intent model.Intent) (model.Policy, error) {
	text, err := p.llm.Complete(ctx, policyPrompt(intent), p.stage.Temperature, p.stage.MaxTokens)
	if err != nil {
		return model.Policy{}, eris.Wrapf(err, "policy: complete intent %q", intent.Name)
	}
	return parsePolicy(text)
}

// InferAll infers a policy per intent in order, stopping at the first failure.
func (p *PolicyInferencer) InferAll(ctx context.Context, intents []model.Intent) ([]model.Policy, error) {
	policies := make([]model.Policy, 0, len(intents))
	for _, in := range intents {
		pol, err := p.Infer(ctx, in)
		if err != nil {
			return nil, err
		}
		zap.L().Debug("policy: inferred",
			zap.String("intent", in.Name),
			zap.String("domain", pol.Domain),
			zap.String("action", pol.Action),
		)
		policies = append(policies, pol)
	}
	return policies, nil
}

func parsePolicy(text string) (model.Policy, error) {
	raw, err := extractObject(stagePolicy, text)
	if err != nil {
		return model.Policy{}, err
	}

	var pol model.Policy
	if err := json.Unmarshal([]byte(raw), &pol); err != nil {
		return model.Policy{}, &ParseError{Stage: stagePolicy, Err: err}
	}

	for _, f := range []struct{ name, value string }{
		{"domain", pol.Domain},
		{"action", pol.Action},
		{"description", pol.Description},
	} {
		if strings.TrimSpace(f.value) == "" {
			return model.Policy{}, &ValidationError{Stage: stagePolicy, Field: f.name, Err: eris.New("missing or blank")}
		}
	}
	return pol, nil
}
