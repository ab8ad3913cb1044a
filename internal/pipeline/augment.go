package pipeline

import (
	"context"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/samadpls/archdata/internal/config"
	"github.com/samadpls/archdata/internal/llm"
	"github.com/samadpls/archdata/internal/metrics"
	"github.com/samadpls/archdata/internal/model"
)

const maxParaphrasedTurns = 3

type transformFunc func(ctx context.Context, conv model.Conversation, pool *DomainPool) (model.Conversation, error)

// branch is one optional augmentation applied with a fixed probability.
type branch struct {
	typ         model.AugmentationType
	probability float64
	eligible    func(conv model.Conversation, pool *DomainPool) bool
	transform   transformFunc
}

// DomainPool groups conversations by domain for partner selection.
type DomainPool struct {
	domains []string
	groups  map[string][]model.Conversation
}

// NewDomainPool groups convs by domain. Domains keep first-appearance order.
func NewDomainPool(convs []model.Conversation) *DomainPool {
	p := &DomainPool{groups: make(map[string][]model.Conversation)}
	for _, c := range convs {
		if _, ok := p.groups[c.Domain]; !ok {
			p.domains = append(p.domains, c.Domain)
		}
		p.groups[c.Domain] = append(p.groups[c.Domain], c)
	}
	return p
}

// Domains returns the distinct domains in the pool.
func (p *DomainPool) Domains() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.domains...)
}

func (p *DomainPool) hasOtherDomain(domain string) bool {
	if p == nil {
		return false
	}
	for _, d := range p.domains {
		if d != domain {
			return true
		}
	}
	return false
}

// partner picks a domain other than domain uniformly, then a conversation
// within it uniformly.
func (p *DomainPool) partner(domain string, rng *rand.Rand) (model.Conversation, bool) {
	if p == nil {
		return model.Conversation{}, false
	}
	others := make([]string, 0, len(p.domains))
	for _, d := range p.domains {
		if d != domain {
			others = append(others, d)
		}
	}
	if len(others) == 0 {
		return model.Conversation{}, false
	}
	group := p.groups[others[rng.IntN(len(others))]]
	return group[rng.IntN(len(group))], true
}

// Augmenter derives training variants from aligned conversations.
type Augmenter struct {
	llm      llm.Completer
	stage    config.StageConfig
	rng      *rand.Rand
	mixing   bool
	metrics  *metrics.PipelineMetrics
	branches []branch
}

// NewAugmenter creates an Augmenter. Domain mixing is only attempted when
// mixing is true.
func NewAugmenter(c llm.Completer, stage config.StageConfig, rng *rand.Rand, mixing bool, m *metrics.PipelineMetrics) *Augmenter {
	a := &Augmenter{llm: c, stage: stage, rng: rng, mixing: mixing, metrics: m}
	always := func(model.Conversation, *DomainPool) bool { return true }
	a.branches = []branch{
		{typ: model.AugmentParaphrase, probability: 0.35, eligible: always, transform: a.paraphrase},
		{typ: model.AugmentNoise, probability: 0.225, eligible: always, transform: a.noise},
		{typ: model.AugmentIrrelevant, probability: 0.125, eligible: always, transform: a.irrelevant},
		{typ: model.AugmentDomainMix, probability: 0.05, eligible: a.canMix, transform: a.domainMix},
	}
	return a
}

// Variants returns the original conversation followed by every branch that
// fired and succeeded. Failed branches are reported and skipped.
func (a *Augmenter) Variants(ctx context.Context, conv model.Conversation, pool *DomainPool) ([]model.AugmentedConversation, []*TransformError) {
	out := []model.AugmentedConversation{model.NewAugmented(conv, model.AugmentOriginal)}
	a.metrics.ObserveVariant(model.AugmentOriginal)

	var failures []*TransformError
	for _, b := range a.branches {
		if !b.eligible(conv, pool) || a.rng.Float64() >= b.probability {
			continue
		}
		variant, err := b.transform(ctx, conv, pool)
		if err != nil {
			te := &TransformError{Branch: b.typ, Err: err}
			zap.L().Warn("pipeline: augmentation branch failed",
				zap.String("branch", string(b.typ)),
				zap.String("domain", conv.Domain),
				zap.String("action", conv.Action),
				zap.Error(err),
			)
			a.metrics.ObserveBranchFailure(b.typ)
			failures = append(failures, te)
			continue
		}
		out = append(out, model.NewAugmented(variant, b.typ))
		a.metrics.ObserveVariant(b.typ)
	}
	return out, failures
}

// AugmentAll augments convs in order and concatenates the variants.
func (a *Augmenter) AugmentAll(ctx context.Context, convs []model.Conversation) ([]model.AugmentedConversation, []*TransformError) {
	var pool *DomainPool
	if a.mixing {
		pool = NewDomainPool(convs)
	}

	var (
		all      []model.AugmentedConversation
		failures []*TransformError
	)
	for _, c := range convs {
		if ctx.Err() != nil {
			break
		}
		v, f := a.Variants(ctx, c, pool)
		all = append(all, v...)
		failures = append(failures, f...)
	}
	return all, failures
}

func (a *Augmenter) complete(ctx context.Context, typ model.AugmentationType, prompt string) ([]model.Turn, error) {
	text, err := a.llm.Complete(ctx, prompt, a.stage.Temperature, a.stage.MaxTokens)
	if err != nil {
		return nil, eris.Wrapf(err, "augment %s: complete", typ)
	}
	return ParseTurns(string(typ), text)
}

func (a *Augmenter) paraphrase(ctx context.Context, conv model.Conversation, _ *DomainPool) (model.Conversation, error) {
	users := conv.UserTurnIndices()
	if len(users) == 0 {
		return conv.WithTurns(conv.Turns), nil
	}

	k := 1 + a.rng.IntN(min(maxParaphrasedTurns, len(users)))
	positions := make([]int, 0, k)
	for _, i := range a.rng.Perm(len(users))[:k] {
		positions = append(positions, users[i])
	}
	sort.Ints(positions)

	resp, err := a.complete(ctx, model.AugmentParaphrase, paraphrasePrompt(conv, positions))
	if err != nil {
		return model.Conversation{}, err
	}
	if len(resp) != len(conv.Turns) {
		return model.Conversation{}, eris.Errorf("paraphrase returned %d turns, want %d", len(resp), len(conv.Turns))
	}
	for i := range resp {
		if resp[i].Role != conv.Turns[i].Role {
			return model.Conversation{}, eris.Errorf("paraphrase changed role of turn %d", i)
		}
	}

	turns := make([]model.Turn, len(conv.Turns))
	copy(turns, conv.Turns)
	for _, pos := range positions {
		turns[pos].Content = resp[pos].Content
	}
	return conv.WithTurns(turns), nil
}

func (a *Augmenter) noise(ctx context.Context, conv model.Conversation, _ *DomainPool) (model.Conversation, error) {
	resp, err := a.complete(ctx, model.AugmentNoise, noisePrompt(conv))
	if err != nil {
		return model.Conversation{}, err
	}
	extra := len(resp) - len(conv.Turns)
	if extra < 1 || extra > 2 {
		return model.Conversation{}, eris.Errorf("noise added %d turns, want 1 or 2", extra)
	}
	if !isSubsequence(conv.Turns, resp) {
		return model.Conversation{}, eris.New("noise altered or reordered source turns")
	}
	return conv.WithTurns(resp), nil
}

func (a *Augmenter) irrelevant(ctx context.Context, conv model.Conversation, _ *DomainPool) (model.Conversation, error) {
	resp, err := a.complete(ctx, model.AugmentIrrelevant, irrelevantPrompt(conv))
	if err != nil {
		return model.Conversation{}, err
	}
	if i := sharedTurn(conv.Turns, resp); i >= 0 {
		return model.Conversation{}, eris.Errorf("irrelevant turn %d repeats the source conversation", i+1)
	}
	return conv.WithTurns(resp).WithProvenance(
		model.IrrelevantDomain, model.IrrelevantAction, model.IrrelevantDescription), nil
}

func (a *Augmenter) canMix(conv model.Conversation, pool *DomainPool) bool {
	return a.mixing && pool.hasOtherDomain(conv.Domain)
}

func (a *Augmenter) domainMix(ctx context.Context, conv model.Conversation, pool *DomainPool) (model.Conversation, error) {
	partner, ok := pool.partner(conv.Domain, a.rng)
	if !ok {
		return model.Conversation{}, eris.Errorf("no partner outside domain %q", conv.Domain)
	}
	resp, err := a.complete(ctx, model.AugmentDomainMix, domainMixPrompt(conv, partner))
	if err != nil {
		return model.Conversation{}, err
	}
	return conv.WithTurns(resp).WithProvenance(
		model.MixedDomain, model.MixedAction, model.MixedDescription), nil
}

// sharedTurn returns the index of the first turn in dst whose content
// matches a turn in src, ignoring case and surrounding space, or -1.
func sharedTurn(src, dst []model.Turn) int {
	seen := make(map[string]struct{}, len(src))
	for _, t := range src {
		seen[strings.ToLower(strings.TrimSpace(t.Content))] = struct{}{}
	}
	for i, t := range dst {
		if _, ok := seen[strings.ToLower(strings.TrimSpace(t.Content))]; ok {
			return i
		}
	}
	return -1
}

// isSubsequence reports whether src appears in dst in order with identical
// roles and contents.
func isSubsequence(src, dst []model.Turn) bool {
	i := 0
	for _, t := range dst {
		if i < len(src) && t == src[i] {
			i++
		}
	}
	return i == len(src)
}
