package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// AugmentationType names the transform that produced a dataset variant.
type AugmentationType string

const (
	AugmentOriginal   AugmentationType = "original"
	AugmentParaphrase AugmentationType = "paraphrase"
	AugmentNoise      AugmentationType = "noise"
	AugmentIrrelevant AugmentationType = "irrelevant"
	AugmentDomainMix  AugmentationType = "domain_mix"
)

// Sentinel labels for variants that no longer belong to their source policy.
const (
	IrrelevantDomain      = "irrelevant"
	IrrelevantAction      = "irrelevant_chat"
	IrrelevantDescription = "Irrelevant conversation for negative training"

	MixedDomain      = "mixed"
	MixedAction      = "mixed_domains"
	MixedDescription = "Domain-mixed conversation for negative training"
)

// AllAugmentationTypes lists every augmentation type in report order.
func AllAugmentationTypes() []AugmentationType {
	return []AugmentationType{
		AugmentOriginal,
		AugmentParaphrase,
		AugmentNoise,
		AugmentIrrelevant,
		AugmentDomainMix,
	}
}

// LabelScore returns the fixed training confidence for the type. The switch
// is exhaustive over the known types; anything else is a programming error.
func (t AugmentationType) LabelScore() float64 {
	switch t {
	case AugmentOriginal:
		return 0.95
	case AugmentParaphrase:
		return 0.90
	case AugmentNoise:
		return 0.70
	case AugmentIrrelevant, AugmentDomainMix:
		return 0.10
	}
	panic("model: unknown augmentation type " + string(t))
}

// Valid reports whether t is a known augmentation type.
func (t AugmentationType) Valid() bool {
	switch t {
	case AugmentOriginal, AugmentParaphrase, AugmentNoise, AugmentIrrelevant, AugmentDomainMix:
		return true
	}
	return false
}

// ParseAugmentationType converts a tag into a known type.
func ParseAugmentationType(s string) (AugmentationType, error) {
	t := AugmentationType(s)
	if !t.Valid() {
		return "", eris.Errorf("model: unknown augmentation type %q", s)
	}
	return t, nil
}

// UnmarshalJSON rejects tags outside the closed set.
func (t *AugmentationType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return eris.Wrap(err, "model: decode augmentation type")
	}
	parsed, err := ParseAugmentationType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// AugmentedConversation is a conversation variant tagged with the transform
// that produced it.
type AugmentedConversation struct {
	Conversation Conversation     `json:"conversation"`
	Type         AugmentationType `json:"augmentation_type"`
}

// NewAugmented tags conv with typ.
func NewAugmented(conv Conversation, typ AugmentationType) AugmentedConversation {
	return AugmentedConversation{Conversation: conv, Type: typ}
}

// LabelScore is derived from the augmentation type.
func (a AugmentedConversation) LabelScore() float64 {
	return a.Type.LabelScore()
}
