package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Partitions lists corpus partitions in the order they are scanned.
var Partitions = []string{"train", "val", "test"}

// LabeledUtterance is one [utterance, label] pair from the corpus.
type LabeledUtterance struct {
	Text  string
	Label string
}

// UnmarshalJSON decodes the two-element array form ["text", "label"].
func (u *LabeledUtterance) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return eris.Wrap(err, "model: decode labeled utterance")
	}
	return u.fromPair(pair)
}

// MarshalJSON encodes the utterance back into its array form.
func (u LabeledUtterance) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string{u.Text, u.Label})
}

// UnmarshalYAML decodes the sequence form [text, label].
func (u *LabeledUtterance) UnmarshalYAML(node *yaml.Node) error {
	var pair []string
	if err := node.Decode(&pair); err != nil {
		return eris.Wrap(err, "model: decode labeled utterance")
	}
	return u.fromPair(pair)
}

func (u *LabeledUtterance) fromPair(pair []string) error {
	if len(pair) < 2 {
		return eris.Errorf("model: labeled utterance needs 2 elements, got %d", len(pair))
	}
	u.Text = pair[0]
	u.Label = pair[1]
	return nil
}

// Corpus maps a partition name to its labeled utterances.
type Corpus map[string][]LabeledUtterance
