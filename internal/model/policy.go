package model

import "strings"

// OutOfScopeLabel marks corpus utterances that belong to no intent.
const OutOfScopeLabel = "oos"

// Intent groups the example utterances collected for one corpus label.
// Domain and action are inferred later by the policy stage.
type Intent struct {
	Name     string   `json:"intent_name"`
	Examples []string `json:"examples"`
}

// Policy describes a conversational task used to steer synthesis and
// alignment scoring.
type Policy struct {
	Domain      string `json:"domain"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

// SplitIntentName derives a naive domain/action pair from an intent label by
// splitting on the first underscore. Labels without an underscore fall back
// to the "general" domain.
func SplitIntentName(name string) (domain, action string) {
	parts := strings.SplitN(name, "_", 2)
	if len(parts) < 2 {
		return "general", name
	}
	return parts[0], parts[1]
}
