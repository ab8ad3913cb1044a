package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is a single utterance in a conversation.
type Turn struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Conversation is a multi-turn dialogue plus the policy fields it was
// generated from. Transforms return new values; turns are never edited in
// place.
type Conversation struct {
	Turns       []Turn `json:"turns"`
	Domain      string `json:"domain"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

// NewConversation wraps turns with the provenance of the given policy.
func NewConversation(p Policy, turns []Turn) Conversation {
	return Conversation{
		Turns:       cloneTurns(turns),
		Domain:      p.Domain,
		Action:      p.Action,
		Description: p.Description,
	}
}

// WithTurns returns a copy of c with its turns replaced.
func (c Conversation) WithTurns(turns []Turn) Conversation {
	c.Turns = cloneTurns(turns)
	return c
}

// WithProvenance returns a copy of c labeled with the given domain, action
// and description.
func (c Conversation) WithProvenance(domain, action, description string) Conversation {
	c.Turns = cloneTurns(c.Turns)
	c.Domain = domain
	c.Action = action
	c.Description = description
	return c
}

// Transcript renders the conversation as "role: content" lines in order.
func (c Conversation) Transcript() string {
	lines := make([]string, 0, len(c.Turns))
	for _, t := range c.Turns {
		lines = append(lines, string(t.Role)+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}

// UserTurnIndices returns the positions of all user turns.
func (c Conversation) UserTurnIndices() []int {
	var idx []int
	for i, t := range c.Turns {
		if t.Role == RoleUser {
			idx = append(idx, i)
		}
	}
	return idx
}

// ValidateTurns checks that every turn carries a known role.
func ValidateTurns(turns []Turn) error {
	if len(turns) == 0 {
		return eris.New("conversation has no turns")
	}
	for i, t := range turns {
		if !t.Role.Valid() {
			return eris.Errorf("turn %d: unknown role %q", i, t.Role)
		}
	}
	return nil
}

func cloneTurns(turns []Turn) []Turn {
	if turns == nil {
		return nil
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}
