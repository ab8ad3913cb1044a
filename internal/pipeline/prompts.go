package pipeline

import (
	"fmt"
	"strings"

	"github.com/samadpls/archdata/internal/model"
)

const turnArrayShape = `[
    {"role": "user", "content": "..."},
    {"role": "assistant", "content": "..."}
]`

func policyPrompt(intent model.Intent) string {
	var examples strings.Builder
	for _, ex := range intent.Examples {
		examples.WriteString("- ")
		examples.WriteString(ex)
		examples.WriteString("\n")
	}

	return fmt.Sprintf(`Study the intent label and example utterances below and describe the task they represent.

Intent Name: %s

Examples:
%s
Determine:
1. The domain (for example travel, banking, food, entertainment)
2. The action the user wants to accomplish
3. A one or two sentence policy describing how an assistant should handle the task

Respond with a single JSON object and nothing else:
{"domain": "...", "action": "...", "description": "..."}

Example:
{"domain": "travel", "action": "book_flight", "description": "Help users book flights by searching options, comparing fares and completing the reservation."}
`, intent.Name, examples.String())
}

func conversationPrompt(p model.Policy, turns int) string {
	return fmt.Sprintf(`Write a realistic conversation between a user and an AI assistant.

Policy: %s
Domain: %s
Action: %s

The conversation must have exactly %d turns. The user opens with a request covered by the policy,
the assistant answers helpfully, and the exchange stays on task.

Respond with a JSON array of turns only:
%s

Example:
[
    {"role": "user", "content": "I need a flight to New York next week"},
    {"role": "assistant", "content": "Happy to help. Which day would you like to leave?"},
    {"role": "user", "content": "Friday works best"},
    {"role": "assistant", "content": "I found several Friday departures. Do you prefer morning or evening?"}
]
`, p.Description, p.Domain, p.Action, turns, turnArrayShape)
}

func alignmentPrompt(conv model.Conversation) string {
	return fmt.Sprintf(`Rate how faithfully this conversation carries out the policy.

Policy: %s
Domain: %s
Action: %s

Conversation:
%s

Score from 0.0 to 1.0:
- 1.0: follows the policy exactly
- 0.8-0.9: minor deviations
- 0.6-0.7: noticeable problems
- 0.0-0.5: off policy

Respond with a JSON object only:
{"score": 0.92, "reasoning": "short explanation"}
`, conv.Description, conv.Domain, conv.Action, conv.Transcript())
}

func paraphrasePrompt(conv model.Conversation, positions []int) string {
	return fmt.Sprintf(`Paraphrase ONLY the user turns at zero-based positions %v in the conversation below.

Rules:
1. Rewrite only the user turns at those positions, keeping their meaning
2. Copy every other turn exactly, including all assistant turns
3. Keep the same number of turns in the same order
4. Respond with a JSON array only

Conversation:
%s

Response format:
%s
`, positions, conv.Transcript(), turnArrayShape)
}

func noisePrompt(conv model.Conversation) string {
	return fmt.Sprintf(`Add one or two realistic distractions to the conversation below, such as the user
getting interrupted or asking an unrelated aside.

Rules:
1. Insert one or two new turns
2. Copy every original turn exactly and keep them in their original order
3. Respond with a JSON array only

Conversation:
%s

Response format:
%s
`, conv.Transcript(), turnArrayShape)
}

func irrelevantPrompt(conv model.Conversation) string {
	return fmt.Sprintf(`Write a conversation between a user and an AI assistant about a completely different topic
(cooking, sports, weather and so on).

Rules:
1. Use between 4 and 8 turns
2. Never mention the domain or action below
3. Respond with a JSON array only

Domain to avoid: %s
Action to avoid: %s

Response format:
%s
`, conv.Domain, conv.Action, turnArrayShape)
}

func domainMixPrompt(conv, partner model.Conversation) string {
	return fmt.Sprintf(`Splice the two conversations below into one conversation that jumps between both topics
so that it clearly belongs to neither domain.

Conversation 1 (%s):
%s

Conversation 2 (%s):
%s

Respond with a JSON array of turns only:
%s
`, conv.Domain, conv.Transcript(), partner.Domain, partner.Transcript(), turnArrayShape)
}
