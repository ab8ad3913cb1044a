package pipeline

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/stretchr/testify/mock"

	"github.com/samadpls/archdata/internal/model"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	args := m.Called(ctx, prompt, temperature, maxTokens)
	return args.String(0), args.Error(1)
}

// onPrompt registers an expectation for prompts containing marker.
func (m *mockCompleter) onPrompt(marker string) *mock.Call {
	return m.On("Complete", mock.Anything, promptContaining(marker), mock.Anything, mock.Anything)
}

func promptContaining(marker string) any {
	return mock.MatchedBy(func(p string) bool { return strings.Contains(p, marker) })
}

// Markers that identify each prompt kind.
const (
	markPolicy     = "Intent Name:"
	markConverse   = "Write a realistic conversation"
	markAlign      = "Rate how faithfully"
	markParaphrase = "Paraphrase ONLY"
	markNoise      = "realistic distractions"
	markIrrelevant = "Domain to avoid"
	markDomainMix  = "Splice the two conversations"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

// forceBranches makes the listed branches always fire and all others never.
func forceBranches(a *Augmenter, on ...model.AugmentationType) {
	for i := range a.branches {
		a.branches[i].probability = 0
		for _, typ := range on {
			if a.branches[i].typ == typ {
				a.branches[i].probability = 1
			}
		}
	}
}

func bankingConversation() model.Conversation {
	return model.NewConversation(
		model.Policy{Domain: "banking", Action: "check_balance", Description: "Report account balances on request."},
		[]model.Turn{
			{Role: model.RoleUser, Content: "What's my checking balance?"},
			{Role: model.RoleAssistant, Content: "Your checking balance is $120."},
			{Role: model.RoleUser, Content: "And my savings?"},
			{Role: model.RoleAssistant, Content: "Savings holds $2,000."},
		},
	)
}

func travelConversation() model.Conversation {
	return model.NewConversation(
		model.Policy{Domain: "travel", Action: "book_flight", Description: "Help users book flights."},
		[]model.Turn{
			{Role: model.RoleUser, Content: "Book me a flight to Denver."},
			{Role: model.RoleAssistant, Content: "Which day would you like to fly?"},
		},
	)
}
