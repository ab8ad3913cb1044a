package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
	"github.com/google/generative-ai-go/genai"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/samadpls/archdata/internal/config"
	"github.com/samadpls/archdata/internal/metrics"
	"github.com/samadpls/archdata/internal/resilience"
	"github.com/samadpls/archdata/pkg/anthropic"
	anthropicmocks "github.com/samadpls/archdata/pkg/anthropic/mocks"
	"github.com/samadpls/archdata/pkg/groq"
)

func TestAnthropic_Complete(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-haiku-4-5-20251001" &&
			req.MaxTokens == 200 &&
			req.Temperature != nil && *req.Temperature == 0.7 &&
			len(req.Messages) == 1 && req.Messages[0].Role == "user" && req.Messages[0].Content == "prompt"
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: `{"domain":"travel"}`}},
	}, nil)

	text, err := NewAnthropic(client, "claude-haiku-4-5-20251001").Complete(context.Background(), "prompt", 0.7, 200)
	require.NoError(t, err)
	assert.Equal(t, `{"domain":"travel"}`, text)
}

func TestAnthropic_CompleteError(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, resilience.NewTransientError(errors.New("overloaded"), 529))

	_, err := NewAnthropic(client, "m").Complete(context.Background(), "p", 0.3, 10)
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
	assert.Contains(t, err.Error(), "anthropic completion")
}

func TestGroq_Complete(t *testing.T) {
	var got groq.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices": [{"index": 0, "message": {"role": "assistant", "content": "hello"}}]}`))
	}))
	defer srv.Close()

	g := NewGroq(groq.NewClient("k", groq.WithBaseURL(srv.URL)), "llama-3.1-8b-instant")
	text, err := g.Complete(context.Background(), "say hello", 0.8, 1000)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, "llama-3.1-8b-instant", got.Model)
	require.NotNil(t, got.MaxTokens)
	assert.Equal(t, 1000, *got.MaxTokens)
}

func TestGroq_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	_, err := NewGroq(groq.NewClient("k", groq.WithBaseURL(srv.URL)), "").Complete(context.Background(), "p", 0.8, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

type fakeConverse struct {
	input *bedrockruntime.ConverseInput
	out   *bedrockruntime.ConverseOutput
	err   error
}

func (f *fakeConverse) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = in
	return f.out, f.err
}

func TestBedrock_Complete(t *testing.T) {
	api := &fakeConverse{out: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role: brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{
				&brtypes.ContentBlockMemberText{Value: "[{\"role\":"},
				&brtypes.ContentBlockMemberText{Value: "\"user\",\"content\":\"hi\"}]"},
			},
		}},
	}}

	text, err := NewBedrock(api, "amazon.nova-lite-v1:0").Complete(context.Background(), "p", 0.8, 500)
	require.NoError(t, err)
	assert.Equal(t, `[{"role":"user","content":"hi"}]`, text)

	require.NotNil(t, api.input)
	assert.Equal(t, "amazon.nova-lite-v1:0", *api.input.ModelId)
	assert.Equal(t, int32(500), *api.input.InferenceConfig.MaxTokens)
	assert.InDelta(t, 0.8, *api.input.InferenceConfig.Temperature, 1e-6)
	require.Len(t, api.input.Messages, 1)
	assert.Equal(t, brtypes.ConversationRoleUser, api.input.Messages[0].Role)
}

func TestBedrock_EmptyOutput(t *testing.T) {
	api := &fakeConverse{out: &bedrockruntime.ConverseOutput{}}
	_, err := NewBedrock(api, "m").Complete(context.Background(), "p", 0.8, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not include a message")
}

func TestBedrock_ThrottlingIsTransient(t *testing.T) {
	api := &fakeConverse{err: &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}}
	_, err := NewBedrock(api, "m").Complete(context.Background(), "p", 0.8, 10)
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))

	api.err = &smithy.GenericAPIError{Code: "ValidationException", Message: "bad input"}
	_, err = NewBedrock(api, "m").Complete(context.Background(), "p", 0.8, 10)
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
}

func TestGeminiText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("a"), genai.Text("b")}},
	}}}
	text, err := geminiText(resp)
	require.NoError(t, err)
	assert.Equal(t, "ab", text)

	_, err = geminiText(&genai.GenerateContentResponse{})
	assert.Error(t, err)

	_, err = geminiText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}})
	assert.Error(t, err)
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), " ", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is required")
}

func TestAdaptiveLimiter(t *testing.T) {
	l := NewAdaptiveLimiter(10, 1)
	assert.Equal(t, rate.Limit(10), l.Limit())

	l.OnSuccess()
	assert.InDelta(t, 12, float64(l.Limit()), 1e-9)

	for range 10 {
		l.OnSuccess()
	}
	assert.InDelta(t, 20, float64(l.Limit()), 1e-9)

	for range 10 {
		l.OnRateLimit()
	}
	assert.InDelta(t, 2.5, float64(l.Limit()), 1e-9)
}

func TestRateLimited_BacksOffOn429(t *testing.T) {
	calls := 0
	next := CompleterFunc(func(_ context.Context, _ string, _ float64, _ int) (string, error) {
		calls++
		if calls == 1 {
			return "", resilience.NewTransientError(errors.New("too many requests"), http.StatusTooManyRequests)
		}
		return "ok", nil
	})

	rl := NewRateLimited(next, 1000, 5)
	_, err := rl.Complete(context.Background(), "p", 0.1, 10)
	require.Error(t, err)
	assert.InDelta(t, 500, float64(rl.limiter.Limit()), 1e-9)

	text, err := rl.Complete(context.Background(), "p", 0.1, 10)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.InDelta(t, 600, float64(rl.limiter.Limit()), 1e-9)
}

func TestRateLimited_CancelledContext(t *testing.T) {
	next := CompleterFunc(func(context.Context, string, float64, int) (string, error) {
		t.Fatal("next should not be called")
		return "", nil
	})
	rl := NewRateLimited(next, 0.001, 1)
	rl.limiter.limiter.Allow() // drain the single token

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rl.Complete(ctx, "p", 0.1, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
}

func TestInstrumented_Complete(t *testing.T) {
	m := metrics.NewPipelineMetrics(prometheus.NewRegistry())
	next := CompleterFunc(func(_ context.Context, prompt string, _ float64, _ int) (string, error) {
		return "echo: " + prompt, nil
	})

	text, err := NewInstrumented(next, "groq", m).Complete(context.Background(), "hi", 0.5, 10)
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", text)

	text, err = NewInstrumented(next, "groq", nil).Complete(context.Background(), "nil metrics", 0.5, 10)
	require.NoError(t, err)
	assert.Equal(t, "echo: nil metrics", text)
}

func TestNew_Providers(t *testing.T) {
	cfg := &config.Config{Provider: config.ProviderAnthropic}
	cfg.Anthropic.Key = "sk-ant"
	cfg.Anthropic.Model = "claude-haiku-4-5-20251001"

	c, closeFn, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, closeFn)
	assert.NoError(t, closeFn())
	inst, ok := c.(*Instrumented)
	require.True(t, ok)
	assert.IsType(t, &Anthropic{}, inst.next)

	cfg.Provider = config.ProviderGroq
	cfg.Groq.Key = "gsk"
	cfg.RateLimit.RequestsPerSecond = 2
	c, _, err = New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &RateLimited{}, c.(*Instrumented).next)

	cfg.Provider = config.ProviderGemini
	_, closeFn, err = New(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.NoError(t, closeFn())

	cfg.Provider = "openai"
	_, _, err = New(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}
