package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
	"github.com/rotisserie/eris"

	"github.com/samadpls/archdata/internal/resilience"
)

// ConverseAPI is the subset of the Bedrock runtime client used here.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Bedrock completes prompts with the Bedrock Converse API.
type Bedrock struct {
	api   ConverseAPI
	model string
}

// NewBedrock returns a Completer backed by api.
func NewBedrock(api ConverseAPI, model string) *Bedrock {
	return &Bedrock{api: api, model: model}
}

// NewBedrockFromRegion loads the default AWS credential chain for region.
func NewBedrockFromRegion(ctx context.Context, region, model string) (*Bedrock, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, eris.Wrap(err, "llm: load aws config")
	}
	return NewBedrock(bedrockruntime.NewFromConfig(awsCfg), model), nil
}

func (b *Bedrock) Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	inference := &brtypes.InferenceConfiguration{
		Temperature: aws.Float32(float32(temperature)),
	}
	if maxTokens > 0 {
		inference.MaxTokens = aws.Int32(int32(maxTokens))
	}

	out, err := b.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(b.model),
		Messages: []brtypes.Message{{
			Role: brtypes.ConversationRoleUser,
			Content: []brtypes.ContentBlock{
				&brtypes.ContentBlockMemberText{Value: prompt},
			},
		}},
		InferenceConfig: inference,
	})
	if err != nil {
		return "", classifyBedrock(eris.Wrap(err, "llm: bedrock converse"), err)
	}
	return bedrockText(out)
}

// classifyBedrock marks throttling and service-side faults as transient.
func classifyBedrock(wrapped, raw error) error {
	var apiErr smithy.APIError
	if errors.As(raw, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "ServiceUnavailableException", "ModelNotReadyException", "InternalServerException":
			return resilience.NewTransientError(wrapped, 0)
		}
	}
	return wrapped
}

func bedrockText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil {
		return "", eris.New("llm: bedrock response is nil")
	}
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", eris.New("llm: bedrock response did not include a message")
	}

	var b strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			b.WriteString(text.Value)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", eris.New("llm: bedrock response contained no text")
	}
	return b.String(), nil
}
