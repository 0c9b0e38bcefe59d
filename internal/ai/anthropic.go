package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultAnthropicModel = "claude-haiku-4-5"

// AnthropicJudge asks a Claude model for the same-object rating.
type AnthropicJudge struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicJudge(apiKey, model string, opts ...option.RequestOption) *AnthropicJudge {
	if model == "" {
		model = DefaultAnthropicModel
	}
	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &AnthropicJudge{client: &client, model: model}
}

func (j *AnthropicJudge) JudgeSameObject(ctx context.Context, nameA, descA, nameB, descB string) (int, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ai.anthropic_judge")
	defer span.End()
	span.SetAttributes(attribute.String("ai.model", j.model))

	resp, err := j.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(j.model),
		MaxTokens: 8,
		System:    []anthropic.TextBlockParam{{Text: judgeSystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(judgePrompt(nameA, descA, nameB, descB))),
		},
	})
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("anthropic call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return 0, ErrEmptyResponse
	}
	return ParseJudgement(text.String())
}
