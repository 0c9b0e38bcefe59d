package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content interface{} `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatJudge talks to any OpenAI-compatible chat completions endpoint (GLM,
// DeepSeek, OpenAI).
type ChatJudge struct {
	name   string
	apiURL string
	apiKey string
	model  string
	client *http.Client
}

func NewChatJudge(name, apiURL, apiKey, model string, timeout time.Duration) *ChatJudge {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChatJudge{
		name:   name,
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

func (j *ChatJudge) JudgeSameObject(ctx context.Context, nameA, descA, nameB, descB string) (int, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ai.chat_judge")
	defer span.End()
	span.SetAttributes(attribute.String("ai.provider", j.name), attribute.String("ai.model", j.model))

	content, err := j.complete(ctx, []chatMessage{
		{Role: "system", Content: judgeSystemPrompt},
		{Role: "user", Content: judgePrompt(nameA, descA, nameB, descB)},
	})
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("%s: %w", j.name, err)
	}
	return ParseJudgement(content)
}

func (j *ChatJudge) complete(ctx context.Context, messages []chatMessage) (string, error) {
	payload, err := json.Marshal(chatRequest{Model: j.model, Messages: messages, Temperature: 0, MaxTokens: 8})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+j.apiKey)

	resp, err := j.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrProviderStatus, resp.StatusCode)
	}

	var completion chatResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	var content string
	switch v := completion.Choices[0].Message.Content.(type) {
	case string:
		content = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to extract content from AI response")
		}
		content = string(b)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
