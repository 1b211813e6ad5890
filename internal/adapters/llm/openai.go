package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no chat model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAILLM implements ports.LLMService with an OpenAI-compatible chat completions API.
type OpenAILLM struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAILLM creates a chat adapter. baseURL may point at any OpenAI-compatible server.
func NewOpenAILLM(apiKey, baseURL, model string, timeout time.Duration) *OpenAILLM {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAILLM{client: openai.NewClientWithConfig(cfg), model: model, timeout: timeout}
}

// Generate issues a single chat completion with a system and a user message.
func (l *OpenAILLM) Generate(ctx context.Context, systemInstruction, userInstruction string) (string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: l.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: userInstruction},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
