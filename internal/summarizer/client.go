package summarizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ChatClient sends one system+user exchange to a language model and returns the
// raw text of the reply.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

var errEmptyCompletion = errors.New("completion returned no choices")

// GroqClient talks to Groq's OpenAI-compatible chat completions endpoint and
// always asks for a JSON object reply.
type GroqClient struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

func NewGroqClient(apiKey, baseURL, model string, temperature float32, timeout time.Duration) *GroqClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &GroqClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temperature,
		timeout:     timeout,
	}
}

// Complete makes a single call bounded by the client timeout. Retries are left
// to the caller, which falls back instead.
func (c *GroqClient) Complete(ctx context.Context, system, user string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: c.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
