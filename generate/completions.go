package generate

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// CompletionsGenerator talks to the chat completions endpoint directly.
type CompletionsGenerator struct {
	client openai.Client
	model  string
}

func NewCompletionsGenerator(apiKey, baseURL, model string, opts ...option.RequestOption) *CompletionsGenerator {
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)
	return &CompletionsGenerator{
		client: openai.NewClient(reqOpts...),
		model:  model,
	}
}

func (g *CompletionsGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	chat, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Model: openai.ChatModel(g.model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", ErrEmptyPlan
	}
	return chat.Choices[0].Message.Content, nil
}
