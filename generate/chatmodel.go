package generate

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type ChatModelConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewChatModel builds an OpenAI compatible tool-calling chat model.
func NewChatModel(ctx context.Context, cfg ChatModelConfig) (*openai.ChatModel, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	return chatModel, nil
}

type ChatModelGenerator struct {
	chatModel model.BaseChatModel
}

func NewChatModelGenerator(chatModel model.BaseChatModel) (*ChatModelGenerator, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	return &ChatModelGenerator{chatModel: chatModel}, nil
}

func (g *ChatModelGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := g.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	})
	if err != nil {
		return "", fmt.Errorf("call model failed: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyPlan
	}
	return resp.Content, nil
}
