// Package structured turns a tool-calling chat model into a typed function by forcing a
// single tool call and decoding its arguments.
package structured

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

type PromptBuilder[TInput any] func(ctx context.Context, input TInput) ([]*schema.Message, error)

type Chain[TInput, TOutput any] struct {
	PromptBuilder PromptBuilder[TInput]
	ChatModel     model.ToolCallingChatModel
	ToolInfo      *schema.ToolInfo
}

func NewChain[TInput, TOutput any](
	chatModel model.ToolCallingChatModel,
	promptBuilder PromptBuilder[TInput],
	toolName string,
	toolDesc string,
) (*Chain[TInput, TOutput], error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required for tool %s", toolName)
	}
	toolInfo, err := utils.GoStruct2ToolInfo[TOutput](toolName, toolDesc)
	if err != nil {
		return nil, fmt.Errorf("convert tool info failed: %w", err)
	}
	return &Chain[TInput, TOutput]{
		PromptBuilder: promptBuilder,
		ChatModel:     chatModel,
		ToolInfo:      toolInfo,
	}, nil
}

func (s *Chain[TInput, TOutput]) Invoke(ctx context.Context, input TInput) (*TOutput, error) {
	messages, err := s.PromptBuilder(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("build prompt failed: %w", err)
	}

	response, err := s.ChatModel.Generate(ctx, messages,
		model.WithTools([]*schema.ToolInfo{s.ToolInfo}),
		model.WithToolChoice(schema.ToolChoiceForced, s.ToolInfo.Name),
	)
	if err != nil {
		return nil, fmt.Errorf("call model failed: %w", err)
	}
	return DecodeToolCall[TOutput](response, s.ToolInfo.Name)
}

// DecodeToolCall decodes the arguments of the first call to toolName in response.
func DecodeToolCall[TOutput any](response *schema.Message, toolName string) (*TOutput, error) {
	if response == nil {
		return nil, fmt.Errorf("empty model response")
	}
	for _, call := range response.ToolCalls {
		if call.Function.Name != "" && call.Function.Name != toolName {
			continue
		}
		var result TOutput
		if err := sonic.UnmarshalString(call.Function.Arguments, &result); err != nil {
			return nil, fmt.Errorf("parse ToolCall arguments failed: %w", err)
		}
		return &result, nil
	}
	return nil, fmt.Errorf("no ToolCall found in model response: %s", response.Content)
}
