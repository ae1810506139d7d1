package intent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/coachbot/structured"
	"github.com/tbxark/coachbot/types"
)

const (
	parseIntentToolName        = "parse_intent"
	parseIntentToolDescription = "Classify the user's chat message: workout, completion, affirm, deny or none."
)

// DefaultParseIntentSystemPromptTemplate has a single "%s" placeholder for the tool name.
const DefaultParseIntentSystemPromptTemplate = `
You classify messages sent to a fitness chat bot.

Choose exactly one intent:
- completion: the user reports that they finished or completed a workout. This wins over workout when both fit.
- workout: the user asks for a workout plan or gives details about the workout they want (goal, muscles, duration, level).
- affirm: only while the bot waits for a yes/no answer, the user agrees.
- deny: only while the bot waits for a yes/no answer, the user declines.
- none: anything else.

Combine the assistant question with the user's answer to decide. Call the '%s' tool with the result.
`

type parseIntentInput struct {
	Intent Intent `json:"intent" jsonschema:"required,enum=workout,enum=completion,enum=affirm,enum=deny,enum=none,description=The user's intent"`
}

type ToolBasedIntentRecognizer struct {
	chain *structured.Chain[*Request, parseIntentInput]
}

func NewToolBasedIntentRecognizer(chatModel model.ToolCallingChatModel) (*ToolBasedIntentRecognizer, error) {
	chain, err := structured.NewChain[*Request, parseIntentInput](
		chatModel,
		buildIntentPrompt,
		parseIntentToolName,
		parseIntentToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedIntentRecognizer{chain: chain}, nil
}

func (p *ToolBasedIntentRecognizer) RecognizeIntent(ctx context.Context, req *Request) (Intent, error) {
	result, err := p.chain.Invoke(ctx, req)
	if err != nil {
		return None, err
	}
	if result == nil || result.Intent == "" {
		return None, fmt.Errorf("empty intent returned by %s", parseIntentToolName)
	}
	if req.Phase != types.PhaseAwaitingConfirmation && (result.Intent == Affirm || result.Intent == Deny) {
		return None, nil
	}
	return result.Intent, nil
}

func buildIntentPrompt(ctx context.Context, req *Request) ([]*schema.Message, error) {
	message, err := types.FormatToolRequest(&types.ToolRequest{
		Phase: req.Phase,
		MessagePair: types.MessagePair{
			Question: req.LatestQuestion,
			Answer:   req.Text,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("convert to prompt message failed: %w", err)
	}
	return []*schema.Message{
		schema.SystemMessage(fmt.Sprintf(DefaultParseIntentSystemPromptTemplate, parseIntentToolName)),
		schema.UserMessage(message),
	}, nil
}
