package extract

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/coachbot/patch"
	"github.com/tbxark/coachbot/structured"
	"github.com/tbxark/coachbot/types"
)

const (
	updateRequestToolName        = "update_workout_request"
	updateRequestToolDescription = "Generate RFC6902 JSON Patch operations that fill workout request fields from the user's message. Only include values the user stated explicitly."
)

// DefaultExtractSystemPromptTemplate has a single "%s" placeholder for the tool name.
const DefaultExtractSystemPromptTemplate = `You help a fitness chat bot understand workout requests.
Analyze the user's latest message, together with the assistant question that preceded it, and call %s with RFC6902 operations.
Rules:
- Only use "add" or "replace". Never remove a field.
- Only use the allowed paths.
- goal is one of muscle_gain, fat_loss, endurance, strength.
- muscle_groups is the complete list of muscle groups mentioned in this message; it replaces the previous list.
- duration is an integer number of minutes.
- difficulty is one of beginner, intermediate, advanced.
- If the message carries nothing new, return an empty list of operations.`

type ToolBasedExtractor struct {
	chain  *structured.Chain[*Request, patch.UpdateArgs]
	schema string
}

func NewToolBasedExtractor(chatModel model.ToolCallingChatModel) (*ToolBasedExtractor, error) {
	schemaJSON, err := types.WorkoutRequestSchema()
	if err != nil {
		return nil, err
	}
	e := &ToolBasedExtractor{schema: schemaJSON}
	chain, err := structured.NewChain[*Request, patch.UpdateArgs](
		chatModel,
		e.buildPrompt,
		updateRequestToolName,
		updateRequestToolDescription,
	)
	if err != nil {
		return nil, err
	}
	e.chain = chain
	return e, nil
}

func (e *ToolBasedExtractor) Extract(ctx context.Context, req *Request) ([]patch.Operation, error) {
	result, err := e.chain.Invoke(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}
	if result == nil {
		return nil, nil
	}
	if err := patch.ValidatePatchOperations(result.Ops, AllowedPaths()); err != nil {
		return nil, fmt.Errorf("generated patches failed validation: %w", err)
	}
	return result.Ops, nil
}

func (e *ToolBasedExtractor) buildPrompt(ctx context.Context, req *Request) ([]*schema.Message, error) {
	message, err := types.FormatToolRequest(&types.ToolRequest{
		State:       req.Current,
		StateSchema: e.schema,
		MessagePair: types.MessagePair{
			Question: req.LatestQuestion,
			Answer:   req.Text,
		},
		MissingFields: req.Current.MissingInfo(),
	})
	if err != nil {
		return nil, fmt.Errorf("convert to prompt message failed: %w", err)
	}
	sections := []string{
		message,
		fmt.Sprintf("# Allowed paths:\n%s", formatAllowedPaths(AllowedPaths())),
	}
	return []*schema.Message{
		schema.SystemMessage(fmt.Sprintf(DefaultExtractSystemPromptTemplate, updateRequestToolName)),
		schema.UserMessage(strings.Join(sections, "\n\n")),
	}, nil
}

func formatAllowedPaths(allowed map[string]bool) string {
	paths := make([]string, 0, len(allowed))
	for path := range allowed {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	var sb strings.Builder
	for _, path := range paths {
		sb.WriteString("- ")
		sb.WriteString(path)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
