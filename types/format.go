package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/eino-contrib/jsonschema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

// WorkoutRequestSchema returns the JSON schema of WorkoutRequest.
func WorkoutRequestSchema() (string, error) {
	schema := jsonschema.Reflect(&WorkoutRequest{})
	schema.Title = "Workout request"
	schema.Description = "Structured workout request collected from a chat conversation. Unset fields are omitted."
	raw, err := sonic.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON schema: %w", err)
	}
	return string(raw), nil
}

// Summary renders a request as a short human readable line.
func Summary(r WorkoutRequest) string {
	muscles := "-"
	if len(r.MuscleGroups) > 0 {
		muscles = strings.Join(r.MuscleGroups, ", ")
	}
	duration := "-"
	if r.Duration > 0 {
		duration = fmt.Sprintf("%d min", r.Duration)
	}
	return fmt.Sprintf("goal: %s, muscles: %s, duration: %s, difficulty: %s",
		orDash(r.Goal.Label()), muscles, duration, orDash(string(r.Difficulty)))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatMissingFieldsSection(fields []FieldInfo) string {
	if len(fields) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString("# Missing required fields:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Pointer", "Description")
	for _, field := range fields {
		_ = table.Append(field.DisplayName, field.JSONPointer, field.Description)
	}
	_ = table.Render()
	return buf.String()
}

func FormatToolRequest(req *ToolRequest) (string, error) {
	stateJSON, err := sonic.Marshal(req.State)
	if err != nil {
		return "", err
	}
	sections := []string{
		fmt.Sprintf("# Current Date: \n %s", time.Now().Format(time.RFC3339)),
		fmt.Sprintf("# Workout request JSON:\n```json\n%s\n```", string(stateJSON)),
	}
	if req.StateSchema != "" {
		sections = append(sections, fmt.Sprintf("# Workout request schema JSON:\n```json\n%s\n```", req.StateSchema))
	}
	if req.Phase != "" {
		sections = append(sections, fmt.Sprintf("# Current Phase:\n%s", req.Phase))
	}
	if req.MessagePair.Question != "" || req.MessagePair.Answer != "" {
		sections = append(sections, "# Latest Dialogue:")
		if req.MessagePair.Question != "" {
			sections = append(sections, fmt.Sprintf("## Assistant Question:\n%s", req.MessagePair.Question))
		}
		if req.MessagePair.Answer != "" {
			sections = append(sections, fmt.Sprintf("## User Answer:\n%s", req.MessagePair.Answer))
		}
	}
	if s := formatMissingFieldsSection(req.MissingFields); s != "" {
		sections = append(sections, s)
	}
	return strings.Join(sections, "\n\n"), nil
}
