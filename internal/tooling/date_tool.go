package tooling

import (
	"context"
	"encoding/json"
	"fmt"

	"tripscout/internal/dates"
)

// DateInput is the input structure for the parse_date tool.
type DateInput struct {
	Phrase string `json:"phrase" jsonschema:"description=A human date phrase such as 'tomorrow' or 'next friday'"`
}

// DateTool exposes the date normalizer to the LLM so it can resolve relative
// phrases before filling in trip dates.
type DateTool struct {
	normalizer *dates.Normalizer
}

// NewDateTool creates the parse_date tool. Panics if normalizer is nil.
func NewDateTool(normalizer *dates.Normalizer) *DateTool {
	if normalizer == nil {
		panic("date_tool: normalizer must not be nil")
	}
	return &DateTool{normalizer: normalizer}
}

func (t *DateTool) Name() string { return "parse_date" }

func (t *DateTool) Description() string {
	return "Converts a human date phrase (e.g. 'tomorrow', 'next friday', 'two weeks from now') into a YYYY-MM-DD calendar date"
}

func (t *DateTool) Definition() string {
	return GenerateSchema(DateInput{})
}

func (t *DateTool) Call(_ context.Context, args json.RawMessage) (any, error) {
	var input DateInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}

	date, err := t.normalizer.Normalize(input.Phrase)
	if err != nil {
		return nil, err
	}

	return map[string]string{"date": date}, nil
}
