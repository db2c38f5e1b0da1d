package tooling

import (
	"context"
	"encoding/json"
	"fmt"

	"tripscout/internal/domain"
)

// ChecklistItemInput is the input structure for the add_checklist_item tool.
type ChecklistItemInput struct {
	ChecklistID int64  `json:"checklist_id" jsonschema:"description=ID of an existing checklist"`
	Description string `json:"description" jsonschema:"description=What to add to the checklist"`
}

// ChecklistItemTool appends a single item to an existing checklist. The store
// rejects an unknown checklist_id via its foreign-key constraint.
type ChecklistItemTool struct {
	store domain.TripStore
}

// NewChecklistItemTool creates the add_checklist_item tool. Panics if store is nil.
func NewChecklistItemTool(store domain.TripStore) *ChecklistItemTool {
	if store == nil {
		panic("checklist_item_tool: store must not be nil")
	}
	return &ChecklistItemTool{store: store}
}

func (t *ChecklistItemTool) Name() string { return "add_checklist_item" }

func (t *ChecklistItemTool) Description() string {
	return "Adds one item to an existing checklist"
}

func (t *ChecklistItemTool) Definition() string {
	return GenerateSchema(ChecklistItemInput{})
}

func (t *ChecklistItemTool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	var input ChecklistItemInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}
	if input.Description == "" {
		return nil, fmt.Errorf("description must not be empty")
	}

	item, err := t.store.InsertChecklistItem(ctx, domain.ChecklistItem{
		ChecklistID: input.ChecklistID,
		Description: input.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add item: %w", err)
	}
	return item, nil
}
