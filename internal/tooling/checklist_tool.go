package tooling

import (
	"context"
	"encoding/json"
	"fmt"

	"tripscout/internal/domain"
)

// TemplateSource resolves a named checklist template to its item list.
// Implemented by templates.Library; nil disables template expansion.
type TemplateSource interface {
	Items(name string) ([]string, bool)
}

// ChecklistInput is the input structure for the create_checklist tool. Items
// and Template may be combined; template items come first.
type ChecklistInput struct {
	Title    string   `json:"title" jsonschema:"description=Checklist title, e.g. 'Packing for Oslo'"`
	TripID   *int64   `json:"trip_id,omitempty" jsonschema:"description=Trip this checklist belongs to, if any"`
	Items    []string `json:"items,omitempty" jsonschema:"description=Initial item descriptions"`
	Template string   `json:"template,omitempty" jsonschema:"description=Name of a checklist template to expand into items"`
}

// ChecklistWithItems is the value returned to the LLM.
type ChecklistWithItems struct {
	Checklist domain.Checklist       `json:"checklist"`
	Items     []domain.ChecklistItem `json:"items"`
}

// ChecklistTool creates a checklist and its initial items in one call. The
// store enforces the trip foreign key; an unknown trip_id fails the whole call
// before any item is written.
type ChecklistTool struct {
	store     domain.TripStore
	templates TemplateSource
}

// NewChecklistTool creates the create_checklist tool. Panics if store is nil;
// templates may be nil.
func NewChecklistTool(store domain.TripStore, templates TemplateSource) *ChecklistTool {
	if store == nil {
		panic("checklist_tool: store must not be nil")
	}
	return &ChecklistTool{store: store, templates: templates}
}

func (t *ChecklistTool) Name() string { return "create_checklist" }

func (t *ChecklistTool) Description() string {
	return "Creates a checklist (optionally attached to a saved trip) with initial items, either listed directly or expanded from a named template"
}

func (t *ChecklistTool) Definition() string {
	return GenerateSchema(ChecklistInput{})
}

func (t *ChecklistTool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	var input ChecklistInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}
	if input.Title == "" {
		return nil, fmt.Errorf("title must not be empty")
	}

	descriptions, err := t.expandItems(input)
	if err != nil {
		return nil, err
	}

	cl, err := t.store.InsertChecklist(ctx, domain.Checklist{
		TripID: input.TripID,
		Title:  input.Title,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checklist: %w", err)
	}

	items := make([]domain.ChecklistItem, 0, len(descriptions))
	for _, desc := range descriptions {
		item, err := t.store.InsertChecklistItem(ctx, domain.ChecklistItem{
			ChecklistID: cl.ID,
			Description: desc,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add item %q: %w", desc, err)
		}
		items = append(items, *item)
	}

	return ChecklistWithItems{Checklist: *cl, Items: items}, nil
}

func (t *ChecklistTool) expandItems(input ChecklistInput) ([]string, error) {
	var out []string
	if input.Template != "" {
		if t.templates == nil {
			return nil, fmt.Errorf("no checklist templates are configured")
		}
		items, ok := t.templates.Items(input.Template)
		if !ok {
			return nil, fmt.Errorf("unknown checklist template: %q", input.Template)
		}
		out = append(out, items...)
	}
	out = append(out, input.Items...)
	return out, nil
}
