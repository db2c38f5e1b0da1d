package tooling

import (
	"context"
	"encoding/json"
	"fmt"

	"tripscout/internal/dates"
	"tripscout/internal/domain"
)

// TripInput is the input structure for the save_trip tool.
type TripInput struct {
	Destination string `json:"destination" jsonschema:"description=Where the trip goes"`
	StartDate   string `json:"start_date" jsonschema:"description=First day (YYYY-MM-DD or a phrase like 'next friday')"`
	EndDate     string `json:"end_date" jsonschema:"description=Last day (YYYY-MM-DD or a phrase)"`
	Travelers   int    `json:"travelers,omitempty" jsonschema:"minimum=1,description=Number of travelers; defaults to 1"`
}

// TripTool persists a trip once the conversation has collected its details.
type TripTool struct {
	store      domain.TripStore
	normalizer *dates.Normalizer
}

// NewTripTool creates the save_trip tool. Panics if store or normalizer is nil.
func NewTripTool(store domain.TripStore, normalizer *dates.Normalizer) *TripTool {
	if store == nil {
		panic("trip_tool: store must not be nil")
	}
	if normalizer == nil {
		panic("trip_tool: normalizer must not be nil")
	}
	return &TripTool{store: store, normalizer: normalizer}
}

func (t *TripTool) Name() string { return "save_trip" }

func (t *TripTool) Description() string {
	return "Saves a planned trip (destination, date range, traveler count) so checklists and forecasts can reference it"
}

func (t *TripTool) Definition() string {
	return GenerateSchema(TripInput{})
}

func (t *TripTool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	var input TripInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}
	if input.Destination == "" {
		return nil, fmt.Errorf("destination must not be empty")
	}
	if input.Travelers <= 0 {
		input.Travelers = 1
	}

	startISO, err := t.normalizer.Normalize(input.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	endISO, err := t.normalizer.Normalize(input.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", err)
	}
	if endISO < startISO {
		return nil, fmt.Errorf("end date %s is before start date %s", endISO, startISO)
	}

	trip, err := t.store.InsertTrip(ctx, domain.Trip{
		Destination: input.Destination,
		StartDate:   startISO,
		EndDate:     endISO,
		Travelers:   input.Travelers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save trip: %w", err)
	}
	return trip, nil
}
