package domain

import (
	"context"
	"time"
)

// LLMProvider is the model-agnostic interface for tool-calling conversations.
// Implementations may be Anthropic, a scripted offline provider, or mocks.
type LLMProvider interface {
	// Chat sends the conversation so far plus the available tool definitions
	// and returns the model's reply, including any tool calls it requested.
	Chat(ctx context.Context, system string, history []ChatMessage, tools []ToolDefinition) (*ChatReply, error)
}

// WeatherSource returns a per-day forecast for a location over an inclusive
// date range. Implementations may be a deterministic mock or a real API.
type WeatherSource interface {
	Forecast(ctx context.Context, location string, start, end time.Time) ([]DayForecast, error)
}

// TripStore persists trips, checklists, and cached forecasts. Foreign-key
// relationships (an item referencing its checklist, a checklist referencing
// its trip) are enforced by the store, not by callers.
type TripStore interface {
	// InsertTrip saves a trip and returns it with its generated ID set.
	InsertTrip(ctx context.Context, trip Trip) (*Trip, error)

	// UpcomingTrips returns trips whose end date is on or after the given
	// YYYY-MM-DD date, soonest first.
	UpcomingTrips(ctx context.Context, from string) ([]Trip, error)

	// InsertChecklist saves a checklist. Fails if the referenced trip does
	// not exist.
	InsertChecklist(ctx context.Context, cl Checklist) (*Checklist, error)

	// InsertChecklistItem saves an item. Fails if the referenced checklist
	// does not exist.
	InsertChecklistItem(ctx context.Context, item ChecklistItem) (*ChecklistItem, error)

	// SaveForecast upserts cached forecast days for a location.
	SaveForecast(ctx context.Context, location string, days []DayForecast) error

	// CachedForecast returns cached days for a location between two
	// YYYY-MM-DD dates inclusive, in date order. Missing days are simply
	// absent from the result.
	CachedForecast(ctx context.Context, location, start, end string) ([]DayForecast, error)
}
