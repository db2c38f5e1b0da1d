package tooling

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"tripscout/internal/dates"
	"tripscout/internal/domain"
)

// WeatherInput is the input structure for the lookup_weather tool. Dates may
// be ISO strings or any phrase the normalizer understands.
type WeatherInput struct {
	Location  string `json:"location" jsonschema:"description=City or place name to look up"`
	StartDate string `json:"start_date" jsonschema:"description=First day of the range (YYYY-MM-DD or a phrase like 'tomorrow')"`
	EndDate   string `json:"end_date,omitempty" jsonschema:"description=Last day of the range; defaults to start_date"`
}

// WeatherForecast is the value returned to the LLM.
type WeatherForecast struct {
	Location string               `json:"location"`
	Days     []domain.DayForecast `json:"days"`
}

// WeatherTool serves per-day forecasts cache-first: days already cached
// through the store are returned as-is and only the gaps are fetched from the
// source. Cache reads and writes are best-effort; a failure on either side is
// logged, not surfaced, since the forecast itself can still be produced.
type WeatherTool struct {
	source     domain.WeatherSource
	store      domain.TripStore // optional; nil disables caching
	normalizer *dates.Normalizer
	logger     *slog.Logger
}

// NewWeatherTool creates the lookup_weather tool. Source and normalizer must
// not be nil; store and logger are optional.
func NewWeatherTool(source domain.WeatherSource, store domain.TripStore, normalizer *dates.Normalizer, logger *slog.Logger) *WeatherTool {
	if source == nil {
		panic("weather_tool: source must not be nil")
	}
	if normalizer == nil {
		panic("weather_tool: normalizer must not be nil")
	}
	return &WeatherTool{source: source, store: store, normalizer: normalizer, logger: logger}
}

func (t *WeatherTool) Name() string { return "lookup_weather" }

func (t *WeatherTool) Description() string {
	return "Looks up the daily weather forecast (high/low temperature, condition, precipitation, humidity) for a location over a date range"
}

func (t *WeatherTool) Definition() string {
	return GenerateSchema(WeatherInput{})
}

func (t *WeatherTool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	var input WeatherInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}
	if input.Location == "" {
		return nil, fmt.Errorf("location must not be empty")
	}
	if input.EndDate == "" {
		input.EndDate = input.StartDate
	}

	start, end, err := t.resolveRange(input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}

	days, err := t.forecastRange(ctx, input.Location, start, end)
	if err != nil {
		return nil, fmt.Errorf("weather lookup for %q failed: %w", input.Location, err)
	}

	return WeatherForecast{Location: input.Location, Days: days}, nil
}

// forecastRange assembles the range in date order, serving cached days and
// fetching each contiguous run of uncached days from the source in one call.
// Only freshly fetched days are written back to the cache.
func (t *WeatherTool) forecastRange(ctx context.Context, location string, start, end time.Time) ([]domain.DayForecast, error) {
	cached := t.cachedDays(ctx, location, start, end)

	var out []domain.DayForecast
	var fetched []domain.DayForecast
	for d := start; !d.After(end); {
		if day, ok := cached[d.Format(dates.LayoutISO)]; ok {
			out = append(out, day)
			d = d.AddDate(0, 0, 1)
			continue
		}

		gapEnd := d
		for next := gapEnd.AddDate(0, 0, 1); !next.After(end); next = next.AddDate(0, 0, 1) {
			if _, ok := cached[next.Format(dates.LayoutISO)]; ok {
				break
			}
			gapEnd = next
		}

		days, err := t.source.Forecast(ctx, location, d, gapEnd)
		if err != nil {
			return nil, err
		}
		out = append(out, days...)
		fetched = append(fetched, days...)
		d = gapEnd.AddDate(0, 0, 1)
	}

	if t.store != nil && len(fetched) > 0 {
		if err := t.store.SaveForecast(ctx, location, fetched); err != nil {
			t.log().Warn("forecast cache write failed", "location", location, "error", err)
		}
	}
	return out, nil
}

// cachedDays reads the cached range keyed by date. A missing store or a read
// failure yields an empty map, which makes the whole range a fetchable gap.
func (t *WeatherTool) cachedDays(ctx context.Context, location string, start, end time.Time) map[string]domain.DayForecast {
	if t.store == nil {
		return nil
	}
	rows, err := t.store.CachedForecast(ctx, location, start.Format(dates.LayoutISO), end.Format(dates.LayoutISO))
	if err != nil {
		t.log().Warn("forecast cache read failed", "location", location, "error", err)
		return nil
	}
	byDate := make(map[string]domain.DayForecast, len(rows))
	for _, row := range rows {
		byDate[row.Date] = row
	}
	return byDate
}

// resolveRange normalizes both endpoints and rejects an inverted range.
func (t *WeatherTool) resolveRange(startPhrase, endPhrase string) (time.Time, time.Time, error) {
	startISO, err := t.normalizer.Normalize(startPhrase)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
	}
	endISO, err := t.normalizer.Normalize(endPhrase)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %w", err)
	}

	start, _ := time.Parse(dates.LayoutISO, startISO)
	end, _ := time.Parse(dates.LayoutISO, endISO)
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s", endISO, startISO)
	}
	return start, end, nil
}

func (t *WeatherTool) log() *slog.Logger {
	if t.logger != nil {
		return t.logger
	}
	return slog.Default()
}
