package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tripscout/internal/dates"
	"tripscout/internal/domain"
)

// ForecastRefresher re-fetches and caches the forecast for every upcoming
// trip. It is the run function behind the "forecast-refresh" cron job, and
// can also be invoked once from the CLI.
type ForecastRefresher struct {
	store  domain.TripStore
	source domain.WeatherSource
	logger *slog.Logger
	now    func() time.Time
}

// NewForecastRefresher creates a refresher. Store and source must not be nil.
func NewForecastRefresher(store domain.TripStore, source domain.WeatherSource, logger *slog.Logger) *ForecastRefresher {
	if store == nil {
		panic("refresher: store must not be nil")
	}
	if source == nil {
		panic("refresher: source must not be nil")
	}
	return &ForecastRefresher{store: store, source: source, logger: logger, now: time.Now}
}

func (r *ForecastRefresher) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

// Run refreshes every upcoming trip's forecast. A failure on one trip does
// not stop the others; the errors are joined and returned at the end.
func (r *ForecastRefresher) Run(ctx context.Context) error {
	today := r.now().Format(dates.LayoutISO)
	trips, err := r.store.UpcomingTrips(ctx, today)
	if err != nil {
		return fmt.Errorf("refresher: list trips: %w", err)
	}

	var errs []error
	for _, trip := range trips {
		if err := r.refreshTrip(ctx, trip); err != nil {
			r.log().Warn("forecast refresh failed", "trip_id", trip.ID, "destination", trip.Destination, "error", err)
			errs = append(errs, fmt.Errorf("trip %d (%s): %w", trip.ID, trip.Destination, err))
			continue
		}
		r.log().Debug("forecast refreshed", "trip_id", trip.ID, "destination", trip.Destination)
	}
	return errors.Join(errs...)
}

func (r *ForecastRefresher) refreshTrip(ctx context.Context, trip domain.Trip) error {
	start, err := time.Parse(dates.LayoutISO, trip.StartDate)
	if err != nil {
		return fmt.Errorf("bad start date %q: %w", trip.StartDate, err)
	}
	end, err := time.Parse(dates.LayoutISO, trip.EndDate)
	if err != nil {
		return fmt.Errorf("bad end date %q: %w", trip.EndDate, err)
	}

	days, err := r.source.Forecast(ctx, trip.Destination, start, end)
	if err != nil {
		return err
	}
	return r.store.SaveForecast(ctx, trip.Destination, days)
}
