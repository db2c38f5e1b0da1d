package weather

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"tripscout/internal/dates"
	"tripscout/internal/domain"
)

// conditions a mock day can report. Index is chosen from the seeded RNG so a
// given location+date always gets the same label.
var conditions = []string{
	"sunny",
	"partly cloudy",
	"overcast",
	"light rain",
	"rain",
	"thunderstorms",
	"snow",
}

// MockSource generates deterministic synthetic forecasts: the same location
// and date always produce the same day, across processes. It implements
// domain.WeatherSource for demos and tests; swapping in a real API is a
// matter of satisfying the same interface.
type MockSource struct{}

// NewMockSource returns a deterministic mock weather source.
func NewMockSource() *MockSource {
	return &MockSource{}
}

// Forecast returns one DayForecast per day from start to end inclusive.
// Fails on an inverted range or a range longer than 30 days.
func (s *MockSource) Forecast(ctx context.Context, location string, start, end time.Time) ([]domain.DayForecast, error) {
	if location == "" {
		return nil, fmt.Errorf("location must not be empty")
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end %s before start %s", end.Format(dates.LayoutISO), start.Format(dates.LayoutISO))
	}
	if end.Sub(start) > 30*24*time.Hour {
		return nil, fmt.Errorf("range longer than 30 days")
	}

	var days []domain.DayForecast
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		days = append(days, dayFor(location, d))
	}
	return days, nil
}

// dayFor derives a single day from an RNG seeded on location+date.
func dayFor(location string, day time.Time) domain.DayForecast {
	date := day.Format(dates.LayoutISO)

	h := fnv.New64a()
	h.Write([]byte(location))
	h.Write([]byte("|"))
	h.Write([]byte(date))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	high := roundHalf(-5 + rng.Float64()*40) // -5C..35C
	low := roundHalf(high - (3 + rng.Float64()*9))
	cond := conditions[rng.Intn(len(conditions))]

	precip := rng.Intn(101)
	// Dry-sky conditions keep precipitation low.
	if cond == "sunny" || cond == "partly cloudy" {
		precip = rng.Intn(16)
	}

	return domain.DayForecast{
		Date:             date,
		HighC:            high,
		LowC:             low,
		Condition:        cond,
		PrecipitationPct: precip,
		HumidityPct:      30 + rng.Intn(66),
	}
}

func roundHalf(v float64) float64 {
	return math.Round(v*2) / 2
}
