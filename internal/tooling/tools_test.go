package tooling

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"tripscout/internal/dates"
	"tripscout/internal/domain"
)

// =============================================================================
// Shared stubs for tool handler tests
// =============================================================================

// memStore is an in-memory domain.TripStore that enforces the same
// foreign-key rules as the SQLite store.
type memStore struct {
	trips      []domain.Trip
	checklists []domain.Checklist
	items      []domain.ChecklistItem
	forecasts  map[string][]domain.DayForecast
	failInsert bool
	failRead   bool
}

func newMemStore() *memStore {
	return &memStore{forecasts: make(map[string][]domain.DayForecast)}
}

func (m *memStore) InsertTrip(_ context.Context, trip domain.Trip) (*domain.Trip, error) {
	if m.failInsert {
		return nil, fmt.Errorf("insert failed")
	}
	trip.ID = int64(len(m.trips) + 1)
	trip.CreatedAt = time.Now()
	m.trips = append(m.trips, trip)
	return &trip, nil
}

func (m *memStore) UpcomingTrips(_ context.Context, from string) ([]domain.Trip, error) {
	var out []domain.Trip
	for _, tr := range m.trips {
		if tr.EndDate >= from {
			out = append(out, tr)
		}
	}
	return out, nil
}

func (m *memStore) InsertChecklist(_ context.Context, cl domain.Checklist) (*domain.Checklist, error) {
	if cl.TripID != nil {
		found := false
		for _, tr := range m.trips {
			if tr.ID == *cl.TripID {
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("trip %d does not exist", *cl.TripID)
		}
	}
	cl.ID = int64(len(m.checklists) + 1)
	m.checklists = append(m.checklists, cl)
	return &cl, nil
}

func (m *memStore) InsertChecklistItem(_ context.Context, item domain.ChecklistItem) (*domain.ChecklistItem, error) {
	found := false
	for _, cl := range m.checklists {
		if cl.ID == item.ChecklistID {
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("checklist %d does not exist", item.ChecklistID)
	}
	item.ID = int64(len(m.items) + 1)
	m.items = append(m.items, item)
	return &item, nil
}

func (m *memStore) SaveForecast(_ context.Context, location string, days []domain.DayForecast) error {
	if m.failInsert {
		return fmt.Errorf("cache write failed")
	}
	m.forecasts[location] = append(m.forecasts[location], days...)
	return nil
}

func (m *memStore) CachedForecast(_ context.Context, location, start, end string) ([]domain.DayForecast, error) {
	if m.failRead {
		return nil, fmt.Errorf("cache read failed")
	}
	var out []domain.DayForecast
	for _, day := range m.forecasts[location] {
		if day.Date >= start && day.Date <= end {
			out = append(out, day)
		}
	}
	return out, nil
}

// stubWeather returns one synthetic day per date in the range and records
// every range it was asked for.
type stubWeather struct {
	err    error
	ranges [][2]string
}

func (s *stubWeather) Forecast(_ context.Context, location string, start, end time.Time) ([]domain.DayForecast, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.ranges = append(s.ranges, [2]string{
		start.Format(dates.LayoutISO),
		end.Format(dates.LayoutISO),
	})
	var days []domain.DayForecast
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, domain.DayForecast{
			Date:      d.Format(dates.LayoutISO),
			HighC:     20,
			LowC:      10,
			Condition: "sunny",
		})
	}
	return days, nil
}

type stubTemplates struct {
	packs map[string][]string
}

func (s *stubTemplates) Items(name string) ([]string, bool) {
	items, ok := s.packs[name]
	return items, ok
}

func frozenNormalizer() *dates.Normalizer {
	return dates.NewNormalizer(dates.WithClock(func() time.Time {
		return time.Date(2025, time.November, 18, 12, 0, 0, 0, time.UTC)
	}))
}

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

// =============================================================================
// parse_date tool
// =============================================================================

func TestDateTool_Call_ShouldNormalizePhrase(t *testing.T) {
	tool := NewDateTool(frozenNormalizer())

	out, err := tool.Call(context.Background(), mustMarshal(t, DateInput{Phrase: "tomorrow"}))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	got := out.(map[string]string)["date"]
	if got != "2025-11-19" {
		t.Errorf("Expected 2025-11-19, got %s", got)
	}
}

func TestDateTool_Call_WhenUnparseable_ShouldReturnError(t *testing.T) {
	tool := NewDateTool(frozenNormalizer())

	_, err := tool.Call(context.Background(), mustMarshal(t, DateInput{Phrase: "whenever"}))
	if err == nil {
		t.Fatal("Expected error for unparseable phrase")
	}
	if !strings.Contains(err.Error(), "whenever") {
		t.Errorf("Expected message to name the phrase, got: %v", err)
	}
}

// =============================================================================
// lookup_weather tool
// =============================================================================

func TestWeatherTool_Call_ShouldReturnPerDayForecastAndCache(t *testing.T) {
	store := newMemStore()
	tool := NewWeatherTool(&stubWeather{}, store, frozenNormalizer(), nil)

	out, err := tool.Call(context.Background(), mustMarshal(t, WeatherInput{
		Location:  "Oslo",
		StartDate: "tomorrow",
		EndDate:   "three days from now",
	}))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	fc := out.(WeatherForecast)
	if fc.Location != "Oslo" {
		t.Errorf("Expected Oslo, got %s", fc.Location)
	}
	// 2025-11-19 through 2025-11-21 inclusive.
	if len(fc.Days) != 3 {
		t.Fatalf("Expected 3 days, got %d", len(fc.Days))
	}
	if fc.Days[0].Date != "2025-11-19" || fc.Days[2].Date != "2025-11-21" {
		t.Errorf("Expected range 11-19..11-21, got %s..%s", fc.Days[0].Date, fc.Days[2].Date)
	}
	if len(store.forecasts["Oslo"]) != 3 {
		t.Errorf("Expected forecast cached, got %d days", len(store.forecasts["Oslo"]))
	}
}

func TestWeatherTool_Call_WhenEndDateOmitted_ShouldDefaultToStart(t *testing.T) {
	tool := NewWeatherTool(&stubWeather{}, nil, frozenNormalizer(), nil)

	out, err := tool.Call(context.Background(), mustMarshal(t, WeatherInput{
		Location:  "Lisbon",
		StartDate: "2025-12-01",
	}))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if days := out.(WeatherForecast).Days; len(days) != 1 {
		t.Errorf("Expected single-day forecast, got %d", len(days))
	}
}

func TestWeatherTool_Call_WhenRangeInverted_ShouldFail(t *testing.T) {
	tool := NewWeatherTool(&stubWeather{}, nil, frozenNormalizer(), nil)

	_, err := tool.Call(context.Background(), mustMarshal(t, WeatherInput{
		Location:  "Lisbon",
		StartDate: "2025-12-10",
		EndDate:   "2025-12-01",
	}))
	if err == nil {
		t.Error("Expected error for inverted range")
	}
}

func TestWeatherTool_Call_WhenSourceFails_ShouldWrapError(t *testing.T) {
	tool := NewWeatherTool(&stubWeather{err: fmt.Errorf("upstream down")}, nil, frozenNormalizer(), nil)

	_, err := tool.Call(context.Background(), mustMarshal(t, WeatherInput{
		Location:  "Lisbon",
		StartDate: "today",
	}))
	if err == nil || !strings.Contains(err.Error(), "upstream down") {
		t.Errorf("Expected wrapped source error, got: %v", err)
	}
}

func TestWeatherTool_Call_WhenRangeFullyCached_ShouldNotHitSource(t *testing.T) {
	store := newMemStore()
	store.forecasts["Oslo"] = []domain.DayForecast{
		{Date: "2025-11-19", HighC: 99, Condition: "cached"},
		{Date: "2025-11-20", HighC: 99, Condition: "cached"},
	}
	source := &stubWeather{}
	tool := NewWeatherTool(source, store, frozenNormalizer(), nil)

	out, err := tool.Call(context.Background(), mustMarshal(t, WeatherInput{
		Location:  "Oslo",
		StartDate: "2025-11-19",
		EndDate:   "2025-11-20",
	}))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(source.ranges) != 0 {
		t.Errorf("Expected source untouched for a fully cached range, got calls %v", source.ranges)
	}
	days := out.(WeatherForecast).Days
	if len(days) != 2 || days[0].Condition != "cached" || days[1].Condition != "cached" {
		t.Errorf("Expected cached days served, got %+v", days)
	}
}

func TestWeatherTool_Call_WhenPartiallyCached_ShouldFetchOnlyMissingDays(t *testing.T) {
	store := newMemStore()
	store.forecasts["Oslo"] = []domain.DayForecast{
		{Date: "2025-11-20", HighC: 99, Condition: "cached"},
	}
	source := &stubWeather{}
	tool := NewWeatherTool(source, store, frozenNormalizer(), nil)

	out, err := tool.Call(context.Background(), mustMarshal(t, WeatherInput{
		Location:  "Oslo",
		StartDate: "2025-11-19",
		EndDate:   "2025-11-21",
	}))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// The cached middle day splits the range into two single-day gaps.
	wantRanges := [][2]string{{"2025-11-19", "2025-11-19"}, {"2025-11-21", "2025-11-21"}}
	if len(source.ranges) != 2 || source.ranges[0] != wantRanges[0] || source.ranges[1] != wantRanges[1] {
		t.Errorf("Expected gap fetches %v, got %v", wantRanges, source.ranges)
	}

	days := out.(WeatherForecast).Days
	if len(days) != 3 {
		t.Fatalf("Expected 3 days, got %d", len(days))
	}
	if days[0].Date != "2025-11-19" || days[1].Date != "2025-11-20" || days[2].Date != "2025-11-21" {
		t.Errorf("Expected date-ordered assembly, got %+v", days)
	}
	if days[1].Condition != "cached" {
		t.Errorf("Expected middle day served from cache, got %+v", days[1])
	}

	// Only the two fetched days are written back, not the cached one.
	if len(store.forecasts["Oslo"]) != 3 {
		t.Errorf("Expected 1 cached + 2 fetched days in store, got %d", len(store.forecasts["Oslo"]))
	}
}

func TestWeatherTool_Call_WhenCacheReadFails_ShouldFetchFullRange(t *testing.T) {
	store := newMemStore()
	store.failRead = true
	source := &stubWeather{}
	tool := NewWeatherTool(source, store, frozenNormalizer(), nil)

	out, err := tool.Call(context.Background(), mustMarshal(t, WeatherInput{
		Location:  "Oslo",
		StartDate: "2025-11-19",
		EndDate:   "2025-11-20",
	}))
	if err != nil {
		t.Fatalf("Expected cache read failure to be swallowed, got: %v", err)
	}
	if len(source.ranges) != 1 {
		t.Errorf("Expected one full-range fetch, got %v", source.ranges)
	}
	if len(out.(WeatherForecast).Days) != 2 {
		t.Errorf("Expected 2 days, got %d", len(out.(WeatherForecast).Days))
	}
}

func TestWeatherTool_Call_WhenCacheWriteFails_ShouldStillSucceed(t *testing.T) {
	store := newMemStore()
	store.failInsert = true
	tool := NewWeatherTool(&stubWeather{}, store, frozenNormalizer(), nil)

	_, err := tool.Call(context.Background(), mustMarshal(t, WeatherInput{
		Location:  "Oslo",
		StartDate: "today",
	}))
	if err != nil {
		t.Errorf("Expected cache failure to be swallowed, got: %v", err)
	}
}

// =============================================================================
// save_trip tool
// =============================================================================

func TestTripTool_Call_ShouldNormalizeDatesAndPersist(t *testing.T) {
	store := newMemStore()
	tool := NewTripTool(store, frozenNormalizer())

	out, err := tool.Call(context.Background(), mustMarshal(t, TripInput{
		Destination: "Kyoto",
		StartDate:   "next friday",
		EndDate:     "two weeks from now",
		Travelers:   2,
	}))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	trip := out.(*domain.Trip)
	if trip.ID == 0 {
		t.Error("Expected generated trip ID")
	}
	if trip.StartDate != "2025-11-21" || trip.EndDate != "2025-12-02" {
		t.Errorf("Expected normalized dates, got %s..%s", trip.StartDate, trip.EndDate)
	}
}

func TestTripTool_Call_WhenEndBeforeStart_ShouldFail(t *testing.T) {
	tool := NewTripTool(newMemStore(), frozenNormalizer())

	_, err := tool.Call(context.Background(), mustMarshal(t, TripInput{
		Destination: "Kyoto",
		StartDate:   "next friday",
		EndDate:     "yesterday",
	}))
	if err == nil {
		t.Error("Expected error for inverted trip range")
	}
}

func TestTripTool_Call_WhenTravelersOmitted_ShouldDefaultToOne(t *testing.T) {
	store := newMemStore()
	tool := NewTripTool(store, frozenNormalizer())

	out, err := tool.Call(context.Background(), mustMarshal(t, TripInput{
		Destination: "Kyoto",
		StartDate:   "today",
		EndDate:     "tomorrow",
	}))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if out.(*domain.Trip).Travelers != 1 {
		t.Errorf("Expected 1 traveler, got %d", out.(*domain.Trip).Travelers)
	}
}

// =============================================================================
// create_checklist / add_checklist_item tools
// =============================================================================

func TestChecklistTool_Call_ShouldCreateChecklistWithItems(t *testing.T) {
	store := newMemStore()
	tool := NewChecklistTool(store, nil)

	out, err := tool.Call(context.Background(), mustMarshal(t, ChecklistInput{
		Title: "Packing",
		Items: []string{"passport", "charger"},
	}))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	cl := out.(ChecklistWithItems)
	if cl.Checklist.ID == 0 {
		t.Error("Expected generated checklist ID")
	}
	if len(cl.Items) != 2 || cl.Items[0].Description != "passport" {
		t.Errorf("Expected 2 items in order, got %+v", cl.Items)
	}
}

func TestChecklistTool_Call_WithTemplate_ShouldExpandTemplateItemsFirst(t *testing.T) {
	store := newMemStore()
	tmpl := &stubTemplates{packs: map[string][]string{
		"beach": {"sunscreen", "swimsuit"},
	}}
	tool := NewChecklistTool(store, tmpl)

	out, err := tool.Call(context.Background(), mustMarshal(t, ChecklistInput{
		Title:    "Beach trip",
		Template: "beach",
		Items:    []string{"book"},
	}))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	cl := out.(ChecklistWithItems)
	got := []string{cl.Items[0].Description, cl.Items[1].Description, cl.Items[2].Description}
	want := []string{"sunscreen", "swimsuit", "book"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestChecklistTool_Call_WhenTemplateUnknown_ShouldFail(t *testing.T) {
	tool := NewChecklistTool(newMemStore(), &stubTemplates{packs: map[string][]string{}})

	_, err := tool.Call(context.Background(), mustMarshal(t, ChecklistInput{
		Title:    "Trip",
		Template: "arctic",
	}))
	if err == nil || !strings.Contains(err.Error(), "arctic") {
		t.Errorf("Expected unknown-template error naming it, got: %v", err)
	}
}

func TestChecklistTool_Call_WhenTripMissing_ShouldFail(t *testing.T) {
	tool := NewChecklistTool(newMemStore(), nil)
	missing := int64(99)

	_, err := tool.Call(context.Background(), mustMarshal(t, ChecklistInput{
		Title:  "Orphan",
		TripID: &missing,
	}))
	if err == nil {
		t.Error("Expected foreign-key failure for missing trip")
	}
}

func TestChecklistItemTool_Call_ShouldAppendToExistingChecklist(t *testing.T) {
	store := newMemStore()
	create := NewChecklistTool(store, nil)
	out, err := create.Call(context.Background(), mustMarshal(t, ChecklistInput{Title: "Packing"}))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	clID := out.(ChecklistWithItems).Checklist.ID

	add := NewChecklistItemTool(store)
	res, err := add.Call(context.Background(), mustMarshal(t, ChecklistItemInput{
		ChecklistID: clID,
		Description: "rain jacket",
	}))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if res.(*domain.ChecklistItem).Description != "rain jacket" {
		t.Errorf("Expected inserted item, got %+v", res)
	}
}

func TestChecklistItemTool_Call_WhenChecklistMissing_ShouldFail(t *testing.T) {
	add := NewChecklistItemTool(newMemStore())

	_, err := add.Call(context.Background(), mustMarshal(t, ChecklistItemInput{
		ChecklistID: 42,
		Description: "socks",
	}))
	if err == nil {
		t.Error("Expected failure for unknown checklist")
	}
}
