package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tripscout/internal/domain"
)

// =============================================================================
// fakeEngine — CronEngine stub that fires jobs on demand
// =============================================================================

type fakeEngine struct {
	funcs   map[int]func()
	nextID  int
	started bool
	stopped bool
	addErr  error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{funcs: make(map[int]func())}
}

func (f *fakeEngine) AddFunc(spec string, cmd func()) (int, error) {
	if f.addErr != nil {
		return 0, f.addErr
	}
	f.nextID++
	f.funcs[f.nextID] = cmd
	return f.nextID, nil
}

func (f *fakeEngine) Remove(id int) { delete(f.funcs, id) }
func (f *fakeEngine) Start()        { f.started = true }
func (f *fakeEngine) Stop()         { f.stopped = true }

// fire runs every registered job synchronously.
func (f *fakeEngine) fire() {
	for _, fn := range f.funcs {
		fn()
	}
}

// =============================================================================
// Scheduler tests
// =============================================================================

func TestAddJob_ShouldRegisterAndFire(t *testing.T) {
	engine := newFakeEngine()
	s := NewScheduler(engine)

	fired := 0
	err := s.AddJob(Job{ID: "refresh", Name: "forecast refresh", CronExpr: "0 6 * * *"},
		func(ctx context.Context, job Job) error {
			fired++
			return nil
		})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	engine.fire()
	if fired != 1 {
		t.Errorf("Expected job to fire once, got %d", fired)
	}
}

func TestAddJob_WhenInvalid_ShouldReturnSentinelErrors(t *testing.T) {
	s := NewScheduler(newFakeEngine())
	run := func(ctx context.Context, job Job) error { return nil }

	if err := s.AddJob(Job{CronExpr: "* * * * *"}, run); !errors.Is(err, ErrEmptyJobID) {
		t.Errorf("Expected ErrEmptyJobID, got: %v", err)
	}
	if err := s.AddJob(Job{ID: "x"}, run); !errors.Is(err, ErrEmptyCron) {
		t.Errorf("Expected ErrEmptyCron, got: %v", err)
	}
	if err := s.AddJob(Job{ID: "x", CronExpr: "* * * * *"}, nil); !errors.Is(err, ErrNilRunFunc) {
		t.Errorf("Expected ErrNilRunFunc, got: %v", err)
	}
}

func TestAddJob_WhenDuplicateID_ShouldFail(t *testing.T) {
	s := NewScheduler(newFakeEngine())
	run := func(ctx context.Context, job Job) error { return nil }

	if err := s.AddJob(Job{ID: "refresh", CronExpr: "* * * * *"}, run); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := s.AddJob(Job{ID: "refresh", CronExpr: "* * * * *"}, run); !errors.Is(err, ErrDuplicateJob) {
		t.Errorf("Expected ErrDuplicateJob, got: %v", err)
	}
}

func TestAddJob_WhenJobFails_ShouldNotPanicAndStayRegistered(t *testing.T) {
	engine := newFakeEngine()
	s := NewScheduler(engine)

	if err := s.AddJob(Job{ID: "flaky", CronExpr: "* * * * *"},
		func(ctx context.Context, job Job) error { return fmt.Errorf("transient") }); err != nil {
		t.Fatalf("add: %v", err)
	}

	engine.fire() // failure is logged, not raised
	if len(s.ListJobs()) != 1 {
		t.Errorf("Expected job to stay registered after failure")
	}
}

func TestRemoveJob_ShouldUnregister(t *testing.T) {
	engine := newFakeEngine()
	s := NewScheduler(engine)
	run := func(ctx context.Context, job Job) error { return nil }

	if err := s.AddJob(Job{ID: "refresh", CronExpr: "* * * * *"}, run); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.RemoveJob("refresh"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(s.ListJobs()) != 0 {
		t.Error("Expected no jobs after removal")
	}
	if err := s.RemoveJob("refresh"); err == nil {
		t.Error("Expected error removing unknown job")
	}
}

func TestStartStop_ShouldDelegateToEngine(t *testing.T) {
	engine := newFakeEngine()
	s := NewScheduler(engine)

	s.Start()
	s.Stop()
	if !engine.started || !engine.stopped {
		t.Error("Expected engine start/stop to be called")
	}
}

// =============================================================================
// ForecastRefresher tests
// =============================================================================

type refreshStore struct {
	trips     []domain.Trip
	saved     map[string]int
	tripsErr  error
	saveErr   error
}

func (r *refreshStore) InsertTrip(_ context.Context, t domain.Trip) (*domain.Trip, error) {
	return &t, nil
}
func (r *refreshStore) UpcomingTrips(_ context.Context, from string) ([]domain.Trip, error) {
	return r.trips, r.tripsErr
}
func (r *refreshStore) InsertChecklist(_ context.Context, c domain.Checklist) (*domain.Checklist, error) {
	return &c, nil
}
func (r *refreshStore) InsertChecklistItem(_ context.Context, i domain.ChecklistItem) (*domain.ChecklistItem, error) {
	return &i, nil
}
func (r *refreshStore) SaveForecast(_ context.Context, location string, days []domain.DayForecast) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	if r.saved == nil {
		r.saved = make(map[string]int)
	}
	r.saved[location] += len(days)
	return nil
}
func (r *refreshStore) CachedForecast(_ context.Context, location, start, end string) ([]domain.DayForecast, error) {
	return nil, nil
}

type refreshSource struct {
	err error
}

func (s *refreshSource) Forecast(_ context.Context, location string, start, end time.Time) ([]domain.DayForecast, error) {
	if s.err != nil {
		return nil, s.err
	}
	var days []domain.DayForecast
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, domain.DayForecast{Date: d.Format("2006-01-02")})
	}
	return days, nil
}

func TestRefresherRun_ShouldCacheForecastPerUpcomingTrip(t *testing.T) {
	store := &refreshStore{trips: []domain.Trip{
		{ID: 1, Destination: "Oslo", StartDate: "2025-11-20", EndDate: "2025-11-22"},
		{ID: 2, Destination: "Lisbon", StartDate: "2025-12-01", EndDate: "2025-12-01"},
	}}
	r := NewForecastRefresher(store, &refreshSource{}, nil)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if store.saved["Oslo"] != 3 || store.saved["Lisbon"] != 1 {
		t.Errorf("Expected 3 Oslo days and 1 Lisbon day, got %v", store.saved)
	}
}

func TestRefresherRun_OneTripFailureShouldNotStopOthers(t *testing.T) {
	store := &refreshStore{trips: []domain.Trip{
		{ID: 1, Destination: "Oslo", StartDate: "not-a-date", EndDate: "2025-11-22"},
		{ID: 2, Destination: "Lisbon", StartDate: "2025-12-01", EndDate: "2025-12-01"},
	}}
	r := NewForecastRefresher(store, &refreshSource{}, nil)

	err := r.Run(context.Background())
	if err == nil {
		t.Fatal("Expected joined error for the bad trip")
	}
	if store.saved["Lisbon"] != 1 {
		t.Errorf("Expected Lisbon still refreshed, got %v", store.saved)
	}
}

func TestRefresherRun_WhenListFails_ShouldReturnError(t *testing.T) {
	store := &refreshStore{tripsErr: fmt.Errorf("db down")}
	r := NewForecastRefresher(store, &refreshSource{}, nil)

	if err := r.Run(context.Background()); err == nil {
		t.Error("Expected error when trip listing fails")
	}
}
