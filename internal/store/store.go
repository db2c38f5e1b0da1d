package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tripscout/internal/domain"
)

// SQLiteStore persists trips, checklists, and cached forecasts. It implements
// domain.TripStore. The checklist tables carry real foreign keys, so inserts
// against a missing parent fail at the database rather than silently
// orphaning rows.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store and initializes the schema.
// Returns an error if db is nil or the migration fails.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db must not be nil")
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("store migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trips (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			destination TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			travelers INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS checklists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			trip_id INTEGER REFERENCES trips(id),
			title TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS checklist_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			checklist_id INTEGER NOT NULL REFERENCES checklists(id),
			description TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS forecasts (
			location TEXT NOT NULL,
			date TEXT NOT NULL,
			high_c REAL NOT NULL,
			low_c REAL NOT NULL,
			condition TEXT NOT NULL,
			precipitation_pct INTEGER NOT NULL,
			humidity_pct INTEGER NOT NULL,
			fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (location, date)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertTrip saves a trip and returns it with the generated ID and creation
// time filled in.
func (s *SQLiteStore) InsertTrip(ctx context.Context, trip domain.Trip) (*domain.Trip, error) {
	if trip.Destination == "" {
		return nil, fmt.Errorf("destination must not be empty")
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO trips (destination, start_date, end_date, travelers) VALUES (?, ?, ?, ?)",
		trip.Destination, trip.StartDate, trip.EndDate, trip.Travelers)
	if err != nil {
		return nil, fmt.Errorf("insert trip: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get trip id: %w", err)
	}
	trip.ID = id
	trip.CreatedAt = time.Now()
	return &trip, nil
}

// UpcomingTrips returns trips whose end date is on or after from, soonest
// start date first.
func (s *SQLiteStore) UpcomingTrips(ctx context.Context, from string) ([]domain.Trip, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, destination, start_date, end_date, travelers, created_at FROM trips WHERE end_date >= ? ORDER BY start_date",
		from)
	if err != nil {
		return nil, fmt.Errorf("query upcoming trips: %w", err)
	}
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		var tr domain.Trip
		if err := rows.Scan(&tr.ID, &tr.Destination, &tr.StartDate, &tr.EndDate, &tr.Travelers, &tr.CreatedAt); err != nil {
			return nil, err
		}
		trips = append(trips, tr)
	}
	return trips, rows.Err()
}

// InsertChecklist saves a checklist. An unknown trip ID fails the insert via
// the foreign-key constraint.
func (s *SQLiteStore) InsertChecklist(ctx context.Context, cl domain.Checklist) (*domain.Checklist, error) {
	if cl.Title == "" {
		return nil, fmt.Errorf("title must not be empty")
	}
	var tripID any
	if cl.TripID != nil {
		tripID = *cl.TripID
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO checklists (trip_id, title) VALUES (?, ?)",
		tripID, cl.Title)
	if err != nil {
		return nil, fmt.Errorf("insert checklist: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get checklist id: %w", err)
	}
	cl.ID = id
	cl.CreatedAt = time.Now()
	return &cl, nil
}

// InsertChecklistItem saves an item. An unknown checklist ID fails the insert
// via the foreign-key constraint.
func (s *SQLiteStore) InsertChecklistItem(ctx context.Context, item domain.ChecklistItem) (*domain.ChecklistItem, error) {
	if item.Description == "" {
		return nil, fmt.Errorf("description must not be empty")
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO checklist_items (checklist_id, description) VALUES (?, ?)",
		item.ChecklistID, item.Description)
	if err != nil {
		return nil, fmt.Errorf("insert checklist item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get item id: %w", err)
	}
	item.ID = id
	item.CreatedAt = time.Now()
	return &item, nil
}

// ChecklistItems returns the items of a checklist in insertion order.
func (s *SQLiteStore) ChecklistItems(ctx context.Context, checklistID int64) ([]domain.ChecklistItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, checklist_id, description, created_at FROM checklist_items WHERE checklist_id = ? ORDER BY id",
		checklistID)
	if err != nil {
		return nil, fmt.Errorf("query checklist items: %w", err)
	}
	defer rows.Close()

	var items []domain.ChecklistItem
	for rows.Next() {
		var it domain.ChecklistItem
		if err := rows.Scan(&it.ID, &it.ChecklistID, &it.Description, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// SaveForecast upserts cached days for a location. Re-fetching a day
// replaces the cached row.
func (s *SQLiteStore) SaveForecast(ctx context.Context, location string, days []domain.DayForecast) error {
	if location == "" {
		return fmt.Errorf("location must not be empty")
	}
	for _, d := range days {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO forecasts (location, date, high_c, low_c, condition, precipitation_pct, humidity_pct)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(location, date) DO UPDATE SET
			   high_c = excluded.high_c,
			   low_c = excluded.low_c,
			   condition = excluded.condition,
			   precipitation_pct = excluded.precipitation_pct,
			   humidity_pct = excluded.humidity_pct,
			   fetched_at = CURRENT_TIMESTAMP`,
			location, d.Date, d.HighC, d.LowC, d.Condition, d.PrecipitationPct, d.HumidityPct)
		if err != nil {
			return fmt.Errorf("save forecast %s/%s: %w", location, d.Date, err)
		}
	}
	return nil
}

// CachedForecast returns cached days between start and end inclusive, in date
// order. Days never fetched are simply absent.
func (s *SQLiteStore) CachedForecast(ctx context.Context, location, start, end string) ([]domain.DayForecast, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, high_c, low_c, condition, precipitation_pct, humidity_pct
		 FROM forecasts WHERE location = ? AND date >= ? AND date <= ? ORDER BY date`,
		location, start, end)
	if err != nil {
		return nil, fmt.Errorf("query forecast cache: %w", err)
	}
	defer rows.Close()

	var days []domain.DayForecast
	for rows.Next() {
		var d domain.DayForecast
		if err := rows.Scan(&d.Date, &d.HighC, &d.LowC, &d.Condition, &d.PrecipitationPct, &d.HumidityPct); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

var _ domain.TripStore = (*SQLiteStore)(nil)
