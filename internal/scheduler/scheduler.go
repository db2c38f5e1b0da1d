package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Job is a named cron-scheduled task.
type Job struct {
	ID       string // Unique identifier for the job
	Name     string // Human-readable name (optional)
	CronExpr string // Cron expression (e.g. "0 6 * * *")
}

// RunFunc is invoked when a scheduled job fires.
type RunFunc func(ctx context.Context, job Job) error

// Option is a functional option for configuring a Scheduler.
type Option func(*Scheduler)

// WithLogger sets a structured logger for the Scheduler. If l is nil it is
// ignored and the default slog logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// Sentinel errors for validation.
var (
	ErrEmptyJobID   = errors.New("scheduler: job ID must not be empty")
	ErrEmptyCron    = errors.New("scheduler: cron expression must not be empty")
	ErrNilRunFunc   = errors.New("scheduler: run function must not be nil")
	ErrDuplicateJob = errors.New("scheduler: job with this ID already exists")
)

type jobEntry struct {
	job     Job
	entryID int
}

// Scheduler manages cron-based background jobs, such as the nightly forecast
// refresh for upcoming trips. A job failure is logged and the job stays
// scheduled; failures never stop the engine.
type Scheduler struct {
	engine CronEngine
	logger *slog.Logger
	mu     sync.RWMutex
	jobs   map[string]jobEntry
}

// NewScheduler creates a Scheduler. Engine must not be nil.
func NewScheduler(engine CronEngine, opts ...Option) *Scheduler {
	if engine == nil {
		panic("scheduler: engine must not be nil")
	}
	s := &Scheduler{
		engine: engine,
		jobs:   make(map[string]jobEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// AddJob registers a job with its run function. Returns an error if the job
// fails validation or a job with the same ID already exists.
func (s *Scheduler) AddJob(job Job, run RunFunc) error {
	if job.ID == "" {
		return ErrEmptyJobID
	}
	if job.CronExpr == "" {
		return ErrEmptyCron
	}
	if run == nil {
		return ErrNilRunFunc
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.ID)
	}

	capturedJob := job
	entryID, err := s.engine.AddFunc(job.CronExpr, func() {
		s.log().Info("job fired", "job_id", capturedJob.ID, "job_name", capturedJob.Name)
		if runErr := run(context.Background(), capturedJob); runErr != nil {
			s.log().Warn("job failed", "job_id", capturedJob.ID, "error", runErr)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduler: failed to register cron job %q: %w", job.ID, err)
	}

	s.jobs[job.ID] = jobEntry{job: job, entryID: entryID}
	s.log().Info("job registered", "job_id", job.ID, "cron_expr", job.CronExpr)
	return nil
}

// RemoveJob unregisters a scheduled job by ID.
func (s *Scheduler) RemoveJob(id string) error {
	if id == "" {
		return ErrEmptyJobID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("scheduler: job %q not found", id)
	}
	s.engine.Remove(entry.entryID)
	delete(s.jobs, id)
	return nil
}

// ListJobs returns a copy of all registered jobs. Never nil.
func (s *Scheduler) ListJobs() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs := make([]Job, 0, len(s.jobs))
	for _, entry := range s.jobs {
		jobs = append(jobs, entry.job)
	}
	return jobs
}

// Start begins the cron engine.
func (s *Scheduler) Start() {
	s.engine.Start()
}

// Stop halts the cron engine.
func (s *Scheduler) Stop() {
	s.engine.Stop()
}
