package tooling

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tripscout/internal/domain"
)

// Option is a functional option for configuring an Executor.
type Option func(*Executor)

// WithLogger sets a structured logger for the Executor. If l is nil it is
// ignored and the default slog logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// Executor resolves tool invocations against a Registry and runs them. It
// never returns an error itself: lookup failures, validation failures, handler
// errors, and handler panics are all folded into the ErrorMessage field of the
// ToolResult, so one invocation's malfunction cannot abort a batch.
type Executor struct {
	registry *Registry
	logger   *slog.Logger
}

// NewExecutor creates an executor backed by the given registry.
// Panics if registry is nil.
func NewExecutor(registry *Registry, opts ...Option) *Executor {
	if registry == nil {
		panic("executor: registry must not be nil")
	}
	e := &Executor{registry: registry}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// log returns the Executor's logger, falling back to the default slog logger.
func (e *Executor) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default()
}

// Execute runs a single invocation and always produces a result. Elapsed time
// covers lookup through finalization, rounded to the nearest millisecond.
func (e *Executor) Execute(ctx context.Context, inv domain.ToolInvocation) domain.ToolResult {
	start := time.Now()

	tool, ok := e.registry.Get(inv.Name)
	if !ok {
		return e.failure(inv, start, fmt.Sprintf("Tool %q not found", inv.Name))
	}

	// Validate arguments once at the boundary; handlers receive only
	// schema-conforming input.
	if err := ValidateAgainstSchema(inv.Args, tool.Definition()); err != nil {
		return e.failure(inv, start, errorMessage(err))
	}

	value, err := safeCall(ctx, tool, inv.Args)
	if err != nil {
		return e.failure(inv, start, errorMessage(err))
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return e.failure(inv, start, fmt.Sprintf("tool %q returned an unserializable value: %v", inv.Name, err))
	}

	elapsed := elapsedMillis(start)
	e.log().Debug("tool executed",
		"tool", inv.Name,
		"invocation_id", inv.ID,
		"elapsed_ms", elapsed)

	return domain.ToolResult{
		InvocationID:  inv.ID,
		ToolName:      inv.Name,
		Value:         raw,
		ElapsedMillis: elapsed,
	}
}

// ExecuteBatch runs every invocation concurrently and returns results
// positionally: the result for invocation i is at index i regardless of
// completion order. Invocations are independent; no result is ever dropped.
func (e *Executor) ExecuteBatch(ctx context.Context, invs []domain.ToolInvocation) []domain.ToolResult {
	results := make([]domain.ToolResult, len(invs))

	var wg sync.WaitGroup
	for i, inv := range invs {
		wg.Add(1)
		go func(i int, inv domain.ToolInvocation) {
			defer wg.Done()
			results[i] = e.Execute(ctx, inv)
		}(i, inv)
	}
	wg.Wait()

	return results
}

func (e *Executor) failure(inv domain.ToolInvocation, start time.Time, msg string) domain.ToolResult {
	elapsed := elapsedMillis(start)
	e.log().Warn("tool failed",
		"tool", inv.Name,
		"invocation_id", inv.ID,
		"error", msg,
		"elapsed_ms", elapsed)
	return domain.ToolResult{
		InvocationID:  inv.ID,
		ToolName:      inv.Name,
		ErrorMessage:  msg,
		ElapsedMillis: elapsed,
	}
}

// safeCall invokes the tool and converts a panic into an error, preserving
// the batch-isolation invariant.
func safeCall(ctx context.Context, tool Tool, args json.RawMessage) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return tool.Call(ctx, args)
}

// errorMessage extracts a human-readable message, falling back to a generic
// string when the error carries none.
func errorMessage(err error) string {
	if err == nil || err.Error() == "" {
		return "Unknown error"
	}
	return err.Error()
}

func elapsedMillis(start time.Time) int64 {
	return time.Since(start).Round(time.Millisecond).Milliseconds()
}
