package agent

import (
	"context"
	"fmt"
	"log/slog"

	"tripscout/internal/domain"
	"tripscout/internal/tooling"
)

const defaultMaxTurns = 8

const systemPrompt = `You are a trip-planning assistant. You help travelers pick
dates, check the weather at their destination, save trips, and build packing
checklists. Use the available tools whenever they can answer the question;
resolve human date phrases with parse_date before passing dates to other tools.
Answer concisely.`

// Option is a functional option for configuring Agent.
type Option func(*Agent)

// WithLogger sets a structured logger for the Agent. If l is nil it is ignored
// and the default slog logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMaxTurns caps how many provider round-trips a single Run may make.
// Values below 1 are ignored.
func WithMaxTurns(n int) Option {
	return func(a *Agent) {
		if n >= 1 {
			a.maxTurns = n
		}
	}
}

// WithSystemPrompt overrides the built-in system prompt. Empty strings are
// ignored.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		if prompt != "" {
			a.system = prompt
		}
	}
}

// Agent drives the tool-use conversation loop: it sends the transcript plus
// tool definitions to the provider, executes any tool calls the model makes,
// feeds the results back, and repeats until the model answers in plain text
// or the turn cap is hit.
type Agent struct {
	provider domain.LLMProvider
	executor *tooling.Executor
	registry *tooling.Registry
	system   string
	maxTurns int
	logger   *slog.Logger // optional; nil uses slog.Default()
}

// NewAgent returns an Agent wired to the given provider, executor and
// registry. All three must be non-nil.
func NewAgent(provider domain.LLMProvider, executor *tooling.Executor, registry *tooling.Registry, opts ...Option) *Agent {
	if provider == nil {
		panic("agent: provider must not be nil")
	}
	if executor == nil {
		panic("agent: executor must not be nil")
	}
	if registry == nil {
		panic("agent: registry must not be nil")
	}
	a := &Agent{
		provider: provider,
		executor: executor,
		registry: registry,
		system:   systemPrompt,
		maxTurns: defaultMaxTurns,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// log returns the Agent's logger, falling back to the default slog logger.
func (a *Agent) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}

// Run answers a single user message, running as many tool round-trips as the
// model asks for (up to the turn cap). It returns the model's final text and
// the full transcript including tool calls and results.
func (a *Agent) Run(ctx context.Context, userMessage string) (string, []domain.ChatMessage, error) {
	history := []domain.ChatMessage{{Role: "user", Text: userMessage}}
	tools := a.registry.Definitions()

	for turn := 0; turn < a.maxTurns; turn++ {
		reply, err := a.provider.Chat(ctx, a.system, history, tools)
		if err != nil {
			return "", history, fmt.Errorf("agent: provider turn %d: %w", turn+1, err)
		}

		if len(reply.ToolCalls) == 0 {
			history = append(history, domain.ChatMessage{Role: "assistant", Text: reply.Text})
			return reply.Text, history, nil
		}

		a.log().Debug("model requested tools",
			"turn", turn+1,
			"count", len(reply.ToolCalls),
		)

		history = append(history, domain.ChatMessage{
			Role:      "assistant",
			Text:      reply.Text,
			ToolCalls: reply.ToolCalls,
		})

		results := a.executor.ExecuteBatch(ctx, reply.ToolCalls)
		history = append(history, domain.ChatMessage{
			Role:        "user",
			ToolResults: results,
		})
	}

	return "", history, fmt.Errorf("agent: no final answer after %d turns", a.maxTurns)
}
