package tooling

import (
	"errors"
	"fmt"

	"tripscout/internal/domain"
)

// Sentinel errors for registration failures. A duplicate registration is a
// programming error and callers treat it as fatal at startup.
var (
	ErrNilTool   = errors.New("registry: tool must not be nil")
	ErrEmptyName = errors.New("registry: tool name must not be empty")
	ErrDuplicate = errors.New("registry: tool already registered")
)

// Registry maps tool names to Tool implementations. It is populated once at
// startup, single-threaded, before any dispatch occurs; registration must
// complete before the registry is shared with concurrent callers. Insertion
// order is preserved so the tool list advertised to the LLM is deterministic.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry returns an empty, ready-to-use registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool under its name. It never silently replaces: a second
// registration of the same name fails with ErrDuplicate, since overwriting
// would hide two tools accidentally declared with the same name.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return ErrNilTool
	}
	name := tool.Name()
	if name == "" {
		return ErrEmptyName
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// MustRegister registers each tool in turn and panics on the first failure.
// Intended for process startup where a registration error is fatal.
func (r *Registry) MustRegister(tools ...Tool) {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

// Get returns the tool with the given name. Callers are expected to check the
// second return value; a missing name is a normal condition, not a panic.
func (r *Registry) Get(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// GetAll returns every registered tool in registration order.
func (r *Registry) GetAll() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Definitions returns a domain.ToolDefinition for every registered tool, in
// registration order, ready for the LLM function-calling request.
func (r *Registry) Definitions() []domain.ToolDefinition {
	out := make([]domain.ToolDefinition, 0, len(r.tools))
	for _, name := range r.order {
		out = append(out, DefinitionFor(r.tools[name]))
	}
	return out
}
