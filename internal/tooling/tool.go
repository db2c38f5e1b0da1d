package tooling

import (
	"context"
	"encoding/json"

	"tripscout/internal/domain"
)

// Tool is a named capability exposed to the LLM. Its input is described by a
// JSON Schema generated from a Go struct via invopop/jsonschema; the executor
// validates arguments against that schema before Call runs, so Call can
// unmarshal into its input struct without re-checking shape.
//
// Call returns any JSON-serializable value on success. Cancellation via ctx is
// best-effort: implementations should pass ctx to outbound I/O but the
// executor does not enforce a deadline of its own.
type Tool interface {
	// Name returns the unique tool name used in function-calling (e.g. "parse_date").
	Name() string
	// Description returns a human-readable description for the LLM.
	Description() string
	// Definition returns the JSON Schema string for the tool's input struct.
	Definition() string
	// Call executes the tool with schema-validated JSON arguments.
	Call(ctx context.Context, args json.RawMessage) (any, error)
}

// DefinitionFor builds the domain.ToolDefinition advertised to the LLM for a
// single tool.
func DefinitionFor(t Tool) domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		InputSchema: json.RawMessage(t.Definition()),
	}
}
