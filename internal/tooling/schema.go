package tooling

import (
	"encoding/json"
	"fmt"

	invopopSchema "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// GenerateSchema reflects a JSON Schema string from a tool's input struct.
// Additional properties are rejected and definitions are inlined so the
// schema is self-contained for the LLM function-calling API.
func GenerateSchema(input any) string {
	reflector := invopopSchema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(input)

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return ""
	}
	return string(out)
}

// ValidateAgainstSchema checks raw JSON arguments against a JSON Schema
// string. A nil/empty input is validated as an empty object so that tools
// without required fields accept an omitted arguments block.
func ValidateAgainstSchema(input json.RawMessage, schemaStr string) error {
	schema, err := jsonschema.CompileString("", schemaStr)
	if err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}

	var inputData any
	if err := json.Unmarshal(input, &inputData); err != nil {
		return fmt.Errorf("invalid JSON input: %w", err)
	}

	if err := schema.Validate(inputData); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}
