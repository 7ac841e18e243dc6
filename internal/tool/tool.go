// Package tool implements the Tool Registry & Base Contract (C4) and the
// five built-in tool implementations (C5). Every tool is declared once
// at startup as a typed Go struct plus an Execute method; parameter
// schemas are reflected from that struct (D1) rather than hand-built,
// so the declared schema, the validator, and the decode target for
// incoming arguments can never drift apart.
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"

	"github.com/dataloomhq/dataloom/internal/chatmodel"
)

// Definition is the registry-facing description of a tool: its wire
// name, the short description sent to the LLM provider, a longer
// description used when assembling the system prompt, and its
// generated parameter schema.
type Definition struct {
	Name              string
	Description       string
	PromptDescription string
	ParameterSchema   map[string]any
}

// Tool is the contract every built-in tool implements. Execute never
// panics and never returns a Go error to its caller - failures are
// reported through the ToolOutput failure variant so a bad tool call
// degrades the conversation, not the process.
type Tool interface {
	Definition() Definition
	Execute(ctx context.Context, rc *chatmodel.Context, args map[string]any) chatmodel.ToolOutput
}

// generateSchema reflects a JSON schema from a Go struct's json/jsonschema
// tags, inlining everything (no $ref) since the result is embedded
// directly into a provider's tools[].function.parameters field.
func generateSchema[T any]() map[string]any {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(new(T))

	data, err := json.Marshal(schema)
	if err != nil {
		// Reflection over a concrete struct literal cannot fail at
		// runtime in a way json.Marshal would reject; if it ever does,
		// fail loudly at startup rather than silently shipping a
		// broken tool declaration.
		panic(fmt.Sprintf("tool: failed to marshal generated schema: %v", err))
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("tool: failed to decode generated schema: %v", err))
	}
	delete(out, "$schema")
	delete(out, "$id")

	return out
}

// decodeArgs decodes a raw arguments map into a typed parameter struct,
// matching fields by their json tag and tolerating loosely-typed input
// from the LLM (e.g. a numeric string for an int field).
func decodeArgs(args map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("tool: failed to build argument decoder: %w", err)
	}
	return decoder.Decode(args)
}
