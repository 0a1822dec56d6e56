package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/stackflowhq/stackflow/pkg/schema"
)

// graphSchemaJSON is the JSON Schema for stack graph documents.
// Embedded as a constant to avoid filesystem dependencies.
const graphSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://stackflow.dev/schemas/graph.json",
  "type": "object",
  "required": ["nodes", "edges"],
  "properties": {
    "name": { "type": "string" },
    "nodes": {
      "type": "array",
      "items": { "$ref": "#/$defs/node" }
    },
    "edges": {
      "type": "array",
      "items": { "$ref": "#/$defs/edge" }
    }
  },
  "additionalProperties": false,
  "$defs": {
    "node": {
      "type": "object",
      "required": ["id", "type", "position"],
      "properties": {
        "id": {
          "type": "string",
          "minLength": 1
        },
        "type": {
          "type": "string",
          "minLength": 1
        },
        "position": {
          "type": "object",
          "required": ["x", "y"],
          "properties": {
            "x": { "type": "number" },
            "y": { "type": "number" }
          },
          "additionalProperties": false
        },
        "data": {
          "type": "object",
          "properties": {
            "guidedStackConfig": { "$ref": "#/$defs/config" }
          }
        }
      },
      "additionalProperties": false
    },
    "edge": {
      "type": "object",
      "required": ["id", "source", "target"],
      "properties": {
        "id": {
          "type": "string",
          "minLength": 1
        },
        "source": {
          "type": "string",
          "minLength": 1
        },
        "target": {
          "type": "string",
          "minLength": 1
        },
        "sourceHandle": { "type": "string" },
        "animated": { "type": "boolean" },
        "style": { "type": "object" }
      },
      "additionalProperties": false
    },
    "config": {
      "type": "object",
      "required": ["version"],
      "properties": {
        "version": { "const": 1 },
        "useSemantic": { "type": "boolean" },
        "orchestration": {
          "type": "string",
          "enum": ["single", "supervisor", "router", "external"]
        },
        "channel": {
          "type": "string",
          "enum": ["snowflake_intelligence", "api", "slack", "teams"]
        },
        "progress": {
          "type": "integer",
          "minimum": 0,
          "maximum": 4
        }
      },
      "additionalProperties": false
    }
  }
}`

// JSONSchemaValidator validates graph documents against the embedded
// JSON Schema Draft 2020-12. It is safe for concurrent use.
type JSONSchemaValidator struct {
	graphSchema *jsonschema.Schema
}

// NewJSONSchemaValidator creates a new JSONSchemaValidator with the graph schema pre-compiled.
func NewJSONSchemaValidator() (*JSONSchemaValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(graphSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal graph schema: %w", err)
	}
	if err := c.AddResource("https://stackflow.dev/schemas/graph.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("add graph schema resource: %w", err)
	}

	gs, err := c.Compile("https://stackflow.dev/schemas/graph.json")
	if err != nil {
		return nil, fmt.Errorf("compile graph schema: %w", err)
	}

	return &JSONSchemaValidator{graphSchema: gs}, nil
}

// ValidateGraph validates a graph document against the graph JSON Schema.
func (v *JSONSchemaValidator) ValidateGraph(g *schema.Graph) error {
	if g == nil {
		return schema.NewError(schema.ErrCodeValidation, "graph is nil")
	}

	doc, err := toJSONValue(g)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize graph").WithCause(err)
	}

	if err := v.graphSchema.Validate(doc); err != nil {
		return toStackError(err)
	}

	// Structural checks JSON Schema cannot express: duplicate ids.
	seenNodes := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, exists := seenNodes[n.ID]; exists {
			return schema.NewErrorf(schema.ErrCodeValidation, "duplicate node id %q", n.ID)
		}
		seenNodes[n.ID] = struct{}{}
	}
	seenEdges := make(map[string]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		if _, exists := seenEdges[e.ID]; exists {
			return schema.NewErrorf(schema.ErrCodeValidation, "duplicate edge id %q", e.ID)
		}
		seenEdges[e.ID] = struct{}{}
	}

	return nil
}

// toJSONValue round-trips a Go value through JSON encoding/decoding so that
// numeric values become json.Number (required by the jsonschema library).
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// toStackError converts a jsonschema.ValidationError into a StackError
// with clear, actionable messages.
func toStackError(err error) *schema.StackError {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}

	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf error
// messages with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
