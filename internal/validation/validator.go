package validation

import "github.com/stackflowhq/stackflow/pkg/schema"

// GraphValidator orchestrates the three-stage validation pipeline:
// 1. Structural (JSON Schema)
// 2. Semantic (node configuration, edge endpoint refs, route expressions)
// 3. Graph shape (cycles, orphans)
//
// The pipeline is advisory tooling for the editor and agents; the wizard
// engine itself never consults it.
type GraphValidator struct {
	jsonSchema *JSONSchemaValidator
	routes     RouteChecker
}

// NewGraphValidator creates a GraphValidator.
// routes may be nil to skip route expression compile checks.
func NewGraphValidator(routes RouteChecker) (*GraphValidator, error) {
	jsv, err := NewJSONSchemaValidator()
	if err != nil {
		return nil, err
	}
	return &GraphValidator{
		jsonSchema: jsv,
		routes:     routes,
	}, nil
}

// Validate runs the full 3-stage pipeline and returns an aggregated result.
// Structural errors short-circuit: semantic and graph stages are skipped.
func (gv *GraphValidator) Validate(g *schema.Graph) *schema.ValidationResult {
	if g == nil {
		r := &schema.ValidationResult{}
		r.AddError("/", schema.ErrCodeValidation, "graph is nil")
		return r
	}

	// Stage 1: Structural (JSON Schema).
	result := &schema.ValidationResult{}
	if err := gv.jsonSchema.ValidateGraph(g); err != nil {
		se, ok := err.(*schema.StackError)
		if !ok {
			result.AddError("/", schema.ErrCodeValidation, err.Error())
			return result
		}
		// One issue per schema violation; the summary message only stands
		// in when no violation list is attached (duplicate-id errors).
		if violations, ok := se.Details["violations"].([]string); ok && len(violations) > 0 {
			for _, v := range violations {
				result.AddError("/", se.Code, v)
			}
		} else {
			result.AddError("/", se.Code, se.Message)
		}
		return result
	}

	// Stage 2: Semantic.
	result.Merge(validateSemantic(g, gv.routes))

	// Stage 3: Graph shape (skip if semantic errors — refs may be invalid).
	if result.Valid() {
		result.Merge(validateGraphShape(g))
	}

	return result
}
