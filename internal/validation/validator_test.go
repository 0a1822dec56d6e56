package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackflowhq/stackflow/pkg/schema"
)

// completeGraph returns a minimal graph that passes all three stages:
// a configured data source feeding an agent feeding an output.
func completeGraph() *schema.Graph {
	return &schema.Graph{
		Name: "analytics",
		Nodes: []schema.Node{
			{ID: "src", Kind: schema.KindDataSource,
				Data: map[string]any{"database": "SALES", "schema": "PUBLIC"}},
			{ID: "a1", Kind: schema.KindAgent,
				Data: map[string]any{"model": "claude-sonnet"}},
			{ID: "out", Kind: schema.KindOutput,
				Data: map[string]any{"label": "Results", "outputType": "display"}},
		},
		Edges: []schema.Edge{
			{ID: "e1", Source: "src", Target: "a1"},
			{ID: "e2", Source: "a1", Target: "out"},
		},
	}
}

func TestGraphValidator_NilGraph(t *testing.T) {
	gv, err := NewGraphValidator(nil)
	require.NoError(t, err)

	r := gv.Validate(nil)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, "graph is nil", r.Errors[0].Message)
}

func TestGraphValidator_ValidGraph(t *testing.T) {
	gv, err := NewGraphValidator(nil)
	require.NoError(t, err)

	r := gv.Validate(completeGraph())
	assert.True(t, r.Valid())
	assert.Empty(t, r.Warnings)
}

func TestGraphValidator_StructuralShortCircuit(t *testing.T) {
	gv, err := NewGraphValidator(nil)
	require.NoError(t, err)

	// Duplicate ids fail stage 1; the missing output must NOT be reported.
	g := &schema.Graph{
		Nodes: []schema.Node{
			{ID: "a", Kind: schema.KindAgent},
			{ID: "a", Kind: schema.KindAgent},
		},
		Edges: []schema.Edge{},
	}
	r := gv.Validate(g)
	require.False(t, r.Valid())
	assert.NotContains(t, issueCodes(r.Errors), codeNoOutput)
	for _, e := range r.Errors {
		assert.Equal(t, schema.ErrCodeValidation, e.Code)
	}
}

func TestGraphValidator_StructuralViolationsFlattened(t *testing.T) {
	gv, err := NewGraphValidator(nil)
	require.NoError(t, err)

	g := &schema.Graph{
		Nodes: []schema.Node{{ID: "", Kind: schema.NodeKind("")}},
		Edges: []schema.Edge{{ID: "", Source: "", Target: ""}},
	}
	r := gv.Validate(g)
	require.False(t, r.Valid())
	// One issue per schema violation, not a single opaque blob.
	assert.Greater(t, len(r.Errors), 1)
}

func TestGraphValidator_ReportsEveryStructuralViolation(t *testing.T) {
	gv, err := NewGraphValidator(nil)
	require.NoError(t, err)

	// Exactly two violations at known locations: both must surface,
	// including the first one.
	g := &schema.Graph{
		Nodes: []schema.Node{{ID: "", Kind: schema.KindAgent}},
		Edges: []schema.Edge{{ID: "e1", Source: "", Target: "a"}},
	}
	r := gv.Validate(g)
	require.False(t, r.Valid())

	var messages []string
	for _, e := range r.Errors {
		messages = append(messages, e.Message)
	}
	assertAnyContains(t, messages, "/nodes/0")
	assertAnyContains(t, messages, "/edges/0")
}

func assertAnyContains(t *testing.T, messages []string, want string) {
	t.Helper()
	for _, m := range messages {
		if strings.Contains(m, want) {
			return
		}
	}
	t.Errorf("no error message mentions %q: %v", want, messages)
}

func TestGraphValidator_SemanticErrorsSkipShape(t *testing.T) {
	gv, err := NewGraphValidator(nil)
	require.NoError(t, err)

	// Structurally fine, semantically incomplete, and cyclic. The cycle
	// must stay unreported while semantic errors are outstanding.
	g := &schema.Graph{
		Nodes: []schema.Node{
			{ID: "a", Kind: schema.KindAgent},
			{ID: "b", Kind: schema.KindAgent},
		},
		Edges: []schema.Edge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "b", Target: "a"},
		},
	}
	r := gv.Validate(g)
	require.False(t, r.Valid())
	codes := issueCodes(r.Errors)
	assert.Contains(t, codes, codeNoDataSource)
	assert.NotContains(t, codes, schema.ErrCodeCycleDetected)
}

func TestGraphValidator_CycleReachesShapeStage(t *testing.T) {
	gv, err := NewGraphValidator(nil)
	require.NoError(t, err)

	g := completeGraph()
	g.Edges = append(g.Edges, schema.Edge{ID: "e3", Source: "out", Target: "src"})

	r := gv.Validate(g)
	require.False(t, r.Valid())
	assert.Contains(t, issueCodes(r.Errors), schema.ErrCodeCycleDetected)
}

func TestGraphValidator_RouteCheckerWired(t *testing.T) {
	checker := &stubRouteChecker{err: errors.New("bad syntax")}
	gv, err := NewGraphValidator(checker)
	require.NoError(t, err)

	g := completeGraph()
	g.Nodes = append(g.Nodes, schema.Node{
		ID: "r", Kind: schema.KindRouter,
		Data: map[string]any{"routes": []any{
			map[string]any{"label": "Route A", "match": "message.contains("},
		}},
	})
	g.Edges = append(g.Edges, schema.Edge{ID: "e-r", Source: "src", Target: "r"})

	r := gv.Validate(g)
	require.False(t, r.Valid())
	assert.Contains(t, issueCodes(r.Errors), codeBadRouteMatch)
	assert.Equal(t, []string{"message.contains("}, checker.calls)
}
