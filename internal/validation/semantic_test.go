package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackflowhq/stackflow/pkg/schema"
)

// stubRouteChecker records evaluated expressions and returns a fixed error.
type stubRouteChecker struct {
	err   error
	calls []string
}

func (s *stubRouteChecker) Evaluate(_ context.Context, expression string, _ map[string]any) (any, error) {
	s.calls = append(s.calls, expression)
	if s.err != nil {
		return nil, s.err
	}
	return true, nil
}

func issueCodes(issues []schema.ValidationIssue) []string {
	codes := make([]string, len(issues))
	for i, iss := range issues {
		codes[i] = iss.Code
	}
	return codes
}

func TestSemantic_CompleteGraphClean(t *testing.T) {
	r := validateSemantic(completeGraph(), nil)
	assert.True(t, r.Valid())
	assert.Empty(t, r.Warnings)
}

func TestSemantic_RequiredKinds(t *testing.T) {
	r := validateSemantic(&schema.Graph{Nodes: []schema.Node{}, Edges: []schema.Edge{}}, nil)
	codes := issueCodes(r.Errors)
	assert.Contains(t, codes, codeNoDataSource)
	assert.Contains(t, codes, codeNoAgent)
	assert.Contains(t, codes, codeNoOutput)
}

func TestSemantic_ExternalAgentCountsAsAgent(t *testing.T) {
	g := &schema.Graph{
		Nodes: []schema.Node{{
			ID: "ext", Kind: schema.KindExternalAgent,
			Data: map[string]any{"endpoint": "https://api.example.com", "auth": "bearer"},
		}},
		Edges: []schema.Edge{},
	}
	r := validateSemantic(g, nil)
	assert.NotContains(t, issueCodes(r.Errors), codeNoAgent)
}

func TestSemantic_IncompleteDataSource(t *testing.T) {
	g := completeGraph()
	delete(g.Nodes[0].Data, "schema")

	r := validateSemantic(g, nil)
	require.False(t, r.Valid())
	assert.Contains(t, issueCodes(r.Errors), codeIncompleteDataSource)
	assert.Equal(t, "src", r.Errors[0].NodeID)
}

func TestSemantic_SemanticModelPath(t *testing.T) {
	sem := func(data map[string]any) *schema.Graph {
		g := completeGraph()
		g.Nodes = append(g.Nodes, schema.Node{ID: "sem", Kind: schema.KindSemanticModel, Data: data})
		g.Edges = append(g.Edges, schema.Edge{ID: "e-sem", Source: "src", Target: "sem"})
		return g
	}

	r := validateSemantic(sem(map[string]any{}), nil)
	assert.Contains(t, issueCodes(r.Errors), codeNoSemanticPath)

	r = validateSemantic(sem(map[string]any{"semanticPath": "models/revenue.txt"}), nil)
	assert.True(t, r.Valid())
	assert.Contains(t, issueCodes(r.Warnings), codeSemanticPathFormat)

	// yamlFile is accepted as a fallback key.
	r = validateSemantic(sem(map[string]any{"yamlFile": "models/revenue.yaml"}), nil)
	assert.True(t, r.Valid())
	assert.Empty(t, r.Warnings)
}

func TestSemantic_AgentWithoutModelWarns(t *testing.T) {
	g := completeGraph()
	delete(g.Nodes[1].Data, "model")

	r := validateSemantic(g, nil)
	assert.True(t, r.Valid())
	assert.Contains(t, issueCodes(r.Warnings), codeNoModelSelected)
}

func TestSemantic_AgentNoDataInput(t *testing.T) {
	g := completeGraph()
	// Cut the agent loose from its upstream.
	g.Edges = []schema.Edge{{ID: "e2", Source: "a1", Target: "out"}}

	r := validateSemantic(g, nil)
	assert.Contains(t, issueCodes(r.Warnings), codeAgentNoDataInput)

	// A lone agent is not flagged.
	lone := &schema.Graph{
		Nodes: []schema.Node{{ID: "a1", Kind: schema.KindAgent, Data: map[string]any{"model": "claude-sonnet"}}},
		Edges: []schema.Edge{},
	}
	r = validateSemantic(lone, nil)
	assert.NotContains(t, issueCodes(r.Warnings), codeAgentNoDataInput)
}

func TestSemantic_ExternalAgentEndpointAndAuth(t *testing.T) {
	ext := func(data map[string]any) *schema.Graph {
		return &schema.Graph{
			Nodes: []schema.Node{{ID: "ext", Kind: schema.KindExternalAgent, Data: data}},
			Edges: []schema.Edge{},
		}
	}

	r := validateSemantic(ext(map[string]any{}), nil)
	assert.Contains(t, issueCodes(r.Errors), codeMissingEndpoint)
	assert.Contains(t, issueCodes(r.Warnings), codeNoAuthentication)

	r = validateSemantic(ext(map[string]any{"endpoint": "https://api.example.com", "auth": "none"}), nil)
	assert.NotContains(t, issueCodes(r.Errors), codeMissingEndpoint)
	assert.Contains(t, issueCodes(r.Warnings), codeNoAuthentication)

	r = validateSemantic(ext(map[string]any{"endpoint": "https://api.example.com", "auth": "bearer"}), nil)
	assert.NotContains(t, issueCodes(r.Warnings), codeNoAuthentication)
}

func TestSemantic_RouterNoRoutes(t *testing.T) {
	g := completeGraph()
	g.Nodes = append(g.Nodes, schema.Node{ID: "r", Kind: schema.KindRouter, Data: map[string]any{}})
	g.Edges = append(g.Edges, schema.Edge{ID: "e-r", Source: "src", Target: "r"})

	r := validateSemantic(g, nil)
	assert.Contains(t, issueCodes(r.Errors), codeNoRoutes)
}

func TestSemantic_RouterMatchExpressions(t *testing.T) {
	withRoutes := func(routes []any) *schema.Graph {
		g := completeGraph()
		g.Nodes = append(g.Nodes, schema.Node{ID: "r", Kind: schema.KindRouter,
			Data: map[string]any{"routes": routes}})
		g.Edges = append(g.Edges, schema.Edge{ID: "e-r", Source: "src", Target: "r"})
		return g
	}
	routes := []any{
		map[string]any{"label": "Route A", "match": `message.contains("sales")`},
		map[string]any{"label": "Route B"}, // keyword-only, no expression
	}

	// nil checker: routes present, compile checks skipped.
	r := validateSemantic(withRoutes(routes), nil)
	assert.True(t, r.Valid())

	checker := &stubRouteChecker{}
	r = validateSemantic(withRoutes(routes), checker)
	assert.True(t, r.Valid())
	assert.Equal(t, []string{`message.contains("sales")`}, checker.calls)

	broken := &stubRouteChecker{err: errors.New("unexpected token")}
	r = validateSemantic(withRoutes(routes), broken)
	require.False(t, r.Valid())
	assert.Contains(t, issueCodes(r.Errors), codeBadRouteMatch)
	assert.Contains(t, r.Errors[0].Message, "route 0")
}

func TestSemantic_OutputDisconnected(t *testing.T) {
	g := completeGraph()
	g.Edges = []schema.Edge{{ID: "e1", Source: "src", Target: "a1"}}

	r := validateSemantic(g, nil)
	assert.Contains(t, issueCodes(r.Errors), codeOutputDisconnected)
}

func TestSemantic_UnknownEdgeEndpoints(t *testing.T) {
	g := completeGraph()
	g.Edges = append(g.Edges, schema.Edge{ID: "e-ghost", Source: "ghost", Target: "phantom"})

	r := validateSemantic(g, nil)
	codes := issueCodes(r.Errors)
	require.Len(t, codes, 2)
	assert.Equal(t, codeUnknownEdgeEndpoint, codes[0])
	assert.Equal(t, codeUnknownEdgeEndpoint, codes[1])
	assert.Contains(t, r.Errors[0].Message, `"ghost"`)
	assert.Contains(t, r.Errors[1].Message, `"phantom"`)
}
