package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stackflowhq/stackflow/internal/compose"
	"github.com/stackflowhq/stackflow/internal/wizard"
	"github.com/stackflowhq/stackflow/pkg/schema"
)

// handleEnter opens a stack in the wizard.
func (s *StackflowServer) handleEnter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stack, err := req.RequireString("stack")
	if err != nil {
		return mcp.NewToolResultError("stack is required"), nil
	}

	result, enterErr := s.wizard.Enter(ctx, stack)
	if enterErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("enter failed: %v", enterErr)), nil
	}

	return marshalResult(result)
}

// handleResolve settles a pending preexisting-workflow decision.
func (s *StackflowServer) handleResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stack, err := req.RequireString("stack")
	if err != nil {
		return mcp.NewToolResultError("stack is required"), nil
	}
	choice, err := req.RequireString("choice")
	if err != nil {
		return mcp.NewToolResultError("choice is required"), nil
	}

	if resolveErr := s.wizard.Resolve(ctx, stack, wizard.Choice(choice)); resolveErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolve failed: %v", resolveErr)), nil
	}

	return marshalResult(map[string]any{
		"ok":     true,
		"stack":  stack,
		"choice": choice,
	})
}

// handleApply synthesizes and commits the graph for a configuration.
func (s *StackflowServer) handleApply(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stack, err := req.RequireString("stack")
	if err != nil {
		return mcp.NewToolResultError("stack is required"), nil
	}

	configRaw := mcp.ParseStringMap(req, "config", nil)
	if configRaw == nil {
		return mcp.NewToolResultError("config is required"), nil
	}

	cfg, cfgErr := decodeConfig(configRaw)
	if cfgErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid config: %v", cfgErr)), nil
	}

	overrides := decodeOverrides(mcp.ParseStringMap(req, "overrides", nil))

	graph, applyErr := s.wizard.Apply(ctx, stack, cfg, overrides)
	if applyErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("apply failed: %v", applyErr)), nil
	}

	return marshalResult(graph)
}

// handleGet fetches a stored stack with its recoverable configuration.
func (s *StackflowServer) handleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stack, err := req.RequireString("stack")
	if err != nil {
		return mcp.NewToolResultError("stack is required"), nil
	}

	st, getErr := s.store.GetStack(ctx, stack)
	if getErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stack lookup failed: %v", getErr)), nil
	}

	return marshalResult(map[string]any{
		"graph":  st.Graph(),
		"config": wizard.ExtractConfig(st.Nodes),
	})
}

// handleValidate runs the validation pipeline over a stored or inline graph.
func (s *StackflowServer) handleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stack := req.GetString("stack", "")
	graphRaw := mcp.ParseStringMap(req, "graph", nil)

	if stack == "" && graphRaw == nil {
		return mcp.NewToolResultError("one of stack or graph is required"), nil
	}

	var g schema.Graph
	switch {
	case graphRaw != nil:
		if err := decodeGraph(graphRaw, &g); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid graph: %v", err)), nil
		}
	default:
		st, getErr := s.store.GetStack(ctx, stack)
		if getErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("stack lookup failed: %v", getErr)), nil
		}
		g = st.Graph()
	}

	result := s.validator.Validate(&g)
	return marshalResult(map[string]any{
		"valid":    result.Valid(),
		"errors":   result.Errors,
		"warnings": result.Warnings,
	})
}

// handleCompose lays out a free-form node list and derives its edges.
func (s *StackflowServer) handleCompose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graphRaw := mcp.ParseStringMap(req, "graph", nil)
	if graphRaw == nil {
		return mcp.NewToolResultError("graph is required"), nil
	}

	var g schema.Graph
	if err := decodeGraph(graphRaw, &g); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid graph: %v", err)), nil
	}

	// Assign ids to nodes that arrived without one.
	for i := range g.Nodes {
		if g.Nodes[i].ID == "" {
			g.Nodes[i].ID = compose.NewNodeID()
		}
	}

	nodes := compose.Layout(g.Nodes)
	edges := compose.DeriveEdges(nodes)

	return marshalResult(schema.Graph{Name: g.Name, Nodes: nodes, Edges: edges})
}

// handleQuery evaluates a jq expression against a stored stack's graph document.
func (s *StackflowServer) handleQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stack, err := req.RequireString("stack")
	if err != nil {
		return mcp.NewToolResultError("stack is required"), nil
	}
	expression, err := req.RequireString("expression")
	if err != nil {
		return mcp.NewToolResultError("expression is required"), nil
	}

	st, getErr := s.store.GetStack(ctx, stack)
	if getErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stack lookup failed: %v", getErr)), nil
	}

	doc, docErr := graphDocument(st.Graph())
	if docErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build graph document: %v", docErr)), nil
	}

	results, queryErr := s.queries.EvaluateAll(ctx, expression, doc)
	if queryErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", queryErr)), nil
	}

	return marshalResult(map[string]any{"results": results})
}

// --- Internal helpers ---

// decodeConfig converts a raw tool-argument map to a StackConfig.
// A missing version defaults to the current one so agents don't have to send it.
func decodeConfig(raw map[string]any) (schema.StackConfig, error) {
	if _, ok := raw["version"]; !ok {
		raw["version"] = schema.ConfigVersion
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return schema.StackConfig{}, err
	}

	cfg := schema.DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return schema.StackConfig{}, err
	}

	if !cfg.Orchestration.Valid() {
		return schema.StackConfig{}, fmt.Errorf("unknown orchestration %q", cfg.Orchestration)
	}
	if !cfg.Channel.Valid() {
		return schema.StackConfig{}, fmt.Errorf("unknown channel %q", cfg.Channel)
	}
	if cfg.Progress < 0 || cfg.Progress > schema.MaxProgress {
		return schema.StackConfig{}, fmt.Errorf("progress must be between 0 and %d", schema.MaxProgress)
	}

	return cfg, nil
}

// decodeOverrides converts a raw tool-argument map to wizard overrides,
// keeping only entries whose value is itself an object.
func decodeOverrides(raw map[string]any) wizard.Overrides {
	if raw == nil {
		return nil
	}
	overrides := make(wizard.Overrides, len(raw))
	for nodeID, v := range raw {
		if entry, ok := v.(map[string]any); ok {
			overrides[nodeID] = entry
		}
	}
	return overrides
}

// decodeGraph converts a raw tool-argument map to a Graph via JSON round-trip.
func decodeGraph(raw map[string]any, g *schema.Graph) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, g)
}

// graphDocument serializes a graph to the plain map form jq operates on.
func graphDocument(g schema.Graph) (map[string]any, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
