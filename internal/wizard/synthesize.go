package wizard

import "github.com/stackflowhq/stackflow/pkg/schema"

// Overrides carries caller-supplied per-node field overrides, keyed by
// canonical node id. Values land in the node's data map, except the
// reserved "position" key which moves the node instead.
type Overrides map[string]map[string]any

// positionOverrideKey is the reserved override field that relocates a node.
const positionOverrideKey = "position"

// Literal field defaults per managed node. The config holder's embedded
// configuration is applied after these (see embedConfig).
var (
	dataDefaults = map[string]any{
		"label":      "",
		"database":   "",
		"schema":     "",
		"objectType": "table",
		"columns":    "",
		"filter":     "",
		"orderBy":    "",
		"limit":      100,
	}
	semanticDefaults = map[string]any{
		"database":     "",
		"schema":       "",
		"stage":        "",
		"yamlFile":     "",
		"semanticPath": "",
	}
	agentDefaults = map[string]any{
		"label":        "Agent",
		"model":        "llama3.1-70b",
		"instructions": "",
	}
	supervisorDefaults = map[string]any{
		"label":          "Supervisor",
		"model":          "llama3.1-70b",
		"systemPrompt":   "",
		"maxDelegations": 5,
	}
	specialistADefaults = map[string]any{
		"label":        "Specialist A",
		"model":        "llama3.1-70b",
		"instructions": "",
	}
	specialistBDefaults = map[string]any{
		"label":        "Specialist B",
		"model":        "llama3.1-70b",
		"instructions": "",
	}
	routerDefaults = map[string]any{
		"label": "Router",
		"routes": []any{
			map[string]any{"label": "Route A", "keywords": ""},
			map[string]any{"label": "Route B", "keywords": ""},
		},
	}
	routeADefaults = map[string]any{
		"label":        "Route Agent A",
		"model":        "llama3.1-70b",
		"instructions": "",
	}
	routeBDefaults = map[string]any{
		"label":        "Route Agent B",
		"model":        "llama3.1-70b",
		"instructions": "",
	}
	externalDefaults = map[string]any{
		"label":     "External Agent",
		"agentType": "rest",
		"endpoint":  "",
		"method":    "POST",
		"auth":      "none",
	}
	outputDefaults = map[string]any{
		"label":      "Results",
		"outputType": "display",
	}
)

// Synthesize computes the full desired graph for a configuration and
// merges it into the caller's current graph. Pure and deterministic:
// called twice with identical arguments it returns identical output.
//
// Managed nodes are re-derived each call (defaults, then prior data, then
// overrides); their positions are fixed at creation and preserved across
// later calls. Non-managed nodes and edges pass through verbatim. Stale
// managed entities — steps undone, orchestration variants abandoned — are
// purged in the same pass.
func Synthesize(existingNodes []schema.Node, existingEdges []schema.Edge, cfg schema.StackConfig, overrides Overrides) ([]schema.Node, []schema.Edge) {
	prior := make(map[string]schema.Node, len(existingNodes))
	for _, n := range existingNodes {
		if IsManagedNodeID(n.ID) {
			prior[n.ID] = n
		}
	}

	b := &builder{prior: prior, overrides: overrides}

	// Step 1: data source.
	if cfg.Progress >= 1 {
		b.node(NodeData, schema.KindDataSource, dataDefaults)
	}

	// Step 2: semantic layer, only when the user opted in.
	hasSemantic := cfg.Progress >= 2 && cfg.UseSemantic
	if hasSemantic {
		b.node(NodeSemantic, schema.KindSemanticModel, semanticDefaults)
		b.edge(NodeData, NodeSemantic, "")
	}

	// Step 3: exactly one orchestration variant. The reasoning layer hangs
	// off the semantic node when present, otherwise directly off the data node.
	upstream := NodeData
	if hasSemantic {
		upstream = NodeSemantic
	}
	if cfg.Progress >= 3 {
		switch cfg.Orchestration {
		case schema.OrchestrationSupervisor:
			b.node(NodeSupervisor, schema.KindSupervisor, supervisorDefaults)
			b.node(NodeAgentA, schema.KindAgent, specialistADefaults)
			b.node(NodeAgentB, schema.KindAgent, specialistBDefaults)
			b.edge(upstream, NodeSupervisor, "")
			b.edge(NodeSupervisor, NodeAgentA, "")
			b.edge(NodeSupervisor, NodeAgentB, "")
		case schema.OrchestrationRouter:
			b.node(NodeRouter, schema.KindRouter, routerDefaults)
			b.node(NodeRouteA, schema.KindAgent, routeADefaults)
			b.node(NodeRouteB, schema.KindAgent, routeBDefaults)
			b.edge(upstream, NodeRouter, "")
			b.edge(NodeRouter, NodeRouteA, "route-1")
			b.edge(NodeRouter, NodeRouteB, "route-2")
		case schema.OrchestrationExternal:
			b.node(NodeExternal, schema.KindExternalAgent, externalDefaults)
			b.edge(upstream, NodeExternal, "")
		default:
			b.node(NodeAgent, schema.KindAgent, agentDefaults)
			b.edge(upstream, NodeAgent, "")
		}
	}

	// Step 4: output plus the orchestration-to-output fan-in.
	if cfg.Progress >= schema.MaxProgress {
		b.outputNode(cfg)
		switch cfg.Orchestration {
		case schema.OrchestrationSupervisor:
			b.edge(NodeAgentA, NodeOutput, "")
			b.edge(NodeAgentB, NodeOutput, "")
		case schema.OrchestrationRouter:
			b.edge(NodeRouteA, NodeOutput, "")
			b.edge(NodeRouteB, NodeOutput, "")
		case schema.OrchestrationExternal:
			b.edge(NodeExternal, NodeOutput, "")
		default:
			b.edge(NodeAgent, NodeOutput, "")
		}
	}

	// Mid-flight the data node carries the configuration; at step 4 the
	// output node took it over inside outputNode.
	if holderID(cfg.Progress) == NodeData {
		for i := range b.nodes {
			if b.nodes[i].ID == NodeData {
				embedConfig(&b.nodes[i], cfg)
				break
			}
		}
	}

	return reconcile(existingNodes, existingEdges, b.nodes, b.edges)
}

// builder accumulates the desired managed subgraph in canonical order.
type builder struct {
	prior     map[string]schema.Node
	overrides Overrides
	nodes     []schema.Node
	edges     []schema.Edge
}

// node emits a managed node: defaults under prior data under overrides,
// position taken from the prior node when it exists, from the layout slot
// otherwise, and from the reserved position override when supplied.
func (b *builder) node(id string, kind schema.NodeKind, defaults map[string]any) {
	priorData, pos := b.priorState(id)
	ov := b.dataOverrides(id)
	b.nodes = append(b.nodes, schema.Node{
		ID:       id,
		Kind:     kind,
		Position: pos,
		Data:     mergeData(defaults, priorData, ov),
	})
}

// outputNode emits the output node with its inverted merge order (prior
// first, literal defaults re-pinned on top) and embeds the current
// configuration last so it always wins.
func (b *builder) outputNode(cfg schema.StackConfig) {
	priorData, pos := b.priorState(NodeOutput)
	ov := b.dataOverrides(NodeOutput)
	n := schema.Node{
		ID:       NodeOutput,
		Kind:     schema.KindOutput,
		Position: pos,
		Data:     mergePriorUnderDefaults(priorData, outputDefaults, ov),
	}
	embedConfig(&n, cfg)
	b.nodes = append(b.nodes, n)
}

func (b *builder) edge(source, target, sourceHandle string) {
	b.edges = append(b.edges, managedEdge(source, target, sourceHandle))
}

func (b *builder) priorState(id string) (map[string]any, schema.Position) {
	pos := layoutSlot(id)
	var priorData map[string]any
	if p, ok := b.prior[id]; ok {
		priorData = p.Data
		pos = p.Position
	}
	if override, ok := b.positionOverride(id); ok {
		pos = override
	}
	return priorData, pos
}

// dataOverrides returns the caller overrides destined for the data map,
// with the reserved position key stripped.
func (b *builder) dataOverrides(id string) map[string]any {
	ov := b.overrides[id]
	if ov == nil {
		return nil
	}
	if _, has := ov[positionOverrideKey]; !has {
		return ov
	}
	out := make(map[string]any, len(ov)-1)
	for k, v := range ov {
		if k != positionOverrideKey {
			out[k] = v
		}
	}
	return out
}

func (b *builder) positionOverride(id string) (schema.Position, bool) {
	ov := b.overrides[id]
	if ov == nil {
		return schema.Position{}, false
	}
	switch p := ov[positionOverrideKey].(type) {
	case schema.Position:
		return p, true
	case map[string]any:
		x, xok := asFloat(p["x"])
		y, yok := asFloat(p["y"])
		if xok && yok {
			return schema.Position{X: x, Y: y}, true
		}
	}
	return schema.Position{}, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
