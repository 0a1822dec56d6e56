// Package compose provides layout and edge-derivation helpers for
// free-form stack graphs: node lists assembled outside the wizard, with
// arbitrary user-assigned ids, that still want a readable left-to-right
// flow and the standard connection topology.
package compose

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/stackflowhq/stackflow/pkg/schema"
)

// Layout gaps for the layered left-to-right arrangement.
const (
	xStart = 100.0
	yStart = 200.0
	xGap   = 280.0
	yGap   = 150.0
)

// NewNodeID generates a unique id for a free-form node.
func NewNodeID() string {
	return "node_" + uuid.New().String()[:8]
}

// Layout positions nodes into layered columns: data sources, semantic
// models, agents, orchestrators, outputs. Nodes within a layer are
// centered vertically around the midline. Unknown kinds land in the agent
// layer. Returns a new slice in layer order; input nodes are not mutated.
func Layout(nodes []schema.Node) []schema.Node {
	layers := [][]schema.Node{{}, {}, {}, {}, {}}
	for _, n := range nodes {
		layers[layerIndex(n.Kind)] = append(layers[layerIndex(n.Kind)], n)
	}

	positioned := make([]schema.Node, 0, len(nodes))
	x := xStart
	for _, layer := range layers {
		if len(layer) == 0 {
			continue
		}
		total := float64(len(layer)) * yGap
		y := yStart - total/2 + yGap/2
		for i, n := range layer {
			n.Position = schema.Position{X: x, Y: y + float64(i)*yGap}
			positioned = append(positioned, n)
		}
		x += xGap
	}
	return positioned
}

func layerIndex(kind schema.NodeKind) int {
	switch kind {
	case schema.KindDataSource:
		return 0
	case schema.KindSemanticModel:
		return 1
	case schema.KindAgent, schema.KindExternalAgent:
		return 2
	case schema.KindSupervisor, schema.KindRouter:
		return 3
	case schema.KindOutput:
		return 4
	default:
		return 2
	}
}

// DeriveEdges computes the standard connection topology for a free-form
// node list: data sources feed semantic models, semantic models (or data
// sources when there are none) feed the reasoning layer, and the reasoning
// layer fans into outputs. Supervisors collect agents; routers dispatch to
// them with per-route source handles.
func DeriveEdges(nodes []schema.Node) []schema.Edge {
	var dataNodes, semanticNodes, agentNodes, supervisorNodes, routerNodes, outputNodes []schema.Node
	for _, n := range nodes {
		switch n.Kind {
		case schema.KindDataSource:
			dataNodes = append(dataNodes, n)
		case schema.KindSemanticModel:
			semanticNodes = append(semanticNodes, n)
		case schema.KindAgent, schema.KindExternalAgent:
			agentNodes = append(agentNodes, n)
		case schema.KindSupervisor:
			supervisorNodes = append(supervisorNodes, n)
		case schema.KindRouter:
			routerNodes = append(routerNodes, n)
		case schema.KindOutput:
			outputNodes = append(outputNodes, n)
		}
	}

	var edges []schema.Edge
	connect := func(src, dst schema.Node, handle string) {
		edges = append(edges, schema.Edge{
			ID:           fmt.Sprintf("e-%s-%s", src.ID, dst.ID),
			Source:       src.ID,
			Target:       dst.ID,
			SourceHandle: handle,
			Animated:     true,
		})
	}

	for _, d := range dataNodes {
		for _, s := range semanticNodes {
			connect(d, s, "")
		}
	}

	// The reasoning layer hangs off semantic models when present,
	// otherwise directly off the data sources.
	sources := semanticNodes
	if len(sources) == 0 {
		sources = dataNodes
	}

	switch {
	case len(supervisorNodes) > 0:
		// Multi-agent pattern: sources feed the agents, the agents report
		// to the supervisor, the supervisor delivers.
		sup := supervisorNodes[0]
		for _, src := range sources {
			for _, a := range agentNodes {
				connect(src, a, "")
			}
		}
		for _, a := range agentNodes {
			connect(a, sup, "")
		}
		for _, out := range outputNodes {
			connect(sup, out, "")
		}
	case len(routerNodes) > 0:
		router := routerNodes[0]
		for _, src := range sources {
			connect(src, router, "")
		}
		for i, a := range agentNodes {
			connect(router, a, fmt.Sprintf("route-%d", i+1))
		}
		for _, a := range agentNodes {
			for _, out := range outputNodes {
				connect(a, out, "")
			}
		}
	default:
		for _, src := range sources {
			for _, a := range agentNodes {
				connect(src, a, "")
			}
		}
		for _, a := range agentNodes {
			for _, out := range outputNodes {
				connect(a, out, "")
			}
		}
	}

	return edges
}
