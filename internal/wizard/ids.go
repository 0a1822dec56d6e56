package wizard

import (
	"strings"

	"github.com/stackflowhq/stackflow/pkg/schema"
)

// Canonical managed node ids. These are the wizard's ownership marks: a
// node carrying one of these ids is created, recomputed, and retired by
// the engine. Every other id is user territory and never touched.
const (
	NodeData       = "data"
	NodeSemantic   = "semantic"
	NodeAgent      = "agent"
	NodeSupervisor = "supervisor"
	NodeAgentA     = "agent-a"
	NodeAgentB     = "agent-b"
	NodeRouter     = "router"
	NodeRouteA     = "route-a"
	NodeRouteB     = "route-b"
	NodeExternal   = "external"
	NodeOutput     = "output"
)

// EdgeIDPrefix marks wizard-owned edges. Ownership is by naming
// convention: a user-authored edge whose id happens to share this prefix
// will be swept on the next reconciliation. Known hazard, kept as-is.
const EdgeIDPrefix = "e-gs-"

// managedNodeIDs is the fixed ownership set across all orchestration variants.
var managedNodeIDs = map[string]bool{
	NodeData:       true,
	NodeSemantic:   true,
	NodeAgent:      true,
	NodeSupervisor: true,
	NodeAgentA:     true,
	NodeAgentB:     true,
	NodeRouter:     true,
	NodeRouteA:     true,
	NodeRouteB:     true,
	NodeExternal:   true,
	NodeOutput:     true,
}

// IsManagedNodeID reports whether id belongs to the canonical managed set.
func IsManagedNodeID(id string) bool {
	return managedNodeIDs[id]
}

// IsManagedEdgeID reports whether id matches the managed-edge naming convention.
func IsManagedEdgeID(id string) bool {
	return strings.HasPrefix(id, EdgeIDPrefix)
}

// edgeID builds the canonical id for a managed edge between two managed nodes.
func edgeID(source, target string) string {
	return EdgeIDPrefix + source + "-" + target
}

// managedEdge builds a wizard-owned edge. Managed edges are always animated,
// matching the look of generated flows.
func managedEdge(source, target, sourceHandle string) schema.Edge {
	return schema.Edge{
		ID:           edgeID(source, target),
		Source:       source,
		Target:       target,
		SourceHandle: sourceHandle,
		Animated:     true,
	}
}
