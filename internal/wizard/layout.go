package wizard

import "github.com/stackflowhq/stackflow/pkg/schema"

// Fixed layout slots for managed nodes: a left-to-right flow with one
// column per wizard step. A node takes its slot when first created and
// keeps whatever position it has from then on.
const (
	layoutXStart = 100.0
	layoutXGap   = 280.0
	layoutYMid   = 200.0
	layoutYUpper = 120.0
	layoutYLower = 280.0
)

var layoutSlots = map[string]schema.Position{
	NodeData:     {X: layoutXStart, Y: layoutYMid},
	NodeSemantic: {X: layoutXStart + layoutXGap, Y: layoutYMid},

	// Orchestration column. Fan-out nodes (specialists, route agents)
	// sit one column further right, split above and below the midline.
	NodeAgent:      {X: layoutXStart + 2*layoutXGap, Y: layoutYMid},
	NodeSupervisor: {X: layoutXStart + 2*layoutXGap, Y: layoutYMid},
	NodeAgentA:     {X: layoutXStart + 3*layoutXGap, Y: layoutYUpper},
	NodeAgentB:     {X: layoutXStart + 3*layoutXGap, Y: layoutYLower},
	NodeRouter:     {X: layoutXStart + 2*layoutXGap, Y: layoutYMid},
	NodeRouteA:     {X: layoutXStart + 3*layoutXGap, Y: layoutYUpper},
	NodeRouteB:     {X: layoutXStart + 3*layoutXGap, Y: layoutYLower},
	NodeExternal:   {X: layoutXStart + 2*layoutXGap, Y: layoutYMid},

	NodeOutput: {X: layoutXStart + 4*layoutXGap, Y: layoutYMid},
}

// layoutSlot returns the default canvas position for a managed node.
func layoutSlot(id string) schema.Position {
	return layoutSlots[id]
}
