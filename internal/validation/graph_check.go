package validation

import (
	"fmt"
	"sort"

	"github.com/stackflowhq/stackflow/pkg/schema"
)

// validateGraphShape performs graph analysis over nodes and edges:
// cycle detection (Kahn's algorithm) and orphan-node warnings.
func validateGraphShape(g *schema.Graph) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	if len(g.Nodes) == 0 {
		result.AddError("/nodes", "EMPTY_GRAPH", "no nodes in the stack")
		return result
	}

	nodeIDs := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		nodeIDs[n.ID] = true
	}

	// upstream[id] = sources feeding id, downstream[id] = targets fed by id.
	upstream := make(map[string][]string, len(g.Nodes))
	downstream := make(map[string][]string, len(g.Nodes))
	connected := make(map[string]bool, len(g.Nodes))
	seen := make(map[[2]string]bool, len(g.Edges))

	for _, e := range g.Edges {
		if !nodeIDs[e.Source] || !nodeIDs[e.Target] {
			continue // dangling refs already caught by semantic
		}
		connected[e.Source] = true
		connected[e.Target] = true
		pair := [2]string{e.Source, e.Target}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		upstream[e.Target] = append(upstream[e.Target], e.Source)
		downstream[e.Source] = append(downstream[e.Source], e.Target)
	}

	// Orphans: in a multi-node graph every node should touch an edge.
	if len(g.Nodes) > 1 {
		for _, n := range g.Nodes {
			if !connected[n.ID] {
				result.AddNodeWarning(n.ID, "ORPHAN_NODE",
					fmt.Sprintf("node %q is not connected to any other node", nodeLabel(n)),
					"Connect it with edges, or remove it if not needed.")
			}
		}
	}

	// Kahn's algorithm for cycle detection.
	inDegree := make(map[string]int, len(g.Nodes))
	for id := range nodeIDs {
		inDegree[id] = len(upstream[id])
	}

	queue := make([]string, 0, len(g.Nodes))
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	// Sort roots for deterministic output.
	sort.Strings(queue)

	visited := 0
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		visited++
		for _, dep := range downstream[node] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if visited != len(g.Nodes) {
		var cyclic []string
		for id, deg := range inDegree {
			if deg > 0 {
				cyclic = append(cyclic, id)
			}
		}
		sort.Strings(cyclic)
		result.AddError("/edges", schema.ErrCodeCycleDetected,
			fmt.Sprintf("stack graph contains a cycle involving: %v", cyclic))
	}

	return result
}

func nodeLabel(n schema.Node) string {
	if l, ok := n.Data["label"].(string); ok && l != "" {
		return l
	}
	if l, ok := n.Data["name"].(string); ok && l != "" {
		return l
	}
	return n.ID
}
