package wizard

import "github.com/stackflowhq/stackflow/pkg/schema"

// reconcile merges the freshly synthesized managed subgraph into the
// caller's current graph. The one rule that matters: ids outside the
// canonical managed sets are never created, mutated, or dropped. Within
// the managed sets, everything the current configuration no longer needs
// is retired in this single pass.
func reconcile(existingNodes []schema.Node, existingEdges []schema.Edge, managedNodes []schema.Node, managedEdges []schema.Edge) ([]schema.Node, []schema.Edge) {
	required := make(map[string]bool, len(managedNodes))
	for _, n := range managedNodes {
		required[n.ID] = true
	}

	// Stale: managed ids present before but absent from the desired set.
	// These are completed steps being undone or a variant being abandoned.
	stale := make(map[string]bool)
	for _, n := range existingNodes {
		if IsManagedNodeID(n.ID) && !required[n.ID] {
			stale[n.ID] = true
		}
	}

	// Nodes: user nodes pass through verbatim, in their original order;
	// the managed set is replaced wholesale by the fresh emission.
	nodes := make([]schema.Node, 0, len(existingNodes)+len(managedNodes))
	for _, n := range existingNodes {
		if !IsManagedNodeID(n.ID) {
			nodes = append(nodes, n)
		}
	}
	nodes = append(nodes, managedNodes...)

	// Edges: drop anything touching a stale node, anything named by the
	// managed convention, and anything connecting two required ids (the
	// fresh emission replaces it). Everything else is user content, kept.
	edges := make([]schema.Edge, 0, len(existingEdges)+len(managedEdges))
	kept := make(map[string]bool, len(existingEdges))
	for _, e := range existingEdges {
		if stale[e.Source] || stale[e.Target] {
			continue
		}
		if IsManagedEdgeID(e.ID) {
			continue
		}
		if required[e.Source] && required[e.Target] {
			continue
		}
		edges = append(edges, e)
		kept[e.ID] = true
	}

	// Append fresh managed edges. On an id collision the pre-existing edge
	// wins, avoiding churn in unrelated edge metadata. Today every fresh
	// edge id carries the managed prefix and every prefix-matching existing
	// edge was dropped above, so the collision branch only fires if the
	// naming conventions diverge.
	for _, e := range managedEdges {
		if kept[e.ID] {
			continue
		}
		edges = append(edges, e)
	}

	return nodes, edges
}
