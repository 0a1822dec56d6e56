package wizard

import "github.com/stackflowhq/stackflow/pkg/schema"

// embedConfig writes cfg into a node's data under the config key. The
// graph is the only persistence channel for wizard state, so this is the
// final layer of every holder-node merge: written after defaults, prior
// data, and overrides, it can never be shadowed by stale values.
func embedConfig(n *schema.Node, cfg schema.StackConfig) {
	if n.Data == nil {
		n.Data = make(map[string]any, 1)
	}
	n.Data[schema.ConfigKey] = cfg.AsMap()
}

// holderID returns the id of the node responsible for carrying the
// embedded configuration at the given progress: the output node once the
// wizard is complete, the data node while it is mid-flight, none at rest.
func holderID(progress int) string {
	switch {
	case progress >= schema.MaxProgress:
		return NodeOutput
	case progress >= 1:
		return NodeData
	default:
		return ""
	}
}
