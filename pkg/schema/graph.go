package schema

// Node is a single vertex in a stack graph. The wizard engine and the
// free-form editor share this representation: managed nodes carry one of
// the canonical ids, everything else is user-owned and opaque to the engine.
type Node struct {
	ID       string         `json:"id"`
	Kind     NodeKind       `json:"type"`
	Position Position       `json:"position"`
	Data     map[string]any `json:"data,omitempty"`
}

// Edge is a directed connection between two nodes (source -> target).
// SourceHandle distinguishes multiple outgoing ports on one node
// (router route slots use "route-1" / "route-2").
type Edge struct {
	ID           string         `json:"id"`
	Source       string         `json:"source"`
	Target       string         `json:"target"`
	SourceHandle string         `json:"sourceHandle,omitempty"`
	Animated     bool           `json:"animated"`
	Style        map[string]any `json:"style,omitempty"`
}

// Position is a node's canvas coordinate. Fixed at node creation and
// preserved across re-synthesis unless explicitly overridden.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeKind selects the semantic meaning of a node's Data map.
// User-authored graphs may carry arbitrary kinds; the engine only
// interprets the kinds below.
type NodeKind string

const (
	KindDataSource    NodeKind = "snowflakeSource"
	KindSemanticModel NodeKind = "semanticModel"
	KindAgent         NodeKind = "agent"
	KindSupervisor    NodeKind = "supervisor"
	KindRouter        NodeKind = "router"
	KindExternalAgent NodeKind = "externalAgent"
	KindOutput        NodeKind = "output"
)

// Graph is the serialized stack document: the unit of persistence and the
// input to the validation pipeline.
type Graph struct {
	Name  string `json:"name,omitempty"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// CloneData returns a shallow-independent copy of a node data map.
// Nested values are copied recursively so callers can mutate the result
// without aliasing the original.
func CloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	cp := make(map[string]any, len(data))
	for k, v := range data {
		cp[k] = cloneValue(v)
	}
	return cp
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneData(val)
	case []any:
		cp := make([]any, len(val))
		for i, item := range val {
			cp[i] = cloneValue(item)
		}
		return cp
	default:
		return v
	}
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	n.Data = CloneData(n.Data)
	return n
}

// Clone returns a deep copy of the edge.
func (e Edge) Clone() Edge {
	e.Style = CloneData(e.Style)
	return e
}
