package store

import (
	"encoding/json"
	"time"

	"github.com/stackflowhq/stackflow/pkg/schema"
)

// Stack is the persisted representation of a stack graph.
type Stack struct {
	Name      string        `json:"name"`
	Nodes     []schema.Node `json:"nodes"`
	Edges     []schema.Edge `json:"edges"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Graph returns the stack as a serialized graph document.
func (s *Stack) Graph() schema.Graph {
	return schema.Graph{Name: s.Name, Nodes: s.Nodes, Edges: s.Edges}
}

// Snapshot is a point-in-time copy of a stack graph.
type Snapshot struct {
	ID        int64         `json:"id"`
	StackName string        `json:"stack_name"`
	Nodes     []schema.Node `json:"nodes"`
	Edges     []schema.Edge `json:"edges"`
	CreatedAt time.Time     `json:"created_at"`
}

// Event is an immutable entry in the stack event log.
type Event struct {
	ID        int64           `json:"id"`
	StackName string          `json:"stack_name"`
	NodeID    string          `json:"node_id,omitempty"`
	Type      string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
