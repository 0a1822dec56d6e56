// Package runstate tracks execution status reported by the run
// collaborator. It is strictly read-only with respect to the graph: status
// feeds display state (layer progress, the unsaved-changes flag) and never
// loops back into synthesis.
package runstate

import (
	"sort"
	"sync"

	"github.com/stackflowhq/stackflow/pkg/schema"
)

// validTransitions is the run status lifecycle. Idle restarts are allowed
// so one tracker can observe many runs.
var validTransitions = map[schema.RunStatus][]schema.RunStatus{
	schema.RunStatusIdle:      {schema.RunStatusRunning},
	schema.RunStatusRunning:   {schema.RunStatusCompleted, schema.RunStatusFailed},
	schema.RunStatusCompleted: {schema.RunStatusIdle, schema.RunStatusRunning},
	schema.RunStatusFailed:    {schema.RunStatusIdle, schema.RunStatusRunning},
}

// Tracker consumes per-node and overall status updates for one stack.
//
// The dirty flag is edge-triggered: it clears only on an observed
// transition into the completed state, never by re-reading the current
// level. Recomputing it from the level on every render would reset it
// spuriously whenever the last run happened to be green.
type Tracker struct {
	mu        sync.Mutex
	status    schema.RunStatus
	active    map[string]bool
	completed map[string]bool
	dirty     bool
}

// NewTracker creates a Tracker in the idle state with no unsaved changes.
func NewTracker() *Tracker {
	return &Tracker{
		status:    schema.RunStatusIdle,
		active:    make(map[string]bool),
		completed: make(map[string]bool),
	}
}

// MarkDirty records that the graph changed since the last successful run.
func (t *Tracker) MarkDirty() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirty = true
}

// SetStatus records an overall run status observation. The dirty flag
// clears exactly when the status transitions into completed.
func (t *Tracker) SetStatus(to schema.RunStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if to == t.status {
		return nil // level, not an edge: nothing to do
	}
	if !isValidTransition(t.status, to) {
		return schema.NewErrorf(schema.ErrCodeInvalidTransition,
			"invalid run transition: %s -> %s", t.status, to)
	}

	if to == schema.RunStatusRunning {
		// A new run resets the per-node sets.
		t.active = make(map[string]bool)
		t.completed = make(map[string]bool)
	}
	if to == schema.RunStatusCompleted {
		t.dirty = false
	}
	t.status = to
	return nil
}

// NodeActive records that a node started executing.
func (t *Tracker) NodeActive(nodeID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active[nodeID] = true
}

// NodeCompleted records that a node finished executing.
func (t *Tracker) NodeCompleted(nodeID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, nodeID)
	t.completed[nodeID] = true
}

// View is a read-only snapshot for display layers.
type View struct {
	Status    schema.RunStatus `json:"status"`
	Active    []string         `json:"active,omitempty"`
	Completed []string         `json:"completed,omitempty"`
	Dirty     bool             `json:"dirty"`
}

// Snapshot returns the current display state.
func (t *Tracker) Snapshot() View {
	t.mu.Lock()
	defer t.mu.Unlock()

	v := View{Status: t.status, Dirty: t.dirty}
	for id := range t.active {
		v.Active = append(v.Active, id)
	}
	for id := range t.completed {
		v.Completed = append(v.Completed, id)
	}
	sort.Strings(v.Active)
	sort.Strings(v.Completed)
	return v
}

func isValidTransition(from, to schema.RunStatus) bool {
	for _, a := range validTransitions[from] {
		if a == to {
			return true
		}
	}
	return false
}
