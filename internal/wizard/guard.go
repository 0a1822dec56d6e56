package wizard

import "github.com/stackflowhq/stackflow/pkg/schema"

// GuardState is the lifecycle of the preexisting-workflow gate.
type GuardState string

const (
	// GuardPending blocks synthesis until the user picks discard or preserve.
	GuardPending GuardState = "pending"
	// GuardResolved lets synthesis proceed.
	GuardResolved GuardState = "resolved"
)

// Choice is the user's answer to a pending guard.
type Choice string

const (
	ChoiceDiscard  Choice = "discard"
	ChoicePreserve Choice = "preserve"
)

// Guard detects a non-empty, non-wizard graph on first entry into the
// wizard and forces an explicit user decision before any mutation. There
// is no default and no timeout: the guard stays pending until resolved.
type Guard struct {
	state GuardState
}

// NewGuard creates an unevaluated guard.
func NewGuard() *Guard {
	return &Guard{}
}

// Evaluate runs the one-time entry check. A graph with content but no
// wizard progress belongs to someone: block until the user decides what
// to do with it. Subsequent calls are no-ops.
func (g *Guard) Evaluate(cfg schema.StackConfig, nodes []schema.Node, edges []schema.Edge) GuardState {
	if g.state != "" {
		return g.state
	}
	if cfg.Progress == 0 && (len(nodes) > 0 || len(edges) > 0) {
		g.state = GuardPending
	} else {
		g.state = GuardResolved
	}
	return g.state
}

// Pending reports whether synthesis is currently blocked.
func (g *Guard) Pending() bool {
	return g.state == GuardPending
}

// Resolve records the user's decision. Returns true when the caller must
// clear the graph (discard), false when it must be left untouched
// (preserve). Resolving a guard that is not pending is a conflict.
func (g *Guard) Resolve(choice Choice) (clear bool, err error) {
	if g.state != GuardPending {
		return false, schema.NewErrorf(schema.ErrCodeInvalidTransition,
			"guard is not pending (state: %s)", g.state)
	}
	switch choice {
	case ChoiceDiscard:
		g.state = GuardResolved
		return true, nil
	case ChoicePreserve:
		g.state = GuardResolved
		return false, nil
	default:
		return false, schema.NewErrorf(schema.ErrCodeValidation,
			"unknown guard choice: %q (want discard or preserve)", choice)
	}
}
