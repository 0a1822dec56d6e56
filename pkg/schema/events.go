package schema

// Event type constants for the stack event log.
const (
	EventStackCommitted   = "stack_committed"
	EventStackDiscarded   = "stack_discarded"
	EventStackPreserved   = "stack_preserved"
	EventStackSnapshotted = "stack_snapshotted"
	EventStackDeleted     = "stack_deleted"

	EventRunStarted   = "run_started"
	EventRunCompleted = "run_completed"
	EventRunFailed    = "run_failed"

	EventNodeActive    = "node_active"
	EventNodeCompleted = "node_completed"
)

// RunStatus is the overall state reported by the execution collaborator.
// The engine never drives runs; it only observes status transitions to
// derive display state.
type RunStatus string

const (
	RunStatusIdle      RunStatus = "idle"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)
