package store

import (
	"context"

	"github.com/stackflowhq/stackflow/pkg/schema"
)

// Store defines the persistence layer contract.
// All implementations must be safe for concurrent use.
type Store interface {
	// Stacks. Commit atomically replaces the stored graph for a name:
	// readers never observe a partially-merged graph.
	CommitStack(ctx context.Context, name string, nodes []schema.Node, edges []schema.Edge) error
	GetStack(ctx context.Context, name string) (*Stack, error)
	ListStacks(ctx context.Context) ([]*Stack, error)
	DeleteStack(ctx context.Context, name string) error

	// Snapshots (point-in-time copies, written by the scheduler).
	SnapshotStack(ctx context.Context, name string) error
	ListSnapshots(ctx context.Context, name string, limit int) ([]*Snapshot, error)
	PruneSnapshots(ctx context.Context, name string, keep int) error

	// Event log (append-only).
	AppendEvent(ctx context.Context, event *Event) error
	GetEvents(ctx context.Context, stackName string, since int64) ([]*Event, error)

	// Maintenance
	Migrate(ctx context.Context) error
	Vacuum(ctx context.Context) error

	// Lifecycle
	Close() error
}
