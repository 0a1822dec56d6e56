package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackflowhq/stackflow/internal/store"
	"github.com/stackflowhq/stackflow/pkg/schema"
)

// mockSnapshotStore satisfies store.Store for scheduler tests.
type mockSnapshotStore struct {
	store.Store
	mu        sync.Mutex
	stacks    []*store.Stack
	snapshots []string
	pruned    map[string]int
	events    []*store.Event
	listErr   error
	snapErr   error
}

func (m *mockSnapshotStore) ListStacks(_ context.Context) ([]*store.Stack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.stacks, nil
}

func (m *mockSnapshotStore) SnapshotStack(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapErr != nil {
		return m.snapErr
	}
	m.snapshots = append(m.snapshots, name)
	return nil
}

func (m *mockSnapshotStore) PruneSnapshots(_ context.Context, name string, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pruned == nil {
		m.pruned = make(map[string]int)
	}
	m.pruned[name] = keep
	return nil
}

func (m *mockSnapshotStore) AppendEvent(_ context.Context, event *store.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockSnapshotStore) snapshotCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snapshots)
}

func newTestScheduler(t *testing.T, ms *mockSnapshotStore) *Scheduler {
	t.Helper()
	sched, err := NewScheduler(ms, "0 * * * *", 5, slog.Default())
	require.NoError(t, err)
	return sched
}

// forceDue rewinds the schedule so the next tick fires.
func forceDue(sched *Scheduler) {
	sched.mu.Lock()
	sched.nextRun = time.Now().UTC().Add(-time.Minute)
	sched.mu.Unlock()
}

// --- Tests ---

func TestNewSchedulerInvalidCron(t *testing.T) {
	_, err := NewScheduler(&mockSnapshotStore{}, "not a cron", 5, slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse cron expression")
}

func TestNextRunInFuture(t *testing.T) {
	sched := newTestScheduler(t, &mockSnapshotStore{})
	assert.True(t, sched.NextRun().After(time.Now().UTC().Add(-time.Second)))
}

func TestTickNotDue(t *testing.T) {
	ms := &mockSnapshotStore{stacks: []*store.Stack{{Name: "analytics"}}}
	sched := newTestScheduler(t, ms)

	sched.mu.Lock()
	sched.nextRun = time.Now().UTC().Add(time.Hour)
	sched.mu.Unlock()

	sched.tick(context.Background())
	assert.Equal(t, 0, ms.snapshotCount())
}

func TestTickSnapshotsAllStacks(t *testing.T) {
	ms := &mockSnapshotStore{stacks: []*store.Stack{
		{Name: "analytics"},
		{Name: "support"},
	}}
	sched := newTestScheduler(t, ms)
	forceDue(sched)

	sched.tick(context.Background())

	assert.ElementsMatch(t, []string{"analytics", "support"}, ms.snapshots)

	// Retention is enforced after each snapshot.
	assert.Equal(t, map[string]int{"analytics": 5, "support": 5}, ms.pruned)

	// One snapshotted event per stack.
	require.Len(t, ms.events, 2)
	for _, e := range ms.events {
		assert.Equal(t, schema.EventStackSnapshotted, e.Type)
	}

	// The schedule advanced past now.
	assert.True(t, sched.NextRun().After(time.Now().UTC().Add(-time.Second)))
}

func TestTickRunsOncePerDue(t *testing.T) {
	ms := &mockSnapshotStore{stacks: []*store.Stack{{Name: "analytics"}}}
	sched := newTestScheduler(t, ms)
	forceDue(sched)

	sched.tick(context.Background())
	assert.Equal(t, 1, ms.snapshotCount())

	// Second tick without the schedule firing again is a no-op.
	sched.tick(context.Background())
	assert.Equal(t, 1, ms.snapshotCount())
}

func TestTickSnapshotFailureContinues(t *testing.T) {
	ms := &mockSnapshotStore{
		stacks:  []*store.Stack{{Name: "analytics"}},
		snapErr: assert.AnError,
	}
	sched := newTestScheduler(t, ms)
	forceDue(sched)

	// A failing snapshot must not panic and must not append events.
	sched.tick(context.Background())
	assert.Equal(t, 0, ms.snapshotCount())
	assert.Empty(t, ms.events)
}

func TestDedupPreventsDoubleSnapshot(t *testing.T) {
	ms := &mockSnapshotStore{stacks: []*store.Stack{{Name: "analytics"}}}
	sched := newTestScheduler(t, ms)
	forceDue(sched)

	// Pre-acquire the stack to simulate an in-flight snapshot.
	require.True(t, sched.tryAcquire("analytics"))

	sched.tick(context.Background())
	assert.Equal(t, 0, ms.snapshotCount())

	// Release and force due again — now it snapshots.
	sched.release("analytics")
	forceDue(sched)
	sched.tick(context.Background())
	assert.Equal(t, 1, ms.snapshotCount())
}

func TestStartStop(t *testing.T) {
	sched := newTestScheduler(t, &mockSnapshotStore{})
	ctx := context.Background()

	require.NoError(t, sched.Start(ctx))

	// Double start should error.
	err := sched.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")

	require.NoError(t, sched.Stop())

	// Stop again should be a no-op.
	require.NoError(t, sched.Stop())
}
