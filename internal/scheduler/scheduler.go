// Package scheduler snapshots stored stacks on a cron schedule, giving
// editors a point-in-time history to roll back to.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stackflowhq/stackflow/internal/store"
	"github.com/stackflowhq/stackflow/pkg/schema"
)

// Scheduler periodically snapshots every stored stack.
type Scheduler struct {
	store    store.Store
	schedule cron.Schedule
	history  int
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex

	nextRun time.Time

	inflightMu sync.Mutex
	inflight   map[string]struct{} // stack names currently snapshotting (dedup)
}

// NewScheduler creates a Scheduler from a standard 5-field cron expression.
// history is the number of snapshots retained per stack; older ones are
// pruned after each run.
func NewScheduler(s store.Store, cronExpr string, history int, logger *slog.Logger) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}
	if history <= 0 {
		history = 20
	}
	return &Scheduler{
		store:    s,
		schedule: schedule,
		history:  history,
		logger:   logger,
		nextRun:  schedule.Next(time.Now().UTC()),
		inflight: make(map[string]struct{}),
	}, nil
}

// Start launches the background snapshot loop with a 60s ticker.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}

	schedCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(schedCtx)
	s.logger.Info("snapshot scheduler started")
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick snapshots all stacks when the schedule is due.
func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now().UTC()

	s.mu.Lock()
	due := !s.nextRun.After(now)
	if due {
		s.nextRun = s.schedule.Next(now)
	}
	s.mu.Unlock()

	if !due {
		return
	}

	stacks, err := s.store.ListStacks(ctx)
	if err != nil {
		s.logger.Error("failed to list stacks for snapshot", slog.String("error", err.Error()))
		return
	}

	for _, st := range stacks {
		if !s.tryAcquire(st.Name) {
			continue // already snapshotting (dedup)
		}
		if err := s.snapshot(ctx, st.Name); err != nil {
			s.logger.Error("failed to snapshot stack",
				slog.String("stack_id", st.Name),
				slog.String("error", err.Error()),
			)
		}
		s.release(st.Name)
	}
}

func (s *Scheduler) snapshot(ctx context.Context, name string) error {
	if err := s.store.SnapshotStack(ctx, name); err != nil {
		return err
	}
	if err := s.store.AppendEvent(ctx, &store.Event{
		StackName: name,
		Type:      schema.EventStackSnapshotted,
	}); err != nil {
		return err
	}
	if err := s.store.PruneSnapshots(ctx, name, s.history); err != nil {
		return err
	}
	s.logger.Info("stack snapshotted", slog.String("stack_id", name))
	return nil
}

// tryAcquire returns true and marks the stack as in-flight if it is not
// already being snapshotted.
func (s *Scheduler) tryAcquire(name string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, ok := s.inflight[name]; ok {
		return false
	}
	s.inflight[name] = struct{}{}
	return true
}

// release removes the stack from the in-flight set.
func (s *Scheduler) release(name string) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	delete(s.inflight, name)
}

// NextRun reports the next scheduled snapshot time.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRun
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return nil
	}

	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil

	s.logger.Info("snapshot scheduler stopped")
	return nil
}
