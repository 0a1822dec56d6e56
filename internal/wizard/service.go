package wizard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/stackflowhq/stackflow/internal/logging"
	"github.com/stackflowhq/stackflow/internal/store"
	"github.com/stackflowhq/stackflow/pkg/schema"
)

// Service drives the guided wizard over stored stacks. Every user action
// runs the same trigger-driven path: load, synthesize the full desired
// graph, commit it atomically. No partial graph is ever persisted.
type Service struct {
	store  store.Store
	logger *slog.Logger

	mu     sync.Mutex
	guards map[string]*Guard // per stack name, entered once per process
}

// NewService creates a wizard Service on top of the given store.
func NewService(s store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  s,
		logger: logger,
		guards: make(map[string]*Guard),
	}
}

// EnterResult reports the state of a stack on wizard entry.
type EnterResult struct {
	Config       schema.StackConfig `json:"config"`
	GuardPending bool               `json:"guard_pending"`
	Graph        schema.Graph       `json:"graph"`
}

// Enter opens a named stack in the wizard: loads the stored graph (a
// missing stack is an empty one), recovers the embedded configuration,
// and evaluates the preexisting-workflow guard exactly once.
func (s *Service) Enter(ctx context.Context, name string) (*EnterResult, error) {
	st, err := s.loadStack(ctx, name)
	if err != nil {
		return nil, err
	}

	cfg := ExtractConfig(st.Nodes)
	state := s.guard(name).Evaluate(cfg, st.Nodes, st.Edges)

	logging.LogWith(logging.WithStackID(ctx, name), s.logger).
		Info("wizard entered", slog.Int("progress", cfg.Progress), slog.String("guard", string(state)))

	return &EnterResult{
		Config:       cfg,
		GuardPending: state == GuardPending,
		Graph:        st.Graph(),
	}, nil
}

// Resolve records the user's discard/preserve decision for a pending
// guard. Discard clears the stored graph; preserve leaves it untouched.
func (s *Service) Resolve(ctx context.Context, name string, choice Choice) error {
	clear, err := s.guard(name).Resolve(choice)
	if err != nil {
		return err
	}

	eventType := schema.EventStackPreserved
	if clear {
		if err := s.store.CommitStack(ctx, name, []schema.Node{}, []schema.Edge{}); err != nil {
			return err
		}
		eventType = schema.EventStackDiscarded
	}
	if err := s.store.AppendEvent(ctx, &store.Event{StackName: name, Type: eventType}); err != nil {
		return err
	}

	logging.LogWith(logging.WithStackID(ctx, name), s.logger).
		Info("guard resolved", slog.String("choice", string(choice)))
	return nil
}

// Apply runs one wizard action: synthesize the desired graph for cfg
// against the stored one and commit the result atomically. Blocked while
// the preexisting-workflow guard is pending.
func (s *Service) Apply(ctx context.Context, name string, cfg schema.StackConfig, overrides Overrides) (schema.Graph, error) {
	if s.guard(name).Pending() {
		return schema.Graph{}, schema.NewErrorf(schema.ErrCodeDecisionPending,
			"stack %s holds a preexisting workflow; resolve discard or preserve first", name)
	}

	st, err := s.loadStack(ctx, name)
	if err != nil {
		return schema.Graph{}, err
	}

	nodes, edges := Synthesize(st.Nodes, st.Edges, cfg, overrides)

	if err := s.store.CommitStack(ctx, name, nodes, edges); err != nil {
		return schema.Graph{}, err
	}
	if err := s.store.AppendEvent(ctx, &store.Event{StackName: name, Type: schema.EventStackCommitted}); err != nil {
		return schema.Graph{}, err
	}

	logging.LogWith(logging.WithStackID(ctx, name), s.logger).
		Info("stack synthesized",
			slog.Int("progress", cfg.Progress),
			slog.String("orchestration", string(cfg.Orchestration)),
			slog.Int("nodes", len(nodes)),
			slog.Int("edges", len(edges)))

	return schema.Graph{Name: name, Nodes: nodes, Edges: edges}, nil
}

// Extract returns the configuration currently recoverable from a stored stack.
func (s *Service) Extract(ctx context.Context, name string) (schema.StackConfig, error) {
	st, err := s.loadStack(ctx, name)
	if err != nil {
		return schema.StackConfig{}, err
	}
	return ExtractConfig(st.Nodes), nil
}

func (s *Service) guard(name string) *Guard {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guards[name]
	if !ok {
		g = NewGuard()
		s.guards[name] = g
	}
	return g
}

// loadStack fetches a stack, treating a missing one as empty.
func (s *Service) loadStack(ctx context.Context, name string) (*store.Stack, error) {
	st, err := s.store.GetStack(ctx, name)
	if err != nil {
		if se, ok := err.(*schema.StackError); ok && se.Code == schema.ErrCodeNotFound {
			return &store.Stack{Name: name}, nil
		}
		return nil, err
	}
	return st, nil
}
