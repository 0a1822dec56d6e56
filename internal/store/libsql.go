package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/stackflowhq/stackflow/pkg/schema"
)

// LibSQLStore implements the Store interface using libSQL (embedded SQLite fork).
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path and returns a Store.
// The path should be a file URI, e.g. "file:/path/to/db.db".
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply connection-level PRAGMAs. Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// DB returns the underlying *sql.DB for advanced usage.
func (s *LibSQLStore) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// Vacuum runs VACUUM on the database.
func (s *LibSQLStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// --- Stacks ---

// CommitStack atomically replaces the stored graph for a name. The whole
// graph is written in one upsert so no reader ever sees a partial merge.
func (s *LibSQLStore) CommitStack(ctx context.Context, name string, nodes []schema.Node, edges []schema.Edge) error {
	if name == "" {
		return schema.NewError(schema.ErrCodeValidation, "stack name is empty")
	}
	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("marshal nodes: %w", err)
	}
	edgesJSON, err := json.Marshal(edges)
	if err != nil {
		return fmt.Errorf("marshal edges: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO stacks (name, nodes, edges, created_at, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		 ON CONFLICT(name) DO UPDATE SET nodes=excluded.nodes, edges=excluded.edges, updated_at=CURRENT_TIMESTAMP`,
		name, string(nodesJSON), string(edgesJSON),
	)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "commit stack %s: %s", name, err.Error()).WithCause(err)
	}
	return nil
}

func (s *LibSQLStore) GetStack(ctx context.Context, name string) (*Stack, error) {
	st := &Stack{}
	var nodesJSON, edgesJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT name, nodes, edges, created_at, updated_at FROM stacks WHERE name = ?`, name,
	).Scan(&st.Name, &nodesJSON, &edgesJSON, &st.CreatedAt, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("stack", name)
	}
	if err != nil {
		return nil, err
	}
	if err := unmarshalGraph(nodesJSON, edgesJSON, &st.Nodes, &st.Edges); err != nil {
		return nil, fmt.Errorf("stack %s: %w", name, err)
	}
	return st, nil
}

func (s *LibSQLStore) ListStacks(ctx context.Context) ([]*Stack, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, nodes, edges, created_at, updated_at FROM stacks ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stacks []*Stack
	for rows.Next() {
		st := &Stack{}
		var nodesJSON, edgesJSON string
		if err := rows.Scan(&st.Name, &nodesJSON, &edgesJSON, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, err
		}
		if err := unmarshalGraph(nodesJSON, edgesJSON, &st.Nodes, &st.Edges); err != nil {
			return nil, fmt.Errorf("stack %s: %w", st.Name, err)
		}
		stacks = append(stacks, st)
	}
	return stacks, rows.Err()
}

func (s *LibSQLStore) DeleteStack(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM stacks WHERE name = ?`, name)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "stack", name)
}

// --- Snapshots ---

// SnapshotStack copies the current graph of a stack into the snapshot log.
func (s *LibSQLStore) SnapshotStack(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO stack_snapshots (stack_name, nodes, edges, created_at)
		 SELECT name, nodes, edges, CURRENT_TIMESTAMP FROM stacks WHERE name = ?`, name)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "snapshot stack %s: %s", name, err.Error()).WithCause(err)
	}
	return checkRowsAffected(res, "stack", name)
}

func (s *LibSQLStore) ListSnapshots(ctx context.Context, name string, limit int) ([]*Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, stack_name, nodes, edges, created_at FROM stack_snapshots
		 WHERE stack_name = ? ORDER BY id DESC LIMIT ?`, name, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		sn := &Snapshot{}
		var nodesJSON, edgesJSON string
		if err := rows.Scan(&sn.ID, &sn.StackName, &nodesJSON, &edgesJSON, &sn.CreatedAt); err != nil {
			return nil, err
		}
		if err := unmarshalGraph(nodesJSON, edgesJSON, &sn.Nodes, &sn.Edges); err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", sn.ID, err)
		}
		snaps = append(snaps, sn)
	}
	return snaps, rows.Err()
}

// PruneSnapshots deletes all but the newest keep snapshots of a stack.
func (s *LibSQLStore) PruneSnapshots(ctx context.Context, name string, keep int) error {
	if keep <= 0 {
		return schema.NewError(schema.ErrCodeValidation, "snapshot retention must be positive")
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM stack_snapshots WHERE stack_name = ? AND id NOT IN (
		   SELECT id FROM stack_snapshots WHERE stack_name = ? ORDER BY id DESC LIMIT ?)`,
		name, name, keep)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "prune snapshots for %s: %s", name, err.Error()).WithCause(err)
	}
	return nil
}

// --- Events ---

func (s *LibSQLStore) AppendEvent(ctx context.Context, event *Event) error {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	var payload any
	if len(event.Payload) > 0 {
		payload = string(event.Payload)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (stack_name, node_id, event_type, payload, timestamp) VALUES (?, ?, ?, ?, ?)`,
		event.StackName, nullableString(event.NodeID), event.Type, payload, ts,
	)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "append event: %s", err.Error()).WithCause(err)
	}
	if id, err := res.LastInsertId(); err == nil {
		event.ID = id
	}
	event.Timestamp = ts
	return nil
}

func (s *LibSQLStore) GetEvents(ctx context.Context, stackName string, since int64) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, stack_name, node_id, event_type, payload, timestamp FROM events
		 WHERE stack_name = ? AND id > ? ORDER BY id`, stackName, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var nodeID, payload sql.NullString
		if err := rows.Scan(&e.ID, &e.StackName, &nodeID, &e.Type, &payload, &e.Timestamp); err != nil {
			return nil, err
		}
		e.NodeID = nodeID.String
		if payload.Valid {
			e.Payload = json.RawMessage(payload.String)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// --- helpers ---

func unmarshalGraph(nodesJSON, edgesJSON string, nodes *[]schema.Node, edges *[]schema.Edge) error {
	if err := json.Unmarshal([]byte(nodesJSON), nodes); err != nil {
		return fmt.Errorf("unmarshal nodes: %w", err)
	}
	if err := json.Unmarshal([]byte(edgesJSON), edges); err != nil {
		return fmt.Errorf("unmarshal edges: %w", err)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func storeNotFound(kind, id string) error {
	return schema.NewErrorf(schema.ErrCodeNotFound, "%s not found: %s", kind, id)
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storeNotFound(kind, id)
	}
	return nil
}
