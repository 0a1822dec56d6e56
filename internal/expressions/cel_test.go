package expressions

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackflowhq/stackflow/pkg/schema"
)

func TestNewCELEngine(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)
	assert.NotNil(t, e)
	assert.Equal(t, "cel", e.Name())
}

// --- Route predicates ---

func TestCEL_MessagePredicate(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	data := map[string]any{"message": "show me the sales numbers"}

	out, err := e.Evaluate(context.Background(), `message.contains("sales")`, data)
	require.NoError(t, err)
	assert.Equal(t, true, out)

	out, err = e.Evaluate(context.Background(), `message.startsWith("refund")`, data)
	require.NoError(t, err)
	assert.Equal(t, false, out)
}

func TestCEL_NodeDataAccess(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	data := map[string]any{
		"message": "escalate this",
		"node":    map[string]any{"label": "Route A", "priority": int64(2)},
	}

	out, err := e.Evaluate(context.Background(), `node.priority > 1 && message.contains("escalate")`, data)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestCEL_GraphDocumentAccess(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	data := map[string]any{
		"graph": map[string]any{"name": "analytics"},
	}

	out, err := e.Evaluate(context.Background(), `graph.name == "analytics"`, data)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

// --- Activation defaults ---

func TestCEL_MissingKeysGetZeroValues(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	// No message, node, or graph provided: evaluation must not blow up.
	out, err := e.Evaluate(context.Background(), `message == "" && size(node) == 0`, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, true, out)

	out, err = e.Evaluate(context.Background(), `message == ""`, nil)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

// --- Errors ---

func TestCEL_EmptyExpression(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	_, err = e.Evaluate(context.Background(), "", map[string]any{})
	require.Error(t, err)

	se, ok := err.(*schema.StackError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeValidation, se.Code)
}

func TestCEL_CompileError(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	_, err = e.Evaluate(context.Background(), `message.contains(`, map[string]any{})
	require.Error(t, err)

	se, ok := err.(*schema.StackError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeValidation, se.Code)
	assert.Equal(t, `message.contains(`, se.Details["expression"])
}

func TestCEL_UnknownVariableIsCompileError(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	_, err = e.Evaluate(context.Background(), `payload.size > 0`, map[string]any{})
	require.Error(t, err)

	se, ok := err.(*schema.StackError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeValidation, se.Code)
}

func TestCEL_RuntimeError(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	// The key is absent from the node map, which only surfaces at runtime.
	_, err = e.Evaluate(context.Background(), `node.threshold == 5`, map[string]any{
		"node": map[string]any{},
	})
	require.Error(t, err)

	se, ok := err.(*schema.StackError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeExecution, se.Code)
}

// --- Caching ---

func TestCEL_CompilationCached(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	expr := `message.contains("sales")`
	for i := 0; i < 3; i++ {
		_, err := e.Evaluate(context.Background(), expr, map[string]any{"message": "sales"})
		require.NoError(t, err)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	assert.Len(t, e.cache, 1)
}

func TestCEL_ConcurrentEvaluation(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := e.Evaluate(context.Background(), `message.contains("sales")`,
				map[string]any{"message": "quarterly sales"})
			assert.NoError(t, err)
			assert.Equal(t, true, out)
		}()
	}
	wg.Wait()
}
