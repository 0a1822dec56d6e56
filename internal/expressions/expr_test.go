package expressions

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackflowhq/stackflow/pkg/schema"
)

func TestNewExprEngine(t *testing.T) {
	e := NewExprEngine()
	assert.NotNil(t, e)
	assert.Equal(t, "expr", e.Name())
}

// --- Route predicates ---

func TestExpr_MessagePredicate(t *testing.T) {
	e := NewExprEngine()
	data := map[string]any{"message": "show me the sales numbers"}

	out, err := e.Evaluate(context.Background(), `message contains "sales"`, data)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestExpr_RouteListOperations(t *testing.T) {
	e := NewExprEngine()
	data := map[string]any{
		"routes": []any{
			map[string]any{"label": "Route A", "keywords": []any{"sales", "revenue"}},
			map[string]any{"label": "Route B", "keywords": []any{"support"}},
		},
	}

	out, err := e.Evaluate(context.Background(), `len(filter(routes, len(.keywords) > 1))`, data)
	require.NoError(t, err)
	assert.Equal(t, 1, out)

	out, err = e.Evaluate(context.Background(), `map(routes, .label)`, data)
	require.NoError(t, err)
	assert.Equal(t, []any{"Route A", "Route B"}, out)
}

func TestExpr_NilCoalescing(t *testing.T) {
	e := NewExprEngine()

	out, err := e.Evaluate(context.Background(), `model ?? "default-model"`, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "default-model", out)
}

func TestExpr_OptionalChaining(t *testing.T) {
	e := NewExprEngine()
	data := map[string]any{"node": map[string]any{}}

	out, err := e.Evaluate(context.Background(), `node?.routes?.first == nil`, data)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestExpr_UndefinedVariablesAllowed(t *testing.T) {
	e := NewExprEngine()

	out, err := e.Evaluate(context.Background(), `missing == nil`, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestExpr_NilDataEnvironment(t *testing.T) {
	e := NewExprEngine()

	out, err := e.Evaluate(context.Background(), `1 + 2`, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, out)
}

// --- Errors ---

func TestExpr_EmptyExpression(t *testing.T) {
	e := NewExprEngine()

	_, err := e.Evaluate(context.Background(), "", map[string]any{})
	require.Error(t, err)

	se, ok := err.(*schema.StackError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeValidation, se.Code)
}

func TestExpr_CompileError(t *testing.T) {
	e := NewExprEngine()

	_, err := e.Evaluate(context.Background(), `1 +`, map[string]any{})
	require.Error(t, err)

	se, ok := err.(*schema.StackError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeValidation, se.Code)
	assert.Equal(t, `1 +`, se.Details["expression"])
}

func TestExpr_RuntimeError(t *testing.T) {
	e := NewExprEngine()

	_, err := e.Evaluate(context.Background(), `10 / n`, map[string]any{"n": 0})
	require.Error(t, err)

	se, ok := err.(*schema.StackError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeExecution, se.Code)
}

// --- Caching ---

func TestExpr_CompilationCached(t *testing.T) {
	e := NewExprEngine()

	for i := 0; i < 3; i++ {
		_, err := e.Evaluate(context.Background(), `message contains "sales"`,
			map[string]any{"message": "sales report"})
		require.NoError(t, err)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	assert.Len(t, e.cache, 1)
}

func TestExpr_ConcurrentEvaluation(t *testing.T) {
	e := NewExprEngine()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := e.Evaluate(context.Background(), `message contains "sales"`,
				map[string]any{"message": "quarterly sales"})
			assert.NoError(t, err)
			assert.Equal(t, true, out)
		}()
	}
	wg.Wait()
}
