package expressions

import "context"

// Engine evaluates expressions over stack data.
// Three implementations: CEL (route predicates), Expr (route predicates,
// alternative syntax), GoJQ (graph document queries).
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}
