package wizard

import "github.com/stackflowhq/stackflow/pkg/schema"

// mergeData builds a managed node's data map with explicit precedence,
// lowest to highest:
//
//	1. defaults  — the kind's literal field defaults
//	2. prior     — whatever the node carried before this synthesis call
//	3. overrides — caller-supplied field overrides for this call
//
// Each layer is cloned on the way in, so the result never aliases its
// inputs. The embedded configuration, when this node is the holder, is
// written by the caller after this merge so stale values cannot shadow it.
func mergeData(defaults, prior, overrides map[string]any) map[string]any {
	out := make(map[string]any, len(defaults)+len(prior)+len(overrides))
	for _, layer := range []map[string]any{defaults, prior, overrides} {
		for k, v := range layer {
			out[k] = cloneAny(v)
		}
	}
	return out
}

// mergePriorUnderDefaults is the output-node variant: prior data is spread
// first and the literal defaults win over it. This inverted order is
// deliberate and load-bearing: the output node's label and outputType are
// re-pinned on every synthesis, while unknown prior fields survive.
func mergePriorUnderDefaults(prior, defaults, overrides map[string]any) map[string]any {
	out := make(map[string]any, len(defaults)+len(prior)+len(overrides))
	for _, layer := range []map[string]any{prior, defaults, overrides} {
		for k, v := range layer {
			out[k] = cloneAny(v)
		}
	}
	return out
}

func cloneAny(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return schema.CloneData(val)
	case []any:
		cp := make([]any, len(val))
		for i, item := range val {
			cp[i] = cloneAny(item)
		}
		return cp
	default:
		return v
	}
}
