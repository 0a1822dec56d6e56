package wizard

import "github.com/stackflowhq/stackflow/pkg/schema"

// ExtractConfig recovers the wizard configuration embedded in a graph.
// Lookup order: the canonical output node first, then any node carrying an
// embedded config, then the baseline default. Never fails: every field is
// defaulted or coerced individually, so a mangled config degrades to safe
// values instead of an error.
func ExtractConfig(nodes []schema.Node) schema.StackConfig {
	for _, n := range nodes {
		if n.ID != NodeOutput {
			continue
		}
		if raw, ok := embeddedConfig(n); ok {
			return coerceConfig(raw)
		}
	}

	for _, n := range nodes {
		if raw, ok := embeddedConfig(n); ok {
			return coerceConfig(raw)
		}
	}

	return schema.DefaultConfig()
}

// embeddedConfig returns the raw config map carried by a node, if the node
// holds one with the recognized version.
func embeddedConfig(n schema.Node) (map[string]any, bool) {
	raw, ok := n.Data[schema.ConfigKey].(map[string]any)
	if !ok {
		return nil, false
	}
	if asInt(raw["version"], 0) != schema.ConfigVersion {
		return nil, false
	}
	return raw, true
}

// coerceConfig turns a raw embedded config map into a fully-populated,
// type-valid StackConfig. Unrecognized enum values fall back to documented
// defaults and never propagate.
func coerceConfig(raw map[string]any) schema.StackConfig {
	cfg := schema.DefaultConfig()

	if b, ok := raw["useSemantic"].(bool); ok {
		cfg.UseSemantic = b
	}
	if o := schema.Orchestration(asString(raw["orchestration"])); o.Valid() {
		cfg.Orchestration = o
	}
	if c := schema.Channel(asString(raw["channel"])); c.Valid() {
		cfg.Channel = c
	}
	cfg.Progress = clampProgress(asInt(raw["progress"], 0))

	return cfg
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asInt coerces the numeric representations JSON decoding can produce.
func asInt(v any, fallback int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return fallback
	}
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > schema.MaxProgress {
		return schema.MaxProgress
	}
	return p
}
