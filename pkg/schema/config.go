package schema

// ConfigKey is the node data field carrying the embedded wizard
// configuration. The graph is the only persistence channel for wizard
// state: the config must always be recoverable from node data alone.
const ConfigKey = "guidedStackConfig"

// ConfigVersion is the only wire version currently recognized.
const ConfigVersion = 1

// Orchestration selects the reasoning-layer topology of a guided stack.
type Orchestration string

const (
	OrchestrationSingle     Orchestration = "single"
	OrchestrationSupervisor Orchestration = "supervisor"
	OrchestrationRouter     Orchestration = "router"
	OrchestrationExternal   Orchestration = "external"
)

// Valid reports whether o is one of the four canonical topologies.
func (o Orchestration) Valid() bool {
	switch o {
	case OrchestrationSingle, OrchestrationSupervisor, OrchestrationRouter, OrchestrationExternal:
		return true
	}
	return false
}

// Channel selects the delivery target of a guided stack.
type Channel string

const (
	ChannelSnowflakeIntelligence Channel = "snowflake_intelligence"
	ChannelAPI                   Channel = "api"
	ChannelSlack                 Channel = "slack"
	ChannelTeams                 Channel = "teams"
)

// Valid reports whether c is one of the four canonical channels.
func (c Channel) Valid() bool {
	switch c {
	case ChannelSnowflakeIntelligence, ChannelAPI, ChannelSlack, ChannelTeams:
		return true
	}
	return false
}

// MaxProgress is the last wizard step.
const MaxProgress = 4

// StackConfig is the wizard configuration embedded in the holder node's
// data under ConfigKey. Progress gates which managed nodes exist:
// 0 none, 1 data source, 2 semantic layer, 3 orchestration, 4 output.
type StackConfig struct {
	Version       int           `json:"version"`
	UseSemantic   bool          `json:"useSemantic"`
	Orchestration Orchestration `json:"orchestration"`
	Channel       Channel       `json:"channel"`
	Progress      int           `json:"progress"`
}

// DefaultConfig is the baseline returned when no configuration is
// recoverable from the graph.
func DefaultConfig() StackConfig {
	return StackConfig{
		Version:       ConfigVersion,
		UseSemantic:   true,
		Orchestration: OrchestrationSingle,
		Channel:       ChannelSnowflakeIntelligence,
		Progress:      0,
	}
}

// AsMap returns the wire-format map representation used when embedding
// the config into node data.
func (c StackConfig) AsMap() map[string]any {
	return map[string]any{
		"version":       c.Version,
		"useSemantic":   c.UseSemantic,
		"orchestration": string(c.Orchestration),
		"channel":       string(c.Channel),
		"progress":      c.Progress,
	}
}
