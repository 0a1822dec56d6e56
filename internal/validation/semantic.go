package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/stackflowhq/stackflow/pkg/schema"
)

// RouteChecker compiles route match expressions. Satisfied by the
// expression engines (avoids an import cycle with the evaluation layer).
type RouteChecker interface {
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}

// Issue codes produced by the semantic stage.
const (
	codeNoDataSource         = "NO_DATA_SOURCE"
	codeNoAgent              = "NO_AGENT"
	codeNoOutput             = "NO_OUTPUT"
	codeIncompleteDataSource = "INCOMPLETE_DATA_SOURCE"
	codeNoSemanticPath       = "NO_SEMANTIC_PATH"
	codeSemanticPathFormat   = "SEMANTIC_PATH_FORMAT"
	codeNoModelSelected      = "NO_MODEL_SELECTED"
	codeAgentNoDataInput     = "AGENT_NO_DATA_INPUT"
	codeOutputDisconnected   = "OUTPUT_DISCONNECTED"
	codeMissingEndpoint      = "MISSING_ENDPOINT"
	codeNoAuthentication     = "NO_AUTHENTICATION"
	codeNoRoutes             = "NO_ROUTES"
	codeBadRouteMatch        = "BAD_ROUTE_MATCH"
	codeUnknownEdgeEndpoint  = "UNKNOWN_EDGE_ENDPOINT"
)

// validateSemantic checks that nodes are configured well enough to run and
// that edges reference real nodes. Everything requiring live catalog or
// network access (does the table exist, is the endpoint reachable) is out
// of scope here and owned by the execution side.
func validateSemantic(g *schema.Graph, routes RouteChecker) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	nodeByID := make(map[string]schema.Node, len(g.Nodes))
	kinds := make(map[schema.NodeKind]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		nodeByID[n.ID] = n
		kinds[n.Kind] = true
	}

	validateRequiredKinds(kinds, result)

	for _, n := range g.Nodes {
		switch n.Kind {
		case schema.KindDataSource:
			validateDataSource(n, result)
		case schema.KindSemanticModel:
			validateSemanticModel(n, result)
		case schema.KindAgent:
			validateAgent(n, g, nodeByID, result)
		case schema.KindExternalAgent:
			validateExternalAgent(n, result)
		case schema.KindRouter:
			validateRouter(n, routes, result)
		case schema.KindOutput:
			validateOutput(n, g.Edges, result)
		}
	}

	for i, e := range g.Edges {
		if _, ok := nodeByID[e.Source]; !ok {
			result.AddError(fmt.Sprintf("edges[%d].source", i), codeUnknownEdgeEndpoint,
				fmt.Sprintf("edge %q references non-existent source node %q", e.ID, e.Source))
		}
		if _, ok := nodeByID[e.Target]; !ok {
			result.AddError(fmt.Sprintf("edges[%d].target", i), codeUnknownEdgeEndpoint,
				fmt.Sprintf("edge %q references non-existent target node %q", e.ID, e.Target))
		}
	}

	return result
}

func validateRequiredKinds(kinds map[schema.NodeKind]bool, result *schema.ValidationResult) {
	if !kinds[schema.KindDataSource] {
		result.AddNodeError("", codeNoDataSource,
			"no data source configured",
			"Select a table or view from the catalog in the data layer.")
	}
	hasReasoning := kinds[schema.KindAgent] || kinds[schema.KindExternalAgent]
	if !hasReasoning {
		result.AddNodeError("", codeNoAgent,
			"no agent configured",
			"Add an agent node to process questions against your data.")
	}
	if !kinds[schema.KindOutput] {
		result.AddNodeError("", codeNoOutput,
			"no output node configured",
			"Complete the wizard to add an output node, or add one in the graph view.")
	}
}

func validateDataSource(n schema.Node, result *schema.ValidationResult) {
	db := dataString(n, "database")
	sch := dataString(n, "schema")
	if db == "" || sch == "" {
		result.AddNodeError(n.ID, codeIncompleteDataSource,
			"data source is missing database or schema",
			"Select a complete data source from the catalog.")
	}
}

func validateSemanticModel(n schema.Node, result *schema.ValidationResult) {
	path := dataString(n, "semanticPath")
	if path == "" {
		path = dataString(n, "yamlFile")
	}
	if path == "" {
		result.AddNodeError(n.ID, codeNoSemanticPath,
			"semantic model has no file path configured",
			"Select a semantic model YAML file from the catalog, or specify the stage path.")
		return
	}
	if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
		result.AddNodeWarning(n.ID, codeSemanticPathFormat,
			"semantic model path should end with .yaml or .yml",
			fmt.Sprintf("Check the file path: %s", path))
	}
}

func validateAgent(n schema.Node, g *schema.Graph, nodeByID map[string]schema.Node, result *schema.ValidationResult) {
	if dataString(n, "model") == "" {
		result.AddNodeWarning(n.ID, codeNoModelSelected,
			"agent has no model selected",
			"A default model will be used. For better results pick one explicitly.")
	}

	// Grounding check: a lone agent is fine, an agent in a multi-node
	// graph should have some upstream feeding it.
	if len(g.Nodes) <= 1 {
		return
	}
	hasDataInput := false
	hasAnyInput := false
	for _, e := range g.Edges {
		if e.Target != n.ID {
			continue
		}
		hasAnyInput = true
		src := nodeByID[e.Source].Kind
		if src == schema.KindDataSource || src == schema.KindSemanticModel ||
			src == schema.KindSupervisor || src == schema.KindRouter {
			hasDataInput = true
		}
	}
	if !hasDataInput && !hasAnyInput {
		result.AddNodeWarning(n.ID, codeAgentNoDataInput,
			"agent is not connected to a data source",
			"Connect a data source or semantic model to the agent for grounded responses.")
	}
}

func validateExternalAgent(n schema.Node, result *schema.ValidationResult) {
	if dataString(n, "endpoint") == "" {
		result.AddNodeError(n.ID, codeMissingEndpoint,
			"external agent has no endpoint configured",
			"Set the endpoint URL of the external API.")
	}
	if auth := dataString(n, "auth"); auth == "" || auth == "none" {
		result.AddNodeWarning(n.ID, codeNoAuthentication,
			"no authentication configured for external agent",
			"Most external APIs require authentication; configure it before running.")
	}
}

func validateRouter(n schema.Node, routes RouteChecker, result *schema.ValidationResult) {
	raw, _ := n.Data["routes"].([]any)
	if len(raw) == 0 {
		result.AddNodeError(n.ID, codeNoRoutes,
			"router has no routes configured",
			"Add at least one route with keywords or a match expression.")
		return
	}
	if routes == nil {
		return
	}
	for i, r := range raw {
		route, _ := r.(map[string]any)
		match, _ := route["match"].(string)
		if match == "" {
			continue
		}
		// Compile-check the expression against an empty message scope.
		if _, err := routes.Evaluate(context.Background(), match, map[string]any{"message": ""}); err != nil {
			result.AddNodeError(n.ID, codeBadRouteMatch,
				fmt.Sprintf("route %d match expression does not compile: %v", i, err),
				"Fix the match expression; it is evaluated against {message}.")
		}
	}
}

func validateOutput(n schema.Node, edges []schema.Edge, result *schema.ValidationResult) {
	for _, e := range edges {
		if e.Target == n.ID {
			return
		}
	}
	result.AddNodeError(n.ID, codeOutputDisconnected,
		"output has no input connection",
		"Connect an agent to the output node, or complete the wizard to auto-connect.")
}

func dataString(n schema.Node, key string) string {
	s, _ := n.Data[key].(string)
	return s
}
