package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/stackflowhq/stackflow/internal/expressions"
	"github.com/stackflowhq/stackflow/internal/store"
	"github.com/stackflowhq/stackflow/internal/validation"
	"github.com/stackflowhq/stackflow/internal/wizard"
)

// StackflowServerDeps holds the dependencies for creating a StackflowServer.
type StackflowServerDeps struct {
	Wizard    *wizard.Service
	Store     store.Store
	Validator *validation.GraphValidator
	Queries   *expressions.GoJQEngine
	Logger    *slog.Logger
}

// StackflowServer wraps an MCP server with stackflow-specific tool handlers.
type StackflowServer struct {
	wizard    *wizard.Service
	store     store.Store
	validator *validation.GraphValidator
	queries   *expressions.GoJQEngine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewStackflowServer creates a new StackflowServer with all 7 tools registered.
func NewStackflowServer(deps StackflowServerDeps) *StackflowServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	s := &StackflowServer{
		wizard:    deps.Wizard,
		store:     deps.Store,
		validator: deps.Validator,
		queries:   deps.Queries,
		logger:    logger,
	}

	mcpSrv := server.NewMCPServer(
		"stackflow",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Stackflow is a guided stack synthesis engine. Use stackflow.enter to open a stack, stackflow.resolve to settle a preexisting-workflow decision, stackflow.apply to advance the wizard configuration, stackflow.get to fetch a stored stack, stackflow.validate to run the validation pipeline, stackflow.compose to lay out and connect a free-form node list, and stackflow.query to run jq expressions over the stored graph."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *StackflowServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *StackflowServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the 7 registered MCP tools as ServerTool entries.
func (s *StackflowServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: enterTool(), Handler: s.handleEnter},
		{Tool: resolveTool(), Handler: s.handleResolve},
		{Tool: applyTool(), Handler: s.handleApply},
		{Tool: getTool(), Handler: s.handleGet},
		{Tool: validateTool(), Handler: s.handleValidate},
		{Tool: composeTool(), Handler: s.handleCompose},
		{Tool: queryTool(), Handler: s.handleQuery},
	}
}

// --- Tool definitions ---

func enterTool() mcp.Tool {
	return mcp.NewTool("stackflow.enter",
		mcp.WithDescription("Open a named stack in the wizard. Returns the extracted configuration, the stored graph, and whether a preexisting-workflow decision is pending"),
		mcp.WithString("stack", mcp.Required(), mcp.Description("Name of the stack to open")),
	)
}

func resolveTool() mcp.Tool {
	return mcp.NewTool("stackflow.resolve",
		mcp.WithDescription("Resolve a pending preexisting-workflow decision. Discard clears the stored graph; preserve keeps it"),
		mcp.WithString("stack", mcp.Required(), mcp.Description("Name of the stack")),
		mcp.WithString("choice", mcp.Required(),
			mcp.Enum("discard", "preserve"),
			mcp.Description("What to do with the preexisting workflow"),
		),
	)
}

func applyTool() mcp.Tool {
	return mcp.NewTool("stackflow.apply",
		mcp.WithDescription("Apply a wizard configuration to a stack: synthesizes the managed graph, reconciles it with user content, and commits the result atomically"),
		mcp.WithString("stack", mcp.Required(), mcp.Description("Name of the stack")),
		mcp.WithObject("config", mcp.Required(), mcp.Description("Wizard configuration: useSemantic, orchestration (single|supervisor|router|external), channel (snowflake_intelligence|api|slack|teams), progress (0-4)")),
		mcp.WithObject("overrides", mcp.Description("Per-node data overrides keyed by managed node id; a 'position' key inside an entry overrides that node's position")),
	)
}

func getTool() mcp.Tool {
	return mcp.NewTool("stackflow.get",
		mcp.WithDescription("Fetch a stored stack: its graph and the configuration recoverable from it"),
		mcp.WithString("stack", mcp.Required(), mcp.Description("Name of the stack to fetch")),
	)
}

func validateTool() mcp.Tool {
	return mcp.NewTool("stackflow.validate",
		mcp.WithDescription("Run the validation pipeline (structural, semantic, graph shape) over a stored stack or an inline graph"),
		mcp.WithString("stack", mcp.Description("Name of a stored stack to validate")),
		mcp.WithObject("graph", mcp.Description("Inline graph document to validate instead of a stored stack")),
	)
}

func composeTool() mcp.Tool {
	return mcp.NewTool("stackflow.compose",
		mcp.WithDescription("Auto-layout a free-form node list into layered columns and derive the standard connection topology"),
		mcp.WithObject("graph", mcp.Required(), mcp.Description("Graph document with a 'nodes' array; positions and edges are computed")),
	)
}

func queryTool() mcp.Tool {
	return mcp.NewTool("stackflow.query",
		mcp.WithDescription("Evaluate a jq expression against a stored stack's graph document ({name, nodes, edges})"),
		mcp.WithString("stack", mcp.Required(), mcp.Description("Name of the stack to query")),
		mcp.WithString("expression", mcp.Required(), mcp.Description("jq expression, e.g. '.nodes[] | select(.type == \"agent\") | .id'")),
	)
}
