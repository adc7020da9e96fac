package mcp

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kasuganosora/gridsource/pkg/config"
	"github.com/kasuganosora/gridsource/pkg/logger"
	"github.com/kasuganosora/gridsource/pkg/resource/application"
	"github.com/kasuganosora/gridsource/pkg/window"
)

const mcpEndpoint = "/mcp"

// Server is the MCP protocol server
type Server struct {
	cfg    *config.MCPConfig
	deps   *ToolDeps
	logger logger.Logger

	// httpServer is nil for the stdio transport
	httpServer *http.Server
}

// NewServer creates a new MCP server
func NewServer(cfg *config.Config, datasets *application.Registry, resolver *window.Resolver, l logger.Logger) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	if resolver == nil {
		resolver = window.NewResolver(window.WithLogger(l), window.WithPushdown(cfg.Window.Pushdown))
	}
	s := &Server{
		cfg:    &cfg.MCP,
		logger: l,
		deps: &ToolDeps{
			Datasets: datasets,
			Resolver: resolver,
			Limits: window.Limits{
				MaxEndRow:   cfg.Window.MaxEndRow,
				MaxPageSize: cfg.Window.MaxPageSize,
			},
			Logger: l,
		},
	}
	if cfg.MCP.Transport == "http" {
		mux := http.NewServeMux()
		mux.Handle(mcpEndpoint, mcpserver.NewStreamableHTTPServer(s.MCPServer(), mcpserver.WithEndpointPath(mcpEndpoint)))
		s.httpServer = &http.Server{Addr: cfg.MCP.Addr, Handler: mux}
	}
	return s
}

// MCPServer builds the protocol server with all tools registered
func (s *Server) MCPServer() *mcpserver.MCPServer {
	mcpSrv := mcpserver.NewMCPServer(
		"gridsource",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)

	listTool := mcp.NewTool("list_datasets",
		mcp.WithDescription("List the available datasets with their column definitions"),
	)

	rowsTool := mcp.NewTool("get_rows",
		mcp.WithDescription("Return rows [start_row, end_row) of a dataset after filtering and sorting, plus the total number of matching rows"),
		mcp.WithString("dataset", mcp.Description("The dataset name"), mcp.Required()),
		mcp.WithNumber("start_row", mcp.Description("First row of the window, inclusive (default 0)")),
		mcp.WithNumber("end_row", mcp.Description("End of the window, exclusive"), mcp.Required()),
		mcp.WithObject("filter_model", mcp.Description(`Grid filter model keyed by field, e.g. {"make": {"filterType": "text", "type": "contains", "filter": "o"}}`)),
		mcp.WithArray("sort_model", mcp.Description(`Sort specs in priority order, e.g. [{"colId": "price", "sort": "desc"}]`)),
	)

	updateTool := mcp.NewTool("update_row",
		mcp.WithDescription("Set one field of the row with the given id in a writable dataset and return the stored row"),
		mcp.WithString("dataset", mcp.Description("The dataset name"), mcp.Required()),
		mcp.WithString("id", mcp.Description("Value of the row's id field"), mcp.Required()),
		mcp.WithString("field", mcp.Description("The field to change; it must already exist on the row"), mcp.Required()),
		mcp.WithAny("value", mcp.Description("The new value")),
	)

	mcpSrv.AddTool(listTool, s.deps.HandleListDatasets)
	mcpSrv.AddTool(rowsTool, s.deps.HandleGetRows)
	mcpSrv.AddTool(updateTool, s.deps.HandleUpdateRow)
	return mcpSrv
}

// Start starts the MCP server on the configured transport (blocking)
// 正常关闭时返回 nil
func (s *Server) Start(ctx context.Context) error {
	if s.httpServer != nil {
		s.logger.Info("[MCP] 启动 MCP 服务器: %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	s.logger.Info("[MCP] 启动 MCP 服务器: stdio")
	return mcpserver.NewStdioServer(s.MCPServer()).Listen(ctx, os.Stdin, os.Stdout)
}

// Shutdown stops the HTTP transport; the stdio transport stops with its context
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
