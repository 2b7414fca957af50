package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"github.com/C-Loftus/atspi-tree-visualizer/internal/atspi"
	"github.com/C-Loftus/atspi-tree-visualizer/internal/version"
)

// MCPConfig holds MCP server configuration.
type MCPConfig struct {
	Transport string
	Port      int
	CacheTTL  time.Duration
}

// mcpServer exposes the read-only observation tools over MCP.
type mcpServer struct {
	sess  *atspi.Session
	cache *snapshotCache
	log   *slog.Logger
	mcp   *mcpserver.MCPServer
}

func newMCPServer(cfg MCPConfig) (*mcpServer, error) {
	log := slog.Default()
	sess, err := atspi.NewSession(context.Background(), log)
	if err != nil {
		return nil, fmt.Errorf("accessibility session: %w", err)
	}

	s := &mcpServer{
		sess:  sess,
		cache: newSnapshotCache(cfg.CacheTTL),
		log:   log,
	}
	s.mcp = mcpserver.NewMCPServer("atspi-tree-visualizer", version.Version)
	s.registerTools()
	return s, nil
}

func (s *mcpServer) close() error {
	return s.sess.Close()
}

// serve starts the MCP server with the configured transport.
func (s *mcpServer) serve(cfg MCPConfig) error {
	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *mcpServer) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("apps",
			mcp.WithDescription("List applications registered with the desktop's accessibility registry"),
		),
		s.handleApps,
	)

	s.mcp.AddTool(
		mcp.NewTool("snapshot",
			mcp.WithDescription("Walk one application's accessibility subtree and return every element currently showing on screen, with role, name, and screen-space bounds"),
			mcp.WithString("app", mcp.Description("Application name (exact or unique substring)"), mcp.Required()),
		),
		s.handleSnapshot,
	)
}

// resultToText serializes a tool result to YAML for the MCP response.
func resultToText(v interface{}) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	return string(b)
}

func (s *mcpServer) handleApps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	apps, err := s.sess.Applications(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entries := make([]appEntry, 0, len(apps))
	for _, app := range apps {
		entries = append(entries, appEntry{
			Name:   app.Name,
			Sender: app.Ref.Sender,
			Path:   app.Ref.Path,
		})
	}
	return mcp.NewToolResultText(resultToText(entries)), nil
}

// stringParam reads an optional string argument from an MCP request.
func stringParam(params map[string]interface{}, key, fallback string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return fallback
}

func (s *mcpServer) handleSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	appName := stringParam(request.GetArguments(), "app", "")
	if appName == "" {
		return mcp.NewToolResultError("app is required"), nil
	}

	result, err := s.cache.get(appName, func() (SnapshotResult, error) {
		return buildSnapshot(ctx, s.sess, s.log, appName)
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(resultToText(result)), nil
}
