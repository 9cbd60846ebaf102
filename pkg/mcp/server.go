// Package mcp exposes the operation catalog as MCP tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ormasoftchile/ollama-mcp/pkg/dispatch"
	"github.com/ormasoftchile/ollama-mcp/pkg/metrics"
)

// NewServer creates an MCP server with one tool per catalog operation.
func NewServer(version string, d *dispatch.Dispatcher, m *metrics.Metrics, log *zap.SugaredLogger) *server.MCPServer {
	s := server.NewMCPServer(
		"ollama-mcp",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	h := &Handler{Dispatcher: d, Metrics: m, Log: log}
	for _, desc := range d.Catalog.Descriptors() {
		s.AddTool(mcp.NewToolWithRawSchema(desc.Name, desc.Description, desc.Schema), h.Handle)
	}
	return s
}
