// ABOUTME: Builds the health copilot MCP server with every tool registered
// ABOUTME: Shared by the copilot mcp subcommand and the standalone server binary
package mcp

import (
	"github.com/harper/health-copilot/internal/core"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ServerName is advertised to MCP clients during initialization
const ServerName = "Health Copilot"

// NewServer creates an MCP server exposing engine (and copilot, when it can
// complete) as tools
func NewServer(version string, engine *core.Engine, copilot *core.Copilot) *mcpserver.MCPServer {
	if version == "" {
		version = "dev"
	}
	server := mcpserver.NewMCPServer(
		ServerName,
		version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)
	RegisterTools(server, engine, copilot)
	return server
}
