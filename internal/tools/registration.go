// Package tools holds the shared plumbing of the MCP tool surface:
// registration, result shaping, audit logging, and the confirmation
// prompt for gated tools.
package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Registration binds a tool definition to the handler that serves it.
// Each domain package exposes its tools as a slice of these; the server
// entrypoint concatenates the slices and installs them in one pass.
type Registration struct {
	Tool    mcp.Tool
	Handler server.ToolHandlerFunc
}

// RegisterAll installs every registration on s.
func RegisterAll(s *server.MCPServer, registrations []Registration) {
	for _, r := range registrations {
		s.AddTool(r.Tool, r.Handler)
	}
}
