// Package mcp exposes the structurizer over the Model Context
// Protocol so editor tooling can request pseudo-code for lifted
// modules.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all fcd MCP tools with the server
func RegisterTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("structurize_module",
		mcp.WithDescription("Recover structured pseudo-code from a lifted module description file"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a module description file or a directory containing them")),
		mcp.WithString("format",
			mcp.Description("Output format: text, json or yaml (default: text)")),
		mcp.WithString("sort",
			mcp.Description("Function ordering: address or name (default: address)")),
	), HandleStructurizeModule)

	s.AddTool(mcp.NewTool("list_functions",
		mcp.WithDescription("List the functions declared in a lifted module description file"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a module description file")),
	), HandleListFunctions)
}
