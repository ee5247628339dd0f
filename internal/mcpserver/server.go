package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all operator tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("socialseed", "2.0.0")
	client := NewAPIClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolListPendingApprovals, h.HandleListPendingApprovals)
	s.AddTool(ToolApproveAction, h.HandleApproveAction)
	s.AddTool(ToolRejectAction, h.HandleRejectAction)
	s.AddTool(ToolListAccounts, h.HandleListAccounts)
	s.AddTool(ToolGetAccountHealth, h.HandleGetAccountHealth)
	s.AddTool(ToolGetActionHistory, h.HandleGetActionHistory)
	s.AddTool(ToolGetPlatformHealth, h.HandleGetPlatformHealth)
	s.AddTool(ToolGetDashboard, h.HandleGetDashboard)

	return s
}
