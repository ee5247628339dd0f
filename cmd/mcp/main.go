// SocialSeed MCP Server - Exposes operator controls as MCP tools for LLMs
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/socialseed/socialseed/internal/mcpserver"
)

func main() {
	cfg := mcpserver.Config{
		APIURL:      envOrDefault("SOCIALSEED_API_URL", "http://localhost:8080"),
		AdminSecret: os.Getenv("SOCIALSEED_ADMIN_SECRET"),
		Approver:    envOrDefault("SOCIALSEED_APPROVER", "mcp-operator"),
	}

	s := mcpserver.NewMCPServer(cfg)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
