// ABOUTME: Main entry point for the Health Copilot MCP server with stdio transport
// ABOUTME: Loads configuration, opens the knowledge base and serves all tools
package main

import (
	"log"
	"os"

	"github.com/harper/health-copilot/internal/app"
	"github.com/harper/health-copilot/internal/config"
	"github.com/harper/health-copilot/internal/mcp"
	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Set by goreleaser
var version = "dev"

func main() {
	// stdout belongs to the protocol
	log.SetOutput(os.Stderr)

	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (this is okay for production): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if !cfg.HasProviderCredential() {
		log.Println("Warning: no embedding provider credential set - search quality will be limited to fallback embeddings")
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() { _ = a.Close() }()

	server := mcp.NewServer(version, a.Engine, a.Copilot)

	log.Println("Health Copilot MCP server starting on stdio...")
	if err := mcpserver.ServeStdio(server); err != nil {
		log.Printf("Server error: %v", err)
	}
}
