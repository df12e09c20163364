// ABOUTME: Main entry point for the Health Copilot CLI
// ABOUTME: Loads .env, sets version info and executes the Cobra root command
package main

import (
	"fmt"
	"os"

	"github.com/harper/health-copilot/cmd/copilot/commands"
	"github.com/joho/godotenv"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Load .env for API keys; a missing file is fine
	_ = godotenv.Load()

	commands.SetVersion(version, commit, date)

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
