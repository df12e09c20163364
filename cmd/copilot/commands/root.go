// ABOUTME: Root CLI command and global flags
// ABOUTME: Registers every subcommand and builds the app from configuration
package commands

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/harper/health-copilot/internal/app"
	"github.com/harper/health-copilot/internal/config"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	configPath   string
)

const banner = `
██╗  ██╗███████╗ █████╗ ██╗  ████████╗██╗  ██╗
██║  ██║██╔════╝██╔══██╗██║  ╚══██╔══╝██║  ██║
███████║█████╗  ███████║██║     ██║   ███████║
██╔══██║██╔══╝  ██╔══██║██║     ██║   ██╔══██║
██║  ██║███████╗██║  ██║███████╗██║   ██║  ██║
╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝╚══════╝╚═╝   ╚═╝  ╚═╝
               c o p i l o t`

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copilot",
		Short: "Ask questions about your own health records",
		Long: banner + `

Health Copilot keeps your medical records, lab results, prescriptions
and wearable summaries in a local knowledge base. Questions are answered
from the most relevant passages, each one cited back to its source.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && quiet {
				return errors.New("--verbose and --quiet are mutually exclusive")
			}
			switch outputFormat {
			case "auto", "table", "json":
			default:
				return fmt.Errorf("--format must be auto, table, or json, got %q", outputFormat)
			}
			if !verbose {
				log.SetFlags(0)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format (auto, table, json)")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml (default: $XDG_CONFIG_HOME/health-copilot/config.toml)")

	cmd.AddCommand(NewIngestCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewContextCmd())
	cmd.AddCommand(NewAskCmd())
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewDeleteCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig honors --config, falling back to the default lookup
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// openApp is replaced in tests with an in-memory knowledge base
var openApp = openConfiguredApp

// openConfiguredApp loads configuration and opens the knowledge base
func openConfiguredApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	a, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	if verbose {
		log.Printf("Using %s storage, %s embeddings (provider configured: %v)",
			cfg.StorageBackend, cfg.EmbeddingProvider, a.Embedder.UsingProvider())
	}
	return a, nil
}
