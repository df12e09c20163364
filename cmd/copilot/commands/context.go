// ABOUTME: CLI command to assemble cited context for a question
// ABOUTME: Shows exactly what a chat model would be given
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	contextMaxTokens int
)

// NewContextCmd creates the context command
func NewContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context <query>",
		Short: "Assemble cited context for a question",
		Long: `Gather the most relevant passages into one context block that fits
within a token budget. Every passage is followed by its source.

Examples:
  copilot context "what medications am I on"
  copilot context --max-tokens 500 "recent lab results"`,
		Args: cobra.ExactArgs(1),
		RunE: runContext,
	}

	cmd.Flags().IntVar(&contextMaxTokens, "max-tokens", 0, "Token budget (default: from config)")

	return cmd
}

func runContext(cmd *cobra.Command, args []string) error {
	if contextMaxTokens < 0 {
		return fmt.Errorf("max-tokens must not be negative, got %d", contextMaxTokens)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	result := a.Engine.GetContext(context.Background(), args[0], contextMaxTokens)

	if wantJSON() {
		return writeJSON(cmd.OutOrStdout(), result)
	}

	if result.Context == "" {
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "No relevant records found.")
		}
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Context)
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\n(%d source(s), ~%d tokens)\n", len(result.Citations), result.TokenCount)
	}
	return nil
}
