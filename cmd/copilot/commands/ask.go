// ABOUTME: CLI command to ask a question about your health records
// ABOUTME: Answers with a chat model when configured, otherwise prints the prompt
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	askMaxTokens  int
	askShowPrompt bool
)

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about your health records",
		Long: `Answer a question from your own records, citing the sources used.

Requires OPENAI_API_KEY for the answer itself. Without it the assembled
prompt is printed so it can be pasted into any chat model.

Examples:
  copilot ask "Am I allergic to any antibiotics?"
  copilot ask --show-prompt "How has my LDL changed?"`,
		Args: cobra.ExactArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().IntVar(&askMaxTokens, "max-tokens", 0, "Token budget for retrieved context (default: from config)")
	cmd.Flags().BoolVar(&askShowPrompt, "show-prompt", false, "Print the prompt sent to the chat model")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askMaxTokens < 0 {
		return fmt.Errorf("max-tokens must not be negative, got %d", askMaxTokens)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	answer, err := a.Copilot.Ask(context.Background(), args[0], askMaxTokens)
	if err != nil {
		return err
	}

	if wantJSON() {
		return writeJSON(cmd.OutOrStdout(), answer)
	}

	out := cmd.OutOrStdout()
	if askShowPrompt || !a.Copilot.CanComplete() {
		if !a.Copilot.CanComplete() && !quiet {
			fmt.Fprintln(out, "No chat model configured (set OPENAI_API_KEY). Prompt:")
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, answer.Prompt.String())
		if answer.Text == "" {
			return nil
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, answer.Text)

	if !quiet && len(answer.Citations) > 0 {
		fmt.Fprintln(out, "\nSources:")
		for i, c := range answer.Citations {
			fmt.Fprintf(out, "  %d. %s\n", i+1, c.Label)
		}
	}
	return nil
}
