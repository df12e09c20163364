// ABOUTME: CLI command to mirror a folder of record files into the knowledge base
// ABOUTME: Scans once, then re-ingests or deletes files as they change
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harper/health-copilot/internal/watch"
)

var (
	watchNoScan bool
)

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Keep a folder of records in sync",
		Long: `Watch a folder of health record files (PDF, text, Markdown, CSV).

Every supported file is ingested on start. New or changed files are
re-ingested and removed files are deleted from the knowledge base.
Subfolders are followed, including ones created while watching.
Hidden files and folders are ignored. Stop with Ctrl-C.

Example:
  copilot watch ~/Documents/health`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().BoolVar(&watchNoScan, "no-scan", false, "Skip the initial scan")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := watch.New(a.Engine, dir)
	out := cmd.OutOrStdout()

	if !watchNoScan {
		changes, err := w.Scan(ctx)
		for _, c := range changes {
			reportChange(out, c)
		}
		if err != nil {
			return err
		}
	}

	if !quiet {
		fmt.Fprintf(out, "Watching %s for changes...\n", dir)
	}
	return w.Run(ctx, func(c watch.Change) { reportChange(out, c) })
}

func reportChange(out io.Writer, c watch.Change) {
	switch c.Type {
	case watch.ChangeIngested:
		if !quiet {
			fmt.Fprintf(out, "✓ Ingested %s (%d chunk(s))\n", c.Path, c.Chunks)
		}
	case watch.ChangeDeleted:
		if !quiet {
			fmt.Fprintf(out, "✓ Deleted %s\n", c.Path)
		}
	case watch.ChangeFailed:
		fmt.Fprintf(out, "✗ %s: %v\n", c.Path, c.Err)
	}
}
