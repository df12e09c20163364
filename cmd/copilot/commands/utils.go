// ABOUTME: Shared utility functions for CLI commands
// ABOUTME: Text truncation, relative times, flag validation and JSON output
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// oneLine collapses whitespace so previews fit in a table cell
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// formatTime formats a time for display
func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	if diff < time.Minute {
		return "just now"
	} else if diff < time.Hour {
		mins := int(diff.Minutes())
		return fmt.Sprintf("%dm ago", mins)
	} else if diff < 24*time.Hour {
		hours := int(diff.Hours())
		return fmt.Sprintf("%dh ago", hours)
	} else if diff < 7*24*time.Hour {
		days := int(diff.Hours() / 24)
		return fmt.Sprintf("%dd ago", days)
	}
	return t.Format("2006-01-02")
}

// validateThreshold returns error if v is not a cosine similarity
func validateThreshold(v float64, name string) error {
	if v < -1 || v > 1 {
		return fmt.Errorf("%s must be between -1 and 1, got %g", name, v)
	}
	return nil
}

// wantJSON reports whether --format asked for JSON
func wantJSON() bool {
	return outputFormat == "json"
}

// writeJSON pretty-prints v
func writeJSON(w io.Writer, v interface{}) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", jsonData)
	return err
}
