// ABOUTME: Version command reporting build and runtime details
// ABOUTME: Prints release, commit, build date, Go toolchain and storage schema version
package commands

import (
	"fmt"
	"runtime"

	"github.com/harper/health-copilot/internal/storage/sqlite"
	"github.com/spf13/cobra"
)

var versionInfo = VersionInfo{
	Version: "dev",
	Commit:  "none",
	Date:    "unknown",
}

// VersionInfo is stamped at release time
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// SetVersion is called from main with linker-provided values
func SetVersion(version, commit, date string) {
	versionInfo = VersionInfo{Version: version, Commit: commit, Date: date}
}

type versionReport struct {
	VersionInfo
	GoVersion     string `json:"go_version"`
	Platform      string `json:"platform"`
	SchemaVersion int    `json:"schema_version"`
}

func currentVersionReport() versionReport {
	return versionReport{
		VersionInfo:   versionInfo,
		GoVersion:     runtime.Version(),
		Platform:      runtime.GOOS + "/" + runtime.GOARCH,
		SchemaVersion: sqlite.SchemaVersion,
	}
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the Health Copilot release, commit, build date and the knowledge base schema version.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			report := currentVersionReport()
			out := cmd.OutOrStdout()
			if wantJSON() {
				return writeJSON(out, report)
			}

			fmt.Fprintf(out, "Health Copilot %s\n", report.Version)
			fmt.Fprintf(out, "Commit: %s\n", report.Commit)
			fmt.Fprintf(out, "Built:  %s\n", report.Date)
			fmt.Fprintf(out, "Go:     %s (%s)\n", report.GoVersion, report.Platform)
			fmt.Fprintf(out, "Schema: v%d\n", report.SchemaVersion)
			return nil
		},
	}
}
