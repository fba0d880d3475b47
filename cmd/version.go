package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set via -ldflags at release build time.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("codeswap %s\n", Version)
		if commit := buildCommit(); commit != "" {
			fmt.Printf("  commit: %s\n", commit)
		}
		if Date != "" {
			fmt.Printf("  built:  %s\n", Date)
		}
	},
}

// buildCommit prefers the linker-set commit and falls back to the VCS
// revision stamped into the binary for plain `go install` builds.
func buildCommit() string {
	if Commit != "" {
		return Commit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
