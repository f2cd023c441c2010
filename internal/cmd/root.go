// Package cmd implements the fernanda CLI surface (§6.4, §6.5), grounded
// on the teacher's internal/cmd/root.go persistent-flag + subcommand
// layout (root.go, mount.go, version.go under a single Cobra root).
package cmd

import (
	"github.com/spf13/cobra"
)

// devMenu mirrors the "-dev" flag named in §6.4: enables the developer
// menu surface. The engine core has no menu of its own, so this is
// surfaced to callers (pkg/fernanda consumers, other commands) via
// DevMenuEnabled rather than acted on here.
var devMenu bool

var rootCmd = &cobra.Command{
	Use:   "fernanda",
	Short: "A notebook engine for long-form fiction drafting",
	Long:  `Fernanda stores a project as a single self-contained 7zip archive (".fnx") rather than a directory tree.`,
}

// Execute runs the fernanda CLI, returning any error from command
// dispatch. Callers (cmd/fernanda/main.go) are responsible for turning a
// non-nil error into a non-zero process exit; §6.5 names only exit code
// 0 explicitly, for the normal-exit and deferred-to-first-instance
// cases.
func Execute() error {
	return rootCmd.Execute()
}

// DevMenuEnabled reports whether -dev was passed on the command line.
func DevMenuEnabled() bool { return devMenu }

func init() {
	rootCmd.PersistentFlags().BoolVar(&devMenu, "dev", false, "enable the developer menu surface")
}
