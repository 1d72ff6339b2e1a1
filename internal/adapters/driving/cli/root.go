// Package cli implements the ragbase command line: learn, ask, clean, and
// stats subcommands driving a single RagOrchestrator instance wired up by
// main at startup.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/ragbase-labs/ragbase/internal/core/ports/driving"
)

// version is overwritten at build time via -ldflags.
var version = "dev"

// ragOrchestrator is injected by Configure before Execute is called. Every
// subcommand guards against a nil value so tests can exercise flag parsing
// and usage text without a live orchestrator.
var ragOrchestrator driving.RagOrchestrator

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "ragbase",
	Short:         "A workspace-local retrieval-augmented question answering tool",
	Long:          `ragbase learns source files, URLs, and zip archives into named knowledge bases and answers questions against them, entirely within the current workspace.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Configure wires the orchestrator the subcommands call into. Must be
// called before Execute.
func Configure(orch driving.RagOrchestrator) {
	ragOrchestrator = orch
}

// SetVersion overrides the version reported by the version subcommand.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command, dispatching to whichever subcommand was
// invoked.
func Execute() error {
	return rootCmd.Execute()
}
