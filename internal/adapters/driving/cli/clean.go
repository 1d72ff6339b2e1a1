package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [base]",
	Short: "Drop a base's index while preserving its configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	if ragOrchestrator == nil {
		return errors.New("rag orchestrator not configured")
	}

	base := args[0]
	if err := ragOrchestrator.Clean(cmd.Context(), base); err != nil {
		return fmt.Errorf("clean failed: %w", err)
	}

	cmd.Printf("Base %s cleaned.\n", base)
	return nil
}
