package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats [base]",
	Short: "Show a base's aggregate statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	if ragOrchestrator == nil {
		return errors.New("rag orchestrator not configured")
	}

	base := args[0]
	stats, sources, err := ragOrchestrator.Stats(cmd.Context(), base)
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	if statsJSON {
		data, err := json.MarshalIndent(struct {
			Stats   any `json:"stats"`
			Sources any `json:"sources"`
		}{stats, sources}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Base: %s\n", stats.BaseName)
	cmd.Printf("  Sources:  %d\n", stats.TotalSources)
	cmd.Printf("  Chunks:   %d\n", stats.TotalChunks)
	cmd.Printf("  Bytes:    %d\n", stats.TotalBytes)
	cmd.Printf("  Disk:     %d\n", stats.DiskBytes)
	cmd.Printf("  Embedder: %s (%s)\n", stats.EmbeddingProvider, stats.EmbeddingModel)
	if !stats.LastLearnAt.IsZero() {
		cmd.Printf("  Last learn: %s\n", stats.LastLearnAt.Format("2006-01-02 15:04:05"))
	}
	if len(sources) > 0 {
		cmd.Println("\n  Tracked sources:")
		for _, s := range sources {
			cmd.Printf("    %s (%s, %d chunks)\n", s.Path, s.Type, s.ChunkCount)
		}
	}
	return nil
}
