package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragbase-labs/ragbase/internal/core/ports/driving"
	"github.com/ragbase-labs/ragbase/internal/logger"
)

var askTopK int

var askCmd = &cobra.Command{
	Use:   "ask [base] [query]",
	Short: "Ask a question against a knowledge base",
	Long: `Embeds the query, retrieves the most relevant chunks from the base,
and synthesises an answer grounded in those chunks. Reports the canonical
"no information" answer when nothing clears the relevance threshold.`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVar(&askTopK, "top-k", 0, "number of chunks to retrieve (0 uses the default of 5)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if ragOrchestrator == nil {
		return errors.New("rag orchestrator not configured")
	}
	logger.SetVerbose(verbose)

	base, query := args[0], args[1]

	resp, err := ragOrchestrator.Ask(cmd.Context(), driving.AskRequest{
		Base:  base,
		Query: query,
		TopK:  askTopK,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	cmd.Println(resp.Answer)
	if len(resp.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, s := range resp.Sources {
			cmd.Printf("  - %s (%s)\n", s.Source, s.Location)
		}
	}
	return nil
}
