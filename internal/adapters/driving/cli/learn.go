package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/ragbase-labs/ragbase/internal/core/ports/driving"
	"github.com/ragbase-labs/ragbase/internal/logger"
	"github.com/ragbase-labs/ragbase/internal/progress"
)

var (
	learnReset   bool
	learnInclude []string
	learnExclude []string
	learnWatch   bool
)

// watchDebounce coalesces bursts of filesystem events (editors that write a
// temp file then rename it) into a single relearn.
const watchDebounce = 500 * time.Millisecond

var learnCmd = &cobra.Command{
	Use:   "learn [base] [source...]",
	Short: "Learn sources into a knowledge base",
	Long: `Ingests one or more files, directories, URLs, or zip archives into
the named base, chunking, embedding, and indexing every document found.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runLearn,
}

func init() {
	learnCmd.Flags().BoolVar(&learnReset, "reset", false, "discard the base's existing index before learning")
	learnCmd.Flags().StringSliceVar(&learnInclude, "include", nil, "glob patterns to include (repeatable)")
	learnCmd.Flags().StringSliceVar(&learnExclude, "exclude", nil, "glob patterns to exclude (repeatable)")
	learnCmd.Flags().BoolVar(&learnWatch, "watch", false, "keep running and relearn local sources on change")
	rootCmd.AddCommand(learnCmd)
}

func runLearn(cmd *cobra.Command, args []string) error {
	if ragOrchestrator == nil {
		return errors.New("rag orchestrator not configured")
	}
	logger.SetVerbose(verbose)

	base := args[0]
	sources := args[1:]

	if err := learnOnce(cmd, base, sources); err != nil {
		return err
	}
	if !learnWatch {
		return nil
	}
	return watchAndRelearn(cmd, base, sources)
}

func learnOnce(cmd *cobra.Command, base string, sources []string) error {
	sink := progress.Sink(func(e progress.Event) {
		cmd.Println(e.FormatSimple())
	})

	result, err := ragOrchestrator.Learn(cmd.Context(), driving.LearnRequest{
		Base:     base,
		Args:     sources,
		Reset:    learnReset,
		Include:  learnInclude,
		Exclude:  learnExclude,
		Progress: sink,
	})
	if err != nil {
		return fmt.Errorf("learn failed: %w", err)
	}

	cmd.Printf("Learned %d source(s), %d chunk(s) indexed", result.SourcesLearned, result.ChunksIndexed)
	if result.SourcesFailed > 0 {
		cmd.Printf(" (%d failed)", result.SourcesFailed)
	}
	cmd.Println()
	return nil
}

// watchAndRelearn watches every local directory or file among sources
// (http:// and https:// sources are skipped; zip archives are watched as
// files) and re-runs learnOnce with the command's flags, --reset included,
// whenever the tree changes, until the command's context is done.
func watchAndRelearn(cmd *cobra.Command, base string, sources []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	watchable := 0
	for _, s := range sources {
		if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
			continue
		}
		if err := addWatchRecursive(watcher, s); err != nil {
			return fmt.Errorf("watch %s: %w", s, err)
		}
		watchable++
	}
	if watchable == 0 {
		cmd.Println("no local sources to watch")
		return nil
	}
	cmd.Println("watching for changes, press Ctrl+C to stop")

	var timer *time.Timer
	relearn := func() {
		if err := learnOnce(cmd, base, sources); err != nil {
			cmd.PrintErrln(err)
		}
	}

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, relearn)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cmd.PrintErrln(fmt.Errorf("watch error: %w", err))
		}
	}
}

func addWatchRecursive(watcher *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return watcher.Add(root)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return watcher.Add(root)
	}
	if err := watcher.Add(root); err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := addWatchRecursive(watcher, root+string(os.PathSeparator)+e.Name()); err != nil {
				return err
			}
		}
	}
	return nil
}
