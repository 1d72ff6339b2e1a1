// Command ragbase runs the ragbase CLI: learn, ask, clean, and stats over a
// workspace-local knowledge base.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ragbase-labs/ragbase/internal/adapters/driven/ai"
	"github.com/ragbase-labs/ragbase/internal/adapters/driven/config/file"
	"github.com/ragbase-labs/ragbase/internal/adapters/driven/exec"
	"github.com/ragbase-labs/ragbase/internal/adapters/driven/workspace"
	"github.com/ragbase-labs/ragbase/internal/adapters/driving/cli"
	"github.com/ragbase-labs/ragbase/internal/baseconfig"
	"github.com/ragbase-labs/ragbase/internal/core/domain"
	"github.com/ragbase-labs/ragbase/internal/core/ports/driven"
	"github.com/ragbase-labs/ragbase/internal/core/services"
	"github.com/ragbase-labs/ragbase/internal/embedding"
	"github.com/ragbase-labs/ragbase/internal/logger"
	"github.com/ragbase-labs/ragbase/internal/vectorindex"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	root, err := workspaceRoot()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	paths := workspace.New(root)
	configs := baseconfig.New(paths)

	engine := embedding.NewEngine(func(cfg domain.EmbeddingConfig) (driven.EmbeddingProvider, error) {
		return ai.CreateEmbeddingProvider(cfg)
	})

	orch := services.NewRagOrchestrator(
		paths,
		configs,
		engine,
		func(dbPath string) (driven.VectorIndex, error) { return vectorindex.Open(dbPath) },
		func(cfg domain.LLMConfig) (driven.LLMClient, error) { return ai.CreateLLMClient(cfg) },
		file.NewPromptProvider(paths.PromptsDir()),
		exec.New(),
	)

	cli.SetVersion(version)
	cli.Configure(orch)

	if err := cli.Execute(); err != nil {
		logger.Debug("command failed: %v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// workspaceRoot resolves the workspace directory: $RAGBASE_WORKSPACE if
// set, otherwise the current directory.
func workspaceRoot() (string, error) {
	if v := os.Getenv("RAGBASE_WORKSPACE"); v != "" {
		return filepath.Abs(v)
	}
	return os.Getwd()
}
