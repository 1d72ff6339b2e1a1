// Package ai provides factory functions for constructing the embedding
// provider and LLM client collaborators from a base's and workspace's
// on-disk configuration.
package ai

import (
	"context"
	"fmt"
	"os"
	"time"

	ollamaembed "github.com/ragbase-labs/ragbase/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/ragbase-labs/ragbase/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/ragbase-labs/ragbase/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/ragbase-labs/ragbase/internal/adapters/driven/llm/ollama"
	openaillm "github.com/ragbase-labs/ragbase/internal/adapters/driven/llm/openai"
	"github.com/ragbase-labs/ragbase/internal/core/domain"
	"github.com/ragbase-labs/ragbase/internal/core/ports/driven"
	"github.com/ragbase-labs/ragbase/internal/embedding/trigram"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// stringOpt reads a string key out of a provider_config map, returning "" if
// absent or of the wrong type.
func stringOpt(cfg map[string]any, key string) string {
	if cfg == nil {
		return ""
	}
	v, _ := cfg[key].(string)
	return v
}

// floatOpt reads a numeric key out of a provider_config map as float64,
// returning 0 if absent. YAML unmarshals numbers into map[string]any as
// either int or float64 depending on literal form, so both are handled.
func floatOpt(cfg map[string]any, key string) float64 {
	if cfg == nil {
		return 0
	}
	switch v := cfg[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

// CreateEmbeddingProvider constructs the embedding provider named by cfg.
// The trigram provider is always available and requires no configuration;
// the ollama and openai providers read connection details from
// cfg.ProviderConfig ("base_url", "api_key_env", "requests_per_second").
func CreateEmbeddingProvider(cfg domain.EmbeddingConfig) (driven.EmbeddingProvider, error) {
	switch cfg.Provider {
	case "", "trigram":
		dims := cfg.Dimensions
		if dims == 0 {
			dims = 384
		}
		return trigram.New(dims), nil

	case "ollama":
		return ollamaembed.New(ollamaembed.Config{
			BaseURL:           stringOpt(cfg.ProviderConfig, "base_url"),
			Model:             cfg.Model,
			Dimensions:        cfg.Dimensions,
			RequestsPerSecond: floatOpt(cfg.ProviderConfig, "requests_per_second"),
		}), nil

	case "openai":
		apiKey := os.Getenv(stringOpt(cfg.ProviderConfig, "api_key_env"))
		p, err := openaiembed.New(openaiembed.Config{
			APIKey:            apiKey,
			BaseURL:           stringOpt(cfg.ProviderConfig, "base_url"),
			Model:             cfg.Model,
			Dimensions:        cfg.Dimensions,
			RequestsPerSecond: floatOpt(cfg.ProviderConfig, "requests_per_second"),
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedding provider: %w", err)
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// ValidateEmbeddingProvider constructs the provider and pings it, surfacing
// a connectivity error without leaving the caller to remember to close it.
func ValidateEmbeddingProvider(cfg domain.EmbeddingConfig) error {
	p, err := CreateEmbeddingProvider(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	return pingIfSupported(ctx, p)
}

// pingIfSupported pings p if it exposes a Ping method (trigram does not,
// since it has no network dependency to validate).
func pingIfSupported(ctx context.Context, p driven.EmbeddingProvider) error {
	type pinger interface {
		Ping(ctx context.Context) error
	}
	if pp, ok := p.(pinger); ok {
		return pp.Ping(ctx)
	}
	return nil
}

// CreateLLMClient constructs the LLM client named by cfg. APIKeyEnv, when
// set, names an environment variable holding the credential; the secret
// itself never appears in the config file.
func CreateLLMClient(cfg domain.LLMConfig) (driven.LLMClient, error) {
	switch cfg.Provider {
	case "", "ollama":
		return ollamallm.New(ollamallm.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil

	case "openai":
		c, err := openaillm.New(openaillm.Config{
			APIKey:  os.Getenv(cfg.APIKeyEnv),
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("openai llm client: %w", err)
		}
		return c, nil

	case "anthropic":
		c, err := anthropicllm.New(anthropicllm.Config{
			APIKey:  os.Getenv(cfg.APIKeyEnv),
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("anthropic llm client: %w", err)
		}
		return c, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// ValidateLLMClient constructs the client and pings it, closing it
// regardless of outcome.
func ValidateLLMClient(cfg domain.LLMConfig) error {
	c, err := CreateLLMClient(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	return c.Ping(ctx)
}
