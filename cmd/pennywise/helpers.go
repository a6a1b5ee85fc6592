package main

import (
	"context"
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/viper"

	"github.com/pennywise-app/pennywise/internal/common"
	"github.com/pennywise-app/pennywise/internal/config"
	"github.com/pennywise-app/pennywise/internal/engine"
	"github.com/pennywise-app/pennywise/internal/llm"
	"github.com/pennywise-app/pennywise/internal/patterns"
	"github.com/pennywise-app/pennywise/internal/retrieval"
	"github.com/pennywise-app/pennywise/internal/service"
	"github.com/pennywise-app/pennywise/internal/storage"
)

// initStorage opens the database and runs pending migrations.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/pennywise/pennywise.db"
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// resolveScope determines which user's data a command operates on: the
// --user flag or user.scope config, falling back to the OS username. Every
// data-touching command requires a scope; none means no access.
func resolveScope() (string, error) {
	scope := viper.GetString("user.scope")
	if scope == "" {
		if current, err := user.Current(); err == nil {
			scope = current.Username
		}
	}
	if scope == "" {
		return "", common.NewUserError("No user scope configured; pass --user or set user.scope", common.ErrUnauthorized)
	}
	return scope, nil
}

// llmConfig builds the provider configuration from viper settings and
// environment variables.
func llmConfig() (llm.Config, error) {
	provider := viper.GetString("llm.provider")
	if provider == "" {
		provider = "openai"
	}

	cfg := llm.Config{
		Provider:       provider,
		Model:          viper.GetString("llm.model"),
		EmbeddingModel: viper.GetString("llm.embedding_model"),
		Temperature:    viper.GetFloat64("llm.temperature"),
		MaxTokens:      viper.GetInt("llm.max_tokens"),
		RateLimit:      viper.GetInt("llm.rate_limit"),
	}

	switch provider {
	case "openai":
		apiKey := viper.GetString("llm.openai_api_key")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return llm.Config{}, fmt.Errorf("%w: OpenAI API key not found in config or OPENAI_API_KEY environment variable", common.ErrMissingConfig)
		}
		cfg.APIKey = apiKey

	case "anthropic":
		apiKey := viper.GetString("llm.anthropic_api_key")
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return llm.Config{}, fmt.Errorf("%w: Anthropic API key not found in config or ANTHROPIC_API_KEY environment variable", common.ErrMissingConfig)
		}
		cfg.APIKey = apiKey

	default:
		return llm.Config{}, fmt.Errorf("%w: unsupported LLM provider %q", common.ErrInvalidConfig, provider)
	}

	return cfg, nil
}

// createClassifier builds the AI classifier, or nil when no provider is
// configured. A nil classifier is fine: the engine degrades to its fallback
// tier instead of blocking imports.
func createClassifier() llm.Classifier {
	cfg, err := llmConfig()
	if err != nil {
		return nil
	}
	classifier, err := llm.NewClassifier(cfg)
	if err != nil {
		return nil
	}
	return classifier
}

// createEngine wires the categorization engine with the built-in pattern
// table and whatever classifier is available.
func createEngine(store service.Storage) *engine.Engine {
	return engine.New(store, patterns.Default(), createClassifier())
}

// createIndex builds the retrieval index, or nil when embeddings are not
// configured. Embeddings always go through OpenAI.
func createIndex(store service.Storage) *retrieval.Index {
	apiKey := viper.GetString("llm.openai_api_key")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil
	}

	embedder, err := llm.NewEmbedder(llm.Config{
		Provider:       "openai",
		APIKey:         apiKey,
		EmbeddingModel: viper.GetString("llm.embedding_model"),
		RateLimit:      viper.GetInt("llm.rate_limit"),
	})
	if err != nil {
		return nil
	}
	return retrieval.NewIndex(store, embedder)
}
