// Package cli provides the command-line interface for Recall.
// Commands are registered on the root command in their init functions;
// services are wired lazily by the commands that need them.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall-cli/internal/adapters/driven/ai"
	configfile "github.com/custodia-labs/recall-cli/internal/adapters/driven/config/file"
	storagememory "github.com/custodia-labs/recall-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recall-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/recall-cli/internal/adapters/driven/tokens"
	vectormemory "github.com/custodia-labs/recall-cli/internal/adapters/driven/vectorstore/memory"
	vectorqdrant "github.com/custodia-labs/recall-cli/internal/adapters/driven/vectorstore/qdrant"
	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driving"
	"github.com/custodia-labs/recall-cli/internal/core/services"
	"github.com/custodia-labs/recall-cli/internal/logger"
	"github.com/custodia-labs/recall-cli/internal/strategies"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	flagVerbose bool
	flagUser    string
)

// Package-level services, wired by initPipeline.
var (
	configStore     driven.ConfigStore
	ingestService   driving.ContentIngestor
	contextService  driving.ContextProvider
	categoryService *services.CategoryService

	closers []func() error
)

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Personal content memory with semantic retrieval",
	Long: `Recall ingests documents, notes, and activities into a searchable
vector index and retrieves the most relevant context for a query
within a token budget.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "user ID (defaults to configured user.id)")
}

// Execute runs the root command.
func Execute() {
	defer closeServices()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeServices()
		os.Exit(1)
	}
}

// initConfig loads the config store. Idempotent.
func initConfig() error {
	if configStore != nil {
		return nil
	}

	store, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	configStore = store
	return nil
}

// initPipeline wires the full ingestion and retrieval stack. Idempotent;
// commands that talk to the index call it at the top of their RunE.
func initPipeline(ctx context.Context) error {
	if ingestService != nil {
		return nil
	}
	if err := initConfig(); err != nil {
		return err
	}

	embedder, err := ai.CreateAndValidateEmbeddingService(embeddingSettings())
	if err != nil {
		return err
	}
	if embedder == nil {
		return errors.New("no embedding provider configured. Run 'recall config wizard' to set one up")
	}
	closers = append(closers, embedder.Close)
	logger.Debug("Embedding service ready: %s (%d dimensions)", embedder.ModelName(), embedder.Dimensions())

	// The analyzer is optional; ingestion degrades to defaults without it.
	analyzer, err := ai.CreateAnalyzer(analyzerSettings())
	if err != nil {
		logger.Warn("Analyzer unavailable: %v", err)
		analyzer = nil
	}
	if analyzer != nil {
		closers = append(closers, analyzer.Close)
	}

	vectorStore, err := openVectorStore(ctx, embedder.Dimensions())
	if err != nil {
		return err
	}
	closers = append(closers, vectorStore.Close)

	if err := initMetadata(); err != nil {
		return err
	}

	registry := strategies.NewRegistry(strategies.Deps{
		Analyzer: analyzer,
		Embedder: embedder,
		Store:    vectorStore,
	})

	ingestService = services.NewContentOrchestrator(registry, categoryService)
	contextService = services.NewContextOptimizer(embedder, vectorStore, newTokenEstimator())

	return nil
}

// initMetadata wires the SQLite metadata store and the category
// service. Idempotent; lighter than initPipeline for commands that
// never touch the vector index.
func initMetadata() error {
	if categoryService != nil {
		return nil
	}
	if err := initConfig(); err != nil {
		return err
	}

	if configStore.GetString("storage.provider") == "memory" {
		logger.Warn("Using in-memory metadata store; category weights will not persist")
		categoryService = services.NewCategoryService(storagememory.NewCategoryStore())
		return nil
	}

	metadata, err := sqlite.NewStore(configStore.GetString("storage.dir"))
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	closers = append(closers, metadata.Close)
	categoryService = services.NewCategoryService(metadata.CategoryStore())
	return nil
}

// openVectorStore connects to the configured vector index.
func openVectorStore(ctx context.Context, dimensions int) (driven.VectorStore, error) {
	provider := configStore.GetString("vector.provider")
	if provider == "memory" {
		logger.Warn("Using in-memory vector store; nothing will persist across runs")
		return vectormemory.NewStore(), nil
	}

	store, err := vectorqdrant.NewStore(ctx, vectorqdrant.Config{
		Host:       configStore.GetString("vector.host"),
		Port:       configStore.GetInt("vector.port"),
		Collection: configStore.GetString("vector.collection"),
		VectorSize: dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to vector store: %w", err)
	}
	return store, nil
}

// newTokenEstimator prefers exact counting, falling back to the word
// heuristic when the encoding cannot be loaded.
func newTokenEstimator() driven.TokenEstimator {
	estimator, err := tokens.NewTiktokenEstimator()
	if err != nil {
		logger.Warn("Token encoding unavailable, using heuristic estimates: %v", err)
		return tokens.NewHeuristicEstimator()
	}
	return estimator
}

// embeddingSettings reads embedding provider settings from config.
func embeddingSettings() *domain.EmbeddingSettings {
	return &domain.EmbeddingSettings{
		Provider:   domain.AIProvider(configStore.GetString("embedding.provider")),
		Model:      configStore.GetString("embedding.model"),
		BaseURL:    configStore.GetString("embedding.base_url"),
		APIKey:     configStore.GetString("embedding.api_key"),
		Dimensions: configStore.GetInt("embedding.dimensions"),
	}
}

// analyzerSettings reads analyzer provider settings from config.
func analyzerSettings() *domain.AnalyzerSettings {
	return &domain.AnalyzerSettings{
		Provider: domain.AIProvider(configStore.GetString("analyzer.provider")),
		Model:    configStore.GetString("analyzer.model"),
		BaseURL:  configStore.GetString("analyzer.base_url"),
		APIKey:   configStore.GetString("analyzer.api_key"),
	}
}

// currentUser resolves the user ID from the flag or configuration.
func currentUser() string {
	if flagUser != "" {
		return flagUser
	}
	if configStore != nil {
		if id := configStore.GetString("user.id"); id != "" {
			return id
		}
	}
	return "default"
}

// closeServices releases wired adapters in reverse order.
func closeServices() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logger.Warn("Close failed: %v", err)
		}
	}
	closers = nil
}
