package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/recall-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and configure the embedding provider, analyzer, and vector store.

Use 'config wizard' for interactive setup or 'config set' for single values.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Sets a single configuration value by dot-notation key, e.g.

  recall config set embedding.provider ollama
  recall config set vector.host localhost`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure providers step by step.`,
	RunE:  runConfigWizard,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configWizardCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if err := initConfig(); err != nil {
		return err
	}

	cmd.Println("Current Configuration")
	cmd.Println("=====================")
	cmd.Printf("File: %s\n\n", configStore.Path())

	embedding := embeddingSettings()
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", orUnset(string(embedding.Provider)))
	cmd.Printf("  Model: %s\n", orUnset(embedding.Model))
	if embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", embedding.BaseURL)
	}
	if embedding.Provider == domain.AIProviderOpenAI {
		if embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !embedding.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n\n", status)

	analyzer := analyzerSettings()
	cmd.Println("[Analyzer]")
	cmd.Printf("  Provider: %s\n", orUnset(string(analyzer.Provider)))
	cmd.Printf("  Model: %s\n", orUnset(analyzer.Model))
	status = "configured"
	if !analyzer.IsConfigured() {
		status = "not configured (ingestion uses defaults)"
	}
	cmd.Printf("  Status: %s\n\n", status)

	cmd.Println("[Vector Store]")
	provider := configStore.GetString("vector.provider")
	if provider == "" {
		provider = "qdrant"
	}
	cmd.Printf("  Provider: %s\n", provider)
	if provider == "qdrant" {
		cmd.Printf("  Host: %s\n", orUnset(configStore.GetString("vector.host")))
		if port := configStore.GetInt("vector.port"); port != 0 {
			cmd.Printf("  Port: %d\n", port)
		}
	}
	cmd.Println()

	cmd.Println("[User]")
	cmd.Printf("  ID: %s\n", currentUser())

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if err := initConfig(); err != nil {
		return err
	}

	key, raw := args[0], args[1]

	// Preserve numeric and boolean types in the TOML file.
	var value any = raw
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		value = n
	} else if b, err := strconv.ParseBool(raw); err == nil {
		value = b
	}

	if err := configStore.Set(key, value); err != nil {
		return fmt.Errorf("saving configuration: %w", err)
	}

	cmd.Printf("Set %s\n", key)
	return nil
}

func runConfigWizard(cmd *cobra.Command, _ []string) error {
	if err := initConfig(); err != nil {
		return err
	}

	cmd.Println("Recall Setup Wizard")
	cmd.Println("===================")
	cmd.Println()

	reader := bufio.NewReader(os.Stdin)

	cmd.Println("Step 1: Embedding Provider")
	cmd.Println("--------------------------")
	if err := configureEmbedding(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Step 2: Content Analyzer (optional)")
	cmd.Println("-----------------------------------")
	cmd.Print("Configure an analyzer for language and topic detection? [y/N]: ")
	if strings.EqualFold(readLine(reader), "y") {
		if err := configureAnalyzer(cmd, reader); err != nil {
			return err
		}
	} else {
		cmd.Println("Skipped. Ingestion will use default language and categories.")
		cmd.Println()
	}

	cmd.Println("Step 3: Vector Store")
	cmd.Println("--------------------")
	if err := configureVectorStore(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Configuration complete.")
	return nil
}

func configureEmbedding(cmd *cobra.Command, reader *bufio.Reader) error {
	provider, model, baseURL, apiKey, err := promptProvider(cmd, reader, map[domain.AIProvider]string{
		domain.AIProviderOllama: "nomic-embed-text",
		domain.AIProviderOpenAI: "text-embedding-3-small",
	})
	if err != nil {
		return err
	}

	if err := configStore.Set("embedding.provider", string(provider)); err != nil {
		return err
	}
	if err := configStore.Set("embedding.model", model); err != nil {
		return err
	}
	if baseURL != "" {
		if err := configStore.Set("embedding.base_url", baseURL); err != nil {
			return err
		}
	}
	if apiKey != "" {
		if err := configStore.Set("embedding.api_key", apiKey); err != nil {
			return err
		}
	}

	// Validate by pinging the service.
	cmd.Print("Validating configuration... ")
	svc, err := ai.CreateAndValidateEmbeddingService(embeddingSettings())
	if err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	svc.Close()
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n\n", provider, model)
	return nil
}

func configureAnalyzer(cmd *cobra.Command, reader *bufio.Reader) error {
	provider, model, baseURL, apiKey, err := promptProvider(cmd, reader, map[domain.AIProvider]string{
		domain.AIProviderOllama: "llama3.2",
		domain.AIProviderOpenAI: "gpt-4o-mini",
	})
	if err != nil {
		return err
	}

	if err := configStore.Set("analyzer.provider", string(provider)); err != nil {
		return err
	}
	if err := configStore.Set("analyzer.model", model); err != nil {
		return err
	}
	if baseURL != "" {
		if err := configStore.Set("analyzer.base_url", baseURL); err != nil {
			return err
		}
	}
	if apiKey != "" {
		if err := configStore.Set("analyzer.api_key", apiKey); err != nil {
			return err
		}
	}

	cmd.Printf("Analyzer configured: %s (%s)\n\n", provider, model)
	return nil
}

func configureVectorStore(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Print("Qdrant host [localhost]: ")
	host := readLine(reader)
	if host == "" {
		host = "localhost"
	}

	cmd.Print("Qdrant gRPC port [6334]: ")
	port := 6334
	if input := readLine(reader); input != "" {
		parsed, err := strconv.Atoi(input)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", input, err)
		}
		port = parsed
	}

	if err := configStore.Set("vector.provider", "qdrant"); err != nil {
		return err
	}
	if err := configStore.Set("vector.host", host); err != nil {
		return err
	}
	if err := configStore.Set("vector.port", int64(port)); err != nil {
		return err
	}

	cmd.Printf("Vector store configured: qdrant at %s:%d\n\n", host, port)
	return nil
}

// promptProvider asks for a provider, model, and credentials.
func promptProvider(
	cmd *cobra.Command,
	reader *bufio.Reader,
	defaultModels map[domain.AIProvider]string,
) (domain.AIProvider, string, string, string, error) {
	cmd.Println("Select provider:")
	cmd.Println("  1. ollama (local)")
	cmd.Println("  2. openai")
	cmd.Print("\nEnter choice [1]: ")

	provider := domain.AIProviderOllama
	if readLine(reader) == "2" {
		provider = domain.AIProviderOpenAI
	}

	defaultModel := defaultModels[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var baseURL string
	if provider == domain.AIProviderOllama {
		cmd.Print("Base URL [http://localhost:11434]: ")
		baseURL = readLine(reader)
	}

	var apiKey string
	if provider == domain.AIProviderOpenAI {
		cmd.Print("Enter API key: ")
		apiKey = readPassword()
		cmd.Println()
		if apiKey == "" {
			return "", "", "", "", errors.New("API key is required for this provider")
		}
	}

	return provider, model, baseURL, apiKey, nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
