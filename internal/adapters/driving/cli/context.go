package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

var (
	contextMaxChunks    int
	contextMaxTokens    int
	contextMinRelevance float64
	contextJSON         bool
)

var contextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Retrieve relevant context for a query",
	Long: `Selects the stored chunks most relevant to the query, ranked by
similarity and bounded by a token budget.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().IntVarP(&contextMaxChunks, "max-chunks", "n", 0,
		fmt.Sprintf("maximum chunks to return (default %d)", domain.DefaultMaxChunks))
	contextCmd.Flags().IntVar(&contextMaxTokens, "max-tokens", 0,
		fmt.Sprintf("token budget for the selection (default %d)", domain.DefaultMaxTokens))
	contextCmd.Flags().Float64Var(&contextMinRelevance, "min-relevance", 0,
		"drop chunks scoring below this similarity")
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if err := initPipeline(ctx); err != nil {
		return err
	}

	req := &domain.ContextRequest{
		Query:        args[0],
		MaxChunks:    contextMaxChunks,
		MaxTokens:    contextMaxTokens,
		MinRelevance: contextMinRelevance,
	}

	chunks, err := contextService.BuildContext(ctx, currentUser(), req)
	if err != nil {
		return fmt.Errorf("context retrieval failed: %w", err)
	}

	if contextJSON {
		return outputContextJSON(cmd, chunks)
	}
	return outputContextText(cmd, chunks)
}

func outputContextJSON(cmd *cobra.Command, chunks []domain.ContextChunk) error {
	type chunkOut struct {
		Content        string  `json:"content"`
		RelevanceScore float64 `json:"relevanceScore"`
	}

	out := make([]chunkOut, len(chunks))
	for i, c := range chunks {
		out[i] = chunkOut{Content: c.Content, RelevanceScore: c.RelevanceScore}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chunks: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputContextText(cmd *cobra.Command, chunks []domain.ContextChunk) error {
	if len(chunks) == 0 {
		cmd.Println("No relevant context found.")
		return nil
	}

	cmd.Printf("Context (%d chunks):\n\n", len(chunks))
	for i, c := range chunks {
		cmd.Printf("  [%d] (%.3f)\n", i+1, c.RelevanceScore)
		cmd.Printf("      %s\n\n", c.Content)
	}
	return nil
}
