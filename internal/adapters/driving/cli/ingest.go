package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

var (
	ingestTitle      string
	ingestTags       []string
	ingestCategories []string
	ingestAuthor     string
	ingestAsync      bool
)

// statusPollInterval paces polling of background ingestions.
const statusPollInterval = 200 * time.Millisecond

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a document into the index",
	Long: `Reads a text file, chunks it, embeds the chunks, and stores them
in the vector index. Large documents are processed in batches.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestTitle, "title", "t", "", "document title (defaults to the file name)")
	ingestCmd.Flags().StringSliceVar(&ingestTags, "tags", nil, "tags to attach")
	ingestCmd.Flags().StringSliceVarP(&ingestCategories, "categories", "c", nil, "categories to attach")
	ingestCmd.Flags().StringVar(&ingestAuthor, "author", "", "document author")
	ingestCmd.Flags().BoolVar(&ingestAsync, "async", false, "process in the background and poll for completion")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	ctx := context.Background()
	if err := initPipeline(ctx); err != nil {
		return err
	}

	title := ingestTitle
	if title == "" {
		title = filepath.Base(path)
	}

	info, err := os.Stat(path)
	var size int64
	if err == nil {
		size = info.Size()
	}

	req := &domain.IngestRequest{
		ContentType: domain.KindDocument,
		UserID:      currentUser(),
		Title:       title,
		Text:        string(data),
		Tags:        ingestTags,
		Categories:  ingestCategories,
		Source:      "cli",
		Document: &domain.DocumentPayload{
			FileName:  filepath.Base(path),
			SizeBytes: size,
			Author:    ingestAuthor,
		},
	}

	if ingestAsync {
		return runAsyncIngest(ctx, cmd, req)
	}

	result, err := ingestService.Process(ctx, req)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	printStorageResult(cmd, result)
	return nil
}

// runAsyncIngest starts a background ingestion and polls its status
// until it finishes.
func runAsyncIngest(ctx context.Context, cmd *cobra.Command, req *domain.IngestRequest) error {
	processingID, err := ingestService.StartAsync(ctx, req)
	if err != nil {
		return fmt.Errorf("starting ingestion: %w", err)
	}
	cmd.Printf("Processing started: %s\n", processingID)

	for {
		time.Sleep(statusPollInterval)

		status, err := ingestService.Status(processingID)
		if err != nil {
			return fmt.Errorf("polling status: %w", err)
		}

		switch status.State {
		case domain.ProcessingCompleted:
			cmd.Printf("Completed in %s\n", status.FinishedAt.Sub(status.StartedAt).Round(time.Millisecond))
			printStorageResult(cmd, status.Result)
			return nil
		case domain.ProcessingFailed:
			return fmt.Errorf("ingestion failed: %s", status.Error)
		case domain.ProcessingPending, domain.ProcessingRunning:
			// Keep polling.
		}
	}
}

func printStorageResult(cmd *cobra.Command, result *domain.StorageResult) {
	cmd.Printf("Stored %s\n", result.ContentID)
	cmd.Printf("  Chunks:     %d\n", result.ChunkCount)
	cmd.Printf("  Language:   %s\n", result.Metadata.Language)
	if len(result.Metadata.Categories) > 0 {
		cmd.Printf("  Categories: %v\n", result.Metadata.Categories)
	}
	if len(result.Metadata.Tags) > 0 {
		cmd.Printf("  Tags:       %v\n", result.Metadata.Tags)
	}
}
