package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/logger"
)

var (
	watchCategories []string
	watchExtensions []string
)

// watchSettle delays ingestion after the last write event so files
// still being written are picked up once, complete.
const watchSettle = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and ingest new or changed files",
	Long: `Watches a directory for file changes and ingests matching files as
documents in the background. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSliceVarP(&watchCategories, "categories", "c", nil, "categories to attach to ingested files")
	watchCmd.Flags().StringSliceVar(&watchExtensions, "ext", []string{".md", ".txt"}, "file extensions to ingest")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watching %s: not a directory", dir)
	}

	ctx := context.Background()
	if err := initPipeline(ctx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	cmd.Printf("Watching %s (extensions: %s). Press Ctrl+C to stop.\n",
		dir, strings.Join(watchExtensions, ", "))

	// Per-path timers debounce bursts of write events.
	var mu sync.Mutex
	pending := make(map[string]*time.Timer)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !watchableFile(event.Name) {
				continue
			}

			path := event.Name
			mu.Lock()
			if timer, exists := pending[path]; exists {
				timer.Stop()
			}
			pending[path] = time.AfterFunc(watchSettle, func() {
				mu.Lock()
				delete(pending, path)
				mu.Unlock()
				ingestWatchedFile(ctx, cmd, path)
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-sigCh:
			cmd.Println("\nStopping watcher.")
			return nil
		}
	}
}

// watchableFile reports whether the path matches a configured extension.
func watchableFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range watchExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// ingestWatchedFile ingests one file in the background.
func ingestWatchedFile(ctx context.Context, cmd *cobra.Command, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Reading %s failed: %v", path, err)
		return
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return
	}

	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}

	req := &domain.IngestRequest{
		ContentType: domain.KindDocument,
		UserID:      currentUser(),
		Title:       filepath.Base(path),
		Text:        string(data),
		Categories:  watchCategories,
		Source:      "watch",
		Document: &domain.DocumentPayload{
			FileName:  filepath.Base(path),
			SizeBytes: size,
		},
	}

	processingID, err := ingestService.StartAsync(ctx, req)
	if err != nil {
		cmd.Printf("Failed to ingest %s: %v\n", path, err)
		return
	}
	cmd.Printf("Ingesting %s (%s)\n", path, processingID)
}
