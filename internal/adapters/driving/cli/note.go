package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

var (
	noteTitle      string
	noteTags       []string
	noteCategories []string
	noteGoal       string
	noteParent     string
	noteRelated    []string
	notePinned     bool
)

var noteCmd = &cobra.Command{
	Use:   "note [text]",
	Short: "Capture a note",
	Long: `Stores a note in the index. Hashtags and @mentions in the text are
extracted as keywords and references automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: runNote,
}

func init() {
	noteCmd.Flags().StringVarP(&noteTitle, "title", "t", "", "note title")
	noteCmd.Flags().StringSliceVar(&noteTags, "tags", nil, "tags to attach")
	noteCmd.Flags().StringSliceVarP(&noteCategories, "categories", "c", nil, "categories to attach")
	noteCmd.Flags().StringVar(&noteGoal, "goal", "", "goal ID this note relates to")
	noteCmd.Flags().StringVar(&noteParent, "parent", "", "parent note ID")
	noteCmd.Flags().StringSliceVar(&noteRelated, "related", nil, "related content IDs to link")
	noteCmd.Flags().BoolVar(&notePinned, "pin", false, "pin the note")
	rootCmd.AddCommand(noteCmd)
}

func runNote(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if err := initPipeline(ctx); err != nil {
		return err
	}

	req := &domain.IngestRequest{
		ContentType: domain.KindNote,
		UserID:      currentUser(),
		Title:       noteTitle,
		Text:        args[0],
		Tags:        noteTags,
		Categories:  noteCategories,
		Source:      "cli",
		RelatedIDs:  noteRelated,
		Note: &domain.NotePayload{
			GoalID:       noteGoal,
			ParentNoteID: noteParent,
			Pinned:       notePinned,
		},
	}

	result, err := ingestService.Process(ctx, req)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	printStorageResult(cmd, result)
	if len(result.Metadata.References) > 0 {
		cmd.Printf("  References: %d extracted\n", len(result.Metadata.References))
	}
	return nil
}
