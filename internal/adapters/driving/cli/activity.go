package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

var (
	activityType         string
	activityLocation     string
	activityDuration     int
	activityMood         string
	activityParticipants []string
	activityCategories   []string
)

var activityCmd = &cobra.Command{
	Use:   "activity [description]",
	Short: "Log an activity",
	Long:  `Stores an activity entry in the index. Activities are short and kept as a single chunk.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runActivity,
}

func init() {
	activityCmd.Flags().StringVar(&activityType, "type", "", "activity type (e.g. run, meeting)")
	activityCmd.Flags().StringVar(&activityLocation, "location", "", "where the activity took place")
	activityCmd.Flags().IntVar(&activityDuration, "duration", 0, "duration in minutes")
	activityCmd.Flags().StringVar(&activityMood, "mood", "", "mood during the activity")
	activityCmd.Flags().StringSliceVar(&activityParticipants, "with", nil, "participants")
	activityCmd.Flags().StringSliceVarP(&activityCategories, "categories", "c", nil, "categories to attach")
	rootCmd.AddCommand(activityCmd)
}

func runActivity(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if err := initPipeline(ctx); err != nil {
		return err
	}

	req := &domain.IngestRequest{
		ContentType: domain.KindActivity,
		UserID:      currentUser(),
		Text:        args[0],
		Categories:  activityCategories,
		Source:      "cli",
		Activity: &domain.ActivityPayload{
			ActivityType:    activityType,
			Location:        activityLocation,
			DurationMinutes: activityDuration,
			Participants:    activityParticipants,
			Mood:            activityMood,
		},
	}

	result, err := ingestService.Process(ctx, req)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	printStorageResult(cmd, result)
	return nil
}
