package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage content categories",
	RunE:  runCategoryList,
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories with weights and usage counts",
	RunE:  runCategoryList,
}

var categoryWeightCmd = &cobra.Command{
	Use:   "weight [name] [weight]",
	Short: "Set the ranking weight for a category",
	Args:  cobra.ExactArgs(2),
	RunE:  runCategoryWeight,
}

func init() {
	categoryCmd.AddCommand(categoryListCmd)
	categoryCmd.AddCommand(categoryWeightCmd)
	rootCmd.AddCommand(categoryCmd)
}

func runCategoryList(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	if err := initMetadata(); err != nil {
		return err
	}

	cats, err := categoryService.List(ctx, currentUser())
	if err != nil {
		return fmt.Errorf("listing categories: %w", err)
	}

	if len(cats) == 0 {
		cmd.Println("No categories yet.")
		return nil
	}

	cmd.Printf("%-24s %8s %8s\n", "NAME", "WEIGHT", "USED")
	for _, cat := range cats {
		cmd.Printf("%-24s %8.2f %8d\n", cat.Name, cat.Weight, cat.UsageCount)
	}
	return nil
}

func runCategoryWeight(cmd *cobra.Command, args []string) error {
	weight, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid weight %q: %w", args[1], err)
	}

	ctx := context.Background()
	if err := initMetadata(); err != nil {
		return err
	}

	if err := categoryService.SetWeight(ctx, currentUser(), args[0], weight); err != nil {
		return fmt.Errorf("setting weight: %w", err)
	}

	cmd.Printf("Category %q weight set to %.2f\n", args[0], weight)
	return nil
}
