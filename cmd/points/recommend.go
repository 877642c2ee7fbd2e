package points

import (
	"context"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/saadjs/points-cli/internal/service"
	"github.com/saadjs/points-cli/internal/store"
	"github.com/spf13/cobra"
)

var (
	recommendMeal   string
	recommendDate   string
	recommendAccept int
	recommendCopy   bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Suggest three meals that fit the points you have left",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateOrToday(recommendDate)
		if err != nil {
			return err
		}
		meal, err := mealOrDefault(recommendMeal)
		if err != nil {
			return err
		}
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			resp, err := service.Recommend(ctx, st, newEstimator(), service.RecommendInput{Date: date, Meal: meal, APIKey: cfg.GeminiAPIKey})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s with %s points available\n", resp.MealType, formatPoints(resp.PointsAvailable))
			for i, s := range resp.Suggestions {
				fmt.Fprintf(out, "\n[%d] fit %.0f%%\n%s", i+1, s.FitScore*100, service.FormatSuggestion(s))
			}
			if resp.Notes != "" {
				fmt.Fprintf(out, "\n%s\n", resp.Notes)
			}

			copyText := ""
			for _, s := range resp.Suggestions {
				copyText += service.FormatSuggestion(s) + "\n"
			}
			if recommendAccept != 0 {
				if recommendAccept < 1 || recommendAccept > len(resp.Suggestions) {
					return fmt.Errorf("--accept must be between 1 and %d", len(resp.Suggestions))
				}
				chosen := resp.Suggestions[recommendAccept-1]
				entry, err := service.AcceptSuggestion(ctx, st, date, meal, chosen)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Logged %q to %s (%s points)\n", chosen.Title, meal, formatPoints(entry.PointsTotal))
				copyText = service.FormatSuggestion(chosen)
			}
			if recommendCopy {
				if err := clipboard.WriteAll(copyText); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: could not copy to clipboard: %v\n", err)
				} else {
					fmt.Fprintln(out, "Copied to clipboard")
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendCmd.Flags().StringVar(&recommendMeal, "meal", "", "Meal to plan (default by time of day)")
	recommendCmd.Flags().StringVar(&recommendDate, "date", "", "Date YYYY-MM-DD (default today)")
	recommendCmd.Flags().IntVar(&recommendAccept, "accept", 0, "Log suggestion N (1-3)")
	recommendCmd.Flags().BoolVar(&recommendCopy, "copy", false, "Copy the suggestions (or the accepted one) to the clipboard")
}
