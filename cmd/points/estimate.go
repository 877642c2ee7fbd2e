package points

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/saadjs/points-cli/internal/model"
	"github.com/saadjs/points-cli/internal/service"
	"github.com/saadjs/points-cli/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	estimateMeal  string
	estimateSave  bool
	estimateDate  string
	estimateNotes string
)

var estimateCmd = &cobra.Command{
	Use:   "estimate <food text...>",
	Short: "Estimate the points of a meal description",
	Example: `  points estimate "2 Scheiben Pizza und 1 Cola 0,33"
  points estimate --save --meal lunch Linsensuppe mit Brot`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateOrToday(estimateDate)
		if err != nil {
			return err
		}
		var meal model.MealType
		if estimateSave {
			if meal, err = mealOrDefault(estimateMeal); err != nil {
				return err
			}
		}
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			res, err := service.EstimateFood(ctx, st, newCache(st), newEstimator(), service.EstimateInput{
				Text:   strings.Join(args, " "),
				Date:   date,
				APIKey: cfg.GeminiAPIKey,
				Save:   estimateSave,
				Meal:   meal,
				Notes:  estimateNotes,
			})
			if err != nil {
				return err
			}
			logger.Debug("estimate", zap.Bool("from_cache", res.FromCache), zap.Float64("points", res.Response.PointsTotal))
			printFoodResponse(cmd.OutOrStdout(), res.Response, res.FromCache)
			if res.Entry != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Logged %s to %s on %s (%s)\n", formatPoints(res.Entry.PointsTotal), res.Entry.MealType, date, shortID(res.Entry.ID))
			}
			return nil
		})
	},
}

func printFoodResponse(w io.Writer, r model.FoodResponse, fromCache bool) {
	fmt.Fprintln(w, "ITEM\tAMOUNT\tPOINTS\tNOTE")
	for _, it := range r.Items {
		note := it.ReasonShort
		if it.AssumedPortion {
			note = strings.TrimSpace("assumed portion " + note)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", it.Name, it.AmountText, formatPoints(it.Points), note)
	}
	source := "gemini"
	if fromCache {
		source = "cache"
	}
	fmt.Fprintf(w, "Total: %s points (confidence %.0f%%, %s)\n", formatPoints(r.PointsTotal), r.Confidence*100, source)
	if r.FollowUpQuestion != "" {
		fmt.Fprintf(w, "Question: %s\n", r.FollowUpQuestion)
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warn)
	}
}

func init() {
	rootCmd.AddCommand(estimateCmd)
	estimateCmd.Flags().StringVar(&estimateMeal, "meal", "", "Meal bucket when saving: breakfast, lunch, dinner, snack (default by time of day)")
	estimateCmd.Flags().BoolVar(&estimateSave, "save", false, "Log the estimate")
	estimateCmd.Flags().StringVar(&estimateDate, "date", "", "Date YYYY-MM-DD (default today)")
	estimateCmd.Flags().StringVar(&estimateNotes, "notes", "", "Notes for the logged entry")
}
