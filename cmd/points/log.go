package points

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/saadjs/points-cli/internal/model"
	"github.com/saadjs/points-cli/internal/service"
	"github.com/saadjs/points-cli/internal/store"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Manage logged meals",
}

var (
	logMeal   string
	logDate   string
	logPoints float64
	logNotes  string
	logItems  []string
)

var logAddCmd = &cobra.Command{
	Use:   "add <text...>",
	Short: "Log a meal with manual points",
	Example: `  points log add --points 6 Linsensuppe
  points log add --meal dinner --item "Reis=4" --item "Gemüse=1" Reis mit Gemüse`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateOrToday(logDate)
		if err != nil {
			return err
		}
		meal, err := mealOrDefault(logMeal)
		if err != nil {
			return err
		}
		items, err := parseItems(logItems)
		if err != nil {
			return err
		}
		if len(items) == 0 && !cmd.Flags().Changed("points") {
			return fmt.Errorf("--points or --item is required")
		}
		entry, err := service.NewEntry(service.EntryInput{
			MealType: meal,
			RawText:  strings.Join(args, " "),
			Items:    items,
			Points:   logPoints,
			Notes:    logNotes,
		})
		if err != nil {
			return err
		}
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			d, err := service.AddEntry(ctx, st, date, entry)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added entry %s (%s points, day total %s)\n", shortID(entry.ID), formatPoints(entry.PointsTotal), formatPoints(service.DayTotal(d)))
			return nil
		})
	},
}

var logListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries of a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateOrToday(logDate)
		if err != nil {
			return err
		}
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			d, err := service.GetDayLog(ctx, st, date)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "ID\tMEAL\tTEXT\tPOINTS\tSOURCE\tTIME")
			for _, m := range model.MealTypes {
				for _, e := range *d.Bucket(m) {
					fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\t%s\n", shortID(e.ID), m, e.RawText, formatPoints(e.PointsTotal), e.Source, e.CreatedAt.Local().Format("15:04"))
				}
			}
			fmt.Fprintf(out, "Total: %s points\n", formatPoints(service.DayTotal(d)))
			return nil
		})
	},
}

var logEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit an entry (meal, items, text, notes)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateOrToday(logDate)
		if err != nil {
			return err
		}
		var u service.EntryUpdate
		if cmd.Flags().Changed("meal") {
			meal, err := service.ParseMealType(logMeal)
			if err != nil {
				return err
			}
			u.MealType = &meal
		}
		if cmd.Flags().Changed("item") {
			items, err := parseItems(logItems)
			if err != nil {
				return err
			}
			u.Items = &items
		}
		if cmd.Flags().Changed("text") {
			u.RawText = &logEditText
		}
		if cmd.Flags().Changed("notes") {
			u.Notes = &logNotes
		}
		if u == (service.EntryUpdate{}) {
			return fmt.Errorf("set at least one of --meal, --item, --text, --notes")
		}
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			e, err := service.UpdateEntry(ctx, st, date, args[0], u)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated entry %s (%s, %s points)\n", shortID(e.ID), e.MealType, formatPoints(e.PointsTotal))
			return nil
		})
	},
}

var logEditText string

var logRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove an entry",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateOrToday(logDate)
		if err != nil {
			return err
		}
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			if err := service.RemoveEntry(ctx, st, date, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed entry %s\n", args[0])
			return nil
		})
	},
}

// parseItems reads "name=points" or "amount name=points" pairs.
func parseItems(values []string) ([]model.FoodItem, error) {
	items := make([]model.FoodItem, 0, len(values))
	for _, v := range values {
		name, pts, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --item %q (expected name=points)", v)
		}
		p, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(pts), ",", ".", 1), 64)
		if err != nil || p < 0 {
			return nil, fmt.Errorf("invalid points in --item %q", v)
		}
		items = append(items, model.FoodItem{Name: name, Points: p})
	}
	return items, nil
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logAddCmd, logListCmd, logEditCmd, logRemoveCmd)

	logCmd.PersistentFlags().StringVar(&logDate, "date", "", "Date YYYY-MM-DD (default today)")
	logAddCmd.Flags().StringVar(&logMeal, "meal", "", "Meal: breakfast, lunch, dinner, snack (default by time of day)")
	logAddCmd.Flags().Float64Var(&logPoints, "points", 0, "Points for the whole entry")
	logAddCmd.Flags().StringArrayVar(&logItems, "item", nil, "Item as name=points (repeatable)")
	logAddCmd.Flags().StringVar(&logNotes, "notes", "", "Notes")
	logEditCmd.Flags().StringVar(&logMeal, "meal", "", "Move to meal")
	logEditCmd.Flags().StringArrayVar(&logItems, "item", nil, "Replace items, name=points (repeatable)")
	logEditCmd.Flags().StringVar(&logEditText, "text", "", "Replace the entry text")
	logEditCmd.Flags().StringVar(&logNotes, "notes", "", "Replace notes")
}
