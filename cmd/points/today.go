package points

import (
	"context"
	"fmt"

	"github.com/saadjs/points-cli/internal/service"
	"github.com/saadjs/points-cli/internal/store"
	"github.com/spf13/cobra"
)

var todayDate string

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's points, meals and weekly budget",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateOrToday(todayDate)
		if err != nil {
			return err
		}
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			day, err := service.DayStatus(ctx, st, date)
			if err != nil {
				return err
			}
			week, err := service.WeekStatus(ctx, st, date)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Date: %s\n", day.Date)
			for _, m := range day.Meals {
				fmt.Fprintf(out, "  %-9s %6s (%d)\n", m.MealType, formatPoints(m.Points), m.Entries)
			}
			fmt.Fprintf(out, "Used: %s / %s points\n", formatPoints(day.Used), formatPoints(day.Budget))
			if day.Over {
				fmt.Fprintf(out, "Over budget by %s points\n", formatPoints(-day.Remaining))
			} else {
				fmt.Fprintf(out, "Remaining: %s points\n", formatPoints(day.Remaining))
			}
			fmt.Fprintf(out, "Week %s..%s: %s / %s points (%s left)\n", week.Start, week.End, formatPoints(week.Used), formatPoints(week.Budget), formatPoints(week.Remaining))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(todayCmd)
	todayCmd.Flags().StringVar(&todayDate, "date", "", "Date YYYY-MM-DD (default today)")
}
