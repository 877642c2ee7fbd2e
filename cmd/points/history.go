package points

import (
	"context"
	"fmt"
	"time"

	"github.com/saadjs/points-cli/internal/service"
	"github.com/saadjs/points-cli/internal/store"
	"github.com/spf13/cobra"
)

var (
	historyFrom  string
	historyTo    string
	historyMonth string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Summarize logged days",
	Long:  "history shows per-day totals and how many days stayed within budget. Without flags it covers the last 30 days.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyMonth != "" && (historyFrom != "" || historyTo != "") {
			return fmt.Errorf("use either --month or --from/--to")
		}
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			out := cmd.OutOrStdout()
			if historyMonth != "" {
				days, err := service.MonthCalendar(ctx, st, historyMonth)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "DATE\tPOINTS\tENTRIES\tSTATUS")
				for _, d := range days {
					fmt.Fprintf(out, "%s\t%s\t%d\t%s\n", d.Date, formatPoints(d.Points), d.Entries, dayStatus(d))
				}
				return nil
			}

			from, to := historyFrom, historyTo
			if from == "" && to == "" {
				now := time.Now()
				from = service.DateKey(now.AddDate(0, 0, -29))
				to = service.DateKey(now)
			}
			stats, err := service.History(ctx, st, from, to)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "DATE\tPOINTS\tENTRIES\tSTATUS")
			for _, d := range stats.Days {
				fmt.Fprintf(out, "%s\t%s\t%d\t%s\n", d.Date, formatPoints(d.Points), d.Entries, dayStatus(d))
			}
			fmt.Fprintf(out, "Days logged: %d\n", stats.TotalDays)
			fmt.Fprintf(out, "Average: %d points\n", stats.AvgPoints)
			fmt.Fprintf(out, "Within budget: %d/%d\n", stats.UnderBudgetDays, stats.TotalDays)
			return nil
		})
	},
}

func dayStatus(d service.DaySummary) string {
	switch {
	case d.Entries == 0:
		return "-"
	case d.UnderBudget:
		return "ok"
	default:
		return "over"
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historyFrom, "from", "", "Start date YYYY-MM-DD")
	historyCmd.Flags().StringVar(&historyTo, "to", "", "End date YYYY-MM-DD")
	historyCmd.Flags().StringVar(&historyMonth, "month", "", "Calendar month YYYY-MM")
}
