package points

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/saadjs/points-cli/internal/model"
	"github.com/saadjs/points-cli/internal/service"
	"github.com/saadjs/points-cli/internal/store"
	"github.com/spf13/cobra"
)

var weightCmd = &cobra.Command{
	Use:   "weight",
	Short: "Track body weight",
}

var (
	weightDate  string
	weightFrom  string
	weightTo    string
	weightWidth int
)

var weightAddCmd = &cobra.Command{
	Use:   "add <kg>",
	Short: "Record weight for a day (overwrites the same day)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := service.ParseWeight(args[0])
		if err != nil {
			return err
		}
		date, err := dateOrToday(weightDate)
		if err != nil {
			return err
		}
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			if err := service.SaveWeight(ctx, st, model.WeightEntry{Date: date, Value: v}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %.1f kg on %s\n", v, date)
			return nil
		})
	},
}

var weightListCmd = &cobra.Command{
	Use:   "list",
	Short: "List weights",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			entries, err := service.ListWeights(ctx, st, weightFrom, weightTo)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "DATE\tKG")
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.1f\n", e.Date, e.Value)
			}
			return nil
		})
	},
}

var weightDeleteCmd = &cobra.Command{
	Use:   "delete <date>",
	Short: "Delete the weight of a day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := service.ParseDate(args[0]); err != nil {
			return err
		}
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			removed, err := service.DeleteWeight(ctx, st, args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("no weight recorded on %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted weight on %s\n", args[0])
			return nil
		})
	},
}

var weightTrendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Compare the latest weight with the previous one",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			tr, ok, err := service.WeightTrendFor(ctx, st)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Need at least two weights for a trend")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %.1f kg (%+.1f kg, %+.1f%% since %s, %s)\n",
				tr.Latest.Date, tr.Latest.Value, tr.Diff, tr.Percentage, tr.Previous.Date, tr.Direction)
			return nil
		})
	},
}

var weightChartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Draw a text chart of weights",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			entries, err := service.ListWeights(ctx, st, weightFrom, weightTo)
			if err != nil {
				return err
			}
			renderWeightChart(cmd.OutOrStdout(), entries, weightWidth)
			return nil
		})
	},
}

// renderWeightChart draws one bar per entry scaled between the min and max
// value, so small changes stay visible.
func renderWeightChart(w io.Writer, entries []model.WeightEntry, width int) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No weights recorded")
		return
	}
	if width < 10 {
		width = 10
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, e := range entries {
		lo = math.Min(lo, e.Value)
		hi = math.Max(hi, e.Value)
	}
	span := hi - lo
	for _, e := range entries {
		n := width
		if span > 0 {
			n = 1 + int(math.Round((e.Value-lo)/span*float64(width-1)))
		}
		fmt.Fprintf(w, "%s %6.1f %s\n", e.Date, e.Value, strings.Repeat("#", n))
	}
}

func init() {
	rootCmd.AddCommand(weightCmd)
	weightCmd.AddCommand(weightAddCmd, weightListCmd, weightDeleteCmd, weightTrendCmd, weightChartCmd)

	weightAddCmd.Flags().StringVar(&weightDate, "date", "", "Date YYYY-MM-DD (default today)")
	for _, c := range []*cobra.Command{weightListCmd, weightChartCmd} {
		c.Flags().StringVar(&weightFrom, "from", "", "Start date YYYY-MM-DD")
		c.Flags().StringVar(&weightTo, "to", "", "End date YYYY-MM-DD")
	}
	weightChartCmd.Flags().IntVar(&weightWidth, "width", 40, "Maximum bar width")
}
