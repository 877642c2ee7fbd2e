package points

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/saadjs/points-cli/internal/cache"
	"github.com/saadjs/points-cli/internal/service"
	"github.com/saadjs/points-cli/internal/store"
	"github.com/spf13/cobra"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run data integrity checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			c := newCache(st)
			report, err := service.RunDoctor(ctx, st, c, cache.MaxAge, time.Now(), doctorFix)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			names := make([]string, 0, len(report.Undecodable))
			for name := range report.Undecodable {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "Undecodable %s rows: %s\n", name, strings.Join(report.Undecodable[name], ", "))
			}
			fmt.Fprintf(out, "Entries with wrong totals: %d\n", len(report.TotalMismatches))
			fmt.Fprintf(out, "Expired cache rows: %d\n", report.ExpiredCacheRows)
			if doctorFix {
				fmt.Fprintf(out, "Fixed totals: %d\n", report.FixedTotals)
				fmt.Fprintf(out, "Swept cache rows: %d\n", report.SweptCacheRows)
				// Re-check after fixes so exit status reflects final state.
				report, err = service.RunDoctor(ctx, st, c, cache.MaxAge, time.Now(), false)
				if err != nil {
					return err
				}
			}
			if len(report.Undecodable) > 0 || len(report.TotalMismatches) > 0 {
				return fmt.Errorf("doctor found integrity issues")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Recompute entry totals and sweep expired cache rows")
}
