package points

import (
	"context"
	"fmt"
	"time"

	"github.com/saadjs/points-cli/internal/cache"
	"github.com/saadjs/points-cli/internal/store"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clean cached estimates",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached estimates",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			entries, err := newCache(st).List(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "KEY\tPOINTS\tAGE\tEXPIRED")
			for _, e := range entries {
				fmt.Fprintf(out, "%s\t%s\t%s\t%t\n", e.Key, formatPoints(e.Result.PointsTotal), e.Age.Round(time.Minute), e.Expired)
			}
			return nil
		})
	},
}

var cacheSweepMaxAge time.Duration

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete cached estimates older than --max-age",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cacheSweepMaxAge <= 0 {
			return fmt.Errorf("--max-age must be positive")
		}
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			n, err := newCache(st).Sweep(ctx, cacheSweepMaxAge)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached estimate(s)\n", n)
			return nil
		})
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all cached estimates",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			n, err := newCache(st).Purge(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached estimate(s)\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd, cacheSweepCmd, cachePurgeCmd)
	cacheSweepCmd.Flags().DurationVar(&cacheSweepMaxAge, "max-age", cache.MaxAge, "Remove entries older than this")
}
