package points

import (
	"context"
	"fmt"

	"github.com/saadjs/points-cli/internal/store"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize local points database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			stats, err := st.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized points database at %s (schema v%d)\n", st.Path(), stats.SchemaVersion)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
