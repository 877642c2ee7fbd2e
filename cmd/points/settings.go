package points

import (
	"context"
	"fmt"
	"strings"

	"github.com/saadjs/points-cli/internal/service"
	"github.com/saadjs/points-cli/internal/store"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show and change your points settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			s, err := service.GetSettings(ctx, st)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "KEY\tVALUE")
			fmt.Fprintf(out, "dailyPoints\t%d\n", s.DailyPoints)
			fmt.Fprintf(out, "weeklyBonus\t%d\n", s.WeeklyBonus)
			fmt.Fprintf(out, "goal\t%s\n", s.Goal)
			fmt.Fprintf(out, "dietaryPrefs\t%s\n", strings.Join(s.DietaryPrefs, ","))
			fmt.Fprintf(out, "noGos\t%s\n", strings.Join(s.NoGos, ","))
			fmt.Fprintf(out, "locale\t%s\n", s.Locale)
			fmt.Fprintf(out, "geminiApiKey\t%s\n", service.MaskKey(s.GeminiAPIKey))
			fmt.Fprintf(out, "geminiModel\t%s\n", s.GeminiModel)
			fmt.Fprintf(out, "onboardingComplete\t%t\n", s.OnboardingComplete)
			return nil
		})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one setting",
	Long:  "Set one setting. Keys: " + strings.Join(service.SettingKeys(), ", ") + ". List values are comma separated.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := service.ParseSettingUpdate(args[0], args[1])
		if err != nil {
			return err
		}
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			if _, err := service.UpdateSettings(ctx, st, u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", args[0])
			return nil
		})
	},
}

var settingsResetYes bool

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all settings, logs, weights and cached estimates",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !settingsResetYes {
			return fmt.Errorf("reset deletes all data; pass --yes to confirm")
		}
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			if err := service.ResetAll(ctx, st); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All data deleted")
			return nil
		})
	},
}

var settingsCheckKeyCmd = &cobra.Command{
	Use:   "check-key",
	Short: "Verify the configured Gemini API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			s, err := service.GetSettings(ctx, st)
			if err != nil {
				return err
			}
			return reportKeyCheck(ctx, cmd, service.ResolveAPIKey(s, cfg.GeminiAPIKey), s.GeminiModel)
		})
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsResetCmd, settingsCheckKeyCmd)
	settingsResetCmd.Flags().BoolVar(&settingsResetYes, "yes", false, "Confirm deleting all data")
}
