package points

import (
	"context"
	"fmt"
	"strings"

	"github.com/saadjs/points-cli/internal/provider/gemini"
	"github.com/saadjs/points-cli/internal/service"
	"github.com/saadjs/points-cli/internal/store"
	"github.com/spf13/cobra"
)

var (
	setupPreset   string
	setupPoints   int
	setupPrefs    []string
	setupNoGos    []string
	setupAPIKey   string
	setupModel    string
	setupLocale   string
	setupCheckKey bool
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Set your points goal, preferences and Gemini key",
	Long:  "setup completes onboarding. Pick a goal preset (" + presetNames() + ") or a custom daily budget with --points.",
	RunE: func(cmd *cobra.Command, args []string) error {
		modelID := setupModel
		if modelID == "" {
			modelID = cfg.GeminiModel
		}
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			in := service.OnboardingInput{
				Preset:       setupPreset,
				CustomPoints: setupPoints,
				APIKey:       setupAPIKey,
				Model:        modelID,
				Locale:       setupLocale,
			}
			if cmd.Flags().Changed("prefs") {
				in.DietaryPrefs = setupPrefs
			}
			if cmd.Flags().Changed("no-gos") {
				in.NoGos = setupNoGos
			}
			s, err := service.CompleteOnboarding(ctx, st, in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Daily budget: %d points (%s)\n", s.DailyPoints, s.Goal)
			if len(s.DietaryPrefs) > 0 {
				fmt.Fprintf(out, "Preferences: %s\n", strings.Join(s.DietaryPrefs, ", "))
			}
			if len(s.NoGos) > 0 {
				fmt.Fprintf(out, "No-gos: %s\n", strings.Join(s.NoGos, ", "))
			}
			if s.GeminiAPIKey == "" && cfg.GeminiAPIKey == "" {
				fmt.Fprintln(out, "No Gemini API key set; estimates need one (--api-key or POINTS_GEMINI_API_KEY).")
				return nil
			}
			if setupCheckKey {
				return reportKeyCheck(ctx, cmd, service.ResolveAPIKey(s, cfg.GeminiAPIKey), s.GeminiModel)
			}
			return nil
		})
	},
}

func presetNames() string {
	names := make([]string, 0, 4)
	for _, p := range service.GoalPresets() {
		names = append(names, fmt.Sprintf("%s=%d", p.Name, p.Points))
	}
	return strings.Join(names, ", ")
}

func reportKeyCheck(ctx context.Context, cmd *cobra.Command, key, modelID string) error {
	if key == "" {
		return service.ErrMissingAPIKey
	}
	if !newEstimator().ValidateKey(ctx, key, modelID) {
		return fmt.Errorf("gemini rejected the API key for model %s", modelID)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Gemini key OK (%s)\n", service.MaskKey(key))
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().StringVar(&setupPreset, "preset", "", "Goal preset")
	setupCmd.Flags().IntVar(&setupPoints, "points", 0, fmt.Sprintf("Custom daily points (%d-%d)", service.CustomGoalMinPoints, service.CustomGoalMaxPoints))
	setupCmd.Flags().StringSliceVar(&setupPrefs, "prefs", nil, "Dietary preferences (comma-separated)")
	setupCmd.Flags().StringSliceVar(&setupNoGos, "no-gos", nil, "Foods to avoid (comma-separated)")
	setupCmd.Flags().StringVar(&setupAPIKey, "api-key", "", "Gemini API key")
	setupCmd.Flags().StringVar(&setupModel, "model", "", "Gemini model (default POINTS_GEMINI_MODEL or "+gemini.DefaultModel+")")
	setupCmd.Flags().StringVar(&setupLocale, "locale", "", "Locale, e.g. de-DE")
	setupCmd.Flags().BoolVar(&setupCheckKey, "check-key", false, "Verify the API key with a test request")
}
