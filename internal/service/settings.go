package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/saadjs/points-cli/internal/model"
	"github.com/saadjs/points-cli/internal/provider/gemini"
	"github.com/saadjs/points-cli/internal/store"
)

const (
	DefaultDailyPoints = 23
	DefaultLocale      = "de-DE"

	CustomGoalMinPoints = 10
	CustomGoalMaxPoints = 50
)

func DefaultSettings() model.Settings {
	return model.Settings{
		DailyPoints:  DefaultDailyPoints,
		WeeklyBonus:  0,
		Goal:         model.GoalLose,
		DietaryPrefs: []string{},
		NoGos:        []string{},
		Locale:       DefaultLocale,
		GeminiModel:  gemini.DefaultModel,
	}
}

// GetSettings returns the stored settings, or defaults when none exist yet.
func GetSettings(ctx context.Context, st *store.Store) (model.Settings, error) {
	s, ok, err := st.Settings.Get(ctx, store.SettingsKey)
	if err != nil {
		return model.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	if !ok {
		return DefaultSettings(), nil
	}
	return withDefaults(s), nil
}

func withDefaults(s model.Settings) model.Settings {
	d := DefaultSettings()
	if s.DailyPoints == 0 {
		s.DailyPoints = d.DailyPoints
	}
	if s.Goal == "" {
		s.Goal = d.Goal
	}
	if s.Locale == "" {
		s.Locale = d.Locale
	}
	if s.GeminiModel == "" {
		s.GeminiModel = d.GeminiModel
	}
	if s.DietaryPrefs == nil {
		s.DietaryPrefs = []string{}
	}
	if s.NoGos == nil {
		s.NoGos = []string{}
	}
	return s
}

func SaveSettings(ctx context.Context, st *store.Store, s model.Settings) error {
	s.DietaryPrefs = normalizeList(s.DietaryPrefs)
	s.NoGos = normalizeList(s.NoGos)
	if err := ValidateSettings(s); err != nil {
		return err
	}
	if err := st.Settings.Put(ctx, store.SettingsKey, s); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func ValidateSettings(s model.Settings) error {
	if err := validateStruct(s); err != nil {
		return err
	}
	if !SupportedModel(s.GeminiModel) {
		return invalid("geminiModel", "must be one of: %s", strings.Join(gemini.SupportedModels, ", "))
	}
	return nil
}

func SupportedModel(name string) bool {
	for _, m := range gemini.SupportedModels {
		if m == name {
			return true
		}
	}
	return false
}

// SettingsUpdate is a partial merge; nil fields are left unchanged.
type SettingsUpdate struct {
	DailyPoints        *int
	WeeklyBonus        *int
	Goal               *model.Goal
	DietaryPrefs       *[]string
	NoGos              *[]string
	Locale             *string
	GeminiAPIKey       *string
	GeminiModel        *string
	OnboardingComplete *bool
}

func UpdateSettings(ctx context.Context, st *store.Store, u SettingsUpdate) (model.Settings, error) {
	s, err := GetSettings(ctx, st)
	if err != nil {
		return model.Settings{}, err
	}
	if u.DailyPoints != nil {
		s.DailyPoints = *u.DailyPoints
	}
	if u.WeeklyBonus != nil {
		s.WeeklyBonus = *u.WeeklyBonus
	}
	if u.Goal != nil {
		s.Goal = *u.Goal
	}
	if u.DietaryPrefs != nil {
		s.DietaryPrefs = *u.DietaryPrefs
	}
	if u.NoGos != nil {
		s.NoGos = *u.NoGos
	}
	if u.Locale != nil {
		s.Locale = strings.TrimSpace(*u.Locale)
	}
	if u.GeminiAPIKey != nil {
		s.GeminiAPIKey = strings.TrimSpace(*u.GeminiAPIKey)
	}
	if u.GeminiModel != nil {
		s.GeminiModel = strings.TrimSpace(*u.GeminiModel)
	}
	if u.OnboardingComplete != nil {
		s.OnboardingComplete = *u.OnboardingComplete
	}
	if err := SaveSettings(ctx, st, s); err != nil {
		return model.Settings{}, err
	}
	return GetSettings(ctx, st)
}

var settingKeys = []string{
	"dailyPoints", "weeklyBonus", "goal", "dietaryPrefs", "noGos",
	"locale", "geminiApiKey", "geminiModel", "onboardingComplete",
}

func SettingKeys() []string {
	out := append([]string(nil), settingKeys...)
	sort.Strings(out)
	return out
}

// ParseSettingUpdate turns a "key value" pair from the command line into an
// update. List values are comma separated.
func ParseSettingUpdate(key, value string) (SettingsUpdate, error) {
	value = strings.TrimSpace(value)
	var u SettingsUpdate
	switch key {
	case "dailyPoints":
		n, err := strconv.Atoi(value)
		if err != nil {
			return u, invalid(key, "must be a whole number")
		}
		u.DailyPoints = &n
	case "weeklyBonus":
		n, err := strconv.Atoi(value)
		if err != nil {
			return u, invalid(key, "must be a whole number")
		}
		u.WeeklyBonus = &n
	case "goal":
		g := model.Goal(strings.ToLower(value))
		u.Goal = &g
	case "dietaryPrefs":
		list := splitList(value)
		u.DietaryPrefs = &list
	case "noGos":
		list := splitList(value)
		u.NoGos = &list
	case "locale":
		u.Locale = &value
	case "geminiApiKey":
		u.GeminiAPIKey = &value
	case "geminiModel":
		u.GeminiModel = &value
	case "onboardingComplete":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return u, invalid(key, "must be true or false")
		}
		u.OnboardingComplete = &b
	default:
		return u, invalid("key", "%q is not a setting (use one of: %s)", key, strings.Join(SettingKeys(), ", "))
	}
	return u, nil
}

func splitList(value string) []string {
	if value == "" {
		return []string{}
	}
	return normalizeList(strings.Split(value, ","))
}

// ResetAll clears every collection. Settings fall back to defaults.
func ResetAll(ctx context.Context, st *store.Store) error {
	if err := st.ClearAll(ctx); err != nil {
		return fmt.Errorf("reset data: %w", err)
	}
	return nil
}

// MaskKey hides all but the last four characters of an API key.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
