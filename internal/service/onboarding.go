package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/saadjs/points-cli/internal/model"
	"github.com/saadjs/points-cli/internal/store"
)

type GoalPreset struct {
	Name   string
	Goal   model.Goal
	Points int
}

var goalPresets = map[string]GoalPreset{
	"lose_fast":     {Name: "lose_fast", Goal: model.GoalLose, Points: 18},
	"lose_moderate": {Name: "lose_moderate", Goal: model.GoalLose, Points: 23},
	"lose_slow":     {Name: "lose_slow", Goal: model.GoalLose, Points: 27},
	"maintain":      {Name: "maintain", Goal: model.GoalMaintain, Points: 30},
}

func GoalPresets() []GoalPreset {
	out := make([]GoalPreset, 0, len(goalPresets))
	for _, p := range goalPresets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Points < out[j].Points })
	return out
}

type OnboardingInput struct {
	Preset       string
	CustomPoints int
	DietaryPrefs []string
	NoGos        []string
	APIKey       string
	Model        string
	Locale       string
}

// CompleteOnboarding applies a goal preset or a custom budget and marks the
// profile as set up. A custom budget overrides the preset's points.
func CompleteOnboarding(ctx context.Context, st *store.Store, in OnboardingInput) (model.Settings, error) {
	s, err := GetSettings(ctx, st)
	if err != nil {
		return model.Settings{}, err
	}

	preset := strings.ToLower(strings.TrimSpace(in.Preset))
	switch {
	case in.CustomPoints != 0:
		if in.CustomPoints < CustomGoalMinPoints || in.CustomPoints > CustomGoalMaxPoints {
			return model.Settings{}, invalid("points", "must be between %d and %d", CustomGoalMinPoints, CustomGoalMaxPoints)
		}
		s.DailyPoints = in.CustomPoints
		s.Goal = model.GoalLose
		if p, ok := goalPresets[preset]; ok {
			s.Goal = p.Goal
		}
	case preset != "":
		p, ok := goalPresets[preset]
		if !ok {
			return model.Settings{}, invalid("goal", "unknown preset %q", in.Preset)
		}
		s.DailyPoints = p.Points
		s.Goal = p.Goal
	default:
		return model.Settings{}, invalid("goal", "a preset or custom points value is required")
	}

	if in.DietaryPrefs != nil {
		s.DietaryPrefs = in.DietaryPrefs
	}
	if in.NoGos != nil {
		s.NoGos = in.NoGos
	}
	if key := strings.TrimSpace(in.APIKey); key != "" {
		s.GeminiAPIKey = key
	}
	if m := strings.TrimSpace(in.Model); m != "" {
		s.GeminiModel = m
	}
	if l := strings.TrimSpace(in.Locale); l != "" {
		s.Locale = l
	}
	s.OnboardingComplete = true

	if err := SaveSettings(ctx, st, s); err != nil {
		return model.Settings{}, fmt.Errorf("complete onboarding: %w", err)
	}
	return s, nil
}
