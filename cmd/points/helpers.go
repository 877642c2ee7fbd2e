package points

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/saadjs/points-cli/internal/cache"
	"github.com/saadjs/points-cli/internal/estimator"
	"github.com/saadjs/points-cli/internal/model"
	"github.com/saadjs/points-cli/internal/provider/gemini"
	"github.com/saadjs/points-cli/internal/service"
	"github.com/saadjs/points-cli/internal/store"
	"github.com/spf13/cobra"
)

const breakerCooldown = 30 * time.Second

func withStore(cmd *cobra.Command, run func(ctx context.Context, st *store.Store) error) error {
	path, err := resolveDBPath()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(ctx, path)
	if err != nil {
		return err
	}
	defer st.Close()
	return run(ctx, st)
}

func resolveDBPath() (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, nil
	}
	if dbPath != "" {
		return dbPath, nil
	}
	return "", fmt.Errorf("no database path configured")
}

func newCache(st *store.Store) *cache.Cache {
	return cache.New(st.Cache, cache.WithRecorder(collector), cache.WithLogger(logger))
}

func newEstimator() *estimator.Estimator {
	client := &gemini.Client{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		Breaker:    gemini.NewBreaker(breakerCooldown),
	}
	return estimator.New(client, estimator.WithRecorder(collector), estimator.WithLogger(logger))
}

// dateOrToday validates an optional --date flag.
func dateOrToday(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return service.DateKey(time.Now()), nil
	}
	if _, err := service.ParseDate(value); err != nil {
		return "", err
	}
	return value, nil
}

func mealOrDefault(value string) (model.MealType, error) {
	if strings.TrimSpace(value) == "" {
		return service.DefaultMealType(time.Now().Hour()), nil
	}
	return service.ParseMealType(value)
}

func formatPoints(v float64) string {
	return strings.TrimSuffix(fmt.Sprintf("%.1f", v), ".0")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
