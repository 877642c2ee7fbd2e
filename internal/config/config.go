package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/saadjs/points-cli/internal/app"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "POINTS"

const (
	KeyDB            = "db"
	KeyLogLevel      = "log_level"
	KeyMetricsOut    = "metrics_out"
	KeyGeminiAPIKey  = "gemini.api_key"
	KeyGeminiModel   = "gemini.model"
	KeyGeminiBaseURL = "gemini.base_url"
	KeyHTTPTimeout   = "http_timeout"
)

// Config holds process level settings. User preferences such as the daily
// budget live in the settings collection, not here.
type Config struct {
	DBPath        string
	LogLevel      string
	MetricsOut    string
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	HTTPTimeout   time.Duration
}

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"db":          KeyDB,
	"log-level":   KeyLogLevel,
	"metrics-out": KeyMetricsOut,
}

type Options struct {
	// EnvFiles are loaded with godotenv before reading the environment.
	// Missing files are ignored. Defaults to ".env".
	EnvFiles []string
	// ConfigDirs are searched for config.yaml. Defaults to the app config
	// directory and the working directory.
	ConfigDirs []string
}

// Load merges, from lowest to highest precedence: defaults, config.yaml,
// POINTS_* environment variables (including .env files) and set flags.
func Load(flags *pflag.FlagSet, opts Options) (Config, error) {
	envFiles := opts.EnvFiles
	if envFiles == nil {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyHTTPTimeout, 60*time.Second)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	dirs := opts.ConfigDirs
	if dirs == nil {
		if dir, err := app.ConfigDir(); err == nil {
			dirs = append(dirs, dir)
		}
		dirs = append(dirs, ".")
	}
	for _, d := range dirs {
		v.AddConfigPath(d)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := Config{
		DBPath:        v.GetString(KeyDB),
		LogLevel:      v.GetString(KeyLogLevel),
		MetricsOut:    v.GetString(KeyMetricsOut),
		GeminiAPIKey:  v.GetString(KeyGeminiAPIKey),
		GeminiModel:   v.GetString(KeyGeminiModel),
		GeminiBaseURL: v.GetString(KeyGeminiBaseURL),
		HTTPTimeout:   v.GetDuration(KeyHTTPTimeout),
	}
	if cfg.DBPath == "" {
		p, err := app.DefaultDBPath()
		if err != nil {
			return Config{}, err
		}
		cfg.DBPath = p
	}
	if cfg.HTTPTimeout <= 0 {
		return Config{}, fmt.Errorf("http_timeout must be positive, got %s", cfg.HTTPTimeout)
	}
	return cfg, nil
}
