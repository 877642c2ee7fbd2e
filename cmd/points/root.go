package points

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/saadjs/points-cli/internal/config"
	"github.com/saadjs/points-cli/internal/logging"
	"github.com/saadjs/points-cli/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dbPath     string
	logLevel   string
	metricsOut string
)

// Process wide state, set up once per invocation in PersistentPreRunE.
var (
	cfg       config.Config
	logger    = zap.NewNop()
	collector = metrics.NewCollector("")
)

var rootCmd = &cobra.Command{
	Use:          "points",
	Short:        "points tracks daily food points from your terminal",
	Long:         "points is a local-first food points tracker. Meals are estimated with Gemini, cached locally and counted against a daily and weekly budget.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cmd.Root().PersistentFlags(), config.Options{})
		if err != nil {
			return err
		}
		l, err := logging.New(loaded.LogLevel)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = l
		collector = metrics.NewCollector("")
		logger.Debug("config loaded", zap.String("db", cfg.DBPath), zap.String("log_level", cfg.LogLevel))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		defer func() { _ = logger.Sync() }()
		if cfg.MetricsOut == "" {
			return nil
		}
		if err := collector.WriteTextfile(cfg.MetricsOut); err != nil {
			return err
		}
		logger.Debug("metrics written", zap.String("path", cfg.MetricsOut))
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (env POINTS_DB)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (env POINTS_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&metricsOut, "metrics-out", "", "Write Prometheus metrics to this file on exit")
}
