package cmd

import (
	"fmt"
	"os"

	"github.com/avvvet/tietaja/internal/app"
	"github.com/avvvet/tietaja/internal/config"
	"github.com/spf13/cobra"
)

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "tietaja",
	Short: "Conversational assistant with task and memory tools",
	Long: `tietaja answers chat messages with an LLM that can act on a Todoist
account and remember per-user preferences. Run "serve" for the NATS service
or "ask" for a single local turn.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (overrides LOG_FORMAT)")
}

// loadConfig reads the environment, applies command-line overrides, then validates.
func loadConfig() (*config.Config, error) {
	cfg := config.FromEnv()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setup builds the application for commands that work on local components.
func setup() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := config.NewLogger(os.Stderr, level, cfg.LogFormat)

	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return a, nil
}
