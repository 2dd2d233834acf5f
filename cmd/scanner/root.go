package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Alias1177/zonescan/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	strategyPath string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "zonescan",
	Short: "Forex zone break-and-retest signal scanner",
	Long: `Scans the configured FX instruments for break-and-retest entries at
areas of interest, filters them through the gate chain and scores their
quality. Accepted signals go to the log, PostgreSQL and Telegram when
those are configured.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&strategyPath, "strategy", "s", "", "strategy YAML file (overrides STRATEGY_PATH)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level (overrides LOG_LEVEL)")
}

func setupLogging(level string) {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)
}

// loadConfig reads the process config and the strategy it points at
func loadConfig(ctx context.Context) (*config.Config, *config.Strategy, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	path := cfg.StrategyPath
	if strategyPath != "" {
		path = strategyPath
	}
	if _, err := os.Stat(path); err != nil && strategyPath == "" {
		log.Warn().Str("path", path).Msg("Strategy file not found, using defaults")
		path = ""
	}

	strategy, err := config.LoadStrategy(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading strategy: %w", err)
	}
	return cfg, strategy, nil
}
