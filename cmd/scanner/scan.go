package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Alias1177/zonescan/internal/api/twelvedata"
	"github.com/Alias1177/zonescan/internal/config"
	"github.com/Alias1177/zonescan/internal/database"
	"github.com/Alias1177/zonescan/internal/notify"
	"github.com/Alias1177/zonescan/internal/scanner"
	"github.com/Alias1177/zonescan/internal/trend"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scan on every SCAN_INTERVAL until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, cfg, cleanup, err := buildScanner(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		log.Info().Dur("interval", cfg.ScanInterval).Msg("Scanner started")
		return s.Run(ctx, cfg.ScanInterval)
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single scan cycle and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, _, cleanup, err := buildScanner(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := s.RunCycle(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "accepted=%d rejected=%d skipped=%d duration=%s\n",
			report.Accepted, report.Rejected, report.Skipped, report.Duration)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, strategy, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "configuration ok: %d instruments, execution timeframes %v\n",
			len(strategy.Instruments), strategy.ExecutionTimeframes)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd, onceCmd, validateCmd)
}

// buildScanner wires the feed, the trend oracle and the sinks. The returned
// cleanup closes whatever was opened.
func buildScanner(ctx context.Context) (*scanner.Scanner, *config.Config, func(), error) {
	cfg, strategy, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.TwelveAPIKey == "" {
		return nil, nil, nil, fmt.Errorf("%w: TWELVE_API_KEY is required to scan", config.ErrInvalidConfig)
	}

	feed := twelvedata.NewClient(twelvedata.ClientOptions{
		APIKey:          cfg.TwelveAPIKey,
		RequestTimeout:  cfg.RequestTimeoutDuration(),
		RequestsPerSec:  cfg.RequestsPerSec,
		MaxRetryTimeout: cfg.MaxRetryTimeout,
	})
	oracle := trend.NewEMAOracle(feed, strategy.Trend)

	sinks := scanner.MultiSink{scanner.NewLogSink()}
	cleanup := func() {}

	if cfg.DB.Enabled() {
		db, err := database.New(ctx, cfg.DB)
		if err != nil {
			return nil, nil, nil, err
		}
		cleanup = func() {
			if err := db.Close(); err != nil {
				log.Warn().Err(err).Msg("Closing database")
			}
		}
		sinks = append(sinks, database.NewStore(db))
		log.Info().Str("host", cfg.DB.Host).Msg("Persisting signals to PostgreSQL")
	}

	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		sinks = append(sinks, tg)
		log.Info().Int64("chat_id", cfg.TelegramChatID).Msg("Telegram notifications enabled")
	}

	s := scanner.New(strategy, feed, oracle, feed, sinks, scanner.Options{
		Workers:           cfg.Workers,
		InstrumentTimeout: cfg.InstrumentTimeout,
	})
	return s, cfg, cleanup, nil
}
