package scanner

import (
	"context"
	"errors"

	"github.com/Alias1177/zonescan/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogSink writes every record to the structured log
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink() *LogSink {
	return &LogSink{logger: log.With().Str("component", "signal_log").Logger()}
}

func (l *LogSink) EmitAccepted(_ context.Context, sig *models.AcceptedSignal) error {
	l.logger.Info().
		Str("id", sig.ID).
		Str("symbol", sig.Symbol).
		Str("timeframe", sig.Timeframe).
		Str("direction", string(sig.Direction)).
		Float64("entry", sig.EntryPrice).
		Float64("stop_loss", sig.StopLoss).
		Float64("take_profit", sig.TakeProfit).
		Float64("zone_lower", sig.Zone.Lower).
		Float64("zone_upper", sig.Zone.Upper).
		Float64("quality", sig.Quality.FinalScore).
		Str("tier", string(sig.Quality.Tier)).
		Bool("needs_live_execution", sig.NeedsLiveExecution).
		Msg("Accepted signal")
	return nil
}

func (l *LogSink) EmitRejection(_ context.Context, rej *models.Rejection) error {
	l.logger.Debug().
		Str("id", rej.ID).
		Str("symbol", rej.Symbol).
		Str("timeframe", rej.Timeframe).
		Str("stage", string(rej.Stage)).
		Str("gate", rej.Gate).
		Str("reason", rej.Reason).
		Msg("Rejected")
	return nil
}

// MultiSink fans a record out to every sink; all sinks are tried and their
// errors joined.
type MultiSink []Sink

func (m MultiSink) EmitAccepted(ctx context.Context, sig *models.AcceptedSignal) error {
	var errs []error
	for _, s := range m {
		if err := s.EmitAccepted(ctx, sig); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) EmitRejection(ctx context.Context, rej *models.Rejection) error {
	var errs []error
	for _, s := range m {
		if err := s.EmitRejection(ctx, rej); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
