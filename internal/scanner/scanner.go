package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Alias1177/zonescan/internal/config"
	"github.com/Alias1177/zonescan/internal/signal"
	"github.com/Alias1177/zonescan/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Options tune the cycle runner
type Options struct {
	Workers           int
	InstrumentTimeout time.Duration
}

// CycleReport summarises one scan cycle
type CycleReport struct {
	Accepted int
	Rejected int
	Skipped  int
	Duration time.Duration
}

// Scanner fetches market data at the boundary and runs the pipeline per
// instrument and execution timeframe on a bounded worker pool.
type Scanner struct {
	strategy *config.Strategy
	feed     CandleFeed
	trends   TrendOracle
	levels   LevelSource
	sink     Sink
	pipeline *Pipeline
	opts     Options
	logger   zerolog.Logger
	now      func() time.Time
}

func New(strategy *config.Strategy, feed CandleFeed, trends TrendOracle, levels LevelSource, sink Sink, opts Options) *Scanner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.InstrumentTimeout <= 0 {
		opts.InstrumentTimeout = 45 * time.Second
	}

	assembler := signal.NewAssembler(strategy.Risk, strategy.Scoring.Tiers)
	return &Scanner{
		strategy: strategy,
		feed:     feed,
		trends:   trends,
		levels:   levels,
		sink:     sink,
		pipeline: NewPipeline(strategy, assembler),
		opts:     opts,
		logger:   log.With().Str("component", "scanner").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type job struct {
	instrument config.Instrument
	timeframe  string
}

// RunCycle scans every instrument once. Per-instrument failures become
// rejections; cancelling ctx abandons the instruments not yet started and the
// cycle returns ctx.Err().
func (s *Scanner) RunCycle(ctx context.Context) (CycleReport, error) {
	start := time.Now()

	var jobs []job
	for _, inst := range s.strategy.Instruments {
		for _, tf := range s.strategy.ExecutionTimeframes {
			jobs = append(jobs, job{instrument: inst, timeframe: tf})
		}
	}

	var (
		mu     sync.Mutex
		report CycleReport
	)
	count := func(out signal.Outcome, skipped bool) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case skipped:
			report.Skipped++
		case out.Accepted():
			report.Accepted++
		default:
			report.Rejected++
		}
	}

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)

	for _, j := range jobs {
		if ctx.Err() != nil {
			count(signal.Outcome{}, true)
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				count(signal.Outcome{}, true)
				return nil
			}
			out, ok := s.scanInstrument(ctx, j)
			count(out, !ok)
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(start)
	s.logger.Info().
		Int("accepted", report.Accepted).
		Int("rejected", report.Rejected).
		Int("skipped", report.Skipped).
		Dur("duration", report.Duration).
		Msg("Scan cycle finished")

	return report, ctx.Err()
}

// Run scans immediately and then on every interval until ctx is done
func (s *Scanner) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunCycle(ctx); err != nil {
			s.logger.Info().Err(err).Msg("Scanner stopping")
			return nil
		}
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Scanner stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// scanInstrument returns false when the cycle was cancelled mid-fetch
func (s *Scanner) scanInstrument(ctx context.Context, j job) (signal.Outcome, bool) {
	logger := s.logger.With().Str("symbol", j.instrument.Symbol).Str("timeframe", j.timeframe).Logger()

	in, err := s.fetch(ctx, j)
	if err != nil {
		if ctx.Err() != nil {
			return signal.Outcome{}, false
		}
		out := s.pipeline.assembler.Reject(j.instrument.Symbol, j.timeframe, models.StageData, err.Error(), models.Neutral)
		logger.Warn().Str("stage", string(models.StageData)).Str("reason", err.Error()).Msg("Instrument failed")
		s.emit(ctx, logger, out)
		return out, true
	}

	out := s.pipeline.Run(in)
	if out.Rejection != nil {
		logger.Debug().
			Str("stage", string(out.Rejection.Stage)).
			Str("gate", out.Rejection.Gate).
			Str("reason", out.Rejection.Reason).
			Msg("No signal")
	} else {
		logger.Info().
			Str("direction", string(out.Signal.Direction)).
			Str("tier", string(out.Signal.Quality.Tier)).
			Float64("score", out.Signal.Quality.FinalScore).
			Msg("Signal accepted")
	}
	s.emit(ctx, logger, out)
	return out, true
}

// fetch does all the I/O for one instrument under the per-instrument timeout.
// Trend and level failures degrade to missing entries; a candle failure is fatal.
func (s *Scanner) fetch(ctx context.Context, j job) (Input, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.InstrumentTimeout)
	defer cancel()

	sym := j.instrument.Symbol
	tfSettings, err := s.strategy.Timeframe(j.timeframe)
	if err != nil {
		return Input{}, err
	}

	candles, err := s.feed.Candles(ctx, sym, j.timeframe, tfSettings.LookbackBars)
	if err != nil {
		return Input{}, fmt.Errorf("fetching candles: %w", err)
	}

	trends := make(map[string]models.Direction, len(s.strategy.Trend.Timeframes))
	for _, tf := range s.strategy.Trend.Timeframes {
		dir, err := s.trends.Trend(ctx, sym, tf)
		if err != nil {
			s.logger.Debug().Err(err).Str("symbol", sym).Str("trend_timeframe", tf).Msg("Trend unavailable")
			continue
		}
		trends[tf] = dir
	}

	levels := make(map[string]models.HTFLevel, len(s.strategy.HTF.Timeframes))
	for _, tf := range s.strategy.HTF.Timeframes {
		level, err := s.levels.LastClosed(ctx, sym, tf)
		if err != nil {
			s.logger.Debug().Err(err).Str("symbol", sym).Str("htf", tf).Msg("HTF level unavailable")
			continue
		}
		levels[tf] = level
	}

	if ctx.Err() != nil {
		return Input{}, fmt.Errorf("instrument timeout: %w", ctx.Err())
	}

	return Input{
		Instrument: j.instrument,
		Timeframe:  j.timeframe,
		Candles:    candles,
		Trends:     trends,
		Levels:     levels,
		SignalTime: s.now(),
	}, nil
}

// emitTimeout bounds a sink write once the pipeline result exists
const emitTimeout = 10 * time.Second

// emit delivers an outcome even when the cycle is being cancelled; a finished
// result is never dropped on shutdown.
func (s *Scanner) emit(ctx context.Context, logger zerolog.Logger, out signal.Outcome) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
	defer cancel()

	var err error
	switch {
	case out.Signal != nil:
		err = s.sink.EmitAccepted(ctx, out.Signal)
	case out.Rejection != nil:
		err = s.sink.EmitRejection(ctx, out.Rejection)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Sink failed")
	}
}
