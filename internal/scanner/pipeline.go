package scanner

import (
	"fmt"
	"time"

	"github.com/Alias1177/zonescan/internal/analysis/htf"
	"github.com/Alias1177/zonescan/internal/analysis/pattern"
	"github.com/Alias1177/zonescan/internal/analysis/swing"
	"github.com/Alias1177/zonescan/internal/analysis/zone"
	"github.com/Alias1177/zonescan/internal/calculate"
	"github.com/Alias1177/zonescan/internal/config"
	"github.com/Alias1177/zonescan/internal/gate"
	"github.com/Alias1177/zonescan/internal/quality"
	"github.com/Alias1177/zonescan/internal/signal"
	"github.com/Alias1177/zonescan/models"
)

// Input is everything one pipeline run needs, already fetched
type Input struct {
	Instrument config.Instrument
	Timeframe  string
	Candles    []models.Candle
	// Trends per trend timeframe; timeframes whose oracle failed are absent
	Trends     map[string]models.Direction
	Levels     map[string]models.HTFLevel
	SignalTime time.Time
}

// Pipeline runs the pure detection stages for one instrument and timeframe.
// It holds no mutable state and is safe for concurrent use.
type Pipeline struct {
	strategy  *config.Strategy
	chain     gate.Chain
	assembler *signal.Assembler
}

func NewPipeline(strategy *config.Strategy, assembler *signal.Assembler) *Pipeline {
	return &Pipeline{
		strategy:  strategy,
		chain:     gate.DefaultChain(),
		assembler: assembler,
	}
}

// Run walks swings -> zones -> classification -> pattern -> HTF -> gates ->
// quality and returns a single outcome.
func (p *Pipeline) Run(in Input) signal.Outcome {
	s := p.strategy
	sym, tf := in.Instrument.Symbol, in.Timeframe
	pip := in.Instrument.PipSize

	tfSettings, err := s.Timeframe(tf)
	if err != nil {
		return p.assembler.Reject(sym, tf, models.StageData, err.Error(), models.Neutral)
	}

	if len(in.Candles) < s.MinCandles {
		return p.assembler.Reject(sym, tf, models.StageData,
			fmt.Sprintf("have %d candles, need %d", len(in.Candles), s.MinCandles), models.Neutral)
	}

	atr := calculate.CalculateATR(in.Candles, s.ATRPeriod)
	if atr <= 0 {
		return p.assembler.Reject(sym, tf, models.StageData, "ATR unavailable", models.Neutral)
	}

	direction := Consensus(in.Trends, s.Trend.Timeframes)

	window := in.Candles
	if tfSettings.AOILookback > 0 && tfSettings.AOILookback < len(window) {
		window = window[len(window)-tfSettings.AOILookback:]
	}
	lastBar := len(window) - 1

	swings := swing.Detect(models.Closes(window), tfSettings.SwingDistance, tfSettings.SwingProminencePips*pip)
	band := zone.DynamicHeightBand(s.AOI, atr, pip)
	candidates := zone.BuildCandidates(swings, lastBar, zone.NewBuildSettings(s.AOI, pip, band))
	resolved := zone.Resolve(candidates, zone.ResolveSettings{
		TolerancePrice: s.AOI.OverlapTolerancePips * pip,
		MaxHeightPrice: band.Max,
		MaxAgeBars:     s.AOI.MaxAgeBars,
		LastBarIndex:   lastBar,
	})
	if len(resolved) == 0 {
		return p.assembler.Reject(sym, tf, models.StageZones,
			fmt.Sprintf("no zones from %d swings", len(swings)), direction)
	}

	if direction == models.Neutral {
		return p.assembler.Reject(sym, tf, models.StageClassify, "neutral trend, no tradable zones", direction)
	}

	price := in.Candles[len(in.Candles)-1].Close
	tradable := zone.Tradable(zone.Classify(resolved, price, direction, s.AOI.AlignmentWeight, tf))
	if len(tradable) == 0 {
		return p.assembler.Reject(sym, tf, models.StageClassify,
			fmt.Sprintf("none of %d zones tradable for %s trend", len(resolved), direction), direction)
	}

	entry, ok := pattern.MatchBest(in.Candles, tradable, direction, s.Pattern)
	if !ok {
		return p.assembler.Reject(sym, tf, models.StagePattern, "no retest/break pattern", direction)
	}

	if len(in.Levels) == 0 {
		return p.assembler.Reject(sym, tf, models.StageHTF, "higher timeframe levels unavailable", direction)
	}
	entryPrice := entry.Break().Close
	htfCtx := htf.Build(entryPrice, atr, direction, s.HTF.Timeframes, in.Levels)
	contextScore := htf.Score(htfCtx, direction, s.HTF, s.Gates.MinObstacleATR)

	gates := p.chain.Run(gate.Context{
		Symbol:          sym,
		Direction:       direction,
		SignalTime:      in.SignalTime,
		Trends:          in.Trends,
		TrendTimeframes: s.Trend.Timeframes,
		HTF:             htfCtx,
		DailyTimeframe:  s.HTF.DailyTimeframe,
		WeeklyTimeframe: s.HTF.WeeklyTimeframe,
		Settings:        s.Gates,
	})

	var q models.QualityResult
	if gates.Passed {
		q = quality.Score(entry, s.Scoring)
	}

	return p.assembler.Assemble(signal.Input{
		Symbol:    sym,
		Timeframe: tf,
		PipSize:   pip,
		ATR:       atr,
		Pattern:   entry,
		HTF:       htfCtx,
		Context:   contextScore,
		Gates:     gates,
		Quality:   q,
	})
}

// Consensus is the majority vote of the available trend timeframes. Ties and
// an empty vote are neutral.
func Consensus(trends map[string]models.Direction, timeframes []string) models.Direction {
	var bull, bear int
	for _, tf := range timeframes {
		switch trends[tf] {
		case models.Bullish:
			bull++
		case models.Bearish:
			bear++
		}
	}
	switch {
	case bull > bear:
		return models.Bullish
	case bear > bull:
		return models.Bearish
	default:
		return models.Neutral
	}
}
