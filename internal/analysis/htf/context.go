package htf

import (
	"math"

	"github.com/Alias1177/zonescan/internal/config"
	"github.com/Alias1177/zonescan/models"
)

// NoObstacleATR is reported when no higher-timeframe level stands in the way
const NoObstacleATR = 999.0

// Build computes the higher-timeframe context for an entry. levels holds the
// most recently closed candle per timeframe; missing timeframes get a nil
// range position.
func Build(entry, atr float64, direction models.Direction, timeframes []string, levels map[string]models.HTFLevel) models.HTFContext {
	ctx := models.HTFContext{
		RangePositions: make(map[string]*float64, len(timeframes)),
		Levels:         make(map[string]models.HTFLevel, len(levels)),
	}

	for _, tf := range timeframes {
		level, ok := levels[tf]
		if !ok {
			ctx.RangePositions[tf] = nil
			continue
		}
		ctx.Levels[tf] = level
		ctx.RangePositions[tf] = RangePosition(entry, level)
	}

	ctx.ObstacleATR = ObstacleDistance(entry, atr, direction, ctx.Levels)
	return ctx
}

// RangePosition places entry inside the level's high/low, clamped to [0,1].
// nil when the range is empty or inverted.
func RangePosition(entry float64, level models.HTFLevel) *float64 {
	if level.High <= level.Low {
		return nil
	}
	pos := clamp01((entry - level.Low) / (level.High - level.Low))
	return &pos
}

// ObstacleDistance is the distance in ATR to the nearest higher-timeframe high
// above a bullish entry, or low below a bearish one. nil when atr <= 0.
func ObstacleDistance(entry, atr float64, direction models.Direction, levels map[string]models.HTFLevel) *float64 {
	if atr <= 0 {
		return nil
	}

	nearest := math.Inf(1)
	for _, level := range levels {
		switch direction {
		case models.Bullish:
			if level.High > entry {
				nearest = math.Min(nearest, level.High-entry)
			}
		case models.Bearish:
			if level.Low < entry {
				nearest = math.Min(nearest, entry-level.Low)
			}
		}
	}

	dist := NoObstacleATR
	if !math.IsInf(nearest, 1) {
		dist = nearest / atr
	}
	return &dist
}

// Score rates the context: how favourable the range positions are for the
// direction, and how much room there is before the next obstacle.
func Score(ctx models.HTFContext, direction models.Direction, s config.HTFSettings, minObstacleATR float64) models.ScoreResult {
	var sum float64
	var n int
	for _, pos := range ctx.RangePositions {
		if pos == nil {
			continue
		}
		switch direction {
		case models.Bullish:
			sum += 1 - *pos
		case models.Bearish:
			sum += *pos
		default:
			continue
		}
		n++
	}

	var res models.ScoreResult
	if n > 0 {
		res.HTFScore = sum / float64(n)
	}
	if ctx.ObstacleATR != nil && minObstacleATR > 0 {
		res.ObstacleScore = clamp01(*ctx.ObstacleATR / (2 * minObstacleATR))
	}

	res.TotalScore = s.ContextHTFWeight*res.HTFScore + s.ContextObstacleWeight*res.ObstacleScore
	res.Passed = res.TotalScore >= s.ContextPassThreshold
	return res
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
