package calculate

import (
	"math"

	"github.com/Alias1177/zonescan/models"
)

// CalculateATR returns the Wilder-smoothed Average True Range of the series.
// Returns 0 when there is not enough data for a single period.
func CalculateATR(candles []models.Candle, period int) float64 {
	if period < 1 || len(candles) < period+1 {
		return 0
	}

	// True Range is the greatest of:
	// 1. Current High - Current Low
	// 2. Abs(Current High - Previous Close)
	// 3. Abs(Current Low - Previous Close)
	trueRanges := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		highLow := candles[i].High - candles[i].Low
		highPrevClose := math.Abs(candles[i].High - candles[i-1].Close)
		lowPrevClose := math.Abs(candles[i].Low - candles[i-1].Close)
		trueRanges = append(trueRanges, math.Max(highLow, math.Max(highPrevClose, lowPrevClose)))
	}

	// Seed with the simple average, then smooth
	atr := calculateAverage(trueRanges[:period])
	for i := period; i < len(trueRanges); i++ {
		atr = (atr*float64(period-1) + trueRanges[i]) / float64(period)
	}

	return atr
}
