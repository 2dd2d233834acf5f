package calculate

// CalculateEMAFromPrices returns the last EMA value of the series, seeded with
// the SMA of the first period values.
func CalculateEMAFromPrices(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period < 1 || len(prices) < period {
		return prices[len(prices)-1] // Return last price if not enough data
	}

	sma := calculateAverage(prices[:period])

	// Multiplier for weighting the EMA
	multiplier := 2.0 / float64(period+1)

	ema := sma
	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
	}

	return ema
}
