package calculate

import (
	"math"
	"testing"

	"github.com/Alias1177/zonescan/models"
)

func TestCalculateATR(t *testing.T) {
	tests := []struct {
		name     string
		candles  []models.Candle
		period   int
		expected float64
	}{
		{
			name:     "not enough data",
			candles:  generateTestCandles(3, func(i int) models.Candle { return models.Candle{High: 2, Low: 1, Close: 1.5} }),
			period:   14,
			expected: 0,
		},
		{
			name: "constant range",
			candles: generateTestCandles(30, func(i int) models.Candle {
				return models.Candle{Open: 1.10, High: 1.1010, Low: 1.0990, Close: 1.10}
			}),
			period:   14,
			expected: 0.0020,
		},
		{
			name: "gap extends true range",
			candles: []models.Candle{
				{Open: 1.0, High: 1.0, Low: 1.0, Close: 1.0},
				{Open: 1.2, High: 1.2, Low: 1.2, Close: 1.2},
				{Open: 1.2, High: 1.2, Low: 1.2, Close: 1.2},
			},
			period:   2,
			expected: 0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateATR(tt.candles, tt.period)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("CalculateATR() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCalculateEMAFromPrices(t *testing.T) {
	if got := CalculateEMAFromPrices(nil, 5); got != 0 {
		t.Errorf("CalculateEMAFromPrices(nil) = %v, want 0", got)
	}

	flat := []float64{2, 2, 2, 2, 2, 2, 2, 2}
	if got := CalculateEMAFromPrices(flat, 3); math.Abs(got-2) > 1e-12 {
		t.Errorf("CalculateEMAFromPrices(flat) = %v, want 2", got)
	}

	rising := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	fast := CalculateEMAFromPrices(rising, 3)
	slow := CalculateEMAFromPrices(rising, 6)
	if fast <= slow {
		t.Errorf("fast EMA %v should lead slow EMA %v on a rising series", fast, slow)
	}
}

func generateTestCandles(n int, generator func(int) models.Candle) []models.Candle {
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = generator(i)
	}
	return candles
}
