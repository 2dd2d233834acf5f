package trend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Alias1177/zonescan/internal/config"
	"github.com/Alias1177/zonescan/models"
)

type fakeFeed struct {
	candles []models.Candle
	err     error
	asked   int
}

func (f *fakeFeed) Candles(_ context.Context, _, _ string, lookback int) ([]models.Candle, error) {
	f.asked = lookback
	return f.candles, f.err
}

func series(n int, price func(int) float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		p := price(i)
		out[i] = models.Candle{Open: p, High: p, Low: p, Close: p}
	}
	return out
}

func TestEMAOracle(t *testing.T) {
	settings := config.TrendSettings{FastEMA: 5, SlowEMA: 20, LookbackBars: 60}

	tests := []struct {
		name     string
		feed     *fakeFeed
		expected models.Direction
		wantErr  bool
	}{
		{
			name:     "rising market",
			feed:     &fakeFeed{candles: series(60, func(i int) float64 { return 1.10 + float64(i)*0.001 })},
			expected: models.Bullish,
		},
		{
			name:     "falling market",
			feed:     &fakeFeed{candles: series(60, func(i int) float64 { return 1.20 - float64(i)*0.001 })},
			expected: models.Bearish,
		},
		{
			name:     "flat market",
			feed:     &fakeFeed{candles: series(60, func(int) float64 { return 1.5 })},
			expected: models.Neutral,
		},
		{
			name:    "feed failure",
			feed:    &fakeFeed{err: errors.New("timeout")},
			wantErr: true,
		},
		{
			name:    "too few candles",
			feed:    &fakeFeed{candles: series(10, func(int) float64 { return 1.5 })},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEMAOracle(tt.feed, settings).Trend(context.Background(), "EUR/USD", "4H")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Trend() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.expected {
				t.Errorf("Trend() = %s, want %s", got, tt.expected)
			}
			if tt.feed.asked != 61 {
				t.Errorf("requested %d candles, want 61", tt.feed.asked)
			}
		})
	}
}

func TestTrendIgnoresFormingCandle(t *testing.T) {
	settings := config.TrendSettings{FastEMA: 5, SlowEMA: 20, LookbackBars: 60}
	now := time.Date(2024, 3, 4, 10, 30, 0, 0, time.UTC)

	// A steady decline on closed 4H bars, then a forming bar spiking far above
	candles := series(61, func(i int) float64 { return 1.20 - float64(i)*0.001 })
	for i := range candles {
		candles[i].Time = now.Add(-time.Duration(60-i) * 4 * time.Hour).Add(-2 * time.Hour)
	}
	candles[60].Close, candles[60].High = 1.50, 1.50

	oracle := NewEMAOracle(&fakeFeed{candles: candles}, settings)
	oracle.now = func() time.Time { return now }

	got, err := oracle.Trend(context.Background(), "EUR/USD", "4H")
	if err != nil {
		t.Fatalf("Trend() error = %v", err)
	}
	if got != models.Bearish {
		t.Errorf("Trend() = %s, want bearish from closed candles only", got)
	}
}

func TestClosedOnly(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		name     string
		lastOpen time.Time
		expected int
	}{
		{"forming bar dropped", time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC), 1},
		{"closed bar kept", time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), 2},
		{"bar closing exactly now kept", time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candles := []models.Candle{{Time: tt.lastOpen.Add(-time.Hour)}, {Time: tt.lastOpen}}
			if got := closedOnly(candles, "1H", now); len(got) != tt.expected {
				t.Errorf("closedOnly() kept %d candles, want %d", len(got), tt.expected)
			}
		})
	}
}
