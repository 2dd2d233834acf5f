package trend

import (
	"context"
	"fmt"
	"time"

	"github.com/Alias1177/zonescan/internal/calculate"
	"github.com/Alias1177/zonescan/internal/config"
	"github.com/Alias1177/zonescan/models"
)

// CandleSource is the part of the feed the oracle needs
type CandleSource interface {
	Candles(ctx context.Context, symbol, timeframe string, lookback int) ([]models.Candle, error)
}

// EMAOracle calls the trend from a fast/slow EMA pair on closed candles
type EMAOracle struct {
	feed     CandleSource
	settings config.TrendSettings
	now      func() time.Time
}

func NewEMAOracle(feed CandleSource, settings config.TrendSettings) *EMAOracle {
	return &EMAOracle{feed: feed, settings: settings, now: time.Now}
}

// Trend is bullish when the fast EMA is above the slow one and the last close
// is above the slow EMA, bearish for the mirror case, neutral otherwise.
func (o *EMAOracle) Trend(ctx context.Context, symbol, timeframe string) (models.Direction, error) {
	lookback := o.settings.LookbackBars
	if lookback < o.settings.SlowEMA {
		lookback = o.settings.SlowEMA
	}

	// One extra bar covers the forming candle dropped below
	candles, err := o.feed.Candles(ctx, symbol, timeframe, lookback+1)
	if err != nil {
		return models.Neutral, fmt.Errorf("fetching %s %s candles: %w", symbol, timeframe, err)
	}
	candles = closedOnly(candles, timeframe, o.now())
	if len(candles) < o.settings.SlowEMA {
		return models.Neutral, fmt.Errorf("trend for %s %s needs %d candles, got %d",
			symbol, timeframe, o.settings.SlowEMA, len(candles))
	}

	return Classify(models.Closes(candles), o.settings.FastEMA, o.settings.SlowEMA), nil
}

// closedOnly drops the last candle while its bar is still forming
func closedOnly(candles []models.Candle, timeframe string, now time.Time) []models.Candle {
	length, ok := models.TimeframeDuration(timeframe)
	if !ok || len(candles) == 0 {
		return candles
	}
	if candles[len(candles)-1].Time.Add(length).After(now) {
		return candles[:len(candles)-1]
	}
	return candles
}

// Classify compares the fast and slow EMA of a close series
func Classify(closes []float64, fast, slow int) models.Direction {
	if len(closes) == 0 {
		return models.Neutral
	}
	fastEMA := calculate.CalculateEMAFromPrices(closes, fast)
	slowEMA := calculate.CalculateEMAFromPrices(closes, slow)
	last := closes[len(closes)-1]

	switch {
	case fastEMA > slowEMA && last > slowEMA:
		return models.Bullish
	case fastEMA < slowEMA && last < slowEMA:
		return models.Bearish
	default:
		return models.Neutral
	}
}
