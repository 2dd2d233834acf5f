package scanner

import (
	"context"

	"github.com/Alias1177/zonescan/models"
)

// CandleFeed returns time-ordered candles, oldest first
type CandleFeed interface {
	Candles(ctx context.Context, symbol, timeframe string, lookback int) ([]models.Candle, error)
}

// TrendOracle answers the trend of one timeframe; an error means unavailable
type TrendOracle interface {
	Trend(ctx context.Context, symbol, timeframe string) (models.Direction, error)
}

// LevelSource returns the most recently closed higher-timeframe candle
type LevelSource interface {
	LastClosed(ctx context.Context, symbol, timeframe string) (models.HTFLevel, error)
}

// Sink receives the records produced by the pipeline
type Sink interface {
	EmitAccepted(ctx context.Context, sig *models.AcceptedSignal) error
	EmitRejection(ctx context.Context, rej *models.Rejection) error
}
