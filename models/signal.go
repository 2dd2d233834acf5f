package models

import "time"

// AcceptedSignal is the record handed to persistence/notification/execution
type AcceptedSignal struct {
	ID                string        `json:"id"`
	Symbol            string        `json:"symbol"`
	Timeframe         string        `json:"timeframe"`
	Direction         Direction     `json:"direction"`
	Zone              Zone          `json:"zone"`
	BreakTime         time.Time     `json:"break_time"`
	DetectedAt        time.Time     `json:"detected_at"`
	EntryPrice        float64       `json:"entry_price"`
	StopLoss          float64       `json:"stop_loss"`
	TakeProfit        float64       `json:"take_profit"`
	ATR               float64       `json:"atr"`
	HTF               HTFContext    `json:"htf"`
	Context           ScoreResult   `json:"context"`
	Quality           QualityResult `json:"quality"`
	IsBreakCandleLast bool          `json:"is_break_candle_last"`
	// NeedsLiveExecution is set when the break candle is the forming bar and the
	// SL/TP must be finalized against a live execution price.
	NeedsLiveExecution bool `json:"needs_live_execution"`
	Finalized          bool `json:"finalized"`
}

// Rejection is the structured "no signal" record
type Rejection struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Timeframe  string    `json:"timeframe"`
	Stage      Stage     `json:"stage"`
	Gate       string    `json:"gate,omitempty"`
	Reason     string    `json:"reason"`
	Direction  Direction `json:"direction,omitempty"`
	DetectedAt time.Time `json:"detected_at"`
}
