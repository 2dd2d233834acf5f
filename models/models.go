package models

import (
	"math"
	"time"
)

// Candle represents a single closed (or forming) price candle
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume,omitempty"`
}

// Body is the absolute open-close distance
func (c Candle) Body() float64 {
	return math.Abs(c.Close - c.Open)
}

// Range is the high-low distance
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// WickUp is the distance from the top of the body to the high
func (c Candle) WickUp() float64 {
	return c.High - math.Max(c.Open, c.Close)
}

// WickDown is the distance from the bottom of the body to the low
func (c Candle) WickDown() float64 {
	return math.Min(c.Open, c.Close) - c.Low
}

func (c Candle) IsBullish() bool {
	return c.Close > c.Open
}

func (c Candle) IsBearish() bool {
	return c.Close < c.Open
}

// Closes extracts the close series used by swing detection
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// SwingKind marks a swing point as a local high or low
type SwingKind string

const (
	SwingHigh SwingKind = "high"
	SwingLow  SwingKind = "low"
)

// SwingPoint is a local extremum of a price series
type SwingPoint struct {
	Index int       `json:"index"`
	Price float64   `json:"price"`
	Kind  SwingKind `json:"kind"`
}

// ZoneCandidate is a price band built from clustered swing points.
// Lower <= Upper always holds and Height = Upper - Lower.
type ZoneCandidate struct {
	Lower          float64 `json:"lower"`
	Upper          float64 `json:"upper"`
	Height         float64 `json:"height"`
	Touches        int     `json:"touches"`
	Score          float64 `json:"score"`
	LastSwingIndex int     `json:"last_swing_index"`
}

// Contains reports whether price lies inside the band (inclusive)
func (z ZoneCandidate) Contains(price float64) bool {
	return price >= z.Lower && price <= z.Upper
}

// Zone is a resolved candidate tagged for one analysis cycle
type Zone struct {
	ZoneCandidate
	Classification Classification `json:"classification"`
	Timeframe      string         `json:"timeframe"`
	WeightedScore  float64        `json:"weighted_score"`
}

// EntryPattern is a retest -> break -> (optional) after-break sequence.
// Candles runs from the retest candle to the most recent candle; the indexes
// are positions inside Candles.
type EntryPattern struct {
	Direction         Direction `json:"direction"`
	Zone              Zone      `json:"zone"`
	Candles           []Candle  `json:"candles"`
	RetestIndex       int       `json:"retest_index"`
	BreakIndex        int       `json:"break_index"`
	AfterBreakIndex   int       `json:"after_break_index"` // -1 when absent
	IsBreakCandleLast bool      `json:"is_break_candle_last"`
}

func (p EntryPattern) Retest() Candle {
	return p.Candles[p.RetestIndex]
}

func (p EntryPattern) Break() Candle {
	return p.Candles[p.BreakIndex]
}

// AfterBreak returns the confirmation candle if the pattern has one
func (p EntryPattern) AfterBreak() (Candle, bool) {
	if p.AfterBreakIndex < 0 || p.AfterBreakIndex >= len(p.Candles) {
		return Candle{}, false
	}
	return p.Candles[p.AfterBreakIndex], true
}

// HTFLevel is the high/low of the most recently closed higher-timeframe candle
type HTFLevel struct {
	Timeframe string    `json:"timeframe"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Time      time.Time `json:"time"`
}

// HTFContext is recomputed on every scan and never cached
type HTFContext struct {
	RangePositions map[string]*float64 `json:"range_positions"`
	ObstacleATR    *float64            `json:"obstacle_atr"`
	Levels         map[string]HTFLevel `json:"levels"`
}

// Position returns the range position for a timeframe, nil when undefined
func (h HTFContext) Position(timeframe string) *float64 {
	if h.RangePositions == nil {
		return nil
	}
	return h.RangePositions[timeframe]
}

// ScoreResult is the informational HTF/obstacle context score
type ScoreResult struct {
	HTFScore      float64 `json:"htf_score"`
	ObstacleScore float64 `json:"obstacle_score"`
	TotalScore    float64 `json:"total_score"`
	Passed        bool    `json:"passed"`
}

// StageScores holds the eight clamped quality factors. AfterBreak (S5) is nil
// when the pattern has no confirmation candle.
type StageScores struct {
	Penetration  float64  `json:"s1_penetration"`
	WickMomentum float64  `json:"s2_wick_momentum"`
	BreakQuality float64  `json:"s3_break_quality"`
	Impulse      float64  `json:"s4_impulse"`
	AfterBreak   *float64 `json:"s5_after_break,omitempty"`
	CandleCount  float64  `json:"s6_candle_count"`
	RetestEntry  float64  `json:"s7_retest_entry"`
	OpposingWick float64  `json:"s8_opposing_wick"`
}

// QualityResult is the final confidence of a pattern
type QualityResult struct {
	FinalScore float64     `json:"final_score"`
	Tier       Tier        `json:"tier"`
	Stages     StageScores `json:"stages"`
	Invalid    string      `json:"invalid,omitempty"`
}
