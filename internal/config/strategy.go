package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/Alias1177/zonescan/models"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrUnknownTimeframe = errors.New("unknown timeframe")
)

const weightSumTolerance = 1e-9

// Strategy is the immutable decision-engine configuration. It is built once at
// startup and passed into every pipeline invocation.
type Strategy struct {
	Instruments         []Instrument                 `yaml:"instruments"`
	ExecutionTimeframes []string                     `yaml:"execution_timeframes"`
	Timeframes          map[string]TimeframeSettings `yaml:"timeframes"`
	ATRPeriod           int                          `yaml:"atr_period"`
	MinCandles          int                          `yaml:"min_candles"`
	AOI                 AOISettings                  `yaml:"aoi"`
	Pattern             PatternSettings              `yaml:"pattern"`
	Trend               TrendSettings                `yaml:"trend"`
	HTF                 HTFSettings                  `yaml:"htf"`
	Gates               GateSettings                 `yaml:"gates"`
	Scoring             ScoringSettings              `yaml:"scoring"`
	Risk                RiskSettings                 `yaml:"risk"`
}

type Instrument struct {
	Symbol  string  `yaml:"symbol"`
	PipSize float64 `yaml:"pip_size"`
}

type TimeframeSettings struct {
	LookbackBars        int     `yaml:"lookback_bars"`
	SwingDistance       int     `yaml:"swing_distance"`
	SwingProminencePips float64 `yaml:"swing_prominence_pips"`
	AOILookback         int     `yaml:"aoi_lookback"` // 0 = use the full lookback
}

type AOISettings struct {
	MinTouches             int     `yaml:"min_touches"`
	MinSwingGapBars        int     `yaml:"min_swing_gap_bars"`
	OverlapTolerancePips   float64 `yaml:"overlap_tolerance_pips"`
	MaxAgeBars             int     `yaml:"max_age_bars"`
	MinHeightPipsFloor     float64 `yaml:"min_height_pips_floor"`
	MinHeightATRMultiplier float64 `yaml:"min_height_atr_multiplier"`
	MaxHeightPipsFloor     float64 `yaml:"max_height_pips_floor"`
	MaxHeightATRMultiplier float64 `yaml:"max_height_atr_multiplier"`
	AlignmentWeight        float64 `yaml:"alignment_weight"`
}

type PatternSettings struct {
	MaxPatternBars    int `yaml:"max_pattern_bars"`
	MinBarsFromLatest int `yaml:"min_bars_from_latest"`
}

type TrendSettings struct {
	Timeframes   []string `yaml:"timeframes"`
	FastEMA      int      `yaml:"fast_ema"`
	SlowEMA      int      `yaml:"slow_ema"`
	LookbackBars int      `yaml:"lookback_bars"`
}

type HTFSettings struct {
	Timeframes      []string `yaml:"timeframes"`
	DailyTimeframe  string   `yaml:"daily_timeframe"`
	WeeklyTimeframe string   `yaml:"weekly_timeframe"`
	// Informational context score (HTF favourability vs obstacle room)
	ContextHTFWeight      float64 `yaml:"context_htf_weight"`
	ContextObstacleWeight float64 `yaml:"context_obstacle_weight"`
	ContextPassThreshold  float64 `yaml:"context_pass_threshold"`
}

type GateSettings struct {
	AllowedHours              []int   `yaml:"allowed_hours"`
	ExcludedConflictTimeframe string  `yaml:"excluded_conflict_timeframe"`
	BullishDailyMax           float64 `yaml:"bullish_daily_max"`
	BullishWeeklyMax          float64 `yaml:"bullish_weekly_max"`
	BearishDailyMin           float64 `yaml:"bearish_daily_min"`
	BearishWeeklyMin          float64 `yaml:"bearish_weekly_min"`
	MinObstacleATR            float64 `yaml:"min_obstacle_atr"`
}

// StageWeights weights S1..S8 of the quality scorer
type StageWeights struct {
	Penetration  float64 `yaml:"penetration"`
	WickMomentum float64 `yaml:"wick_momentum"`
	BreakQuality float64 `yaml:"break_quality"`
	Impulse      float64 `yaml:"impulse"`
	AfterBreak   float64 `yaml:"after_break"`
	CandleCount  float64 `yaml:"candle_count"`
	RetestEntry  float64 `yaml:"retest_entry"`
	OpposingWick float64 `yaml:"opposing_wick"`
}

// Sum adds all eight weights
func (w StageWeights) Sum() float64 {
	return w.Penetration + w.WickMomentum + w.BreakQuality + w.Impulse +
		w.AfterBreak + w.CandleCount + w.RetestEntry + w.OpposingWick
}

type TierThresholds struct {
	Watchlist float64 `yaml:"watchlist"`
	Notify    float64 `yaml:"notify"`
	Priority  float64 `yaml:"priority"`
}

type ScoringSettings struct {
	WithAfterBreak    StageWeights   `yaml:"with_after_break"`
	WithoutAfterBreak StageWeights   `yaml:"without_after_break"`
	Tiers             TierThresholds `yaml:"tiers"`
}

type RiskSettings struct {
	StopBufferATR float64 `yaml:"stop_buffer_atr"`
	RewardRisk    float64 `yaml:"reward_risk"`
}

// DefaultWithAfterBreak is the weight vector used when S5 exists
var DefaultWithAfterBreak = StageWeights{
	Penetration:  0.18,
	WickMomentum: 0.09,
	BreakQuality: 0.17,
	Impulse:      0.10,
	AfterBreak:   0.25,
	CandleCount:  0.11,
	RetestEntry:  0.03,
	OpposingWick: 0.07,
}

// DefaultWithoutAfterBreak is the 7-term vector used when S5 is unavailable
var DefaultWithoutAfterBreak = StageWeights{
	Penetration:  0.19,
	WickMomentum: 0.10,
	BreakQuality: 0.34,
	Impulse:      0.12,
	CandleCount:  0.13,
	RetestEntry:  0.04,
	OpposingWick: 0.08,
}

// DefaultStrategy returns a fully populated strategy for the major FX pairs
func DefaultStrategy() *Strategy {
	return &Strategy{
		Instruments: []Instrument{
			{Symbol: "EUR/USD", PipSize: 0.0001},
			{Symbol: "GBP/USD", PipSize: 0.0001},
			{Symbol: "USD/JPY", PipSize: 0.01},
		},
		ExecutionTimeframes: []string{"1H"},
		Timeframes: map[string]TimeframeSettings{
			"15M": {LookbackBars: 300, SwingDistance: 3, SwingProminencePips: 3},
			"30M": {LookbackBars: 300, SwingDistance: 3, SwingProminencePips: 4},
			"1H":  {LookbackBars: 300, SwingDistance: 4, SwingProminencePips: 5},
			"4H":  {LookbackBars: 250, SwingDistance: 4, SwingProminencePips: 10, AOILookback: 180},
			"1D":  {LookbackBars: 200, SwingDistance: 3, SwingProminencePips: 20},
			"1W":  {LookbackBars: 104, SwingDistance: 2, SwingProminencePips: 40},
		},
		ATRPeriod:  14,
		MinCandles: 60,
		AOI: AOISettings{
			MinTouches:             3,
			MinSwingGapBars:        5,
			OverlapTolerancePips:   2,
			MaxAgeBars:             150,
			MinHeightPipsFloor:     5,
			MinHeightATRMultiplier: 0.25,
			MaxHeightPipsFloor:     15,
			MaxHeightATRMultiplier: 1.0,
			AlignmentWeight:        1.2,
		},
		Pattern: PatternSettings{
			MaxPatternBars:    12,
			MinBarsFromLatest: 2,
		},
		Trend: TrendSettings{
			Timeframes:   []string{"4H", "1D", "1W"},
			FastEMA:      20,
			SlowEMA:      50,
			LookbackBars: 120,
		},
		HTF: HTFSettings{
			Timeframes:            []string{"1D", "1W"},
			DailyTimeframe:        "1D",
			WeeklyTimeframe:       "1W",
			ContextHTFWeight:      0.5,
			ContextObstacleWeight: 0.5,
			ContextPassThreshold:  0.5,
		},
		Gates: GateSettings{
			AllowedHours:              []int{22, 23, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
			ExcludedConflictTimeframe: "4H",
			BullishDailyMax:           0.33,
			BullishWeeklyMax:          0.50,
			BearishDailyMin:           0.67,
			BearishWeeklyMin:          0.50,
			MinObstacleATR:            1.0,
		},
		Scoring: ScoringSettings{
			WithAfterBreak:    DefaultWithAfterBreak,
			WithoutAfterBreak: DefaultWithoutAfterBreak,
			Tiers: TierThresholds{
				Watchlist: 0.40,
				Notify:    0.55,
				Priority:  0.70,
			},
		},
		Risk: RiskSettings{
			StopBufferATR: 0.2,
			RewardRisk:    2.0,
		},
	}
}

// LoadStrategy reads a YAML strategy file over the defaults and validates it.
// An empty path yields the validated defaults.
func LoadStrategy(path string) (*Strategy, error) {
	s := DefaultStrategy()
	if path == "" {
		return s, s.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading strategy file: %w", err)
	}
	return ParseStrategy(data)
}

// ParseStrategy decodes YAML over the defaults and validates the result.
// Timeframe entries are merged key by key, so a partial entry keeps the
// default values of the keys it leaves out.
func ParseStrategy(data []byte) (*Strategy, error) {
	s := DefaultStrategy()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing strategy yaml: %w", err)
	}

	var raw struct {
		Timeframes map[string]yaml.Node `yaml:"timeframes"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing strategy yaml: %w", err)
	}
	defaults := DefaultStrategy().Timeframes
	for tf, node := range raw.Timeframes {
		entry := defaults[tf]
		if err := node.Decode(&entry); err != nil {
			return nil, fmt.Errorf("parsing timeframe %s: %w", tf, err)
		}
		s.Timeframes[tf] = entry
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Timeframe returns the settings of a timeframe key
func (s *Strategy) Timeframe(tf string) (TimeframeSettings, error) {
	settings, ok := s.Timeframes[tf]
	if !ok {
		return TimeframeSettings{}, fmt.Errorf("%w: %q", ErrUnknownTimeframe, tf)
	}
	return settings, nil
}

// Validate fails fast on anything the pipeline cannot tolerate mid-cycle
func (s *Strategy) Validate() error {
	if len(s.Instruments) == 0 {
		return fmt.Errorf("%w: no instruments configured", ErrInvalidConfig)
	}
	for _, inst := range s.Instruments {
		if inst.Symbol == "" {
			return fmt.Errorf("%w: instrument with empty symbol", ErrInvalidConfig)
		}
		if inst.PipSize <= 0 {
			return fmt.Errorf("%w: instrument %s has pip_size %v", ErrInvalidConfig, inst.Symbol, inst.PipSize)
		}
	}

	for tf, settings := range s.Timeframes {
		if !models.KnownTimeframe(tf) {
			return fmt.Errorf("%w: %q in timeframes", ErrUnknownTimeframe, tf)
		}
		if settings.LookbackBars <= 0 {
			return fmt.Errorf("%w: %s lookback_bars must be positive", ErrInvalidConfig, tf)
		}
		if settings.SwingDistance < 1 {
			return fmt.Errorf("%w: %s swing_distance must be >= 1", ErrInvalidConfig, tf)
		}
		if settings.SwingProminencePips <= 0 {
			return fmt.Errorf("%w: %s swing_prominence_pips must be positive", ErrInvalidConfig, tf)
		}
	}

	if len(s.ExecutionTimeframes) == 0 {
		return fmt.Errorf("%w: no execution timeframes", ErrInvalidConfig)
	}
	for _, tf := range s.ExecutionTimeframes {
		settings, err := s.Timeframe(tf)
		if err != nil {
			return fmt.Errorf("execution timeframe: %w", err)
		}
		if settings.LookbackBars < s.MinCandles {
			return fmt.Errorf("%w: %s lookback_bars %d below min_candles %d",
				ErrInvalidConfig, tf, settings.LookbackBars, s.MinCandles)
		}
	}

	for _, tf := range s.Trend.Timeframes {
		if !models.KnownTimeframe(tf) {
			return fmt.Errorf("%w: %q in trend.timeframes", ErrUnknownTimeframe, tf)
		}
	}
	if len(s.Trend.Timeframes) == 0 {
		return fmt.Errorf("%w: no trend timeframes", ErrInvalidConfig)
	}
	if s.Trend.FastEMA < 1 || s.Trend.SlowEMA <= s.Trend.FastEMA {
		return fmt.Errorf("%w: trend EMA periods fast=%d slow=%d", ErrInvalidConfig, s.Trend.FastEMA, s.Trend.SlowEMA)
	}

	for _, tf := range append([]string{s.HTF.DailyTimeframe, s.HTF.WeeklyTimeframe}, s.HTF.Timeframes...) {
		if !models.KnownTimeframe(tf) {
			return fmt.Errorf("%w: %q in htf", ErrUnknownTimeframe, tf)
		}
	}
	if s.Gates.ExcludedConflictTimeframe != "" && !models.KnownTimeframe(s.Gates.ExcludedConflictTimeframe) {
		return fmt.Errorf("%w: %q in gates.excluded_conflict_timeframe", ErrUnknownTimeframe, s.Gates.ExcludedConflictTimeframe)
	}

	if len(s.Gates.AllowedHours) == 0 {
		return fmt.Errorf("%w: gates.allowed_hours is empty", ErrInvalidConfig)
	}
	for _, h := range s.Gates.AllowedHours {
		if h < 0 || h > 23 {
			return fmt.Errorf("%w: allowed hour %d out of range", ErrInvalidConfig, h)
		}
	}

	if s.ATRPeriod < 1 {
		return fmt.Errorf("%w: atr_period must be >= 1", ErrInvalidConfig)
	}
	if s.AOI.MinTouches < 2 {
		return fmt.Errorf("%w: aoi.min_touches must be >= 2", ErrInvalidConfig)
	}
	if s.AOI.MaxHeightPipsFloor < s.AOI.MinHeightPipsFloor {
		return fmt.Errorf("%w: aoi max height floor below min height floor", ErrInvalidConfig)
	}
	if s.Pattern.MaxPatternBars < 2 {
		return fmt.Errorf("%w: pattern.max_pattern_bars must be >= 2", ErrInvalidConfig)
	}

	if err := checkWeights("with_after_break", s.Scoring.WithAfterBreak); err != nil {
		return err
	}
	if s.Scoring.WithoutAfterBreak.AfterBreak != 0 {
		return fmt.Errorf("%w: without_after_break must not weight after_break", ErrInvalidConfig)
	}
	if err := checkWeights("without_after_break", s.Scoring.WithoutAfterBreak); err != nil {
		return err
	}

	t := s.Scoring.Tiers
	if !(t.Watchlist > 0 && t.Watchlist <= t.Notify && t.Notify <= t.Priority && t.Priority <= 1) {
		return fmt.Errorf("%w: tier thresholds must satisfy 0 < watchlist <= notify <= priority <= 1", ErrInvalidConfig)
	}

	if s.Risk.RewardRisk <= 0 {
		return fmt.Errorf("%w: risk.reward_risk must be positive", ErrInvalidConfig)
	}
	return nil
}

func checkWeights(name string, w StageWeights) error {
	if math.Abs(w.Sum()-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: scoring.%s weights sum to %.6f, want 1.0", ErrInvalidConfig, name, w.Sum())
	}
	return nil
}
