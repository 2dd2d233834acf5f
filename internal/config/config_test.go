package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Workers != 4 || cfg.ScanInterval != 15*time.Minute || cfg.StrategyPath != "strategy.yaml" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.DB.Enabled() {
		t.Error("database enabled without DB_HOST")
	}
	if cfg.RequestTimeoutDuration() != 30*time.Second {
		t.Errorf("RequestTimeoutDuration() = %v, want 30s", cfg.RequestTimeoutDuration())
	}
}

func TestLoadFromEnv(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"WORKERS":            "8",
		"DB_HOST":            "localhost",
		"DB_NAME":            "signals",
		"TELEGRAM_BOT_TOKEN": "token",
		"TELEGRAM_CHAT_ID":   "1234",
	}))
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if !cfg.DB.Enabled() || cfg.DB.Port != "5432" || cfg.DB.SSLMode != "disable" {
		t.Errorf("DB = %+v", cfg.DB)
	}
	if cfg.TelegramChatID != 1234 {
		t.Errorf("TelegramChatID = %d, want 1234", cfg.TelegramChatID)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"zero workers", map[string]string{"WORKERS": "0"}},
		{"zero rate", map[string]string{"REQUESTS_PER_SEC": "0"}},
		{"zero interval", map[string]string{"SCAN_INTERVAL": "0s"}},
		{"token without chat", map[string]string{"TELEGRAM_BOT_TOKEN": "token"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(context.Background(), envconfig.MapLookuper(tt.env))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("load() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestDefaultStrategyValid(t *testing.T) {
	s := DefaultStrategy()
	if err := s.Validate(); err != nil {
		t.Fatalf("DefaultStrategy().Validate() error = %v", err)
	}
	if s.Scoring.WithoutAfterBreak.AfterBreak != 0 {
		t.Error("7-term vector weights after_break")
	}
}

func TestStrategyValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Strategy)
		wantErr error
	}{
		{"unknown execution timeframe", func(s *Strategy) { s.ExecutionTimeframes = []string{"2H"} }, ErrUnknownTimeframe},
		{"unknown trend timeframe", func(s *Strategy) { s.Trend.Timeframes = []string{"3D"} }, ErrUnknownTimeframe},
		{"bad weights", func(s *Strategy) { s.Scoring.WithAfterBreak.Penetration = 0.5 }, ErrInvalidConfig},
		{"after break weight in 7-term vector", func(s *Strategy) {
			s.Scoring.WithoutAfterBreak.AfterBreak = 0.1
			s.Scoring.WithoutAfterBreak.BreakQuality = 0.24
		}, ErrInvalidConfig},
		{"tiers out of order", func(s *Strategy) { s.Scoring.Tiers.Notify = 0.9 }, ErrInvalidConfig},
		{"hour out of range", func(s *Strategy) { s.Gates.AllowedHours = []int{24} }, ErrInvalidConfig},
		{"no instruments", func(s *Strategy) { s.Instruments = nil }, ErrInvalidConfig},
		{"zero pip size", func(s *Strategy) { s.Instruments[0].PipSize = 0 }, ErrInvalidConfig},
		{"lookback below min candles", func(s *Strategy) { s.MinCandles = 1000 }, ErrInvalidConfig},
		{"zero swing distance", func(s *Strategy) {
			tf := s.Timeframes["4H"]
			tf.SwingDistance = 0
			s.Timeframes["4H"] = tf
		}, ErrInvalidConfig},
		{"zero swing prominence", func(s *Strategy) {
			tf := s.Timeframes["1D"]
			tf.SwingProminencePips = 0
			s.Timeframes["1D"] = tf
		}, ErrInvalidConfig},
		{"zero lookback", func(s *Strategy) {
			tf := s.Timeframes["15M"]
			tf.LookbackBars = 0
			s.Timeframes["15M"] = tf
		}, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultStrategy()
			tt.mutate(s)
			if err := s.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	data := []byte(`
instruments:
  - symbol: AUD/USD
    pip_size: 0.0001
gates:
  allowed_hours: [0, 1, 2]
risk:
  reward_risk: 3
`)
	s, err := ParseStrategy(data)
	if err != nil {
		t.Fatalf("ParseStrategy() error = %v", err)
	}
	if len(s.Instruments) != 1 || s.Instruments[0].Symbol != "AUD/USD" {
		t.Errorf("Instruments = %+v", s.Instruments)
	}
	if len(s.Gates.AllowedHours) != 3 || s.Risk.RewardRisk != 3 {
		t.Errorf("overrides not applied: %+v %+v", s.Gates, s.Risk)
	}
	if s.ATRPeriod != 14 || s.Gates.BullishDailyMax != 0.33 {
		t.Error("defaults lost for keys absent from the file")
	}

	if _, err := ParseStrategy([]byte("atr_period: [")); err == nil {
		t.Error("ParseStrategy() accepted malformed yaml")
	}
}

func TestParseStrategyPartialTimeframe(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		tf       string
		expected TimeframeSettings
	}{
		{
			name:     "lookback only keeps swing defaults",
			data:     "timeframes:\n  \"1H\":\n    lookback_bars: 400\n",
			tf:       "1H",
			expected: TimeframeSettings{LookbackBars: 400, SwingDistance: 4, SwingProminencePips: 5},
		},
		{
			name:     "aoi lookback kept when swing distance overridden",
			data:     "timeframes:\n  \"4H\":\n    swing_distance: 6\n",
			tf:       "4H",
			expected: TimeframeSettings{LookbackBars: 250, SwingDistance: 6, SwingProminencePips: 10, AOILookback: 180},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseStrategy([]byte(tt.data))
			if err != nil {
				t.Fatalf("ParseStrategy() error = %v", err)
			}
			if got := s.Timeframes[tt.tf]; got != tt.expected {
				t.Errorf("Timeframes[%s] = %+v, want %+v", tt.tf, got, tt.expected)
			}
			if got := s.Timeframes["1D"]; got != DefaultStrategy().Timeframes["1D"] {
				t.Errorf("untouched timeframe changed: %+v", got)
			}
		})
	}

	t.Run("new timeframe without swing settings fails", func(t *testing.T) {
		_, err := ParseStrategy([]byte("timeframes:\n  \"5M\":\n    lookback_bars: 300\n"))
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("ParseStrategy() error = %v, want ErrInvalidConfig", err)
		}
	})
}

func TestTimeframe(t *testing.T) {
	s := DefaultStrategy()
	if _, err := s.Timeframe("1H"); err != nil {
		t.Errorf("Timeframe(1H) error = %v", err)
	}
	if _, err := s.Timeframe("2H"); !errors.Is(err, ErrUnknownTimeframe) {
		t.Errorf("Timeframe(2H) error = %v, want ErrUnknownTimeframe", err)
	}
}
