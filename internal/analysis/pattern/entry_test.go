package pattern

import (
	"testing"
	"time"

	"github.com/Alias1177/zonescan/internal/config"
	"github.com/Alias1177/zonescan/models"
)

var testZone = models.Zone{
	ZoneCandidate:  models.ZoneCandidate{Lower: 1.1040, Upper: 1.1060, Height: 0.0020, Touches: 3, Score: 1},
	Classification: models.Tradable,
	Timeframe:      "1H",
	WeightedScore:  1.2,
}

var testSettings = config.PatternSettings{MaxPatternBars: 12, MinBarsFromLatest: 2}

func candle(i int, o, h, l, c float64) models.Candle {
	return models.Candle{
		Time:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
		Open:  o,
		High:  h,
		Low:   l,
		Close: c,
	}
}

func bearishSequence() []models.Candle {
	return []models.Candle{
		candle(0, 1.1020, 1.1028, 1.1015, 1.1025),
		candle(1, 1.1025, 1.1032, 1.1020, 1.1030),
		candle(2, 1.1038, 1.1048, 1.1035, 1.1041), // retest
		candle(3, 1.1041, 1.1052, 1.1039, 1.1046),
		candle(4, 1.1045, 1.1049, 1.1028, 1.1030), // break
	}
}

func TestMatchBearish(t *testing.T) {
	tests := []struct {
		name        string
		candles     func() []models.Candle
		settings    config.PatternSettings
		found       bool
		slice       int
		breakIndex  int
		afterIndex  int
		breakIsLast bool
	}{
		{
			name:        "break on latest bar",
			candles:     bearishSequence,
			settings:    testSettings,
			found:       true,
			slice:       3,
			breakIndex:  2,
			afterIndex:  -1,
			breakIsLast: true,
		},
		{
			name: "break followed by candle below the zone",
			candles: func() []models.Candle {
				return append(bearishSequence(), candle(5, 1.1030, 1.1035, 1.1020, 1.1022))
			},
			settings:    testSettings,
			found:       true,
			slice:       4,
			breakIndex:  2,
			afterIndex:  3,
			breakIsLast: false,
		},
		{
			name: "close above the zone invalidates",
			candles: func() []models.Candle {
				c := bearishSequence()
				c[3] = candle(3, 1.1045, 1.1070, 1.1043, 1.1065)
				return c
			},
			settings: testSettings,
		},
		{
			name: "no break when last candle closes inside",
			candles: func() []models.Candle {
				c := bearishSequence()
				c[4] = candle(4, 1.1045, 1.1049, 1.1041, 1.1043)
				return c
			},
			settings: testSettings,
		},
		{
			name: "retest too close to latest bar",
			candles: func() []models.Candle {
				c := bearishSequence()
				c[2] = candle(2, 1.1030, 1.1034, 1.1028, 1.1032)
				c[3] = candle(3, 1.1038, 1.1046, 1.1036, 1.1042)
				return c
			},
			settings: testSettings,
		},
		{
			name:     "retest outside the lookback window",
			candles:  bearishSequence,
			settings: config.PatternSettings{MaxPatternBars: 1, MinBarsFromLatest: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Match(tt.candles(), testZone, models.Bearish, tt.settings)
			if ok != tt.found {
				t.Fatalf("Match() found = %v, want %v", ok, tt.found)
			}
			if !ok {
				return
			}
			if len(got.Candles) != tt.slice {
				t.Errorf("len(Candles) = %d, want %d", len(got.Candles), tt.slice)
			}
			if got.RetestIndex != 0 {
				t.Errorf("RetestIndex = %d, want 0", got.RetestIndex)
			}
			if got.BreakIndex != tt.breakIndex {
				t.Errorf("BreakIndex = %d, want %d", got.BreakIndex, tt.breakIndex)
			}
			if got.AfterBreakIndex != tt.afterIndex {
				t.Errorf("AfterBreakIndex = %d, want %d", got.AfterBreakIndex, tt.afterIndex)
			}
			if got.IsBreakCandleLast != tt.breakIsLast {
				t.Errorf("IsBreakCandleLast = %v, want %v", got.IsBreakCandleLast, tt.breakIsLast)
			}
			if got.Retest().Open != 1.1038 || got.Retest().Close != 1.1041 {
				t.Errorf("Retest() = %+v, want open 1.1038 close 1.1041", got.Retest())
			}
			if got.Break().Open != 1.1045 || got.Break().Close != 1.1030 {
				t.Errorf("Break() = %+v, want open 1.1045 close 1.1030", got.Break())
			}
			for i := 1; i < len(got.Candles); i++ {
				if !got.Candles[i].Time.After(got.Candles[i-1].Time) {
					t.Errorf("candles not chronological at %d", i)
				}
			}
		})
	}
}

func TestMatchBullish(t *testing.T) {
	candles := []models.Candle{
		candle(0, 1.1080, 1.1085, 1.1072, 1.1075),
		candle(1, 1.1075, 1.1078, 1.1066, 1.1068),
		candle(2, 1.1062, 1.1065, 1.1054, 1.1058), // retest
		candle(3, 1.1058, 1.1060, 1.1049, 1.1052),
		candle(4, 1.1055, 1.1073, 1.1053, 1.1070), // break
	}

	got, ok := Match(candles, testZone, models.Bullish, testSettings)
	if !ok {
		t.Fatal("Match() found no bullish pattern")
	}
	if got.BreakIndex != 2 || !got.IsBreakCandleLast {
		t.Errorf("Match() = break %d last %v, want break 2 last true", got.BreakIndex, got.IsBreakCandleLast)
	}
	if got.Direction != models.Bullish {
		t.Errorf("Direction = %s, want bullish", got.Direction)
	}

	if _, ok := Match(candles, testZone, models.Bearish, testSettings); ok {
		t.Error("bullish sequence matched as bearish")
	}
}

func TestMatchNeutral(t *testing.T) {
	if _, ok := Match(bearishSequence(), testZone, models.Neutral, testSettings); ok {
		t.Error("neutral direction produced a pattern")
	}
}

func TestMatchBest(t *testing.T) {
	far := testZone
	far.Lower, far.Upper = 1.1200, 1.1220
	far.WeightedScore = 10

	got, ok := MatchBest(bearishSequence(), []models.Zone{far, testZone}, models.Bearish, testSettings)
	if !ok {
		t.Fatal("MatchBest() found nothing")
	}
	if got.Zone.Lower != testZone.Lower {
		t.Errorf("MatchBest() zone lower = %v, want %v", got.Zone.Lower, testZone.Lower)
	}
}
