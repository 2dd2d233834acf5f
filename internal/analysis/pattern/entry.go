package pattern

import (
	"sort"

	"github.com/Alias1177/zonescan/internal/config"
	"github.com/Alias1177/zonescan/models"
)

// Match looks for a retest -> break sequence against one zone, walking back
// from the most recent candle. It returns false when no pattern is present.
func Match(candles []models.Candle, zone models.Zone, direction models.Direction, s config.PatternSettings) (models.EntryPattern, bool) {
	n := len(candles)
	if n < 2 || zone.Height <= 0 {
		return models.EntryPattern{}, false
	}

	var m matcher
	switch direction {
	case models.Bearish:
		m = bearish(zone)
	case models.Bullish:
		m = bullish(zone)
	default:
		return models.EntryPattern{}, false
	}

	b := -1
	switch {
	case m.isBreak(candles[n-1]):
		b = n - 1
	case m.beyond(candles[n-1]) && m.isBreak(candles[n-2]):
		b = n - 2
	}
	if b < 1 {
		return models.EntryPattern{}, false
	}

	floor := 0
	if s.MaxPatternBars > 0 && b-s.MaxPatternBars > 0 {
		floor = b - s.MaxPatternBars
	}

	for k := b - 1; k >= floor; k-- {
		c := candles[k]
		if m.invalidates(c) {
			return models.EntryPattern{}, false
		}
		if !m.isRetest(c) {
			continue
		}
		if (n-1)-k < s.MinBarsFromLatest {
			continue
		}

		slice := make([]models.Candle, n-k)
		copy(slice, candles[k:])

		after := -1
		if b < n-1 {
			after = b - k + 1
		}
		return models.EntryPattern{
			Direction:         direction,
			Zone:              zone,
			Candles:           slice,
			RetestIndex:       0,
			BreakIndex:        b - k,
			AfterBreakIndex:   after,
			IsBreakCandleLast: b == n-1,
		}, true
	}

	return models.EntryPattern{}, false
}

// MatchBest tries the zones from the highest weighted score down and returns
// the first pattern found.
func MatchBest(candles []models.Candle, zones []models.Zone, direction models.Direction, s config.PatternSettings) (models.EntryPattern, bool) {
	ordered := make([]models.Zone, len(zones))
	copy(ordered, zones)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].WeightedScore > ordered[j].WeightedScore
	})

	for _, z := range ordered {
		if p, ok := Match(candles, z, direction, s); ok {
			return p, true
		}
	}
	return models.EntryPattern{}, false
}

type matcher struct {
	isBreak     func(models.Candle) bool
	isRetest    func(models.Candle) bool
	invalidates func(models.Candle) bool
	beyond      func(models.Candle) bool
}

func bearish(z models.Zone) matcher {
	return matcher{
		isBreak: func(c models.Candle) bool {
			return z.Contains(c.Open) && c.Close < z.Lower
		},
		isRetest: func(c models.Candle) bool {
			return c.Open < z.Lower && c.Close >= z.Lower
		},
		invalidates: func(c models.Candle) bool {
			return z.Contains(c.Open) && c.Close > z.Upper
		},
		beyond: func(c models.Candle) bool {
			return c.High < z.Lower
		},
	}
}

func bullish(z models.Zone) matcher {
	return matcher{
		isBreak: func(c models.Candle) bool {
			return z.Contains(c.Open) && c.Close > z.Upper
		},
		isRetest: func(c models.Candle) bool {
			return c.Open > z.Upper && c.Close <= z.Upper
		},
		invalidates: func(c models.Candle) bool {
			return z.Contains(c.Open) && c.Close < z.Lower
		},
		beyond: func(c models.Candle) bool {
			return c.Low > z.Upper
		},
	}
}
