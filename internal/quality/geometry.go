package quality

import (
	"math"

	"github.com/Alias1177/zonescan/models"
)

// side folds bullish and bearish geometry into one frame: "exit" is the zone
// boundary the break closes beyond, "rejection" wicks point into the zone and
// "opposing" wicks point the way of the trade.
type side struct {
	dir   models.Direction
	lower float64
	upper float64
}

func (s side) height() float64 { return s.upper - s.lower }

func (s side) exit() float64 {
	if s.dir == models.Bullish {
		return s.upper
	}
	return s.lower
}

// intersects reports whether the candle's range touches the zone
func (s side) intersects(c models.Candle) bool {
	return c.High >= s.lower && c.Low <= s.upper
}

// intrusion is how deep the candle reached into the zone from the retest side
func (s side) intrusion(c models.Candle) float64 {
	if s.dir == models.Bullish {
		return math.Max(0, s.upper-math.Max(c.Low, s.lower))
	}
	return math.Max(0, math.Min(c.High, s.upper)-s.lower)
}

func (s side) rejectionWick(c models.Candle) float64 {
	if s.dir == models.Bullish {
		return c.WickDown()
	}
	return c.WickUp()
}

func (s side) opposingWick(c models.Candle) float64 {
	if s.dir == models.Bullish {
		return c.WickUp()
	}
	return c.WickDown()
}

// wickInZone is the part of the rejection wick that lies inside the zone
func (s side) wickInZone(c models.Candle) float64 {
	var lo, hi float64
	if s.dir == models.Bullish {
		lo, hi = c.Low, math.Min(c.Open, c.Close)
	} else {
		lo, hi = math.Max(c.Open, c.Close), c.High
	}
	return math.Max(0, math.Min(hi, s.upper)-math.Max(lo, s.lower))
}

// beyond is how far the close sits past the exit boundary, in price
func (s side) beyond(c models.Candle) float64 {
	if s.dir == models.Bullish {
		return c.Close - s.exit()
	}
	return s.exit() - c.Close
}

// aligned reports whether the candle body points the way of the trade
func (s side) aligned(c models.Candle) bool {
	if s.dir == models.Bullish {
		return c.IsBullish()
	}
	return c.IsBearish()
}

// beats reports whether price closed past ref in the trade direction
func (s side) beats(price, ref float64) bool {
	if s.dir == models.Bullish {
		return price > ref
	}
	return price < ref
}

// bodyInZone is the portion of the candle body inside the zone
func (s side) bodyInZone(c models.Candle) float64 {
	lo := math.Min(c.Open, c.Close)
	hi := math.Max(c.Open, c.Close)
	return math.Max(0, math.Min(hi, s.upper)-math.Max(lo, s.lower))
}

func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// capped normalises v against a maximum ratio
func capped(v, limit float64) float64 {
	return clamp01(ratio(v, limit))
}
