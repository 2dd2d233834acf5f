package zone

import (
	"math"
	"sort"

	"github.com/Alias1177/zonescan/internal/config"
	"github.com/Alias1177/zonescan/models"
	"github.com/shopspring/decimal"
)

// minIndependentTouches is the floor on well separated touches a band needs
const minIndependentTouches = 3

// BuildSettings are the per-run inputs of the candidate builder
type BuildSettings struct {
	MinTouches      int
	MinSwingGapBars int
	PipSize         float64
	MinHeightPrice  float64
	MaxHeightPrice  float64
}

// NewBuildSettings derives the builder inputs from the strategy and the
// current ATR-based height band.
func NewBuildSettings(aoi config.AOISettings, pipSize float64, band HeightBand) BuildSettings {
	return BuildSettings{
		MinTouches:      aoi.MinTouches,
		MinSwingGapBars: aoi.MinSwingGapBars,
		PipSize:         pipSize,
		MinHeightPrice:  band.Min,
		MaxHeightPrice:  band.Max,
	}
}

// HeightBand is the allowed zone height in price units
type HeightBand struct {
	Min float64
	Max float64
}

// DynamicHeightBand turns the pip floors and ATR multipliers into a price band.
// max never drops below min.
func DynamicHeightBand(aoi config.AOISettings, atr, pipSize float64) HeightBand {
	atrPips := 0.0
	if pipSize > 0 {
		atrPips = atr / pipSize
	}

	minPips := math.Max(aoi.MinHeightPipsFloor, aoi.MinHeightATRMultiplier*atrPips)
	maxPips := math.Max(aoi.MaxHeightPipsFloor, aoi.MaxHeightATRMultiplier*atrPips)
	if maxPips < minPips {
		maxPips = minPips
	}

	return HeightBand{Min: minPips * pipSize, Max: maxPips * pipSize}
}

// BuildCandidates pairs swing points into price bands and scores them.
// lastBarIndex is the index of the most recent bar of the series the swings
// were detected on.
func BuildCandidates(swings []models.SwingPoint, lastBarIndex int, s BuildSettings) []models.ZoneCandidate {
	if len(swings) < s.MinTouches || s.MinTouches < 1 {
		return nil
	}

	sorted := make([]models.SwingPoint, len(swings))
	copy(sorted, swings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Price == sorted[j].Price {
			return sorted[i].Index < sorted[j].Index
		}
		return sorted[i].Price < sorted[j].Price
	})

	required := s.MinTouches
	if required < minIndependentTouches {
		required = minIndependentTouches
	}

	best := make(map[string]models.ZoneCandidate)
	for i := 0; i < len(sorted); i++ {
		for j := i + s.MinTouches - 1; j < len(sorted); j++ {
			lower := sorted[i].Price
			upper := sorted[j].Price
			height := upper - lower

			// Sorted by price, so every wider pair from this lower bound is too tall
			if height > s.MaxHeightPrice {
				break
			}
			if height < s.MinHeightPrice {
				continue
			}

			members := memberIndexes(swings, lower, upper)
			if len(members) < s.MinTouches {
				continue
			}

			touches := countTouches(members, s.MinSwingGapBars)
			if touches < required {
				continue
			}

			lastIdx := members[len(members)-1]
			candidate := models.ZoneCandidate{
				Lower:          lower,
				Upper:          upper,
				Height:         height,
				Touches:        touches,
				Score:          scoreCandidate(touches, height, lastBarIndex-lastIdx),
				LastSwingIndex: lastIdx,
			}

			key := dedupKey(lower, upper, s.PipSize)
			if prev, ok := best[key]; !ok || candidate.Score > prev.Score {
				best[key] = candidate
			}
		}
	}

	out := make([]models.ZoneCandidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Lower == out[j].Lower {
			return out[i].Upper < out[j].Upper
		}
		return out[i].Lower < out[j].Lower
	})
	return out
}

// memberIndexes returns the bar indexes of every swing priced inside the band,
// ascending.
func memberIndexes(swings []models.SwingPoint, lower, upper float64) []int {
	var idx []int
	for _, sp := range swings {
		if sp.Price >= lower && sp.Price <= upper {
			idx = append(idx, sp.Index)
		}
	}
	sort.Ints(idx)
	return idx
}

// countTouches counts independent touches: the first member is one touch and
// every later member at least minGap bars after the previous counted touch
// adds another.
func countTouches(indexes []int, minGap int) int {
	if len(indexes) == 0 {
		return 0
	}
	touches := 1
	last := indexes[0]
	for _, idx := range indexes[1:] {
		if idx-last >= minGap {
			touches++
			last = idx
		}
	}
	return touches
}

// scoreCandidate = density x recency x freshness
func scoreCandidate(touches int, height float64, barsSinceLastTouch int) float64 {
	density := math.Pow(float64(touches), 1.2) / math.Max(height, 1e-6)
	recency := 1.0 / (1.0 + float64(barsSinceLastTouch)/100.0)
	return density * recency * freshnessFactor(touches)
}

// freshnessFactor favours few clean touches over many noisy ones
func freshnessFactor(touches int) float64 {
	switch {
	case touches <= 3:
		return 1.3
	case touches == 4:
		return 1.1
	case touches == 5:
		return 1.0
	default:
		return 0.85
	}
}

func dedupKey(lower, upper, pipSize float64) string {
	if pipSize <= 0 {
		pipSize = 1
	}
	lo := decimal.NewFromFloat(lower / pipSize).Round(5)
	hi := decimal.NewFromFloat(upper / pipSize).Round(5)
	return lo.String() + ":" + hi.String()
}
