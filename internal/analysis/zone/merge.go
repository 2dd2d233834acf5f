package zone

import (
	"math"
	"sort"

	"github.com/Alias1177/zonescan/models"
)

// ResolveSettings drive the merge -> age filter -> overlap sequence
type ResolveSettings struct {
	TolerancePrice float64
	MaxHeightPrice float64
	MaxAgeBars     int
	LastBarIndex   int
}

// Resolve applies merge, age filter and overlap resolution, in that order.
// The order matters: merging first lets stale fragments refresh a zone before
// the age filter sees it.
func Resolve(candidates []models.ZoneCandidate, s ResolveSettings) []models.ZoneCandidate {
	merged := Merge(candidates, s.TolerancePrice, s.MaxHeightPrice)
	fresh := FilterByAge(merged, s.LastBarIndex, s.MaxAgeBars)
	return ResolveOverlaps(fresh, s.TolerancePrice)
}

// Merge folds candidates whose lower bound sits within tolerance of the
// previous group's upper bound, as long as the merged band stays within
// maxHeight.
func Merge(candidates []models.ZoneCandidate, tolerance, maxHeight float64) []models.ZoneCandidate {
	if len(candidates) == 0 {
		return nil
	}

	sorted := make([]models.ZoneCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Lower < sorted[j].Lower
	})

	out := []models.ZoneCandidate{sorted[0]}
	for _, c := range sorted[1:] {
		last := out[len(out)-1]
		if c.Lower <= last.Upper+tolerance {
			lower := math.Min(last.Lower, c.Lower)
			upper := math.Max(last.Upper, c.Upper)
			if upper-lower <= maxHeight {
				out[len(out)-1] = models.ZoneCandidate{
					Lower:          lower,
					Upper:          upper,
					Height:         upper - lower,
					Touches:        last.Touches + c.Touches,
					Score:          math.Max(last.Score, c.Score),
					LastSwingIndex: max(last.LastSwingIndex, c.LastSwingIndex),
				}
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// FilterByAge drops zones whose last touch is older than maxAgeBars
func FilterByAge(zones []models.ZoneCandidate, lastBarIndex, maxAgeBars int) []models.ZoneCandidate {
	cutoff := lastBarIndex - maxAgeBars
	out := make([]models.ZoneCandidate, 0, len(zones))
	for _, z := range zones {
		if z.LastSwingIndex >= cutoff {
			out = append(out, z)
		}
	}
	return out
}

// ResolveOverlaps greedily keeps the best scoring zones that do not overlap
// an already kept zone, and returns them sorted by lower bound.
func ResolveOverlaps(zones []models.ZoneCandidate, tolerance float64) []models.ZoneCandidate {
	byScore := make([]models.ZoneCandidate, len(zones))
	copy(byScore, zones)
	sort.SliceStable(byScore, func(i, j int) bool {
		return byScore[i].Score > byScore[j].Score
	})

	var accepted []models.ZoneCandidate
	for _, z := range byScore {
		clash := false
		for _, a := range accepted {
			if overlaps(z, a, tolerance) {
				clash = true
				break
			}
		}
		if !clash {
			accepted = append(accepted, z)
		}
	}

	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].Lower < accepted[j].Lower
	})
	return accepted
}

func overlaps(a, b models.ZoneCandidate, tolerance float64) bool {
	return a.Lower <= b.Upper+tolerance && b.Lower <= a.Upper+tolerance
}
