package swing

import (
	"math"
	"sort"

	"github.com/Alias1177/zonescan/models"
)

// Detect locates swing highs and lows in a price series.
// distance is the minimum bar spacing between two extrema of the same kind,
// prominence the minimum price prominence. The result is ordered by index.
// A series shorter than 3 points yields an empty result.
func Detect(prices []float64, distance int, prominence float64) []models.SwingPoint {
	if len(prices) < 3 {
		return nil
	}

	negated := make([]float64, len(prices))
	for i, p := range prices {
		negated[i] = -p
	}

	highs := FindPeaks(prices, distance, prominence)
	lows := FindPeaks(negated, distance, prominence)

	points := make([]models.SwingPoint, 0, len(highs)+len(lows))
	for _, idx := range highs {
		points = append(points, models.SwingPoint{Index: idx, Price: prices[idx], Kind: models.SwingHigh})
	}
	for _, idx := range lows {
		points = append(points, models.SwingPoint{Index: idx, Price: prices[idx], Kind: models.SwingLow})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Index < points[j].Index
	})
	return points
}

// FindPeaks returns the indexes of local maxima that survive the distance and
// prominence filters, in ascending order. Flat peaks are reported at their
// middle sample.
func FindPeaks(x []float64, distance int, prominence float64) []int {
	peaks := localMaxima(x)
	if len(peaks) == 0 {
		return nil
	}

	if distance > 1 {
		peaks = selectByDistance(x, peaks, distance)
	}

	kept := peaks[:0]
	for _, p := range peaks {
		if Prominence(x, p) >= prominence {
			kept = append(kept, p)
		}
	}
	return kept
}

func localMaxima(x []float64) []int {
	var peaks []int
	iMax := len(x) - 1

	i := 1
	for i < iMax {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < iMax && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				left, right := i, ahead-1
				peaks = append(peaks, (left+right)/2)
				i = ahead
			}
		}
		i++
	}
	return peaks
}

// selectByDistance keeps the highest peaks first and drops every neighbour
// closer than distance bars.
func selectByDistance(x []float64, peaks []int, distance int) []int {
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return x[peaks[order[a]]] > x[peaks[order[b]]]
	})

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}

	for _, j := range order {
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && peaks[j]-peaks[k] < distance; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(peaks) && peaks[k]-peaks[j] < distance; k++ {
			keep[k] = false
		}
	}

	out := make([]int, 0, len(peaks))
	for i, p := range peaks {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

// Prominence is the height of a peak above the higher of its two bases, where
// each base is the lowest point before the series rises above the peak again.
func Prominence(x []float64, peak int) float64 {
	leftMin := x[peak]
	for i := peak; i >= 0 && x[i] <= x[peak]; i-- {
		leftMin = math.Min(leftMin, x[i])
	}

	rightMin := x[peak]
	for i := peak; i < len(x) && x[i] <= x[peak]; i++ {
		rightMin = math.Min(rightMin, x[i])
	}

	return x[peak] - math.Max(leftMin, rightMin)
}
