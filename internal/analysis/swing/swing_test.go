package swing

import (
	"reflect"
	"testing"

	"github.com/Alias1177/zonescan/models"
)

func TestFindPeaks(t *testing.T) {
	tests := []struct {
		name       string
		x          []float64
		distance   int
		prominence float64
		expected   []int
	}{
		{
			name:     "zigzag",
			x:        []float64{1, 3, 1, 3, 1, 3, 1},
			distance: 1,
			expected: []int{1, 3, 5},
		},
		{
			name:     "edges are never peaks",
			x:        []float64{5, 1, 1, 1, 5},
			distance: 1,
			expected: nil,
		},
		{
			name:     "plateau reported at its middle",
			x:        []float64{0, 2, 2, 2, 0},
			distance: 1,
			expected: []int{2},
		},
		{
			name:     "distance keeps highest",
			x:        []float64{0, 5, 0, 4, 0, 0, 0, 3, 0},
			distance: 3,
			expected: []int{1, 7},
		},
		{
			name:       "prominence drops shallow shoulder",
			x:          []float64{0, 2, 1.9, 2.1, 0},
			distance:   1,
			prominence: 0.5,
			expected:   []int{3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindPeaks(tt.x, tt.distance, tt.prominence)
			if len(got) == 0 && len(tt.expected) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("FindPeaks() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestProminence(t *testing.T) {
	x := []float64{0, 2, 1.9, 2.1, 0}
	if got := Prominence(x, 3); got != 2.1 {
		t.Errorf("Prominence(3) = %v, want 2.1", got)
	}
}

func TestDetect(t *testing.T) {
	t.Run("short series is empty", func(t *testing.T) {
		if got := Detect([]float64{1, 2}, 1, 0); len(got) != 0 {
			t.Errorf("Detect() = %v, want empty", got)
		}
	})

	t.Run("highs and lows interleaved by index", func(t *testing.T) {
		prices := []float64{1, 3, 1, 3, 1, 3, 1}
		got := Detect(prices, 1, 0)
		want := []models.SwingPoint{
			{Index: 1, Price: 3, Kind: models.SwingHigh},
			{Index: 2, Price: 1, Kind: models.SwingLow},
			{Index: 3, Price: 3, Kind: models.SwingHigh},
			{Index: 4, Price: 1, Kind: models.SwingLow},
			{Index: 5, Price: 3, Kind: models.SwingHigh},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Detect() = %v, want %v", got, want)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		prices := []float64{1.10, 1.12, 1.11, 1.15, 1.09, 1.13, 1.08, 1.14, 1.10}
		first := Detect(prices, 2, 0.005)
		second := Detect(prices, 2, 0.005)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Detect() not deterministic: %v vs %v", first, second)
		}
	})
}
