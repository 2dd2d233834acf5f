package zone

import "github.com/Alias1177/zonescan/models"

// Classify tags every zone as tradable or reference for the trend direction.
// Under a bearish trend, zones above price are sell-side tradable; under a
// bullish trend, zones below price are buy-side tradable; a neutral trend
// makes nothing tradable.
func Classify(zones []models.ZoneCandidate, price float64, trend models.Direction, alignmentWeight float64, timeframe string) []models.Zone {
	out := make([]models.Zone, 0, len(zones))
	for _, z := range zones {
		class := models.Reference
		switch trend {
		case models.Bearish:
			if z.Upper > price {
				class = models.Tradable
			}
		case models.Bullish:
			if z.Lower < price {
				class = models.Tradable
			}
		case models.Neutral:
		}

		weight := 1.0
		if class == models.Tradable {
			weight = alignmentWeight
		}

		out = append(out, models.Zone{
			ZoneCandidate:  z,
			Classification: class,
			Timeframe:      timeframe,
			WeightedScore:  z.Score * weight,
		})
	}
	return out
}

// Tradable filters the tradable zones, keeping their order
func Tradable(zones []models.Zone) []models.Zone {
	var out []models.Zone
	for _, z := range zones {
		if z.Classification == models.Tradable {
			out = append(out, z)
		}
	}
	return out
}
