package models

// Direction of a trend or a trade
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

// Opposite returns the counter direction; Neutral stays Neutral
func (d Direction) Opposite() Direction {
	switch d {
	case Bullish:
		return Bearish
	case Bearish:
		return Bullish
	default:
		return Neutral
	}
}

// Classification of a zone relative to the current trend
type Classification string

const (
	Tradable  Classification = "tradable"
	Reference Classification = "reference"
)

// Tier is a coarse bucket of the final quality score
type Tier string

const (
	TierNone      Tier = "NONE"
	TierWatchlist Tier = "WATCHLIST"
	TierNotify    Tier = "NOTIFY"
	TierPriority  Tier = "PRIORITY"
)

// Rank orders tiers so callers can compare them
func (t Tier) Rank() int {
	switch t {
	case TierWatchlist:
		return 1
	case TierNotify:
		return 2
	case TierPriority:
		return 3
	default:
		return 0
	}
}

// Stage identifies where in the pipeline a rejection happened
type Stage string

const (
	StageData     Stage = "data"
	StageZones    Stage = "zones"
	StageClassify Stage = "classify"
	StagePattern  Stage = "pattern"
	StageHTF      Stage = "htf"
	StageGate     Stage = "gate"
	StageQuality  Stage = "quality"
)
