package models

import "time"

// timeframeSpec maps a strategy timeframe key to the feed interval and bar length
type timeframeSpec struct {
	Interval string
	Duration time.Duration
}

var timeframes = map[string]timeframeSpec{
	"5M":  {Interval: "5min", Duration: 5 * time.Minute},
	"15M": {Interval: "15min", Duration: 15 * time.Minute},
	"30M": {Interval: "30min", Duration: 30 * time.Minute},
	"1H":  {Interval: "1h", Duration: time.Hour},
	"4H":  {Interval: "4h", Duration: 4 * time.Hour},
	"1D":  {Interval: "1day", Duration: 24 * time.Hour},
	"1W":  {Interval: "1week", Duration: 7 * 24 * time.Hour},
}

// KnownTimeframe reports whether the key is registered
func KnownTimeframe(tf string) bool {
	_, ok := timeframes[tf]
	return ok
}

// FeedInterval returns the data-feed interval name for a timeframe key
func FeedInterval(tf string) (string, bool) {
	entry, ok := timeframes[tf]
	return entry.Interval, ok
}

// TimeframeDuration returns the bar length of a timeframe key
func TimeframeDuration(tf string) (time.Duration, bool) {
	entry, ok := timeframes[tf]
	return entry.Duration, ok
}
