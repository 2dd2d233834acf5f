package gate

import (
	"fmt"

	"github.com/Alias1177/zonescan/models"
)

const (
	NameTimeOfDay         = "time_of_day"
	NameTimeframeConflict = "timeframe_conflict"
	NameHTFAlignment      = "htf_alignment"
	NameObstacleClearance = "obstacle_clearance"
)

// TimeOfDay passes when the signal's UTC hour is in the allowed set
func TimeOfDay(ctx Context) Result {
	hour := ctx.SignalTime.UTC().Hour()
	for _, h := range ctx.Settings.AllowedHours {
		if h == hour {
			return pass(NameTimeOfDay)
		}
	}
	return fail(NameTimeOfDay, fmt.Sprintf("hour %02d UTC outside allowed window", hour))
}

// TimeframeConflict fails only when exactly one trend timeframe points the
// other way and that timeframe is the excluded one.
func TimeframeConflict(ctx Context) Result {
	var conflicted []string
	opposite := ctx.Direction.Opposite()
	for _, tf := range ctx.TrendTimeframes {
		if trend, ok := ctx.Trends[tf]; ok && trend == opposite && opposite != models.Neutral {
			conflicted = append(conflicted, tf)
		}
	}

	if len(conflicted) == 1 && conflicted[0] == ctx.Settings.ExcludedConflictTimeframe {
		return fail(NameTimeframeConflict, fmt.Sprintf("%s trend conflicts with %s direction", conflicted[0], ctx.Direction))
	}
	return pass(NameTimeframeConflict)
}

// HTFAlignment wants bullish entries low in the daily/weekly range and
// bearish entries high in it.
func HTFAlignment(ctx Context) Result {
	daily := ctx.HTF.Position(ctx.DailyTimeframe)
	weekly := ctx.HTF.Position(ctx.WeeklyTimeframe)
	if daily == nil {
		return fail(NameHTFAlignment, "daily position unavailable")
	}
	if weekly == nil {
		return fail(NameHTFAlignment, "weekly position unavailable")
	}

	s := ctx.Settings
	switch ctx.Direction {
	case models.Bullish:
		if *daily > s.BullishDailyMax {
			return fail(NameHTFAlignment, fmt.Sprintf("daily position %.2f > %.2f", *daily, s.BullishDailyMax))
		}
		if *weekly > s.BullishWeeklyMax {
			return fail(NameHTFAlignment, fmt.Sprintf("weekly position %.2f > %.2f", *weekly, s.BullishWeeklyMax))
		}
	case models.Bearish:
		if *daily < s.BearishDailyMin {
			return fail(NameHTFAlignment, fmt.Sprintf("daily position %.2f < %.2f", *daily, s.BearishDailyMin))
		}
		if *weekly < s.BearishWeeklyMin {
			return fail(NameHTFAlignment, fmt.Sprintf("weekly position %.2f < %.2f", *weekly, s.BearishWeeklyMin))
		}
	default:
		return fail(NameHTFAlignment, "no trade direction")
	}
	return pass(NameHTFAlignment)
}

// ObstacleClearance needs enough ATR room to the next HTF level
func ObstacleClearance(ctx Context) Result {
	if ctx.HTF.ObstacleATR == nil {
		return fail(NameObstacleClearance, "obstacle distance unavailable")
	}
	dist := *ctx.HTF.ObstacleATR
	if dist < ctx.Settings.MinObstacleATR {
		return fail(NameObstacleClearance, fmt.Sprintf("obstacle %.2f ATR < %.2f", dist, ctx.Settings.MinObstacleATR))
	}
	return pass(NameObstacleClearance)
}
