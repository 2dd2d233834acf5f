package gate

import (
	"time"

	"github.com/Alias1177/zonescan/internal/config"
	"github.com/Alias1177/zonescan/models"
)

// Context is the read-only input shared by every gate
type Context struct {
	Symbol     string
	Direction  models.Direction
	SignalTime time.Time
	// Trends holds the oracle answer per trend timeframe; a missing key means
	// the trend was unavailable.
	Trends          map[string]models.Direction
	TrendTimeframes []string
	HTF             models.HTFContext
	DailyTimeframe  string
	WeeklyTimeframe string
	Settings        config.GateSettings
}

// Result is the verdict of one gate
type Result struct {
	Passed bool
	Gate   string
	Reason string
}

// Gate is a named pure check
type Gate struct {
	Name  string
	Check func(Context) Result
}

// CheckResult is the outcome of a whole chain
type CheckResult struct {
	Passed       bool
	FailedGate   string
	FailedReason string
	// Evaluated lists the gates that actually ran, in order
	Evaluated []string
}

// Chain runs gates in order and stops at the first failure
type Chain []Gate

// DefaultChain is time-of-day, timeframe conflict, HTF alignment, obstacle clearance
func DefaultChain() Chain {
	return Chain{
		{Name: NameTimeOfDay, Check: TimeOfDay},
		{Name: NameTimeframeConflict, Check: TimeframeConflict},
		{Name: NameHTFAlignment, Check: HTFAlignment},
		{Name: NameObstacleClearance, Check: ObstacleClearance},
	}
}

// Run folds the chain left to right with early exit
func (c Chain) Run(ctx Context) CheckResult {
	res := CheckResult{Passed: true}
	for _, g := range c {
		res.Evaluated = append(res.Evaluated, g.Name)
		r := g.Check(ctx)
		if !r.Passed {
			res.Passed = false
			res.FailedGate = g.Name
			res.FailedReason = r.Reason
			return res
		}
	}
	return res
}

func pass(name string) Result {
	return Result{Passed: true, Gate: name}
}

func fail(name, reason string) Result {
	return Result{Passed: false, Gate: name, Reason: reason}
}
