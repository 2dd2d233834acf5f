package signal

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Alias1177/zonescan/internal/config"
	"github.com/Alias1177/zonescan/internal/gate"
	"github.com/Alias1177/zonescan/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidExecution is returned when a live fill sits on the wrong side of the stop
var ErrInvalidExecution = errors.New("execution price beyond stop loss")

// Outcome is either an accepted signal or a rejection, never both
type Outcome struct {
	Signal    *models.AcceptedSignal
	Rejection *models.Rejection
}

func (o Outcome) Accepted() bool {
	return o.Signal != nil
}

// Input is everything the assembler needs from the pipeline stages
type Input struct {
	Symbol    string
	Timeframe string
	PipSize   float64
	ATR       float64
	Pattern   models.EntryPattern
	HTF       models.HTFContext
	Context   models.ScoreResult
	Gates     gate.CheckResult
	Quality   models.QualityResult
}

// Assembler builds the final records of one pipeline run
type Assembler struct {
	risk  config.RiskSettings
	tiers config.TierThresholds
	now   func() time.Time
}

func NewAssembler(risk config.RiskSettings, tiers config.TierThresholds) *Assembler {
	return &Assembler{
		risk:  risk,
		tiers: tiers,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the timestamp source, for tests and replays
func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	a.now = now
	return a
}

// Reject builds a rejection outcome for any stage
func (a *Assembler) Reject(symbol, timeframe string, stage models.Stage, reason string, direction models.Direction) Outcome {
	return Outcome{Rejection: &models.Rejection{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Timeframe:  timeframe,
		Stage:      stage,
		Reason:     reason,
		Direction:  direction,
		DetectedAt: a.now(),
	}}
}

// Assemble turns the gate, HTF, quality and pattern results into an outcome
func (a *Assembler) Assemble(in Input) Outcome {
	dir := in.Pattern.Direction

	if !in.Gates.Passed {
		out := a.Reject(in.Symbol, in.Timeframe, models.StageGate, in.Gates.FailedReason, dir)
		out.Rejection.Gate = in.Gates.FailedGate
		return out
	}

	if in.Quality.Tier == models.TierNone {
		reason := in.Quality.Invalid
		if reason == "" {
			reason = fmt.Sprintf("quality %.2f below watchlist %.2f", in.Quality.FinalScore, a.tiers.Watchlist)
		}
		return a.Reject(in.Symbol, in.Timeframe, models.StageQuality, reason, dir)
	}

	if in.ATR <= 0 {
		return a.Reject(in.Symbol, in.Timeframe, models.StageData, "ATR unavailable", dir)
	}

	brk := in.Pattern.Break()
	entry := round(brk.Close, in.PipSize)
	sl, tp := Levels(dir, entry, in.Pattern.Zone, in.ATR, in.PipSize, a.risk)

	live := in.Pattern.IsBreakCandleLast
	return Outcome{Signal: &models.AcceptedSignal{
		ID:                 uuid.NewString(),
		Symbol:             in.Symbol,
		Timeframe:          in.Timeframe,
		Direction:          dir,
		Zone:               in.Pattern.Zone,
		BreakTime:          brk.Time,
		DetectedAt:         a.now(),
		EntryPrice:         entry,
		StopLoss:           sl,
		TakeProfit:         tp,
		ATR:                in.ATR,
		HTF:                in.HTF,
		Context:            in.Context,
		Quality:            in.Quality,
		IsBreakCandleLast:  live,
		NeedsLiveExecution: live,
		Finalized:          !live,
	}}
}

// Levels places the stop beyond the far zone edge by a buffer of ATR and the
// target at RewardRisk times the risk, both rounded to quote precision.
func Levels(dir models.Direction, entry float64, z models.Zone, atr, pipSize float64, risk config.RiskSettings) (sl, tp float64) {
	buffer := risk.StopBufferATR * atr
	switch dir {
	case models.Bearish:
		sl = z.Upper + buffer
		tp = entry - risk.RewardRisk*(sl-entry)
	default:
		sl = z.Lower - buffer
		tp = entry + risk.RewardRisk*(entry-sl)
	}
	return round(sl, pipSize), round(tp, pipSize)
}

// FinalizeWithExecution re-anchors the target on a live fill price. The stop
// stays at the zone; a fill past the stop is rejected.
//
// It is the execution feedback entry point for signals emitted with
// NeedsLiveExecution: the executor that owns the fill calls it and persists
// the result with database.Store.SaveExecution. The scanner itself never
// fills orders, so nothing in this module calls it.
func FinalizeWithExecution(sig models.AcceptedSignal, price, pipSize float64, risk config.RiskSettings) (models.AcceptedSignal, error) {
	price = round(price, pipSize)
	switch sig.Direction {
	case models.Bearish:
		if price >= sig.StopLoss {
			return sig, fmt.Errorf("%w: fill %v, stop %v", ErrInvalidExecution, price, sig.StopLoss)
		}
		sig.TakeProfit = round(price-risk.RewardRisk*(sig.StopLoss-price), pipSize)
	case models.Bullish:
		if price <= sig.StopLoss {
			return sig, fmt.Errorf("%w: fill %v, stop %v", ErrInvalidExecution, price, sig.StopLoss)
		}
		sig.TakeProfit = round(price+risk.RewardRisk*(price-sig.StopLoss), pipSize)
	default:
		return sig, fmt.Errorf("cannot finalize %s signal", sig.Direction)
	}

	sig.EntryPrice = price
	sig.NeedsLiveExecution = false
	sig.Finalized = true
	return sig, nil
}

// round keeps one digit below the pip, the usual broker quote precision
func round(v, pipSize float64) float64 {
	if pipSize <= 0 {
		return v
	}
	places := int32(math.Round(-math.Log10(pipSize))) + 1
	if places < 0 {
		places = 0
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
