package quality

import (
	"github.com/Alias1177/zonescan/internal/config"
	"github.com/Alias1177/zonescan/models"
)

const (
	wickBoostThreshold = 0.5
	wickBoostDivisor   = 2.5

	breakWickCap    = 0.5
	preBreakWickCap = 0.6
	afterWickCap    = 0.4

	opposingWickCap = 0.5
)

// Score rates a matched pattern with the eight stage factors and maps the
// weighted total onto a tier. Invalid geometry scores 0 with tier NONE.
func Score(p models.EntryPattern, s config.ScoringSettings) models.QualityResult {
	sd := side{dir: p.Direction, lower: p.Zone.Lower, upper: p.Zone.Upper}
	if sd.height() <= 0 {
		return invalid("zone height must be positive")
	}
	if len(p.Candles) == 0 || p.RetestIndex < 0 || p.BreakIndex <= p.RetestIndex || p.BreakIndex >= len(p.Candles) {
		return invalid("pattern indexes out of order")
	}
	if p.Direction != models.Bullish && p.Direction != models.Bearish {
		return invalid("pattern has no direction")
	}

	s1, ok := penetration(p, sd)
	if !ok {
		return invalid("no candles intersect the zone")
	}

	stages := models.StageScores{
		Penetration:  s1,
		WickMomentum: wickMomentum(p, sd),
		BreakQuality: breakQuality(p, sd),
		Impulse:      impulse(p, sd),
		CandleCount:  CandleCount(p.BreakIndex - p.RetestIndex),
		RetestEntry:  retestEntry(p, sd),
		OpposingWick: opposingWick(p, sd),
	}

	weights := s.WithoutAfterBreak
	if ab, ok := p.AfterBreak(); ok {
		s5 := afterBreak(ab, p.Break(), sd)
		stages.AfterBreak = &s5
		weights = s.WithAfterBreak
	}

	final := clamp01(Weighted(stages, weights))
	return models.QualityResult{
		FinalScore: final,
		Tier:       TierFor(final, s.Tiers),
		Stages:     stages,
	}
}

// Weighted sums the stages against a weight vector; a nil S5 contributes 0
func Weighted(st models.StageScores, w config.StageWeights) float64 {
	total := w.Penetration*st.Penetration +
		w.WickMomentum*st.WickMomentum +
		w.BreakQuality*st.BreakQuality +
		w.Impulse*st.Impulse +
		w.CandleCount*st.CandleCount +
		w.RetestEntry*st.RetestEntry +
		w.OpposingWick*st.OpposingWick
	if st.AfterBreak != nil {
		total += w.AfterBreak * *st.AfterBreak
	}
	return total
}

// TierFor buckets a final score
func TierFor(score float64, t config.TierThresholds) models.Tier {
	switch {
	case score >= t.Priority:
		return models.TierPriority
	case score >= t.Notify:
		return models.TierNotify
	case score >= t.Watchlist:
		return models.TierWatchlist
	default:
		return models.TierNone
	}
}

func invalid(reason string) models.QualityResult {
	return models.QualityResult{FinalScore: 0, Tier: models.TierNone, Invalid: reason}
}

// penetration (S1): deepest intrusion between retest and break, boosted when
// that intrusion is mostly wick.
func penetration(p models.EntryPattern, sd side) (float64, bool) {
	found := false
	deepest := -1.0
	var deepestCandle models.Candle
	for i := p.RetestIndex; i <= p.BreakIndex; i++ {
		c := p.Candles[i]
		if !sd.intersects(c) {
			continue
		}
		found = true
		if d := sd.intrusion(c); d > deepest {
			deepest = d
			deepestCandle = c
		}
	}
	if !found {
		return 0, false
	}

	score := deepest / sd.height()
	if frac := ratio(sd.rejectionWick(deepestCandle), deepestCandle.Range()); frac > wickBoostThreshold {
		score += frac / wickBoostDivisor
	}
	return clamp01(score), true
}

// wickMomentum (S2): rejection wick pressure into the zone around the break
func wickMomentum(p models.EntryPattern, sd side) float64 {
	h := sd.height()
	breakR := capped(ratio(sd.wickInZone(p.Break()), h), breakWickCap)
	preR := capped(ratio(sd.wickInZone(p.Candles[p.BreakIndex-1]), h), preBreakWickCap)

	if ab, ok := p.AfterBreak(); ok {
		afterR := capped(ratio(sd.wickInZone(ab), h), afterWickCap)
		return clamp01(0.5*breakR + 0.3*preR + 0.2*afterR)
	}
	return clamp01(0.6*breakR + 0.4*preR)
}

// breakQuality (S3): rejection wick, close distance and body of the break
// candle, re-weighted toward whichever sub-factor dominates.
func breakQuality(p models.EntryPattern, sd side) float64 {
	b := p.Break()
	wick := clamp01(ratio(sd.rejectionWick(b), b.Range()))
	closeDist := clamp01(ratio(sd.beyond(b), sd.height()))
	body := 0.0
	if sd.aligned(b) {
		body = clamp01(ratio(b.Body(), b.Range()))
	}

	subs := [3]float64{wick, closeDist, body}
	weights := [3]float64{0.3, 0.4, 0.3}
	dominant := 0
	for i := 1; i < len(subs); i++ {
		if subs[i] > subs[dominant] {
			dominant = i
		}
	}
	for i := range weights {
		if i == dominant {
			weights[i] += 0.1
		} else {
			weights[i] -= 0.05
		}
	}

	var total float64
	for i := range subs {
		total += weights[i] * subs[i]
	}
	return clamp01(total)
}

// impulse (S4): closes beating the retest open, and break body dominance
func impulse(p models.EntryPattern, sd side) float64 {
	r := p.Retest()
	b := p.Break()

	closes := []float64{b.Close}
	if ab, ok := p.AfterBreak(); ok {
		closes = append(closes, ab.Close)
	}
	beat := 0.0
	for _, c := range closes {
		if sd.beats(c, r.Open) {
			beat++
		}
	}
	beat /= float64(len(closes))

	bodyDom := 1.0
	if r.Body() > 0 && b.Body() < r.Body() {
		bodyDom = b.Body() / r.Body()
	}
	return clamp01(0.6*beat + 0.4*bodyDom)
}

// afterBreak (S5): confirmation candle staying out of the zone with an aligned
// body and a close further away.
func afterBreak(ab, b models.Candle, sd side) float64 {
	h := sd.height()
	wick := 1 - capped(ratio(sd.wickInZone(ab), h), afterWickCap)
	body := 0.0
	if sd.aligned(ab) {
		body = clamp01(ratio(ab.Body(), b.Body()))
	}
	closeDist := clamp01(ratio(sd.beyond(ab), h))
	return clamp01(0.3*wick + 0.3*body + 0.4*closeDist)
}

// CandleCount (S6) steps down with the bars between retest and break
func CandleCount(bars int) float64 {
	switch {
	case bars <= 3:
		return 1.0
	case bars == 4:
		return 0.75
	case bars == 5:
		return 0.6
	case bars == 6:
		return 0.4
	default:
		return 0.25
	}
}

// retestEntry (S7): body penetration and rejection wick of the retest candle
func retestEntry(p models.EntryPattern, sd side) float64 {
	r := p.Retest()
	h := sd.height()
	bodyPen := clamp01(ratio(sd.bodyInZone(r), h))
	wick := clamp01(ratio(sd.rejectionWick(r), h))
	return clamp01(0.5*bodyPen + 0.5*wick)
}

// opposingWick (S8): penalises counter-trend wicks on break and after-break
func opposingWick(p models.EntryPattern, sd side) float64 {
	resist := func(c models.Candle) float64 {
		return 1 - capped(ratio(sd.opposingWick(c), c.Range()), opposingWickCap)
	}

	b := resist(p.Break())
	if ab, ok := p.AfterBreak(); ok {
		return clamp01(0.6*b + 0.4*resist(ab))
	}
	return clamp01(b)
}
