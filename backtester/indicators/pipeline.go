package indicators

import (
	"fmt"
	"math"

	ta "github.com/thrasher-corp/gct-ta/indicators"
	"github.com/thrasher-corp/gfobtester/backtester/data"
	gctmath "github.com/thrasher-corp/gfobtester/common/math"
)

// DefaultSettings returns the settings used when none are configured
func DefaultSettings() Settings {
	return Settings{
		EMAPeriod:        20,
		TrendPeriod:      50,
		DeviationPeriod:  20,
		PercentileWindow: 100,
		SlopeLookback:    5,
		PhaseLookback:    42,
		VarianceFloor:    1e-12,
		FlatSlope:        0.0002,
		StrongSlope:      0.001,
		LowBucket:        20,
		HighBucket:       80,
		Dominance:        0.5,
		RSIPeriod:        14,
		ATRPeriod:        14,
	}
}

// Validate checks the settings for unusable periods and thresholds
func (s *Settings) Validate() error {
	for _, p := range []struct {
		name  string
		value int
	}{
		{"ema-period", s.EMAPeriod},
		{"trend-period", s.TrendPeriod},
		{"deviation-period", s.DeviationPeriod},
		{"percentile-window", s.PercentileWindow},
		{"slope-lookback", s.SlopeLookback},
		{"phase-lookback", s.PhaseLookback},
	} {
		if p.value <= 0 {
			return fmt.Errorf("%s %w, received %d", p.name, errInvalidPeriod, p.value)
		}
	}
	if s.RSIPeriod < 0 || s.ATRPeriod < 0 {
		return fmt.Errorf("rsi-period/atr-period %w, received %d/%d", errInvalidPeriod, s.RSIPeriod, s.ATRPeriod)
	}
	if s.VarianceFloor <= 0 {
		return errInvalidFloor
	}
	if s.FlatSlope < 0 || s.FlatSlope > s.StrongSlope {
		return fmt.Errorf("%w: flat %v strong %v", errInvalidSlopes, s.FlatSlope, s.StrongSlope)
	}
	if s.LowBucket < 0 || s.LowBucket >= s.HighBucket || s.HighBucket > 100 {
		return fmt.Errorf("%w: low %v high %v", errInvalidBuckets, s.LowBucket, s.HighBucket)
	}
	if s.Dominance <= 0 || s.Dominance > 1 {
		return fmt.Errorf("%w: %v", errInvalidDominance, s.Dominance)
	}
	return nil
}

// WarmupBars returns the number of bars required before every configured
// value can be available
func (s *Settings) WarmupBars() int {
	return max(s.PercentileWindow, s.SlopeLookback, s.RSIPeriod, s.ATRPeriod) + 1
}

// NewPipeline validates settings and returns an empty pipeline
func NewPipeline(s Settings) (*Pipeline, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		settings:    s,
		fast:        newEWMA(s.EMAPeriod),
		trend:       newEWMA(s.TrendPeriod),
		devAlpha:    2 / (float64(s.DeviationPeriod) + 1),
		priorScores: newWindow(s.PercentileWindow),
		trends:      newWindow(s.SlopeLookback + 1),
		buckets:     newWindow(s.PhaseLookback),
	}
	if taPeriod := max(s.RSIPeriod, s.ATRPeriod); taPeriod > 0 {
		size := taPeriod * taWindowMultiplier
		p.highs = newWindow(size)
		p.lows = newWindow(size)
		p.closes = newWindow(size)
	}
	return p, nil
}

// WarmupBars returns the number of bars required before every configured
// value can be available
func (p *Pipeline) WarmupBars() int {
	return p.settings.WarmupBars()
}

// Offset returns the number of bars folded so far
func (p *Pipeline) Offset() int {
	return p.offset
}

// Settings returns the pipeline settings
func (p *Pipeline) Settings() Settings {
	return p.settings
}

// Update folds the bar into the pipeline state and returns the values as of
// the bar's close
func (p *Pipeline) Update(b data.Bar) *Snapshot {
	snap := newSnapshot(p.offset, PhaseUnknown)
	snap.Time = b.Time
	closePrice := b.Close.InexactFloat64()

	fast := p.fast.update(closePrice)
	trend := p.trend.update(closePrice)
	snap.set(EMA, fast)
	snap.set(Trend, trend)

	p.updateDeviation(snap, closePrice, fast)
	relSlope, hasSlope := p.updateSlope(snap, trend)
	if hasSlope {
		snap.Phase = p.settings.classify(relSlope, p.buckets)
	}
	p.updateTA(snap, &b)

	p.offset++
	return snap
}

func (p *Pipeline) updateDeviation(snap *Snapshot, closePrice, fast float64) {
	d := (closePrice - fast) / fast
	if p.offset == 0 {
		p.devMean = d
		p.devVar = 0
	} else {
		prev := p.devMean
		p.devMean = prev + p.devAlpha*(d-prev)
		p.devVar = (1 - p.devAlpha) * (p.devVar + p.devAlpha*(d-prev)*(d-prev))
	}
	sd := math.Sqrt(math.Max(p.devVar, p.settings.VarianceFloor))
	x := (d - p.devMean) / sd
	snap.set(Deviation, d)
	snap.set(DeviationMean, p.devMean)
	snap.set(DeviationStdDev, sd)
	snap.set(ZScore, x)

	// the current score is ranked against prior scores only
	if p.priorScores.full() {
		pct, err := gctmath.PercentileRank(p.priorScores.values(), x)
		if err == nil {
			snap.set(Percentile, pct)
			p.buckets.push(float64(p.settings.bucketOf(pct)))
		}
	}
	p.priorScores.push(x)
}

func (p *Pipeline) updateSlope(snap *Snapshot, trend float64) (float64, bool) {
	p.trends.push(trend)
	if !p.trends.full() {
		return 0, false
	}
	past := p.trends.oldest()
	slope := (trend - past) / float64(p.settings.SlopeLookback)
	snap.set(TrendSlope, slope)
	if past == 0 {
		return 0, false
	}
	rel := slope / past
	snap.set(TrendSlopeRelative, rel)
	return rel, snap.Available(TrendSlopeRelative)
}

func (p *Pipeline) updateTA(snap *Snapshot, b *data.Bar) {
	if p.closes == nil {
		return
	}
	p.highs.push(b.High.InexactFloat64())
	p.lows.push(b.Low.InexactFloat64())
	p.closes.push(b.Close.InexactFloat64())

	n := p.closes.len()
	if p.settings.RSIPeriod > 0 && n > p.settings.RSIPeriod {
		if rsi := ta.RSI(p.closes.values(), p.settings.RSIPeriod); len(rsi) > 0 {
			snap.set(RSI, rsi[len(rsi)-1])
		}
	}
	if p.settings.ATRPeriod > 0 && n > p.settings.ATRPeriod {
		if atr := ta.ATR(p.highs.values(), p.lows.values(), p.closes.values(), p.settings.ATRPeriod); len(atr) > 0 {
			snap.set(ATR, atr[len(atr)-1])
		}
	}
}
