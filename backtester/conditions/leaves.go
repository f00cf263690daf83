package conditions

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/backtester/indicators"
)

var one = decimal.NewFromInt(1)

// PriceTouchBelow triggers when the bar low reaches the indicator shifted by
// Offset, eg an Offset of -0.01 is one percent under the indicator. The
// price is the touched level
type PriceTouchBelow struct {
	Indicator string
	Offset    float64
}

// Evaluate implements Condition
func (p *PriceTouchBelow) Evaluate(ctx *Context) Result {
	v, ok := ctx.Value(p.Indicator)
	if !ok {
		return NotTriggered()
	}
	level := v * (1 + p.Offset)
	if ctx.Bar.Low.InexactFloat64() > level {
		return NotTriggered()
	}
	return TriggeredAt(decimal.NewFromFloat(level), fmt.Sprintf("low %v touched %s level %.8f", ctx.Bar.Low, p.Indicator, level))
}

func (p *PriceTouchBelow) String() string {
	return fmt.Sprintf("%s(%s,%v)", PriceTouchBelowName, p.Indicator, p.Offset)
}

// PriceTouchAbove triggers when the bar high reaches the indicator shifted
// by Offset. The price is the touched level
type PriceTouchAbove struct {
	Indicator string
	Offset    float64
}

// Evaluate implements Condition
func (p *PriceTouchAbove) Evaluate(ctx *Context) Result {
	v, ok := ctx.Value(p.Indicator)
	if !ok {
		return NotTriggered()
	}
	level := v * (1 + p.Offset)
	if ctx.Bar.High.InexactFloat64() < level {
		return NotTriggered()
	}
	return TriggeredAt(decimal.NewFromFloat(level), fmt.Sprintf("high %v touched %s level %.8f", ctx.Bar.High, p.Indicator, level))
}

func (p *PriceTouchAbove) String() string {
	return fmt.Sprintf("%s(%s,%v)", PriceTouchAboveName, p.Indicator, p.Offset)
}

// InRange triggers when the indicator lies within the bar's low and high,
// which makes it the natural reversion exit. The price is the indicator
type InRange struct {
	Indicator string
}

// Evaluate implements Condition
func (r *InRange) Evaluate(ctx *Context) Result {
	v, ok := ctx.Value(r.Indicator)
	if !ok {
		return NotTriggered()
	}
	if v < ctx.Bar.Low.InexactFloat64() || v > ctx.Bar.High.InexactFloat64() {
		return NotTriggered()
	}
	return TriggeredAt(decimal.NewFromFloat(v), fmt.Sprintf("%s %.8f within bar range", r.Indicator, v))
}

func (r *InRange) String() string {
	return fmt.Sprintf("%s(%s)", InRangeName, r.Indicator)
}

// IndicatorBelow triggers when the indicator is strictly below Threshold
type IndicatorBelow struct {
	Indicator string
	Threshold float64
}

// Evaluate implements Condition
func (i *IndicatorBelow) Evaluate(ctx *Context) Result {
	v, ok := ctx.Value(i.Indicator)
	if !ok || v >= i.Threshold {
		return NotTriggered()
	}
	return Triggered(fmt.Sprintf("%s %.4f below %v", i.Indicator, v, i.Threshold))
}

func (i *IndicatorBelow) String() string {
	return fmt.Sprintf("%s(%s,%v)", IndicatorBelowName, i.Indicator, i.Threshold)
}

// IndicatorAbove triggers when the indicator is strictly above Threshold
type IndicatorAbove struct {
	Indicator string
	Threshold float64
}

// Evaluate implements Condition
func (i *IndicatorAbove) Evaluate(ctx *Context) Result {
	v, ok := ctx.Value(i.Indicator)
	if !ok || v <= i.Threshold {
		return NotTriggered()
	}
	return Triggered(fmt.Sprintf("%s %.4f above %v", i.Indicator, v, i.Threshold))
}

func (i *IndicatorAbove) String() string {
	return fmt.Sprintf("%s(%s,%v)", IndicatorAboveName, i.Indicator, i.Threshold)
}

// TrendSign triggers when the trend slope is strictly positive, or strictly
// negative when Positive is false
type TrendSign struct {
	Positive bool
}

// Evaluate implements Condition
func (t *TrendSign) Evaluate(ctx *Context) Result {
	slope, ok := ctx.Value(indicators.TrendSlope)
	if !ok {
		return NotTriggered()
	}
	if (t.Positive && slope > 0) || (!t.Positive && slope < 0) {
		return Triggered(fmt.Sprintf("trend slope %.8f", slope))
	}
	return NotTriggered()
}

func (t *TrendSign) String() string {
	if t.Positive {
		return TrendSignName + "(positive)"
	}
	return TrendSignName + "(negative)"
}

// PhaseIn triggers when the snapshot phase is one of Phases. An unknown
// phase never triggers
type PhaseIn struct {
	Phases []indicators.Phase
}

// Evaluate implements Condition
func (p *PhaseIn) Evaluate(ctx *Context) Result {
	if ctx.Snapshot == nil || ctx.Snapshot.Phase == indicators.PhaseUnknown {
		return NotTriggered()
	}
	for i := range p.Phases {
		if p.Phases[i] == ctx.Snapshot.Phase {
			return Triggered("phase " + ctx.Snapshot.Phase.String())
		}
	}
	return NotTriggered()
}

func (p *PhaseIn) String() string {
	s := make([]string, len(p.Phases))
	for i := range p.Phases {
		s[i] = p.Phases[i].String()
	}
	return PhaseInName + "(" + strings.Join(s, "|") + ")"
}

func projection(ctx *Context, periods int) (projected, closePrice float64, ok bool) {
	trend, ok := ctx.Value(indicators.Trend)
	if !ok {
		return 0, 0, false
	}
	slope, ok := ctx.Value(indicators.TrendSlope)
	if !ok {
		return 0, 0, false
	}
	return trend + float64(periods)*slope, ctx.Bar.Close.InexactFloat64(), true
}

// ProjectionAbove triggers when the trend projected Periods bars ahead is at
// least Margin above the close
type ProjectionAbove struct {
	Periods int
	Margin  float64
}

// Evaluate implements Condition
func (p *ProjectionAbove) Evaluate(ctx *Context) Result {
	projected, c, ok := projection(ctx, p.Periods)
	if !ok || projected < c*(1+p.Margin) {
		return NotTriggered()
	}
	return Triggered(fmt.Sprintf("trend projected to %.8f over %d bars", projected, p.Periods))
}

func (p *ProjectionAbove) String() string {
	return fmt.Sprintf("%s(%d,%v)", ProjectionAboveName, p.Periods, p.Margin)
}

// ProjectionBelow triggers when the trend projected Periods bars ahead is at
// least Margin below the close
type ProjectionBelow struct {
	Periods int
	Margin  float64
}

// Evaluate implements Condition
func (p *ProjectionBelow) Evaluate(ctx *Context) Result {
	projected, c, ok := projection(ctx, p.Periods)
	if !ok || projected > c*(1-p.Margin) {
		return NotTriggered()
	}
	return Triggered(fmt.Sprintf("trend projected to %.8f over %d bars", projected, p.Periods))
}

func (p *ProjectionBelow) String() string {
	return fmt.Sprintf("%s(%d,%v)", ProjectionBelowName, p.Periods, p.Margin)
}

// LimitAt always triggers while its indicator is available and supplies the
// indicator shifted by Offset as the limit price
type LimitAt struct {
	Indicator string
	Offset    float64
}

// Evaluate implements Condition
func (l *LimitAt) Evaluate(ctx *Context) Result {
	v, ok := ctx.Value(l.Indicator)
	if !ok {
		return NotTriggered()
	}
	level := v * (1 + l.Offset)
	if level <= 0 {
		return NotTriggered()
	}
	return TriggeredAt(decimal.NewFromFloat(level), "")
}

func (l *LimitAt) String() string {
	return fmt.Sprintf("%s(%s,%v)", LimitAtName, l.Indicator, l.Offset)
}

// StopLoss triggers when the bar low falls Percent below the position entry
// price. The price is the stop level
type StopLoss struct {
	Percent float64
}

// Evaluate implements Condition
func (s *StopLoss) Evaluate(ctx *Context) Result {
	if ctx.Position == nil || ctx.Position.Quantity.IsZero() {
		return NotTriggered()
	}
	level := ctx.Position.EntryPrice().Mul(one.Sub(decimal.NewFromFloat(s.Percent)))
	if ctx.Bar.Low.GreaterThan(level) {
		return NotTriggered()
	}
	return TriggeredAt(level, fmt.Sprintf("stop loss %v%% at %v", s.Percent*100, level))
}

func (s *StopLoss) String() string {
	return fmt.Sprintf("%s(%v)", StopLossName, s.Percent)
}

// TakeProfit triggers when the bar high reaches Percent above the position
// entry price. The price is the target level
type TakeProfit struct {
	Percent float64
}

// Evaluate implements Condition
func (t *TakeProfit) Evaluate(ctx *Context) Result {
	if ctx.Position == nil || ctx.Position.Quantity.IsZero() {
		return NotTriggered()
	}
	level := ctx.Position.EntryPrice().Mul(one.Add(decimal.NewFromFloat(t.Percent)))
	if ctx.Bar.High.LessThan(level) {
		return NotTriggered()
	}
	return TriggeredAt(level, fmt.Sprintf("take profit %v%% at %v", t.Percent*100, level))
}

func (t *TakeProfit) String() string {
	return fmt.Sprintf("%s(%v)", TakeProfitName, t.Percent)
}

// HoldingBarsAtLeast triggers once a position has been held for Bars bars
// and prices the exit at the close
type HoldingBarsAtLeast struct {
	Bars int
}

// Evaluate implements Condition
func (h *HoldingBarsAtLeast) Evaluate(ctx *Context) Result {
	if ctx.Position == nil || ctx.Position.HoldingBars(ctx.Offset) < h.Bars {
		return NotTriggered()
	}
	return TriggeredAt(ctx.Bar.Close, fmt.Sprintf("held %d bars", ctx.Position.HoldingBars(ctx.Offset)))
}

func (h *HoldingBarsAtLeast) String() string {
	return fmt.Sprintf("%s(%d)", HoldingBarsName, h.Bars)
}

// FlagSet triggers when the position carries the metadata flag Key
type FlagSet struct {
	Key string
}

// Evaluate implements Condition
func (f *FlagSet) Evaluate(ctx *Context) Result {
	if ctx.Position == nil || !ctx.Position.Flagged(f.Key) {
		return NotTriggered()
	}
	return Triggered("flag " + f.Key)
}

func (f *FlagSet) String() string {
	return fmt.Sprintf("%s(%s)", FlagSetName, f.Key)
}
