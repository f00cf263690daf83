package conditions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thrasher-corp/gfobtester/backtester/indicators"
	gctcommon "github.com/thrasher-corp/gfobtester/common"
	"github.com/thrasher-corp/gfobtester/common/convert"
)

// NewLeafRegistry returns a registry holding every built-in leaf
func NewLeafRegistry() *LeafRegistry {
	r := &LeafRegistry{factories: make(map[string]Factory)}
	for name, f := range map[string]Factory{
		PriceTouchBelowName: newPriceTouchBelow,
		PriceTouchAboveName: newPriceTouchAbove,
		InRangeName:         newInRange,
		IndicatorBelowName:  newIndicatorBelow,
		IndicatorAboveName:  newIndicatorAbove,
		TrendSignName:       newTrendSign,
		PhaseInName:         newPhaseIn,
		ProjectionAboveName: newProjectionAbove,
		ProjectionBelowName: newProjectionBelow,
		LimitAtName:         newLimitAt,
		StopLossName:        newStopLoss,
		TakeProfitName:      newTakeProfit,
		HoldingBarsName:     newHoldingBars,
		FlagSetName:         newFlagSet,
		ScriptName:          newScriptLeaf,
	} {
		r.factories[name] = f
	}
	return r
}

// Register adds a custom leaf factory
func (r *LeafRegistry) Register(name string, f Factory) error {
	if f == nil {
		return errNilFactory
	}
	name = strings.ToLower(name)
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("%w: %s", ErrLeafAlreadyRegistered, name)
	}
	r.factories[name] = f
	return nil
}

// New builds the named leaf from params
func (r *LeafRegistry) New(name string, p Params) (Condition, error) {
	f, ok := r.factories[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLeafNotFound, name)
	}
	c, err := f(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

// Names returns the registered leaf names in sorted order
func (r *LeafRegistry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for k := range r.factories {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// String returns a string parameter, or def when absent
func (p Params) String(key, def string) (string, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %w", ErrInvalidParam, gctcommon.GetTypeAssertError("string", raw, key))
	}
	return s, nil
}

// RequiredString returns a non-empty string parameter
func (p Params) RequiredString(key string) (string, error) {
	s, err := p.String(key, "")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidParam, key)
	}
	return s, nil
}

// Float returns a numeric parameter, or def when absent
func (p Params) Float(key string, def float64) (float64, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return def, nil
	}
	f, err := convert.FloatFromInterface(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %v", ErrInvalidParam, key, err)
	}
	return f, nil
}

// Int returns a whole number parameter, or def when absent
func (p Params) Int(key string, def int) (int, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return def, nil
	}
	n, err := convert.IntFromInterface(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %v", ErrInvalidParam, key, err)
	}
	return n, nil
}

// Bool returns a boolean parameter, or def when absent
func (p Params) Bool(key string, def bool) (bool, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return def, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %w", ErrInvalidParam, gctcommon.GetTypeAssertError("bool", raw, key))
	}
	return b, nil
}

// Strings returns a list parameter. A single string is a list of one
func (p Params) Strings(key string) ([]string, error) {
	switch v := p[key].(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		resp := make([]string, len(v))
		for i := range v {
			s, ok := v[i].(string)
			if !ok {
				return nil, fmt.Errorf("%w: %w", ErrInvalidParam, gctcommon.GetTypeAssertError("string", v[i], fmt.Sprintf("%s[%d]", key, i)))
			}
			resp[i] = s
		}
		return resp, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a list, received %T", ErrInvalidParam, key, v)
	}
}

func indicatorAndOffset(p Params) (string, float64, error) {
	name, err := p.RequiredString("indicator")
	if err != nil {
		return "", 0, err
	}
	offset, err := p.Float("offset", 0)
	if err != nil {
		return "", 0, err
	}
	if offset <= -1 {
		return "", 0, fmt.Errorf("%w: offset must be greater than -1", ErrInvalidParam)
	}
	return name, offset, nil
}

func indicatorAndThreshold(p Params) (string, float64, error) {
	name, err := p.RequiredString("indicator")
	if err != nil {
		return "", 0, err
	}
	if _, ok := p["threshold"]; !ok {
		return "", 0, fmt.Errorf("%w: threshold is required", ErrInvalidParam)
	}
	threshold, err := p.Float("threshold", 0)
	return name, threshold, err
}

func positivePercent(p Params) (float64, error) {
	pct, err := p.Float("percent", 0)
	if err != nil {
		return 0, err
	}
	if pct <= 0 {
		return 0, fmt.Errorf("%w: percent must be greater than zero", ErrInvalidParam)
	}
	return pct, nil
}

func newPriceTouchBelow(p Params) (Condition, error) {
	name, offset, err := indicatorAndOffset(p)
	if err != nil {
		return nil, err
	}
	return &PriceTouchBelow{Indicator: name, Offset: offset}, nil
}

func newPriceTouchAbove(p Params) (Condition, error) {
	name, offset, err := indicatorAndOffset(p)
	if err != nil {
		return nil, err
	}
	return &PriceTouchAbove{Indicator: name, Offset: offset}, nil
}

func newLimitAt(p Params) (Condition, error) {
	name, offset, err := indicatorAndOffset(p)
	if err != nil {
		return nil, err
	}
	return &LimitAt{Indicator: name, Offset: offset}, nil
}

func newInRange(p Params) (Condition, error) {
	name, err := p.RequiredString("indicator")
	if err != nil {
		return nil, err
	}
	return &InRange{Indicator: name}, nil
}

func newIndicatorBelow(p Params) (Condition, error) {
	name, threshold, err := indicatorAndThreshold(p)
	if err != nil {
		return nil, err
	}
	return &IndicatorBelow{Indicator: name, Threshold: threshold}, nil
}

func newIndicatorAbove(p Params) (Condition, error) {
	name, threshold, err := indicatorAndThreshold(p)
	if err != nil {
		return nil, err
	}
	return &IndicatorAbove{Indicator: name, Threshold: threshold}, nil
}

func newTrendSign(p Params) (Condition, error) {
	positive, err := p.Bool("positive", true)
	if err != nil {
		return nil, err
	}
	return &TrendSign{Positive: positive}, nil
}

func newPhaseIn(p Params) (Condition, error) {
	names, err := p.Strings("phases")
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: phases is required", ErrInvalidParam)
	}
	phases := make([]indicators.Phase, len(names))
	for i := range names {
		phases[i], err = indicators.ParsePhase(names[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParam, err)
		}
	}
	return &PhaseIn{Phases: phases}, nil
}

func projectionParams(p Params) (int, float64, error) {
	periods, err := p.Int("periods", 0)
	if err != nil {
		return 0, 0, err
	}
	if periods <= 0 {
		return 0, 0, fmt.Errorf("%w: periods must be greater than zero", ErrInvalidParam)
	}
	margin, err := p.Float("margin", 0)
	return periods, margin, err
}

func newProjectionAbove(p Params) (Condition, error) {
	periods, margin, err := projectionParams(p)
	if err != nil {
		return nil, err
	}
	return &ProjectionAbove{Periods: periods, Margin: margin}, nil
}

func newProjectionBelow(p Params) (Condition, error) {
	periods, margin, err := projectionParams(p)
	if err != nil {
		return nil, err
	}
	return &ProjectionBelow{Periods: periods, Margin: margin}, nil
}

func newStopLoss(p Params) (Condition, error) {
	pct, err := positivePercent(p)
	if err != nil {
		return nil, err
	}
	if pct >= 1 {
		return nil, fmt.Errorf("%w: stop loss percent must be below 1", ErrInvalidParam)
	}
	return &StopLoss{Percent: pct}, nil
}

func newTakeProfit(p Params) (Condition, error) {
	pct, err := positivePercent(p)
	if err != nil {
		return nil, err
	}
	return &TakeProfit{Percent: pct}, nil
}

func newHoldingBars(p Params) (Condition, error) {
	bars, err := p.Int("bars", 0)
	if err != nil {
		return nil, err
	}
	if bars <= 0 {
		return nil, fmt.Errorf("%w: bars must be greater than zero", ErrInvalidParam)
	}
	return &HoldingBarsAtLeast{Bars: bars}, nil
}

func newFlagSet(p Params) (Condition, error) {
	key, err := p.RequiredString("key")
	if err != nil {
		return nil, err
	}
	return &FlagSet{Key: key}, nil
}

func newScriptLeaf(p Params) (Condition, error) {
	expr, err := p.RequiredString("expr")
	if err != nil {
		return nil, err
	}
	priceExpr, err := p.String("price-expr", "")
	if err != nil {
		return nil, err
	}
	return NewScript(expr, priceExpr)
}
