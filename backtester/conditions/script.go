package conditions

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/backtester/indicators"
)

const (
	scriptTriggerVar = "__t__"
	scriptPriceVar   = "__p__"
	scriptPhaseVar   = "phase"
	scriptMaxAllocs  = 5000
)

// scriptInputs are the context values exposed to scripts. Names use
// underscores in place of dashes
var scriptInputs = []string{
	Open, High, Low, Close, Volume, EntryPrice, HoldingBars,
	indicators.EMA,
	indicators.Trend,
	indicators.TrendSlope,
	indicators.TrendSlopeRelative,
	indicators.Deviation,
	indicators.DeviationMean,
	indicators.DeviationStdDev,
	indicators.ZScore,
	indicators.Percentile,
	indicators.RSI,
	indicators.ATR,
}

// Script is a leaf whose predicate, and optionally price, are tengo
// expressions over the context, eg "percentile < 10 && phase != \"strong-bearish\"".
// A script never triggers while a value it references is unavailable, and
// any runtime error means not triggered
type Script struct {
	expr       string
	priceExpr  string
	compiled   *tengo.Compiled
	referenced []string
}

func scriptName(input string) string {
	return strings.ReplaceAll(input, "-", "_")
}

// NewScript compiles a script leaf. priceExpr may be empty
func NewScript(expr, priceExpr string) (*Script, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("%w: script expression is empty", ErrInvalidParam)
	}
	src := fmt.Sprintf("%s := (%s)\n", scriptTriggerVar, expr)
	if priceExpr != "" {
		src += fmt.Sprintf("%s := (%s)\n", scriptPriceVar, priceExpr)
	}
	s := tengo.NewScript([]byte(src))
	s.SetMaxAllocs(scriptMaxAllocs)
	for i := range scriptInputs {
		if err := s.Add(scriptName(scriptInputs[i]), nil); err != nil {
			return nil, err
		}
	}
	if err := s.Add(scriptPhaseVar, indicators.PhaseUnknown.String()); err != nil {
		return nil, err
	}
	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParam, err)
	}
	return &Script{
		expr:       expr,
		priceExpr:  priceExpr,
		compiled:   compiled,
		referenced: referencedInputs(expr + "\n" + priceExpr),
	}, nil
}

// referencedInputs returns the context values named anywhere in src
func referencedInputs(src string) []string {
	var resp []string
	for i := range scriptInputs {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(scriptName(scriptInputs[i])) + `\b`)
		if re.MatchString(src) {
			resp = append(resp, scriptInputs[i])
		}
	}
	return resp
}

// Evaluate implements Condition
func (s *Script) Evaluate(ctx *Context) Result {
	for i := range s.referenced {
		if v, ok := ctx.Value(s.referenced[i]); !ok || math.IsNaN(v) {
			return NotTriggered()
		}
	}
	run := s.compiled.Clone()
	for i := range scriptInputs {
		var value any
		if v, ok := ctx.Value(scriptInputs[i]); ok {
			value = v
		}
		if err := run.Set(scriptName(scriptInputs[i]), value); err != nil {
			return NotTriggered()
		}
	}
	phase := indicators.PhaseUnknown
	if ctx.Snapshot != nil {
		phase = ctx.Snapshot.Phase
	}
	if err := run.Set(scriptPhaseVar, phase.String()); err != nil {
		return NotTriggered()
	}
	if err := run.Run(); err != nil {
		return NotTriggered()
	}
	triggered := run.Get(scriptTriggerVar)
	if triggered.IsUndefined() || !triggered.Bool() {
		return NotTriggered()
	}
	reason := "script " + s.expr
	if s.priceExpr == "" {
		return Triggered(reason)
	}
	price := run.Get(scriptPriceVar)
	switch price.ValueType() {
	case "float", "int":
	default:
		return NotTriggered()
	}
	p := price.Float()
	if p <= 0 {
		return NotTriggered()
	}
	return TriggeredAt(decimal.NewFromFloat(p), reason)
}

func (s *Script) String() string {
	if s.priceExpr == "" {
		return fmt.Sprintf("%s(%q)", ScriptName, s.expr)
	}
	return fmt.Sprintf("%s(%q,%q)", ScriptName, s.expr, s.priceExpr)
}
