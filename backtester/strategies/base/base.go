package base

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/backtester/conditions"
	"github.com/thrasher-corp/gfobtester/common"
)

var one = decimal.NewFromInt(1)

// SingleLevel is the default sizing level: one buy at the entry price
func SingleLevel() []Level {
	return []Level{{Offset: decimal.Zero, Weight: one}}
}

// NewDefinition validates and freezes a definition. Exits are sorted by
// priority and a holding bars exit is appended when MaxHoldingBars is set
func NewDefinition(d Definition) (*Definition, error) {
	if len(d.Sizing.Levels) == 0 {
		d.Sizing.Levels = SingleLevel()
	}
	exits := make([]ExitRule, len(d.Exits), len(d.Exits)+1)
	copy(exits, d.Exits)
	if d.Sizing.MaxHoldingBars > 0 {
		exits = append(exits, ExitRule{
			Name:      MaxHoldingExitName,
			Priority:  math.MaxInt,
			Condition: &conditions.HoldingBarsAtLeast{Bars: d.Sizing.MaxHoldingBars},
		})
	}
	sort.SliceStable(exits, func(i, j int) bool {
		return exits[i].Priority < exits[j].Priority
	})
	d.Exits = exits
	d.Filters = append([]Filter(nil), d.Filters...)
	d.Sizing.Levels = append([]Level(nil), d.Sizing.Levels...)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks the definition can be run
func (d *Definition) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: %w", ErrInvalidDefinition, common.ErrNilPointer)
	}
	var errs error
	if d.Name == "" {
		errs = common.AppendError(errs, errEmptyName)
	}
	if d.Entry == nil {
		errs = common.AppendError(errs, errNilEntry)
	}
	for i := range d.Filters {
		if d.Filters[i].Condition == nil {
			errs = common.AppendError(errs, fmt.Errorf("%w: %q", errNilFilterCondition, d.Filters[i].Name))
		}
	}
	priorities := make(map[int]string, len(d.Exits))
	names := make(map[string]struct{}, len(d.Exits))
	for i := range d.Exits {
		if d.Exits[i].Condition == nil {
			errs = common.AppendError(errs, fmt.Errorf("%w: %q", errNilExitCondition, d.Exits[i].Name))
		}
		if other, ok := priorities[d.Exits[i].Priority]; ok {
			errs = common.AppendError(errs, fmt.Errorf("%w %d: %q and %q", errDuplicatePriority, d.Exits[i].Priority, other, d.Exits[i].Name))
		}
		priorities[d.Exits[i].Priority] = d.Exits[i].Name
		if _, ok := names[d.Exits[i].Name]; ok {
			errs = common.AppendError(errs, fmt.Errorf("%w: %q", errDuplicateExitName, d.Exits[i].Name))
		}
		names[d.Exits[i].Name] = struct{}{}
	}
	if !d.Sizing.PositionFraction.IsPositive() || d.Sizing.PositionFraction.GreaterThan(one) {
		errs = common.AppendError(errs, fmt.Errorf("%w, received %v", errInvalidFraction, d.Sizing.PositionFraction))
	}
	if d.Sizing.MaxHoldingBars < 0 {
		errs = common.AppendError(errs, errNegativeHolding)
	}
	sum := decimal.Zero
	for i := range d.Sizing.Levels {
		if !d.Sizing.Levels[i].Weight.IsPositive() || d.Sizing.Levels[i].Offset.LessThanOrEqual(one.Neg()) {
			errs = common.AppendError(errs, fmt.Errorf("%w, level %d", errInvalidLevel, i))
		}
		sum = sum.Add(d.Sizing.Levels[i].Weight)
	}
	if len(d.Sizing.Levels) > 0 && !sum.Equal(one) {
		errs = common.AppendError(errs, fmt.Errorf("%w, received %v", errLevelWeights, sum))
	}
	if errs != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidDefinition, d.Name, errs)
	}
	return nil
}

// MaxPendingBuys is the number of buys one entry may leave resting
func (d *Definition) MaxPendingBuys() int {
	if len(d.Sizing.Levels) == 0 {
		return 1
	}
	return len(d.Sizing.Levels)
}

// EvaluateEntry runs the entry filters in order and then the entry
// condition. When a filter does not trigger its name is returned and the
// entry condition is not evaluated
func (d *Definition) EvaluateEntry(ctx *conditions.Context) (result conditions.Result, skippedFilter string) {
	for i := range d.Filters {
		if !d.Filters[i].Condition.Evaluate(ctx).Triggered {
			return conditions.NotTriggered(), d.Filters[i].Name
		}
	}
	return d.Entry.Evaluate(ctx), ""
}

// EvaluateExit returns the first exit rule in priority order that triggers
// for the position held in ctx
func (d *Definition) EvaluateExit(ctx *conditions.Context) (ExitRule, conditions.Result, bool) {
	for i := range d.Exits {
		if d.Exits[i].Once && ctx.Position != nil && ctx.Position.Flagged(OnceFlag(d.Exits[i].Name)) {
			continue
		}
		if r := d.Exits[i].Condition.Evaluate(ctx); r.Triggered {
			return d.Exits[i], r, true
		}
	}
	return ExitRule{}, conditions.NotTriggered(), false
}

// OnceFlag is the position metadata key recording that a Once exit fired
func OnceFlag(exitName string) string {
	return "exit:" + exitName
}
