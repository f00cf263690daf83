package conditions

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NotTriggered is the zero result
func NotTriggered() Result {
	return Result{}
}

// Triggered returns a triggered result without a price
func Triggered(reason string) Result {
	return Result{Triggered: true, Reason: reason}
}

// TriggeredAt returns a triggered result carrying a limit price
func TriggeredAt(price decimal.Decimal, reason string) Result {
	return Result{Triggered: true, Price: price, HasPrice: true, Reason: reason}
}

// Value resolves a named value from the bar, the position or the snapshot
func (c *Context) Value(name string) (float64, bool) {
	switch name {
	case Open:
		return c.Bar.Open.InexactFloat64(), true
	case High:
		return c.Bar.High.InexactFloat64(), true
	case Low:
		return c.Bar.Low.InexactFloat64(), true
	case Close:
		return c.Bar.Close.InexactFloat64(), true
	case Volume:
		return c.Bar.Volume.InexactFloat64(), true
	case EntryPrice:
		if c.Position == nil {
			return 0, false
		}
		return c.Position.EntryPrice().InexactFloat64(), true
	case HoldingBars:
		if c.Position == nil {
			return 0, false
		}
		return float64(c.Position.HoldingBars(c.Offset)), true
	}
	return c.Snapshot.Get(name)
}

type and struct {
	children []Condition
}

// And triggers when every child triggers. Evaluation stops at the first
// child that does not trigger and the price comes from the first child
// reporting one
func And(children ...Condition) Condition {
	return &and{children: children}
}

func (a *and) Evaluate(ctx *Context) Result {
	if len(a.children) == 0 {
		return NotTriggered()
	}
	resp := Result{Triggered: true}
	reasons := make([]string, 0, len(a.children))
	for i := range a.children {
		r := a.children[i].Evaluate(ctx)
		if !r.Triggered {
			return NotTriggered()
		}
		if !resp.HasPrice && r.HasPrice {
			resp.Price = r.Price
			resp.HasPrice = true
		}
		if r.Reason != "" {
			reasons = append(reasons, r.Reason)
		}
	}
	resp.Reason = strings.Join(reasons, "; ")
	return resp
}

func (a *and) String() string {
	return "and(" + joinConditions(a.children) + ")"
}

type or struct {
	children []Condition
}

// Or triggers with the result of the first triggered child
func Or(children ...Condition) Condition {
	return &or{children: children}
}

func (o *or) Evaluate(ctx *Context) Result {
	for i := range o.children {
		if r := o.children[i].Evaluate(ctx); r.Triggered {
			return r
		}
	}
	return NotTriggered()
}

func (o *or) String() string {
	return "or(" + joinConditions(o.children) + ")"
}

type not struct {
	child Condition
}

// Not inverts a condition. It never carries a price
func Not(child Condition) Condition {
	return &not{child: child}
}

func (n *not) Evaluate(ctx *Context) Result {
	if n.child == nil || n.child.Evaluate(ctx).Triggered {
		return NotTriggered()
	}
	return Triggered(n.String())
}

func (n *not) String() string {
	if n.child == nil {
		return "not()"
	}
	return "not(" + n.child.String() + ")"
}

func joinConditions(c []Condition) string {
	s := make([]string, len(c))
	for i := range c {
		s[i] = c[i].String()
	}
	return strings.Join(s, ", ")
}
