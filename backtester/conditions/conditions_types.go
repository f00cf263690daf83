package conditions

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/backtester/data"
	"github.com/thrasher-corp/gfobtester/backtester/indicators"
	"github.com/thrasher-corp/gfobtester/backtester/portfolio/holdings"
)

// Context value names resolved from the bar and the position rather than
// the indicator snapshot
const (
	Open        = "open"
	High        = "high"
	Low         = "low"
	Close       = "close"
	Volume      = "volume"
	EntryPrice  = "entry-price"
	HoldingBars = "holding-bars"
)

// Built-in leaf names
const (
	PriceTouchBelowName = "price-touch-below"
	PriceTouchAboveName = "price-touch-above"
	InRangeName         = "in-range"
	IndicatorBelowName  = "indicator-below"
	IndicatorAboveName  = "indicator-above"
	TrendSignName       = "trend-sign"
	PhaseInName         = "phase-in"
	ProjectionAboveName = "projection-above"
	ProjectionBelowName = "projection-below"
	LimitAtName         = "limit-at"
	StopLossName        = "stop-loss"
	TakeProfitName      = "take-profit"
	HoldingBarsName     = "holding-bars"
	FlagSetName         = "flag-set"
	ScriptName          = "script"
)

var (
	// ErrLeafNotFound is returned when no factory is registered for a leaf name
	ErrLeafNotFound = errors.New("condition leaf not found")
	// ErrLeafAlreadyRegistered is returned when registering a duplicate leaf name
	ErrLeafAlreadyRegistered = errors.New("condition leaf already registered")
	// ErrInvalidParam is returned when a leaf parameter is missing or malformed
	ErrInvalidParam = errors.New("invalid condition parameter")

	errNilFactory      = errors.New("nil leaf factory")
	errInvalidNode     = errors.New("a node must set exactly one of and, or, not, leaf")
	errEmptyCombinator = errors.New("combinator requires at least one child")
)

// Condition is an atomic or composite predicate over a Context. Evaluation
// must not mutate the context
type Condition interface {
	Evaluate(*Context) Result
	String() string
}

// Context is everything a condition may look at for one symbol at the close
// of one bar. Position is only set when evaluating exits
type Context struct {
	Symbol   string
	Strategy string
	Offset   int
	Time     time.Time
	Bar      data.Bar
	Snapshot *indicators.Snapshot
	Position *holdings.Position
}

// Result is the outcome of evaluating a condition. Price is only meaningful
// when HasPrice is set
type Result struct {
	Triggered bool
	Price     decimal.Decimal
	HasPrice  bool
	Reason    string
}

// Params are the loosely typed parameters a leaf factory is built from
type Params map[string]any

// Factory builds a leaf from params
type Factory func(Params) (Condition, error)

// LeafRegistry maps leaf names to factories
type LeafRegistry struct {
	factories map[string]Factory
}

// Node is the declarative form of a condition tree. Exactly one of And, Or,
// Not and Leaf is set
type Node struct {
	And    []*Node `yaml:"and,omitempty" json:"and,omitempty"`
	Or     []*Node `yaml:"or,omitempty" json:"or,omitempty"`
	Not    *Node   `yaml:"not,omitempty" json:"not,omitempty"`
	Leaf   string  `yaml:"leaf,omitempty" json:"leaf,omitempty"`
	Params Params  `yaml:"params,omitempty" json:"params,omitempty"`
}
