package base

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/backtester/conditions"
)

const (
	// MaxHoldingExitName is the name of the exit rule added for Sizing.MaxHoldingBars
	MaxHoldingExitName = "max-holding-bars"

	// PositionFractionKey is the custom setting for Sizing.PositionFraction
	PositionFractionKey = "position-fraction"
	// MaxHoldingBarsKey is the custom setting for Sizing.MaxHoldingBars
	MaxHoldingBarsKey = "max-holding-bars"
)

var (
	// ErrInvalidCustomSettings used when bad custom settings are found in the config
	ErrInvalidCustomSettings = errors.New("invalid custom settings in config")
	// ErrStrategyNotFound used when a strategy name in the config does not exist
	ErrStrategyNotFound = errors.New("strategy not found. Please ensure the strategy name is spelled properly in your config")
	// ErrInvalidDefinition is returned when a strategy definition cannot be used
	ErrInvalidDefinition = errors.New("invalid strategy definition")

	errNilEntry           = errors.New("entry condition is nil")
	errEmptyName          = errors.New("strategy name is empty")
	errDuplicatePriority  = errors.New("duplicate exit priority")
	errDuplicateExitName  = errors.New("duplicate exit name")
	errNilExitCondition   = errors.New("exit condition is nil")
	errNilFilterCondition = errors.New("filter condition is nil")
	errInvalidFraction    = errors.New("position fraction must be greater than zero and at most one")
	errInvalidLevel       = errors.New("entry level weight must be positive and offset greater than -1")
	errLevelWeights       = errors.New("entry level weights must sum to one")
	errNegativeHolding    = errors.New("max holding bars cannot be negative")
)

// Builder constructs a strategy definition from settings. Builders are
// registered by name in a strategies.Registry
type Builder interface {
	New() Builder
	Name() string
	Description() string
	SetDefaults()
	SetCustomSettings(map[string]any) error
	Build(*conditions.LeafRegistry) (*Definition, error)
}

// Strategy holds the sizing settings every built-in strategy accepts.
// Builders embed it
type Strategy struct {
	positionFraction decimal.Decimal
	maxHoldingBars   int
}

// Definition is an immutable strategy: one entry condition, optional named
// entry filters, priority ordered exit rules and sizing
type Definition struct {
	Name        string
	Description string
	Entry       conditions.Condition
	Filters     []Filter
	Exits       []ExitRule
	Sizing      Sizing
}

// ExitRule is an exit condition with its evaluation priority. Lower
// priorities are evaluated first. A Once rule flags the position when it
// fires and is not considered again for that position
type ExitRule struct {
	Name      string
	Priority  int
	Condition conditions.Condition
	Once      bool
}

// Filter gates entries. An entry is skipped when its filter does not trigger
// and the skip is counted under the filter name
type Filter struct {
	Name      string
	Condition conditions.Condition
}

// Sizing holds how much capital each entry commits. Levels split one entry
// into several resting buys priced relative to the entry price
type Sizing struct {
	PositionFraction decimal.Decimal
	Levels           []Level
	MaxHoldingBars   int
}

// Level is one resting buy of a multi level entry
type Level struct {
	Offset decimal.Decimal
	Weight decimal.Decimal
}
