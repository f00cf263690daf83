package strategies

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/backtester/conditions"
	"github.com/thrasher-corp/gfobtester/backtester/strategies/base"
)

var (
	errStrategyAlreadyAdded = errors.New("strategy already added")
	errMissingEntry         = errors.New("definition file has no entry condition")
)

// Registry maps strategy names to builders. It is constructed once and
// passed to whatever loads strategies for a run
type Registry struct {
	leaves   *conditions.LeafRegistry
	builders map[string]base.Builder
}

// fileDefinition is the YAML form of a strategy definition
type fileDefinition struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Entry       *conditions.Node `yaml:"entry"`
	Filters     []fileFilter     `yaml:"filters"`
	Exits       []fileExit       `yaml:"exits"`
	Sizing      fileSizing       `yaml:"sizing"`
}

type fileFilter struct {
	Name      string           `yaml:"name"`
	Condition *conditions.Node `yaml:"condition"`
}

type fileExit struct {
	Name      string           `yaml:"name"`
	Priority  int              `yaml:"priority"`
	Once      bool             `yaml:"once"`
	Condition *conditions.Node `yaml:"condition"`
}

type fileSizing struct {
	PositionFraction decimal.Decimal `yaml:"position-fraction"`
	MaxHoldingBars   int             `yaml:"max-holding-bars"`
	Levels           []fileLevel     `yaml:"levels"`
}

type fileLevel struct {
	Offset decimal.Decimal `yaml:"offset"`
	Weight decimal.Decimal `yaml:"weight"`
}
