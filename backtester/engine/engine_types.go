package engine

import (
	"errors"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/backtester/data"
	"github.com/thrasher-corp/gfobtester/backtester/funding"
	"github.com/thrasher-corp/gfobtester/backtester/indicators"
	"github.com/thrasher-corp/gfobtester/backtester/orders"
	"github.com/thrasher-corp/gfobtester/backtester/portfolio/holdings"
	"github.com/thrasher-corp/gfobtester/backtester/statistics"
	"github.com/thrasher-corp/gfobtester/backtester/strategies/base"
)

const (
	// EndOfDataReason is recorded against orders still resting when the data
	// runs out
	EndOfDataReason = "end of data"
	// CapacityRejection is recorded when the position cap blocks an entry
	CapacityRejection = "max positions reached"
	// FundsRejection is recorded when sizing leaves nothing to commit
	FundsRejection = "insufficient funds"
	// PrecisionRejection is recorded when an order rounds down to nothing
	PrecisionRejection = "quantity below precision"
)

var (
	// ErrPositionWithoutDebit is returned when held or frozen capital no
	// longer matches the positions and orders it pays for
	ErrPositionWithoutDebit = errors.New("position without matching ledger debit")
	// ErrUntrackedPosition is returned when the open positions and the
	// position tracker disagree
	ErrUntrackedPosition = errors.New("position not matched by position tracker")
	// ErrInsufficientWarmup is returned when a series is too short for the
	// indicator warm-up
	ErrInsufficientWarmup = errors.New("not enough bars to complete indicator warm-up")

	errNoDefinitions       = errors.New("at least one strategy definition is required")
	errDuplicateDefinition = errors.New("duplicate strategy definition")
	errNoSeries            = errors.New("at least one data series is required")
	errDuplicateSymbol     = errors.New("duplicate symbol")
	errInvalidCapital      = errors.New("initial capital must be greater than zero")
	errInvalidFeeRate      = errors.New("fee rate must be within [0, 1)")
	errInvalidPrecision    = errors.New("precision must be non-negative")
)

// Settings configures a run
type Settings struct {
	RunName        string
	InitialCapital decimal.Decimal
	FundingMode    funding.Mode
	// MaxPositions caps open and pending positions across every symbol. It is
	// required in shared mode and zero leaves per instrument runs uncapped
	MaxPositions int
	// FeeRate is charged on the value of every fill
	FeeRate           decimal.Decimal
	PricePrecision    int32
	QuantityPrecision int32
	Indicators        indicators.Settings
	// RiskFreeRate is per bar, used for Sharpe and Sortino
	RiskFreeRate float64
	KeepBarLog   bool
}

// Observer is told about everything the engine records. Calls happen on the
// engine's goroutine in the order events occur
type Observer interface {
	OnBar(symbol string, offset int)
	OnOrder(*statistics.OrderRecord)
	OnTrade(*holdings.CompletedTrade)
	OnEquity(statistics.EquityPoint)
}

// Option customises an Engine
type Option func(*Engine)

// Engine drives strategy definitions over bar series. An Engine may be run
// any number of times, every run starts from scratch
type Engine struct {
	settings    Settings
	definitions []*base.Definition
	observers   []Observer
}

// slot is the engine side view of one strategy trading one symbol
type slot struct {
	key        orders.SlotKey
	definition *base.Definition
	position   *holdings.Position
	reserved   bool
}

// run holds the state of a single Run call
type run struct {
	*Engine
	id        uuid.UUID
	series    []*data.Series
	pool      *funding.Pool
	matcher   *orders.Matcher
	pipelines map[string]*indicators.Pipeline
	slots     map[string][]*slot
	frozen    map[string]decimal.Decimal
	latest    map[string]decimal.Decimal
	warmup    int
	result    *statistics.Result
}
