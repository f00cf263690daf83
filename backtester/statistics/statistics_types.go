package statistics

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/backtester/common"
	"github.com/thrasher-corp/gfobtester/backtester/funding"
	"github.com/thrasher-corp/gfobtester/backtester/portfolio/holdings"
)

// OrderEvent is what happened to an order in the order log
type OrderEvent string

// Order log events
const (
	OrderPlaced   OrderEvent = "PLACED"
	OrderFilled   OrderEvent = "FILLED"
	OrderExpired  OrderEvent = "EXPIRED"
	OrderRejected OrderEvent = "REJECTED"
)

var (
	errNoEquityCurve      = errors.New("no equity curve to calculate from")
	errInvalidInitial     = errors.New("initial capital must be greater than zero")
	errMismatchedEquities = errors.New("equity curve is not in time order")
)

// Result holds everything produced by a backtest run
type Result struct {
	RunID          string                     `json:"run-id"`
	Strategies     []string                   `json:"strategies"`
	Symbols        []string                   `json:"symbols"`
	FundingMode    funding.Mode               `json:"funding-mode"`
	InitialCapital decimal.Decimal            `json:"initial-capital"`
	StartDate      time.Time                  `json:"start-date"`
	EndDate        time.Time                  `json:"end-date"`
	Completed      bool                       `json:"completed"`
	Trades         []*holdings.CompletedTrade `json:"trades"`
	EquityCurve    []EquityPoint              `json:"equity-curve"`
	Ledgers        []funding.Snapshot         `json:"ledgers"`
	Summary        Summary                    `json:"summary"`
	Extensions     map[string]int64           `json:"extensions,omitempty"`
	BarLog         []BarRecord                `json:"bar-log,omitempty"`
	OrderLog       []OrderRecord              `json:"order-log"`
}

// EquityPoint is the equity of the run at the close of one tick. Total
// equity is the book value of the ledgers and marked equity values open
// positions at the close
type EquityPoint struct {
	Time         time.Time       `json:"time"`
	TotalEquity  decimal.Decimal `json:"total-equity"`
	MarkedEquity decimal.Decimal `json:"marked-equity"`
}

// ValueAtTime is an equity value and when it was seen
type ValueAtTime struct {
	Time  time.Time       `json:"time"`
	Value decimal.Decimal `json:"value"`
}

// Swing holds a drawdown
type Swing struct {
	Highest          ValueAtTime     `json:"highest"`
	Lowest           ValueAtTime     `json:"lowest"`
	DrawdownPercent  decimal.Decimal `json:"drawdown-percent"`
	IntervalDuration int64           `json:"interval-duration"`
}

// Summary holds the aggregate statistics of a run. FinalEquity, ReturnRate
// and AnnualisedReturn are measured on book equity, so open positions count at
// cost. Drawdown and the Sharpe and Sortino ratios follow the marked equity
// curve
type Summary struct {
	TotalTrades        int             `json:"total-trades"`
	WinningTrades      int             `json:"winning-trades"`
	LosingTrades       int             `json:"losing-trades"`
	WinRate            decimal.Decimal `json:"win-rate"`
	GrossProfit        decimal.Decimal `json:"gross-profit"`
	GrossLoss          decimal.Decimal `json:"gross-loss"`
	NetProfit          decimal.Decimal `json:"net-profit"`
	TotalFees          decimal.Decimal `json:"total-fees"`
	ProfitFactor       decimal.Decimal `json:"profit-factor"`
	FinalEquity        decimal.Decimal `json:"final-equity"`
	ReturnRate         decimal.Decimal `json:"return-rate"`
	AnnualisedReturn   float64         `json:"annualised-return"`
	MaxDrawdown        Swing           `json:"max-drawdown"`
	SharpeRatio        float64         `json:"sharpe-ratio"`
	SortinoRatio       float64         `json:"sortino-ratio"`
	CalmarRatio        float64         `json:"calmar-ratio"`
	AverageHoldingBars float64         `json:"average-holding-bars"`
	OrdersPlaced       int             `json:"orders-placed"`
	OrdersFilled       int             `json:"orders-filled"`
	OrdersExpired      int             `json:"orders-expired"`
	OrdersRejected     int             `json:"orders-rejected"`
}

// BarRecord is the bar level audit record for one symbol at one tick
type BarRecord struct {
	Symbol string             `json:"symbol"`
	Offset int                `json:"offset"`
	Time   time.Time          `json:"time"`
	Close  decimal.Decimal    `json:"close"`
	Phase  string             `json:"phase"`
	Values map[string]float64 `json:"values,omitempty"`
}

// OrderRecord is the order level audit record of one order event
type OrderRecord struct {
	OrderID    string          `json:"order-id"`
	Event      OrderEvent      `json:"event"`
	Time       time.Time       `json:"time"`
	Offset     int             `json:"offset"`
	Symbol     string          `json:"symbol"`
	Strategy   string          `json:"strategy"`
	Side       common.Side     `json:"side"`
	LimitPrice decimal.Decimal `json:"limit-price"`
	Quantity   decimal.Decimal `json:"quantity"`
	Notional   decimal.Decimal `json:"notional"`
	Fee        decimal.Decimal `json:"fee"`
	Reason     string          `json:"reason,omitempty"`
}
