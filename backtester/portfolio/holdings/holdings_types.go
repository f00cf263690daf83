package holdings

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidQuantity is returned when a fill carries a non-positive quantity
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrInvalidPrice is returned when a fill carries a non-positive price
	ErrInvalidPrice = errors.New("price must be greater than zero")
	// ErrPartialClose is returned when a sell does not close the whole position
	ErrPartialClose = errors.New("sell quantity must close the whole position")
	// ErrEmptyPosition is returned when closing a position with nothing held
	ErrEmptyPosition = errors.New("position holds no quantity")
)

// Fill is a matched order as seen by a position
type Fill struct {
	Price        decimal.Decimal
	Quantity     decimal.Decimal
	Fee          decimal.Decimal
	Time         time.Time
	Offset       int
	SignalOffset int
	Reason       string
}

// Position is an open long holding for one symbol and strategy
type Position struct {
	Symbol   string          `json:"symbol"`
	Strategy string          `json:"strategy"`
	Quantity decimal.Decimal `json:"quantity"`
	// EntryValue is the sum of price × quantity over every entry fill
	EntryValue decimal.Decimal `json:"entry-value"`
	EntryFees  decimal.Decimal `json:"entry-fees"`
	// CostBasis is the capital debited for the position, fees included
	CostBasis    decimal.Decimal `json:"cost-basis"`
	EntryTime    time.Time       `json:"entry-time"`
	EntryOffset  int             `json:"entry-offset"`
	SignalOffset int             `json:"signal-offset"`
	EntryReason  string          `json:"entry-reason"`
	Fills        int             `json:"fills"`
	Metadata     map[string]bool `json:"metadata,omitempty"`
}

// CompletedTrade is a position closed by a matched sell
type CompletedTrade struct {
	Symbol          string          `json:"symbol"`
	Strategy        string          `json:"strategy"`
	Quantity        decimal.Decimal `json:"quantity"`
	EntryPrice      decimal.Decimal `json:"entry-price"`
	EntryTime       time.Time       `json:"entry-time"`
	EntryOffset     int             `json:"entry-offset"`
	EntryReason     string          `json:"entry-reason"`
	ExitPrice       decimal.Decimal `json:"exit-price"`
	ExitTime        time.Time       `json:"exit-time"`
	ExitOffset      int             `json:"exit-offset"`
	ExitReason      string          `json:"exit-reason"`
	CostBasis       decimal.Decimal `json:"cost-basis"`
	Proceeds        decimal.Decimal `json:"proceeds"`
	Fees            decimal.Decimal `json:"fees"`
	Profit          decimal.Decimal `json:"profit"`
	ReturnPercent   decimal.Decimal `json:"return-percent"`
	HoldingBars     int             `json:"holding-bars"`
	HoldingDuration time.Duration   `json:"holding-duration"`
}
