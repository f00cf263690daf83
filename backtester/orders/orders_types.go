package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gfobtester/backtester/common"
)

// SlotState is where a (symbol, strategy) slot is in its order lifecycle
type SlotState uint8

// Slot states
const (
	Flat SlotState = iota
	PendingBuy
	Long
	PendingSell
)

// Status is the outcome of a pending order at its valid bar
type Status string

// Order statuses
const (
	Filled  Status = "FILLED"
	Expired Status = "EXPIRED"
)

var (
	// ErrOrderOutsideValidBar is returned when an order survives past the one
	// bar it was valid for
	ErrOrderOutsideValidBar = errors.New("pending order found outside its valid bar")

	errUnknownSlot        = errors.New("slot is not registered")
	errInvalidSlotState   = errors.New("order side not allowed in slot state")
	errSellAlreadyPending = errors.New("a sell is already pending for slot")
	errTooManyBuys        = errors.New("slot already holds its maximum pending buys")
	errInvalidValidity    = errors.New("order must be valid exactly one bar after placement")
	errInvalidOrder       = errors.New("order requires a positive limit price and quantity")
	errDuplicateOrderID   = errors.New("duplicate order id")
	errInvalidMaxBuys     = errors.New("max pending buys must be at least one")
)

// SlotKey identifies one strategy trading one symbol
type SlotKey struct {
	Symbol   string
	Strategy string
}

// PendingOrder is a good for one bar limit order. It is placed at the close
// of PlacedOffset and may only match on ValidOffset
type PendingOrder struct {
	ID           string          `json:"id"`
	Symbol       string          `json:"symbol"`
	Strategy     string          `json:"strategy"`
	Side         common.Side     `json:"side"`
	Level        int             `json:"level"`
	LimitPrice   decimal.Decimal `json:"limit-price"`
	Quantity     decimal.Decimal `json:"quantity"`
	Notional     decimal.Decimal `json:"notional"`
	SignalOffset int             `json:"signal-offset"`
	PlacedOffset int             `json:"placed-offset"`
	ValidOffset  int             `json:"valid-offset"`
	PlacedTime   time.Time       `json:"placed-time"`
	Reason       string          `json:"reason"`
	Ledger       string          `json:"ledger"`
}

// Outcome is what happened to an order on its valid bar
type Outcome struct {
	Order  *PendingOrder
	Status Status
	Price  decimal.Decimal
	Time   time.Time
	Offset int
	Reason string
}

type slot struct {
	state     SlotState
	maxBuys   int
	buys      int
	filledBuy bool
}

// Matcher owns every pending order and the state of every slot
type Matcher struct {
	slots   map[SlotKey]*slot
	pending []*PendingOrder
	ids     map[string]struct{}
}
