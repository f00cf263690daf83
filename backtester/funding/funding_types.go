package funding

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Mode is how capital is scoped across instruments
type Mode string

const (
	// PerInstrument gives every symbol its own ledger and starting capital
	PerInstrument Mode = "per-instrument"
	// Shared funds every symbol from one ledger under a global position cap
	Shared Mode = "shared"
)

var (
	// ErrLedgerImbalance is returned when available + frozen + holding cost
	// no longer equals total equity
	ErrLedgerImbalance = errors.New("capital ledger imbalance")
	// ErrInsufficientFunds is returned when an amount exceeds what is available
	ErrInsufficientFunds = errors.New("insufficient available funds")
	// ErrNoCapacity is returned when the position cap has been reached
	ErrNoCapacity = errors.New("maximum open positions reached")

	errNonPositiveAmount   = errors.New("amount must be greater than zero")
	errNegativeAmount      = errors.New("amount cannot be negative")
	errFrozenUnderflow     = errors.New("amount exceeds frozen funds")
	errHoldingUnderflow    = errors.New("cost basis exceeds holding cost")
	errInvalidMode         = errors.New("invalid funding mode")
	errInvalidMaxPositions = errors.New("shared funding requires max positions greater than zero")
	errNoSymbols           = errors.New("no symbols to fund")
	errUnknownSymbol       = errors.New("symbol has no ledger")
	errSlotTracked         = errors.New("slot is already reserved or open")
	errSlotNotReserved     = errors.New("slot is not reserved")
	errSlotNotOpen         = errors.New("slot is not open")
)

// Ledger tracks one pool of capital. Cash moves between available and
// frozen at order placement, into holding cost on a buy fill and back to
// available on a sell fill. TotalEquity only changes when profit or loss is
// realised
type Ledger struct {
	name        string
	initial     decimal.Decimal
	available   decimal.Decimal
	frozen      decimal.Decimal
	holdingCost decimal.Decimal
	totalEquity decimal.Decimal
}

// Snapshot is a point in time copy of a ledger's state
type Snapshot struct {
	Name        string          `json:"name"`
	Available   decimal.Decimal `json:"available"`
	Frozen      decimal.Decimal `json:"frozen"`
	HoldingCost decimal.Decimal `json:"holding-cost"`
	TotalEquity decimal.Decimal `json:"total-equity"`
}

// PositionTracker counts reserved and open slots against a cap. A cap of
// zero or less is unlimited
type PositionTracker struct {
	max      int
	reserved map[string]struct{}
	open     map[string]struct{}
}

// Pool owns the ledgers for a run and the position tracker gating new
// entries
type Pool struct {
	mode    Mode
	symbols []string
	ledgers map[string]*Ledger
	tracker *PositionTracker
}
