package funding

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NewLedger returns a ledger holding initial as available capital
func NewLedger(name string, initial decimal.Decimal) (*Ledger, error) {
	if !initial.IsPositive() {
		return nil, fmt.Errorf("%s initial capital %v: %w", name, initial, errNonPositiveAmount)
	}
	return &Ledger{
		name:        name,
		initial:     initial,
		available:   initial,
		totalEquity: initial,
	}, nil
}

// Name returns the ledger name
func (l *Ledger) Name() string {
	return l.name
}

// Initial returns the starting capital
func (l *Ledger) Initial() decimal.Decimal {
	return l.initial
}

// Available returns the capital free to be frozen
func (l *Ledger) Available() decimal.Decimal {
	return l.available
}

// Frozen returns the capital committed to resting buys
func (l *Ledger) Frozen() decimal.Decimal {
	return l.frozen
}

// HoldingCost returns the cost basis of open positions
func (l *Ledger) HoldingCost() decimal.Decimal {
	return l.holdingCost
}

// TotalEquity returns the book value of the ledger
func (l *Ledger) TotalEquity() decimal.Decimal {
	return l.totalEquity
}

// Freeze moves amount from available to frozen when a buy is placed
func (l *Ledger) Freeze(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%s freeze %v: %w", l.name, amount, errNonPositiveAmount)
	}
	if amount.GreaterThan(l.available) {
		return fmt.Errorf("%s freeze %v available %v: %w", l.name, amount, l.available, ErrInsufficientFunds)
	}
	l.available = l.available.Sub(amount)
	l.frozen = l.frozen.Add(amount)
	return nil
}

// Settle reconciles a filled buy. frozenAmount is released from frozen and
// actual is moved into holding cost, with any difference returned to or
// taken from available
func (l *Ledger) Settle(frozenAmount, actual decimal.Decimal) error {
	if frozenAmount.IsNegative() || !actual.IsPositive() {
		return fmt.Errorf("%s settle frozen %v actual %v: %w", l.name, frozenAmount, actual, errNonPositiveAmount)
	}
	if frozenAmount.GreaterThan(l.frozen) {
		return fmt.Errorf("%s settle %v frozen %v: %w", l.name, frozenAmount, l.frozen, errFrozenUnderflow)
	}
	diff := frozenAmount.Sub(actual)
	if diff.IsNegative() && diff.Neg().GreaterThan(l.available) {
		return fmt.Errorf("%s settle shortfall %v available %v: %w", l.name, diff.Neg(), l.available, ErrInsufficientFunds)
	}
	l.frozen = l.frozen.Sub(frozenAmount)
	l.available = l.available.Add(diff)
	l.holdingCost = l.holdingCost.Add(actual)
	return nil
}

// Unfreeze returns frozen capital to available when a buy expires
func (l *Ledger) Unfreeze(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%s unfreeze %v: %w", l.name, amount, errNegativeAmount)
	}
	if amount.GreaterThan(l.frozen) {
		return fmt.Errorf("%s unfreeze %v frozen %v: %w", l.name, amount, l.frozen, errFrozenUnderflow)
	}
	l.frozen = l.frozen.Sub(amount)
	l.available = l.available.Add(amount)
	return nil
}

// Realise closes out costBasis of holding cost against the net proceeds of a
// sell, booking the difference as profit or loss
func (l *Ledger) Realise(costBasis, proceeds decimal.Decimal) error {
	if costBasis.IsNegative() || proceeds.IsNegative() {
		return fmt.Errorf("%s realise cost %v proceeds %v: %w", l.name, costBasis, proceeds, errNegativeAmount)
	}
	if costBasis.GreaterThan(l.holdingCost) {
		return fmt.Errorf("%s realise %v holding %v: %w", l.name, costBasis, l.holdingCost, errHoldingUnderflow)
	}
	l.holdingCost = l.holdingCost.Sub(costBasis)
	l.available = l.available.Add(proceeds)
	l.totalEquity = l.totalEquity.Add(proceeds.Sub(costBasis))
	return nil
}

// Verify checks the ledger invariant with exact equality. The error carries
// the full ledger state
func (l *Ledger) Verify() error {
	sum := l.available.Add(l.frozen).Add(l.holdingCost)
	if !sum.Equal(l.totalEquity) ||
		l.available.IsNegative() ||
		l.frozen.IsNegative() ||
		l.holdingCost.IsNegative() {
		return fmt.Errorf("%w: %s sum %v", ErrLedgerImbalance, l, sum)
	}
	return nil
}

// Snapshot returns a copy of the ledger state
func (l *Ledger) Snapshot() Snapshot {
	return Snapshot{
		Name:        l.name,
		Available:   l.available,
		Frozen:      l.frozen,
		HoldingCost: l.holdingCost,
		TotalEquity: l.totalEquity,
	}
}

func (l *Ledger) String() string {
	return fmt.Sprintf("ledger %s available %v frozen %v holding cost %v total equity %v",
		l.name,
		l.available,
		l.frozen,
		l.holdingCost,
		l.totalEquity)
}
