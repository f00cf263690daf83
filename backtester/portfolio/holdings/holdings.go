package holdings

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// NewPosition returns an empty position for a symbol and strategy
func NewPosition(symbol, strategy string) *Position {
	return &Position{
		Symbol:   symbol,
		Strategy: strategy,
		Metadata: make(map[string]bool),
	}
}

func (f *Fill) validate() error {
	if !f.Quantity.IsPositive() {
		return fmt.Errorf("%w, received %v", ErrInvalidQuantity, f.Quantity)
	}
	if !f.Price.IsPositive() {
		return fmt.Errorf("%w, received %v", ErrInvalidPrice, f.Price)
	}
	return nil
}

// AddFill adds a matched buy to the position. The first fill sets the entry
// time, offset and reason
func (p *Position) AddFill(f *Fill) error {
	if err := f.validate(); err != nil {
		return err
	}
	if p.Fills == 0 {
		p.EntryTime = f.Time
		p.EntryOffset = f.Offset
		p.SignalOffset = f.SignalOffset
		p.EntryReason = f.Reason
	}
	value := f.Price.Mul(f.Quantity)
	p.Quantity = p.Quantity.Add(f.Quantity)
	p.EntryValue = p.EntryValue.Add(value)
	p.EntryFees = p.EntryFees.Add(f.Fee)
	p.CostBasis = p.CostBasis.Add(value).Add(f.Fee)
	p.Fills++
	return nil
}

// EntryPrice returns the volume weighted entry price, excluding fees
func (p *Position) EntryPrice() decimal.Decimal {
	if p.Quantity.IsZero() {
		return decimal.Zero
	}
	return p.EntryValue.Div(p.Quantity)
}

// Flag sets a metadata flag on the position
func (p *Position) Flag(key string) {
	if p.Metadata == nil {
		p.Metadata = make(map[string]bool)
	}
	p.Metadata[key] = true
}

// Flagged reports whether a metadata flag is set
func (p *Position) Flagged(key string) bool {
	return p.Metadata[key]
}

// HoldingBars returns the number of bars since entry
func (p *Position) HoldingBars(offset int) int {
	return offset - p.EntryOffset
}

// MarketValue values the position at price
func (p *Position) MarketValue(price decimal.Decimal) decimal.Decimal {
	return p.Quantity.Mul(price)
}

// UnrealisedProfit returns the market value at price less the cost basis
func (p *Position) UnrealisedProfit(price decimal.Decimal) decimal.Decimal {
	return p.MarketValue(price).Sub(p.CostBasis)
}

// Close realises the position against a matched sell. The whole quantity
// must be sold
func (p *Position) Close(f *Fill) (*CompletedTrade, error) {
	if p.Quantity.IsZero() {
		return nil, ErrEmptyPosition
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	if !f.Quantity.Equal(p.Quantity) {
		return nil, fmt.Errorf("%w: holding %v selling %v", ErrPartialClose, p.Quantity, f.Quantity)
	}
	proceeds := f.Price.Mul(f.Quantity).Sub(f.Fee)
	profit := proceeds.Sub(p.CostBasis)
	t := &CompletedTrade{
		Symbol:          p.Symbol,
		Strategy:        p.Strategy,
		Quantity:        p.Quantity,
		EntryPrice:      p.EntryPrice(),
		EntryTime:       p.EntryTime,
		EntryOffset:     p.EntryOffset,
		EntryReason:     p.EntryReason,
		ExitPrice:       f.Price,
		ExitTime:        f.Time,
		ExitOffset:      f.Offset,
		ExitReason:      f.Reason,
		CostBasis:       p.CostBasis,
		Proceeds:        proceeds,
		Fees:            p.EntryFees.Add(f.Fee),
		Profit:          profit,
		HoldingBars:     f.Offset - p.EntryOffset,
		HoldingDuration: f.Time.Sub(p.EntryTime),
	}
	if p.CostBasis.IsPositive() {
		t.ReturnPercent = profit.Div(p.CostBasis).Mul(oneHundred).Round(8)
	}
	p.Quantity = decimal.Zero
	return t, nil
}

// IsWin reports whether the trade realised a profit
func (t *CompletedTrade) IsWin() bool {
	return t.Profit.IsPositive()
}
