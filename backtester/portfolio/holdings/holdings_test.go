package holdings

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tt  = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	dec = decimal.RequireFromString
)

func TestAddFill(t *testing.T) {
	t.Parallel()
	p := NewPosition("BTC-USD", "ema-touch")
	err := p.AddFill(&Fill{Price: dec("100"), Quantity: decimal.Zero})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("received '%v' expected '%v'", err, ErrInvalidQuantity)
	}
	err = p.AddFill(&Fill{Price: decimal.Zero, Quantity: dec("1")})
	if !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("received '%v' expected '%v'", err, ErrInvalidPrice)
	}

	require.NoError(t, p.AddFill(&Fill{Price: dec("100"), Quantity: dec("2"), Fee: dec("0.2"), Time: tt, Offset: 5, SignalOffset: 4, Reason: "touch"}))
	require.NoError(t, p.AddFill(&Fill{Price: dec("97"), Quantity: dec("1"), Fee: dec("0.097"), Time: tt.Add(time.Hour), Offset: 5, Reason: "second level"}))

	assert.Equal(t, "3", p.Quantity.String())
	assert.Equal(t, "99", p.EntryPrice().String())
	assert.Equal(t, "297.297", p.CostBasis.String())
	assert.Equal(t, "0.297", p.EntryFees.String())
	assert.Equal(t, 5, p.EntryOffset)
	assert.Equal(t, 4, p.SignalOffset)
	assert.Equal(t, "touch", p.EntryReason)
	assert.Equal(t, 2, p.Fills)
	assert.Equal(t, 3, p.HoldingBars(8))
	assert.Equal(t, "3.003", p.UnrealisedProfit(dec("100.1")).String())
}

func TestFlags(t *testing.T) {
	t.Parallel()
	p := &Position{}
	assert.False(t, p.Flagged("exit:trend"))
	p.Flag("exit:trend")
	assert.True(t, p.Flagged("exit:trend"))
}

func TestClose(t *testing.T) {
	t.Parallel()
	p := NewPosition("ETH-USD", "dual-limit")
	_, err := p.Close(&Fill{Price: dec("1"), Quantity: dec("1")})
	assert.ErrorIs(t, err, ErrEmptyPosition)

	require.NoError(t, p.AddFill(&Fill{Price: dec("50"), Quantity: dec("4"), Fee: dec("0.2"), Time: tt, Offset: 10, Reason: "entry"}))
	_, err = p.Close(&Fill{Price: dec("55"), Quantity: dec("3")})
	if !errors.Is(err, ErrPartialClose) {
		t.Errorf("received '%v' expected '%v'", err, ErrPartialClose)
	}

	trade, err := p.Close(&Fill{Price: dec("55"), Quantity: dec("4"), Fee: dec("0.22"), Time: tt.Add(3 * time.Hour), Offset: 13, Reason: "reversion"})
	require.NoError(t, err)
	assert.Equal(t, "219.78", trade.Proceeds.String())
	assert.Equal(t, "200.2", trade.CostBasis.String())
	assert.Equal(t, "19.58", trade.Profit.String())
	assert.Equal(t, "0.42", trade.Fees.String())
	assert.Equal(t, 3, trade.HoldingBars)
	assert.Equal(t, 3*time.Hour, trade.HoldingDuration)
	assert.Equal(t, "9.78021978", trade.ReturnPercent.String())
	assert.True(t, trade.IsWin())
	assert.True(t, p.Quantity.IsZero())
}
