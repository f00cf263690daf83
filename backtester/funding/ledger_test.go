package funding

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dec = decimal.RequireFromString

func TestNewLedger(t *testing.T) {
	t.Parallel()
	_, err := NewLedger("BTC-USD", decimal.Zero)
	if !errors.Is(err, errNonPositiveAmount) {
		t.Errorf("received '%v' expected '%v'", err, errNonPositiveAmount)
	}
	l, err := NewLedger("BTC-USD", dec("1000"))
	require.NoError(t, err)
	assert.Equal(t, "BTC-USD", l.Name())
	assert.Equal(t, "1000", l.Available().String())
	assert.Equal(t, "1000", l.TotalEquity().String())
	assert.NoError(t, l.Verify())
}

func TestLedgerRoundTrip(t *testing.T) {
	t.Parallel()
	l, err := NewLedger("BTC-USD", dec("1000"))
	require.NoError(t, err)

	require.NoError(t, l.Freeze(dec("250.25")))
	assert.Equal(t, "749.75", l.Available().String())
	assert.Equal(t, "250.25", l.Frozen().String())
	require.NoError(t, l.Verify())

	require.NoError(t, l.Settle(dec("250.25"), dec("250.25")))
	assert.True(t, l.Frozen().IsZero())
	assert.Equal(t, "250.25", l.HoldingCost().String())
	require.NoError(t, l.Verify())

	require.NoError(t, l.Realise(dec("250.25"), dec("260.1")))
	assert.Equal(t, "1009.85", l.Available().String())
	assert.True(t, l.HoldingCost().IsZero())
	assert.Equal(t, "1009.85", l.TotalEquity().String())
	require.NoError(t, l.Verify())

	snap := l.Snapshot()
	assert.Equal(t, "1009.85", snap.TotalEquity.String())
	assert.Equal(t, "BTC-USD", snap.Name)
}

func TestLedgerSettleDifference(t *testing.T) {
	t.Parallel()
	l, err := NewLedger("ETH-USD", dec("100"))
	require.NoError(t, err)
	require.NoError(t, l.Freeze(dec("50")))
	require.NoError(t, l.Settle(dec("50"), dec("49.5")))
	assert.Equal(t, "50.5", l.Available().String())
	assert.Equal(t, "49.5", l.HoldingCost().String())
	require.NoError(t, l.Verify())

	require.NoError(t, l.Freeze(dec("10")))
	err = l.Settle(dec("10"), dec("61"))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("received '%v' expected '%v'", err, ErrInsufficientFunds)
	}
	require.NoError(t, l.Settle(dec("10"), dec("11")))
	assert.Equal(t, "39.5", l.Available().String())
	require.NoError(t, l.Verify())
}

func TestLedgerErrors(t *testing.T) {
	t.Parallel()
	l, err := NewLedger("BTC-USD", dec("100"))
	require.NoError(t, err)

	err = l.Freeze(dec("100.01"))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("received '%v' expected '%v'", err, ErrInsufficientFunds)
	}
	err = l.Freeze(decimal.Zero)
	if !errors.Is(err, errNonPositiveAmount) {
		t.Errorf("received '%v' expected '%v'", err, errNonPositiveAmount)
	}
	err = l.Unfreeze(dec("1"))
	if !errors.Is(err, errFrozenUnderflow) {
		t.Errorf("received '%v' expected '%v'", err, errFrozenUnderflow)
	}
	err = l.Settle(dec("1"), dec("1"))
	if !errors.Is(err, errFrozenUnderflow) {
		t.Errorf("received '%v' expected '%v'", err, errFrozenUnderflow)
	}
	err = l.Realise(dec("1"), dec("1"))
	if !errors.Is(err, errHoldingUnderflow) {
		t.Errorf("received '%v' expected '%v'", err, errHoldingUnderflow)
	}
	err = l.Unfreeze(dec("-1"))
	if !errors.Is(err, errNegativeAmount) {
		t.Errorf("received '%v' expected '%v'", err, errNegativeAmount)
	}

	require.NoError(t, l.Freeze(dec("40")))
	require.NoError(t, l.Unfreeze(dec("40")))
	assert.Equal(t, "100", l.Available().String())
	require.NoError(t, l.Verify())

	l.available = l.available.Add(dec("0.00000001"))
	err = l.Verify()
	if !errors.Is(err, ErrLedgerImbalance) {
		t.Errorf("received '%v' expected '%v'", err, ErrLedgerImbalance)
	}
	assert.Contains(t, err.Error(), "available 100.00000001")
}
