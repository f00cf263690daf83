package statistics

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/gfobtester/backtester/common"
	"github.com/thrasher-corp/gfobtester/backtester/portfolio/holdings"
	"github.com/thrasher-corp/gfobtester/encoding/json"
)

var (
	dec = decimal.RequireFromString
	tt  = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

func testResult(t *testing.T) *Result {
	t.Helper()
	r := NewResult("run", dec("1000"))
	for i, v := range []string{"1000", "1100", "990", "1045", "1200"} {
		require.NoError(t, r.AddEquityPoint(tt.AddDate(0, 0, i), dec(v), dec(v)))
	}
	r.Trades = []*holdings.CompletedTrade{
		{Symbol: "BTC-USD", Profit: dec("150"), Fees: dec("1"), HoldingBars: 2},
		{Symbol: "BTC-USD", Profit: dec("-50"), Fees: dec("1"), HoldingBars: 4},
		{Symbol: "ETH-USD", Profit: dec("100"), Fees: dec("0.5"), HoldingBars: 3},
	}
	r.AddOrderRecord(&OrderRecord{Event: OrderPlaced, Side: common.Buy})
	r.AddOrderRecord(&OrderRecord{Event: OrderFilled, Side: common.Buy})
	r.AddOrderRecord(&OrderRecord{Event: OrderPlaced, Side: common.Sell})
	r.AddOrderRecord(&OrderRecord{Event: OrderExpired, Side: common.Sell})
	r.AddOrderRecord(&OrderRecord{Event: OrderRejected, Side: common.Buy})
	return r
}

func TestAddEquityPoint(t *testing.T) {
	t.Parallel()
	r := NewResult("run", dec("1"))
	require.NoError(t, r.AddEquityPoint(tt, dec("1"), dec("1")))
	err := r.AddEquityPoint(tt, dec("1"), dec("1"))
	if !errors.Is(err, errMismatchedEquities) {
		t.Errorf("received '%v' expected '%v'", err, errMismatchedEquities)
	}
}

func TestCalculate(t *testing.T) {
	t.Parallel()
	r := NewResult("run", decimal.Zero)
	err := r.Calculate(0)
	if !errors.Is(err, errInvalidInitial) {
		t.Errorf("received '%v' expected '%v'", err, errInvalidInitial)
	}
	r = NewResult("run", dec("1000"))
	err = r.Calculate(0)
	if !errors.Is(err, errNoEquityCurve) {
		t.Errorf("received '%v' expected '%v'", err, errNoEquityCurve)
	}

	r = testResult(t)
	require.NoError(t, r.Calculate(0))
	s := r.Summary
	assert.Equal(t, 3, s.TotalTrades)
	assert.Equal(t, 2, s.WinningTrades)
	assert.Equal(t, 1, s.LosingTrades)
	assert.Equal(t, "66.6667", s.WinRate.String())
	assert.Equal(t, "200", s.NetProfit.String())
	assert.Equal(t, "2.5", s.TotalFees.String())
	assert.Equal(t, "5", s.ProfitFactor.String())
	assert.Equal(t, "1200", s.FinalEquity.String())
	assert.Equal(t, "20", s.ReturnRate.String())
	assert.Equal(t, 3.0, s.AverageHoldingBars)
	assert.Equal(t, 2, s.OrdersPlaced)
	assert.Equal(t, 1, s.OrdersFilled)
	assert.Equal(t, 1, s.OrdersExpired)
	assert.Equal(t, 1, s.OrdersRejected)
	assert.Equal(t, tt, r.StartDate)
	assert.Equal(t, tt.AddDate(0, 0, 4), r.EndDate)
	assert.Positive(t, s.AnnualisedReturn)
	assert.NotZero(t, s.SharpeRatio)
	assert.NotZero(t, s.SortinoRatio)
	assert.Positive(t, s.CalmarRatio)
	assert.Equal(t, 1, r.SideCount(OrderPlaced, common.Sell))
}

func TestCalculateReturnsUseBookEquity(t *testing.T) {
	t.Parallel()
	r := NewResult("run", dec("1000"))
	for i, marked := range []string{"1000", "1050", "1100"} {
		require.NoError(t, r.AddEquityPoint(tt.AddDate(0, 0, i), dec("1000"), dec(marked)))
	}
	require.NoError(t, r.Calculate(0))
	assert.Equal(t, "1000", r.Summary.FinalEquity.String())
	assert.True(t, r.Summary.ReturnRate.IsZero())
	assert.Zero(t, r.Summary.AnnualisedReturn, "an unrealised gain must not annualise")
	assert.NotZero(t, r.Summary.SharpeRatio)
}

func TestCalculateMaxDrawdown(t *testing.T) {
	t.Parallel()
	assert.True(t, CalculateMaxDrawdown(nil).DrawdownPercent.IsZero())
	r := testResult(t)
	dd := CalculateMaxDrawdown(r.EquityCurve)
	assert.Equal(t, "-10", dd.DrawdownPercent.String())
	assert.Equal(t, "1100", dd.Highest.Value.String())
	assert.Equal(t, "990", dd.Lowest.Value.String())
	assert.Equal(t, int64(1), dd.IntervalDuration)
}

func TestExtensions(t *testing.T) {
	t.Parallel()
	r := &Result{}
	r.IncrementExtension("skipped:regime")
	r.IncrementExtension("skipped:regime")
	r.AddExtension("capacity", 3)
	assert.Equal(t, int64(2), r.Extensions["skipped:regime"])
	assert.Equal(t, []string{"capacity", "skipped:regime"}, r.ExtensionKeys())
}

func TestPrintAndSerialise(t *testing.T) {
	t.Parallel()
	r := testResult(t)
	r.IncrementExtension("skipped:regime")
	require.NoError(t, r.Calculate(0))
	r.PrintResults()
	r.PrintTrades()

	b, err := r.Serialise()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "run", decoded["run-id"])
	assert.Contains(t, decoded, "equity-curve")
	assert.Contains(t, decoded, "summary")
}
