package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/gfobtester/backtester/common"
	"github.com/thrasher-corp/gfobtester/backtester/portfolio/holdings"
	"github.com/thrasher-corp/gfobtester/backtester/statistics"
)

func TestRecorder(t *testing.T) {
	t.Parallel()
	r := NewRecorder()
	r.OnBar("BTC-USD", 0)
	r.OnBar("BTC-USD", 1)
	r.OnBar("ETH-USD", 0)
	assert.Equal(t, 2.0, testutil.ToFloat64(r.bars.WithLabelValues("BTC-USD")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.bars.WithLabelValues("ETH-USD")))

	r.OnOrder(nil)
	r.OnOrder(&statistics.OrderRecord{Event: statistics.OrderPlaced, Side: common.Buy})
	r.OnOrder(&statistics.OrderRecord{Event: statistics.OrderFilled, Side: common.Buy})
	r.OnOrder(&statistics.OrderRecord{Event: statistics.OrderExpired, Side: common.Sell})
	assert.Equal(t, 1.0, testutil.ToFloat64(r.orders.WithLabelValues("PLACED", "BUY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.orders.WithLabelValues("FILLED", "BUY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.orders.WithLabelValues("EXPIRED", "SELL")))
	assert.Zero(t, testutil.ToFloat64(r.orders.WithLabelValues("REJECTED", "BUY")))

	r.OnTrade(nil)
	r.OnTrade(&holdings.CompletedTrade{Symbol: "BTC-USD", Strategy: "ema-touch", Profit: decimal.NewFromInt(5), HoldingBars: 3})
	r.OnTrade(&holdings.CompletedTrade{Symbol: "BTC-USD", Strategy: "ema-touch", Profit: decimal.NewFromInt(-2), HoldingBars: 1})
	assert.Equal(t, 1.0, testutil.ToFloat64(r.trades.WithLabelValues("BTC-USD", "ema-touch", "win")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.trades.WithLabelValues("BTC-USD", "ema-touch", "loss")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.holdingBars))

	r.OnEquity(statistics.EquityPoint{Time: time.Now(), TotalEquity: decimal.NewFromInt(1000), MarkedEquity: decimal.RequireFromString("1012.5")})
	assert.Equal(t, 1012.5, testutil.ToFloat64(r.markedEquity))
	assert.Equal(t, 1000.0, testutil.ToFloat64(r.totalEquity))

	n, err := testutil.GatherAndCount(r.Registry())
	require.NoError(t, err)
	assert.Equal(t, 11, n)
}

func TestPush(t *testing.T) {
	t.Parallel()
	r := NewRecorder()
	err := r.Push(context.Background(), "", "job", "")
	if !errors.Is(err, errEmptyPushTarget) {
		t.Errorf("received '%v' expected '%v'", err, errEmptyPushTarget)
	}

	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path = req.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r.OnBar("BTC-USD", 0)
	require.NoError(t, r.Push(context.Background(), srv.URL, "gfob", "run-1"))
	assert.Equal(t, "/metrics/job/gfob/run/run-1", path)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()
	assert.Error(t, r.Push(context.Background(), failing.URL, "gfob", ""))
}
