package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/thrasher-corp/gfobtester/backtester/portfolio/holdings"
	"github.com/thrasher-corp/gfobtester/backtester/statistics"
	"github.com/thrasher-corp/gfobtester/log"
)

// NewRecorder registers every run metric against a fresh registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		bars: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "bars_processed_total",
				Help:      "Total number of bars folded per symbol",
			},
			[]string{"symbol"},
		),
		orders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "orders_total",
				Help:      "Total number of order events by event and side",
			},
			[]string{"event", "side"},
		),
		trades: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "trades_closed_total",
				Help:      "Total number of completed trades",
			},
			[]string{"symbol", "strategy", "outcome"},
		),
		holdingBars: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "trade_holding_bars",
				Help:      "Number of bars each completed trade was held for",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"strategy"},
		),
		markedEquity: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "marked_equity",
			Help:      "Equity with open positions valued at the latest close",
		}),
		totalEquity: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "total_equity",
			Help:      "Book equity of every ledger",
		}),
	}
}

// Registry returns the registry the recorder writes to
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// OnBar records a bar folded for symbol
func (r *Recorder) OnBar(symbol string, _ int) {
	r.bars.WithLabelValues(symbol).Inc()
}

// OnOrder records an order event
func (r *Recorder) OnOrder(o *statistics.OrderRecord) {
	if o == nil {
		return
	}
	r.orders.WithLabelValues(string(o.Event), o.Side.String()).Inc()
}

// OnTrade records a completed trade
func (r *Recorder) OnTrade(t *holdings.CompletedTrade) {
	if t == nil {
		return
	}
	outcome := "loss"
	if t.IsWin() {
		outcome = "win"
	}
	r.trades.WithLabelValues(t.Symbol, t.Strategy, outcome).Inc()
	r.holdingBars.WithLabelValues(t.Strategy).Observe(float64(t.HoldingBars))
}

// OnEquity records the equity at the close of a tick
func (r *Recorder) OnEquity(p statistics.EquityPoint) {
	r.markedEquity.Set(p.MarkedEquity.InexactFloat64())
	r.totalEquity.Set(p.TotalEquity.InexactFloat64())
}

// Push sends the recorded metrics to a Prometheus Pushgateway, grouped by
// run id
func (r *Recorder) Push(ctx context.Context, url, job, runID string) error {
	if url == "" || job == "" {
		return errEmptyPushTarget
	}
	p := push.New(url, job).Gatherer(r.registry)
	if runID != "" {
		p = p.Grouping("run", runID)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	log.Infof(log.BackTester, "Pushed run metrics to %s job %s", url, job)
	return nil
}
