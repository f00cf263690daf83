package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name
const Namespace = "gfob"

var errEmptyPushTarget = errors.New("pushgateway url and job name must be set")

// Recorder counts what happens during a run in its own registry so that
// repeated runs in one process never share counters
type Recorder struct {
	registry *prometheus.Registry

	bars         *prometheus.CounterVec
	orders       *prometheus.CounterVec
	trades       *prometheus.CounterVec
	holdingBars  *prometheus.HistogramVec
	markedEquity prometheus.Gauge
	totalEquity  prometheus.Gauge
}
