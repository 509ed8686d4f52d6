package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics 定义业务监控指标
type BusinessMetrics struct {
	WarmerTicksTotal      *prometheus.CounterVec
	WarmerRetries         *prometheus.GaugeVec
	WarmerRunning         *prometheus.GaugeVec
	FeeRate               *prometheus.GaugeVec
	BTCPriceUSD           prometheus.Gauge
	EstimationDuration    *prometheus.HistogramVec
	EstimationsSuperseded *prometheus.CounterVec
	PSBTBuildsTotal       *prometheus.CounterVec
	SelectedInputs        prometheus.Histogram
	ReconcileMismatch     prometheus.Counter
}

// Business starts out unregistered so packages can record metrics in tests
// without touching the global registry. Init swaps in registered collectors.
var Business = newBusinessMetrics(nil)

// InitBusinessMetrics 初始化业务指标并注册到 reg
func InitBusinessMetrics(reg prometheus.Registerer) {
	Business = newBusinessMetrics(reg)
}

func newBusinessMetrics(reg prometheus.Registerer) *BusinessMetrics {
	f := promauto.With(reg)
	return &BusinessMetrics{
		WarmerTicksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stamp_warmer_ticks_total",
			Help: "Warmer ticks by loop and result",
		}, []string{"loop", "result"}),
		WarmerRetries: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stamp_warmer_retry_count",
			Help: "Consecutive failures of a warmer loop",
		}, []string{"loop"}),
		WarmerRunning: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stamp_warmer_running",
			Help: "1 while the warmer loop is scheduled",
		}, []string{"loop"}),
		FeeRate: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stamp_fee_rate_sat_vb",
			Help: "Last recommended fee rate by source",
		}, []string{"source"}),
		BTCPriceUSD: f.NewGauge(prometheus.GaugeOpts{
			Name: "stamp_btc_price_usd",
			Help: "Last BTC/USD price",
		}),
		EstimationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stamp_estimation_duration_seconds",
			Help:    "Duration of fee estimation phases",
			Buckets: prometheus.DefBuckets,
		}, []string{"phase"}),
		EstimationsSuperseded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stamp_estimations_superseded_total",
			Help: "Estimation results discarded because a newer generation started",
		}, []string{"phase"}),
		PSBTBuildsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stamp_psbt_builds_total",
			Help: "PSBT builds by result",
		}, []string{"result"}),
		SelectedInputs: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "stamp_selected_inputs",
			Help:    "Number of inputs chosen per build",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),
		ReconcileMismatch: f.NewCounter(prometheus.CounterOpts{
			Name: "stamp_psbt_reconcile_mismatch_total",
			Help: "Builds whose input total did not equal outputs plus fee",
		}),
	}
}
