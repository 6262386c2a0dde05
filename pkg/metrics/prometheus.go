package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain/repository.Metrics using Prometheus.
type Recorder struct {
	alertsReceived  *prometheus.CounterVec
	alertsRecorded  prometheus.Counter
	signalsRejected *prometheus.CounterVec
	execAttempts    *prometheus.CounterVec
	execOutcomes    *prometheus.CounterVec
	retriesTotal    *prometheus.CounterVec
	queueDrops      prometheus.Counter
	brokerLatency   *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
}

// New creates a Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		alertsReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_alerts_received_total",
				Help: "Total webhook alerts received",
			},
			[]string{"ticker"},
		),
		alertsRecorded: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "market_alerts_recorded_total",
				Help: "Total alerts durably recorded",
			},
		),
		signalsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_signals_rejected_total",
				Help: "Total alerts rejected by strategy resolution",
			},
			[]string{"reason"},
		),
		execAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_execution_attempts_total",
				Help: "Total order execution attempts",
			},
			[]string{"broker"},
		),
		execOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_execution_outcomes_total",
				Help: "Terminal execution outcomes per dispatch",
			},
			[]string{"outcome"},
		),
		retriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_execution_retries_total",
				Help: "Total retries scheduled after failed attempts",
			},
			[]string{"broker"},
		),
		queueDrops: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "market_dispatch_queue_drops_total",
				Help: "Alerts rejected because the dispatch queue was full",
			},
		),
		brokerLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "market_broker_call_duration_seconds",
				Help:    "Broker call latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_errors_total",
				Help: "Total errors encountered",
			},
			[]string{"type"},
		),
	}
}

func (r *Recorder) RecordAlertReceived(ticker string) {
	r.alertsReceived.WithLabelValues(ticker).Inc()
}

func (r *Recorder) RecordAlertRecorded() {
	r.alertsRecorded.Inc()
}

func (r *Recorder) RecordSignalRejected(reason string) {
	r.signalsRejected.WithLabelValues(reason).Inc()
}

func (r *Recorder) RecordExecutionAttempt(broker string) {
	r.execAttempts.WithLabelValues(broker).Inc()
}

func (r *Recorder) RecordExecutionOutcome(outcome string) {
	r.execOutcomes.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordRetryScheduled(broker string) {
	r.retriesTotal.WithLabelValues(broker).Inc()
}

func (r *Recorder) RecordQueueDrop() {
	r.queueDrops.Inc()
}

func (r *Recorder) RecordBrokerLatency(op string, seconds float64) {
	r.brokerLatency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
