package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/wavecore/blockseq/internal/metrics"
)

// sequenceMetrics is the Prometheus implementation of metrics.SequenceMetrics.
type sequenceMetrics struct {
	editOperations      *prometheus.CounterVec
	editDuration        *prometheus.HistogramVec
	consistencyChecks   *prometheus.CounterVec
	consistencyDuration *prometheus.HistogramVec
	summaryCacheHits    *prometheus.CounterVec
	blockCount          *prometheus.GaugeVec
}

func init() {
	metrics.RegisterSequenceMetricsConstructor(newSequenceMetrics)
}

func newSequenceMetrics() metrics.SequenceMetrics {
	reg := metrics.GetRegistry()

	return &sequenceMetrics{
		editOperations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockseq_sequence_edit_operations_total",
				Help: "Total number of edit operations by name and outcome",
			},
			[]string{"operation", "outcome"}, // operation: paste, delete, append, convert, insert_silence
		),
		editDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blockseq_sequence_edit_duration_milliseconds",
				Help:    "Duration of edit operations in milliseconds",
				Buckets: latencyBuckets,
			},
			[]string{"operation"},
		),
		consistencyChecks: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockseq_sequence_consistency_checks_total",
				Help: "Total number of consistency checks by status",
			},
			[]string{"status"}, // success, failure
		),
		consistencyDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blockseq_sequence_consistency_check_duration_milliseconds",
				Help:    "Duration of consistency checks in milliseconds",
				Buckets: latencyBuckets,
			},
			[]string{"status"},
		),
		summaryCacheHits: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockseq_sequence_summary_cache_lookups_total",
				Help: "Total number of summary cache lookups by outcome",
			},
			[]string{"outcome"}, // hit, miss
		),
		blockCount: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "blockseq_sequence_block_count",
				Help: "Current number of blocks in a sequence",
			},
			[]string{"sequence_id"},
		),
	}
}

func (m *sequenceMetrics) ObserveEdit(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.editOperations.WithLabelValues(operation, outcome(err)).Inc()
	m.editDuration.WithLabelValues(operation).Observe(float64(duration.Microseconds()) / 1000)
}

func (m *sequenceMetrics) ObserveConsistencyCheck(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.consistencyChecks.WithLabelValues(status).Inc()
	m.consistencyDuration.WithLabelValues(status).Observe(float64(duration.Microseconds()) / 1000)
}

func (m *sequenceMetrics) RecordSummaryCacheHit(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.summaryCacheHits.WithLabelValues("hit").Inc()
	} else {
		m.summaryCacheHits.WithLabelValues("miss").Inc()
	}
}

func (m *sequenceMetrics) RecordBlockCount(sequenceID string, count int) {
	if m == nil {
		return
	}
	m.blockCount.WithLabelValues(sequenceID).Set(float64(count))
}
