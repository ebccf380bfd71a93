package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/wavecore/blockseq/internal/metrics"
)

// storeMetrics is the Prometheus implementation of metrics.StoreMetrics.
type storeMetrics struct {
	writeOperations  *prometheus.CounterVec
	writeDuration    *prometheus.HistogramVec
	writeBytes       *prometheus.HistogramVec
	readOperations   *prometheus.CounterVec
	readDuration     *prometheus.HistogramVec
	readBytes        *prometheus.HistogramVec
	deleteOperations *prometheus.CounterVec
	deleteDuration   *prometheus.HistogramVec
	retries          *prometheus.CounterVec
}

func init() {
	metrics.RegisterStoreMetricsConstructor(newStoreMetrics)
}

// byteBuckets covers silent/alias blocks up to several full-size disk blocks.
var byteBuckets = []float64{
	4096, 32768, 131072, 524288, 1048576, 4194304, 10485760,
}

var latencyBuckets = []float64{
	0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000,
}

func newStoreMetrics() metrics.StoreMetrics {
	reg := metrics.GetRegistry()

	return &storeMetrics{
		writeOperations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockseq_store_write_operations_total",
				Help: "Total number of block store write operations by store type and outcome",
			},
			[]string{"store_type", "outcome"},
		),
		writeDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blockseq_store_write_duration_milliseconds",
				Help:    "Duration of block store write operations in milliseconds",
				Buckets: latencyBuckets,
			},
			[]string{"store_type"},
		),
		writeBytes: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blockseq_store_write_bytes",
				Help:    "Distribution of bytes written to the block store",
				Buckets: byteBuckets,
			},
			[]string{"store_type"},
		),
		readOperations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockseq_store_read_operations_total",
				Help: "Total number of block store read operations by store type and outcome",
			},
			[]string{"store_type", "outcome"},
		),
		readDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blockseq_store_read_duration_milliseconds",
				Help:    "Duration of block store read operations in milliseconds",
				Buckets: latencyBuckets,
			},
			[]string{"store_type"},
		),
		readBytes: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blockseq_store_read_bytes",
				Help:    "Distribution of bytes read from the block store",
				Buckets: byteBuckets,
			},
			[]string{"store_type"},
		),
		deleteOperations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockseq_store_delete_operations_total",
				Help: "Total number of block store delete operations by store type and outcome",
			},
			[]string{"store_type", "outcome"},
		),
		deleteDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blockseq_store_delete_duration_milliseconds",
				Help:    "Duration of block store delete operations in milliseconds",
				Buckets: latencyBuckets,
			},
			[]string{"store_type"},
		),
		retries: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockseq_store_retries_total",
				Help: "Total number of block store operation retries by store type",
			},
			[]string{"store_type"},
		),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *storeMetrics) ObserveWrite(storeType string, bytes int64, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.writeOperations.WithLabelValues(storeType, outcome(err)).Inc()
	m.writeDuration.WithLabelValues(storeType).Observe(float64(duration.Microseconds()) / 1000)
	if bytes > 0 {
		m.writeBytes.WithLabelValues(storeType).Observe(float64(bytes))
	}
}

func (m *storeMetrics) ObserveRead(storeType string, bytes int64, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.readOperations.WithLabelValues(storeType, outcome(err)).Inc()
	m.readDuration.WithLabelValues(storeType).Observe(float64(duration.Microseconds()) / 1000)
	if bytes > 0 {
		m.readBytes.WithLabelValues(storeType).Observe(float64(bytes))
	}
}

func (m *storeMetrics) ObserveDelete(storeType string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.deleteOperations.WithLabelValues(storeType, outcome(err)).Inc()
	m.deleteDuration.WithLabelValues(storeType).Observe(float64(duration.Microseconds()) / 1000)
}

func (m *storeMetrics) RecordRetry(storeType string, attempt int) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(storeType).Inc()
}
