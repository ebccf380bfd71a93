package metrics

import "time"

// SequenceMetrics records edit-engine activity: operation latency,
// consistency check outcomes, and summary cache effectiveness.
// Implementations must tolerate a nil receiver.
type SequenceMetrics interface {
	ObserveEdit(operation string, duration time.Duration, err error)
	ObserveConsistencyCheck(status string, duration time.Duration)
	RecordSummaryCacheHit(hit bool)
	RecordBlockCount(sequenceID string, count int)
}

// NewSequenceMetrics creates a Prometheus-backed SequenceMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewSequenceMetrics() SequenceMetrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusSequenceMetrics()
}

// newPrometheusSequenceMetrics is implemented in internal/metrics/prometheus/sequence.go.
var newPrometheusSequenceMetrics func() SequenceMetrics

// RegisterSequenceMetricsConstructor registers the Prometheus sequence
// metrics constructor. Called by internal/metrics/prometheus/sequence.go
// during package initialization.
func RegisterSequenceMetricsConstructor(constructor func() SequenceMetrics) {
	newPrometheusSequenceMetrics = constructor
}

// ObserveEdit records an edit-engine operation, tolerating a nil SequenceMetrics.
func ObserveEdit(m SequenceMetrics, operation string, duration time.Duration, err error) {
	if m != nil {
		m.ObserveEdit(operation, duration, err)
	}
}

// ObserveConsistencyCheck records a consistency check outcome, tolerating a nil SequenceMetrics.
func ObserveConsistencyCheck(m SequenceMetrics, status string, duration time.Duration) {
	if m != nil {
		m.ObserveConsistencyCheck(status, duration)
	}
}

// RecordSummaryCacheHit records a summary cache lookup outcome, tolerating a nil SequenceMetrics.
func RecordSummaryCacheHit(m SequenceMetrics, hit bool) {
	if m != nil {
		m.RecordSummaryCacheHit(hit)
	}
}

// RecordBlockCount records the current block count for a sequence, tolerating a nil SequenceMetrics.
func RecordBlockCount(m SequenceMetrics, sequenceID string, count int) {
	if m != nil {
		m.RecordBlockCount(sequenceID, count)
	}
}
