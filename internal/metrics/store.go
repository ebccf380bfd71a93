package metrics

import "time"

// StoreMetrics records block store I/O. Implementations must tolerate a
// nil receiver so callers can pass a possibly-nil StoreMetrics without
// branching.
type StoreMetrics interface {
	ObserveWrite(storeType string, bytes int64, duration time.Duration, err error)
	ObserveRead(storeType string, bytes int64, duration time.Duration, err error)
	ObserveDelete(storeType string, duration time.Duration, err error)
	RecordRetry(storeType string, attempt int)
}

// NewStoreMetrics creates a Prometheus-backed StoreMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called). Block
// store constructors call this themselves; a nil result makes every
// metrics helper below a no-op.
func NewStoreMetrics() StoreMetrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusStoreMetrics()
}

// newPrometheusStoreMetrics is implemented in internal/metrics/prometheus/store.go.
// This indirection avoids an import cycle while keeping the constructor API
// in this package.
var newPrometheusStoreMetrics func() StoreMetrics

// RegisterStoreMetricsConstructor registers the Prometheus store metrics
// constructor. Called by internal/metrics/prometheus/store.go during
// package initialization.
func RegisterStoreMetricsConstructor(constructor func() StoreMetrics) {
	newPrometheusStoreMetrics = constructor
}

// ObserveWrite records a block store write, tolerating a nil StoreMetrics.
func ObserveWrite(m StoreMetrics, storeType string, bytes int64, duration time.Duration, err error) {
	if m != nil {
		m.ObserveWrite(storeType, bytes, duration, err)
	}
}

// ObserveRead records a block store read, tolerating a nil StoreMetrics.
func ObserveRead(m StoreMetrics, storeType string, bytes int64, duration time.Duration, err error) {
	if m != nil {
		m.ObserveRead(storeType, bytes, duration, err)
	}
}

// ObserveDelete records a block store delete, tolerating a nil StoreMetrics.
func ObserveDelete(m StoreMetrics, storeType string, duration time.Duration, err error) {
	if m != nil {
		m.ObserveDelete(storeType, duration, err)
	}
}

// RecordRetry records a store operation retry, tolerating a nil StoreMetrics.
func RecordRetry(m StoreMetrics, storeType string, attempt int) {
	if m != nil {
		m.RecordRetry(storeType, attempt)
	}
}
