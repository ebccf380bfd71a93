// Package metrics defines protocol-agnostic metrics interfaces for the
// block store and sequence engine. Concrete Prometheus implementations
// live in internal/metrics/prometheus and register themselves here
// through a constructor indirection, which avoids an import cycle; this
// package itself imports prometheus/client_golang only for the registry.
package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	enabled  atomic.Bool
	registry *prometheus.Registry
	mu       sync.RWMutex
)

// InitRegistry enables metrics collection and installs reg as the active
// Prometheus registry. If reg is nil, a fresh registry is created.
func InitRegistry(reg *prometheus.Registry) *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	registry = reg
	enabled.Store(true)
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return enabled.Load()
}

// GetRegistry returns the active registry, or nil if metrics are disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}
