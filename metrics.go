package stampede

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    getCounter        prometheus.Counter
//	    lockWaitHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordGet(duration time.Duration, hit bool, err error) {
//	    p.getCounter.Inc()
//	    // ... record hit state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordGet is called after each get operation.
	// hit reports whether the key was present, err is nil if successful.
	RecordGet(duration time.Duration, hit bool, err error)

	// RecordPut is called after each put operation.
	RecordPut(duration time.Duration, err error)

	// RecordRemove is called after each remove operation.
	RecordRemove(duration time.Duration, err error)

	// RecordLockWait is called after each contended lock acquisition,
	// i.e. only when the caller actually had to wait for another holder.
	// err is non-nil when the wait ended in a timeout or cancellation.
	RecordLockWait(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordGet(time.Duration, bool, error) {}
func (NoopMetricsCollector) RecordPut(time.Duration, error)       {}
func (NoopMetricsCollector) RecordRemove(time.Duration, error)    {}
func (NoopMetricsCollector) RecordLockWait(time.Duration, error)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	GetCount           atomic.Int64
	GetHits            atomic.Int64
	GetErrors          atomic.Int64
	GetTotalNanos      atomic.Int64
	PutCount           atomic.Int64
	PutErrors          atomic.Int64
	PutTotalNanos      atomic.Int64
	RemoveCount        atomic.Int64
	RemoveErrors       atomic.Int64
	LockWaitCount      atomic.Int64
	LockWaitErrors     atomic.Int64
	LockWaitTotalNanos atomic.Int64
}

// RecordGet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGet(duration time.Duration, hit bool, err error) {
	b.GetCount.Add(1)
	b.GetTotalNanos.Add(duration.Nanoseconds())
	if hit {
		b.GetHits.Add(1)
	}
	if err != nil {
		b.GetErrors.Add(1)
	}
}

// RecordPut implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPut(duration time.Duration, err error) {
	b.PutCount.Add(1)
	b.PutTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PutErrors.Add(1)
	}
}

// RecordRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemove(duration time.Duration, err error) {
	b.RemoveCount.Add(1)
	if err != nil {
		b.RemoveErrors.Add(1)
	}
}

// RecordLockWait implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLockWait(duration time.Duration, err error) {
	b.LockWaitCount.Add(1)
	b.LockWaitTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LockWaitErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		GetCount:         b.GetCount.Load(),
		GetHits:          b.GetHits.Load(),
		GetErrors:        b.GetErrors.Load(),
		GetAvgNanos:      b.getAvgGetNanos(),
		PutCount:         b.PutCount.Load(),
		PutErrors:        b.PutErrors.Load(),
		PutAvgNanos:      b.getAvgPutNanos(),
		RemoveCount:      b.RemoveCount.Load(),
		RemoveErrors:     b.RemoveErrors.Load(),
		LockWaitCount:    b.LockWaitCount.Load(),
		LockWaitErrors:   b.LockWaitErrors.Load(),
		LockWaitAvgNanos: b.getAvgLockWaitNanos(),
	}
}

func (b *BasicMetricsCollector) getAvgGetNanos() int64 {
	count := b.GetCount.Load()
	if count == 0 {
		return 0
	}
	return b.GetTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgPutNanos() int64 {
	count := b.PutCount.Load()
	if count == 0 {
		return 0
	}
	return b.PutTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgLockWaitNanos() int64 {
	count := b.LockWaitCount.Load()
	if count == 0 {
		return 0
	}
	return b.LockWaitTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	GetCount         int64
	GetHits          int64
	GetErrors        int64
	GetAvgNanos      int64
	PutCount         int64
	PutErrors        int64
	PutAvgNanos      int64
	RemoveCount      int64
	RemoveErrors     int64
	LockWaitCount    int64
	LockWaitErrors   int64
	LockWaitAvgNanos int64
}
