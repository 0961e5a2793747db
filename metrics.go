package zvec

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordBatchWrite is called after each insert/upsert/update batch.
	// count is the number of documents attempted, failed is the number
	// that failed, duration is the total time taken.
	RecordBatchWrite(count, failed int, duration time.Duration)

	// RecordSearch is called after each vector query.
	// topK is the number of results requested, duration is the time
	// taken, err is nil if successful.
	RecordSearch(topK int, duration time.Duration, err error)

	// RecordFetch is called after each point lookup.
	// count is the number of keys requested.
	RecordFetch(count int, duration time.Duration, err error)

	// RecordDelete is called after each delete operation.
	RecordDelete(duration time.Duration, err error)

	// RecordFlush is called after each flush.
	RecordFlush(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBatchWrite(int, int, time.Duration) {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordFetch(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)        {}
func (NoopMetricsCollector) RecordFlush(time.Duration, error)         {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	WriteBatches     atomic.Int64
	WriteDocs        atomic.Int64
	WriteFailed      atomic.Int64
	WriteTotalNanos  atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchTotalNanos atomic.Int64
	FetchCount       atomic.Int64
	FetchErrors      atomic.Int64
	DeleteCount      atomic.Int64
	DeleteErrors     atomic.Int64
	FlushCount       atomic.Int64
	FlushErrors      atomic.Int64
}

// RecordBatchWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchWrite(count, failed int, duration time.Duration) {
	b.WriteBatches.Add(1)
	b.WriteDocs.Add(int64(count))
	b.WriteFailed.Add(int64(failed))
	b.WriteTotalNanos.Add(duration.Nanoseconds())
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(topK int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordFetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFetch(count int, duration time.Duration, err error) {
	b.FetchCount.Add(1)
	if err != nil {
		b.FetchErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(duration time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFlush(duration time.Duration, err error) {
	b.FlushCount.Add(1)
	if err != nil {
		b.FlushErrors.Add(1)
	}
}
