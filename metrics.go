package cstdio

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting stream metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordOpen is called after each fopen, freopen or opendir.
	RecordOpen(duration time.Duration, err error)

	// RecordRead is called after each read-side call with the bytes delivered.
	RecordRead(bytes int, err error)

	// RecordWrite is called after each write-side call with the bytes accepted.
	RecordWrite(bytes int, err error)

	// RecordFlush is called after each explicit flush.
	RecordFlush(duration time.Duration, err error)

	// RecordClose is called after each stream or directory close.
	RecordClose(err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordOpen(time.Duration, error)  {}
func (NoopMetricsCollector) RecordRead(int, error)            {}
func (NoopMetricsCollector) RecordWrite(int, error)           {}
func (NoopMetricsCollector) RecordFlush(time.Duration, error) {}
func (NoopMetricsCollector) RecordClose(error)                {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	OpenCount       atomic.Int64
	OpenErrors      atomic.Int64
	OpenTotalNanos  atomic.Int64
	ReadCount       atomic.Int64
	ReadBytes       atomic.Int64
	ReadErrors      atomic.Int64
	WriteCount      atomic.Int64
	WriteBytes      atomic.Int64
	WriteErrors     atomic.Int64
	FlushCount      atomic.Int64
	FlushErrors     atomic.Int64
	FlushTotalNanos atomic.Int64
	CloseCount      atomic.Int64
	CloseErrors     atomic.Int64
}

// RecordOpen implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOpen(duration time.Duration, err error) {
	b.OpenCount.Add(1)
	b.OpenTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.OpenErrors.Add(1)
	}
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead(bytes int, err error) {
	b.ReadCount.Add(1)
	b.ReadBytes.Add(int64(bytes))
	if err != nil {
		b.ReadErrors.Add(1)
	}
}

// RecordWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWrite(bytes int, err error) {
	b.WriteCount.Add(1)
	b.WriteBytes.Add(int64(bytes))
	if err != nil {
		b.WriteErrors.Add(1)
	}
}

// RecordFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFlush(duration time.Duration, err error) {
	b.FlushCount.Add(1)
	b.FlushTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FlushErrors.Add(1)
	}
}

// RecordClose implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClose(err error) {
	b.CloseCount.Add(1)
	if err != nil {
		b.CloseErrors.Add(1)
	}
}

// Stats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) Stats() BasicMetricsStats {
	return BasicMetricsStats{
		OpenCount:     b.OpenCount.Load(),
		OpenErrors:    b.OpenErrors.Load(),
		OpenAvgNanos:  avg(b.OpenTotalNanos.Load(), b.OpenCount.Load()),
		ReadCount:     b.ReadCount.Load(),
		ReadBytes:     b.ReadBytes.Load(),
		ReadErrors:    b.ReadErrors.Load(),
		WriteCount:    b.WriteCount.Load(),
		WriteBytes:    b.WriteBytes.Load(),
		WriteErrors:   b.WriteErrors.Load(),
		FlushCount:    b.FlushCount.Load(),
		FlushErrors:   b.FlushErrors.Load(),
		FlushAvgNanos: avg(b.FlushTotalNanos.Load(), b.FlushCount.Load()),
		CloseCount:    b.CloseCount.Load(),
		CloseErrors:   b.CloseErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	OpenCount     int64
	OpenErrors    int64
	OpenAvgNanos  int64
	ReadCount     int64
	ReadBytes     int64
	ReadErrors    int64
	WriteCount    int64
	WriteBytes    int64
	WriteErrors   int64
	FlushCount    int64
	FlushErrors   int64
	FlushAvgNanos int64
	CloseCount    int64
	CloseErrors   int64
}
