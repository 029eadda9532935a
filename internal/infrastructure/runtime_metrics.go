package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics records the Go runtime footprint of a run
type RuntimeMetrics struct {
	heapAlloc  metric.Int64Gauge
	totalAlloc metric.Int64Gauge
	sysMemory  metric.Int64Gauge
	goroutines metric.Int64Gauge
	gcCount    metric.Int64Gauge
	gcPause    metric.Float64Histogram
}

// RuntimeStats is a snapshot of the Go runtime taken at the end of a run
type RuntimeStats struct {
	HeapAllocBytes  uint64        `json:"heap_alloc_bytes"`
	TotalAllocBytes uint64        `json:"total_alloc_bytes"`
	SysBytes        uint64        `json:"sys_bytes"`
	Goroutines      int           `json:"goroutines"`
	NumGC           uint32        `json:"num_gc"`
	LastGCPause     time.Duration `json:"last_gc_pause_ns"`
	CPUs            int           `json:"cpus"`
	GoVersion       string        `json:"go_version"`
}

// NewRuntimeMetrics creates the runtime gauges on meter
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	heapAlloc, err := meter.Int64Gauge(
		"orderprep_runtime_heap_alloc_bytes",
		metric.WithDescription("Bytes of allocated heap objects at the end of the run"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	totalAlloc, err := meter.Int64Gauge(
		"orderprep_runtime_total_alloc_bytes",
		metric.WithDescription("Cumulative bytes allocated during the run"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	sysMemory, err := meter.Int64Gauge(
		"orderprep_runtime_sys_bytes",
		metric.WithDescription("Memory obtained from the OS"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	goroutines, err := meter.Int64Gauge(
		"orderprep_runtime_goroutines",
		metric.WithDescription("Number of goroutines"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Gauge(
		"orderprep_runtime_gc_cycles",
		metric.WithDescription("Completed garbage collection cycles"),
	)
	if err != nil {
		return nil, err
	}

	gcPause, err := meter.Float64Histogram(
		"orderprep_runtime_gc_pause_seconds",
		metric.WithDescription("Duration of the most recent garbage collection pause"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RuntimeMetrics{
		heapAlloc:  heapAlloc,
		totalAlloc: totalAlloc,
		sysMemory:  sysMemory,
		goroutines: goroutines,
		gcCount:    gcCount,
		gcPause:    gcPause,
	}, nil
}

// ReadRuntimeStats takes a runtime snapshot
func ReadRuntimeStats() RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := RuntimeStats{
		HeapAllocBytes:  mem.HeapAlloc,
		TotalAllocBytes: mem.TotalAlloc,
		SysBytes:        mem.Sys,
		Goroutines:      runtime.NumGoroutine(),
		NumGC:           mem.NumGC,
		CPUs:            runtime.NumCPU(),
		GoVersion:       runtime.Version(),
	}
	if mem.NumGC > 0 {
		stats.LastGCPause = time.Duration(mem.PauseNs[(mem.NumGC+255)%256])
	}
	return stats
}

// Collect reads a snapshot and records it. A nil receiver only reads.
func (rm *RuntimeMetrics) Collect(ctx context.Context) RuntimeStats {
	stats := ReadRuntimeStats()
	if rm == nil {
		return stats
	}

	rm.heapAlloc.Record(ctx, int64(stats.HeapAllocBytes))
	rm.totalAlloc.Record(ctx, int64(stats.TotalAllocBytes))
	rm.sysMemory.Record(ctx, int64(stats.SysBytes))
	rm.goroutines.Record(ctx, int64(stats.Goroutines))
	rm.gcCount.Record(ctx, int64(stats.NumGC))
	if stats.LastGCPause > 0 {
		rm.gcPause.Record(ctx, stats.LastGCPause.Seconds())
	}
	return stats
}
