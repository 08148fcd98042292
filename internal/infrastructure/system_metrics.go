package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeStats is a point-in-time view of the process, reported by the
// health endpoint.
type RuntimeStats struct {
	Goroutines     int     `json:"goroutines"`
	HeapAllocBytes uint64  `json:"heap_alloc_bytes"`
	SysBytes       uint64  `json:"sys_bytes"`
	NumGC          uint32  `json:"num_gc"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
}

// CollectRuntimeStats reads the Go runtime counters.
func CollectRuntimeStats(startTime time.Time) RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeStats{
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: mem.HeapAlloc,
		SysBytes:       mem.Sys,
		NumGC:          mem.NumGC,
		UptimeSeconds:  time.Since(startTime).Seconds(),
	}
}

// RegisterRuntimeGauges exposes goroutine count, heap size and uptime as
// observable gauges sampled on every metrics collection.
func RegisterRuntimeGauges(meter metric.Meter, startTime time.Time) error {
	goroutines, err := meter.Int64ObservableGauge("system_goroutines",
		metric.WithDescription("Number of active goroutines"))
	if err != nil {
		return err
	}
	heap, err := meter.Int64ObservableGauge("system_memory_heap_bytes",
		metric.WithDescription("Heap bytes allocated by the Go runtime"),
		metric.WithUnit("By"))
	if err != nil {
		return err
	}
	uptime, err := meter.Float64ObservableGauge("system_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := CollectRuntimeStats(startTime)
		o.ObserveInt64(goroutines, int64(stats.Goroutines))
		o.ObserveInt64(heap, int64(stats.HeapAllocBytes))
		o.ObserveFloat64(uptime, stats.UptimeSeconds)
		return nil
	}, goroutines, heap, uptime)
	return err
}
