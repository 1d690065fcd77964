package agent

import (
	"runtime"
	"time"

	"github.com/ethpandaops/sqlsink/internal/metrics"
)

// registerRuntimeMetrics populates the registry with Go runtime gauges
// so a fresh agent reports something meaningful out of the box. Gauge
// functions are evaluated at report time.
func registerRuntimeMetrics(reg *metrics.Registry) error {
	start := time.Now()

	gauges := map[string]metrics.GaugeFunc{
		"runtime.goroutines": func() any {
			return int64(runtime.NumGoroutine())
		},
		"runtime.mem.heap_alloc_bytes": func() any {
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)

			return int64(ms.HeapAlloc)
		},
		"runtime.mem.heap_objects": func() any {
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)

			return int64(ms.HeapObjects)
		},
		"process.uptime_seconds": func() any {
			return int64(time.Since(start).Seconds())
		},
	}

	for name, fn := range gauges {
		if err := reg.RegisterGauge(name, fn); err != nil {
			return err
		}
	}

	// GC cycles as a counter, read from MemStats at report time.
	return reg.RegisterCounter("runtime.gc.total", gcCounter{})
}

type gcCounter struct{}

func (gcCounter) Count() int64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return int64(ms.NumGC)
}
