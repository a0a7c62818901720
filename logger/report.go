package logger

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

var (
	warnCounts  sync.Map // component -> *int64
	errorCounts sync.Map // component -> *int64
)

func bump(m *sync.Map, component string) {
	v, _ := m.LoadOrStore(component, new(int64))
	atomic.AddInt64(v.(*int64), 1)
}

func recordWarn(component string) {
	bump(&warnCounts, component)
}

func recordError(component string) {
	bump(&errorCounts, component)
}

func snapshotCounts(m *sync.Map) map[string]int64 {
	out := map[string]int64{}
	m.Range(func(k, v any) bool {
		out[k.(string)] = atomic.LoadInt64(v.(*int64))
		return true
	})
	return out
}

// WarnCount returns how many warnings a component has logged.
func WarnCount(component string) int64 {
	return snapshotCounts(&warnCounts)[component]
}

// ErrorCount returns how many errors a component has logged.
func ErrorCount(component string) int64 {
	return snapshotCounts(&errorCounts)[component]
}

// hostStats is the host resource usage attached to a report.
type hostStats struct {
	CPUPercent      float64
	MemUsedMB       float64
	MemUsedPercent  float64
	DiskUsedMB      float64
	DiskUsedPercent float64
}

// readHostStats is swapped in tests.
var readHostStats = func() hostStats {
	var hs hostStats
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		hs.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		hs.MemUsedMB = float64(vm.Used) / 1024 / 1024
		hs.MemUsedPercent = vm.UsedPercent
	}
	if du, err := disk.Usage("/"); err == nil {
		hs.DiskUsedMB = float64(du.Used) / 1024 / 1024
		hs.DiskUsedPercent = du.UsedPercent
	}
	return hs
}

// LogReport logs the per-component warning and error counters together with
// host and runtime stats, and publishes them to CloudWatch.
func LogReport(ctx context.Context, log *Log) {
	warns := snapshotCounts(&warnCounts)
	errs := snapshotCounts(&errorCounts)
	host := readHostStats()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	heapMB := float64(ms.HeapAlloc) / 1024 / 1024

	log.WithComponent("report").WithFields(Fields{
		"warns":          warns,
		"errors":         errs,
		"goroutines":     runtime.NumGoroutine(),
		"heap_mb":        int64(heapMB),
		"cpu_percent":    host.CPUPercent,
		"memory_mb":      int64(host.MemUsedMB),
		"memory_percent": host.MemUsedPercent,
		"disk_mb":        int64(host.DiskUsedMB),
		"disk_percent":   host.DiskUsedPercent,
	}).Info("runtime report")

	data := []cwtypes.MetricDatum{
		{MetricName: aws.String("HeapMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(heapMB)},
		{MetricName: aws.String("CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(host.CPUPercent)},
		{MetricName: aws.String("HostMemUsedPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(host.MemUsedPercent)},
		{MetricName: aws.String("DiskUsedPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(host.DiskUsedPercent)},
	}
	data = append(data, componentData("Warnings", warns)...)
	data = append(data, componentData("Errors", errs)...)
	publishMetrics(ctx, data)
}

func componentData(metric string, counts map[string]int64) []cwtypes.MetricDatum {
	components := make([]string, 0, len(counts))
	for c := range counts {
		components = append(components, c)
	}
	sort.Strings(components)

	data := make([]cwtypes.MetricDatum, 0, len(components))
	for _, c := range components {
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String(metric),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{{Name: aws.String("component"), Value: aws.String(c)}},
			Value:      aws.Float64(float64(counts[c])),
		})
	}
	return data
}
