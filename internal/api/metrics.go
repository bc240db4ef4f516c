package api

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/process"
)

// ServerMetrics содержит метрики процесса сервера
type ServerMetrics struct {
	StartTime time.Time
	proc      *process.Process
}

// NewServerMetrics создает новый экземпляр метрик
func NewServerMetrics() *ServerMetrics {
	sm := &ServerMetrics{StartTime: time.Now()}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		sm.proc = proc
	}
	return sm
}

// GetUptime возвращает время работы сервера
func (sm *ServerMetrics) GetUptime() string {
	uptime := time.Since(sm.StartTime)

	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}

// GetCPUUsage возвращает использование CPU процессом в процентах
func (sm *ServerMetrics) GetCPUUsage() (float64, error) {
	if sm.proc == nil {
		return 0, fmt.Errorf("process handle unavailable")
	}
	return sm.proc.CPUPercent()
}

// GetRSS возвращает резидентную память процесса в байтах
func (sm *ServerMetrics) GetRSS() (uint64, error) {
	if sm.proc == nil {
		return 0, fmt.Errorf("process handle unavailable")
	}
	info, err := sm.proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}

// Snapshot собирает метрики процесса для /api/stats
func (sm *ServerMetrics) Snapshot() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	out := map[string]interface{}{
		"uptime":     sm.GetUptime(),
		"heap_alloc": humanize.Bytes(m.HeapAlloc),
		"num_gc":     m.NumGC,
		"goroutines": runtime.NumGoroutine(),
	}
	if cpu, err := sm.GetCPUUsage(); err == nil {
		out["cpu_percent"] = fmt.Sprintf("%.1f", cpu)
	}
	if rss, err := sm.GetRSS(); err == nil {
		out["rss"] = humanize.Bytes(rss)
	}
	return out
}
