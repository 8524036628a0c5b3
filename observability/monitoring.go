// Package observability collects process and relay statistics for the
// debug endpoints and the periodic stats log.
package observability

import (
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// OnlineSource reports who is connected.
type OnlineSource interface {
	OnlineUsers() []string
}

// QueueSource reports the notification queue state.
type QueueSource interface {
	Pending() int
	Dropped() int64
}

// MonitoringStats is the snapshot served by /debug/stats.
type MonitoringStats struct {
	Uptime               string  `json:"uptime"`
	Goroutines           int     `json:"goroutines"`
	AllocMemMb           uint64  `json:"alloc_mem_mb"`
	NumGC                uint32  `json:"num_gc"`
	RSSMb                uint64  `json:"rss_mb"`
	CPUPercent           float64 `json:"cpu_percent"`
	NumThreads           int32   `json:"num_threads"`
	OnlineUsers          int     `json:"online_users"`
	ActiveConnections    int64   `json:"active_connections"`
	TotalConnections     uint64  `json:"total_connections"`
	FramesReceived       uint64  `json:"frames_received"`
	FramesDropped        uint64  `json:"frames_dropped"`
	PendingNotifications int     `json:"pending_notifications"`
	DroppedNotifications int64   `json:"dropped_notifications"`
}

// MonitoringManager aggregates counters fed by the transport with
// process metrics read through gopsutil.
type MonitoringManager struct {
	log       *slog.Logger
	startedAt time.Time
	proc      *process.Process
	online    OnlineSource
	queue     QueueSource

	activeConnections atomic.Int64
	totalConnections  atomic.Uint64
	framesReceived    atomic.Uint64
	framesDropped     atomic.Uint64

	mu     sync.RWMutex
	latest MonitoringStats
}

func NewMonitoringManager(log *slog.Logger, online OnlineSource, queue QueueSource) *MonitoringManager {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Process metrics unavailable", "error", err)
	}
	return &MonitoringManager{
		log:       log,
		startedAt: time.Now(),
		proc:      proc,
		online:    online,
		queue:     queue,
	}
}

func (mm *MonitoringManager) ConnectionOpened() {
	mm.activeConnections.Add(1)
	mm.totalConnections.Add(1)
}

func (mm *MonitoringManager) ConnectionClosed()   { mm.activeConnections.Add(-1) }
func (mm *MonitoringManager) IncrFramesReceived() { mm.framesReceived.Add(1) }
func (mm *MonitoringManager) IncrFramesDropped()  { mm.framesDropped.Add(1) }

// Refresh recomputes the snapshot and returns it.
func (mm *MonitoringManager) Refresh() MonitoringStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := MonitoringStats{
		Uptime:            time.Since(mm.startedAt).Round(time.Second).String(),
		Goroutines:        runtime.NumGoroutine(),
		AllocMemMb:        m.Alloc / 1024 / 1024,
		NumGC:             m.NumGC,
		ActiveConnections: mm.activeConnections.Load(),
		TotalConnections:  mm.totalConnections.Load(),
		FramesReceived:    mm.framesReceived.Load(),
		FramesDropped:     mm.framesDropped.Load(),
	}
	if mm.online != nil {
		stats.OnlineUsers = len(mm.online.OnlineUsers())
	}
	if mm.queue != nil {
		stats.PendingNotifications = mm.queue.Pending()
		stats.DroppedNotifications = mm.queue.Dropped()
	}
	if mm.proc != nil {
		if mem, err := mm.proc.MemoryInfo(); err == nil {
			stats.RSSMb = mem.RSS / 1024 / 1024
		}
		if cpu, err := mm.proc.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		}
		if threads, err := mm.proc.NumThreads(); err == nil {
			stats.NumThreads = threads
		}
	}

	mm.mu.Lock()
	mm.latest = stats
	mm.mu.Unlock()
	return stats
}

// GetLatest returns the last computed snapshot without touching the process.
func (mm *MonitoringManager) GetLatest() MonitoringStats {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.latest
}
