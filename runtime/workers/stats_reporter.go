package workers

import (
	"chat-relay/observability"
	"context"
	"log/slog"
	"time"
)

// StatsReporterWorker refreshes the monitoring snapshot on a fixed interval
// and logs it at debug level.
type StatsReporterWorker struct {
	monitoring *observability.MonitoringManager
	interval   time.Duration
	log        *slog.Logger
}

func NewStatsReporterWorker(monitoring *observability.MonitoringManager, interval time.Duration, log *slog.Logger) *StatsReporterWorker {
	return &StatsReporterWorker{monitoring: monitoring, interval: interval, log: log}
}

func (w *StatsReporterWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping stats reporter")
			return nil
		case <-ticker.C:
			stats := w.monitoring.Refresh()
			w.log.Debug("Relay stats",
				"uptime", stats.Uptime,
				"online_users", stats.OnlineUsers,
				"connections", stats.ActiveConnections,
				"frames_dropped", stats.FramesDropped,
				"pending_notifications", stats.PendingNotifications,
				"mem_mb", stats.AllocMemMb,
			)
		}
	}
}
