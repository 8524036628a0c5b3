package observability

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type fakeOnline []string

func (f fakeOnline) OnlineUsers() []string { return f }

type fakeQueue struct {
	pending int
	dropped int64
}

func (f fakeQueue) Pending() int   { return f.pending }
func (f fakeQueue) Dropped() int64 { return f.dropped }

func TestMonitoringManager_Refresh(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(logs.GetLoggerFromLevel(slog.LevelDebug),
		fakeOnline{"alice", "bob"}, fakeQueue{pending: 3, dropped: 1})

	// Given two connections, one of them closed
	mm.ConnectionOpened()
	mm.ConnectionOpened()
	mm.ConnectionClosed()
	mm.IncrFramesReceived()
	mm.IncrFramesDropped()

	// When the snapshot is refreshed
	stats := mm.Refresh()

	// Then relay counters and process metrics are filled
	req.Equal(2, stats.OnlineUsers)
	req.Equal(int64(1), stats.ActiveConnections)
	req.Equal(uint64(2), stats.TotalConnections)
	req.Equal(uint64(1), stats.FramesReceived)
	req.Equal(uint64(1), stats.FramesDropped)
	req.Equal(3, stats.PendingNotifications)
	req.Equal(int64(1), stats.DroppedNotifications)
	req.Positive(stats.Goroutines)
	req.Equal(stats, mm.GetLatest())
}

func TestMonitoringManager_Without_Sources(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(logs.GetLoggerFromLevel(slog.LevelDebug), nil, nil)

	stats := mm.Refresh()

	req.Zero(stats.OnlineUsers)
	req.Zero(stats.PendingNotifications)
}
