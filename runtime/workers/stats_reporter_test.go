package workers

import (
	"chat-relay/observability"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestStatsReporterWorker_Refreshes_Snapshot(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	monitoring := observability.NewMonitoringManager(log, nil, nil)
	monitoring.ConnectionOpened()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := NewStatsReporterWorker(monitoring, 10*time.Millisecond, log).Run(ctx)

	req.NoError(err)
	req.Equal(int64(1), monitoring.GetLatest().ActiveConnections)
}
