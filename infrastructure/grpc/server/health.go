// Package server hosts the admin gRPC endpoints.
package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name probed by health checks for the relay itself.
const ServiceName = "chat-relay"

// HealthServer reports the relay as SERVING while its probe holds.
type HealthServer struct {
	health   *health.Server
	probe    func() bool
	interval time.Duration
	log      *slog.Logger
}

func NewHealthServer(probe func() bool, interval time.Duration, log *slog.Logger) *HealthServer {
	h := &HealthServer{health: health.NewServer(), probe: probe, interval: interval, log: log}
	h.set(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *HealthServer) Register(s *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(s, h.health)
}

// Run refreshes the serving status until ctx is done, then reports
// NOT_SERVING so load balancers drain the node.
func (h *HealthServer) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.refresh()
	for {
		select {
		case <-ctx.Done():
			h.health.Shutdown()
			return nil
		case <-ticker.C:
			h.refresh()
		}
	}
}

func (h *HealthServer) refresh() {
	if h.probe() {
		h.set(grpc_health_v1.HealthCheckResponse_SERVING)
		return
	}
	h.log.Debug("Relay not ready")
	h.set(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
}

func (h *HealthServer) set(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}
