package handler

import (
	"context"
	"log"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger is a backing store the health service depends on.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves grpc.health.v1.Health. The overall status is SERVING
// only while every dependency answers its ping.
type HealthHandler struct {
	*health.Server
	deps     map[string]Pinger
	interval time.Duration
}

func NewHealthHandler(deps map[string]Pinger, interval time.Duration) *HealthHandler {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	h := &HealthHandler{
		Server:   health.NewServer(),
		deps:     deps,
		interval: interval,
	}
	h.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// CheckNow pings every dependency once and publishes the resulting status.
func (h *HealthHandler) CheckNow(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, dep := range h.deps {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := dep.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Printf("[health][grpc] dependency down name=%s err=%v", name, err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.SetServingStatus("", status)
	return status
}

// Run re-checks dependencies every interval until ctx is done, then marks
// the server NOT_SERVING for the rest of its life.
func (h *HealthHandler) Run(ctx context.Context) {
	h.CheckNow(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.Shutdown()
			return
		case <-ticker.C:
			h.CheckNow(ctx)
		}
	}
}
