// Package server builds the gRPC server: OTel instrumentation and the standard
// health service used by Kubernetes and load balancers for readiness.
package server

import (
	"context"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger reports backing-store reachability (e.g. *sql.DB).
type Pinger interface {
	Ping() error
}

// Server wraps the gRPC server together with its health reporter.
type Server struct {
	*grpc.Server
	health *health.Server
}

// New returns a gRPC server with the otelgrpc stats handler and the standard
// grpc.health.v1 service registered. Readiness starts as NOT_SERVING until
// SetReady or WatchReadiness flips it.
func New() *Server {
	s := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	h := health.NewServer()
	h.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, h)
	return &Server{Server: s, health: h}
}

// SetReady flips the overall health status between SERVING and NOT_SERVING.
func (s *Server) SetReady(ready bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ready {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
}

// WatchReadiness pings the backing store every interval and updates health
// status accordingly, until ctx is done. pinger may be nil; the server is then
// marked serving immediately.
func (s *Server) WatchReadiness(ctx context.Context, pinger Pinger, interval time.Duration) {
	if pinger == nil {
		s.SetReady(true)
		return
	}
	s.SetReady(pinger.Ping() == nil)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SetReady(pinger.Ping() == nil)
		}
	}
}
