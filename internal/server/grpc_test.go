package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// flakyPinger fails or succeeds on demand.
type flakyPinger struct {
	mu  sync.Mutex
	err error
}

func (p *flakyPinger) Ping() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *flakyPinger) set(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

func checkStatus(t *testing.T, s *Server) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := s.health.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	return resp.Status
}

func TestNew_HealthServiceRegistered(t *testing.T) {
	s := New()
	defer s.Stop()

	info := s.GetServiceInfo()
	if _, ok := info["grpc.health.v1.Health"]; !ok {
		t.Fatalf("health service not registered; have %v", info)
	}
	if got := checkStatus(t, s); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("initial status = %s, want NOT_SERVING", got)
	}
}

func TestServer_SetReady(t *testing.T) {
	s := New()
	defer s.Stop()

	s.SetReady(true)
	if got := checkStatus(t, s); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %s, want SERVING", got)
	}
	s.SetReady(false)
	if got := checkStatus(t, s); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status = %s, want NOT_SERVING", got)
	}
}

func TestServer_WatchReadiness_NilPinger(t *testing.T) {
	s := New()
	defer s.Stop()

	s.WatchReadiness(context.Background(), nil, time.Millisecond)
	if got := checkStatus(t, s); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %s, want SERVING with nil pinger", got)
	}
}

func TestServer_WatchReadiness_TracksPinger(t *testing.T) {
	s := New()
	defer s.Stop()

	pinger := &flakyPinger{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.WatchReadiness(ctx, pinger, 5*time.Millisecond)
		close(done)
	}()

	waitFor := func(want healthpb.HealthCheckResponse_ServingStatus) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for checkStatus(t, s) != want {
			if time.Now().After(deadline) {
				t.Fatalf("status never reached %s", want)
			}
			time.Sleep(5 * time.Millisecond)
		}
	}

	waitFor(healthpb.HealthCheckResponse_SERVING)

	pinger.set(errors.New("connection refused"))
	waitFor(healthpb.HealthCheckResponse_NOT_SERVING)

	pinger.set(nil)
	waitFor(healthpb.HealthCheckResponse_SERVING)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WatchReadiness did not stop on context cancel")
	}
}
