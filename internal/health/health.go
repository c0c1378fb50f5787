// Package health reports store reachability over the standard gRPC
// health protocol.
package health

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const Service = "doctors-portal"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Monitor struct {
	srv      *health.Server
	store    Pinger
	interval time.Duration
	log      zerolog.Logger
}

func NewMonitor(store Pinger, interval time.Duration, log zerolog.Logger) *Monitor {
	m := &Monitor{srv: health.NewServer(), store: store, interval: interval, log: log}
	m.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return m
}

func (m *Monitor) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, m.srv)
}

func (m *Monitor) set(st healthpb.HealthCheckResponse_ServingStatus) {
	m.srv.SetServingStatus("", st)
	m.srv.SetServingStatus(Service, st)
}

// Check pings the store once and publishes the result.
func (m *Monitor) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := m.store.Ping(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("store unreachable")
		m.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return err
	}
	m.set(healthpb.HealthCheckResponse_SERVING)
	return nil
}

// Run checks on every tick until ctx is done, then marks everything as
// not serving so watchers see the shutdown.
func (m *Monitor) Run(ctx context.Context) {
	t := time.NewTicker(m.interval)
	defer t.Stop()

	_ = m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			m.srv.Shutdown()
			return
		case <-t.C:
			_ = m.Check(ctx)
		}
	}
}
