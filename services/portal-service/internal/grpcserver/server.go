package grpcserver

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/md-rashed-zaman/medportal/libs/grpcx"
	"github.com/md-rashed-zaman/medportal/libs/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name probes pass to grpc.health.v1.Health/Check.
const ServiceName = "medportal.portal.v1"

// Server exposes gRPC health for the portal. Serving status follows the readiness checks.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger *slog.Logger
	checks []runtime.ReadyCheck
}

func New(logger *slog.Logger, checks ...runtime.ReadyCheck) *Server {
	srv := grpc.NewServer(grpcx.ServerOptions(logger)...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return &Server{grpc: srv, health: hs, logger: logger, checks: checks}
}

// Start serves on lis until ctx is done.
func (s *Server) Start(ctx context.Context, lis net.Listener, probeEvery time.Duration) {
	s.refresh(ctx)

	go func() {
		s.logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := s.grpc.Serve(lis); err != nil {
			s.logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		if probeEvery <= 0 {
			probeEvery = 10 * time.Second
		}
		ticker := time.NewTicker(probeEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.health.Shutdown()
				s.grpc.GracefulStop()
				return
			case <-ticker.C:
				s.refresh(ctx)
			}
		}
	}()
}

func (s *Server) refresh(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if failures := runtime.RunChecks(ctx, s.checks...); len(failures) > 0 {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn("dependency checks failing", "failures", failures)
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
