package grpcserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/md-rashed-zaman/medportal/libs/grpcx"
	"github.com/md-rashed-zaman/medportal/libs/runtime"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthFollowsChecks(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	var failing atomic.Bool
	check := runtime.ReadyCheck{Name: "redis", Check: func(context.Context) error {
		if failing.Load() {
			return errors.New("down")
		}
		return nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := New(slog.New(slog.NewTextHandler(io.Discard, nil)), check)
	srv.Start(ctx, lis, time.Hour)

	conn, err := grpcx.Dial(ctx, lis.Addr().String(), grpcx.DialOptions{Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %s", resp.GetStatus())
	}

	failing.Store(true)
	srv.refresh(ctx)
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING, got %s", resp.GetStatus())
	}
}
