package server

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/seu-repo/autospace/internal/adapter/grpc/interceptors"
	"github.com/seu-repo/autospace/internal/ports"
)

type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	log    *zap.Logger
}

func NewGRPCServer(sessions ports.SessionService, auth ports.AuthService, log *zap.Logger, opts ...grpc.ServerOption) *GRPCServer {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		interceptors.UnaryLoggingInterceptor(log),
		interceptors.UnaryMetricsInterceptor(),
		interceptors.UnaryErrorInterceptor(),
		interceptors.UnaryAuthInterceptor(auth),
	))
	s := grpc.NewServer(opts...)

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(s, healthSrv)
	s.RegisterService(&SessionServiceDesc, newSessionGrpcService(sessions, log))

	// Enable reflection for debugging (e.g. grpcurl)
	reflection.Register(s)

	return &GRPCServer{
		server: s,
		health: healthSrv,
		log:    log,
	}
}

func (s *GRPCServer) Serve(lis net.Listener) error {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(SessionServiceName, healthpb.HealthCheckResponse_SERVING)
	return s.server.Serve(lis)
}

// WatchReadiness mirrors ready into the gRPC health status until ctx ends.
func (s *GRPCServer) WatchReadiness(ctx context.Context, interval time.Duration, ready func(ctx context.Context) bool) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok := ready(ctx)
			if ok == last {
				continue
			}
			last = ok
			st := healthpb.HealthCheckResponse_SERVING
			if !ok {
				st = healthpb.HealthCheckResponse_NOT_SERVING
			}
			s.health.SetServingStatus(SessionServiceName, st)
			s.log.Warn("gRPC serving status changed", zap.String("status", st.String()))
		}
	}
}

func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
