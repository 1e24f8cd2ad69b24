package grpc

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported alongside the overall
// server status.
const ServiceName = "slotbook.Booking"

type Config struct {
	Logger         *slog.Logger
	RequestTimeout time.Duration
	Tracing        bool
}

// NewServer builds a gRPC server exposing the standard health service and
// reflection. Health starts NOT_SERVING until readiness is reported.
func NewServer(cfg Config) (*grpc.Server, *health.Server) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "grpc"))

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			defaultRequestTimeoutInterceptor(cfg.RequestTimeout),
			loggingInterceptor(log),
		),
	}
	if cfg.Tracing {
		opts = append(opts, grpc.StatsHandler(otelgrpc.NewServerHandler()))
	}

	s := grpc.NewServer(opts...)
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)
	return s, hs
}

func defaultRequestTimeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}

func loggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			log.WarnContext(ctx, "rpc failed",
				slog.String("rpc", info.FullMethod),
				slog.Duration("duration", time.Since(start)),
				slog.Any("err", err),
			)
			return resp, err
		}
		log.DebugContext(ctx, "rpc",
			slog.String("rpc", info.FullMethod),
			slog.Duration("duration", time.Since(start)),
		)
		return resp, nil
	}
}
