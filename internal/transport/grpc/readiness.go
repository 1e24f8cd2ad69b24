package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// WatchReadiness polls check every interval and mirrors the result into the
// health server until ctx is done. On exit the server is marked NOT_SERVING.
func WatchReadiness(ctx context.Context, hs *health.Server, check func(ctx context.Context) error, interval time.Duration, log *slog.Logger) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	serving := false
	probe := func() {
		checkCtx, cancel := context.WithTimeout(ctx, interval)
		err := check(checkCtx)
		cancel()

		ok := err == nil
		if ok != serving {
			if ok {
				log.Info("dependencies ready")
			} else {
				log.Warn("dependencies not ready", slog.Any("err", err))
			}
		}
		serving = ok
		setServing(hs, ok)
	}

	probe()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
			probe()
		}
	}
}

func setServing(hs *health.Server, ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	hs.SetServingStatus("", status)
	hs.SetServingStatus(ServiceName, status)
}
