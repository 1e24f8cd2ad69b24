package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"

	"slotbook/internal/audit"
	"slotbook/internal/config"
	"slotbook/internal/notify"
	"slotbook/internal/otelx"
	"slotbook/internal/ratelimit"
	"slotbook/internal/service/booking"
	"slotbook/internal/service/schedule"
	"slotbook/internal/store/postgres"
	grpcTransport "slotbook/internal/transport/grpc"
	"slotbook/internal/transport/rest"
)

const auditFlushInterval = 5 * time.Second

func newServerCmd(a *app) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API and the gRPC health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg, newLogger(cfg.LogLevel), migrate)
		},
	}

	cmd.Flags().String("http-addr", "", "HTTP listen address")
	cmd.Flags().String("grpc-addr", "", "gRPC listen address")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply database migrations before serving")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	_ = a.v.BindPFlag("http.addr", cmd.Flags().Lookup("http-addr"))
	_ = a.v.BindPFlag("grpc.addr", cmd.Flags().Lookup("grpc-addr"))

	return cmd
}

func runServer(ctx context.Context, cfg config.Config, log *slog.Logger, migrate bool) error {
	log.Info("starting",
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("grpc_addr", cfg.GRPCAddr),
		slog.String("log_level", cfg.LogLevel),
		slog.String("location", cfg.BusinessLocation.String()),
		slog.Duration("slot_duration", cfg.SlotDuration),
	)

	shutdownTracing, err := otelx.Setup(ctx, otelx.Config{
		Enabled:     cfg.OTelEnabled,
		ServiceName: "slotbook",
		Endpoint:    cfg.OTelEndpoint,
		SampleRatio: cfg.OTelSamplingRatio,
		Version:     Version,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracer shutdown failed", slog.Any("err", err))
		}
	}()

	db, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	if migrate {
		applied, err := postgres.Migrate(ctx, db)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied", slog.Int("count", len(applied)))
	}

	calendar := postgres.NewCalendarRepo(db)
	scheduleSvc := schedule.NewService(calendar, cfg.ScheduleCacheTTL)

	sender, err := notify.NewSender(notify.Config{
		Driver:       cfg.NotifyDriver,
		KafkaBrokers: notify.SplitBrokers(cfg.KafkaBrokers),
		TopicPrefix:  cfg.KafkaTopicPrefix,
		AMQPURL:      cfg.AMQPURL,
		Exchange:     cfg.AMQPExchange,
	}, log)
	if err != nil {
		return fmt.Errorf("notifications: %w", err)
	}
	dispatcher := notify.NewDispatcher(sender, log, cfg.NotifyTimeout)
	defer func() {
		if err := dispatcher.Close(); err != nil {
			log.Warn("notification sender close failed", slog.Any("err", err))
		}
	}()

	var sink audit.Sink = audit.Nop{}
	if cfg.AuditClickHouseDSN != "" {
		ch, err := audit.NewClickHouse(ctx, cfg.AuditClickHouseDSN, log)
		if err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		auditCtx, stopAudit := context.WithCancel(context.Background())
		auditDone := make(chan struct{})
		go func() {
			defer close(auditDone)
			ch.Run(auditCtx, auditFlushInterval)
		}()
		defer func() {
			stopAudit()
			<-auditDone
			if err := ch.Close(); err != nil {
				log.Warn("audit close failed", slog.Any("err", err))
			}
		}()
		sink = ch
	}

	checks := []func(context.Context) error{postgres.ReadyCheck(db)}

	var limiter gin.HandlerFunc
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn("redis close failed", slog.Any("err", err))
			}
		}()
		limiter = ratelimit.New(ratelimit.NewRedisCounter(rdb), cfg.BookingRateLimit, cfg.RateLimitWindow, "slotbook:book").
			Middleware(log)
		checks = append(checks, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	ready := func(ctx context.Context) error {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	bookingSvc := booking.NewService(booking.Deps{
		Appointments:    postgres.NewAppointmentRepo(db),
		Customers:       postgres.NewCustomerRepo(db),
		ReminderOptions: calendar,
		Schedule:        scheduleSvc,
		Notifier:        dispatcher,
		Audit:           sink,
		Logger:          log,
		Location:        cfg.BusinessLocation,
		SlotDuration:    cfg.SlotDuration,
	})

	if parseLogLevel(cfg.LogLevel) != slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	var handler http.Handler = rest.NewRouter(rest.Config{
		Booking:        bookingSvc,
		Schedule:       scheduleSvc,
		Logger:         log,
		Ready:          ready,
		RequestTimeout: cfg.HTTPRequestTimeout,
		BookingLimiter: limiter,
	})
	if cfg.OTelEnabled {
		handler = otelhttp.NewHandler(handler, "slotbook.http")
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer, hs := grpcTransport.NewServer(grpcTransport.Config{
		Logger:         log,
		RequestTimeout: cfg.HTTPRequestTimeout,
		Tracing:        cfg.OTelEnabled,
	})

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr))
		return err
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go grpcTransport.WatchReadiness(watchCtx, hs, ready, 5*time.Second, log)

	errCh := make(chan error, 2)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	log.Info("servers started", slog.String("http_addr", cfg.HTTPAddr), slog.String("grpc_addr", cfg.GRPCAddr))

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped with error", slog.Any("err", err))
			serveErr = err
		}
	}

	stopWatch()
	shutdown(log, httpServer, grpcServer, cfg.ShutdownTimeout)
	return serveErr
}

func shutdown(log *slog.Logger, h *http.Server, s *grpc.Server, timeout time.Duration) {
	log.Info("shutting down servers", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := h.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown failed", slog.Any("err", err))
	}

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-ctx.Done():
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.Stop()
	}
}
