package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"slotbook/internal/domain"
	"slotbook/internal/service/booking"
)

type bookingService interface {
	Location() *time.Location
	ParseDate(raw string) (time.Time, error)
	AvailableHours(ctx context.Context, date time.Time) ([]domain.TimeOfDay, error)
	Book(ctx context.Context, in booking.BookInput) (domain.Appointment, error)
	Cancel(ctx context.Context, customerID string, appointmentID uuid.UUID) (domain.Appointment, error)
	ListForCustomer(ctx context.Context, customerID string) (booking.CustomerAppointments, error)
	ListAll(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Appointment, error)
	Customer(ctx context.Context, id string) (domain.Customer, error)
	SaveCustomer(ctx context.Context, in booking.CustomerInput) (domain.Customer, error)
	ReminderOptions(ctx context.Context) ([]domain.ReminderOption, error)
	AddReminderOption(ctx context.Context, name string) (domain.ReminderOption, error)
}

type scheduleService interface {
	Get(ctx context.Context) (domain.WeeklySchedule, error)
	SetDay(ctx context.Context, day domain.Weekday, open, close domain.TimeOfDay) (domain.WeeklySchedule, error)
	CloseDay(ctx context.Context, day domain.Weekday) (domain.WeeklySchedule, error)
	InitDefaults(ctx context.Context) (domain.WeeklySchedule, bool, error)
}

type Config struct {
	Booking  bookingService
	Schedule scheduleService
	Logger   *slog.Logger
	// Ready reports whether dependencies can serve traffic. Nil means always ready.
	Ready          func(ctx context.Context) error
	RequestTimeout time.Duration
	// BookingLimiter guards booking submission when set.
	BookingLimiter gin.HandlerFunc
}

type Server struct {
	booking  bookingService
	schedule scheduleService
	log      *slog.Logger
	ready    func(ctx context.Context) error
}

func NewRouter(cfg Config) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		booking:  cfg.Booking,
		schedule: cfg.Schedule,
		log:      log.With(slog.String("component", "http")),
		ready:    cfg.Ready,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log), requestTimeout(cfg.RequestTimeout))

	r.GET("/healthz", s.healthz)
	r.GET("/readyz", s.readyz)

	api := r.Group("/api/v1")
	api.GET("/available-hours", s.availableHours)
	api.GET("/reminder-options", s.listReminderOptions)

	book := []gin.HandlerFunc{s.bookAppointment}
	if cfg.BookingLimiter != nil {
		book = append([]gin.HandlerFunc{cfg.BookingLimiter}, book...)
	}
	api.POST("/appointments", book...)
	api.POST("/appointments/:id/cancel", s.cancelAppointment)

	api.GET("/customers/:id", s.getCustomer)
	api.PUT("/customers/:id", s.putCustomer)
	api.GET("/customers/:id/appointments", s.customerAppointments)

	owner := api.Group("/owner")
	owner.GET("/schedule", s.getSchedule)
	owner.POST("/schedule/init", s.initSchedule)
	owner.PUT("/schedule/:weekday", s.setScheduleDay)
	owner.DELETE("/schedule/:weekday", s.closeScheduleDay)
	owner.GET("/appointments", s.ownerAppointments)
	owner.POST("/reminder-options", s.addReminderOption)

	return r
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) readyz(c *gin.Context) {
	if s.ready != nil {
		if err := s.ready(c.Request.Context()); err != nil {
			s.log.Warn("not ready", slog.Any("err", err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.Log(c.Request.Context(), level, "request",
			slog.String("method", c.Request.Method),
			slog.String("route", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}

// requestTimeout applies a default deadline to requests that carry none.
func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return func(c *gin.Context) {
		if _, ok := c.Request.Context().Deadline(); ok {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
