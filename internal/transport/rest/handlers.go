package rest

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"slotbook/internal/domain"
	"slotbook/internal/service/booking"
)

func (s *Server) availableHours(c *gin.Context) {
	date, err := s.booking.ParseDate(c.Query("date"))
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	slots, err := s.booking.AvailableHours(c.Request.Context(), date)
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	hours := make([]string, 0, len(slots))
	for _, t := range slots {
		hours = append(hours, t.String())
	}
	c.JSON(http.StatusOK, gin.H{"date": date.Format(time.DateOnly), "hours": hours})
}

type bookRequest struct {
	CustomerID      string  `json:"customer_id" binding:"required"`
	Date            string  `json:"date" binding:"required"`
	Time            string  `json:"time" binding:"required"`
	ReminderOptions []int64 `json:"reminder_options"`
}

func (s *Server) bookAppointment(c *gin.Context) {
	log := s.log.With(slog.String("route", "BookAppointment"))

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		badRequest(c, "customer_id, date and time are required")
		return
	}
	date, err := s.booking.ParseDate(req.Date)
	if err != nil {
		writeError(c, log, err)
		return
	}
	tod, err := domain.ParseTimeOfDay(req.Time)
	if err != nil {
		badRequest(c, "time must be HH:MM")
		return
	}

	appt, err := s.booking.Book(c.Request.Context(), booking.BookInput{
		CustomerID:        req.CustomerID,
		Date:              date,
		Time:              tod,
		ReminderOptionIDs: req.ReminderOptions,
		IdempotencyKey:    idempotencyKey(c),
	})
	if err != nil {
		writeError(c, log, err)
		return
	}

	log.Info("appointment created",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("customer_id", appt.CustomerID),
		slog.Time("start_time", appt.StartTime),
	)
	c.JSON(http.StatusCreated, toAppointment(appt, s.booking.Location()))
}

func idempotencyKey(c *gin.Context) string {
	key := c.GetHeader("Idempotency-Key")
	if key == "" {
		key = c.GetHeader("X-Idempotency-Key")
	}
	return strings.TrimSpace(key)
}

type cancelRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
}

func (s *Server) cancelAppointment(c *gin.Context) {
	log := s.log.With(slog.String("route", "CancelAppointment"))

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid appointment id")
		return
	}
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "customer_id is required")
		return
	}

	appt, err := s.booking.Cancel(c.Request.Context(), req.CustomerID, id)
	if err != nil {
		writeError(c, log, err)
		return
	}
	log.Info("appointment canceled",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("customer_id", appt.CustomerID),
	)
	c.JSON(http.StatusOK, toAppointment(appt, s.booking.Location()))
}

func (s *Server) getCustomer(c *gin.Context) {
	cust, err := s.booking.Customer(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, toCustomer(cust))
}

type customerRequest struct {
	FullName         string `json:"full_name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	ReceiveReminders *bool  `json:"receive_reminders"`
}

func (s *Server) putCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid customer payload")
		return
	}
	receive := true
	if req.ReceiveReminders != nil {
		receive = *req.ReceiveReminders
	}
	cust, err := s.booking.SaveCustomer(c.Request.Context(), booking.CustomerInput{
		ID:               c.Param("id"),
		FullName:         req.FullName,
		Email:            req.Email,
		Phone:            req.Phone,
		ReceiveReminders: receive,
	})
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, toCustomer(cust))
}

func (s *Server) customerAppointments(c *gin.Context) {
	list, err := s.booking.ListForCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	loc := s.booking.Location()
	c.JSON(http.StatusOK, gin.H{
		"upcoming": toAppointments(list.Upcoming, loc),
		"past":     toAppointments(list.Past, loc),
	})
}

func (s *Server) listReminderOptions(c *gin.Context) {
	opts, err := s.booking.ReminderOptions(c.Request.Context())
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reminder_options": toReminderOptions(opts)})
}
