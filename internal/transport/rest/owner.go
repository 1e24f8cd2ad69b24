package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"slotbook/internal/domain"
)

func (s *Server) getSchedule(c *gin.Context) {
	ws, err := s.schedule.Get(c.Request.Context())
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, toSchedule(ws))
}

func (s *Server) initSchedule(c *gin.Context) {
	ws, created, err := s.schedule.InitDefaults(c.Request.Context())
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	code := http.StatusOK
	if created {
		s.log.Info("default schedule created")
		code = http.StatusCreated
	}
	c.JSON(code, toSchedule(ws))
}

type dayHoursRequest struct {
	Open  string `json:"open" binding:"required"`
	Close string `json:"close" binding:"required"`
}

func (s *Server) setScheduleDay(c *gin.Context) {
	day, err := domain.ParseWeekday(c.Param("weekday"))
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	var req dayHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "open and close are required")
		return
	}
	open, err := domain.ParseTimeOfDay(req.Open)
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	close, err := domain.ParseTimeOfDay(req.Close)
	if err != nil {
		writeError(c, s.log, err)
		return
	}

	ws, err := s.schedule.SetDay(c.Request.Context(), day, open, close)
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	s.log.Info("business hours updated",
		slog.String("weekday", day.String()),
		slog.String("open", open.String()),
		slog.String("close", close.String()),
	)
	c.JSON(http.StatusOK, toSchedule(ws))
}

func (s *Server) closeScheduleDay(c *gin.Context) {
	day, err := domain.ParseWeekday(c.Param("weekday"))
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	ws, err := s.schedule.CloseDay(c.Request.Context(), day)
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	s.log.Info("business day closed", slog.String("weekday", day.String()))
	c.JSON(http.StatusOK, toSchedule(ws))
}

// ownerAppointments lists appointments between the from and to dates, both
// inclusive. from defaults to today and to to a week later.
func (s *Server) ownerAppointments(c *gin.Context) {
	loc := s.booking.Location()
	from := domain.DateOf(time.Now(), loc)
	if raw := c.Query("from"); raw != "" {
		d, err := s.booking.ParseDate(raw)
		if err != nil {
			writeError(c, s.log, err)
			return
		}
		from = d
	}
	to := from.AddDate(0, 0, 7)
	if raw := c.Query("to"); raw != "" {
		d, err := s.booking.ParseDate(raw)
		if err != nil {
			writeError(c, s.log, err)
			return
		}
		to = d.AddDate(0, 0, 1)
	}

	rows, err := s.booking.ListAll(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": toAppointments(rows, loc)})
}

type reminderOptionRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) addReminderOption(c *gin.Context) {
	var req reminderOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}
	opt, err := s.booking.AddReminderOption(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	c.JSON(http.StatusCreated, reminderOptionResponse{ID: opt.ID, Name: opt.Name})
}
