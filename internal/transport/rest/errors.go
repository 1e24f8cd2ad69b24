package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"slotbook/internal/availability"
	"slotbook/internal/domain"
	"slotbook/internal/service/booking"
	"slotbook/internal/store"
)

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// writeError maps service and store errors onto HTTP responses. Anything
// unrecognized is logged and reported as an internal error.
func writeError(c *gin.Context, log *slog.Logger, err error) {
	var (
		vErr *booking.ValidationError
		rErr *booking.RejectedError
	)
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, errorResponse{Error: vErr.Error()})
	case errors.Is(err, domain.ErrInvalidWeekday),
		errors.Is(err, domain.ErrInvalidTimeOfDay),
		errors.Is(err, domain.ErrCloseNotAfterOpen):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &rErr):
		code := http.StatusUnprocessableEntity
		if rErr.Reason == availability.ReasonSlotTaken {
			code = http.StatusConflict
		}
		c.JSON(code, errorResponse{Error: rErr.Error(), Reason: string(rErr.Reason)})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse{
			Error:  "The selected slot was just booked. Pick a different time.",
			Reason: "conflict",
		})
	case errors.Is(err, store.ErrIdempotencyConflict):
		c.JSON(http.StatusConflict, errorResponse{Error: "This request key was already used for a different appointment. Try again."})
	case errors.Is(err, booking.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "Business hours are not configured yet."})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, store.ErrPastAppointment):
		c.JSON(http.StatusConflict, errorResponse{Error: "Past appointments cannot be canceled."})
	case errors.Is(err, store.ErrAlreadyCanceled):
		c.JSON(http.StatusConflict, errorResponse{Error: "The appointment is already canceled."})
	default:
		log.ErrorContext(c.Request.Context(), "request failed", slog.Any("err", err), slog.String("route", c.FullPath()))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}
