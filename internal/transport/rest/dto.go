package rest

import (
	"time"

	"slotbook/internal/domain"
)

type reminderOptionResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type appointmentResponse struct {
	ID              string                   `json:"id"`
	CustomerID      string                   `json:"customer_id"`
	Date            string                   `json:"date"`
	Time            string                   `json:"time"`
	StartTime       time.Time                `json:"start_time"`
	DurationMinutes int                      `json:"duration_minutes"`
	Status          string                   `json:"status"`
	CanceledAt      *time.Time               `json:"canceled_at,omitempty"`
	ReminderOptions []reminderOptionResponse `json:"reminder_options"`
}

type customerResponse struct {
	ID               string `json:"id"`
	FullName         string `json:"full_name"`
	Email            string `json:"email"`
	Phone            string `json:"phone,omitempty"`
	ReceiveReminders bool   `json:"receive_reminders"`
}

type scheduleDayResponse struct {
	Weekday string `json:"weekday"`
	Open    string `json:"open,omitempty"`
	Close   string `json:"close,omitempty"`
	Closed  bool   `json:"closed"`
}

type scheduleResponse struct {
	Days []scheduleDayResponse `json:"days"`
}

func toReminderOptions(opts []domain.ReminderOption) []reminderOptionResponse {
	out := make([]reminderOptionResponse, 0, len(opts))
	for _, o := range opts {
		out = append(out, reminderOptionResponse{ID: o.ID, Name: o.Name})
	}
	return out
}

func toAppointment(a domain.Appointment, loc *time.Location) appointmentResponse {
	start := a.StartTime.In(loc)
	return appointmentResponse{
		ID:              a.ID.String(),
		CustomerID:      a.CustomerID,
		Date:            start.Format(time.DateOnly),
		Time:            domain.TimeOfDayOf(start).String(),
		StartTime:       start,
		DurationMinutes: int(a.Duration() / time.Minute),
		Status:          string(a.Status),
		CanceledAt:      a.CanceledAt,
		ReminderOptions: toReminderOptions(a.ReminderOptions),
	}
}

func toAppointments(rows []domain.Appointment, loc *time.Location) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(rows))
	for _, a := range rows {
		out = append(out, toAppointment(a, loc))
	}
	return out
}

func toCustomer(c domain.Customer) customerResponse {
	return customerResponse{
		ID:               c.ID,
		FullName:         c.FullName,
		Email:            c.Email,
		Phone:            c.Phone,
		ReceiveReminders: c.ReceiveReminders,
	}
}

func toSchedule(ws domain.WeeklySchedule) scheduleResponse {
	days := make([]scheduleDayResponse, 0, 7)
	for _, d := range domain.Weekdays() {
		h := ws.Get(d)
		day := scheduleDayResponse{Weekday: d.String(), Closed: h.Closed()}
		if !day.Closed {
			day.Open = h.Open.String()
			day.Close = h.Close.String()
		}
		days = append(days, day)
	}
	return scheduleResponse{Days: days}
}
