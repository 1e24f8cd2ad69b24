package availability

import (
	"time"

	"slotbook/internal/domain"
)

type Reason string

const (
	ReasonPastTime             Reason = "past_time"
	ReasonOutsideBusinessHours Reason = "outside_business_hours"
	ReasonNotOnSlotBoundary    Reason = "not_on_slot_boundary"
	ReasonSlotTaken            Reason = "slot_taken"
)

func (r Reason) Message() string {
	switch r {
	case ReasonPastTime:
		return "The selected time is in the past."
	case ReasonOutsideBusinessHours:
		return "Invalid appointment time. Please choose a time within business hours."
	case ReasonNotOnSlotBoundary:
		return "The selected time does not match an available slot."
	case ReasonSlotTaken:
		return "An appointment already exists at the selected date and time."
	default:
		return string(r)
	}
}

// Outcome is the result of validating a proposed booking. The zero value
// accepts the booking.
type Outcome struct {
	Reason Reason
}

func (o Outcome) OK() bool {
	return o.Reason == ""
}

func Rejected(r Reason) Outcome {
	return Outcome{Reason: r}
}

// Validate checks a proposed start against the schedule and the current
// bookings of its date. Checks run in order and the first failure wins: past
// time, business hours, slot grid, then taken slot. The grid is the one
// AvailableSlots walks for the same now, so every offered slot is accepted. proposedStart must be
// expressed in the business location. A nil schedule has no business hours.
func Validate(schedule *domain.WeeklySchedule, proposedStart time.Time, duration time.Duration, booked map[domain.TimeOfDay]struct{}, now time.Time) Outcome {
	if proposedStart.Before(now) {
		return Rejected(ReasonPastTime)
	}

	hours := schedule.Get(domain.WeekdayOf(proposedStart))
	start := domain.TimeOfDayOf(proposedStart)
	if !validDuration(duration) || !hours.Contains(start, duration) {
		return Rejected(ReasonOutsideBusinessHours)
	}

	if proposedStart.Second() != 0 || proposedStart.Nanosecond() != 0 {
		return Rejected(ReasonNotOnSlotBoundary)
	}
	anchor := gridStart(hours, domain.DateOf(proposedStart, proposedStart.Location()), now)
	if start < anchor || time.Duration(start-anchor)*time.Minute%duration != 0 {
		return Rejected(ReasonNotOnSlotBoundary)
	}

	if _, taken := booked[start]; taken {
		return Rejected(ReasonSlotTaken)
	}
	return Outcome{}
}
