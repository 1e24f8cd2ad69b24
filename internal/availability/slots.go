package availability

import (
	"errors"
	"time"

	"slotbook/internal/domain"
)

var (
	// ErrNoSchedule means no weekly schedule has been configured yet.
	ErrNoSchedule      = errors.New("weekly schedule not configured")
	ErrInvalidDuration = errors.New("slot duration must be a positive whole number of minutes")
)

// AvailableSlots returns the bookable start times on date, in ascending order.
//
// date is interpreted in its own location, which must be the business
// location. booked holds start times of scheduled bookings on that date; a
// booking blocks exactly its own start time. On the current day the first
// slot starts at the later of the opening time and now (rounded up to the
// minute), and the following ones step by duration from there. Dates before
// today have no slots.
func AvailableSlots(schedule *domain.WeeklySchedule, date time.Time, duration time.Duration, booked map[domain.TimeOfDay]struct{}, now time.Time) ([]domain.TimeOfDay, error) {
	if schedule == nil {
		return nil, ErrNoSchedule
	}
	if !validDuration(duration) {
		return nil, ErrInvalidDuration
	}

	loc := date.Location()
	day := domain.DateOf(date, loc)
	today := domain.DateOf(now, loc)
	if day.Before(today) {
		return []domain.TimeOfDay{}, nil
	}

	hours := schedule.Get(domain.WeekdayOf(day))
	if hours.Closed() {
		return []domain.TimeOfDay{}, nil
	}

	cursor := gridStart(hours, day, now)
	slots := make([]domain.TimeOfDay, 0, capacity(hours, duration))
	for ; cursor.Add(duration) <= hours.Close; cursor = cursor.Add(duration) {
		if _, taken := booked[cursor]; taken {
			continue
		}
		slots = append(slots, cursor)
	}
	return slots, nil
}

// gridStart is the first candidate start on day: the opening time, or on the
// current day the first whole minute not before now if that is later.
func gridStart(h domain.DayHours, day, now time.Time) domain.TimeOfDay {
	loc := day.Location()
	if !domain.SameDate(day, now, loc) {
		return h.Open
	}
	local := now.In(loc)
	minute := domain.TimeOfDayOf(local)
	if local.Second() != 0 || local.Nanosecond() != 0 {
		minute = minute.Add(time.Minute)
	}
	if minute > h.Open {
		return minute
	}
	return h.Open
}

func validDuration(d time.Duration) bool {
	return d >= time.Minute && d%time.Minute == 0
}

func capacity(h domain.DayHours, d time.Duration) int {
	n := int(time.Duration(h.Close-h.Open) * time.Minute / d)
	if n < 0 {
		return 0
	}
	return n
}
