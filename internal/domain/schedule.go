package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

var ErrCloseNotAfterOpen = errors.New("close time must be after open time")

// DayHours is the open interval of a single weekday. A zero value (open ==
// close) means the business is closed that day.
type DayHours struct {
	Open  TimeOfDay
	Close TimeOfDay
}

func (h DayHours) Closed() bool {
	return h.Close <= h.Open
}

// Contains reports whether [start, start+d) fits inside the day's hours.
func (h DayHours) Contains(start TimeOfDay, d time.Duration) bool {
	if h.Closed() {
		return false
	}
	return start >= h.Open && start.Add(d) <= h.Close
}

func (h DayHours) String() string {
	if h.Closed() {
		return "closed"
	}
	return h.Open.String() + "-" + h.Close.String()
}

// WeeklySchedule is the recurring business calendar. Days never set are
// closed.
type WeeklySchedule struct {
	days [Sunday + 1]DayHours
}

func (s *WeeklySchedule) Get(day Weekday) DayHours {
	if s == nil || !day.Valid() {
		return DayHours{}
	}
	return s.days[day]
}

func (s *WeeklySchedule) Set(day Weekday, open, close TimeOfDay) error {
	if !day.Valid() {
		return ErrInvalidWeekday
	}
	if open < Midnight || close > EndOfDay {
		return ErrInvalidTimeOfDay
	}
	if close <= open {
		return fmt.Errorf("%s: %w", day, ErrCloseNotAfterOpen)
	}
	s.days[day] = DayHours{Open: open, Close: close}
	return nil
}

func (s *WeeklySchedule) CloseDay(day Weekday) error {
	if !day.Valid() {
		return ErrInvalidWeekday
	}
	s.days[day] = DayHours{}
	return nil
}

func DefaultWeeklySchedule() WeeklySchedule {
	var s WeeklySchedule
	for _, d := range Weekdays() {
		s.days[d] = DayHours{Open: MustTimeOfDay("08:00"), Close: MustTimeOfDay("17:00")}
	}
	return s
}

// ScheduleDay is the persisted row for one weekday of the business calendar.
type ScheduleDay struct {
	bun.BaseModel `bun:"table:weekly_schedule"`

	Weekday     Weekday   `bun:"weekday,pk"`
	OpenMinute  int       `bun:"open_minute,notnull"`
	CloseMinute int       `bun:"close_minute,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

func (d *ScheduleDay) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		d.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (s WeeklySchedule) Rows() []ScheduleDay {
	days := Weekdays()
	rows := make([]ScheduleDay, 0, len(days))
	for _, d := range days {
		h := s.days[d]
		rows = append(rows, ScheduleDay{Weekday: d, OpenMinute: int(h.Open), CloseMinute: int(h.Close)})
	}
	return rows
}

// ScheduleFromRows rebuilds a schedule, rejecting rows that break the
// close-after-open invariant unless they encode a closed day.
func ScheduleFromRows(rows []ScheduleDay) (WeeklySchedule, error) {
	var s WeeklySchedule
	for _, r := range rows {
		if !r.Weekday.Valid() {
			return WeeklySchedule{}, ErrInvalidWeekday
		}
		if r.OpenMinute == r.CloseMinute {
			continue
		}
		if err := s.Set(r.Weekday, TimeOfDay(r.OpenMinute), TimeOfDay(r.CloseMinute)); err != nil {
			return WeeklySchedule{}, err
		}
	}
	return s, nil
}
