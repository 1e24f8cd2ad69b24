package booking

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"slotbook/internal/audit"
	"slotbook/internal/availability"
	"slotbook/internal/domain"
	"slotbook/internal/notify"
	"slotbook/internal/store"
)

// ScheduleSource provides the current weekly schedule.
type ScheduleSource interface {
	Get(ctx context.Context) (domain.WeeklySchedule, error)
}

type Deps struct {
	Appointments    store.AppointmentRepository
	Customers       store.CustomerRepository
	ReminderOptions store.ReminderOptionRepository
	Schedule        ScheduleSource
	Notifier        notify.Gateway
	Audit           audit.Sink
	Logger          *slog.Logger

	// Location is the business time zone every date and time is read in.
	Location     *time.Location
	SlotDuration time.Duration
	Now          func() time.Time
}

type Service struct {
	appts     store.AppointmentRepository
	customers store.CustomerRepository
	options   store.ReminderOptionRepository
	schedule  ScheduleSource
	notifier  notify.Gateway
	audit     audit.Sink
	log       *slog.Logger
	tracer    trace.Tracer

	loc      *time.Location
	duration time.Duration
	now      func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		appts:     d.Appointments,
		customers: d.Customers,
		options:   d.ReminderOptions,
		schedule:  d.Schedule,
		notifier:  d.Notifier,
		audit:     d.Audit,
		log:       d.Logger,
		tracer:    otel.Tracer("slotbook/booking"),
		loc:       d.Location,
		duration:  d.SlotDuration,
		now:       d.Now,
	}
	if s.audit == nil {
		s.audit = audit.Nop{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.duration <= 0 {
		s.duration = time.Hour
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) Location() *time.Location     { return s.loc }
func (s *Service) SlotDuration() time.Duration { return s.duration }

// ParseDate reads a YYYY-MM-DD date as midnight in the business location.
func (s *Service) ParseDate(raw string) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(raw), s.loc)
	if err != nil {
		return time.Time{}, validationError("date must be YYYY-MM-DD")
	}
	return d, nil
}

// AvailableHours lists the free slot start times on the calendar day of date.
func (s *Service) AvailableHours(ctx context.Context, date time.Time) ([]domain.TimeOfDay, error) {
	ctx, span := s.tracer.Start(ctx, "booking.AvailableHours")
	defer span.End()

	day := domain.DateOf(date, s.loc)
	span.SetAttributes(attribute.String("date", day.Format(time.DateOnly)))

	ws, booked, err := s.dayState(ctx, day)
	if err != nil {
		return nil, spanError(span, err)
	}
	slots, err := availability.AvailableSlots(&ws, day, s.duration, booked, s.now().In(s.loc))
	if err != nil {
		return nil, spanError(span, err)
	}
	span.SetAttributes(attribute.Int("slots", len(slots)))
	return slots, nil
}

type BookInput struct {
	CustomerID        string
	Date              time.Time
	Time              domain.TimeOfDay
	ReminderOptionIDs []int64
	IdempotencyKey    string
}

// Book validates the requested slot against a fresh view of the day and
// persists the appointment. A reminder is sent when the customer opted in;
// a failed notification does not fail the booking.
func (s *Service) Book(ctx context.Context, in BookInput) (domain.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Book")
	defer span.End()

	customerID := strings.TrimSpace(in.CustomerID)
	if customerID == "" {
		return domain.Appointment{}, validationError("customer_id is required")
	}
	if in.Time < domain.Midnight || in.Time >= domain.EndOfDay {
		return domain.Appointment{}, validationError("time must be HH:MM")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 256 {
		return domain.Appointment{}, validationError("idempotency_key too long")
	}

	day := domain.DateOf(in.Date, s.loc)
	start := in.Time.On(day, s.loc)
	span.SetAttributes(
		attribute.String("customer_id", customerID),
		attribute.String("start", start.Format(time.RFC3339)),
	)

	customer, err := s.customers.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, validationError("unknown customer")
		}
		return domain.Appointment{}, spanError(span, err)
	}

	opts, err := s.reminderOptions(ctx, in.ReminderOptionIDs)
	if err != nil {
		return domain.Appointment{}, spanError(span, err)
	}

	appt := domain.Appointment{
		CustomerID:      customerID,
		StartTime:       start,
		DurationSeconds: int(s.duration / time.Second),
		ReminderOptions: opts,
	}
	if key != "" {
		appt.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("slotbook:book:"+customerID+":"+key))
		existing, replayed, err := s.replay(ctx, appt)
		if err != nil {
			return domain.Appointment{}, spanError(span, err)
		}
		if replayed {
			span.SetAttributes(attribute.Bool("replayed", true))
			s.record(ctx, audit.ActionBook, audit.OutcomeReplayed, "", existing)
			return existing, nil
		}
	}

	ws, booked, err := s.dayState(ctx, day)
	if err != nil {
		return domain.Appointment{}, spanError(span, err)
	}
	if outcome := availability.Validate(&ws, start, s.duration, booked, s.now().In(s.loc)); !outcome.OK() {
		span.SetAttributes(attribute.String("rejected", string(outcome.Reason)))
		s.log.InfoContext(ctx, "booking rejected",
			slog.String("customer_id", customerID),
			slog.String("start", start.Format(time.RFC3339)),
			slog.String("reason", string(outcome.Reason)),
		)
		s.record(ctx, audit.ActionBook, audit.OutcomeRejected, string(outcome.Reason), appt)
		return domain.Appointment{}, &RejectedError{Reason: outcome.Reason}
	}

	created, replayed, err := s.appts.Create(ctx, appt)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			s.log.InfoContext(ctx, "appointment create conflict",
				slog.String("customer_id", customerID),
				slog.String("start", start.Format(time.RFC3339)),
			)
			s.record(ctx, audit.ActionBook, audit.OutcomeConflict, "", appt)
		case !errors.Is(err, store.ErrIdempotencyConflict) && !errors.Is(err, store.ErrAlreadyCanceled):
			s.record(ctx, audit.ActionBook, audit.OutcomeFailed, err.Error(), appt)
		}
		return domain.Appointment{}, spanError(span, err)
	}

	created.StartTime = created.StartTime.In(s.loc)
	if replayed {
		span.SetAttributes(attribute.Bool("replayed", true))
		s.record(ctx, audit.ActionBook, audit.OutcomeReplayed, "", created)
		return created, nil
	}
	s.record(ctx, audit.ActionBook, audit.OutcomeCreated, "", created)
	if customer.ReceiveReminders {
		s.notify(ctx, notify.KindReminder, customer, created)
	}
	return created, nil
}

// Cancel cancels a scheduled future appointment owned by customerID and
// always notifies the customer.
func (s *Service) Cancel(ctx context.Context, customerID string, appointmentID uuid.UUID) (domain.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Cancel")
	defer span.End()

	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return domain.Appointment{}, validationError("customer_id is required")
	}
	if appointmentID == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	span.SetAttributes(attribute.String("appointment_id", appointmentID.String()))

	canceled, err := s.appts.Cancel(ctx, customerID, appointmentID, s.now())
	if err != nil {
		return domain.Appointment{}, spanError(span, err)
	}
	canceled.StartTime = canceled.StartTime.In(s.loc)
	s.record(ctx, audit.ActionCancel, audit.OutcomeCanceled, "", canceled)

	customer, err := s.customers.GetCustomer(ctx, customerID)
	if err != nil {
		s.log.WarnContext(ctx, "cancellation notice without customer profile",
			slog.String("customer_id", customerID),
			slog.Any("err", err),
		)
		customer = domain.Customer{ID: customerID}
	}
	s.notify(ctx, notify.KindCancellation, customer, canceled)
	return canceled, nil
}

type CustomerAppointments struct {
	Upcoming []domain.Appointment
	Past     []domain.Appointment
}

// ListForCustomer splits a customer's appointments at the current time.
// Upcoming ones are soonest first, past ones most recent first.
func (s *Service) ListForCustomer(ctx context.Context, customerID string) (CustomerAppointments, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return CustomerAppointments{}, validationError("customer_id is required")
	}
	rows, err := s.appts.ListByCustomer(ctx, customerID)
	if err != nil {
		return CustomerAppointments{}, err
	}

	now := s.now()
	out := CustomerAppointments{Upcoming: []domain.Appointment{}, Past: []domain.Appointment{}}
	for _, a := range rows {
		a.StartTime = a.StartTime.In(s.loc)
		if a.IsPast(now) {
			out.Past = append(out.Past, a)
		} else {
			out.Upcoming = append(out.Upcoming, a)
		}
	}
	sort.SliceStable(out.Upcoming, func(i, j int) bool { return out.Upcoming[i].StartTime.Before(out.Upcoming[j].StartTime) })
	sort.SliceStable(out.Past, func(i, j int) bool { return out.Past[i].StartTime.After(out.Past[j].StartTime) })
	return out, nil
}

// ListAll returns every appointment starting in [windowStart, windowEnd).
func (s *Service) ListAll(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	if !windowEnd.After(windowStart) {
		return nil, validationError("to must be after from")
	}
	rows, err := s.appts.List(ctx, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].StartTime = rows[i].StartTime.In(s.loc)
	}
	return rows, nil
}

// dayState loads the schedule and the start times blocked on day.
func (s *Service) dayState(ctx context.Context, day time.Time) (domain.WeeklySchedule, map[domain.TimeOfDay]struct{}, error) {
	ws, err := s.schedule.Get(ctx)
	if err != nil {
		return domain.WeeklySchedule{}, nil, err
	}
	bookings, err := s.appts.BookingsOn(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return domain.WeeklySchedule{}, nil, err
	}
	return ws, domain.BlockedStarts(bookings), nil
}

func (s *Service) reminderOptions(ctx context.Context, ids []int64) ([]domain.ReminderOption, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, validationError("invalid reminder option")
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	opts, err := s.options.FindReminderOptions(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(opts) != len(unique) {
		return nil, validationError("unknown reminder option")
	}
	return opts, nil
}

// replay returns the appointment already stored under the idempotent ID. A
// key whose appointment was canceled since is not replayed.
func (s *Service) replay(ctx context.Context, appt domain.Appointment) (domain.Appointment, bool, error) {
	existing, err := s.appts.Get(ctx, appt.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, false, nil
		}
		return domain.Appointment{}, false, err
	}
	if existing.CustomerID != appt.CustomerID ||
		!existing.StartTime.Equal(appt.StartTime) ||
		existing.DurationSeconds != appt.DurationSeconds {
		return domain.Appointment{}, false, store.ErrIdempotencyConflict
	}
	if !existing.Scheduled() {
		return domain.Appointment{}, false, store.ErrAlreadyCanceled
	}
	existing.StartTime = existing.StartTime.In(s.loc)
	return existing, true, nil
}

func (s *Service) notify(ctx context.Context, kind notify.Kind, c domain.Customer, a domain.Appointment) {
	if s.notifier == nil {
		return
	}
	names := make([]string, 0, len(a.ReminderOptions))
	for _, o := range a.ReminderOptions {
		names = append(names, o.Name)
	}
	s.notifier.Notify(ctx, notify.Notification{
		Kind:            kind,
		Recipient:       notify.Recipient{CustomerID: c.ID, Name: c.FullName, Email: c.Email},
		AppointmentID:   a.ID,
		StartTime:       a.StartTime,
		DurationSeconds: a.DurationSeconds,
		ReminderOptions: names,
	})
}

func (s *Service) record(ctx context.Context, action audit.Action, outcome audit.Outcome, reason string, a domain.Appointment) {
	s.audit.Record(ctx, audit.Event{
		At:            s.now().UTC(),
		Action:        action,
		Outcome:       outcome,
		Reason:        reason,
		AppointmentID: a.ID,
		CustomerID:    a.CustomerID,
		SlotStart:     a.StartTime,
	})
}

func spanError(span trace.Span, err error) error {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
