package booking

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"slotbook/internal/audit"
	"slotbook/internal/availability"
	"slotbook/internal/domain"
	"slotbook/internal/notify"
	"slotbook/internal/store"
)

type fakeAppointments struct {
	bookingsOnFn     func(ctx context.Context, dayStart, dayEnd time.Time) ([]domain.Booking, error)
	createFn         func(ctx context.Context, appt domain.Appointment) (domain.Appointment, bool, error)
	cancelFn         func(ctx context.Context, customerID string, appointmentID uuid.UUID, now time.Time) (domain.Appointment, error)
	getFn            func(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error)
	listFn           func(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Appointment, error)
	listByCustomerFn func(ctx context.Context, customerID string) ([]domain.Appointment, error)
}

func (f *fakeAppointments) BookingsOn(ctx context.Context, dayStart, dayEnd time.Time) ([]domain.Booking, error) {
	if f.bookingsOnFn == nil {
		panic("BookingsOn not configured")
	}
	return f.bookingsOnFn(ctx, dayStart, dayEnd)
}

func (f *fakeAppointments) Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, bool, error) {
	if f.createFn == nil {
		panic("Create not configured")
	}
	return f.createFn(ctx, appt)
}

func (f *fakeAppointments) Cancel(ctx context.Context, customerID string, appointmentID uuid.UUID, now time.Time) (domain.Appointment, error) {
	if f.cancelFn == nil {
		panic("Cancel not configured")
	}
	return f.cancelFn(ctx, customerID, appointmentID, now)
}

func (f *fakeAppointments) Get(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error) {
	if f.getFn == nil {
		panic("Get not configured")
	}
	return f.getFn(ctx, appointmentID)
}

func (f *fakeAppointments) List(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	if f.listFn == nil {
		panic("List not configured")
	}
	return f.listFn(ctx, windowStart, windowEnd)
}

func (f *fakeAppointments) ListByCustomer(ctx context.Context, customerID string) ([]domain.Appointment, error) {
	if f.listByCustomerFn == nil {
		panic("ListByCustomer not configured")
	}
	return f.listByCustomerFn(ctx, customerID)
}

type fakeCustomers struct {
	getFn    func(ctx context.Context, id string) (domain.Customer, error)
	upsertFn func(ctx context.Context, c domain.Customer) (domain.Customer, error)
}

func (f *fakeCustomers) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	if f.getFn == nil {
		panic("GetCustomer not configured")
	}
	return f.getFn(ctx, id)
}

func (f *fakeCustomers) UpsertCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	if f.upsertFn == nil {
		panic("UpsertCustomer not configured")
	}
	return f.upsertFn(ctx, c)
}

type fakeOptions struct {
	listFn   func(ctx context.Context) ([]domain.ReminderOption, error)
	findFn   func(ctx context.Context, ids []int64) ([]domain.ReminderOption, error)
	createFn func(ctx context.Context, name string) (domain.ReminderOption, error)
}

func (f *fakeOptions) ListReminderOptions(ctx context.Context) ([]domain.ReminderOption, error) {
	if f.listFn == nil {
		panic("ListReminderOptions not configured")
	}
	return f.listFn(ctx)
}

func (f *fakeOptions) FindReminderOptions(ctx context.Context, ids []int64) ([]domain.ReminderOption, error) {
	if f.findFn == nil {
		panic("FindReminderOptions not configured")
	}
	return f.findFn(ctx, ids)
}

func (f *fakeOptions) CreateReminderOption(ctx context.Context, name string) (domain.ReminderOption, error) {
	if f.createFn == nil {
		panic("CreateReminderOption not configured")
	}
	return f.createFn(ctx, name)
}

type fakeSchedule struct {
	getFn func(ctx context.Context) (domain.WeeklySchedule, error)
}

func (f *fakeSchedule) Get(ctx context.Context) (domain.WeeklySchedule, error) {
	if f.getFn == nil {
		panic("Get not configured")
	}
	return f.getFn(ctx)
}

type recordingNotifier struct {
	sent []notify.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, n notify.Notification) {
	r.sent = append(r.sent, n)
}

type recordingAudit struct {
	events []audit.Event
}

func (r *recordingAudit) Record(ctx context.Context, e audit.Event) {
	r.events = append(r.events, e)
}

// 2026-01-05 is a Monday.
var (
	monday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	now    = time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)
)

type harness struct {
	appts     *fakeAppointments
	customers *fakeCustomers
	options   *fakeOptions
	notifier  *recordingNotifier
	audit     *recordingAudit
	logs      *bytes.Buffer
	svc       *Service
}

func newHarness(t *testing.T, booked ...domain.Booking) *harness {
	t.Helper()
	ws := domain.DefaultWeeklySchedule()
	h := &harness{
		appts: &fakeAppointments{
			bookingsOnFn: func(ctx context.Context, dayStart, dayEnd time.Time) ([]domain.Booking, error) {
				return booked, nil
			},
			createFn: func(ctx context.Context, appt domain.Appointment) (domain.Appointment, bool, error) {
				if appt.ID == uuid.Nil {
					appt.ID = uuid.New()
				}
				appt.Status = domain.AppointmentStatusScheduled
				return appt, false, nil
			},
		},
		customers: &fakeCustomers{
			getFn: func(ctx context.Context, id string) (domain.Customer, error) {
				if id != "c1" {
					return domain.Customer{}, store.ErrNotFound
				}
				return domain.Customer{ID: "c1", FullName: "Dana", Email: "dana@example.com", ReceiveReminders: true}, nil
			},
		},
		options: &fakeOptions{
			findFn: func(ctx context.Context, ids []int64) ([]domain.ReminderOption, error) {
				var out []domain.ReminderOption
				for _, id := range ids {
					if id == 1 || id == 2 {
						out = append(out, domain.ReminderOption{ID: id, Name: "option"})
					}
				}
				return out, nil
			},
		},
		notifier: &recordingNotifier{},
		audit:    &recordingAudit{},
		logs:     &bytes.Buffer{},
	}
	h.svc = NewService(Deps{
		Appointments:    h.appts,
		Customers:       h.customers,
		ReminderOptions: h.options,
		Schedule: &fakeSchedule{getFn: func(ctx context.Context) (domain.WeeklySchedule, error) {
			return ws, nil
		}},
		Notifier:     h.notifier,
		Audit:        h.audit,
		Logger:       slog.New(slog.NewJSONHandler(h.logs, nil)),
		Location:     time.UTC,
		SlotDuration: time.Hour,
		Now:          func() time.Time { return now },
	})
	return h
}

func at(hhmm string) domain.Booking {
	return domain.Booking{Start: domain.MustTimeOfDay(hhmm), Status: domain.AppointmentStatusScheduled}
}

func TestAvailableHours_FullDay(t *testing.T) {
	h := newHarness(t)
	slots, err := h.svc.AvailableHours(context.Background(), monday)
	if err != nil {
		t.Fatalf("AvailableHours error: %v", err)
	}
	if len(slots) != 9 || slots[0].String() != "08:00" || slots[8].String() != "16:00" {
		t.Fatalf("slots = %v", slots)
	}
}

func TestAvailableHours_BookedAndCanceled(t *testing.T) {
	canceled := domain.Booking{Start: domain.MustTimeOfDay("11:00"), Status: domain.AppointmentStatusCanceled}
	h := newHarness(t, at("10:00"), canceled)

	slots, err := h.svc.AvailableHours(context.Background(), monday)
	if err != nil {
		t.Fatalf("AvailableHours error: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("len(slots) = %d, want 8", len(slots))
	}
	for _, s := range slots {
		if s.String() == "10:00" {
			t.Fatalf("10:00 must not be offered")
		}
	}
}

func TestAvailableHours_QueriesWholeBusinessDay(t *testing.T) {
	h := newHarness(t)
	var gotStart, gotEnd time.Time
	h.appts.bookingsOnFn = func(ctx context.Context, dayStart, dayEnd time.Time) ([]domain.Booking, error) {
		gotStart, gotEnd = dayStart, dayEnd
		return nil, nil
	}
	if _, err := h.svc.AvailableHours(context.Background(), monday.Add(15*time.Hour)); err != nil {
		t.Fatalf("AvailableHours error: %v", err)
	}
	if !gotStart.Equal(monday) || !gotEnd.Equal(monday.AddDate(0, 0, 1)) {
		t.Fatalf("window = [%s, %s)", gotStart, gotEnd)
	}
}

func TestAvailableHours_NotConfigured(t *testing.T) {
	h := newHarness(t)
	h.svc.schedule = &fakeSchedule{getFn: func(ctx context.Context) (domain.WeeklySchedule, error) {
		return domain.WeeklySchedule{}, ErrNotConfigured
	}}
	if _, err := h.svc.AvailableHours(context.Background(), monday); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("error = %v, want %v", err, ErrNotConfigured)
	}
}

func TestBook_Success(t *testing.T) {
	h := newHarness(t)
	var created domain.Appointment
	h.appts.createFn = func(ctx context.Context, appt domain.Appointment) (domain.Appointment, bool, error) {
		created = appt
		appt.ID = uuid.New()
		return appt, false, nil
	}

	appt, err := h.svc.Book(context.Background(), BookInput{
		CustomerID:        "c1",
		Date:              monday,
		Time:              domain.MustTimeOfDay("10:00"),
		ReminderOptionIDs: []int64{1, 2, 1},
	})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if !created.StartTime.Equal(monday.Add(10*time.Hour)) || created.DurationSeconds != 3600 {
		t.Fatalf("created = %+v", created)
	}
	if len(created.ReminderOptions) != 2 {
		t.Fatalf("reminder options = %+v", created.ReminderOptions)
	}
	if len(h.notifier.sent) != 1 || h.notifier.sent[0].Kind != notify.KindReminder {
		t.Fatalf("notifications = %+v", h.notifier.sent)
	}
	if h.notifier.sent[0].AppointmentID != appt.ID || h.notifier.sent[0].Recipient.Email != "dana@example.com" {
		t.Fatalf("notification = %+v", h.notifier.sent[0])
	}
	if len(h.audit.events) != 1 || h.audit.events[0].Outcome != audit.OutcomeCreated {
		t.Fatalf("audit = %+v", h.audit.events)
	}
}

func TestBook_NoReminderWhenOptedOut(t *testing.T) {
	h := newHarness(t)
	h.customers.getFn = func(ctx context.Context, id string) (domain.Customer, error) {
		return domain.Customer{ID: id, Email: "x@example.com", ReceiveReminders: false}, nil
	}
	if _, err := h.svc.Book(context.Background(), BookInput{CustomerID: "c1", Date: monday, Time: domain.MustTimeOfDay("09:00")}); err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if len(h.notifier.sent) != 0 {
		t.Fatalf("notifications = %+v, want none", h.notifier.sent)
	}
}

func TestBook_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		booked []domain.Booking
		date   time.Time
		time   string
		want   availability.Reason
	}{
		{name: "slot taken", booked: []domain.Booking{at("10:00")}, date: monday, time: "10:00", want: availability.ReasonSlotTaken},
		{name: "past", date: now.AddDate(0, 0, -1), time: "10:00", want: availability.ReasonPastTime},
		{name: "after closing", date: monday, time: "17:00", want: availability.ReasonOutsideBusinessHours},
		{name: "off grid", date: monday, time: "10:30", want: availability.ReasonNotOnSlotBoundary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.booked...)
			h.appts.createFn = nil

			_, err := h.svc.Book(context.Background(), BookInput{CustomerID: "c1", Date: tt.date, Time: domain.MustTimeOfDay(tt.time)})
			var re *RejectedError
			if !errors.As(err, &re) {
				t.Fatalf("error = %v, want *RejectedError", err)
			}
			if re.Reason != tt.want {
				t.Fatalf("reason = %q, want %q", re.Reason, tt.want)
			}
			if len(h.notifier.sent) != 0 {
				t.Fatalf("rejected booking must not notify")
			}
			if len(h.audit.events) != 1 || h.audit.events[0].Outcome != audit.OutcomeRejected {
				t.Fatalf("audit = %+v", h.audit.events)
			}
		})
	}
}

func TestBook_StoreConflict(t *testing.T) {
	h := newHarness(t)
	h.appts.createFn = func(ctx context.Context, appt domain.Appointment) (domain.Appointment, bool, error) {
		return domain.Appointment{}, false, store.ErrConflict
	}

	_, err := h.svc.Book(context.Background(), BookInput{CustomerID: "c1", Date: monday, Time: domain.MustTimeOfDay("10:00")})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("error = %v, want %v", err, store.ErrConflict)
	}
	if !strings.Contains(h.logs.String(), "appointment create conflict") {
		t.Fatalf("expected conflict log, got %s", h.logs.String())
	}
	if len(h.audit.events) != 1 || h.audit.events[0].Outcome != audit.OutcomeConflict {
		t.Fatalf("audit = %+v", h.audit.events)
	}
}

func TestBook_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		in   BookInput
	}{
		{name: "missing customer", in: BookInput{Date: monday, Time: domain.MustTimeOfDay("10:00")}},
		{name: "unknown customer", in: BookInput{CustomerID: "ghost", Date: monday, Time: domain.MustTimeOfDay("10:00")}},
		{name: "unknown reminder option", in: BookInput{CustomerID: "c1", Date: monday, Time: domain.MustTimeOfDay("10:00"), ReminderOptionIDs: []int64{9}}},
		{name: "invalid reminder option", in: BookInput{CustomerID: "c1", Date: monday, Time: domain.MustTimeOfDay("10:00"), ReminderOptionIDs: []int64{0}}},
		{name: "time out of range", in: BookInput{CustomerID: "c1", Date: monday, Time: domain.EndOfDay}},
		{name: "long key", in: BookInput{CustomerID: "c1", Date: monday, Time: domain.MustTimeOfDay("10:00"), IdempotencyKey: strings.Repeat("k", 257)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.appts.createFn = nil
			_, err := h.svc.Book(context.Background(), tt.in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
		})
	}
}

func TestBook_IdempotencyKey(t *testing.T) {
	h := newHarness(t, at("10:00"))
	h.appts.createFn = nil

	in := BookInput{CustomerID: "c1", Date: monday, Time: domain.MustTimeOfDay("10:00"), IdempotencyKey: "k1"}
	wantID := uuid.NewSHA1(uuid.NameSpaceOID, []byte("slotbook:book:c1:k1"))
	h.appts.getFn = func(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
		if id != wantID {
			t.Fatalf("looked up %s, want %s", id, wantID)
		}
		return domain.Appointment{ID: id, CustomerID: "c1", StartTime: monday.Add(10 * time.Hour), DurationSeconds: 3600, Status: domain.AppointmentStatusScheduled}, nil
	}

	appt, err := h.svc.Book(context.Background(), in)
	if err != nil {
		t.Fatalf("replay error: %v", err)
	}
	if appt.ID != wantID {
		t.Fatalf("id = %s, want %s", appt.ID, wantID)
	}
	if len(h.notifier.sent) != 0 {
		t.Fatalf("replay must not notify again")
	}

	in.Time = domain.MustTimeOfDay("11:00")
	if _, err := h.svc.Book(context.Background(), in); !errors.Is(err, store.ErrIdempotencyConflict) {
		t.Fatalf("error = %v, want %v", err, store.ErrIdempotencyConflict)
	}
}

func TestBook_ConcurrentReplayIsNotRebooked(t *testing.T) {
	h := newHarness(t)
	wantID := uuid.NewSHA1(uuid.NameSpaceOID, []byte("slotbook:book:c1:k2"))
	h.appts.getFn = func(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
		return domain.Appointment{}, store.ErrNotFound
	}
	h.appts.createFn = func(ctx context.Context, appt domain.Appointment) (domain.Appointment, bool, error) {
		if appt.ID != wantID {
			t.Fatalf("create id = %s, want %s", appt.ID, wantID)
		}
		appt.Status = domain.AppointmentStatusScheduled
		return appt, true, nil
	}

	appt, err := h.svc.Book(context.Background(), BookInput{CustomerID: "c1", Date: monday, Time: domain.MustTimeOfDay("10:00"), IdempotencyKey: "k2"})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if appt.ID != wantID {
		t.Fatalf("id = %s, want %s", appt.ID, wantID)
	}
	if len(h.notifier.sent) != 0 {
		t.Fatalf("notifications = %+v, want none", h.notifier.sent)
	}
	if len(h.audit.events) != 1 || h.audit.events[0].Outcome != audit.OutcomeReplayed {
		t.Fatalf("audit = %+v", h.audit.events)
	}
}

func TestBook_ReplayOfCanceledAppointment(t *testing.T) {
	h := newHarness(t)
	h.appts.createFn = nil
	h.appts.getFn = func(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
		return domain.Appointment{ID: id, CustomerID: "c1", StartTime: monday.Add(10 * time.Hour), DurationSeconds: 3600, Status: domain.AppointmentStatusCanceled}, nil
	}

	_, err := h.svc.Book(context.Background(), BookInput{CustomerID: "c1", Date: monday, Time: domain.MustTimeOfDay("10:00"), IdempotencyKey: "k3"})
	if !errors.Is(err, store.ErrAlreadyCanceled) {
		t.Fatalf("error = %v, want %v", err, store.ErrAlreadyCanceled)
	}
	if len(h.notifier.sent) != 0 {
		t.Fatalf("notifications = %+v, want none", h.notifier.sent)
	}
}

type failingSender struct{}

func (failingSender) Send(ctx context.Context, n notify.Notification) error {
	return errors.New("smtp unreachable")
}

func (failingSender) Close() error { return nil }

func TestBook_NotificationFailureKeepsBooking(t *testing.T) {
	h := newHarness(t)
	var logs bytes.Buffer
	h.svc.notifier = notify.NewDispatcher(failingSender{}, slog.New(slog.NewJSONHandler(&logs, nil)), time.Second)

	appt, err := h.svc.Book(context.Background(), BookInput{CustomerID: "c1", Date: monday, Time: domain.MustTimeOfDay("12:00")})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if appt.ID == uuid.Nil {
		t.Fatalf("expected stored appointment")
	}
	if !strings.Contains(logs.String(), "notification failed") {
		t.Fatalf("expected notification failure log, got %s", logs.String())
	}
}

func TestCancel(t *testing.T) {
	h := newHarness(t)
	id := uuid.New()
	var gotNow time.Time
	h.appts.cancelFn = func(ctx context.Context, customerID string, appointmentID uuid.UUID, n time.Time) (domain.Appointment, error) {
		gotNow = n
		return domain.Appointment{ID: appointmentID, CustomerID: customerID, StartTime: monday.Add(9 * time.Hour), Status: domain.AppointmentStatusCanceled}, nil
	}

	appt, err := h.svc.Cancel(context.Background(), "c1", id)
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if appt.Status != domain.AppointmentStatusCanceled || !gotNow.Equal(now) {
		t.Fatalf("appt = %+v, now = %s", appt, gotNow)
	}
	if len(h.notifier.sent) != 1 || h.notifier.sent[0].Kind != notify.KindCancellation {
		t.Fatalf("notifications = %+v", h.notifier.sent)
	}
}

func TestCancel_NotifiesEvenWhenOptedOut(t *testing.T) {
	h := newHarness(t)
	h.customers.getFn = func(ctx context.Context, id string) (domain.Customer, error) {
		return domain.Customer{ID: id, ReceiveReminders: false}, nil
	}
	h.appts.cancelFn = func(ctx context.Context, customerID string, appointmentID uuid.UUID, n time.Time) (domain.Appointment, error) {
		return domain.Appointment{ID: appointmentID, CustomerID: customerID, Status: domain.AppointmentStatusCanceled}, nil
	}
	if _, err := h.svc.Cancel(context.Background(), "c1", uuid.New()); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if len(h.notifier.sent) != 1 {
		t.Fatalf("notifications = %d, want 1", len(h.notifier.sent))
	}
}

func TestCancel_Errors(t *testing.T) {
	for _, storeErr := range []error{store.ErrNotFound, store.ErrAlreadyCanceled, store.ErrPastAppointment} {
		h := newHarness(t)
		h.appts.cancelFn = func(ctx context.Context, customerID string, appointmentID uuid.UUID, n time.Time) (domain.Appointment, error) {
			return domain.Appointment{}, storeErr
		}
		if _, err := h.svc.Cancel(context.Background(), "c1", uuid.New()); !errors.Is(err, storeErr) {
			t.Fatalf("error = %v, want %v", err, storeErr)
		}
		if len(h.notifier.sent) != 0 {
			t.Fatalf("failed cancel must not notify")
		}
	}

	h := newHarness(t)
	var ve *ValidationError
	if _, err := h.svc.Cancel(context.Background(), "c1", uuid.Nil); !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
}

func TestListForCustomer(t *testing.T) {
	h := newHarness(t)
	h.appts.listByCustomerFn = func(ctx context.Context, customerID string) ([]domain.Appointment, error) {
		return []domain.Appointment{
			{StartTime: now.Add(-48 * time.Hour)},
			{StartTime: now.Add(-time.Hour)},
			{StartTime: now.Add(time.Hour)},
			{StartTime: now.Add(48 * time.Hour)},
		}, nil
	}

	got, err := h.svc.ListForCustomer(context.Background(), "c1")
	if err != nil {
		t.Fatalf("ListForCustomer error: %v", err)
	}
	if len(got.Upcoming) != 2 || len(got.Past) != 2 {
		t.Fatalf("upcoming = %d, past = %d", len(got.Upcoming), len(got.Past))
	}
	if !got.Upcoming[0].StartTime.Before(got.Upcoming[1].StartTime) {
		t.Fatalf("upcoming not soonest first")
	}
	if !got.Past[0].StartTime.After(got.Past[1].StartTime) {
		t.Fatalf("past not most recent first")
	}
}

func TestListAll_Window(t *testing.T) {
	h := newHarness(t)
	var ve *ValidationError
	if _, err := h.svc.ListAll(context.Background(), monday, monday); !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}

	h.appts.listFn = func(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
		return []domain.Appointment{{ID: uuid.New()}}, nil
	}
	rows, err := h.svc.ListAll(context.Background(), monday, monday.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("ListAll error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
}

func TestSaveCustomer(t *testing.T) {
	h := newHarness(t)
	h.customers.upsertFn = func(ctx context.Context, c domain.Customer) (domain.Customer, error) {
		return c, nil
	}

	c, err := h.svc.SaveCustomer(context.Background(), CustomerInput{ID: " c2 ", FullName: "Noa", Email: "noa@example.com"})
	if err != nil {
		t.Fatalf("SaveCustomer error: %v", err)
	}
	if c.ID != "c2" {
		t.Fatalf("id = %q", c.ID)
	}

	c, err = h.svc.SaveCustomer(context.Background(), CustomerInput{ID: "c2", FullName: "Noa", Email: "Noa Levi <noa@example.com>"})
	if err != nil {
		t.Fatalf("SaveCustomer error: %v", err)
	}
	if c.Email != "noa@example.com" {
		t.Fatalf("email = %q, want bare address", c.Email)
	}

	var ve *ValidationError
	if _, err := h.svc.SaveCustomer(context.Background(), CustomerInput{ID: "c2", FullName: "Noa", Email: "nope"}); !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
}

func TestAddReminderOption_Duplicate(t *testing.T) {
	h := newHarness(t)
	h.options.createFn = func(ctx context.Context, name string) (domain.ReminderOption, error) {
		return domain.ReminderOption{}, store.ErrConflict
	}
	var ve *ValidationError
	if _, err := h.svc.AddReminderOption(context.Background(), "Email 1 day before"); !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
}

func TestParseDate(t *testing.T) {
	h := newHarness(t)
	d, err := h.svc.ParseDate("2026-01-05")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if !d.Equal(monday) {
		t.Fatalf("date = %s", d)
	}
	if _, err := h.svc.ParseDate("05/01/2026"); err == nil {
		t.Fatalf("expected error")
	}
}
