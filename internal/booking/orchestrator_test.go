package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Guyeche/Romki-Barber-App-V2/internal/model"
	"github.com/Guyeche/Romki-Barber-App-V2/internal/storage"
)

// fakeStore is an in-memory SlotStore that enforces (date, time) uniqueness
// under a mutex, the way the table's constraint does.
type fakeStore struct {
	mu         sync.Mutex
	seq        int
	byID       map[string]model.Appointment
	bySlot     map[string]string
	deleteErr  error
	eventIDErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byID:   map[string]model.Appointment{},
		bySlot: map[string]string{},
	}
}

func slotKey(date, tm string) string { return date + " " + tm }

func (s *fakeStore) Insert(_ context.Context, appt model.Appointment) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := slotKey(appt.Date, appt.Time)
	if _, taken := s.bySlot[key]; taken {
		return model.Appointment{}, storage.ErrDuplicateSlot
	}
	s.seq++
	appt.ID = fmt.Sprintf("appt-%d", s.seq)
	appt.CreatedAt = time.Now()
	s.byID[appt.ID] = appt
	s.bySlot[key] = appt.ID
	return appt, nil
}

func (s *fakeStore) Get(_ context.Context, id string) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.byID[id]
	if !ok {
		return model.Appointment{}, storage.ErrNotFound
	}
	return appt, nil
}

func (s *fakeStore) GetOwned(ctx context.Context, id, name, email string) (model.Appointment, error) {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if !strings.EqualFold(appt.CustomerName, name) || !strings.EqualFold(appt.Email, email) {
		return model.Appointment{}, storage.ErrNotFound
	}
	return appt, nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	appt, ok := s.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(s.byID, id)
	delete(s.bySlot, slotKey(appt.Date, appt.Time))
	return nil
}

func (s *fakeStore) DeleteOwned(ctx context.Context, id, name, email string) error {
	if _, err := s.GetOwned(ctx, id, name, email); err != nil {
		return err
	}
	return s.Delete(ctx, id)
}

func (s *fakeStore) SetCalendarEventID(_ context.Context, id, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eventIDErr != nil {
		return s.eventIDErr
	}
	appt, ok := s.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	appt.CalendarEventID = eventID
	s.byID[id] = appt
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

type fakeBlocked struct {
	dates map[string]bool
	err   error
}

func (b *fakeBlocked) IsBlockedDay(_ context.Context, date string) (bool, error) {
	if b.err != nil {
		return false, b.err
	}
	return b.dates[date], nil
}

type sentMail struct {
	to      string
	subject string
}

type fakeMailer struct {
	mu     sync.Mutex
	sent   []sentMail
	failTo string
	err    error
}

func (m *fakeMailer) Send(to, subject, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTo != "" && to == m.failTo {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject})
	return nil
}

type fakeCalendar struct {
	mu        sync.Mutex
	eventID   string
	createErr error
	deleteErr error
	created   int
	deleted   []string
}

func (c *fakeCalendar) CreateEvent(_ context.Context, _ model.Appointment) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.createErr != nil {
		return "", c.createErr
	}
	c.created++
	return c.eventID, nil
}

func (c *fakeCalendar) DeleteEvent(_ context.Context, eventID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	c.deleted = append(c.deleted, eventID)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const adminEmail = "admin@romki.test"

func testOrchestrator(store *fakeStore, blocked *fakeBlocked, mailer *fakeMailer, cal *fakeCalendar) *Orchestrator {
	o := NewOrchestrator(store, blocked, mailer, cal, testLogger(), adminEmail, time.UTC)
	o.now = func() time.Time { return time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC) }
	return o
}

func validRequest() Request {
	return Request{
		Name:    "Dana Levi",
		Email:   "dana@example.com",
		Service: "Haircut",
		Date:    "2026-03-03",
		Time:    "10:00",
	}
}

func TestBookSuccess(t *testing.T) {
	store := newFakeStore()
	mailer := &fakeMailer{}
	cal := &fakeCalendar{eventID: "evt-1"}
	o := testOrchestrator(store, &fakeBlocked{}, mailer, cal)

	appt, err := o.Book(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if appt.ID == "" || appt.Status != model.StatusConfirmed {
		t.Fatalf("unexpected appointment: %+v", appt)
	}
	if appt.CalendarEventID != "evt-1" {
		t.Fatalf("CalendarEventID = %q, want evt-1", appt.CalendarEventID)
	}

	stored, err := store.Get(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("stored row missing: %v", err)
	}
	if stored.CalendarEventID != "evt-1" {
		t.Fatalf("stored event id = %q, want evt-1", stored.CalendarEventID)
	}

	if len(mailer.sent) != 2 {
		t.Fatalf("sent %d emails, want 2: %+v", len(mailer.sent), mailer.sent)
	}
	if mailer.sent[0].to != adminEmail || mailer.sent[1].to != "dana@example.com" {
		t.Fatalf("emails went to %+v", mailer.sent)
	}
}

func TestBookNoAdminEmailConfigured(t *testing.T) {
	store := newFakeStore()
	mailer := &fakeMailer{}
	o := testOrchestrator(store, &fakeBlocked{}, mailer, &fakeCalendar{eventID: "evt-1"})
	o.adminEmail = ""

	if _, err := o.Book(context.Background(), validRequest()); err != nil {
		t.Fatalf("Book: %v", err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].to != "dana@example.com" {
		t.Fatalf("emails went to %+v, want customer only", mailer.sent)
	}
}

func TestBookBlockedDay(t *testing.T) {
	store := newFakeStore()
	blocked := &fakeBlocked{dates: map[string]bool{"2026-03-03": true}}
	o := testOrchestrator(store, blocked, &fakeMailer{}, &fakeCalendar{})

	_, err := o.Book(context.Background(), validRequest())

	var berr *BlockedDayError
	if !errors.As(err, &berr) || berr.Date != "2026-03-03" {
		t.Fatalf("err = %v, want BlockedDayError for 2026-03-03", err)
	}
	if store.count() != 0 {
		t.Fatal("blocked day still reserved a slot")
	}
}

func TestBookBlockedDayCheckFailure(t *testing.T) {
	blocked := &fakeBlocked{err: errors.New("db down")}
	o := testOrchestrator(newFakeStore(), blocked, &fakeMailer{}, &fakeCalendar{})

	_, err := o.Book(context.Background(), validRequest())
	if err == nil || !strings.Contains(err.Error(), "blocked day check") {
		t.Fatalf("err = %v, want blocked day check failure", err)
	}
}

func TestBookSlotConflict(t *testing.T) {
	store := newFakeStore()
	o := testOrchestrator(store, &fakeBlocked{}, &fakeMailer{}, &fakeCalendar{eventID: "evt-1"})

	if _, err := o.Book(context.Background(), validRequest()); err != nil {
		t.Fatalf("first Book: %v", err)
	}

	req := validRequest()
	req.Name = "Someone Else"
	req.Email = "other@example.com"
	_, err := o.Book(context.Background(), req)

	var serr *SlotConflictError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want SlotConflictError", err)
	}
	if serr.Date != "2026-03-03" || serr.Time != "10:00" {
		t.Fatalf("conflict on %s %s, want 2026-03-03 10:00", serr.Date, serr.Time)
	}
	if store.count() != 1 {
		t.Fatalf("store holds %d rows, want 1", store.count())
	}
}

func TestBookConcurrentSameSlot(t *testing.T) {
	store := newFakeStore()
	o := testOrchestrator(store, &fakeBlocked{}, &fakeMailer{}, &fakeCalendar{eventID: "evt-1"})

	const attempts = 16
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRequest()
			req.Name = fmt.Sprintf("Customer %d", i)
			req.Email = fmt.Sprintf("customer%d@example.com", i)
			_, err := o.Book(context.Background(), req)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var successes, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			successes++
		default:
			var serr *SlotConflictError
			if !errors.As(err, &serr) {
				t.Fatalf("unexpected error: %v", err)
			}
			conflicts++
		}
	}
	if successes != 1 || conflicts != attempts-1 {
		t.Fatalf("successes = %d, conflicts = %d, want 1 and %d", successes, conflicts, attempts-1)
	}
	if store.count() != 1 {
		t.Fatalf("store holds %d rows, want 1", store.count())
	}
}

func TestBookCustomerEmailFailureCompensates(t *testing.T) {
	store := newFakeStore()
	mailer := &fakeMailer{failTo: "dana@example.com", err: errors.New("smtp refused")}
	cal := &fakeCalendar{eventID: "evt-1"}
	o := testOrchestrator(store, &fakeBlocked{}, mailer, cal)

	_, err := o.Book(context.Background(), validRequest())

	var nerr *NotificationError
	if !errors.As(err, &nerr) || nerr.Recipient != "customer" {
		t.Fatalf("err = %v, want customer NotificationError", err)
	}
	if store.count() != 0 {
		t.Fatal("reservation survived a failed notification")
	}
	if cal.created != 0 {
		t.Fatal("calendar event created despite earlier failure")
	}
}

func TestBookAdminEmailFailureCompensates(t *testing.T) {
	store := newFakeStore()
	mailer := &fakeMailer{failTo: adminEmail, err: errors.New("smtp refused")}
	o := testOrchestrator(store, &fakeBlocked{}, mailer, &fakeCalendar{})

	_, err := o.Book(context.Background(), validRequest())

	var nerr *NotificationError
	if !errors.As(err, &nerr) || nerr.Recipient != "admin" {
		t.Fatalf("err = %v, want admin NotificationError", err)
	}
	if store.count() != 0 {
		t.Fatal("reservation survived a failed notification")
	}
}

func TestBookCalendarFailureCompensates(t *testing.T) {
	store := newFakeStore()
	cal := &fakeCalendar{createErr: errors.New("calendar 500")}
	o := testOrchestrator(store, &fakeBlocked{}, &fakeMailer{}, cal)

	_, err := o.Book(context.Background(), validRequest())

	var cerr *CalendarError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want CalendarError", err)
	}
	if store.count() != 0 {
		t.Fatal("reservation survived a failed calendar event")
	}

	// The slot is free again after compensation.
	cal.createErr = nil
	cal.eventID = "evt-2"
	if _, err := o.Book(context.Background(), validRequest()); err != nil {
		t.Fatalf("re-book after compensation: %v", err)
	}
}

func TestBookRollbackFailure(t *testing.T) {
	store := newFakeStore()
	store.deleteErr = errors.New("db down")
	cal := &fakeCalendar{createErr: errors.New("calendar 500")}
	o := testOrchestrator(store, &fakeBlocked{}, &fakeMailer{}, cal)

	_, err := o.Book(context.Background(), validRequest())

	var rerr *RollbackFailure
	if !errors.As(err, &rerr) {
		t.Fatalf("err = %v, want RollbackFailure", err)
	}
	if rerr.AppointmentID == "" {
		t.Fatal("RollbackFailure missing appointment id")
	}
	var cerr *CalendarError
	if !errors.As(rerr.Cause, &cerr) {
		t.Fatalf("RollbackFailure.Cause = %v, want CalendarError", rerr.Cause)
	}
}

func TestBookEventIDWriteBackFailureStillSucceeds(t *testing.T) {
	store := newFakeStore()
	store.eventIDErr = errors.New("db blip")
	o := testOrchestrator(store, &fakeBlocked{}, &fakeMailer{}, &fakeCalendar{eventID: "evt-1"})

	appt, err := o.Book(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if appt.CalendarEventID != "" {
		t.Fatalf("CalendarEventID = %q, want empty after failed write-back", appt.CalendarEventID)
	}
	if store.count() != 1 {
		t.Fatal("booking rolled back over an event id write-back failure")
	}
}

func TestBookDisabledCalendar(t *testing.T) {
	store := newFakeStore()
	// An empty event id means "no calendar configured"; no write-back happens.
	store.eventIDErr = errors.New("must not be called")
	o := testOrchestrator(store, &fakeBlocked{}, &fakeMailer{}, &fakeCalendar{eventID: ""})

	appt, err := o.Book(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if appt.CalendarEventID != "" {
		t.Fatalf("CalendarEventID = %q, want empty", appt.CalendarEventID)
	}
}

func TestBookValidation(t *testing.T) {
	o := testOrchestrator(newFakeStore(), &fakeBlocked{}, &fakeMailer{}, &fakeCalendar{})

	cases := []struct {
		name  string
		edit  func(*Request)
		field string
	}{
		{"missing name", func(r *Request) { r.Name = "  " }, "name"},
		{"missing email", func(r *Request) { r.Email = "" }, "email"},
		{"bad email", func(r *Request) { r.Email = "not-an-address" }, "email"},
		{"missing date", func(r *Request) { r.Date = "" }, "date"},
		{"bad date", func(r *Request) { r.Date = "03/02/2026" }, "date"},
		{"past date", func(r *Request) { r.Date = "2026-03-01" }, "date"},
		{"missing time", func(r *Request) { r.Time = "" }, "time"},
		{"bad time", func(r *Request) { r.Time = "10am" }, "time"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.edit(&req)

			_, err := o.Book(context.Background(), req)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if _, ok := verr.Fields[tc.field]; !ok {
				t.Fatalf("fields = %v, want %q flagged", verr.Fields, tc.field)
			}
		})
	}
}

func TestBookTodayIsNotPast(t *testing.T) {
	o := testOrchestrator(newFakeStore(), &fakeBlocked{}, &fakeMailer{}, &fakeCalendar{eventID: "evt-1"})

	req := validRequest()
	req.Date = "2026-03-02" // same day as the injected clock

	if _, err := o.Book(context.Background(), req); err != nil {
		t.Fatalf("Book on today: %v", err)
	}
}
