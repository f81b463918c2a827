// Package booking runs the appointment sagas: reserve a slot, notify, mirror
// to the calendar, and compensate when a later step fails.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/Guyeche/Romki-Barber-App-V2/internal/email"
	"github.com/Guyeche/Romki-Barber-App-V2/internal/model"
	"github.com/Guyeche/Romki-Barber-App-V2/internal/storage"
)

// SlotStore is the persistent appointment store. Insert must enforce
// (date, time) uniqueness atomically at the storage layer; implementations
// signal conflicts and misses so that storage.IsConflict / storage.IsNotFound
// recognize them.
type SlotStore interface {
	Insert(ctx context.Context, appt model.Appointment) (model.Appointment, error)
	Get(ctx context.Context, id string) (model.Appointment, error)
	GetOwned(ctx context.Context, id, name, email string) (model.Appointment, error)
	Delete(ctx context.Context, id string) error
	DeleteOwned(ctx context.Context, id, name, email string) error
	SetCalendarEventID(ctx context.Context, id, eventID string) error
}

// BlockedDayChecker is the commit-time closure check; the availability read a
// customer saw earlier is advisory only.
type BlockedDayChecker interface {
	IsBlockedDay(ctx context.Context, date string) (bool, error)
}

// NotificationGateway sends one email.
type NotificationGateway interface {
	Send(to, subject, htmlBody string) error
}

// CalendarGateway mirrors appointments into an external calendar.
type CalendarGateway interface {
	CreateEvent(ctx context.Context, appt model.Appointment) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// Request is a booking submission. Date/Time use the model layouts.
type Request struct {
	Name    string
	Email   string
	Service string
	Date    string
	Time    string
}

// Orchestrator drives the booking saga. All dependencies are explicit and
// process-scoped; there is no shared mutable state, so concurrent Book calls
// interleave freely and the store's constraint decides slot races.
type Orchestrator struct {
	store      SlotStore
	blocked    BlockedDayChecker
	mailer     NotificationGateway
	calendar   CalendarGateway
	logger     *slog.Logger
	adminEmail string
	loc        *time.Location
	now        func() time.Time
}

func NewOrchestrator(store SlotStore, blocked BlockedDayChecker, mailer NotificationGateway, cal CalendarGateway, logger *slog.Logger, adminEmail string, loc *time.Location) *Orchestrator {
	return &Orchestrator{
		store:      store,
		blocked:    blocked,
		mailer:     mailer,
		calendar:   cal,
		logger:     logger,
		adminEmail: adminEmail,
		loc:        loc,
		now:        time.Now,
	}
}

// Book runs the saga: validate, re-check the day closure, atomically reserve
// the slot, send the admin and customer notifications, create the calendar
// event, and record the event id. Any failure after the reserve deletes the
// reservation before returning; the caller is told success only when the row
// persists and both external effects succeeded.
func (o *Orchestrator) Book(ctx context.Context, req Request) (model.Appointment, error) {
	if err := validate(req, o.now().In(o.loc)); err != nil {
		return model.Appointment{}, err
	}

	blocked, err := o.blocked.IsBlockedDay(ctx, req.Date)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("blocked day check: %w", err)
	}
	if blocked {
		return model.Appointment{}, &BlockedDayError{Date: req.Date}
	}

	appt, err := o.store.Insert(ctx, model.Appointment{
		CustomerName: strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Service:      strings.TrimSpace(req.Service),
		Date:         req.Date,
		Time:         req.Time,
		Status:       model.StatusConfirmed,
	})
	if err != nil {
		if storage.IsConflict(err) {
			return model.Appointment{}, &SlotConflictError{Date: req.Date, Time: req.Time}
		}
		return model.Appointment{}, fmt.Errorf("reserve slot: %w", err)
	}

	if o.adminEmail != "" {
		if err := o.mailer.Send(o.adminEmail, email.SubjectAdminNotification, email.AdminNotificationHTML(appt)); err != nil {
			return o.compensate(ctx, appt, &NotificationError{Recipient: "admin", Err: err})
		}
	}
	if err := o.mailer.Send(appt.Email, email.SubjectCustomerConfirmation, email.CustomerConfirmationHTML(appt)); err != nil {
		return o.compensate(ctx, appt, &NotificationError{Recipient: "customer", Err: err})
	}

	eventID, err := o.calendar.CreateEvent(ctx, appt)
	if err != nil {
		return o.compensate(ctx, appt, &CalendarError{Err: err})
	}

	if eventID != "" {
		// The booking already succeeded; losing the event id only costs the
		// eventual calendar cleanup, so it must not abort the saga.
		if err := o.store.SetCalendarEventID(ctx, appt.ID, eventID); err != nil {
			o.logger.Warn("calendar event id write-back failed",
				"appointment_id", appt.ID, "event_id", eventID, "err", err)
		} else {
			appt.CalendarEventID = eventID
		}
	}

	o.logger.Info("appointment booked",
		"appointment_id", appt.ID, "date", appt.Date, "time", appt.Time, "service", appt.Service)
	return appt, nil
}

// compensate deletes the just-inserted reservation and returns cause. A
// failing delete is the one state that may leave the system inconsistent, so
// it surfaces as RollbackFailure instead of cause.
func (o *Orchestrator) compensate(ctx context.Context, appt model.Appointment, cause error) (model.Appointment, error) {
	if err := o.store.Delete(ctx, appt.ID); err != nil && !storage.IsNotFound(err) {
		o.logger.Error("booking rollback failed; manual intervention required",
			"appointment_id", appt.ID, "date", appt.Date, "time", appt.Time, "cause", cause, "err", err)
		return model.Appointment{}, &RollbackFailure{AppointmentID: appt.ID, Cause: cause, Err: err}
	}
	o.logger.Warn("booking compensated", "appointment_id", appt.ID, "cause", cause)
	return model.Appointment{}, cause
}

func validate(req Request, now time.Time) error {
	fields := map[string]string{}

	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "Name is required"
	}
	if strings.TrimSpace(req.Email) == "" {
		fields["email"] = "Email is required"
	} else if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		fields["email"] = "Invalid email address"
	}

	day, err := model.ParseDate(req.Date, now.Location())
	switch {
	case strings.TrimSpace(req.Date) == "":
		fields["date"] = "Date is required"
	case err != nil:
		fields["date"] = "Invalid date"
	case day.Before(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())):
		fields["date"] = "Date is in the past"
	}

	if strings.TrimSpace(req.Time) == "" {
		fields["time"] = "Time is required"
	} else if _, terr := time.Parse(model.TimeLayout, req.Time); terr != nil {
		fields["time"] = "Invalid time"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
