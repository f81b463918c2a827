package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Guyeche/Romki-Barber-App-V2/internal/email"
	"github.com/Guyeche/Romki-Barber-App-V2/internal/model"
	"github.com/Guyeche/Romki-Barber-App-V2/internal/storage"
)

// CancelRequest identifies the appointment to cancel. Name and Email, when
// set, enable the self-service ownership check; admin flows leave them empty.
type CancelRequest struct {
	ID    string
	Name  string
	Email string
}

// Canceller runs the cancellation flow. Deleting the row is the operation;
// the calendar and email cleanup afterwards are best-effort.
type Canceller struct {
	store    SlotStore
	calendar CalendarGateway
	mailer   NotificationGateway
	logger   *slog.Logger
}

func NewCanceller(store SlotStore, cal CalendarGateway, mailer NotificationGateway, logger *slog.Logger) *Canceller {
	return &Canceller{
		store:    store,
		calendar: cal,
		mailer:   mailer,
		logger:   logger,
	}
}

// Cancel looks the appointment up, deletes it, then cleans up the calendar
// event and notifies the customer. The lookup and the delete use the same
// predicate (including the ownership filter when self-service), so the delete
// never acts on a row that no longer matches. Lookup or delete failures abort;
// cleanup failures are logged only, since the row is already gone and no
// compensation is meaningful.
func (c *Canceller) Cancel(ctx context.Context, req CancelRequest) error {
	selfService := strings.TrimSpace(req.Name) != "" || strings.TrimSpace(req.Email) != ""

	var appt model.Appointment
	var err error
	if selfService {
		appt, err = c.store.GetOwned(ctx, req.ID, req.Name, req.Email)
	} else {
		appt, err = c.store.Get(ctx, req.ID)
	}
	if err != nil {
		if storage.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("load appointment %s: %w", req.ID, err)
	}

	if selfService {
		err = c.store.DeleteOwned(ctx, req.ID, req.Name, req.Email)
	} else {
		err = c.store.Delete(ctx, req.ID)
	}
	if err != nil {
		if storage.IsNotFound(err) {
			// The row stopped matching between lookup and delete.
			return err
		}
		return fmt.Errorf("delete appointment %s: %w", req.ID, err)
	}

	if appt.CalendarEventID != "" {
		if err := c.calendar.DeleteEvent(ctx, appt.CalendarEventID); err != nil {
			c.logger.Warn("calendar event cleanup failed",
				"appointment_id", appt.ID, "event_id", appt.CalendarEventID, "err", err)
		}
	}

	if err := c.mailer.Send(appt.Email, email.SubjectCancellationNotice, email.CancellationNoticeHTML(appt)); err != nil {
		c.logger.Warn("cancellation email failed",
			"appointment_id", appt.ID, "to", appt.Email, "err", err)
	}

	c.logger.Info("appointment cancelled",
		"appointment_id", appt.ID, "date", appt.Date, "time", appt.Time, "self_service", selfService)
	return nil
}
