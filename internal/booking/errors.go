package booking

import (
	"errors"
	"fmt"

	"github.com/Guyeche/Romki-Barber-App-V2/internal/model"
)

// ValidationError reports user-correctable input problems, per field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid booking request: %d field(s)", len(e.Fields))
}

// BlockedDayError means the requested date is closed to booking.
type BlockedDayError struct {
	Date string
}

func (e *BlockedDayError) Error() string {
	return fmt.Sprintf("day %s is blocked for booking", e.Date)
}

// SlotConflictError means another booking holds the (date, time) slot. The
// caller should re-resolve availability and pick a different slot.
type SlotConflictError struct {
	Date string
	Time string
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("slot %s %s is already booked", e.Date, e.Time)
}

// NotificationError means an email send failed and the reservation was
// compensated (deleted). Retrying the booking from scratch is safe.
type NotificationError struct {
	Recipient string // "admin" or "customer"
	Err       error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("%s notification failed (booking rolled back): %v", e.Recipient, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// CalendarError means the calendar event creation failed and the reservation
// was compensated (deleted). Retrying the booking from scratch is safe.
type CalendarError struct {
	Err error
}

func (e *CalendarError) Error() string {
	return fmt.Sprintf("calendar event creation failed (booking rolled back): %v", e.Err)
}

func (e *CalendarError) Unwrap() error { return e.Err }

// RollbackFailure means a compensating delete itself failed: a reservation
// row may exist that the caller was told failed. Requires operator attention.
type RollbackFailure struct {
	AppointmentID string
	Cause         error // the failure that triggered compensation
	Err           error // the failure of the compensation itself
}

func (e *RollbackFailure) Error() string {
	return fmt.Sprintf("rollback of appointment %s failed: %v (after: %v)", e.AppointmentID, e.Err, e.Cause)
}

func (e *RollbackFailure) Unwrap() error { return e.Err }

// Result is the structured outcome + message every caller-facing flow ends
// with; raw faults never cross this boundary.
type Result struct {
	Outcome string            `json:"outcome"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

const (
	OutcomeConfirmed      = "confirmed"
	OutcomeCancelled      = "cancelled"
	OutcomeInvalid        = "invalid"
	OutcomeDayUnavailable = "day_unavailable"
	OutcomeSlotTaken      = "slot_taken"
	OutcomeRetry          = "retry"
	OutcomeNotFound       = "not_found"
	OutcomeContactUs      = "contact_us"
	OutcomeError          = "error"
)

// SuccessResult renders the confirmation message for a booked appointment.
func SuccessResult(appt model.Appointment) Result {
	return Result{
		Outcome: OutcomeConfirmed,
		Message: fmt.Sprintf("Success! Your appointment is confirmed for %s at %s.", model.DisplayDate(appt.Date), appt.Time),
	}
}

// ErrorResult maps a taxonomy error to its user-facing result.
func ErrorResult(err error) Result {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return Result{
			Outcome: OutcomeInvalid,
			Message: "Validation failed. Please check your input.",
			Fields:  verr.Fields,
		}
	}
	var berr *BlockedDayError
	if errors.As(err, &berr) {
		return Result{
			Outcome: OutcomeDayUnavailable,
			Message: "This day is unavailable for booking. Please choose another date.",
		}
	}
	var serr *SlotConflictError
	if errors.As(err, &serr) {
		return Result{
			Outcome: OutcomeSlotTaken,
			Message: "This time slot is already booked. Please choose another time.",
		}
	}
	var nerr *NotificationError
	if errors.As(err, &nerr) {
		return Result{
			Outcome: OutcomeRetry,
			Message: "We could not send your confirmation, so nothing was booked. Please try again.",
		}
	}
	var cerr *CalendarError
	if errors.As(err, &cerr) {
		return Result{
			Outcome: OutcomeRetry,
			Message: "We could not finish setting up your appointment, so nothing was booked. Please try again.",
		}
	}
	var rerr *RollbackFailure
	if errors.As(err, &rerr) {
		return Result{
			Outcome: OutcomeContactUs,
			Message: "A critical server error occurred and we could not fully save your booking. Please contact us directly.",
		}
	}
	return Result{
		Outcome: OutcomeError,
		Message: "An unexpected server error occurred. Please try again.",
	}
}
