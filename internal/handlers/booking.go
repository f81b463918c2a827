// Package handlers is the HTTP edge over the booking core. It only decodes
// requests, invokes the orchestrators/repositories, and maps the error
// taxonomy to status codes; no booking rules live here.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Guyeche/Romki-Barber-App-V2/internal/availability"
	"github.com/Guyeche/Romki-Barber-App-V2/internal/booking"
	"github.com/Guyeche/Romki-Barber-App-V2/internal/model"
	"github.com/Guyeche/Romki-Barber-App-V2/internal/storage"
)

// AppointmentReader is the slice of the appointment store the read-side
// endpoints need; *storage.AppointmentRepository satisfies it.
type AppointmentReader interface {
	BookedTimes(ctx context.Context, date string) ([]string, error)
	ListUpcomingOwned(ctx context.Context, name, email, fromDate string) ([]model.Appointment, error)
	ListUpcoming(ctx context.Context, fromDate string, limit int) ([]model.Appointment, error)
}

// ConfigStore is the admin configuration surface consumed by the handlers;
// *storage.ConfigRepository satisfies it.
type ConfigStore interface {
	GetScheduleDays(ctx context.Context) ([]model.ScheduleDay, error)
	GetBlockedDays(ctx context.Context) ([]model.BlockedDay, error)
	GetBookingWindowDays(ctx context.Context) (int, error)
	IsBlockedDay(ctx context.Context, date string) (bool, error)
	UpsertScheduleDays(ctx context.Context, days []model.ScheduleDay) error
	UpsertBookingWindowDays(ctx context.Context, days int) error
	AddBlockedDay(ctx context.Context, date string) error
	RemoveBlockedDay(ctx context.Context, date string) error
}

type BookingHandler struct {
	orchestrator *booking.Orchestrator
	canceller    *booking.Canceller
	appts        AppointmentReader
	config       ConfigStore
	logger       *slog.Logger
	loc          *time.Location
	now          func() time.Time
}

func NewBookingHandler(orchestrator *booking.Orchestrator, canceller *booking.Canceller, appts AppointmentReader, config ConfigStore, logger *slog.Logger, loc *time.Location) *BookingHandler {
	return &BookingHandler{
		orchestrator: orchestrator,
		canceller:    canceller,
		appts:        appts,
		config:       config,
		logger:       logger,
		loc:          loc,
		now:          time.Now,
	}
}

type bookRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Service string `json:"service"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

type bookResponse struct {
	booking.Result
	AppointmentID string `json:"appointment_id,omitempty"`
}

type cancelRequest struct {
	AppointmentID string `json:"appointment_id"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
}

type myAppointmentsRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type appointmentItem struct {
	AppointmentID string `json:"appointment_id"`
	Service       string `json:"service"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
}

// Days returns the bookable dates within the current booking window.
func (h *BookingHandler) Days(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	schedule, err := h.config.GetScheduleDays(ctx)
	if err != nil {
		h.serverError(w, "load schedule", err)
		return
	}
	blocked, err := h.config.GetBlockedDays(ctx)
	if err != nil {
		h.serverError(w, "load blocked days", err)
		return
	}
	window, err := h.config.GetBookingWindowDays(ctx)
	if err != nil {
		h.serverError(w, "load booking window", err)
		return
	}

	dates := availability.BookableDates(h.now().In(h.loc), schedule, blocked, window)
	writeJSON(w, http.StatusOK, map[string]any{"dates": dates})
}

// Slots returns the free times for one date. An out-of-schedule or blocked
// date yields an empty list, not an error.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		http.Error(w, "date is required", http.StatusBadRequest)
		return
	}
	day, err := model.ParseDate(date, h.loc)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	times := []string{}
	blocked, err := h.config.IsBlockedDay(ctx, date)
	if err != nil {
		h.serverError(w, "blocked day check", err)
		return
	}
	if !blocked {
		schedule, err := h.config.GetScheduleDays(ctx)
		if err != nil {
			h.serverError(w, "load schedule", err)
			return
		}
		if sched, ok := availability.ScheduleFor(schedule, day.Weekday()); ok && sched.IsActive {
			booked, err := h.appts.BookedTimes(ctx, date)
			if err != nil {
				h.serverError(w, "load booked times", err)
				return
			}
			if free := availability.SlotTimes(sched, date, h.now().In(h.loc), booked); free != nil {
				times = free
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"date": date, "times": times})
}

// Book runs the booking saga and reports a structured outcome.
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	appt, err := h.orchestrator.Book(r.Context(), booking.Request{
		Name:    req.Name,
		Email:   req.Email,
		Service: req.Service,
		Date:    req.Date,
		Time:    req.Time,
	})
	if err != nil {
		writeJSON(w, bookingStatus(err), bookResponse{Result: booking.ErrorResult(err)})
		return
	}

	writeJSON(w, http.StatusCreated, bookResponse{
		Result:        booking.SuccessResult(appt),
		AppointmentID: appt.ID,
	})
}

// Cancel is the admin cancellation endpoint; authentication is enforced
// upstream.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	h.writeCancelOutcome(w, h.canceller.Cancel(r.Context(), booking.CancelRequest{ID: req.AppointmentID}))
}

// MyAppointments lists a customer's upcoming appointments after a name+email
// ownership match.
func (h *BookingHandler) MyAppointments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req myAppointmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		http.Error(w, "name and email required", http.StatusBadRequest)
		return
	}

	today := h.now().In(h.loc).Format(model.DateLayout)
	appts, err := h.appts.ListUpcomingOwned(r.Context(), req.Name, req.Email, today)
	if err != nil {
		h.serverError(w, "list appointments", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"appointments": toItems(appts)})
}

// MyCancel is the self-service cancellation endpoint: the ownership filter is
// part of both the lookup and the delete.
func (h *BookingHandler) MyCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.AppointmentID == "" || req.Name == "" || req.Email == "" {
		http.Error(w, "appointment_id, name, and email required", http.StatusBadRequest)
		return
	}

	h.writeCancelOutcome(w, h.canceller.Cancel(r.Context(), booking.CancelRequest{
		ID:    req.AppointmentID,
		Name:  req.Name,
		Email: req.Email,
	}))
}

func (h *BookingHandler) writeCancelOutcome(w http.ResponseWriter, err error) {
	if err != nil {
		if storage.IsNotFound(err) {
			writeJSON(w, http.StatusNotFound, booking.Result{
				Outcome: booking.OutcomeNotFound,
				Message: "Appointment not found.",
			})
			return
		}
		h.serverError(w, "cancel appointment", err)
		return
	}
	writeJSON(w, http.StatusOK, booking.Result{
		Outcome: booking.OutcomeCancelled,
		Message: "Appointment cancelled successfully.",
	})
}

func (h *BookingHandler) serverError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op+" failed", "err", err)
	writeJSON(w, http.StatusInternalServerError, booking.ErrorResult(err))
}

func bookingStatus(err error) int {
	res := booking.ErrorResult(err)
	switch res.Outcome {
	case booking.OutcomeInvalid:
		return http.StatusBadRequest
	case booking.OutcomeDayUnavailable:
		return http.StatusUnprocessableEntity
	case booking.OutcomeSlotTaken:
		return http.StatusConflict
	case booking.OutcomeRetry:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func toItems(appts []model.Appointment) []appointmentItem {
	items := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, appointmentItem{
			AppointmentID: a.ID,
			Service:       a.Service,
			Date:          a.Date,
			Time:          a.Time,
			Status:        a.Status,
		})
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
