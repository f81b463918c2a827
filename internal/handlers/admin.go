package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Guyeche/Romki-Barber-App-V2/internal/model"
)

// AdminHandler exposes the configuration surface owned by the administrative
// collaborator: the weekly schedule, the booking window, and day closures.
// Authentication is enforced upstream.
type AdminHandler struct {
	appts  AppointmentReader
	config ConfigStore
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewAdminHandler(appts AppointmentReader, config ConfigStore, logger *slog.Logger, loc *time.Location) *AdminHandler {
	return &AdminHandler{
		appts:  appts,
		config: config,
		logger: logger,
		loc:    loc,
		now:    time.Now,
	}
}

type scheduleDayItem struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsActive  bool   `json:"is_active"`
}

type schedulePayload struct {
	Schedule          []scheduleDayItem `json:"schedule"`
	BookingWindowDays int               `json:"booking_window_days"`
}

type blockedDayRequest struct {
	Date string `json:"date"`
}

// Schedule reads (GET) or replaces (PUT) the weekly template and window.
func (h *AdminHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getSchedule(w, r)
	case http.MethodPut:
		h.putSchedule(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AdminHandler) getSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	days, err := h.config.GetScheduleDays(ctx)
	if err != nil {
		h.fail(w, "load schedule", err)
		return
	}
	window, err := h.config.GetBookingWindowDays(ctx)
	if err != nil {
		h.fail(w, "load booking window", err)
		return
	}

	items := make([]scheduleDayItem, 0, len(days))
	for _, d := range days {
		items = append(items, scheduleDayItem{
			DayOfWeek: d.DayOfWeek,
			StartTime: d.StartTime,
			EndTime:   d.EndTime,
			IsActive:  d.IsActive,
		})
	}
	writeJSON(w, http.StatusOK, schedulePayload{Schedule: items, BookingWindowDays: window})
}

func (h *AdminHandler) putSchedule(w http.ResponseWriter, r *http.Request) {
	var req schedulePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if len(req.Schedule) > 0 {
		days := make([]model.ScheduleDay, 0, len(req.Schedule))
		for _, item := range req.Schedule {
			if item.DayOfWeek < 0 || item.DayOfWeek > 6 {
				http.Error(w, "day_of_week must be 0-6", http.StatusBadRequest)
				return
			}
			if !validClock(item.StartTime) || !validClock(item.EndTime) {
				http.Error(w, "start_time and end_time must be HH:MM", http.StatusBadRequest)
				return
			}
			days = append(days, model.ScheduleDay{
				DayOfWeek: item.DayOfWeek,
				StartTime: item.StartTime,
				EndTime:   item.EndTime,
				IsActive:  item.IsActive,
			})
		}
		if err := h.config.UpsertScheduleDays(ctx, days); err != nil {
			h.fail(w, "update schedule", err)
			return
		}
	}
	if req.BookingWindowDays > 0 {
		if err := h.config.UpsertBookingWindowDays(ctx, req.BookingWindowDays); err != nil {
			h.fail(w, "update booking window", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// BlockedDays adds (POST) or removes (DELETE) a closure date.
func (h *AdminHandler) BlockedDays(w http.ResponseWriter, r *http.Request) {
	var date string
	switch r.Method {
	case http.MethodPost:
		var req blockedDayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		date = strings.TrimSpace(req.Date)
	case http.MethodDelete:
		date = strings.TrimSpace(r.URL.Query().Get("date"))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, err := model.ParseDate(date, h.loc); err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	var err error
	if r.Method == http.MethodPost {
		err = h.config.AddBlockedDay(r.Context(), date)
	} else {
		err = h.config.RemoveBlockedDay(r.Context(), date)
	}
	if err != nil {
		h.fail(w, "update blocked days", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Appointments lists upcoming appointments for the admin view.
func (h *AdminHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 100
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	today := h.now().In(h.loc).Format(model.DateLayout)
	appts, err := h.appts.ListUpcoming(r.Context(), today, limit)
	if err != nil {
		h.fail(w, "list appointments", err)
		return
	}

	items := make([]map[string]string, 0, len(appts))
	for _, a := range appts {
		items = append(items, map[string]string{
			"appointment_id": a.ID,
			"customer_name":  a.CustomerName,
			"email":          a.Email,
			"service":        a.Service,
			"date":           a.Date,
			"time":           a.Time,
			"status":         a.Status,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": items})
}

func (h *AdminHandler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op+" failed", "err", err)
	http.Error(w, op+" failed", http.StatusInternalServerError)
}

func validClock(v string) bool {
	_, err := time.Parse(model.TimeLayout, v)
	return err == nil
}
