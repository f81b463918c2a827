// Package model holds the domain types shared by the booking core.
package model

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the business-local calendar day, e.g. "2026-03-14".
	DateLayout = "2006-01-02"
	// TimeLayout is the slot start within a day, e.g. "10:30".
	TimeLayout = "15:04"
)

const StatusConfirmed = "confirmed"

// Appointment is a reservation of a single (date, time) slot. At most one
// appointment may exist per (date, time); the store enforces that.
type Appointment struct {
	ID              string
	CustomerName    string
	Email           string
	Service         string
	Date            string // DateLayout, business-local
	Time            string // TimeLayout, slot start
	Status          string
	CalendarEventID string // set after the calendar step succeeds; may stay empty
	CreatedAt       time.Time
}

// ScheduleDay is the weekly template row for one weekday.
// DayOfWeek follows time.Weekday numbering: 0 = Sunday.
type ScheduleDay struct {
	DayOfWeek int
	StartTime string // TimeLayout
	EndTime   string // TimeLayout
	IsActive  bool
}

// BlockedDay closes a whole date to booking regardless of the weekly schedule.
type BlockedDay struct {
	Date string // DateLayout
}

// ParseDate parses a DateLayout string as midnight in loc.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// SlotStart combines a date and a time-of-day into an instant in loc.
func SlotStart(date, tm string, loc *time.Location) (time.Time, error) {
	day, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	clock, err := time.Parse(TimeLayout, tm)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", tm, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), nil
}

// DisplayDate renders a DateLayout string as DD/MM/YYYY for customer-facing text.
func DisplayDate(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("02/01/2006")
}
