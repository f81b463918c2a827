// Package availability derives bookable dates and slot times from the weekly
// schedule, ad-hoc closures, the rolling booking window, and existing bookings.
// All functions are pure: identical inputs yield identical ordered output.
package availability

import (
	"time"

	"github.com/Guyeche/Romki-Barber-App-V2/internal/model"
)

// SlotInterval is the fixed slot granularity.
const SlotInterval = 30 * time.Minute

// ScheduleFor returns the template row for a weekday, if present.
func ScheduleFor(schedule []model.ScheduleDay, weekday time.Weekday) (model.ScheduleDay, bool) {
	for _, day := range schedule {
		if day.DayOfWeek == int(weekday) {
			return day, true
		}
	}
	return model.ScheduleDay{}, false
}

// BookableDates returns the dates within [today, today+windowDays) that are
// open for booking: not blocked, and with an active schedule row for their
// weekday. now must already be in the business timezone. The result is in
// chronological order; no open dates is an empty result, not an error.
func BookableDates(now time.Time, schedule []model.ScheduleDay, blocked []model.BlockedDay, windowDays int) []string {
	closed := make(map[string]struct{}, len(blocked))
	for _, b := range blocked {
		closed[b.Date] = struct{}{}
	}

	dates := make([]string, 0, windowDays)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for i := 0; i < windowDays; i++ {
		day := today.AddDate(0, 0, i)
		date := day.Format(model.DateLayout)
		if _, ok := closed[date]; ok {
			continue
		}
		sched, ok := ScheduleFor(schedule, day.Weekday())
		if !ok || !sched.IsActive {
			continue
		}
		dates = append(dates, date)
	}
	return dates
}

// SlotTimes generates the free slot times for one date at SlotInterval
// granularity over [StartTime, EndTime). Slots at or before now are dropped
// (only relevant when date is today), as are times present in booked.
// A day with StartTime >= EndTime yields no slots.
func SlotTimes(day model.ScheduleDay, date string, now time.Time, booked []string) []string {
	if !day.IsActive {
		return nil
	}
	start, err := model.SlotStart(date, day.StartTime, now.Location())
	if err != nil {
		return nil
	}
	end, err := model.SlotStart(date, day.EndTime, now.Location())
	if err != nil {
		return nil
	}

	taken := make(map[string]struct{}, len(booked))
	for _, t := range booked {
		taken[t] = struct{}{}
	}

	var times []string
	for t := start; t.Before(end); t = t.Add(SlotInterval) {
		if !t.After(now) {
			continue
		}
		tm := t.Format(model.TimeLayout)
		if _, ok := taken[tm]; ok {
			continue
		}
		times = append(times, tm)
	}
	return times
}
