package availability

import (
	"reflect"
	"testing"
	"time"

	"github.com/Guyeche/Romki-Barber-App-V2/internal/model"
)

// weekdaySchedule is Mon-Fri 09:00-17:00 active, Sat/Sun present but inactive.
func weekdaySchedule() []model.ScheduleDay {
	days := make([]model.ScheduleDay, 0, 7)
	for dow := 0; dow <= 6; dow++ {
		days = append(days, model.ScheduleDay{
			DayOfWeek: dow,
			StartTime: "09:00",
			EndTime:   "17:00",
			IsActive:  dow >= 1 && dow <= 5,
		})
	}
	return days
}

// 2026-03-02 is a Monday.
func mondayMorning() time.Time {
	return time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
}

func TestBookableDatesSkipsInactiveWeekdays(t *testing.T) {
	dates := BookableDates(mondayMorning(), weekdaySchedule(), nil, 7)

	want := []string{"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06"}
	if !reflect.DeepEqual(dates, want) {
		t.Fatalf("BookableDates = %v, want %v", dates, want)
	}
}

func TestBookableDatesSkipsBlockedDays(t *testing.T) {
	blocked := []model.BlockedDay{{Date: "2026-03-03"}, {Date: "2026-03-05"}}

	dates := BookableDates(mondayMorning(), weekdaySchedule(), blocked, 7)

	want := []string{"2026-03-02", "2026-03-04", "2026-03-06"}
	if !reflect.DeepEqual(dates, want) {
		t.Fatalf("BookableDates = %v, want %v", dates, want)
	}
}

func TestBookableDatesTodayBlockedWindowOne(t *testing.T) {
	blocked := []model.BlockedDay{{Date: "2026-03-02"}}

	dates := BookableDates(mondayMorning(), weekdaySchedule(), blocked, 1)

	if len(dates) != 0 {
		t.Fatalf("BookableDates = %v, want empty", dates)
	}
}

func TestBookableDatesMissingScheduleRow(t *testing.T) {
	// Only Tuesday has a row at all.
	schedule := []model.ScheduleDay{{DayOfWeek: 2, StartTime: "09:00", EndTime: "17:00", IsActive: true}}

	dates := BookableDates(mondayMorning(), schedule, nil, 7)

	want := []string{"2026-03-03"}
	if !reflect.DeepEqual(dates, want) {
		t.Fatalf("BookableDates = %v, want %v", dates, want)
	}
}

func TestBookableDatesDeterministic(t *testing.T) {
	now := mondayMorning()
	blocked := []model.BlockedDay{{Date: "2026-03-04"}}

	first := BookableDates(now, weekdaySchedule(), blocked, 14)
	second := BookableDates(now, weekdaySchedule(), blocked, 14)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("BookableDates not deterministic: %v vs %v", first, second)
	}
}

func TestSlotTimesFullDay(t *testing.T) {
	day := model.ScheduleDay{DayOfWeek: 2, StartTime: "09:00", EndTime: "17:00", IsActive: true}

	times := SlotTimes(day, "2026-03-03", mondayMorning(), nil)

	if len(times) != 16 {
		t.Fatalf("got %d slots, want 16: %v", len(times), times)
	}
	if times[0] != "09:00" || times[len(times)-1] != "16:30" {
		t.Fatalf("slot range = [%s, %s], want [09:00, 16:30]", times[0], times[len(times)-1])
	}
	for i := 1; i < len(times); i++ {
		prev, _ := time.Parse(model.TimeLayout, times[i-1])
		cur, _ := time.Parse(model.TimeLayout, times[i])
		if cur.Sub(prev) != SlotInterval {
			t.Fatalf("gap between %s and %s is not %v", times[i-1], times[i], SlotInterval)
		}
	}
}

func TestSlotTimesExcludesBooked(t *testing.T) {
	day := model.ScheduleDay{DayOfWeek: 2, StartTime: "09:00", EndTime: "17:00", IsActive: true}

	times := SlotTimes(day, "2026-03-03", mondayMorning(), []string{"10:00", "14:30"})

	if len(times) != 14 {
		t.Fatalf("got %d slots, want 14: %v", len(times), times)
	}
	for _, tm := range times {
		if tm == "10:00" || tm == "14:30" {
			t.Fatalf("booked time %s still offered", tm)
		}
	}
}

func TestSlotTimesDropsPastSlotsToday(t *testing.T) {
	day := model.ScheduleDay{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00", IsActive: true}
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	times := SlotTimes(day, "2026-03-02", now, nil)

	// The slot starting exactly at now is gone too.
	if len(times) == 0 || times[0] != "10:30" {
		t.Fatalf("first slot = %v, want 10:30", times)
	}
}

func TestSlotTimesInactiveDay(t *testing.T) {
	day := model.ScheduleDay{DayOfWeek: 0, StartTime: "09:00", EndTime: "17:00", IsActive: false}

	if times := SlotTimes(day, "2026-03-08", mondayMorning(), nil); len(times) != 0 {
		t.Fatalf("inactive day produced slots: %v", times)
	}
}

func TestSlotTimesStartNotBeforeEnd(t *testing.T) {
	day := model.ScheduleDay{DayOfWeek: 2, StartTime: "17:00", EndTime: "09:00", IsActive: true}

	if times := SlotTimes(day, "2026-03-03", mondayMorning(), nil); len(times) != 0 {
		t.Fatalf("inverted window produced slots: %v", times)
	}
}

func TestSlotTimesInvalidClock(t *testing.T) {
	day := model.ScheduleDay{DayOfWeek: 2, StartTime: "9am", EndTime: "17:00", IsActive: true}

	if times := SlotTimes(day, "2026-03-03", mondayMorning(), nil); len(times) != 0 {
		t.Fatalf("invalid clock produced slots: %v", times)
	}
}

func TestScheduleFor(t *testing.T) {
	schedule := weekdaySchedule()

	day, ok := ScheduleFor(schedule, time.Wednesday)
	if !ok || day.DayOfWeek != 3 {
		t.Fatalf("ScheduleFor(Wednesday) = %+v, %v", day, ok)
	}

	if _, ok := ScheduleFor(nil, time.Wednesday); ok {
		t.Fatal("ScheduleFor on empty schedule reported a row")
	}
}
