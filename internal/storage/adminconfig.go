package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/Guyeche/Romki-Barber-App-V2/internal/model"
	"github.com/Guyeche/Romki-Barber-App-V2/libs/db"
)

// DefaultBookingWindowDays applies when the setting row has never been written.
const DefaultBookingWindowDays = 14

const bookingWindowKey = "booking_window_days"

// ConfigRepository reads and writes the admin-owned configuration: the weekly
// schedule template, day closures, and the rolling booking window. The booking
// path reads these without locking; writers upsert atomically, and readers may
// observe either the old or new rows during a transition.
type ConfigRepository struct {
	pool *db.Pool
}

func NewConfigRepository(pool *db.Pool) *ConfigRepository {
	return &ConfigRepository{pool: pool}
}

func (r *ConfigRepository) GetScheduleDays(ctx context.Context) ([]model.ScheduleDay, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT day_of_week, start_time, end_time, is_active
		FROM work_schedule
		ORDER BY day_of_week ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []model.ScheduleDay
	for rows.Next() {
		var d model.ScheduleDay
		if err := rows.Scan(&d.DayOfWeek, &d.StartTime, &d.EndTime, &d.IsActive); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (r *ConfigRepository) GetBlockedDays(ctx context.Context) ([]model.BlockedDay, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date::text
		FROM blocked_days
		ORDER BY date ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []model.BlockedDay
	for rows.Next() {
		var d model.BlockedDay
		if err := rows.Scan(&d.Date); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// IsBlockedDay is the commit-time closure check used by the booking saga.
func (r *ConfigRepository) IsBlockedDay(ctx context.Context, date string) (bool, error) {
	var blocked bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM blocked_days WHERE date = $1)
	`, date).Scan(&blocked)
	return blocked, err
}

func (r *ConfigRepository) GetBookingWindowDays(ctx context.Context) (int, error) {
	var raw string
	err := r.pool.QueryRow(ctx, `
		SELECT value FROM app_settings WHERE key = $1
	`, bookingWindowKey).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultBookingWindowDays, nil
	}
	if err != nil {
		return 0, err
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		return 0, fmt.Errorf("invalid %s setting %q", bookingWindowKey, raw)
	}
	return days, nil
}

// UpsertScheduleDays replaces the template rows for the given weekdays.
func (r *ConfigRepository) UpsertScheduleDays(ctx context.Context, days []model.ScheduleDay) error {
	for _, d := range days {
		if d.DayOfWeek < 0 || d.DayOfWeek > 6 {
			return fmt.Errorf("day_of_week %d out of range", d.DayOfWeek)
		}
		_, err := r.pool.Exec(ctx, `
			INSERT INTO work_schedule (day_of_week, start_time, end_time, is_active)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (day_of_week) DO UPDATE
			SET start_time = EXCLUDED.start_time,
				end_time = EXCLUDED.end_time,
				is_active = EXCLUDED.is_active
		`, d.DayOfWeek, d.StartTime, d.EndTime, d.IsActive)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *ConfigRepository) UpsertBookingWindowDays(ctx context.Context, days int) error {
	if days < 0 {
		return fmt.Errorf("booking window must be non-negative, got %d", days)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO app_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, bookingWindowKey, strconv.Itoa(days))
	return err
}

func (r *ConfigRepository) AddBlockedDay(ctx context.Context, date string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO blocked_days (date)
		VALUES ($1)
		ON CONFLICT (date) DO NOTHING
	`, date)
	return err
}

func (r *ConfigRepository) RemoveBlockedDay(ctx context.Context, date string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM blocked_days WHERE date = $1`, date)
	return err
}
