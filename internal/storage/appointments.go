package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Guyeche/Romki-Barber-App-V2/internal/model"
	"github.com/Guyeche/Romki-Barber-App-V2/libs/db"
)

// AppointmentRepository is the persistent slot store. The (date, time)
// uniqueness invariant lives in the appointments table, not here.
type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

const appointmentColumns = `id, customer_name, email, service, date::text, time, status, calendar_event_id, created_at`

// Insert atomically reserves the (date, time) slot. A concurrent conflicting
// insert fails with ErrDuplicateSlot; rows are never overwritten.
func (r *AppointmentRepository) Insert(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	appt.ID = uuid.NewString()
	if appt.Status == "" {
		appt.Status = model.StatusConfirmed
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, customer_name, email, service, date, time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, appt.ID, appt.CustomerName, appt.Email, appt.Service, appt.Date, appt.Time, appt.Status).Scan(&appt.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.Appointment{}, fmt.Errorf("insert appointment %s %s: %w", appt.Date, appt.Time, ErrDuplicateSlot)
		}
		return model.Appointment{}, err
	}
	return appt, nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

// GetOwned looks up an appointment only if the case-insensitive name and
// email both match, for self-service flows.
func (r *AppointmentRepository) GetOwned(ctx context.Context, id, name, email string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1 AND lower(customer_name) = lower($2) AND lower(email) = lower($3)
	`, id, name, email)
	return scanAppointment(row)
}

func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOwned deletes with the same predicate GetOwned reads with, so the
// delete cannot act on a row that stopped matching in between.
func (r *AppointmentRepository) DeleteOwned(ctx context.Context, id, name, email string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM appointments
		WHERE id = $1 AND lower(customer_name) = lower($2) AND lower(email) = lower($3)
	`, id, name, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// BookedTimes returns the reserved slot times for one date, ordered.
func (r *AppointmentRepository) BookedTimes(ctx context.Context, date string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT time
		FROM appointments
		WHERE date = $1
		ORDER BY time ASC
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// SetCalendarEventID records the external calendar event on an existing row.
func (r *AppointmentRepository) SetCalendarEventID(ctx context.Context, id, eventID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET calendar_event_id = $2
		WHERE id = $1
	`, id, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUpcomingOwned returns a customer's appointments on or after fromDate,
// matched case-insensitively, ordered by date then time.
func (r *AppointmentRepository) ListUpcomingOwned(ctx context.Context, name, email, fromDate string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE lower(customer_name) = lower($1) AND lower(email) = lower($2) AND date >= $3
		ORDER BY date ASC, time ASC
	`, name, email, fromDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// ListUpcoming returns all appointments on or after fromDate for the admin view.
func (r *AppointmentRepository) ListUpcoming(ctx context.Context, fromDate string, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE date >= $1
		ORDER BY date ASC, time ASC
		LIMIT $2
	`, fromDate, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	err := row.Scan(
		&appt.ID,
		&appt.CustomerName,
		&appt.Email,
		&appt.Service,
		&appt.Date,
		&appt.Time,
		&appt.Status,
		&appt.CalendarEventID,
		&appt.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, ErrNotFound
	}
	if err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

func scanAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}
