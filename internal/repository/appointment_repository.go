package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-advising/advising_bot/internal/booking"
	"github.com/campus-advising/advising_bot/internal/model"
	"github.com/campus-advising/advising_bot/internal/repository/base"
)

// AppointmentRepository is the transactional boundary of the booking flow.
// Insert is the single write path for new appointments; the partial unique
// indexes on (advisor_id, slot_at) and (student_id, slot_at) make duplicate
// active appointments unrepresentable even under concurrent commits.
type AppointmentRepository struct {
	*base.Repository
}

func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{Repository: base.NewRepository(pool)}
}

const appointmentColumns = `appointment_id, student_id, advisor_id, slot_at, reason, status, created_at, updated_at`

// Insert re-checks availability and creates the active appointment in one
// transaction. Losing a race past the pre-check still fails cleanly: the
// unique index rejects the insert and the violation is reported as
// booking.ErrSlotUnavailable.
func (r *AppointmentRepository) Insert(ctx context.Context, appt *model.Appointment) error {
	tx, err := r.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Advisory pre-check inside the transaction. The index below is the
	// real guard; this keeps the common conflict path off the error branch.
	var taken bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE status = 'active'
			  AND slot_at = $3
			  AND (advisor_id = $1 OR student_id = $2)
		)
	`, appt.AdvisorID, appt.StudentID, appt.SlotAt).Scan(&taken)
	if err != nil {
		return fmt.Errorf("check slot availability: %w", err)
	}
	if taken {
		return booking.ErrSlotUnavailable
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO appointments (appointment_id, student_id, advisor_id, slot_at, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`,
		appt.ID,
		appt.StudentID,
		appt.AdvisorID,
		appt.SlotAt,
		appt.Reason,
		appt.Status,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return booking.ErrSlotUnavailable
		}
		return fmt.Errorf("insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID fetches an appointment by id.
func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE appointment_id = $1`

	var appt model.Appointment
	err := r.QueryRow(ctx, query, id).Scan(
		&appt.ID,
		&appt.StudentID,
		&appt.AdvisorID,
		&appt.SlotAt,
		&appt.Reason,
		&appt.Status,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}

	return &appt, nil
}

// ListByStudent returns all of a student's appointments, any status,
// ordered by slot time.
func (r *AppointmentRepository) ListByStudent(ctx context.Context, studentID string) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE student_id = $1 ORDER BY slot_at`

	rows, err := r.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by student: %w", err)
	}
	defer rows.Close()

	var appts []*model.Appointment
	for rows.Next() {
		var appt model.Appointment
		err := rows.Scan(
			&appt.ID,
			&appt.StudentID,
			&appt.AdvisorID,
			&appt.SlotAt,
			&appt.Reason,
			&appt.Status,
			&appt.CreatedAt,
			&appt.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, &appt)
	}

	return appts, nil
}

// SetStatus updates an appointment's status.
func (r *AppointmentRepository) SetStatus(ctx context.Context, id string, status model.AppointmentStatus) error {
	affected, err := r.ExecAffected(ctx, `
		UPDATE appointments
		SET status = $1, updated_at = now()
		WHERE appointment_id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if affected == 0 {
		return booking.ErrNotFound
	}

	return nil
}

// ActiveTimes returns the slot times holding an active appointment for the
// advisor within [from, to), used by the calendar's availability filter.
func (r *AppointmentRepository) ActiveTimes(ctx context.Context, advisorID string, from, to time.Time) ([]time.Time, error) {
	rows, err := r.Query(ctx, `
		SELECT slot_at FROM appointments
		WHERE advisor_id = $1
		  AND status = 'active'
		  AND slot_at >= $2
		  AND slot_at < $3
		ORDER BY slot_at
	`, advisorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get active slot times: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan slot time: %w", err)
		}
		times = append(times, t)
	}

	return times, nil
}
