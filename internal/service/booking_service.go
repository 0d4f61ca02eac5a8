package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campus-advising/advising_bot/internal/booking"
	"github.com/campus-advising/advising_bot/internal/calendar"
	"github.com/campus-advising/advising_bot/internal/model"
)

// AppointmentStore is the persistence contract of the booking flow,
// satisfied by the pgx repository and the in-memory store. Insert must be
// atomic: under concurrent commits for one slot exactly one caller wins and
// the rest get booking.ErrSlotUnavailable.
type AppointmentStore interface {
	Insert(ctx context.Context, appt *model.Appointment) error
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	ListByStudent(ctx context.Context, studentID string) ([]*model.Appointment, error)
	SetStatus(ctx context.Context, id string, status model.AppointmentStatus) error
	ActiveTimes(ctx context.Context, advisorID string, from, to time.Time) ([]time.Time, error)
}

// StudentDirectory looks up student profiles.
type StudentDirectory interface {
	GetStudentByID(ctx context.Context, id string) (*model.Student, error)
}

// BookingService owns the appointment lifecycle: the single commit path,
// cancellation and listing.
type BookingService struct {
	store    AppointmentStore
	advisors AdvisorDirectory
	students StudentDirectory
	logger   *zap.Logger
	now      func() time.Time
}

func NewBookingService(
	store AppointmentStore,
	advisors AdvisorDirectory,
	students StudentDirectory,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		store:    store,
		advisors: advisors,
		students: students,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

// Commit books the slot for the student. It validates the participants and
// the slot shape, then hands the race-sensitive part to the store, whose
// Insert re-checks availability atomically. Returns
// booking.ErrSlotUnavailable when the slot was taken in the meantime.
func (s *BookingService) Commit(ctx context.Context, studentID, advisorID string, slotAt time.Time, reason string) (*model.Appointment, error) {
	student, err := s.students.GetStudentByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("student %s: %w", studentID, booking.ErrNotFound)
	}

	advisor, err := s.advisors.GetByID(ctx, advisorID)
	if err != nil {
		return nil, fmt.Errorf("get advisor: %w", err)
	}
	if advisor == nil {
		return nil, fmt.Errorf("advisor %s: %w", advisorID, booking.ErrNotFound)
	}

	if err := validateSlotShape(advisor, slotAt); err != nil {
		return nil, err
	}
	if slotAt.Before(s.now()) {
		return nil, fmt.Errorf("slot %s is in the past: %w", slotAt.Format(time.RFC3339), booking.ErrSlotUnavailable)
	}

	appt := &model.Appointment{
		ID:        uuid.New().String(),
		StudentID: studentID,
		AdvisorID: advisorID,
		SlotAt:    slotAt,
		Reason:    reason,
		Status:    model.AppointmentStatusActive,
	}

	if err := s.store.Insert(ctx, appt); err != nil {
		return nil, err
	}

	s.logger.Info("appointment booked",
		zap.String("appointment_id", appt.ID),
		zap.String("student_id", studentID),
		zap.String("advisor_id", advisorID),
		zap.Time("slot_at", slotAt),
	)

	return appt, nil
}

// Cancel flips the appointment to cancelled. Cancelling an appointment that
// is already cancelled succeeds without touching it.
func (s *BookingService) Cancel(ctx context.Context, appointmentID, studentID string) error {
	appt, err := s.store.GetByID(ctx, appointmentID)
	if err != nil {
		return fmt.Errorf("get appointment: %w", err)
	}
	if appt == nil {
		return booking.ErrNotFound
	}
	if appt.StudentID != studentID {
		return booking.ErrForbidden
	}
	if appt.Status == model.AppointmentStatusCancelled {
		return nil
	}

	if err := s.store.SetStatus(ctx, appointmentID, model.AppointmentStatusCancelled); err != nil {
		return err
	}

	s.logger.Info("appointment cancelled",
		zap.String("appointment_id", appointmentID),
		zap.String("student_id", studentID),
	)

	return nil
}

// ListForStudent returns all of a student's appointments, any status,
// ordered by slot time.
func (s *BookingService) ListForStudent(ctx context.Context, studentID string) ([]*model.Appointment, error) {
	return s.store.ListByStudent(ctx, studentID)
}

// validateSlotShape rejects date-times that are not generated slots for the
// advisor: off-grid times, weekends, hours outside the working window.
func validateSlotShape(advisor *model.Advisor, slotAt time.Time) error {
	for _, slot := range calendar.SlotsForDate(advisor, slotAt) {
		if slot.Equal(slotAt) {
			return nil
		}
	}
	return fmt.Errorf("%s is not a bookable slot for %s: %w",
		slotAt.Format(time.RFC3339), advisor.ID, booking.ErrSlotUnavailable)
}
