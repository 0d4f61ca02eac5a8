// Package memory provides an in-process appointment store with the same
// semantics as the Postgres repository. It backs the unit tests and the
// DB-less development mode (no DB_DSN configured).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/campus-advising/advising_bot/internal/booking"
	"github.com/campus-advising/advising_bot/internal/model"
)

// AppointmentStore keeps appointments in a mutex-guarded map. The mutex is
// held across the whole check-then-insert in Insert, which serializes
// concurrent commits for the same slot exactly like the database indexes do.
type AppointmentStore struct {
	mu    sync.RWMutex
	appts map[string]*model.Appointment
}

func NewAppointmentStore() *AppointmentStore {
	return &AppointmentStore{appts: make(map[string]*model.Appointment)}
}

// Insert stores a new active appointment, failing with
// booking.ErrSlotUnavailable when the advisor or student already holds an
// active appointment at that time.
func (s *AppointmentStore) Insert(_ context.Context, appt *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.appts {
		if !existing.IsActive() || !existing.SlotAt.Equal(appt.SlotAt) {
			continue
		}
		if existing.AdvisorID == appt.AdvisorID || existing.StudentID == appt.StudentID {
			return booking.ErrSlotUnavailable
		}
	}

	now := time.Now()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	stored := *appt
	s.appts[appt.ID] = &stored

	return nil
}

// GetByID returns a copy of the appointment, or nil when unknown.
func (s *AppointmentStore) GetByID(_ context.Context, id string) (*model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appt, ok := s.appts[id]
	if !ok {
		return nil, nil
	}

	out := *appt
	return &out, nil
}

// ListByStudent returns the student's appointments ordered by slot time.
func (s *AppointmentStore) ListByStudent(_ context.Context, studentID string) ([]*model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var appts []*model.Appointment
	for _, appt := range s.appts {
		if appt.StudentID == studentID {
			out := *appt
			appts = append(appts, &out)
		}
	}

	sort.Slice(appts, func(i, j int) bool {
		return appts[i].SlotAt.Before(appts[j].SlotAt)
	})

	return appts, nil
}

// SetStatus updates an appointment's status.
func (s *AppointmentStore) SetStatus(_ context.Context, id string, status model.AppointmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.appts[id]
	if !ok {
		return booking.ErrNotFound
	}

	appt.Status = status
	appt.UpdatedAt = time.Now()

	return nil
}

// ActiveTimes returns slot times with an active appointment for the advisor
// within [from, to).
func (s *AppointmentStore) ActiveTimes(_ context.Context, advisorID string, from, to time.Time) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var times []time.Time
	for _, appt := range s.appts {
		if appt.AdvisorID != advisorID || !appt.IsActive() {
			continue
		}
		if appt.SlotAt.Before(from) || !appt.SlotAt.Before(to) {
			continue
		}
		times = append(times, appt.SlotAt)
	}

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	return times, nil
}
