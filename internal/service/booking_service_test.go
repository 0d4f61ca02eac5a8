package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-advising/advising_bot/internal/booking"
	"github.com/campus-advising/advising_bot/internal/model"
	"github.com/campus-advising/advising_bot/internal/repository/memory"
)

var svcNow = time.Date(2025, 1, 15, 7, 0, 0, 0, time.UTC)

func newBookingService(t *testing.T) (*BookingService, *memory.AppointmentStore) {
	t.Helper()

	store := memory.NewAppointmentStore()
	directory := memory.NewDirectory(
		&model.Advisor{ID: "adv1", Name: "Catherine Noble", Email: "c.noble@university.edu", ProgramLevel: model.ProgramUndergraduate},
	)
	require.NoError(t, directory.UpsertStudent(context.Background(), &model.Student{ID: "s1", Name: "Test Student"}))

	svc := NewBookingService(store, directory, directory, zap.NewNop()).
		WithClock(func() time.Time { return svcNow })

	return svc, store
}

func TestCommitHappyPath(t *testing.T) {
	svc, store := newBookingService(t)
	ctx := context.Background()
	slot := time.Date(2025, 2, 3, 14, 0, 0, 0, time.UTC)

	appt, err := svc.Commit(ctx, "s1", "adv1", slot, "course planning")
	require.NoError(t, err)
	require.NotNil(t, appt)
	assert.NotEmpty(t, appt.ID)
	assert.Equal(t, model.AppointmentStatusActive, appt.Status)

	stored, err := store.GetByID(ctx, appt.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, slot, stored.SlotAt)
}

func TestCommitValidation(t *testing.T) {
	svc, _ := newBookingService(t)
	ctx := context.Background()
	slot := time.Date(2025, 2, 3, 14, 0, 0, 0, time.UTC)

	_, err := svc.Commit(ctx, "ghost", "adv1", slot, "")
	assert.ErrorIs(t, err, booking.ErrNotFound)

	_, err = svc.Commit(ctx, "s1", "nobody", slot, "")
	assert.ErrorIs(t, err, booking.ErrNotFound)

	// Off-grid time.
	_, err = svc.Commit(ctx, "s1", "adv1", slot.Add(10*time.Minute), "")
	assert.ErrorIs(t, err, booking.ErrSlotUnavailable)

	// Weekend.
	_, err = svc.Commit(ctx, "s1", "adv1", time.Date(2025, 2, 1, 14, 0, 0, 0, time.UTC), "")
	assert.ErrorIs(t, err, booking.ErrSlotUnavailable)

	// Outside working hours.
	_, err = svc.Commit(ctx, "s1", "adv1", time.Date(2025, 2, 3, 19, 0, 0, 0, time.UTC), "")
	assert.ErrorIs(t, err, booking.ErrSlotUnavailable)

	// In the past.
	_, err = svc.Commit(ctx, "s1", "adv1", time.Date(2025, 1, 10, 14, 0, 0, 0, time.UTC), "")
	assert.ErrorIs(t, err, booking.ErrSlotUnavailable)
}

func TestCommitTakenSlot(t *testing.T) {
	svc, _ := newBookingService(t)
	ctx := context.Background()
	slot := time.Date(2025, 2, 3, 14, 0, 0, 0, time.UTC)

	_, err := svc.Commit(ctx, "s1", "adv1", slot, "")
	require.NoError(t, err)

	_, err = svc.Commit(ctx, "s1", "adv1", slot, "")
	assert.ErrorIs(t, err, booking.ErrSlotUnavailable)
}

func TestCancel(t *testing.T) {
	svc, store := newBookingService(t)
	ctx := context.Background()
	slot := time.Date(2025, 2, 3, 14, 0, 0, 0, time.UTC)

	appt, err := svc.Commit(ctx, "s1", "adv1", slot, "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Cancel(ctx, "missing", "s1"), booking.ErrNotFound)
	assert.ErrorIs(t, svc.Cancel(ctx, appt.ID, "someone-else"), booking.ErrForbidden)

	require.NoError(t, svc.Cancel(ctx, appt.ID, "s1"))

	stored, err := store.GetByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, stored.Status)

	// Idempotent.
	assert.NoError(t, svc.Cancel(ctx, appt.ID, "s1"))
}

func TestCancelFreesSlotForRebooking(t *testing.T) {
	svc, _ := newBookingService(t)
	ctx := context.Background()
	slot := time.Date(2025, 2, 3, 14, 0, 0, 0, time.UTC)

	appt, err := svc.Commit(ctx, "s1", "adv1", slot, "")
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, appt.ID, "s1"))

	_, err = svc.Commit(ctx, "s1", "adv1", slot, "second try")
	assert.NoError(t, err)
}

func TestMatchAdvisor(t *testing.T) {
	advisors := []*model.Advisor{
		{ID: "c.noble@university.edu", Name: "Catherine Noble", Email: "c.noble@university.edu"},
		{ID: "m.herrera@university.edu", Name: "Miguel Herrera", Email: "m.herrera@university.edu"},
	}

	tests := []struct {
		input string
		want  string // matched advisor ID, empty for no match
	}{
		{"1", "c.noble@university.edu"},
		{"2", "m.herrera@university.edu"},
		{"3", ""},
		{"0", ""},
		{"catherine", "c.noble@university.edu"},
		{"Catherine Noble", "c.noble@university.edu"},
		{"noble", "c.noble@university.edu"},
		{"I'd like to meet with miguel please", "m.herrera@university.edu"},
		{"m.herrera@university.edu", "m.herrera@university.edu"},
		{"dr. nobody", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := MatchAdvisor(tt.input, advisors)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}
