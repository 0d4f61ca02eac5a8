package conversation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-advising/advising_bot/internal/calendar"
	"github.com/campus-advising/advising_bot/internal/model"
	"github.com/campus-advising/advising_bot/internal/repository/memory"
	"github.com/campus-advising/advising_bot/internal/resolver"
	"github.com/campus-advising/advising_bot/internal/service"
)

// Wednesday morning.
var engineNow = time.Date(2025, 1, 15, 7, 0, 0, 0, time.UTC)

type fixture struct {
	engine *Engine
	store  *memory.AppointmentStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewAppointmentStore()
	directory := memory.NewDirectory(
		&model.Advisor{ID: "c.noble@university.edu", Name: "Catherine Noble", Email: "c.noble@university.edu", Title: "Academic Advisor Sr.", ProgramLevel: model.ProgramUndergraduate},
		&model.Advisor{ID: "m.herrera@university.edu", Name: "Miguel Herrera", Email: "m.herrera@university.edu", Title: "Academic Advisor", ProgramLevel: model.ProgramUndergraduate},
		&model.Advisor{ID: "j.okafor@university.edu", Name: "Jane Okafor", Email: "j.okafor@university.edu", Title: "Graduate Advisor", ProgramLevel: model.ProgramGraduate},
	)
	require.NoError(t, directory.UpsertStudent(context.Background(), &model.Student{ID: "s1", Name: "Test Student"}))

	clock := func() time.Time { return engineNow }
	logger := zap.NewNop()

	avail := calendar.NewAvailability(store).WithClock(clock)
	bookings := service.NewBookingService(store, directory, directory, logger).WithClock(clock)
	engine := NewEngine(
		service.NewAdvisorService(directory),
		bookings,
		avail,
		resolver.NewTwoTier(nil, time.Second, logger),
		service.NewLogNotifier(logger),
		logger,
	).WithClock(clock)

	return &fixture{engine: engine, store: store}
}

func (f *fixture) say(t *testing.T, c *Context, input string) *Turn {
	t.Helper()
	turn, err := f.engine.Handle(context.Background(), c, input)
	require.NoError(t, err)
	return turn
}

func TestEngineHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	turn := f.engine.Start(ctx, "s1")
	c := turn.Context
	assert.Equal(t, StateNeedProgram, turn.State)

	turn = f.say(t, c, "I'm an undergrad")
	require.Equal(t, StateNeedAdvisor, turn.State)
	require.Len(t, c.AvailableAdvisors, 2)
	// Ordered by name.
	assert.Equal(t, "Catherine Noble", c.AvailableAdvisors[0].Name)

	turn = f.say(t, c, "Catherine")
	require.Equal(t, StateNeedDate, turn.State)
	assert.Equal(t, "c.noble@university.edu", c.AdvisorID)

	turn = f.say(t, c, "2025-02-03")
	require.Equal(t, StateNeedTime, turn.State, turn.Message)
	assert.Len(t, c.AvailableSlots, 18)

	turn = f.say(t, c, "2pm")
	require.Equal(t, StateNeedReason, turn.State, turn.Message)
	assert.Equal(t, time.Date(2025, 2, 3, 14, 0, 0, 0, time.UTC), c.SlotAt)

	turn = f.say(t, c, "course planning")
	require.Equal(t, StateConfirming, turn.State)
	assert.Contains(t, turn.Message, "Catherine Noble")
	assert.Contains(t, turn.Message, "course planning")

	turn = f.say(t, c, "yes")
	require.Equal(t, StateComplete, turn.State, turn.Message)
	require.NotNil(t, turn.Appointment)
	assert.Equal(t, ActionBooked, turn.Action)

	stored, err := f.store.GetByID(ctx, turn.Appointment.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.IsActive())
	assert.Equal(t, "s1", stored.StudentID)
	assert.Equal(t, "course planning", stored.Reason)

	// Terminal state: the dialog is over.
	turn = f.say(t, c, "hello again")
	assert.Equal(t, ActionError, turn.Action)
}

func TestEngineUnknownAdvisorReprompts(t *testing.T) {
	f := newFixture(t)
	c := f.engine.Start(context.Background(), "s1").Context

	f.say(t, c, "undergraduate")
	turn := f.say(t, c, "Dr. Nobody")

	assert.Equal(t, StateNeedAdvisor, turn.State)
	assert.Equal(t, ActionClarify, turn.Action)
	assert.Contains(t, turn.Message, "Catherine Noble")
}

func TestEngineCancellationFromAnyState(t *testing.T) {
	f := newFixture(t)

	for _, script := range [][]string{
		{"nevermind"},
		{"grad", "cancel"},
		{"undergrad", "1", "forget it"},
		{"undergrad", "1", "tomorrow", "stop"},
	} {
		c := f.engine.Start(context.Background(), "s1").Context
		var turn *Turn
		for _, msg := range script {
			turn = f.say(t, c, msg)
		}
		assert.Equal(t, StateCancelled, turn.State)
		assert.Equal(t, ActionCancel, turn.Action)
	}
}

func TestEngineRejectsWeekendAndPastDates(t *testing.T) {
	f := newFixture(t)
	c := f.engine.Start(context.Background(), "s1").Context
	f.say(t, c, "undergrad")
	f.say(t, c, "1")

	turn := f.say(t, c, "2025-01-18") // Saturday
	assert.Equal(t, StateNeedDate, turn.State)
	assert.Contains(t, turn.Message, "weekend")

	turn = f.say(t, c, "2025-01-10")
	assert.Equal(t, StateNeedDate, turn.State)
	assert.Contains(t, turn.Message, "past")

	turn = f.say(t, c, "2025-06-02")
	assert.Equal(t, StateNeedDate, turn.State)
	assert.Contains(t, turn.Message, "30 days")
}

func TestEngineGibberishDateReprompts(t *testing.T) {
	f := newFixture(t)
	c := f.engine.Start(context.Background(), "s1").Context
	f.say(t, c, "undergrad")
	f.say(t, c, "1")

	turn := f.say(t, c, "whenever my roommate feels like it")

	assert.Equal(t, StateNeedDate, turn.State)
	assert.Equal(t, ActionClarify, turn.Action)
}

func TestEnginePeriodSearchNextMonth(t *testing.T) {
	f := newFixture(t)
	c := f.engine.Start(context.Background(), "s1").Context
	f.say(t, c, "undergrad")
	f.say(t, c, "1")

	turn := f.say(t, c, "sometime next month")
	require.Equal(t, ActionSuggestDates, turn.Action, turn.Message)
	require.Equal(t, StateNeedDate, turn.State)

	// February 2025 starts on a Saturday; the first five weekdays with
	// openings are Mon Feb 3 .. Fri Feb 7.
	require.Len(t, c.SuggestedDates, 5)
	assert.Equal(t, time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), c.SuggestedDates[0])
	assert.Equal(t, time.Date(2025, 2, 7, 0, 0, 0, 0, time.UTC), c.SuggestedDates[4])

	turn = f.say(t, c, "2")
	require.Equal(t, StateNeedTime, turn.State, turn.Message)
	assert.Equal(t, time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC), c.SelectedDate)
}

func TestEngineTimeSelectionVariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"exact clock", "2:30 pm", time.Date(2025, 2, 3, 14, 30, 0, 0, time.UTC)},
		{"closest within interval", "2:40 pm", time.Date(2025, 2, 3, 14, 30, 0, 0, time.UTC)},
		{"index pick", "3", time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)},
		// UI buttons post the slot as its RFC 3339 stamp.
		{"slot token", "2025-02-03T10:30:00Z", time.Date(2025, 2, 3, 10, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			c := f.engine.Start(context.Background(), "s1").Context
			f.say(t, c, "undergrad")
			f.say(t, c, "1")
			f.say(t, c, "2025-02-03")

			turn := f.say(t, c, tt.input)
			require.Equal(t, StateNeedReason, turn.State, turn.Message)
			assert.Equal(t, tt.want, c.SlotAt)
		})
	}
}

func TestEngineEveningBucketHasNoSlots(t *testing.T) {
	f := newFixture(t)
	c := f.engine.Start(context.Background(), "s1").Context
	f.say(t, c, "undergrad")
	f.say(t, c, "1")
	f.say(t, c, "2025-02-03")

	turn := f.say(t, c, "in the evening")

	assert.Equal(t, StateNeedTime, turn.State)
	assert.Contains(t, turn.Message, "5:00 PM")
}

func TestEngineMorningBucketNarrowsChoices(t *testing.T) {
	f := newFixture(t)
	c := f.engine.Start(context.Background(), "s1").Context
	f.say(t, c, "undergrad")
	f.say(t, c, "1")
	f.say(t, c, "2025-02-03")

	turn := f.say(t, c, "sometime in the morning")
	require.Equal(t, StateNeedTime, turn.State)
	// 8:00 .. 11:30.
	require.Len(t, c.AvailableSlots, 8)

	turn = f.say(t, c, "1")
	require.Equal(t, StateNeedReason, turn.State, turn.Message)
	assert.Equal(t, time.Date(2025, 2, 3, 8, 0, 0, 0, time.UTC), c.SlotAt)
}

func TestEngineSkipReason(t *testing.T) {
	f := newFixture(t)
	c := f.engine.Start(context.Background(), "s1").Context
	f.say(t, c, "undergrad")
	f.say(t, c, "1")
	f.say(t, c, "2025-02-03")
	f.say(t, c, "2pm")

	turn := f.say(t, c, "skip")

	require.Equal(t, StateConfirming, turn.State)
	assert.Empty(t, c.Reason)
	assert.NotContains(t, turn.Message, "Reason:")
}

func TestEngineModifyDateFromConfirmation(t *testing.T) {
	f := newFixture(t)
	c := f.engine.Start(context.Background(), "s1").Context
	f.say(t, c, "undergrad")
	f.say(t, c, "1")
	f.say(t, c, "2025-02-03")
	f.say(t, c, "2pm")
	f.say(t, c, "skip")

	turn := f.say(t, c, "no, change the date")
	require.Equal(t, StateNeedDate, turn.State)
	assert.True(t, c.SlotAt.IsZero())

	// Advisor selection survives the back-edge.
	assert.Equal(t, "c.noble@university.edu", c.AdvisorID)

	turn = f.say(t, c, "2025-02-04")
	require.Equal(t, StateNeedTime, turn.State, turn.Message)
}

func TestEngineConfirmingBareNoAsksWhatToChange(t *testing.T) {
	f := newFixture(t)
	c := f.engine.Start(context.Background(), "s1").Context
	f.say(t, c, "undergrad")
	f.say(t, c, "1")
	f.say(t, c, "2025-02-03")
	f.say(t, c, "2pm")
	f.say(t, c, "skip")

	turn := f.say(t, c, "no")

	assert.Equal(t, StateConfirming, turn.State)
	assert.Equal(t, ActionModify, turn.Action)
}

func TestEngineSlotLostRaceReoffersTimes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.engine.Start(ctx, "s1").Context
	f.say(t, c, "undergrad")
	f.say(t, c, "1")
	f.say(t, c, "2025-02-03")
	f.say(t, c, "2pm")
	f.say(t, c, "skip")

	// Another student grabs the slot between summary and confirmation.
	require.NoError(t, f.store.Insert(ctx, &model.Appointment{
		ID:        "rival",
		StudentID: "s2",
		AdvisorID: "c.noble@university.edu",
		SlotAt:    time.Date(2025, 2, 3, 14, 0, 0, 0, time.UTC),
		Status:    model.AppointmentStatusActive,
	}))

	turn := f.say(t, c, "yes")

	require.Equal(t, StateNeedTime, turn.State, turn.Message)
	assert.Contains(t, turn.Message, "just booked")
	assert.Len(t, c.AvailableSlots, 17)
	assert.True(t, c.SlotAt.IsZero())

	// The student picks another time and lands the booking.
	turn = f.say(t, c, "2:30 pm")
	require.Equal(t, StateNeedReason, turn.State)
	f.say(t, c, "skip")
	turn = f.say(t, c, "confirm")
	require.Equal(t, StateComplete, turn.State, turn.Message)
	require.NotNil(t, turn.Appointment)
	assert.Equal(t, time.Date(2025, 2, 3, 14, 30, 0, 0, time.UTC), turn.Appointment.SlotAt)
}

func TestEngineFullDaySuggestsAlternatives(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Fill Monday Feb 3 completely for Catherine.
	adv := &model.Advisor{ID: "c.noble@university.edu"}
	day := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	for i, slot := range calendar.SlotsForDate(adv, day) {
		require.NoError(t, f.store.Insert(ctx, &model.Appointment{
			ID:        "fill-" + slot.Format("1504"),
			StudentID: fmt.Sprintf("filler-%d", i),
			AdvisorID: adv.ID,
			SlotAt:    slot,
			Status:    model.AppointmentStatusActive,
		}))
	}

	c := f.engine.Start(ctx, "s1").Context
	f.say(t, c, "undergrad")
	f.say(t, c, "1")

	turn := f.say(t, c, "2025-02-03")
	require.Equal(t, ActionSuggestDates, turn.Action, turn.Message)
	require.NotEmpty(t, c.SuggestedDates)
	assert.Equal(t, time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC), c.SuggestedDates[0])

	turn = f.say(t, c, "1")
	assert.Equal(t, StateNeedTime, turn.State, turn.Message)
}

func TestEngineStudentAndAdvisorSlotIndependence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// s2 already has 2pm with Miguel; s1 books 2pm with Catherine fine.
	require.NoError(t, f.store.Insert(ctx, &model.Appointment{
		ID:        "other",
		StudentID: "s2",
		AdvisorID: "m.herrera@university.edu",
		SlotAt:    time.Date(2025, 2, 3, 14, 0, 0, 0, time.UTC),
		Status:    model.AppointmentStatusActive,
	}))

	c := f.engine.Start(ctx, "s1").Context
	f.say(t, c, "undergrad")
	f.say(t, c, "catherine noble")
	f.say(t, c, "2025-02-03")
	f.say(t, c, "2 pm")
	f.say(t, c, "none")
	turn := f.say(t, c, "book it")

	require.Equal(t, StateComplete, turn.State, turn.Message)
}
