// Package calendar derives bookable slots from advisor working hours.
// Slots are never stored; availability is always recomputed against the
// active appointments, so a fresh call reflects commits made since the
// previous one.
package calendar

import (
	"context"
	"time"

	"github.com/campus-advising/advising_bot/internal/model"
)

const (
	// SlotInterval is the fixed booking granularity.
	SlotInterval = 30 * time.Minute

	// Default working window, hours of day.
	DefaultWorkdayStart = 8
	DefaultWorkdayEnd   = 17
)

// IsWorkday reports whether appointments can fall on the given date.
func IsWorkday(day time.Time) bool {
	wd := day.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// workingWindow returns the advisor's daily window, falling back to the
// default profile when the advisor record carries no hours.
func workingWindow(adv *model.Advisor) (startHour, endHour int) {
	startHour, endHour = adv.WorkdayStart, adv.WorkdayEnd
	if startHour == 0 && endHour == 0 {
		startHour, endHour = DefaultWorkdayStart, DefaultWorkdayEnd
	}
	return startHour, endHour
}

// SlotsForDate generates the canonical ordered slot sequence for one
// advisor and date: every SlotInterval step inside the working window,
// empty on weekends. Deterministic; same inputs, same sequence.
func SlotsForDate(adv *model.Advisor, day time.Time) []time.Time {
	if !IsWorkday(day) {
		return nil
	}

	startHour, endHour := workingWindow(adv)

	var slots []time.Time
	cur := time.Date(day.Year(), day.Month(), day.Day(), startHour, 0, 0, 0, day.Location())
	end := time.Date(day.Year(), day.Month(), day.Day(), endHour, 0, 0, 0, day.Location())
	for cur.Before(end) {
		slots = append(slots, cur)
		cur = cur.Add(SlotInterval)
	}

	return slots
}

// BookedLookup answers which slot times hold an active appointment.
// Satisfied by both the pgx repository and the in-memory store.
type BookedLookup interface {
	ActiveTimes(ctx context.Context, advisorID string, from, to time.Time) ([]time.Time, error)
}

// Availability filters generated slots against active appointments and the
// clock. Results are advisory: the store re-checks inside the commit
// transaction, so a stale answer here can only cost the student a retry.
type Availability struct {
	booked BookedLookup
	now    func() time.Time
}

func NewAvailability(booked BookedLookup) *Availability {
	return &Availability{booked: booked, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (a *Availability) WithClock(now func() time.Time) *Availability {
	a.now = now
	return a
}

// IsAvailable reports whether the exact date-time is a generated slot for
// the advisor with no active appointment and not already in the past.
func (a *Availability) IsAvailable(ctx context.Context, adv *model.Advisor, at time.Time) (bool, error) {
	var generated bool
	for _, slot := range SlotsForDate(adv, at) {
		if slot.Equal(at) {
			generated = true
			break
		}
	}
	if !generated || at.Before(a.now()) {
		return false, nil
	}

	booked, err := a.booked.ActiveTimes(ctx, adv.ID, at, at.Add(SlotInterval))
	if err != nil {
		return false, err
	}
	for _, t := range booked {
		if t.Equal(at) {
			return false, nil
		}
	}

	return true, nil
}

// AvailableOn returns the free future slots for one date.
func (a *Availability) AvailableOn(ctx context.Context, adv *model.Advisor, day time.Time) ([]time.Time, error) {
	slots := SlotsForDate(adv, day)
	if len(slots) == 0 {
		return nil, nil
	}

	booked, err := a.booked.ActiveTimes(ctx, adv.ID, slots[0], slots[len(slots)-1].Add(SlotInterval))
	if err != nil {
		return nil, err
	}

	taken := make(map[int64]struct{}, len(booked))
	for _, t := range booked {
		taken[t.Unix()] = struct{}{}
	}

	now := a.now()
	var free []time.Time
	for _, slot := range slots {
		if slot.Before(now) {
			continue
		}
		if _, ok := taken[slot.Unix()]; ok {
			continue
		}
		free = append(free, slot)
	}

	return free, nil
}

// AvailableBetween returns free slots for every date in [startDate, endDate]
// inclusive, in order. Finite and recomputed on each call.
func (a *Availability) AvailableBetween(ctx context.Context, adv *model.Advisor, startDate, endDate time.Time) ([]time.Time, error) {
	var free []time.Time
	for day := startDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
		daySlots, err := a.AvailableOn(ctx, adv, day)
		if err != nil {
			return nil, err
		}
		free = append(free, daySlots...)
	}

	return free, nil
}
