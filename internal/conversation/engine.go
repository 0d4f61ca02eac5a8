package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campus-advising/advising_bot/internal/booking"
	"github.com/campus-advising/advising_bot/internal/calendar"
	"github.com/campus-advising/advising_bot/internal/model"
	"github.com/campus-advising/advising_bot/internal/resolver"
	"github.com/campus-advising/advising_bot/internal/service"
)

// Engine advances a booking dialog one message at a time. Constraint
// violations and unmatched input are answered with a re-prompt in place;
// the only error Handle ever returns is a backing-store failure, in which
// case the context is left untouched so the turn can be retried.
type Engine struct {
	advisors *service.AdvisorService
	bookings *service.BookingService
	avail    *calendar.Availability
	resolve  resolver.Strategy
	notifier service.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewEngine(
	advisors *service.AdvisorService,
	bookings *service.BookingService,
	avail *calendar.Availability,
	strategy resolver.Strategy,
	notifier service.Notifier,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		advisors: advisors,
		bookings: bookings,
		avail:    avail,
		resolve:  strategy,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Start opens a fresh booking dialog for the student.
func (e *Engine) Start(_ context.Context, studentID string) *Turn {
	c := &Context{
		StudentID: studentID,
		State:     StateNeedProgram,
	}
	return &Turn{
		State:   c.State,
		Context: c,
		Message: "I'd be happy to help you book an appointment! Are you an undergraduate (BS) or graduate (MS) student?",
	}
}

// Handle processes one student message against the session context.
func (e *Engine) Handle(ctx context.Context, c *Context, input string) (*Turn, error) {
	input = strings.TrimSpace(input)
	text := strings.ToLower(input)

	if c.State.Terminal() {
		return e.turn(c, "This booking is finished. Say 'book an appointment' to start a new one.", ActionError), nil
	}

	if containsAny(text, "cancel", "nevermind", "never mind", "forget it", "stop") {
		c.State = StateCancelled
		return e.turn(c, "Booking cancelled. Let me know if you'd like to start over!", ActionCancel), nil
	}

	switch c.State {
	case StateNeedProgram:
		return e.handleProgram(ctx, c, text)
	case StateNeedAdvisor:
		return e.handleAdvisor(ctx, c, input)
	case StateNeedDate:
		return e.handleDate(ctx, c, input)
	case StateNeedTime:
		return e.handleTime(ctx, c, input)
	case StateNeedReason:
		return e.handleReason(c, input, text)
	case StateConfirming:
		return e.handleConfirming(ctx, c, text)
	default:
		c.State = StateNeedProgram
		return e.turn(c, "I lost track of where we were, let's start over. Are you an undergraduate (BS) or graduate (MS) student?", ActionError), nil
	}
}

func (e *Engine) handleProgram(ctx context.Context, c *Context, text string) (*Turn, error) {
	program, ok := matchProgram(text)
	if !ok {
		return e.turn(c, "I didn't catch that. Are you an undergraduate (BS) or graduate (MS) student?", ActionClarify), nil
	}

	advisors, err := e.advisors.ForProgram(ctx, program)
	if err != nil {
		return nil, fmt.Errorf("list advisors: %w", err)
	}
	if len(advisors) == 0 {
		return e.turn(c, "No advisors are available for that program level right now. Please contact the advising office directly.", ActionError), nil
	}

	c.Program = program
	c.AvailableAdvisors = advisors
	c.State = StateNeedAdvisor

	return e.turn(c, "Here are the available advisors:\n\n"+advisorList(advisors), ActionShowAdvisors), nil
}

func (e *Engine) handleAdvisor(ctx context.Context, c *Context, input string) (*Turn, error) {
	if len(c.AvailableAdvisors) == 0 {
		advisors, err := e.advisors.ForProgram(ctx, c.Program)
		if err != nil {
			return nil, fmt.Errorf("list advisors: %w", err)
		}
		c.AvailableAdvisors = advisors
	}

	selected := service.MatchAdvisor(input, c.AvailableAdvisors)
	if selected == nil {
		return e.turn(c, "I couldn't find that advisor. Please pick one of these:\n\n"+advisorList(c.AvailableAdvisors), ActionClarify), nil
	}

	c.AdvisorID = selected.ID
	c.AdvisorName = selected.Name
	c.State = StateNeedDate
	c.DateMode = DateModeExplicit

	msg := fmt.Sprintf("Great! I've selected %s.\n\nWhat date would you like? You can say something like 'next Monday', 'March 15th', or 'next week'.", selected.Name)
	return e.turn(c, msg, ActionAdvisorSelected), nil
}

func (e *Engine) handleDate(ctx context.Context, c *Context, input string) (*Turn, error) {
	today := resolver.Midnight(e.now())

	// In period sub-mode a bare number picks one of the offered dates.
	if c.DateMode == DateModePeriod && len(c.SuggestedDates) > 0 {
		if idx, err := strconv.Atoi(strings.TrimSpace(input)); err == nil {
			if idx < 1 || idx > len(c.SuggestedDates) {
				return e.turn(c, "That's not one of the offered dates. Pick a number from the list:\n\n"+dateChoices(c.SuggestedDates), ActionClarify), nil
			}
			return e.acceptDate(ctx, c, c.SuggestedDates[idx-1])
		}
	}

	res := e.resolve.Resolve(ctx, input, today)

	switch res.Kind {
	case resolver.KindDate:
		if verr := resolver.ValidateDate(res.Date, today); verr != nil {
			msg := fmt.Sprintf("%s can't be booked: %s. Please pick a weekday within the next 30 days.",
				FormatDate(res.Date), verr.Constraint)
			return e.turn(c, msg, ActionClarify), nil
		}
		return e.acceptDate(ctx, c, res.Date)

	case resolver.KindPeriod:
		return e.searchPeriod(ctx, c, res.Period, today)

	case resolver.KindClock, resolver.KindBucket:
		return e.turn(c, "Let's settle on a date first — the time comes next. Which day works for you?", ActionClarify), nil

	default:
		return e.turn(c, "I couldn't understand that date. Please try again, like 'next Monday', 'March 15th', or 'next week'.", ActionClarify), nil
	}
}

// acceptDate loads the chosen date's open slots and moves to time
// selection, or offers alternative dates when the day is fully booked.
func (e *Engine) acceptDate(ctx context.Context, c *Context, date time.Time) (*Turn, error) {
	advisor, err := e.advisor(ctx, c)
	if err != nil {
		return nil, err
	}

	slots, err := e.avail.AvailableOn(ctx, advisor, date)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}

	if len(slots) == 0 {
		return e.suggestAlternatives(ctx, c, advisor, date)
	}

	c.SelectedDate = date
	c.AvailableSlots = slots
	c.SuggestedDates = nil
	c.DateMode = DateModeExplicit
	c.State = StateNeedTime

	msg := fmt.Sprintf("Perfect! Here are the available times on %s:\n\n%s\nPlease pick a time.",
		FormatDate(date), slotList(slots))
	return e.turn(c, msg, ActionShowSlots), nil
}

func (e *Engine) handleTime(ctx context.Context, c *Context, input string) (*Turn, error) {
	if len(c.AvailableSlots) == 0 {
		c.State = StateNeedDate
		return e.turn(c, "Let's pick a date first. Which day works for you?", ActionClarify), nil
	}

	slot, subset, msg := e.matchSlot(ctx, input, c.AvailableSlots)
	if msg != "" {
		if subset != nil {
			c.AvailableSlots = subset
		}
		return e.turn(c, msg, ActionClarify), nil
	}

	c.SlotAt = slot
	c.State = StateNeedReason

	prompt := fmt.Sprintf("Excellent! I've selected %s.\n\nIs there a specific reason for this appointment? (e.g., course planning, graduation requirements) This is optional — you can say 'skip' or 'none'.",
		FormatSlot(slot))
	return e.turn(c, prompt, ActionTimeSelected), nil
}

// matchSlot applies the closest-match policy: direct token or index pick,
// exact clock match, closest clock within one slot interval, or a bucket
// narrowing. It returns either a chosen slot, or a re-prompt message with
// an optional narrowed candidate list.
func (e *Engine) matchSlot(ctx context.Context, input string, slots []time.Time) (time.Time, []time.Time, string) {
	// UI buttons post the slot as an RFC 3339 token.
	for _, slot := range slots {
		if strings.Contains(input, slot.Format(time.RFC3339)) {
			return slot, nil, ""
		}
	}

	if idx, err := strconv.Atoi(strings.TrimSpace(input)); err == nil {
		if idx >= 1 && idx <= len(slots) {
			return slots[idx-1], nil, ""
		}
		return time.Time{}, nil, "That's not one of the listed slots. Pick a number from the list:\n\n" + slotList(slots)
	}

	res := e.resolve.Resolve(ctx, input, e.now())

	switch res.Kind {
	case resolver.KindClock:
		want := res.Hour*60 + res.Minute
		best := -1
		bestDiff := int(calendar.SlotInterval/time.Minute) + 1
		for i, slot := range slots {
			diff := abs(slot.Hour()*60 + slot.Minute() - want)
			if diff < bestDiff {
				bestDiff = diff
				best = i
			}
		}
		if best < 0 {
			return time.Time{}, nil, "I couldn't match that time. Please pick one of these:\n\n" + slotList(slots)
		}
		return slots[best], nil, ""

	case resolver.KindBucket:
		if res.Bucket == resolver.BucketEvening {
			return time.Time{}, nil, "There are no evening slots — advising hours end at 5:00 PM. Here's what's open:\n\n" + slotList(slots)
		}
		var filtered []time.Time
		for _, slot := range slots {
			if res.Bucket.Contains(slot.Hour()) {
				filtered = append(filtered, slot)
			}
		}
		switch len(filtered) {
		case 0:
			return time.Time{}, nil, fmt.Sprintf("No %s slots are open that day. Here's what's left:\n\n%s", res.Bucket, slotList(slots))
		case 1:
			return filtered[0], nil, ""
		default:
			// Several candidates: offer them instead of guessing.
			return time.Time{}, filtered, fmt.Sprintf("Here are the %s times — which one?\n\n%s", res.Bucket, slotList(filtered))
		}
	}

	return time.Time{}, nil, "I couldn't match that time. Please pick one of the available slots:\n\n" + slotList(slots)
}

func (e *Engine) handleReason(c *Context, input, text string) (*Turn, error) {
	switch text {
	case "skip", "none", "no reason", "n/a", "":
		c.Reason = ""
	default:
		c.Reason = input
	}

	c.State = StateConfirming
	return e.turn(c, summaryMessage(c), ActionConfirm), nil
}

func (e *Engine) handleConfirming(ctx context.Context, c *Context, text string) (*Turn, error) {
	if containsAny(text, "yes", "confirm", "book it", "sure", "okay", "ok", "yep", "yeah", "correct") {
		return e.finalize(ctx, c)
	}

	if containsAny(text, "no", "change", "modify", "edit", "wrong") {
		return e.routeModify(ctx, c, text)
	}

	return e.turn(c, "Say 'yes' to confirm the appointment, or tell me what to change (advisor, date, or time).", ActionClarify), nil
}

// routeModify sends the dialog back to the state the student wants to
// change, discarding only the fields downstream of it.
func (e *Engine) routeModify(ctx context.Context, c *Context, text string) (*Turn, error) {
	switch {
	case strings.Contains(text, "advisor"):
		c.AdvisorID = ""
		c.AdvisorName = ""
		c.clearSchedule()
		c.State = StateNeedAdvisor
		return e.turn(c, "Sure — pick a different advisor:\n\n"+advisorList(c.AvailableAdvisors), ActionShowAdvisors), nil

	case strings.Contains(text, "date"):
		c.clearSchedule()
		c.State = StateNeedDate
		return e.turn(c, "Sure — what date would you like instead?", ActionModify), nil

	case strings.Contains(text, "time"):
		advisor, err := e.advisor(ctx, c)
		if err != nil {
			return nil, err
		}
		slots, err := e.avail.AvailableOn(ctx, advisor, resolver.Midnight(c.SlotAt))
		if err != nil {
			return nil, fmt.Errorf("load slots: %w", err)
		}
		c.SlotAt = time.Time{}
		c.AvailableSlots = slots
		c.State = StateNeedTime
		if len(slots) == 0 {
			c.clearSchedule()
			c.State = StateNeedDate
			return e.turn(c, "No other times are open that day anymore. What date would you like instead?", ActionModify), nil
		}
		return e.turn(c, "Sure — here are the open times:\n\n"+slotList(slots), ActionShowSlots), nil

	default:
		return e.turn(c, "No problem! What would you like to change — the advisor, the date, or the time?", ActionModify), nil
	}
}

// finalize runs the atomic commit. Losing the slot race routes back to
// scheduling; an infrastructure failure is returned as an error with the
// context untouched, still confirming, so the student can retry.
func (e *Engine) finalize(ctx context.Context, c *Context) (*Turn, error) {
	appt, err := e.bookings.Commit(ctx, c.StudentID, c.AdvisorID, c.SlotAt, c.Reason)
	if err != nil {
		if errors.Is(err, booking.ErrSlotUnavailable) {
			return e.slotLost(ctx, c)
		}
		if errors.Is(err, booking.ErrNotFound) {
			return e.turn(c, "I couldn't verify your student record, so the appointment wasn't booked. Please contact the advising office.", ActionError), nil
		}
		return nil, fmt.Errorf("commit appointment: %w", err)
	}

	e.notifier.AppointmentBooked(ctx, appt, &model.Advisor{ID: c.AdvisorID, Name: c.AdvisorName})

	c.State = StateComplete

	msg := fmt.Sprintf("Appointment booked successfully!\n\nAppointment ID: %s\nAdvisor: %s\nWhen: %s\n\nA confirmation is on its way to your email.",
		appt.ID, c.AdvisorName, FormatSlot(appt.SlotAt))

	return &Turn{
		State:       c.State,
		Context:     c,
		Message:     msg,
		Action:      ActionBooked,
		Appointment: appt,
	}, nil
}

// slotLost handles a commit that lost the race: someone else took the slot
// between the advisory check and the commit. Re-offer what is still open.
func (e *Engine) slotLost(ctx context.Context, c *Context) (*Turn, error) {
	advisor, err := e.advisor(ctx, c)
	if err != nil {
		return nil, err
	}

	day := resolver.Midnight(c.SlotAt)
	lost := c.SlotAt
	c.SlotAt = time.Time{}

	slots, err := e.avail.AvailableOn(ctx, advisor, day)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}

	if len(slots) == 0 {
		c.clearSchedule()
		c.State = StateNeedDate
		msg := fmt.Sprintf("Sorry — the %s slot was just booked by someone else, and no other times are open that day. What other date works for you?",
			FormatClock(lost))
		return e.turn(c, msg, ActionModify), nil
	}

	c.AvailableSlots = slots
	c.State = StateNeedTime
	msg := fmt.Sprintf("Sorry — the %s slot was just booked by someone else. These times are still open on %s:\n\n%s",
		FormatClock(lost), FormatDate(day), slotList(slots))
	return e.turn(c, msg, ActionShowSlots), nil
}

// advisor fetches the selected advisor's full record.
func (e *Engine) advisor(ctx context.Context, c *Context) (*model.Advisor, error) {
	advisor, err := e.advisors.GetByID(ctx, c.AdvisorID)
	if err != nil {
		return nil, fmt.Errorf("get advisor: %w", err)
	}
	if advisor == nil {
		return nil, fmt.Errorf("advisor %s vanished from the directory", c.AdvisorID)
	}
	return advisor, nil
}

func (e *Engine) turn(c *Context, message, action string) *Turn {
	return &Turn{
		State:   c.State,
		Context: c,
		Message: message,
		Action:  action,
	}
}

// clearSchedule drops everything downstream of advisor selection.
func (c *Context) clearSchedule() {
	c.DateMode = DateModeExplicit
	c.SelectedDate = time.Time{}
	c.SlotAt = time.Time{}
	c.AvailableSlots = nil
	c.SuggestedDates = nil
}

func matchProgram(text string) (model.ProgramLevel, bool) {
	switch {
	case containsAny(text, "undergraduate", "undergrad", "bachelor", "bachelors", "bs", "b.s"):
		return model.ProgramUndergraduate, true
	case containsAny(text, "graduate", "grad", "master", "masters", "ms", "m.s"):
		return model.ProgramGraduate, true
	}
	return "", false
}

// containsAny matches single-word needles on word boundaries and
// multi-word needles as substrings, so "ok" does not fire inside "book".
func containsAny(text string, needles ...string) bool {
	var words []string
	for _, needle := range needles {
		if strings.ContainsAny(needle, " .") {
			if strings.Contains(text, needle) {
				return true
			}
			continue
		}
		if words == nil {
			words = strings.FieldsFunc(text, func(r rune) bool {
				return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
			})
		}
		for _, w := range words {
			if w == needle {
				return true
			}
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
