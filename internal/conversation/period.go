package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/campus-advising/advising_bot/internal/model"
	"github.com/campus-advising/advising_bot/internal/resolver"
)

// maxSuggestedDates caps how many period candidates are offered at once.
const maxSuggestedDates = 5

// searchPeriod expands a period window ("next week", "next month") into
// concrete date choices: the first weekdays inside the window, clamped to
// the booking horizon, that still have at least one open slot.
func (e *Engine) searchPeriod(ctx context.Context, c *Context, window resolver.Window, today time.Time) (*Turn, error) {
	advisor, err := e.advisor(ctx, c)
	if err != nil {
		return nil, err
	}

	start := resolver.Midnight(window.Start)
	end := resolver.Midnight(window.End)
	if start.Before(today) {
		start = today
	}
	if horizon := today.Add(resolver.Horizon); end.After(horizon) {
		end = horizon
	}
	if end.Before(start) {
		return e.turn(c, "That period is outside the 30-day booking window. Please pick a closer date.", ActionClarify), nil
	}

	dates, err := e.datesWithOpenings(ctx, advisor, start, end, maxSuggestedDates)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return e.turn(c, "I'm sorry, that whole period is fully booked. Could you try a different week or a specific date?", ActionClarify), nil
	}

	c.DateMode = DateModePeriod
	c.SuggestedDates = dates

	msg := "Here are the dates with openings in that period:\n\n" + dateChoices(dates) +
		"\nWhich one works for you? You can reply with a number."
	return e.turn(c, msg, ActionSuggestDates), nil
}

// suggestAlternatives fires when an explicitly chosen date has no open
// slots: scan forward from the day after for nearby alternatives, within
// the horizon.
func (e *Engine) suggestAlternatives(ctx context.Context, c *Context, advisor *model.Advisor, date time.Time) (*Turn, error) {
	today := resolver.Midnight(e.now())
	start := resolver.Midnight(date).AddDate(0, 0, 1)
	end := today.Add(resolver.Horizon)

	dates, err := e.datesWithOpenings(ctx, advisor, start, end, 3)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return e.turn(c, fmt.Sprintf("I'm sorry, %s is fully booked and I couldn't find any openings after it. Please contact the advising office directly.", FormatDate(date)), ActionClarify), nil
	}

	c.DateMode = DateModePeriod
	c.SuggestedDates = dates

	msg := fmt.Sprintf("I'm sorry, %s is fully booked. The nearest dates with openings are:\n\n%s\nWould one of these work? You can reply with a number.",
		FormatDate(date), dateChoices(dates))
	return e.turn(c, msg, ActionSuggestDates), nil
}

// datesWithOpenings walks [start, end] and collects up to limit weekdays
// with at least one free slot.
func (e *Engine) datesWithOpenings(ctx context.Context, advisor *model.Advisor, start, end time.Time, limit int) ([]time.Time, error) {
	var dates []time.Time
	for day := start; !day.After(end) && len(dates) < limit; day = day.AddDate(0, 0, 1) {
		slots, err := e.avail.AvailableOn(ctx, advisor, day)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", day.Format("2006-01-02"), err)
		}
		if len(slots) > 0 {
			dates = append(dates, day)
		}
	}
	return dates, nil
}
