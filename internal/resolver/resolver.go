// Package resolver turns natural-language date and time phrases into
// calendar coordinates. Resolution is two-tier: a deterministic rule parser
// first, then an optional external classifier for phrases the rules do not
// recognize. Output from either tier passes the same validation.
package resolver

import (
	"context"
	"fmt"
	"time"
)

// Kind discriminates what a phrase resolved to.
type Kind int

const (
	KindUnresolved Kind = iota
	KindDate            // a single calendar date
	KindClock           // an explicit time of day
	KindBucket          // a time-of-day preference (morning/afternoon/...)
	KindPeriod          // a window needing expansion ("next month")
)

// TimeBucket is a coarse time-of-day preference.
type TimeBucket string

const (
	BucketAny       TimeBucket = "any"
	BucketMorning   TimeBucket = "morning"   // before 12:00
	BucketAfternoon TimeBucket = "afternoon" // 12:00-17:00
	BucketEvening   TimeBucket = "evening"   // after 17:00, empty by construction
)

// Contains reports whether the hour falls inside the bucket.
func (b TimeBucket) Contains(hour int) bool {
	switch b {
	case BucketMorning:
		return hour < 12
	case BucketAfternoon:
		return hour >= 12 && hour < 17
	case BucketEvening:
		return hour >= 17
	default:
		return true
	}
}

// Window is an inclusive date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Resolution is the outcome of resolving one phrase.
type Resolution struct {
	Kind   Kind
	Date   time.Time  // KindDate: midnight of the resolved day
	Hour   int        // KindClock
	Minute int        // KindClock
	Bucket TimeBucket // KindBucket
	Period Window     // KindPeriod
}

// Unresolved is the zero resolution.
var Unresolved = Resolution{Kind: KindUnresolved}

// Strategy resolves a phrase relative to "today". Implementations must not
// guess: a phrase outside their vocabulary yields KindUnresolved.
type Strategy interface {
	Resolve(ctx context.Context, phrase string, today time.Time) Resolution
}

// Classifier is the external extraction service consumed by the fallback
// tier. Its output is untrusted and re-validated by the caller.
type Classifier interface {
	ClassifyPeriodOrDate(ctx context.Context, phrase string, today time.Time) (Resolution, error)
}

// Horizon is the booking horizon: dates further out are rejected.
const Horizon = 30 * 24 * time.Hour

// ValidationError reports an out-of-policy resolved date.
type ValidationError struct {
	Date       time.Time
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("date %s rejected: %s", e.Date.Format("2006-01-02"), e.Constraint)
}

// ValidateDate applies the booking policy to a resolved date, regardless of
// which tier produced it: no past dates, no weekends, nothing beyond the
// 30-day horizon.
func ValidateDate(date, today time.Time) *ValidationError {
	day := Midnight(date)
	todayMid := Midnight(today)

	switch {
	case day.Before(todayMid):
		return &ValidationError{Date: day, Constraint: "date is in the past"}
	case day.Weekday() == time.Saturday || day.Weekday() == time.Sunday:
		return &ValidationError{Date: day, Constraint: "advising is not available on weekends"}
	case day.After(todayMid.Add(Horizon)):
		return &ValidationError{Date: day, Constraint: "date is more than 30 days out"}
	}

	return nil
}

// Midnight truncates a time to the start of its day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
