package resolver

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Rules is the deterministic tier: fixed patterns only, no guessing.
type Rules struct{}

var _ Strategy = Rules{}

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

var months = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

var (
	clockRe   = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	clock24Re = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	oclockRe  = regexp.MustCompile(`\b(\d{1,2})\s*o'?clock\b`)
	dayNumRe  = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\b`)
	numericRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{4}))?\b`)
	isoRe     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
)

// Resolve recognizes explicit calendar and clock phrases. Anything outside
// the fixed vocabulary comes back unresolved for the fallback tier.
func (Rules) Resolve(_ context.Context, phrase string, today time.Time) Resolution {
	text := strings.ToLower(strings.TrimSpace(phrase))
	if text == "" {
		return Unresolved
	}
	today = Midnight(today)

	if r := resolveDate(text, today); r.Kind != KindUnresolved {
		return r
	}
	if r := resolveClock(text); r.Kind != KindUnresolved {
		return r
	}
	if bucket, ok := ParseBucket(text); ok {
		return Resolution{Kind: KindBucket, Bucket: bucket}
	}

	return Unresolved
}

func resolveDate(text string, today time.Time) Resolution {
	switch {
	case strings.Contains(text, "today"):
		return Resolution{Kind: KindDate, Date: today}
	case strings.Contains(text, "tomorrow"):
		return Resolution{Kind: KindDate, Date: today.AddDate(0, 0, 1)}
	}

	// Fixed-meaning period phrases are cheap to expand deterministically,
	// no classifier round-trip needed.
	if strings.Contains(text, "next month") {
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()).AddDate(0, 1, 0)
		last := first.AddDate(0, 1, -1)
		return Resolution{Kind: KindPeriod, Period: Window{Start: first, End: last}}
	}
	if strings.Contains(text, "next week") {
		if day, ok := weekdayIn(text); ok {
			// "next week monday": that weekday inside the following week.
			return Resolution{Kind: KindDate, Date: upcoming(today, day).AddDate(0, 0, 7)}
		}
		monday := nextWeekMonday(today)
		return Resolution{Kind: KindPeriod, Period: Window{Start: monday, End: monday.AddDate(0, 0, 4)}}
	}

	if day, ok := weekdayIn(text); ok {
		return Resolution{Kind: KindDate, Date: upcoming(today, day)}
	}

	if m := isoRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if d, ok := makeDate(year, time.Month(month), day, today.Location()); ok {
			return Resolution{Kind: KindDate, Date: d}
		}
		return Unresolved
	}

	for name, month := range months {
		if !containsWord(text, name) {
			continue
		}
		m := dayNumRe.FindStringSubmatch(strings.Replace(text, name, "", 1))
		if m == nil {
			return Unresolved
		}
		day, _ := strconv.Atoi(m[1])
		d, ok := makeDate(today.Year(), month, day, today.Location())
		if !ok {
			return Unresolved
		}
		if d.Before(today) {
			// "March 15" said in November means next March.
			d = d.AddDate(1, 0, 0)
		}
		return Resolution{Kind: KindDate, Date: d}
	}

	if m := numericRe.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year := today.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		d, ok := makeDate(year, time.Month(month), day, today.Location())
		if !ok {
			return Unresolved
		}
		if m[3] == "" && d.Before(today) {
			d = d.AddDate(1, 0, 0)
		}
		return Resolution{Kind: KindDate, Date: d}
	}

	return Unresolved
}

func resolveClock(text string) Resolution {
	if m := clockRe.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if m[3] == "pm" && hour != 12 {
			hour += 12
		}
		if m[3] == "am" && hour == 12 {
			hour = 0
		}
		if hour > 23 || minute > 59 {
			return Unresolved
		}
		return Resolution{Kind: KindClock, Hour: hour, Minute: minute}
	}

	if m := clock24Re.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return Unresolved
		}
		return Resolution{Kind: KindClock, Hour: hour, Minute: minute}
	}

	if m := oclockRe.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour >= 1 && hour <= 7 {
			// Bare "2 o'clock" inside business hours means afternoon.
			hour += 12
		}
		if hour > 23 {
			return Unresolved
		}
		return Resolution{Kind: KindClock, Hour: hour}
	}

	return Unresolved
}

// ParseBucket recognizes a time-of-day preference in the phrase.
func ParseBucket(phrase string) (TimeBucket, bool) {
	text := strings.ToLower(phrase)
	switch {
	case strings.Contains(text, "morning"):
		return BucketMorning, true
	case strings.Contains(text, "afternoon"):
		return BucketAfternoon, true
	case strings.Contains(text, "evening"), strings.Contains(text, "tonight"):
		return BucketEvening, true
	case strings.Contains(text, "any time"), strings.Contains(text, "anytime"), strings.Contains(text, "whenever"):
		// "whenever"/"anytime" count only when the phrase IS the
		// preference ("anytime is fine"). Inside a longer sentence the
		// word proves nothing; that input belongs to the fallback tier.
		if len(strings.Fields(text)) <= 3 {
			return BucketAny, true
		}
	}
	return "", false
}

// weekdayIn finds the first weekday name mentioned in the text.
func weekdayIn(text string) (time.Weekday, bool) {
	for name, day := range weekdays {
		if strings.Contains(text, name) {
			return day, true
		}
	}
	return 0, false
}

// upcoming returns the next occurrence of the weekday strictly after today.
func upcoming(today time.Time, day time.Weekday) time.Time {
	ahead := (int(day) - int(today.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return today.AddDate(0, 0, ahead)
}

// nextWeekMonday returns the Monday of the week after the current one.
func nextWeekMonday(today time.Time) time.Time {
	back := (int(today.Weekday()) - int(time.Monday) + 7) % 7
	return today.AddDate(0, 0, -back+7)
}

// containsWord matches name on word boundaries, so "may" does not fire on
// "maybe".
func containsWord(text, name string) bool {
	for idx := strings.Index(text, name); idx >= 0; {
		before := idx == 0 || !isLetter(text[idx-1])
		afterIdx := idx + len(name)
		after := afterIdx >= len(text) || !isLetter(text[afterIdx])
		if before && after {
			return true
		}
		next := strings.Index(text[idx+1:], name)
		if next < 0 {
			return false
		}
		idx += 1 + next
	}
	return false
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func makeDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if d.Day() != day || d.Month() != month {
		// time.Date normalized an impossible date like February 30.
		return time.Time{}, false
	}
	return d, true
}
