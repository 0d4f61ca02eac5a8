package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/campus-advising/advising_bot/internal/model"
)

// FormatSlot renders a full slot stamp, e.g. "Monday, Feb 3, 2025 at 2:00 PM".
func FormatSlot(t time.Time) string {
	return t.Format("Monday, Jan 2, 2006 at 3:04 PM")
}

// FormatDate renders just the day, e.g. "Monday, February 3, 2025".
func FormatDate(t time.Time) string {
	return t.Format("Monday, January 2, 2006")
}

// FormatClock renders just the time of day, e.g. "2:00 PM".
func FormatClock(t time.Time) string {
	return t.Format("3:04 PM")
}

func advisorList(advisors []*model.Advisor) string {
	var sb strings.Builder
	for i, adv := range advisors {
		fmt.Fprintf(&sb, "%d. %s", i+1, adv.Name)
		if adv.Title != "" {
			fmt.Fprintf(&sb, " — %s", adv.Title)
		}
		fmt.Fprintf(&sb, " (%s)\n", adv.Email)
	}
	sb.WriteString("\nWhich advisor would you like to meet with? You can say their name or number.")
	return sb.String()
}

func slotList(slots []time.Time) string {
	var sb strings.Builder
	for i, slot := range slots {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, FormatClock(slot))
	}
	return sb.String()
}

func dateChoices(dates []time.Time) string {
	var sb strings.Builder
	for i, d := range dates {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, FormatDate(d))
	}
	return sb.String()
}

func summaryMessage(c *Context) string {
	var sb strings.Builder
	sb.WriteString("Appointment summary:\n\n")
	fmt.Fprintf(&sb, "Advisor: %s\n", c.AdvisorName)
	fmt.Fprintf(&sb, "Date: %s\n", FormatDate(c.SlotAt))
	fmt.Fprintf(&sb, "Time: %s\n", FormatClock(c.SlotAt))
	if c.Reason != "" {
		fmt.Fprintf(&sb, "Reason: %s\n", c.Reason)
	}
	sb.WriteString("\nDoes this look correct? Say 'yes' to confirm or 'no' to make changes.")
	return sb.String()
}
