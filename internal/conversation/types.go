// Package conversation drives the multi-turn booking dialog: one typed
// context per session, advanced one student message at a time until an
// appointment is committed or the student bails out.
package conversation

import (
	"time"

	"github.com/campus-advising/advising_bot/internal/model"
)

// State is the dialog position. One forward path with back-edges from
// Confirming; cancellation exits from anywhere.
type State string

const (
	StateNeedProgram State = "need_program"
	StateNeedAdvisor State = "need_advisor"
	StateNeedDate    State = "need_date"
	StateNeedTime    State = "need_time"
	StateNeedReason  State = "need_reason"
	StateConfirming  State = "confirming"
	StateComplete    State = "complete"
	StateCancelled   State = "cancelled"
)

// Terminal reports whether the dialog is finished.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateCancelled
}

// DateMode is the NeedDate sub-mode: resolving a single explicit date, or
// offering choices out of a searched period window.
type DateMode string

const (
	DateModeExplicit DateMode = "explicit"
	DateModePeriod   DateMode = "period"
)

// Context is the session's working memory. It lives only for the duration
// of one booking dialog; durable state exists solely as the committed
// Appointment. Fields past State are filled as the dialog advances and
// cleared when the student routes back to change something.
type Context struct {
	StudentID string `json:"student_id"`
	State     State  `json:"state"`

	Program     model.ProgramLevel `json:"program_level,omitempty"`
	AdvisorID   string             `json:"advisor_id,omitempty"`
	AdvisorName string             `json:"advisor_name,omitempty"`

	DateMode     DateMode  `json:"date_mode,omitempty"`
	SelectedDate time.Time `json:"selected_date,omitempty"`
	SlotAt       time.Time `json:"slot_at,omitempty"`
	Reason       string    `json:"reason,omitempty"`

	// UI hints, each populated only when relevant to the current state.
	AvailableAdvisors []*model.Advisor `json:"availableAdvisors,omitempty"`
	AvailableSlots    []time.Time      `json:"availableSlots,omitempty"`
	SuggestedDates    []time.Time      `json:"suggestedDates,omitempty"`
}

// Rendering hints for the presentation layer; no logic hangs off these.
const (
	ActionCancel          = "cancel"
	ActionClarify         = "clarify"
	ActionShowAdvisors    = "show_advisors"
	ActionAdvisorSelected = "advisor_selected"
	ActionShowSlots       = "show_slots"
	ActionSuggestDates    = "suggest_dates"
	ActionTimeSelected    = "time_selected"
	ActionConfirm         = "confirm"
	ActionModify          = "modify"
	ActionBooked          = "booked"
	ActionError           = "error"
)

// Turn is the per-message wire contract: the advanced context plus what to
// show the student.
type Turn struct {
	State       State              `json:"state"`
	Context     *Context           `json:"context"`
	Message     string             `json:"message"`
	Action      string             `json:"action,omitempty"`
	Appointment *model.Appointment `json:"appointment,omitempty"`
}
