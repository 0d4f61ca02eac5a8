package model

// ProgramLevel is the academic program an advisor serves.
type ProgramLevel string

const (
	ProgramUndergraduate ProgramLevel = "undergraduate"
	ProgramGraduate      ProgramLevel = "graduate"
)

// Advisor is read-only reference data. The working window is stored per
// advisor so hours can differ later, but every seeded advisor uses the
// default 8:00-17:00 weekday profile.
type Advisor struct {
	ID           string       `json:"advisor_id"` // email-like unique id
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Title        string       `json:"title,omitempty"`
	ProgramLevel ProgramLevel `json:"program_level"`
	WorkdayStart int          `json:"workday_start"` // hour, inclusive
	WorkdayEnd   int          `json:"workday_end"`   // hour, exclusive
}
