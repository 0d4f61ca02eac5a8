package model

import "time"

// Student is the minimal profile the booking flow needs; authentication and
// the rest of the student record live outside this service.
type Student struct {
	ID           string       `json:"student_id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	ProgramLevel ProgramLevel `json:"program_level"`
	CreatedAt    time.Time    `json:"created_at"`
}
