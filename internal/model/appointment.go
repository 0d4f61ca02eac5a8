package model

import "time"

type AppointmentStatus string

const (
	AppointmentStatusActive    AppointmentStatus = "active"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is the only durable booking record. Rows are never deleted;
// cancellation flips the status and keeps the row for audit.
type Appointment struct {
	ID        string            `json:"appointment_id"` // UUID
	StudentID string            `json:"student_id"`
	AdvisorID string            `json:"advisor_id"`
	SlotAt    time.Time         `json:"slot_at"`
	Reason    string            `json:"reason,omitempty"`
	Status    AppointmentStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// IsActive reports whether the appointment still occupies its slot.
func (a *Appointment) IsActive() bool {
	return a.Status == AppointmentStatusActive
}
