package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/campus-advising/advising_bot/internal/model"
)

// Notifier announces a freshly committed appointment. Delivery is
// fire-and-forget: a failed notification never rolls the appointment back.
type Notifier interface {
	AppointmentBooked(ctx context.Context, appt *model.Appointment, advisor *model.Advisor)
}

// LogNotifier is the shipped implementation; actual delivery (email etc.)
// is an external collaborator wired in place of this one.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) AppointmentBooked(_ context.Context, appt *model.Appointment, advisor *model.Advisor) {
	n.logger.Info("confirmation notification",
		zap.String("appointment_id", appt.ID),
		zap.String("student_id", appt.StudentID),
		zap.String("advisor", advisor.Name),
		zap.Time("slot_at", appt.SlotAt),
	)
}
