package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/campus-advising/advising_bot/internal/model"
	"github.com/campus-advising/advising_bot/internal/service"
)

// AsyncNotifier decouples notification delivery from the booking turn: the
// engine enqueues and moves on, a background worker delivers. A full queue
// drops the notification (delivery is best-effort by contract).
type AsyncNotifier struct {
	delegate service.Notifier
	logger   *zap.Logger
	queue    chan notification
	stopChan chan struct{}
}

type notification struct {
	appt    *model.Appointment
	advisor *model.Advisor
}

func NewAsyncNotifier(delegate service.Notifier, logger *zap.Logger) *AsyncNotifier {
	return &AsyncNotifier{
		delegate: delegate,
		logger:   logger,
		queue:    make(chan notification, 64),
		stopChan: make(chan struct{}),
	}
}

// Start launches the delivery worker.
func (n *AsyncNotifier) Start(ctx context.Context) {
	go n.run(ctx)
}

// Stop shuts the worker down.
func (n *AsyncNotifier) Stop() {
	close(n.stopChan)
}

// AppointmentBooked enqueues the notification without blocking the caller.
func (n *AsyncNotifier) AppointmentBooked(_ context.Context, appt *model.Appointment, advisor *model.Advisor) {
	select {
	case n.queue <- notification{appt: appt, advisor: advisor}:
	default:
		n.logger.Warn("notification queue full, dropping confirmation",
			zap.String("appointment_id", appt.ID))
	}
}

func (n *AsyncNotifier) run(ctx context.Context) {
	for {
		select {
		case item := <-n.queue:
			n.delegate.AppointmentBooked(ctx, item.appt, item.advisor)
		case <-n.stopChan:
			n.logger.Info("notification worker stopped")
			return
		case <-ctx.Done():
			n.logger.Info("notification worker cancelled")
			return
		}
	}
}
