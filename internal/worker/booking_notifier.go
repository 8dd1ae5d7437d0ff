package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jwalitptl/clinic-booking/internal/email"
	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/messaging"
)

// BookingNotifier emails the clinic inbox for every booking.created event
// published by the outbox processor.
type BookingNotifier struct {
	broker messaging.Broker
	mailer email.Service
	inbox  string
	log    *logger.Logger
}

func NewBookingNotifier(broker messaging.Broker, mailer email.Service, inbox string, log *logger.Logger) *BookingNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &BookingNotifier{broker: broker, mailer: mailer, inbox: inbox, log: log}
}

// Run blocks until ctx is cancelled or the subscription closes.
func (n *BookingNotifier) Run(ctx context.Context) error {
	messages, err := n.broker.Subscribe(ctx, model.EventBookingCreated)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", model.EventBookingCreated, err)
	}

	n.log.Info("Booking notifier started", "channel", model.EventBookingCreated)
	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-messages:
			if !ok {
				return nil
			}
			if err := n.Handle(ctx, payload); err != nil {
				n.log.Error(err, "Failed to send booking notification")
			}
		}
	}
}

func (n *BookingNotifier) Handle(ctx context.Context, payload []byte) error {
	var event model.BookingEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to decode booking event: %w", err)
	}

	if err := n.mailer.SendBookingCreated(ctx, n.inbox, &event); err != nil {
		return err
	}
	n.log.Debug("Booking notification sent", "booking_id", event.BookingID.String())
	return nil
}
