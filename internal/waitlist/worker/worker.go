package worker

import (
	"context"
	"fmt"

	"courtside/internal/events"
	"courtside/internal/waitlist/service"
	"courtside/pkg/config"
	"courtside/pkg/kafka"
	"courtside/pkg/logger"
)

// SlotFreedWorker consumes slot-freed events and drives the waitlist
// processor. Running it as a consumer group member keeps waitlist failures
// isolated from the cancellation request that emitted the event.
type SlotFreedWorker struct {
	consumer *kafka.Consumer
	svc      service.WaitlistService
	log      *logger.Logger
}

func NewSlotFreedWorker(cfg *config.Config, svc service.WaitlistService) (*SlotFreedWorker, error) {
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.WaitlistTopic, cfg.WaitlistGroup, cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create waitlist consumer: %w", err)
	}

	return &SlotFreedWorker{
		consumer: consumer,
		svc:      svc,
		log:      cfg.Log,
	}, nil
}

func (w *SlotFreedWorker) Run(ctx context.Context) error {
	return w.consumer.Run(ctx, w.handle)
}

func (w *SlotFreedWorker) handle(ctx context.Context, msg kafka.Message) error {
	if msg.EventType() != kafka.EventSlotFreed {
		w.log.Debug("Skipping message with unexpected event type",
			"event_type", msg.EventType(),
			"event_id", msg.EventID(),
		)
		return nil
	}

	var payload events.SlotFreed
	if err := msg.DecodeValue(&payload); err != nil {
		// A malformed payload will never decode; committing it avoids a
		// poison-message loop.
		w.log.Error("Failed to decode slot-freed payload, dropping message",
			"event_id", msg.EventID(),
			"error", err,
		)
		return nil
	}

	return w.svc.ProcessSlotFreed(ctx, payload.CourtID, payload.StartTime, payload.EndTime)
}

func (w *SlotFreedWorker) Close() error {
	return w.consumer.Close()
}
