package events

import (
	"context"
	"log/slog"
)

const defaultBuffer = 256

// Publisher decouples request handling from event delivery with a buffered
// channel and a single worker goroutine. Emit never blocks: when the buffer
// is full the event is dropped and logged.
type Publisher struct {
	sink   Sink
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(sink Sink, logger *slog.Logger) *Publisher {
	return &Publisher{
		sink:   sink,
		inbox:  make(chan Event, defaultBuffer),
		logger: logger,
	}
}

// Emit queues an event for delivery.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "event buffer full, dropping event",
			"event_type", string(event.Type),
			"event_id", event.ID,
		)
	}
}

// Run consumes the inbox until ctx is cancelled. Delivery failures are
// logged, not retried; the feed is best-effort.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-p.inbox:
			if err := p.sink.Publish(ctx, event); err != nil {
				p.logger.ErrorContext(ctx, "event publish failed",
					"event_type", string(event.Type),
					"event_id", event.ID,
					"error", err.Error(),
				)
			}
		}
	}
}
