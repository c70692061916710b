// Package events is a best-effort feed of subscription lifecycle events for
// downstream consumers (analytics, digest tooling). Losing an event is
// acceptable; delaying or failing a request is not.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type names a lifecycle transition.
type Type string

const (
	TypeSubscriptionPending   Type = "subscription.pending"
	TypeSubscriptionConfirmed Type = "subscription.confirmed"
)

// Event is one lifecycle transition of one subscriber.
type Event struct {
	ID           uuid.UUID `json:"id"`
	Type         Type      `json:"type"`
	SubscriberID uuid.UUID `json:"subscriber_id"`
	Email        string    `json:"email,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	RequestID    string    `json:"request_id,omitempty"`
}

// Sink is where the worker delivers events. Implementations: Kafka in
// production, a recording sink in tests.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}
