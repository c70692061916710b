package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a subscriber. It only ever moves from
// pending to confirmed, never back.
type Status string

const (
	StatusPendingConfirmation Status = "pending_confirmation"
	StatusConfirmed           Status = "confirmed"
)

// Subscriber is the durable record behind one newsletter subscription.
type Subscriber struct {
	ID           uuid.UUID
	Email        string
	Name         string
	SubscribedAt time.Time
	Status       Status
}

// Identity is a validated (name, email) pair produced by ParseIdentity.
// Constructing one any other way bypasses validation; don't.
type Identity struct {
	Name  string
	Email string
}

// PendingSubscription is what a successful insert yields: the new subscriber
// and the confirmation token bound to it in the same transaction.
type PendingSubscription struct {
	SubscriberID uuid.UUID
	Token        string
}
