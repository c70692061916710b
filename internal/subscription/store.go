package subscription

import (
	"context"

	"github.com/google/uuid"
)

// Store owns subscriber and token durability. Implementations report facts
// with pkg/platform/sentinel errors; the service translates them.
type Store interface {
	// InsertPending creates a subscriber in pending_confirmation and its
	// confirmation token in one atomic unit: either both rows are visible
	// afterwards or neither is. A duplicate email yields sentinel.ErrConflict.
	InsertPending(ctx context.Context, identity Identity) (PendingSubscription, error)

	// Redeem resolves a confirmation token to its subscriber ID. An unknown
	// token yields sentinel.ErrNotFound, which is a fact, not a failure.
	// Redemption does not consume the token.
	Redeem(ctx context.Context, token string) (uuid.UUID, error)

	// Confirm moves the subscriber to confirmed. Idempotent: confirming an
	// already-confirmed subscriber succeeds, and nothing ever moves a
	// subscriber back to pending.
	Confirm(ctx context.Context, subscriberID uuid.UUID) error
}
