package subscription

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"missive/pkg/platform/sentinel"
	"missive/pkg/requestcontext"
)

// InMemoryStore is the test twin of the Postgres store. It enforces the same
// facts: email uniqueness, all-or-nothing inserts, idempotent confirms.
type InMemoryStore struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]*Subscriber
	byEmail     map[string]uuid.UUID
	tokens      map[string]uuid.UUID

	// failTokenWrite simulates a failure between the subscriber write and the
	// token write, to assert that no partial state leaks out.
	failTokenWrite bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		subscribers: make(map[uuid.UUID]*Subscriber),
		byEmail:     make(map[string]uuid.UUID),
		tokens:      make(map[string]uuid.UUID),
	}
}

func (s *InMemoryStore) InsertPending(ctx context.Context, identity Identity) (PendingSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[identity.Email]; exists {
		return PendingSubscription{}, sentinel.ErrConflict
	}
	if s.failTokenWrite {
		return PendingSubscription{}, sentinel.ErrUnavailable
	}

	sub := &Subscriber{
		ID:           uuid.New(),
		Email:        identity.Email,
		Name:         identity.Name,
		SubscribedAt: requestcontext.Now(ctx).UTC(),
		Status:       StatusPendingConfirmation,
	}
	token := GenerateToken()

	s.subscribers[sub.ID] = sub
	s.byEmail[identity.Email] = sub.ID
	s.tokens[token] = sub.ID

	return PendingSubscription{SubscriberID: sub.ID, Token: token}, nil
}

func (s *InMemoryStore) Redeem(_ context.Context, token string) (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.tokens[token]
	if !ok {
		return uuid.Nil, sentinel.ErrNotFound
	}
	return id, nil
}

func (s *InMemoryStore) Confirm(_ context.Context, subscriberID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subscribers[subscriberID]
	if !ok {
		return sentinel.ErrNotFound
	}
	sub.Status = StatusConfirmed
	return nil
}

// GetByEmail returns a copy of the subscriber with the given email, or nil.
// Test helper; not part of the Store contract.
func (s *InMemoryStore) GetByEmail(email string) *Subscriber {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil
	}
	copied := *s.subscribers[id]
	return &copied
}

// Len returns the number of stored subscribers. Test helper.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// TokenCount returns the number of stored tokens. Test helper.
func (s *InMemoryStore) TokenCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
