package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"missive/pkg/platform/sentinel"
	"missive/pkg/requestcontext"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) TestInsertPending() {
	s.Run("creates a pending subscriber with one token", func() {
		at := time.Date(2026, 8, 14, 9, 30, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(s.ctx, at)

		pending, err := s.store.InsertPending(ctx, Identity{Name: "Alice", Email: "alice@example.com"})
		s.Require().NoError(err)
		s.NotEqual(uuid.Nil, pending.SubscriberID)
		s.Len(pending.Token, TokenLength)

		sub := s.store.GetByEmail("alice@example.com")
		s.Require().NotNil(sub)
		s.Equal(pending.SubscriberID, sub.ID)
		s.Equal("Alice", sub.Name)
		s.Equal(StatusPendingConfirmation, sub.Status)
		s.Equal(at, sub.SubscribedAt)
		s.Equal(1, s.store.TokenCount())
	})

	s.Run("rejects a duplicate email", func() {
		_, err := s.store.InsertPending(s.ctx, Identity{Name: "Bob", Email: "bob@example.com"})
		s.Require().NoError(err)

		_, err = s.store.InsertPending(s.ctx, Identity{Name: "Bobby", Email: "bob@example.com"})
		s.Require().ErrorIs(err, sentinel.ErrConflict)
		s.Equal("Bob", s.store.GetByEmail("bob@example.com").Name)
	})

	s.Run("emails differing only in case are distinct", func() {
		_, err := s.store.InsertPending(s.ctx, Identity{Name: "Carol", Email: "carol@example.com"})
		s.Require().NoError(err)
		_, err = s.store.InsertPending(s.ctx, Identity{Name: "Carol", Email: "Carol@example.com"})
		s.Require().NoError(err)
	})
}

// TestInsertPendingIsAtomic verifies that a failure mid-insert leaves no
// partial state: no subscriber without its token, no orphaned token.
func (s *MemoryStoreSuite) TestInsertPendingIsAtomic() {
	s.store.failTokenWrite = true

	_, err := s.store.InsertPending(s.ctx, Identity{Name: "Alice", Email: "alice@example.com"})
	s.Require().Error(err)
	s.Equal(0, s.store.Len())
	s.Equal(0, s.store.TokenCount())
	s.Nil(s.store.GetByEmail("alice@example.com"))

	// The same email can be inserted once the store recovers.
	s.store.failTokenWrite = false
	_, err = s.store.InsertPending(s.ctx, Identity{Name: "Alice", Email: "alice@example.com"})
	s.Require().NoError(err)
}

func (s *MemoryStoreSuite) TestRedeemAndConfirm() {
	pending, err := s.store.InsertPending(s.ctx, Identity{Name: "Alice", Email: "alice@example.com"})
	s.Require().NoError(err)

	s.Run("redeem resolves the token to its subscriber", func() {
		id, err := s.store.Redeem(s.ctx, pending.Token)
		s.Require().NoError(err)
		s.Equal(pending.SubscriberID, id)
	})

	s.Run("confirm transitions the status", func() {
		s.Require().NoError(s.store.Confirm(s.ctx, pending.SubscriberID))
		s.Equal(StatusConfirmed, s.store.GetByEmail("alice@example.com").Status)
	})

	s.Run("confirm is idempotent", func() {
		s.Require().NoError(s.store.Confirm(s.ctx, pending.SubscriberID))
		s.Equal(StatusConfirmed, s.store.GetByEmail("alice@example.com").Status)
	})

	s.Run("a re-clicked link re-redeems and never downgrades", func() {
		id, err := s.store.Redeem(s.ctx, pending.Token)
		s.Require().NoError(err)
		s.Require().NoError(s.store.Confirm(s.ctx, id))
		s.Equal(StatusConfirmed, s.store.GetByEmail("alice@example.com").Status)
	})
}

func (s *MemoryStoreSuite) TestRedeemUnknownToken() {
	_, err := s.store.InsertPending(s.ctx, Identity{Name: "Alice", Email: "alice@example.com"})
	s.Require().NoError(err)

	_, err = s.store.Redeem(s.ctx, "not-a-real-token")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	// No mutation happened.
	s.Equal(StatusPendingConfirmation, s.store.GetByEmail("alice@example.com").Status)
}

func (s *MemoryStoreSuite) TestConfirmUnknownSubscriber() {
	err := s.store.Confirm(s.ctx, uuid.New())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
