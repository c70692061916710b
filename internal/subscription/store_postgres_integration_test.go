//go:build integration

package subscription

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"missive/pkg/platform/sentinel"
	"missive/pkg/requestcontext"
	"missive/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.store.generateToken = GenerateToken
	err := s.postgres.TruncateTables(context.Background(), "subscription_tokens", "subscriptions")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) subscriberRow(email string) (status string, count int) {
	row := s.postgres.DB.QueryRow(
		`SELECT COUNT(*), COALESCE(MAX(status), '') FROM subscriptions WHERE email = $1`, email)
	s.Require().NoError(row.Scan(&count, &status))
	return status, count
}

func (s *PostgresStoreSuite) tokenCount(subscriberID uuid.UUID) int {
	var count int
	row := s.postgres.DB.QueryRow(
		`SELECT COUNT(*) FROM subscription_tokens WHERE subscriber_id = $1`, subscriberID)
	s.Require().NoError(row.Scan(&count))
	return count
}

func (s *PostgresStoreSuite) TestInsertPendingRoundtrip() {
	at := time.Date(2026, 8, 14, 9, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), at)

	pending, err := s.store.InsertPending(ctx, Identity{Name: "Alice", Email: "alice@example.com"})
	s.Require().NoError(err)
	s.Len(pending.Token, TokenLength)

	status, count := s.subscriberRow("alice@example.com")
	s.Equal(1, count)
	s.Equal(string(StatusPendingConfirmation), status)
	s.Equal(1, s.tokenCount(pending.SubscriberID))

	var subscribedAt time.Time
	row := s.postgres.DB.QueryRow(`SELECT subscribed_at FROM subscriptions WHERE id = $1`, pending.SubscriberID)
	s.Require().NoError(row.Scan(&subscribedAt))
	s.Equal(at, subscribedAt.UTC())
}

func (s *PostgresStoreSuite) TestDuplicateEmailConflict() {
	ctx := context.Background()

	_, err := s.store.InsertPending(ctx, Identity{Name: "Alice", Email: "alice@example.com"})
	s.Require().NoError(err)

	_, err = s.store.InsertPending(ctx, Identity{Name: "Alice Again", Email: "alice@example.com"})
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	_, count := s.subscriberRow("alice@example.com")
	s.Equal(1, count)
}

// TestTokenWriteFailureRollsBack forces the token insert to hit a primary key
// collision and verifies the subscriber insert from the same transaction is
// rolled back with it.
func (s *PostgresStoreSuite) TestTokenWriteFailureRollsBack() {
	ctx := context.Background()
	s.store.generateToken = func() string { return "fixed-collision-token-25ch" }

	_, err := s.store.InsertPending(ctx, Identity{Name: "Alice", Email: "alice@example.com"})
	s.Require().NoError(err)

	_, err = s.store.InsertPending(ctx, Identity{Name: "Bob", Email: "bob@example.com"})
	s.Require().Error(err)

	_, count := s.subscriberRow("bob@example.com")
	s.Equal(0, count, "failed transaction must leave no subscriber row")
}

func (s *PostgresStoreSuite) TestRedeemAndConfirm() {
	ctx := context.Background()
	pending, err := s.store.InsertPending(ctx, Identity{Name: "Alice", Email: "alice@example.com"})
	s.Require().NoError(err)

	id, err := s.store.Redeem(ctx, pending.Token)
	s.Require().NoError(err)
	s.Equal(pending.SubscriberID, id)

	s.Require().NoError(s.store.Confirm(ctx, id))
	status, _ := s.subscriberRow("alice@example.com")
	s.Equal(string(StatusConfirmed), status)

	// Idempotent: a re-clicked link redeems and confirms again without error.
	id, err = s.store.Redeem(ctx, pending.Token)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Confirm(ctx, id))
	status, _ = s.subscriberRow("alice@example.com")
	s.Equal(string(StatusConfirmed), status)
}

func (s *PostgresStoreSuite) TestRedeemUnknownToken() {
	_, err := s.store.Redeem(context.Background(), "not-a-real-token")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConfirmUnknownSubscriber() {
	err := s.store.Confirm(context.Background(), uuid.New())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentDuplicateEmail races two inserts for the same email; exactly
// one commits and the loser fails cleanly with a conflict.
func (s *PostgresStoreSuite) TestConcurrentDuplicateEmail() {
	ctx := context.Background()
	const racers = 8

	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = s.store.InsertPending(ctx, Identity{Name: "Racer", Email: "race@example.com"})
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			s.Require().ErrorIs(err, sentinel.ErrConflict)
			conflicts++
		}
	}
	s.Equal(1, wins)
	s.Equal(racers-1, conflicts)

	_, count := s.subscriberRow("race@example.com")
	s.Equal(1, count)
}
