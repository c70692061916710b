package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"missive/pkg/platform/sentinel"
	"missive/pkg/requestcontext"
)

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

// PostgresStore persists subscribers and confirmation tokens.
type PostgresStore struct {
	db *sql.DB

	// generateToken is swappable so tests can force a token collision and
	// observe the insert transaction roll back.
	generateToken func() string
}

// NewPostgres constructs a Postgres-backed store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, generateToken: GenerateToken}
}

func (s *PostgresStore) InsertPending(ctx context.Context, identity Identity) (PendingSubscription, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PendingSubscription{}, fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	subscriberID := uuid.New()
	token := s.generateToken()
	now := requestcontext.Now(ctx).UTC()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO subscriptions (id, email, name, subscribed_at, status)
		 VALUES ($1, $2, $3, $4, $5)`,
		subscriberID, identity.Email, identity.Name, now, StatusPendingConfirmation,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return PendingSubscription{}, fmt.Errorf("insert subscriber: %w", sentinel.ErrConflict)
		}
		return PendingSubscription{}, fmt.Errorf("insert subscriber: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO subscription_tokens (subscription_token, subscriber_id)
		 VALUES ($1, $2)`,
		token, subscriberID,
	)
	if err != nil {
		return PendingSubscription{}, fmt.Errorf("insert token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return PendingSubscription{}, fmt.Errorf("commit insert tx: %w", err)
	}
	return PendingSubscription{SubscriberID: subscriberID, Token: token}, nil
}

func (s *PostgresStore) Redeem(ctx context.Context, token string) (uuid.UUID, error) {
	var subscriberID uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT subscriber_id FROM subscription_tokens WHERE subscription_token = $1`,
		token,
	).Scan(&subscriberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, sentinel.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("redeem token: %w", err)
	}
	return subscriberID, nil
}

// Confirm is a plain status UPDATE: re-running it against an already
// confirmed subscriber matches the same row and succeeds again.
func (s *PostgresStore) Confirm(ctx context.Context, subscriberID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE subscriptions SET status = $1 WHERE id = $2`,
		StatusConfirmed, subscriberID,
	)
	if err != nil {
		return fmt.Errorf("confirm subscriber: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("confirm subscriber: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
