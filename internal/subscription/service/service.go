// Package service implements the subscription workflow: the path from an
// untrusted form submission to a committed pending subscriber, and from a
// redeemed token to a confirmed one.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"missive/internal/events"
	"missive/internal/platform/metrics"
	"missive/internal/subscription"
	domainerrors "missive/pkg/domain-errors"
	"missive/pkg/platform/sentinel"
	"missive/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/service_mock.go -package=mocks Store,Notifier,Events

// Store is the slice of subscription.Store this workflow needs.
type Store interface {
	InsertPending(ctx context.Context, identity subscription.Identity) (subscription.PendingSubscription, error)
	Redeem(ctx context.Context, token string) (uuid.UUID, error)
	Confirm(ctx context.Context, subscriberID uuid.UUID) error
}

// Notifier delivers the confirmation email. Implementations must be safe for
// concurrent use.
type Notifier interface {
	SendConfirmation(ctx context.Context, to, name, confirmationLink string) error
}

// Events receives best-effort lifecycle events. Emit must never block the
// request for long or fail it.
type Events interface {
	Emit(ctx context.Context, event events.Event)
}

// Service orchestrates validate → insert → notify, and redeem → confirm.
// Dependencies are injected so tests can substitute an in-memory store and a
// fake notifier.
type Service struct {
	store    Store
	notifier Notifier
	events   Events
	baseURL  string
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

func NewService(store Store, notifier Notifier, sink Events, baseURL string, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		events:   sink,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("missive/subscription"),
	}
}

// Subscribe validates the raw form fields, commits a pending subscriber with
// its confirmation token, then emails the confirmation link.
//
// The insert commits before the send starts, so a notified address always has
// a row behind it. The reverse is allowed: when the provider fails, the rows
// stay committed, the caller gets an internal error, and the subscriber waits
// in pending_confirmation for a manual resend.
//
// An email that already has a subscription is rejected with a conflict. A
// fresh token would invalidate or duplicate the link already delivered to the
// mailbox owner, so re-subscribing while pending is not supported.
func (s *Service) Subscribe(ctx context.Context, rawName, rawEmail string) (subscription.PendingSubscription, error) {
	ctx, span := s.tracer.Start(ctx, "subscription.Subscribe")
	defer span.End()

	identity, err := subscription.ParseIdentity(rawName, rawEmail)
	if err != nil {
		return subscription.PendingSubscription{}, err
	}

	pending, err := s.store.InsertPending(ctx, identity)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return subscription.PendingSubscription{}, domainerrors.Wrap(err, domainerrors.CodeConflict, "email already has a subscription")
		}
		return subscription.PendingSubscription{}, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "could not persist subscription")
	}
	s.metrics.RecordSubscriptionCreated()
	s.emit(ctx, events.TypeSubscriptionPending, pending.SubscriberID, identity.Email)

	link := s.confirmationLink(pending.Token)
	if err := s.notifier.SendConfirmation(ctx, identity.Email, identity.Name, link); err != nil {
		s.metrics.RecordEmailFailed()
		s.logger.ErrorContext(ctx, "confirmation email failed",
			"request_id", requestcontext.RequestID(ctx),
			"subscriber_id", pending.SubscriberID,
			"error", err.Error(),
		)
		return pending, domainerrors.Wrap(err, domainerrors.CodeInternal, "could not send confirmation email")
	}
	s.metrics.RecordEmailSent()

	return pending, nil
}

// Confirm redeems a token and moves its subscriber to confirmed. Safe to
// repeat: a re-clicked link redeems the same token and re-confirms.
func (s *Service) Confirm(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "subscription.Confirm")
	defer span.End()

	if token == "" {
		return domainerrors.New(domainerrors.CodeValidation, "subscription_token is required")
	}

	subscriberID, err := s.store.Redeem(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domainerrors.Wrap(err, domainerrors.CodeNotFound, "unknown subscription token")
		}
		return domainerrors.Wrap(err, domainerrors.CodeUnavailable, "could not redeem token")
	}

	if err := s.store.Confirm(ctx, subscriberID); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "could not confirm subscription")
	}
	s.metrics.RecordSubscriptionConfirmed()
	s.emit(ctx, events.TypeSubscriptionConfirmed, subscriberID, "")

	return nil
}

func (s *Service) confirmationLink(token string) string {
	return s.baseURL + "/subscriptions/confirm?" + url.Values{"subscription_token": {token}}.Encode()
}

func (s *Service) emit(ctx context.Context, eventType events.Type, subscriberID uuid.UUID, email string) {
	if s.events == nil {
		return
	}
	s.events.Emit(ctx, events.Event{
		ID:           uuid.New(),
		Type:         eventType,
		SubscriberID: subscriberID,
		Email:        email,
		Timestamp:    requestcontext.Now(ctx).UTC(),
		RequestID:    requestcontext.RequestID(ctx),
	})
}
