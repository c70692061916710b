// Package handler exposes the subscription workflow over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"missive/internal/platform/middleware"
	"missive/internal/subscription"
	"missive/internal/transport/http/shared"
	domainerrors "missive/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks

// Service defines the subscription operations the HTTP layer delegates to.
type Service interface {
	Subscribe(ctx context.Context, name, email string) (subscription.PendingSubscription, error)
	Confirm(ctx context.Context, token string) error
}

// Handler handles the public subscription endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a subscription Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the subscription routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/subscriptions", h.handleSubscribe)
	r.Get("/subscriptions/confirm", h.handleConfirm)
}

// handleSubscribe accepts a URL-encoded form with name and email fields.
func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	if err := r.ParseForm(); err != nil {
		h.logger.WarnContext(ctx, "malformed subscription form",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, domainerrors.New(domainerrors.CodeValidation, "malformed form body"))
		return
	}

	name := r.PostForm.Get("name")
	email := r.PostForm.Get("email")

	_, err := h.service.Subscribe(ctx, name, email)
	if err != nil {
		switch {
		case domainerrors.Is(err, domainerrors.CodeValidation), domainerrors.Is(err, domainerrors.CodeConflict):
			h.logger.WarnContext(ctx, "subscription rejected",
				"request_id", requestID,
				"error", err.Error(),
			)
		default:
			h.logger.ErrorContext(ctx, "subscription failed",
				"request_id", requestID,
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleConfirm redeems the token from the confirmation link.
func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	token := r.URL.Query().Get("subscription_token")

	if err := h.service.Confirm(ctx, token); err != nil {
		switch {
		case domainerrors.Is(err, domainerrors.CodeValidation), domainerrors.Is(err, domainerrors.CodeNotFound):
			h.logger.WarnContext(ctx, "confirmation rejected",
				"request_id", requestID,
				"error", err.Error(),
			)
		default:
			h.logger.ErrorContext(ctx, "confirmation failed",
				"request_id", requestID,
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
