package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/guestlink/guestlink/internal/model"
	"github.com/guestlink/guestlink/internal/webhook"
)

// PlatformEventApplier applies a verified platform event.
type PlatformEventApplier interface {
	HandlePlatformEvent(ctx context.Context, ev *webhook.Event) (*model.User, bool, error)
}

// EventHandler receives signed events from the commerce platform.
type EventHandler struct {
	secret       string
	replayWindow time.Duration
	customers    PlatformEventApplier
	logger       *slog.Logger
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(secret string, replayWindow time.Duration, customers PlatformEventApplier, logger *slog.Logger) *EventHandler {
	if replayWindow <= 0 {
		replayWindow = webhook.DefaultReplayWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandler{
		secret:       secret,
		replayWindow: replayWindow,
		customers:    customers,
		logger:       logger.With("component", "platform_events"),
	}
}

type eventResponse struct {
	Status string      `json:"status"`
	User   *model.User `json:"user,omitempty"`
}

// Receive verifies and applies one event.
//
// POST /hooks/platform
func (h *EventHandler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.secret == "" {
		writeError(w, http.StatusServiceUnavailable, "EVENTS_DISABLED", "Platform events are not configured")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
		return
	}

	if err := webhook.VerifyRequest(r.Header, h.secret, body, h.replayWindow); err != nil {
		h.logger.WarnContext(ctx, "platform event rejected",
			slog.String("reason", err.Error()),
			slog.String("ip", r.RemoteAddr),
		)
		writeError(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "Invalid or missing event signature")
		return
	}

	ev, err := webhook.ParseEvent(body)
	if err != nil {
		if errors.Is(err, webhook.ErrUnsupportedEvent) {
			// Acknowledged so the platform does not retry it.
			writeJSON(w, http.StatusAccepted, eventResponse{Status: "ignored"})
			return
		}
		writeError(w, http.StatusBadRequest, "MALFORMED_EVENT", err.Error())
		return
	}

	user, created, err := h.customers.HandlePlatformEvent(ctx, ev)
	if err != nil {
		h.logger.ErrorContext(ctx, "platform event failed",
			slog.String("event_id", ev.ID),
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err)
		return
	}

	if created {
		writeJSON(w, http.StatusCreated, eventResponse{Status: "created", User: user})
		return
	}
	writeJSON(w, http.StatusOK, eventResponse{Status: "updated", User: user})
}
