package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/guestlink/guestlink/internal/model"
	"github.com/guestlink/guestlink/internal/service"
)

// CustomerRegistrar registers customer accounts.
type CustomerRegistrar interface {
	Register(ctx context.Context, input service.RegisterInput) (*model.User, error)
}

// CustomerFinder reports what is known about an email address.
type CustomerFinder interface {
	Lookup(ctx context.Context, email string) (*service.CustomerLookup, error)
}

// CustomerDirectory registers and finds customers.
type CustomerDirectory interface {
	CustomerRegistrar
	CustomerFinder
}

// GuestOrderRecorder records guest orders.
type GuestOrderRecorder interface {
	CreateGuestOrder(ctx context.Context, input service.CreateGuestOrderInput) (*model.Order, error)
}

// SessionStarter issues customer sessions.
type SessionStarter interface {
	StartSession(ctx context.Context, userID string) (*service.Session, error)
}

// StoreHandler serves the platform integration API.
type StoreHandler struct {
	customers CustomerDirectory
	orders    GuestOrderRecorder
	sessions  SessionStarter
	logger    *slog.Logger
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(customers CustomerDirectory, orders GuestOrderRecorder, sessions SessionStarter, logger *slog.Logger) *StoreHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreHandler{
		customers: customers,
		orders:    orders,
		sessions:  sessions,
		logger:    logger.With("component", "store_api"),
	}
}

type registerRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
}

// RegisterCustomer creates an account. Earlier guest orders with the same
// email are linked during the call.
//
// POST /api/v1/customers
func (h *StoreHandler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	user, err := h.customers.Register(r.Context(), service.RegisterInput{Email: req.Email, FirstName: req.FirstName})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "customer registered", slog.String("user_id", user.ID))
	writeJSON(w, http.StatusCreated, user)
}

type customerLookupResponse struct {
	Email               string      `json:"email"`
	Customer            *model.User `json:"customer"`
	UnlinkedGuestOrders int         `json:"unlinked_guest_orders"`
}

// LookupCustomer reports the account behind an email address, if any, and
// how many guest orders with that address are still unlinked.
//
// GET /api/v1/customers?email=
func (h *StoreHandler) LookupCustomer(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "email query parameter is required")
		return
	}

	found, err := h.customers.Lookup(r.Context(), email)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidEmail) {
			h.logger.ErrorContext(r.Context(), "customer lookup failed", slog.String("error", err.Error()))
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, customerLookupResponse{
		Email:               found.Email,
		Customer:            found.Customer,
		UnlinkedGuestOrders: found.UnlinkedGuestOrders,
	})
}

type guestOrderRequest struct {
	ID           string     `json:"id"`
	BillingEmail string     `json:"billing_email"`
	Status       string     `json:"status"`
	TotalCents   int64      `json:"total_cents"`
	Currency     string     `json:"currency"`
	CreatedAt    *time.Time `json:"created_at"`
}

// CreateGuestOrder records an order placed at guest checkout.
//
// POST /api/v1/orders
func (h *StoreHandler) CreateGuestOrder(w http.ResponseWriter, r *http.Request) {
	var req guestOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	order, err := h.orders.CreateGuestOrder(r.Context(), service.CreateGuestOrderInput{
		ID:           req.ID,
		BillingEmail: req.BillingEmail,
		Status:       req.Status,
		TotalCents:   req.TotalCents,
		Currency:     req.Currency,
		CreatedAt:    req.CreatedAt,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

type sessionRequest struct {
	UserID string `json:"user_id"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateSession signs a customer in on behalf of the storefront.
//
// POST /api/v1/sessions
func (h *StoreHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "user_id is required")
		return
	}

	sess, err := h.sessions.StartSession(r.Context(), req.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{Token: sess.Token, UserID: sess.UserID, ExpiresAt: sess.ExpiresAt})
}
