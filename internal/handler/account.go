package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/guestlink/guestlink/internal/auth"
	"github.com/guestlink/guestlink/internal/hooks"
	"github.com/guestlink/guestlink/internal/middleware"
	"github.com/guestlink/guestlink/internal/model"
	"github.com/guestlink/guestlink/internal/notice"
)

// DashboardFirer runs the dashboard hook points.
type DashboardFirer interface {
	FireDashboard(ctx context.Context, point hooks.DashboardPoint) error
}

// AccountReader resolves the signed-in customer.
type AccountReader interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	OrdersURL(userID string) string
}

// OrderLister lists a customer's orders.
type OrderLister interface {
	ListCustomerOrders(ctx context.Context, userID string, limit int) ([]*model.Order, error)
}

// SessionEnder revokes customer sessions.
type SessionEnder interface {
	EndSession(ctx context.Context, token string) error
}

// AccountHandler renders the customer account pages.
type AccountHandler struct {
	hooks    DashboardFirer
	accounts AccountReader
	orders   OrderLister
	sessions SessionEnder
	logger   *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(hooks DashboardFirer, accounts AccountReader, orders OrderLister, sessions SessionEnder, logger *slog.Logger) *AccountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountHandler{
		hooks:    hooks,
		accounts: accounts,
		orders:   orders,
		sessions: sessions,
		logger:   logger.With("component", "account"),
	}
}

// DashboardResponse is the account dashboard view.
type DashboardResponse struct {
	User      *model.User    `json:"user"`
	Notices   []model.Notice `json:"notices"`
	OrdersURL string         `json:"orders_url"`
}

// Dashboard renders the account dashboard. Both hook points fire in
// rendering order before the view is assembled; handlers on them see the
// same session the page does.
//
// GET /my-account
func (h *AccountHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	for _, point := range []hooks.DashboardPoint{hooks.BeforeMyAccount, hooks.AccountDashboard} {
		// The bus logs handler failures; the page still renders.
		_ = h.hooks.FireDashboard(ctx, point)
	}

	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in to view your account")
		return
	}

	user, err := h.accounts.GetUserByID(ctx, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "session user lookup failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err)
		return
	}

	notices := []model.Notice{}
	if q := notice.QueueFromContext(ctx); q != nil {
		notices = q.Notices()
	}

	writeJSON(w, http.StatusOK, DashboardResponse{
		User:      user,
		Notices:   notices,
		OrdersURL: h.accounts.OrdersURL(userID),
	})
}

// Orders lists the signed-in customer's orders, newest first.
// Requires a session.
//
// GET /my-account/orders
func (h *AccountHandler) Orders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = n
	}

	orders, err := h.orders.ListCustomerOrders(ctx, userID, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list orders failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// Logout revokes the presented session and clears the session cookie.
// Visitors without a session get the same 204.
//
// POST /my-account/logout
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if sess := auth.SessionFromContext(ctx); sess != nil && sess.Token != "" {
		if err := h.sessions.EndSession(ctx, sess.Token); err != nil {
			h.logger.ErrorContext(ctx, "end session failed",
				slog.String("user_id", sess.UserID),
				slog.String("error", err.Error()),
			)
			writeServiceError(w, err)
			return
		}
		h.logger.InfoContext(ctx, "customer signed out", slog.String("user_id", sess.UserID))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
