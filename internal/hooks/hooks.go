// Package hooks provides typed extension points fired by the storefront.
//
// Handlers are registered at startup by the composition root and run
// synchronously, in registration order, inside the request that fires them.
// A failing handler is logged and does not stop the handlers after it.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// DashboardPoint names a place on the account page where handlers can run.
type DashboardPoint string

// Dashboard hook points. Older platform schemas only render BeforeMyAccount.
const (
	BeforeMyAccount  DashboardPoint = "before_my_account"
	AccountDashboard DashboardPoint = "account_dashboard"
)

// CustomerCreated is fired after a customer account has been stored.
type CustomerCreated struct {
	UserID string
	Email  string
}

// CustomerCreatedFunc handles a CustomerCreated event.
type CustomerCreatedFunc func(ctx context.Context, ev CustomerCreated) error

// Func handles an event with no payload beyond the request context.
type Func func(ctx context.Context) error

type named[F any] struct {
	name string
	fn   F
}

// Bus holds registered handlers.
type Bus struct {
	logger *slog.Logger

	mu              sync.RWMutex
	customerCreated []named[CustomerCreatedFunc]
	dashboard       map[DashboardPoint][]named[Func]
	adminInit       []named[Func]
}

// NewBus creates an empty Bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		logger:    logger.With("component", "hooks"),
		dashboard: make(map[DashboardPoint][]named[Func]),
	}
}

// OnCustomerCreated registers fn for new customer accounts.
func (b *Bus) OnCustomerCreated(name string, fn CustomerCreatedFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.customerCreated = append(b.customerCreated, named[CustomerCreatedFunc]{name: name, fn: fn})
}

// OnDashboard registers fn at the given dashboard point.
func (b *Bus) OnDashboard(point DashboardPoint, name string, fn Func) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dashboard[point] = append(b.dashboard[point], named[Func]{name: name, fn: fn})
}

// OnAdminInit registers fn for administrative requests.
func (b *Bus) OnAdminInit(name string, fn Func) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.adminInit = append(b.adminInit, named[Func]{name: name, fn: fn})
}

// FireCustomerCreated runs the CustomerCreated handlers.
// The returned error joins every handler failure.
func (b *Bus) FireCustomerCreated(ctx context.Context, ev CustomerCreated) error {
	b.mu.RLock()
	handlers := append([]named[CustomerCreatedFunc](nil), b.customerCreated...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h.fn(ctx, ev); err != nil {
			b.logger.Warn("hook handler failed",
				slog.String("hook", "customer_created"),
				slog.String("handler", h.name),
				slog.String("user_id", ev.UserID),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
		}
	}
	return errors.Join(errs...)
}

// FireDashboard runs the handlers registered at point.
func (b *Bus) FireDashboard(ctx context.Context, point DashboardPoint) error {
	b.mu.RLock()
	handlers := append([]named[Func](nil), b.dashboard[point]...)
	b.mu.RUnlock()

	return b.run(ctx, string(point), handlers)
}

// FireAdminInit runs the admin init handlers.
func (b *Bus) FireAdminInit(ctx context.Context) error {
	b.mu.RLock()
	handlers := append([]named[Func](nil), b.adminInit...)
	b.mu.RUnlock()

	return b.run(ctx, "admin_init", handlers)
}

func (b *Bus) run(ctx context.Context, hook string, handlers []named[Func]) error {
	var errs []error
	for _, h := range handlers {
		if err := h.fn(ctx); err != nil {
			b.logger.Warn("hook handler failed",
				slog.String("hook", hook),
				slog.String("handler", h.name),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
		}
	}
	return errors.Join(errs...)
}
