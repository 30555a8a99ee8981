// Package linker attaches earlier guest orders to newly created customer
// accounts and tells the customer about it once, on their next dashboard
// visit.
//
// The per-account lifecycle is:
//
//	no link performed -> linked(count) -> notified (count cleared)
//
// Link stores the count under MetaLinkedOrders. MaybeNotify consumes a
// positive count: it pops the attribute and renders the welcome notice,
// so each linking event produces at most one notice even across
// concurrent views. A count whose notice fails to render is put back. A
// stored zero is inert and stays until overwritten.
package linker

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/guestlink/guestlink/internal/auth"
	"github.com/guestlink/guestlink/internal/hooks"
	"github.com/guestlink/guestlink/internal/metrics"
	"github.com/guestlink/guestlink/internal/model"
	"github.com/guestlink/guestlink/internal/platform"
)

// MetaLinkedOrders is the private user attribute holding the linked count.
const MetaLinkedOrders = "_guestlink_linked_orders"

// OrderMatcher links guest orders whose billing email matches the user's
// email to the user, returning how many orders were linked.
type OrderMatcher interface {
	LinkGuestOrders(ctx context.Context, userID string) (int, error)
}

// MetaStore is the per-user attribute store.
type MetaStore interface {
	GetMeta(ctx context.Context, userID, key string) (string, bool, error)
	SetMeta(ctx context.Context, userID, key, value string) error
	// PopMeta deletes the attribute and returns what it held, atomically:
	// of concurrent callers only one sees ok.
	PopMeta(ctx context.Context, userID, key string) (string, bool, error)
}

// Notifier renders a notice into the current request's output.
type Notifier interface {
	AddNotice(ctx context.Context, n model.Notice) error
}

// UserDirectory resolves account details for the notice.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	OrdersURL(userID string) string
}

// Messages composes the localized notice text.
type Messages interface {
	Welcome(ctx context.Context, firstName string) string
	OrdersLinked(ctx context.Context, count int) string
	ViewOrders(ctx context.Context) string
}

// Deps are the collaborators a Linker needs.
type Deps struct {
	Orders   OrderMatcher
	Meta     MetaStore
	Notices  Notifier
	Users    UserDirectory
	Messages Messages
	Metrics  metrics.Recorder
	Logger   *slog.Logger
}

// Linker links guest orders on registration and shows the welcome notice.
type Linker struct {
	orders   OrderMatcher
	meta     MetaStore
	notices  Notifier
	users    UserDirectory
	messages Messages
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// New creates a Linker.
func New(deps Deps) *Linker {
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNoop()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Linker{
		orders:   deps.Orders,
		meta:     deps.Meta,
		notices:  deps.Notices,
		users:    deps.Users,
		messages: deps.Messages,
		metrics:  deps.Metrics,
		logger:   deps.Logger.With("component", "linker"),
	}
}

// Register subscribes the linker to customer creation and to the dashboard
// hook point rendered by the given platform version.
func (l *Linker) Register(bus *hooks.Bus, platformVersion string) hooks.DashboardPoint {
	point := platform.HookPointFor(platformVersion)

	bus.OnCustomerCreated("linker.link", func(ctx context.Context, ev hooks.CustomerCreated) error {
		_, err := l.Link(ctx, ev.UserID)
		return err
	})
	bus.OnDashboard(point, "linker.notify", l.MaybeNotify)

	l.logger.Info("linker registered",
		slog.String("platform_version", platformVersion),
		slog.String("dashboard_hook", string(point)),
	)
	return point
}

// Link matches earlier guest orders to userID and stores the count,
// overwriting any previous value. Calling it again re-matches and re-stores.
//
// If matching fails, zero is stored and the matcher error is returned so
// the caller can log it; account creation is not expected to fail on it.
func (l *Linker) Link(ctx context.Context, userID string) (int, error) {
	start := time.Now()
	count, matchErr := l.orders.LinkGuestOrders(ctx, userID)
	l.metrics.ObserveLinkDuration(time.Since(start))

	if matchErr != nil || count < 0 {
		count = 0
	}

	if err := l.meta.SetMeta(ctx, userID, MetaLinkedOrders, strconv.Itoa(count)); err != nil {
		l.metrics.IncLinkFailures()
		return 0, errors.Join(matchErr, fmt.Errorf("store linked order count: %w", err))
	}

	if matchErr != nil {
		l.metrics.IncLinkFailures()
		l.logger.Warn("guest order matching failed",
			slog.String("user_id", userID),
			slog.String("error", matchErr.Error()),
		)
		return 0, fmt.Errorf("link guest orders: %w", matchErr)
	}

	l.metrics.AddOrdersLinked(count)
	l.logger.Info("guest orders linked",
		slog.String("user_id", userID),
		slog.Int("count", count),
	)
	return count, nil
}

// MaybeNotify shows the welcome notice to the logged-in customer if orders
// were linked to their account, consuming the stored count. It does
// nothing when nobody is logged in or there is nothing to report.
func (l *Linker) MaybeNotify(ctx context.Context) error {
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		return nil
	}

	raw, ok, err := l.meta.GetMeta(ctx, userID, MetaLinkedOrders)
	if err != nil {
		return fmt.Errorf("read linked order count: %w", err)
	}
	if !ok {
		return nil
	}
	count, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || count <= 0 {
		return nil
	}

	// Consumed before rendering; only one dashboard view can win the count.
	raw, ok, err = l.meta.PopMeta(ctx, userID, MetaLinkedOrders)
	if err != nil {
		return fmt.Errorf("clear linked order count: %w", err)
	}
	if !ok {
		return nil
	}
	count, err = strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || count <= 0 {
		// Rewritten between the read and the pop.
		l.restore(ctx, userID, raw)
		return nil
	}

	n := l.compose(ctx, userID, count)
	if err := l.notices.AddNotice(ctx, n); err != nil {
		l.restore(ctx, userID, raw)
		return fmt.Errorf("render welcome notice: %w", err)
	}

	l.metrics.IncNoticesShown()
	l.logger.Info("welcome notice shown",
		slog.String("user_id", userID),
		slog.Int("count", count),
	)
	return nil
}

// restore puts a consumed count back so a later view can still show it.
func (l *Linker) restore(ctx context.Context, userID, raw string) {
	if err := l.meta.SetMeta(ctx, userID, MetaLinkedOrders, raw); err != nil {
		l.logger.Error("failed to restore linked order count",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

func (l *Linker) compose(ctx context.Context, userID string, count int) model.Notice {
	var firstName string
	user, err := l.users.GetUserByID(ctx, userID)
	if err != nil {
		// Generic greeting.
		l.logger.Warn("user lookup for welcome notice failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	} else {
		firstName = user.DisplayFirstName()
	}

	greeting := l.messages.Welcome(ctx, firstName)
	linked := l.messages.OrdersLinked(ctx, count)
	label := l.messages.ViewOrders(ctx)
	url := l.users.OrdersURL(userID)

	return model.Notice{
		Type: model.NoticeSuccess,
		HTML: fmt.Sprintf(`<strong>%s</strong> %s <a class="button" href="%s">%s</a>`,
			html.EscapeString(greeting),
			html.EscapeString(linked),
			html.EscapeString(url),
			html.EscapeString(label),
		),
		Text: fmt.Sprintf("%s %s [%s]", greeting, linked, label),
	}
}
