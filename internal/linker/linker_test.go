package linker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/guestlink/guestlink/internal/auth"
	"github.com/guestlink/guestlink/internal/hooks"
	"github.com/guestlink/guestlink/internal/i18n"
	"github.com/guestlink/guestlink/internal/metrics"
	"github.com/guestlink/guestlink/internal/model"
	"github.com/guestlink/guestlink/internal/notice"
)

type fakeMatcher struct {
	counts map[string]int
	err    error
	calls  int
}

func (f *fakeMatcher) LinkGuestOrders(ctx context.Context, userID string) (int, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[userID], nil
}

type fakeMeta struct {
	values map[string]string
	writes int
	pops   int
	popErr error
	// afterGet runs between the read and the pop, standing in for another
	// request touching the same account.
	afterGet func()
}

func newFakeMeta() *fakeMeta {
	return &fakeMeta{values: make(map[string]string)}
}

func (f *fakeMeta) GetMeta(ctx context.Context, userID, key string) (string, bool, error) {
	v, ok := f.values[userID+"/"+key]
	if f.afterGet != nil {
		f.afterGet()
	}
	return v, ok, nil
}

func (f *fakeMeta) SetMeta(ctx context.Context, userID, key, value string) error {
	f.writes++
	f.values[userID+"/"+key] = value
	return nil
}

func (f *fakeMeta) PopMeta(ctx context.Context, userID, key string) (string, bool, error) {
	f.pops++
	if f.popErr != nil {
		return "", false, f.popErr
	}
	v, ok := f.values[userID+"/"+key]
	delete(f.values, userID+"/"+key)
	return v, ok, nil
}

type fakeUsers struct {
	users map[string]*model.User
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func (f *fakeUsers) OrdersURL(userID string) string {
	return "https://shop.example/my-account/orders"
}

type testEnv struct {
	linker  *Linker
	matcher *fakeMatcher
	meta    *fakeMeta
	metrics *metrics.InMemoryRecorder
	logs    *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	messages, err := i18n.New("en")
	if err != nil {
		t.Fatalf("i18n.New: %v", err)
	}

	env := &testEnv{
		matcher: &fakeMatcher{counts: map[string]int{}},
		meta:    newFakeMeta(),
		metrics: metrics.NewInMemory(),
		logs:    &bytes.Buffer{},
	}
	env.linker = New(Deps{
		Orders:  env.matcher,
		Meta:    env.meta,
		Notices: notice.Renderer{},
		Users: &fakeUsers{users: map[string]*model.User{
			"jane": {ID: "jane", Email: "jane@example.com", FirstName: "Jane"},
			"anon": {ID: "anon", Email: "anon@example.com"},
		}},
		Messages: messages,
		Metrics:  env.metrics,
		Logger:   slog.New(slog.NewJSONHandler(env.logs, nil)),
	})
	return env
}

// dashboardRequest returns a context for one dashboard view by userID
// (empty for a visitor) and the notice queue it renders into.
func dashboardRequest(userID string) (context.Context, *notice.Queue) {
	q := &notice.Queue{}
	ctx := notice.ContextWithQueue(context.Background(), q)
	if userID != "" {
		ctx = auth.ContextWithSession(ctx, &model.SessionContext{UserID: userID})
	}
	return ctx, q
}

func TestLink_StoresCount(t *testing.T) {
	env := newTestEnv(t)
	env.matcher.counts["jane"] = 3

	count, err := env.linker.Link(context.Background(), "jane")
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	if got := env.meta.values["jane/"+MetaLinkedOrders]; got != "3" {
		t.Errorf("stored count = %q, want 3", got)
	}
	if env.metrics.Snapshot().OrdersLinked != 3 {
		t.Errorf("OrdersLinked metric = %d", env.metrics.Snapshot().OrdersLinked)
	}
}

func TestLink_RerunOverwrites(t *testing.T) {
	env := newTestEnv(t)
	env.matcher.counts["jane"] = 2
	if _, err := env.linker.Link(context.Background(), "jane"); err != nil {
		t.Fatalf("Link: %v", err)
	}

	env.matcher.counts["jane"] = 0
	if _, err := env.linker.Link(context.Background(), "jane"); err != nil {
		t.Fatalf("Link: %v", err)
	}

	if got := env.meta.values["jane/"+MetaLinkedOrders]; got != "0" {
		t.Errorf("stored count = %q, want 0", got)
	}
}

func TestLink_MatcherFailureStoresZero(t *testing.T) {
	env := newTestEnv(t)
	boom := errors.New("order query failed")
	env.matcher.err = boom

	count, err := env.linker.Link(context.Background(), "jane")
	if !errors.Is(err, boom) {
		t.Fatalf("expected matcher error, got %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	if got := env.meta.values["jane/"+MetaLinkedOrders]; got != "0" {
		t.Errorf("stored count = %q, want 0", got)
	}
	if env.metrics.Snapshot().LinkFailures != 1 {
		t.Errorf("LinkFailures = %d, want 1", env.metrics.Snapshot().LinkFailures)
	}
}

func TestMaybeNotify_ShowsOnceAndClears(t *testing.T) {
	env := newTestEnv(t)
	env.matcher.counts["jane"] = 3
	if _, err := env.linker.Link(context.Background(), "jane"); err != nil {
		t.Fatalf("Link: %v", err)
	}

	ctx, q := dashboardRequest("jane")
	if err := env.linker.MaybeNotify(ctx); err != nil {
		t.Fatalf("MaybeNotify: %v", err)
	}

	notices := q.Notices()
	if len(notices) != 1 {
		t.Fatalf("got %d notices, want 1", len(notices))
	}
	want := "Welcome, Jane! Your previous 3 orders have been linked to this account. [View Orders]"
	if notices[0].Text != want {
		t.Errorf("text = %q, want %q", notices[0].Text, want)
	}
	if notices[0].Type != model.NoticeSuccess {
		t.Errorf("type = %q", notices[0].Type)
	}
	if !strings.Contains(notices[0].HTML, `href="https://shop.example/my-account/orders"`) {
		t.Errorf("html missing orders link: %s", notices[0].HTML)
	}
	if _, ok := env.meta.values["jane/"+MetaLinkedOrders]; ok {
		t.Error("count should be removed after the notice")
	}

	ctx, q = dashboardRequest("jane")
	if err := env.linker.MaybeNotify(ctx); err != nil {
		t.Fatalf("second MaybeNotify: %v", err)
	}
	if len(q.Notices()) != 0 {
		t.Errorf("second view showed %d notices, want 0", len(q.Notices()))
	}
	if env.metrics.Snapshot().NoticesShown != 1 {
		t.Errorf("NoticesShown = %d, want 1", env.metrics.Snapshot().NoticesShown)
	}
}

func TestMaybeNotify_SingularAndGenericGreeting(t *testing.T) {
	env := newTestEnv(t)
	env.matcher.counts["anon"] = 1
	if _, err := env.linker.Link(context.Background(), "anon"); err != nil {
		t.Fatalf("Link: %v", err)
	}

	ctx, q := dashboardRequest("anon")
	if err := env.linker.MaybeNotify(ctx); err != nil {
		t.Fatalf("MaybeNotify: %v", err)
	}

	notices := q.Notices()
	if len(notices) != 1 {
		t.Fatalf("got %d notices, want 1", len(notices))
	}
	want := "Welcome! Your previous order has been linked to this account. [View Orders]"
	if notices[0].Text != want {
		t.Errorf("text = %q, want %q", notices[0].Text, want)
	}
}

func TestMaybeNotify_ZeroCountIsInert(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.linker.Link(context.Background(), "jane"); err != nil {
		t.Fatalf("Link: %v", err)
	}

	ctx, q := dashboardRequest("jane")
	if err := env.linker.MaybeNotify(ctx); err != nil {
		t.Fatalf("MaybeNotify: %v", err)
	}

	if len(q.Notices()) != 0 {
		t.Errorf("zero count showed %d notices", len(q.Notices()))
	}
	if env.meta.pops != 0 {
		t.Errorf("zero count should not be consumed, got %d pops", env.meta.pops)
	}
}

func TestMaybeNotify_NoUser(t *testing.T) {
	env := newTestEnv(t)
	env.meta.values["jane/"+MetaLinkedOrders] = "4"
	writes := env.meta.writes

	ctx, q := dashboardRequest("")
	if err := env.linker.MaybeNotify(ctx); err != nil {
		t.Fatalf("MaybeNotify: %v", err)
	}

	if len(q.Notices()) != 0 {
		t.Error("visitor should see no notice")
	}
	if env.meta.writes != writes || env.meta.pops != 0 {
		t.Error("visitor request should not touch the store")
	}
	if env.meta.values["jane/"+MetaLinkedOrders] != "4" {
		t.Error("other users' counts must be left alone")
	}
}

func TestMaybeNotify_MalformedCountIgnored(t *testing.T) {
	env := newTestEnv(t)
	env.meta.values["jane/"+MetaLinkedOrders] = "many"

	ctx, q := dashboardRequest("jane")
	if err := env.linker.MaybeNotify(ctx); err != nil {
		t.Fatalf("MaybeNotify: %v", err)
	}
	if len(q.Notices()) != 0 {
		t.Error("malformed count should show nothing")
	}
}

func TestMaybeNotify_ClearFailureShowsNothing(t *testing.T) {
	env := newTestEnv(t)
	env.meta.values["jane/"+MetaLinkedOrders] = "2"
	env.meta.popErr = errors.New("connection reset")

	ctx, q := dashboardRequest("jane")
	if err := env.linker.MaybeNotify(ctx); err == nil {
		t.Fatal("expected error when the count cannot be cleared")
	}
	if len(q.Notices()) != 0 {
		t.Errorf("notice rendered although the count was not cleared")
	}

	env.meta.popErr = nil
	ctx, q = dashboardRequest("jane")
	if err := env.linker.MaybeNotify(ctx); err != nil {
		t.Fatalf("MaybeNotify after recovery: %v", err)
	}
	if len(q.Notices()) != 1 {
		t.Errorf("got %d notices after recovery, want 1", len(q.Notices()))
	}
	if env.metrics.Snapshot().NoticesShown != 1 {
		t.Errorf("NoticesShown = %d, want 1", env.metrics.Snapshot().NoticesShown)
	}
}

func TestMaybeNotify_ConcurrentViewConsumedCount(t *testing.T) {
	env := newTestEnv(t)
	key := "jane/" + MetaLinkedOrders
	env.meta.values[key] = "3"
	env.meta.afterGet = func() { delete(env.meta.values, key) }

	ctx, q := dashboardRequest("jane")
	if err := env.linker.MaybeNotify(ctx); err != nil {
		t.Fatalf("MaybeNotify: %v", err)
	}
	if len(q.Notices()) != 0 {
		t.Errorf("got %d notices, want 0 once another view took the count", len(q.Notices()))
	}
	if _, ok := env.meta.values[key]; ok {
		t.Error("count should not be recreated")
	}
}

func TestMaybeNotify_RenderFailureRestoresCount(t *testing.T) {
	env := newTestEnv(t)
	env.meta.values["jane/"+MetaLinkedOrders] = "3"

	// No notice queue in the context.
	ctx := auth.ContextWithSession(context.Background(), &model.SessionContext{UserID: "jane"})
	if err := env.linker.MaybeNotify(ctx); !errors.Is(err, notice.ErrNoQueue) {
		t.Fatalf("MaybeNotify error = %v, want ErrNoQueue", err)
	}
	if got := env.meta.values["jane/"+MetaLinkedOrders]; got != "3" {
		t.Errorf("count after failed render = %q, want 3", got)
	}

	ctx, q := dashboardRequest("jane")
	if err := env.linker.MaybeNotify(ctx); err != nil {
		t.Fatalf("MaybeNotify: %v", err)
	}
	if len(q.Notices()) != 1 {
		t.Errorf("got %d notices, want 1", len(q.Notices()))
	}
}

func TestMaybeNotify_UnknownUserGreetsGenerically(t *testing.T) {
	env := newTestEnv(t)
	env.meta.values["ghost/"+MetaLinkedOrders] = "2"

	ctx, q := dashboardRequest("ghost")
	if err := env.linker.MaybeNotify(ctx); err != nil {
		t.Fatalf("MaybeNotify: %v", err)
	}

	notices := q.Notices()
	if len(notices) != 1 || !strings.HasPrefix(notices[0].Text, "Welcome! ") {
		t.Fatalf("notices = %+v", notices)
	}
}

func TestMaybeNotify_EscapesName(t *testing.T) {
	env := newTestEnv(t)
	env.linker.users = &fakeUsers{users: map[string]*model.User{
		"x": {ID: "x", FirstName: "<b>Eve</b>"},
	}}
	env.meta.values["x/"+MetaLinkedOrders] = "2"

	ctx, q := dashboardRequest("x")
	if err := env.linker.MaybeNotify(ctx); err != nil {
		t.Fatalf("MaybeNotify: %v", err)
	}

	notices := q.Notices()
	if len(notices) != 1 {
		t.Fatalf("got %d notices", len(notices))
	}
	if strings.Contains(notices[0].HTML, "<b>Eve</b>") {
		t.Errorf("first name not escaped: %s", notices[0].HTML)
	}
}

func TestRegister_WiresHooks(t *testing.T) {
	tests := []struct {
		version string
		point   hooks.DashboardPoint
	}{
		{"2.5.0", hooks.BeforeMyAccount},
		{"3.0.0", hooks.AccountDashboard},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			env := newTestEnv(t)
			env.matcher.counts["jane"] = 2
			bus := hooks.NewBus(slog.New(slog.NewJSONHandler(env.logs, nil)))

			if got := env.linker.Register(bus, tt.version); got != tt.point {
				t.Fatalf("Register returned %s, want %s", got, tt.point)
			}

			if err := bus.FireCustomerCreated(context.Background(), hooks.CustomerCreated{UserID: "jane"}); err != nil {
				t.Fatalf("FireCustomerCreated: %v", err)
			}

			ctx, q := dashboardRequest("jane")
			_ = bus.FireDashboard(ctx, hooks.BeforeMyAccount)
			_ = bus.FireDashboard(ctx, hooks.AccountDashboard)

			if len(q.Notices()) != 1 {
				t.Errorf("got %d notices across both hook points, want 1", len(q.Notices()))
			}
		})
	}
}
