package hooks

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newTestBus(buf *bytes.Buffer) *Bus {
	return NewBus(slog.New(slog.NewJSONHandler(buf, nil)))
}

func TestBus_CustomerCreatedOrder(t *testing.T) {
	var buf bytes.Buffer
	bus := newTestBus(&buf)

	var calls []string
	bus.OnCustomerCreated("first", func(ctx context.Context, ev CustomerCreated) error {
		calls = append(calls, "first:"+ev.UserID)
		return nil
	})
	bus.OnCustomerCreated("second", func(ctx context.Context, ev CustomerCreated) error {
		calls = append(calls, "second:"+ev.UserID)
		return nil
	})

	if err := bus.FireCustomerCreated(context.Background(), CustomerCreated{UserID: "u1"}); err != nil {
		t.Fatalf("FireCustomerCreated: %v", err)
	}

	want := []string{"first:u1", "second:u1"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestBus_FailingHandlerDoesNotStopOthers(t *testing.T) {
	var buf bytes.Buffer
	bus := newTestBus(&buf)

	boom := errors.New("boom")
	ran := false
	bus.OnCustomerCreated("broken", func(ctx context.Context, ev CustomerCreated) error {
		return boom
	})
	bus.OnCustomerCreated("after", func(ctx context.Context, ev CustomerCreated) error {
		ran = true
		return nil
	})

	err := bus.FireCustomerCreated(context.Background(), CustomerCreated{UserID: "u1"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to wrap boom, got %v", err)
	}
	if !ran {
		t.Error("handler after the failing one should still run")
	}
	if !strings.Contains(buf.String(), `"handler":"broken"`) {
		t.Errorf("expected failure to be logged, got %s", buf.String())
	}
}

func TestBus_DashboardPointsAreSeparate(t *testing.T) {
	var buf bytes.Buffer
	bus := newTestBus(&buf)

	count := 0
	bus.OnDashboard(AccountDashboard, "notice", func(ctx context.Context) error {
		count++
		return nil
	})

	_ = bus.FireDashboard(context.Background(), BeforeMyAccount)
	if count != 0 {
		t.Errorf("BeforeMyAccount ran the AccountDashboard handler")
	}

	_ = bus.FireDashboard(context.Background(), AccountDashboard)
	if count != 1 {
		t.Errorf("handler ran %d times, want 1", count)
	}
}

func TestBus_AdminInit(t *testing.T) {
	var buf bytes.Buffer
	bus := newTestBus(&buf)

	ran := false
	bus.OnAdminInit("install", func(ctx context.Context) error {
		ran = true
		return nil
	})

	if err := bus.FireAdminInit(context.Background()); err != nil {
		t.Fatalf("FireAdminInit: %v", err)
	}
	if !ran {
		t.Error("admin init handler did not run")
	}
}
