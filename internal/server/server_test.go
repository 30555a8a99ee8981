package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestServer_RunAndShutdownOrder(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}), Config{Port: 0, ReadTimeout: time.Second, WriteTimeout: time.Second, ShutdownTimeout: time.Second}, logger)

	var mu sync.Mutex
	var order []string
	record := func(name string, err error) ShutdownFunc {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return err
		}
	}
	srv.OnShutdown("postgres", record("postgres", nil))
	srv.OnShutdown("redis", record("redis", errors.New("already closed")))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	var resp *http.Response
	var err error
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if addr := srv.Addr(); !strings.HasPrefix(addr, ":") {
			resp, err = http.Get("http://" + addr)
			if err == nil {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	if resp == nil {
		t.Fatalf("server did not answer: %v", err)
	}
	_ = resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "redis") {
			t.Errorf("Run() error = %v, want the redis shutdown error", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}

	if !slices.Equal(order, []string{"redis", "postgres"}) {
		t.Errorf("shutdown order = %v, want LIFO", order)
	}
}
