package notice

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/guestlink/guestlink/internal/model"
)

func TestRenderer_NoQueue(t *testing.T) {
	err := Renderer{}.AddNotice(context.Background(), model.Notice{Type: model.NoticeSuccess})
	if !errors.Is(err, ErrNoQueue) {
		t.Fatalf("expected ErrNoQueue, got %v", err)
	}
}

func TestMiddleware_QueuePerRequest(t *testing.T) {
	var got []model.Notice
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := (Renderer{}).AddNotice(r.Context(), model.Notice{Type: model.NoticeSuccess, Text: "hi"}); err != nil {
			t.Errorf("AddNotice: %v", err)
		}
		got = QueueFromContext(r.Context()).Notices()
	}))

	for i := 0; i < 2; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if len(got) != 1 {
			t.Fatalf("request %d: got %d notices, want 1", i, len(got))
		}
		if got[0].Text != "hi" {
			t.Errorf("notice text = %q", got[0].Text)
		}
	}
}

func TestQueue_NoticesNeverNil(t *testing.T) {
	q := &Queue{}
	if q.Notices() == nil {
		t.Error("Notices() should return an empty slice, not nil")
	}
}
