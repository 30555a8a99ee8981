// Package notice collects the notices rendered on the current page.
package notice

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/guestlink/guestlink/internal/model"
)

// ErrNoQueue is returned when a notice is added outside a request that
// went through Middleware.
var ErrNoQueue = errors.New("no notice queue in context")

// Queue holds the notices for one request.
type Queue struct {
	mu      sync.Mutex
	notices []model.Notice
}

// Add appends n to the queue.
func (q *Queue) Add(n model.Notice) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notices = append(q.notices, n)
}

// Notices returns a copy of the queued notices. Never nil.
func (q *Queue) Notices() []model.Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]model.Notice, len(q.notices))
	copy(out, q.notices)
	return out
}

type contextKey struct{}

// ContextWithQueue attaches q to ctx.
func ContextWithQueue(ctx context.Context, q *Queue) context.Context {
	return context.WithValue(ctx, contextKey{}, q)
}

// QueueFromContext returns the request's queue, or nil.
func QueueFromContext(ctx context.Context) *Queue {
	q, _ := ctx.Value(contextKey{}).(*Queue)
	return q
}

// Renderer adds notices to the queue carried by the request context.
type Renderer struct{}

// AddNotice queues n for the current request.
func (Renderer) AddNotice(ctx context.Context, n model.Notice) error {
	q := QueueFromContext(ctx)
	if q == nil {
		return ErrNoQueue
	}
	q.Add(n)
	return nil
}

// Middleware gives every request an empty notice queue.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ContextWithQueue(r.Context(), &Queue{})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
