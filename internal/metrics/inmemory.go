package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	CustomersRegistered uint64
	OrdersLinked        uint64
	LinkFailures        uint64
	LinkDurationCount   uint64
	LinkDurationTotalNs int64
	NoticesShown        uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	customersRegistered uint64
	ordersLinked        uint64
	linkFailures        uint64
	linkDurationCount   uint64
	linkDurationTotalNs int64
	noticesShown        uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		CustomersRegistered: atomic.LoadUint64(&m.customersRegistered),
		OrdersLinked:        atomic.LoadUint64(&m.ordersLinked),
		LinkFailures:        atomic.LoadUint64(&m.linkFailures),
		LinkDurationCount:   atomic.LoadUint64(&m.linkDurationCount),
		LinkDurationTotalNs: atomic.LoadInt64(&m.linkDurationTotalNs),
		NoticesShown:        atomic.LoadUint64(&m.noticesShown),
	}
}

// IncCustomersRegistered increments the registration counter.
func (m *InMemoryRecorder) IncCustomersRegistered() {
	atomic.AddUint64(&m.customersRegistered, 1)
}

// AddOrdersLinked adds n to the linked orders counter. Negative n is ignored.
func (m *InMemoryRecorder) AddOrdersLinked(n int) {
	if n <= 0 {
		return
	}
	atomic.AddUint64(&m.ordersLinked, uint64(n))
}

// IncLinkFailures increments the link failure counter.
func (m *InMemoryRecorder) IncLinkFailures() {
	atomic.AddUint64(&m.linkFailures, 1)
}

// ObserveLinkDuration records how long a link call took.
func (m *InMemoryRecorder) ObserveLinkDuration(duration time.Duration) {
	atomic.AddUint64(&m.linkDurationCount, 1)
	atomic.AddInt64(&m.linkDurationTotalNs, duration.Nanoseconds())
}

// IncNoticesShown increments the welcome notice counter.
func (m *InMemoryRecorder) IncNoticesShown() {
	atomic.AddUint64(&m.noticesShown, 1)
}
