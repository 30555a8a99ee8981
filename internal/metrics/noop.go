package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncCustomersRegistered is a no-op.
func (n *NoopRecorder) IncCustomersRegistered() {}

// AddOrdersLinked is a no-op.
func (n *NoopRecorder) AddOrdersLinked(int) {}

// IncLinkFailures is a no-op.
func (n *NoopRecorder) IncLinkFailures() {}

// ObserveLinkDuration is a no-op.
func (n *NoopRecorder) ObserveLinkDuration(time.Duration) {}

// IncNoticesShown is a no-op.
func (n *NoopRecorder) IncNoticesShown() {}
