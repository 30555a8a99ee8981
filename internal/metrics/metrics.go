// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Registration metrics
	IncCustomersRegistered()

	// Linking metrics
	AddOrdersLinked(n int)
	IncLinkFailures()
	ObserveLinkDuration(duration time.Duration)

	// Notice metrics
	IncNoticesShown()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
