package rill

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on key coordinator events.
type MetricsProvider interface {
	// OnStateChange is called when the coordinator transitions between
	// connection states.
	OnStateChange(from, to ConnectionState)

	// OnSnapshotReceived is called when a feed delivers a snapshot.
	OnSnapshotReceived(source Source)

	// OnMergeApplied is called when a merge cycle produces a new view.
	// Duration is the time taken to merge and publish.
	OnMergeApplied(duration time.Duration)

	// OnMergeFailure is called when a merge cycle fails. Stage indicates
	// where: "pipeline" or "fetch".
	OnMergeFailure(stage string, duration time.Duration)

	// OnReconnectScheduled is called when a reconnect attempt is scheduled.
	OnReconnectScheduled(delay time.Duration)
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnStateChange(_, _ ConnectionState)       {}
func (NoOpMetricsProvider) OnSnapshotReceived(_ Source)              {}
func (NoOpMetricsProvider) OnMergeApplied(_ time.Duration)           {}
func (NoOpMetricsProvider) OnMergeFailure(_ string, _ time.Duration) {}
func (NoOpMetricsProvider) OnReconnectScheduled(_ time.Duration)     {}

// ExecutorMetrics receives callbacks on request resolution and retry
// scheduling. An Executor with no provider skips the callbacks entirely.
type ExecutorMetrics interface {
	// OnSuccess is called when a request resolves successfully after the
	// given number of attempts.
	OnSuccess(attempts int, elapsed time.Duration)

	// OnFailure is called when a request resolves with an error.
	OnFailure(kind Kind, attempts int, elapsed time.Duration)

	// OnRetryScheduled is called when a retry is scheduled.
	OnRetryScheduled(attempt int, delay time.Duration)
}

// NoOpExecutorMetrics is a no-op implementation of ExecutorMetrics.
type NoOpExecutorMetrics struct{}

func (NoOpExecutorMetrics) OnSuccess(_ int, _ time.Duration)         {}
func (NoOpExecutorMetrics) OnFailure(_ Kind, _ int, _ time.Duration) {}
func (NoOpExecutorMetrics) OnRetryScheduled(_ int, _ time.Duration)  {}
