package rill

import "github.com/zoobzio/capitan"

// Executor signals.
var (
	// ExecutorSucceeded is emitted when a request resolves successfully.
	ExecutorSucceeded = capitan.NewSignal(
		"rill.executor.succeeded",
		"Request resolved successfully",
	)

	// ExecutorAttemptFailed is emitted when a single attempt fails,
	// retryable or not.
	ExecutorAttemptFailed = capitan.NewSignal(
		"rill.executor.attempt.failed",
		"Request attempt failed",
	)

	// ExecutorRetryScheduled is emitted when a retry is scheduled after a
	// retryable failure.
	ExecutorRetryScheduled = capitan.NewSignal(
		"rill.executor.retry.scheduled",
		"Retry scheduled with backoff",
	)

	// ExecutorExhausted is emitted when a request resolves with an error:
	// a terminal kind, or a retryable kind after the last attempt.
	ExecutorExhausted = capitan.NewSignal(
		"rill.executor.exhausted",
		"Request resolved with an error",
	)
)

// Coordinator lifecycle signals.
var (
	// CoordinatorStarted is emitted when a Coordinator begins observing feeds.
	CoordinatorStarted = capitan.NewSignal(
		"rill.coordinator.started",
		"Coordinator started",
	)

	// CoordinatorStopped is emitted when a Coordinator stops.
	CoordinatorStopped = capitan.NewSignal(
		"rill.coordinator.stopped",
		"Coordinator stopped",
	)

	// CoordinatorStateChanged is emitted on every connection state transition.
	CoordinatorStateChanged = capitan.NewSignal(
		"rill.coordinator.state.changed",
		"Connection state transition",
	)
)

// Merge cycle signals.
var (
	// SnapshotReceived is emitted when a feed delivers a new snapshot.
	SnapshotReceived = capitan.NewSignal(
		"rill.coordinator.snapshot.received",
		"Snapshot received from a feed",
	)

	// MergeApplied is emitted when a merge cycle produces a new view.
	MergeApplied = capitan.NewSignal(
		"rill.coordinator.merge.applied",
		"Merged view applied",
	)

	// MergeFailed is emitted when the publish pipeline rejects a view.
	// The previous view is retained.
	MergeFailed = capitan.NewSignal(
		"rill.coordinator.merge.failed",
		"Merge cycle failed",
	)
)

// Reconnect loop signals.
var (
	// ReconnectScheduled is emitted when a reconnect attempt is scheduled
	// after a drop or a failed attempt.
	ReconnectScheduled = capitan.NewSignal(
		"rill.coordinator.reconnect.scheduled",
		"Reconnect attempt scheduled",
	)

	// ReconnectFailed is emitted when a connect attempt fails.
	ReconnectFailed = capitan.NewSignal(
		"rill.coordinator.reconnect.failed",
		"Connect attempt failed",
	)

	// ReconnectSucceeded is emitted when a connect attempt succeeds.
	ReconnectSucceeded = capitan.NewSignal(
		"rill.coordinator.reconnect.succeeded",
		"Connect attempt succeeded",
	)

	// RefreshFailed is emitted when a missed-update or out-of-band fetch
	// fails. Connection state is not reverted.
	RefreshFailed = capitan.NewSignal(
		"rill.coordinator.refresh.failed",
		"Missed-update or refresh fetch failed",
	)
)
