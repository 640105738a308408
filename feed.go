package rill

import (
	"context"
	"time"
)

// Source identifies where a snapshot originated. Sources are ordered:
// live outranks polled, polled outranks cached. Higher-priority snapshots
// win per-item conflicts during a merge.
type Source int

const (
	// SourceCached is a static cache snapshot, the lowest priority.
	SourceCached Source = iota

	// SourcePolled is a periodic-poll feed snapshot.
	SourcePolled

	// SourceLive is a live push feed snapshot, the highest priority.
	SourceLive
)

// String returns the string representation of the source.
func (s Source) String() string {
	switch s {
	case SourceCached:
		return "cached"
	case SourcePolled:
		return "polled"
	case SourceLive:
		return "live"
	default:
		return "unknown"
	}
}

// StreamItem is an identity-bearing record. Identity is ID-based; equality
// and recency are Timestamp-based.
type StreamItem struct {
	ID        string    `json:"id" yaml:"id"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// StreamSnapshot is an ordered bundle of items emitted by a feed whenever it
// has new data. Snapshots are immutable once emitted.
type StreamSnapshot struct {
	Items     []StreamItem
	Timestamp time.Time
	Source    Source
}

// Feed observes a source for new data and emits StreamSnapshots on a channel.
// The channel is closed when the context is canceled or an unrecoverable
// error occurs.
//
// Implementations should emit their current snapshot promptly after
// Snapshots() is called so a fresh subscriber has data to merge.
type Feed interface {
	Snapshots(ctx context.Context) (<-chan StreamSnapshot, error)
}

// LiveFeed is a push feed with an explicit connection lifecycle. Snapshots
// only flow while connected.
type LiveFeed interface {
	Feed

	// Connect establishes the push connection, returning when it is live or
	// the attempt fails. Honors context cancellation.
	Connect(ctx context.Context) error

	// Disconnect tears the connection down. No drop is signaled for an
	// explicit disconnect.
	Disconnect()

	// Drops returns a channel that emits once each time an established
	// connection is lost without an explicit Disconnect. The value carries
	// the drop reason.
	Drops(ctx context.Context) (<-chan error, error)
}

// PollFeed is a periodic-poll feed that additionally serves on-demand
// fetches, used for missed-update reconciliation after a reconnect and for
// out-of-band refreshes.
type PollFeed interface {
	Feed

	// FetchMissed returns items the caller may have missed while its live
	// connection was down.
	FetchMissed(ctx context.Context) ([]StreamItem, error)

	// FetchLatest returns the poll source's current items.
	FetchLatest(ctx context.Context) ([]StreamItem, error)
}
