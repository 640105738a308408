package rill

import "context"

// ChannelFeed wraps an existing snapshot channel as a Feed.
// Useful for testing and in-process sources that already produce snapshots.
type ChannelFeed struct {
	ch   <-chan StreamSnapshot
	sync bool
}

// NewChannelFeed creates a ChannelFeed that forwards snapshots from the
// given channel through an internal goroutine.
func NewChannelFeed(ch <-chan StreamSnapshot) *ChannelFeed {
	return &ChannelFeed{ch: ch, sync: false}
}

// NewSyncChannelFeed creates a ChannelFeed that returns the source channel
// directly without an intermediate goroutine, for deterministic testing.
func NewSyncChannelFeed(ch <-chan StreamSnapshot) *ChannelFeed {
	return &ChannelFeed{ch: ch, sync: true}
}

// Snapshots returns a channel that emits snapshots from the wrapped channel.
func (f *ChannelFeed) Snapshots(ctx context.Context) (<-chan StreamSnapshot, error) {
	if f.sync {
		return f.ch, nil
	}

	out := make(chan StreamSnapshot)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-f.ch:
				if !ok {
					return
				}
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// ChannelLiveFeed is a LiveFeed driven by channels: snapshots from one,
// drop notifications from another. Connect and Disconnect behavior is
// injectable, which makes scripted connection scenarios straightforward
// in tests.
type ChannelLiveFeed struct {
	*ChannelFeed
	drops      <-chan error
	connect    func(context.Context) error
	disconnect func()
}

// NewChannelLiveFeed creates a ChannelLiveFeed over the given snapshot and
// drop channels. Connect succeeds immediately unless overridden with
// ConnectFunc.
func NewChannelLiveFeed(snaps <-chan StreamSnapshot, drops <-chan error) *ChannelLiveFeed {
	return &ChannelLiveFeed{
		ChannelFeed: NewSyncChannelFeed(snaps),
		drops:       drops,
	}
}

// ConnectFunc sets the connect behavior.
func (f *ChannelLiveFeed) ConnectFunc(fn func(context.Context) error) *ChannelLiveFeed {
	f.connect = fn
	return f
}

// DisconnectFunc sets a hook invoked on Disconnect.
func (f *ChannelLiveFeed) DisconnectFunc(fn func()) *ChannelLiveFeed {
	f.disconnect = fn
	return f
}

// Connect implements LiveFeed.
func (f *ChannelLiveFeed) Connect(ctx context.Context) error {
	if f.connect == nil {
		return nil
	}
	return f.connect(ctx)
}

// Disconnect implements LiveFeed.
func (f *ChannelLiveFeed) Disconnect() {
	if f.disconnect != nil {
		f.disconnect()
	}
}

// Drops implements LiveFeed, returning the drop channel directly.
func (f *ChannelLiveFeed) Drops(_ context.Context) (<-chan error, error) {
	return f.drops, nil
}

// Ensure ChannelLiveFeed implements LiveFeed.
var _ LiveFeed = (*ChannelLiveFeed)(nil)

// ChannelPollFeed is a PollFeed driven by a snapshot channel with
// injectable on-demand fetches.
type ChannelPollFeed struct {
	*ChannelFeed
	fetchMissed func(context.Context) ([]StreamItem, error)
	fetchLatest func(context.Context) ([]StreamItem, error)
}

// NewChannelPollFeed creates a ChannelPollFeed over the given snapshot
// channel. Both fetches return nothing unless overridden.
func NewChannelPollFeed(snaps <-chan StreamSnapshot) *ChannelPollFeed {
	return &ChannelPollFeed{ChannelFeed: NewSyncChannelFeed(snaps)}
}

// FetchMissedFunc sets the missed-update fetch behavior.
func (f *ChannelPollFeed) FetchMissedFunc(fn func(context.Context) ([]StreamItem, error)) *ChannelPollFeed {
	f.fetchMissed = fn
	return f
}

// FetchLatestFunc sets the on-demand fetch behavior.
func (f *ChannelPollFeed) FetchLatestFunc(fn func(context.Context) ([]StreamItem, error)) *ChannelPollFeed {
	f.fetchLatest = fn
	return f
}

// FetchMissed implements PollFeed.
func (f *ChannelPollFeed) FetchMissed(ctx context.Context) ([]StreamItem, error) {
	if f.fetchMissed == nil {
		return nil, nil
	}
	return f.fetchMissed(ctx)
}

// FetchLatest implements PollFeed.
func (f *ChannelPollFeed) FetchLatest(ctx context.Context) ([]StreamItem, error) {
	if f.fetchLatest == nil {
		return nil, nil
	}
	return f.fetchLatest(ctx)
}

// Ensure ChannelPollFeed implements PollFeed.
var _ PollFeed = (*ChannelPollFeed)(nil)
