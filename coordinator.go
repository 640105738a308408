package rill

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// DefaultDebounce is the default quiescence window for merge cycles.
// Snapshots arriving within this window are coalesced into a single merge.
const DefaultDebounce = 100 * time.Millisecond

// subscriberBuffer is the channel capacity handed to each subscriber.
// Deliveries are in order and never skipped; slow subscribers backpressure
// the run loop once the buffer fills.
const subscriberBuffer = 16

// Coordinator reconciles three independent feeds — live push, periodic
// poll, and static cache — into a single MergedView, and manages the live
// feed's connection lifecycle with auto-reconnect backoff and missed-update
// replay.
//
// All state transitions are serialized onto one run-loop goroutine fed by a
// fan-in event channel; no two merge cycles run concurrently and observers
// see every state in emission order.
type Coordinator struct {
	live  LiveFeed
	poll  PollFeed
	cache Feed

	pipeline  pipz.Chainable[*Update]
	debounce  time.Duration
	reconnect ReconnectPolicy
	clock     clockz.Clock
	metrics   MetricsProvider
	onStop    func(ConnectionState)
	history   *errorRing

	view      atomic.Pointer[MergedView]
	connState atomic.Pointer[ConnectionState]
	lastError atomic.Pointer[error]

	mu        sync.Mutex
	started   bool
	stopped   bool
	runCtx    context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	viewSubs  []chan MergedView
	stateSubs []chan ConnectionState

	events chan coordEvent
}

// coordEvent is a message delivered to the run loop. Snapshots, drops,
// connect results, and fetch results all arrive as events so the loop owns
// every piece of mutable state.
type coordEvent interface{}

type snapshotEvent struct {
	snap StreamSnapshot
}

type dropEvent struct {
	reason error
}

type connectResult struct {
	err       error
	reconnect bool
}

type fetchResult struct {
	items []StreamItem
	err   error
}

// NewCoordinator creates a Coordinator over the three feeds. Pipeline
// options (With*) wrap the publish stage that runs on every merge cycle.
//
// Example:
//
//	coordinator := rill.NewCoordinator(live, poll, cache,
//	    rill.WithTimeout(time.Second),
//	).Debounce(50 * time.Millisecond).Reconnect(rill.DefaultReconnectPolicy())
//
//	views := coordinator.SubscribeViews()
//	if err := coordinator.Start(ctx); err != nil {
//	    return err
//	}
func NewCoordinator(live LiveFeed, poll PollFeed, cache Feed, opts ...Option) *Coordinator {
	terminal := pipz.Transform(publishID, func(_ context.Context, u *Update) *Update {
		return u
	})

	c := &Coordinator{
		live:      live,
		poll:      poll,
		cache:     cache,
		pipeline:  buildPipeline(terminal, opts),
		debounce:  DefaultDebounce,
		reconnect: DefaultReconnectPolicy(),
		clock:     clockz.RealClock,
		events:    make(chan coordEvent, 16),
	}
	initial := ConnectionState{Phase: PhaseDisconnected}
	c.connState.Store(&initial)

	return c
}

// Debounce sets the quiescence window for merge cycles.
// Default: 100ms. Must be called before Start().
func (c *Coordinator) Debounce(d time.Duration) *Coordinator {
	c.debounce = d
	return c
}

// Reconnect sets the auto-reconnect backoff policy.
// Default: 1s base doubling to a 30s ceiling. Must be called before Start().
func (c *Coordinator) Reconnect(policy ReconnectPolicy) *Coordinator {
	c.reconnect = policy
	return c
}

// Clock sets a custom clock for debounce and backoff timing.
// Use this with clockz.FakeClock for deterministic testing.
// Must be called before Start().
func (c *Coordinator) Clock(clock clockz.Clock) *Coordinator {
	c.clock = clock
	return c
}

// Metrics sets a metrics provider for observability integration.
// Must be called before Start().
func (c *Coordinator) Metrics(provider MetricsProvider) *Coordinator {
	c.metrics = provider
	return c
}

// OnStop sets a callback invoked with the final connection state when the
// coordinator stops. Must be called before Start().
func (c *Coordinator) OnStop(fn func(ConnectionState)) *Coordinator {
	c.onStop = fn
	return c
}

// ErrorHistorySize sets the number of absorbed errors to retain.
// Use 0 (default) to only retain the most recent error via LastError().
// Must be called before Start().
func (c *Coordinator) ErrorHistorySize(n int) *Coordinator {
	c.history = newErrorRing(n)
	return c
}

// View returns the current merged view and true, or the zero view and false
// if no merge cycle has completed.
func (c *Coordinator) View() (MergedView, bool) {
	ptr := c.view.Load()
	if ptr == nil {
		return MergedView{}, false
	}
	return *ptr, true
}

// State returns the current connection state.
func (c *Coordinator) State() ConnectionState {
	return *c.connState.Load()
}

// LastError returns the last error the coordinator absorbed, or nil.
func (c *Coordinator) LastError() error {
	ptr := c.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns the recent absorbed errors, oldest first.
// Returns nil unless ErrorHistorySize was set.
func (c *Coordinator) ErrorHistory() []error {
	return c.history.all()
}

// SubscribeViews registers a push subscription for merged views. Every
// published view is delivered, in order. The channel is closed when the
// coordinator stops.
func (c *Coordinator) SubscribeViews() <-chan MergedView {
	ch := make(chan MergedView, subscriberBuffer)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		close(ch)
		return ch
	}
	c.viewSubs = append(c.viewSubs, ch)
	return ch
}

// SubscribeStates registers a push subscription for connection states.
// Every transition is delivered, in order, with no state skipped. The
// channel is closed when the coordinator stops.
func (c *Coordinator) SubscribeStates() <-chan ConnectionState {
	ch := make(chan ConnectionState, subscriberBuffer)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		close(ch)
		return ch
	}
	c.stateSubs = append(c.stateSubs, ch)
	return ch
}

// Start subscribes to the three feeds and begins the connect sequence.
// It is idempotent: calling Start on a running coordinator is a no-op.
// Connect failures do not surface here; they become Errored connection
// states and drive the backoff loop. Start fails only on feed subscription
// errors or after Stop.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return fmt.Errorf("coordinator stopped")
	}
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	runCtx, cancel := context.WithCancel(ctx)
	c.runCtx = runCtx
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	if err := c.reconnect.Validate(); err != nil {
		cancel()
		return fmt.Errorf("invalid reconnect policy: %w", err)
	}

	capitan.Emit(ctx, CoordinatorStarted,
		KeyDebounce.Field(c.debounce),
	)

	liveCh, err := c.live.Snapshots(runCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe live feed: %w", err)
	}
	pollCh, err := c.poll.Snapshots(runCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe poll feed: %w", err)
	}
	cacheCh, err := c.cache.Snapshots(runCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe cache feed: %w", err)
	}
	drops, err := c.live.Drops(runCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe live feed drops: %w", err)
	}

	go c.forward(runCtx, liveCh)
	go c.forward(runCtx, pollCh)
	go c.forward(runCtx, cacheCh)
	go c.forwardDrops(runCtx, drops)
	go c.run(runCtx)

	return nil
}

// Stop cancels the reconnect loop, any pending backoff sleeps, and the feed
// subscriptions, then transitions to Disconnected. It blocks until the run
// loop has exited. Stop is idempotent.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.stopped = true
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Refresh forces an out-of-band fetch from the poll feed and merges the
// result into the current view with the same upsert rule as missed-update
// reconciliation (tag forced to polled). The fetch runs asynchronously on
// the coordinator's own context; failures are absorbed into the error
// history without affecting connection state.
func (c *Coordinator) Refresh() error {
	c.mu.Lock()
	runCtx := c.runCtx
	running := c.started && !c.stopped
	c.mu.Unlock()

	if !running || runCtx == nil || runCtx.Err() != nil {
		return fmt.Errorf("coordinator not running")
	}
	go c.fetch(runCtx, c.poll.FetchLatest)
	return nil
}

// forward relays feed snapshots into the run loop.
func (c *Coordinator) forward(ctx context.Context, ch <-chan StreamSnapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			select {
			case c.events <- snapshotEvent{snap: snap}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// forwardDrops relays live feed drop notifications into the run loop.
func (c *Coordinator) forwardDrops(ctx context.Context, ch <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case reason, ok := <-ch:
			if !ok {
				return
			}
			select {
			case c.events <- dropEvent{reason: reason}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// attempt performs one live feed connect and posts the result.
func (c *Coordinator) attempt(ctx context.Context, reconnect bool) {
	err := c.live.Connect(ctx)
	select {
	case c.events <- connectResult{err: err, reconnect: reconnect}:
	case <-ctx.Done():
	}
}

// fetch performs one on-demand poll fetch and posts the result.
func (c *Coordinator) fetch(ctx context.Context, fn func(context.Context) ([]StreamItem, error)) {
	items, err := fn(ctx)
	select {
	case c.events <- fetchResult{items: items, err: err}:
	case <-ctx.Done():
	}
}

// run is the single owner of coordinator state. Every merge, transition,
// and reconnect decision happens here, in event order.
func (c *Coordinator) run(ctx context.Context) {
	defer c.shutdown(ctx)

	var (
		latest [3]*StreamSnapshot

		mergeTimer clockz.Timer
		mergeC     <-chan time.Time
		hasPending bool

		backoffTimer clockz.Timer
		backoffC     <-chan time.Time
		backoff      time.Duration
		dropped      bool
	)

	// Begin the connect sequence.
	c.transition(ctx, ConnectionState{Phase: PhaseConnecting})
	go c.attempt(ctx, false)

	for {
		select {
		case <-ctx.Done():
			if mergeTimer != nil {
				mergeTimer.Stop()
			}
			if backoffTimer != nil {
				backoffTimer.Stop()
			}
			return

		case ev := <-c.events:
			switch ev := ev.(type) {
			case snapshotEvent:
				snap := ev.snap
				latest[snap.Source] = &snap
				hasPending = true
				capitan.Emit(ctx, SnapshotReceived,
					KeySource.Field(snap.Source.String()),
					KeyItems.Field(len(snap.Items)),
				)
				if c.metrics != nil {
					c.metrics.OnSnapshotReceived(snap.Source)
				}

				// Reset or start the quiescence window
				if mergeTimer == nil {
					mergeTimer = c.clock.NewTimer(c.debounce)
					mergeC = mergeTimer.C()
				} else {
					if !mergeTimer.Stop() {
						select {
						case <-mergeC:
						default:
						}
					}
					mergeTimer.Reset(c.debounce)
				}

			case dropEvent:
				if c.State().Phase != PhaseConnected {
					continue
				}
				c.absorb(ev.reason)
				c.transition(ctx, ConnectionState{Phase: PhaseDisconnected})
				dropped = true
				backoff = c.reconnect.next(0)
				backoffTimer, backoffC = c.schedule(ctx, backoffTimer, backoff)

			case connectResult:
				if ev.err != nil {
					c.absorb(ev.err)
					c.transition(ctx, ConnectionState{Phase: PhaseErrored, Reason: ev.err})
					capitan.Emit(ctx, ReconnectFailed,
						KeyError.Field(ev.err.Error()),
					)
					backoff = c.reconnect.next(backoff)
					backoffTimer, backoffC = c.schedule(ctx, backoffTimer, backoff)
					continue
				}

				c.transition(ctx, ConnectionState{Phase: PhaseConnected})
				capitan.Emit(ctx, ReconnectSucceeded)
				backoff = 0
				if ev.reconnect && dropped {
					dropped = false
					go c.fetch(ctx, c.poll.FetchMissed)
				}

			case fetchResult:
				if ev.err != nil {
					c.absorb(ev.err)
					capitan.Emit(ctx, RefreshFailed,
						KeyError.Field(ev.err.Error()),
					)
					if c.metrics != nil {
						c.metrics.OnMergeFailure("fetch", 0)
					}
					continue
				}
				current, _ := c.View()
				c.apply(ctx, upsertItems(current, ev.items, c.clock.Now()))
			}

		case <-mergeC:
			if hasPending {
				c.apply(ctx, mergeSnapshots(latest[SourceLive], latest[SourcePolled], latest[SourceCached], c.clock.Now()))
				hasPending = false
			}

		case <-backoffC:
			backoffC = nil
			c.transition(ctx, ConnectionState{Phase: PhaseConnecting})
			go c.attempt(ctx, true)
		}
	}
}

// schedule arms the reconnect backoff timer, reusing a previous timer when
// one exists.
func (c *Coordinator) schedule(ctx context.Context, timer clockz.Timer, delay time.Duration) (clockz.Timer, <-chan time.Time) {
	capitan.Emit(ctx, ReconnectScheduled,
		KeyDelay.Field(delay),
	)
	if c.metrics != nil {
		c.metrics.OnReconnectScheduled(delay)
	}

	if timer == nil {
		timer = c.clock.NewTimer(delay)
		return timer, timer.C()
	}
	if !timer.Stop() {
		select {
		case <-timer.C():
		default:
		}
	}
	timer.Reset(delay)
	return timer, timer.C()
}

// apply runs a merged view through the publish pipeline, stores it, and
// pushes it to subscribers. On pipeline failure the previous view stands.
func (c *Coordinator) apply(ctx context.Context, next MergedView) {
	start := c.clock.Now()

	prev := MergedView{}
	if ptr := c.view.Load(); ptr != nil {
		prev = *ptr
	}

	processed, err := c.pipeline.Process(ctx, &Update{Previous: prev, Current: next})
	if err != nil {
		c.absorb(err)
		capitan.Emit(ctx, MergeFailed,
			KeyError.Field(err.Error()),
		)
		if c.metrics != nil {
			c.metrics.OnMergeFailure("pipeline", c.clock.Since(start))
		}
		return
	}

	published := processed.Current
	c.view.Store(&published)
	capitan.Emit(ctx, MergeApplied,
		KeySource.Field(published.Source.String()),
		KeyItems.Field(len(published.Items)),
	)
	if c.metrics != nil {
		c.metrics.OnMergeApplied(c.clock.Since(start))
	}

	c.mu.Lock()
	subs := make([]chan MergedView, len(c.viewSubs))
	copy(subs, c.viewSubs)
	c.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- published:
		case <-ctx.Done():
			return
		}
	}
}

// transition replaces the connection state and notifies observers in order.
func (c *Coordinator) transition(ctx context.Context, next ConnectionState) {
	prev := *c.connState.Load()
	if prev.Phase == next.Phase && prev.Reason == nil && next.Reason == nil {
		return
	}
	c.connState.Store(&next)
	capitan.Emit(ctx, CoordinatorStateChanged,
		KeyOldState.Field(prev.Phase.String()),
		KeyNewState.Field(next.Phase.String()),
	)
	if c.metrics != nil {
		c.metrics.OnStateChange(prev, next)
	}

	c.mu.Lock()
	subs := make([]chan ConnectionState, len(c.stateSubs))
	copy(subs, c.stateSubs)
	c.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- next:
		case <-ctx.Done():
			return
		}
	}
}

// absorb records an error without surfacing it to observers.
func (c *Coordinator) absorb(err error) {
	if err == nil {
		return
	}
	e := err
	c.lastError.Store(&e)
	c.history.push(err)
}

// shutdown finalizes state when the run loop exits: the live feed is
// released, the terminal Disconnected state is published best-effort, and
// subscriber channels are closed.
func (c *Coordinator) shutdown(ctx context.Context) {
	final := ConnectionState{Phase: PhaseDisconnected}
	c.connState.Store(&final)
	c.live.Disconnect()

	c.mu.Lock()
	c.stopped = true
	viewSubs := c.viewSubs
	stateSubs := c.stateSubs
	c.viewSubs = nil
	c.stateSubs = nil
	c.mu.Unlock()

	for _, ch := range stateSubs {
		select {
		case ch <- final:
		default:
		}
		close(ch)
	}
	for _, ch := range viewSubs {
		close(ch)
	}

	capitan.Emit(ctx, CoordinatorStopped,
		KeyState.Field(final.String()),
	)
	if c.onStop != nil {
		c.onStop(final)
	}

	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		close(done)
	}
}
