/*
Package rill provides resilient request execution and multi-source stream
reconciliation over abstract transports and feeds.

rill is designed to be embedded within applications that consume remote
data, not run as a standalone service. It has no opinion about UI, routing,
or persistence: the executor and coordinator are constructed with explicit
dependencies (Transport, Feeds, Clock) and emit values for callers to
observe.

# Executor

An Executor issues a typed request against a Transport, classifies failures
into a closed Kind set, and retries transient ones with exponential backoff
and jitter:

	executor := rill.NewExecutor(transport, rill.RetryPolicy{
	    MaxAttempts:    3,
	    BaseDelay:      200 * time.Millisecond,
	    JitterFraction: 0.2,
	})

	user, err := rill.Execute(ctx, executor, rill.Request{
	    Method: "GET",
	    Path:   "/users/42",
	}, rill.Decode[User](rill.JSONCodec{}))

ServerError, Unavailable, and Timeout are retryable; every other kind
resolves immediately. Decoding failures are never retried: decoding is
presumed deterministic. An executor owns no shared mutable state, so one
instance serves any number of concurrent calls.

# Coordinator

A Coordinator subscribes to three feeds — live push, periodic poll, and
static cache — and merges their latest snapshots into one MergedView, with
exactly one item per ID taken from the highest-priority snapshot that
contains it (live > polled > cached). Near-simultaneous emissions are
coalesced by a debounce window so no two merge cycles interleave:

	coordinator := rill.NewCoordinator(live, poll, cache).
	    Debounce(50 * time.Millisecond).
	    Reconnect(rill.DefaultReconnectPolicy())

	views := coordinator.SubscribeViews()
	states := coordinator.SubscribeStates()

	if err := coordinator.Start(ctx); err != nil {
	    return err
	}
	defer coordinator.Stop()

The coordinator owns the live feed's connection lifecycle. An unsolicited
drop starts an auto-reconnect loop whose backoff doubles per failed attempt
up to a ceiling and resets after success; a successful reconnect replays
missed updates from the poll feed into the current view. Connect failures
never surface to callers — they become Errored connection states.

# Pipelines

Merge cycles flow through a pipz pipeline before publication. Pipeline
options wrap the publish stage with middleware:

	coordinator := rill.NewCoordinator(live, poll, cache,
	    rill.WithMiddleware(
	        rill.UseEffect("audit", auditFn),
	    ),
	    rill.WithTimeout(time.Second),
	)

If the pipeline rejects a cycle, the previous view is retained.

# Observability

rill emits capitan signals for every attempt, retry, merge, transition, and
reconnect. Hosts hook the signals they care about:

	capitan.Hook(rill.CoordinatorStateChanged, func(_ context.Context, e *capitan.Event) {
	    oldState, _ := rill.KeyOldState.From(e)
	    newState, _ := rill.KeyNewState.From(e)
	    log.Printf("connection %s -> %s", oldState, newState)
	})

# Time

All sleeping — retry backoff, reconnect backoff, and the debounce window —
goes through a clockz.Clock. Inject clockz.FakeClock in tests to drive
timing deterministically.
*/
package rill
