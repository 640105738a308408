package rill

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// Executor issues typed requests against a Transport, classifies failures,
// and retries transient ones with exponential backoff and jitter.
//
// An Executor owns no shared mutable state: it is fully reentrant and a
// single instance may serve many concurrent Execute calls.
type Executor struct {
	transport Transport
	policy    RetryPolicy
	clock     clockz.Clock
	rand      func() float64
	metrics   ExecutorMetrics
}

// NewExecutor creates an Executor over the given transport and retry policy.
// The policy is fixed for the lifetime of the executor.
//
// Example:
//
//	executor := rill.NewExecutor(transport, rill.RetryPolicy{
//	    MaxAttempts:    3,
//	    BaseDelay:      200 * time.Millisecond,
//	    JitterFraction: 0.2,
//	})
//	user, err := rill.Execute(ctx, executor, req, rill.Decode[User](rill.JSONCodec{}))
func NewExecutor(transport Transport, policy RetryPolicy) *Executor {
	return &Executor{
		transport: transport,
		policy:    policy,
		clock:     clockz.RealClock,
		rand:      rand.Float64,
	}
}

// Clock sets a custom clock for backoff sleeps.
// Use this with clockz.FakeClock for deterministic retry testing.
func (e *Executor) Clock(clock clockz.Clock) *Executor {
	e.clock = clock
	return e
}

// Rand sets the random source for jitter. The function must return values
// in [0, 1). Defaults to math/rand.
func (e *Executor) Rand(fn func() float64) *Executor {
	e.rand = fn
	return e
}

// Metrics sets a metrics provider for observability integration.
func (e *Executor) Metrics(m ExecutorMetrics) *Executor {
	e.metrics = m
	return e
}

// Execute submits the request through the executor's transport, decoding a
// successful body with decode. The call suspends until resolution: success,
// a terminal Kind, retry exhaustion, or context cancellation.
//
// Retryable kinds (ServerError, Unavailable, Timeout) are resubmitted up to
// the policy's MaxAttempts with exponential backoff; all other kinds resolve
// immediately. Cancelling the context aborts the backoff sleep and the whole
// operation.
func Execute[T any](ctx context.Context, e *Executor, req Request, decode DecodeFunc[T]) (T, error) {
	var zero T
	start := e.clock.Now()

	if err := req.Validate(); err != nil {
		failure := &Error{Kind: KindInvalidRequest, Cause: err}
		e.observeFailure(ctx, failure, 1, e.clock.Since(start))
		return zero, failure
	}

	for attempt := 0; ; attempt++ {
		body, failure := e.roundTrip(ctx, req)
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if failure == nil {
			v, err := decode(body)
			if err != nil {
				failure = &Error{Kind: KindDecodingFailed, Cause: err}
				e.observeFailure(ctx, failure, attempt+1, e.clock.Since(start))
				return zero, failure
			}
			capitan.Emit(ctx, ExecutorSucceeded,
				KeyAttempt.Field(attempt+1),
			)
			if e.metrics != nil {
				e.metrics.OnSuccess(attempt+1, e.clock.Since(start))
			}
			return v, nil
		}

		capitan.Emit(ctx, ExecutorAttemptFailed,
			KeyAttempt.Field(attempt+1),
			KeyKind.Field(failure.Kind.String()),
			KeyError.Field(failure.Error()),
		)

		if !failure.Kind.Retryable() || attempt+1 >= e.policy.MaxAttempts {
			e.observeFailure(ctx, failure, attempt+1, e.clock.Since(start))
			return zero, failure
		}

		delay := e.policy.delay(attempt, e.rand)
		capitan.Emit(ctx, ExecutorRetryScheduled,
			KeyAttempt.Field(attempt+1),
			KeyDelay.Field(delay),
		)
		if e.metrics != nil {
			e.metrics.OnRetryScheduled(attempt+1, delay)
		}

		timer := e.clock.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C():
		}
	}
}

// roundTrip performs one transport exchange and classifies the outcome.
func (e *Executor) roundTrip(ctx context.Context, req Request) ([]byte, *Error) {
	resp, err := e.transport.Do(ctx, req)
	if err != nil {
		var classified *Error
		if errors.As(err, &classified) && (classified.Kind == KindTimeout || classified.Kind == KindUnavailable) {
			return nil, classified
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &Error{Kind: KindTimeout, Cause: err}
		}
		return nil, &Error{Kind: KindUnavailable, Cause: err}
	}

	if resp.Status < 200 || resp.Status > 299 {
		return nil, &Error{Kind: classifyStatus(resp.Status), Status: resp.Status}
	}
	if len(resp.Body) == 0 {
		return nil, &Error{Kind: KindNoData, Status: resp.Status}
	}
	return resp.Body, nil
}

// observeFailure emits the terminal failure signal and metrics callback.
func (e *Executor) observeFailure(ctx context.Context, failure *Error, attempts int, elapsed time.Duration) {
	capitan.Emit(ctx, ExecutorExhausted,
		KeyAttempt.Field(attempts),
		KeyKind.Field(failure.Kind.String()),
		KeyError.Field(failure.Error()),
	)
	if e.metrics != nil {
		e.metrics.OnFailure(failure.Kind, attempts, elapsed)
	}
}
