package rill

import (
	"context"
	"time"

	"github.com/zoobzio/pipz"
)

// Update flows through the coordinator's publish pipeline on every merge
// cycle. It carries the previous and newly merged views so middleware can
// make decisions based on what changed.
type Update struct {
	// Previous is the last published view. On the first cycle it is the
	// zero view.
	Previous MergedView

	// Current is the newly merged view. Middleware may inspect it before
	// it is stored and pushed to subscribers.
	Current MergedView
}

// publishID names the terminal publish stage in the pipeline.
const publishID = pipz.Name("publish")

// Option configures the coordinator's publish pipeline. Pipeline options
// wrap the publish terminal with middleware for timeout, retry, error
// observation, and custom processing.
//
// Instance configuration (debounce, clock, reconnect policy, etc.) is
// handled via chainable methods on the Coordinator before calling Start().
type Option func(pipz.Chainable[*Update]) pipz.Chainable[*Update]

// buildPipeline wraps a terminal with pipeline options.
func buildPipeline(terminal pipz.Chainable[*Update], opts []Option) pipz.Chainable[*Update] {
	pipeline := terminal
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	return pipeline
}

// WithTimeout wraps the pipeline with a deadline. A merge cycle that takes
// longer than d fails; the previous view is retained.
func WithTimeout(d time.Duration) Option {
	return func(p pipz.Chainable[*Update]) pipz.Chainable[*Update] {
		return pipz.NewTimeout("timeout", p, d)
	}
}

// WithRetry wraps the pipeline with retry logic. A failed publish is
// retried immediately up to maxAttempts times.
func WithRetry(maxAttempts int) Option {
	return func(p pipz.Chainable[*Update]) pipz.Chainable[*Update] {
		return pipz.NewRetry("retry", p, maxAttempts)
	}
}

// WithErrorHandler adds error observation to the pipeline. Errors are
// passed to the handler for logging, metrics, or alerting, but still
// propagate. Use this for observability, not recovery.
func WithErrorHandler(handler pipz.Chainable[*pipz.Error[*Update]]) Option {
	return func(p pipz.Chainable[*Update]) pipz.Chainable[*Update] {
		return pipz.NewHandle("error-handler", p, handler)
	}
}

// WithMiddleware wraps the pipeline with a sequence of processors.
// Processors execute in order, with the publish terminal last.
//
// Example:
//
//	rill.NewCoordinator(live, poll, cache,
//	    rill.WithMiddleware(
//	        rill.UseEffect("audit", auditFn),
//	        rill.UseApply("redact", redactFn),
//	    ),
//	    rill.WithTimeout(time.Second),
//	)
func WithMiddleware(processors ...pipz.Chainable[*Update]) Option {
	return func(p pipz.Chainable[*Update]) pipz.Chainable[*Update] {
		all := make([]pipz.Chainable[*Update], 0, len(processors)+1)
		all = append(all, processors...)
		all = append(all, p)
		return pipz.NewSequence("middleware", all...)
	}
}

// UseTransform creates a processor that transforms the update.
// Cannot fail. Use for pure transformations that always succeed.
func UseTransform(name string, fn func(context.Context, *Update) *Update) pipz.Chainable[*Update] {
	return pipz.Transform(pipz.Name(name), fn)
}

// UseApply creates a processor that can transform the update and fail.
func UseApply(name string, fn func(context.Context, *Update) (*Update, error)) pipz.Chainable[*Update] {
	return pipz.Apply(pipz.Name(name), fn)
}

// UseEffect creates a processor that performs a side effect. The update
// passes through unchanged. Use for logging, metrics, or notifications
// that should not affect the merged view.
func UseEffect(name string, fn func(context.Context, *Update) error) pipz.Chainable[*Update] {
	return pipz.Effect(pipz.Name(name), fn)
}

// UseFilter wraps a processor with a condition. If the condition returns
// false, the update passes through unchanged.
func UseFilter(name string, condition func(context.Context, *Update) bool, processor pipz.Chainable[*Update]) pipz.Chainable[*Update] {
	return pipz.NewFilter(pipz.Name(name), condition, processor)
}
