package rill

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zoobzio/pipz"
)

func terminalStage() pipz.Chainable[*Update] {
	return pipz.Transform(publishID, func(_ context.Context, u *Update) *Update {
		return u
	})
}

func TestWithMiddleware_RunsProcessorsInOrder(t *testing.T) {
	var order []string

	pipeline := buildPipeline(terminalStage(), []Option{
		WithMiddleware(
			UseEffect("first", func(_ context.Context, _ *Update) error {
				order = append(order, "first")
				return nil
			}),
			UseEffect("second", func(_ context.Context, _ *Update) error {
				order = append(order, "second")
				return nil
			}),
		),
	})

	if _, err := pipeline.Process(context.Background(), &Update{}); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("expected [first second], got %v", order)
	}
}

func TestUseTransform_ModifiesUpdate(t *testing.T) {
	pipeline := buildPipeline(terminalStage(), []Option{
		WithMiddleware(
			UseTransform("tag-cached", func(_ context.Context, u *Update) *Update {
				u.Current.Source = SourceCached
				return u
			}),
		),
	})

	out, err := pipeline.Process(context.Background(), &Update{
		Current: MergedView{Source: SourceLive},
	})
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	if out.Current.Source != SourceCached {
		t.Errorf("expected transformed source cached, got %s", out.Current.Source)
	}
}

func TestUseApply_FailureStopsPipeline(t *testing.T) {
	var reached bool
	wantErr := errors.New("validation failed")

	pipeline := buildPipeline(terminalStage(), []Option{
		WithMiddleware(
			UseApply("validate", func(_ context.Context, _ *Update) (*Update, error) {
				return nil, wantErr
			}),
			UseEffect("after", func(_ context.Context, _ *Update) error {
				reached = true
				return nil
			}),
		),
	})

	_, err := pipeline.Process(context.Background(), &Update{})
	if err == nil {
		t.Fatal("expected pipeline error")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped validation error, got %v", err)
	}
	if reached {
		t.Error("expected downstream processor skipped after failure")
	}
}

func TestUseEffect_PassesUpdateThrough(t *testing.T) {
	var seen Source
	pipeline := buildPipeline(terminalStage(), []Option{
		WithMiddleware(
			UseEffect("observe", func(_ context.Context, u *Update) error {
				seen = u.Current.Source
				return nil
			}),
		),
	})

	in := &Update{Current: MergedView{Source: SourceLive}}
	out, err := pipeline.Process(context.Background(), in)
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	if seen != SourceLive {
		t.Errorf("effect observed source %s, want live", seen)
	}
	if out.Current.Source != SourceLive {
		t.Errorf("expected update passed through unchanged, got source %s", out.Current.Source)
	}
}

func TestUseFilter_SkipsProcessorWhenConditionFalse(t *testing.T) {
	var ran bool
	stage := UseFilter("only-live",
		func(_ context.Context, u *Update) bool {
			return u.Current.Source == SourceLive
		},
		UseEffect("mark", func(_ context.Context, _ *Update) error {
			ran = true
			return nil
		}),
	)

	pipeline := buildPipeline(terminalStage(), []Option{WithMiddleware(stage)})

	if _, err := pipeline.Process(context.Background(), &Update{Current: MergedView{Source: SourceCached}}); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	if ran {
		t.Error("expected filtered processor skipped for cached source")
	}

	if _, err := pipeline.Process(context.Background(), &Update{Current: MergedView{Source: SourceLive}}); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	if !ran {
		t.Error("expected filtered processor to run for live source")
	}
}

func TestWithRetry_RetriesFailedPublish(t *testing.T) {
	var attempts int

	pipeline := buildPipeline(terminalStage(), []Option{
		WithMiddleware(
			UseApply("flaky", func(_ context.Context, u *Update) (*Update, error) {
				attempts++
				if attempts < 3 {
					return nil, errors.New("transient")
				}
				return u, nil
			}),
		),
		WithRetry(3),
	})

	if _, err := pipeline.Process(context.Background(), &Update{}); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithTimeout_FailsSlowPipeline(t *testing.T) {
	pipeline := buildPipeline(terminalStage(), []Option{
		WithMiddleware(
			UseApply("slow", func(ctx context.Context, u *Update) (*Update, error) {
				select {
				case <-time.After(time.Second):
					return u, nil
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}),
		),
		WithTimeout(20 * time.Millisecond),
	})

	if _, err := pipeline.Process(context.Background(), &Update{}); err == nil {
		t.Error("expected timeout error from slow stage")
	}
}

func TestWithErrorHandler_ObservesFailures(t *testing.T) {
	var observed bool

	pipeline := buildPipeline(terminalStage(), []Option{
		WithMiddleware(
			UseApply("fail", func(_ context.Context, _ *Update) (*Update, error) {
				return nil, errors.New("boom")
			}),
		),
		WithErrorHandler(pipz.Effect("record", func(_ context.Context, _ *pipz.Error[*Update]) error {
			observed = true
			return nil
		})),
	})

	if _, err := pipeline.Process(context.Background(), &Update{}); err == nil {
		t.Fatal("expected error to propagate through handler")
	}
	if !observed {
		t.Error("expected error handler to observe the failure")
	}
}
