package rill

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestChannelFeed_ForwardsSnapshots(t *testing.T) {
	src := make(chan StreamSnapshot, 1)
	feed := NewChannelFeed(src)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := feed.Snapshots(ctx)
	if err != nil {
		t.Fatalf("Snapshots failed: %v", err)
	}

	src <- StreamSnapshot{Source: SourceLive, Items: []StreamItem{item("1", "A", 1)}}

	select {
	case snap := <-out:
		if snap.Source != SourceLive || len(snap.Items) != 1 {
			t.Errorf("unexpected snapshot: %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for forwarded snapshot")
	}
}

func TestChannelFeed_ClosesOnContextCancel(t *testing.T) {
	src := make(chan StreamSnapshot)
	feed := NewChannelFeed(src)

	ctx, cancel := context.WithCancel(context.Background())
	out, err := feed.Snapshots(ctx)
	if err != nil {
		t.Fatalf("Snapshots failed: %v", err)
	}

	cancel()

	select {
	case _, ok := <-out:
		if ok {
			t.Error("expected closed channel after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestSyncChannelFeed_ReturnsSourceDirectly(t *testing.T) {
	src := make(chan StreamSnapshot, 1)
	feed := NewSyncChannelFeed(src)

	out, err := feed.Snapshots(context.Background())
	if err != nil {
		t.Fatalf("Snapshots failed: %v", err)
	}

	src <- StreamSnapshot{Source: SourceCached}
	snap := <-out
	if snap.Source != SourceCached {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestChannelLiveFeed_ConnectAndDisconnectHooks(t *testing.T) {
	var connects, disconnects int
	wantErr := errors.New("refused")

	feed := NewChannelLiveFeed(make(chan StreamSnapshot), make(chan error)).
		ConnectFunc(func(_ context.Context) error {
			connects++
			if connects == 1 {
				return wantErr
			}
			return nil
		}).
		DisconnectFunc(func() {
			disconnects++
		})

	if err := feed.Connect(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("expected scripted connect error, got %v", err)
	}
	if err := feed.Connect(context.Background()); err != nil {
		t.Errorf("expected second connect to succeed, got %v", err)
	}
	feed.Disconnect()
	if connects != 2 || disconnects != 1 {
		t.Errorf("connects = %d, disconnects = %d", connects, disconnects)
	}
}

func TestChannelLiveFeed_DefaultsSucceed(t *testing.T) {
	feed := NewChannelLiveFeed(make(chan StreamSnapshot), make(chan error))

	if err := feed.Connect(context.Background()); err != nil {
		t.Errorf("default Connect should succeed, got %v", err)
	}
	feed.Disconnect() // no hook; must not panic
}

func TestChannelLiveFeed_DropsPassthrough(t *testing.T) {
	drops := make(chan error, 1)
	feed := NewChannelLiveFeed(make(chan StreamSnapshot), drops)

	out, err := feed.Drops(context.Background())
	if err != nil {
		t.Fatalf("Drops failed: %v", err)
	}

	drops <- errors.New("gone")
	if reason := <-out; reason.Error() != "gone" {
		t.Errorf("unexpected drop reason: %v", reason)
	}
}

func TestChannelPollFeed_FetchDefaultsAndOverrides(t *testing.T) {
	feed := NewChannelPollFeed(make(chan StreamSnapshot))

	items, err := feed.FetchMissed(context.Background())
	if err != nil || items != nil {
		t.Errorf("default FetchMissed = (%v, %v), want (nil, nil)", items, err)
	}
	items, err = feed.FetchLatest(context.Background())
	if err != nil || items != nil {
		t.Errorf("default FetchLatest = (%v, %v), want (nil, nil)", items, err)
	}

	feed.FetchMissedFunc(func(_ context.Context) ([]StreamItem, error) {
		return []StreamItem{item("1", "M", 1)}, nil
	})
	feed.FetchLatestFunc(func(_ context.Context) ([]StreamItem, error) {
		return nil, errors.New("down")
	})

	items, err = feed.FetchMissed(context.Background())
	if err != nil || len(items) != 1 {
		t.Errorf("FetchMissed = (%v, %v), want one item", items, err)
	}
	if _, err = feed.FetchLatest(context.Background()); err == nil {
		t.Error("expected scripted FetchLatest error")
	}
}
