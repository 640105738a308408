package rill

import (
	"testing"
	"time"
)

func ts(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func item(id, content string, sec int64) StreamItem {
	return StreamItem{ID: id, Content: content, Timestamp: ts(sec)}
}

func snap(source Source, items ...StreamItem) *StreamSnapshot {
	return &StreamSnapshot{Items: items, Timestamp: ts(100), Source: source}
}

func TestMergeSnapshots_PriorityWinsPerID(t *testing.T) {
	live := snap(SourceLive, item("1", "A", 10))
	polled := snap(SourcePolled, item("1", "B", 5), item("2", "C", 8))
	cached := snap(SourceCached, item("2", "D", 1))

	view := mergeSnapshots(live, polled, cached, ts(200))

	want := []StreamItem{item("1", "A", 10), item("2", "C", 8)}
	if len(view.Items) != len(want) {
		t.Fatalf("expected %d items, got %d: %+v", len(want), len(view.Items), view.Items)
	}
	for i := range want {
		if view.Items[i] != want[i] {
			t.Errorf("items[%d] = %+v, want %+v", i, view.Items[i], want[i])
		}
	}
	if view.Source != SourceLive {
		t.Errorf("expected live tag, got %s", view.Source)
	}
	if !view.MergedAt.Equal(ts(200)) {
		t.Errorf("unexpected merge timestamp %v", view.MergedAt)
	}
}

func TestMergeSnapshots_TagFallsBackByPriority(t *testing.T) {
	polled := snap(SourcePolled, item("1", "B", 5))
	cached := snap(SourceCached, item("2", "D", 1))

	view := mergeSnapshots(nil, polled, cached, ts(200))
	if view.Source != SourcePolled {
		t.Errorf("expected polled tag, got %s", view.Source)
	}

	view = mergeSnapshots(snap(SourceLive), polled, cached, ts(200))
	if view.Source != SourcePolled {
		t.Errorf("expected polled tag for empty live snapshot, got %s", view.Source)
	}

	view = mergeSnapshots(nil, nil, cached, ts(200))
	if view.Source != SourceCached {
		t.Errorf("expected cached tag, got %s", view.Source)
	}
}

func TestMergeSnapshots_AbsentSourceTreatedAsEmpty(t *testing.T) {
	live := snap(SourceLive, item("1", "A", 10))

	view := mergeSnapshots(live, nil, nil, ts(200))
	if len(view.Items) != 1 || view.Items[0].ID != "1" {
		t.Fatalf("expected single live item, got %+v", view.Items)
	}

	view = mergeSnapshots(nil, nil, nil, ts(200))
	if len(view.Items) != 0 {
		t.Errorf("expected empty view, got %+v", view.Items)
	}
	if view.Source != SourceCached {
		t.Errorf("expected cached tag for empty merge, got %s", view.Source)
	}
}

func TestMergeSnapshots_SortsByTimestampDescending(t *testing.T) {
	live := snap(SourceLive, item("b", "x", 3), item("a", "y", 9), item("c", "z", 9))

	view := mergeSnapshots(live, nil, nil, ts(200))

	wantOrder := []string{"a", "c", "b"}
	for i, id := range wantOrder {
		if view.Items[i].ID != id {
			t.Errorf("items[%d].ID = %s, want %s (ties break by ID ascending)", i, view.Items[i].ID, id)
		}
	}
}

func TestUpsertItems_PrefersBatchAndForcesPolledTag(t *testing.T) {
	base := mergeSnapshots(snap(SourceLive, item("1", "A", 10)), nil, nil, ts(200))

	batch := []StreamItem{item("1", "A2", 12), item("3", "E", 11)}
	view := upsertItems(base, batch, ts(201))

	if view.Source != SourcePolled {
		t.Errorf("expected polled tag after upsert, got %s", view.Source)
	}
	want := []StreamItem{item("1", "A2", 12), item("3", "E", 11)}
	if len(view.Items) != len(want) {
		t.Fatalf("expected %d items, got %+v", len(want), view.Items)
	}
	for i := range want {
		if view.Items[i] != want[i] {
			t.Errorf("items[%d] = %+v, want %+v", i, view.Items[i], want[i])
		}
	}
}

func TestUpsertItems_Idempotent(t *testing.T) {
	base := mergeSnapshots(nil, snap(SourcePolled, item("1", "B", 5)), nil, ts(200))
	batch := []StreamItem{item("1", "B", 5), item("2", "C", 8)}

	first := upsertItems(base, batch, ts(201))
	second := upsertItems(first, batch, ts(202))

	if !first.Equal(second) {
		t.Errorf("expected identical views after repeated upsert:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestMergedView_Equal(t *testing.T) {
	a := MergedView{Items: []StreamItem{item("1", "A", 10)}, Source: SourceLive, MergedAt: ts(1)}
	b := MergedView{Items: []StreamItem{item("1", "A", 10)}, Source: SourceLive, MergedAt: ts(2)}
	if !a.Equal(b) {
		t.Error("expected views equal regardless of MergedAt")
	}

	c := MergedView{Items: []StreamItem{item("1", "A", 10)}, Source: SourcePolled, MergedAt: ts(1)}
	if a.Equal(c) {
		t.Error("expected tag mismatch to break equality")
	}

	d := MergedView{Items: []StreamItem{item("1", "B", 10)}, Source: SourceLive, MergedAt: ts(1)}
	if a.Equal(d) {
		t.Error("expected item mismatch to break equality")
	}
}
