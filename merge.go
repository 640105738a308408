package rill

import (
	"sort"
	"time"
)

// MergedView is the coordinator's derived state: one item per ID, chosen
// from the highest-priority snapshot containing it, materialized sorted by
// timestamp descending. Views are immutable; the coordinator replaces its
// current view atomically on every merge cycle.
type MergedView struct {
	// Items holds exactly one item per ID, sorted by Timestamp descending.
	// Ties sort by ID ascending so a view is deterministic for given inputs.
	Items []StreamItem

	// Source is the winning tag for the cycle that produced the view.
	Source Source

	// MergedAt is the time the view was materialized.
	MergedAt time.Time
}

// Equal reports whether two views carry the same items in the same order
// with the same tag. MergedAt is ignored: two cycles over identical data
// produce equal views.
func (v MergedView) Equal(other MergedView) bool {
	if v.Source != other.Source || len(v.Items) != len(other.Items) {
		return false
	}
	for i, item := range v.Items {
		if item != other.Items[i] {
			return false
		}
	}
	return true
}

// mergeSnapshots builds a view from the latest snapshot of each source.
// Snapshots are applied in ascending priority order so a higher-priority
// snapshot's item overwrites a lower-priority one for the same ID. A nil
// snapshot is treated as empty: one absent source never blocks the merge of
// the others.
//
// The winning tag is live if the live snapshot is non-empty, else polled if
// the polled snapshot is non-empty, else cached.
func mergeSnapshots(live, polled, cached *StreamSnapshot, now time.Time) MergedView {
	byID := make(map[string]StreamItem)
	for _, snap := range []*StreamSnapshot{cached, polled, live} {
		if snap == nil {
			continue
		}
		for _, item := range snap.Items {
			byID[item.ID] = item
		}
	}

	tag := SourceCached
	switch {
	case live != nil && len(live.Items) > 0:
		tag = SourceLive
	case polled != nil && len(polled.Items) > 0:
		tag = SourcePolled
	}

	return MergedView{
		Items:    materialize(byID),
		Source:   tag,
		MergedAt: now,
	}
}

// upsertItems folds a fetched batch into an existing view, preferring the
// fetched copy for conflicting IDs. The result is re-sorted and re-tagged
// SourcePolled: missed-update and refresh reconciliation always supersede
// the live/cache tagging for that cycle.
func upsertItems(view MergedView, batch []StreamItem, now time.Time) MergedView {
	byID := make(map[string]StreamItem, len(view.Items)+len(batch))
	for _, item := range view.Items {
		byID[item.ID] = item
	}
	for _, item := range batch {
		byID[item.ID] = item
	}

	return MergedView{
		Items:    materialize(byID),
		Source:   SourcePolled,
		MergedAt: now,
	}
}

// materialize flattens an ID map into the view ordering: timestamp
// descending, ID ascending on ties.
func materialize(byID map[string]StreamItem) []StreamItem {
	items := make([]StreamItem, 0, len(byID))
	for _, item := range byID {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Timestamp.Equal(items[j].Timestamp) {
			return items[i].Timestamp.After(items[j].Timestamp)
		}
		return items[i].ID < items[j].ID
	})
	return items
}
